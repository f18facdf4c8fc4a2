package cli

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"editbench/internal/config"
	"editbench/internal/reportserver"
)

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	var (
		addr      string
		outputDir string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored reports over HTTP",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = config.ResolvePath(loaded.Root, loaded.Config.OutputDir)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return reportserver.Serve(ctx, reportserver.Config{
				Addr:      addr,
				OutputDir: outputDir,
				HistoryDB: config.ResolvePath(loaded.Root, loaded.Config.HistoryDB),
				Logger:    newLogger(cmd.ErrOrStderr(), rootOpts.Verbose),
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "results directory (default: config output_dir)")
	return cmd
}
