package cli

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"editbench/internal/config"
	"editbench/internal/report"
)

// Output formats accepted by show --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatHTML = "html"
)

func newShowCommand(rootOpts *rootOptions) *cobra.Command {
	var (
		format    string
		outputDir string
	)
	cmd := &cobra.Command{
		Use:   "show <run>",
		Short: "Print a stored report by run id, fixture name, run directory, or results file",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case formatText, formatJSON, formatHTML:
			default:
				return usageErrorf("invalid format %q (expected text|json|html)", format)
			}
			if outputDir == "" {
				loaded, err := loadConfig(rootOpts.ConfigPath)
				if err != nil {
					return err
				}
				outputDir = config.ResolvePath(loaded.Root, loaded.Config.OutputDir)
			}
			result, _, err := report.ResolveRun(outputDir, args[0])
			if err != nil {
				return err
			}
			return writeReport(cmd, result, format, rootOpts.NoColor)
		},
	}
	cmd.Flags().StringVar(&format, "format", formatText, "output format (text|json|html)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "results directory (default: config output_dir)")
	return cmd
}

func writeReport(cmd *cobra.Command, result report.Report, format string, noColor bool) error {
	stdout := cmd.OutOrStdout()
	switch format {
	case formatJSON:
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case formatHTML:
		page, err := report.RenderHTML(cmd.Context(), result)
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, page)
		return err
	default:
		return report.RenderText(stdout, result, noColor || !isTerminal(stdout))
	}
}
