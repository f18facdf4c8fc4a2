package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"editbench/internal/fixture"
)

// parsedMarker is the JSON shape printed by parse --json.
type parsedMarker struct {
	Index    int    `json:"index"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Offset   int    `json:"offset"`
	Scenario string `json:"scenario"`
	Intent   string `json:"intent"`
}

func newParseCommand(rootOpts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "parse <fixture>",
		Short: "List the markers found in a fixture",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			fc := loaded.Config.Fixture
			syntax, err := fixture.CompileSyntax(fc.HeadingPattern, fc.MarkerPhrase, fc.IntentDelimiters, fc.CommentPrefixes)
			if err != nil {
				return err
			}
			f, err := fixture.Load(args[0], fixture.WithSyntax(syntax))
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if asJSON {
				markers := make([]parsedMarker, 0, len(f.Markers))
				for _, m := range f.Markers {
					markers = append(markers, parsedMarker{
						Index: m.Index, Line: m.Line, Column: m.Column, Offset: m.Offset,
						Scenario: m.Scenario, Intent: m.Intent,
					})
				}
				encoder := json.NewEncoder(stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(markers)
			}
			fmt.Fprintf(stdout, "%s: %d markers\n", f.Path, len(f.Markers))
			for _, m := range f.Markers {
				fmt.Fprintf(stdout, "%3d  %4d:%-3d  %s  %s\n", m.Index, m.Line, m.Column, m.Scenario, m.Intent)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print markers as JSON")
	return cmd
}
