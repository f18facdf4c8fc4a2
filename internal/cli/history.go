package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"editbench/internal/config"
	"editbench/internal/history"
)

type historyOptions struct {
	fixture   string
	limit     int
	scenarios bool
}

func newHistoryCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs from the history database",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.scenarios && opts.fixture == "" {
				return usageErrorf("--scenarios requires --fixture")
			}
			loaded, err := loadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			path := config.ResolvePath(loaded.Root, loaded.Config.HistoryDB)
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(stdout, "No runs recorded")
				return nil
			}
			store, err := history.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer store.Close()

			if opts.scenarios {
				rates, err := store.ScenarioRates(cmd.Context(), opts.fixture)
				if err != nil {
					return err
				}
				return renderScenarioRates(stdout, rates, rootOpts.NoColor)
			}
			runs, err := store.Recent(cmd.Context(), opts.fixture, opts.limit)
			if err != nil {
				return err
			}
			return renderRuns(stdout, runs, rootOpts.NoColor)
		},
	}
	cmd.Flags().StringVar(&opts.fixture, "fixture", "", "only runs of this fixture path")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "maximum runs to list")
	cmd.Flags().BoolVar(&opts.scenarios, "scenarios", false, "per-scenario pass rates for --fixture")
	return cmd
}

func renderRuns(w io.Writer, runs []history.RunSummary, noColor bool) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded")
		return err
	}
	rows := make([][]string, 0, len(runs))
	for i, run := range runs {
		// Runs are newest first; the previous run of the same fixture and
		// engine sits further down the list.
		same := ""
		for _, older := range runs[i+1:] {
			if older.Fixture == run.Fixture && older.Engine == run.Engine {
				if older.VerdictsKey == run.VerdictsKey {
					same = "="
				}
				break
			}
		}
		status := ""
		if run.Cancelled {
			status = "cancelled"
		}
		rows = append(rows, []string{
			run.RunID,
			run.Fixture,
			run.Engine,
			run.Strategy,
			strconv.Itoa(run.Summary.Pass),
			strconv.Itoa(run.Summary.Fail),
			strconv.Itoa(run.Summary.Partial),
			strconv.Itoa(run.Summary.Unavailable),
			fmt.Sprintf("%.0f%%", run.Summary.PassRate*100),
			same,
			status,
		})
	}
	t := newTable(noColor).
		Headers("RUN", "FIXTURE", "ENGINE", "STRATEGY", "PASS", "FAIL", "PARTIAL", "UNAVAIL", "RATE", "SAME", "").
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func renderScenarioRates(w io.Writer, rates []history.ScenarioRate, noColor bool) error {
	if len(rates) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded")
		return err
	}
	rows := make([][]string, 0, len(rates))
	for _, rate := range rates {
		rows = append(rows, []string{
			rate.Engine,
			rate.Scenario,
			strconv.Itoa(rate.Verdicts),
			strconv.Itoa(rate.Pass),
			fmt.Sprintf("%.0f%%", rate.PassRate*100),
		})
	}
	t := newTable(noColor).
		Headers("ENGINE", "SCENARIO", "VERDICTS", "PASS", "RATE").
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func newTable(noColor bool) *table.Table {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	if !noColor {
		header = header.Foreground(lipgloss.Color("39"))
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}
