package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"editbench/internal/config"
)

type initOptions struct {
	dir       string
	gitignore bool
}

func newInitCommand(_ *rootOptions) *cobra.Command {
	opts := &initOptions{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .editbench/config.yml and replay file",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			root := strings.TrimSpace(opts.dir)
			if root == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("init failed: %w", err)
				}
				root = wd
			}
			root, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("init failed: %w", err)
			}
			configPath, err := config.Scaffold(root)
			if err != nil {
				return fmt.Errorf("init failed: %w", err)
			}
			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Created %s\n", configPath)
			fmt.Fprintf(stdout, "Created %s\n", filepath.Join(config.ConfigDir(root), "replay.yml"))
			if opts.gitignore {
				updated, err := addGitignoreEntry(root, config.DefaultOutputDir)
				if err != nil {
					return fmt.Errorf("init failed: update .gitignore: %w", err)
				}
				if updated {
					fmt.Fprintf(stdout, "Updated %s\n", filepath.Join(root, ".gitignore"))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.dir, "dir", "", "project root (default: current directory)")
	cmd.Flags().BoolVar(&opts.gitignore, "gitignore", false, "add the results folder to .gitignore")
	return cmd
}

// addGitignoreEntry appends entry to root/.gitignore unless already listed.
func addGitignoreEntry(root, entry string) (bool, error) {
	entry = strings.TrimSuffix(filepath.ToSlash(strings.TrimSpace(entry)), "/")
	if entry == "" {
		return false, nil
	}
	path := filepath.Join(root, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(scanner.Text()), "/"), "/")
		if line == entry {
			return false, nil
		}
	}
	var b strings.Builder
	b.Write(data)
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		b.WriteString("\n")
	}
	b.WriteString(entry + "/\n")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
