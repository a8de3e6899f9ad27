package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/westernwontons/geolocate/internal/output"
)

type shell struct {
	name     string
	filename string
	generate func(root *cobra.Command, path string) error
}

var shells = []shell{
	{"bash", "geolocate.bash", func(root *cobra.Command, path string) error {
		return root.GenBashCompletionFileV2(path, true)
	}},
	{"zsh", "_geolocate", func(root *cobra.Command, path string) error {
		return root.GenZshCompletionFile(path)
	}},
	{"fish", "geolocate.fish", func(root *cobra.Command, path string) error {
		return root.GenFishCompletionFile(path, true)
	}},
	{"powershell", "_geolocate.ps1", func(root *cobra.Command, path string) error {
		return root.GenPowerShellCompletionFileWithDesc(path)
	}},
}

func completionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completions",
		Short: "Generate shell completions",
		Long: `Generate a completion script for the given shell and write it to OUTDIR,
or to the current directory when OUTDIR is omitted.`,
	}

	for _, sh := range shells {
		cmd.AddCommand(shellCmd(sh))
	}
	return cmd
}

func shellCmd(sh shell) *cobra.Command {
	return &cobra.Command{
		Use:   sh.name + " [OUTDIR]",
		Short: fmt.Sprintf("Generate %s completions", sh.name),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}

			path := filepath.Join(dir, sh.filename)
			if err := sh.generate(cmd.Root(), path); err != nil {
				return fmt.Errorf("failed to generate %s completions: %w", sh.name, err)
			}

			output.RenderCompletionPath(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
