// Package output renders lookup results and configuration to the terminal.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/westernwontons/geolocate/internal/config"
	"github.com/westernwontons/geolocate/internal/format"
)

// RenderKeys prints the configured API keys as a two column table.
func RenderKeys(w io.Writer, path string, pairs []config.Pair) {
	fmt.Fprintf(w, "\n%s %s\n\n", format.Bold("Configuration file:"), path)

	if len(pairs) == 0 {
		fmt.Fprintf(w, "%s\n\n", format.Dim("No API keys configured."))
		return
	}

	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("Provider", "API Key").WithWriter(w)
	tbl.WithHeaderFormatter(headerFmt)
	tbl.WithFirstColumnFormatter(format.ProviderName)

	for _, pair := range pairs {
		tbl.AddRow(pair.Name, format.Green(pair.Key))
	}

	tbl.Print()
	fmt.Fprintln(w)
}

// RenderCompletionPath reports where a completion script was written.
func RenderCompletionPath(w io.Writer, path string) {
	fmt.Fprintf(w, "Generated shell completions to: %s\n", path)
}

// DisableColors turns off color output (for non-TTY or --no-color)
func DisableColors() {
	color.NoColor = true
}

// ColorsEnabled reports whether colored output is active.
func ColorsEnabled() bool {
	return !color.NoColor
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
