// Package format holds the terminal color palette.
package format

import (
	"github.com/fatih/color"
	"github.com/tidwall/pretty"
)

var (
	Green = color.New(color.FgGreen).SprintFunc()
	Bold  = color.New(color.Bold).SprintFunc()
	Dim   = color.New(color.Faint).SprintFunc()

	// ProviderName formats the provider column of the key table.
	ProviderName = color.New(color.FgHiCyan, color.Bold).SprintfFunc()
)

const reset = "\x1b[0m"

// JSONStyle colors lookup results: keys blue bold, strings green, numbers
// cyan, booleans yellow and null magenta.
var JSONStyle = &pretty.Style{
	Key:    [2]string{"\x1b[1;34m", reset},
	String: [2]string{"\x1b[32m", reset},
	Number: [2]string{"\x1b[36m", reset},
	True:   [2]string{"\x1b[33m", reset},
	False:  [2]string{"\x1b[33m", reset},
	Null:   [2]string{"\x1b[35m", reset},
}

// JSONLayout indents with two spaces, one value per line, and keeps the
// key order of the input.
var JSONLayout = &pretty.Options{
	Indent:   "  ",
	SortKeys: false,
}
