package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/pretty"

	"github.com/westernwontons/geolocate/internal/format"
)

// RenderJSON writes results as one indented JSON array. Key order inside
// each result is kept exactly as the provider sent it.
func RenderJSON(w io.Writer, results []json.RawMessage, colorize bool) error {
	if results == nil {
		results = []json.RawMessage{}
	}

	compact, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("cannot encode results: %w", err)
	}

	doc := pretty.PrettyOptions(compact, format.JSONLayout)
	if colorize {
		doc = pretty.Color(doc, format.JSONStyle)
	}

	_, err = w.Write(doc)
	return err
}
