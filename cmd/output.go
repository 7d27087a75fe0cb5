package cmd

import (
	"encoding/json"
	"io"
)

// outputJSON writes data as indented JSON.
func outputJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
