package commands

import (
	"encoding/json"
	"io"
	"strings"
)

// splitAddresses splits a comma separated recipient list
func splitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
