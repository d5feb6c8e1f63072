package cmd

import (
	"encoding/json"
	"os"
)

// printJSON pretty-prints v to stdout, the CLI's one output format.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
