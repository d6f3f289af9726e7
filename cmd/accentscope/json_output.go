package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"accentscope/internal/analysis"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// jsonFailure mirrors the API error body so --json callers parse one shape.
type jsonFailure struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeJSONFailure reports err on stdout and returns it for the exit code.
func writeJSONFailure(cmd *cobra.Command, err error) error {
	if werr := writeJSON(cmd, jsonFailure{Error: err.Error(), Kind: analysis.ErrorKind(err)}); werr != nil {
		return werr
	}
	return err
}
