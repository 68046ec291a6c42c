package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// readChain loads chain JSON from path, or from stdin when path is "" or "-".
func readChain(path string, stdin io.Reader) (Chain, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return Chain{}, fmt.Errorf("failed to read chain JSON: %w", err)
	}
	return parseChainJSON(data)
}

func parseChainJSON(data []byte) (Chain, error) {
	var c Chain
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Chain{}, fmt.Errorf("failed to unmarshal chain JSON: %w", err)
	}
	return c, nil
}

func writeJSON(w io.Writer, v any) error {
	asJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(asJSON))
	return err
}
