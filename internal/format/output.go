// Package format encodes CLI payloads.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	JSON = "json"
	EDN  = "edn"
)

// Normalize validates a --format value. Empty means json.
func Normalize(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", JSON:
		return JSON, nil
	case EDN:
		return EDN, nil
	default:
		return "", fmt.Errorf("unknown format: %s (want json or edn)", format)
	}
}

// Write writes v in the requested format.
func Write(w io.Writer, v any, format string, pretty bool) error {
	f, err := Normalize(format)
	if err != nil {
		return err
	}
	if f == EDN {
		return WriteEDN(w, v, pretty)
	}
	return WriteJSON(w, v, pretty)
}

// WriteJSON writes strict JSON followed by a newline.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
