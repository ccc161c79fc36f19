package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/fwerkmann/stackflow/pkg/errors"
)

// WriteJSON encodes a document as indented JSON and writes it to w.
// The graph section lists nodes sorted by ID, so the output is byte-stable
// across runs. The result can be re-imported with [ReadJSON].
func WriteJSON(d Document, w io.Writer) error {
	if d.Version == 0 {
		d.Version = FormatVersion
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode diagram document")
	}
	return nil
}

// ExportJSON writes a document to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(d Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	return WriteJSON(d, f)
}
