package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/fwerkmann/stackflow/pkg/errors"
)

// ReadJSON decodes a diagram document from r.
//
// The input must be a JSON object with a "version" field matching
// [FormatVersion] and a "graph" section; "layout" and "routes" are
// optional. ReadJSON returns an error with code MALFORMED_INPUT for invalid
// JSON and UNSUPPORTED for a version mismatch. Graph integrity is not
// checked here; [Document.BuildGraph] validates nodes and edges when the
// graph is actually reconstructed.
//
// The returned document is independent of r. ReadJSON does not close r.
func ReadJSON(r io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeMalformedInput, err, "decode diagram document")
	}
	if d.Version != FormatVersion {
		return Document{}, errors.New(errors.ErrCodeUnsupported,
			"diagram document version %d, expected %d", d.Version, FormatVersion)
	}
	return d, nil
}

// ImportJSON reads the JSON file at path and returns the decoded document.
//
// ImportJSON opens the file, decodes it using [ReadJSON], and closes the
// file. A missing file reports FILE_NOT_FOUND; decoding failures carry the
// same codes as [ReadJSON].
func ImportJSON(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}
