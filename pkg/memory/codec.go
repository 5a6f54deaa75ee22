package memory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("memory: document not found")
	ErrInvalidDocument = errors.New("memory: invalid document")
	ErrMarkerMismatch  = errors.New("memory: marker mismatch")
)

// Decode parses a raw memory file and checks its marker.
func Decode(raw []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Entries == nil {
		d.Entries = []Entry{}
	}
	return &d, nil
}

// Encode renders a document as 2-space indented JSON with a trailing newline.
func Encode(d *Document) ([]byte, error) {
	out := *d
	if out.Entries == nil {
		out.Entries = []Entry{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(&out); err != nil {
		return nil, fmt.Errorf("memory: encode: %w", err)
	}
	return buf.Bytes(), nil
}
