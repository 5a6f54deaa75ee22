package memory

import (
	"fmt"
	"time"
)

const (
	// Marker is the value every compatible document carries in campbell_motto.
	Marker = "Ne Obliviscaris"

	// DefaultSchemaVersion is stamped on documents created from scratch.
	DefaultSchemaVersion = "20260213-0.1"

	// DefaultContentLimit is the maximum entry content length, in characters.
	DefaultContentLimit = 200

	// TimestampKey is the metadata field entries are ordered by.
	TimestampKey = "timestamp"
)

// EntryType classifies what an entry records.
type EntryType string

const (
	EntryTypeAction EntryType = "action"
	EntryTypeNote   EntryType = "note"
)

// Document is the fully parsed representation of a memory file.
// LastModified is kept as written so documents from other writers load and
// round-trip even when their timestamp carries no zone.
type Document struct {
	SchemaVersion string  `json:"version"`
	LastModified  string  `json:"timestamp"`
	Marker        string  `json:"campbell_motto"`
	Entries       []Entry `json:"entries"`
}

// Entry is one memory record.
type Entry struct {
	ID       string         `json:"id"`
	Type     EntryType      `json:"type"`
	Content  string         `json:"content"`
	Source   string         `json:"source"`
	Metadata map[string]any `json:"metadata"`
}

// EntryInput carries the caller-supplied fields of a new entry.
type EntryInput struct {
	Type     EntryType
	Content  string
	Source   string
	Metadata map[string]any
}

// Timestamp returns the parsed metadata timestamp of the entry.
// ok is false when the field is missing or not an ISO-8601 string.
func (e Entry) Timestamp() (ts time.Time, ok bool) {
	raw, exists := e.Metadata[TimestampKey].(string)
	if !exists {
		return time.Time{}, false
	}
	return ParseTimestamp(raw)
}

// LastModifiedTime returns the parsed document timestamp.
func (d *Document) LastModifiedTime() (time.Time, bool) {
	return ParseTimestamp(d.LastModified)
}

// zone-less layouts are read as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp reads an ISO-8601 timestamp with or without a zone.
// ok is false when no known layout matches.
func ParseTimestamp(raw string) (ts time.Time, ok bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (e Entry) rawTimestamp() string {
	if s, ok := e.Metadata[TimestampKey].(string); ok {
		return s
	}
	if v, ok := e.Metadata[TimestampKey]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// Validate ensures the document carries the compatibility marker.
func (d *Document) Validate() error {
	if d.Marker != Marker {
		return fmt.Errorf("%w: got %q", ErrMarkerMismatch, d.Marker)
	}
	return nil
}

// IDs returns the set of entry ids in the document.
func (d *Document) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(d.Entries))
	for _, e := range d.Entries {
		ids[e.ID] = struct{}{}
	}
	return ids
}
