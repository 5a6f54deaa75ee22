package memory

import (
	"maps"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// New returns an empty document stamped with the marker.
func New(now time.Time, schemaVersion string) *Document {
	if schemaVersion == "" {
		schemaVersion = DefaultSchemaVersion
	}
	return &Document{
		SchemaVersion: schemaVersion,
		LastModified:  FormatTimestamp(now),
		Marker:        Marker,
		Entries:       []Entry{},
	}
}

type appendOptions struct {
	contentLimit int
}

// AppendOption tunes a single Append call.
type AppendOption func(*appendOptions)

// WithContentLimit overrides DefaultContentLimit. Values <= 0 are ignored.
func WithContentLimit(n int) AppendOption {
	return func(o *appendOptions) {
		if n > 0 {
			o.contentLimit = n
		}
	}
}

// Append adds a new entry dated now and returns it. The id is derived from
// the entries already in the document, content is truncated to the content
// limit, and caller metadata is layered over the generated timestamp.
func (d *Document) Append(now time.Time, in EntryInput, opts ...AppendOption) Entry {
	o := appendOptions{contentLimit: DefaultContentLimit}
	for _, opt := range opts {
		opt(&o)
	}
	now = now.UTC()

	metadata := map[string]any{TimestampKey: FormatTimestamp(now)}
	maps.Copy(metadata, in.Metadata)

	entry := Entry{
		ID:       d.NextEntryID(now),
		Type:     in.Type,
		Content:  truncate(in.Content, o.contentLimit),
		Source:   in.Source,
		Metadata: metadata,
	}
	d.Entries = append(d.Entries, entry)
	SortEntries(d.Entries)
	d.LastModified = FormatTimestamp(now)
	return entry
}

// Merge appends every remote entry whose id is not already present, then
// re-sorts by timestamp and bumps LastModified. Entries rejected by filter
// or lacking an id are skipped. The added entries are returned in the order
// they were taken from remote.
func (d *Document) Merge(remote *Document, now time.Time, filter *SourceFilter) []Entry {
	var added []Entry
	if remote != nil {
		ids := d.IDs()
		for _, e := range remote.Entries {
			if e.ID == "" {
				continue
			}
			if _, exists := ids[e.ID]; exists {
				continue
			}
			if !filter.Allows(e.Source) {
				continue
			}
			e.Metadata = maps.Clone(e.Metadata)
			ids[e.ID] = struct{}{}
			d.Entries = append(d.Entries, e)
			added = append(added, e)
		}
	}
	SortEntries(d.Entries)
	d.LastModified = FormatTimestamp(now)
	return added
}

// SortEntries orders entries ascending by metadata timestamp. Zone-less
// timestamps count as UTC. Entries with an unparseable timestamp go last,
// ordered by their raw value. The sort is stable.
func SortEntries(entries []Entry) {
	slices.SortStableFunc(entries, compareEntries)
}

func compareEntries(a, b Entry) int {
	ta, okA := a.Timestamp()
	tb, okB := b.Timestamp()
	switch {
	case okA && okB:
		return ta.Compare(tb)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return strings.Compare(a.rawTimestamp(), b.rawTimestamp())
	}
}

// FormatTimestamp renders t the way entry metadata stores it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
