package memory

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const idDateLayout = "20060102"

// NextEntryID returns the id the next entry appended at now would receive:
// <YYYYMMDD>-<NNN>, where NNN is one past the number of ids already dated
// today. If a merge left gaps, the sequence continues after the highest one
// seen so ids stay unique.
func (d *Document) NextEntryID(now time.Time) string {
	prefix := now.UTC().Format(idDateLayout) + "-"
	count, highest := 0, 0
	for _, e := range d.Entries {
		if !strings.HasPrefix(e.ID, prefix) {
			continue
		}
		count++
		if seq, err := strconv.Atoi(e.ID[len(prefix):]); err == nil && seq > highest {
			highest = seq
		}
	}
	return fmt.Sprintf("%s%03d", prefix, max(count, highest)+1)
}

// ParseEntryID splits an entry id into its date and sequence number.
func ParseEntryID(id string) (date time.Time, seq int, err error) {
	datePart, seqPart, found := strings.Cut(id, "-")
	if !found {
		return time.Time{}, 0, fmt.Errorf("memory: malformed entry id %q", id)
	}
	date, err = time.Parse(idDateLayout, datePart)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("memory: entry id %q: bad date: %w", id, err)
	}
	seq, err = strconv.Atoi(seqPart)
	if err != nil || seq <= 0 {
		return time.Time{}, 0, fmt.Errorf("memory: entry id %q: bad sequence", id)
	}
	return date, seq, nil
}
