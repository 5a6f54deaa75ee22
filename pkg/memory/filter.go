package memory

import (
	"fmt"

	"github.com/gobwas/glob"
)

// SourceFilter decides which remote entries a merge may take, by matching
// glob patterns against Entry.Source. A nil filter allows everything.
type SourceFilter struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewSourceFilter compiles include and exclude patterns.
// Returns nil when both lists are empty.
func NewSourceFilter(include, exclude []string) (*SourceFilter, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	f := &SourceFilter{}
	for _, pattern := range include {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("memory: invalid include pattern '%s': %w", pattern, err)
		}
		f.include = append(f.include, g)
	}
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("memory: invalid exclude pattern '%s': %w", pattern, err)
		}
		f.exclude = append(f.exclude, g)
	}
	return f, nil
}

// Allows reports whether an entry from source may be merged.
func (f *SourceFilter) Allows(source string) bool {
	if f == nil {
		return true
	}

	// Exclusions take precedence
	for _, g := range f.exclude {
		if g.Match(source) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(source) {
			return true
		}
	}
	return false
}
