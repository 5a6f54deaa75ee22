// Package syncer runs one memory sync: load the local document, merge the
// remote one into it, record the attempt as an entry, and persist.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/memsync/pkg/config"
	"github.com/entrhq/memsync/pkg/logging"
	"github.com/entrhq/memsync/pkg/memory"
	"github.com/entrhq/memsync/pkg/remote"
)

// Status records how the remote side of a run went.
type Status string

const (
	StatusMerged      Status = "merged"
	StatusLocalOnly   Status = "local_only"
	StatusFetchFailed Status = "fetch_failed"
)

// Result summarizes a finished run.
type Result struct {
	RunID       string
	Status      Status
	Created     bool
	Added       []string
	SyncEntryID string
	Entries     int
	Path        string
	BackupPath  string
}

// Syncer performs sync runs with a fixed configuration.
type Syncer struct {
	cfg      *config.Config
	fetcher  remote.Fetcher
	filter   *memory.SourceFilter
	clock    memory.Clock
	newRunID func() string
	log      *logging.Logger
	console  *logging.Console
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithFetcher replaces the scheme resolver. A nil fetcher disables fetching.
func WithFetcher(f remote.Fetcher) Option {
	return func(s *Syncer) { s.fetcher = f }
}

func WithClock(c memory.Clock) Option {
	return func(s *Syncer) { s.clock = c }
}

func WithRunID(fn func() string) Option {
	return func(s *Syncer) { s.newRunID = fn }
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Syncer) { s.log = l }
}

func WithConsole(c *logging.Console) Option {
	return func(s *Syncer) { s.console = c }
}

// New builds a Syncer. Fetching uses remote.NewResolver unless disabled in
// cfg or replaced with WithFetcher.
func New(cfg *config.Config, opts ...Option) (*Syncer, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("syncer: invalid configuration: %w", err)
	}
	filter, err := memory.NewSourceFilter(cfg.Merge.IncludeSources, cfg.Merge.ExcludeSources)
	if err != nil {
		return nil, fmt.Errorf("syncer: %w", err)
	}

	s := &Syncer{
		cfg:      cfg,
		filter:   filter,
		clock:    memory.SystemClock,
		newRunID: func() string { return uuid.New().String() },
		log:      logging.NewWriterLogger("syncer", io.Discard),
		console:  logging.NewConsole(io.Discard, logging.VerbosityQuiet),
	}
	if cfg.Remote.Enabled {
		s.fetcher = remote.NewResolver(remote.Options{
			Timeout:   cfg.Remote.Timeout,
			UserAgent: cfg.Remote.UserAgent,
			MaxBytes:  cfg.Remote.MaxBytes,
		})
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run syncs the document at localPath with remoteURL, recording source on
// the sync entry. A local file that is missing or unreadable is replaced by
// a new document; a failed fetch degrades to a local-only run. Only a failed
// save is returned as an error.
func (s *Syncer) Run(ctx context.Context, localPath, remoteURL, source string) (*Result, error) {
	if remoteURL == "" {
		return nil, fmt.Errorf("syncer: remote url is required")
	}
	if source == "" {
		source = s.cfg.DefaultSource
	}

	store, err := memory.NewFileStore(localPath,
		memory.WithBackupSuffix(s.cfg.Storage.BackupSuffix),
		memory.WithLocking(s.cfg.Storage.Lock),
	)
	if err != nil {
		return nil, fmt.Errorf("syncer: %w", err)
	}

	now := s.clock()
	res := &Result{
		RunID:      s.newRunID(),
		Status:     StatusLocalOnly,
		Path:       store.Path(),
		BackupPath: store.BackupPath(),
	}
	s.log.Infof("run %s: local=%s remote=%s source=%s", res.RunID, localPath, remoteURL, source)
	s.console.Header(fmt.Sprintf("Memory sync from %s", remoteURL))

	doc, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			s.console.Infof("Creating new local memory file")
		} else {
			s.console.Warningf("%v; creating new local memory file", err)
		}
		s.log.Warnf("load failed, starting new document: %v", err)
		doc = memory.New(now, s.cfg.Document.SchemaVersion)
		res.Created = true
	}

	metadata := map[string]any{
		"remote_url": remoteURL,
		"run_id":     res.RunID,
	}

	if s.fetcher == nil {
		s.console.Infof("Remote sync disabled - using local only")
		s.log.Infof("fetch disabled")
	} else {
		s.fetchAndMerge(ctx, doc, remoteURL, now, res, metadata)
	}
	metadata["sync_status"] = string(res.Status)

	entry := doc.Append(now, memory.EntryInput{
		Type:     memory.EntryTypeAction,
		Content:  fmt.Sprintf("Memory sync attempted with %s", remoteURL),
		Source:   source,
		Metadata: metadata,
	}, memory.WithContentLimit(s.cfg.Document.ContentLimit))
	res.SyncEntryID = entry.ID
	res.Entries = len(doc.Entries)
	s.console.Verbosef("Added entry %s (%s): %s", entry.ID, entry.Type, entry.Content)

	if err := store.Save(ctx, doc); err != nil {
		s.log.Errorf("save %s: %v", store.Path(), err)
		return res, fmt.Errorf("syncer: save %s: %w", store.Path(), err)
	}
	s.log.Infof("run %s saved %d entries to %s", res.RunID, res.Entries, store.Path())
	return res, nil
}

func (s *Syncer) fetchAndMerge(ctx context.Context, doc *memory.Document, remoteURL string, now time.Time, res *Result, metadata map[string]any) {
	remoteDoc, err := s.fetcher.Fetch(ctx, remoteURL)
	if err != nil {
		res.Status = StatusFetchFailed
		metadata["error"] = err.Error()
		s.console.Warningf("remote fetch failed, continuing with local only: %v", err)
		s.log.Errorf("fetch %s: %v", remoteURL, err)
		return
	}

	added := doc.Merge(remoteDoc, now, s.filter)
	res.Status = StatusMerged
	for _, e := range added {
		res.Added = append(res.Added, e.ID)
		s.console.Verbosef("Added entry %s from %s", e.ID, e.Source)
		s.log.Debugf("merged entry %s from %s", e.ID, e.Source)
	}
	metadata["added"] = len(added)
	s.console.Infof("Merged %d of %d remote entries", len(added), len(remoteDoc.Entries))
}
