package syncer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/memsync/pkg/config"
	"github.com/entrhq/memsync/pkg/logging"
	"github.com/entrhq/memsync/pkg/memory"
)

var runTime = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

const remoteURL = "https://example.org/api/memory/public"

type stubFetcher struct {
	doc   *memory.Document
	err   error
	calls []string
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) (*memory.Document, error) {
	f.calls = append(f.calls, rawURL)
	return f.doc, f.err
}

func remoteDoc(entries ...memory.Entry) *memory.Document {
	d := memory.New(runTime, "")
	d.Entries = append(d.Entries, entries...)
	return d
}

func remoteEntry(id, source string, ts time.Time) memory.Entry {
	return memory.Entry{
		ID:       id,
		Type:     memory.EntryTypeNote,
		Content:  "remote " + id,
		Source:   source,
		Metadata: map[string]any{memory.TimestampKey: memory.FormatTimestamp(ts)},
	}
}

func newSyncer(t *testing.T, cfg *config.Config, opts ...Option) *Syncer {
	t.Helper()
	base := []Option{
		WithClock(memory.FixedClock(runTime)),
		WithRunID(func() string { return "run-1" }),
	}
	s, err := New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	return s
}

func localPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "memory.json")
}

func TestRun_NewDocumentLocalOnly(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Remote.Enabled = false
	s := newSyncer(t, cfg)
	path := localPath(t)

	res, err := s.Run(context.Background(), path, remoteURL, "heron-02")
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, StatusLocalOnly, res.Status)
	assert.Equal(t, "20261018-001", res.SyncEntryID)
	assert.Equal(t, 1, res.Entries)
	assert.Equal(t, "run-1", res.RunID)

	doc, err := memory.Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	e := doc.Entries[0]
	assert.Equal(t, memory.EntryTypeAction, e.Type)
	assert.Equal(t, "Memory sync attempted with "+remoteURL, e.Content)
	assert.Equal(t, "heron-02", e.Source)
	assert.Equal(t, "local_only", e.Metadata["sync_status"])
	assert.Equal(t, remoteURL, e.Metadata["remote_url"])
	assert.Equal(t, "run-1", e.Metadata["run_id"])
	assert.Equal(t, memory.FormatTimestamp(runTime), doc.LastModified)
}

func TestRun_MergesRemote(t *testing.T) {
	path := localPath(t)
	local := memory.New(runTime.Add(-48*time.Hour), "")
	local.Append(runTime.Add(-48*time.Hour), memory.EntryInput{Type: memory.EntryTypeNote, Content: "local", Source: "heron-local"})
	require.NoError(t, memory.Persist(local, path))

	fetcher := &stubFetcher{doc: remoteDoc(
		remoteEntry("20261016-001", "heron-local", runTime.Add(-48*time.Hour)), // same id as local
		remoteEntry("20261017-001", "heron-02", runTime.Add(-24*time.Hour)),
		remoteEntry("20261015-001", "heron-03", runTime.Add(-72*time.Hour)),
	)}

	var out bytes.Buffer
	s := newSyncer(t, config.DefaultConfig(),
		WithFetcher(fetcher),
		WithConsole(logging.NewConsole(&out, logging.VerbosityVerbose)),
	)

	res, err := s.Run(context.Background(), path, remoteURL, "")
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Equal(t, StatusMerged, res.Status)
	assert.Equal(t, []string{"20261017-001", "20261015-001"}, res.Added)
	assert.Equal(t, []string{remoteURL}, fetcher.calls)
	assert.Equal(t, 4, res.Entries)
	assert.Contains(t, out.String(), "Added entry 20261017-001 from heron-02")

	doc, err := memory.Load(path)
	require.NoError(t, err)
	var ids []string
	for _, e := range doc.Entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"20261015-001", "20261016-001", "20261017-001", "20261018-001"}, ids)
	assert.Equal(t, "local", doc.Entries[1].Content)

	sync := doc.Entries[3]
	assert.Equal(t, config.DefaultSource, sync.Source)
	assert.Equal(t, "merged", sync.Metadata["sync_status"])
	assert.EqualValues(t, 2, sync.Metadata["added"])

	backup, err := memory.Load(path + ".backup")
	require.NoError(t, err)
	assert.Len(t, backup.Entries, 1)
}

func TestRun_FetchFailureContinuesLocally(t *testing.T) {
	path := localPath(t)
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	s := newSyncer(t, config.DefaultConfig(), WithFetcher(fetcher))

	res, err := s.Run(context.Background(), path, remoteURL, "heron-02")
	require.NoError(t, err)
	assert.Equal(t, StatusFetchFailed, res.Status)
	assert.Empty(t, res.Added)

	doc, err := memory.Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "fetch_failed", doc.Entries[0].Metadata["sync_status"])
	assert.Equal(t, "connection refused", doc.Entries[0].Metadata["error"])
}

func TestRun_MarkerMismatchStartsOver(t *testing.T) {
	path := localPath(t)
	foreign := `{"version":"1","timestamp":"2026-02-13T10:00:00Z","campbell_motto":"Carpe Diem","entries":[]}`
	require.NoError(t, os.WriteFile(path, []byte(foreign), 0o644))

	var out bytes.Buffer
	cfg := config.DefaultConfig()
	cfg.Remote.Enabled = false
	s := newSyncer(t, cfg, WithConsole(logging.NewConsole(&out, logging.VerbosityNormal)))

	res, err := s.Run(context.Background(), path, remoteURL, "heron-02")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Contains(t, out.String(), "marker mismatch")

	backup, err := os.ReadFile(path + ".backup")
	require.NoError(t, err)
	assert.Equal(t, foreign, string(backup))
}

func TestRun_SourceFilter(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Merge.ExcludeSources = []string{"bot-*"}
	fetcher := &stubFetcher{doc: remoteDoc(
		remoteEntry("20261017-001", "heron-02", runTime.Add(-time.Hour)),
		remoteEntry("20261017-002", "bot-7", runTime.Add(-time.Hour)),
	)}
	s := newSyncer(t, cfg, WithFetcher(fetcher))

	res, err := s.Run(context.Background(), localPath(t), remoteURL, "heron-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"20261017-001"}, res.Added)
}

func TestRun_SequenceAcrossRuns(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Remote.Enabled = false
	s := newSyncer(t, cfg)
	path := localPath(t)

	first, err := s.Run(context.Background(), path, remoteURL, "heron-02")
	require.NoError(t, err)
	second, err := s.Run(context.Background(), path, remoteURL, "heron-02")
	require.NoError(t, err)

	assert.Equal(t, "20261018-001", first.SyncEntryID)
	assert.Equal(t, "20261018-002", second.SyncEntryID)
	assert.False(t, second.Created)
}

func TestRun_FileRemoteThroughResolver(t *testing.T) {
	dir := t.TempDir()
	remotePath := filepath.Join(dir, "remote.json")
	require.NoError(t, memory.Persist(remoteDoc(remoteEntry("20261017-001", "heron-02", runTime.Add(-time.Hour))), remotePath))

	cfg := config.DefaultConfig()
	cfg.Storage.Lock = false
	s := newSyncer(t, cfg)

	res, err := s.Run(context.Background(), filepath.Join(dir, "memory.json"), "file://"+remotePath, "heron-local")
	require.NoError(t, err)
	assert.Equal(t, StatusMerged, res.Status)
	assert.Equal(t, []string{"20261017-001"}, res.Added)
}

func TestRun_SaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfg := config.DefaultConfig()
	cfg.Remote.Enabled = false
	s := newSyncer(t, cfg)

	res, err := s.Run(context.Background(), filepath.Join(blocker, "memory.json"), remoteURL, "heron-02")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syncer: save")
	require.NotNil(t, res)
	assert.Equal(t, "20261018-001", res.SyncEntryID)
}

func TestRun_RequiresRemoteURL(t *testing.T) {
	s := newSyncer(t, config.DefaultConfig())
	_, err := s.Run(context.Background(), localPath(t), "", "x")
	assert.Error(t, err)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Merge.IncludeSources = []string{"[invalid"}
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = config.DefaultConfig()
	cfg.Document.ContentLimit = 0
	_, err = New(cfg)
	assert.Error(t, err)
}
