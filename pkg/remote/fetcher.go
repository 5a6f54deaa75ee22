package remote

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/entrhq/memsync/pkg/memory"
)

var ErrUnsupportedScheme = errors.New("remote: unsupported url scheme")

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "memsync"
	DefaultMaxBytes  = 16 << 20
)

// Fetcher retrieves a remote memory document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*memory.Document, error)
}

// Options configures the fetchers built by NewResolver.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
}

// Resolver picks a Fetcher by URL scheme.
type Resolver struct {
	File Fetcher
	HTTP Fetcher
}

// NewResolver returns a Resolver backed by a FileFetcher and an HTTPFetcher.
func NewResolver(opts Options) *Resolver {
	return &Resolver{
		File: &FileFetcher{MaxBytes: opts.MaxBytes},
		HTTP: NewHTTPFetcher(opts),
	}
}

// Fetch implements Fetcher.
func (r *Resolver) Fetch(ctx context.Context, rawURL string) (*memory.Document, error) {
	f, err := r.fetcherFor(rawURL)
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx, rawURL)
}

func (r *Resolver) fetcherFor(rawURL string) (Fetcher, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("remote: empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("remote: parse url %q: %w", rawURL, err)
	}

	var f Fetcher
	switch strings.ToLower(u.Scheme) {
	case "", "file":
		f = r.File
	case "http", "https":
		f = r.HTTP
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %q (no fetcher configured)", ErrUnsupportedScheme, u.Scheme)
	}
	return f, nil
}
