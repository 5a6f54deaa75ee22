package remote

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/entrhq/memsync/pkg/memory"
)

// FileFetcher reads a memory document from the local filesystem.
type FileFetcher struct {
	MaxBytes int64
}

// Fetch implements Fetcher for file:// URLs and plain paths.
func (f *FileFetcher) Fetch(ctx context.Context, rawURL string) (*memory.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := rawURL
	if strings.HasPrefix(strings.ToLower(rawURL), "file:") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("remote: parse url %q: %w", rawURL, err)
		}
		path = u.Path
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("remote: open %s: %w", path, err)
	}
	defer file.Close()

	b, err := readLimited(file, f.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("remote: read %s: %w", path, err)
	}
	d, err := memory.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("remote: %s: %w", path, err)
	}
	return d, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("document exceeds %d bytes", limit)
	}
	return b, nil
}
