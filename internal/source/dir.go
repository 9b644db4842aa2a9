package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/moldhistory/internal/metrics"
	"github.com/JonMunkholm/moldhistory/internal/schema"
	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

// DirFetcher reads CSV snapshots from a directory.
type DirFetcher struct {
	dir      string
	manifest *Manifest
}

// NewDirFetcher returns a fetcher reading from dir.
func NewDirFetcher(dir string, m *Manifest) *DirFetcher {
	return &DirFetcher{dir: dir, manifest: m}
}

func (f *DirFetcher) Name() string { return "dir" }

// Fetch parses the table's file. A missing file yields ErrNotFound.
func (f *DirFetcher) Fetch(ctx context.Context, def schema.TableDefinition) (tabular.Table, error) {
	if err := ctx.Err(); err != nil {
		return tabular.Table{}, err
	}

	path := filepath.Join(f.dir, f.manifest.File(def.Key, def.File))
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return tabular.Table{}, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return tabular.Table{}, err
	}
	defer file.Close()

	counter := tabular.NewCountingReader(file)
	t, err := tabular.ParseReader(counter)
	metrics.FetchBytes.WithLabelValues(def.Key).Add(float64(counter.BytesRead))
	if err != nil {
		return tabular.Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}
