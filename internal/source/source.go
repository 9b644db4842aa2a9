// Package source fetches the log and reference tables from a data directory,
// an HTTP snapshot endpoint or PostgreSQL, and loads them as one
// all-or-nothing batch.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/moldhistory/internal/config"
	"github.com/JonMunkholm/moldhistory/internal/schema"
	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

// ErrNotFound is returned by fetchers when a table does not exist at the
// source. Optional tables treat it as "no data".
var ErrNotFound = errors.New("table not found at source")

// Fetcher retrieves one table.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, def schema.TableDefinition) (tabular.Table, error)
}

// LoadError reports which table failed to load.
type LoadError struct {
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load table %s: %v", e.Table, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// NewFromConfig builds the fetcher for cfg.Mode. Postgres mode opens a
// connection pool; the returned close function releases it.
func NewFromConfig(ctx context.Context, cfg config.SourceConfig, m *Manifest) (Fetcher, func(), error) {
	noop := func() {}
	switch cfg.Mode {
	case config.ModeDir:
		return NewDirFetcher(cfg.Dir, m), noop, nil
	case config.ModeHTTP:
		return NewHTTPFetcher(HTTPOptions{
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.FetchTimeout,
			Retries:    cfg.Retries,
			Backoff:    cfg.Backoff,
			MaxBackoff: cfg.MaxBackoff,
		}, m), noop, nil
	case config.ModePostgres:
		f, err := NewPostgresFetcher(ctx, cfg.DatabaseURL, int32(cfg.MaxConns), m)
		if err != nil {
			return nil, noop, err
		}
		return f, f.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown source mode: %s", cfg.Mode)
	}
}
