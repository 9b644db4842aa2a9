package source

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/moldhistory/internal/logging"
	"github.com/JonMunkholm/moldhistory/internal/metrics"
	"github.com/JonMunkholm/moldhistory/internal/schema"
	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

// LoadAll fetches every table in defs concurrently and validates its header.
// The first failure cancels the remaining fetches and nothing is returned;
// optional tables that do not exist load as empty.
func LoadAll(ctx context.Context, f Fetcher, defs []schema.TableDefinition, m *Manifest) (tabular.Tables, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	tables := make(tabular.Tables, len(defs))

	for _, def := range defs {
		g.Go(func() error {
			t, err := loadOne(gctx, f, def, m)
			if err != nil {
				metrics.FetchErrors.WithLabelValues(def.Key).Inc()
				return &LoadError{Table: def.Key, Err: err}
			}
			mu.Lock()
			tables[def.Key] = t
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

func loadOne(ctx context.Context, f Fetcher, def schema.TableDefinition, m *Manifest) (tabular.Table, error) {
	logger := logging.WithFields(ctx, "table", def.Key, "source", f.Name())
	start := time.Now()

	t, err := f.Fetch(ctx, def)
	if errors.Is(err, ErrNotFound) && m.Optional(def.Key) {
		logger.Debug("optional table not found, loading as empty")
		return tabular.Table{}, nil
	}
	if err != nil {
		return tabular.Table{}, err
	}

	if err := schema.ValidateHeaders(def, t.Header); err != nil {
		return tabular.Table{}, err
	}

	logger.Debug("table fetched", "rows", t.Len(), "duration_ms", time.Since(start).Milliseconds())
	return t, nil
}

// Loader loads every registered table through a Fetcher. It satisfies the
// history store's loader contract.
type Loader struct {
	Fetcher  Fetcher
	Manifest *Manifest
	// Timeout bounds a whole load; zero means no extra bound.
	Timeout time.Duration
}

// Load fetches all registered tables.
func (l *Loader) Load(ctx context.Context) (tabular.Tables, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}
	return LoadAll(ctx, l.Fetcher, schema.All(), l.Manifest)
}
