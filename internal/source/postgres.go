package source

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/moldhistory/internal/metrics"
	"github.com/JonMunkholm/moldhistory/internal/schema"
	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

// querier is the subset of *pgxpool.Pool used by PostgresFetcher.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresFetcher reads tables from the backend database. Every column is
// converted to its text form so rows look the same as CSV snapshots.
type PostgresFetcher struct {
	db       querier
	pool     *pgxpool.Pool
	manifest *Manifest
}

// NewPostgresFetcher opens a pool for dsn and verifies it with a ping.
func NewPostgresFetcher(ctx context.Context, dsn string, maxConns int32, m *Manifest) (*PostgresFetcher, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresFetcher{db: pool, pool: pool, manifest: m}, nil
}

func (f *PostgresFetcher) Name() string { return "postgres" }

// Close releases the pool.
func (f *PostgresFetcher) Close() {
	if f.pool != nil {
		f.pool.Close()
	}
}

// tableQuery returns the manifest query or a SELECT over the table key.
func tableQuery(m *Manifest, key string) string {
	if q := m.Query(key); q != "" {
		return q
	}
	return "SELECT * FROM " + pgx.Identifier{key}.Sanitize()
}

// Fetch runs the table query. An undefined table yields ErrNotFound.
func (f *PostgresFetcher) Fetch(ctx context.Context, def schema.TableDefinition) (tabular.Table, error) {
	rows, err := f.db.Query(ctx, tableQuery(f.manifest, def.Key))
	if err != nil {
		return tabular.Table{}, pgError(def.Key, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	header := make([]string, len(fields))
	for i, fd := range fields {
		header[i] = fd.Name
	}
	h := tabular.NewHeader(header)

	t := tabular.Table{Header: h.Names()}
	var size int
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return tabular.Table{}, fmt.Errorf("read row values: %w", err)
		}
		text := make([]string, len(values))
		for i, v := range values {
			text[i] = formatValue(v)
			size += len(text[i])
		}
		t.Records = append(t.Records, tabular.NewRecord(h, text))
	}
	if err := rows.Err(); err != nil {
		return tabular.Table{}, pgError(def.Key, err)
	}

	metrics.FetchBytes.WithLabelValues(def.Key).Add(float64(size))
	return t, nil
}

// pgError maps undefined_table to ErrNotFound.
func pgError(key string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return fmt.Errorf("query %s: %w", key, err)
}

// formatValue renders a decoded column value the way CSV exports show it.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case [16]byte:
		return uuid.UUID(x).String()
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil || dv == nil {
			return ""
		}
		return formatValue(dv)
	}
	return fmt.Sprint(v)
}
