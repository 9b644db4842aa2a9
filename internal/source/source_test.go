package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/moldhistory/internal/schema"
)

var fixtureFiles = map[string]string{
	"locationlog.csv": "\ufeffLocationLogID,MoldID,OldRackLayer,NewRackLayer,DateEntry\r\n1,M1,A1,B2,2025-01-10\r\n",
	"shiplog.csv":     "ShipID,MoldID,FromCompanyID,ToCompanyID,DateEntry\n100,M1,10,,2025-02-01\n",
	"statuslogs.csv":  "StatusLogID,MoldID,Status,Notes,Timestamp\n500,M1,CHECK_IN,棚卸,2025-01-11\n",
	"molds.csv":       "MoldID,MoldCode,MoldName\nM1,MC-001,Front Panel\n",
	"companies.csv":   "CompanyID,CompanyShortName\n10,ACME\n",
	"employee.csv":    "EmployeeID,EmployeeName\nE1,Sato\n",
}

func writeFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func copyFiles(extra map[string]string) map[string]string {
	out := make(map[string]string, len(fixtureFiles))
	for k, v := range fixtureFiles {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func TestLoadAll_Dir(t *testing.T) {
	dir := writeFixture(t, fixtureFiles)
	loader := &Loader{Fetcher: NewDirFetcher(dir, nil)}

	tables, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, tables, schema.TableCount())
	loc := tables.Get(schema.LocationLog)
	require.Equal(t, 1, loc.Len())
	assert.Equal(t, "1", loc.Records[0].Get("LocationLogID"), "BOM is stripped from the first header")
	assert.Equal(t, "B2", loc.Records[0].Get("NewRackLayer"))

	assert.Zero(t, tables.Get(schema.Cutters).Len(), "missing optional table loads as empty")
	assert.Zero(t, tables.Get(schema.Destinations).Len())
}

func TestLoadAll_MissingRequiredTableFailsEverything(t *testing.T) {
	files := copyFiles(nil)
	delete(files, "shiplog.csv")
	dir := writeFixture(t, files)

	tables, err := LoadAll(context.Background(), NewDirFetcher(dir, nil), schema.All(), nil)
	require.Error(t, err)
	assert.Nil(t, tables)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, schema.ShipLog, loadErr.Table)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadAll_MissingColumn(t *testing.T) {
	dir := writeFixture(t, copyFiles(map[string]string{
		"shiplog.csv": "ShipID,MoldID,FromCompanyID,DateEntry\n100,M1,10,2025-02-01\n",
	}))

	_, err := LoadAll(context.Background(), NewDirFetcher(dir, nil), schema.All(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrMissingColumn)
	assert.Contains(t, err.Error(), "ToCompanyID")
}

func TestLoadAll_ManifestOverridesFile(t *testing.T) {
	files := copyFiles(map[string]string{"staff.csv": fixtureFiles["employee.csv"]})
	delete(files, "employee.csv")
	dir := writeFixture(t, files)

	m := &Manifest{Tables: map[string]TableSource{schema.Employees: {File: "staff.csv"}}}
	tables, err := LoadAll(context.Background(), NewDirFetcher(dir, m), schema.All(), m)
	require.NoError(t, err)
	assert.Equal(t, 1, tables.Get(schema.Employees).Len())
}

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "/csv/molds.csv", r.URL.Path)
		w.Write([]byte(fixtureFiles["molds.csv"]))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{BaseURL: srv.URL + "/csv", Retries: 3, Backoff: time.Millisecond, MaxBackoff: time.Millisecond}, nil)
	def, err := schema.MustGet(schema.Molds)
	require.NoError(t, err)

	tbl, err := f.Fetch(context.Background(), def)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
	assert.EqualValues(t, 3, calls.Load())
}

func TestHTTPFetcher_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{BaseURL: srv.URL, Retries: 5, Backoff: time.Millisecond}, nil)
	def, err := schema.MustGet(schema.Destinations)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), def)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, calls.Load())
}

func TestHTTPFetcher_ExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{BaseURL: srv.URL, Retries: 2, Backoff: time.Millisecond}, nil)
	def, err := schema.MustGet(schema.Molds)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestLoader_HTTPEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.Dir(writeFixture(t, fixtureFiles))))
	defer srv.Close()

	loader := &Loader{Fetcher: NewHTTPFetcher(HTTPOptions{BaseURL: srv.URL, Retries: 1}, nil), Timeout: 5 * time.Second}
	tables, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, tables.Get(schema.StatusLog).Len())
	assert.Equal(t, "棚卸", tables.Get(schema.StatusLog).Records[0].Get("Notes"))
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tables:
  employees:
    file: staff.csv
  cutters:
    optional: false
  statuslogs:
    query: SELECT * FROM status_v2
`), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, "staff.csv", m.File(schema.Employees, "employee.csv"))
	assert.Equal(t, "molds.csv", m.File(schema.Molds, "molds.csv"))
	assert.False(t, m.Optional(schema.Cutters))
	assert.True(t, m.Optional(schema.Destinations))
	assert.False(t, m.Optional(schema.ShipLog))
	assert.Equal(t, "SELECT * FROM status_v2", tableQuery(m, schema.StatusLog))
	assert.Equal(t, `SELECT * FROM "molds"`, tableQuery(m, schema.Molds))

	empty, err := LoadManifest("")
	require.NoError(t, err)
	assert.Empty(t, empty.Tables)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRetry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, time.Millisecond, func() error {
		calls++
		return errors.New("flaky")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	stop := errors.New("stop")
	err = Retry(context.Background(), 3, time.Millisecond, time.Millisecond, func() error {
		calls++
		return permanent(stop)
	})
	assert.Same(t, stop, err)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Retry(ctx, 3, time.Hour, time.Hour, func() error { return errors.New("x") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"A1", "A1"},
		{int32(42), "42"},
		{int64(-7), "-7"},
		{1.5, "1.5"},
		{true, "true"},
		{time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), "2025-01-10"},
		{time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC), "2025-01-10T09:30:00Z"},
		{[16]byte{0x12, 0x3e, 0x45, 0x67, 0xe8, 0x9b, 0x12, 0xd3, 0xa4, 0x56, 0x42, 0x66, 0x14, 0x17, 0x40, 0x00}, "123e4567-e89b-12d3-a456-426614174000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.in))
	}
}

func TestLoadError(t *testing.T) {
	err := &LoadError{Table: "molds", Err: ErrNotFound}
	assert.Equal(t, "load table molds: table not found at source", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
}

// Ensure the fetchers satisfy the interface.
var (
	_ Fetcher = (*DirFetcher)(nil)
	_ Fetcher = (*HTTPFetcher)(nil)
	_ Fetcher = (*PostgresFetcher)(nil)
)

func TestDirFetcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirFetcher(t.TempDir(), nil).Fetch(ctx, schema.TableDefinition{Key: "molds", File: "molds.csv"})
	assert.ErrorIs(t, err, context.Canceled)
}
