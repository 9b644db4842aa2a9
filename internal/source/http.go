package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/moldhistory/internal/logging"
	"github.com/JonMunkholm/moldhistory/internal/metrics"
	"github.com/JonMunkholm/moldhistory/internal/schema"
	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

// HTTPOptions configures an HTTPFetcher.
type HTTPOptions struct {
	BaseURL    string
	Timeout    time.Duration
	Retries    int
	Backoff    time.Duration
	MaxBackoff time.Duration
	UserAgent  string
}

// HTTPFetcher downloads CSV snapshots relative to a base URL.
type HTTPFetcher struct {
	opts     HTTPOptions
	client   *http.Client
	manifest *Manifest
}

// NewHTTPClient returns a client with bounded dial and handshake timeouts.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// NewHTTPFetcher returns a fetcher for opts.BaseURL.
func NewHTTPFetcher(opts HTTPOptions, m *Manifest) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff < opts.Backoff {
		opts.MaxBackoff = opts.Backoff
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "moldhistory/1"
	}
	return &HTTPFetcher{opts: opts, client: NewHTTPClient(opts.Timeout), manifest: m}
}

func (f *HTTPFetcher) Name() string { return "http" }

func (f *HTTPFetcher) tableURL(file string) (string, error) {
	base, err := url.Parse(strings.TrimRight(f.opts.BaseURL, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(file)
	if err != nil {
		return "", fmt.Errorf("parse table path %q: %w", file, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Fetch downloads and parses the table. Server errors and transport failures
// are retried; 404 yields ErrNotFound and other 4xx responses fail at once.
func (f *HTTPFetcher) Fetch(ctx context.Context, def schema.TableDefinition) (tabular.Table, error) {
	endpoint, err := f.tableURL(f.manifest.File(def.Key, def.File))
	if err != nil {
		return tabular.Table{}, err
	}
	logger := logging.WithFields(ctx, "table", def.Key, "url", endpoint)

	var table tabular.Table
	attempt := 0
	err = Retry(ctx, f.opts.Retries, f.opts.Backoff, f.opts.MaxBackoff, func() error {
		attempt++
		t, err := f.get(ctx, def.Key, endpoint)
		if err != nil {
			logger.Debug("table fetch attempt failed", "attempt", attempt, "error", err)
			return err
		}
		table = t
		return nil
	})
	if err != nil {
		return tabular.Table{}, err
	}
	return table, nil
}

func (f *HTTPFetcher) get(ctx context.Context, key, endpoint string) (tabular.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return tabular.Table{}, permanent(err)
	}
	req.Header.Set("Accept", "text/csv")
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return tabular.Table{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return tabular.Table{}, permanent(fmt.Errorf("%s: %w", endpoint, ErrNotFound))
	case resp.StatusCode/100 == 4:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return tabular.Table{}, permanent(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	case resp.StatusCode/100 != 2:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return tabular.Table{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	counter := tabular.NewCountingReader(resp.Body)
	t, err := tabular.ParseReader(counter)
	metrics.FetchBytes.WithLabelValues(key).Add(float64(counter.BytesRead))
	if err != nil {
		return tabular.Table{}, fmt.Errorf("read body: %w", err)
	}
	return t, nil
}
