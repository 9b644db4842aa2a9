package history

import (
	"context"
	"sync"

	"github.com/JonMunkholm/moldhistory/internal/metrics"
)

// Engine is the per-session query state over a shared Store. Every mutating
// call returns the resulting page so callers never read stale state.
type Engine struct {
	store    *Store
	pageSize int

	mu     sync.Mutex
	filter Filter
	sort   Sort
	page   int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPageSize sets the page size. Non-positive values keep the default.
func WithPageSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithFilter sets the initial filter.
func WithFilter(f Filter) EngineOption {
	return func(e *Engine) { e.filter = f }
}

// WithSort sets the initial sort order. A zero Sort keeps the default.
func WithSort(s Sort) EngineOption {
	return func(e *Engine) {
		if s.Key != "" {
			if s.Dir == "" {
				s.Dir = Asc
			}
			e.sort = s
		}
	}
}

// NewEngine returns an Engine with no filter, newest-first order and page 1.
func NewEngine(store *Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		pageSize: DefaultPageSize,
		sort:     DefaultSort,
		page:     1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetFilter merges p into the current filter and returns to page 1.
func (e *Engine) SetFilter(p FilterPatch) PageResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filter = p.Apply(e.filter)
	e.page = 1
	return e.resultLocked("filter")
}

// ResetFilter clears every filter and returns to page 1.
func (e *Engine) ResetFilter() PageResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filter = Filter{}
	e.page = 1
	return e.resultLocked("filter")
}

// SetSort selects key. Selecting the current key flips the direction; a new
// key starts ascending, except date which starts newest first.
func (e *Engine) SetSort(key SortKey) PageResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sort = e.sort.Toggle(key)
	return e.resultLocked("sort")
}

// SetPage moves to page n. Out-of-range pages are clamped.
func (e *Engine) SetPage(n int) PageResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.page = n
	return e.resultLocked("page")
}

// PageResult returns the current page without changing state.
func (e *Engine) PageResult() PageResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resultLocked("get")
}

// Filter returns the current filter.
func (e *Engine) Filter() Filter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}

// Sort returns the current sort state.
func (e *Engine) Sort() Sort {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sort
}

// Filtered returns every event matching the current filter in the current
// sort order.
func (e *Engine) Filtered() []Event {
	e.mu.Lock()
	f, s := e.filter, e.sort
	e.mu.Unlock()
	return SortEvents(ApplyFilters(e.store.Events(), f), s)
}

// Reload rebuilds the shared store. The engine keeps its filter and sort.
func (e *Engine) Reload(ctx context.Context) error {
	return e.store.Reload(ctx)
}

// Loading reports whether the shared store is reloading.
func (e *Engine) Loading() bool { return e.store.Loading() }

func (e *Engine) resultLocked(op string) PageResult {
	metrics.PageRequests.WithLabelValues(op).Inc()
	res := Execute(e.store.Events(), e.store.Status(), Query{
		Filter:   e.filter,
		Sort:     e.sort,
		Page:     e.page,
		PageSize: e.pageSize,
	})
	e.page = res.CurrentPage
	return res
}
