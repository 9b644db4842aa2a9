package history

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/moldhistory/internal/logging"
	"github.com/JonMunkholm/moldhistory/internal/metrics"
	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

// ErrReloadInProgress is returned by Reload when another reload is running.
var ErrReloadInProgress = errors.New("history reload already in progress")

// Loader fetches and parses every source table. It must return either all
// tables or an error; partial results are never merged.
type Loader interface {
	Load(ctx context.Context) (tabular.Tables, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (tabular.Tables, error)

func (f LoaderFunc) Load(ctx context.Context) (tabular.Tables, error) { return f(ctx) }

// LoadState is the lifecycle of the event collection.
type LoadState string

const (
	StateIdle    LoadState = "idle"
	StateLoading LoadState = "loading"
	StateReady   LoadState = "ready"
	StateFailed  LoadState = "failed"
)

// Status describes the most recent reload.
type Status struct {
	State    LoadState      `json:"state"`
	Message  string         `json:"message,omitempty"`
	Error    string         `json:"error,omitempty"`
	LoadID   string         `json:"loadId,omitempty"`
	LoadedAt time.Time      `json:"loadedAt,omitempty"`
	Duration time.Duration  `json:"durationNs,omitempty"`
	Total    int            `json:"total"`
	Counts   map[Source]int `json:"counts,omitempty"`
	Newest   time.Time      `json:"newest,omitempty"`
}

type snapshot struct {
	events []Event
	index  *Index
}

// Store holds the current event collection. Readers get an immutable
// snapshot; Reload swaps in a new one only after a complete, successful load.
type Store struct {
	loader  Loader
	now     func() time.Time
	snap    atomic.Pointer[snapshot]
	status  atomic.Pointer[Status]
	loading atomic.Bool
}

// NewStore returns an empty Store backed by loader.
func NewStore(loader Loader) *Store {
	s := &Store{loader: loader, now: time.Now}
	s.snap.Store(&snapshot{index: &Index{}})
	s.status.Store(&Status{State: StateIdle})
	return s
}

// Events returns the current collection, newest first. The slice is shared
// and must not be modified.
func (s *Store) Events() []Event { return s.snap.Load().events }

// Index returns the reference index of the current collection.
func (s *Store) Index() *Index { return s.snap.Load().index }

// Status returns the status of the most recent reload.
func (s *Store) Status() Status { return *s.status.Load() }

// Loading reports whether a reload is in flight.
func (s *Store) Loading() bool { return s.loading.Load() }

// Publish replaces the collection directly, bypassing the loader.
func (s *Store) Publish(tables tabular.Tables) Status {
	events, idx := Build(tables)
	return s.swap(events, idx, uuid.NewString(), 0)
}

func (s *Store) swap(events []Event, idx *Index, loadID string, took time.Duration) Status {
	s.snap.Store(&snapshot{events: events, index: idx})

	counts := CountBySource(events)
	for src, n := range counts {
		metrics.EventsLoaded.WithLabelValues(string(src)).Set(float64(n))
	}

	st := Status{
		State:    StateReady,
		LoadID:   loadID,
		LoadedAt: s.now(),
		Duration: took,
		Total:    len(events),
		Counts:   counts,
		Newest:   latest(events),
	}
	s.status.Store(&st)
	return st
}

// Reload fetches every table and rebuilds the collection. While it runs,
// readers keep seeing the previous snapshot. On failure the previous
// snapshot stays visible and the status becomes StateFailed.
func (s *Store) Reload(ctx context.Context) error {
	if s.loader == nil {
		return errors.New("history store has no loader")
	}
	if !s.loading.CompareAndSwap(false, true) {
		return ErrReloadInProgress
	}
	defer s.loading.Store(false)

	loadID := uuid.NewString()
	logger := logging.WithFields(ctx, "load_id", loadID)
	logger.Info("history reload started")

	prev := s.Status()
	loadingStatus := prev
	loadingStatus.State = StateLoading
	loadingStatus.LoadID = loadID
	s.status.Store(&loadingStatus)

	start := s.now()
	tables, err := s.loader.Load(ctx)
	took := s.now().Sub(start)
	metrics.ReloadDuration.Observe(took.Seconds())

	if err != nil {
		metrics.ReloadsTotal.WithLabelValues("failure").Inc()
		failed := prev
		failed.State = StateFailed
		failed.LoadID = loadID
		failed.Message = MsgLoadFailed
		failed.Error = err.Error()
		failed.Duration = took
		s.status.Store(&failed)
		logger.Error("history reload failed", "error", err, "duration_ms", took.Milliseconds())
		return err
	}

	events, idx := Build(tables)
	st := s.swap(events, idx, loadID, took)
	metrics.ReloadsTotal.WithLabelValues("success").Inc()
	logger.Info("history reload completed",
		"events", st.Total,
		"location", st.Counts[SourceLocation],
		"shipment", st.Counts[SourceShipment],
		"status", st.Counts[SourceStatus],
		"duration_ms", took.Milliseconds(),
	)
	return nil
}

// StartReloadScheduler reloads every interval until ctx is cancelled.
// Failures are logged and retried on the next tick.
func (s *Store) StartReloadScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	logger := logging.FromContext(ctx)
	logger.Info("reload scheduler started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("reload scheduler stopped")
			return
		case <-ticker.C:
			if err := s.Reload(ctx); errors.Is(err, ErrReloadInProgress) {
				logger.Debug("scheduled reload skipped", "reason", err)
			}
		}
	}
}
