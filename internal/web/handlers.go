package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/moldhistory/internal/history"
	"github.com/JonMunkholm/moldhistory/internal/logging"
	"github.com/JonMunkholm/moldhistory/internal/web/templates"
)

// handleHealth reports liveness and the current load state. The service is
// healthy while it can serve something, so only a failed load with no prior
// snapshot returns 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.store.Status()
	n := len(s.store.Events())
	status := http.StatusOK
	if st.State == history.StateFailed && n == 0 {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"state":  st.State,
		"events": n,
	})
}

// handleIndex renders the full history page for the caller's session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	eng := s.sessions.engine(w, r)
	res := eng.PageResult()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.HistoryPage(res).Render(r.Context(), w); err != nil {
		slog.Error("render history page", "error", err)
	}
}

// handleHistoryFragment renders the table fragment for the caller's session.
func (s *Server) handleHistoryFragment(w http.ResponseWriter, r *http.Request) {
	eng := s.sessions.engine(w, r)
	s.renderFragment(w, r, eng.PageResult())
}

// handleStatus returns the status of the most recent reload.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Status())
}

// handleReload runs a reload synchronously. Overlapping requests get 409.
// The reload outlives a client disconnect or the request timeout since every
// session shares its result; the loader bounds it with its own timeout.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	err := s.store.Reload(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, history.ErrReloadInProgress):
		s.respondError(w, r, err, http.StatusConflict)
		return
	case err != nil:
		s.respondError(w, r, err, http.StatusBadGateway)
		return
	}

	logging.FromContext(r.Context()).Info("manual reload complete",
		"events", s.store.Status().Total)
	writeJSON(w, http.StatusOK, s.store.Status())
}

// handleQuery answers a stateless query described by URL parameters.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query(), s.opts.PageSize)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, history.Execute(s.store.Events(), s.store.Status(), q))
}

// handleExport streams every event matching the query as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query(), s.opts.PageSize)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.exports.acquire(r.Context()); err != nil {
		s.respondError(w, r, err, http.StatusTooManyRequests)
		return
	}
	defer s.exports.release()

	events := history.SortEvents(history.ApplyFilters(s.store.Events(), q.Filter), q.Sort)

	filename := fmt.Sprintf("history_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := history.WriteCSV(w, events, s.opts.ExportLimit); err != nil {
		// Headers are already sent.
		slog.Error("export write failed", "error", err, "rows", len(events))
	}
}

// handleSessionPage returns the current page of the caller's session.
func (s *Server) handleSessionPage(w http.ResponseWriter, r *http.Request) {
	eng := s.sessions.engine(w, r)
	s.respondResult(w, r, eng.PageResult())
}

// handleSetFilter merges a partial filter into the session and resets to page 1.
func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	patch, err := readFilterPatch(w, r)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", history.ErrInvalidFilter, err), http.StatusBadRequest)
		return
	}

	eng := s.sessions.engine(w, r)
	if err := patch.Apply(eng.Filter()).Validate(); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	s.respondResult(w, r, eng.SetFilter(patch))
}

// handleResetFilter clears the session filter.
func (s *Server) handleResetFilter(w http.ResponseWriter, r *http.Request) {
	eng := s.sessions.engine(w, r)
	s.respondResult(w, r, eng.ResetFilter())
}

// handleSetSort toggles or switches the session sort column.
func (s *Server) handleSetSort(w http.ResponseWriter, r *http.Request) {
	req, err := readSortRequest(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	key, err := history.ParseSortKey(req.Key)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	eng := s.sessions.engine(w, r)
	s.respondResult(w, r, eng.SetSort(key))
}

// handleSetPage moves the session to a page; out-of-range pages are clamped.
func (s *Server) handleSetPage(w http.ResponseWriter, r *http.Request) {
	req, err := readPageRequest(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if req.Page < 1 {
		s.respondError(w, r, fmt.Errorf("%w: %d", errInvalidPage, req.Page), http.StatusBadRequest)
		return
	}

	eng := s.sessions.engine(w, r)
	s.respondResult(w, r, eng.SetPage(req.Page))
}

// respondResult writes res as an HTML fragment for htmx and as JSON otherwise.
func (s *Server) respondResult(w http.ResponseWriter, r *http.Request, res history.PageResult) {
	if isHTMX(r) {
		s.renderFragment(w, r, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) renderFragment(w http.ResponseWriter, r *http.Request, res history.PageResult) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.HistoryFragment(res).Render(r.Context(), w); err != nil {
		slog.Error("render history fragment", "error", err)
	}
}
