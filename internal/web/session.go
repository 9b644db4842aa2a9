package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/moldhistory/internal/history"
)

// sessionCookie names the cookie carrying the query session id.
const sessionCookie = "history_session"

// sessionStore keeps one history.Engine per browser session. Idle sessions
// are dropped after ttl.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	newEng   func() *history.Engine
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type session struct {
	engine   *history.Engine
	lastSeen time.Time
}

func newSessionStore(ttl time.Duration, newEng func() *history.Engine) *sessionStore {
	st := &sessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		newEng:   newEng,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go st.janitor()
	return st
}

// janitor removes expired sessions every minute until close is called.
func (st *sessionStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-st.stop:
			return
		case <-ticker.C:
			st.sweep()
		}
	}
}

func (st *sessionStore) sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		if st.now().Sub(s.lastSeen) > st.ttl {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *sessionStore) close() {
	st.stopOnce.Do(func() { close(st.stop) })
}

func (st *sessionStore) count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// engine returns the engine for the request's session, creating a session
// when none exists or the old one expired. The cookie is re-issued on every
// call so its lifetime slides with the server-side TTL.
func (st *sessionStore) engine(w http.ResponseWriter, r *http.Request) *history.Engine {
	st.mu.Lock()
	defer st.mu.Unlock()

	if c, err := r.Cookie(sessionCookie); err == nil {
		if s, ok := st.sessions[c.Value]; ok && st.now().Sub(s.lastSeen) <= st.ttl {
			s.lastSeen = st.now()
			st.setCookie(w, c.Value)
			return s.engine
		}
	}

	id := uuid.NewString()
	s := &session{engine: st.newEng(), lastSeen: st.now()}
	st.sessions[id] = s
	st.setCookie(w, id)
	return s.engine
}

func (st *sessionStore) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(st.ttl.Seconds()),
	})
}
