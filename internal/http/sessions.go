package http

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"dictionary/app/internal/lookup"
	"dictionary/app/internal/theme"
)

const sessionCookieName = "dictionary_session"

// session is one browser's page: its lookup controller and its display theme.
type session struct {
	id         string
	controller *lookup.Controller

	mu       sync.Mutex
	theme    theme.Theme
	lastSeen time.Time
}

func (s *session) Theme() theme.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

func (s *session) ToggleTheme() theme.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = s.theme.Toggle()
	return s.theme
}

type controllerFactory func(sessionID string) (*lookup.Controller, error)

// sessionStore keeps sessions in memory and forgets those idle for longer than ttl.
type sessionStore struct {
	mu            sync.Mutex
	sessions      map[string]*session
	ttl           time.Duration
	newController controllerFactory
	now           func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

func newSessionStore(ttl time.Duration, factory controllerFactory) *sessionStore {
	store := &sessionStore{
		sessions:      make(map[string]*session),
		ttl:           ttl,
		newController: factory,
		now:           time.Now,
		stop:          make(chan struct{}),
	}

	go store.pruneLoop()

	return store
}

// resolve returns the session for id, creating a fresh one when id is unknown. Client-supplied
// ids are never adopted: an unknown id yields a new server-generated id.
func (st *sessionStore) resolve(id string) (*session, bool, error) {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	if sess, ok := st.sessions[id]; ok && id != "" {
		sess.mu.Lock()
		sess.lastSeen = now
		sess.mu.Unlock()
		return sess, false, nil
	}

	newID := uuid.NewString()
	controller, err := st.newController(newID)
	if err != nil {
		return nil, false, eris.Wrap(err, "creating session controller")
	}

	sess := &session{
		id:         newID,
		controller: controller,
		theme:      theme.Default(),
		lastSeen:   now,
	}
	st.sessions[newID] = sess

	return sess, true, nil
}

func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	return sess, ok
}

func (st *sessionStore) all() []*session {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]*session, 0, len(st.sessions))
	for _, sess := range st.sessions {
		out = append(out, sess)
	}
	return out
}

func (st *sessionStore) pruneLoop() {
	ticker := time.NewTicker(st.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.pruneStale()
		case <-st.stop:
			return
		}
	}
}

func (st *sessionStore) pruneStale() {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	for id, sess := range st.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.lastSeen)
		sess.mu.Unlock()
		if idle > st.ttl {
			delete(st.sessions, id)
		}
	}
}

// Close stops pruning and waits for every session's outstanding searches.
func (st *sessionStore) Close() {
	st.stopOnce.Do(func() {
		close(st.stop)
	})

	for _, sess := range st.all() {
		sess.controller.Wait()
	}
}
