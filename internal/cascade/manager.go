package cascade

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager tracks the open draft sessions, one per dialog. Sessions idle
// past the TTL are closed and dropped so their late fetch completions have
// nothing to mutate.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*managedSession
	gw       Gateway
	log      zerolog.Logger
	ttl      time.Duration
}

type managedSession struct {
	session  *Session
	lastUsed time.Time
}

func NewManager(gw Gateway, log zerolog.Logger, ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*managedSession),
		gw:       gw,
		log:      log,
		ttl:      ttl,
	}
}

// Open creates a new draft session and returns its id.
func (m *Manager) Open(ctx context.Context) (string, *Session) {
	id := uuid.New().String()
	s := NewSession(ctx, m.gw, m.log.With().Str("session_id", id).Logger())

	m.mu.Lock()
	m.sessions[id] = &managedSession{session: s, lastUsed: time.Now()}
	m.mu.Unlock()

	m.log.Info().Str("session_id", id).Msg("draft session opened")
	return id, s
}

// Get returns the session and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	ms.lastUsed = time.Now()
	return ms.session, true
}

// Close discards a session; late fetches against it are dropped.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	ms.session.Close()
	m.log.Info().Str("session_id", id).Msg("draft session closed")
	return true
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes idle sessions until ctx is cancelled. Run it in its own
// goroutine.
func (m *Manager) Sweep(ctx context.Context) {
	ticker := time.NewTicker(m.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweepOnce(time.Now())
		}
	}
}

func (m *Manager) sweepOnce(now time.Time) {
	var expired []*managedSession

	m.mu.Lock()
	for id, ms := range m.sessions {
		if now.Sub(ms.lastUsed) > m.ttl {
			expired = append(expired, ms)
			delete(m.sessions, id)
			m.log.Info().Str("session_id", id).Msg("draft session expired")
		}
	}
	m.mu.Unlock()

	for _, ms := range expired {
		ms.session.Close()
	}
}
