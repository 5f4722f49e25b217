package editor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/cv-builder/internal/rendering"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

// Manager owns the live sessions of a server.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	renderer        *rendering.Renderer
	defaultTemplate rendering.TemplateID
	ttl             time.Duration
}

// NewManager creates a session manager. A zero ttl selects DefaultSessionTTL and
// an empty template id selects rendering.DefaultTemplate.
func NewManager(renderer *rendering.Renderer, defaultTemplate rendering.TemplateID, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if defaultTemplate == "" {
		defaultTemplate = rendering.DefaultTemplate
	}
	return &Manager{
		sessions:        make(map[uuid.UUID]*Session),
		renderer:        renderer,
		defaultTemplate: defaultTemplate,
		ttl:             ttl,
	}
}

// Create starts a new session. An empty id uses the manager's default layout.
func (m *Manager) Create(id rendering.TemplateID) (*Session, error) {
	if id == "" {
		id = m.defaultTemplate
	}
	s, err := NewSession(m.renderer, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	log.Printf("[EDITOR] session %s created (template %s)", s.ID, id)
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, &SessionNotFoundError{ID: id}
	}
	return s, nil
}

// Delete closes and forgets a session.
func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return &SessionNotFoundError{ID: id}
	}
	s.Close()
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the TTL at now and returns how many
// were removed.
func (m *Manager) Sweep(now time.Time) int {
	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastUsed()) > m.ttl {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		log.Printf("[EDITOR] expired %d idle session(s)", len(expired))
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	interval := m.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
