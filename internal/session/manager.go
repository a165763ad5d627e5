package session

import (
	"sync"

	"github.com/google/uuid"

	"comicsort/internal/catalog"
)

// DriveFactory returns a drive client acting with the given Graph token.
type DriveFactory func(accessToken string) Drive

// Manager holds the live sessions of one server process.
type Manager struct {
	store    *catalog.Store
	newDrive DriveFactory
	opts     Options

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(store *catalog.Store, newDrive DriveFactory, opts Options) *Manager {
	return &Manager{
		store:    store,
		newDrive: newDrive,
		opts:     opts.withDefaults(),
		sessions: map[string]*Session{},
	}
}

// Start opens a session bound to accessToken and returns its id.
func (m *Manager) Start(accessToken string) string {
	id := uuid.NewString()
	s := New(id, m.store, m.newDrive(accessToken), m.opts)

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.opts.Logger.Printf("[session] %s: started (%d active)", id, n)
	return id
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Exists(id string) bool {
	_, ok := m.Get(id)
	return ok
}

func (m *Manager) End(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		m.opts.Logger.Printf("[session] %s: ended", id)
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
