package browser

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager is a named registry of sessions with a cap and idle cleanup.
// All methods are safe for concurrent use.
type Manager struct {
	mu          sync.RWMutex
	launcher    *Launcher
	sessions    map[string]*Session
	maxSessions int
	idleTimeout time.Duration
	logger      *zap.Logger
}

// NewManager creates a Manager that opens sessions through launcher.
func NewManager(launcher *Launcher) *Manager {
	return &Manager{
		launcher:    launcher,
		sessions:    make(map[string]*Session),
		maxSessions: DefaultMaxSessions,
		idleTimeout: DefaultIdleTimeout * time.Second,
		logger:      launcher.logger,
	}
}

// Open creates and registers a named session. The name must be unused and
// the session cap not reached.
func (m *Manager) Open(name string, opts PageOptions) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrSessionExists, name)
	}
	if len(m.sessions) >= m.maxSessions {
		return nil, fmt.Errorf("%w (%d)", ErrTooManySessions, m.maxSessions)
	}

	session, err := m.launcher.NewSession(opts)
	if err != nil {
		return nil, err
	}
	session.Name = name
	m.sessions[name] = session

	m.logger.Info("session registered",
		zap.String("name", name),
		zap.String("session_id", session.ID),
	)
	return session, nil
}

// Get returns the named session and refreshes its last-used time.
func (m *Manager) Get(name string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, name)
	}
	session.UpdateLastUsed()
	return session, nil
}

// Close closes the named session and removes it from the registry.
func (m *Manager) Close(name string) error {
	m.mu.Lock()
	session, exists := m.sessions[name]
	if exists {
		delete(m.sessions, name)
	}
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, name)
	}
	if err := session.Close(); err != nil {
		return fmt.Errorf("failed to close session %q: %w", name, err)
	}
	m.logger.Info("session closed", zap.String("name", name))
	return nil
}

// CloseAll closes every managed session and joins any errors.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error
	for name, session := range sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("session %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// CleanupIdle closes sessions unused for longer than the idle timeout and
// reports how many were reaped.
func (m *Manager) CleanupIdle() int {
	m.mu.Lock()
	now := time.Now()
	var idle []*Session
	for name, session := range m.sessions {
		if now.Sub(session.LastUsedAt) > m.idleTimeout {
			idle = append(idle, session)
			delete(m.sessions, name)
		}
	}
	m.mu.Unlock()

	for _, session := range idle {
		if err := session.Close(); err != nil {
			m.logger.Warn("failed to close idle session",
				zap.String("name", session.Name),
				zap.Error(err))
			continue
		}
		m.logger.Info("closed idle session", zap.String("name", session.Name))
	}
	return len(idle)
}

// List returns metadata for every managed session.
func (m *Manager) List() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, session := range m.sessions {
		infos = append(infos, session.Info())
	}
	return infos
}

// HasSessions reports whether any sessions are registered.
func (m *Manager) HasSessions() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions) > 0
}

// SetMaxSessions adjusts the session cap. Values below one are ignored.
func (m *Manager) SetMaxSessions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > 0 {
		m.maxSessions = n
	}
}

// SetIdleTimeout adjusts how long a session may sit unused before
// CleanupIdle reaps it. Non-positive values are ignored.
func (m *Manager) SetIdleTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.idleTimeout = d
	}
}
