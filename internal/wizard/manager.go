package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ManagerUseCase interface {
	Create() *Wizard
	Get(id string) (*Wizard, error)
	Close(id string) error
}

// Manager keeps one wizard per operator session in memory.
type Manager struct {
	ctx     context.Context
	deps    Dependencies
	idleTTL time.Duration
	logger  *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*Wizard
}

func NewManager(ctx context.Context, deps Dependencies) *Manager {
	return &Manager{
		ctx:      ctx,
		deps:     deps,
		idleTTL:  deps.Config.SessionIdleTTL(),
		logger:   deps.Logger,
		sessions: make(map[string]*Wizard),
	}
}

func (m *Manager) Create() *Wizard {
	id := uuid.NewString()
	w := NewWizard(m.ctx, id, m.deps)

	m.mu.Lock()
	m.sessions[id] = w
	m.mu.Unlock()

	m.logger.WithField("session_id", id).Info("Wizard session created")
	return w
}

func (m *Manager) Get(id string) (*Wizard, error) {
	m.mu.Lock()
	w, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, domain.NewNotFoundError("get wizard", fmt.Sprintf("wizard session %s not found", id))
	}
	return w, nil
}

func (m *Manager) Close(id string) error {
	m.mu.Lock()
	w, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return domain.NewNotFoundError("close wizard", fmt.Sprintf("wizard session %s not found", id))
	}
	w.Close()
	return nil
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// SweepIdle closes sessions untouched since before now minus the idle TTL and
// returns their ids.
func (m *Manager) SweepIdle(now time.Time) []string {
	if m.idleTTL <= 0 {
		return nil
	}
	deadline := now.Add(-m.idleTTL)

	var expired []*Wizard
	m.mu.Lock()
	for id, w := range m.sessions {
		if w.LastActive().Before(deadline) {
			expired = append(expired, w)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	ids := make([]string, 0, len(expired))
	for _, w := range expired {
		w.Close()
		ids = append(ids, w.ID())
	}
	return ids
}

// Run sweeps idle sessions every interval until ctx is done, then closes
// every remaining session.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if expired := m.SweepIdle(time.Now()); len(expired) > 0 {
				m.logger.WithField("count", len(expired)).Info("Closed idle wizard sessions")
			}
		case <-ctx.Done():
			m.Shutdown()
			return
		}
	}
}

func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Wizard)
	m.mu.Unlock()

	for _, w := range sessions {
		w.Close()
	}
}

var _ ManagerUseCase = (*Manager)(nil)
