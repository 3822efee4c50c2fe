package terminal

import (
	"context"
	"sync"
)

type entry struct {
	owner  string
	poller *Poller
}

// Manager keeps at most one live poller per reader. Starting a new charge on
// a reader cancels whatever was polling there before.
type Manager struct {
	gw   Gateway
	opts Options

	ctx  context.Context
	stop context.CancelFunc

	mu      sync.Mutex
	pollers map[string]*entry
}

func NewManager(gw Gateway, opts Options) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		gw:      gw,
		opts:    opts.withDefaults(),
		ctx:     ctx,
		stop:    cancel,
		pollers: make(map[string]*entry),
	}
}

func (m *Manager) Start(owner, readerID, intentID string) *Poller {
	p := NewPoller(intentID, readerID, m.gw, m.opts)
	m.mu.Lock()
	prev := m.pollers[readerID]
	m.pollers[readerID] = &entry{owner: owner, poller: p}
	m.mu.Unlock()
	if prev != nil {
		prev.poller.Cancel()
	}
	go p.Run(m.ctx)
	return p
}

// Get returns the current poller for readerID and the owner that started it.
func (m *Manager) Get(readerID string) (*Poller, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.pollers[readerID]
	if !ok {
		return nil, "", false
	}
	return e.poller, e.owner, true
}

// FindByIntent looks up the poller following intentID, if any.
func (m *Manager) FindByIntent(intentID string) (*Poller, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.pollers {
		if e.poller.intentID == intentID {
			return e.poller, e.owner, true
		}
	}
	return nil, "", false
}

func (m *Manager) Cancel(readerID string) bool {
	p, _, ok := m.Get(readerID)
	if !ok {
		return false
	}
	return p.Cancel()
}

// Close stops every poller.
func (m *Manager) Close() {
	m.stop()
}
