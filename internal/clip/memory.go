package clip

import "sync"

// Memory is a clipboard held in process memory. Writes signal Watch just as
// a system clipboard echoes its own changes.
type Memory struct {
	mu      sync.Mutex
	items   []Item
	writes  int
	watchCh chan struct{}
}

// NewMemory returns an empty in-memory clipboard.
func NewMemory() *Memory {
	return &Memory{watchCh: make(chan struct{}, 1)}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Read() ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneItems(m.items), nil
}

func (m *Memory) Write(items []Item) error {
	m.mu.Lock()
	m.items = cloneItems(items)
	m.writes++
	m.mu.Unlock()
	signal(m.watchCh)
	return nil
}

// Copy replaces the contents as if a desktop application had copied them.
func (m *Memory) Copy(items ...Item) {
	m.mu.Lock()
	m.items = cloneItems(items)
	m.mu.Unlock()
	signal(m.watchCh)
}

// Writes returns how many times Write has been called.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) Watch() <-chan struct{} { return m.watchCh }
func (m *Memory) Close()                 {}

func cloneItems(items []Item) []Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{Type: it.Type, Data: append([]byte(nil), it.Data...)}
	}
	return out
}
