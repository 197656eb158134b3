// Package pollword implements the single-word, level-triggered notification
// cell shared between the host clipboard store and the guest clipboard task.
//
// A zero word means nothing is pending. Setters raise a reason code; the
// polling task wakes, then reads and clears the word in one step. At most one
// reason is pending at a time, so setters must not silently replace a more
// urgent reason with a less urgent one.
package pollword

import "sync"

// Signal is a pending reason code.
type Signal uint32

const (
	None Signal = 0
	// HostChanged is the only code the host store raises.
	HostChanged Signal = 1
	// Tick wakes the task so it can re-evaluate its check deadline.
	Tick Signal = 2
)

func (s Signal) String() string {
	switch s {
	case None:
		return "none"
	case HostChanged:
		return "host-changed"
	case Tick:
		return "tick"
	}
	return "unknown"
}

// rank orders signals by urgency. Host content changes outrank everything
// because losing one loses data; the task codes only wake the loop.
func (s Signal) rank() int {
	switch s {
	case None:
		return 0
	case HostChanged:
		return 2
	}
	return 1
}

// Cell is a notification word plus a wake channel for the task polling it.
type Cell struct {
	mu   sync.Mutex
	word Signal
	wake chan struct{}
}

// New returns an idle cell.
func New() *Cell {
	return &Cell{wake: make(chan struct{}, 1)}
}

// Raise sets the word to s unless a more urgent signal is already pending.
// It reports whether the word now holds s.
func (c *Cell) Raise(s Signal) bool {
	if s == None {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.word.rank() > s.rank() {
		c.kick()
		return false
	}
	c.word = s
	c.kick()
	return true
}

// RaiseIfIdle sets the word to s only if nothing is pending. Used by triggers
// that exist just to wake the task and must not clobber a real signal.
func (c *Cell) RaiseIfIdle(s Signal) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.word != None || s == None {
		return false
	}
	c.word = s
	c.kick()
	return true
}

// Take reads and clears the word atomically with respect to setters.
func (c *Cell) Take() Signal {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.word
	c.word = None
	return s
}

// Peek returns the pending signal without clearing it.
func (c *Cell) Peek() Signal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.word
}

// C returns a channel that receives after any successful raise. A receive
// does not consume the signal; call Take.
func (c *Cell) C() <-chan struct{} { return c.wake }

// kick must be called with c.mu held.
func (c *Cell) kick() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}
