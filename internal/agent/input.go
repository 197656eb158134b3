package agent

import "sync"

// Key transition codes for the Ctrl keys.
const (
	KeyLeftCtrl  = 0x3b
	KeyRightCtrl = 0x61
)

// Ticker is notified of user activity that may have changed the clipboard.
type Ticker interface {
	Tick()
}

// InputFilter watches raw input and ticks on the events that usually mean a
// copy: a key transition while Ctrl is held, or a mouse button change.
type InputFilter struct {
	t Ticker

	mu      sync.Mutex
	ctrl    [2]bool
	buttons uint32
}

// NewInputFilter returns a filter feeding t.
func NewInputFilter(t Ticker) *InputFilter {
	return &InputFilter{t: t}
}

// Key records a key transition.
func (f *InputFilter) Key(code int, down bool) {
	f.mu.Lock()
	switch code {
	case KeyLeftCtrl:
		f.ctrl[0] = down
	case KeyRightCtrl:
		f.ctrl[1] = down
	}
	held := f.ctrl[0] || f.ctrl[1]
	f.mu.Unlock()

	if held && code != KeyLeftCtrl && code != KeyRightCtrl {
		f.t.Tick()
	}
}

// Mouse records the current button state; only the low three bits count.
func (f *InputFilter) Mouse(buttons uint32) {
	buttons &= 7
	f.mu.Lock()
	changed := buttons != f.buttons
	f.buttons = buttons
	f.mu.Unlock()

	if changed {
		f.t.Tick()
	}
}
