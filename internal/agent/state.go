package agent

import (
	"time"

	"go.klb.dev/clipbridge/internal/filetype"
	"go.klb.dev/clipbridge/internal/wimp"
)

// State summarises which transaction, if any, the agent is in.
type State int

const (
	Idle State = iota
	Owned
	Pasting
	Checking
	Fetching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Owned:
		return "owned"
	case Pasting:
		return "pasting"
	case Checking:
		return "checking"
	case Fetching:
		return "fetching"
	}
	return "unknown"
}

func (a *Agent) stateLocked() State {
	switch {
	case a.fetchMsg != 0, a.checkMsg != 0 && a.content != nil:
		return Fetching
	case a.checkMsg != 0:
		return Checking
	case a.pasteMsg != 0:
		return Pasting
	case a.own:
		return Owned
	}
	return Idle
}

// State returns the current state.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateLocked()
}

// Owned reports whether the agent holds the guest clipboard.
func (a *Agent) Owned() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.own
}

// Buffer describes a held content buffer.
type Buffer struct {
	FileType    filetype.Type
	Len         int
	WriteOffset int
}

// Snapshot is a point-in-time view of the agent for status reporting.
type Snapshot struct {
	Task        wimp.Task
	State       State
	Owned       bool
	CheckAt     time.Time
	PasteMsg    wimp.Ref
	CheckMsg    wimp.Ref
	FetchMsg    wimp.Ref
	PasteOffset int
	Content     *Buffer
	Pushed      *Buffer
	Stats       Stats
}

func bufferOf(c *Content) *Buffer {
	if c == nil {
		return nil
	}
	return &Buffer{FileType: c.FileType, Len: c.Len, WriteOffset: c.WriteOffset}
}

// Snapshot returns the agent's current state.
func (a *Agent) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		Task:        a.port.Task(),
		State:       a.stateLocked(),
		Owned:       a.own,
		CheckAt:     a.checkAt,
		PasteMsg:    a.pasteMsg,
		CheckMsg:    a.checkMsg,
		FetchMsg:    a.fetchMsg,
		PasteOffset: a.pasteOffset,
		Content:     bufferOf(a.content),
		Pushed:      bufferOf(a.pushed),
		Stats:       a.stats,
	}
}
