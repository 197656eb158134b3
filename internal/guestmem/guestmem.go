// Package guestmem models the slice of guest-addressable memory that host
// commands read and write. Addresses are 32-bit guest addresses; address 0 is
// never valid so it can be used as "null".
package guestmem

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"go.klb.dev/clipbridge/internal/pollword"
)

// ErrOutOfRange is returned for accesses outside the mapped region.
var ErrOutOfRange = errors.New("guest address out of range")

// ErrNoSpace is returned when Alloc cannot satisfy a request.
var ErrNoSpace = errors.New("guest memory exhausted")

// Memory is the view of guest memory the host command dispatcher needs.
type Memory interface {
	Read(addr uint32, n int) ([]byte, error)
	Write(addr uint32, p []byte) error
	Write32(addr uint32, v uint32) error
}

// base is the first mapped address.
const base uint32 = 0x8000

// Flat is a contiguous block of guest RAM starting at 0x8000. Words can be
// bound to a pollword.Cell so that host writes to them wake the guest task.
type Flat struct {
	mu    sync.Mutex
	ram   []byte
	next  uint32
	cells map[uint32]*pollword.Cell
}

// NewFlat maps size bytes of guest RAM.
func NewFlat(size int) *Flat {
	return &Flat{
		ram:   make([]byte, size),
		next:  base,
		cells: make(map[uint32]*pollword.Cell),
	}
}

// Base returns the lowest mapped address.
func (m *Flat) Base() uint32 { return base }

// Size returns the number of mapped bytes.
func (m *Flat) Size() int { return len(m.ram) }

// Alloc reserves n bytes, word aligned, and returns their address. Memory is
// never returned; callers allocate long-lived regions once.
func (m *Flat) Alloc(n int) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	size := uint32((n + 3) &^ 3)
	if n < 0 || uint64(m.next-base)+uint64(size) > uint64(len(m.ram)) {
		return 0, fmt.Errorf("alloc %d bytes: %w", n, ErrNoSpace)
	}
	addr := m.next
	m.next += size
	return addr, nil
}

// Bind attaches c to the word at addr. A nil cell removes the binding.
func (m *Flat) Bind(addr uint32, c *pollword.Cell) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c == nil {
		delete(m.cells, addr)
		return
	}
	m.cells[addr] = c
}

func (m *Flat) span(addr uint32, n int) (int, error) {
	if addr < base || n < 0 {
		return 0, fmt.Errorf("%#x+%d: %w", addr, n, ErrOutOfRange)
	}
	off := uint64(addr - base)
	if off+uint64(n) > uint64(len(m.ram)) {
		return 0, fmt.Errorf("%#x+%d: %w", addr, n, ErrOutOfRange)
	}
	return int(off), nil
}

// Read copies n bytes starting at addr.
func (m *Flat) Read(addr uint32, n int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	off, err := m.span(addr, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, m.ram[off:])
	return out, nil
}

// Write copies p to addr.
func (m *Flat) Write(addr uint32, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	off, err := m.span(addr, len(p))
	if err != nil {
		return err
	}
	copy(m.ram[off:], p)
	return nil
}

// Write32 stores a little-endian word. If a cell is bound at addr the value
// is raised on it instead.
func (m *Flat) Write32(addr uint32, v uint32) error {
	m.mu.Lock()
	c := m.cells[addr]
	m.mu.Unlock()
	if c != nil {
		c.Raise(pollword.Signal(v))
		return nil
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return m.Write(addr, b[:])
}

// Read32 loads a little-endian word, reading through a bound cell.
func (m *Flat) Read32(addr uint32) (uint32, error) {
	m.mu.Lock()
	c := m.cells[addr]
	m.mu.Unlock()
	if c != nil {
		return uint32(c.Peek()), nil
	}
	b, err := m.Read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
