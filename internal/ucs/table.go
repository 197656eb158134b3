// Package ucs maps the guest's single-byte alphabets to 32-bit universal
// codepoints and back.
//
// A Table is the 256-entry byte → codepoint mapping for one alphabet. It is
// immutable once built and safe for concurrent readers. Text crosses the
// host boundary as little-endian UCS-4 so the host never needs to know which
// alphabet the guest is using.
package ucs

import (
	"encoding/binary"
	"fmt"
)

// Unmapped marks a byte that has no codepoint in the alphabet. Such bytes are
// dropped when decoding.
const Unmapped uint32 = 0xffffffff

// TableSize is the size of a Table in guest memory: 256 little-endian words.
const TableSize = 256 * 4

// Table maps each guest byte to its codepoint.
type Table [256]uint32

// Lookup returns the codepoint for b, or Unmapped.
func (t *Table) Lookup(b byte) uint32 { return t[b] }

// Reverse returns the first byte whose codepoint is cp.
func (t *Table) Reverse(cp uint32) (byte, bool) {
	if cp == Unmapped {
		return 0, false
	}
	for i, v := range t {
		if v == cp {
			return byte(i), true
		}
	}
	return 0, false
}

// Clone returns a copy of t.
func (t *Table) Clone() *Table {
	c := *t
	return &c
}

// Bytes returns t in its guest-memory layout.
func (t *Table) Bytes() []byte {
	b := make([]byte, TableSize)
	for i, v := range t {
		binary.LittleEndian.PutUint32(b[i*4:], v)
	}
	return b
}

// TableFromBytes parses a table in guest-memory layout.
func TableFromBytes(b []byte) (*Table, error) {
	if len(b) < TableSize {
		return nil, fmt.Errorf("conversion table: need %d bytes, got %d", TableSize, len(b))
	}
	var t Table
	for i := range t {
		t[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return &t, nil
}
