package hostclip

import (
	"go.klb.dev/clipbridge/internal/filetype"
	"go.klb.dev/clipbridge/internal/guestmem"
	"go.klb.dev/clipbridge/internal/pollword"
	"go.klb.dev/clipbridge/internal/ucs"
)

// Op selects a host clipboard command.
type Op uint32

const (
	OpSetup     Op = 1
	OpHostSet   Op = 2
	OpHostGet   Op = 3
	OpHostCheck Op = 4
)

func (o Op) String() string {
	switch o {
	case OpSetup:
		return "SETUP"
	case OpHostSet:
		return "HOST_SET"
	case OpHostGet:
		return "HOST_GET"
	case OpHostCheck:
		return "HOST_CHECK"
	}
	return "UNKNOWN"
}

// Regs holds the guest registers r0–r5 on entry to a host command. r0 is
// the Op.
type Regs [6]uint32

// Dispatch runs one host command against guest memory and returns the two
// result registers.
//
//	SETUP      r1 pollword addr (0 disables), r2 alphabet, r3 table addr (0 keeps)
//	HOST_SET   r1 src addr, r2 length, r3 file type
//	HOST_GET   r1 dest addr, r2 max length           → r0 bytes copied
//	HOST_CHECK                                        → r0 length, r1 file type
//
// Unknown ops and bad guest addresses leave the store untouched.
func (s *Store) Dispatch(mem guestmem.Memory, r Regs) (uint32, uint32) {
	op := Op(r[0])
	switch op {
	case OpSetup:
		var n Notifier
		if r[1] != 0 {
			n = &guestWord{mem: mem, addr: r[1]}
		}
		var t *ucs.Table
		if r[3] != 0 {
			raw, err := mem.Read(r[3], ucs.TableSize)
			if err == nil {
				t, err = ucs.TableFromBytes(raw)
			}
			if err != nil {
				s.log.Warn("setup: cannot read conversion table, using built-in", "err", err)
				t = ucs.Builtin(ucs.Alphabet(r[2]))
			}
		}
		s.Setup(n, ucs.Alphabet(r[2]), t)

	case OpHostSet:
		src, err := mem.Read(r[1], int(r[2]))
		if err != nil {
			s.log.Warn("host set: bad source", "err", err)
			return 0, 0
		}
		if err := s.Set(src, filetype.Type(r[3])); err != nil {
			s.log.Warn("host set failed", "err", err)
		}

	case OpHostGet:
		length, _ := s.Check()
		n := min(int(r[2]), int(length))
		buf := make([]byte, n)
		got := s.Get(buf)
		if err := mem.Write(r[1], buf[:got]); err != nil {
			s.log.Warn("host get: bad destination", "err", err)
			return 0, 0
		}
		return uint32(got), 0

	case OpHostCheck:
		length, ft := s.Check()
		return length, uint32(ft)

	default:
		s.log.Debug("unknown clipboard op", "op", r[0])
	}
	return 0, 0
}

// guestWord raises signals by writing them to a word of guest memory.
type guestWord struct {
	mem  guestmem.Memory
	addr uint32
}

func (w *guestWord) Raise(sig pollword.Signal) bool {
	return w.mem.Write32(w.addr, uint32(sig)) == nil
}
