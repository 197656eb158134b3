package hostclip

import (
	"fmt"

	"go.klb.dev/clipbridge/internal/filetype"
	"go.klb.dev/clipbridge/internal/guestmem"
	"go.klb.dev/clipbridge/internal/pollword"
	"go.klb.dev/clipbridge/internal/ucs"
)

// Direct gives the guest task in-process access to a Store.
type Direct struct {
	Store *Store
}

func (d Direct) Setup(cell *pollword.Cell, alphabet ucs.Alphabet, t *ucs.Table) error {
	if cell == nil {
		d.Store.Setup(nil, alphabet, t)
		return nil
	}
	d.Store.Setup(cell, alphabet, t)
	return nil
}

func (d Direct) Check() (uint32, filetype.Type, error) {
	length, ft := d.Store.Check()
	return length, ft, nil
}

func (d Direct) Get(dst []byte) (int, error) { return d.Store.Get(dst), nil }

func (d Direct) Set(src []byte, ft filetype.Type) error { return d.Store.Set(src, ft) }

// SWIClient reaches a Store the way guest code does: arguments are staged in
// guest memory and each call goes through Dispatch.
type SWIClient struct {
	mem   *guestmem.Flat
	store *Store

	pollAddr    uint32
	tableAddr   uint32
	scratchAddr uint32
	scratchLen  int
}

// NewSWIClient reserves the pollword, a conversion table, and scratchLen
// bytes of transfer space in mem.
func NewSWIClient(mem *guestmem.Flat, store *Store, scratchLen int) (*SWIClient, error) {
	c := &SWIClient{mem: mem, store: store, scratchLen: scratchLen}
	var err error
	if c.pollAddr, err = mem.Alloc(4); err != nil {
		return nil, fmt.Errorf("pollword: %w", err)
	}
	if c.tableAddr, err = mem.Alloc(ucs.TableSize); err != nil {
		return nil, fmt.Errorf("conversion table: %w", err)
	}
	if c.scratchAddr, err = mem.Alloc(scratchLen); err != nil {
		return nil, fmt.Errorf("scratch: %w", err)
	}
	return c, nil
}

// PollwordAddr returns the guest address of the notification word.
func (c *SWIClient) PollwordAddr() uint32 { return c.pollAddr }

func (c *SWIClient) call(op Op, r1, r2, r3 uint32) (uint32, uint32) {
	return c.store.Dispatch(c.mem, Regs{uint32(op), r1, r2, r3})
}

func (c *SWIClient) Setup(cell *pollword.Cell, alphabet ucs.Alphabet, t *ucs.Table) error {
	if cell == nil {
		c.call(OpSetup, 0, uint32(alphabet), 0)
		c.mem.Bind(c.pollAddr, nil)
		return nil
	}
	var tableAddr uint32
	if t != nil {
		if err := c.mem.Write(c.tableAddr, t.Bytes()); err != nil {
			return fmt.Errorf("stage conversion table: %w", err)
		}
		tableAddr = c.tableAddr
	}
	c.mem.Bind(c.pollAddr, cell)
	c.call(OpSetup, c.pollAddr, uint32(alphabet), tableAddr)
	return nil
}

func (c *SWIClient) Check() (uint32, filetype.Type, error) {
	length, ft := c.call(OpHostCheck, 0, 0, 0)
	return length, filetype.Type(ft), nil
}

func (c *SWIClient) Get(dst []byte) (int, error) {
	n := min(len(dst), c.scratchLen)
	got, _ := c.call(OpHostGet, c.scratchAddr, uint32(n), 0)
	b, err := c.mem.Read(c.scratchAddr, int(got))
	if err != nil {
		return 0, err
	}
	return copy(dst, b), nil
}

func (c *SWIClient) Set(src []byte, ft filetype.Type) error {
	if len(src) > c.scratchLen {
		return fmt.Errorf("set %d bytes via %d byte scratch: %w", len(src), c.scratchLen, ErrTooLarge)
	}
	if err := c.mem.Write(c.scratchAddr, src); err != nil {
		return err
	}
	c.call(OpHostSet, c.scratchAddr, uint32(len(src)), uint32(ft))
	return nil
}
