package hostclip

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipbridge/internal/filetype"
	"go.klb.dev/clipbridge/internal/guestmem"
	"go.klb.dev/clipbridge/internal/pollword"
	"go.klb.dev/clipbridge/internal/ucs"
)

func TestCheckEmpty(t *testing.T) {
	s := New()
	length, ft := s.Check()
	assert.Zero(t, length)
	assert.Equal(t, filetype.None, ft)
	assert.Zero(t, s.Get(make([]byte, 8)))
}

func TestSetTextThenCheck(t *testing.T) {
	var gotType filetype.Type
	var gotData []byte
	s := New(WithOnSet(func(ft filetype.Type, data []byte) {
		gotType, gotData = ft, data
	}))
	require.NoError(t, s.Set([]byte("AB"), filetype.Text))

	length, ft := s.Check()
	assert.Equal(t, uint32(12), length)
	assert.Equal(t, filetype.Text, ft)

	assert.Equal(t, filetype.Text, gotType)
	assert.Equal(t, ucs.PackUCS4([]uint32{0x41, 0x42}), gotData)
}

func TestSetBinaryThenCheck(t *testing.T) {
	s := New()
	png := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	require.NoError(t, s.Set(png, filetype.PNG))
	length, ft := s.Check()
	assert.Equal(t, uint32(len(png)), length)
	assert.Equal(t, filetype.PNG, ft)

	dst := make([]byte, 16)
	n := s.Get(dst)
	assert.Equal(t, png, dst[:n])
}

func TestSetEmptyClears(t *testing.T) {
	s := New()
	require.NoError(t, s.Set([]byte("x"), filetype.Text))
	require.NoError(t, s.Set(nil, filetype.Text))
	length, _ := s.Check()
	assert.Zero(t, length)
}

func TestSetTooLarge(t *testing.T) {
	s := New(WithMaxLen(12))
	require.NoError(t, s.Set([]byte("abc"), filetype.Text))
	assert.ErrorIs(t, s.Set([]byte("abcd"), filetype.Text), ErrTooLarge, "16 bytes of codepoints")
	length, _ := s.Check()
	assert.Equal(t, uint32(16), length, "prior content is kept")

	require.NoError(t, s.Set(make([]byte, 12), filetype.PNG))
	assert.ErrorIs(t, s.Set(make([]byte, 13), filetype.PNG), ErrTooLarge)
}

func TestSetAndNotifyShareLimit(t *testing.T) {
	s := New(WithMaxLen(8))
	text := []byte("abc")
	assert.ErrorIs(t, s.Set(text, filetype.Text), ErrTooLarge)
	assert.False(t, s.Notify(filetype.Text, ucs.PackUCS4(ucs.Decode(ucs.Builtin(ucs.Latin1), text))))

	require.NoError(t, s.Set([]byte("ab"), filetype.Text))
	assert.True(t, s.Notify(filetype.Text, ucs.UCS4FromUTF8("cd")))
}

func TestGetTextIncludesTerminator(t *testing.T) {
	s := New()
	require.NoError(t, s.Set([]byte("AB"), filetype.Text))
	length, _ := s.Check()
	dst := make([]byte, length)
	n := s.Get(dst)
	assert.Equal(t, []byte{'A', 'B', 0}, dst[:n])
}

func TestGetTruncatesWithoutTerminator(t *testing.T) {
	s := New()
	require.NoError(t, s.Set([]byte("ABCDEF"), filetype.Text))
	dst := bytes.Repeat([]byte{0xff}, 8)
	n := s.Get(dst[:3])
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{'A', 'B', 'C', 0xff, 0xff}, dst[:5])
}

func TestNotifyRaisesOnce(t *testing.T) {
	s := New()
	cell := pollword.New()
	s.Setup(cell, ucs.Latin1, nil)

	data := ucs.UCS4FromUTF8("hello")
	assert.True(t, s.Notify(filetype.Text, data))
	assert.Equal(t, pollword.HostChanged, cell.Take())

	assert.False(t, s.Notify(filetype.Text, data))
	assert.Equal(t, pollword.None, cell.Take())

	assert.True(t, s.Notify(filetype.PNG, data), "type change is a change")
	assert.Equal(t, pollword.HostChanged, cell.Take())
}

func TestNotifyWithoutSetupCachesSilently(t *testing.T) {
	s := New()
	assert.True(t, s.Notify(filetype.Text, ucs.UCS4FromUTF8("x")))
	length, ft := s.Check()
	assert.Equal(t, uint32(8), length)
	assert.Equal(t, filetype.Text, ft)
	assert.False(t, s.Snapshot().Notifying)
}

func TestNotifyEmpty(t *testing.T) {
	s := New()
	cell := pollword.New()
	s.Setup(cell, ucs.Latin1, nil)
	assert.False(t, s.Notify(filetype.Text, nil))
	s.Notify(filetype.Text, ucs.UCS4FromUTF8("x"))
	cell.Take()
	assert.True(t, s.Notify(filetype.Text, nil))
	assert.Equal(t, pollword.HostChanged, cell.Take())
	length, _ := s.Check()
	assert.Zero(t, length)
}

func TestSetupTableUsedForConversion(t *testing.T) {
	s := New()
	s.Setup(nil, ucs.Cyrillic, ucs.Builtin(ucs.Cyrillic))
	s.Notify(filetype.Text, ucs.UCS4FromUTF8("Да"))
	dst := make([]byte, 8)
	n := s.Get(dst)
	assert.Equal(t, []byte{0xb4, 0xd0, 0}, dst[:n])
}

func TestTeardown(t *testing.T) {
	s := New()
	s.Setup(pollword.New(), ucs.Latin1, nil)
	s.Notify(filetype.Text, ucs.UCS4FromUTF8("x"))
	s.Teardown()
	snap := s.Snapshot()
	assert.False(t, snap.Notifying)
	assert.Zero(t, snap.Length)
}

func TestDispatchThroughGuestMemory(t *testing.T) {
	mem := guestmem.NewFlat(64 * 1024)
	s := New()
	c, err := NewSWIClient(mem, s, 1024)
	require.NoError(t, err)

	cell := pollword.New()
	require.NoError(t, c.Setup(cell, ucs.Latin1, ucs.Builtin(ucs.Latin1)))
	assert.True(t, s.Snapshot().Notifying)

	s.Notify(filetype.Text, ucs.UCS4FromUTF8("héllo"))
	assert.Equal(t, pollword.HostChanged, cell.Take())

	length, ft, err := c.Check()
	require.NoError(t, err)
	assert.Equal(t, uint32(24), length)
	assert.Equal(t, filetype.Text, ft)

	dst := make([]byte, length)
	n, err := c.Get(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("h\xe9llo\x00"), dst[:n])

	require.NoError(t, c.Set([]byte("AB"), filetype.Text))
	length, _, _ = c.Check()
	assert.Equal(t, uint32(12), length)

	assert.ErrorIs(t, c.Set(make([]byte, 2048), filetype.PNG), ErrTooLarge)

	require.NoError(t, c.Setup(nil, ucs.Latin1, nil))
	assert.False(t, s.Snapshot().Notifying)
}

func TestDispatchBadAddresses(t *testing.T) {
	mem := guestmem.NewFlat(1024)
	s := New()
	require.NoError(t, s.Set([]byte("keep"), filetype.Text))

	s.Dispatch(mem, Regs{uint32(OpHostSet), 4, 10, uint32(filetype.Text)})
	length, _ := s.Check()
	assert.Equal(t, uint32(20), length)

	n, _ := s.Dispatch(mem, Regs{uint32(OpHostGet), 4, 10})
	assert.Zero(t, n)

	s.Dispatch(mem, Regs{uint32(OpSetup), mem.Base(), uint32(ucs.Greek), 4})
	assert.True(t, s.Snapshot().Notifying)
	assert.Equal(t, ucs.Greek, s.Snapshot().Alphabet)

	r0, r1 := s.Dispatch(mem, Regs{99})
	assert.Zero(t, r0)
	assert.Zero(t, r1)
}
