package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countTicker struct{ n int }

func (c *countTicker) Tick() { c.n++ }

func TestInputFilterKeys(t *testing.T) {
	c := &countTicker{}
	f := NewInputFilter(c)

	f.Key(0x21, true)
	assert.Zero(t, c.n, "plain key")

	f.Key(KeyLeftCtrl, true)
	assert.Zero(t, c.n, "ctrl itself")
	f.Key(0x21, true)
	f.Key(0x21, false)
	assert.Equal(t, 2, c.n)

	f.Key(KeyRightCtrl, true)
	f.Key(KeyLeftCtrl, false)
	f.Key(0x22, true)
	assert.Equal(t, 3, c.n, "right ctrl still held")

	f.Key(KeyRightCtrl, false)
	f.Key(0x22, false)
	assert.Equal(t, 3, c.n)
}

func TestInputFilterMouse(t *testing.T) {
	c := &countTicker{}
	f := NewInputFilter(c)

	f.Mouse(0)
	assert.Zero(t, c.n)
	f.Mouse(4)
	f.Mouse(4)
	assert.Equal(t, 1, c.n)
	f.Mouse(4 | 8)
	assert.Equal(t, 1, c.n, "high bits ignored")
	f.Mouse(0)
	assert.Equal(t, 2, c.n)
}
