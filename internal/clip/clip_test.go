package clip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipbridge/internal/filetype"
)

func TestEqual(t *testing.T) {
	a := []Item{{Type: filetype.Text, Data: []byte("x")}}
	assert.True(t, Equal(a, []Item{{Type: filetype.Text, Data: []byte("x")}}))
	assert.False(t, Equal(a, []Item{{Type: filetype.PNG, Data: []byte("x")}}))
	assert.False(t, Equal(a, nil))
	assert.True(t, Equal(nil, []Item{}))
}

func TestMemoryBackend(t *testing.T) {
	m := NewMemory()
	items, err := m.Read()
	require.NoError(t, err)
	assert.Nil(t, items)

	src := []byte("hello")
	m.Copy(Item{Type: filetype.Text, Data: src})
	src[0] = 'j'
	select {
	case <-m.Watch():
	default:
		t.Fatal("copy did not signal")
	}
	items, _ = m.Read()
	require.Len(t, items, 1)
	assert.Equal(t, "hello", string(items[0].Data))

	require.NoError(t, m.Write([]Item{{Type: filetype.PNG, Data: []byte{1}}}))
	require.NoError(t, m.Write([]Item{{Type: filetype.PNG, Data: []byte{2}}}))
	assert.Equal(t, 2, m.Writes())
	<-m.Watch()
	select {
	case <-m.Watch():
		t.Fatal("watch signals coalesce")
	default:
	}
}

func TestHeadless(t *testing.T) {
	b := newHeadless()
	items, err := b.Read()
	assert.NoError(t, err)
	assert.Nil(t, items)
	assert.NoError(t, b.Write([]Item{{Type: filetype.Text}}))
}
