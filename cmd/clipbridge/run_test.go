package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipbridge/internal/filetype"
	"go.klb.dev/clipbridge/internal/hostclip"
	"go.klb.dev/clipbridge/internal/ucs"
)

func TestResolveAlphabet(t *testing.T) {
	a, err := resolveAlphabet("Cyrillic")
	require.NoError(t, err)
	assert.Equal(t, ucs.Cyrillic, a)

	a, err = resolveAlphabet("101")
	require.NoError(t, err)
	assert.Equal(t, ucs.Latin1, a)

	_, err = resolveAlphabet("klingon")
	assert.Error(t, err)

	_, err = resolveAlphabet("auto")
	assert.NoError(t, err)
}

func TestNewHost(t *testing.T) {
	store := hostclip.New(hostclip.WithMaxLen(1 << 10))

	h, err := newHost("direct", store, 0)
	require.NoError(t, err)
	assert.IsType(t, hostclip.Direct{}, h)

	h, err = newHost("swi", store, 64<<10)
	require.NoError(t, err)
	require.NoError(t, h.Set([]byte("AB"), filetype.Text))
	length, ft, err := h.Check()
	require.NoError(t, err)
	assert.Equal(t, uint32(12), length)
	assert.Equal(t, filetype.Text, ft)

	_, err = newHost("swi", store, 2<<10)
	assert.ErrorContains(t, err, "too small")

	_, err = newHost("pipe", store, 0)
	assert.Error(t, err)
}
