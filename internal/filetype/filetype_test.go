package filetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccepted(t *testing.T) {
	for _, ft := range Requested {
		assert.True(t, Accepted(ft), ft.String())
	}
	assert.False(t, Accepted(None))
	assert.False(t, Accepted(0xffd))
}

func TestParse(t *testing.T) {
	cases := map[string]Type{
		"text":       Text,
		"TXT":        Text,
		"jpg":        JPEG,
		"png":        PNG,
		"image/png":  PNG,
		"text/plain": Text,
		"fff":        Text,
		"&b60":       PNG,
		"ffd":        0xffd,
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "gif", "fffz", "1000"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestStringAndMIME(t *testing.T) {
	assert.Equal(t, "text", Text.String())
	assert.Equal(t, "&ffd", Type(0xffd).String())
	got, err := Parse(Type(0xffd).String())
	require.NoError(t, err)
	assert.Equal(t, Type(0xffd), got)

	for _, ft := range Requested {
		assert.Equal(t, ft, FromMIME(ft.MIME()))
	}
	assert.Empty(t, Type(0xffd).MIME())
	assert.Equal(t, None, FromMIME("image/gif"))
}
