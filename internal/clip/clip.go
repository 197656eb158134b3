// Package clip provides a unified interface to the host system clipboard.
// Build constraints select the implementation:
//
//	clip_darwin.go   macOS via golang.design/x/clipboard + cgo changeCount
//	clip_windows.go  Windows via golang.design/x/clipboard + AddClipboardFormatListener
//	clip_linux.go    Linux via golang.design/x/clipboard, polling only
//	clip_other.go    headless stub
//
// Memory is an in-process backend for tests and for running without a
// desktop session.
package clip

import (
	"bytes"

	"go.klb.dev/clipbridge/internal/filetype"
)

// Item is one representation of the clipboard contents. Text is UTF-8.
type Item struct {
	Type filetype.Type
	Data []byte
}

// Equal reports whether two item lists hold the same types and bytes.
func Equal(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || !bytes.Equal(a[i].Data, b[i].Data) {
			return false
		}
	}
	return true
}

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard contents, text first. Returns
	// nil, nil if the clipboard is empty or holds only unsupported types.
	Read() ([]Item, error)

	// Write replaces the clipboard contents. Only Text and PNG items are
	// supported by the system backends.
	Write(items []Item) error

	// Watch returns a channel that receives a signal whenever the clipboard
	// changes. The channel is never closed. The caller should call Read
	// when it receives from the channel.
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}

// signal does a non-blocking send on a 1-buffered watch channel.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
