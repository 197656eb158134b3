//go:build darwin || windows || linux

package clip

import (
	"fmt"
	"log/slog"
	"time"

	"golang.design/x/clipboard"

	"go.klb.dev/clipbridge/internal/filetype"
)

// systemBackend is the desktop clipboard reached through
// golang.design/x/clipboard. Platforms differ only in how they detect a
// change.
type systemBackend struct {
	*watcher
	name string
}

// newSystem initialises the desktop clipboard and starts polling it. It falls back
// to the headless backend when there is no desktop session. Init runs here
// rather than in init() so CLI commands that only talk to a running bridge
// stay quiet.
func newSystem(name string, every time.Duration, poller func() func() bool) Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return newHeadless()
	}
	return &systemBackend{watcher: startWatcher(every, poller()), name: name}
}

func (b *systemBackend) Name() string             { return b.name }
func (b *systemBackend) Read() ([]Item, error)    { return readSystem(), nil }
func (b *systemBackend) Write(items []Item) error { return writeSystem(items) }

func readSystem() []Item {
	var items []Item
	if text := clipboard.Read(clipboard.FmtText); len(text) > 0 {
		items = append(items, Item{Type: filetype.Text, Data: text})
	}
	if img := clipboard.Read(clipboard.FmtImage); len(img) > 0 {
		items = append(items, Item{Type: filetype.PNG, Data: img})
	}
	return items
}

func writeSystem(items []Item) error {
	for _, it := range items {
		switch it.Type {
		case filetype.Text:
			clipboard.Write(clipboard.FmtText, it.Data)
		case filetype.PNG:
			clipboard.Write(clipboard.FmtImage, it.Data)
		default:
			return fmt.Errorf("unsupported clipboard type: %s", it.Type)
		}
	}
	return nil
}
