// Package bridge connects the host clipboard store to the desktop clipboard.
// Desktop changes are converted and fed to the store as host notifications;
// content the guest pushes into the store is written back to the desktop.
package bridge

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"sync"

	"golang.org/x/image/draw"

	"go.klb.dev/clipbridge/internal/clip"
	"go.klb.dev/clipbridge/internal/filetype"
	"go.klb.dev/clipbridge/internal/hostclip"
	"go.klb.dev/clipbridge/internal/ucs"
)

const writeQueue = 16

// Bridge mirrors a hostclip.Store to a clip.Backend.
type Bridge struct {
	store   *hostclip.Store
	backend clip.Backend
	log     *slog.Logger
	writeCh chan []clip.Item

	mu   sync.Mutex
	last []clip.Item
}

// New creates a bridge. Install OnSet as the store's hook before running it.
func New(store *hostclip.Store, backend clip.Backend, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		store:   store,
		backend: backend,
		log:     logger.With("component", "bridge", "backend", backend.Name()),
		writeCh: make(chan []clip.Item, writeQueue),
	}
}

// OnSet receives content the guest pushed into the store and queues it for
// the desktop clipboard. It never blocks.
func (b *Bridge) OnSet(ft filetype.Type, data []byte) {
	items, err := toItems(ft, data)
	if err != nil {
		b.log.Warn("guest clipboard not converted", "type", ft, "err", err)
		return
	}
	if len(items) == 0 {
		return
	}
	select {
	case b.writeCh <- items:
	default:
		b.log.Warn("desktop write queue full, dropping", "type", ft)
	}
}

// Sync reads the desktop clipboard and notifies the store if it differs from
// what the bridge last saw or wrote.
func (b *Bridge) Sync() error {
	items, err := b.backend.Read()
	if err != nil {
		return fmt.Errorf("read %s: %w", b.backend.Name(), err)
	}
	if len(items) == 0 {
		return nil
	}
	b.mu.Lock()
	if clip.Equal(items, b.last) {
		b.mu.Unlock()
		return nil
	}
	b.last = items
	b.mu.Unlock()

	ft, data, ok := fromItems(items)
	if !ok {
		b.log.Debug("desktop clipboard has no usable item", "items", len(items))
		return nil
	}
	if b.store.Notify(ft, data) {
		logItems(b.log, "desktop clipboard changed", items)
	}
	return nil
}

// Run takes the current desktop clipboard, then mirrors changes in both
// directions until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	b.log.Info("host clipboard bridge started")
	if err := b.Sync(); err != nil {
		b.log.Error("host clipboard read failed", "err", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case items := <-b.writeCh:
				b.write(items)
			}
		}
	}()
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.backend.Watch():
			if err := b.Sync(); err != nil {
				b.log.Error("host clipboard read failed", "err", err)
			}
		}
	}
}

func (b *Bridge) write(items []clip.Item) {
	b.mu.Lock()
	if clip.Equal(items, b.last) {
		b.mu.Unlock()
		return
	}
	b.last = items
	b.mu.Unlock()

	if err := b.backend.Write(items); err != nil {
		b.log.Error("host clipboard write failed", "err", err)
		return
	}
	logItems(b.log, "desktop clipboard updated", items)
}

// toItems converts store content to desktop items: UCS-4 text becomes
// UTF-8 and JPEG is re-encoded as PNG.
func toItems(ft filetype.Type, data []byte) ([]clip.Item, error) {
	if len(data) == 0 {
		return nil, nil
	}
	switch ft {
	case filetype.Text:
		return []clip.Item{{Type: filetype.Text, Data: []byte(ucs.UTF8FromUCS4(data))}}, nil
	case filetype.PNG:
		return []clip.Item{{Type: filetype.PNG, Data: data}}, nil
	case filetype.JPEG:
		out, err := jpegToPNG(data)
		if err != nil {
			return nil, err
		}
		return []clip.Item{{Type: filetype.PNG, Data: out}}, nil
	}
	return nil, fmt.Errorf("unsupported type %s", ft)
}

// fromItems picks the store content for a desktop clipboard, text first.
func fromItems(items []clip.Item) (filetype.Type, []byte, bool) {
	for _, it := range items {
		if it.Type == filetype.Text && len(it.Data) > 0 {
			return filetype.Text, ucs.UCS4FromUTF8(string(it.Data)), true
		}
	}
	for _, it := range items {
		if (it.Type == filetype.PNG || it.Type == filetype.JPEG) && len(it.Data) > 0 {
			return it.Type, it.Data, true
		}
	}
	return filetype.None, nil, false
}

func jpegToPNG(data []byte) ([]byte, error) {
	src, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}
	dst := image.NewNRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
