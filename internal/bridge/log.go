package bridge

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"go.klb.dev/clipbridge/internal/clip"
	"go.klb.dev/clipbridge/internal/filetype"
)

const previewLen = 120

// logItems logs a clipboard event at INFO (types) and DEBUG (text preview up
// to previewLen runes, or byte size for images).
func logItems(log *slog.Logger, event string, items []clip.Item) {
	types := make([]string, len(items))
	for i, it := range items {
		types[i] = it.Type.String()
	}
	log.Info(event, "types", types)

	if !log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, it := range items {
		if it.Type == filetype.Text {
			log.Debug("clipboard item", "type", it.Type, "preview", preview(it.Data))
		} else {
			log.Debug("clipboard item", "type", it.Type, "size_bytes", len(it.Data))
		}
	}
}

func preview(b []byte) string {
	if utf8.RuneCount(b) <= previewLen {
		return string(b)
	}
	n := 0
	for i := range string(b) {
		if n == previewLen {
			return string(b[:i]) + "…"
		}
		n++
	}
	return string(b)
}
