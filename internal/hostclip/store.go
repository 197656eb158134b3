// Package hostclip implements the host side of the clipboard bridge: a cache
// of the last known host clipboard payload, the narrow command interface the
// guest task calls into, and change notification toward the guest.
//
// Text is cached as little-endian UCS-4 so that the host application never
// has to deal with guest alphabets. Conversion to and from guest bytes uses
// the table the guest supplies at setup.
package hostclip

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.klb.dev/clipbridge/internal/filetype"
	"go.klb.dev/clipbridge/internal/pollword"
	"go.klb.dev/clipbridge/internal/ucs"
)

// DefaultMaxLen caps the size of a cached payload.
const DefaultMaxLen = 16 * 1024 * 1024

// ErrTooLarge is returned when a payload exceeds the store's size cap.
var ErrTooLarge = errors.New("clipboard payload too large")

// Notifier receives change signals for the guest. *pollword.Cell satisfies it.
type Notifier interface {
	Raise(pollword.Signal) bool
}

// Store is the host clipboard cache.
type Store struct {
	mu       sync.Mutex
	notifier Notifier
	alphabet ucs.Alphabet
	table    *ucs.Table
	data     []byte
	fileType filetype.Type

	onSet  func(filetype.Type, []byte)
	maxLen int
	log    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithOnSet registers the callback invoked whenever the guest sets the host
// clipboard. It runs synchronously on the caller's goroutine, outside the
// store lock, and receives a private copy of the cached bytes.
func WithOnSet(f func(filetype.Type, []byte)) Option {
	return func(s *Store) { s.onSet = f }
}

// WithMaxLen overrides DefaultMaxLen.
func WithMaxLen(n int) Option {
	return func(s *Store) { s.maxLen = n }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns an empty store using the built-in Latin1 table until Setup.
func New(opts ...Option) *Store {
	s := &Store{
		alphabet: ucs.Latin1,
		table:    ucs.Builtin(ucs.Latin1),
		maxLen:   DefaultMaxLen,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("component", "hostclip")
	return s
}

// Setup records where change signals go and which conversion table the
// guest uses. A nil notifier disables notification. A nil table keeps the
// current one.
func (s *Store) Setup(n Notifier, alphabet ucs.Alphabet, t *ucs.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
	s.alphabet = alphabet
	if t != nil {
		s.table = t.Clone()
	}
	s.log.Debug("setup", "notify", n != nil, "alphabet", alphabet)
}

// Check reports the size a guest needs to allocate for the cached content
// and its type. Text is reported as 4 bytes per codepoint plus one
// terminator slot. An empty cache reports (0, 0).
func (s *Store) Check() (uint32, filetype.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return 0, filetype.None
	}
	if s.fileType == filetype.Text {
		return uint32(len(s.data) + 4), s.fileType
	}
	return uint32(len(s.data)), s.fileType
}

// Get copies up to len(dst) bytes of the cached content into dst and returns
// the count. Text is converted to guest bytes first and includes its
// terminator; a short dst truncates silently.
func (s *Store) Get(dst []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return 0
	}
	if s.fileType == filetype.Text {
		return copy(dst, ucs.Encode(s.table, ucs.UnpackUCS4(s.data)))
	}
	return copy(dst, s.data)
}

// Set replaces the cache with guest-originated content and hands it to the
// host application. Text is decoded to UCS-4 before caching; the size limit
// applies to the cached form, as it does for Notify.
func (s *Store) Set(src []byte, ft filetype.Type) error {
	s.mu.Lock()
	var data []byte
	if ft == filetype.Text {
		data = ucs.PackUCS4(ucs.Decode(s.table, src))
	} else if len(src) <= s.maxLen {
		data = bytes.Clone(src)
	}
	if len(data) > s.maxLen || (ft != filetype.Text && len(src) > s.maxLen) {
		s.mu.Unlock()
		return fmt.Errorf("set %d bytes: %w", len(src), ErrTooLarge)
	}
	if len(data) == 0 {
		data = nil
	}
	s.data = data
	s.fileType = ft
	onSet := s.onSet
	s.mu.Unlock()

	s.log.Debug("guest set host clipboard", "type", ft, "bytes", len(data))
	if onSet != nil {
		onSet(ft, bytes.Clone(data))
	}
	return nil
}

// Notify is called by the host application when the real host clipboard
// changes. Text data must be UCS-4. Content identical to the cache is
// ignored; otherwise the cache is replaced and the guest is signalled. It
// reports whether the cache changed.
func (s *Store) Notify(ft filetype.Type, data []byte) bool {
	if len(data) > s.maxLen {
		s.log.Warn("host clipboard too large, ignoring", "bytes", len(data), "max", s.maxLen)
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(data) == 0 {
		if s.data == nil {
			return false
		}
		s.data = nil
		s.fileType = filetype.None
	} else {
		if s.data != nil && ft == s.fileType && bytes.Equal(data, s.data) {
			return false
		}
		s.data = bytes.Clone(data)
		s.fileType = ft
	}
	if s.notifier != nil {
		s.notifier.Raise(pollword.HostChanged)
	}
	s.log.Debug("host clipboard changed", "type", ft, "bytes", len(data), "signalled", s.notifier != nil)
	return true
}

// MaxLen returns the largest payload the store accepts.
func (s *Store) MaxLen() int { return s.maxLen }

// Content returns a copy of the cached payload in its host form.
func (s *Store) Content() (filetype.Type, []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileType, bytes.Clone(s.data)
}

// Snapshot describes the store for status reporting.
type Snapshot struct {
	FileType  filetype.Type
	Length    uint32
	Bytes     int
	Alphabet  ucs.Alphabet
	Notifying bool
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	length, ft := s.Check()
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		FileType:  ft,
		Length:    length,
		Bytes:     len(s.data),
		Alphabet:  s.alphabet,
		Notifying: s.notifier != nil,
	}
}

// Teardown drops the cache and disables notification.
func (s *Store) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = nil
	s.data = nil
	s.fileType = filetype.None
}
