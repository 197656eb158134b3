// Package agent implements the guest-side clipboard task. It owns the guest
// clipboard on behalf of the host when the host clipboard changes, answers
// other tasks' paste requests from that content, and pulls the guest
// clipboard from its current owner into the host store when the user has
// been active.
package agent

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"go.klb.dev/clipbridge/internal/filetype"
	"go.klb.dev/clipbridge/internal/pollword"
	"go.klb.dev/clipbridge/internal/ucs"
	"go.klb.dev/clipbridge/internal/wimp"
)

const (
	// DefaultCheckDelay is the quiet period after input before the guest
	// clipboard is fetched.
	DefaultCheckDelay = 250 * time.Millisecond
	// DefaultMaxContent caps a single clipboard buffer.
	DefaultMaxContent = 16 << 20
	// DefaultName is the task name registered on the bus.
	DefaultName = "clipbridge"
	// OfferName is the leaf name offered in DataSave messages.
	OfferName = "HostClip"
)

// DefaultScrapPath is where non-text payloads are exchanged with peers.
func DefaultScrapPath() string {
	return filepath.Join(os.TempDir(), "clipbridge-scrap")
}

// Host is the agent's view of the host clipboard store.
type Host interface {
	// Setup registers the notification cell and conversion table. A nil cell
	// disables notification.
	Setup(cell *pollword.Cell, alphabet ucs.Alphabet, t *ucs.Table) error
	Check() (uint32, filetype.Type, error)
	Get(dst []byte) (int, error)
	Set(src []byte, ft filetype.Type) error
}

// Options configures an Agent. Zero values select defaults.
type Options struct {
	Name       string
	Alphabet   ucs.Alphabet
	Locale     ucs.Service
	CheckDelay time.Duration
	// FetchChunk bounds each RAMFetch request. Zero requests everything
	// that is left in one go.
	FetchChunk int
	MaxContent int
	ScrapPath  string
	Fs         afero.Fs
	Now        func() time.Time
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.Alphabet == 0 {
		o.Alphabet = ucs.Latin1
	}
	if o.CheckDelay <= 0 {
		o.CheckDelay = DefaultCheckDelay
	}
	if o.FetchChunk < 0 {
		o.FetchChunk = 0
	}
	if o.MaxContent <= 0 {
		o.MaxContent = DefaultMaxContent
	}
	if o.ScrapPath == "" {
		o.ScrapPath = DefaultScrapPath()
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Stats counts buffer and transfer events since the agent started.
type Stats struct {
	Allocs   int
	Frees    int
	Claims   int
	Pushes   int
	Restarts int
}

// Agent is the guest clipboard task.
type Agent struct {
	port  *wimp.Port
	host  Host
	cell  *pollword.Cell
	table *ucs.Table
	opts  Options
	log   *slog.Logger

	mu      sync.Mutex
	own     bool
	checkAt time.Time
	closed  bool
	quit    bool // Quit received; Run returns

	content *Content
	pushed  *Content

	pasteMsg    wimp.Ref
	checkMsg    wimp.Ref
	fetchMsg    wimp.Ref
	pasteOffset int

	fetchFrom wimp.Task
	fetchReq  int

	stats Stats
}

// New registers the agent on bus, hands the host its notification cell and
// schedules the first clipboard check.
func New(bus *wimp.Bus, host Host, opts Options) (*Agent, error) {
	opts = opts.withDefaults()
	a := &Agent{
		host: host,
		cell: pollword.New(),
		opts: opts,
	}
	a.table = ucs.Resolve(opts.Locale, opts.Alphabet)
	a.port = bus.Register(opts.Name)
	a.log = opts.Logger.With("component", "agent", "task", fmt.Sprintf("%08x", uint32(a.port.Task())))

	if err := host.Setup(a.cell, opts.Alphabet, a.table); err != nil {
		a.port.Close()
		return nil, fmt.Errorf("host setup: %w", err)
	}
	a.checkAt = opts.Now().Add(opts.CheckDelay)
	a.log.Info("agent started", "alphabet", opts.Alphabet, "check_delay", opts.CheckDelay)
	return a, nil
}

// Task returns the agent's task handle.
func (a *Agent) Task() wimp.Task { return a.port.Task() }

// Cell returns the notification cell registered with the host.
func (a *Agent) Cell() *pollword.Cell { return a.cell }

// Tick records user activity. Unless the agent owns the clipboard or a
// check is already pending, a check is scheduled CheckDelay from now.
func (a *Agent) Tick() {
	a.mu.Lock()
	scheduled := a.scheduleLocked()
	a.mu.Unlock()
	if scheduled {
		a.cell.RaiseIfIdle(pollword.Tick)
	}
}

func (a *Agent) scheduleLocked() bool {
	if a.own || a.closed || !a.checkAt.IsZero() {
		return false
	}
	a.checkAt = a.opts.Now().Add(a.opts.CheckDelay)
	return true
}

// Deadline returns the pending check time and whether one is armed.
func (a *Agent) Deadline() (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.own || a.checkAt.IsZero() {
		return time.Time{}, false
	}
	return a.checkAt, true
}

// HandleDeadline asks the current clipboard owner for its content once the
// check deadline has passed.
func (a *Agent) HandleDeadline(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.own || a.closed || a.checkAt.IsZero() || now.Before(a.checkAt) {
		return
	}
	a.checkAt = time.Time{}
	a.freeContentLocked()

	msg := &wimp.Message{Body: wimp.DataRequest{
		Flags:     wimp.FlagClipboard,
		FileTypes: filetype.Requested,
	}}
	ref, err := a.port.Send(wimp.Recorded, msg, wimp.Broadcast)
	if err != nil {
		a.log.Warn("clipboard request failed", "err", err)
		a.checkMsg = 0
		return
	}
	a.checkMsg = ref
	a.log.Debug("clipboard requested", "ref", ref)
}

// HandlePollword consumes the notification cell. A host change replaces the
// held content with the host's and claims the guest clipboard.
func (a *Agent) HandlePollword() {
	sig := a.cell.Take()
	if sig != pollword.HostChanged {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pullFromHostLocked()
}

func (a *Agent) pullFromHostLocked() {
	length, ft, err := a.host.Check()
	if err != nil {
		a.log.Warn("host check failed", "err", err)
		return
	}
	a.freeContentLocked()
	if length == 0 {
		a.log.Debug("host clipboard empty")
		return
	}
	a.pasteMsg, a.checkMsg, a.fetchMsg = 0, 0, 0

	c, err := a.allocLocked(int(length), ft)
	if err != nil {
		a.log.Warn("host content dropped", "type", ft, "err", err)
		return
	}
	n, err := a.host.Get(c.Data[:c.Len])
	if err != nil {
		a.log.Warn("host get failed", "err", err)
		a.content = c
		a.freeContentLocked()
		return
	}
	if ft == filetype.Text {
		if i := bytes.IndexByte(c.Data[:n], 0); i >= 0 {
			n = i
		}
	}
	c.WriteOffset = n
	c.truncate(n)
	a.content = c
	a.log.Debug("host content taken", "type", ft, "len", n)

	if !a.own {
		a.claimLocked()
	}
}

func (a *Agent) claimLocked() {
	a.own = true
	a.checkAt = time.Time{}
	msg := &wimp.Message{Body: wimp.ClaimEntity{Flags: wimp.FlagClipboard}}
	if _, err := a.port.Send(wimp.User, msg, wimp.Broadcast); err != nil {
		a.own = false
		a.log.Warn("clipboard claim failed", "err", err)
		return
	}
	a.stats.Claims++
	a.log.Debug("clipboard claimed")
}

// HandleMessage reacts to one protocol message. Replies that do not match a
// pending transaction are ignored.
func (a *Agent) HandleMessage(msg *wimp.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if msg.Delivery == wimp.Acknowledge {
		a.onBounce(msg)
		return
	}
	switch body := msg.Body.(type) {
	case wimp.ClaimEntity:
		a.onClaimEntity(msg, body)
	case wimp.DataRequest:
		a.onDataRequest(msg, body)
	case wimp.DataSave:
		a.onDataSave(msg, body)
	case wimp.DataSaveAck:
		a.onDataSaveAck(msg, body)
	case wimp.DataLoad:
		a.onDataLoad(msg, body)
	case wimp.DataLoadAck:
		if match(msg.YourRef, a.pasteMsg) {
			a.pasteMsg = 0
			a.log.Debug("paste complete", "task", msg.Sender)
		}
	case wimp.RAMFetch:
		a.onRAMFetch(msg, body)
	case wimp.RAMTransmit:
		a.onRAMTransmit(msg, body)
	case nil, wimp.Quit:
		a.log.Info("quit received")
		if err := a.host.Setup(nil, a.opts.Alphabet, nil); err != nil {
			a.log.Warn("host notification teardown failed", "err", err)
		}
		a.quit = true
	default:
		a.log.Debug("message ignored", "action", msg.Action())
	}
}

func match(ref, token wimp.Ref) bool { return token != 0 && ref == token }

// onBounce handles one of our recorded messages coming back unanswered: the
// peer of that transaction is gone.
func (a *Agent) onBounce(msg *wimp.Message) {
	switch {
	case match(msg.MyRef, a.pasteMsg):
		a.pasteMsg = 0
		a.pasteOffset = 0
		a.log.Warn("paste abandoned, peer gone", "action", msg.Action())
	case match(msg.MyRef, a.fetchMsg), match(msg.MyRef, a.checkMsg):
		a.fetchMsg = 0
		a.checkMsg = 0
		a.freeContentLocked()
		a.log.Warn("fetch abandoned, peer gone", "action", msg.Action())
	default:
		a.log.Debug("bounce ignored", "action", msg.Action(), "ref", msg.MyRef)
	}
}

func (a *Agent) onClaimEntity(msg *wimp.Message, body wimp.ClaimEntity) {
	if msg.Sender == a.port.Task() || body.Flags&wimp.FlagClipboard == 0 {
		return
	}
	if a.own {
		a.own = false
		a.freeContentLocked()
		a.log.Debug("clipboard lost", "task", msg.Sender)
	}
	if a.scheduleLocked() {
		a.cell.RaiseIfIdle(pollword.Tick)
	}
}

func (a *Agent) onDataRequest(msg *wimp.Message, body wimp.DataRequest) {
	if body.Flags&wimp.FlagClipboard == 0 || !a.own || a.content == nil {
		return
	}
	c := a.content
	reply := &wimp.Message{
		YourRef: msg.MyRef,
		Body: wimp.DataSave{Xfer: wimp.Xfer{
			EstSize:  c.Len,
			FileType: c.FileType,
			FileName: OfferName,
		}},
	}
	ref, err := a.port.Send(wimp.User, reply, msg.Sender)
	if err != nil {
		a.log.Warn("paste offer failed", "task", msg.Sender, "err", err)
		return
	}
	a.pasteMsg = ref
	a.pasteOffset = 0
	a.log.Debug("paste offered", "task", msg.Sender, "type", c.FileType, "len", c.Len)
}

func (a *Agent) onDataSaveAck(msg *wimp.Message, body wimp.DataSaveAck) {
	if !match(msg.YourRef, a.pasteMsg) {
		return
	}
	a.pasteMsg = 0
	c := a.content
	if c == nil {
		return
	}
	if err := afero.WriteFile(a.opts.Fs, body.FileName, c.Bytes(), 0o644); err != nil {
		a.log.Warn("paste save failed", "file", body.FileName, "err", err)
		return
	}
	reply := &wimp.Message{
		YourRef: msg.MyRef,
		Body: wimp.DataLoad{Xfer: wimp.Xfer{
			EstSize:  c.Len,
			FileType: c.FileType,
			FileName: body.FileName,
		}},
	}
	ref, err := a.port.Send(wimp.Recorded, reply, msg.Sender)
	if err != nil {
		a.log.Warn("paste load failed", "task", msg.Sender, "err", err)
		return
	}
	a.pasteMsg = ref
}

func (a *Agent) onRAMFetch(msg *wimp.Message, body wimp.RAMFetch) {
	if !match(msg.YourRef, a.pasteMsg) {
		return
	}
	c := a.content
	if c == nil {
		a.pasteMsg = 0
		return
	}
	want := body.Size()
	n := min(want, c.Len-a.pasteOffset)
	if n < 0 {
		n = 0
	}
	copy(body.Buf[:n], c.Data[a.pasteOffset:a.pasteOffset+n])

	d := wimp.User
	if n == want {
		d = wimp.Recorded
	}
	ref, err := a.port.Send(d, &wimp.Message{YourRef: msg.MyRef, Body: wimp.RAMTransmit{Size: n}}, msg.Sender)
	if err != nil {
		a.pasteMsg = 0
		a.log.Warn("paste transmit failed", "task", msg.Sender, "err", err)
		return
	}
	a.pasteOffset += n
	if d == wimp.Recorded {
		a.pasteMsg = ref
		return
	}
	a.pasteMsg = 0
	a.log.Debug("paste complete", "task", msg.Sender, "len", a.pasteOffset)
}

func (a *Agent) onDataSave(msg *wimp.Message, body wimp.DataSave) {
	if !match(msg.YourRef, a.checkMsg) {
		return
	}
	a.checkMsg = 0
	if !filetype.Accepted(body.FileType) || body.EstSize <= 0 {
		a.log.Debug("offer declined", "type", body.FileType, "est_size", body.EstSize)
		return
	}
	a.freeContentLocked()
	c, err := a.allocLocked(body.EstSize, body.FileType)
	if err != nil {
		a.log.Warn("guest content dropped", "type", body.FileType, "err", err)
		return
	}
	a.content = c

	if body.FileType == filetype.Text {
		a.fetchFrom = msg.Sender
		a.requestChunkLocked(msg.MyRef)
		return
	}

	reply := &wimp.Message{
		YourRef: msg.MyRef,
		Body: wimp.DataSaveAck{Xfer: wimp.Xfer{
			EstSize:  c.Len,
			FileType: c.FileType,
			FileName: a.opts.ScrapPath,
		}},
	}
	ref, err := a.port.Send(wimp.Recorded, reply, msg.Sender)
	if err != nil {
		a.log.Warn("save ack failed", "task", msg.Sender, "err", err)
		a.freeContentLocked()
		return
	}
	a.checkMsg = ref
}

// requestChunkLocked asks the owner for the next window of the receive
// buffer, one byte beyond the estimate so a short reply proves completion.
func (a *Agent) requestChunkLocked(yourRef wimp.Ref) {
	c := a.content
	req := c.Len + 1 - c.WriteOffset
	if a.opts.FetchChunk > 0 && a.opts.FetchChunk < req {
		req = a.opts.FetchChunk
	}
	msg := &wimp.Message{
		YourRef: yourRef,
		Body:    wimp.RAMFetch{Buf: c.Data[c.WriteOffset : c.WriteOffset+req]},
	}
	ref, err := a.port.Send(wimp.Recorded, msg, a.fetchFrom)
	if err != nil {
		a.log.Warn("fetch failed", "task", a.fetchFrom, "err", err)
		a.fetchMsg = 0
		a.freeContentLocked()
		return
	}
	a.fetchMsg = ref
	a.fetchReq = req
}

func (a *Agent) onRAMTransmit(msg *wimp.Message, body wimp.RAMTransmit) {
	if !match(msg.YourRef, a.fetchMsg) {
		if match(msg.YourRef, a.pasteMsg) {
			a.pasteMsg = 0
		}
		return
	}
	a.fetchMsg = 0
	c := a.content
	if c == nil {
		return
	}
	n := min(max(body.Size, 0), a.fetchReq)
	off := c.WriteOffset + n
	switch {
	case off > c.Len:
		a.stats.Restarts++
		a.log.Debug("size estimate exceeded, restarting fetch", "est_size", c.Len, "received", off)
		c.WriteOffset = 0
		a.requestChunkLocked(msg.MyRef)
	case n < a.fetchReq:
		c.WriteOffset = off
		c.truncate(off)
		a.log.Debug("fetch complete", "task", msg.Sender, "len", off)
		a.pushLocked()
	default:
		c.WriteOffset = off
		a.requestChunkLocked(msg.MyRef)
	}
}

func (a *Agent) onDataLoad(msg *wimp.Message, body wimp.DataLoad) {
	if !match(msg.YourRef, a.checkMsg) {
		return
	}
	a.checkMsg = 0
	c := a.content
	if c == nil {
		return
	}
	data, err := afero.ReadFile(a.opts.Fs, body.FileName)
	if err != nil {
		a.log.Warn("scrap load failed", "file", body.FileName, "err", err)
		a.freeContentLocked()
		return
	}
	if len(data) > a.opts.MaxContent {
		a.log.Warn("scrap too large", "file", body.FileName, "len", len(data), "max", a.opts.MaxContent)
		a.freeContentLocked()
		return
	}
	if body.FileName == a.opts.ScrapPath {
		if err := a.opts.Fs.Remove(body.FileName); err != nil {
			a.log.Debug("scrap remove failed", "file", body.FileName, "err", err)
		}
	}
	c.Data = append(data, 0)
	c.Len = len(data)
	c.WriteOffset = c.Len
	if c.FileType != body.FileType && filetype.Accepted(body.FileType) {
		c.FileType = body.FileType
	}

	reply := &wimp.Message{
		YourRef: msg.MyRef,
		Body: wimp.DataLoadAck{Xfer: wimp.Xfer{
			EstSize:  c.Len,
			FileType: c.FileType,
			FileName: body.FileName,
		}},
	}
	if _, err := a.port.Send(wimp.User, reply, msg.Sender); err != nil {
		a.log.Warn("load ack failed", "task", msg.Sender, "err", err)
	}
	a.pushLocked()
}

// pushLocked hands the fetched content to the host store unless it matches
// what was pushed last time.
func (a *Agent) pushLocked() {
	c := a.content
	if c == nil {
		return
	}
	if c.Len == 0 {
		a.log.Debug("fetched content empty, not pushed")
		a.freeContentLocked()
		return
	}
	if p := a.pushed; p != nil && p.FileType == c.FileType && bytes.Equal(p.Bytes(), c.Bytes()) {
		a.log.Debug("fetched content unchanged")
		a.freeContentLocked()
		return
	}
	if err := a.host.Set(c.Bytes(), c.FileType); err != nil {
		a.log.Warn("host set failed", "type", c.FileType, "len", c.Len, "err", err)
		a.freeContentLocked()
		return
	}
	a.freePushedLocked()
	a.pushed, a.content = c, nil
	a.stats.Pushes++
	a.log.Info("guest clipboard pushed to host", "type", c.FileType, "len", c.Len)
}

func (a *Agent) allocLocked(size int, ft filetype.Type) (*Content, error) {
	c, err := newContent(size, ft, a.opts.MaxContent)
	if err != nil {
		return nil, err
	}
	a.stats.Allocs++
	return c, nil
}

func (a *Agent) freeContentLocked() {
	if a.content == nil {
		return
	}
	a.content = nil
	a.fetchMsg = 0
	a.stats.Frees++
}

func (a *Agent) freePushedLocked() {
	if a.pushed == nil {
		return
	}
	a.pushed = nil
	a.stats.Frees++
}

// Close disables host notification, leaves the bus and releases both
// buffers. It is safe to call more than once.
func (a *Agent) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	err := a.host.Setup(nil, a.opts.Alphabet, nil)
	a.port.Close()
	a.freeContentLocked()
	a.freePushedLocked()
	a.own = false
	a.log.Info("agent stopped")
	if err != nil {
		return fmt.Errorf("host teardown: %w", err)
	}
	return nil
}
