package wimp

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

const inboxSize = 64

var (
	// ErrNoTask is returned when the target task is not registered.
	ErrNoTask = errors.New("no such task")
	// ErrInboxFull is returned when a targeted message cannot be queued.
	ErrInboxFull = errors.New("task inbox full")
	// ErrClosed is returned for sends from a closed port.
	ErrClosed = errors.New("port closed")
)

// Bus routes messages between registered tasks. It is transport-agnostic:
// every task gets a Port with a buffered inbox, and sends never block.
type Bus struct {
	mu       sync.Mutex
	ports    map[Task]*Port
	nextTask Task
	nextRef  Ref
	log      *slog.Logger
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{
		ports:    make(map[Task]*Port),
		nextTask: 0x100,
		log:      slog.Default().With("component", "wimp"),
	}
}

// Port is a task's connection to the bus.
type Port struct {
	bus    *Bus
	task   Task
	name   string
	inbox  chan *Message
	closed bool
}

// Register adds a task and returns its port.
func (b *Bus) Register(name string) *Port {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextTask++
	p := &Port{
		bus:   b,
		task:  b.nextTask,
		name:  name,
		inbox: make(chan *Message, inboxSize),
	}
	b.ports[p.task] = p
	b.log.Debug("task registered", "task", fmt.Sprintf("%08x", uint32(p.task)), "name", name, "total", len(b.ports))
	return p
}

// TaskInfo describes a registered task.
type TaskInfo struct {
	Task Task
	Name string
}

// Tasks returns a snapshot of registered tasks ordered by handle.
func (b *Bus) Tasks() []TaskInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]TaskInfo, 0, len(b.ports))
	for _, p := range b.ports {
		out = append(out, TaskInfo{Task: p.task, Name: p.name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Task < out[j].Task })
	return out
}

// Task returns the port's task handle.
func (p *Port) Task() Task { return p.task }

// Name returns the name the task registered with.
func (p *Port) Name() string { return p.name }

// Inbox delivers incoming messages. It is closed by Close.
func (p *Port) Inbox() <-chan *Message { return p.inbox }

// Send stamps msg with the sender, delivery class and a fresh MyRef, and
// queues a copy for the target. Broadcast sends go to every other task;
// broadcast recipients with a full inbox are skipped. The returned Ref is
// the MyRef recipients see.
func (p *Port) Send(d Delivery, msg *Message, to Task) (Ref, error) {
	b := p.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	b.nextRef++
	if b.nextRef == 0 {
		b.nextRef++
	}
	ref := b.nextRef

	out := *msg
	out.Delivery = d
	out.Sender = p.task
	out.MyRef = ref
	msg.MyRef = ref

	if to != Broadcast {
		dst, ok := b.ports[to]
		if !ok {
			return 0, fmt.Errorf("send %s to %08x: %w", out.Action(), uint32(to), ErrNoTask)
		}
		select {
		case dst.inbox <- &out:
		default:
			return 0, fmt.Errorf("send %s to %08x: %w", out.Action(), uint32(to), ErrInboxFull)
		}
		return ref, nil
	}

	out.broadcast = true
	for id, dst := range b.ports {
		if id == p.task {
			continue
		}
		m := out
		select {
		case dst.inbox <- &m:
		default:
			b.log.Warn("inbox full, dropping broadcast", "task", dst.name, "action", out.Action())
		}
	}
	return ref, nil
}

// Close unregisters the task and closes its inbox. Targeted recorded
// messages still queued for the task go back to their senders with
// Acknowledge delivery. It is idempotent.
func (p *Port) Close() {
	b := p.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	delete(b.ports, p.task)
	p.bounceLocked()
	close(p.inbox)
	b.log.Debug("task closed", "name", p.name, "total", len(b.ports))
}

// bounceLocked drains the inbox and returns every unanswered targeted
// recorded message to its sender.
func (p *Port) bounceLocked() {
	for {
		select {
		case m := <-p.inbox:
			if m.Delivery != Recorded || m.broadcast {
				continue
			}
			src, ok := p.bus.ports[m.Sender]
			if !ok {
				continue
			}
			back := *m
			back.Delivery = Acknowledge
			select {
			case src.inbox <- &back:
			default:
				p.bus.log.Warn("inbox full, dropping bounce", "task", src.name, "action", m.Action())
			}
		default:
			return
		}
	}
}
