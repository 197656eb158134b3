package wimp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipbridge/internal/filetype"
)

func recv(t *testing.T, p *Port) *Message {
	t.Helper()
	select {
	case m := <-p.Inbox():
		return m
	default:
		t.Fatalf("no message for %s", p.Name())
		return nil
	}
}

func empty(t *testing.T, p *Port) {
	t.Helper()
	select {
	case m := <-p.Inbox():
		t.Fatalf("unexpected %s for %s", m.Action(), p.Name())
	default:
	}
}

func TestBroadcastSkipsSender(t *testing.T) {
	b := New()
	a, c, d := b.Register("a"), b.Register("c"), b.Register("d")

	msg := &Message{Body: ClaimEntity{Flags: FlagClipboard}}
	ref, err := a.Send(User, msg, Broadcast)
	require.NoError(t, err)
	assert.NotZero(t, ref)
	assert.Equal(t, ref, msg.MyRef)

	for _, p := range []*Port{c, d} {
		m := recv(t, p)
		assert.Equal(t, a.Task(), m.Sender)
		assert.Equal(t, ref, m.MyRef)
		assert.Equal(t, User, m.Delivery)
		assert.Equal(t, ActionClaimEntity, m.Action())
	}
	empty(t, a)
}

func TestTargetedSend(t *testing.T) {
	b := New()
	a, c := b.Register("a"), b.Register("c")

	ref1, err := a.Send(Recorded, &Message{Body: DataRequest{Flags: FlagClipboard, FileTypes: filetype.Requested}}, c.Task())
	require.NoError(t, err)
	m := recv(t, c)
	assert.Equal(t, Recorded, m.Delivery)

	ref2, err := c.Send(User, &Message{YourRef: m.MyRef, Body: DataSave{Xfer{EstSize: 3, FileType: filetype.Text}}}, m.Sender)
	require.NoError(t, err)
	assert.NotEqual(t, ref1, ref2)
	reply := recv(t, a)
	assert.Equal(t, ref1, reply.YourRef)
	assert.Equal(t, 3, reply.Body.(DataSave).EstSize)
}

func TestSendErrors(t *testing.T) {
	b := New()
	a := b.Register("a")
	_, err := a.Send(User, &Message{Body: Quit{}}, Task(42))
	assert.ErrorIs(t, err, ErrNoTask)

	c := b.Register("c")
	for i := 0; i < inboxSize; i++ {
		_, err := a.Send(User, &Message{Body: Quit{}}, c.Task())
		require.NoError(t, err)
	}
	_, err = a.Send(User, &Message{Body: Quit{}}, c.Task())
	assert.ErrorIs(t, err, ErrInboxFull)

	_, err = a.Send(User, &Message{Body: Quit{}}, Broadcast)
	assert.NoError(t, err, "full broadcast recipients are skipped")

	a.Close()
	a.Close()
	_, err = a.Send(User, &Message{Body: Quit{}}, Broadcast)
	assert.ErrorIs(t, err, ErrClosed)
	_, ok := <-a.Inbox()
	assert.False(t, ok)
}

func TestTasks(t *testing.T) {
	b := New()
	a := b.Register("agent")
	b.Register("editor")
	tasks := b.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "agent", tasks[0].Name)
	a.Close()
	assert.Len(t, b.Tasks(), 1)
}

func TestRAMFetchSize(t *testing.T) {
	f := RAMFetch{Buf: make([]byte, 9)}
	assert.Equal(t, 9, f.Size())
	assert.Equal(t, "RAMFetch", f.Action().String())
	assert.Equal(t, ActionQuit, (&Message{}).Action())
}

func TestCloseBouncesRecorded(t *testing.T) {
	b := New()
	a := b.Register("agent")
	c := b.Register("editor")

	ref, err := a.Send(Recorded, &Message{Body: RAMFetch{Buf: make([]byte, 4)}}, c.Task())
	require.NoError(t, err)
	_, err = a.Send(User, &Message{Body: RAMTransmit{Size: 1}}, c.Task())
	require.NoError(t, err)
	_, err = a.Send(Recorded, &Message{Body: DataRequest{Flags: FlagClipboard}}, Broadcast)
	require.NoError(t, err)

	c.Close()
	m := recv(t, a)
	assert.Equal(t, Acknowledge, m.Delivery)
	assert.Equal(t, ref, m.MyRef)
	assert.Equal(t, a.Task(), m.Sender)
	assert.Equal(t, ActionRAMFetch, m.Action())
	select {
	case m := <-a.Inbox():
		t.Fatalf("unexpected bounce of %s", m.Action())
	default:
	}
}
