package control

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"go.klb.dev/clipbridge/internal/agent"
	"go.klb.dev/clipbridge/internal/filetype"
	"go.klb.dev/clipbridge/internal/hostclip"
	"go.klb.dev/clipbridge/internal/ucs"
	"go.klb.dev/clipbridge/internal/wimp"
)

type fakeAgent struct {
	mu    sync.Mutex
	ticks int
	snap  agent.Snapshot
}

func (f *fakeAgent) Snapshot() agent.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeAgent) Tick() {
	f.mu.Lock()
	f.ticks++
	f.mu.Unlock()
}

type fixture struct {
	store  *hostclip.Store
	agent  *fakeAgent
	client *Client
}

func newFixture(t *testing.T, token string, dialToken string, opts ...hostclip.Option) *fixture {
	t.Helper()
	store := hostclip.New(opts...)
	fa := &fakeAgent{snap: agent.Snapshot{
		Task:    0x101,
		State:   agent.Owned,
		Owned:   true,
		Content: &agent.Buffer{FileType: filetype.Text, Len: 5},
		Stats:   agent.Stats{Claims: 2},
	}}
	bus := wimp.New()
	bus.Register("clipbridge")
	svc := New(store, fa, bus, "memory", token)

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(svc.ServerOptions()...)
	Register(gs, svc)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	dopts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	}
	if dialToken != "" {
		dopts = append(dopts, grpc.WithPerRPCCredentials(tokenCreds(dialToken)))
	}
	conn, err := grpc.NewClient("passthrough:///bufnet", dopts...)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &fixture{store: store, agent: fa, client: NewClient(conn)}
}

func TestCopyPasteText(t *testing.T) {
	f := newFixture(t, "", "")
	ctx := context.Background()

	ft, data, err := f.client.Paste(ctx)
	require.NoError(t, err)
	assert.Equal(t, filetype.None, ft)
	assert.Nil(t, data)

	require.NoError(t, f.client.Copy(ctx, filetype.Text, []byte("grüß")))
	gotType, raw := f.store.Content()
	assert.Equal(t, filetype.Text, gotType)
	assert.Equal(t, "grüß", ucs.UTF8FromUCS4(raw))

	ft, data, err = f.client.Paste(ctx)
	require.NoError(t, err)
	assert.Equal(t, filetype.Text, ft)
	assert.Equal(t, "grüß", string(data))
}

func TestCopyPasteBinary(t *testing.T) {
	f := newFixture(t, "", "")
	ctx := context.Background()
	png := []byte{0x89, 'P', 'N', 'G', 0, 0xff}
	require.NoError(t, f.client.Copy(ctx, filetype.PNG, png))

	ft, data, err := f.client.Paste(ctx)
	require.NoError(t, err)
	assert.Equal(t, filetype.PNG, ft)
	assert.Equal(t, png, data)
}

func TestCopyRejected(t *testing.T) {
	f := newFixture(t, "", "", hostclip.WithMaxLen(8))
	ctx := context.Background()

	err := f.client.Copy(ctx, filetype.Type(0xaff), []byte{1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = f.client.Copy(ctx, filetype.Text, []byte("abc"))
	assert.Equal(t, codes.ResourceExhausted, status.Code(err), "12 bytes of codepoints")

	length, _ := f.store.Check()
	assert.Zero(t, length)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, "", "")
	require.NoError(t, f.store.Set([]byte("AB"), filetype.Text))

	st, err := f.client.Status(context.Background())
	require.NoError(t, err)
	m := st.AsMap()
	assert.Equal(t, "memory", m["backend"])

	host := m["host"].(map[string]any)
	assert.Equal(t, float64(12), host["length"])
	assert.Equal(t, "text", host["type"])
	assert.Equal(t, false, host["notifying"])

	ag := m["agent"].(map[string]any)
	assert.Equal(t, "owned", ag["state"])
	assert.Equal(t, true, ag["owned"])
	assert.Equal(t, float64(5), ag["content"].(map[string]any)["length"])
	assert.Equal(t, float64(2), ag["stats"].(map[string]any)["claims"])
	assert.NotContains(t, ag, "pushed")

	tasks := m["tasks"].([]any)
	require.Len(t, tasks, 1)
	assert.Equal(t, "clipbridge", tasks[0].(map[string]any)["name"])
}

func TestTick(t *testing.T) {
	f := newFixture(t, "", "")
	require.NoError(t, f.client.Tick(context.Background()))
	require.NoError(t, f.client.Tick(context.Background()))
	f.agent.mu.Lock()
	defer f.agent.mu.Unlock()
	assert.Equal(t, 2, f.agent.ticks)
}

func TestInputFilter(t *testing.T) {
	f := newFixture(t, "", "")
	ctx := context.Background()
	require.NoError(t, f.client.Key(ctx, 0x21, true))
	require.NoError(t, f.client.Key(ctx, agent.KeyLeftCtrl, true))
	require.NoError(t, f.client.Key(ctx, 0x21, true))
	require.NoError(t, f.client.Mouse(ctx, 1))

	err := f.client.input(ctx, map[string]any{"kind": "joystick"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	f.agent.mu.Lock()
	defer f.agent.mu.Unlock()
	assert.Equal(t, 2, f.agent.ticks)
}

func TestAuth(t *testing.T) {
	f := newFixture(t, "s3cret", "")
	err := f.client.Tick(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	f = newFixture(t, "s3cret", "wrong")
	err = f.client.Tick(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	f = newFixture(t, "s3cret", "s3cret")
	assert.NoError(t, f.client.Tick(context.Background()))
}
