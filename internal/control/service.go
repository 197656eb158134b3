package control

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"go.klb.dev/clipbridge/internal/agent"
	"go.klb.dev/clipbridge/internal/filetype"
	"go.klb.dev/clipbridge/internal/hostclip"
	"go.klb.dev/clipbridge/internal/ucs"
	"go.klb.dev/clipbridge/internal/wimp"
)

// Agent is the part of the guest agent the service reports on and drives.
type Agent interface {
	Snapshot() agent.Snapshot
	Tick()
}

// Service implements Server for one running bridge.
type Service struct {
	store   *hostclip.Store
	agent   Agent
	input   *agent.InputFilter
	bus     *wimp.Bus
	backend string
	token   string // empty = no auth
	started time.Time
}

// New returns a Service. token may be empty to disable auth.
func New(store *hostclip.Store, a Agent, bus *wimp.Bus, backend, token string) *Service {
	return &Service{
		store:   store,
		agent:   a,
		input:   agent.NewInputFilter(a),
		bus:     bus,
		backend: backend,
		token:   token,
		started: time.Now(),
	}
}

// ServerOptions returns the grpc.Server options the service needs.
func (s *Service) ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{grpc.UnaryInterceptor(s.authInterceptor)}
}

func (s *Service) Status(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	host := s.store.Snapshot()
	snap := s.agent.Snapshot()

	tasks := []any{}
	for _, t := range s.bus.Tasks() {
		tasks = append(tasks, map[string]any{"task": int64(t.Task), "name": t.Name})
	}

	out, err := structpb.NewStruct(map[string]any{
		"backend": s.backend,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"host": map[string]any{
			"type":      host.FileType.String(),
			"length":    int64(host.Length),
			"alphabet":  host.Alphabet.String(),
			"notifying": host.Notifying,
		},
		"agent": agentFields(snap),
		"tasks": tasks,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "status: %v", err)
	}
	return out, nil
}

func agentFields(snap agent.Snapshot) map[string]any {
	m := map[string]any{
		"task":         int64(snap.Task),
		"state":        snap.State.String(),
		"owned":        snap.Owned,
		"paste_ref":    int64(snap.PasteMsg),
		"check_ref":    int64(snap.CheckMsg),
		"fetch_ref":    int64(snap.FetchMsg),
		"paste_offset": int64(snap.PasteOffset),
		"stats": map[string]any{
			"allocs":   int64(snap.Stats.Allocs),
			"frees":    int64(snap.Stats.Frees),
			"claims":   int64(snap.Stats.Claims),
			"pushes":   int64(snap.Stats.Pushes),
			"restarts": int64(snap.Stats.Restarts),
		},
	}
	if !snap.CheckAt.IsZero() {
		m["check_at"] = snap.CheckAt.UTC().Format(time.RFC3339Nano)
	}
	if c := snap.Content; c != nil {
		m["content"] = map[string]any{"type": c.FileType.String(), "length": int64(c.Len), "offset": int64(c.WriteOffset)}
	}
	if p := snap.Pushed; p != nil {
		m["pushed"] = map[string]any{"type": p.FileType.String(), "length": int64(p.Len)}
	}
	return m
}

// Copy injects content as a host clipboard change. The request carries
// "type" (text, png, jpeg or a hex file type) and either "text" or
// base64 "data".
func (s *Service) Copy(_ context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	f := req.GetFields()
	ft := filetype.Text
	if v := f["type"].GetStringValue(); v != "" {
		t, err := filetype.Parse(v)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "type: %v", err)
		}
		ft = t
	}
	if !filetype.Accepted(ft) {
		return nil, status.Errorf(codes.InvalidArgument, "unsupported type %s", ft)
	}

	var data []byte
	if ft == filetype.Text {
		data = ucs.UCS4FromUTF8(f["text"].GetStringValue())
	} else {
		b, err := base64.StdEncoding.DecodeString(f["data"].GetStringValue())
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "data: %v", err)
		}
		data = b
	}
	if limit := s.store.MaxLen(); len(data) > limit {
		return nil, status.Errorf(codes.ResourceExhausted, "%d bytes exceeds %d", len(data), limit)
	}

	changed := s.store.Notify(ft, data)
	slog.Info("host clipboard injected", "type", ft, "len", len(data), "changed", changed)
	return &emptypb.Empty{}, nil
}

// Paste returns the host cache: "type", "mime", "length" and either "text" (UTF-8)
// or base64 "data".
func (s *Service) Paste(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ft, data := s.store.Content()
	fields := map[string]any{
		"type":   ft.String(),
		"mime":   ft.MIME(),
		"length": int64(len(data)),
	}
	switch {
	case len(data) == 0:
	case ft == filetype.Text:
		fields["text"] = ucs.UTF8FromUCS4(data)
	default:
		fields["data"] = base64.StdEncoding.EncodeToString(data)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "paste: %v", err)
	}
	return out, nil
}

// Tick simulates guest input activity.
func (s *Service) Tick(_ context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.agent.Tick()
	return &emptypb.Empty{}, nil
}

// Input feeds a raw guest input event through the input filter. The
// request is {"kind": "key", "code": n, "down": bool} or
// {"kind": "mouse", "buttons": n}.
func (s *Service) Input(_ context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	f := req.GetFields()
	switch kind := f["kind"].GetStringValue(); kind {
	case "key":
		s.input.Key(int(f["code"].GetNumberValue()), f["down"].GetBoolValue())
	case "mouse":
		s.input.Mouse(uint32(f["buttons"].GetNumberValue()))
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unknown input kind %q", kind)
	}
	return &emptypb.Empty{}, nil
}

func (s *Service) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if err := s.auth(ctx); err != nil {
		slog.Warn("control request rejected", "method", info.FullMethod, "err", err)
		return nil, err
	}
	return handler(ctx, req)
}

// auth validates the bearer token in ctx metadata. Skipped when s.token is empty.
func (s *Service) auth(ctx context.Context) error {
	if s.token == "" {
		return nil
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return status.Error(codes.Unauthenticated, "missing authorization header")
	}
	const prefix = "Bearer "
	tok := vals[0]
	if len(tok) > len(prefix) && tok[:len(prefix)] == prefix {
		tok = tok[len(prefix):]
	}
	if tok != s.token {
		return status.Error(codes.Unauthenticated, "invalid token")
	}
	return nil
}
