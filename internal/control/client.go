package control

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"go.klb.dev/clipbridge/internal/filetype"
	"go.klb.dev/clipbridge/internal/ipc"
)

// Client calls the control service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial returns a connection to the bridge listening on the IPC socket at
// path. No transport security: the socket is local and owner-restricted by
// the OS. token may be empty.
func Dial(path, token string) (*grpc.ClientConn, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return ipc.Dial(ctx, path)
		}),
	}
	if token != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(tokenCreds(token)))
	}
	return grpc.NewClient("passthrough:///clipbridge", opts...)
}

type tokenCreds string

func (t tokenCreds) GetRequestMetadata(_ context.Context, _ ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(t)}, nil
}

func (tokenCreds) RequireTransportSecurity() bool { return false }

// Status returns the bridge status document.
func (c *Client) Status(ctx context.Context) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("Status"), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Copy injects data as a host clipboard change. Text is UTF-8.
func (c *Client) Copy(ctx context.Context, ft filetype.Type, data []byte) error {
	fields := map[string]any{"type": ft.String()}
	if ft == filetype.Text {
		fields["text"] = string(data)
	} else {
		fields["data"] = base64.StdEncoding.EncodeToString(data)
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return fmt.Errorf("copy request: %w", err)
	}
	return c.cc.Invoke(ctx, fullMethod("Copy"), req, new(emptypb.Empty))
}

// Paste returns the host cache. Text is returned as UTF-8.
func (c *Client) Paste(ctx context.Context) (filetype.Type, []byte, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("Paste"), &emptypb.Empty{}, out); err != nil {
		return filetype.None, nil, err
	}
	f := out.GetFields()
	if f["length"].GetNumberValue() == 0 {
		return filetype.None, nil, nil
	}
	ft, err := filetype.Parse(f["type"].GetStringValue())
	if err != nil {
		return filetype.None, nil, fmt.Errorf("paste response: %w", err)
	}
	if ft == filetype.Text {
		return ft, []byte(f["text"].GetStringValue()), nil
	}
	data, err := base64.StdEncoding.DecodeString(f["data"].GetStringValue())
	if err != nil {
		return filetype.None, nil, fmt.Errorf("paste response: %w", err)
	}
	return ft, data, nil
}

// Tick simulates guest input activity.
func (c *Client) Tick(ctx context.Context) error {
	return c.cc.Invoke(ctx, fullMethod("Tick"), &emptypb.Empty{}, new(emptypb.Empty))
}

// Key sends a key transition.
func (c *Client) Key(ctx context.Context, code int, down bool) error {
	return c.input(ctx, map[string]any{"kind": "key", "code": code, "down": down})
}

// Mouse sends the current mouse button state.
func (c *Client) Mouse(ctx context.Context, buttons uint32) error {
	return c.input(ctx, map[string]any{"kind": "mouse", "buttons": buttons})
}

func (c *Client) input(ctx context.Context, fields map[string]any) error {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return fmt.Errorf("input request: %w", err)
	}
	return c.cc.Invoke(ctx, fullMethod("Input"), req, new(emptypb.Empty))
}
