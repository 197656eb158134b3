// Package ipc provides the local channel the clipbridge CLI tools (copy,
// paste, status, tick) use to reach a running bridge.
//
// The channel is plain gRPC served over a Unix domain socket, or a named pipe
// on Windows. The bridge listens; sub-commands dial it and fail fast when it
// is absent.
package ipc

import (
	"context"
	"net"
	"os"
	"time"
)

// EnvSocket overrides the default socket path.
const EnvSocket = "CLIPBRIDGE_SOCKET"

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux:   $XDG_RUNTIME_DIR/clipbridge.sock, else $TMPDIR/clipbridge.sock
//   - macOS:   $TMPDIR/clipbridge.sock
//   - Windows: \\.\pipe\clipbridge
//
// $CLIPBRIDGE_SOCKET overrides all of them.
func SocketPath() string {
	if s := os.Getenv(EnvSocket); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a bridge appears to be listening on path. It
// does a cheap dial-and-close; no data is exchanged.
func IsRunning(path string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c, err := Dial(ctx, path)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen returns a listener on path, removing any stale socket left by a
// previous run.
func Listen(path string) (net.Listener, error) {
	return listenIPC(path)
}

// Dial connects to the listener at path.
func Dial(ctx context.Context, path string) (net.Conn, error) {
	return dialIPC(ctx, path)
}
