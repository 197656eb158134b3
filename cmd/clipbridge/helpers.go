package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"go.klb.dev/clipbridge/internal/control"
	"go.klb.dev/clipbridge/internal/ipc"
)

const clientTimeout = 5 * time.Second

// withClient dials the bridge named by the socket flag and runs fn with a
// bounded context.
func withClient(v *viper.Viper, fn func(context.Context, *control.Client) error) error {
	path := v.GetString("socket")
	if !ipc.IsRunning(path) {
		return fmt.Errorf("no clipbridge running at %s", path)
	}
	conn, err := control.Dial(path, v.GetString("token"))
	if err != nil {
		return fmt.Errorf("dial %s: %w", path, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()
	return fn(ctx, control.NewClient(conn))
}
