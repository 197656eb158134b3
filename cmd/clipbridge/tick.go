package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipbridge/internal/control"
)

func newTickCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Signal guest input activity",
		Long: `Tells the guest agent the user has been active, so the guest clipboard is
fetched after the check delay unless the agent owns it.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, _ []string) error {
			return withClient(v, func(ctx context.Context, c *control.Client) error {
				return c.Tick(ctx)
			})
		},
	}
	addClientFlags(cmd)
	return cmd
}

func newInputCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "input key <code> up|down | input mouse <buttons>",
		Short: "Feed a raw guest input event to the bridge",
		Long: `Forwards a guest key transition or mouse button state to the bridge's input
filter. A key transition while Ctrl is held, or a change of mouse buttons,
counts as activity.`,
		Args:    cobra.RangeArgs(2, 3),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, args []string) error { return runInput(v, args) },
	}
	addClientFlags(cmd)
	return cmd
}

func runInput(v *viper.Viper, args []string) error {
	n, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	switch args[0] {
	case "key":
		if len(args) != 3 || (args[2] != "up" && args[2] != "down") {
			return errors.New("usage: input key <code> up|down")
		}
		down := args[2] == "down"
		return withClient(v, func(ctx context.Context, c *control.Client) error {
			return c.Key(ctx, int(n), down)
		})
	case "mouse":
		return withClient(v, func(ctx context.Context, c *control.Client) error {
			return c.Mouse(ctx, uint32(n))
		})
	}
	return fmt.Errorf("unknown input kind %q (want key or mouse)", args[0])
}
