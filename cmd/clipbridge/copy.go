package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipbridge/internal/control"
	"go.klb.dev/clipbridge/internal/filetype"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy stdin to the host clipboard (like pbcopy)",
		Long: `Reads stdin and hands it to the running bridge as a host clipboard change.
The guest agent claims the guest clipboard with it straight away.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runCopy(v) },
	}

	f := cmd.Flags()
	f.String("type", "text", "type of the data being copied: text|png|jpeg, a MIME type or a hex tag")
	addClientFlags(cmd)

	return cmd
}

func runCopy(v *viper.Viper) error {
	ft, err := filetype.Parse(v.GetString("type"))
	if err != nil {
		return err
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	return withClient(v, func(ctx context.Context, c *control.Client) error {
		if err := c.Copy(ctx, ft, data); err != nil {
			return fmt.Errorf("copy: %w", err)
		}
		return nil
	})
}
