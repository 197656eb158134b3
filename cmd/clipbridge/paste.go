package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipbridge/internal/control"
	"go.klb.dev/clipbridge/internal/filetype"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Print the host clipboard cache to stdout (like pbpaste)",
		Long: `Writes the bridge's host clipboard cache to stdout. Text is printed as
UTF-8; images are written raw.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runPaste(v) },
	}

	f := cmd.Flags()
	f.String("type", "", "fail unless the clipboard holds this type: text|png|jpeg")
	addClientFlags(cmd)

	return cmd
}

func runPaste(v *viper.Viper) error {
	var want filetype.Type
	if s := v.GetString("type"); s != "" {
		t, err := filetype.Parse(s)
		if err != nil {
			return err
		}
		want = t
	}
	return withClient(v, func(ctx context.Context, c *control.Client) error {
		ft, data, err := c.Paste(ctx)
		if err != nil {
			return fmt.Errorf("paste: %w", err)
		}
		if len(data) == 0 {
			return nil
		}
		if want != filetype.None && ft != want {
			return fmt.Errorf("clipboard holds %s, not %s", ft, want)
		}
		_, err = os.Stdout.Write(data)
		return err
	})
}
