// clipbridge: clipboard bridge between an emulated guest desktop and the host.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/clipbridge/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipbridge",
		Short: "Clipboard bridge between an emulated guest and the host",
		Long: `clipbridge keeps the guest desktop clipboard and the host clipboard in
step. Host changes are offered to the guest as soon as they happen; the guest
clipboard is fetched back shortly after user input in the guest.

Run "clipbridge run" to start the bridge. The copy, paste, status, tick and
input commands talk to a running bridge over its local IPC socket.

Config file search order (first found wins):
  /etc/clipbridge/clipbridge.toml
  $HOME/.config/clipbridge/clipbridge.toml
  path supplied via --config

All flags can be set via CLIPBRIDGE_<FLAG> env vars or config-file keys.
See "clipbridge run --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newCopyCmd(),
		newPasteCmd(),
		newStatusCmd(),
		newTickCmd(),
		newInputCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipbridge %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed. An
// explicit level wins; otherwise interactive runs log at debug.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	opts := logging.Options{
		Format:      logging.ParseFormat(formatStr),
		Interactive: interactive,
	}
	if level, ok := logging.ParseLevel(levelStr); ok {
		opts.Level = &level
	}
	logging.Setup(opts)
}
