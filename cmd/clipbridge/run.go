package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"

	"go.klb.dev/clipbridge/internal/agent"
	"go.klb.dev/clipbridge/internal/bridge"
	"go.klb.dev/clipbridge/internal/clip"
	"go.klb.dev/clipbridge/internal/control"
	"go.klb.dev/clipbridge/internal/filetype"
	"go.klb.dev/clipbridge/internal/guestmem"
	"go.klb.dev/clipbridge/internal/hostclip"
	"go.klb.dev/clipbridge/internal/ipc"
	"go.klb.dev/clipbridge/internal/ucs"
	"go.klb.dev/clipbridge/internal/wimp"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the clipboard bridge",
		Long: `Starts the host clipboard store, the guest clipboard agent and the
desktop clipboard bridge, and serves the control API on the IPC socket.

The guest reaches the store through host commands on emulated guest memory
(--host-path swi) or through direct calls (--host-path direct).

Config file search order:
  /etc/clipbridge/clipbridge.toml
  $HOME/.config/clipbridge/clipbridge.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPBRIDGE_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runBridge(v) },
	}

	f := cmd.Flags()
	f.String("alphabet", "auto", "guest alphabet name or number (auto = from host locale)")
	f.Duration("check-delay", agent.DefaultCheckDelay, "quiet period after guest input before the guest clipboard is fetched")
	f.Int("fetch-chunk", 0, "largest single guest transfer in bytes (0 = unbounded)")
	f.Int("max-content", agent.DefaultMaxContent, "largest clipboard payload in bytes")
	f.String("scrap", agent.DefaultScrapPath(), "scrap file for non-text guest transfers")
	f.Int("guest-ram", 32<<20, "emulated guest memory in bytes")
	f.String("host-path", "swi", "how the guest reaches the host store: swi|direct")
	f.Bool("no-host-clipboard", false, "keep the host side in memory instead of using the desktop clipboard")
	f.String("socket", ipc.SocketPath(), "IPC socket for the control API")
	f.String("token", "", "control token (empty = no auth)")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func resolveAlphabet(s string) (ucs.Alphabet, error) {
	if s == "" || s == "auto" {
		return ucs.AlphabetForLocale(), nil
	}
	return ucs.ParseAlphabet(s)
}

func runBridge(v *viper.Viper) error {
	setupLogging(v)

	alphabet, err := resolveAlphabet(v.GetString("alphabet"))
	if err != nil {
		return fmt.Errorf("alphabet: %w", err)
	}
	maxContent := v.GetInt("max-content")

	var backend clip.Backend
	if v.GetBool("no-host-clipboard") {
		backend = clip.NewMemory()
	} else {
		backend = clip.New()
	}
	defer backend.Close()

	var br *bridge.Bridge
	store := hostclip.New(
		hostclip.WithMaxLen(maxContent),
		hostclip.WithOnSet(func(ft filetype.Type, data []byte) { br.OnSet(ft, data) }),
	)
	defer store.Teardown()
	br = bridge.New(store, backend, slog.Default())

	host, err := newHost(v.GetString("host-path"), store, v.GetInt("guest-ram"))
	if err != nil {
		return err
	}

	bus := wimp.New()
	a, err := agent.New(bus, host, agent.Options{
		Alphabet:   alphabet,
		CheckDelay: v.GetDuration("check-delay"),
		FetchChunk: v.GetInt("fetch-chunk"),
		MaxContent: maxContent,
		ScrapPath:  v.GetString("scrap"),
		Fs:         afero.NewOsFs(),
		Logger:     slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("guest agent: %w", err)
	}
	defer a.Close()

	slog.Info("clipbridge starting",
		"version", Version,
		"backend", backend.Name(),
		"alphabet", alphabet,
		"host_path", v.GetString("host-path"),
	)

	svc := control.New(store, a, bus, backend.Name(), v.GetString("token"))
	gs := grpc.NewServer(svc.ServerOptions()...)
	control.Register(gs, svc)
	socket := v.GetString("socket")
	if ln, err := ipc.Listen(socket); err != nil {
		slog.Warn("IPC socket unavailable", "path", socket, "err", err)
	} else {
		slog.Info("IPC socket listening", "path", socket)
		go func() {
			if err := gs.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				slog.Error("control service stopped", "err", err)
			}
		}()
	}
	defer gs.GracefulStop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := br.Run(ctx); err != nil {
			slog.Error("host clipboard bridge stopped", "err", err)
		}
	}()

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("clipbridge stopped")
	return nil
}

// newHost builds the agent's path to the store.
func newHost(path string, store *hostclip.Store, guestRAM int) (agent.Host, error) {
	switch path {
	case "direct":
		return hostclip.Direct{Store: store}, nil
	case "swi":
		mem := guestmem.NewFlat(guestRAM)
		scratch := guestRAM - ucs.TableSize - 64
		if scratch < store.MaxLen()+4 {
			return nil, fmt.Errorf("guest-ram %d too small for max-content %d", guestRAM, store.MaxLen())
		}
		c, err := hostclip.NewSWIClient(mem, store, scratch)
		if err != nil {
			return nil, fmt.Errorf("guest memory: %w", err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown host path %q (want swi or direct)", path)
}
