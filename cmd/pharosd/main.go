package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"

	"github.com/pharos-sh/pharos/internal/buildinfo"
	"github.com/pharos-sh/pharos/pkg/daemon"
)

const (
	defaultSocket = "/tmp/pharosd.sock"
	defaultConfig = "pharos.yaml"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("pharosd %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		return
	}

	socketPath := defaultSocket
	configPath := defaultConfig
	for i := 1; i < len(os.Args)-1; i++ {
		switch os.Args[i] {
		case "--socket":
			socketPath = os.Args[i+1]
		case "--config":
			configPath = os.Args[i+1]
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	d := daemon.New(socketPath, configPath, logger)
	defer d.Shutdown()

	// Initial config pick-up; SIGHUP re-applies it at runtime.
	d.Reload(ctx)

	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	go func() {
		for range hupCh {
			logger.Info("reloading config", "path", configPath)
			d.Reload(ctx)
		}
	}()

	logger.Info("starting pharosd", "version", buildinfo.Version, "socket", socketPath)
	sddaemon.SdNotify(false, sddaemon.SdNotifyReady)
	defer sddaemon.SdNotify(false, sddaemon.SdNotifyStopping)

	if err := d.Run(ctx); err != nil {
		logger.Error("daemon error", "err", err)
		os.Exit(1)
	}
}
