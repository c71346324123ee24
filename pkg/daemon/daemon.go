// Package daemon implements pharosd: it follows the configured log
// streams, keeps a bounded buffer per source for replay, and fans
// entries out to connected clients.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pharos-sh/pharos/pkg/config"
	"github.com/pharos-sh/pharos/pkg/core"
	"github.com/pharos-sh/pharos/pkg/logbuf"
	"github.com/pharos-sh/pharos/pkg/providers/execstream"
	"github.com/pharos-sh/pharos/pkg/providers/filetail"
	"github.com/pharos-sh/pharos/pkg/providers/journal"
	"github.com/pharos-sh/pharos/pkg/transport/uds"
)

// Daemon is the main pharosd process.
type Daemon struct {
	server   *uds.Server
	registry *logbuf.Registry

	files    *filetail.Provider
	journals *journal.Provider
	execs    *execstream.Provider

	cfgPath  string
	mu       sync.RWMutex
	cfg      *config.Config
	attached map[string]struct{} // sources with a running subscription

	intake chan core.Entry
	logger *slog.Logger
}

// New creates a daemon instance. Call Reload to pick up the config,
// then Run.
func New(socketPath, cfgPath string, logger *slog.Logger) *Daemon {
	d := &Daemon{
		server:   uds.NewServer(socketPath, logger),
		registry: logbuf.NewRegistry(config.DefaultCapacity),
		files:    filetail.New(logger),
		journals: journal.New(logger),
		execs:    execstream.New(logger),
		cfgPath:  cfgPath,
		cfg:      config.Default(),
		attached: make(map[string]struct{}),
		intake:   make(chan core.Entry, 256),
		logger:   logger,
	}
	d.registerHandlers()
	return d
}

// Config returns the currently applied configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Server returns the underlying UDS server (for broadcasting events).
func (d *Daemon) Server() *uds.Server {
	return d.server
}

// Run starts the intake loop and the server, blocking until ctx is
// cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	d.registry.OnAdded(func(source string) {
		evt, err := uds.NewEvent(uds.EventSourceAdded, uds.SourceInfo{ID: source})
		if err == nil {
			d.server.Broadcast(evt)
		}
	})

	go d.intakeLoop(ctx)
	return d.server.Start(ctx)
}

// Shutdown cleans up resources.
func (d *Daemon) Shutdown() {
	d.files.Close()
	d.journals.Close()
	d.execs.Close()
	d.server.Shutdown()
}

// Reload reads the config file and applies it: capacity across the
// registry and every buffer, subscriptions for sources not yet
// attached, and a config.changed broadcast so clients follow suit.
// A failed load keeps the last-known configuration.
func (d *Daemon) Reload(ctx context.Context) {
	cfg, err := config.Load(d.cfgPath)
	if err != nil {
		d.logger.Warn("config load failed, keeping current", "path", d.cfgPath, "err", err)
		return
	}
	for _, e := range config.Validate(cfg) {
		d.logger.Warn("config validation", "err", e)
	}

	d.mu.Lock()
	if cfg.Capacity <= 0 {
		cfg.Capacity = d.cfg.Capacity // rejected input, keep prior bound
	}
	d.cfg = cfg
	d.mu.Unlock()

	d.registry.SetDefaultCapacity(cfg.Capacity)
	for source := range d.registry.Sources() {
		d.registry.Buffer(source).SetCapacity(cfg.Capacity)
	}

	for name, def := range cfg.Sources {
		if err := d.attachSource(ctx, name, def); err != nil {
			d.logger.Warn("source attach failed", "source", name, "err", err)
		}
	}

	evt, err := uds.NewEvent(uds.EventConfigChanged, uds.ConfigPayload{
		Capacity:     cfg.Capacity,
		Highlighting: cfg.Highlighting,
	})
	if err == nil {
		d.server.Broadcast(evt)
	}
	d.logger.Info("config applied", "capacity", cfg.Capacity, "highlighting", cfg.Highlighting, "sources", len(cfg.Sources))
}

func (d *Daemon) attachSource(ctx context.Context, name string, def config.SourceDef) error {
	source := core.SourceID(def.Kind, name)

	d.mu.Lock()
	if _, ok := d.attached[source]; ok {
		d.mu.Unlock()
		return nil
	}
	d.attached[source] = struct{}{}
	d.mu.Unlock()

	var (
		ch  <-chan core.Entry
		err error
	)
	switch def.Kind {
	case "file":
		ch, err = d.files.Subscribe(ctx, source, def.Path)
	case "journal":
		ch, err = d.journals.Subscribe(ctx, source, def.Unit)
	case "exec":
		ch, err = d.execs.Subscribe(ctx, source, def.Command, def.Dir)
	default:
		err = fmt.Errorf("unknown source kind %q", def.Kind)
	}
	if err != nil {
		d.mu.Lock()
		delete(d.attached, source)
		d.mu.Unlock()
		return err
	}

	go func() {
		for e := range ch {
			d.intake <- e
		}
		d.mu.Lock()
		delete(d.attached, source)
		d.mu.Unlock()
	}()
	return nil
}

// intakeLoop is the single owner of registry mutation: every entry is
// buffered and broadcast from here, in arrival order.
func (d *Daemon) intakeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-d.intake:
			d.registry.Buffer(e.Source).Append(e)
			evt, err := uds.NewEvent(uds.EventLogEntry, e)
			if err != nil {
				d.logger.Error("encode entry event", "err", err)
				continue
			}
			d.server.Broadcast(evt)
		}
	}
}

func (d *Daemon) registerHandlers() {
	d.server.Handle(uds.MethodPing, d.handlePing)
	d.server.Handle(uds.MethodListSources, d.handleListSources)
	d.server.Handle(uds.MethodTail, d.handleTail)
	d.server.Handle(uds.MethodGetConfig, d.handleGetConfig)
}

func (d *Daemon) handlePing(_ context.Context, _ uds.Message) (any, error) {
	return uds.PingResponse{Pong: true}, nil
}

func (d *Daemon) handleListSources(_ context.Context, _ uds.Message) (any, error) {
	infos := make([]uds.SourceInfo, 0, d.registry.Len())
	for source := range d.registry.Sources() {
		infos = append(infos, uds.SourceInfo{
			ID:     source,
			Length: d.registry.Buffer(source).Len(),
		})
	}
	return infos, nil
}

func (d *Daemon) handleTail(_ context.Context, msg uds.Message) (any, error) {
	var req uds.TailRequest
	if err := msg.UnmarshalData(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.Source == "" {
		return nil, fmt.Errorf("source is required")
	}
	if !d.registry.Has(req.Source) {
		return uds.TailResponse{}, nil
	}

	entries := d.registry.Buffer(req.Source).Entries()
	if req.Max > 0 && len(entries) > req.Max {
		entries = entries[len(entries)-req.Max:]
	}
	return uds.TailResponse{Entries: entries}, nil
}

func (d *Daemon) handleGetConfig(_ context.Context, _ uds.Message) (any, error) {
	cfg := d.Config()
	return uds.ConfigPayload{
		Capacity:     cfg.Capacity,
		Highlighting: cfg.Highlighting,
	}, nil
}
