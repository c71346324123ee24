// Package journal streams journald output for systemd units.
package journal

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	sdjournal "github.com/coreos/go-systemd/v22/journal"

	"github.com/pharos-sh/pharos/pkg/core"
)

// Provider follows journald units via journalctl.
type Provider struct {
	subs   map[string]*subscription
	mu     sync.Mutex
	logger *slog.Logger
}

type subscription struct {
	cancel context.CancelFunc
	ch     chan core.Entry
}

// New creates a journal provider.
func New(logger *slog.Logger) *Provider {
	return &Provider{
		subs:   make(map[string]*subscription),
		logger: logger,
	}
}

func (p *Provider) Name() string { return "journal" }

// Available reports whether the systemd journal is reachable on this
// host.
func Available() bool {
	return sdjournal.Enabled()
}

// Subscribe starts following the journal for the given unit.
func (p *Provider) Subscribe(ctx context.Context, source, unit string) (<-chan core.Entry, error) {
	if !Available() {
		return nil, fmt.Errorf("systemd journal not available")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if sub, ok := p.subs[source]; ok {
		return sub.ch, nil
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan core.Entry, 100)

	cmd := exec.CommandContext(subCtx, "journalctl", "-f", "-u", unit, "-o", "cat", "-n", "0")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("journalctl pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("journalctl start: %w", err)
	}

	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			entry := core.NewEntry(source, core.KindStream, scanner.Text())
			select {
			case ch <- entry:
			default:
			}
		}
		_ = cmd.Wait()
		close(ch)
		p.mu.Lock()
		delete(p.subs, source)
		p.mu.Unlock()
	}()

	p.subs[source] = &subscription{cancel: cancel, ch: ch}
	p.logger.Info("subscribed to journal", "unit", unit, "source", source)
	return ch, nil
}

// Unsubscribe stops following the journal for source.
func (p *Provider) Unsubscribe(source string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub, ok := p.subs[source]
	if !ok {
		return nil
	}
	sub.cancel()
	delete(p.subs, source)
	return nil
}

// Close stops all subscriptions.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for source, sub := range p.subs {
		sub.cancel()
		delete(p.subs, source)
	}
}
