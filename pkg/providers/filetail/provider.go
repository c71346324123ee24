// Package filetail streams log files as entry sources, following
// rotation and truncation.
package filetail

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/nxadm/tail"

	"github.com/pharos-sh/pharos/pkg/core"
)

// Provider tails log files, one subscription per source.
type Provider struct {
	subs   map[string]*subscription
	mu     sync.Mutex
	logger *slog.Logger
}

type subscription struct {
	cancel context.CancelFunc
	ch     chan core.Entry
}

// New creates a file tail provider.
func New(logger *slog.Logger) *Provider {
	return &Provider{
		subs:   make(map[string]*subscription),
		logger: logger,
	}
}

func (p *Provider) Name() string { return "file" }

// Subscribe starts following the file at path, emitting one stream
// entry per line, starting from the current end of file. Repeated
// subscriptions for the same source return the existing channel.
func (p *Provider) Subscribe(ctx context.Context, source, path string) (<-chan core.Entry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sub, ok := p.subs[source]; ok {
		return sub.ch, nil
	}

	t, err := tail.TailFile(path, tail.Config{
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		ReOpen:    true, // follow rotation
		MustExist: false,
		Follow:    true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("tail %s: %w", path, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan core.Entry, 100)

	go func() {
		defer close(ch)
		defer t.Cleanup()

		for {
			select {
			case <-subCtx.Done():
				t.Stop()
				return
			case line, ok := <-t.Lines:
				if !ok {
					return
				}
				if line.Err != nil {
					p.logger.Warn("tail error", "path", path, "err", line.Err)
					continue
				}
				entry := core.NewEntry(source, core.KindStream, line.Text)
				select {
				case ch <- entry:
				default: // drop rather than block the tailer
				}
			}
		}
	}()

	p.subs[source] = &subscription{cancel: cancel, ch: ch}
	p.logger.Info("tailing file", "path", path, "source", source)
	return ch, nil
}

// Unsubscribe stops following the file for source.
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
