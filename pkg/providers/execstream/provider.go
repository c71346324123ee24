// Package execstream runs commands and streams their output as entry
// sources: stdout becomes stream entries, stderr becomes error entries.
package execstream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/pharos-sh/pharos/pkg/core"
)

// Provider runs one command per subscribed source.
type Provider struct {
	subs   map[string]*subscription
	mu     sync.Mutex
	logger *slog.Logger
}

type subscription struct {
	cancel context.CancelFunc
	ch     chan core.Entry
}

// New creates an exec stream provider.
func New(logger *slog.Logger) *Provider {
	return &Provider{
		subs:   make(map[string]*subscription),
		logger: logger,
	}
}

func (p *Provider) Name() string { return "exec" }

// Subscribe starts command through the shell in dir (empty uses the
// current directory) and streams both output pipes. The channel closes
// when the process exits.
func (p *Provider) Subscribe(ctx context.Context, source, command, dir string) (<-chan core.Entry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sub, ok := p.subs[source]; ok {
		return sub.ch, nil
	}

	subCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(subCtx, "/bin/sh", "-c", command)
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %q: %w", command, err)
	}

	ch := make(chan core.Entry, 100)
	var wg sync.WaitGroup
	wg.Add(2)
	go p.pump(&wg, ch, stdout, source, core.KindStream)
	go p.pump(&wg, ch, stderr, source, core.KindError)

	go func() {
		wg.Wait()
		if err := cmd.Wait(); err != nil && subCtx.Err() == nil {
			entry := core.NewEntry(source, core.KindError, fmt.Sprintf("process exited: %v", err))
			select {
			case ch <- entry:
			default:
			}
			p.logger.Warn("exec source exited", "source", source, "err", err)
		}
		close(ch)
		p.mu.Lock()
		delete(p.subs, source)
		p.mu.Unlock()
	}()

	p.subs[source] = &subscription{cancel: cancel, ch: ch}
	p.logger.Info("exec source started", "source", source, "command", command)
	return ch, nil
}

func (p *Provider) pump(wg *sync.WaitGroup, ch chan<- core.Entry, r io.Reader, source string, kind core.Kind) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		entry := core.NewEntry(source, kind, scanner.Text())
		select {
		case ch <- entry:
		default:
		}
	}
}

// Unsubscribe terminates the command for source.
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

// Close terminates all commands.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for source, sub := range p.subs {
		sub.cancel()
		delete(p.subs, source)
	}
}
