package tui

import (
	"context"
	"sync"

	"cafeteria/internal/coordinator"

	tea "github.com/charmbracelet/bubbletea"
)

// activateMsg makes view the active screen and starts its background work
type activateMsg struct {
	view coordinator.View
}

// polling owns the manager's poll loop. It is shared by every copy of the
// model, so stopping from any copy stops the one loop.
type polling struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *polling) start(ctx context.Context, run func(context.Context)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done
	go func() {
		defer close(done)
		run(ctx)
	}()
}

// stop cancels the loop and waits for its in-flight requests to finish
func (p *polling) stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// start seeds the backend, then activates the initial view
func (m Model) start() tea.Cmd {
	coord, ctx := m.coord, m.ctx
	return func() tea.Msg {
		coord.Seed(ctx)
		return activateMsg{view: coord.View()}
	}
}

// activate tears down the work of the previous view and starts view's.
// The manager polls for as long as it is showing and starts from an empty
// dashboard; the waiter refetches its reference data on every activation.
func (m Model) activate(view coordinator.View) tea.Cmd {
	m.polls.stop()

	if view == coordinator.ViewManager {
		m.monitor.Reset()
		m.polls.start(m.ctx, m.monitor.Run)
		m.log.Debug("manager view activated")
		return nil
	}

	m.log.Debug("waiter view activated")
	comp, ctx := m.composer, m.ctx
	return func() tea.Msg {
		comp.Load(ctx)
		return LoadedMsg{}
	}
}

// Close stops the background work of the active view
func (m Model) Close() {
	m.polls.stop()
}
