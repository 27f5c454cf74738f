// ABOUTME: Bridge connecting the orchestrator's run-level EventEmitter to the Bubble Tea message loop.
// ABOUTME: Provides EventBridge for event injection, and tea.Cmd factories for run execution and ticks.
package tui

import (
	"context"
	"time"

	"github.com/BillChan226/multiagent-gen/orchestrator"
	tea "github.com/charmbracelet/bubbletea"
)

// EventBridge wraps a tea.Program's Send method for injecting run events
// into the Bubble Tea message loop.
type EventBridge struct {
	send func(msg tea.Msg)
}

// NewEventBridge creates an EventBridge that sends messages via the given function.
// Typically called with program.Send as the argument.
func NewEventBridge(send func(msg tea.Msg)) *EventBridge {
	return &EventBridge{send: send}
}

// HandleEvent wraps evt in a RunEventMsg and forwards it to the TUI.
func (b *EventBridge) HandleEvent(evt orchestrator.Event) {
	b.send(RunEventMsg{Event: evt})
}

// WatchEventsCmd returns a tea.Cmd that receives the next event from sub and
// re-issues itself, so the message loop keeps draining the subscription
// until it's closed or ctx is cancelled.
func WatchEventsCmd(ctx context.Context, sub <-chan orchestrator.Event) tea.Cmd {
	return func() tea.Msg {
		select {
		case evt, ok := <-sub:
			if !ok {
				return nil
			}
			return RunEventMsg{Event: evt}
		case <-ctx.Done():
			return nil
		}
	}
}

// RunCmd returns a tea.Cmd that runs fn to completion and sends a
// RunResultMsg with its error. The context allows cancellation when the
// user quits the TUI.
func RunCmd(fn func(ctx context.Context) error, ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		err := fn(ctx)
		return RunResultMsg{Err: err}
	}
}

// TickCmd returns a tea.Cmd that sends a TickMsg after the given interval.
// Used for spinner animation and periodic UI refreshes.
func TickCmd(interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		time.Sleep(interval)
		return TickMsg{Time: time.Now()}
	}
}
