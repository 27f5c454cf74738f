// ABOUTME: Bubble Tea message types used in the TUI message loop.
// ABOUTME: Each type wraps domain events for the tea.Msg interface (which is interface{}).
package tui

import (
	"time"

	"github.com/BillChan226/multiagent-gen/orchestrator"
)

// RunEventMsg wraps an orchestrator.Event for the Bubble Tea message loop.
type RunEventMsg struct {
	Event orchestrator.Event
}

// RunResultMsg signals that the run has finished executing.
type RunResultMsg struct {
	Err error
}

// TickMsg is sent periodically to update timers and spinners.
type TickMsg struct {
	Time time.Time
}

// WindowSizeMsg is forwarded from tea.WindowSizeMsg for layout updates.
type WindowSizeMsg struct {
	Width  int
	Height int
}
