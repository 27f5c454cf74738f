// ABOUTME: Implements a single-line status bar for the bottom of the TUI showing run progress.
// ABOUTME: Displays run name, elapsed time, agent completion count, and currently active agent.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// StatusBarModel displays run status in a single line.
type StatusBarModel struct {
	runName       string
	startTime     time.Time
	totalAgents   int
	doneAgents    int
	activeAgent   string
	width         int
}

// NewStatusBarModel creates a new StatusBarModel with the given run name and total agent count.
func NewStatusBarModel(runName string, totalAgents int) StatusBarModel {
	return StatusBarModel{
		runName:     runName,
		totalAgents: totalAgents,
	}
}

// Start records the run start time.
func (m *StatusBarModel) Start() {
	m.startTime = time.Now()
}

// SetCompleted updates the completed agent count.
func (m *StatusBarModel) SetCompleted(n int) {
	m.doneAgents = n
}

// SetActiveNode sets the currently active agent name. Named to match the
// handler call sites that route generic "active unit of work" updates.
func (m *StatusBarModel) SetActiveNode(name string) {
	m.activeAgent = name
}

// SetWidth sets the bar width for rendering.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

// Elapsed returns the time since Start() was called, or zero if not started.
func (m StatusBarModel) Elapsed() time.Duration {
	if m.startTime.IsZero() {
		return 0
	}
	return time.Since(m.startTime)
}

// formatElapsed formats a duration as a human-readable string.
// Durations under a minute show as seconds (e.g. "12s").
// Durations of a minute or more show as minutes and seconds (e.g. "2m30s").
func formatElapsed(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) - minutes*60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}

// View renders the status bar as a single styled line.
func (m StatusBarModel) View() string {
	active := m.activeAgent
	if active == "" {
		active = "idle"
	}

	elapsed := formatElapsed(m.Elapsed())

	content := fmt.Sprintf("Run: %s | Elapsed: %s | %d/%d agents done | Active: %s",
		m.runName, elapsed, m.doneAgents, m.totalAgents, active)

	style := StatusBarStyle.Width(m.width)

	return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, style.Render(content))
}
