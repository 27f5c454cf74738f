// ABOUTME: Defines lipgloss style constants for the TUI layout panels, status colors, and log formatting.
// ABOUTME: Provides StyleForStatus to map orchestrator.AgentStatus values to their corresponding display styles.
package tui

import (
	"github.com/BillChan226/multiagent-gen/orchestrator"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Panel borders
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	// Title styling
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	// Status colors
	PendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	RunningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	WaitingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	CompletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	FailedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Log event colors
	LogTimestampStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	LogEventStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	LogErrorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	LogSuccessStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	LogRetryStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	LogAgentToolStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	LogAgentMessageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	// Agent panel labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(10)
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// StyleForStatus returns the appropriate lipgloss style for an orchestrator.AgentStatus.
func StyleForStatus(status orchestrator.AgentStatus) lipgloss.Style {
	switch status {
	case orchestrator.AgentPending:
		return PendingStyle
	case orchestrator.AgentRunning:
		return RunningStyle
	case orchestrator.AgentWaiting:
		return WaitingStyle
	case orchestrator.AgentDone:
		return CompletedStyle
	case orchestrator.AgentFailed:
		return FailedStyle
	default:
		return PendingStyle
	}
}
