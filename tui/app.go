// ABOUTME: Top-level Bubble Tea AppModel that orchestrates all TUI sub-panels into a unified layout.
// ABOUTME: Implements tea.Model (Init, Update, View) and routes messages to the agent, log, and status bar panels.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BillChan226/multiagent-gen/orchestrator"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FocusTarget indicates which panel currently has keyboard focus.
type FocusTarget int

const (
	FocusAgents FocusTarget = iota
	FocusLog
)

// AppModel is the top-level Bubble Tea model that composes all TUI sub-panels
// and routes messages between them.
type AppModel struct {
	agents    AgentPanelModel
	log       LogPanelModel
	statusBar StatusBarModel

	runFn func(ctx context.Context) error
	sub   <-chan orchestrator.Event
	ctx   context.Context

	focus FocusTarget
	done  bool  // run finished
	err   error // run error (if any)
	width int
	height int
}

// NewAppModel creates an AppModel wired to the given run function and event
// subscription. runName and totalAgents seed the status bar before the first
// event arrives.
func NewAppModel(ctx context.Context, runFn func(ctx context.Context) error, sub <-chan orchestrator.Event, runName string, totalAgents int) AppModel {
	return AppModel{
		agents:    NewAgentPanelModel(),
		log:       NewLogPanelModel(200),
		statusBar: NewStatusBarModel(runName, totalAgents),
		runFn:     runFn,
		sub:       sub,
		ctx:       ctx,
		focus:     FocusAgents,
	}
}

// Init implements tea.Model. Returns a batch of initial commands to start the
// run, listen for events, and begin the tick loop.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		RunCmd(m.runFn, m.ctx),
		WatchEventsCmd(m.ctx, m.sub),
		TickCmd(100*time.Millisecond),
	)
}

// Update implements tea.Model. Routes incoming messages to the appropriate
// sub-panel and returns the updated model with any follow-up commands.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case RunEventMsg:
		return m.handleRunEvent(msg)

	case RunResultMsg:
		return m.handleRunResult(msg)

	case TickMsg:
		return m.handleTick(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

// View implements tea.Model. Renders the full TUI layout with all panels.
func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.width < 40 || m.height < 10 {
		return fmt.Sprintf("Terminal too small (%dx%d). Minimum: 40x10.", m.width, m.height)
	}

	statusBarHeight := 1
	agentsHeight := (m.height - statusBarHeight) * 40 / 100
	if agentsHeight < 3 {
		agentsHeight = 3
	}
	logHeight := m.height - statusBarHeight - agentsHeight
	if logHeight < 3 {
		logHeight = 3
	}

	m.log.SetSize(m.width, logHeight)
	m.statusBar.SetWidth(m.width)

	agentsView := BorderStyle.Width(m.width - 2).Height(agentsHeight - 2).Render(m.agents.View())
	logView := m.log.View()

	var statusView string
	if m.done {
		if m.err != nil {
			statusView = m.statusBar.View() + " " + FailedStyle.Render(fmt.Sprintf("FAILED: %v", m.err))
		} else {
			statusView = m.statusBar.View() + " " + CompletedStyle.Render("DONE")
		}
	} else {
		statusView = m.statusBar.View()
	}

	var b strings.Builder
	b.WriteString(agentsView)
	b.WriteString("\n")
	b.WriteString(logView)
	b.WriteString("\n")
	b.WriteString(statusView)

	return b.String()
}

// handleWindowSize updates dimensions on all panels.
func (m AppModel) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	return m, nil
}

// handleRunEvent routes run lifecycle events to the appropriate sub-panels.
func (m AppModel) handleRunEvent(msg RunEventMsg) (tea.Model, tea.Cmd) {
	evt := msg.Event
	m.log.Append(evt)

	switch evt.Kind {
	case orchestrator.EventRunStarted:
		m.statusBar.Start()

	case orchestrator.EventAgentSpawned:
		m.agents.SetStatus(evt.AgentID, orchestrator.AgentPending)

	case orchestrator.EventAgentStatus:
		status, _ := evt.Data["status"].(string)
		m.agents.SetStatus(evt.AgentID, orchestrator.AgentStatus(status))
		m.statusBar.SetActiveNode(evt.AgentID)
		m.statusBar.SetCompleted(m.agents.CountByStatus(orchestrator.AgentDone))
	}

	return m, WatchEventsCmd(m.ctx, m.sub)
}

// handleRunResult marks the run as done and stores any error.
func (m AppModel) handleRunResult(msg RunResultMsg) (tea.Model, tea.Cmd) {
	m.done = true
	m.err = msg.Err
	m.statusBar.SetActiveNode("")
	return m, nil
}

// handleTick re-issues the tick loop while the run is still in progress.
func (m AppModel) handleTick(_ TickMsg) (tea.Model, tea.Cmd) {
	if m.done {
		return m, nil
	}
	return m, TickCmd(100 * time.Millisecond)
}

// handleKeyMsg processes keyboard input for app-level shortcuts.
func (m AppModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.focus = m.nextFocus()
		m.log.SetFocused(m.focus == FocusLog)
		return m, nil
	}

	return m, nil
}

// nextFocus cycles the focus target between the agent panel and the log.
func (m AppModel) nextFocus() FocusTarget {
	switch m.focus {
	case FocusAgents:
		return FocusLog
	case FocusLog:
		return FocusAgents
	default:
		return FocusAgents
	}
}
