// ABOUTME: Tests for the top-level AppModel that orchestrates all TUI sub-panels.
// ABOUTME: Covers initialization, message routing, focus management, and view rendering.
package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BillChan226/multiagent-gen/orchestrator"
	tea "github.com/charmbracelet/bubbletea"
)

// testAppModel creates an AppModel with a no-op run function for testing.
func testAppModel() AppModel {
	ch := make(chan orchestrator.Event)
	runFn := func(ctx context.Context) error { return nil }
	return NewAppModel(context.Background(), runFn, ch, "test_run", 3)
}

func TestNewAppModel(t *testing.T) {
	m := testAppModel()

	if m.runFn == nil {
		t.Error("runFn is nil")
	}
	if m.focus != FocusAgents {
		t.Errorf("initial focus = %d, want FocusAgents (%d)", m.focus, FocusAgents)
	}
	if m.done {
		t.Error("done should be false initially")
	}
	if m.err != nil {
		t.Errorf("err should be nil initially, got %v", m.err)
	}
	if m.agents.Count() != 0 {
		t.Errorf("agents.Count() = %d, want 0", m.agents.Count())
	}
}

func TestAppModelInit(t *testing.T) {
	m := testAppModel()
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init() returned nil, expected a batch command")
	}
}

func TestAppModelUpdateWindowSize(t *testing.T) {
	m := testAppModel()
	msg := tea.WindowSizeMsg{Width: 120, Height: 40}

	updated, _ := m.Update(msg)
	m = updated.(AppModel)

	if m.width != 120 {
		t.Errorf("width = %d, want 120", m.width)
	}
	if m.height != 40 {
		t.Errorf("height = %d, want 40", m.height)
	}
}

func TestAppModelUpdateAgentSpawned(t *testing.T) {
	m := testAppModel()
	evt := RunEventMsg{
		Event: orchestrator.Event{
			Kind:      orchestrator.EventAgentSpawned,
			AgentID:   "builder",
			Timestamp: time.Now(),
		},
	}

	updated, _ := m.Update(evt)
	m = updated.(AppModel)

	if m.agents.GetStatus("builder") != orchestrator.AgentPending {
		t.Errorf("agent status = %v, want AgentPending", m.agents.GetStatus("builder"))
	}
}

func TestAppModelUpdateAgentStatusRunning(t *testing.T) {
	m := testAppModel()
	evt := RunEventMsg{
		Event: orchestrator.Event{
			Kind:      orchestrator.EventAgentStatus,
			AgentID:   "builder",
			Timestamp: time.Now(),
			Data:      map[string]any{"status": string(orchestrator.AgentRunning)},
		},
	}

	updated, _ := m.Update(evt)
	m = updated.(AppModel)

	if m.agents.GetStatus("builder") != orchestrator.AgentRunning {
		t.Errorf("agent status = %v, want AgentRunning", m.agents.GetStatus("builder"))
	}
}

func TestAppModelUpdateAgentStatusDoneIncrementsCompleted(t *testing.T) {
	m := testAppModel()
	updated, _ := m.Update(RunEventMsg{Event: orchestrator.Event{
		Kind: orchestrator.EventAgentStatus, AgentID: "builder",
		Data: map[string]any{"status": string(orchestrator.AgentDone)},
	}})
	m = updated.(AppModel)

	if m.statusBar.doneAgents != 1 {
		t.Errorf("doneAgents = %d, want 1", m.statusBar.doneAgents)
	}
}

func TestAppModelUpdateRunStarted(t *testing.T) {
	m := testAppModel()
	evt := RunEventMsg{
		Event: orchestrator.Event{
			Kind:      orchestrator.EventRunStarted,
			Timestamp: time.Now(),
		},
	}

	updated, _ := m.Update(evt)
	m = updated.(AppModel)

	if m.log.Len() != 1 {
		t.Errorf("log.Len() = %d, want 1", m.log.Len())
	}
}

func TestAppModelUpdateRunResult(t *testing.T) {
	m := testAppModel()
	msg := RunResultMsg{Err: nil}

	updated, _ := m.Update(msg)
	m = updated.(AppModel)

	if !m.done {
		t.Error("done should be true after RunResultMsg")
	}
	if m.err != nil {
		t.Errorf("err should be nil, got %v", m.err)
	}
}

func TestAppModelUpdateRunResultError(t *testing.T) {
	m := testAppModel()
	expectedErr := errors.New("run exploded")
	msg := RunResultMsg{Err: expectedErr}

	updated, _ := m.Update(msg)
	m = updated.(AppModel)

	if !m.done {
		t.Error("done should be true even on error")
	}
	if m.err == nil || m.err.Error() != "run exploded" {
		t.Errorf("err = %v, want %q", m.err, "run exploded")
	}
}

func TestAppModelUpdateTickReturnsCmdWhenNotDone(t *testing.T) {
	m := testAppModel()

	_, cmd := m.Update(TickMsg{Time: time.Now()})

	if cmd == nil {
		t.Error("tick should return a cmd when run is not done")
	}
}

func TestAppModelUpdateTickReturnsNilWhenDone(t *testing.T) {
	m := testAppModel()

	updated, _ := m.Update(RunResultMsg{Err: nil})
	m = updated.(AppModel)

	_, cmd := m.Update(TickMsg{Time: time.Now()})

	if cmd != nil {
		t.Error("tick should return nil cmd when run is done")
	}
}

func TestAppModelUpdateKeyQuit(t *testing.T) {
	m := testAppModel()
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}

	_, cmd := m.Update(msg)

	if cmd == nil {
		t.Fatal("q key should return a quit command")
	}

	result := cmd()
	if _, ok := result.(tea.QuitMsg); !ok {
		t.Errorf("cmd() returned %T, want tea.QuitMsg", result)
	}
}

func TestAppModelUpdateKeyCtrlC(t *testing.T) {
	m := testAppModel()
	msg := tea.KeyMsg{Type: tea.KeyCtrlC}

	_, cmd := m.Update(msg)

	if cmd == nil {
		t.Fatal("ctrl+c should return a quit command")
	}

	result := cmd()
	if _, ok := result.(tea.QuitMsg); !ok {
		t.Errorf("cmd() returned %T, want tea.QuitMsg", result)
	}
}

func TestAppModelUpdateKeyTab(t *testing.T) {
	m := testAppModel()
	if m.focus != FocusAgents {
		t.Fatalf("initial focus = %d, want FocusAgents", m.focus)
	}

	msg := tea.KeyMsg{Type: tea.KeyTab}
	updated, _ := m.Update(msg)
	m = updated.(AppModel)

	if m.focus != FocusLog {
		t.Errorf("focus after first tab = %d, want FocusLog (%d)", m.focus, FocusLog)
	}

	updated, _ = m.Update(msg)
	m = updated.(AppModel)

	if m.focus != FocusAgents {
		t.Errorf("focus after second tab = %d, want FocusAgents (%d)", m.focus, FocusAgents)
	}
}

func TestAppModelViewNotEmpty(t *testing.T) {
	m := testAppModel()
	m.width = 80
	m.height = 24

	view := m.View()
	if view == "" {
		t.Error("View() returned empty string")
	}
}

func TestAppModelViewShowsDoneMessage(t *testing.T) {
	m := testAppModel()
	m.width = 80
	m.height = 24

	updated, _ := m.Update(RunResultMsg{Err: nil})
	m = updated.(AppModel)

	view := m.View()
	if view == "" {
		t.Error("View() returned empty string after run done")
	}
}

func TestFocusTargetConstants(t *testing.T) {
	if FocusAgents != 0 {
		t.Errorf("FocusAgents = %d, want 0", FocusAgents)
	}
	if FocusLog != 1 {
		t.Errorf("FocusLog = %d, want 1", FocusLog)
	}
	if FocusAgents == FocusLog {
		t.Error("FocusAgents and FocusLog should be different values")
	}
}

func TestAppModelUpdateMultipleAgentCompletions(t *testing.T) {
	m := testAppModel()

	for _, agentID := range []string{"a1", "a2"} {
		updated, _ := m.Update(RunEventMsg{Event: orchestrator.Event{
			Kind: orchestrator.EventAgentStatus, AgentID: agentID,
			Data: map[string]any{"status": string(orchestrator.AgentDone)},
		}})
		m = updated.(AppModel)
	}

	if m.statusBar.doneAgents != 2 {
		t.Errorf("doneAgents = %d, want 2", m.statusBar.doneAgents)
	}
}

func TestAppModelUpdateLogFocusState(t *testing.T) {
	m := testAppModel()

	if m.log.IsFocused() {
		t.Error("log should not be focused initially")
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(AppModel)

	if !m.log.IsFocused() {
		t.Error("log should be focused after tab")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(AppModel)

	if m.log.IsFocused() {
		t.Error("log should not be focused after second tab")
	}
}
