// ABOUTME: Tests for Bubble Tea message types used in the TUI message loop.
// ABOUTME: Validates construction and field access for all Msg types with table-driven tests.
package tui

import (
	"errors"
	"testing"
	"time"

	"github.com/BillChan226/multiagent-gen/orchestrator"
)

func TestRunEventMsg(t *testing.T) {
	tests := []struct {
		name      string
		event     orchestrator.Event
		wantKind  orchestrator.EventKind
		wantAgent string
	}{
		{
			name: "run started event",
			event: orchestrator.Event{
				Kind:      orchestrator.EventRunStarted,
				AgentID:   "",
				Data:      nil,
				Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			wantKind:  orchestrator.EventRunStarted,
			wantAgent: "",
		},
		{
			name: "agent status event preserves agent ID",
			event: orchestrator.Event{
				Kind:      orchestrator.EventAgentStatus,
				AgentID:   "codergen_1",
				Data:      map[string]any{"status": "running"},
				Timestamp: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC),
			},
			wantKind:  orchestrator.EventAgentStatus,
			wantAgent: "codergen_1",
		},
		{
			name: "run failed event with data",
			event: orchestrator.Event{
				Kind:      orchestrator.EventRunFailed,
				AgentID:   "validate_3",
				Data:      map[string]any{"error": "timeout", "retries": 3},
				Timestamp: time.Date(2026, 6, 15, 8, 30, 0, 0, time.UTC),
			},
			wantKind:  orchestrator.EventRunFailed,
			wantAgent: "validate_3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := RunEventMsg{Event: tt.event}

			if msg.Event.Kind != tt.wantKind {
				t.Errorf("Event.Kind = %q, want %q", msg.Event.Kind, tt.wantKind)
			}
			if msg.Event.AgentID != tt.wantAgent {
				t.Errorf("Event.AgentID = %q, want %q", msg.Event.AgentID, tt.wantAgent)
			}
			if msg.Event.Timestamp != tt.event.Timestamp {
				t.Errorf("Event.Timestamp = %v, want %v", msg.Event.Timestamp, tt.event.Timestamp)
			}
			if tt.event.Data != nil {
				if msg.Event.Data == nil {
					t.Fatal("Event.Data is nil, want non-nil")
				}
				for k, v := range tt.event.Data {
					if msg.Event.Data[k] != v {
						t.Errorf("Event.Data[%q] = %v, want %v", k, msg.Event.Data[k], v)
					}
				}
			}
		})
	}
}

func TestRunResultMsg(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "success", err: nil, wantErr: false},
		{name: "failure with error", err: errors.New("run execution failed"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := RunResultMsg{Err: tt.err}

			if (msg.Err != nil) != tt.wantErr {
				t.Errorf("Err presence = %v, want %v", msg.Err != nil, tt.wantErr)
			}
			if tt.wantErr && msg.Err != nil {
				if msg.Err.Error() != tt.err.Error() {
					t.Errorf("Err = %q, want %q", msg.Err.Error(), tt.err.Error())
				}
			}
		})
	}
}

func TestTickMsg(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
	}{
		{name: "zero time", time: time.Time{}},
		{name: "specific time", time: time.Date(2026, 2, 9, 15, 30, 45, 0, time.UTC)},
		{name: "now", time: time.Now()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := TickMsg{Time: tt.time}

			if !msg.Time.Equal(tt.time) {
				t.Errorf("Time = %v, want %v", msg.Time, tt.time)
			}
		})
	}
}

func TestWindowSizeMsg(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{name: "standard terminal", width: 80, height: 24},
		{name: "wide terminal", width: 200, height: 50},
		{name: "zero size", width: 0, height: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := WindowSizeMsg{Width: tt.width, Height: tt.height}

			if msg.Width != tt.width {
				t.Errorf("Width = %d, want %d", msg.Width, tt.width)
			}
			if msg.Height != tt.height {
				t.Errorf("Height = %d, want %d", msg.Height, tt.height)
			}
		})
	}
}
