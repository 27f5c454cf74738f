// ABOUTME: Tests for the peer-to-peer communication tools bound to the message bus.
package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/BillChan226/multiagent-gen/bus"
)

func testRoster() Roster {
	return Roster{
		"design":  {ID: "design", Name: "Design Agent", Role: "API and schema design"},
		"backend": {ID: "backend", Name: "Backend Agent", Role: "Server logic"},
		"user":    {ID: "user", Name: "User Agent", Role: "Coordinates the project"},
	}
}

func TestAskAgentToolRoundTrip(t *testing.T) {
	b := bus.NewBus()
	defer b.Close()
	b.RegisterAgent("backend")
	b.RegisterAgent("design")

	tool := NewAskAgentTool(b, "backend", testRoster(), time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		mbox, _ := b.Mailbox("design")
		msg, err := mbox.Pop(context.Background())
		if err != nil {
			return
		}
		b.Answer(msg.CorrelationID, "design", "use snake_case columns")
	}()

	out, err := tool.Execute(map[string]any{"agent_id": "design", "question": "column naming?"}, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	<-done
	if !strings.Contains(out, "snake_case") {
		t.Errorf("output = %q, want it to contain the answer", out)
	}
}

func TestAskAgentToolRejectsUnknownAgent(t *testing.T) {
	b := bus.NewBus()
	defer b.Close()
	tool := NewAskAgentTool(b, "backend", testRoster(), time.Second)

	out, err := tool.Execute(map[string]any{"agent_id": "ghost", "question": "hi"}, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "cannot communicate") {
		t.Errorf("output = %q, want a cannot-communicate error", out)
	}
}

func TestTellAgentToolDeliversMessage(t *testing.T) {
	b := bus.NewBus()
	defer b.Close()
	b.RegisterAgent("backend")
	mbox := b.RegisterAgent("design")

	tool := NewTellAgentTool(b, "backend", testRoster())
	out, err := tool.Execute(map[string]any{"agent_id": "design", "message": "routes ready"}, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "routes ready") {
		t.Errorf("output = %q, want confirmation text", out)
	}

	msg, err := mbox.Pop(context.Background())
	if err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
	if msg.Content != "routes ready" {
		t.Errorf("delivered content = %q, want %q", msg.Content, "routes ready")
	}
}

func TestBroadcastToolExcludesSelf(t *testing.T) {
	b := bus.NewBus()
	defer b.Close()
	b.RegisterAgent("backend")
	designBox := b.RegisterAgent("design")
	userBox := b.RegisterAgent("user")

	tool := NewBroadcastTool(b, "backend", testRoster())
	out, err := tool.Execute(map[string]any{"message": "schema frozen"}, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "2 agents") {
		t.Errorf("output = %q, want it to mention 2 recipients", out)
	}
	if designBox.Len() != 1 || userBox.Len() != 1 {
		t.Errorf("expected both peer mailboxes to receive the broadcast")
	}
}

func TestGetAgentsToolListsRoster(t *testing.T) {
	tool := NewGetAgentsTool("backend", testRoster())
	out, err := tool.Execute(map[string]any{}, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "design") || !strings.Contains(out, "user") || strings.Contains(out, "- backend:") {
		t.Errorf("output = %q, want peers listed and self excluded", out)
	}
}

func TestGetAgentsToolDetailsForOneAgent(t *testing.T) {
	tool := NewGetAgentsTool("backend", testRoster())
	out, err := tool.Execute(map[string]any{"agent_id": "design"}, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "Design Agent") || !strings.Contains(out, "API and schema design") {
		t.Errorf("output = %q, want design agent details", out)
	}
}

func TestGetAgentsToolUnknownAgent(t *testing.T) {
	tool := NewGetAgentsTool("backend", testRoster())
	out, err := tool.Execute(map[string]any{"agent_id": "ghost"}, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "not found") {
		t.Errorf("output = %q, want a not-found message", out)
	}
}
