// ABOUTME: Tests for the Process Manager tool bindings (start/stop/interrupt/wait/status/output/list/cleanup_port).
package agent

import (
	"strings"
	"testing"

	"github.com/BillChan226/multiagent-gen/process"
)

func TestStartStopProcessToolRoundTrip(t *testing.T) {
	manager := process.NewManager()
	start := NewStartProcessTool(manager, t.TempDir())

	out, err := start.Execute(map[string]any{"name": "sleeper", "command": "sleep", "args": []any{"5"}}, nil)
	if err != nil {
		t.Fatalf("start Execute() error = %v", err)
	}
	if !strings.Contains(out, "sleeper") {
		t.Errorf("start output = %q, want it to mention the process name", out)
	}

	status := NewProcessStatusTool(manager)
	statusOut, err := status.Execute(map[string]any{"name": "sleeper"}, nil)
	if err != nil {
		t.Fatalf("process_status Execute() error = %v", err)
	}
	if !strings.Contains(statusOut, "running") && !strings.Contains(statusOut, "starting") {
		t.Errorf("status output = %q, want a running/starting status", statusOut)
	}

	stop := NewStopProcessTool(manager)
	if _, err := stop.Execute(map[string]any{"name": "sleeper", "force": true}, nil); err != nil {
		t.Fatalf("stop Execute() error = %v", err)
	}
}

func TestProcessStatusUnknownNameErrors(t *testing.T) {
	manager := process.NewManager()
	status := NewProcessStatusTool(manager)
	if _, err := status.Execute(map[string]any{"name": "ghost"}, nil); err == nil {
		t.Fatal("expected an error for an unknown process name")
	}
}

func TestListProcessesToolReportsStartedProcesses(t *testing.T) {
	manager := process.NewManager()
	start := NewStartProcessTool(manager, t.TempDir())
	if _, err := start.Execute(map[string]any{"name": "p1", "command": "sleep", "args": []any{"5"}}, nil); err != nil {
		t.Fatalf("start Execute() error = %v", err)
	}
	defer manager.CleanupAll()

	list := NewListProcessesTool(manager)
	out, err := list.Execute(map[string]any{}, nil)
	if err != nil {
		t.Fatalf("list_processes Execute() error = %v", err)
	}
	if !strings.Contains(out, "p1") {
		t.Errorf("list output = %q, want it to include p1", out)
	}
}

func TestCleanupPortToolFreesBoundPort(t *testing.T) {
	manager := process.NewManager()
	cleanup := NewCleanupPortTool(manager)
	if _, err := cleanup.Execute(map[string]any{"port": float64(59999)}, nil); err != nil {
		t.Fatalf("cleanup_port Execute() error = %v", err)
	}
}

func TestRegisterProcessToolsAddsAllEight(t *testing.T) {
	manager := process.NewManager()
	registry := NewToolRegistry()
	if err := RegisterProcessTools(registry, manager, t.TempDir()); err != nil {
		t.Fatalf("RegisterProcessTools() error = %v", err)
	}
	for _, name := range []string{"start_process", "stop_process", "interrupt_process", "wait_process", "process_status", "process_output", "list_processes", "cleanup_port"} {
		if !registry.Has(name) {
			t.Errorf("registry missing tool %q", name)
		}
	}
}
