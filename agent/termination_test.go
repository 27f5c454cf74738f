// ABOUTME: Tests for the submit_plan/finish/deliver_project gate sequence.
package agent

import "testing"

func TestFinishRejectedBeforePlanSubmitted(t *testing.T) {
	gate := NewPlanGate()
	tool := NewFinishTool(gate, nil)

	_, err := tool.Execute(map[string]any{"summary": "done"}, nil)
	if err == nil {
		t.Fatal("expected finish to be rejected before submit_plan")
	}
}

func TestDeliverProjectRejectedBeforePlanSubmitted(t *testing.T) {
	gate := NewPlanGate()
	tool := NewDeliverProjectTool(gate, nil)

	_, err := tool.Execute(map[string]any{"summary": "done"}, nil)
	if err == nil {
		t.Fatal("expected deliver_project to be rejected before submit_plan")
	}
}

func TestFinishAcceptedAfterSubmitPlan(t *testing.T) {
	gate := NewPlanGate()
	submit := NewSubmitPlanTool(gate)
	if _, err := submit.Execute(map[string]any{"plan": "build the thing"}, nil); err != nil {
		t.Fatalf("submit_plan Execute() error = %v", err)
	}

	var called string
	finish := NewFinishTool(gate, func(summary string) { called = summary })
	if _, err := finish.Execute(map[string]any{"summary": "all done"}, nil); err != nil {
		t.Fatalf("finish Execute() error = %v", err)
	}
	if called != "all done" {
		t.Errorf("onFinish summary = %q, want %q", called, "all done")
	}
}

func TestDeliverProjectAcceptedAfterSubmitPlan(t *testing.T) {
	gate := NewPlanGate()
	submit := NewSubmitPlanTool(gate)
	if _, err := submit.Execute(map[string]any{"plan": "ship it"}, nil); err != nil {
		t.Fatalf("submit_plan Execute() error = %v", err)
	}

	delivered := make(chan string, 1)
	deliver := NewDeliverProjectTool(gate, func(summary string) { delivered <- summary })
	if _, err := deliver.Execute(map[string]any{"summary": "project ready"}, nil); err != nil {
		t.Fatalf("deliver_project Execute() error = %v", err)
	}

	select {
	case summary := <-delivered:
		if summary != "project ready" {
			t.Errorf("delivered summary = %q, want %q", summary, "project ready")
		}
	default:
		t.Fatal("onDeliver callback was never invoked")
	}
}

func TestSubmitPlanMissingPlanErrors(t *testing.T) {
	gate := NewPlanGate()
	submit := NewSubmitPlanTool(gate)
	if _, err := submit.Execute(map[string]any{}, nil); err == nil {
		t.Fatal("expected missing plan argument to error")
	}
	if gate.Complete() {
		t.Error("gate should remain incomplete when submit_plan fails")
	}
}
