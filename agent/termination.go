// ABOUTME: Plan-gated termination tools: submit_plan, finish, and deliver_project.
// ABOUTME: finish/deliver_project are rejected with a corrective tool error until a plan has been submitted.

package agent

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/BillChan226/multiagent-gen/llm"
)

// PlanGate tracks whether an agent has submitted a plan via submit_plan.
// finish and deliver_project both check it before allowing termination,
// resolving the reference implementation's ambiguity about whether those
// calls are accepted before a plan exists: here they are rejected outright,
// with a tool-result error telling the model to call submit_plan first.
type PlanGate struct {
	mu       sync.Mutex
	complete bool
	summary  string
}

// NewPlanGate returns a gate in its initial, not-yet-planned state.
func NewPlanGate() *PlanGate {
	return &PlanGate{}
}

// Complete reports whether a plan has been submitted.
func (g *PlanGate) Complete() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.complete
}

func (g *PlanGate) set(summary string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.complete = true
	g.summary = summary
}

// NewSubmitPlanTool creates the submit_plan tool, which flips gate to
// complete so finish/deliver_project become callable.
func NewSubmitPlanTool(gate *PlanGate) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        "submit_plan",
			Description: "Submit your plan before finishing or delivering a project. Must be called once before finish or deliver_project.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"plan": {
						"type": "string",
						"description": "A short plan describing the steps you will take"
					}
				},
				"required": ["plan"]
			}`),
		},
		Description: "Submit a plan, unlocking finish/deliver_project.",
		Category:    CategoryTermination,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			plan, err := getStringArg(args, "plan", true)
			if err != nil {
				return "", err
			}
			gate.set(plan)
			return "Plan recorded. You may now call finish or deliver_project when the work is done.", nil
		},
	}
}

// NewFinishTool creates the finish tool: it ends the current agent's turn
// with a summary, but only once a plan has been submitted. onFinish is
// called with the summary when accepted (may be nil).
func NewFinishTool(gate *PlanGate, onFinish func(summary string)) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        "finish",
			Description: "Signal that the current task is complete.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"summary": {
						"type": "string",
						"description": "Summary of what was accomplished"
					}
				},
				"required": ["summary"]
			}`),
		},
		Description: "Signal that the current task is complete.",
		Category:    CategoryTermination,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			summary, err := getStringArg(args, "summary", true)
			if err != nil {
				return "", err
			}
			if !gate.Complete() {
				return "", fmt.Errorf("finish rejected: call submit_plan before finishing")
			}
			if onFinish != nil {
				onFinish(summary)
			}
			return "Task marked finished.", nil
		},
	}
}

// NewDeliverProjectTool creates the deliver_project tool: the terminal
// signal the Orchestrator waits on for the root "user" agent. Like finish,
// it is rejected until a plan has been submitted.
func NewDeliverProjectTool(gate *PlanGate, onDeliver func(summary string)) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        "deliver_project",
			Description: "Deliver the finished project. Only the coordinating agent should call this, once the project has been built, tested, and is ready to hand off.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"summary": {
						"type": "string",
						"description": "Summary of the delivered project"
					}
				},
				"required": ["summary"]
			}`),
		},
		Description: "Deliver the finished project to the orchestrator.",
		Category:    CategoryTermination,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			summary, err := getStringArg(args, "summary", true)
			if err != nil {
				return "", err
			}
			if !gate.Complete() {
				return "", fmt.Errorf("deliver_project rejected: call submit_plan before delivering")
			}
			if onDeliver != nil {
				onDeliver(summary)
			}
			return "Project delivered.", nil
		},
	}
}
