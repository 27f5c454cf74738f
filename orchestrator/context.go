// ABOUTME: GenerationContext, AgentConfig, ExecutionConfig, and RunRecord — the shared state a run is built from.
// ABOUTME: Grounded on original_source's GenerationContext/AgentConfig usage inside orchestrator.py's Orchestrator.__init__ and _create_agents.
package orchestrator

import (
	"time"

	"github.com/BillChan226/multiagent-gen/agent"
)

// GenerationContext is the shared, read-mostly state every agent consults:
// the allocated ports for this run and the pre-flight results the
// Orchestrator gathered before dispatching any task.
type GenerationContext struct {
	Name                string
	APIPort             int
	UIPort              int
	DBPort              int
	BackendInternalPort int
	Preflight           PreflightResult
}

// ExecutionConfig bounds one agent's task execution: how long its root task
// may run, and how many times a Transient tool failure is retried.
type ExecutionConfig struct {
	TaskTimeout time.Duration
	MaxRetries  int
}

// AgentConfig names and bounds a single agent's runtime.
type AgentConfig struct {
	AgentID        string
	AgentName      string
	Execution      ExecutionConfig
	IncludeVision  bool
	ToolCategories []agent.ToolCategory
}

// taskTimeouts mirrors orchestrator.py's per-role timeout table: the User
// agent coordinates the whole run and gets the longest budget, the rest get
// enough room for a single phase's worth of file generation.
var taskTimeouts = map[string]time.Duration{
	"user":     2 * time.Hour,
	"design":   time.Hour,
	"database": 30 * time.Minute,
	"backend":  time.Hour,
	"frontend": time.Hour,
	"task":     time.Hour,
}

// visionAgents are the roles that receive reference images (UI mockups),
// mirroring orchestrator.py's `include_vision = agent_id in ["user", "frontend"]`.
var visionAgents = map[string]bool{
	"user":     true,
	"frontend": true,
}

// DefaultAgentRoles is the fixed roster orchestrator.py creates every run.
var DefaultAgentRoles = []string{"user", "design", "database", "backend", "frontend", "task"}

// readOnlyCategories is the tool-category whitelist for roles bound to a
// read-only write-root ("" in writeRoots): they can read, talk to peers, and
// gate termination, but never write files, run shell commands, or supervise
// processes. Mirrors workspace_manager.py's AGENT_WRITE_DIRS split between
// coordinating roles and the roles that actually produce files.
var readOnlyCategories = []agent.ToolCategory{
	agent.CategoryRead,
	agent.CategoryCommunication,
	agent.CategoryTermination,
}

// writerCategories is the whitelist for roles bound to a real write-root:
// full read/write/shell/process access plus communication and termination.
var writerCategories = []agent.ToolCategory{
	agent.CategoryRead,
	agent.CategoryWrite,
	agent.CategoryShell,
	agent.CategoryProcess,
	agent.CategoryCommunication,
	agent.CategoryTermination,
}

// toolCategoriesForRole looks up the category whitelist for role from
// writeRoots: a role with no bound write-root is read-only.
func toolCategoriesForRole(role string) []agent.ToolCategory {
	if root, ok := writeRoots[role]; ok && root == "" {
		return readOnlyCategories
	}
	return writerCategories
}

// NewAgentConfig builds the AgentConfig for role, applying the role's
// task-timeout budget, vision eligibility, and tool-category whitelist.
func NewAgentConfig(role string) AgentConfig {
	timeout, ok := taskTimeouts[role]
	if !ok {
		timeout = 30 * time.Minute
	}
	return AgentConfig{
		AgentID:   role,
		AgentName: titleCase(role) + " Agent",
		Execution: ExecutionConfig{
			TaskTimeout: timeout,
			MaxRetries:  2,
		},
		IncludeVision:  visionAgents[role],
		ToolCategories: toolCategoriesForRole(role),
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// RunRecord is one checkpoint-store row: the state of a generation run at
// its last recorded phase transition. Backs --resume.
type RunRecord struct {
	RunID           string
	Name            string
	Goal            string
	StartedAt       time.Time
	Phase           string
	PhasesCompleted []string
	Outcome         string // "", "success", "failed"
}
