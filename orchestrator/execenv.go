// ABOUTME: Per-agent ExecutionEnvironment binding a Workspace Manager write-root to the coding agent loop's tool contract.
// ABOUTME: Embeds LocalExecutionEnvironment for everything (exec/grep/glob/list) but routes reads/writes through workspace.Manager.
package orchestrator

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BillChan226/multiagent-gen/agent"
	"github.com/BillChan226/multiagent-gen/workspace"
)

// workspaceExecEnv adapts a role-scoped workspace.Manager view into the
// agent package's ExecutionEnvironment contract: shell/grep/glob/listing
// still run directly against the local filesystem (there's nothing to
// enforce there — a write-root is a file-write boundary, not a shell
// jail), but ReadFile/WriteFile go through the Workspace Manager so
// write-root enforcement and unrestricted reads apply uniformly.
type workspaceExecEnv struct {
	*agent.LocalExecutionEnvironment
	ws      *workspace.Manager
	agentID string
}

// newWorkspaceExecEnv binds agentID's execution environment to ws, rooted
// at the workspace for local shell/grep/glob operations.
func newWorkspaceExecEnv(ws *workspace.Manager, agentID string) *workspaceExecEnv {
	return &workspaceExecEnv{
		LocalExecutionEnvironment: agent.NewLocalExecutionEnvironment(ws.Root()),
		ws:                        ws,
		agentID:                   agentID,
	}
}

// ReadFile reads path (relative to the workspace root) through the
// Workspace Manager, prepending line numbers the same way
// LocalExecutionEnvironment.ReadFile does.
func (e *workspaceExecEnv) ReadFile(path string, offset, limit int) (string, error) {
	content, err := e.ws.ReadFile(relativize(e.ws.Root(), path))
	if err != nil {
		return "", err
	}
	if limit == 0 {
		limit = 2000
	}
	return formatWithLineNumbers(content, offset, limit), nil
}

// WriteFile writes content to path (relative to the workspace root) on
// behalf of the bound agent, enforcing that agent's write-root.
func (e *workspaceExecEnv) WriteFile(path string, content string) error {
	return e.ws.WriteFile(e.agentID, relativize(e.ws.Root(), path), content)
}

// relativize makes an absolute path relative to root if it falls under it;
// otherwise returns path unchanged, letting workspace.Manager reject it.
func relativize(root, path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func formatWithLineNumbers(content string, offset, limit int) string {
	if offset < 1 {
		offset = 1
	}
	lines := strings.Split(content, "\n")
	var b strings.Builder
	end := offset - 1 + limit
	if end > len(lines) {
		end = len(lines)
	}
	for i := offset - 1; i < end; i++ {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\t')
		b.WriteString(lines[i])
		b.WriteByte('\n')
	}
	return b.String()
}
