// ABOUTME: Pre-flight host checks run before any agent is dispatched: container runtime, JS runtime, port availability.
// ABOUTME: Ported from orchestrator.py's _preflight_check; a missing runtime is reported (EventPreflightFailed) and the run continues.
package orchestrator

import (
	"context"
	"os/exec"
	"time"

	"github.com/BillChan226/multiagent-gen/process"
)

// ToolCheck is the outcome of probing for one external binary.
type ToolCheck struct {
	Available bool
	Message   string
}

// PreflightResult is the outcome of the pre-flight sequence, stored on the
// GenerationContext so agents can consult it (e.g. before attempting a
// docker-compose based test run).
type PreflightResult struct {
	ContainerRuntime ToolCheck
	JSRuntime        ToolCheck
	BlockedPorts     []int
}

// OK reports whether both runtimes are available and no requested port is blocked.
func (r PreflightResult) OK() bool {
	return r.ContainerRuntime.Available && r.JSRuntime.Available && len(r.BlockedPorts) == 0
}

// RunPreflight probes for a container runtime ("docker info"), a JS runtime
// ("node --version"), and whether any of candidatePorts is already bound.
func RunPreflight(ctx context.Context, candidatePorts []int) PreflightResult {
	result := PreflightResult{
		ContainerRuntime: checkCommand(ctx, "docker daemon", "docker", []string{"info"}),
		JSRuntime:        checkCommand(ctx, "Node.js", "node", []string{"--version"}),
	}

	seen := make(map[int]bool)
	for _, port := range candidatePorts {
		if seen[port] {
			continue
		}
		seen[port] = true
		if !process.PortFree(port) {
			result.BlockedPorts = append(result.BlockedPorts, port)
		}
	}

	return result
}

func checkCommand(ctx context.Context, label, name string, args []string) ToolCheck {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		if _, ok := err.(*exec.Error); ok {
			return ToolCheck{Available: false, Message: label + " not installed"}
		}
		if ctx.Err() == context.DeadlineExceeded {
			return ToolCheck{Available: false, Message: label + " check timed out"}
		}
		return ToolCheck{Available: false, Message: label + " check failed: " + err.Error()}
	}
	return ToolCheck{Available: true, Message: label + " " + firstLine(out)}
}

func firstLine(out []byte) string {
	for i, b := range out {
		if b == '\n' {
			return string(out[:i])
		}
	}
	return string(out)
}
