// ABOUTME: Tools binding the Process Manager (dev servers, docker compose, test runners) into the tool loop.
// ABOUTME: start_process/stop_process/interrupt_process/wait_process/process_status/process_output/list_processes/cleanup_port.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/BillChan226/multiagent-gen/llm"
	"github.com/BillChan226/multiagent-gen/process"
)

// NewStartProcessTool creates the start_process tool: launches and
// supervises a long-running command (a dev server, `docker compose up`, a
// test runner) via the shared process.Manager.
func NewStartProcessTool(manager *process.Manager, cwd string) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        "start_process",
			Description: "Start and supervise a long-running process (server, container, background task).",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"name": {"type": "string", "description": "Logical name to refer to this process by later"},
					"command": {"type": "string", "description": "Command to execute"},
					"args": {"type": "array", "items": {"type": "string"}, "description": "Command arguments"},
					"port": {"type": "integer", "description": "Port the process is expected to bind, checked free before start"},
					"timeout_seconds": {"type": "integer", "description": "Kill the process if it outlives this many seconds (0 = no timeout)"}
				},
				"required": ["name", "command"]
			}`),
		},
		Description: "Start a supervised background process.",
		Category:    CategoryProcess,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			name, err := getStringArg(args, "name", true)
			if err != nil {
				return "", err
			}
			command, err := getStringArg(args, "command", true)
			if err != nil {
				return "", err
			}
			var cmdArgs []string
			if raw, ok := args["args"].([]any); ok {
				for _, a := range raw {
					if s, ok := a.(string); ok {
						cmdArgs = append(cmdArgs, s)
					}
				}
			}
			port, err := getIntArg(args, "port", 0)
			if err != nil {
				return "", err
			}
			timeoutSeconds, err := getIntArg(args, "timeout_seconds", 0)
			if err != nil {
				return "", err
			}

			record, err := manager.Start(command, cmdArgs, cwd, process.StartOptions{
				Name:    name,
				Port:    port,
				Timeout: time.Duration(timeoutSeconds) * time.Second,
			})
			if err != nil {
				return "", err
			}

			result := map[string]any{"pid": record.PID, "name": record.Name, "status": string(record.Status)}
			out, _ := json.Marshal(result)
			return string(out), nil
		},
	}
}

// NewStopProcessTool creates the stop_process tool.
func NewStopProcessTool(manager *process.Manager) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        "stop_process",
			Description: "Stop a supervised process by name, sending SIGTERM then SIGKILL after a grace period.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"name": {"type": "string", "description": "Logical name the process was started with"},
					"force": {"type": "boolean", "description": "Skip the grace period and kill immediately"}
				},
				"required": ["name"]
			}`),
		},
		Description: "Stop a supervised process.",
		Category:    CategoryProcess,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			name, err := getStringArg(args, "name", true)
			if err != nil {
				return "", err
			}
			force, err := getBoolArg(args, "force", false)
			if err != nil {
				return "", err
			}
			if err := manager.Stop(name, force); err != nil {
				return "", err
			}
			return fmt.Sprintf("Stopped process %q.", name), nil
		},
	}
}

// NewInterruptProcessTool creates the interrupt_process tool: sends SIGINT,
// for processes that handle it gracefully (e.g. a dev server's reload hook)
// rather than terminating outright.
func NewInterruptProcessTool(manager *process.Manager) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        "interrupt_process",
			Description: "Send an interrupt signal (SIGINT) to a supervised process by name.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"name": {"type": "string", "description": "Logical name the process was started with"}
				},
				"required": ["name"]
			}`),
		},
		Description: "Interrupt a supervised process.",
		Category:    CategoryProcess,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			name, err := getStringArg(args, "name", true)
			if err != nil {
				return "", err
			}
			if err := manager.Interrupt(name); err != nil {
				return "", err
			}
			return fmt.Sprintf("Interrupted process %q.", name), nil
		},
	}
}

// NewWaitProcessTool creates the wait_process tool: blocks until a
// supervised process exits or the given timeout elapses.
func NewWaitProcessTool(manager *process.Manager) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        "wait_process",
			Description: "Block until a supervised process exits or a timeout elapses.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"name": {"type": "string", "description": "Logical name the process was started with"},
					"timeout_seconds": {"type": "integer", "description": "Give up and report a timeout after this many seconds (0 = wait indefinitely)"}
				},
				"required": ["name"]
			}`),
		},
		Description: "Wait for a supervised process to exit.",
		Category:    CategoryProcess,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			name, err := getStringArg(args, "name", true)
			if err != nil {
				return "", err
			}
			timeoutSeconds, err := getIntArg(args, "timeout_seconds", 0)
			if err != nil {
				return "", err
			}
			exitCode, timedOut, err := manager.Wait(name, time.Duration(timeoutSeconds)*time.Second)
			if err != nil {
				return "", err
			}
			if timedOut {
				return fmt.Sprintf("Timed out waiting for process %q to exit.", name), nil
			}
			return fmt.Sprintf("Process %q exited with code %d.", name, exitCode), nil
		},
	}
}

// NewProcessStatusTool creates the process_status tool.
func NewProcessStatusTool(manager *process.Manager) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        "process_status",
			Description: "Check the lifecycle status of a supervised process by name.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"name": {"type": "string", "description": "Logical name the process was started with"}
				},
				"required": ["name"]
			}`),
		},
		Description: "Check a supervised process's status.",
		Category:    CategoryProcess,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			name, err := getStringArg(args, "name", true)
			if err != nil {
				return "", err
			}
			record, ok := manager.StatusByName(name)
			if !ok {
				return "", fmt.Errorf("no process named %q", name)
			}
			result := map[string]any{
				"name": record.Name, "pid": record.PID, "status": string(record.Status),
				"exit_code": record.ExitCode, "has_exit_code": record.HasExitCode,
			}
			out, _ := json.Marshal(result)
			return string(out), nil
		},
	}
}

// NewProcessOutputTool creates the process_output tool, returning the
// captured ring buffer of combined stdout/stderr for a supervised process.
func NewProcessOutputTool(manager *process.Manager) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        "process_output",
			Description: "Read the captured output (up to the last 500 lines) of a supervised process.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"name": {"type": "string", "description": "Logical name the process was started with"}
				},
				"required": ["name"]
			}`),
		},
		Description: "Read a supervised process's captured output.",
		Category:    CategoryProcess,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			name, err := getStringArg(args, "name", true)
			if err != nil {
				return "", err
			}
			lines, err := manager.Output(name)
			if err != nil {
				return "", err
			}
			return strings.Join(lines, "\n"), nil
		},
	}
}

// NewListProcessesTool creates the list_processes tool.
func NewListProcessesTool(manager *process.Manager) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        "list_processes",
			Description: "List every process currently tracked by the supervisor.",
			Parameters: json.RawMessage(`{"type": "object", "properties": {}}`),
		},
		Description: "List all tracked processes.",
		Category:    CategoryProcess,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			records := manager.List()
			summaries := make([]map[string]any, 0, len(records))
			for _, r := range records {
				summaries = append(summaries, map[string]any{
					"name": r.Name, "pid": r.PID, "status": string(r.Status), "port": r.Port,
				})
			}
			out, _ := json.Marshal(summaries)
			return string(out), nil
		},
	}
}

// NewCleanupPortTool creates the cleanup_port tool, killing whatever still
// holds a port so a stale process from a previous run doesn't block a retry.
func NewCleanupPortTool(manager *process.Manager) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        "cleanup_port",
			Description: "Free a port by stopping the supervised process bound to it, or killing whatever external process holds it.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"port": {"type": "integer", "description": "Port to free"}
				},
				"required": ["port"]
			}`),
		},
		Description: "Free a port.",
		Category:    CategoryProcess,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			port, err := getIntArg(args, "port", 0)
			if err != nil {
				return "", err
			}
			if port == 0 {
				return "", fmt.Errorf("missing required parameter: port")
			}
			manager.CleanupPort(context.Background(), port)
			return fmt.Sprintf("Cleaned up port %d.", port), nil
		},
	}
}

// RegisterProcessTools registers the full Process Manager tool set into registry.
func RegisterProcessTools(registry *ToolRegistry, manager *process.Manager, cwd string) error {
	tools := []*RegisteredTool{
		NewStartProcessTool(manager, cwd),
		NewStopProcessTool(manager),
		NewInterruptProcessTool(manager),
		NewWaitProcessTool(manager),
		NewProcessStatusTool(manager),
		NewProcessOutputTool(manager),
		NewListProcessesTool(manager),
		NewCleanupPortTool(manager),
	}
	for _, t := range tools {
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}
