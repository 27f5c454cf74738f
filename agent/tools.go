// ABOUTME: Tool registry for an orchestrator agent's LLM tool loop: registration, category whitelisting, lookup, and output truncation.
// ABOUTME: Provides ToolRegistry, RegisteredTool, TruncateOutput, and TruncateToolOutput functions.

package agent

import (
	"fmt"
	"strings"
	"sync"

	"github.com/BillChan226/multiagent-gen/llm"
)

// ToolCategory tags a tool with the class of capability it grants, so an
// AgentConfig's category whitelist can filter the tools attached to an
// agent's registry without naming every tool individually.
type ToolCategory string

const (
	CategoryRead          ToolCategory = "read"
	CategoryWrite         ToolCategory = "write"
	CategoryShell         ToolCategory = "shell"
	CategoryProcess       ToolCategory = "process"
	CategoryCommunication ToolCategory = "communication"
	CategoryTermination   ToolCategory = "termination"
)

// RegisteredTool pairs a tool definition with its execute function.
type RegisteredTool struct {
	Definition  llm.ToolDefinition
	Execute     func(args map[string]any, env ExecutionEnvironment) (string, error)
	Description string
	Category    ToolCategory
}

// ToolRegistry manages a thread-safe collection of registered tools, with
// an optional category whitelist: once set, Get/Definitions/Has/Names/Count
// only see tools whose Category is allowed, so a disallowed tool is
// unreachable both from the LLM's tool catalogue and from dispatch.
type ToolRegistry struct {
	tools   map[string]*RegisteredTool
	allowed map[ToolCategory]bool
	mu      sync.RWMutex
}

// NewToolRegistry creates an empty ToolRegistry with no category restriction.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]*RegisteredTool),
	}
}

// SetAllowedCategories restricts the registry to only the given categories.
// Passing nil or an empty slice clears the restriction (all tools visible).
// Mirrors spec.md's "attach tools filtered by the agent's allowed
// categories" step in the Agent Runtime's registration sequence.
func (r *ToolRegistry) SetAllowedCategories(categories []ToolCategory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(categories) == 0 {
		r.allowed = nil
		return
	}
	r.allowed = make(map[ToolCategory]bool, len(categories))
	for _, c := range categories {
		r.allowed[c] = true
	}
}

func (r *ToolRegistry) visible(tool *RegisteredTool) bool {
	if r.allowed == nil {
		return true
	}
	return r.allowed[tool.Category]
}

// Register adds or replaces a tool in the registry. Returns an error if
// the tool's definition has an empty name.
func (r *ToolRegistry) Register(tool *RegisteredTool) error {
	if tool.Definition.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Definition.Name] = tool
	return nil
}

// Unregister removes a tool by name. Returns true if the tool existed.
func (r *ToolRegistry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[name]; ok {
		delete(r.tools, name)
		return true
	}
	return false
}

// Get returns the registered tool with the given name, or nil if not found
// or not in the registry's allowed categories. This is the category
// whitelist's dispatch-time enforcement point: the tool loop calls Get to
// resolve a tool call and a disallowed tool simply isn't found.
func (r *ToolRegistry) Get(name string) *RegisteredTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok || !r.visible(tool) {
		return nil
	}
	return tool
}

// Definitions returns the tool definitions for every allowed registered tool.
func (r *ToolRegistry) Definitions() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]llm.ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		if r.visible(tool) {
			defs = append(defs, tool.Definition)
		}
	}
	return defs
}

// Has returns true if a tool with the given name is registered and allowed.
func (r *ToolRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return ok && r.visible(tool)
}

// Names returns the names of all allowed registered tools.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name, tool := range r.tools {
		if r.visible(tool) {
			names = append(names, name)
		}
	}
	return names
}

// Count returns the number of allowed registered tools.
func (r *ToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, tool := range r.tools {
		if r.visible(tool) {
			n++
		}
	}
	return n
}

// defaultToolLimits maps tool names to their default character limits.
var defaultToolLimits = map[string]int{
	"read_file":  50000,
	"shell":      30000,
	"grep":       20000,
	"glob":       20000,
	"edit_file":  10000,
	"write_file": 1000,
}

// defaultToolModes maps tool names to their truncation mode ("head_tail" or "tail").
var defaultToolModes = map[string]string{
	"read_file":  "head_tail",
	"shell":      "head_tail",
	"grep":       "tail",
	"glob":       "tail",
	"edit_file":  "tail",
	"write_file": "tail",
}

// defaultCharLimit is used for tools not listed in defaultToolLimits.
const defaultCharLimit = 30000

// DefaultLineLimits maps tool names to their default line-count limits.
// A value of 0 means unlimited (no line-based truncation).
var DefaultLineLimits = map[string]int{
	"shell": 256,
	"grep":  200,
	"glob":  500,
}

// TruncateLines truncates output that exceeds maxLines using a head/tail split.
// If maxLines is 0 or the output has fewer lines than maxLines, the output is
// returned unchanged. Otherwise the first half and last half of lines are kept
// with an omission marker in between.
func TruncateLines(output string, maxLines int) string {
	if maxLines <= 0 {
		return output
	}

	lines := strings.Split(output, "\n")
	if len(lines) <= maxLines {
		return output
	}

	headCount := maxLines / 2
	tailCount := maxLines - headCount
	omitted := len(lines) - headCount - tailCount

	return strings.Join(lines[:headCount], "\n") +
		fmt.Sprintf("\n[... %d lines omitted ...]\n", omitted) +
		strings.Join(lines[len(lines)-tailCount:], "\n")
}

// TruncateOutput truncates output that exceeds maxChars using the given mode.
// Supported modes: "head_tail" (keep first half + last half) and "tail" (keep last N chars).
// A truncation warning is inserted at the truncation point.
func TruncateOutput(output string, maxChars int, mode string) string {
	if len(output) <= maxChars {
		return output
	}

	removed := len(output) - maxChars

	if mode == "head_tail" {
		half := maxChars / 2
		return output[:half] +
			fmt.Sprintf("\n\n[WARNING: Tool output was truncated. %d characters were removed from the middle. "+
				"The full output is available in the event stream. "+
				"If you need to see specific parts, re-run the tool with more targeted parameters.]\n\n", removed) +
			output[len(output)-half:]
	}

	// Default to "tail" mode
	return fmt.Sprintf("[WARNING: Tool output was truncated. First %d characters were removed. "+
		"The full output is available in the event stream.]\n\n", removed) +
		output[len(output)-maxChars:]
}

// TruncateToolOutput truncates tool output using per-tool defaults, optionally
// overridden by the limits map. Tools not found in defaults or overrides use
// defaultCharLimit with "tail" mode. Character truncation runs first, then
// line-based truncation is applied for tools that have a configured line limit.
func TruncateToolOutput(output, toolName string, limits map[string]int) string {
	// Determine the character limit: override -> default -> fallback
	maxChars := defaultCharLimit
	if defaultLimit, ok := defaultToolLimits[toolName]; ok {
		maxChars = defaultLimit
	}
	if limits != nil {
		if override, ok := limits[toolName]; ok {
			maxChars = override
		}
	}

	// Determine truncation mode
	mode := "tail"
	if m, ok := defaultToolModes[toolName]; ok {
		mode = m
	}

	// Step 1: Character-based truncation (always runs first)
	result := TruncateOutput(output, maxChars, mode)

	// Step 2: Line-based truncation (runs second for tools with a configured limit)
	if maxLines, ok := DefaultLineLimits[toolName]; ok && maxLines > 0 {
		result = TruncateLines(result, maxLines)
	}

	return result
}
