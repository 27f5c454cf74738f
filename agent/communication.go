// ABOUTME: Peer-to-peer communication tools (ask_agent, tell_agent, broadcast, get_agents) bound to the message bus.
// ABOUTME: Ported from communication_tools.py: agents reach each other only by ID through the bus, never by direct reference.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BillChan226/multiagent-gen/bus"
	"github.com/BillChan226/multiagent-gen/llm"
)

// AgentDescriptor is the roster entry a peer sees when deciding who to ask.
type AgentDescriptor struct {
	ID   string
	Name string
	Role string
}

// Roster is the set of agents a given agent may communicate with, keyed by ID.
type Roster map[string]AgentDescriptor

// canTalkTo reports whether selfID may address to: to must be a known,
// distinct agent. Mirrors EnvGenAgent.can_talk_to.
func (r Roster) canTalkTo(selfID, to string) bool {
	if to == selfID {
		return false
	}
	_, ok := r[to]
	return ok
}

// others lists every agent ID in the roster except selfID, sorted for
// deterministic tool output.
func (r Roster) others(selfID string) []string {
	out := make([]string, 0, len(r))
	for id := range r {
		if id != selfID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func unknownAgentError(agentID string, roster Roster, selfID string) string {
	return fmt.Sprintf("Error: cannot communicate with '%s'. Available agents: %v", agentID, roster.others(selfID))
}

// NewAskAgentTool creates the ask_agent tool: a blocking question to another
// agent, correlated through the bus and bounded by timeout.
func NewAskAgentTool(b *bus.Bus, selfID string, roster Roster, timeout time.Duration) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name: "ask_agent",
			Description: "Ask another agent a question and block for their response. Use this when you " +
				"need information from another agent's domain (design, database, backend, frontend, user).",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"agent_id": {"type": "string", "description": "Target agent to ask"},
					"question": {"type": "string", "description": "Your question for the agent"}
				},
				"required": ["agent_id", "question"]
			}`),
		},
		Description: "Ask another agent a question and wait for their response.",
		Category:    CategoryCommunication,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			agentID, err := getStringArg(args, "agent_id", true)
			if err != nil {
				return "", err
			}
			question, err := getStringArg(args, "question", true)
			if err != nil {
				return "", err
			}
			if !roster.canTalkTo(selfID, agentID) {
				return unknownAgentError(agentID, roster, selfID), nil
			}

			answer, err := b.Ask(context.Background(), selfID, agentID, question, nil, timeout)
			if err != nil {
				return fmt.Sprintf("Error communicating with %s: %s", agentID, err.Error()), nil
			}
			return fmt.Sprintf("Response from %s: %s", agentID, answer), nil
		},
	}
}

// NewTellAgentTool creates the tell_agent tool: a fire-and-forget notification.
func NewTellAgentTool(b *bus.Bus, selfID string, roster Roster) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        "tell_agent",
			Description: "Send a one-way notification to another agent. No response is expected.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"agent_id": {"type": "string", "description": "Target agent"},
					"message": {"type": "string", "description": "The message to send"}
				},
				"required": ["agent_id", "message"]
			}`),
		},
		Description: "Send a one-way message to another agent.",
		Category:    CategoryCommunication,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			agentID, err := getStringArg(args, "agent_id", true)
			if err != nil {
				return "", err
			}
			message, err := getStringArg(args, "message", true)
			if err != nil {
				return "", err
			}
			if !roster.canTalkTo(selfID, agentID) {
				return unknownAgentError(agentID, roster, selfID), nil
			}

			if err := b.Tell(selfID, agentID, message, bus.MessageUpdate, nil); err != nil {
				return fmt.Sprintf("Error sending message to %s: %s", agentID, err.Error()), nil
			}
			return fmt.Sprintf("Message sent to %s: %q", agentID, message), nil
		},
	}
}

// NewBroadcastTool creates the broadcast tool: fan-out to every other agent.
func NewBroadcastTool(b *bus.Bus, selfID string, roster Roster) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        "broadcast",
			Description: "Broadcast a message to all other agents. Use for milestones and system-wide updates.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"message": {"type": "string", "description": "The message to broadcast"}
				},
				"required": ["message"]
			}`),
		},
		Description: "Broadcast a message to all other agents.",
		Category:    CategoryCommunication,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			message, err := getStringArg(args, "message", true)
			if err != nil {
				return "", err
			}

			recipients := roster.others(selfID)
			b.Broadcast(selfID, message, bus.MessageBroadcast, nil, []string{selfID})
			return fmt.Sprintf("Broadcast sent to %d agents: %s", len(recipients), strings.Join(recipients, ", ")), nil
		},
	}
}

// NewGetAgentsTool creates the get_agents tool: roster introspection.
func NewGetAgentsTool(selfID string, roster Roster) *RegisteredTool {
	return &RegisteredTool{
		Definition: llm.ToolDefinition{
			Name:        "get_agents",
			Description: "List the agents you can communicate with, or get details on one.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"agent_id": {"type": "string", "description": "Optional specific agent ID for details"}
				}
			}`),
		},
		Description: "Get information about available agents.",
		Category:    CategoryCommunication,
		Execute: func(args map[string]any, env ExecutionEnvironment) (string, error) {
			agentID, _ := getStringArg(args, "agent_id", false)
			if agentID != "" {
				info, ok := roster[agentID]
				if !ok {
					return fmt.Sprintf("Agent '%s' not found", agentID), nil
				}
				return fmt.Sprintf("Agent '%s':\n  Name: %s\n  Role: %s", info.ID, info.Name, info.Role), nil
			}

			ids := roster.others(selfID)
			if len(ids) == 0 {
				return "No other agents available", nil
			}
			lines := []string{"Available agents:"}
			for _, id := range ids {
				lines = append(lines, fmt.Sprintf("  - %s: %s", id, roster[id].Role))
			}
			return strings.Join(lines, "\n"), nil
		},
	}
}

// RegisterCommunicationTools registers all four peer-messaging tools for
// selfID against registry, bound to b and scoped to roster.
func RegisterCommunicationTools(registry *ToolRegistry, b *bus.Bus, selfID string, roster Roster, askTimeout time.Duration) error {
	tools := []*RegisteredTool{
		NewAskAgentTool(b, selfID, roster, askTimeout),
		NewTellAgentTool(b, selfID, roster),
		NewBroadcastTool(b, selfID, roster),
		NewGetAgentsTool(selfID, roster),
	}
	for _, t := range tools {
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}
