// ABOUTME: Agent Runtime: the inbox loop that pulls the next mailbox message and dispatches it.
// ABOUTME: Tasks drive the full LLM-tool loop (agent.ProcessInput); questions get a direct, tool-free LLM answer.
package orchestrator

import (
	"context"
	"log"
	"time"

	"github.com/BillChan226/multiagent-gen/agent"
	"github.com/BillChan226/multiagent-gen/bus"
	"github.com/BillChan226/multiagent-gen/llm"
)

// AgentRuntime drains one agent's mailbox, dispatching each message to the
// LLM loop (tasks) or a direct single-turn reply (questions), and forwards
// updates/feedback/broadcasts into the session as steering input so the next
// tool round can react to them without interrupting work in progress.
type AgentRuntime struct {
	AgentID string
	Bus     *bus.Bus
	Mailbox *bus.Mailbox
	Session *agent.Session
	Profile agent.ProviderProfile
	Env     agent.ExecutionEnvironment
	Client  *llm.Client
	Events  *EventEmitter

	ready chan struct{}
}

// NewAgentRuntime constructs a runtime bound to one agent's bus mailbox. The
// mailbox is registered (and the agent's tools already attached by the
// caller, per Orchestrator.createAgents) before the runtime is constructed,
// so Ready() can close as soon as Run starts draining it.
func NewAgentRuntime(agentID string, b *bus.Bus, session *agent.Session, profile agent.ProviderProfile, env agent.ExecutionEnvironment, client *llm.Client, events *EventEmitter) *AgentRuntime {
	return &AgentRuntime{
		AgentID: agentID,
		Bus:     b,
		Mailbox: b.RegisterAgent(agentID),
		Session: session,
		Profile: profile,
		Env:     env,
		Client:  client,
		Events:  events,
		ready:   make(chan struct{}),
	}
}

// Ready returns a channel that closes once Run has started draining this
// agent's mailbox. The Orchestrator waits on it with a bounded timeout
// during startAgents; a runtime that never becomes ready is treated as a
// fatal boot failure.
func (r *AgentRuntime) Ready() <-chan struct{} {
	return r.ready
}

// Run drains the mailbox until ctx is cancelled, the mailbox is closed, or a
// MessageShutdown is received.
func (r *AgentRuntime) Run(ctx context.Context) {
	close(r.ready)
	for {
		msg, err := r.Mailbox.Pop(ctx)
		if err != nil {
			return
		}
		if msg.Type == bus.MessageShutdown {
			r.emit(EventAgentStatus, map[string]any{"status": string(AgentDone), "message_id": msg.ID, "shutdown": true})
			return
		}
		r.handle(ctx, msg)
	}
}

func (r *AgentRuntime) handle(ctx context.Context, msg bus.Message) {
	r.emit(EventAgentStatus, map[string]any{"status": string(AgentRunning), "message_id": msg.ID})

	switch msg.Type {
	case bus.MessageTask:
		if err := agent.ProcessInput(ctx, r.Session, r.Profile, r.Env, r.Client, msg.Content); err != nil {
			log.Printf("orchestrator: agent %s: task failed: %v", r.AgentID, err)
			r.emit(EventAgentStatus, map[string]any{"status": string(AgentFailed), "error": err.Error()})
			return
		}

	case bus.MessageQuestion:
		answer, err := r.answerQuestion(ctx, msg)
		if err != nil {
			log.Printf("orchestrator: agent %s: failed answering %s: %v", r.AgentID, msg.From, err)
			return
		}
		if msg.CorrelationID != "" {
			r.Bus.Answer(msg.CorrelationID, r.AgentID, answer)
		}

	case bus.MessageUpdate, bus.MessageFeedback, bus.MessageBroadcast:
		r.Session.Steer(msg.Content)

	default:
		r.Session.Steer(msg.Content)
	}

	r.emit(EventAgentStatus, map[string]any{"status": string(AgentWaiting), "message_id": msg.ID})
}

// answerQuestion mirrors the reference implementation's default
// _answer_question: a single tool-free LLM call grounded in the question
// and its context, not the full tool loop a task gets.
func (r *AgentRuntime) answerQuestion(ctx context.Context, msg bus.Message) (string, error) {
	prompt := "You are the " + r.AgentID + " agent.\nAnother agent (" + msg.From + ") asks:\n\n" +
		msg.Content + "\n\nProvide a helpful, concise answer based on your expertise and current work."

	resp, err := r.Client.Complete(ctx, llm.Request{
		Model:    r.Profile.Model(),
		Provider: r.Profile.ID(),
		Messages: []llm.Message{llm.UserMessage(prompt)},
	})
	if err != nil {
		return "", err
	}
	return resp.TextContent(), nil
}

func (r *AgentRuntime) emit(kind EventKind, data map[string]any) {
	if r.Events == nil {
		return
	}
	data["agent_id"] = r.AgentID
	r.Events.Emit(Event{Kind: kind, Timestamp: time.Now(), AgentID: r.AgentID, Data: data})
}
