// ABOUTME: Run-level event stream for observing an orchestrator run from outside (TUI, logs, dashboards).
// ABOUTME: Mirrors the agent package's EventEmitter shape, carrying orchestrator/agent/process lifecycle events instead of session events.
package orchestrator

import (
	"sync"
	"time"
)

// EventKind discriminates the type of run event.
type EventKind string

const (
	EventRunStarted       EventKind = "run_started"
	EventRunCompleted     EventKind = "run_completed"
	EventRunFailed        EventKind = "run_failed"
	EventAgentSpawned     EventKind = "agent_spawned"
	EventAgentStatus      EventKind = "agent_status"
	EventAgentToolCall    EventKind = "agent_tool_call"
	EventAgentMessage     EventKind = "agent_message"
	EventProcessStarted   EventKind = "process_started"
	EventProcessExited    EventKind = "process_exited"
	EventCheckpointSaved  EventKind = "checkpoint_saved"
	EventPreflightFailed  EventKind = "preflight_failed"
	EventDeliveryReceived EventKind = "delivery_received"
)

// AgentStatus is the lifecycle state of a single agent, tracked for display
// purposes by subscribers such as the TUI.
type AgentStatus string

const (
	AgentPending AgentStatus = "pending"
	AgentRunning AgentStatus = "running"
	AgentWaiting AgentStatus = "waiting"
	AgentDone    AgentStatus = "done"
	AgentFailed  AgentStatus = "failed"
)

// Event represents a single observable occurrence during a run.
type Event struct {
	Kind      EventKind
	Timestamp time.Time
	AgentID   string
	Data      map[string]any
}

// EventEmitter delivers run events to subscribed channels. Non-blocking:
// a slow subscriber drops events rather than stalling the run.
type EventEmitter struct {
	mu          sync.RWMutex
	subscribers []chan Event
	closed      bool
}

// NewEventEmitter creates a new EventEmitter.
func NewEventEmitter() *EventEmitter {
	return &EventEmitter{subscribers: make([]chan Event, 0)}
}

// Subscribe registers a new subscriber channel, buffered to 64 events.
func (e *EventEmitter) Subscribe() <-chan Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(chan Event, 64)
	e.subscribers = append(e.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (e *EventEmitter) Unsubscribe(ch <-chan Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, sub := range e.subscribers {
		if (<-chan Event)(sub) == ch {
			close(sub)
			e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
			return
		}
	}
}

// Emit sends an event to all subscribers, dropping it for any whose buffer is full.
func (e *EventEmitter) Emit(event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}
	for _, ch := range e.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close closes the emitter and all subscriber channels.
func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, ch := range e.subscribers {
		close(ch)
	}
	e.subscribers = nil
}
