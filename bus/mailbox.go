// ABOUTME: Per-agent priority FIFO mailbox: URGENT > HIGH > NORMAL > LOW, FIFO within a band.
// ABOUTME: Pop blocks until a message is available, the context is cancelled, or the mailbox is closed.
package bus

import (
	"context"
	"sync"

	"github.com/BillChan226/multiagent-gen/core"
)

// Mailbox holds messages addressed to a single agent, ordered by priority.
type Mailbox struct {
	agentID string

	mu     sync.Mutex
	urgent []Message
	high   []Message
	normal []Message
	low    []Message
	closed bool

	notify chan struct{}
}

// NewMailbox creates an empty mailbox for the given agent.
func NewMailbox(agentID string) *Mailbox {
	return &Mailbox{
		agentID: agentID,
		notify:  make(chan struct{}, 1),
	}
}

// AgentID returns the agent this mailbox belongs to.
func (m *Mailbox) AgentID() string {
	return m.agentID
}

// Push enqueues a message according to its priority. Returns a FatalError if
// the mailbox has been closed.
func (m *Mailbox) Push(msg Message) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return core.NewFatalError("mailbox.Push", "mailbox for "+m.agentID+" is closed", nil)
	}
	switch msg.Priority {
	case PriorityUrgent:
		m.urgent = append(m.urgent, msg)
	case PriorityHigh:
		m.high = append(m.high, msg)
	case PriorityLow:
		m.low = append(m.low, msg)
	default:
		m.normal = append(m.normal, msg)
	}
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return nil
}

// tryPop removes and returns the highest-priority message, if any.
func (m *Mailbox) tryPop() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.urgent) > 0 {
		msg := m.urgent[0]
		m.urgent = m.urgent[1:]
		return msg, true
	}
	if len(m.high) > 0 {
		msg := m.high[0]
		m.high = m.high[1:]
		return msg, true
	}
	if len(m.normal) > 0 {
		msg := m.normal[0]
		m.normal = m.normal[1:]
		return msg, true
	}
	if len(m.low) > 0 {
		msg := m.low[0]
		m.low = m.low[1:]
		return msg, true
	}
	return Message{}, false
}

// Pop blocks until a message is available, the context is cancelled, or the
// mailbox is closed.
func (m *Mailbox) Pop(ctx context.Context) (Message, error) {
	for {
		if msg, ok := m.tryPop(); ok {
			return msg, nil
		}

		m.mu.Lock()
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return Message{}, core.NewFatalError("mailbox.Pop", "mailbox for "+m.agentID+" is closed", nil)
		}

		select {
		case <-m.notify:
			continue
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

// Len returns the total number of queued messages across all priority bands.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urgent) + len(m.high) + len(m.normal) + len(m.low)
}

// Close marks the mailbox closed and wakes any blocked Pop call.
func (m *Mailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}
