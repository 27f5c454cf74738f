// ABOUTME: Message Bus: per-agent mailbox registry, topic pub/sub, and ask/tell/broadcast
// ABOUTME: request/response correlation keyed by ULID with deadline-driven cleanup of stale requests.
package bus

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/BillChan226/multiagent-gen/core"
)

// DefaultAskTimeout is used by Ask callers that don't specify their own deadline.
const DefaultAskTimeout = 60 * time.Second

// sweepInterval controls how often the Bus checks for expired pending requests
// whose Ask caller may have abandoned without reading the timeout itself.
const sweepInterval = 5 * time.Second

type pendingRequest struct {
	ch       chan Message
	deadline time.Time
}

// Bus routes messages between agent mailboxes and supports blocking
// request/response correlation via Ask/Answer.
type Bus struct {
	mu        sync.RWMutex
	mailboxes map[string]*Mailbox
	topics    map[string][]chan Message
	pending   map[string]*pendingRequest

	stopSweep chan struct{}
	sweepOnce sync.Once
}

// NewBus creates a Bus and starts its background sweeper goroutine.
func NewBus() *Bus {
	b := &Bus{
		mailboxes: make(map[string]*Mailbox),
		topics:    make(map[string][]chan Message),
		pending:   make(map[string]*pendingRequest),
		stopSweep: make(chan struct{}),
	}
	go b.sweepLoop()
	return b
}

// RegisterAgent creates and returns a mailbox for agentID, or returns the
// existing one if already registered.
func (b *Bus) RegisterAgent(agentID string) *Mailbox {
	b.mu.Lock()
	defer b.mu.Unlock()
	if mb, ok := b.mailboxes[agentID]; ok {
		return mb
	}
	mb := NewMailbox(agentID)
	b.mailboxes[agentID] = mb
	return mb
}

// Mailbox returns the mailbox for agentID, if registered.
func (b *Bus) Mailbox(agentID string) (*Mailbox, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	mb, ok := b.mailboxes[agentID]
	return mb, ok
}

// Agents returns the IDs of all currently registered agents.
func (b *Bus) Agents() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, 0, len(b.mailboxes))
	for id := range b.mailboxes {
		ids = append(ids, id)
	}
	return ids
}

// Send delivers msg to its To mailbox. Returns a BadRequestError if the
// target agent isn't registered.
func (b *Bus) Send(msg Message) error {
	mb, ok := b.Mailbox(msg.To)
	if !ok {
		return core.NewBadRequestError("bus.Send", "unknown agent: "+msg.To, nil)
	}
	return mb.Push(msg)
}

// Tell sends a one-shot, fire-and-forget message to a single agent.
func (b *Bus) Tell(from, to, content string, msgType MessageType, context map[string]any) error {
	if msgType == "" {
		msgType = MessageUpdate
	}
	msg := newMessage(from, to, msgType, PriorityNormal, content, context)
	return b.Send(msg)
}

// Broadcast fans a message out to every registered agent except from and any
// IDs in exclude.
func (b *Bus) Broadcast(from, content string, msgType MessageType, context map[string]any, exclude []string) {
	if msgType == "" {
		msgType = MessageBroadcast
	}
	skip := make(map[string]bool, len(exclude)+1)
	skip[from] = true
	for _, id := range exclude {
		skip[id] = true
	}

	for _, id := range b.Agents() {
		if skip[id] {
			continue
		}
		msg := newMessage(from, id, msgType, PriorityNormal, content, context)
		if err := b.Send(msg); err != nil {
			log.Printf("bus: broadcast from %s to %s dropped: %v", from, id, err)
		}
	}
}

// Shutdown delivers an urgent MessageShutdown to agentID, jumping ahead of
// any already-queued lower-priority traffic in its mailbox so the agent's
// inbox loop observes it promptly. Returns a BadRequestError if agentID
// isn't registered.
func (b *Bus) Shutdown(from, agentID string) error {
	msg := newMessage(from, agentID, MessageShutdown, PriorityUrgent, "shutdown requested", nil)
	return b.Send(msg)
}

// Ask sends a blocking question to target and waits for a correlated Answer,
// a context cancellation, or the timeout to elapse. timeout <= 0 uses
// DefaultAskTimeout.
func (b *Bus) Ask(ctx context.Context, from, to, question string, context map[string]any, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultAskTimeout
	}

	msg := newMessage(from, to, MessageQuestion, PriorityNormal, question, context)
	msg.CorrelationID = msg.ID

	respCh := make(chan Message, 1)
	deadline := time.Now().Add(timeout)

	b.mu.Lock()
	b.pending[msg.CorrelationID] = &pendingRequest{ch: respCh, deadline: deadline}
	b.mu.Unlock()

	if err := b.Send(msg); err != nil {
		b.clearPending(msg.CorrelationID)
		return "", err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-respCh:
		return resp.Content, nil
	case <-timer.C:
		b.clearPending(msg.CorrelationID)
		return "", core.NewTimeoutError("bus.Ask", "timed out waiting for "+to+" to answer", nil)
	case <-ctx.Done():
		b.clearPending(msg.CorrelationID)
		return "", ctx.Err()
	}
}

// Answer resolves a pending Ask by correlation ID. If the correlation is
// unknown (already timed out, already answered, or never existed) the answer
// is discarded and logged rather than delivered, matching the mailbox's
// one-shot rendezvous contract.
func (b *Bus) Answer(correlationID, from, answer string) {
	b.mu.Lock()
	pr, ok := b.pending[correlationID]
	if ok {
		delete(b.pending, correlationID)
	}
	b.mu.Unlock()

	if !ok {
		log.Printf("bus: discarding late or unknown answer for correlation %s from %s", correlationID, from)
		return
	}

	resp := Message{
		ID:            core.NewULID(),
		From:          from,
		Type:          MessageAnswer,
		Content:       answer,
		CorrelationID: correlationID,
		Timestamp:     time.Now(),
	}
	select {
	case pr.ch <- resp:
	default:
	}
}

func (b *Bus) clearPending(correlationID string) {
	b.mu.Lock()
	delete(b.pending, correlationID)
	b.mu.Unlock()
}

// sweepLoop periodically evicts pending requests past their deadline whose
// Ask caller may have stopped listening (e.g. its own context was already
// cancelled through another path).
func (b *Bus) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.sweepExpired()
		case <-b.stopSweep:
			return
		}
	}
}

func (b *Bus) sweepExpired() {
	now := time.Now()
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, pr := range b.pending {
		if now.After(pr.deadline) {
			delete(b.pending, id)
		}
	}
}

// PendingCount returns the number of in-flight Ask correlations (test/diagnostic use).
func (b *Bus) PendingCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.pending)
}

// Subscribe registers a topic listener, buffered to 64 messages.
func (b *Bus) Subscribe(topic string) <-chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Message, 64)
	b.topics[topic] = append(b.topics[topic], ch)
	return ch
}

// Publish sends msg to every subscriber of topic. Non-blocking: a slow
// subscriber drops the message rather than stalling the publisher.
func (b *Bus) Publish(topic string, msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.topics[topic] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Close stops the sweeper and closes every registered mailbox.
func (b *Bus) Close() {
	b.sweepOnce.Do(func() { close(b.stopSweep) })

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, mb := range b.mailboxes {
		mb.Close()
	}
	for _, chans := range b.topics {
		for _, ch := range chans {
			close(ch)
		}
	}
	b.topics = make(map[string][]chan Message)
}
