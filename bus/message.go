// ABOUTME: Message and priority/type definitions for inter-agent communication.
// ABOUTME: Messages carry a ULID-based ID and, for question/answer pairs, a correlation ID.
package bus

import (
	"time"

	"github.com/BillChan226/multiagent-gen/core"
)

// MessagePriority orders delivery within a Mailbox. Higher-priority messages
// are always popped before lower-priority ones; FIFO order holds within a band.
type MessagePriority int

const (
	PriorityLow MessagePriority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

// MessageType discriminates the purpose of a Message.
type MessageType string

const (
	MessageTask         MessageType = "task"
	MessageQuestion     MessageType = "question"
	MessageAnswer       MessageType = "answer"
	MessageUpdate       MessageType = "update"
	MessageRequest      MessageType = "request"
	MessageFeedback     MessageType = "feedback"
	MessageBroadcast    MessageType = "broadcast"
	MessageStatus       MessageType = "status"
	MessageNotification MessageType = "notification"
	MessageShutdown     MessageType = "shutdown"
)

// Message is a single unit of inter-agent communication routed through the Bus.
type Message struct {
	ID            string
	From          string
	To            string
	Type          MessageType
	Priority      MessagePriority
	Content       string
	Context       map[string]any
	CorrelationID string
	Timestamp     time.Time
}

// newMessage stamps a Message with a fresh ULID and the current time.
func newMessage(from, to string, typ MessageType, priority MessagePriority, content string, context map[string]any) Message {
	return Message{
		ID:        core.NewULID(),
		From:      from,
		To:        to,
		Type:      typ,
		Priority:  priority,
		Content:   content,
		Context:   context,
		Timestamp: time.Now(),
	}
}
