// Package bus is the coordinator's in-process publish/subscribe layer.
// Grounded directly on internal/events/bus.go and internal/events/types.go,
// generalized from a single flat Event type to the message-kind taxonomy
// (direct/broadcast/channel/query/response/notification/task_assignment/
// progress_update/coordination) the coordinator's components address each
// other with.
package bus

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies how a Message is routed.
type Kind string

const (
	KindDirect          Kind = "direct"
	KindBroadcast       Kind = "broadcast"
	KindChannel         Kind = "channel"
	KindQuery           Kind = "query"
	KindResponse        Kind = "response"
	KindNotification    Kind = "notification"
	KindTaskAssignment  Kind = "task_assignment"
	KindProgressUpdate  Kind = "progress_update"
	KindCoordination    Kind = "coordination"
)

// Priority levels, lowest value the most urgent. The Bus carries the value
// on each Message but delivers in publish order regardless of it.
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityNormal   = 3
	PriorityLow      = 4
)

// Message is the unit exchanged over the bus.
type Message struct {
	ID            string                 `json:"id"`
	Kind          Kind                   `json:"kind"`
	From          string                 `json:"from"`
	To            string                 `json:"to,omitempty"`      // direct, query, response, task_assignment
	Channel       string                 `json:"channel,omitempty"` // channel kind
	Priority      int                    `json:"priority"`
	Payload       map[string]interface{} `json:"payload"`
	CorrelationID string                 `json:"correlation_id,omitempty"` // links a response to its query
	CreatedAt     time.Time              `json:"created_at"`
}

// NewMessage stamps a message with a fresh id and timestamp.
func NewMessage(kind Kind, from, to string, priority int, payload map[string]interface{}) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Kind:      kind,
		From:      from,
		To:        to,
		Priority:  priority,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}
