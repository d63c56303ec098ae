package types

import "time"

// SystemEventType enumerates the event types delivered through subscribe().
type SystemEventType string

const (
	EventAgentSpawned  SystemEventType = "agent_spawned"
	EventAgentRetired  SystemEventType = "agent_retired"
	EventTaskCreated   SystemEventType = "task_created"
	EventTaskAssigned  SystemEventType = "task_assigned"
	EventTaskProgress  SystemEventType = "task_progress"
	EventTaskCompleted SystemEventType = "task_completed"
	EventTaskFailed    SystemEventType = "task_failed"
	EventDecisionOpen  SystemEventType = "decision_open"
	EventDecisionClose SystemEventType = "decision_closed"
	EventMemoryStored  SystemEventType = "memory_stored"
	EventErrorOccurred SystemEventType = "error_occurred"
	EventDegraded      SystemEventType = "degraded"
)

// SystemEvent is the JSON shape emitted to subscribers and, optionally,
// mirrored onto NATS subjects. Timestamp is milliseconds since the Unix
// epoch.
type SystemEvent struct {
	Type      SystemEventType        `json:"type"`
	Source    string                 `json:"source"`
	Timestamp int64                  `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// NewSystemEvent stamps the current time in epoch milliseconds.
func NewSystemEvent(t SystemEventType, source string, payload map[string]interface{}) SystemEvent {
	return SystemEvent{
		Type:      t,
		Source:    source,
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}
}

// Severity levels used to rank SystemEvents for external notification
// channels (Slack/Discord/email). A lower number is more severe; a channel
// with MinPriority set drops events whose severity number exceeds it.
const (
	SeverityLow      = 4
	SeverityNormal   = 3
	SeverityHigh     = 2
	SeverityCritical = 1
)

// EventSeverity classifies a SystemEventType so channels that only care
// about "anything above normal" don't need to enumerate every event type.
func EventSeverity(t SystemEventType) int {
	switch t {
	case EventErrorOccurred, EventDegraded, EventTaskFailed:
		return SeverityCritical
	case EventDecisionOpen, EventDecisionClose:
		return SeverityHigh
	case EventAgentSpawned, EventAgentRetired, EventTaskCreated, EventTaskAssigned, EventTaskCompleted, EventMemoryStored:
		return SeverityNormal
	case EventTaskProgress:
		return SeverityLow
	default:
		return SeverityNormal
	}
}
