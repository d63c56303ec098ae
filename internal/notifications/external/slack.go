package external

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hive-mind/coordinator/internal/types"
)

// SlackConfig holds configuration for Slack notifications
type SlackConfig struct {
	WebhookURL  string                 `json:"webhook_url"`
	Channel     string                 `json:"channel,omitempty"`
	Username    string                 `json:"username,omitempty"`
	IconEmoji   string                 `json:"icon_emoji,omitempty"`
	EventTypes  []types.SystemEventType `json:"event_types,omitempty"`
	MinPriority int                    `json:"min_priority,omitempty"`
}

// SlackNotifier sends notifications to Slack via webhooks
type SlackNotifier struct {
	config SlackConfig
	client *http.Client
}

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config: config,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the notifier name
func (s *SlackNotifier) Name() string {
	return "slack"
}

// ShouldNotify checks if the event should trigger a notification
func (s *SlackNotifier) ShouldNotify(event types.SystemEvent) bool {
	severity := types.EventSeverity(event.Type)
	if s.config.MinPriority > 0 && severity > s.config.MinPriority {
		return false
	}

	if len(s.config.EventTypes) > 0 {
		found := false
		for _, et := range s.config.EventTypes {
			if event.Type == et {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// Send sends a notification to Slack
func (s *SlackNotifier) Send(event types.SystemEvent) error {
	if s.config.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL not configured")
	}

	severity := types.EventSeverity(event.Type)
	color := "good"
	if severity == types.SeverityCritical {
		color = "danger"
	} else if severity == types.SeverityHigh {
		color = "warning"
	}

	fields := []map[string]interface{}{
		{
			"title": "Type",
			"value": string(event.Type),
			"short": true,
		},
		{
			"title": "Source",
			"value": event.Source,
			"short": true,
		},
		{
			"title": "Severity",
			"value": severityString(severity),
			"short": true,
		},
	}

	for k, v := range event.Payload {
		fields = append(fields, map[string]interface{}{
			"title": k,
			"value": fmt.Sprintf("%v", v),
			"short": false,
		})
	}

	payload := map[string]interface{}{
		"text": fmt.Sprintf("Event: %s@%s", event.Type, event.Source),
		"attachments": []map[string]interface{}{
			{
				"color":  color,
				"title":  fmt.Sprintf("%s Event", event.Type),
				"fields": fields,
				"ts":     time.UnixMilli(event.Timestamp).Unix(),
			},
		},
	}

	if s.config.Channel != "" {
		payload["channel"] = s.config.Channel
	}
	if s.config.Username != "" {
		payload["username"] = s.config.Username
	}
	if s.config.IconEmoji != "" {
		payload["icon_emoji"] = s.config.IconEmoji
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := s.client.Post(s.config.WebhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send slack notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	return nil
}

// severityString converts a types.Severity* constant to a display string
func severityString(severity int) string {
	switch severity {
	case types.SeverityCritical:
		return "Critical"
	case types.SeverityHigh:
		return "High"
	case types.SeverityNormal:
		return "Normal"
	case types.SeverityLow:
		return "Low"
	default:
		return fmt.Sprintf("Unknown (%d)", severity)
	}
}
