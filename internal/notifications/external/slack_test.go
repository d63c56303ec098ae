package external

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hive-mind/coordinator/internal/types"
)

func TestSlackNotifier_Name(t *testing.T) {
	notifier := NewSlackNotifier(SlackConfig{})
	if notifier.Name() != "slack" {
		t.Errorf("expected name 'slack', got '%s'", notifier.Name())
	}
}

func TestSlackNotifier_ShouldNotify(t *testing.T) {
	tests := []struct {
		name     string
		config   SlackConfig
		event    types.SystemEvent
		expected bool
	}{
		{
			name:     "no filters - should notify",
			config:   SlackConfig{},
			event:    types.SystemEvent{Type: types.EventDegraded},
			expected: true,
		},
		{
			name: "priority filter - event too low severity",
			config: SlackConfig{
				MinPriority: types.SeverityHigh,
			},
			event:    types.SystemEvent{Type: types.EventTaskCreated}, // severity normal
			expected: false,
		},
		{
			name: "priority filter - event matches",
			config: SlackConfig{
				MinPriority: types.SeverityHigh,
			},
			event:    types.SystemEvent{Type: types.EventDecisionOpen}, // severity high
			expected: true,
		},
		{
			name: "priority filter - event higher severity",
			config: SlackConfig{
				MinPriority: types.SeverityHigh,
			},
			event:    types.SystemEvent{Type: types.EventErrorOccurred}, // severity critical
			expected: true,
		},
		{
			name: "event type filter - matches",
			config: SlackConfig{
				EventTypes: []types.SystemEventType{types.EventDegraded, types.EventTaskCreated},
			},
			event:    types.SystemEvent{Type: types.EventDegraded},
			expected: true,
		},
		{
			name: "event type filter - no match",
			config: SlackConfig{
				EventTypes: []types.SystemEventType{types.EventTaskCreated},
			},
			event:    types.SystemEvent{Type: types.EventDegraded},
			expected: false,
		},
		{
			name: "both filters - both match",
			config: SlackConfig{
				MinPriority: types.SeverityHigh,
				EventTypes:  []types.SystemEventType{types.EventErrorOccurred},
			},
			event:    types.SystemEvent{Type: types.EventErrorOccurred},
			expected: true,
		},
		{
			name: "both filters - severity fails",
			config: SlackConfig{
				MinPriority: types.SeverityHigh,
				EventTypes:  []types.SystemEventType{types.EventTaskCreated},
			},
			event:    types.SystemEvent{Type: types.EventTaskCreated},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := NewSlackNotifier(tt.config)
			result := notifier.ShouldNotify(tt.event)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestSlackNotifier_Send(t *testing.T) {
	tests := []struct {
		name            string
		config          SlackConfig
		event           types.SystemEvent
		expectError     bool
		validatePayload func(t *testing.T, payload map[string]interface{})
	}{
		{
			name: "basic notification",
			config: SlackConfig{
				Channel:   "#alerts",
				Username:  "hivectl",
				IconEmoji: ":bee:",
			},
			event: types.SystemEvent{
				Type:   types.EventDecisionOpen,
				Source: "queen",
				Payload: map[string]interface{}{
					"message": "Test alert",
				},
			},
			expectError: false,
			validatePayload: func(t *testing.T, payload map[string]interface{}) {
				if payload["channel"] != "#alerts" {
					t.Errorf("expected channel '#alerts', got '%v'", payload["channel"])
				}
				if payload["username"] != "hivectl" {
					t.Errorf("expected username 'hivectl', got '%v'", payload["username"])
				}
				if payload["icon_emoji"] != ":bee:" {
					t.Errorf("expected icon_emoji ':bee:', got '%v'", payload["icon_emoji"])
				}
				attachments, ok := payload["attachments"].([]interface{})
				if !ok || len(attachments) == 0 {
					t.Fatal("expected attachments array")
				}
				attachment := attachments[0].(map[string]interface{})
				if attachment["color"] != "warning" {
					t.Errorf("expected color 'warning' for decision_open, got '%v'", attachment["color"])
				}
			},
		},
		{
			name:   "critical severity",
			config: SlackConfig{},
			event: types.SystemEvent{
				Type:    types.EventErrorOccurred,
				Source:  "agent-1",
				Payload: map[string]interface{}{},
			},
			expectError: false,
			validatePayload: func(t *testing.T, payload map[string]interface{}) {
				attachments := payload["attachments"].([]interface{})
				attachment := attachments[0].(map[string]interface{})
				if attachment["color"] != "danger" {
					t.Errorf("expected color 'danger' for critical, got '%v'", attachment["color"])
				}
			},
		},
		{
			name:   "high severity",
			config: SlackConfig{},
			event: types.SystemEvent{
				Type:    types.EventDecisionOpen,
				Source:  "agent-2",
				Payload: map[string]interface{}{},
			},
			expectError: false,
			validatePayload: func(t *testing.T, payload map[string]interface{}) {
				attachments := payload["attachments"].([]interface{})
				attachment := attachments[0].(map[string]interface{})
				if attachment["color"] != "warning" {
					t.Errorf("expected color 'warning' for high, got '%v'", attachment["color"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var receivedPayload map[string]interface{}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("failed to read request body: %v", err)
				}
				if err := json.Unmarshal(body, &receivedPayload); err != nil {
					t.Fatalf("failed to unmarshal payload: %v", err)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			tt.config.WebhookURL = server.URL

			notifier := NewSlackNotifier(tt.config)
			err := notifier.Send(tt.event)

			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.expectError && tt.validatePayload != nil {
				tt.validatePayload(t, receivedPayload)
			}
		})
	}
}

func TestSlackNotifier_Send_NoWebhook(t *testing.T) {
	notifier := NewSlackNotifier(SlackConfig{})
	event := types.SystemEvent{Type: types.EventDegraded, Source: "test"}

	err := notifier.Send(event)
	if err == nil {
		t.Error("expected error for missing webhook URL")
	}
}

func TestSlackNotifier_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := NewSlackNotifier(SlackConfig{
		WebhookURL: server.URL,
	})
	event := types.SystemEvent{Type: types.EventDegraded, Source: "test"}

	err := notifier.Send(event)
	if err == nil {
		t.Error("expected error for server error response")
	}
}
