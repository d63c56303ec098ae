package external

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/hive-mind/coordinator/internal/types"
)

// EmailConfig holds configuration for email notifications
type EmailConfig struct {
	SMTPHost    string                  `json:"smtp_host"`
	SMTPPort    int                     `json:"smtp_port"`
	Username    string                  `json:"username"`
	Password    string                  `json:"password"`
	From        string                  `json:"from"`
	To          []string                `json:"to"`
	EventTypes  []types.SystemEventType `json:"event_types,omitempty"`
	MinPriority int                     `json:"min_priority,omitempty"`
}

// EmailNotifier sends notifications via email
type EmailNotifier struct {
	config EmailConfig
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(config EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		config: config,
	}
}

// Name returns the notifier name
func (e *EmailNotifier) Name() string {
	return "email"
}

// ShouldNotify checks if the event should trigger a notification
func (e *EmailNotifier) ShouldNotify(event types.SystemEvent) bool {
	severity := types.EventSeverity(event.Type)
	if e.config.MinPriority > 0 && severity > e.config.MinPriority {
		return false
	}

	if len(e.config.EventTypes) > 0 {
		found := false
		for _, et := range e.config.EventTypes {
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

// Send sends a notification via email
func (e *EmailNotifier) Send(event types.SystemEvent) error {
	if e.config.SMTPHost == "" {
		return fmt.Errorf("SMTP host not configured")
	}
	if e.config.From == "" {
		return fmt.Errorf("from address not configured")
	}
	if len(e.config.To) == 0 {
		return fmt.Errorf("no recipient addresses configured")
	}

	subject := e.buildSubject(event)
	body := e.buildBody(event)
	message := e.buildMessage(subject, body)

	addr := fmt.Sprintf("%s:%d", e.config.SMTPHost, e.config.SMTPPort)
	var auth smtp.Auth
	if e.config.Username != "" && e.config.Password != "" {
		auth = smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.SMTPHost)
	}

	err := smtp.SendMail(addr, auth, e.config.From, e.config.To, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// buildSubject creates the email subject line with a severity prefix
func (e *EmailNotifier) buildSubject(event types.SystemEvent) string {
	severity := types.EventSeverity(event.Type)
	prefix := ""
	if severity == types.SeverityCritical {
		prefix = "[CRITICAL] "
	} else if severity == types.SeverityHigh {
		prefix = "[HIGH] "
	}

	return fmt.Sprintf("%shivectl %s Event - %s", prefix, event.Type, event.Source)
}

// buildBody creates the email body content
func (e *EmailNotifier) buildBody(event types.SystemEvent) string {
	var body strings.Builder

	body.WriteString("hivectl Event Notification\n")
	body.WriteString("==========================\n\n")

	body.WriteString(fmt.Sprintf("Type: %s\n", event.Type))
	body.WriteString(fmt.Sprintf("Source: %s\n", event.Source))
	body.WriteString(fmt.Sprintf("Severity: %s\n", severityString(types.EventSeverity(event.Type))))
	body.WriteString(fmt.Sprintf("Timestamp: %s\n", time.UnixMilli(event.Timestamp).Format(time.RFC3339)))

	if len(event.Payload) > 0 {
		body.WriteString("\nPayload:\n")
		body.WriteString("--------\n")
		for k, v := range event.Payload {
			body.WriteString(fmt.Sprintf("%s: %v\n", k, v))
		}
	}

	body.WriteString("\n--\n")
	body.WriteString("This is an automated notification from the hive-mind coordinator\n")

	return body.String()
}

// buildMessage creates the full email message with headers
func (e *EmailNotifier) buildMessage(subject, body string) string {
	var message strings.Builder

	message.WriteString(fmt.Sprintf("From: %s\r\n", e.config.From))
	message.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(e.config.To, ", ")))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)

	return message.String()
}
