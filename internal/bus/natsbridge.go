package bus

import (
	"encoding/json"
	"fmt"
	"time"

	nc "github.com/nats-io/nats.go"
)

// NATSMirror republishes every bus Message onto a NATS subject derived from
// its Kind, so an out-of-process observer (a CLI watching `hivectl status
// --follow`, a future dashboard) can tail coordinator traffic without
// holding a Go-level Subscribe() handle. Grounded on internal/nats/client.go's
// connection-option and publish-JSON conventions.
type NATSMirror struct {
	conn   *nc.Conn
	prefix string
}

// NewNATSMirror connects to a NATS server (the embedded one, typically) and
// returns a Mirror that publishes under "<prefix>.<kind>".
func NewNATSMirror(url, prefix string) (*NATSMirror, error) {
	opts := []nc.Option{
		nc.ReconnectWait(2 * time.Second),
		nc.MaxReconnects(-1),
	}
	conn, err := nc.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS mirror at %s: %w", url, err)
	}
	return &NATSMirror{conn: conn, prefix: prefix}, nil
}

// Publish implements Mirror.
func (m *NATSMirror) Publish(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message for NATS mirror: %w", err)
	}
	subject := fmt.Sprintf("%s.%s", m.prefix, msg.Kind)
	if err := m.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the underlying NATS connection.
func (m *NATSMirror) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
