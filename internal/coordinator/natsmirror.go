package coordinator

import "github.com/hive-mind/coordinator/internal/bus"

// natsMirrorHandle lets Shutdown close a connected mirror.
type natsMirrorHandle interface {
	Close()
}

// EnableNATSMirror connects to url and mirrors every Bus message onto
// "<prefix>.<kind>" subjects, so an out-of-process observer can tail
// coordinator traffic without a Go-level Subscribe() handle.
func (c *Coordinator) EnableNATSMirror(url, prefix string) error {
	mirror, err := bus.NewNATSMirror(url, prefix)
	if err != nil {
		return err
	}
	c.bus.SetMirror(mirror)

	c.mu.Lock()
	c.natsMirror = mirror
	c.mu.Unlock()
	return nil
}

var _ natsMirrorHandle = (*bus.NATSMirror)(nil)
