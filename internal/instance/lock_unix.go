//go:build !windows
// +build !windows

package instance

import (
	"fmt"
	"os"
	"syscall"
)

// AcquireLock acquires an exclusive advisory lock to prevent multiple
// instances from starting, mirroring lock_windows.go's exclusive-open
// semantics via flock(2) instead of CreateFile's share mode.
func (m *InstanceManager) AcquireLock() error {
	lockPath := m.pidFilePath + ".lock"

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return fmt.Errorf("failed to acquire lock (another instance may be starting): %w", err)
	}

	m.lockHandle = uintptr(f.Fd())
	m.acquiredLock = true
	m.lockFile = f

	pidStr := fmt.Sprintf("%d", os.Getpid())
	if _, err := f.WriteString(pidStr); err != nil {
		fmt.Printf("Warning: Failed to write PID to lock file: %v\n", err)
	}

	return nil
}

// ReleaseLock releases the exclusive lock.
func (m *InstanceManager) ReleaseLock() error {
	if !m.acquiredLock {
		return nil
	}

	if m.lockFile != nil {
		if err := syscall.Flock(int(m.lockFile.Fd()), syscall.LOCK_UN); err != nil {
			fmt.Printf("Warning: Failed to unlock lock file: %v\n", err)
		}
		if err := m.lockFile.Close(); err != nil {
			fmt.Printf("Warning: Failed to close lock file: %v\n", err)
		}
		m.lockFile = nil
	}
	m.lockHandle = 0

	lockPath := m.pidFilePath + ".lock"
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Warning: Failed to remove lock file: %v\n", err)
	}

	m.acquiredLock = false
	return nil
}
