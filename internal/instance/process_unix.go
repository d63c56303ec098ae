//go:build !windows
// +build !windows

package instance

import (
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"
)

// processExeName is the daemon binary name CheckExistingInstance compares
// a discovered process's image name against to detect PID reuse.
const processExeName = "hivectl"

// IsProcessRunning checks if a process with the given PID is running by
// sending it signal 0, which the kernel delivers without side effects.
func IsProcessRunning(pid int) (bool, error) {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}

	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true, nil
	}
	if err == syscall.ESRCH {
		return false, nil
	}
	if err == syscall.EPERM {
		// Process exists but we can't signal it; treat as running.
		return true, nil
	}
	return false, nil
}

// GetProcessName retrieves the executable name for a given PID from
// /proc/<pid>/comm.
func GetProcessName(pid int) (string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return "", fmt.Errorf("read process comm: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// GetProcessStartTime retrieves the start time of a process from its
// directory's modification time, the closest approximation /proc exposes without
// parsing the boot-relative clock ticks in /proc/<pid>/stat.
func GetProcessStartTime(pid int) (time.Time, error) {
	info, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
	if err != nil {
		return time.Time{}, fmt.Errorf("stat process directory: %w", err)
	}
	return info.ModTime(), nil
}

// KillProcess forcefully terminates a process.
func KillProcess(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to kill process %d: %w", pid, err)
	}
	return nil
}
