// Package daemonctl orchestrates the slidecast daemon process from the CLI:
// launching it detached, probing liveness through its flock, and terminating
// it via the recorded pid.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"slidecast/internal/config"
)

// ErrDaemonNotRunning reports that no daemon process holds the lock.
var ErrDaemonNotRunning = errors.New("daemon is not running")

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

// LockPath returns the daemon's flock location for the given config.
func LockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "slidecastd.lock")
}

// PIDPath returns the daemon's pid file location for the given config.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "slidecastd.pid")
}

// IsRunning probes the daemon flock without disturbing a running daemon.
// Acquiring the lock means no daemon holds it.
func IsRunning(cfg *config.Config) bool {
	lock := flock.New(LockPath(cfg))
	locked, err := lock.TryLock()
	if err != nil {
		return false
	}
	if locked {
		_ = lock.Unlock()
		return false
	}
	return true
}

// Launch starts a detached daemon process using the given slidecast
// executable.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon", "run"}
	if cfgPath := strings.TrimSpace(opts.ConfigPath); cfgPath != "" {
		args = append(args, "--config", cfgPath)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// StartState describes the outcome of EnsureStarted.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// EnsureStarted launches the daemon unless one is already running and waits
// for the new process to take the lock.
func EnsureStarted(cfg *config.Config, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartState, error) {
	if IsRunning(cfg) {
		return StartStateAlreadyRunning, nil
	}
	if err := Launch(executablePath, opts); err != nil {
		return "", err
	}
	if err := waitFor(waitTimeout, func() bool { return IsRunning(cfg) }); err != nil {
		return "", fmt.Errorf("daemon failed to start: %w", err)
	}
	return StartStateStarted, nil
}

// StopResult captures how a daemon shutdown proceeded.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// Stop terminates the running daemon with SIGTERM and escalates to SIGKILL
// when the process does not release the lock within the timeout.
func Stop(cfg *config.Config, timeout time.Duration) (StopResult, error) {
	if !IsRunning(cfg) {
		return StopResult{}, ErrDaemonNotRunning
	}

	pid, err := readPID(PIDPath(cfg))
	if err != nil {
		return StopResult{}, err
	}
	result := StopResult{PID: pid}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return result, fmt.Errorf("find daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return result, nil
		}
		return result, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}

	if err := waitFor(timeout, func() bool { return !IsRunning(cfg) }); err == nil {
		return result, nil
	}

	result.ForcedKill = true
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return result, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	if err := waitFor(timeout, func() bool { return !IsRunning(cfg) }); err != nil {
		return result, fmt.Errorf("daemon process %d did not exit", pid)
	}
	return result, nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s holds invalid pid %q", path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

func waitFor(timeout time.Duration, check func() bool) error {
	deadline := time.Now().Add(timeout)
	for {
		if check() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %s", timeout)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
