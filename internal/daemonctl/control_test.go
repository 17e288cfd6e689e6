package daemonctl_test

import (
	"testing"

	"github.com/gofrs/flock"

	"slidecast/internal/daemonctl"
	"slidecast/internal/testsupport"
)

func TestIsRunningWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if daemonctl.IsRunning(cfg) {
		t.Fatal("expected no daemon to be detected")
	}
}

func TestIsRunningDetectsHeldLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	lock := flock.New(daemonctl.LockPath(cfg))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("acquire lock: locked=%v err=%v", locked, err)
	}
	t.Cleanup(func() { _ = lock.Unlock() })

	if !daemonctl.IsRunning(cfg) {
		t.Fatal("expected held lock to be detected as running daemon")
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := daemonctl.Stop(cfg, 0); err != daemonctl.ErrDaemonNotRunning {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}
