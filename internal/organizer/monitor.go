package organizer

import (
	"os/exec"
	"strconv"

	"golang.org/x/sys/unix"
)

// Monitor is the daemon-side record for one worker. Fields are guarded
// by the owning Organizer's mutex: the dispatcher reads them from
// session goroutines while the worker's reaper writes the terminal
// flags.
//
// Invariant: exited and signalled are never both true, and once either
// is set it never reverts. Re-registering an identifier always builds
// a fresh Monitor.
type Monitor struct {
	pid         int
	status      int
	exited      bool
	signalled   bool
	autorestart bool
	launchArgs  LaunchArgs

	// cmd is nil when the spawn failed before the child started; such
	// monitors are created already terminal and have no reaper.
	cmd *exec.Cmd
}

// running reports whether the reaper has not yet observed a terminal
// transition. Caller must hold the registry mutex.
func (m *Monitor) running() bool {
	return !m.exited && !m.signalled
}

// setStatus records a normal exit. Called only by the reaper, under
// the registry mutex.
func (o *Organizer) setStatus(m *Monitor, code int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m.signalled = false
	m.exited = true
	m.status = code
}

// setSignalled records a signal-termination. Called only by the
// reaper, under the registry mutex.
func (o *Organizer) setSignalled(m *Monitor, sig int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m.exited = false
	m.signalled = true
	m.status = sig
}

// terminate delivers SIGTERM to a still-running worker, escalating to
// SIGKILL if the first kill fails. It returns true iff a signal was
// actually sent. The terminal flags are left untouched: the reaper is
// the sole authority that records the resulting transition.
//
// Caller must hold o.mu. kill(2) does not block, so holding the lock
// here is fine.
func (o *Organizer) terminate(m *Monitor) bool {
	if !m.running() {
		return false
	}
	if err := unix.Kill(m.pid, unix.SIGTERM); err != nil {
		o.logger.Printf("kill(%d, SIGTERM) failed: %v", m.pid, err)
		o.logger.Printf("SIGKILL will now be used in another attempt to stop %d", m.pid)
		if err := unix.Kill(m.pid, unix.SIGKILL); err != nil {
			o.logger.Printf("kill(%d, SIGKILL) failed: %v", m.pid, err)
		}
	}
	return true
}

// signalName renders a signal number the way status/list replies show
// it, e.g. "SIGTERM". Unknown numbers fall back to "signal N".
func signalName(sig int) string {
	if name := unix.SignalName(unix.Signal(sig)); name != "" {
		return name
	}
	return "signal " + strconv.Itoa(sig)
}
