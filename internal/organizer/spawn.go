package organizer

import (
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// Synthesized exit statuses for spawns that never reach the child's
// main. 55 mirrors the exit code a worker reports when it cannot enter
// its working directory.
const (
	statusBadWorkdir = 55
	statusSpawnError = 255
)

// spawn launches a worker process and returns its Monitor. The monitor
// is not yet in the registry and its reaper has not been started; the
// caller inserts it under the lock and then calls startReaper.
//
// Spawn failures do not return an error: the monitor comes back
// already terminal (exited, with a synthesized status), exactly as if
// the child had died immediately. register still reports success in
// that case, and status/query observe the failure.
func (o *Organizer) spawn(args LaunchArgs) *Monitor {
	m := &Monitor{launchArgs: args}

	// The child is supposed to chdir before exec; with os/exec the
	// parent validates the directory instead and synthesizes the
	// child's chdir-failure exit.
	dir := args.WorkingDir()
	if dir != "" {
		st, err := os.Stat(dir)
		if err != nil || !st.IsDir() {
			o.logger.Printf("worker %q: invalid working directory %q", args.Identifier(), dir)
			m.exited = true
			m.status = statusBadWorkdir
			return m
		}
	}

	logFile, err := o.openWorkerLog(args.Identifier())
	if err != nil {
		o.logger.Printf("worker %q: %v", args.Identifier(), err)
		m.exited = true
		m.status = statusSpawnError
		return m
	}

	// argv carries only the executable path itself; extra register
	// tokens are kept in launchArgs but never forwarded.
	exe := args.Executable()
	cmd := &exec.Cmd{
		Path:   exe,
		Args:   []string{exe},
		Dir:    dir,
		Stdout: logFile,
		Stderr: logFile,
	}
	if err := cmd.Start(); err != nil {
		logFile.Close()
		o.logger.Printf("worker %q: starting %q: %v", args.Identifier(), exe, err)
		m.exited = true
		m.status = statusSpawnError
		return m
	}
	// The child holds its own descriptor now.
	logFile.Close()

	m.pid = cmd.Process.Pid
	m.cmd = cmd
	o.logger.Printf("started new process (pid %d) as %q", m.pid, args.Identifier())
	return m
}

// openWorkerLog creates the per-worker log file, replacing any stale
// one from a previous run. Both stdout and stderr of the worker are
// redirected into it so worker output never mingles with the daemon's
// own log.
func (o *Organizer) openWorkerLog(id string) (*os.File, error) {
	if err := os.MkdirAll(o.cfg.WorkerLogDir, 0700); err != nil {
		return nil, err
	}
	path := filepath.Join(o.cfg.WorkerLogDir, id+".log")
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			// Not fatal; O_TRUNC below still gives a fresh file.
			o.logger.Printf("removing stale worker log %s: %v", path, err)
		}
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
}

// startReaper launches the goroutine that waits for the worker. The
// monitor must already be in the registry so every reference the
// reaper holds stays valid for its whole lifetime.
//
// Monitors that never started (spawn failure) have no child to wait
// for and get no reaper.
func (o *Organizer) startReaper(m *Monitor) {
	if m.cmd == nil {
		return
	}
	go o.reap(m)
}

// reap waits for one worker to terminate and records the outcome. It
// observes exactly one terminal transition, then enqueues the launch
// args for restart if autorestart is set at that moment, and exits.
func (o *Organizer) reap(m *Monitor) {
	err := m.cmd.Wait()
	state := m.cmd.ProcessState

	switch {
	case state != nil && state.Exited():
		o.setStatus(m, state.ExitCode())
	case state != nil:
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			o.setSignalled(m, int(ws.Signal()))
		} else {
			o.setStatus(m, statusSpawnError)
		}
	default:
		// Wait failed without a process state; treat as a crash so
		// the monitor still reaches a terminal state.
		o.logger.Printf("wait for pid %d failed: %v", m.pid, err)
		o.setStatus(m, statusSpawnError)
	}

	o.mu.Lock()
	restart := m.autorestart
	args := m.launchArgs
	o.mu.Unlock()
	if restart {
		o.queue.Push(args)
	}
}
