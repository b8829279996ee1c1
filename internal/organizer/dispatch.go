package organizer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lionkor/ServerOrganizer/internal/protocol"
)

const helpText = "list of all commands:\n" +
	"* help - displays this help\n" +
	"* status <identifier> - displays the status of a worker\n" +
	"* list - displays a list of all workers\n" +
	"* register <identifier> <executable-path> [working-dir] - registers a new worker\n" +
	"* remove <identifier> - removes the worker, SIGTERMs it if it's still running\n" +
	"* autorestart <identifier> <on/off> - turns autorestart on crash/exit on or off\n" +
	"* query <identifier> <key> - queries the worker for a value. possible keys are `pid`, `status`, `autorestart`, `exited`, `signalled`. The return values for `query` are made to be easily machine-readable.\n" +
	"* restart <identifier> - restarts the given worker. Will SIGTERM/SIGKILL if the worker is still running."

// Dispatch turns one request payload into one reply payload. The
// special `kickme` request short-circuits the command table and yields
// the detach sentinel. Unknown or empty commands yield "unknown
// command". Every handler runs synchronously on the calling session's
// goroutine.
func (o *Organizer) Dispatch(payload string) string {
	payload = strings.TrimSpace(payload)
	o.logger.Printf("got command: %q", payload)
	if payload == "kickme" {
		return protocol.Detach
	}
	name, args := protocol.ParseCommand(payload)
	handler, ok := o.handlers[name]
	if !ok {
		return "unknown command"
	}
	return handler(args)
}

func (o *Organizer) commandHelp(args []string) string {
	if len(args) != 0 {
		return "`help` takes no arguments"
	}
	return helpText
}

func (o *Organizer) commandStatus(args []string) string {
	if len(args) != 1 {
		return "usage: 'status <identifier>'"
	}
	id := args[0]
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.lookup(id)
	if !ok {
		return fmt.Sprintf("worker %q unknown", id)
	}
	switch {
	case m.exited:
		return fmt.Sprintf("%q exited with code %d", id, m.status)
	case m.signalled:
		return fmt.Sprintf("%q exited via %s", id, signalName(m.status))
	default:
		return fmt.Sprintf("%q is running", id)
	}
}

func (o *Organizer) commandList(args []string) string {
	if len(args) != 0 {
		return "`list` takes no arguments"
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.monitors))
	for id := range o.monitors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var b strings.Builder
	b.WriteString("list of all workers:")
	for _, id := range ids {
		m := o.monitors[id]
		b.WriteString("\n")
		b.WriteString(id)
		switch {
		case m.exited:
			fmt.Fprintf(&b, " (exited code %d)", m.status)
		case m.signalled:
			fmt.Fprintf(&b, " (exited via %s)", signalName(m.status))
		default:
			b.WriteString(" (running)")
		}
	}
	return b.String()
}

func (o *Organizer) commandRegister(args []string) string {
	if len(args) < 2 {
		return "invalid arguments, expected at least `identifier` and `executable-path` arguments"
	}
	launch := LaunchArgs(args)
	id := launch.Identifier()

	o.mu.Lock()
	if _, exists := o.lookup(id); exists {
		o.mu.Unlock()
		return fmt.Sprintf("identifier %q is already used", id)
	}
	o.mu.Unlock()

	// Spawning opens files and forks; do it outside the lock. A racing
	// register for the same identifier loses below and its child is
	// cleaned up.
	m := o.spawn(launch)

	o.mu.Lock()
	if _, exists := o.lookup(id); exists {
		// The losing child never gets a reaper; wait on it in the
		// background so the kill doesn't leave a zombie behind.
		o.terminate(m)
		if m.cmd != nil {
			go m.cmd.Wait()
		}
		o.mu.Unlock()
		return fmt.Sprintf("identifier %q is already used", id)
	}
	o.monitors[id] = m
	o.mu.Unlock()

	// The monitor is owned by the registry before the reaper starts,
	// so the pointer the reaper captures stays valid for its lifetime.
	o.startReaper(m)
	return fmt.Sprintf("registered %q", id)
}

func (o *Organizer) commandRemove(args []string) string {
	if len(args) != 1 {
		return "`remove` expects argument `identifier`"
	}
	id := args[0]
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.lookup(id)
	if !ok {
		return fmt.Sprintf("worker %q not found, nothing removed", id)
	}
	sigtermed := o.terminate(m)
	delete(o.monitors, id)
	if sigtermed {
		return fmt.Sprintf("worker %q was still running, so it was terminated with SIGTERM/SIGKILL and then removed", id)
	}
	return fmt.Sprintf("worker %q removed", id)
}

func (o *Organizer) commandAutorestart(args []string) string {
	if len(args) != 2 {
		return "`autorestart` takes arguments `identifier` and `on/off`"
	}
	id := args[0]
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.lookup(id)
	if !ok {
		return fmt.Sprintf("worker %q not found", id)
	}
	switch args[1] {
	case "on":
		m.autorestart = true
		return fmt.Sprintf("autorestart turned ON for worker %q", id)
	case "off":
		m.autorestart = false
		return fmt.Sprintf("autorestart turned OFF for worker %q", id)
	default:
		return `argument ` + "`on/off`" + ` expects either "on" or "off" (no quotes)`
	}
}

func (o *Organizer) commandQuery(args []string) string {
	if len(args) != 2 {
		return "ERROR - invalid arguments"
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.lookup(args[0])
	if !ok {
		return "ERROR - unknown worker"
	}
	switch args[1] {
	case "pid":
		return strconv.Itoa(m.pid)
	case "status":
		return strconv.Itoa(m.status)
	case "exited":
		return strconv.FormatBool(m.exited)
	case "signalled":
		return strconv.FormatBool(m.signalled)
	case "autorestart":
		return strconv.FormatBool(m.autorestart)
	default:
		return "ERROR - unknown key"
	}
}

func (o *Organizer) commandRestart(args []string) string {
	if len(args) != 1 {
		return "`restart` only takes one argument `identifier`"
	}
	id := args[0]
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.lookup(id)
	if !ok {
		return fmt.Sprintf("worker %q unknown", id)
	}
	o.queue.Push(m.launchArgs)
	return fmt.Sprintf("queued %q to be restarted", id)
}
