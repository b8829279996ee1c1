package organizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lionkor/ServerOrganizer/internal/protocol"
)

// waitExited polls until the reaper has recorded a terminal state.
func waitExited(t *testing.T, o *Organizer, id string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return o.Dispatch("query "+id+" exited") == "true" ||
			o.Dispatch("query "+id+" signalled") == "true"
	}, 5*time.Second, 10*time.Millisecond, "worker %q never reached a terminal state", id)
}

func TestDispatch_UnknownCommand(t *testing.T) {
	o := newTestOrganizer(t)
	assert.Equal(t, "unknown command", o.Dispatch("frobnicate"))
	assert.Equal(t, "unknown command", o.Dispatch(""))
	assert.Equal(t, "unknown command", o.Dispatch("   \t "))
}

func TestDispatch_KickmeShortCircuits(t *testing.T) {
	o := newTestOrganizer(t)
	assert.Equal(t, protocol.Detach, o.Dispatch("kickme"))
	// with arguments it is not the sentinel request, just unknown
	assert.Equal(t, "unknown command", o.Dispatch("kickme now"))
}

func TestDispatch_Help(t *testing.T) {
	o := newTestOrganizer(t)
	reply := o.Dispatch("help")
	assert.True(t, strings.HasPrefix(reply, "list of all commands:"), "got %q", reply)
	assert.Equal(t, "`help` takes no arguments", o.Dispatch("help me"))
}

func TestDispatch_RegisterAndStatus(t *testing.T) {
	o := newTestOrganizer(t)

	assert.Equal(t, `registered "w1"`, o.Dispatch("register w1 /bin/true"))
	waitExited(t, o, "w1")
	assert.Equal(t, `"w1" exited with code 0`, o.Dispatch("status w1"))
}

func TestDispatch_RegisterDuplicateIdentifier(t *testing.T) {
	o := newTestOrganizer(t)

	require.Equal(t, `registered "w1"`, o.Dispatch("register w1 /bin/true"))
	assert.Equal(t, `identifier "w1" is already used`, o.Dispatch("register w1 /bin/true"))
}

func TestDispatch_RegisterArity(t *testing.T) {
	o := newTestOrganizer(t)
	want := "invalid arguments, expected at least `identifier` and `executable-path` arguments"
	assert.Equal(t, want, o.Dispatch("register"))
	assert.Equal(t, want, o.Dispatch("register onlyid"))
}

func TestDispatch_StatusVariants(t *testing.T) {
	o := newTestOrganizer(t)

	assert.Equal(t, "usage: 'status <identifier>'", o.Dispatch("status"))
	assert.Equal(t, "usage: 'status <identifier>'", o.Dispatch("status a b"))
	assert.Equal(t, `worker "ghost" unknown`, o.Dispatch("status ghost"))

	script := writeScript(t, "sleep 30")
	require.Equal(t, `registered "runner"`, o.Dispatch("register runner "+script))
	assert.Equal(t, `"runner" is running`, o.Dispatch("status runner"))
	o.Dispatch("remove runner")
}

func TestDispatch_List(t *testing.T) {
	o := newTestOrganizer(t)

	assert.Equal(t, "`list` takes no arguments", o.Dispatch("list all"))
	assert.Equal(t, "list of all workers:", o.Dispatch("list"))

	script := writeScript(t, "sleep 30")
	require.Equal(t, `registered "beta"`, o.Dispatch("register beta "+script))
	require.Equal(t, `registered "alpha"`, o.Dispatch("register alpha /bin/true"))
	waitExited(t, o, "alpha")

	// identifiers are listed in sorted order with their state
	assert.Equal(t, "list of all workers:\nalpha (exited code 0)\nbeta (running)", o.Dispatch("list"))
	o.Dispatch("remove beta")
}

func TestDispatch_RemoveExitedWorker(t *testing.T) {
	o := newTestOrganizer(t)

	assert.Equal(t, "`remove` expects argument `identifier`", o.Dispatch("remove"))
	assert.Equal(t, `worker "ghost" not found, nothing removed`, o.Dispatch("remove ghost"))

	require.Equal(t, `registered "w1"`, o.Dispatch("register w1 /bin/true"))
	waitExited(t, o, "w1")
	assert.Equal(t, `worker "w1" removed`, o.Dispatch("remove w1"))
	assert.Equal(t, `worker "w1" unknown`, o.Dispatch("status w1"))
}

func TestDispatch_RemoveRunningWorkerTerminates(t *testing.T) {
	o := newTestOrganizer(t)

	script := writeScript(t, "sleep 30")
	require.Equal(t, `registered "w1"`, o.Dispatch("register w1 "+script))
	assert.Equal(t,
		`worker "w1" was still running, so it was terminated with SIGTERM/SIGKILL and then removed`,
		o.Dispatch("remove w1"))
}

func TestDispatch_RemoveThenReregister(t *testing.T) {
	o := newTestOrganizer(t)

	require.Equal(t, `registered "w1"`, o.Dispatch("register w1 /bin/true"))
	waitExited(t, o, "w1")
	require.Equal(t, `worker "w1" removed`, o.Dispatch("remove w1"))

	// a fresh monitor whose own reaper records the new child's exit
	require.Equal(t, `registered "w1"`, o.Dispatch("register w1 /bin/true"))
	waitExited(t, o, "w1")
	assert.Equal(t, `"w1" exited with code 0`, o.Dispatch("status w1"))
}

func TestDispatch_Autorestart(t *testing.T) {
	o := newTestOrganizer(t)

	assert.Equal(t, "`autorestart` takes arguments `identifier` and `on/off`", o.Dispatch("autorestart w1"))
	assert.Equal(t, `worker "ghost" not found`, o.Dispatch("autorestart ghost on"))

	script := writeScript(t, "sleep 30")
	require.Equal(t, `registered "w1"`, o.Dispatch("register w1 "+script))

	assert.Equal(t, `argument `+"`on/off`"+` expects either "on" or "off" (no quotes)`,
		o.Dispatch("autorestart w1 maybe"))

	assert.Equal(t, `autorestart turned ON for worker "w1"`, o.Dispatch("autorestart w1 on"))
	assert.Equal(t, "true", o.Dispatch("query w1 autorestart"))
	assert.Equal(t, `autorestart turned OFF for worker "w1"`, o.Dispatch("autorestart w1 off"))
	assert.Equal(t, "false", o.Dispatch("query w1 autorestart"))
	o.Dispatch("remove w1")
}

func TestDispatch_Query(t *testing.T) {
	o := newTestOrganizer(t)

	assert.Equal(t, "ERROR - invalid arguments", o.Dispatch("query"))
	assert.Equal(t, "ERROR - invalid arguments", o.Dispatch("query w1"))
	assert.Equal(t, "ERROR - unknown worker", o.Dispatch("query ghost pid"))

	require.Equal(t, `registered "w1"`, o.Dispatch("register w1 /bin/true"))

	pid := o.Dispatch("query w1 pid")
	assert.NotEqual(t, "0", pid)

	waitExited(t, o, "w1")
	assert.Equal(t, "true", o.Dispatch("query w1 exited"))
	assert.Equal(t, "false", o.Dispatch("query w1 signalled"))
	assert.Equal(t, "0", o.Dispatch("query w1 status"))
	assert.Equal(t, "false", o.Dispatch("query w1 autorestart"))
	assert.Equal(t, "ERROR - unknown key", o.Dispatch("query w1 shoesize"))
}

func TestDispatch_QueryBeforeTermination(t *testing.T) {
	o := newTestOrganizer(t)

	script := writeScript(t, "sleep 30")
	require.Equal(t, `registered "w1"`, o.Dispatch("register w1 "+script))
	assert.Equal(t, "false", o.Dispatch("query w1 exited"))
	assert.Equal(t, "false", o.Dispatch("query w1 signalled"))
	o.Dispatch("remove w1")
}

func TestDispatch_RestartEnqueues(t *testing.T) {
	o := newTestOrganizer(t)

	assert.Equal(t, "`restart` only takes one argument `identifier`", o.Dispatch("restart"))
	assert.Equal(t, `worker "ghost" unknown`, o.Dispatch("restart ghost"))

	require.Equal(t, `registered "w1"`, o.Dispatch("register w1 /bin/true /tmp extra"))
	assert.Equal(t, `queued "w1" to be restarted`, o.Dispatch("restart w1"))
	require.Equal(t, 1, o.Queue().Len())

	// queued launch args are the original tuple, extras included
	args, ok := o.Queue().Pop()
	require.True(t, ok)
	assert.Equal(t, LaunchArgs{"w1", "/bin/true", "/tmp", "extra"}, args)
}

func TestDispatch_WorkerLogCapturesOutput(t *testing.T) {
	o := newTestOrganizer(t)

	script := writeScript(t, `echo hello from worker; echo oops >&2`)
	require.Equal(t, `registered "w1"`, o.Dispatch("register w1 "+script))
	waitExited(t, o, "w1")

	logPath := filepath.Join(o.cfg.WorkerLogDir, "w1.log")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(logPath)
		return err == nil &&
			strings.Contains(string(data), "hello from worker") &&
			strings.Contains(string(data), "oops")
	}, 5*time.Second, 10*time.Millisecond, "worker output never reached %s", logPath)
}
