package organizer

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lionkor/ServerOrganizer/internal/protocol"
)

// startTestServer binds a socket in a short-lived temp dir (unix
// socket paths have a tight length limit, so not t.TempDir) and runs
// the accept loop until the test ends.
func startTestServer(t *testing.T, o *Organizer) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "sohs-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	sock := filepath.Join(dir, "sock")
	ln, err := net.Listen("unix", sock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go o.Serve(ctx, ln)
	return sock
}

func roundtrip(t *testing.T, conn net.Conn, command string) string {
	t.Helper()
	require.NoError(t, protocol.WriteFrame(conn, protocol.Encode(command)))
	frame, err := protocol.ReadFrame(conn)
	require.NoError(t, err)
	return protocol.Decode(frame)
}

func TestServe_HelpOverSocket(t *testing.T) {
	o := newTestOrganizer(t)
	sock := startTestServer(t, o)

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()

	reply := roundtrip(t, conn, "help")
	assert.True(t, strings.HasPrefix(reply, "list of all commands:"), "got %q", reply)
}

func TestServe_SessionIsSerialized(t *testing.T) {
	o := newTestOrganizer(t)
	sock := startTestServer(t, o)

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()

	// several commands on one session, each a strict
	// request-then-response pair
	require.Equal(t, `registered "w1"`, roundtrip(t, conn, "register w1 /bin/true"))
	assert.Equal(t, `identifier "w1" is already used`, roundtrip(t, conn, "register w1 /bin/true"))
	assert.Equal(t, "unknown command", roundtrip(t, conn, "nonsense"))
}

func TestServe_KickmeDetachesAndCloses(t *testing.T) {
	o := newTestOrganizer(t)
	sock := startTestServer(t, o)

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, protocol.Detach, roundtrip(t, conn, "kickme"))

	// the daemon closes its end after the sentinel; the next read
	// must observe EOF
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, err = io.ReadFull(conn, make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestServe_ConcurrentSessions(t *testing.T) {
	o := newTestOrganizer(t)
	sock := startTestServer(t, o)

	conn1, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn1.Close()
	conn2, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn2.Close()

	// both sessions see the same registry
	require.Equal(t, `registered "shared"`, roundtrip(t, conn1, "register shared /bin/true"))
	assert.Equal(t, `identifier "shared" is already used`, roundtrip(t, conn2, "register shared /bin/true"))
}

func TestServe_SessionDeathLeavesRegistryIntact(t *testing.T) {
	o := newTestOrganizer(t)
	sock := startTestServer(t, o)

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	require.Equal(t, `registered "w1"`, roundtrip(t, conn, "register w1 /bin/true"))
	// drop the session mid-stream
	conn.Close()

	conn2, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn2.Close()
	reply := roundtrip(t, conn2, "status w1")
	assert.NotEqual(t, `worker "w1" unknown`, reply)
}

func TestServe_StopsOnCancel(t *testing.T) {
	o := newTestOrganizer(t)
	dir, err := os.MkdirTemp("/tmp", "sohs-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	sock := filepath.Join(dir, "sock")
	ln, err := net.Listen("unix", sock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Serve(ctx, ln) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
