package organizer

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/lionkor/ServerOrganizer/internal/config"
)

// newTestOrganizer returns an Organizer whose worker logs land in a
// per-test directory and whose pacing is tightened for test speed.
func newTestOrganizer(t *testing.T) *Organizer {
	t.Helper()
	cfg := config.Default()
	cfg.WorkerLogDir = t.TempDir()
	cfg.Intervals.AcceptMillis = 5
	cfg.Intervals.RestartMillis = 20
	cfg.Intervals.SessionMillis = 1
	return New(cfg, log.New(io.Discard, "", 0))
}

// writeScript drops an executable shell script into a temp dir and
// returns its path. Workers are spawned with no arguments, so anything
// a test worker needs to do has to live in the script body.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("writing worker script: %v", err)
	}
	return path
}
