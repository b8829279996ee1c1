// Package organizer implements the worker-supervision engine: a
// registry of named, monitored child processes, the restart queue that
// re-spawns crashed workers, the command dispatcher that drives both,
// and the connection server that exposes them over a local socket.
package organizer

import (
	"log"
	"sync"

	"github.com/lionkor/ServerOrganizer/internal/config"
)

// LaunchArgs is the ordered argument tuple a worker was registered
// with: identifier, executable path, and an optional working
// directory. Tokens beyond the third are preserved verbatim for
// restart but ignored by the spawner.
type LaunchArgs []string

// Identifier returns the worker identifier.
func (a LaunchArgs) Identifier() string {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}

// Executable returns the executable path.
func (a LaunchArgs) Executable() string {
	if len(a) < 2 {
		return ""
	}
	return a[1]
}

// WorkingDir returns the optional working directory, or "".
func (a LaunchArgs) WorkingDir() string {
	if len(a) < 3 {
		return ""
	}
	return a[2]
}

// Organizer is the supervision engine. It owns the registry of
// monitors and the restart queue. All registry access goes through a
// single mutex; the lock is never held across a blocking syscall.
type Organizer struct {
	logger *log.Logger
	cfg    *config.Config

	mu       sync.Mutex
	monitors map[string]*Monitor

	queue    *RestartQueue
	handlers map[string]func(args []string) string
}

// New creates an Organizer with an empty registry.
func New(cfg *config.Config, logger *log.Logger) *Organizer {
	o := &Organizer{
		logger:   logger,
		cfg:      cfg,
		monitors: make(map[string]*Monitor),
		queue:    NewRestartQueue(),
	}
	o.handlers = map[string]func(args []string) string{
		"help":        o.commandHelp,
		"status":      o.commandStatus,
		"list":        o.commandList,
		"register":    o.commandRegister,
		"remove":      o.commandRemove,
		"autorestart": o.commandAutorestart,
		"query":       o.commandQuery,
		"restart":     o.commandRestart,
	}
	return o
}

// Queue returns the restart queue.
func (o *Organizer) Queue() *RestartQueue {
	return o.queue
}

// lookup returns the monitor for id. Caller must hold o.mu.
func (o *Organizer) lookup(id string) (*Monitor, bool) {
	m, ok := o.monitors[id]
	return m, ok
}
