// Package config loads the daemon configuration.
//
// Everything has a built-in default matching the wire contract, so a
// config file is optional. The file format is TOML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Built-in defaults. SocketPath and WorkerLogDir are part of the
// protocol contract with existing clients; change them only together
// with every deployed client.
const (
	DefaultSocketPath   = "/tmp/.sohs_socket_1_0"
	DefaultLogDir       = "logs"
	DefaultWorkerLogDir = "/tmp/ServerOrganizer"
)

// Config holds the daemon settings.
type Config struct {
	// SocketPath is the filesystem path of the local stream socket.
	SocketPath string `toml:"socket"`

	// LogDir is the directory (relative to the daemon's working
	// directory) that receives the daemon's own log files.
	LogDir string `toml:"log_dir"`

	// WorkerLogDir is the directory that receives per-worker log
	// files (<identifier>.log).
	WorkerLogDir string `toml:"worker_log_dir"`

	// Intervals tunes the pacing of the internal loops.
	Intervals Intervals `toml:"intervals"`
}

// Intervals are the loop pacing knobs, in milliseconds.
type Intervals struct {
	// AcceptMillis is the pause between accepts.
	AcceptMillis int `toml:"accept_ms"`

	// RestartMillis is the restart worker poll interval.
	RestartMillis int `toml:"restart_ms"`

	// SessionMillis is the pause between commands within a session.
	SessionMillis int `toml:"session_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SocketPath:   DefaultSocketPath,
		LogDir:       DefaultLogDir,
		WorkerLogDir: DefaultWorkerLogDir,
		Intervals: Intervals{
			AcceptMillis:  50,
			RestartMillis: 100,
			SessionMillis: 10,
		},
	}
}

// Load reads a TOML config file over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket path must not be empty")
	}
	if c.Intervals.AcceptMillis <= 0 || c.Intervals.RestartMillis <= 0 || c.Intervals.SessionMillis <= 0 {
		return fmt.Errorf("intervals must be positive")
	}
	return nil
}

// AcceptInterval returns the pause between accepts.
func (c *Config) AcceptInterval() time.Duration {
	return time.Duration(c.Intervals.AcceptMillis) * time.Millisecond
}

// RestartInterval returns the restart worker poll interval.
func (c *Config) RestartInterval() time.Duration {
	return time.Duration(c.Intervals.RestartMillis) * time.Millisecond
}

// SessionInterval returns the pause between commands within a session.
func (c *Config) SessionInterval() time.Duration {
	return time.Duration(c.Intervals.SessionMillis) * time.Millisecond
}
