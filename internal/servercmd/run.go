package servercmd

import (
	"context"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/lionkor/ServerOrganizer/internal/config"
	"github.com/lionkor/ServerOrganizer/internal/exitcode"
	"github.com/lionkor/ServerOrganizer/internal/organizer"
)

// logfileName derives the daemon's log filename from its start time.
func logfileName(t time.Time) string {
	return t.Format("sohs_2006-01-02_150405.log")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return exitcode.Wrap(exitcode.ErrUsage, "loading config", err)
	}

	// Enter the working directory before the log directory is created;
	// the log directory is resolved against it. The config file above is
	// read relative to the starting directory.
	dir := flagDir
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return exitcode.Wrap(exitcode.ErrInternal, "getting working directory", err)
		}
		dir = filepath.Join(cwd, dir)
	}
	if err := os.Chdir(dir); err != nil {
		return exitcode.Newf(exitcode.ErrWorkdir, "invalid working directory: %s", dir)
	}

	if err := os.MkdirAll(cfg.LogDir, 0700); err != nil {
		return exitcode.Wrap(exitcode.ErrGeneral, "creating log directory", err)
	}
	logFile, err := os.OpenFile(
		filepath.Join(cfg.LogDir, logfileName(time.Now())),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return exitcode.Wrap(exitcode.ErrGeneral, "opening log file", err)
	}
	defer logFile.Close()
	logger := log.New(io.MultiWriter(os.Stdout, logFile), "", log.LstdFlags)

	logger.Printf("ServerOrganizer v%s Headless Server (PID %d)", Version, os.Getpid())
	logger.Printf("working directory: %s", dir)

	// One daemon per socket. The flock prevents the TOCTOU race where
	// two concurrent starts both pass a stale-socket check.
	lock := flock.New(cfg.SocketPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return exitcode.Wrap(exitcode.ErrGeneral, "acquiring daemon lock", err)
	}
	if !locked {
		logger.Printf("another instance holds %s.lock", cfg.SocketPath)
		return exitcode.New(exitcode.ErrAlreadyRunning, "another sohs instance is already running")
	}
	defer lock.Unlock()

	if flagClean {
		logger.Printf("cleaning up previous runs")
		if _, err := os.Stat(cfg.SocketPath); err == nil {
			if err := os.Remove(cfg.SocketPath); err != nil {
				logger.Printf("unlinking %q failed: %v. if the file exists, removing it manually will fix this issue.",
					cfg.SocketPath, err)
			}
		} else {
			logger.Printf("socket file not found, not removing it")
		}
	}

	ln, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		logger.Printf("failed to bind: %v - this is usually caused by the server not shutting down properly. use --clean to force start.", err)
		return exitcode.Wrapf(exitcode.ErrBind, err, "failed to bind %s (use --clean to force start)", cfg.SocketPath)
	}
	logger.Printf("socket bound at %s", cfg.SocketPath)

	org := organizer.New(cfg, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)
	go func() {
		sig := <-sigCh
		logger.Printf("exiting through %v", sig)
		cancel()
	}()

	go org.RunRestartWorker(ctx)

	if err := org.Serve(ctx, ln); err != nil {
		os.Remove(cfg.SocketPath)
		return exitcode.Wrap(exitcode.ErrGeneral, "serving", err)
	}

	// Orderly shutdown: the socket path must not survive the daemon.
	if err := os.Remove(cfg.SocketPath); err != nil && !os.IsNotExist(err) {
		logger.Printf("unlinking socket: %v", err)
	}
	logger.Printf("shut down")
	return nil
}
