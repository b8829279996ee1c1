// Package servercmd provides the CLI for the sohs daemon.
package servercmd

import (
	"github.com/spf13/cobra"

	"github.com/lionkor/ServerOrganizer/internal/exitcode"
)

// Version is the daemon version reported by --version.
const Version = "1.0.0"

var (
	flagClean  bool
	flagDir    string
	flagConfig string
)

var rootCmd = &cobra.Command{
	Use:     "sohs",
	Short:   "ServerOrganizer headless server",
	Version: Version,
	Long: `sohs is the ServerOrganizer headless server.

It supervises registered worker processes: launching them, watching
for exit or signal-termination, optionally restarting them on crash,
and answering queries from attached so clients over a local socket.`,
	RunE:          runServer,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.Flags().BoolVar(&flagClean, "clean", false,
		"unlink a stale socket file from a previous run before binding")
	rootCmd.Flags().StringVar(&flagDir, "dir", ".",
		"working directory for the daemon (logs are written beneath it)")
	rootCmd.Flags().StringVar(&flagConfig, "config", "",
		"optional TOML config file")
}

// Execute runs the root command and returns an exit code.
// The caller (main) should call os.Exit with this code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return exitcode.Code(err)
	}
	return exitcode.Success
}
