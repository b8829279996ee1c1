// Package clientcmd provides the CLI for the so client.
package clientcmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lionkor/ServerOrganizer/internal/config"
	"github.com/lionkor/ServerOrganizer/internal/exitcode"
	"github.com/lionkor/ServerOrganizer/internal/tui/shell"
)

// Version is the client version reported by --version.
const Version = "1.0.0"

var flagSocket string

var rootCmd = &cobra.Command{
	Use:     "so",
	Short:   "ServerOrganizer interactive client",
	Version: Version,
	Long: `so is the interactive ServerOrganizer client.

It opens a local shell with the built-in commands attach, help and
exit. While attached to a running sohs daemon, every other line is
sent to the daemon as a command and the reply is displayed.`,
	RunE:         runShell,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&flagSocket, "socket", config.DefaultSocketPath,
		"path of the daemon's socket file")
}

func runShell(cmd *cobra.Command, args []string) error {
	p := tea.NewProgram(shell.New(flagSocket))
	if _, err := p.Run(); err != nil {
		return exitcode.Wrap(exitcode.ErrGeneral, "running shell", err)
	}
	return nil
}

// Execute runs the root command and returns an exit code.
// The caller (main) should call os.Exit with this code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return exitcode.Code(err)
	}
	return exitcode.Success
}
