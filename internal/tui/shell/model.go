// Package shell implements the interactive so client: a line-editor
// shell that runs local commands while detached and forwards
// everything else to the daemon while attached.
package shell

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lionkor/ServerOrganizer/internal/client"
	"github.com/lionkor/ServerOrganizer/internal/protocol"
	"github.com/lionkor/ServerOrganizer/internal/ui"
)

const (
	promptLocal  = "local > "
	promptServer = "server > "

	// historyLimit bounds the line history ring.
	historyLimit = 40
)

const localHelp = "list of all commands:\n" +
	"* attach - attempts to attach to a running instance of the ServerOrganizer headless server\n" +
	"* help - displays this help\n" +
	"* exit - detaches if attached, otherwise shuts down the client"

// attachResultMsg reports the outcome of an attach attempt.
type attachResultMsg struct {
	cli *client.Client
	err error
}

// replyMsg carries one daemon reply (or the error that ended the
// session).
type replyMsg struct {
	reply string
	err   error
}

// Model is the bubbletea model for the interactive shell.
type Model struct {
	input      textinput.Model
	socketPath string

	cli      *client.Client
	attached bool

	lines   []string // transcript, newest last
	history []string
	histPos int    // == len(history) when not navigating
	stash   string // in-progress line saved during history navigation

	color  bool
	width  int
	height int

	quitting bool
}

// New creates a shell that will attach to the given socket path.
func New(socketPath string) Model {
	ti := textinput.New()
	ti.Prompt = promptLocal
	ti.CharLimit = protocol.FrameSize
	ti.Width = 76
	ti.Focus()

	m := Model{
		input:      ti,
		socketPath: socketPath,
		color:      ui.ShouldUseColor(),
	}
	m.info("ServerOrganizer v1.0")
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if w := msg.Width - len(promptServer) - 2; w > 0 {
			m.input.Width = w
		}
		return m, nil

	case attachResultMsg:
		if msg.err != nil {
			m.error(msg.err.Error())
			return m, nil
		}
		m.cli = msg.cli
		m.attached = true
		m.input.Prompt = promptServer
		m.info("attached")
		return m, nil

	case replyMsg:
		switch {
		case msg.err != nil:
			m.error(msg.err.Error())
			m.info("detaching due to error")
			m.detach()
		case msg.reply == protocol.Detach:
			m.server("request for the client to detach immediately (kicked)")
			m.detach()
		default:
			m.server(msg.reply)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.attached {
				m.detach()
			}
			m.quitting = true
			return m, tea.Quit
		case tea.KeyUp:
			m.historyBack()
			return m, nil
		case tea.KeyDown:
			m.historyForward()
			return m, nil
		case tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles one entered line.
func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	m.histPos = len(m.history)
	m.stash = ""
	if line == "" {
		return m, nil
	}
	m.pushHistory(line)
	m.echo(line)

	if m.attached {
		if line == "exit" {
			m.detach()
			return m, nil
		}
		return m, m.roundtrip(line)
	}

	switch line {
	case "exit":
		m.quitting = true
		return m, tea.Quit
	case "attach":
		m.info("attaching...")
		return m, m.attach()
	case "help":
		m.info(localHelp)
	default:
		m.info(fmt.Sprintf("command %q not found", line))
	}
	return m, nil
}

// attach dials the daemon off the update loop.
func (m *Model) attach() tea.Cmd {
	sock := m.socketPath
	return func() tea.Msg {
		cli, err := client.Attach(context.Background(), sock)
		return attachResultMsg{cli: cli, err: err}
	}
}

// roundtrip sends one command to the daemon off the update loop.
func (m *Model) roundtrip(line string) tea.Cmd {
	cli := m.cli
	return func() tea.Msg {
		reply, err := cli.Roundtrip(line)
		return replyMsg{reply: reply, err: err}
	}
}

// detach closes the session and switches back to the local prompt.
// Close failures are not fatal: the session is over either way.
func (m *Model) detach() {
	m.info("detaching...")
	if m.cli != nil {
		if err := m.cli.Detach(); err != nil {
			m.warn(fmt.Sprintf("closing connection: %v", err))
		}
		m.cli = nil
	}
	m.attached = false
	m.input.Prompt = promptLocal
	m.info("detached")
}

func (m *Model) pushHistory(line string) {
	m.history = append(m.history, line)
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}
	m.histPos = len(m.history)
}

func (m *Model) historyBack() {
	if m.histPos == 0 || len(m.history) == 0 {
		return
	}
	if m.histPos == len(m.history) {
		m.stash = m.input.Value()
	}
	m.histPos--
	m.input.SetValue(m.history[m.histPos])
	m.input.CursorEnd()
}

func (m *Model) historyForward() {
	if m.histPos >= len(m.history) {
		return
	}
	m.histPos++
	if m.histPos == len(m.history) {
		m.input.SetValue(m.stash)
	} else {
		m.input.SetValue(m.history[m.histPos])
	}
	m.input.CursorEnd()
}

// Transcript helpers. Each entry carries a timestamp and a level tag so
// a session transcript reads like a log file.

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (m *Model) appendLine(tag, text string, styled func(string) string) {
	for _, l := range strings.Split(text, "\n") {
		line := fmt.Sprintf("[%s] %s %s", timestamp(), tag, l)
		if m.color && styled != nil {
			line = styled(line)
		}
		m.lines = append(m.lines, line)
	}
}

func (m *Model) info(text string) {
	m.appendLine("[INFO]", text, func(s string) string { return infoStyle.Render(s) })
}

func (m *Model) warn(text string) {
	m.appendLine("[WARNING]", text, func(s string) string { return warnStyle.Render(s) })
}

func (m *Model) error(text string) {
	m.appendLine("[ERROR]", text, func(s string) string { return errorStyle.Render(s) })
}

func (m *Model) server(text string) {
	m.appendLine("[SERVER]", text, func(s string) string { return serverStyle.Render(s) })
}

// echo records the entered command under the prompt it was typed at.
func (m *Model) echo(line string) {
	entry := m.input.Prompt + line
	if m.color {
		entry = promptStyle.Render(m.input.Prompt) + line
	}
	m.lines = append(m.lines, entry)
}
