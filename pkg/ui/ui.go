// Package ui implements the interactive terminal chat for orbit-chat.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/schmitech/orbit-go/pkg/orbit"
)

// uiState represents the different states of the TUI.
type uiState int

const (
	stateChat uiState = iota
	stateWaiting
	stateStreaming
)

type (
	streamStartedMsg struct {
		deltaCh <-chan string
		doneCh  <-chan error
	}
	streamDeltaMsg struct{ delta string }
	streamDoneMsg  struct{ err error }
	replyMsg       struct {
		text string
		err  error
	}
)

var (
	logoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	logoText = `ORBIT CHAT`

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#73daca"))

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("37")).
			Italic(true)

	timingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

// Options carries per-run display behavior; the values mirror the CLI flags
// and can be toggled at runtime with slash commands.
type Options struct {
	Stream     bool
	ShowTiming bool
	Debug      bool
}

type Model struct {
	clientCfg orbit.ClientConfig
	client    *orbit.Client
	opts      Options

	state      uiState
	input      textinput.Model
	spinner    spinner.Model
	transcript []string

	// exchange in flight
	current      string
	deltaCh      <-chan string
	doneCh       <-chan error
	cancelStream context.CancelFunc
	sentAt       time.Time
	firstTokenAt time.Time

	sessionStart time.Time
	errMsg       string

	width  int
	height int
}

// NewModel creates the chat TUI model.
func NewModel(client *orbit.Client, clientCfg orbit.ClientConfig, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message, or /help for commands"
	ti.Prompt = "You: "
	ti.PromptStyle = userStyle
	ti.CharLimit = 0
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		clientCfg:    clientCfg,
		client:       client,
		opts:         opts,
		state:        stateChat,
		input:        ti,
		spinner:      s,
		sessionStart: time.Now(),
	}
}

// NewProgram creates a new Bubble Tea program with the given model.
func NewProgram(m Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, textinput.Blink)
}

// --- UPDATE ------------------------------------------------------------------

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = min(m.width-8, 100)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.cancelStream != nil {
				m.cancelStream()
			}
			return m, tea.Quit
		case "enter":
			if m.state != stateChat {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			m.input.Reset()
			m.errMsg = ""
			if strings.HasPrefix(line, "/") {
				return m.handleSlashCommand(line)
			}
			return m.send(line)
		}
		if m.state == stateChat {
			m.input, cmd = m.input.Update(msg)
		}
		return m, cmd

	case streamStartedMsg:
		m.deltaCh = msg.deltaCh
		m.doneCh = msg.doneCh
		return m, tea.Batch(m.spinner.Tick, readDeltaCmd(m.deltaCh), waitDoneCmd(m.doneCh))

	case streamDeltaMsg:
		if m.deltaCh == nil {
			// Leftover delta from an exchange that already finished.
			return m, nil
		}
		if m.firstTokenAt.IsZero() {
			m.firstTokenAt = time.Now()
		}
		if m.state == stateWaiting {
			m.state = stateStreaming
		}
		m.current += msg.delta
		return m, readDeltaCmd(m.deltaCh)

	case streamDoneMsg:
		// The producer sends the done error only after its last delta, so
		// whatever is still buffered belongs to this exchange.
		m.current += drainDeltas(m.deltaCh)
		return m.finishExchange(m.current, msg.err)

	case replyMsg:
		m.firstTokenAt = time.Now()
		return m.finishExchange(msg.text, msg.err)

	case spinner.TickMsg:
		if m.state == stateWaiting {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// send fires one chat exchange and moves the UI into the waiting state.
func (m Model) send(message string) (tea.Model, tea.Cmd) {
	m.transcript = append(m.transcript, userStyle.Render("You: ")+message)
	m.state = stateWaiting
	m.current = ""
	m.sentAt = time.Now()
	m.firstTokenAt = time.Time{}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelStream = cancel
	return m, tea.Batch(m.spinner.Tick, startChatCmd(ctx, m.client, message, m.opts.Stream))
}

// finishExchange records the assistant reply (or the error) and returns the
// UI to the input state.
func (m Model) finishExchange(text string, err error) (tea.Model, tea.Cmd) {
	if text != "" {
		m.transcript = append(m.transcript, assistantStyle.Render("Assistant: ")+text)
	}
	if err != nil {
		m.errMsg = err.Error()
		log.Error().Err(err).Msg("chat exchange failed")
	}
	if m.opts.ShowTiming && err == nil {
		total := time.Since(m.sentAt)
		line := fmt.Sprintf("total %.3fs", total.Seconds())
		if !m.firstTokenAt.IsZero() {
			line += fmt.Sprintf(" · first token %.3fs", m.firstTokenAt.Sub(m.sentAt).Seconds())
		}
		m.transcript = append(m.transcript, timingStyle.Render(line))
	}
	m.state = stateChat
	m.current = ""
	m.deltaCh = nil
	m.doneCh = nil
	if m.cancelStream != nil {
		m.cancelStream()
		m.cancelStream = nil
	}
	return m, textinput.Blink
}

func (m Model) handleSlashCommand(command string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(command) {
	case "/help":
		m.transcript = append(m.transcript, systemStyle.Render(helpText()))
	case "/clear":
		m.transcript = nil
	case "/reset-session":
		m.clientCfg.SessionID = NewSessionID()
		client, err := orbit.NewClient(m.clientCfg)
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.client = client
		m.transcript = append(m.transcript,
			systemStyle.Render("new session: "+m.clientCfg.SessionID))
	case "/status":
		m.transcript = append(m.transcript, systemStyle.Render(m.statusText()))
	case "/timing":
		m.opts.ShowTiming = !m.opts.ShowTiming
		m.transcript = append(m.transcript,
			systemStyle.Render(fmt.Sprintf("timing display: %v", m.opts.ShowTiming)))
	case "/stream":
		m.opts.Stream = !m.opts.Stream
		m.transcript = append(m.transcript,
			systemStyle.Render(fmt.Sprintf("streaming: %v", m.opts.Stream)))
	case "/debug":
		m.opts.Debug = !m.opts.Debug
		if m.opts.Debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
		m.transcript = append(m.transcript,
			systemStyle.Render(fmt.Sprintf("debug: %v", m.opts.Debug)))
	case "/quit":
		return m, tea.Quit
	default:
		m.transcript = append(m.transcript,
			systemStyle.Render("unknown command: "+command+" (try /help)"))
	}
	return m, nil
}

func (m Model) statusText() string {
	mode := "complete"
	if m.opts.Stream {
		mode = "streaming"
	}
	return fmt.Sprintf("endpoint: %s | session: %s | mode: %s | started %s",
		m.client.Endpoint(), m.clientCfg.SessionID, mode, humanize.Time(m.sessionStart))
}

func helpText() string {
	return strings.Join([]string{
		"/help           show this help",
		"/clear          clear the conversation display",
		"/reset-session  start a fresh session id",
		"/status         show endpoint, session and mode",
		"/timing         toggle latency display",
		"/stream         toggle streaming mode",
		"/debug          toggle request debug logging",
		"/quit           exit",
	}, "\n")
}

// --- VIEW --------------------------------------------------------------------

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(logoStyle.Render(logoText) + "\n\n")

	for _, line := range m.transcript {
		b.WriteString(line + "\n")
	}

	switch m.state {
	case stateWaiting:
		b.WriteString(assistantStyle.Render("Assistant: ") + m.spinner.View() + "\n")
	case stateStreaming:
		b.WriteString(assistantStyle.Render("Assistant: ") + m.current + "\n")
	default:
		if m.errMsg != "" {
			b.WriteString(errorStyle.Render("error: "+m.errMsg) + "\n")
		}
		b.WriteString("\n" + m.input.View() + "\n")
	}
	return b.String()
}

// --- COMMANDS ----------------------------------------------------------------

// startChatCmd fires one exchange. In streaming mode it wires delta/done
// channels and returns streamStartedMsg; otherwise it waits for the complete
// response and returns replyMsg. ctx lets the UI release the producer if it
// goes away mid-stream.
func startChatCmd(ctx context.Context, client *orbit.Client, message string, streaming bool) tea.Cmd {
	return func() tea.Msg {
		if !streaming {
			ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
			defer cancel()
			ev, err := client.Chat(ctx, message)
			return replyMsg{text: ev.Text, err: err}
		}

		deltaCh := make(chan string, 64)
		doneCh := make(chan error, 1)
		go func() {
			defer close(deltaCh)
			defer close(doneCh)
			stream, err := client.ChatStream(ctx, message)
			if err != nil {
				doneCh <- err
				return
			}
			defer stream.Close()
			for stream.Next() {
				ev := stream.Current()
				log.Debug().Str("text", ev.Text).Bool("done", ev.Done).Msg("stream event")
				if ev.Text != "" {
					select {
					case deltaCh <- ev.Text:
					case <-ctx.Done():
						doneCh <- ctx.Err()
						return
					}
				}
				if ev.Done {
					break
				}
			}
			doneCh <- stream.Err()
		}()
		return streamStartedMsg{deltaCh: deltaCh, doneCh: doneCh}
	}
}

// drainDeltas collects deltas still buffered in the channel without
// blocking. Safe on a nil channel.
func drainDeltas(ch <-chan string) string {
	if ch == nil {
		return ""
	}
	var b strings.Builder
	for {
		select {
		case d, ok := <-ch:
			if !ok {
				return b.String()
			}
			b.WriteString(d)
		default:
			return b.String()
		}
	}
}

// readDeltaCmd reads a single delta from the channel (if available).
func readDeltaCmd(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		d, ok := <-ch
		if !ok {
			return nil
		}
		return streamDeltaMsg{delta: d}
	}
}

// waitDoneCmd waits for the completion error from the stream.
func waitDoneCmd(done <-chan error) tea.Cmd {
	return func() tea.Msg {
		err, ok := <-done
		if !ok {
			return streamDoneMsg{err: nil}
		}
		return streamDoneMsg{err: err}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
