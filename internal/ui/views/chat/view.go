package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	conversationdto "murmur/internal/modules/conversation/dto"
	dispatchdto "murmur/internal/modules/dispatch/dto"
	speechdto "murmur/internal/modules/speech/dto"
	"murmur/internal/ui/theme"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type ConversationPort interface {
	Current(ctx context.Context) (conversationdto.SessionOutput, error)
	StartNew(ctx context.Context) (conversationdto.SessionOutput, error)
	Changes() <-chan struct{}
}

type DispatchPort interface {
	SendText(ctx context.Context, text string) (dispatchdto.SendOutput, error)
	SendUtterance(ctx context.Context, transcript string) (dispatchdto.SendOutput, error)
	SendFile(ctx context.Context, path, prompt string) (dispatchdto.SendOutput, error)
	Await(ctx context.Context, correlationID string) (dispatchdto.ReplyOutput, error)
	Candidates(ctx context.Context) ([]dispatchdto.CandidateOutput, error)
}

type SpeechPort interface {
	Toggle(ctx context.Context) (bool, error)
	Status(ctx context.Context) speechdto.StatusOutput
	Events() <-chan speechdto.EventOutput
}

// ─── messages ────────────────────────────────────────────────────────────────

type SessionLoadedMsg struct {
	Session conversationdto.SessionOutput
	Err     error
}

type changedMsg struct{}

type sentMsg struct {
	out dispatchdto.SendOutput
	err error
}

type replyMsg struct {
	reply dispatchdto.ReplyOutput
	err   error
}

type candidatesMsg struct {
	candidates []dispatchdto.CandidateOutput
}

type speechEventMsg struct {
	event speechdto.EventOutput
}

type micToggledMsg struct {
	listening bool
	err       error
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model renders the current session log and owns the composer.
type Model struct {
	conv     ConversationPort
	dispatch DispatchPort
	speech   SpeechPort

	viewport   viewport.Model
	input      textinput.Model
	spinner    spinner.Model
	renderer   *glamour.TermRenderer
	session    conversationdto.SessionOutput
	inflight   map[string]struct{}
	candidates []dispatchdto.CandidateOutput
	mic        string
	status     string
	width      int
	height     int
}

func New(conv ConversationPort, dispatch DispatchPort, speech SpeechPort) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message…"
	ti.CharLimit = 4000
	ti.Prompt = "› "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Focus)

	r, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(0),
	)

	mic := "unavailable"
	if speech != nil && speech.Status(context.Background()).Supported {
		mic = "idle"
	}

	return Model{
		conv:     conv,
		dispatch: dispatch,
		speech:   speech,
		viewport: viewport.New(0, 0),
		input:    ti,
		spinner:  sp,
		renderer: r,
		inflight: map[string]struct{}{},
		mic:      mic,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadCmd(), m.watchChanges(), m.watchSpeech())
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.viewport.SetContent(m.renderLog())

	case SessionLoadedMsg:
		if msg.Err != nil {
			m.status = "load session: " + msg.Err.Error()
			break
		}
		m.session = msg.Session
		if msg.Session.Fallback {
			m.status = "history unavailable, started a new chat: " + msg.Session.FallbackReason
		}
		m.viewport.SetContent(m.renderLog())
		m.viewport.GotoBottom()

	case changedMsg:
		cmds = append(cmds, m.loadCmd(), m.watchChanges())

	case sentMsg:
		if msg.err != nil {
			m.status = "send: " + msg.err.Error()
			break
		}
		if msg.out.Skipped {
			break
		}
		m.inflight[msg.out.CorrelationID] = struct{}{}
		cmds = append(cmds, m.awaitCmd(msg.out.CorrelationID), m.candidatesCmd(), m.spinner.Tick)

	case replyMsg:
		if msg.err != nil {
			m.status = "await: " + msg.err.Error()
			break
		}
		delete(m.inflight, msg.reply.CorrelationID)
		if msg.reply.Failed {
			m.status = "request failed: " + msg.reply.Error
		} else {
			m.status = ""
		}

	case candidatesMsg:
		m.candidates = msg.candidates

	case micToggledMsg:
		if msg.err != nil {
			m.status = "microphone: " + msg.err.Error()
		}

	case speechEventMsg:
		cmds = append(cmds, m.watchSpeech())
		switch msg.event.Kind {
		case speechdto.EventStateChanged:
			m.mic = msg.event.State
		case speechdto.EventTranscript:
			m.input.SetValue(msg.event.Transcript)
			m.input.CursorEnd()
		case speechdto.EventUtteranceComplete:
			m.mic = msg.event.State
			m.input.Reset()
			cmds = append(cmds, m.sendCmd(msg.event.Transcript, true))
		case speechdto.EventError:
			m.mic = msg.event.State
			m.status = "microphone: " + msg.event.Error
		}

	case spinner.TickMsg:
		if len(m.inflight) > 0 {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			text := m.input.Value()
			if strings.TrimSpace(text) == "" {
				return m, nil
			}
			m.input.Reset()
			return m, m.sendCmd(text, false)
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	var vCmd tea.Cmd
	m.viewport, vCmd = m.viewport.Update(msg)
	cmds = append(cmds, vCmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	header := m.renderHeader()
	footer := m.renderFooter()
	vpHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if vpHeight < 1 {
		vpHeight = 1
	}
	vp := m.viewport
	vp.Height = vpHeight
	return lipgloss.JoinVertical(lipgloss.Left, header, vp.View(), footer)
}

// SessionID is the id of the displayed session; empty before the first message.
func (m Model) SessionID() string { return m.session.SessionID }

// Status returns and clears the last status line.
func (m *Model) Status() string {
	s := m.status
	m.status = ""
	return s
}

// NewChat starts an empty session.
func (m Model) NewChat() tea.Cmd {
	return func() tea.Msg {
		session, err := m.conv.StartNew(context.Background())
		return SessionLoadedMsg{Session: session, Err: err}
	}
}

// Upload sends a local file with an optional prompt.
func (m Model) Upload(path, prompt string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.dispatch.SendFile(context.Background(), path, prompt)
		return sentMsg{out: out, err: err}
	}
}

// ToggleMic starts or stops speech capture.
func (m Model) ToggleMic() tea.Cmd {
	if m.speech == nil {
		return nil
	}
	return func() tea.Msg {
		listening, err := m.speech.Toggle(context.Background())
		return micToggledMsg{listening: listening, err: err}
	}
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	m.viewport.Width = m.width
	m.viewport.Height = m.height - 4
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	m.input.Width = m.width - 4
	if r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(m.width-4),
	); err == nil {
		m.renderer = r
	}
}

func (m Model) renderHeader() string {
	title := m.session.Title
	if title == "" {
		title = "New chat"
	}
	id := m.session.SessionID
	if id == "" {
		id = "unsaved"
	}
	return theme.Heading.Render(title) + theme.Dim.Render("  "+id) + "\n"
}

func (m Model) renderFooter() string {
	var lines []string
	if len(m.candidates) > 0 {
		parts := make([]string, 0, len(m.candidates))
		for _, c := range m.candidates {
			layout := "Mon Jan 2"
			if c.Exact {
				layout = "Mon Jan 2 15:04"
			}
			parts = append(parts, fmt.Sprintf("%q → %s", c.Text, c.Start.Format(layout)))
		}
		lines = append(lines, theme.Dim.Render("⏰ "+strings.Join(parts, "  ")))
	}

	indicator := theme.Dim.Render("mic " + m.mic)
	if m.mic == "listening" {
		indicator = theme.Listening.Render("● listening")
	}
	if len(m.inflight) > 0 {
		indicator += "  " + m.spinner.View() + theme.Dim.Render(fmt.Sprintf(" %d waiting", len(m.inflight)))
	}
	lines = append(lines, indicator, m.input.View())
	return strings.Join(lines, "\n")
}

func (m Model) renderLog() string {
	if len(m.session.Messages) == 0 {
		return theme.Dim.Render("Say hello, attach a file with :upload <path>, or press ctrl+r to talk.")
	}
	blocks := make([]string, 0, len(m.session.Messages))
	for _, msg := range m.session.Messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg conversationdto.MessageOutput) string {
	if msg.Origin == "user" {
		label := theme.Accent.Render("you")
		if msg.Kind != "text" {
			return label + "  " + renderAttachment(msg)
		}
		return label + "  " + msg.Payload
	}
	label := theme.Heading.Render("assistant")
	if msg.Synthetic {
		return label + "  " + theme.Failure.Render(msg.Payload)
	}
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(msg.Payload); err == nil {
			return label + "\n" + strings.TrimRight(rendered, "\n")
		}
	}
	return label + "  " + msg.Payload
}

func renderAttachment(msg conversationdto.MessageOutput) string {
	name := msg.AttachmentName
	if name == "" {
		name = msg.Payload
	}
	details := []string{msg.MIMEType}
	if msg.Pages > 0 {
		details = append(details, fmt.Sprintf("%d pages", msg.Pages))
	}
	if msg.Delivery != "" {
		details = append(details, msg.Delivery)
	}
	return "📎 " + name + theme.Dim.Render(" ("+strings.Join(details, ", ")+")")
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		session, err := m.conv.Current(context.Background())
		return SessionLoadedMsg{Session: session, Err: err}
	}
}

func (m Model) watchChanges() tea.Cmd {
	ch := m.conv.Changes()
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func (m Model) watchSpeech() tea.Cmd {
	if m.speech == nil {
		return nil
	}
	events := m.speech.Events()
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		return speechEventMsg{event: <-events}
	}
}

func (m Model) sendCmd(text string, spoken bool) tea.Cmd {
	return func() tea.Msg {
		var (
			out dispatchdto.SendOutput
			err error
		)
		if spoken {
			out, err = m.dispatch.SendUtterance(context.Background(), text)
		} else {
			out, err = m.dispatch.SendText(context.Background(), text)
		}
		return sentMsg{out: out, err: err}
	}
}

func (m Model) awaitCmd(correlationID string) tea.Cmd {
	return func() tea.Msg {
		reply, err := m.dispatch.Await(context.Background(), correlationID)
		return replyMsg{reply: reply, err: err}
	}
}

func (m Model) candidatesCmd() tea.Cmd {
	return func() tea.Msg {
		candidates, _ := m.dispatch.Candidates(context.Background())
		return candidatesMsg{candidates: candidates}
	}
}
