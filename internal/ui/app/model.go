package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	conversationdto "murmur/internal/modules/conversation/dto"
	dispatchdto "murmur/internal/modules/dispatch/dto"
	speechdto "murmur/internal/modules/speech/dto"
	tasksdto "murmur/internal/modules/tasks/dto"
	"murmur/internal/ui/components"
	"murmur/internal/ui/theme"
	chatview "murmur/internal/ui/views/chat"
	historyview "murmur/internal/ui/views/history"
	tasksview "murmur/internal/ui/views/tasks"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.
// Sub-view ports are defined in their own packages and narrowed further.

type conversationPort interface {
	Current(ctx context.Context) (conversationdto.SessionOutput, error)
	StartNew(ctx context.Context) (conversationdto.SessionOutput, error)
	ListHistory(ctx context.Context, local bool, limit int) ([]conversationdto.SummaryOutput, error)
	OpenHistory(ctx context.Context, sessionID, title string) (conversationdto.SessionOutput, error)
	Changes() <-chan struct{}
}

type dispatchPort interface {
	SendText(ctx context.Context, text string) (dispatchdto.SendOutput, error)
	SendUtterance(ctx context.Context, transcript string) (dispatchdto.SendOutput, error)
	SendFile(ctx context.Context, path, prompt string) (dispatchdto.SendOutput, error)
	Await(ctx context.Context, correlationID string) (dispatchdto.ReplyOutput, error)
	Candidates(ctx context.Context) ([]dispatchdto.CandidateOutput, error)
}

type speechPort interface {
	Toggle(ctx context.Context) (bool, error)
	Status(ctx context.Context) speechdto.StatusOutput
	Events() <-chan speechdto.EventOutput
}

type tasksPort interface {
	List(ctx context.Context, status string, refresh bool) (tasksdto.ListOutput, error)
	Delete(ctx context.Context, id string) error
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabChat tabID = iota
	tabHistory
	tabTasks
	tabCount
)

var tabLabels = [tabCount]string{"Chat", "History", "Tasks"}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Send    key.Binding
	Mic     key.Binding
	NewChat key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Palette: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Send:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send / open")),
		Mic:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "microphone")),
		NewChat: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Send},
		{k.Mic, k.NewChat},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the global help
// overlay and the command palette. Rendering is delegated to sub-views.
type Model struct {
	chatView    chatview.Model
	historyView historyview.Model
	tasksView   tasksview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

// ─── constructor ─────────────────────────────────────────────────────────────

func NewModel(conv conversationPort, dispatch dispatchPort, speech speechPort, tasks tasksPort) Model {
	return Model{
		chatView:    chatview.New(conv, dispatch, speech),
		historyView: historyview.New(conv),
		tasksView:   tasksview.New(tasks),
		activeTab:   tabChat,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.chatView.Init(), m.historyView.Init(), m.tasksView.Init())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The palette intercepts all input while open.
	if m.palette.Visible() {
		if _, isKey := msg.(tea.KeyMsg); isKey {
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	// OpenedMsg is produced by the history view but is handled here so the
	// resumed session lands in the chat tab.
	case historyview.OpenedMsg:
		if msg.Err != nil {
			m.status = "history: " + msg.Err.Error()
			return m, nil
		}
		m.activeTab = tabChat
		m.status = "resumed: " + msg.Session.Title
		if msg.Session.Fallback {
			m.status = "history unavailable, showing local copy: " + msg.Session.FallbackReason
		}
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(chatview.SessionLoadedMsg{Session: msg.Session})
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Async results fan out to every view; each ignores what it does not own.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.chatView, cmd = m.chatView.Update(msg)
	cmds = append(cmds, cmd)
	m.historyView, cmd = m.historyView.Update(msg)
	cmds = append(cmds, cmd)
	m.tasksView, cmd = m.tasksView.Update(msg)
	cmds = append(cmds, cmd)
	if s := m.chatView.Status(); s != "" {
		m.status = s
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if msg.String() == "f1" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "f1":
		m.showHelp = true
		return m, nil
	case "ctrl+p":
		return m, m.palette.Open()
	case "ctrl+r":
		m.activeTab = tabChat
		return m, m.chatView.ToggleMic()
	case "ctrl+n":
		m.activeTab = tabChat
		m.status = "new chat"
		return m, m.chatView.NewChat()
	}

	if !m.subViewFiltering() {
		switch msg.String() {
		case "tab":
			return m.switchTab((m.activeTab + 1) % tabCount)
		case "shift+tab":
			return m.switchTab((m.activeTab + tabCount - 1) % tabCount)
		}
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case tabChat:
		m.chatView, cmd = m.chatView.Update(msg)
		if s := m.chatView.Status(); s != "" {
			m.status = s
		}
	case tabHistory:
		m.historyView, cmd = m.historyView.Update(msg)
	case tabTasks:
		m.tasksView, cmd = m.tasksView.Update(msg)
	}
	return m, cmd
}

func (m Model) switchTab(tab tabID) (tea.Model, tea.Cmd) {
	m.activeTab = tab
	switch tab {
	case tabHistory:
		return m, m.historyView.Reload()
	case tabTasks:
		return m, m.tasksView.EnsureLoaded()
	}
	return m, nil
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabChat:
		return m.chatView.View()
	case tabHistory:
		return m.historyView.View()
	case tabTasks:
		return m.tasksView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Accent.Render(" " + label + " ")
		} else {
			parts[i] = theme.Dim.Render(" " + label + " ")
		}
	}
	sep := theme.Dim.Render(" │ ")
	bar := "murmur  " + strings.Join(parts, sep)
	return theme.Strip.Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := theme.Dim.Render("f1:help  tab:switch  ctrl+p:palette  ctrl+c:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + theme.Strip.Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)

	switch parts[0] {
	case "new":
		m.activeTab = tabChat
		return m, m.chatView.NewChat()

	case "upload":
		if len(parts) < 2 {
			m.status = "usage: upload <path> [prompt]"
			return m, nil
		}
		prompt := strings.TrimSpace(strings.TrimPrefix(input, parts[0]+" "+parts[1]))
		m.activeTab = tabChat
		m.status = "uploading " + parts[1]
		return m, m.chatView.Upload(parts[1], prompt)

	case "mic":
		m.activeTab = tabChat
		return m, m.chatView.ToggleMic()

	case "history":
		return m.switchTab(tabHistory)

	case "history:open":
		if len(parts) < 2 {
			m.status = "usage: history:open <id>"
			return m, nil
		}
		return m, m.historyView.Open(parts[1])

	case "tasks", "tasks:refresh":
		m.activeTab = tabTasks
		return m, m.tasksView.Refresh()

	case "tasks:delete":
		if len(parts) < 2 {
			m.status = "usage: tasks:delete <id>"
			return m, nil
		}
		m.activeTab = tabTasks
		return m, m.tasksView.Delete(parts[1])

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// subViewFiltering reports whether the active tab's list filter is open,
// in which case global key bindings must yield to allow free typing.
func (m Model) subViewFiltering() bool {
	switch m.activeTab {
	case tabHistory:
		return m.historyView.Filtering()
	case tabTasks:
		return m.tasksView.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.chatView, _ = m.chatView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
	m.tasksView, _ = m.tasksView.Update(sz)
}
