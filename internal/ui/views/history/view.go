package history

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	conversationdto "murmur/internal/modules/conversation/dto"
	"murmur/internal/ui/theme"
)

const listLimit = 100

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	ListHistory(ctx context.Context, local bool, limit int) ([]conversationdto.SummaryOutput, error)
	OpenHistory(ctx context.Context, sessionID, title string) (conversationdto.SessionOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type SummariesLoadedMsg struct {
	Summaries []conversationdto.SummaryOutput
	Local     bool
	Err       error
}

// OpenedMsg reports a resumed conversation; the app switches to the chat tab.
type OpenedMsg struct {
	Session conversationdto.SessionOutput
	Err     error
}

// ─── list item ───────────────────────────────────────────────────────────────

type summaryItem struct {
	summary conversationdto.SummaryOutput
}

func (i summaryItem) Title() string {
	if i.summary.Title == "" {
		return "(untitled)"
	}
	return i.summary.Title
}

func (i summaryItem) Description() string {
	if i.summary.LastAt.IsZero() {
		return i.summary.SessionID
	}
	return fmt.Sprintf("%s  %s", i.summary.LastAt.Local().Format("Jan 2 15:04"), i.summary.SessionID)
}

func (i summaryItem) FilterValue() string { return i.summary.Title }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    Port
	list    list.Model
	spinner spinner.Model
	local   bool
	loading bool
	width   int
	height  int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Focus).BorderForeground(theme.Focus)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sky).BorderForeground(theme.Focus)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "History"
	l.Styles.Title = theme.Heading
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Focus)

	return Model{port: port, list: l, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(m.local), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width, m.height-1)

	case SummariesLoadedMsg:
		m.loading = false
		m.local = msg.Local
		m.list.Title = m.title()
		if msg.Err != nil {
			m.list.Title = m.title() + ": " + msg.Err.Error()
			return m, m.list.SetItems(nil)
		}
		items := make([]list.Item, len(msg.Summaries))
		for i, s := range msg.Summaries {
			items[i] = summaryItem{summary: s}
		}
		cmds = append(cmds, m.list.SetItems(items))

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		if m.Filtering() {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(summaryItem); ok {
				return m, m.openCmd(item.summary)
			}
		case "r":
			m.loading = true
			return m, tea.Batch(m.loadCmd(m.local), m.spinner.Tick)
		case "l":
			m.loading = true
			return m, tea.Batch(m.loadCmd(!m.local), m.spinner.Tick)
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading conversations…")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.list.View(),
		theme.Dim.Render("enter: resume  r: refresh  l: local/remote  /: filter"),
	)
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Reload refreshes the listing, e.g. after a new conversation got its title.
func (m *Model) Reload() tea.Cmd {
	return m.loadCmd(m.local)
}

// Open resumes a conversation by id, using the cached title when listed.
func (m Model) Open(sessionID string) tea.Cmd {
	summary := conversationdto.SummaryOutput{SessionID: sessionID}
	for _, it := range m.list.Items() {
		if si, ok := it.(summaryItem); ok && si.summary.SessionID == sessionID {
			summary = si.summary
			break
		}
	}
	return m.openCmd(summary)
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) title() string {
	if m.local {
		return "History (this device)"
	}
	return "History"
}

func (m Model) loadCmd(local bool) tea.Cmd {
	return func() tea.Msg {
		summaries, err := m.port.ListHistory(context.Background(), local, listLimit)
		return SummariesLoadedMsg{Summaries: summaries, Local: local, Err: err}
	}
}

func (m Model) openCmd(summary conversationdto.SummaryOutput) tea.Cmd {
	return func() tea.Msg {
		session, err := m.port.OpenHistory(context.Background(), summary.SessionID, summary.Title)
		return OpenedMsg{Session: session, Err: err}
	}
}
