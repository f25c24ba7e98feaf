package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	tasksdto "murmur/internal/modules/tasks/dto"
	"murmur/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	List(ctx context.Context, status string, refresh bool) (tasksdto.ListOutput, error)
	Delete(ctx context.Context, id string) error
}

// ─── messages ────────────────────────────────────────────────────────────────

type TasksLoadedMsg struct {
	Out tasksdto.ListOutput
	Err error
}

type DeletedMsg struct {
	ID  string
	Err error
}

// ─── list item ───────────────────────────────────────────────────────────────

type taskItem struct {
	task tasksdto.TaskOutput
}

func (i taskItem) Title() string {
	mark := "○ "
	if i.task.Status == "completed" {
		mark = "✓ "
	}
	return mark + i.task.Title
}

func (i taskItem) Description() string {
	if i.task.Due.IsZero() {
		return i.task.DueRaw
	}
	return i.task.Due.Local().Format("Mon Jan 2 15:04")
}

func (i taskItem) FilterValue() string { return i.task.Title }

// ─── model ───────────────────────────────────────────────────────────────────

var filters = []string{"all", "pending", "completed"}

type Model struct {
	port    Port
	list    list.Model
	detail  viewport.Model
	filter  int
	counts  [2]int
	loaded  bool
	message string
	width   int
	height  int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Focus).BorderForeground(theme.Focus)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sky).BorderForeground(theme.Focus)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Tasks & Reminders"
	l.Styles.Title = theme.Heading
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Bar).Foreground(theme.Ink).Padding(1)

	return Model{port: port, list: l, detail: vp}
}

// Init defers loading until the tab is first shown.
func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case TasksLoadedMsg:
		m.loaded = true
		if msg.Err != nil {
			m.message = msg.Err.Error()
			return m, nil
		}
		m.message = ""
		m.counts = [2]int{msg.Out.Pending, msg.Out.Completed}
		items := make([]list.Item, len(msg.Out.Tasks))
		for i, t := range msg.Out.Tasks {
			items[i] = taskItem{task: t}
		}
		cmds = append(cmds, m.list.SetItems(items))

	case DeletedMsg:
		if msg.Err != nil {
			m.message = "delete failed, task restored: " + msg.Err.Error()
		}
		cmds = append(cmds, m.loadCmd(false))

	case tea.KeyMsg:
		if m.Filtering() {
			break
		}
		switch msg.String() {
		case "r":
			return m, m.loadCmd(true)
		case "f":
			m.filter = (m.filter + 1) % len(filters)
			return m, m.loadCmd(false)
		case "d", "delete":
			if item, ok := m.list.SelectedItem().(taskItem); ok {
				m.list.RemoveItem(m.list.Index())
				return m, m.deleteCmd(item.task.ID)
			}
		}
	}

	var lCmd tea.Cmd
	m.list, lCmd = m.list.Update(msg)
	cmds = append(cmds, lCmd)
	m.detail.SetContent(m.renderDetail())
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	listW := m.width * 5 / 10
	listPane := lipgloss.NewStyle().Width(listW).Height(m.height - 1).Render(m.list.View())
	detailPane := theme.Panel.
		Width(m.width - listW - 2).
		Height(m.height - 3).
		Render(m.detail.View())

	footer := fmt.Sprintf("%d pending, %d completed  [%s]  r: refresh  f: filter  d: delete",
		m.counts[0], m.counts[1], filters[m.filter])
	if m.message != "" {
		footer = theme.Accent.Render(m.message) + "  " + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane),
		theme.Dim.Render(footer),
	)
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// EnsureLoaded fetches tasks the first time the tab is shown.
func (m Model) EnsureLoaded() tea.Cmd {
	if m.loaded {
		return nil
	}
	return m.loadCmd(false)
}

// Refresh reloads tasks from the backend.
func (m Model) Refresh() tea.Cmd { return m.loadCmd(true) }

// Delete removes a task by id.
func (m Model) Delete(id string) tea.Cmd { return m.deleteCmd(id) }

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 5 / 10
	m.list.SetSize(listW, m.height-1)
	m.detail.Width = m.width - listW - 4
	m.detail.Height = m.height - 5
}

func (m Model) renderDetail() string {
	item, ok := m.list.SelectedItem().(taskItem)
	if !ok {
		return theme.Dim.Render("No task selected")
	}
	t := item.task
	var sb strings.Builder
	sb.WriteString(theme.Heading.Render(t.Title) + "\n\n")
	sb.WriteString(theme.Dim.Render("id:       ") + t.ID + "\n")
	sb.WriteString(theme.Dim.Render("status:   ") + t.Status + "\n")
	sb.WriteString(theme.Dim.Render("due:      ") + item.Description() + "\n")
	if t.Priority != "" {
		sb.WriteString(theme.Dim.Render("priority: ") + t.Priority + "\n")
	}
	if t.Category != "" {
		sb.WriteString(theme.Dim.Render("category: ") + t.Category + "\n")
	}
	if t.Notes != "" {
		sb.WriteString("\n" + t.Notes + "\n")
	}
	return sb.String()
}

func (m Model) loadCmd(refresh bool) tea.Cmd {
	status := filters[m.filter]
	return func() tea.Msg {
		out, err := m.port.List(context.Background(), status, refresh)
		return TasksLoadedMsg{Out: out, Err: err}
	}
}

func (m Model) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return DeletedMsg{ID: id, Err: m.port.Delete(context.Background(), id)}
	}
}
