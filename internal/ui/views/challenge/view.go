package challenge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	challengedto "studypact/internal/modules/challenge/dto"
	"studypact/internal/ui/theme"
)

type Port interface {
	Templates(ctx context.Context) ([]challengedto.TemplateOutput, error)
	Status(ctx context.Context) (challengedto.StatusOutput, error)
}

type TemplatesLoadedMsg struct {
	Templates []challengedto.TemplateOutput
	Err       error
}

type StatusLoadedMsg struct {
	Status challengedto.StatusOutput
	Err    error
}

type templateItem struct {
	tmpl challengedto.TemplateOutput
}

func (i templateItem) Title() string { return i.tmpl.Title }
func (i templateItem) Description() string {
	return fmt.Sprintf("%d days  fee %d  reward %d", i.tmpl.DurationDays, i.tmpl.EntryFee, i.tmpl.Reward)
}
func (i templateItem) FilterValue() string { return i.tmpl.ID + " " + i.tmpl.Title }

type Model struct {
	port   Port
	list   list.Model
	board  viewport.Model
	status challengedto.StatusOutput
	err    error
	width  int
	height int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Templates"
	l.Styles.Title = theme.Title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(1)
	return Model{port: port, list: l, board: vp}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadTemplatesCmd(), m.Refresh())
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.board.SetContent(m.renderBoard())
	case TemplatesLoadedMsg:
		if msg.Err != nil {
			m.list.Title = "Templates: " + msg.Err.Error()
			break
		}
		items := make([]list.Item, len(msg.Templates))
		for i, t := range msg.Templates {
			items[i] = templateItem{tmpl: t}
		}
		cmds = append(cmds, m.list.SetItems(items))
		m.board.SetContent(m.renderBoard())
	case StatusLoadedMsg:
		m.status, m.err = msg.Status, msg.Err
		m.board.SetContent(m.renderBoard())
	}

	prev := m.list.Index()
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	if m.list.Index() != prev {
		m.board.SetContent(m.renderBoard())
	}
	m.board, cmd = m.board.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	listW := m.width * 35 / 100
	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(m.list.View())
	boardPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(max(10, m.width-listW-2)).
		Height(max(1, m.height-2)).
		Render(m.board.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, boardPane)
}

// SetStatus replaces the board with a view pushed from elsewhere, such as a
// store watch or the result of an action.
func (m *Model) SetStatus(status challengedto.StatusOutput) {
	m.status, m.err = status, nil
	m.board.SetContent(m.renderBoard())
}

func (m Model) SelectedTemplateID() (string, bool) {
	if item, ok := m.list.SelectedItem().(templateItem); ok {
		return item.tmpl.ID, true
	}
	return "", false
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *Model) resize() {
	listW := m.width * 35 / 100
	m.list.SetSize(listW, m.height)
	m.board.Width = max(10, m.width-listW-6)
	m.board.Height = max(1, m.height-4)
}

func (m Model) renderBoard() string {
	if m.err != nil {
		return theme.Bad.Render(m.err.Error())
	}
	if !m.status.Exists {
		return m.renderTemplate()
	}
	s := m.status
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(s.Title) + "  " + statusBadge(s.Status) + "\n\n")
	switch s.Status {
	case "active":
		sb.WriteString(fmt.Sprintf("Day %d of %d\n", s.Day, s.DurationDays))
		if s.HasWindow {
			sb.WriteString(theme.Muted.Render(fmt.Sprintf("check-in window %s to %s",
				s.WindowOpen.Local().Format("15:04"), s.WindowClose.Local().Format("15:04"))) + "\n")
		}
		if s.CheckedInToday {
			sb.WriteString(theme.Good.Render("Checked in today.") + "\n")
		}
	case "completed":
		sb.WriteString(theme.Good.Render(fmt.Sprintf("All %d days done. Reward %d paid.", s.DurationDays, s.Reward)) + "\n")
	case "failed":
		sb.WriteString(theme.Bad.Render("Failed: "+s.FailureReason) + "\n")
		if s.BanRemaining > 0 {
			sb.WriteString(theme.Warn.Render("New challenges locked for "+s.BanRemaining.Round(time.Minute).String()) + "\n")
			sb.WriteString(theme.Muted.Render("Lift the ban early with :challenge:lift-ban") + "\n")
		}
	}

	sb.WriteString("\n" + theme.Title.Render("Today") + "\n")
	for _, g := range s.Goals {
		sb.WriteString(goalLine(g) + "\n")
	}
	if len(s.Days) > 1 {
		sb.WriteString("\n" + theme.Title.Render("Days") + "\n")
		for _, d := range s.Days {
			mark := theme.Muted.Render("·")
			if d.CheckedIn {
				mark = theme.Good.Render("✓")
			}
			sb.WriteString(fmt.Sprintf("%s %d ", mark, d.Day))
		}
		sb.WriteString("\n")
	}
	if s.Status == "active" {
		sb.WriteString("\n" + theme.Muted.Render("c: check in  :challenge:progress <goal> <value>  :challenge:forfeit"))
	}
	return sb.String()
}

func (m Model) renderTemplate() string {
	item, ok := m.list.SelectedItem().(templateItem)
	if !ok {
		return theme.Muted.Render("No challenge running and no templates available.")
	}
	t := item.tmpl
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(&md, "%s\n\n", t.Description)
	}
	fmt.Fprintf(&md, "**%d days**, entry fee **%d**, reward **%d**", t.DurationDays, t.EntryFee, t.Reward)
	if t.CheckInTime != "" {
		fmt.Fprintf(&md, ", check in at **%s**", t.CheckInTime)
	}
	md.WriteString("\n\n## Daily goals\n\n")
	for _, g := range t.Goals {
		desc := g.Description
		if desc == "" {
			desc = g.ID
		}
		fmt.Fprintf(&md, "- %s (`%s` ≥ %d)\n", desc, g.ID, g.Target)
	}
	if len(t.Rules) > 0 {
		md.WriteString("\n## Rules\n\n")
		for _, r := range t.Rules {
			fmt.Fprintf(&md, "- %s\n", r)
		}
	}
	md.WriteString("\n_enter: start this challenge_\n")
	return renderMarkdown(md.String(), m.board.Width)
}

func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(max(20, width-2)))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func goalLine(g challengedto.GoalOutput) string {
	mark := theme.Muted.Render("○")
	if g.Completed {
		mark = theme.Good.Render("●")
	}
	name := g.Description
	if name == "" {
		name = g.ID
	}
	return fmt.Sprintf("%s %s  %s", mark, name, theme.Muted.Render(fmt.Sprintf("%d/%d", g.Current, g.Target)))
}

func statusBadge(status string) string {
	switch status {
	case "active":
		return theme.Hot.Render("[active]")
	case "completed":
		return theme.Good.Render("[completed]")
	case "failed":
		return theme.Bad.Render("[failed]")
	}
	return theme.Muted.Render("[" + status + "]")
}

func (m Model) loadTemplatesCmd() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		if port == nil {
			return TemplatesLoadedMsg{}
		}
		templates, err := port.Templates(context.Background())
		return TemplatesLoadedMsg{Templates: templates, Err: err}
	}
}

func (m Model) Refresh() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		if port == nil {
			return StatusLoadedMsg{}
		}
		status, err := port.Status(context.Background())
		return StatusLoadedMsg{Status: status, Err: err}
	}
}
