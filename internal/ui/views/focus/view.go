package focus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "studypact/internal/modules/session/dto"
	apperrors "studypact/internal/platform/errors"
	"studypact/internal/ui/theme"
)

type Port interface {
	ActiveFocus(ctx context.Context) (sessiondto.FocusOutput, error)
	ActiveTimer(ctx context.Context) (sessiondto.TimerOutput, error)
}

type RefreshedMsg struct {
	Focus    sessiondto.FocusOutput
	HasFocus bool
	Timer    sessiondto.TimerOutput
	HasTimer bool
	Err      error
}

type tickMsg time.Time

type Model struct {
	port     Port
	bar      progress.Model
	focus    sessiondto.FocusOutput
	hasFocus bool
	timer    sessiondto.TimerOutput
	hasTimer bool
	err      error
	width    int
	height   int
}

func New(port Port) Model {
	return Model{
		port: port,
		bar:  progress.New(progress.WithScaledGradient(string(theme.Lavender), string(theme.Peach))),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Refresh(), tick())
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, min(msg.Width-8, 72))
	case tickMsg:
		return m, tea.Batch(m.Refresh(), tick())
	case RefreshedMsg:
		m.focus, m.hasFocus = msg.Focus, msg.HasFocus
		m.timer, m.hasTimer = msg.Timer, msg.HasTimer
		m.err = msg.Err
	}
	return m, nil
}

// Active reports whether a focus countdown is currently shown.
func (m Model) Active() bool { return m.hasFocus }

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Focus") + "\n\n")
	if m.hasFocus {
		f := m.focus
		elapsed := f.Duration - f.Remaining
		ratio := 0.0
		if f.Duration > 0 {
			ratio = float64(elapsed) / float64(f.Duration)
		}
		sb.WriteString(theme.Hot.Render(f.Subject) + "  " + theme.Muted.Render("started "+f.StartedAt.Local().Format("15:04")) + "\n\n")
		sb.WriteString(lipgloss.NewStyle().Bold(true).Render(Clock(f.Remaining)) + " remaining\n")
		sb.WriteString(m.bar.ViewAs(ratio) + "\n\n")
		sb.WriteString(fmt.Sprintf("%s %d   %s %d\n",
			theme.Good.Render("reward"), f.Reward, theme.Bad.Render("penalty if abandoned"), f.Penalty))
		sb.WriteString(theme.Muted.Render("Leaving this window or quitting abandons the session.") + "\n")
	} else {
		sb.WriteString(theme.Muted.Render("No focus session. Press f to start one with the defaults, or use :focus:start.") + "\n")
	}

	sb.WriteString("\n" + theme.Title.Render("Subject timer") + "\n\n")
	if m.hasTimer {
		sb.WriteString(fmt.Sprintf("%s  %s\n", theme.Hot.Render(m.timer.Subject), Clock(m.timer.Elapsed)))
	} else {
		sb.WriteString(theme.Muted.Render("No timer running.") + "\n")
	}
	if m.err != nil {
		sb.WriteString("\n" + theme.Bad.Render(m.err.Error()) + "\n")
	}
	return theme.Pane.Width(max(20, m.width-4)).Height(max(1, m.height-4)).Render(sb.String())
}

func (m Model) Refresh() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		if port == nil {
			return RefreshedMsg{}
		}
		ctx := context.Background()
		var out RefreshedMsg
		focus, err := port.ActiveFocus(ctx)
		switch {
		case err == nil:
			out.Focus, out.HasFocus = focus, true
		case !errors.Is(err, apperrors.ErrNoActiveSession):
			out.Err = err
		}
		timer, err := port.ActiveTimer(ctx)
		switch {
		case err == nil:
			out.Timer, out.HasTimer = timer, true
		case !errors.Is(err, apperrors.ErrNoActiveSession) && out.Err == nil:
			out.Err = err
		}
		return out
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Clock renders d as mm:ss, or h:mm:ss past an hour.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
