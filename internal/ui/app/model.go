package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	challengedto "studypact/internal/modules/challenge/dto"
	sessiondto "studypact/internal/modules/session/dto"
	apperrors "studypact/internal/platform/errors"
	"studypact/internal/ui/components"
	"studypact/internal/ui/theme"
	challengeview "studypact/internal/ui/views/challenge"
	focusview "studypact/internal/ui/views/focus"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type focusPort interface {
	focusview.Port
	StartFocus(ctx context.Context, input sessiondto.StartFocusInput) (sessiondto.FocusOutput, error)
	Run(ctx context.Context) error
	Stop(ctx context.Context) (sessiondto.AbandonOutput, error)
	StartTimer(ctx context.Context, subject string) (sessiondto.TimerOutput, error)
	SwitchTimer(ctx context.Context, subject string) (sessiondto.SwitchTimerOutput, error)
	StopTimer(ctx context.Context) (sessiondto.StopTimerOutput, error)
}

type challengePort interface {
	challengeview.Port
	Start(ctx context.Context, templateID string) (challengedto.StatusOutput, error)
	CheckIn(ctx context.Context) (challengedto.CheckInOutput, error)
	Progress(ctx context.Context, goalID string, value int64) (challengedto.StatusOutput, error)
	Forfeit(ctx context.Context) (challengedto.StatusOutput, error)
	LiftBan(ctx context.Context) (challengedto.LiftBanOutput, error)
}

// Lifecycle receives the window events that end a focus session early.
type Lifecycle interface {
	FireVisibilityHidden()
	FireBeforeDiscard()
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabFocus tabID = iota
	tabChallenge
	tabCount
)

var tabLabels = [tabCount]string{"Focus", "Challenge"}

// ─── messages ────────────────────────────────────────────────────────────────

// SessionEventMsg carries a session event from the controller subscription.
type SessionEventMsg struct{ Event sessiondto.EventOutput }

// ChallengeChangedMsg carries a record change seen by the challenge watch.
type ChallengeChangedMsg struct{ Status challengedto.StatusOutput }

// NoticeMsg is a wallet notice line.
type NoticeMsg string

type focusStartedMsg struct {
	out sessiondto.FocusOutput
	err error
}

type focusRunDoneMsg struct{ err error }

type actionDoneMsg struct {
	status    string
	err       error
	challenge *challengedto.StatusOutput
}

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Tab       key.Binding
	Help      key.Binding
	Palette   key.Binding
	Quit      key.Binding
	Focus     key.Binding
	StopFocus key.Binding
	Start     key.Binding
	CheckIn   key.Binding
	Refresh   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:   key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Focus:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "start focus")),
		StopFocus: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "abandon focus")),
		Start:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start challenge")),
		CheckIn:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "check in")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Focus, k.StopFocus},
		{k.Start, k.CheckIn, k.Refresh},
		{k.Help, k.Palette, k.Quit},
	}
}

var paletteHints = []string{
	"focus:start [minutes] [subject]",
	"focus:stop",
	"timer:start <subject>",
	"timer:switch <subject>",
	"timer:stop",
	"challenge:start <template>",
	"challenge:checkin",
	"challenge:progress <goal> <value>",
	"challenge:forfeit",
	"challenge:lift-ban",
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It routes tabs, owns the help overlay
// and palette, and turns window blur and quit into lifecycle events.
type Model struct {
	focus     focusPort
	challenge challengePort
	lifecycle Lifecycle

	focusView     focusview.Model
	challengeView challengeview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	banner    string
	width     int
	height    int
}

func NewModel(focus focusPort, challenge challengePort, lifecycle Lifecycle) Model {
	return Model{
		focus:         focus,
		challenge:     challenge,
		lifecycle:     lifecycle,
		focusView:     focusview.New(focus),
		challengeView: challengeview.New(challenge),
		activeTab:     tabFocus,
		keys:          defaultKeys(),
		help:          help.New(),
		palette:       components.NewPalette(paletteHints),
		status:        "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.focusView.Init(), m.challengeView.Init())
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.palette.Visible() {
		if _, ok := msg.(tea.KeyMsg); ok {
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

	case tea.BlurMsg:
		if m.focusView.Active() && m.lifecycle != nil {
			m.lifecycle.FireVisibilityHidden()
		}
		return m, m.focusView.Refresh()

	case SessionEventMsg:
		m.banner = eventBanner(msg.Event)
		return m, tea.Batch(m.focusView.Refresh(), m.challengeView.Refresh())

	case ChallengeChangedMsg:
		m.challengeView.SetStatus(msg.Status)
		return m, nil

	case NoticeMsg:
		m.status = string(msg)
		return m, nil

	case focusStartedMsg:
		if msg.err != nil {
			m.status = "focus start failed: " + msg.err.Error()
			return m, nil
		}
		m.banner = ""
		m.status = fmt.Sprintf("focus started: %s for %s", msg.out.Subject, focusview.Clock(msg.out.Duration))
		m.activeTab = tabFocus
		return m, tea.Batch(m.runFocusCmd(), m.focusView.Refresh())

	case focusRunDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.status = "focus run: " + msg.err.Error()
		}
		return m, m.focusView.Refresh()

	case actionDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = msg.status
		}
		if msg.challenge != nil {
			m.challengeView.SetStatus(*msg.challenge)
		}
		return m, tea.Batch(m.focusView.Refresh(), m.challengeView.Refresh())

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.activeTab == tabChallenge && m.challengeView.Filtering() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			if m.focusView.Active() && m.lifecycle != nil {
				m.lifecycle.FireBeforeDiscard()
			}
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			cmd := m.palette.Open()
			return m, cmd
		case "f":
			return m, m.startFocusCmd(sessiondto.StartFocusInput{})
		case "x":
			return m, m.stopFocusCmd()
		case "r":
			return m, tea.Batch(m.focusView.Refresh(), m.challengeView.Refresh())
		case "c":
			if m.activeTab == tabChallenge {
				return m, m.checkInCmd()
			}
		case "enter":
			if m.activeTab == tabChallenge {
				if id, ok := m.challengeView.SelectedTemplateID(); ok {
					return m, m.startChallengeCmd(id)
				}
			}
		}
	}

	var cmd tea.Cmd
	m.focusView, cmd = m.focusView.Update(msg)
	cmds = append(cmds, cmd)
	if _, isKey := msg.(tea.KeyMsg); !isKey || m.activeTab == tabChallenge {
		m.challengeView, cmd = m.challengeView.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(1, m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar))

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabChallenge:
		content = m.challengeView.View()
	default:
		content = m.focusView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "studypact  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.banner != "" {
		left = m.banner + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

func eventBanner(ev sessiondto.EventOutput) string {
	switch {
	case ev.Type == "abandoned_with_penalty":
		return theme.Bad.Render(fmt.Sprintf("✗ %s abandoned (%s): -%d", ev.Subject, ev.Reason, ev.Penalty))
	case ev.Kind == "focus" && ev.Status == "completed":
		return theme.Good.Render(fmt.Sprintf("✓ %s completed: +%d", ev.Subject, ev.Reward))
	case ev.Kind == "subject":
		return theme.Muted.Render(fmt.Sprintf("%s timer stopped: %s", ev.Subject, focusview.Clock(time.Duration(ev.CreditedSeconds)*time.Second)))
	}
	return ""
}

// ─── palette execution ───────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	rest := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch parts[0] {
	case "focus:start":
		in := sessiondto.StartFocusInput{}
		if len(parts) >= 2 {
			minutes, err := strconv.Atoi(parts[1])
			if err != nil || minutes <= 0 {
				m.status = "usage: focus:start [minutes] [subject]"
				return m, nil
			}
			in.Duration = time.Duration(minutes) * time.Minute
		}
		if len(parts) >= 3 {
			in.Subject = strings.Join(parts[2:], " ")
		}
		return m, m.startFocusCmd(in)
	case "focus:stop":
		return m, m.stopFocusCmd()
	case "timer:start", "timer:switch":
		if rest == "" {
			m.status = "usage: " + parts[0] + " <subject>"
			return m, nil
		}
		return m, m.timerCmd(parts[0], rest)
	case "timer:stop":
		return m, m.timerCmd(parts[0], "")
	case "challenge:start":
		if rest == "" {
			m.status = "usage: challenge:start <template>"
			return m, nil
		}
		return m, m.startChallengeCmd(rest)
	case "challenge:checkin":
		return m, m.checkInCmd()
	case "challenge:progress":
		if len(parts) != 3 {
			m.status = "usage: challenge:progress <goal> <value>"
			return m, nil
		}
		value, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			m.status = "invalid value"
			return m, nil
		}
		return m, m.progressCmd(parts[1], value)
	case "challenge:forfeit":
		return m, m.forfeitCmd()
	case "challenge:lift-ban":
		return m, m.liftBanCmd()
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.focusView, _ = m.focusView.Update(sz)
	m.challengeView, _ = m.challengeView.Update(sz)
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) startFocusCmd(in sessiondto.StartFocusInput) tea.Cmd {
	return func() tea.Msg {
		out, err := m.focus.StartFocus(context.Background(), in)
		return focusStartedMsg{out: out, err: err}
	}
}

func (m Model) runFocusCmd() tea.Cmd {
	return func() tea.Msg {
		return focusRunDoneMsg{err: m.focus.Run(context.Background())}
	}
}

func (m Model) stopFocusCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.focus.Stop(context.Background())
		if err != nil {
			return actionDoneMsg{err: err}
		}
		if !out.Penalized {
			return actionDoneMsg{status: "no focus session to stop"}
		}
		return actionDoneMsg{status: fmt.Sprintf("focus abandoned: -%d", out.Applied)}
	}
}

func (m Model) timerCmd(op, subject string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		switch op {
		case "timer:start":
			out, err := m.focus.StartTimer(ctx, subject)
			return actionDoneMsg{status: "timer started: " + out.Subject, err: err}
		case "timer:switch":
			out, err := m.focus.SwitchTimer(ctx, subject)
			return actionDoneMsg{status: fmt.Sprintf("switched %s → %s", out.Stopped.Subject, out.Started.Subject), err: err}
		default:
			out, err := m.focus.StopTimer(ctx)
			return actionDoneMsg{status: fmt.Sprintf("timer stopped: %s +%ds", out.Subject, out.Seconds), err: err}
		}
	}
}

func (m Model) startChallengeCmd(templateID string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.challenge.Start(context.Background(), templateID)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: "challenge started: " + out.Title, challenge: &out}
	}
}

func (m Model) checkInCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.challenge.CheckIn(context.Background())
		switch {
		case errors.Is(err, apperrors.ErrGoalsIncomplete), errors.Is(err, apperrors.ErrWindowClosed):
			return actionDoneMsg{err: fmt.Errorf("check-in rejected: %w", err)}
		case err != nil:
			return actionDoneMsg{err: err}
		case out.AlreadyCheckedIn:
			return actionDoneMsg{status: fmt.Sprintf("day %d already checked in", out.Day), challenge: &out.Status}
		case out.Completed:
			return actionDoneMsg{status: fmt.Sprintf("challenge completed: +%d", out.Refund+out.Reward), challenge: &out.Status}
		}
		return actionDoneMsg{status: fmt.Sprintf("day %d checked in", out.Day), challenge: &out.Status}
	}
}

func (m Model) progressCmd(goalID string, value int64) tea.Cmd {
	return func() tea.Msg {
		out, err := m.challenge.Progress(context.Background(), goalID, value)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("%s recorded", goalID), challenge: &out}
	}
}

func (m Model) forfeitCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.challenge.Forfeit(context.Background())
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("challenge forfeited: -%d", out.Penalty), challenge: &out}
	}
}

func (m Model) liftBanCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.challenge.LiftBan(context.Background())
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("ban lifted for %d", out.Cost), challenge: &challengedto.StatusOutput{}}
	}
}
