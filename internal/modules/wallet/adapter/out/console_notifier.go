package out

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"studypact/internal/modules/wallet/domain"
)

var (
	noticeTime = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8"))
	noticeTag  = map[domain.NoticeKind]lipgloss.Style{
		domain.NoticeInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#74c7ec")).Bold(true),
		domain.NoticeSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")).Bold(true),
		domain.NoticeWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af")).Bold(true),
		domain.NoticePenalty: lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true),
	}
)

// ConsoleNotifier prints one styled line per notice.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func (n *ConsoleNotifier) Notify(_ context.Context, notice domain.Notice) error {
	style, ok := noticeTag[notice.Kind]
	if !ok {
		style = noticeTag[domain.NoticeInfo]
	}
	line := fmt.Sprintf("%s %s %s\n",
		noticeTime.Render(notice.At.Local().Format("15:04:05")),
		style.Render("["+string(notice.Kind)+"]"),
		notice.Message,
	)
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, err := io.WriteString(n.w, line); err != nil {
		return fmt.Errorf("write notice: %w", err)
	}
	return nil
}
