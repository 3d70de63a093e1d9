package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	challengedto "studypact/internal/modules/challenge/dto"
	sessiondto "studypact/internal/modules/session/dto"
	uiapp "studypact/internal/ui/app"
)

// NoticeWriter turns console notices into TUI messages once a program is
// attached. Lines written before that are held and replayed.
type NoticeWriter struct {
	mu      sync.Mutex
	program *tea.Program
	pending []string
	buf     bytes.Buffer
}

func (w *NoticeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

func (w *NoticeWriter) emit(line string) {
	if w.program == nil {
		w.pending = append(w.pending, line)
		return
	}
	go w.program.Send(uiapp.NoticeMsg(line))
}

func (w *NoticeWriter) attach(p *tea.Program) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.program = p
	for _, line := range w.pending {
		go p.Send(uiapp.NoticeMsg(line))
	}
	w.pending = nil
}

// OpenTUILog opens the log file used while the alternate screen owns the terminal.
func OpenTUILog(dataPath string) (*os.File, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dataPath, "studypact.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tui log: %w", err)
	}
	return f, nil
}

// RunTUI runs the terminal UI until the user quits. Session events and
// challenge changes from any process are pushed into the program.
func RunTUI(ctx context.Context, app *App, notices *NoticeWriter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := uiapp.NewModel(app.SessionCLI, app.ChallengeCLI, app.Env)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))
	if notices != nil {
		notices.attach(program)
	}

	unsubscribe := app.SessionCLI.Usecase().Subscribe(func(_ context.Context, event sessiondto.EventOutput) {
		go program.Send(uiapp.SessionEventMsg{Event: event})
	})
	defer unsubscribe()

	stopWatch, err := app.ChallengeCLI.Watch(ctx, func(status challengedto.StatusOutput) {
		go program.Send(uiapp.ChallengeChangedMsg{Status: status})
	})
	if err != nil {
		app.Log.Warn("challenge watch disabled", "error", err)
	} else {
		defer stopWatch()
	}

	_, err = program.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
