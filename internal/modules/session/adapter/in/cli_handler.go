package in

import (
	"context"

	sessiondto "studypact/internal/modules/session/dto"
	sessionin "studypact/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Usecase() sessionin.Usecase {
	return h.usecase
}

func (h CLIHandler) StartFocus(ctx context.Context, input sessiondto.StartFocusInput) (sessiondto.FocusOutput, error) {
	return h.usecase.StartFocus(ctx, input)
}

func (h CLIHandler) Run(ctx context.Context) error {
	return h.usecase.Run(ctx)
}

func (h CLIHandler) Stop(ctx context.Context) (sessiondto.AbandonOutput, error) {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) ActiveFocus(ctx context.Context) (sessiondto.FocusOutput, error) {
	return h.usecase.ActiveFocus(ctx)
}

func (h CLIHandler) Recover(ctx context.Context) (sessiondto.AbandonOutput, error) {
	return h.usecase.Recover(ctx)
}

func (h CLIHandler) StartTimer(ctx context.Context, subject string) (sessiondto.TimerOutput, error) {
	return h.usecase.StartTimer(ctx, subject)
}

func (h CLIHandler) SwitchTimer(ctx context.Context, subject string) (sessiondto.SwitchTimerOutput, error) {
	return h.usecase.SwitchTimer(ctx, subject)
}

func (h CLIHandler) StopTimer(ctx context.Context) (sessiondto.StopTimerOutput, error) {
	return h.usecase.StopTimer(ctx)
}

func (h CLIHandler) ActiveTimer(ctx context.Context) (sessiondto.TimerOutput, error) {
	return h.usecase.ActiveTimer(ctx)
}
