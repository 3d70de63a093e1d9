package in

import (
	"context"

	"studypact/internal/modules/session/dto"
)

// Observer receives session events. It runs synchronously on the goroutine
// that closed the session.
type Observer func(ctx context.Context, event dto.EventOutput)

type Usecase interface {
	StartFocus(ctx context.Context, input dto.StartFocusInput) (dto.FocusOutput, error)
	// Tick advances the focus countdown by one second.
	Tick(ctx context.Context) (dto.TickOutput, error)
	// Run ticks once per second until the session leaves the active state or ctx ends.
	Run(ctx context.Context) error
	// Abandon ends an active focus session with its penalty. Repeated signals
	// for the same session return Penalized=false.
	Abandon(ctx context.Context, source string) (dto.AbandonOutput, error)
	Stop(ctx context.Context) (dto.AbandonOutput, error)
	ActiveFocus(ctx context.Context) (dto.FocusOutput, error)
	// Recover abandons a persisted focus session whose owning process is gone.
	Recover(ctx context.Context) (dto.AbandonOutput, error)
	Subscribe(fn Observer) (unsubscribe func())

	StartTimer(ctx context.Context, subject string) (dto.TimerOutput, error)
	StopTimer(ctx context.Context) (dto.StopTimerOutput, error)
	SwitchTimer(ctx context.Context, subject string) (dto.SwitchTimerOutput, error)
	ActiveTimer(ctx context.Context) (dto.TimerOutput, error)
}
