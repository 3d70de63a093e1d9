package in

import (
	"context"
	"errors"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	sessiondto "studypact/internal/modules/session/dto"
	sessionin "studypact/internal/modules/session/port/in"
	apperrors "studypact/internal/platform/errors"
)

// Environment fans the host's lifecycle signals out to registered handlers.
// Handlers run synchronously on the firing goroutine.
type Environment struct {
	mu      sync.RWMutex
	discard []func()
	hidden  []func()
}

func NewEnvironment() *Environment {
	return &Environment{}
}

// OnBeforeDiscard runs h when the process is about to go away.
func (e *Environment) OnBeforeDiscard(h func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.discard = append(e.discard, h)
}

// OnVisibilityHidden runs h when the user leaves the focus surface.
func (e *Environment) OnVisibilityHidden(h func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hidden = append(e.hidden, h)
}

func (e *Environment) FireBeforeDiscard() {
	e.fire(&e.discard)
}

func (e *Environment) FireVisibilityHidden() {
	e.fire(&e.hidden)
}

func (e *Environment) fire(list *[]func()) {
	e.mu.RLock()
	handlers := append([]func(){}, (*list)...)
	e.mu.RUnlock()
	for _, h := range handlers {
		h()
	}
}

// BindFocus abandons the active focus session on either signal. report, when
// set, receives every abandonment that actually charged.
func BindFocus(ctx context.Context, env *Environment, focus sessionin.Usecase, logger hclog.Logger, report func(sessiondto.AbandonOutput)) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	handle := func(source string) func() {
		return func() {
			out, err := focus.Abandon(ctx, source)
			if err != nil {
				if !errors.Is(err, apperrors.ErrNoUser) {
					logger.Error("abandon focus session", "source", source, "error", err)
				}
				return
			}
			if out.Penalized && report != nil {
				report(out)
			}
		}
	}
	env.OnBeforeDiscard(handle("before_discard"))
	env.OnVisibilityHidden(handle("visibility_hidden"))
}
