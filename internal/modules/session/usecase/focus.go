package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studypact/internal/modules/session/domain"
	sessiondto "studypact/internal/modules/session/dto"
	apperrors "studypact/internal/platform/errors"
)

func (i *Interactor) StartFocus(ctx context.Context, input sessiondto.StartFocusInput) (sessiondto.FocusOutput, error) {
	userID, err := i.user()
	if err != nil {
		return sessiondto.FocusOutput{}, err
	}
	active, err := i.svc.NewFocus(userID, input.Subject, input.Duration, input.Penalty, input.Reward)
	if err != nil {
		return sessiondto.FocusOutput{}, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.focus != nil {
		return sessiondto.FocusOutput{}, fmt.Errorf("%w: focus session %s", apperrors.ErrAlreadyActive, i.focus.ID)
	}
	persisted, err := i.activeStore.Load(ctx, userID, domain.KindFocus)
	switch {
	case err == nil:
		return sessiondto.FocusOutput{}, fmt.Errorf("%w: focus session %s", apperrors.ErrAlreadyActive, persisted.ID)
	case !errors.Is(err, apperrors.ErrNoActiveSession):
		return sessiondto.FocusOutput{}, err
	}

	if active.Penalty > 0 {
		balance, err := i.wallet.Balance(ctx)
		if err != nil {
			return sessiondto.FocusOutput{}, fmt.Errorf("check balance: %w", err)
		}
		if balance < active.Penalty {
			return sessiondto.FocusOutput{}, fmt.Errorf("%w: balance %d cannot cover the %d credit stake", apperrors.ErrInsufficientFunds, balance, active.Penalty)
		}
	}
	if err := i.activeStore.Save(ctx, active); err != nil {
		return sessiondto.FocusOutput{}, err
	}
	i.focus = &active
	i.log.Info("focus started", "session", active.ID, "subject", active.Subject, "duration", active.Duration)
	i.wallet.Notify(ctx, "info", fmt.Sprintf("focus on %s for %s, %d credits at stake", active.Subject, active.Duration, active.Penalty))
	return focusOutput(active), nil
}

func (i *Interactor) Tick(ctx context.Context) (sessiondto.TickOutput, error) {
	now := i.svc.Now()
	i.mu.Lock()
	if i.focus == nil {
		i.mu.Unlock()
		return sessiondto.TickOutput{}, apperrors.ErrNoActiveSession
	}

	persisted, err := i.activeStore.Load(ctx, i.focus.UserID, domain.KindFocus)
	if err != nil && !errors.Is(err, apperrors.ErrNoActiveSession) {
		i.mu.Unlock()
		return sessiondto.TickOutput{}, err
	}
	if err != nil || persisted.ID != i.focus.ID || persisted.PenaltyApplied {
		released := *i.focus
		i.focus = nil
		i.stopRunLocked()
		i.mu.Unlock()
		i.log.Info("focus session ended by another client", "session", released.ID)
		i.publish(ctx, domain.Event{
			Type:    domain.EventClosed,
			Session: released.Close(domain.StatusAbandoned, "", now, 0, 0, 0),
			Message: "focus session ended by another client",
			At:      now,
		})
		return sessiondto.TickOutput{SessionID: released.ID}, nil
	}

	if done := i.focus.Tick(now); !done {
		if err := i.activeStore.Save(ctx, *i.focus); err != nil {
			i.mu.Unlock()
			return sessiondto.TickOutput{}, err
		}
		out := sessiondto.TickOutput{SessionID: i.focus.ID, Remaining: i.focus.Remaining, Active: true}
		i.mu.Unlock()
		return out, nil
	}

	completed := *i.focus
	i.focus = nil
	i.stopRunLocked()
	if err := i.activeStore.Clear(ctx, completed.UserID, domain.KindFocus, completed.ID); err != nil {
		i.log.Warn("clear completed focus session", "session", completed.ID, "error", err)
	}
	i.mu.Unlock()
	return i.complete(ctx, completed, now), nil
}

func (i *Interactor) complete(ctx context.Context, completed domain.ActiveSession, now time.Time) sessiondto.TickOutput {
	end := completed.StartedAt.Add(completed.Duration)
	credited, _, err := i.ledger.CloseInterval(ctx, completed.Subject, completed.StartedAt, end)
	if err != nil {
		i.log.Error("credit completed focus session", "session", completed.ID, "error", err)
	}
	var reward int64
	if completed.Reward > 0 {
		if err := i.wallet.Reward(ctx, completed.Reward, "focus session completed", ""); err != nil {
			i.log.Error("focus reward failed", "session", completed.ID, "error", err)
		} else {
			reward = completed.Reward
		}
	}

	session := completed.Close(domain.StatusCompleted, "", now, credited, 0, reward)
	path := i.svc.WriteNote(ctx, session)
	i.log.Info("focus completed", "session", completed.ID, "credited", credited, "reward", reward)
	i.publish(ctx, domain.Event{
		Type:    domain.EventClosed,
		Session: session,
		Message: fmt.Sprintf("focus completed: %s on %s", completed.Duration, completed.Subject),
		At:      now,
	})
	return sessiondto.TickOutput{SessionID: completed.ID, Completed: true, Credited: credited, NotePath: path}
}

func (i *Interactor) Run(ctx context.Context) error {
	i.mu.Lock()
	if i.focus == nil {
		i.mu.Unlock()
		return apperrors.ErrNoActiveSession
	}
	if i.cancelRun != nil {
		i.mu.Unlock()
		return fmt.Errorf("%w: focus countdown already running", apperrors.ErrAlreadyActive)
	}
	runCtx, cancel := context.WithCancel(ctx)
	i.cancelRun = cancel
	i.runGen++
	gen := i.runGen
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		if i.runGen == gen {
			i.cancelRun = nil
		}
		i.mu.Unlock()
		cancel()
	}()

	ticker := time.NewTicker(i.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-runCtx.Done():
			if err := ctx.Err(); err != nil {
				return err
			}
			return nil
		case <-ticker.C:
			out, err := i.Tick(ctx)
			if errors.Is(err, apperrors.ErrNoActiveSession) {
				return nil
			}
			if err != nil {
				return err
			}
			if !out.Active {
				return nil
			}
		}
	}
}

func (i *Interactor) stopRunLocked() {
	if i.cancelRun != nil {
		i.cancelRun()
		i.cancelRun = nil
	}
}

func (i *Interactor) Abandon(ctx context.Context, source string) (sessiondto.AbandonOutput, error) {
	src, err := domain.ParseAbandonSource(source)
	if err != nil {
		return sessiondto.AbandonOutput{}, err
	}
	userID, err := i.user()
	if err != nil {
		return sessiondto.AbandonOutput{}, err
	}
	now := i.svc.Now()

	i.mu.Lock()
	var target domain.ActiveSession
	if i.focus != nil {
		target = *i.focus
		i.focus = nil
		i.stopRunLocked()
	} else {
		persisted, err := i.activeStore.Load(ctx, userID, domain.KindFocus)
		if errors.Is(err, apperrors.ErrNoActiveSession) {
			i.mu.Unlock()
			return sessiondto.AbandonOutput{Source: string(src)}, nil
		}
		if err != nil {
			i.mu.Unlock()
			return sessiondto.AbandonOutput{}, err
		}
		target = persisted
	}
	if !target.MarkPenalty() {
		i.mu.Unlock()
		return sessiondto.AbandonOutput{SessionID: target.ID, Source: string(src)}, nil
	}
	target.UpdatedAt = now
	if err := i.activeStore.Save(ctx, target); err != nil {
		i.log.Warn("persist penalty guard", "session", target.ID, "error", err)
	}
	i.mu.Unlock()

	return i.settleAbandon(ctx, target, src, now, true), nil
}

func (i *Interactor) Stop(ctx context.Context) (sessiondto.AbandonOutput, error) {
	return i.Abandon(ctx, string(domain.SourceStop))
}

// settleAbandon runs after the guard is set. It charges at most once and
// never credits the ledger.
func (i *Interactor) settleAbandon(ctx context.Context, target domain.ActiveSession, src domain.AbandonSource, now time.Time, charge bool) sessiondto.AbandonOutput {
	var applied int64
	if charge && target.Penalty > 0 {
		taken, err := i.wallet.Penalize(ctx, target.Penalty, src.Reason(), "")
		if err != nil {
			i.log.Error("focus penalty failed", "session", target.ID, "error", err)
			i.wallet.Notify(ctx, "warning", "focus penalty could not be applied: "+err.Error())
		} else {
			applied = taken
		}
	}

	session := target.Close(src.Status(), src, now, 0, applied, 0)
	path := i.svc.WriteNote(ctx, session)

	i.mu.Lock()
	if err := i.activeStore.Clear(ctx, target.UserID, domain.KindFocus, target.ID); err != nil {
		i.log.Warn("clear abandoned focus session", "session", target.ID, "error", err)
	}
	i.mu.Unlock()

	message := fmt.Sprintf("%s after %s: %d credits lost", src.Reason(), target.Elapsed().Round(time.Second), applied)
	i.log.Info("focus abandoned", "session", target.ID, "source", src, "penalty", applied)
	i.publish(ctx, domain.Event{
		Type:    domain.EventAbandonedWithPenalty,
		Session: session,
		Source:  src,
		Reason:  src.Reason(),
		Message: message,
		At:      now,
	})
	return sessiondto.AbandonOutput{
		SessionID: target.ID,
		Penalized: charge,
		Applied:   applied,
		Status:    string(session.Status),
		Source:    string(src),
		Message:   message,
		NotePath:  path,
	}
}

func (i *Interactor) ActiveFocus(ctx context.Context) (sessiondto.FocusOutput, error) {
	userID, err := i.user()
	if err != nil {
		return sessiondto.FocusOutput{}, err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.focus != nil {
		return focusOutput(*i.focus), nil
	}
	persisted, err := i.activeStore.Load(ctx, userID, domain.KindFocus)
	if err != nil {
		return sessiondto.FocusOutput{}, err
	}
	return focusOutput(persisted), nil
}

func (i *Interactor) Recover(ctx context.Context) (sessiondto.AbandonOutput, error) {
	userID, err := i.user()
	if err != nil {
		return sessiondto.AbandonOutput{}, err
	}
	now := i.svc.Now()

	i.mu.Lock()
	if i.focus != nil {
		i.mu.Unlock()
		return sessiondto.AbandonOutput{}, nil
	}
	persisted, err := i.activeStore.Load(ctx, userID, domain.KindFocus)
	if errors.Is(err, apperrors.ErrNoActiveSession) {
		i.mu.Unlock()
		return sessiondto.AbandonOutput{}, nil
	}
	if err != nil {
		i.mu.Unlock()
		return sessiondto.AbandonOutput{}, err
	}
	if !persisted.Stale(now, i.staleAfter) {
		i.mu.Unlock()
		return sessiondto.AbandonOutput{}, nil
	}
	charge := persisted.MarkPenalty()
	persisted.UpdatedAt = now
	if charge {
		if err := i.activeStore.Save(ctx, persisted); err != nil {
			i.log.Warn("persist penalty guard", "session", persisted.ID, "error", err)
		}
	}
	i.mu.Unlock()

	i.log.Info("recovering discarded focus session", "session", persisted.ID, "charge", charge)
	return i.settleAbandon(ctx, persisted, domain.SourceBeforeDiscard, now, charge), nil
}
