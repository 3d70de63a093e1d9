package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studypact/internal/modules/session/domain"
	sessiondto "studypact/internal/modules/session/dto"
	apperrors "studypact/internal/platform/errors"
)

func (i *Interactor) StartTimer(ctx context.Context, subject string) (sessiondto.TimerOutput, error) {
	userID, err := i.user()
	if err != nil {
		return sessiondto.TimerOutput{}, err
	}
	now := i.svc.Now()
	i.timerMu.Lock()
	defer i.timerMu.Unlock()
	return i.startTimerLocked(ctx, userID, subject, now)
}

func (i *Interactor) startTimerLocked(ctx context.Context, userID, subject string, now time.Time) (sessiondto.TimerOutput, error) {
	if strings.TrimSpace(subject) == "" {
		return sessiondto.TimerOutput{}, fmt.Errorf("%w: subject is required", apperrors.ErrInvalidInput)
	}
	running, err := i.activeStore.Load(ctx, userID, domain.KindSubject)
	switch {
	case err == nil:
		return sessiondto.TimerOutput{}, fmt.Errorf("%w: timer on %s", apperrors.ErrAlreadyActive, running.Subject)
	case !errors.Is(err, apperrors.ErrNoActiveSession):
		return sessiondto.TimerOutput{}, err
	}
	active, err := i.svc.NewTimer(userID, subject, now)
	if err != nil {
		return sessiondto.TimerOutput{}, err
	}
	if err := i.activeStore.Save(ctx, active); err != nil {
		return sessiondto.TimerOutput{}, err
	}
	i.log.Debug("timer started", "subject", active.Subject)
	return sessiondto.TimerOutput{Subject: active.Subject, StartedAt: active.StartedAt}, nil
}

func (i *Interactor) StopTimer(ctx context.Context) (sessiondto.StopTimerOutput, error) {
	userID, err := i.user()
	if err != nil {
		return sessiondto.StopTimerOutput{}, err
	}
	now := i.svc.Now()
	i.timerMu.Lock()
	out, event, err := i.stopTimerLocked(ctx, userID, now)
	i.timerMu.Unlock()
	if err != nil {
		return sessiondto.StopTimerOutput{}, err
	}
	i.publish(ctx, event)
	return out, nil
}

// stopTimerLocked credits before clearing so a failed credit leaves the timer running.
func (i *Interactor) stopTimerLocked(ctx context.Context, userID string, now time.Time) (sessiondto.StopTimerOutput, domain.Event, error) {
	running, err := i.activeStore.Load(ctx, userID, domain.KindSubject)
	if err != nil {
		return sessiondto.StopTimerOutput{}, domain.Event{}, err
	}
	credited, total, err := i.ledger.CloseInterval(ctx, running.Subject, running.StartedAt, now)
	if err != nil {
		return sessiondto.StopTimerOutput{}, domain.Event{}, fmt.Errorf("credit timer: %w", err)
	}
	if err := i.activeStore.Clear(ctx, userID, domain.KindSubject, running.ID); err != nil {
		return sessiondto.StopTimerOutput{}, domain.Event{}, err
	}

	session := running.Close(domain.StatusCompleted, "", now, credited, 0, 0)
	session.Duration = now.Sub(running.StartedAt)
	i.svc.WriteNote(ctx, session)
	event := domain.Event{
		Type:    domain.EventClosed,
		Session: session,
		Message: fmt.Sprintf("%s: %s credited", running.Subject, time.Duration(credited)*time.Second),
		At:      now,
	}
	return sessiondto.StopTimerOutput{
		Subject:    running.Subject,
		StartedAt:  running.StartedAt,
		EndedAt:    now,
		Seconds:    credited,
		Credited:   credited > 0,
		TodayTotal: total,
	}, event, nil
}

func (i *Interactor) SwitchTimer(ctx context.Context, subject string) (sessiondto.SwitchTimerOutput, error) {
	userID, err := i.user()
	if err != nil {
		return sessiondto.SwitchTimerOutput{}, err
	}
	if strings.TrimSpace(subject) == "" {
		return sessiondto.SwitchTimerOutput{}, fmt.Errorf("%w: subject is required", apperrors.ErrInvalidInput)
	}
	now := i.svc.Now()

	i.timerMu.Lock()
	stopped, event, err := i.stopTimerLocked(ctx, userID, now)
	if err != nil {
		i.timerMu.Unlock()
		return sessiondto.SwitchTimerOutput{}, err
	}
	started, err := i.startTimerLocked(ctx, userID, subject, now)
	i.timerMu.Unlock()
	i.publish(ctx, event)
	if err != nil {
		return sessiondto.SwitchTimerOutput{Stopped: stopped}, err
	}
	return sessiondto.SwitchTimerOutput{Stopped: stopped, Started: started}, nil
}

func (i *Interactor) ActiveTimer(ctx context.Context) (sessiondto.TimerOutput, error) {
	userID, err := i.user()
	if err != nil {
		return sessiondto.TimerOutput{}, err
	}
	running, err := i.activeStore.Load(ctx, userID, domain.KindSubject)
	if err != nil {
		return sessiondto.TimerOutput{}, err
	}
	return sessiondto.TimerOutput{
		Subject:   running.Subject,
		StartedAt: running.StartedAt,
		Elapsed:   i.svc.Now().Sub(running.StartedAt),
	}, nil
}
