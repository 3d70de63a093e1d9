package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"studypact/internal/modules/session/domain"
	sessionout "studypact/internal/modules/session/port/out"
	"studypact/internal/platform/clock"
	apperrors "studypact/internal/platform/errors"
	"studypact/internal/platform/id"
)

// Defaults fill the zero fields of a focus request.
type Defaults struct {
	Duration time.Duration
	Penalty  int64
	Reward   int64
	Subject  string
}

type SessionService struct {
	clock    clock.Clock
	idGen    id.Generator
	store    sessionout.SessionStore
	defaults Defaults
	log      hclog.Logger
}

func NewSessionService(clk clock.Clock, idGen id.Generator, store sessionout.SessionStore, defaults Defaults, logger hclog.Logger) *SessionService {
	if defaults.Duration <= 0 {
		defaults.Duration = 25 * time.Minute
	}
	if defaults.Subject == "" {
		defaults.Subject = "focus"
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SessionService{clock: clk, idGen: idGen, store: store, defaults: defaults, log: logger}
}

func (s *SessionService) Now() time.Time {
	return s.clock.Now()
}

func (s *SessionService) NewFocus(userID, subject string, duration time.Duration, penalty, reward int64) (domain.ActiveSession, error) {
	if duration < 0 || penalty < 0 || reward < 0 {
		return domain.ActiveSession{}, fmt.Errorf("%w: duration and amounts must be non-negative", apperrors.ErrInvalidInput)
	}
	if duration == 0 {
		duration = s.defaults.Duration
	}
	if duration < time.Second {
		return domain.ActiveSession{}, fmt.Errorf("%w: focus duration must be at least one second", apperrors.ErrInvalidInput)
	}
	duration = duration.Truncate(time.Second)
	if penalty == 0 {
		penalty = s.defaults.Penalty
	}
	if reward == 0 {
		reward = s.defaults.Reward
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = s.defaults.Subject
	}
	now := s.clock.Now()
	return domain.ActiveSession{
		SchemaVersion: domain.SchemaVersion,
		ID:            s.idGen.New(),
		UserID:        userID,
		Kind:          domain.KindFocus,
		Subject:       subject,
		StartedAt:     now,
		Duration:      duration,
		Remaining:     duration,
		Penalty:       penalty,
		Reward:        reward,
		UpdatedAt:     now,
	}, nil
}

func (s *SessionService) NewTimer(userID, subject string, at time.Time) (domain.ActiveSession, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return domain.ActiveSession{}, fmt.Errorf("%w: subject is required", apperrors.ErrInvalidInput)
	}
	return domain.ActiveSession{
		SchemaVersion: domain.SchemaVersion,
		ID:            s.idGen.New(),
		UserID:        userID,
		Kind:          domain.KindSubject,
		Subject:       subject,
		StartedAt:     at,
		UpdatedAt:     at,
	}, nil
}

// WriteNote saves the session note. A failing note never fails the session.
func (s *SessionService) WriteNote(ctx context.Context, session domain.Session) string {
	if s.store == nil {
		return ""
	}
	path, err := s.store.Save(ctx, session)
	if err != nil {
		s.log.Warn("write session note", "session", session.ID, "error", err)
		return ""
	}
	return path
}
