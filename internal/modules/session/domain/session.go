package domain

import (
	"fmt"
	"time"

	apperrors "studypact/internal/platform/errors"
)

const SchemaVersion = 1

type Kind string

const (
	// KindFocus is a penalty-bearing countdown.
	KindFocus Kind = "focus"
	// KindSubject is a plain study timer that always credits its time.
	KindSubject Kind = "subject"
)

type Status string

const (
	StatusIdle            Status = "idle"
	StatusActive          Status = "active"
	StatusCompleted       Status = "completed"
	StatusAbandoned       Status = "abandoned"
	StatusStoppedManually Status = "stopped_manually"
)

type AbandonSource string

const (
	SourceStop             AbandonSource = "stop"
	SourceBeforeDiscard    AbandonSource = "before_discard"
	SourceVisibilityHidden AbandonSource = "visibility_hidden"
)

func ParseAbandonSource(raw string) (AbandonSource, error) {
	switch s := AbandonSource(raw); s {
	case SourceStop, SourceBeforeDiscard, SourceVisibilityHidden:
		return s, nil
	default:
		return "", fmt.Errorf("%w: abandon source %q", apperrors.ErrInvalidInput, raw)
	}
}

// Status is the terminal status an abandonment from this source produces.
func (s AbandonSource) Status() Status {
	if s == SourceStop {
		return StatusStoppedManually
	}
	return StatusAbandoned
}

// Reason is the human readable cause used in notices and ledger entries.
func (s AbandonSource) Reason() string {
	switch s {
	case SourceStop:
		return "focus session stopped"
	case SourceVisibilityHidden:
		return "focus window left"
	default:
		return "focus session discarded"
	}
}

// ActiveSession is the persisted state of a running session. UpdatedAt is the
// heartbeat the owning process refreshes on every tick.
type ActiveSession struct {
	SchemaVersion  int           `json:"schema_version"`
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	Kind           Kind          `json:"kind"`
	Subject        string        `json:"subject"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration,omitempty"`
	Remaining      time.Duration `json:"remaining,omitempty"`
	Penalty        int64         `json:"penalty,omitempty"`
	Reward         int64         `json:"reward,omitempty"`
	PenaltyApplied bool          `json:"penalty_applied,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Tick consumes one second and reports whether the countdown reached zero.
func (a *ActiveSession) Tick(now time.Time) bool {
	a.UpdatedAt = now
	if a.Remaining > time.Second {
		a.Remaining -= time.Second
		return false
	}
	a.Remaining = 0
	return true
}

// MarkPenalty flips the idempotency guard. It reports false when the guard
// was already set, in which case the caller must not dispatch again.
func (a *ActiveSession) MarkPenalty() bool {
	if a.PenaltyApplied {
		return false
	}
	a.PenaltyApplied = true
	return true
}

func (a ActiveSession) Elapsed() time.Duration {
	return a.Duration - a.Remaining
}

// Stale reports whether the owning process stopped refreshing the heartbeat.
func (a ActiveSession) Stale(now time.Time, after time.Duration) bool {
	return now.Sub(a.UpdatedAt) > after
}

func (a ActiveSession) Close(status Status, source AbandonSource, endedAt time.Time, credited, penalty, reward int64) Session {
	return Session{
		ID:              a.ID,
		UserID:          a.UserID,
		Kind:            a.Kind,
		Subject:         a.Subject,
		StartedAt:       a.StartedAt,
		EndedAt:         endedAt,
		Duration:        a.Duration,
		CreditedSeconds: credited,
		Status:          status,
		Source:          source,
		Penalty:         penalty,
		Reward:          reward,
	}
}

// Session is the closed record written as a note.
type Session struct {
	ID              string
	UserID          string
	Kind            Kind
	Subject         string
	StartedAt       time.Time
	EndedAt         time.Time
	Duration        time.Duration
	CreditedSeconds int64
	Status          Status
	Source          AbandonSource
	Penalty         int64
	Reward          int64
}

type EventType string

const (
	EventClosed               EventType = "closed"
	EventAbandonedWithPenalty EventType = "abandoned_with_penalty"
)

type Event struct {
	Type    EventType
	Session Session
	Source  AbandonSource
	Reason  string
	Message string
	At      time.Time
}
