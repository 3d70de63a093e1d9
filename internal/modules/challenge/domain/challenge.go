package domain

import (
	"fmt"
	"time"

	"studypact/internal/platform/clock"
)

const SchemaVersion = 1

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type GoalProgress struct {
	Current   int64 `json:"current"`
	Completed bool  `json:"completed"`
}

type ActiveChallenge struct {
	SchemaVersion    int                             `json:"schema_version"`
	UserID           string                          `json:"user_id"`
	TemplateID       string                          `json:"template_id"`
	Template         Template                        `json:"template"`
	StartedAt        time.Time                       `json:"started_at"`
	Status           Status                          `json:"status"`
	Progress         map[int]map[string]GoalProgress `json:"progress"`
	LastCheckedInDay int                             `json:"last_checked_in_day"`
	CheckedInDays    []int                           `json:"checked_in_days,omitempty"`
	BanUntil         *time.Time                      `json:"ban_until,omitempty"`
	FailureReason    string                          `json:"failure_reason,omitempty"`
	FailedAt         *time.Time                      `json:"failed_at,omitempty"`
	CompletedAt      *time.Time                      `json:"completed_at,omitempty"`
	// PenaltyApplied is persisted together with the failed status, before
	// the forfeiture is charged.
	PenaltyApplied bool `json:"penalty_applied,omitempty"`
}

func New(userID string, tmpl Template, now time.Time) ActiveChallenge {
	return ActiveChallenge{
		SchemaVersion: SchemaVersion,
		UserID:        userID,
		TemplateID:    tmpl.ID,
		Template:      tmpl,
		StartedAt:     now,
		Status:        StatusActive,
		Progress:      map[int]map[string]GoalProgress{},
	}
}

// RawDay is the 1-based calendar day of now, unbounded by the duration.
func (c ActiveChallenge) RawDay(cal clock.Calendar, now time.Time) int {
	day := cal.DaysBetween(c.StartedAt, now) + 1
	if day < 1 {
		return 1
	}
	return day
}

// CurrentDay is RawDay capped at the template duration.
func (c ActiveChallenge) CurrentDay(cal clock.Calendar, now time.Time) int {
	day := c.RawDay(cal, now)
	if day > c.Template.DurationDays {
		return c.Template.DurationDays
	}
	return day
}

// Window returns the check-in window of day. ok is false without a configured check-in time.
func (c ActiveChallenge) Window(cal clock.Calendar, day int, grace time.Duration) (open, close time.Time, ok bool) {
	if c.Template.CheckInTime == nil {
		return time.Time{}, time.Time{}, false
	}
	date := cal.AddDays(c.StartedAt, day-1)
	open = cal.On(date, *c.Template.CheckInTime)
	close = open.Add(grace)
	if !close.After(c.StartedAt) {
		// Started after the window: that day has none.
		return time.Time{}, time.Time{}, false
	}
	return open, close, true
}

func (c ActiveChallenge) CheckedIn(day int) bool {
	for _, d := range c.CheckedInDays {
		if d == day {
			return true
		}
	}
	return c.LastCheckedInDay >= day
}

func (c ActiveChallenge) GoalProgress(day int, goalID string) GoalProgress {
	return c.Progress[day][goalID]
}

// UpdateGoal writes value if it is higher than what is recorded. Completed
// is derived from the target and is never unset. It reports whether anything changed.
func (c *ActiveChallenge) UpdateGoal(day int, goalID string, value int64) bool {
	goal, ok := c.Template.Goal(goalID)
	if !ok {
		return false
	}
	if c.Progress == nil {
		c.Progress = map[int]map[string]GoalProgress{}
	}
	if c.Progress[day] == nil {
		c.Progress[day] = map[string]GoalProgress{}
	}
	prev := c.Progress[day][goalID]
	next := prev
	if value > next.Current {
		next.Current = value
	}
	if next.Current >= goal.Target {
		next.Completed = true
	}
	if next == prev {
		return false
	}
	c.Progress[day][goalID] = next
	return true
}

// MissingGoals lists the non-check-in goals of day that are not completed yet.
func (c ActiveChallenge) MissingGoals(day int) []string {
	var missing []string
	for _, g := range c.Template.DailyGoals {
		if g.ID == GoalCheckIn {
			continue
		}
		if !c.Progress[day][g.ID].Completed && g.Target > 0 {
			missing = append(missing, g.ID)
		}
	}
	return missing
}

// Failure is the outcome of Reconcile. A zero Failure means the challenge stands.
type Failure struct {
	Reason string
	// WindowClosed is set when the current day's check-in window ran out.
	WindowClosed bool
}

func (f Failure) Failed() bool { return f.Reason != "" }

// Reconcile decides whether wall-clock time has already failed the challenge.
func (c ActiveChallenge) Reconcile(cal clock.Calendar, now time.Time, grace time.Duration) Failure {
	if c.Status != StatusActive {
		return Failure{}
	}
	raw := c.RawDay(cal, now)
	day := c.CurrentDay(cal, now)
	switch {
	case raw > c.Template.DurationDays:
		return Failure{Reason: fmt.Sprintf("final day %d ended without a check-in", c.Template.DurationDays)}
	case c.LastCheckedInDay < day-1:
		return Failure{Reason: fmt.Sprintf("day %d was not checked in", c.LastCheckedInDay+1)}
	}
	if _, closeAt, ok := c.Window(cal, day, grace); ok && !c.CheckedIn(day) && now.After(closeAt) {
		return Failure{
			Reason:       fmt.Sprintf("check-in window for day %d closed at %s", day, closeAt.In(cal.Location).Format("15:04")),
			WindowClosed: true,
		}
	}
	return Failure{}
}

func (c *ActiveChallenge) Fail(now time.Time, reason string, ban time.Duration) {
	until := now.Add(ban)
	c.Status = StatusFailed
	c.BanUntil = &until
	c.FailureReason = reason
	c.FailedAt = &now
}

// RecordCheckIn marks day as checked in and completes the challenge on the final day.
func (c *ActiveChallenge) RecordCheckIn(day int, now time.Time) (final bool) {
	if day > c.LastCheckedInDay {
		c.LastCheckedInDay = day
	}
	if n := len(c.CheckedInDays); n == 0 || c.CheckedInDays[n-1] != day {
		c.CheckedInDays = append(c.CheckedInDays, day)
	}
	c.UpdateGoal(day, GoalCheckIn, 1)
	if day >= c.Template.DurationDays {
		c.Status = StatusCompleted
		c.CompletedAt = &now
		return true
	}
	return false
}

// Banned reports whether a failed challenge still blocks a new start.
func (c ActiveChallenge) Banned(now time.Time) (time.Duration, bool) {
	if c.Status != StatusFailed || c.BanUntil == nil {
		return 0, false
	}
	remaining := c.BanUntil.Sub(now)
	return remaining, remaining > 0
}
