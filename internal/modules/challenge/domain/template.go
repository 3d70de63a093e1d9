package domain

import (
	"fmt"
	"strings"

	apperrors "studypact/internal/platform/errors"
	"studypact/internal/platform/clock"
)

// Goal ids with a built-in feed. Any other id is a manual goal.
const (
	GoalStudyTime     = "studyTime"
	GoalFocusSessions = "focusSessions"
	GoalCheckIn       = "checkIn"
)

type DailyGoal struct {
	ID          string `json:"id" yaml:"id" toml:"id"`
	Description string `json:"description" yaml:"description" toml:"description"`
	Target      int64  `json:"target" yaml:"target" toml:"target"`
}

type Template struct {
	ID           string           `json:"id" yaml:"id" toml:"id"`
	Title        string           `json:"title" yaml:"title" toml:"title"`
	Description  string           `json:"description,omitempty" yaml:"description" toml:"description"`
	DurationDays int              `json:"duration_days" yaml:"duration_days" toml:"duration_days"`
	EntryFee     int64            `json:"entry_fee" yaml:"entry_fee" toml:"entry_fee"`
	Reward       int64            `json:"reward" yaml:"reward" toml:"reward"`
	DailyGoals   []DailyGoal      `json:"daily_goals" yaml:"daily_goals" toml:"daily_goals"`
	CheckInTime  *clock.TimeOfDay `json:"check_in_time,omitempty" yaml:"check_in_time" toml:"check_in_time"`
	Rules        []string         `json:"rules,omitempty" yaml:"rules" toml:"rules"`
}

func (t Template) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: template id is required", apperrors.ErrInvalidInput)
	}
	if t.DurationDays < 1 {
		return fmt.Errorf("%w: template %s must last at least one day", apperrors.ErrInvalidInput, t.ID)
	}
	if t.EntryFee < 0 || t.Reward < 0 {
		return fmt.Errorf("%w: template %s has negative amounts", apperrors.ErrInvalidInput, t.ID)
	}
	seen := map[string]bool{}
	for _, g := range t.DailyGoals {
		if g.ID == "" {
			return fmt.Errorf("%w: template %s has a goal without id", apperrors.ErrInvalidInput, t.ID)
		}
		if seen[g.ID] {
			return fmt.Errorf("%w: template %s repeats goal %s", apperrors.ErrInvalidInput, t.ID, g.ID)
		}
		seen[g.ID] = true
		if g.Target < 0 {
			return fmt.Errorf("%w: goal %s has a negative target", apperrors.ErrInvalidInput, g.ID)
		}
	}
	return nil
}

func (t Template) Goal(id string) (DailyGoal, bool) {
	for _, g := range t.DailyGoals {
		if g.ID == id {
			return g, true
		}
	}
	return DailyGoal{}, false
}
