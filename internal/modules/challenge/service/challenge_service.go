package service

import (
	"time"

	"studypact/internal/modules/challenge/domain"
	"studypact/internal/modules/challenge/dto"
	"studypact/internal/platform/clock"
)

// Policy holds the amounts and spans that are not part of a template.
type Policy struct {
	ForfeitPenalty int64
	BanLiftCost    int64
	BanDuration    time.Duration
	CheckInGrace   time.Duration
}

type ChallengeService struct {
	clock    clock.Clock
	calendar clock.Calendar
	policy   Policy
}

func NewChallengeService(clk clock.Clock, cal clock.Calendar, policy Policy) *ChallengeService {
	if policy.ForfeitPenalty == 0 {
		policy.ForfeitPenalty = 20
	}
	if policy.BanLiftCost == 0 {
		policy.BanLiftCost = 30
	}
	if policy.BanDuration <= 0 {
		policy.BanDuration = 72 * time.Hour
	}
	if policy.CheckInGrace <= 0 {
		policy.CheckInGrace = 10 * time.Minute
	}
	return &ChallengeService{clock: clk, calendar: cal, policy: policy}
}

func (s *ChallengeService) Now() time.Time { return s.clock.Now() }
func (s *ChallengeService) Calendar() clock.Calendar { return s.calendar }
func (s *ChallengeService) Policy() Policy { return s.policy }

// Reconcile reports whether c has failed by now, and why.
func (s *ChallengeService) Reconcile(c domain.ActiveChallenge, now time.Time) domain.Failure {
	return c.Reconcile(s.calendar, now, s.policy.CheckInGrace)
}

func (s *ChallengeService) Window(c domain.ActiveChallenge, day int) (time.Time, time.Time, bool) {
	return c.Window(s.calendar, day, s.policy.CheckInGrace)
}

func TemplateView(t domain.Template) dto.TemplateOutput {
	out := dto.TemplateOutput{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		DurationDays: t.DurationDays,
		EntryFee:     t.EntryFee,
		Reward:       t.Reward,
		Rules:        append([]string(nil), t.Rules...),
	}
	for _, g := range t.DailyGoals {
		out.Goals = append(out.Goals, dto.GoalOutput{ID: g.ID, Description: g.Description, Target: g.Target})
	}
	if t.CheckInTime != nil {
		out.CheckInTime = t.CheckInTime.String()
	}
	return out
}

func (s *ChallengeService) View(c domain.ActiveChallenge, now time.Time) dto.StatusOutput {
	day := c.CurrentDay(s.calendar, now)
	out := dto.StatusOutput{
		Exists:           true,
		TemplateID:       c.TemplateID,
		Title:            c.Template.Title,
		Status:           string(c.Status),
		Day:              day,
		DurationDays:     c.Template.DurationDays,
		StartedAt:        c.StartedAt,
		EntryFee:         c.Template.EntryFee,
		Reward:           c.Template.Reward,
		Goals:            goals(c, day),
		CheckedInToday:   c.CheckedIn(day),
		LastCheckedInDay: c.LastCheckedInDay,
		BanUntil:         c.BanUntil,
		FailureReason:    c.FailureReason,
		CompletedAt:      c.CompletedAt,
		FailedAt:         c.FailedAt,
	}
	if c.Status == domain.StatusCompleted && c.LastCheckedInDay > 0 {
		out.Day = c.LastCheckedInDay
	}
	for d := 1; d <= out.Day; d++ {
		out.Days = append(out.Days, dto.DayOutput{Day: d, CheckedIn: c.CheckedIn(d), Goals: goals(c, d)})
	}
	if open, closeAt, ok := s.Window(c, out.Day); ok {
		out.HasWindow = true
		out.WindowOpen = open
		out.WindowClose = closeAt
	}
	if remaining, banned := c.Banned(now); banned {
		out.BanRemaining = remaining
	}
	return out
}

func goals(c domain.ActiveChallenge, day int) []dto.GoalOutput {
	out := make([]dto.GoalOutput, 0, len(c.Template.DailyGoals))
	for _, g := range c.Template.DailyGoals {
		p := c.GoalProgress(day, g.ID)
		out = append(out, dto.GoalOutput{
			ID:          g.ID,
			Description: g.Description,
			Target:      g.Target,
			Current:     p.Current,
			Completed:   p.Completed,
		})
	}
	return out
}
