package dto

import "time"

type GoalOutput struct {
	ID          string
	Description string
	Target      int64
	Current     int64
	Completed   bool
}

type TemplateOutput struct {
	ID           string
	Title        string
	Description  string
	DurationDays int
	EntryFee     int64
	Reward       int64
	Goals        []GoalOutput
	CheckInTime  string
	Rules        []string
}

type DayOutput struct {
	Day       int
	CheckedIn bool
	Goals     []GoalOutput
}

// StatusOutput is the reconciled view of the user's challenge record.
// Exists is false when the user has no record at all.
type StatusOutput struct {
	Exists           bool
	TemplateID       string
	Title            string
	Status           string
	Day              int
	DurationDays     int
	StartedAt        time.Time
	EntryFee         int64
	Reward           int64
	Goals            []GoalOutput
	Days             []DayOutput
	HasWindow        bool
	WindowOpen       time.Time
	WindowClose      time.Time
	CheckedInToday   bool
	LastCheckedInDay int
	BanUntil         *time.Time
	BanRemaining     time.Duration
	FailureReason    string
	CompletedAt      *time.Time
	FailedAt         *time.Time
	// Failed is true when this observation is the one that failed the challenge.
	Failed  bool
	Penalty int64
}

type CheckInOutput struct {
	Day              int
	AlreadyCheckedIn bool
	Completed        bool
	Refund           int64
	Reward           int64
	BadgeGranted     bool
	Status           StatusOutput
}

type LiftBanOutput struct {
	TemplateID string
	Cost       int64
}
