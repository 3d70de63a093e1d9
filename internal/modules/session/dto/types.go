package dto

import "time"

type StartFocusInput struct {
	Subject string
	// Zero values fall back to the configured defaults.
	Duration time.Duration
	Penalty  int64
	Reward   int64
}

type FocusOutput struct {
	SessionID      string
	Subject        string
	StartedAt      time.Time
	Duration       time.Duration
	Remaining      time.Duration
	Penalty        int64
	Reward         int64
	PenaltyApplied bool
}

type TickOutput struct {
	SessionID string
	Remaining time.Duration
	Active    bool
	Completed bool
	// Credited is set once the session completes.
	Credited int64
	NotePath string
}

type AbandonOutput struct {
	SessionID string
	Penalized bool
	// Applied is the penalty actually taken, which is lower than the stake
	// when the balance could not cover it.
	Applied  int64
	Status   string
	Source   string
	Message  string
	NotePath string
}

type TimerOutput struct {
	Subject   string
	StartedAt time.Time
	Elapsed   time.Duration
}

type StopTimerOutput struct {
	Subject    string
	StartedAt  time.Time
	EndedAt    time.Time
	Seconds    int64
	Credited   bool
	TodayTotal int64
}

type SwitchTimerOutput struct {
	Stopped StopTimerOutput
	Started TimerOutput
}

type EventOutput struct {
	Type            string
	SessionID       string
	Kind            string
	Subject         string
	Status          string
	Source          string
	Reason          string
	Message         string
	CreditedSeconds int64
	Penalty         int64
	Reward          int64
	At              time.Time
}
