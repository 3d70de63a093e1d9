package apperrors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrNoUser       = errors.New("no current user")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyActive     = errors.New("already active")
	ErrGoalsIncomplete   = errors.New("daily goals incomplete")
	ErrWindowClosed      = errors.New("check-in window closed")
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrBannedStillActive = errors.New("challenge ban still active")

	ErrNoActiveSession   = errors.New("no active session")
	ErrNoActiveChallenge = errors.New("no active challenge")
	ErrNotFailed         = errors.New("challenge has not failed")
	ErrChallengeClosed   = errors.New("challenge is no longer active")
)

// BanError carries the remaining lockout of a failed challenge.
type BanError struct {
	Until     time.Time
	Remaining time.Duration
}

func (e *BanError) Error() string {
	return fmt.Sprintf("%s: %s remaining (until %s)", ErrBannedStillActive, e.Remaining.Round(time.Minute), e.Until.Format(time.RFC3339))
}

func (e *BanError) Unwrap() error { return ErrBannedStillActive }
