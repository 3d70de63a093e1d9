package clock

import (
	"fmt"
	"strings"
	"time"
)

// Clock abstracts time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Calendar maps instants onto civil days in a fixed zone. Day numbering for
// ledgers and challenges must come from a Calendar, never from raw 24h spans.
type Calendar struct {
	Location *time.Location
}

func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{Location: loc}
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Day truncates t to local midnight.
func (c Calendar) Day(t time.Time) time.Time {
	local := t.In(c.loc())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc())
}

func (c Calendar) DayKey(t time.Time) string {
	return t.In(c.loc()).Format("2006-01-02")
}

// DaysBetween counts calendar days from a to b (negative when b is earlier).
func (c Calendar) DaysBetween(a, b time.Time) int {
	da := c.Day(a)
	db := c.Day(b)
	ua := time.Date(da.Year(), da.Month(), da.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(db.Year(), db.Month(), db.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// AddDays returns local midnight n calendar days after day.
func (c Calendar) AddDays(day time.Time, n int) time.Time {
	d := c.Day(day)
	return time.Date(d.Year(), d.Month(), d.Day()+n, 0, 0, 0, 0, c.loc())
}

// At returns the instant of hour:minute on the calendar day containing day.
func (c Calendar) At(day time.Time, hour, minute int) time.Time {
	d := c.Day(day)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, c.loc())
}

// TimeOfDay is a wall-clock "HH:MM" without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On places t on the calendar day containing day.
func (c Calendar) On(day time.Time, t TimeOfDay) time.Time {
	return c.At(day, t.Hour, t.Minute)
}
