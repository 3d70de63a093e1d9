package domain

import "time"

const (
	SchemaVersion = 1

	// MinIntervalSeconds is the shortest interval that is credited at all.
	MinIntervalSeconds = 1
)

type Interval struct {
	Subject string
	Start   time.Time
	End     time.Time
}

// Seconds is the whole-second length of the interval, floored; zero when End is not after Start.
func (i Interval) Seconds() int64 {
	if !i.End.After(i.Start) {
		return 0
	}
	return int64(i.End.Sub(i.Start) / time.Second)
}

func (i Interval) Countable() bool {
	return i.Seconds() >= MinIntervalSeconds
}

// Bucket is the accumulated time for one (user, subject, calendar day).
type Bucket struct {
	UserID  string
	Subject string
	Day     string
	Seconds int64
}

// Record is the immutable history entry written for every credited interval.
type Record struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	Subject string    `json:"subject"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Seconds int64     `json:"seconds"`
	Day     string    `json:"day"`
}

func Total(buckets []Bucket) int64 {
	var total int64
	for _, b := range buckets {
		total += b.Seconds
	}
	return total
}

func SubjectTotal(buckets []Bucket, subject string) int64 {
	var total int64
	for _, b := range buckets {
		if b.Subject == subject {
			total += b.Seconds
		}
	}
	return total
}
