package out

import (
	"context"

	"studypact/internal/modules/timeledger/domain"
)

type BucketStore interface {
	// Add accumulates bucket.Seconds onto the stored bucket, creating it lazily.
	Add(ctx context.Context, bucket domain.Bucket) error
	ListDay(ctx context.Context, userID, day string) ([]domain.Bucket, error)
	DeleteSubject(ctx context.Context, userID, subject string) (int64, error)
	ResetUser(ctx context.Context, userID string) error
}

type HistoryStore interface {
	Append(ctx context.Context, record domain.Record) error
	// List returns the newest limit records in chronological order; limit <= 0 means all.
	List(ctx context.Context, userID string, limit int) ([]domain.Record, error)
}

type DayNoteWriter interface {
	WriteDay(ctx context.Context, userID, day string, buckets []domain.Bucket) error
}
