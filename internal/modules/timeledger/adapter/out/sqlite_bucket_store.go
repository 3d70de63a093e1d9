package out

import (
	"context"
	"database/sql"
	"fmt"

	"studypact/internal/modules/timeledger/domain"
	ledgerout "studypact/internal/modules/timeledger/port/out"
)

type SQLiteBucketStore struct {
	db *sql.DB
}

func NewSQLiteBucketStore(db *sql.DB) (ledgerout.BucketStore, error) {
	store := &SQLiteBucketStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteBucketStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS time_buckets (
  user_id TEXT NOT NULL,
  subject TEXT NOT NULL,
  day TEXT NOT NULL,
  seconds INTEGER NOT NULL,
  schema_version INTEGER NOT NULL,
  PRIMARY KEY (user_id, subject, day)
);
CREATE INDEX IF NOT EXISTS idx_time_buckets_day ON time_buckets (user_id, day);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create time_buckets table: %w", err)
	}
	return nil
}

func (s *SQLiteBucketStore) Add(ctx context.Context, bucket domain.Bucket) error {
	const stmt = `
INSERT INTO time_buckets (user_id, subject, day, seconds, schema_version)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id, subject, day) DO UPDATE SET
  seconds = time_buckets.seconds + excluded.seconds;
`
	if _, err := s.db.ExecContext(ctx, stmt, bucket.UserID, bucket.Subject, bucket.Day, bucket.Seconds, domain.SchemaVersion); err != nil {
		return fmt.Errorf("add time bucket: %w", err)
	}
	return nil
}

func (s *SQLiteBucketStore) ListDay(ctx context.Context, userID, day string) ([]domain.Bucket, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT subject, seconds FROM time_buckets WHERE user_id = ? AND day = ? ORDER BY subject`, userID, day)
	if err != nil {
		return nil, fmt.Errorf("query time buckets: %w", err)
	}
	defer rows.Close()
	buckets := []domain.Bucket{}
	for rows.Next() {
		b := domain.Bucket{UserID: userID, Day: day}
		if err := rows.Scan(&b.Subject, &b.Seconds); err != nil {
			return nil, fmt.Errorf("scan time bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func (s *SQLiteBucketStore) DeleteSubject(ctx context.Context, userID, subject string) (int64, error) {
	var removed sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT SUM(seconds) FROM time_buckets WHERE user_id = ? AND subject = ?`, userID, subject).Scan(&removed); err != nil {
		return 0, fmt.Errorf("sum subject buckets: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM time_buckets WHERE user_id = ? AND subject = ?`, userID, subject); err != nil {
		return 0, fmt.Errorf("delete subject buckets: %w", err)
	}
	return removed.Int64, nil
}

func (s *SQLiteBucketStore) ResetUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM time_buckets WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("reset time buckets: %w", err)
	}
	return nil
}
