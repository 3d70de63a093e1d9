package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	hclog "github.com/hashicorp/go-hclog"

	"studypact/internal/modules/timeledger/domain"
	ledgerout "studypact/internal/modules/timeledger/port/out"
	"studypact/internal/platform/clock"
	apperrors "studypact/internal/platform/errors"
	"studypact/internal/platform/id"
)

type LedgerService struct {
	clock    clock.Clock
	calendar clock.Calendar
	idGen    id.Generator
	buckets  ledgerout.BucketStore
	history  ledgerout.HistoryStore
	notes    ledgerout.DayNoteWriter
	log      hclog.Logger
}

func NewLedgerService(
	clk clock.Clock,
	calendar clock.Calendar,
	idGen id.Generator,
	buckets ledgerout.BucketStore,
	history ledgerout.HistoryStore,
	notes ledgerout.DayNoteWriter,
	logger hclog.Logger,
) *LedgerService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &LedgerService{
		clock:    clk,
		calendar: calendar,
		idGen:    idGen,
		buckets:  buckets,
		history:  history,
		notes:    notes,
		log:      logger,
	}
}

// Close credits the interval to the bucket of the calendar day it ends on.
// Intervals under a second report ok=false and touch nothing.
func (s *LedgerService) Close(ctx context.Context, userID string, interval domain.Interval) (domain.Record, bool, error) {
	interval.Subject = strings.TrimSpace(interval.Subject)
	if interval.Subject == "" {
		return domain.Record{}, false, fmt.Errorf("%w: subject is required", apperrors.ErrInvalidInput)
	}
	if !interval.Countable() {
		return domain.Record{}, false, nil
	}
	day := s.calendar.DayKey(interval.End)
	record := domain.Record{
		ID:      s.idGen.New(),
		UserID:  userID,
		Subject: interval.Subject,
		Start:   interval.Start.UTC(),
		End:     interval.End.UTC(),
		Seconds: interval.Seconds(),
		Day:     day,
	}
	if err := s.buckets.Add(ctx, domain.Bucket{UserID: userID, Subject: record.Subject, Day: day, Seconds: record.Seconds}); err != nil {
		return domain.Record{}, false, err
	}
	if err := s.history.Append(ctx, record); err != nil {
		// The bucket already holds the time; a lost history line only weakens Rebuild.
		s.log.Warn("append ledger history failed", "subject", record.Subject, "error", err)
	}
	s.refreshNote(ctx, userID, day)
	return record, true, nil
}

func (s *LedgerService) Today() string {
	return s.calendar.DayKey(s.clock.Now())
}

func (s *LedgerService) DayBuckets(ctx context.Context, userID, day string) ([]domain.Bucket, error) {
	buckets, err := s.buckets.ListDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Subject < buckets[j].Subject })
	return buckets, nil
}

// TotalAfterCredit reads a day's total once an interval has been credited.
// The credit already stands, so a failed read is logged and reported as !ok
// rather than returned.
func (s *LedgerService) TotalAfterCredit(ctx context.Context, userID, day string) (int64, bool) {
	buckets, err := s.DayBuckets(ctx, userID, day)
	if err != nil {
		s.log.Warn("read total after credit failed", "day", day, "error", err)
		return 0, false
	}
	return domain.Total(buckets), true
}

func (s *LedgerService) History(ctx context.Context, userID string, limit int) ([]domain.Record, error) {
	return s.history.List(ctx, userID, limit)
}

// Rebuild recomputes every bucket from the history log.
func (s *LedgerService) Rebuild(ctx context.Context, userID string) (int, int, error) {
	records, err := s.history.List(ctx, userID, 0)
	if err != nil {
		return 0, 0, err
	}
	if err := s.buckets.ResetUser(ctx, userID); err != nil {
		return 0, 0, err
	}
	seen := map[string]struct{}{}
	for _, rec := range records {
		day := s.calendar.DayKey(rec.End)
		if err := s.buckets.Add(ctx, domain.Bucket{UserID: userID, Subject: rec.Subject, Day: day, Seconds: rec.Seconds}); err != nil {
			return 0, 0, fmt.Errorf("rebuild bucket %s/%s: %w", rec.Subject, day, err)
		}
		seen[rec.Subject+"|"+day] = struct{}{}
	}
	s.refreshNote(ctx, userID, s.Today())
	return len(records), len(seen), nil
}

func (s *LedgerService) DeleteSubject(ctx context.Context, userID, subject string) (int64, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return 0, fmt.Errorf("%w: subject is required", apperrors.ErrInvalidInput)
	}
	removed, err := s.buckets.DeleteSubject(ctx, userID, subject)
	if err != nil {
		return 0, err
	}
	s.refreshNote(ctx, userID, s.Today())
	return removed, nil
}

func (s *LedgerService) refreshNote(ctx context.Context, userID, day string) {
	if s.notes == nil {
		return
	}
	buckets, err := s.DayBuckets(ctx, userID, day)
	if err == nil {
		err = s.notes.WriteDay(ctx, userID, day, buckets)
	}
	if err != nil {
		s.log.Warn("refresh day note failed", "day", day, "error", err)
	}
}
