package usecase

import (
	"context"
	"sync"

	"studypact/internal/modules/timeledger/domain"
	"studypact/internal/modules/timeledger/dto"
	ledgerin "studypact/internal/modules/timeledger/port/in"
	"studypact/internal/modules/timeledger/service"
	apperrors "studypact/internal/platform/errors"
	"studypact/internal/platform/identity"
)

type Interactor struct {
	svc      *service.LedgerService
	identity identity.Provider

	mu        sync.RWMutex
	observers []ledgerin.TotalObserver
}

func NewInteractor(svc *service.LedgerService, ident identity.Provider) ledgerin.Usecase {
	return &Interactor{svc: svc, identity: ident}
}

func (i *Interactor) user() (string, error) {
	userID, ok := i.identity.CurrentUserID()
	if !ok {
		return "", apperrors.ErrNoUser
	}
	return userID, nil
}

func (i *Interactor) OnTodayTotalChanged(fn ledgerin.TotalObserver) {
	if fn == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.observers = append(i.observers, fn)
}

func (i *Interactor) CloseInterval(ctx context.Context, input dto.CloseIntervalInput) (dto.CloseIntervalOutput, error) {
	userID, err := i.user()
	if err != nil {
		return dto.CloseIntervalOutput{}, err
	}
	record, credited, err := i.svc.Close(ctx, userID, domain.Interval{Subject: input.Subject, Start: input.Start, End: input.End})
	if err != nil {
		return dto.CloseIntervalOutput{}, err
	}
	out := dto.CloseIntervalOutput{Credited: credited, Subject: input.Subject}
	if !credited {
		return out, nil
	}
	out.Subject = record.Subject
	out.Day = record.Day
	out.Seconds = record.Seconds

	today := i.svc.Today()
	total, ok := i.svc.TotalAfterCredit(ctx, userID, today)
	if !ok {
		return out, nil
	}
	out.TodayTotal = total
	if record.Day == today {
		i.notify(ctx, userID, out.TodayTotal)
	}
	return out, nil
}

func (i *Interactor) notify(ctx context.Context, userID string, total int64) {
	i.mu.RLock()
	observers := append([]ledgerin.TotalObserver(nil), i.observers...)
	i.mu.RUnlock()
	for _, fn := range observers {
		fn(ctx, userID, total)
	}
}

func (i *Interactor) TodayTotal(ctx context.Context, subject string) (int64, error) {
	userID, err := i.user()
	if err != nil {
		return 0, err
	}
	buckets, err := i.svc.DayBuckets(ctx, userID, i.svc.Today())
	if err != nil {
		return 0, err
	}
	if subject == "" {
		return domain.Total(buckets), nil
	}
	return domain.SubjectTotal(buckets, subject), nil
}

func (i *Interactor) Today(ctx context.Context) (dto.TodayOutput, error) {
	userID, err := i.user()
	if err != nil {
		return dto.TodayOutput{}, err
	}
	day := i.svc.Today()
	buckets, err := i.svc.DayBuckets(ctx, userID, day)
	if err != nil {
		return dto.TodayOutput{}, err
	}
	out := dto.TodayOutput{Day: day, Total: domain.Total(buckets), Subjects: make([]dto.SubjectTotalOutput, 0, len(buckets))}
	for _, b := range buckets {
		out.Subjects = append(out.Subjects, dto.SubjectTotalOutput{Subject: b.Subject, Seconds: b.Seconds})
	}
	return out, nil
}

func (i *Interactor) History(ctx context.Context, limit int) ([]dto.RecordOutput, error) {
	userID, err := i.user()
	if err != nil {
		return nil, err
	}
	records, err := i.svc.History(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RecordOutput, 0, len(records))
	for _, r := range records {
		out = append(out, dto.RecordOutput{ID: r.ID, Subject: r.Subject, Day: r.Day, Start: r.Start, End: r.End, Seconds: r.Seconds})
	}
	return out, nil
}

func (i *Interactor) Rebuild(ctx context.Context) (dto.RebuildOutput, error) {
	userID, err := i.user()
	if err != nil {
		return dto.RebuildOutput{}, err
	}
	records, buckets, err := i.svc.Rebuild(ctx, userID)
	if err != nil {
		return dto.RebuildOutput{}, err
	}
	return dto.RebuildOutput{Records: records, Buckets: buckets}, nil
}

func (i *Interactor) DeleteSubject(ctx context.Context, subject string) (dto.DeleteSubjectOutput, error) {
	userID, err := i.user()
	if err != nil {
		return dto.DeleteSubjectOutput{}, err
	}
	removed, err := i.svc.DeleteSubject(ctx, userID, subject)
	if err != nil {
		return dto.DeleteSubjectOutput{}, err
	}
	return dto.DeleteSubjectOutput{Subject: subject, RemovedSeconds: removed}, nil
}
