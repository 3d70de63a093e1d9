package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	challengeout "studypact/internal/modules/challenge/adapter/out"
	"studypact/internal/modules/challenge/domain"
	"studypact/internal/modules/challenge/dto"
	challengein "studypact/internal/modules/challenge/port/in"
	"studypact/internal/modules/challenge/service"
	"studypact/internal/modules/challenge/usecase"
	"studypact/internal/platform/clock"
	"studypact/internal/platform/docstore"
	apperrors "studypact/internal/platform/errors"
	"studypact/internal/platform/identity"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type payout struct {
	refund, reward int64
	badge          string
}

type fakeWallet struct {
	mu        sync.Mutex
	balance   int64
	fees      []int64
	penalties []int64
	refunds   []int64
	payouts   []payout
	badges    map[string]bool
}

func (w *fakeWallet) Charge(_ context.Context, amount int64, _, _ string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balance < amount {
		return apperrors.ErrInsufficientFunds
	}
	w.balance -= amount
	w.fees = append(w.fees, amount)
	return nil
}

func (w *fakeWallet) Penalize(_ context.Context, amount int64, _, _ string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if amount > w.balance {
		amount = w.balance
	}
	w.balance -= amount
	w.penalties = append(w.penalties, amount)
	return amount, nil
}

func (w *fakeWallet) Refund(_ context.Context, amount int64, _, _ string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance += amount
	w.refunds = append(w.refunds, amount)
	return nil
}

func (w *fakeWallet) Payout(_ context.Context, refund, reward int64, badge, _ string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance += refund + reward
	w.payouts = append(w.payouts, payout{refund: refund, reward: reward, badge: badge})
	if w.badges == nil {
		w.badges = map[string]bool{}
	}
	granted := !w.badges[badge]
	w.badges[badge] = true
	return granted, nil
}

func (w *fakeWallet) Notify(context.Context, string, string) {}

func (w *fakeWallet) snapshot() (balance int64, penalties int, payouts int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance, len(w.penalties), len(w.payouts)
}

type fakeStudyTime struct {
	mu    sync.Mutex
	total int64
}

func (f *fakeStudyTime) TodayTotal(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total, nil
}

func (f *fakeStudyTime) set(total int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total = total
}

type fakeCatalog map[string]domain.Template

func (c fakeCatalog) List(context.Context) ([]domain.Template, error) {
	out := make([]domain.Template, 0, len(c))
	for _, t := range c {
		out = append(out, t)
	}
	return out, nil
}

func (c fakeCatalog) Get(_ context.Context, id string) (domain.Template, error) {
	t, ok := c[id]
	if !ok {
		return domain.Template{}, fmt.Errorf("%w: template %q", apperrors.ErrNotFound, id)
	}
	return t, nil
}

var day1 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 3, 1+day, hour, minute, 0, 0, time.UTC)
}

func catalog() fakeCatalog {
	evening := clock.TimeOfDay{Hour: 21}
	return fakeCatalog{
		"week": {
			ID: "week", Title: "Week", DurationDays: 7, EntryFee: 10, Reward: 50,
			DailyGoals: []domain.DailyGoal{{ID: domain.GoalStudyTime, Target: 3600}},
		},
		"pair": {
			ID: "pair", Title: "Pair", DurationDays: 2, EntryFee: 10, Reward: 50,
			DailyGoals: []domain.DailyGoal{{ID: domain.GoalStudyTime, Target: 600}, {ID: domain.GoalCheckIn, Target: 1}},
		},
		"evening": {
			ID: "evening", Title: "Evening", DurationDays: 3, EntryFee: 5, Reward: 10,
			DailyGoals: []domain.DailyGoal{
				{ID: domain.GoalFocusSessions, Target: 1},
				{ID: "reading", Target: 20},
			},
			CheckInTime: &evening,
		},
	}
}

type harness struct {
	clock  *fakeClock
	wallet *fakeWallet
	study  *fakeStudyTime
	store  *challengeout.DocChallengeStore
	uc     challengein.Usecase
}

func newHarness(t *testing.T, balance int64) *harness {
	t.Helper()
	h := &harness{
		clock:  &fakeClock{now: day1},
		wallet: &fakeWallet{balance: balance},
		study:  &fakeStudyTime{},
	}
	store := challengeout.NewDocChallengeStore(docstore.NewFileStore(t.TempDir()))
	h.store = store.(*challengeout.DocChallengeStore)
	svc := service.NewChallengeService(h.clock, clock.NewCalendar(time.UTC), service.Policy{
		ForfeitPenalty: 20,
		BanLiftCost:    30,
		BanDuration:    72 * time.Hour,
		CheckInGrace:   10 * time.Minute,
	})
	h.uc = usecase.NewInteractor(svc, identity.Static("u1"), catalog(), store, h.wallet, h.study, nil)
	return h
}

func (h *harness) status(t *testing.T) dto.StatusOutput {
	t.Helper()
	out, err := h.uc.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	return out
}

func TestStartDeductsFeeAndBeginsOnDayOne(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 100)
	out, err := h.uc.Start(context.Background(), "week")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if out.Day != 1 || out.Status != "active" || out.LastCheckedInDay != 0 {
		t.Fatalf("unexpected start view: %+v", out)
	}
	if out.Goals[0].Current != 0 || out.Goals[0].Completed {
		t.Fatalf("expected empty progress, got %+v", out.Goals)
	}
	if balance, _, _ := h.wallet.snapshot(); balance != 90 {
		t.Fatalf("expected balance 90 after fee, got %d", balance)
	}
	if _, err := h.uc.Start(context.Background(), "week"); !errors.Is(err, apperrors.ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
}

func TestStartRejectsInsufficientBalance(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 5)
	if _, err := h.uc.Start(context.Background(), "week"); !errors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if out := h.status(t); out.Exists {
		t.Fatalf("no record expected after a rejected start, got %+v", out)
	}
	if _, err := h.uc.Start(context.Background(), "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown template, got %v", err)
	}
}

func TestCheckedInDayIsNotFailedRetroactively(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 100)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, "week"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.uc.ObserveStudyTime(ctx, "u1", 3600)
	in, err := h.uc.CheckIn(ctx)
	if err != nil {
		t.Fatalf("check in day 1: %v", err)
	}
	if in.Day != 1 || in.Completed {
		t.Fatalf("unexpected check-in result: %+v", in)
	}

	h.clock.Set(at(2, 10, 0))
	h.study.set(3600)
	if _, err := h.uc.CheckIn(ctx); err != nil {
		t.Fatalf("check in day 2: %v", err)
	}

	h.clock.Set(at(3, 8, 0))
	out := h.status(t)
	if out.Status != "active" || out.Day != 3 || out.LastCheckedInDay != 2 {
		t.Fatalf("expected day 3 active, got %+v", out)
	}
	if _, penalties, _ := h.wallet.snapshot(); penalties != 0 {
		t.Fatalf("expected no penalty, got %d", penalties)
	}
}

func TestMissedDayFailsOnceWithBan(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 100)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, "week"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.uc.ObserveStudyTime(ctx, "u1", 3600)
	if _, err := h.uc.CheckIn(ctx); err != nil {
		t.Fatalf("check in: %v", err)
	}

	failAt := at(3, 12, 0)
	h.clock.Set(failAt)
	var wg sync.WaitGroup
	for n := 0; n < 8; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.uc.Status(ctx); err != nil {
				t.Errorf("status: %v", err)
			}
		}()
	}
	wg.Wait()

	out := h.status(t)
	if out.Status != "failed" {
		t.Fatalf("expected failed, got %+v", out)
	}
	if out.BanUntil == nil || !out.BanUntil.Equal(failAt.Add(72*time.Hour)) {
		t.Fatalf("expected ban until %s, got %v", failAt.Add(72*time.Hour), out.BanUntil)
	}
	balance, penalties, _ := h.wallet.snapshot()
	if penalties != 1 || balance != 70 {
		t.Fatalf("expected exactly one penalty leaving 70, got %d penalties balance %d", penalties, balance)
	}

	h.clock.Advance(24 * time.Hour)
	h.status(t)
	if _, penalties, _ := h.wallet.snapshot(); penalties != 1 {
		t.Fatalf("later observations must not charge again, got %d", penalties)
	}
}

func TestFailedStatusIsReportedToTheObservingCall(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 100)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, "week"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.Set(at(2, 0, 30))
	out := h.status(t)
	if !out.Failed || out.Penalty != 20 {
		t.Fatalf("expected this observation to fail the challenge, got %+v", out)
	}
	if again := h.status(t); again.Failed {
		t.Fatalf("only the first observation reports the transition, got %+v", again)
	}
}

func TestBanBlocksStartUntilExpiry(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 100)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, "week"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.uc.Forfeit(ctx); err != nil {
		t.Fatalf("forfeit: %v", err)
	}

	h.clock.Advance(24 * time.Hour)
	_, err := h.uc.Start(ctx, "week")
	var banErr *apperrors.BanError
	if !errors.As(err, &banErr) || !errors.Is(err, apperrors.ErrBannedStillActive) {
		t.Fatalf("expected BanError, got %v", err)
	}
	if banErr.Remaining != 48*time.Hour {
		t.Fatalf("expected 48h remaining, got %s", banErr.Remaining)
	}

	h.clock.Advance(48*time.Hour + time.Minute)
	out, err := h.uc.Start(ctx, "week")
	if err != nil {
		t.Fatalf("start after ban expiry: %v", err)
	}
	if out.Status != "active" || out.Day != 1 {
		t.Fatalf("expected a fresh challenge, got %+v", out)
	}
}

func TestForfeitAndLiftBan(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 100)
	ctx := context.Background()

	if _, err := h.uc.LiftBan(ctx); !errors.Is(err, apperrors.ErrNoActiveChallenge) {
		t.Fatalf("expected ErrNoActiveChallenge, got %v", err)
	}
	if _, err := h.uc.Start(ctx, "week"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.uc.LiftBan(ctx); !errors.Is(err, apperrors.ErrNotFailed) {
		t.Fatalf("expected ErrNotFailed, got %v", err)
	}

	out, err := h.uc.Forfeit(ctx)
	if err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	if out.Status != "failed" || out.FailureReason != "forfeited" || out.Penalty != 20 {
		t.Fatalf("unexpected forfeit view: %+v", out)
	}
	if _, err := h.uc.Forfeit(ctx); !errors.Is(err, apperrors.ErrChallengeClosed) {
		t.Fatalf("expected ErrChallengeClosed on second forfeit, got %v", err)
	}

	lift, err := h.uc.LiftBan(ctx)
	if err != nil {
		t.Fatalf("lift ban: %v", err)
	}
	if lift.Cost != 30 {
		t.Fatalf("expected cost 30, got %d", lift.Cost)
	}
	if balance, _, _ := h.wallet.snapshot(); balance != 40 {
		t.Fatalf("expected 100-10-20-30=40, got %d", balance)
	}
	if st := h.status(t); st.Exists {
		t.Fatalf("record should be deleted, got %+v", st)
	}
	if _, err := h.uc.Start(ctx, "week"); err != nil {
		t.Fatalf("start after lift: %v", err)
	}
}

func TestLiftBanRequiresFunds(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 25)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, "week"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.uc.Forfeit(ctx); err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	if _, err := h.uc.LiftBan(ctx); !errors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if st := h.status(t); st.Status != "failed" {
		t.Fatalf("record must survive a rejected lift, got %+v", st)
	}
}

func TestFinalCheckInPaysOutOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 100)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, "pair"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.study.set(600)
	if _, err := h.uc.CheckIn(ctx); err != nil {
		t.Fatalf("check in day 1: %v", err)
	}

	h.clock.Set(at(2, 20, 0))
	h.study.set(900)
	in, err := h.uc.CheckIn(ctx)
	if err != nil {
		t.Fatalf("final check in: %v", err)
	}
	if !in.Completed || in.Refund != 10 || in.Reward != 50 || !in.BadgeGranted {
		t.Fatalf("unexpected final check-in: %+v", in)
	}
	if in.Status.Status != "completed" {
		t.Fatalf("expected completed, got %s", in.Status.Status)
	}

	again, err := h.uc.CheckIn(ctx)
	if !errors.Is(err, apperrors.ErrChallengeClosed) {
		t.Fatalf("expected ErrChallengeClosed after completion, got %v (%+v)", err, again)
	}
	balance, _, payouts := h.wallet.snapshot()
	if payouts != 1 || balance != 150 {
		t.Fatalf("expected one payout and balance 150, got %d payouts balance %d", payouts, balance)
	}

	h.clock.Set(at(5, 9, 0))
	if st := h.status(t); st.Status != "completed" {
		t.Fatalf("completed challenge must not fail later, got %+v", st)
	}
	if _, err := h.uc.Start(ctx, "pair"); err != nil {
		t.Fatalf("completed record should be replaced: %v", err)
	}
}

func TestCheckInTwiceSameDayIsBenign(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 100)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, "week"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.study.set(4000)
	if _, err := h.uc.CheckIn(ctx); err != nil {
		t.Fatalf("check in: %v", err)
	}
	again, err := h.uc.CheckIn(ctx)
	if err != nil {
		t.Fatalf("second check in: %v", err)
	}
	if !again.AlreadyCheckedIn || again.Day != 1 {
		t.Fatalf("expected benign repeat, got %+v", again)
	}
	if st := h.status(t); len(st.Days) != 1 || !st.Days[0].CheckedIn {
		t.Fatalf("unexpected day list: %+v", st.Days)
	}
}

func TestCheckInRequiresGoals(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 100)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, "week"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.study.set(1200)
	if _, err := h.uc.CheckIn(ctx); !errors.Is(err, apperrors.ErrGoalsIncomplete) {
		t.Fatalf("expected ErrGoalsIncomplete, got %v", err)
	}
	if st := h.status(t); st.LastCheckedInDay != 0 || st.Goals[0].Current != 1200 {
		t.Fatalf("check-in must sync progress without recording the day, got %+v", st)
	}
}

func TestGoalProgressIsMonotonic(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 100)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, "week"); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.uc.ObserveStudyTime(ctx, "u1", 3700)
	h.uc.ObserveStudyTime(ctx, "u1", 200)
	h.uc.ObserveStudyTime(ctx, "someone-else", 9000)

	st := h.status(t)
	if st.Goals[0].Current != 3700 || !st.Goals[0].Completed {
		t.Fatalf("expected 3700 completed, got %+v", st.Goals[0])
	}
}

func TestCheckInWindow(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 100)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, "evening"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.uc.RecordFocusSession(ctx); err != nil {
		t.Fatalf("record focus session: %v", err)
	}
	if _, err := h.uc.RecordProgress(ctx, "reading", 25); err != nil {
		t.Fatalf("record progress: %v", err)
	}
	if _, err := h.uc.RecordProgress(ctx, domain.GoalCheckIn, 1); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for checkIn goal, got %v", err)
	}
	if _, err := h.uc.RecordProgress(ctx, "unknown", 1); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown goal, got %v", err)
	}

	h.clock.Set(at(1, 20, 30))
	if _, err := h.uc.CheckIn(ctx); !errors.Is(err, apperrors.ErrWindowClosed) {
		t.Fatalf("expected ErrWindowClosed before the window, got %v", err)
	}
	h.clock.Set(at(1, 21, 5))
	if _, err := h.uc.CheckIn(ctx); err != nil {
		t.Fatalf("check in inside window: %v", err)
	}

	h.clock.Set(at(2, 10, 0))
	if _, err := h.uc.RecordFocusSession(ctx); err != nil {
		t.Fatalf("record focus session: %v", err)
	}
	if _, err := h.uc.RecordProgress(ctx, "reading", 20); err != nil {
		t.Fatalf("record progress: %v", err)
	}
	h.clock.Set(at(2, 21, 15))
	out, err := h.uc.CheckIn(ctx)
	if !errors.Is(err, apperrors.ErrWindowClosed) || !errors.Is(err, apperrors.ErrChallengeClosed) {
		t.Fatalf("expected ErrWindowClosed for a late check-in, got %v", err)
	}
	if !out.Status.Failed || out.Status.Status != "failed" {
		t.Fatalf("late check-in must report the failure it caused, got %+v", out.Status)
	}
	if _, penalties, _ := h.wallet.snapshot(); penalties != 1 {
		t.Fatalf("expected one penalty, got %d", penalties)
	}

	if _, err := h.uc.CheckIn(ctx); errors.Is(err, apperrors.ErrWindowClosed) || !errors.Is(err, apperrors.ErrChallengeClosed) {
		t.Fatalf("later calls see a closed challenge, got %v", err)
	}
	if _, penalties, _ := h.wallet.snapshot(); penalties != 1 {
		t.Fatalf("penalty charged again: %d", penalties)
	}
}

func TestStartAfterTodaysWindowStaysActive(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 100)
	ctx := context.Background()
	h.clock.Set(at(1, 22, 0))
	if _, err := h.uc.Start(ctx, "evening"); err != nil {
		t.Fatalf("start: %v", err)
	}

	h.clock.Set(at(1, 22, 30))
	st := h.status(t)
	if st.Status != "active" || st.Failed || st.HasWindow {
		t.Fatalf("expected an active day without a window, got %+v", st)
	}
	if balance, penalties, _ := h.wallet.snapshot(); balance != 95 || penalties != 0 {
		t.Fatalf("expected only the entry fee, balance=%d penalties=%d", balance, penalties)
	}

	if _, err := h.uc.RecordFocusSession(ctx); err != nil {
		t.Fatalf("record focus session: %v", err)
	}
	if _, err := h.uc.RecordProgress(ctx, "reading", 20); err != nil {
		t.Fatalf("record progress: %v", err)
	}
	h.clock.Set(at(1, 23, 0))
	if _, err := h.uc.CheckIn(ctx); err != nil {
		t.Fatalf("day one check-in without a window: %v", err)
	}

	h.clock.Set(at(2, 12, 0))
	if st := h.status(t); st.Status != "active" || !st.HasWindow {
		t.Fatalf("day two keeps its window, got %+v", st)
	}
}

func TestPersistedFailureIsNotChargedAgain(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 100)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, "week"); err != nil {
		t.Fatalf("start: %v", err)
	}
	record, err := h.store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	record.Fail(h.clock.Now(), "failed elsewhere", 72*time.Hour)
	record.PenaltyApplied = true
	if err := h.store.Save(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}

	h.clock.Set(at(4, 9, 0))
	if st := h.status(t); st.Status != "failed" || st.Failed {
		t.Fatalf("expected the stored failure untouched, got %+v", st)
	}
	if _, penalties, _ := h.wallet.snapshot(); penalties != 0 {
		t.Fatalf("expected no charge, got %d", penalties)
	}
}

func TestWatchSeesOtherWriters(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan dto.StatusOutput, 8)
	stop, err := h.uc.Watch(ctx, func(out dto.StatusOutput) { seen <- out })
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer stop()

	if _, err := h.uc.Start(ctx, "week"); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case out := <-seen:
		if !out.Exists || out.TemplateID != "week" {
			t.Fatalf("unexpected watched view: %+v", out)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not observe the start")
	}
}
