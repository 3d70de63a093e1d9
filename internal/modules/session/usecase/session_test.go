package usecase_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	sessionout "studypact/internal/modules/session/adapter/out"
	"studypact/internal/modules/session/domain"
	sessiondto "studypact/internal/modules/session/dto"
	sessionin "studypact/internal/modules/session/port/in"
	sessionport "studypact/internal/modules/session/port/out"
	"studypact/internal/modules/session/service"
	"studypact/internal/modules/session/usecase"
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

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type seqID struct {
	mu sync.Mutex
	n  int
}

func (s *seqID) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "sess-" + strconv.Itoa(s.n)
}

type fakeWallet struct {
	mu        sync.Mutex
	balance   int64
	penalties []int64
	rewards   []int64
	notices   []string
}

func (w *fakeWallet) Balance(context.Context) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance, nil
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

func (w *fakeWallet) Reward(_ context.Context, amount int64, _, _ string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance += amount
	w.rewards = append(w.rewards, amount)
	return nil
}

func (w *fakeWallet) Notify(_ context.Context, _, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notices = append(w.notices, message)
}

func (w *fakeWallet) penaltyCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.penalties)
}

type interval struct {
	subject    string
	start, end time.Time
}

type fakeLedger struct {
	mu        sync.Mutex
	intervals []interval
	total     int64
}

func (l *fakeLedger) CloseInterval(_ context.Context, subject string, start, end time.Time) (int64, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	secs := int64(end.Sub(start) / time.Second)
	if secs < 1 {
		return 0, l.total, nil
	}
	l.intervals = append(l.intervals, interval{subject: subject, start: start, end: end})
	l.total += secs
	return secs, l.total, nil
}

type eventLog struct {
	mu     sync.Mutex
	events []sessiondto.EventOutput
}

func (e *eventLog) record(_ context.Context, ev sessiondto.EventOutput) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *eventLog) ofType(t string) []sessiondto.EventOutput {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []sessiondto.EventOutput
	for _, ev := range e.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type harness struct {
	clock  *fakeClock
	wallet *fakeWallet
	ledger *fakeLedger
	store  sessionport.ActiveSessionStore
	home   string
	ids    *seqID
}

func newHarness(t *testing.T, balance int64) *harness {
	t.Helper()
	home := t.TempDir()
	return &harness{
		clock:  &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		wallet: &fakeWallet{balance: balance},
		ledger: &fakeLedger{},
		store:  sessionout.NewDocActiveSessionStore(docstore.NewFileStore(home)),
		home:   home,
		ids:    &seqID{},
	}
}

func (h *harness) controller(opts ...usecase.Option) (sessionin.Usecase, *eventLog) {
	svc := service.NewSessionService(h.clock, h.ids, sessionout.NewVaultSessionStore(h.home), service.Defaults{
		Duration: 25 * time.Minute,
		Penalty:  5,
		Reward:   10,
		Subject:  "focus",
	}, nil)
	uc := usecase.NewInteractor(svc, identity.Static("u1"), h.store, h.wallet, h.ledger, nil, opts...)
	log := &eventLog{}
	uc.Subscribe(log.record)
	return uc, log
}

func tickN(t *testing.T, uc sessionin.Usecase, clk *fakeClock, n int) sessiondto.TickOutput {
	t.Helper()
	var out sessiondto.TickOutput
	for i := 0; i < n; i++ {
		clk.Advance(time.Second)
		var err error
		out, err = uc.Tick(context.Background())
		if err != nil {
			t.Fatalf("tick %d: %v", i+1, err)
		}
	}
	return out
}

func TestFocusCompletesAfterFullDuration(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 20)
	uc, events := h.controller()
	ctx := context.Background()

	start, err := uc.StartFocus(ctx, sessiondto.StartFocusInput{Subject: "math"})
	if err != nil {
		t.Fatalf("start focus: %v", err)
	}
	if start.Duration != 25*time.Minute || start.Penalty != 5 || start.Reward != 10 {
		t.Fatalf("defaults not applied: %+v", start)
	}

	out := tickN(t, uc, h.clock, 1499)
	if !out.Active || out.Remaining != time.Second {
		t.Fatalf("expected one second left, got %+v", out)
	}
	out = tickN(t, uc, h.clock, 1)
	if !out.Completed || out.Credited != 1500 {
		t.Fatalf("expected completion crediting 1500s, got %+v", out)
	}

	if len(h.ledger.intervals) != 1 {
		t.Fatalf("expected one ledger interval, got %d", len(h.ledger.intervals))
	}
	got := h.ledger.intervals[0]
	if got.subject != "math" || !got.start.Equal(start.StartedAt) || got.end.Sub(got.start) != 25*time.Minute {
		t.Fatalf("unexpected interval %+v", got)
	}
	if len(h.wallet.rewards) != 1 || h.wallet.rewards[0] != 10 || h.wallet.penaltyCount() != 0 {
		t.Fatalf("expected one reward and no penalty, got rewards=%v penalties=%v", h.wallet.rewards, h.wallet.penalties)
	}
	closed := events.ofType("closed")
	if len(closed) != 1 || closed[0].Status != "completed" || closed[0].Kind != "focus" {
		t.Fatalf("expected one completed closed event, got %+v", closed)
	}
	if out.NotePath == "" {
		t.Fatalf("expected a session note")
	}
	if _, err := uc.ActiveFocus(ctx); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("expected no active focus after completion, got %v", err)
	}
}

func TestAbandonChargesOnceAndCreditsNothing(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 20)
	uc, events := h.controller()
	ctx := context.Background()

	if _, err := uc.StartFocus(ctx, sessiondto.StartFocusInput{Subject: "math"}); err != nil {
		t.Fatalf("start focus: %v", err)
	}
	tickN(t, uc, h.clock, 400)

	out, err := uc.Abandon(ctx, "visibility_hidden")
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if !out.Penalized || out.Applied != 5 || out.Status != "abandoned" {
		t.Fatalf("unexpected abandon result %+v", out)
	}
	if len(h.ledger.intervals) != 0 {
		t.Fatalf("abandoned focus time must not be credited: %+v", h.ledger.intervals)
	}
	if h.wallet.balance != 15 {
		t.Fatalf("expected balance 15, got %d", h.wallet.balance)
	}
	if n := len(events.ofType("abandoned_with_penalty")); n != 1 {
		t.Fatalf("expected one abandonment event, got %d", n)
	}

	again, err := uc.Abandon(ctx, "before_discard")
	if err != nil {
		t.Fatalf("second abandon: %v", err)
	}
	if again.Penalized {
		t.Fatalf("second abandonment must not charge")
	}
	if _, err := uc.Tick(ctx); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("tick after abandon must fail with ErrNoActiveSession, got %v", err)
	}
}

func TestConcurrentAbandonSignalsChargeExactlyOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 50)
	uc, events := h.controller()
	ctx := context.Background()
	if _, err := uc.StartFocus(ctx, sessiondto.StartFocusInput{}); err != nil {
		t.Fatalf("start focus: %v", err)
	}

	sources := []string{"before_discard", "visibility_hidden", "stop"}
	var wg sync.WaitGroup
	var mu sync.Mutex
	penalized := 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			out, err := uc.Abandon(ctx, src)
			if err != nil {
				t.Errorf("abandon: %v", err)
				return
			}
			if out.Penalized {
				mu.Lock()
				penalized++
				mu.Unlock()
			}
		}(sources[i%len(sources)])
	}
	wg.Wait()

	if penalized != 1 {
		t.Fatalf("expected exactly one charging abandonment, got %d", penalized)
	}
	if h.wallet.penaltyCount() != 1 {
		t.Fatalf("expected one penalty dispatch, got %d", h.wallet.penaltyCount())
	}
	if n := len(events.ofType("abandoned_with_penalty")); n != 1 {
		t.Fatalf("expected one abandonment event, got %d", n)
	}
}

func TestStartFocusGuards(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 3)
	uc, _ := h.controller()
	ctx := context.Background()

	if _, err := uc.StartFocus(ctx, sessiondto.StartFocusInput{Penalty: 5}); !errors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := uc.StartFocus(ctx, sessiondto.StartFocusInput{Penalty: -1}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := uc.StartFocus(ctx, sessiondto.StartFocusInput{Penalty: 2}); err != nil {
		t.Fatalf("start within balance: %v", err)
	}
	if _, err := uc.StartFocus(ctx, sessiondto.StartFocusInput{Penalty: 1}); !errors.Is(err, apperrors.ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}

	other, _ := h.controller()
	if _, err := other.StartFocus(ctx, sessiondto.StartFocusInput{Penalty: 1}); !errors.Is(err, apperrors.ErrAlreadyActive) {
		t.Fatalf("persisted session must block a second controller, got %v", err)
	}
}

func TestRecoverAbandonsDiscardedSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 20)
	crashed, _ := h.controller()
	ctx := context.Background()
	if _, err := crashed.StartFocus(ctx, sessiondto.StartFocusInput{}); err != nil {
		t.Fatalf("start focus: %v", err)
	}

	fresh, events := h.controller(usecase.WithStaleAfter(10 * time.Second))
	out, err := fresh.Recover(ctx)
	if err != nil {
		t.Fatalf("recover with live heartbeat: %v", err)
	}
	if out.Penalized {
		t.Fatalf("a fresh heartbeat belongs to a live process and must be left alone")
	}

	h.clock.Advance(time.Minute)
	out, err = fresh.Recover(ctx)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if !out.Penalized || out.Source != "before_discard" || out.Applied != 5 {
		t.Fatalf("unexpected recovery %+v", out)
	}
	again, err := fresh.Recover(ctx)
	if err != nil {
		t.Fatalf("second recover: %v", err)
	}
	if again.Penalized || h.wallet.penaltyCount() != 1 {
		t.Fatalf("recovery must charge once, penalties=%v", h.wallet.penalties)
	}
	if n := len(events.ofType("abandoned_with_penalty")); n != 1 {
		t.Fatalf("expected one abandonment event, got %d", n)
	}
}

func TestRecoverHonoursPersistedPenaltyGuard(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 20)
	ctx := context.Background()
	started := h.clock.Now()
	if err := h.store.Save(ctx, domain.ActiveSession{
		ID:             "crashed",
		UserID:         "u1",
		Kind:           domain.KindFocus,
		Subject:        "math",
		StartedAt:      started,
		Duration:       25 * time.Minute,
		Remaining:      20 * time.Minute,
		Penalty:        5,
		PenaltyApplied: true,
		UpdatedAt:      started,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h.clock.Advance(time.Hour)

	uc, _ := h.controller()
	out, err := uc.Recover(ctx)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if out.Penalized || h.wallet.penaltyCount() != 0 {
		t.Fatalf("a persisted guard must prevent a second charge: %+v", out)
	}
	if _, err := h.store.Load(ctx, "u1", domain.KindFocus); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("recovered session must be cleared, got %v", err)
	}
}

func TestStopFromAnotherControllerEndsLiveSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 20)
	live, liveEvents := h.controller()
	remote, _ := h.controller()
	ctx := context.Background()

	if _, err := live.StartFocus(ctx, sessiondto.StartFocusInput{}); err != nil {
		t.Fatalf("start focus: %v", err)
	}
	tickN(t, live, h.clock, 10)

	out, err := remote.Stop(ctx)
	if err != nil {
		t.Fatalf("remote stop: %v", err)
	}
	if !out.Penalized || out.Status != "stopped_manually" {
		t.Fatalf("unexpected remote stop %+v", out)
	}

	h.clock.Advance(time.Second)
	tick, err := live.Tick(ctx)
	if err != nil {
		t.Fatalf("tick after remote stop: %v", err)
	}
	if tick.Active || tick.Completed {
		t.Fatalf("live controller must drop the session, got %+v", tick)
	}
	if h.wallet.penaltyCount() != 1 {
		t.Fatalf("expected one penalty, got %d", h.wallet.penaltyCount())
	}
	if n := len(liveEvents.ofType("abandoned_with_penalty")); n != 0 {
		t.Fatalf("the live controller must not report its own abandonment, got %d", n)
	}
}

func TestRunStopsWhenAbandoned(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 20)
	uc, _ := h.controller(usecase.WithTickInterval(time.Millisecond))
	ctx := context.Background()
	if _, err := uc.StartFocus(ctx, sessiondto.StartFocusInput{Duration: time.Hour}); err != nil {
		t.Fatalf("start focus: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- uc.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	if _, err := uc.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop after abandonment")
	}
}

func TestRunCompletesShortSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 20)
	uc, events := h.controller(usecase.WithTickInterval(time.Millisecond))
	ctx := context.Background()
	if _, err := uc.StartFocus(ctx, sessiondto.StartFocusInput{Duration: 3 * time.Second}); err != nil {
		t.Fatalf("start focus: %v", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := uc.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	closed := events.ofType("closed")
	if len(closed) != 1 || closed[0].Status != "completed" || closed[0].CreditedSeconds != 3 {
		t.Fatalf("unexpected closed events %+v", closed)
	}
}
