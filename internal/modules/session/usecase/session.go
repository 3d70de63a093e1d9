package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"studypact/internal/modules/session/domain"
	sessiondto "studypact/internal/modules/session/dto"
	sessionin "studypact/internal/modules/session/port/in"
	sessionout "studypact/internal/modules/session/port/out"
	"studypact/internal/modules/session/service"
	apperrors "studypact/internal/platform/errors"
	"studypact/internal/platform/identity"
)

type Option func(*Interactor)

// WithTickInterval changes the real-time spacing of Run ticks. Each tick
// still consumes one second of the countdown.
func WithTickInterval(d time.Duration) Option {
	return func(i *Interactor) {
		if d > 0 {
			i.tickEvery = d
		}
	}
}

// WithStaleAfter sets how old a persisted heartbeat must be before Recover
// treats the owning process as gone.
func WithStaleAfter(d time.Duration) Option {
	return func(i *Interactor) {
		if d > 0 {
			i.staleAfter = d
		}
	}
}

// Interactor is the session controller. One instance owns at most one focus
// session and one subject timer for the current user.
type Interactor struct {
	svc         *service.SessionService
	identity    identity.Provider
	activeStore sessionout.ActiveSessionStore
	wallet      sessionout.WalletPort
	ledger      sessionout.LedgerPort
	log         hclog.Logger
	tickEvery   time.Duration
	staleAfter  time.Duration

	mu        sync.Mutex
	focus     *domain.ActiveSession
	cancelRun context.CancelFunc
	runGen    int

	timerMu sync.Mutex

	obsMu     sync.RWMutex
	observers map[int]sessionin.Observer
	nextObs   int
}

func NewInteractor(
	svc *service.SessionService,
	ident identity.Provider,
	activeStore sessionout.ActiveSessionStore,
	wallet sessionout.WalletPort,
	ledger sessionout.LedgerPort,
	logger hclog.Logger,
	opts ...Option,
) sessionin.Usecase {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	i := &Interactor{
		svc:         svc,
		identity:    ident,
		activeStore: activeStore,
		wallet:      wallet,
		ledger:      ledger,
		log:         logger,
		tickEvery:   time.Second,
		staleAfter:  15 * time.Second,
		observers:   map[int]sessionin.Observer{},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Interactor) user() (string, error) {
	userID, ok := i.identity.CurrentUserID()
	if !ok {
		return "", apperrors.ErrNoUser
	}
	return userID, nil
}

func (i *Interactor) Subscribe(fn sessionin.Observer) func() {
	i.obsMu.Lock()
	defer i.obsMu.Unlock()
	id := i.nextObs
	i.nextObs++
	i.observers[id] = fn
	return func() {
		i.obsMu.Lock()
		defer i.obsMu.Unlock()
		delete(i.observers, id)
	}
}

func (i *Interactor) publish(ctx context.Context, event domain.Event) {
	i.obsMu.RLock()
	ids := make([]int, 0, len(i.observers))
	for id := range i.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]sessionin.Observer, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, i.observers[id])
	}
	i.obsMu.RUnlock()

	out := eventOutput(event)
	for _, fn := range fns {
		fn(ctx, out)
	}
}

func eventOutput(e domain.Event) sessiondto.EventOutput {
	return sessiondto.EventOutput{
		Type:            string(e.Type),
		SessionID:       e.Session.ID,
		Kind:            string(e.Session.Kind),
		Subject:         e.Session.Subject,
		Status:          string(e.Session.Status),
		Source:          string(e.Source),
		Reason:          e.Reason,
		Message:         e.Message,
		CreditedSeconds: e.Session.CreditedSeconds,
		Penalty:         e.Session.Penalty,
		Reward:          e.Session.Reward,
		At:              e.At,
	}
}

func focusOutput(a domain.ActiveSession) sessiondto.FocusOutput {
	return sessiondto.FocusOutput{
		SessionID:      a.ID,
		Subject:        a.Subject,
		StartedAt:      a.StartedAt,
		Duration:       a.Duration,
		Remaining:      a.Remaining,
		Penalty:        a.Penalty,
		Reward:         a.Reward,
		PenaltyApplied: a.PenaltyApplied,
	}
}
