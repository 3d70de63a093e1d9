package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"studypact/internal/modules/challenge/domain"
	"studypact/internal/modules/challenge/dto"
	challengein "studypact/internal/modules/challenge/port/in"
	challengeout "studypact/internal/modules/challenge/port/out"
	"studypact/internal/modules/challenge/service"
	apperrors "studypact/internal/platform/errors"
	"studypact/internal/platform/identity"
)

const BadgeChallenger = "challenger"

// Interactor serializes every read-reconcile-write of the user's record
// behind one mutex, so a failure is charged once per process.
type Interactor struct {
	svc       *service.ChallengeService
	identity  identity.Provider
	catalog   challengeout.TemplateCatalog
	store     challengeout.ChallengeStore
	wallet    challengeout.WalletPort
	studyTime challengeout.StudyTimePort
	log       hclog.Logger

	mu sync.Mutex
}

func NewInteractor(
	svc *service.ChallengeService,
	ident identity.Provider,
	catalog challengeout.TemplateCatalog,
	store challengeout.ChallengeStore,
	wallet challengeout.WalletPort,
	studyTime challengeout.StudyTimePort,
	logger hclog.Logger,
) challengein.Usecase {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Interactor{
		svc:       svc,
		identity:  ident,
		catalog:   catalog,
		store:     store,
		wallet:    wallet,
		studyTime: studyTime,
		log:       logger,
	}
}

func (i *Interactor) user() (string, error) {
	userID, ok := i.identity.CurrentUserID()
	if !ok {
		return "", apperrors.ErrNoUser
	}
	return userID, nil
}

func (i *Interactor) ListTemplates(ctx context.Context) ([]dto.TemplateOutput, error) {
	templates, err := i.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	out := make([]dto.TemplateOutput, 0, len(templates))
	for _, t := range templates {
		out = append(out, service.TemplateView(t))
	}
	return out, nil
}

func (i *Interactor) GetTemplate(ctx context.Context, templateID string) (dto.TemplateOutput, error) {
	t, err := i.catalog.Get(ctx, strings.TrimSpace(templateID))
	if err != nil {
		return dto.TemplateOutput{}, fmt.Errorf("get template: %w", err)
	}
	return service.TemplateView(t), nil
}

func (i *Interactor) Start(ctx context.Context, templateID string) (dto.StatusOutput, error) {
	userID, err := i.user()
	if err != nil {
		return dto.StatusOutput{}, err
	}
	tmpl, err := i.catalog.Get(ctx, strings.TrimSpace(templateID))
	if err != nil {
		return dto.StatusOutput{}, fmt.Errorf("start challenge: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return dto.StatusOutput{}, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	current, found, _, err := i.observeLocked(ctx, userID)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	now := i.svc.Now()
	if found {
		switch current.Status {
		case domain.StatusActive:
			return dto.StatusOutput{}, fmt.Errorf("%w: %s is still running", apperrors.ErrAlreadyActive, current.TemplateID)
		case domain.StatusFailed:
			if remaining, banned := current.Banned(now); banned {
				return dto.StatusOutput{}, &apperrors.BanError{Until: *current.BanUntil, Remaining: remaining}
			}
		}
	}

	if tmpl.EntryFee > 0 {
		msg := fmt.Sprintf("Entry fee of %d paid for %s.", tmpl.EntryFee, titleOf(tmpl))
		if err := i.wallet.Charge(ctx, tmpl.EntryFee, "challenge entry: "+tmpl.ID, msg); err != nil {
			return dto.StatusOutput{}, fmt.Errorf("charge entry fee: %w", err)
		}
	}
	record := domain.New(userID, tmpl, now)
	if err := i.store.Save(ctx, record); err != nil {
		if tmpl.EntryFee > 0 {
			if rerr := i.wallet.Refund(ctx, tmpl.EntryFee, "challenge entry refunded: "+tmpl.ID, ""); rerr != nil {
				i.log.Error("refund entry fee after failed save", "template", tmpl.ID, "error", rerr)
			}
		}
		return dto.StatusOutput{}, fmt.Errorf("save challenge: %w", err)
	}
	i.log.Info("challenge started", "user", userID, "template", tmpl.ID, "days", tmpl.DurationDays)
	return i.svc.View(record, now), nil
}

func (i *Interactor) Status(ctx context.Context) (dto.StatusOutput, error) {
	userID, err := i.user()
	if err != nil {
		return dto.StatusOutput{}, err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	record, found, obs, err := i.observeLocked(ctx, userID)
	if err != nil || !found {
		return dto.StatusOutput{}, err
	}
	return i.view(record, obs), nil
}

func (i *Interactor) SyncStudyTime(ctx context.Context) (dto.StatusOutput, error) {
	if i.studyTime == nil {
		return i.Status(ctx)
	}
	total, err := i.studyTime.TodayTotal(ctx)
	if err != nil {
		return dto.StatusOutput{}, fmt.Errorf("read today total: %w", err)
	}
	return i.updateActive(ctx, func(c *domain.ActiveChallenge, day int) (bool, error) {
		return c.UpdateGoal(day, domain.GoalStudyTime, total), nil
	})
}

func (i *Interactor) ObserveStudyTime(ctx context.Context, userID string, total int64) {
	current, err := i.user()
	if err != nil || current != userID {
		return
	}
	_, err = i.updateActive(ctx, func(c *domain.ActiveChallenge, day int) (bool, error) {
		return c.UpdateGoal(day, domain.GoalStudyTime, total), nil
	})
	if err != nil && !errors.Is(err, apperrors.ErrNoActiveChallenge) && !errors.Is(err, apperrors.ErrChallengeClosed) {
		i.log.Warn("study time not recorded on challenge", "error", err)
	}
}

func (i *Interactor) RecordFocusSession(ctx context.Context) (dto.StatusOutput, error) {
	return i.updateActive(ctx, func(c *domain.ActiveChallenge, day int) (bool, error) {
		next := c.GoalProgress(day, domain.GoalFocusSessions).Current + 1
		return c.UpdateGoal(day, domain.GoalFocusSessions, next), nil
	})
}

func (i *Interactor) RecordProgress(ctx context.Context, goalID string, value int64) (dto.StatusOutput, error) {
	goalID = strings.TrimSpace(goalID)
	if goalID == domain.GoalCheckIn {
		return dto.StatusOutput{}, fmt.Errorf("%w: %s is satisfied by checking in", apperrors.ErrInvalidInput, goalID)
	}
	if value < 0 {
		return dto.StatusOutput{}, fmt.Errorf("%w: progress must be non-negative", apperrors.ErrInvalidInput)
	}
	return i.updateActive(ctx, func(c *domain.ActiveChallenge, day int) (bool, error) {
		if _, ok := c.Template.Goal(goalID); !ok {
			return false, fmt.Errorf("%w: %s has no goal %q", apperrors.ErrInvalidInput, c.TemplateID, goalID)
		}
		return c.UpdateGoal(day, goalID, value), nil
	})
}

// updateActive applies fn to today's progress of the active record and
// saves it when fn reports a change.
func (i *Interactor) updateActive(ctx context.Context, fn func(c *domain.ActiveChallenge, day int) (bool, error)) (dto.StatusOutput, error) {
	userID, err := i.user()
	if err != nil {
		return dto.StatusOutput{}, err
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	record, found, obs, err := i.observeLocked(ctx, userID)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	if !found {
		return dto.StatusOutput{}, apperrors.ErrNoActiveChallenge
	}
	if record.Status != domain.StatusActive {
		return i.view(record, obs), fmt.Errorf("%w: status %s", apperrors.ErrChallengeClosed, record.Status)
	}
	now := i.svc.Now()
	day := record.CurrentDay(i.svc.Calendar(), now)
	changed, err := fn(&record, day)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	if changed {
		if err := i.store.Save(ctx, record); err != nil {
			return dto.StatusOutput{}, fmt.Errorf("save challenge progress: %w", err)
		}
	}
	return i.svc.View(record, now), nil
}

func (i *Interactor) CheckIn(ctx context.Context) (dto.CheckInOutput, error) {
	userID, err := i.user()
	if err != nil {
		return dto.CheckInOutput{}, err
	}
	var total int64
	haveTotal := false
	if i.studyTime != nil {
		if total, err = i.studyTime.TodayTotal(ctx); err != nil {
			return dto.CheckInOutput{}, fmt.Errorf("read today total: %w", err)
		}
		haveTotal = true
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	record, found, obs, err := i.observeLocked(ctx, userID)
	if err != nil {
		return dto.CheckInOutput{}, err
	}
	if !found {
		return dto.CheckInOutput{}, apperrors.ErrNoActiveChallenge
	}
	if obs.windowClosed {
		return dto.CheckInOutput{Status: i.view(record, obs)}, fmt.Errorf("%w: %s: %w", apperrors.ErrWindowClosed, obs.reason, apperrors.ErrChallengeClosed)
	}
	if record.Status != domain.StatusActive {
		return dto.CheckInOutput{Status: i.view(record, obs)}, fmt.Errorf("%w: status %s", apperrors.ErrChallengeClosed, record.Status)
	}

	now := i.svc.Now()
	day := record.CurrentDay(i.svc.Calendar(), now)
	if record.CheckedIn(day) {
		return dto.CheckInOutput{Day: day, AlreadyCheckedIn: true, Status: i.svc.View(record, now)}, nil
	}
	if haveTotal && record.UpdateGoal(day, domain.GoalStudyTime, total) {
		if err := i.store.Save(ctx, record); err != nil {
			return dto.CheckInOutput{}, fmt.Errorf("save challenge progress: %w", err)
		}
	}
	if missing := record.MissingGoals(day); len(missing) > 0 {
		return dto.CheckInOutput{Day: day, Status: i.svc.View(record, now)},
			fmt.Errorf("%w: %s", apperrors.ErrGoalsIncomplete, strings.Join(missing, ", "))
	}
	if open, closeAt, ok := i.svc.Window(record, day); ok && (now.Before(open) || now.After(closeAt)) {
		loc := i.svc.Calendar().Location
		return dto.CheckInOutput{Day: day, Status: i.svc.View(record, now)},
			fmt.Errorf("%w: day %d opens %s until %s", apperrors.ErrWindowClosed, day, open.In(loc).Format("15:04"), closeAt.In(loc).Format("15:04"))
	}

	final := record.RecordCheckIn(day, now)
	if err := i.store.Save(ctx, record); err != nil {
		return dto.CheckInOutput{}, fmt.Errorf("save check-in: %w", err)
	}
	out := dto.CheckInOutput{Day: day, Completed: final}
	if !final {
		i.wallet.Notify(ctx, "success", fmt.Sprintf("Day %d of %d checked in.", day, record.Template.DurationDays))
		out.Status = i.svc.View(record, now)
		return out, nil
	}

	i.log.Info("challenge completed", "user", userID, "template", record.TemplateID)
	msg := fmt.Sprintf("%s completed! Entry fee refunded and %d credits rewarded.", titleOf(record.Template), record.Template.Reward)
	granted, err := i.wallet.Payout(ctx, record.Template.EntryFee, record.Template.Reward, BadgeChallenger, msg)
	if err != nil {
		return dto.CheckInOutput{}, fmt.Errorf("pay out challenge: %w", err)
	}
	out.Refund = record.Template.EntryFee
	out.Reward = record.Template.Reward
	out.BadgeGranted = granted
	out.Status = i.svc.View(record, now)
	return out, nil
}

func (i *Interactor) Forfeit(ctx context.Context) (dto.StatusOutput, error) {
	userID, err := i.user()
	if err != nil {
		return dto.StatusOutput{}, err
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	record, found, obs, err := i.observeLocked(ctx, userID)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	if !found {
		return dto.StatusOutput{}, apperrors.ErrNoActiveChallenge
	}
	if record.Status != domain.StatusActive {
		return i.view(record, obs), fmt.Errorf("%w: status %s", apperrors.ErrChallengeClosed, record.Status)
	}
	applied, err := i.failLocked(ctx, &record, "forfeited")
	if err != nil {
		return dto.StatusOutput{}, err
	}
	return i.view(record, transition{failed: true, penalty: applied}), nil
}

func (i *Interactor) LiftBan(ctx context.Context) (dto.LiftBanOutput, error) {
	userID, err := i.user()
	if err != nil {
		return dto.LiftBanOutput{}, err
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	record, found, _, err := i.observeLocked(ctx, userID)
	if err != nil {
		return dto.LiftBanOutput{}, err
	}
	if !found {
		return dto.LiftBanOutput{}, apperrors.ErrNoActiveChallenge
	}
	if record.Status != domain.StatusFailed {
		return dto.LiftBanOutput{}, fmt.Errorf("%w: status %s", apperrors.ErrNotFailed, record.Status)
	}

	out := dto.LiftBanOutput{TemplateID: record.TemplateID}
	if _, banned := record.Banned(i.svc.Now()); banned {
		out.Cost = i.svc.Policy().BanLiftCost
	}
	if out.Cost > 0 {
		if err := i.wallet.Charge(ctx, out.Cost, "challenge ban lifted: "+record.TemplateID, fmt.Sprintf("Ban lifted for %d credits.", out.Cost)); err != nil {
			return dto.LiftBanOutput{}, fmt.Errorf("charge ban lift: %w", err)
		}
	}
	if err := i.store.Delete(ctx, userID); err != nil {
		if out.Cost > 0 {
			if rerr := i.wallet.Refund(ctx, out.Cost, "ban lift refunded: "+record.TemplateID, ""); rerr != nil {
				i.log.Error("refund ban lift after failed delete", "error", rerr)
			}
		}
		return dto.LiftBanOutput{}, fmt.Errorf("delete challenge: %w", err)
	}
	i.log.Info("challenge ban lifted", "user", userID, "template", record.TemplateID, "cost", out.Cost)
	return out, nil
}

func (i *Interactor) Watch(ctx context.Context, fn func(dto.StatusOutput)) (func(), error) {
	userID, err := i.user()
	if err != nil {
		return nil, err
	}
	return i.store.Watch(ctx, userID, func(record domain.ActiveChallenge, deleted bool) {
		if deleted {
			fn(dto.StatusOutput{})
			return
		}
		fn(i.svc.View(record, i.svc.Now()))
	})
}

// transition describes a failure made by the current observation.
type transition struct {
	failed       bool
	windowClosed bool
	reason       string
	penalty      int64
}

// observeLocked loads the record and fails it when the calendar says it has
// already failed.
func (i *Interactor) observeLocked(ctx context.Context, userID string) (domain.ActiveChallenge, bool, transition, error) {
	record, err := i.store.Load(ctx, userID)
	if errors.Is(err, apperrors.ErrNoActiveChallenge) {
		return domain.ActiveChallenge{}, false, transition{}, nil
	}
	if err != nil {
		return domain.ActiveChallenge{}, false, transition{}, fmt.Errorf("load challenge: %w", err)
	}
	failure := i.svc.Reconcile(record, i.svc.Now())
	if !failure.Failed() {
		return record, true, transition{}, nil
	}
	applied, err := i.failLocked(ctx, &record, failure.Reason)
	if err != nil {
		return domain.ActiveChallenge{}, false, transition{}, err
	}
	return record, true, transition{failed: true, windowClosed: failure.WindowClosed, reason: failure.Reason, penalty: applied}, nil
}

// failLocked persists the failed status with the penalty flag set and only
// then charges the forfeiture, so a crash after the save never charges twice.
func (i *Interactor) failLocked(ctx context.Context, record *domain.ActiveChallenge, reason string) (int64, error) {
	now := i.svc.Now()
	policy := i.svc.Policy()
	record.Fail(now, reason, policy.BanDuration)
	record.PenaltyApplied = true
	if err := i.store.Save(ctx, *record); err != nil {
		return 0, fmt.Errorf("save failed challenge: %w", err)
	}
	i.log.Info("challenge failed", "user", record.UserID, "template", record.TemplateID, "reason", reason)

	msg := fmt.Sprintf("%s failed: %s. %d credits forfeited, new challenges locked until %s.",
		titleOf(record.Template), reason, policy.ForfeitPenalty, record.BanUntil.In(i.svc.Calendar().Location).Format(time.DateTime))
	applied, err := i.wallet.Penalize(ctx, policy.ForfeitPenalty, "challenge failed: "+record.TemplateID, msg)
	if err != nil {
		i.log.Error("forfeiture penalty not applied", "template", record.TemplateID, "error", err)
		return 0, nil
	}
	return applied, nil
}

func (i *Interactor) view(record domain.ActiveChallenge, t transition) dto.StatusOutput {
	out := i.svc.View(record, i.svc.Now())
	out.Failed = t.failed
	out.Penalty = t.penalty
	return out
}

func titleOf(t domain.Template) string {
	if t.Title != "" {
		return t.Title
	}
	return t.ID
}
