package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	hclog "github.com/hashicorp/go-hclog"

	challengeinadapter "studypact/internal/modules/challenge/adapter/in"
	challengeoutadapter "studypact/internal/modules/challenge/adapter/out"
	challengein "studypact/internal/modules/challenge/port/in"
	challengeservice "studypact/internal/modules/challenge/service"
	challengeusecase "studypact/internal/modules/challenge/usecase"
	sessioninadapter "studypact/internal/modules/session/adapter/in"
	sessionoutadapter "studypact/internal/modules/session/adapter/out"
	sessiondto "studypact/internal/modules/session/dto"
	sessionin "studypact/internal/modules/session/port/in"
	sessionservice "studypact/internal/modules/session/service"
	sessionusecase "studypact/internal/modules/session/usecase"
	ledgerinadapter "studypact/internal/modules/timeledger/adapter/in"
	ledgeroutadapter "studypact/internal/modules/timeledger/adapter/out"
	ledgerservice "studypact/internal/modules/timeledger/service"
	ledgerusecase "studypact/internal/modules/timeledger/usecase"
	walletinadapter "studypact/internal/modules/wallet/adapter/in"
	walletoutadapter "studypact/internal/modules/wallet/adapter/out"
	walletout "studypact/internal/modules/wallet/port/out"
	walletservice "studypact/internal/modules/wallet/service"
	walletusecase "studypact/internal/modules/wallet/usecase"
	"studypact/internal/platform/clock"
	"studypact/internal/platform/config"
	"studypact/internal/platform/docstore"
	apperrors "studypact/internal/platform/errors"
	"studypact/internal/platform/id"
	"studypact/internal/platform/identity"
	"studypact/internal/platform/logging"
	"studypact/internal/platform/sqlitedb"
	"studypact/internal/platform/tx"
)

type App struct {
	Config config.Config
	Log    hclog.Logger
	Env    *sessioninadapter.Environment

	SessionCLI   sessioninadapter.CLIHandler
	LedgerCLI    ledgerinadapter.CLIHandler
	WalletCLI    walletinadapter.CLIHandler
	ChallengeCLI challengeinadapter.CLIHandler

	closers []func()
}

// New wires every module for cfg. Notices are printed to out; logs go to
// logs at cfg.LogLevel, or stderr when logs is nil.
func New(ctx context.Context, cfg config.Config, out, logs io.Writer) (*App, error) {
	if logs == nil {
		logs = os.Stderr
	}
	logger := logging.New(cfg.LogLevel, logs)
	app := &App{Config: cfg, Log: logger, Env: sessioninadapter.NewEnvironment()}
	if err := app.wire(ctx, out); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context, out io.Writer) error {
	cfg := a.Config
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clk := clock.SystemClock{}
	cal := clock.NewCalendar(loc)
	ids := id.UUID{}
	ident := identity.Static(cfg.User)

	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	a.onClose(func() { _ = db.Close() })

	docs, err := a.openDocStore(ctx)
	if err != nil {
		return err
	}

	ledger, txm, err := a.openWalletLedger(ctx, db)
	if err != nil {
		return err
	}
	notifier, err := a.openNotifier(out)
	if err != nil {
		return err
	}
	walletUC := walletusecase.NewInteractor(
		walletservice.NewDispatcherService(clk, ids, ledger, notifier, txm, a.Log.Named("wallet")),
		ident,
	)

	buckets, err := ledgeroutadapter.NewSQLiteBucketStore(db)
	if err != nil {
		return fmt.Errorf("new bucket store: %w", err)
	}
	ledgerUC := ledgerusecase.NewInteractor(ledgerservice.NewLedgerService(
		clk,
		cal,
		ids,
		buckets,
		ledgeroutadapter.NewFileHistoryStore(cfg.DataPath),
		ledgeroutadapter.NewVaultDayNoteWriter(cfg.HomePath),
		a.Log.Named("ledger"),
	), ident)

	sessionUC := sessionusecase.NewInteractor(
		sessionservice.NewSessionService(clk, ids, sessionoutadapter.NewVaultSessionStore(cfg.HomePath), sessionservice.Defaults{
			Duration: cfg.Focus.Duration.Std(),
			Penalty:  cfg.Focus.Penalty,
			Reward:   cfg.Focus.Reward,
			Subject:  cfg.Focus.Subject,
		}, a.Log.Named("session")),
		ident,
		sessionoutadapter.NewDocActiveSessionStore(docs),
		sessionoutadapter.NewWalletAdapter(walletUC),
		sessionoutadapter.NewLedgerAdapter(ledgerUC),
		a.Log.Named("session"),
	)

	challengeUC := challengeusecase.NewInteractor(
		challengeservice.NewChallengeService(clk, cal, challengeservice.Policy{
			ForfeitPenalty: cfg.Challenge.ForfeitPenalty,
			BanLiftCost:    cfg.Challenge.BanLiftCost,
			BanDuration:    cfg.Challenge.BanDuration.Std(),
			CheckInGrace:   cfg.Challenge.CheckInGrace.Std(),
		}),
		ident,
		challengeoutadapter.NewFileTemplateCatalog(cfg.Challenge.Templates),
		challengeoutadapter.NewDocChallengeStore(docs),
		challengeoutadapter.NewWalletAdapter(walletUC),
		challengeoutadapter.NewStudyTimeAdapter(ledgerUC),
		a.Log.Named("challenge"),
	)

	ledgerUC.OnTodayTotalChanged(challengeUC.ObserveStudyTime)
	a.onClose(sessionUC.Subscribe(focusSessionFeed(challengeUC, a.Log)))

	a.SessionCLI = sessioninadapter.NewCLIHandler(sessionUC)
	a.LedgerCLI = ledgerinadapter.NewCLIHandler(ledgerUC)
	a.WalletCLI = walletinadapter.NewCLIHandler(walletUC)
	a.ChallengeCLI = challengeinadapter.NewCLIHandler(challengeUC)
	return nil
}

// focusSessionFeed counts every completed focus session toward the
// challenge's focusSessions goal.
func focusSessionFeed(challenge challengein.Usecase, logger hclog.Logger) sessionin.Observer {
	return func(ctx context.Context, event sessiondto.EventOutput) {
		if event.Type != "closed" || event.Kind != "focus" || event.Status != "completed" {
			return
		}
		if _, err := challenge.RecordFocusSession(ctx); err != nil &&
			!errors.Is(err, apperrors.ErrNoActiveChallenge) && !errors.Is(err, apperrors.ErrChallengeClosed) {
			logger.Warn("focus session not recorded on challenge", "session", event.SessionID, "error", err)
		}
	}
}

func (a *App) openDocStore(ctx context.Context) (docstore.Store, error) {
	cfg := a.Config
	switch cfg.Store.Backend {
	case "redis":
		client, err := docstore.DialRedis(ctx, cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.onClose(func() { _ = client.Close() })
		return docstore.NewRedisStore(client, "studypact"), nil
	default:
		return docstore.NewFileStore(filepath.Join(cfg.DataPath, "docs")), nil
	}
}

func (a *App) openWalletLedger(ctx context.Context, db *sql.DB) (walletout.Ledger, tx.Manager, error) {
	cfg := a.Config
	switch cfg.Wallet.Backend {
	case "postgres":
		pool, err := walletoutadapter.DialPostgres(ctx, cfg.Wallet.Postgres.DSN())
		if err != nil {
			return nil, nil, err
		}
		ledger, err := walletoutadapter.NewPostgresLedger(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		a.onClose(ledger.Close)
		return ledger, ledger, nil
	default:
		txm := tx.NewSQLManager(db)
		ledger, err := walletoutadapter.NewSQLiteLedger(db, txm)
		if err != nil {
			return nil, nil, fmt.Errorf("new wallet ledger: %w", err)
		}
		return ledger, txm, nil
	}
}

func (a *App) openNotifier(out io.Writer) (walletout.Notifier, error) {
	cfg := a.Config
	var sinks walletoutadapter.MultiNotifier
	if cfg.Notify.Console != nil && *cfg.Notify.Console && out != nil {
		sinks = append(sinks, walletoutadapter.NewConsoleNotifier(out))
	}
	if cfg.Notify.DiscordWebhook != "" {
		discord, err := walletoutadapter.NewDiscordNotifier(cfg.Notify.DiscordWebhook)
		if err != nil {
			return nil, fmt.Errorf("discord notifier: %w", err)
		}
		sinks = append(sinks, discord)
	}
	async := walletoutadapter.NewAsyncNotifier(sinks, cfg.Notify.QueueSize, a.Log.Named("notify"))
	a.onClose(async.Close)
	return async, nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// WatchEnvironment binds OS signals, and logind when enabled, to focus
// abandonment. report receives every abandonment that charged a penalty.
func (a *App) WatchEnvironment(ctx context.Context, report func(sessiondto.AbandonOutput)) {
	sessioninadapter.BindFocus(ctx, a.Env, a.SessionCLI.Usecase(), a.Log.Named("environment"), report)
	a.onClose(sessioninadapter.WatchSignals(ctx, a.Env, func(sig os.Signal) {
		a.Log.Info("signal received", "signal", sig.String())
	}))
	if !a.Config.Signals.DBus {
		return
	}
	watcher, err := sessioninadapter.NewDBusWatcher(a.Env, a.Log.Named("dbus"))
	if err != nil {
		a.Log.Warn("logind watcher disabled", "error", err)
		return
	}
	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := watcher.Run(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.Log.Warn("logind watcher stopped", "error", err)
		}
	}()
	a.onClose(func() {
		cancel()
		<-done
	})
}

// Recover settles a focus session left behind by a process that died.
func (a *App) Recover(ctx context.Context) (sessiondto.AbandonOutput, error) {
	return a.SessionCLI.Recover(ctx)
}
