package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"studypact/internal/bootstrap"
	challengedto "studypact/internal/modules/challenge/dto"
	sessiondto "studypact/internal/modules/session/dto"
	"studypact/internal/platform/config"
	apperrors "studypact/internal/platform/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	home     string
	config   string
	user     string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	defaultHome, err := os.UserHomeDir()
	if err != nil {
		defaultHome = "."
	}

	root := &cobra.Command{
		Use:           "studypact",
		Short:         "Focus sessions, study-time ledger and timed study challenges",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.home, "home", defaultHome, "home directory holding studypact.yaml, .env and day notes")
	root.PersistentFlags().StringVar(&flags.config, "config", "", "config file path (yaml or toml)")
	root.PersistentFlags().StringVar(&flags.user, "user", "", "user id (overrides config and "+config.UserEnv+")")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace|debug|info|warn|error")

	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newFocusCmd(flags))
	root.AddCommand(newTimerCmd(flags))
	root.AddCommand(newLedgerCmd(flags))
	root.AddCommand(newChallengeCmd(flags))
	root.AddCommand(newWalletCmd(flags))
	return root
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load(flags.home, flags.config)
	if err != nil {
		return config.Config{}, err
	}
	if u := strings.TrimSpace(flags.user); u != "" {
		cfg.User = u
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, nil
}

// loadApp wires the application and settles any focus session orphaned by a
// previous process before a command runs.
func loadApp(ctx context.Context, flags *globalFlags, out io.Writer) (*bootstrap.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	app, err := bootstrap.New(ctx, cfg, out, nil)
	if err != nil {
		return nil, err
	}
	recoverOrphan(ctx, app, out)
	return app, nil
}

func recoverOrphan(ctx context.Context, app *bootstrap.App, out io.Writer) {
	rec, err := app.Recover(ctx)
	switch {
	case err != nil && !errors.Is(err, apperrors.ErrNoUser):
		app.Log.Warn("recover focus session", "error", err)
	case err == nil && rec.Penalized:
		_, _ = fmt.Fprintf(out, "previous focus session %s abandoned: -%d\n", rec.SessionID, rec.Applied)
	}
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), flags, nil)
		},
	}
}

// runTUI hands the terminal to the dashboard. Logs go to a file and wallet
// notices to the status bar. before runs once the app is wired.
func runTUI(ctx context.Context, flags *globalFlags, before func(context.Context, *bootstrap.App) error) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logFile, err := bootstrap.OpenTUILog(cfg.DataPath)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	notices := &bootstrap.NoticeWriter{}
	app, err := bootstrap.New(ctx, cfg, notices, logFile)
	if err != nil {
		return err
	}
	defer app.Close()
	recoverOrphan(ctx, app, notices)
	if before != nil {
		if err := before(ctx, app); err != nil {
			return err
		}
	}
	app.WatchEnvironment(ctx, nil)
	return bootstrap.RunTUI(ctx, app, notices)
}

func newFocusCmd(flags *globalFlags) *cobra.Command {
	focus := &cobra.Command{Use: "focus", Short: "Focus session lifecycle"}

	var minutes int
	var penalty, reward int64
	var subject string
	var noTUI bool
	start := &cobra.Command{
		Use:   "start",
		Short: "Start a focus session and count it down",
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := sessiondto.StartFocusInput{
				Subject:  subject,
				Duration: time.Duration(minutes) * time.Minute,
				Penalty:  penalty,
				Reward:   reward,
			}
			if !noTUI {
				return runTUI(cmd.Context(), flags, func(ctx context.Context, app *bootstrap.App) error {
					if _, err := app.SessionCLI.StartFocus(ctx, input); err != nil {
						return err
					}
					go func() {
						if err := app.SessionCLI.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
							app.Log.Warn("focus countdown stopped", "error", err)
						}
					}()
					return nil
				})
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			app, err := loadApp(ctx, flags, out)
			if err != nil {
				return err
			}
			defer app.Close()

			started, err := app.SessionCLI.StartFocus(ctx, input)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "focus started: %s subject=%s duration=%s penalty=%d reward=%d\n", started.SessionID, started.Subject, started.Duration, started.Penalty, started.Reward)
			_, _ = fmt.Fprintln(out, "leaving this process (ctrl+c, terminal close, screen lock) abandons the session")

			app.WatchEnvironment(ctx, func(a sessiondto.AbandonOutput) {
				_, _ = fmt.Fprintf(out, "focus abandoned (%s): -%d\n", a.Source, a.Applied)
			})
			return app.SessionCLI.Run(ctx)
		},
	}
	start.Flags().IntVar(&minutes, "minutes", 0, "session length in minutes (defaults to config)")
	start.Flags().Int64Var(&penalty, "penalty", 0, "penalty charged on abandonment (defaults to config)")
	start.Flags().Int64Var(&reward, "reward", 0, "reward paid on completion (defaults to config)")
	start.Flags().StringVar(&subject, "subject", "", "subject credited to the study-time ledger")
	start.Flags().BoolVar(&noTUI, "no-tui", false, "print the countdown result instead of opening the TUI")

	stop := &cobra.Command{
		Use:   "stop",
		Short: "Abandon the active focus session with its penalty",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.SessionCLI.Stop(ctx)
			if err != nil {
				return err
			}
			if !out.Penalized {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no active focus session")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "focus abandoned: %s -%d\n", out.SessionID, out.Applied)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the active focus session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.SessionCLI.ActiveFocus(ctx)
			if errors.Is(err, apperrors.ErrNoActiveSession) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no active focus session")
				return nil
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session=%s subject=%s remaining=%s penalty=%d reward=%d\n", out.SessionID, out.Subject, out.Remaining.Round(time.Second), out.Penalty, out.Reward)
			return nil
		},
	}

	focus.AddCommand(start, stop, status)
	return focus
}

func newTimerCmd(flags *globalFlags) *cobra.Command {
	timer := &cobra.Command{Use: "timer", Short: "Open-ended subject timers"}

	timer.AddCommand(&cobra.Command{
		Use:   "start <subject>",
		Short: "Start timing a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.SessionCLI.StartTimer(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "timer started: %s at=%s\n", out.Subject, out.StartedAt.Format(time.RFC3339))
			return nil
		},
	})

	timer.AddCommand(&cobra.Command{
		Use:   "switch <subject>",
		Short: "Stop the running timer and start another subject",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.SessionCLI.SwitchTimer(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stopped %s (+%ds), started %s\n", out.Stopped.Subject, out.Stopped.Seconds, out.Started.Subject)
			return nil
		},
	})

	timer.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the running timer and credit its time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.SessionCLI.StopTimer(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "timer stopped: %s seconds=%d credited=%t today=%ds\n", out.Subject, out.Seconds, out.Credited, out.TodayTotal)
			return nil
		},
	})

	timer.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the running timer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.SessionCLI.ActiveTimer(ctx)
			if errors.Is(err, apperrors.ErrNoActiveSession) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no timer running")
				return nil
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "timer: %s elapsed=%s\n", out.Subject, out.Elapsed.Round(time.Second))
			return nil
		},
	})
	return timer
}

func newLedgerCmd(flags *globalFlags) *cobra.Command {
	ledger := &cobra.Command{Use: "ledger", Short: "Study-time ledger"}

	ledger.AddCommand(&cobra.Command{
		Use:   "today",
		Short: "Show today's per-subject totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.LedgerCLI.Today(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "%s total=%s\n", out.Day, seconds(out.Total))
			for _, s := range out.Subjects {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", s.Subject, seconds(s.Seconds))
			}
			return nil
		},
	})

	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "List recorded study intervals, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			records, err := app.LedgerCLI.History(ctx, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no records")
				return nil
			}
			for _, r := range records {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s-%s\t%s\n", r.ID, r.Day, r.Subject, r.Start.Local().Format("15:04"), r.End.Local().Format("15:04"), seconds(r.Seconds))
			}
			return nil
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "maximum records (0 for all)")

	ledger.AddCommand(history)

	ledger.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild day buckets from the interval history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.LedgerCLI.Rebuild(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rebuild completed: records=%d buckets=%d\n", out.Records, out.Buckets)
			return nil
		},
	})

	ledger.AddCommand(&cobra.Command{
		Use:   "delete-subject <subject>",
		Short: "Remove a subject from every day bucket and the history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.LedgerCLI.DeleteSubject(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s: %s removed\n", out.Subject, seconds(out.RemovedSeconds))
			return nil
		},
	})
	return ledger
}

func newChallengeCmd(flags *globalFlags) *cobra.Command {
	challenge := &cobra.Command{Use: "challenge", Short: "Timed study challenges"}

	challenge.AddCommand(&cobra.Command{
		Use:   "templates [id]",
		Short: "List challenge templates or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				t, err := app.ChallengeCLI.Template(ctx, args[0])
				if err != nil {
					return err
				}
				printTemplate(w, t)
				return nil
			}
			templates, err := app.ChallengeCLI.Templates(ctx)
			if err != nil {
				return err
			}
			for _, t := range templates {
				_, _ = fmt.Fprintf(w, "%s\t%s\tdays=%d fee=%d reward=%d\n", t.ID, t.Title, t.DurationDays, t.EntryFee, t.Reward)
			}
			return nil
		},
	})

	challenge.AddCommand(&cobra.Command{
		Use:   "start <template>",
		Short: "Pay the entry fee and start a challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.ChallengeCLI.Start(ctx, args[0])
			var ban *apperrors.BanError
			if errors.As(err, &ban) {
				return fmt.Errorf("%w; lift it early with `studypact challenge lift-ban`", err)
			}
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), out)
			return nil
		},
	})

	challenge.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the reconciled challenge board",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.ChallengeCLI.Status(ctx)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), out)
			return nil
		},
	})

	challenge.AddCommand(&cobra.Command{
		Use:   "progress <goal> <value>",
		Short: "Report progress toward one of today's goals",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("parse value: %w", err)
			}
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.ChallengeCLI.Progress(ctx, args[0], value)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), out)
			return nil
		},
	})

	challenge.AddCommand(&cobra.Command{
		Use:   "checkin",
		Short: "Check in for today",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.ChallengeCLI.CheckIn(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch {
			case out.AlreadyCheckedIn:
				_, _ = fmt.Fprintf(w, "day %d already checked in\n", out.Day)
			case out.Completed:
				_, _ = fmt.Fprintf(w, "challenge completed on day %d: refund=%d reward=%d badge=%t\n", out.Day, out.Refund, out.Reward, out.BadgeGranted)
			default:
				_, _ = fmt.Fprintf(w, "day %d checked in\n", out.Day)
			}
			return nil
		},
	})

	challenge.AddCommand(&cobra.Command{
		Use:   "forfeit",
		Short: "Give up the active challenge with the forfeit penalty",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.ChallengeCLI.Forfeit(ctx)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), out)
			return nil
		},
	})

	challenge.AddCommand(&cobra.Command{
		Use:   "lift-ban",
		Short: "Pay to clear a failed challenge and its ban",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.ChallengeCLI.LiftBan(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ban lifted for %s: cost=%d\n", out.TemplateID, out.Cost)
			return nil
		},
	})

	challenge.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Print the board whenever another process changes it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			w := cmd.OutOrStdout()
			app, err := loadApp(ctx, flags, w)
			if err != nil {
				return err
			}
			defer app.Close()
			current, err := app.ChallengeCLI.Status(ctx)
			if err != nil {
				return err
			}
			printStatus(w, current)
			stop, err := app.ChallengeCLI.Watch(ctx, func(status challengedto.StatusOutput) {
				_, _ = fmt.Fprintln(w, "---")
				printStatus(w, status)
			})
			if err != nil {
				return err
			}
			defer stop()
			app.WatchEnvironment(ctx, nil)
			app.Env.OnBeforeDiscard(cancel)
			<-ctx.Done()
			return nil
		},
	})
	return challenge
}

func newWalletCmd(flags *globalFlags) *cobra.Command {
	wallet := &cobra.Command{Use: "wallet", Short: "Point wallet"}

	wallet.AddCommand(&cobra.Command{
		Use:   "balance",
		Short: "Show the wallet balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.WalletCLI.Balance(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", out.UserID, out.Balance)
			return nil
		},
	})

	var reason string
	deposit := &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Add points to the wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse amount: %w", err)
			}
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.WalletCLI.Deposit(ctx, amount, reason)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deposited %d, balance=%d\n", out.Amount, out.Balance)
			return nil
		},
	}
	deposit.Flags().StringVar(&reason, "reason", "deposit", "ledger reason")
	wallet.AddCommand(deposit)

	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "List wallet events, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			events, err := app.WalletCLI.History(ctx, limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no wallet events")
				return nil
			}
			for _, e := range events {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%+d\t%s\tbalance=%d\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Kind, e.Amount, e.Reason, e.Balance)
			}
			return nil
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "maximum events (0 for all)")
	wallet.AddCommand(history)

	wallet.AddCommand(&cobra.Command{
		Use:   "badges",
		Short: "List earned badges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()
			badges, err := app.WalletCLI.Badges(ctx)
			if err != nil {
				return err
			}
			if len(badges) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no badges")
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(badges, "\n"))
			return nil
		},
	})
	return wallet
}

func printTemplate(w io.Writer, t challengedto.TemplateOutput) {
	_, _ = fmt.Fprintf(w, "%s (%s)\n%s\ndays=%d fee=%d reward=%d\n", t.Title, t.ID, t.Description, t.DurationDays, t.EntryFee, t.Reward)
	if t.CheckInTime != "" {
		_, _ = fmt.Fprintf(w, "check-in at %s\n", t.CheckInTime)
	}
	for _, g := range t.Goals {
		_, _ = fmt.Fprintf(w, "  goal %s: %s (target %d)\n", g.ID, g.Description, g.Target)
	}
	for _, r := range t.Rules {
		_, _ = fmt.Fprintf(w, "  - %s\n", r)
	}
}

func printStatus(w io.Writer, s challengedto.StatusOutput) {
	if !s.Exists {
		_, _ = fmt.Fprintln(w, "no challenge")
		return
	}
	_, _ = fmt.Fprintf(w, "%s [%s] day %d/%d\n", s.Title, s.Status, s.Day, s.DurationDays)
	if s.Failed {
		_, _ = fmt.Fprintf(w, "challenge failed now: %s, penalty %d\n", s.FailureReason, s.Penalty)
	} else if s.FailureReason != "" {
		_, _ = fmt.Fprintf(w, "failed: %s\n", s.FailureReason)
	}
	if s.BanRemaining > 0 {
		_, _ = fmt.Fprintf(w, "banned for %s\n", s.BanRemaining.Round(time.Minute))
	}
	for _, g := range s.Goals {
		mark := " "
		if g.Completed {
			mark = "x"
		}
		_, _ = fmt.Fprintf(w, "  [%s] %s %d/%d\n", mark, g.ID, g.Current, g.Target)
	}
	if s.HasWindow {
		_, _ = fmt.Fprintf(w, "check-in window %s-%s\n", s.WindowOpen.Local().Format("15:04"), s.WindowClose.Local().Format("15:04"))
	}
	if s.CheckedInToday {
		_, _ = fmt.Fprintln(w, "checked in today")
	}
}

func seconds(n int64) string {
	return (time.Duration(n) * time.Second).String()
}
