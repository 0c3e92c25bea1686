package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"focusbuddy/internal/app"
	challengedomain "focusbuddy/internal/challenge/domain"
	challengesvc "focusbuddy/internal/challenge/service"
	sessiondomain "focusbuddy/internal/session/domain"
	sessionsvc "focusbuddy/internal/session/service"
	shopsvc "focusbuddy/internal/shop/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "focusbuddy",
		Short:         "FocusBuddy study session tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newLoginCmd())
	root.AddCommand(newRegisterCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newWhoamiCmd())
	root.AddCommand(newSessionCmd())
	root.AddCommand(newShopCmd())
	root.AddCommand(newChallengesCmd())
	root.AddCommand(newMilestonesCmd())
	root.AddCommand(newBlockCmd())
	root.AddCommand(newCoinsCmd())
	root.AddCommand(newFocusCmd())
	return root
}

// requireUser makes sure a signed-in user is cached before commands that
// address per-user endpoints run.
func requireUser(ctx context.Context, a *app.App) error {
	if !a.Auth.CheckAuth(ctx) {
		return errors.New("not signed in, run 'focusbuddy login'")
	}
	if a.State.CurrentUser() != nil {
		return nil
	}
	return a.Auth.FetchUser(ctx)
}

func promptSecret(cmd *cobra.Command, label string) (string, error) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ", label)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newLoginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and store the access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if password == "" {
				if password, err = promptSecret(cmd, "password"); err != nil {
					return err
				}
			}
			if err := a.Auth.Login(cmd.Context(), args[0], password); err != nil {
				return err
			}
			if u := a.State.CurrentUser(); u != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%d coins)\n", u.Email, u.Coins)
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed in")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var name, password string
	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account, then sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if password == "" {
				if password, err = promptSecret(cmd, "password"); err != nil {
					return err
				}
			}
			if err := a.Auth.Register(cmd.Context(), name, args[0], password); err != nil {
				return err
			}
			if err := a.Auth.Login(cmd.Context(), args[0], password); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "account created and signed in")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := requireUser(cmd.Context(), a); err != nil {
				return err
			}
			u := a.State.CurrentUser()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\ncoins: %d\nday streak: %d (longest %d)\ntotal focus: %dm (today %dm)\n",
				u.Name, u.Email, u.Coins, u.DayStreak, u.LongestStreak, u.TotalFocusTime, u.TodayFocusTime)
			return nil
		},
	}
}

// parseTasks turns name:minutes pairs into session tasks.
func parseTasks(specs []string) ([]sessiondomain.Task, error) {
	var tasks []sessiondomain.Task
	for _, spec := range specs {
		name, minutes, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("task %q must be name:minutes", spec)
		}
		d, err := strconv.Atoi(minutes)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("task %q has a bad duration", spec)
		}
		tasks = append(tasks, sessiondomain.Task{Name: name, Duration: d})
	}
	return tasks, nil
}

func newSessionCmd() *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Run and manage study sessions"}

	var taskSpecs []string
	var planned int
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start a session and keep it alive until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := requireUser(ctx, a); err != nil {
				return err
			}
			tasks, err := parseTasks(taskSpecs)
			if err != nil {
				return err
			}

			s, err := a.Sessions.Start(ctx, tasks, planned)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session %s started for %dm, press Ctrl+C to detach\n", s.ID, planned)

			if addr := a.Config.MetricsAddr; addr != "" {
				go func() {
					if err := http.ListenAndServe(addr, a.Metrics.Handler()); err != nil {
						a.Log.Warn("metrics listener stopped", "error", err)
					}
				}()
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			<-quit

			// Detach without completing. The server auto-pauses once
			// heartbeats stop, and 'session resume' picks it back up.
			a.Sessions.Close()
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "detached, session will auto-pause server-side")
			return nil
		},
	}
	startCmd.Flags().StringSliceVar(&taskSpecs, "task", nil, "task as name:minutes (repeatable)")
	startCmd.Flags().IntVar(&planned, "planned", 25, "planned duration in minutes")

	// adopt restores the last unfinished session so a follow-up command
	// in a fresh process can act on it.
	adopt := func(ctx context.Context, a *app.App) error {
		if err := requireUser(ctx, a); err != nil {
			return err
		}
		found, err := a.Sessions.Restore(ctx)
		if err != nil {
			return err
		}
		if !found {
			return errors.New("no study session in progress")
		}
		return nil
	}

	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := adopt(cmd.Context(), a); err != nil {
				return err
			}
			if err := a.Sessions.Pause(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "session paused")
			return nil
		},
	}

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused session and keep it alive until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := adopt(ctx, a); err != nil {
				return err
			}
			// A restored session may already be running, which is fine.
			if err := a.Sessions.Resume(ctx); err != nil && !errors.Is(err, sessionsvc.ErrNotPaused) {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "session running, press Ctrl+C to detach")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			<-quit
			a.Sessions.Close()
			return nil
		},
	}

	var duration, distractions int
	var notes string
	completeCmd := &cobra.Command{
		Use:   "complete",
		Short: "Complete the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := adopt(cmd.Context(), a); err != nil {
				return err
			}
			if err := a.Sessions.Complete(cmd.Context(), duration, distractions, notes); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "session completed (%dm focused)\n", duration)
			if u := a.State.CurrentUser(); u != nil {
				_, _ = fmt.Fprintf(out, "coins: %d, day streak: %d\n", u.Coins, u.DayStreak)
			}
			return nil
		},
	}
	completeCmd.Flags().IntVar(&duration, "duration", 0, "actual focused minutes")
	completeCmd.Flags().IntVar(&distractions, "distractions", 0, "distractions blocked")
	completeCmd.Flags().StringVar(&notes, "notes", "", "session notes")
	_ = completeCmd.MarkFlagRequired("duration")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session, if any",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := requireUser(ctx, a); err != nil {
				return err
			}
			found, err := a.Sessions.Restore(ctx)
			if err != nil {
				return err
			}
			if !found {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no session in progress")
				return nil
			}
			s := a.Sessions.Current()
			state := "running"
			if s.IsPaused {
				state = "paused"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session %s: %s, planned %dm, started %s\n",
				s.ID, state, s.PlannedDuration, s.StartTime.Format("15:04"))
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List past sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := requireUser(cmd.Context(), a); err != nil {
				return err
			}
			sessions, err := a.SessionLog.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range sessions {
				mark := "…"
				if s.Completed() {
					mark = "✓"
				}
				actual := 0
				if s.ActualDuration != nil {
					actual = *s.ActualDuration
				}
				_, _ = fmt.Fprintf(out, "%s %s  planned %dm  actual %dm\n", mark, s.StartTime.Format("2006-01-02 15:04"), s.PlannedDuration, actual)
			}
			return nil
		},
	}

	session.AddCommand(startCmd, pauseCmd, resumeCmd, completeCmd, statusCmd, listCmd)
	return session
}

func newShopCmd() *cobra.Command {
	shop := &cobra.Command{Use: "shop", Short: "Browse and buy coin-shop items"}

	var category string
	var featured bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List shop items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			filter := shopsvc.ListFilter{Category: category}
			if cmd.Flags().Changed("featured") {
				filter.IsFeatured = &featured
			}
			items, err := a.Shop.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, item := range items {
				_, _ = fmt.Fprintf(out, "%-26s %5d coins  %s\n", item.ID, item.Price, item.Title)
			}
			return nil
		},
	}
	listCmd.Flags().StringVar(&category, "category", "", "filter by category")
	listCmd.Flags().BoolVar(&featured, "featured", false, "only featured items")

	buyCmd := &cobra.Command{
		Use:   "buy <item-id>",
		Short: "Buy an item with coins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := requireUser(cmd.Context(), a); err != nil {
				return err
			}
			if err := a.Users.PurchaseItem(cmd.Context(), args[0]); err != nil {
				return err
			}
			if u := a.State.CurrentUser(); u != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "purchased, %d coins left\n", u.Coins)
			}
			return nil
		},
	}

	shop.AddCommand(listCmd, buyCmd)
	return shop
}

func newChallengesCmd() *cobra.Command {
	challenges := &cobra.Command{Use: "challenges", Short: "Browse coin-earning challenges"}

	var daily bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List challenges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			var (
				items []challengedomain.Challenge
				err2  error
			)
			if daily {
				items, err2 = a.Challenges.Daily(cmd.Context())
			} else {
				items, err2 = a.Challenges.List(cmd.Context(), challengesvc.ListFilter{})
			}
			if err2 != nil {
				return err2
			}
			out := cmd.OutOrStdout()
			for _, c := range items {
				_, _ = fmt.Fprintf(out, "%-26s %4d coins  goal %d  %s\n", c.ID, c.Coins, c.Goal, c.Title)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&daily, "daily", false, "only today's challenges")

	var progress int
	progressCmd := &cobra.Command{
		Use:   "progress <challenge-id>",
		Short: "Report challenge progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := requireUser(cmd.Context(), a); err != nil {
				return err
			}
			cp, err := a.Users.UpdateChallengeProgress(cmd.Context(), args[0], progress)
			if err != nil {
				return err
			}
			state := "in progress"
			if cp.IsCompleted {
				state = "completed"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d (%s)\n", cp.ChallengeID, cp.Progress, state)
			return nil
		},
	}
	progressCmd.Flags().IntVar(&progress, "value", 1, "progress value to report")

	challenges.AddCommand(listCmd, progressCmd)
	return challenges
}

func newMilestonesCmd() *cobra.Command {
	milestones := &cobra.Command{Use: "milestones", Short: "Browse and claim milestone tiers"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List milestone ladders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Milestones.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range items {
				_, _ = fmt.Fprintf(out, "%-26s %s (%d tiers, in %s)\n", m.ID, m.Title, len(m.Tiers), m.ProgressUnit)
			}
			return nil
		},
	}

	claimCmd := &cobra.Command{
		Use:   "claim <milestone-id> <tier>",
		Short: "Claim a reached tier's reward",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := requireUser(cmd.Context(), a); err != nil {
				return err
			}
			if err := a.Users.ClaimMilestoneTier(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			if u := a.State.CurrentUser(); u != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "claimed, balance %d coins\n", u.Coins)
			}
			return nil
		},
	}

	milestones.AddCommand(listCmd, claimCmd)
	return milestones
}

func newBlockCmd() *cobra.Command {
	block := &cobra.Command{Use: "block", Short: "Manage the blocked-website list"}

	addCmd := &cobra.Command{
		Use:   "add <site>",
		Short: "Block a website",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := requireUser(cmd.Context(), a); err != nil {
				return err
			}
			return a.Users.AddBlockedWebsite(cmd.Context(), args[0])
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <site>",
		Short: "Unblock a website",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := requireUser(cmd.Context(), a); err != nil {
				return err
			}
			return a.Users.RemoveBlockedWebsite(cmd.Context(), args[0])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List blocked websites",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := requireUser(cmd.Context(), a); err != nil {
				return err
			}
			for _, site := range a.State.CurrentUser().BlockedWebsites {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), site)
			}
			return nil
		},
	}

	block.AddCommand(addCmd, removeCmd, listCmd)
	return block
}

func newCoinsCmd() *cobra.Command {
	coins := &cobra.Command{Use: "coins", Short: "Coin balance operations"}

	addCmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Credit coins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.Atoi(args[0])
			if err != nil || amount <= 0 {
				return fmt.Errorf("amount must be a positive integer, got %q", args[0])
			}
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := requireUser(cmd.Context(), a); err != nil {
				return err
			}
			u, err := a.Users.AddCoins(cmd.Context(), amount)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "balance: %d coins\n", u.Coins)
			return nil
		},
	}

	coins.AddCommand(addCmd)
	return coins
}

func newFocusCmd() *cobra.Command {
	focus := &cobra.Command{Use: "focus", Short: "Focus time stats"}

	addCmd := &cobra.Command{
		Use:   "add <minutes>",
		Short: "Record focused minutes outside a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := strconv.Atoi(args[0])
			if err != nil || minutes <= 0 {
				return fmt.Errorf("minutes must be a positive integer, got %q", args[0])
			}
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := requireUser(cmd.Context(), a); err != nil {
				return err
			}
			if err := a.Users.UpdateFocusTime(cmd.Context(), minutes); err != nil {
				return err
			}
			if u := a.State.CurrentUser(); u != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "today: %dm, total: %dm\n", u.TodayFocusTime, u.TotalFocusTime)
			}
			return nil
		},
	}

	focus.AddCommand(addCmd)
	return focus
}
