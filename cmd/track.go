package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/tomb.v2"

	"github.com/xvierd/speaking-eye/internal/adapters/desktop"
	"github.com/xvierd/speaking-eye/internal/adapters/filestore"
	"github.com/xvierd/speaking-eye/internal/adapters/notification"
	"github.com/xvierd/speaking-eye/internal/adapters/postgres"
	"github.com/xvierd/speaking-eye/internal/adapters/tui"
	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/ports"
	"github.com/xvierd/speaking-eye/internal/services"
)

var trackWorkTime bool

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Track the active window until interrupted",
	Long: `Track the active window and the screen lock, writing every activity to
today's raw data file. Reminders are shown for overtime, breaks and
distracting applications.

Signals:
  SIGINT, SIGTERM  stop tracking and print the day summary
  SIGUSR1          toggle work time
  SIGUSR2          lock the screen to take a break`,
	Args: cobra.NoArgs,
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().BoolVarP(&trackWorkTime, "work", "w", false, "Start in work time")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg := app.config
	logger := app.logger

	writer := filestore.NewWriter(app.files, logger)
	if app.index != nil {
		writer.AddMirror(app.index)
	}
	if cfg.Storage.PostgresDSN != "" {
		mirror, err := postgres.NewMirror(context.Background(), cfg.Storage.PostgresDSN, logger)
		if err != nil {
			logger.Warnf("PostgreSQL mirror disabled: %v", err)
		} else {
			defer mirror.Close()
			writer.AddMirror(mirror)
		}
	}

	watcher, err := desktop.NewWindowWatcher(cfg.Watcher.Backend, time.Duration(cfg.Watcher.PollInterval), logger)
	if err != nil {
		return fmt.Errorf("failed to start window watcher: %w", err)
	}
	defer watcher.Close()

	limits := services.Limits{
		WorkTime:         cfg.TimeLimits.WorkTimeLimit(),
		BreaksInterval:   cfg.TimeLimits.BreaksInterval(),
		Distracting:      cfg.TimeLimits.DistractingLimit(),
		ReminderInterval: time.Duration(cfg.TimeLimits.ReminderInterval),
	}
	tracker := services.NewTrackerService(writer, app.reader, app.matcher, notification.New(&cfg.Notifications), limits, logger)

	var locker ports.ScreenLocker
	if saver, err := desktop.NewScreenSaver(logger); err != nil {
		logger.Warnf("Screen lock tracking disabled: %v", err)
	} else {
		defer saver.Close()
		locker = saver
		tracker.SetLocker(saver)
	}

	if err := tracker.Start(context.Background(), time.Now(), trackWorkTime); err != nil {
		return err
	}
	logger.Infof("Tracking started, raw data in %s", app.files.Dir())

	windows := make(chan ports.WindowEvent, 16)
	locks := make(chan ports.LockEvent, 4)
	toggles := make(chan struct{}, 1)
	breaks := make(chan struct{}, 1)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	t, ctx := tomb.WithContext(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigs)

	t.Go(func() error {
		for {
			select {
			case s := <-sigs:
				switch s {
				case syscall.SIGUSR1:
					send(toggles)
				case syscall.SIGUSR2:
					send(breaks)
				default:
					logger.Debugf("Received %s, stopping", s)
					t.Kill(nil)
					return nil
				}
			case <-t.Dying():
				return nil
			}
		}
	})

	t.Go(func() error {
		return watcher.Watch(ctx, windows)
	})

	if locker != nil {
		t.Go(func() error {
			if err := locker.Watch(ctx, locks); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warnf("Screen lock tracking stopped: %v", err)
			}
			return nil
		})
	}

	t.Go(func() error {
		return tracker.Run(ctx, services.TrackerEvents{
			Windows: windows,
			Locks:   locks,
			Toggles: toggles,
			Breaks:  breaks,
			Ticks:   ticker.C,
		}, time.Now)
	})

	runErr := t.Wait()
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	rawPath := writer.CurrentPath()
	summary, err := tracker.Stop(context.Background(), time.Now())
	if err != nil {
		logger.Errorf("Failed to save the last activity: %v", err)
	}
	if summary != nil {
		printSummary(cmd, summary, rawPath)
	}
	return runErr
}

// send delivers a signal without blocking when one is already pending.
func send(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func printSummary(cmd *cobra.Command, summary *services.Summary, rawPath string) {
	day := domain.DateOf(summary.Started)
	report := &domain.DayReport{From: day, To: day}
	for _, stat := range summary.Stats {
		report.Rows = append(report.Rows, domain.TitleReport{
			Title:    stat.Title,
			WorkTime: stat.WorkTime,
			OffTime:  stat.OffTime,
		})
		report.TotalWorkTime += stat.WorkTime
		report.TotalOffTime += stat.OffTime
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprint(out, tui.RenderReport(report, &app.config.Theme))
	fmt.Fprintf(out, "\nStart time: %s, finish time: %s, session: %s\n",
		summary.Started.Format(time.TimeOnly),
		summary.Finished.Format(time.TimeOnly),
		domain.FormatDuration(summary.Worked))
	if rawPath != "" {
		fmt.Fprintf(out, "Raw data: %s\n", rawPath)
	}
}
