package providers

import (
	"context"
	"errors"
	"time"

	"github.com/samber/do/v2"

	"github.com/timetowish/timetowish-server/internal/config"
	"github.com/timetowish/timetowish-server/internal/logger"
	"github.com/timetowish/timetowish-server/internal/reminder"
	"github.com/timetowish/timetowish-server/internal/service"
)

// ReminderSchedulerHandle wraps the daily reminder scheduler with shutdown capability.
type ReminderSchedulerHandle struct {
	*reminder.Scheduler
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *ReminderSchedulerHandle) Shutdown() error {
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(shutdownTimeout):
	}
	return nil
}

// ProvideReminderScheduler provides the daily birthday reminder sweep.
func ProvideReminderScheduler(i do.Injector) (*ReminderSchedulerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	notifier := reminder.NewLogNotifier(log.Logger)
	sweeper := reminder.NewSweeper(storeHandle.Store, notifier, log.Logger,
		reminder.WithRecordTimeout(cfg.Reminder.RecordTimeout),
		reminder.WithParallelism(cfg.Reminder.Parallelism),
	)

	scheduler, err := reminder.NewScheduler(sweeper, cfg.Reminder.SweepTime, log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Reminder scheduler stopped", "error", err)
		}
	}()

	log.Info("Reminder scheduler started", "sweep_time", cfg.Reminder.SweepTime)

	return &ReminderSchedulerHandle{
		Scheduler: scheduler,
		cancel:    cancel,
		done:      done,
	}, nil
}

// SessionCleanupJob runs periodic expired-session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	sessions := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		// Initial cleanup on startup.
		if count, err := sessions.CleanupExpired(ctx); err != nil {
			log.Warn("Initial session cleanup failed", "error", err)
		} else if count > 0 {
			log.Info("Initial session cleanup completed", "deleted", count)
		}

		for {
			select {
			case <-ticker.C:
				if count, err := sessions.CleanupExpired(ctx); err != nil {
					log.Warn("Session cleanup failed", "error", err)
				} else if count > 0 {
					log.Info("Session cleanup completed", "deleted", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started")

	return &SessionCleanupJob{cancel: cancel}, nil
}
