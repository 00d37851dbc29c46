package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/morezero/itflow-bridge/internal/config"
	"github.com/morezero/itflow-bridge/pkg/bridge"
)

const scheduleLogPrefix = "server:schedule"

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug(fmt.Sprintf("%s - cron %s", scheduleLogPrefix, msg), keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error(fmt.Sprintf("%s - cron %s: %v", scheduleLogPrefix, msg, err), keysAndValues...)
}

// scheduledJob is one cron entry.
type scheduledJob struct {
	name string
	expr string
	run  func(ctx context.Context)
}

// jobsFor lists the schedules enabled by cfg. An empty schedule disables its job.
func jobsFor(cfg *config.Config, b *bridge.Bridge) []scheduledJob {
	jobs := []scheduledJob{
		{"poll", cfg.PollSchedule, func(ctx context.Context) { b.PollAll(ctx) }},
		{"publish", cfg.PublishSchedule, func(ctx context.Context) {
			report := b.PublishDocuments(ctx, bridge.TriggerSchedule)
			slog.Info(fmt.Sprintf("%s - Scheduled publish %s: %d ok, %d failed, %d skipped", scheduleLogPrefix,
				report.RunID, report.Summary.Succeeded, report.Summary.Failed, report.Summary.Skipped))
		}},
	}
	if cfg.AlertOnNewUpdate {
		jobs = append(jobs, scheduledJob{"update-check", cfg.UpdateCheckSchedule, func(ctx context.Context) {
			if _, err := b.CheckForUpdate(ctx); err != nil {
				slog.Warn(fmt.Sprintf("%s - update check failed: %v", scheduleLogPrefix, err))
			}
		}})
	}
	if cfg.AlertOnThresholds {
		jobs = append(jobs, scheduledJob{"thresholds", cfg.ThresholdSchedule, func(ctx context.Context) {
			if _, err := b.CheckThresholds(ctx); err != nil {
				slog.Warn(fmt.Sprintf("%s - threshold check failed: %v", scheduleLogPrefix, err))
			}
		}})
	}

	out := jobs[:0]
	for _, j := range jobs {
		if j.expr != "" {
			out = append(out, j)
		}
	}
	return out
}

// newScheduler registers the enabled jobs. A job still running when its next
// tick fires is skipped; a panicking job is recovered.
func newScheduler(ctx context.Context, cfg *config.Config, b *bridge.Bridge) (*cron.Cron, error) {
	logger := cronLogger{}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	for _, j := range jobsFor(cfg, b) {
		job := j
		if _, err := c.AddFunc(job.expr, func() { job.run(ctx) }); err != nil {
			return nil, fmt.Errorf("%s - invalid %s schedule %q: %w", scheduleLogPrefix, job.name, job.expr, err)
		}
		slog.Info(fmt.Sprintf("%s - Scheduled %s (%s)", scheduleLogPrefix, job.name, job.expr))
	}
	return c, nil
}
