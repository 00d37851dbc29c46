package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/morezero/itflow-bridge/pkg/itflow"
	"github.com/morezero/itflow-bridge/pkg/reports"
)

const alertsLogPrefix = "bridge:alerts"

// Alert ticket priorities.
const (
	priorityMedium = "Medium"
	priorityHigh   = "High"
)

// Thresholds holds host usage limits in percent. A zero limit disables that check.
type Thresholds struct {
	Disk   float64
	Memory float64
	CPU    float64
}

// Enabled reports whether any limit is set.
func (t Thresholds) Enabled() bool {
	return t.Disk > 0 || t.Memory > 0 || t.CPU > 0
}

// Breach is a host resource at or over its limit.
type Breach struct {
	Resource string  `json:"resource"`
	Percent  float64 `json:"percent"`
	Limit    float64 `json:"limit"`
	TicketOK bool    `json:"ticketOk"`
}

// CreateStartupTicket opens a Low priority ticket announcing that the bridge started.
func (b *Bridge) CreateStartupTicket(ctx context.Context) *itflow.Envelope {
	details := fmt.Sprintf("The ITFlow bridge for %s started at %s.\nVersion: %s",
		b.account.Name(), b.now().Format("2006-01-02 15:04:05"), reports.VersionLine(b.installed, b.latest))
	if snap, err := b.host.Snapshot(ctx); err == nil {
		details += fmt.Sprintf("\nHost: %s (%s %s)", snap.Hostname, snap.Platform, snap.PlatformVersion)
	}

	env := b.account.Client().CreateTicket(ctx, itflow.CreateTicketInput{
		Subject:  fmt.Sprintf("%s bridge started", b.account.Name()),
		Details:  details,
		Priority: itflow.DefaultPriority,
	})
	if !env.Success {
		slog.Error(fmt.Sprintf("%s - failed to create startup ticket: %s", alertsLogPrefix, env.Message))
	}
	return env
}

// CheckForUpdate opens one ticket per newer release. It reports whether a
// ticket was created. A version is remembered only once its ticket exists,
// so a failed creation is retried on the next check.
func (b *Bridge) CheckForUpdate(ctx context.Context) (bool, error) {
	newer, err := reports.UpdateAvailable(b.installed, b.latest)
	if err != nil {
		return false, err
	}
	if !newer || b.account.VersionAlerted(b.latest) {
		return false, nil
	}

	env := b.account.Client().CreateTicket(ctx, itflow.CreateTicketInput{
		Subject:  fmt.Sprintf("Update available: %s", b.latest),
		Details:  fmt.Sprintf("%s runs %s; version %s is available.", b.account.Name(), b.installed, b.latest),
		Priority: priorityMedium,
	})
	if !env.Success {
		return false, fmt.Errorf("%s - failed to create update ticket: %s", alertsLogPrefix, env.Message)
	}

	b.account.MarkVersionAlerted(b.latest)
	b.saveState(ctx)
	slog.Info(fmt.Sprintf("%s - Opened update ticket for %s", alertsLogPrefix, b.latest))
	return true, nil
}

// CheckThresholds compares host usage against the configured limits and opens
// a High priority ticket when a resource crosses its limit. A resource that
// stays over its limit is reported once until it drops back under.
func (b *Bridge) CheckThresholds(ctx context.Context) ([]Breach, error) {
	if !b.thresholds.Enabled() {
		return nil, nil
	}
	snap, err := b.host.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	checks := []struct {
		resource string
		percent  float64
		limit    float64
	}{
		{"disk", snap.DiskPercent, b.thresholds.Disk},
		{"memory", snap.MemoryPercent, b.thresholds.Memory},
		{"cpu", snap.CPUPercent, b.thresholds.CPU},
	}

	var out []Breach
	var errs []error
	for _, c := range checks {
		if c.limit <= 0 {
			continue
		}
		over := c.percent >= c.limit

		b.mu.Lock()
		already := b.breached[c.resource]
		if !over {
			delete(b.breached, c.resource)
		}
		b.mu.Unlock()

		if !over || already {
			continue
		}

		env := b.account.Client().CreateTicket(ctx, itflow.CreateTicketInput{
			Subject:  fmt.Sprintf("%s %s usage at %.0f%%", b.account.Name(), c.resource, c.percent),
			Details:  fmt.Sprintf("%s usage on %s is %.1f%%, at or above the %.0f%% limit.", c.resource, snap.Hostname, c.percent, c.limit),
			Priority: priorityHigh,
		})
		br := Breach{Resource: c.resource, Percent: c.percent, Limit: c.limit, TicketOK: env.Success}
		if env.Success {
			b.mu.Lock()
			b.breached[c.resource] = true
			b.mu.Unlock()
		} else {
			errs = append(errs, fmt.Errorf("%s ticket: %s", c.resource, env.Message))
		}
		out = append(out, br)
	}

	if len(errs) > 0 {
		return out, fmt.Errorf("%s - %w", alertsLogPrefix, errors.Join(errs...))
	}
	return out, nil
}
