package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/itflow-bridge/pkg/db"
	"github.com/morezero/itflow-bridge/pkg/documents"
	"github.com/morezero/itflow-bridge/pkg/events"
	"github.com/morezero/itflow-bridge/pkg/metrics"
)

const publishLogPrefix = "bridge:publish"

// Publish triggers.
const (
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
)

// PublishReport is a publish run summary with its run id.
type PublishReport struct {
	RunID   string             `json:"runId"`
	Trigger string             `json:"trigger"`
	Summary *documents.Summary `json:"summary"`
}

// PublishDocuments runs the document table once. Runs are serialized; a run
// started while another is in progress waits for it. The summary is stored
// and published on a best-effort basis.
func (b *Bridge) PublishDocuments(ctx context.Context, trigger string) *PublishReport {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	if trigger == "" {
		trigger = TriggerManual
	}
	runID := uuid.NewString()
	started := b.now().UTC()
	slog.Info(fmt.Sprintf("%s - Publish run %s (%s) for %s", publishLogPrefix, runID, trigger, b.account.Name()))

	summary := b.orchestrator.PublishAll(ctx, b.plan, b.documentIDs)

	perKind := make(map[string]string, len(summary.PerKind))
	for key, outcome := range summary.PerKind {
		perKind[key] = string(outcome)
		metrics.RecordPublishOutcome(b.account.Name(), key, string(outcome))
	}
	metrics.RecordPublished(b.account.Name(), summary.PublishedAt)

	if b.store != nil {
		results, err := json.Marshal(summary.Results)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - failed to encode results: %v", publishLogPrefix, err))
		}
		run := db.PublishRun{
			ID:         runID,
			Account:    b.account.Name(),
			Trigger:    trigger,
			Succeeded:  summary.Succeeded,
			Failed:     summary.Failed,
			Skipped:    summary.Skipped,
			PerKind:    perKind,
			Results:    results,
			StartedAt:  started,
			FinishedAt: summary.PublishedAt,
		}
		if err := b.store.InsertPublishRun(ctx, run); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to store run %s: %v", publishLogPrefix, runID, err))
		}
		b.saveState(ctx)
	}

	err := b.publisher.PublishDocuments(ctx, &events.DocumentsPublishedEvent{
		RunID:       runID,
		Account:     b.account.Name(),
		Trigger:     trigger,
		Succeeded:   summary.Succeeded,
		Failed:      summary.Failed,
		Skipped:     summary.Skipped,
		PerKind:     perKind,
		PublishedAt: summary.PublishedAt.Format(time.RFC3339),
	})
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish run event %s: %v", publishLogPrefix, runID, err))
	}

	return &PublishReport{RunID: runID, Trigger: trigger, Summary: summary}
}
