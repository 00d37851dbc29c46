package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/itflow-bridge/pkg/itflow"
)

const logPrefix = "documents:orchestrator"

// Outcome is the result class of one kind in a publish run.
type Outcome string

// Outcomes.
const (
	OutcomeSucceeded     Outcome = "succeeded"
	OutcomeFailed        Outcome = "failed"
	OutcomeSkipped       Outcome = "skipped"
	OutcomeNotApplicable Outcome = "not_applicable"
)

// DefaultDescriptionPrefix starts the description written on every published document.
const DefaultDescriptionPrefix = "Manual update"

// Updater writes a document. *itflow.Client satisfies it.
type Updater interface {
	UpdateDocument(ctx context.Context, in itflow.DocumentUpdate) *itflow.Envelope
}

// Recorder stores when a publish run last completed.
type Recorder interface {
	MarkPublished(at time.Time)
}

// KindResult is the per-kind line of a Summary.
type KindResult struct {
	Key        string  `json:"key"`
	Outcome    Outcome `json:"outcome"`
	DocumentID int64   `json:"documentId,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// Summary is the result of PublishAll.
type Summary struct {
	Succeeded   int                `json:"succeeded"`
	Failed      int                `json:"failed"`
	Skipped     int                `json:"skipped"`
	PerKind     map[string]Outcome `json:"perKind"`
	Results     []KindResult       `json:"results"`
	PublishedAt time.Time          `json:"publishedAt"`
}

// Orchestrator runs a publish table against one account.
type Orchestrator struct {
	updater           Updater
	recorder          Recorder
	account           string
	descriptionPrefix string
	now               func() time.Time
}

// NewOrchestratorParams holds parameters for NewOrchestrator.
type NewOrchestratorParams struct {
	Updater Updater
	// Recorder may be nil.
	Recorder          Recorder
	AccountName       string
	DescriptionPrefix string
	Now               func() time.Time
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(params NewOrchestratorParams) *Orchestrator {
	prefix := params.DescriptionPrefix
	if prefix == "" {
		prefix = DefaultDescriptionPrefix
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		updater:           params.Updater,
		recorder:          params.Recorder,
		account:           params.AccountName,
		descriptionPrefix: prefix,
		now:               now,
	}
}

// PublishAll processes every kind of plan in order. ids maps kind keys to
// configured document ids; a kind without an id is skipped. A failure in one
// kind never affects the others. The last-published time is recorded once
// the table has been walked, whatever the individual outcomes. A nil plan
// is an empty table.
func (o *Orchestrator) PublishAll(ctx context.Context, plan *Plan, ids map[string]string) *Summary {
	if plan == nil {
		plan = &Plan{}
	}
	started := o.now()
	summary := &Summary{
		PerKind: make(map[string]Outcome, len(plan.Kinds)),
		Results: make([]KindResult, 0, len(plan.Kinds)),
	}

	for _, bk := range plan.Kinds {
		outcome, docID, err := o.publishOne(ctx, bk, ids[bk.Key], started)
		res := KindResult{Key: bk.Key, Outcome: outcome, DocumentID: docID}
		if err != nil {
			res.Message = err.Error()
		}

		switch outcome {
		case OutcomeSucceeded:
			summary.Succeeded++
			slog.Info(fmt.Sprintf("%s - Updated document %d (%s)", logPrefix, docID, bk.Key))
		case OutcomeFailed:
			summary.Failed++
			slog.Error(fmt.Sprintf("%s - Failed to publish %s: %v", logPrefix, bk.Key, err))
		default:
			summary.Skipped++
			slog.Debug(fmt.Sprintf("%s - Skipped %s (%s)", logPrefix, bk.Key, outcome))
		}

		summary.PerKind[bk.Key] = outcome
		summary.Results = append(summary.Results, res)
	}

	summary.PublishedAt = o.now().UTC()
	if o.recorder != nil {
		o.recorder.MarkPublished(summary.PublishedAt)
	}

	slog.Info(fmt.Sprintf("%s - Publish complete for %s: %d succeeded, %d failed, %d skipped",
		logPrefix, o.account, summary.Succeeded, summary.Failed, summary.Skipped))
	return summary
}

// publishOne handles a single kind. The step order is fixed: id presence,
// content generation, id validation, remote update.
func (o *Orchestrator) publishOne(ctx context.Context, bk BoundKind, rawID string, now time.Time) (outcome Outcome, docID int64, err error) {
	if rawID == "" {
		return OutcomeSkipped, 0, nil
	}

	defer func() {
		if r := recover(); r != nil {
			outcome, err = OutcomeFailed, fmt.Errorf("generator panic: %v", r)
		}
	}()

	content, genErr := bk.Generate(ctx)
	if errors.Is(genErr, ErrNotApplicable) {
		return OutcomeNotApplicable, 0, nil
	}
	if genErr != nil {
		return OutcomeFailed, 0, genErr
	}

	id, parseErr := itflow.ParseDocumentID(rawID)
	if parseErr != nil {
		return OutcomeFailed, 0, parseErr
	}

	env := o.updater.UpdateDocument(ctx, itflow.DocumentUpdate{
		DocumentID:  id,
		Name:        bk.DocumentName(o.account),
		Description: fmt.Sprintf("%s - %s", o.descriptionPrefix, now.Format("2006-01-02 15:04:05")),
		Content:     content,
	})
	if !env.Success {
		return OutcomeFailed, id, errors.New(env.Message)
	}
	return OutcomeSucceeded, id, nil
}
