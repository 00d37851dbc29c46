package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/itflow-bridge/pkg/attributes"
	"github.com/morezero/itflow-bridge/pkg/events"
	"github.com/morezero/itflow-bridge/pkg/metrics"
	"github.com/morezero/itflow-bridge/pkg/tickets"
)

const pollLogPrefix = "bridge:poll"

// PollResult is one view's aggregated tickets rendered as attributes.
type PollResult struct {
	View        string         `json:"view"`
	Total       int            `json:"total"`
	Displayed   int            `json:"displayed"`
	FailedCodes []string       `json:"failedCodes,omitempty"`
	Attributes  map[string]any `json:"attributes"`
	PolledAt    time.Time      `json:"polledAt"`
}

// Poll aggregates a view and encodes it within the attribute budget. The
// snapshot is kept for Snapshot and published as an event.
func (b *Bridge) Poll(ctx context.Context, viewName string) (*PollResult, error) {
	view, ok := tickets.LookupView(viewName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, viewName)
	}

	agg := b.aggregator.AggregateView(ctx, view)
	opts := b.encoder
	if opts.Now == nil {
		opts.Now = b.now
	}
	attrs := attributes.Encode(agg.Records, opts)
	displayed, _ := attrs[attributes.KeyDisplayed].(int)

	res := &PollResult{
		View:        view.Name,
		Total:       agg.Total,
		Displayed:   displayed,
		FailedCodes: agg.FailedCodes,
		Attributes:  attrs,
		PolledAt:    b.now().UTC(),
	}

	b.mu.Lock()
	b.polls[view.Name] = res
	b.mu.Unlock()

	metrics.RecordPoll(b.account.Name(), view.Name, res.Total, res.Displayed)
	err := b.publisher.PublishPoll(ctx, &events.PollCompletedEvent{
		Account:     b.account.Name(),
		View:        view.Name,
		Total:       res.Total,
		Displayed:   res.Displayed,
		FailedCodes: res.FailedCodes,
		Attributes:  attrs,
		Timestamp:   res.PolledAt.Format(time.RFC3339),
	})
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish poll event for %s: %v", pollLogPrefix, view.Name, err))
	}

	slog.Debug(fmt.Sprintf("%s - %s: %d tickets, %d displayed", pollLogPrefix, view.Name, res.Total, res.Displayed))
	return res, nil
}

// PollAll polls every view in display order.
func (b *Bridge) PollAll(ctx context.Context) []*PollResult {
	views := tickets.Views()
	out := make([]*PollResult, 0, len(views))
	for _, v := range views {
		if ctx.Err() != nil {
			break
		}
		res, err := b.Poll(ctx, v.Name)
		if err != nil {
			continue
		}
		out = append(out, res)
	}
	return out
}

// Snapshot returns the last poll of a view.
func (b *Bridge) Snapshot(viewName string) (*PollResult, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res, ok := b.polls[viewName]
	return res, ok
}
