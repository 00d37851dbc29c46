package tickets

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/morezero/itflow-bridge/pkg/itflow"
)

const logPrefix = "tickets:aggregator"

// Reader fetches the tickets of one status bucket. *itflow.Client satisfies it.
type Reader interface {
	GetTickets(ctx context.Context, statusCode string) *itflow.Envelope
}

// AggregationResult is the outcome of one pass over a set of buckets.
type AggregationResult struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
	// FailedCodes lists buckets whose query failed and contributed nothing.
	FailedCodes []string `json:"failedCodes,omitempty"`
}

// Aggregator merges several bucket queries into one list.
type Aggregator struct {
	reader Reader
}

// NewAggregator creates a new Aggregator.
func NewAggregator(reader Reader) *Aggregator {
	return &Aggregator{reader: reader}
}

// Aggregate queries each code in order and admits a ticket when accept allows
// its raw status and its id has not been admitted yet. The first occurrence
// wins. The result is ordered by creation time, newest first; ties keep
// their admission order. A failed bucket contributes nothing and never aborts
// the pass.
func (a *Aggregator) Aggregate(ctx context.Context, codes []string, accept func(raw string) bool) *AggregationResult {
	result := &AggregationResult{Records: []Record{}}
	seen := make(map[int64]struct{})

	for _, code := range codes {
		env := a.reader.GetTickets(ctx, code)
		if !env.Success {
			slog.Warn(fmt.Sprintf("%s - bucket %q failed: %s", logPrefix, code, env.Message))
			result.FailedCodes = append(result.FailedCodes, code)
			continue
		}
		if !env.IsArray() {
			slog.Debug(fmt.Sprintf("%s - bucket %q returned no ticket list", logPrefix, code))
			continue
		}

		for _, item := range env.Items() {
			rec, ok := ParseRecord(item)
			if !ok {
				continue
			}
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			if !accept(rec.RawStatus) {
				continue
			}
			seen[rec.ID] = struct{}{}
			result.Records = append(result.Records, rec)
		}
	}

	sort.SliceStable(result.Records, func(i, j int) bool {
		return result.Records[i].CreatedAt > result.Records[j].CreatedAt
	})
	result.Total = len(result.Records)

	slog.Debug(fmt.Sprintf("%s - aggregated %d tickets from %d buckets", logPrefix, result.Total, len(codes)))
	return result
}

// AggregateView runs Aggregate for a named view.
func (a *Aggregator) AggregateView(ctx context.Context, v View) *AggregationResult {
	return a.Aggregate(ctx, v.Codes, v.Accepts)
}
