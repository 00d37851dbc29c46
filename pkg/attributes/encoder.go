// Package attributes flattens ticket lists into a key/value map that stays
// under the host's per-entity attribute size ceiling.
package attributes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/morezero/itflow-bridge/pkg/tickets"
)

const (
	// DefaultSizeBudgetBytes is the host's attribute ceiling.
	DefaultSizeBudgetBytes = 16384
	// DefaultSafetyMargin leaves room below the ceiling; budget minus margin is 14000.
	DefaultSafetyMargin = 2384
	// DefaultMaxCandidates is the largest number of tickets ever emitted.
	DefaultMaxCandidates = 25

	truncateRunes = 100
)

// Summary keys.
const (
	KeyTotal     = "total_tickets"
	KeyDisplayed = "displayed_tickets"
	KeyUpdated   = "last_updated"
	KeyTickets   = "tickets"
)

// Options tunes Encode. Zero values fall back to the defaults.
type Options struct {
	IncludeArray    bool
	SizeBudgetBytes int
	SafetyMargin    int
	MaxCandidates   int
	Now             func() time.Time
}

// DefaultOptions returns the standard encoder settings.
func DefaultOptions() Options {
	return Options{
		SizeBudgetBytes: DefaultSizeBudgetBytes,
		SafetyMargin:    DefaultSafetyMargin,
		MaxCandidates:   DefaultMaxCandidates,
		Now:             time.Now,
	}
}

func (o Options) withDefaults() Options {
	if o.SizeBudgetBytes <= 0 {
		o.SizeBudgetBytes = DefaultSizeBudgetBytes
	}
	if o.SafetyMargin <= 0 {
		o.SafetyMargin = DefaultSafetyMargin
	}
	if o.SafetyMargin >= o.SizeBudgetBytes {
		o.SafetyMargin = 0
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = DefaultMaxCandidates
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Threshold is the exclusive size limit an encoding must stay under.
func (o Options) Threshold() int {
	o = o.withDefaults()
	return o.SizeBudgetBytes - o.SafetyMargin
}

// Encode builds the attribute map for records, which must already be ordered
// newest first. It emits the largest prefix, no longer than MaxCandidates,
// whose serialized size is below the threshold. A zero-length prefix is
// always accepted.
func Encode(records []tickets.Record, opts Options) map[string]any {
	opts = opts.withDefaults()
	threshold := opts.Threshold()
	updated := opts.Now().UTC().Format(time.RFC3339)

	limit := opts.MaxCandidates
	if len(records) < limit {
		limit = len(records)
	}

	for n := limit; ; n-- {
		attrs := build(records, n, opts.IncludeArray, updated)
		if n == 0 || Size(attrs) < threshold {
			return attrs
		}
	}
}

func build(records []tickets.Record, n int, includeArray bool, updated string) map[string]any {
	attrs := make(map[string]any, n*9+4)
	subset := records[:n]

	if includeArray {
		list := make([]map[string]any, 0, n)
		for _, r := range subset {
			list = append(list, arrayEntry(r))
		}
		attrs[KeyTickets] = list
	}

	for i, r := range subset {
		p := fmt.Sprintf("ticket_%d_", i+1)
		attrs[p+"id"] = r.ID
		attrs[p+"subject"] = Truncate(r.Subject, truncateRunes)
		attrs[p+"priority"] = r.Priority
		attrs[p+"status"] = r.CanonicalStatus
		attrs[p+"status_raw"] = r.RawStatus
		attrs[p+"created"] = r.CreatedAt
		attrs[p+"details"] = Truncate(r.Details, truncateRunes)
		attrs[p+"category"] = r.Category
		attrs[p+"assigned_to"] = r.AssignedTo
	}

	attrs[KeyTotal] = len(records)
	attrs[KeyDisplayed] = n
	attrs[KeyUpdated] = updated
	return attrs
}

// arrayEntry carries both short and ticket_-prefixed names for dashboard templates.
func arrayEntry(r tickets.Record) map[string]any {
	number := r.Number
	if number == "" {
		number = fmt.Sprintf("%d", r.ID)
	}
	subject := Truncate(r.Subject, truncateRunes)
	return map[string]any{
		"id":                 r.ID,
		"ticket_id":          r.ID,
		"number":             number,
		"ticket_number":      number,
		"subject":            subject,
		"ticket_subject":     subject,
		"priority":           r.Priority,
		"ticket_priority":    r.Priority,
		"status":             r.CanonicalStatus,
		"ticket_status":      r.CanonicalStatus,
		"created":            r.CreatedAt,
		"details":            Truncate(r.Details, truncateRunes),
		"category":           r.Category,
		"ticket_category":    r.Category,
		"assigned_to":        r.AssignedTo,
		"ticket_assigned_to": r.AssignedTo,
	}
}

// Size returns the serialized JSON length of attrs in bytes. It measures the
// compact UTF-8 encoding with no separator spaces and no \u escaping of
// non-ASCII or HTML characters, which is the form the attributes are stored
// in. That form is never longer than a spaced, ASCII-escaped rendering, so
// the budget bounds both.
func Size(attrs map[string]any) int {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(attrs); err != nil {
		return 0
	}
	// Encoder appends a newline.
	return buf.Len() - 1
}

// Truncate shortens s to at most n characters.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
