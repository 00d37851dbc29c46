// Package tickets builds de-duplicated, ordered ticket views out of several
// per-status ITFlow queries.
package tickets

import (
	"github.com/tidwall/gjson"

	"github.com/morezero/itflow-bridge/pkg/status"
)

// Record is one ticket as seen during a single aggregation pass.
type Record struct {
	ID              int64  `json:"id"`
	Number          string `json:"number,omitempty"`
	Subject         string `json:"subject"`
	Details         string `json:"details"`
	Priority        string `json:"priority"`
	RawStatus       string `json:"statusRaw"`
	CanonicalStatus string `json:"status"`
	CreatedAt       string `json:"createdAt"`
	ResolvedAt      string `json:"resolvedAt,omitempty"`
	Category        string `json:"category"`
	AssignedTo      string `json:"assignedTo"`
}

// ParseRecord reads one ticket object. ok is false when the ticket has no positive id.
func ParseRecord(item gjson.Result) (Record, bool) {
	id := item.Get("ticket_id").Int()
	if id <= 0 {
		return Record{}, false
	}

	rec := Record{
		ID:         id,
		Number:     item.Get("ticket_number").String(),
		Subject:    item.Get("ticket_subject").String(),
		Details:    item.Get("ticket_details").String(),
		Priority:   item.Get("ticket_priority").String(),
		CreatedAt:  item.Get("ticket_created_at").String(),
		ResolvedAt: item.Get("ticket_resolved_at").String(),
		Category:   item.Get("ticket_category").String(),
		AssignedTo: item.Get("ticket_assigned_to").String(),
	}

	raw := item.Get("ticket_status")
	if raw.Exists() && raw.Type != gjson.Null {
		rec.RawStatus = raw.String()
		rec.CanonicalStatus = status.CanonicalizeString(rec.RawStatus)
	} else {
		rec.CanonicalStatus = status.Canonicalize(nil)
	}
	return rec, true
}
