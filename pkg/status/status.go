// Package status maps raw ITFlow ticket status values to canonical display labels.
package status

import "strconv"

// Canonical labels.
const (
	New      = "New"
	Open     = "Open"
	OnHold   = "On Hold"
	Resolved = "Resolved"
	Closed   = "Closed"
	Waiting  = "Waiting..."
	Unknown  = "Unknown"
)

// table holds the fixed code/name mappings. Consulted before any numeric fallback.
var table = map[string]string{
	"1":      New,
	"2":      Open,
	"3":      OnHold,
	"4":      Resolved,
	"5":      Closed,
	New:      New,
	Open:     Open,
	OnHold:   OnHold,
	Resolved: Resolved,
	Closed:   Closed,
}

// Canonicalize maps a raw status value to its canonical label.
// A nil value is Unknown; integers above 5 that miss the table are Waiting...;
// anything else passes through unchanged.
func Canonicalize(raw *string) string {
	if raw == nil {
		return Unknown
	}
	return CanonicalizeString(*raw)
}

// CanonicalizeString is Canonicalize for a present value.
func CanonicalizeString(raw string) string {
	if label, ok := table[raw]; ok {
		return label
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 5 {
		return Waiting
	}
	return raw
}
