// Package documents publishes generated reports into pre-existing ITFlow documents.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Capability names the report generator a document kind is rendered with.
type Capability string

// Known capabilities.
const (
	CapabilitySystemInfo    Capability = "system_info"
	CapabilityTicketSummary Capability = "ticket_summary"
	CapabilityContacts      Capability = "contacts"
	CapabilityClients       Capability = "clients"
	CapabilityBackupStatus  Capability = "backup_status"
)

// ErrNotApplicable is returned by a generator whose subject does not exist on this host.
// The kind is skipped without counting as a failure.
var ErrNotApplicable = errors.New("not applicable")

// GenerateFunc renders a document body.
type GenerateFunc func(ctx context.Context) (string, error)

// Kind is one row of the publish table.
type Kind struct {
	Key          string     `yaml:"key" json:"key"`
	Capability   Capability `yaml:"capability" json:"capability"`
	NameTemplate string     `yaml:"name" json:"name"`
}

// accountPlaceholder is replaced by the account display name in NameTemplate.
const accountPlaceholder = "{account}"

// DocumentName renders the kind's name for an account.
func (k Kind) DocumentName(account string) string {
	return strings.ReplaceAll(k.NameTemplate, accountPlaceholder, account)
}

// BoundKind pairs a kind with its resolved generator.
type BoundKind struct {
	Kind
	Generate GenerateFunc
}

// Plan is a publish table with every capability resolved.
type Plan struct {
	Kinds []BoundKind
}

// Keys returns the kind keys in table order. A nil plan has none.
func (p *Plan) Keys() []string {
	if p == nil {
		return []string{}
	}
	out := make([]string, 0, len(p.Kinds))
	for _, k := range p.Kinds {
		out = append(out, k.Key)
	}
	return out
}

// Bind resolves every kind's capability against generators. Unknown
// capabilities and duplicate or empty keys are rejected here, before any
// publish runs.
func Bind(kinds []Kind, generators map[Capability]GenerateFunc) (*Plan, error) {
	plan := &Plan{Kinds: make([]BoundKind, 0, len(kinds))}
	seen := make(map[string]struct{}, len(kinds))

	for i, k := range kinds {
		if k.Key == "" {
			return nil, fmt.Errorf("%s - kind %d has no key", kindsLogPrefix, i)
		}
		if _, dup := seen[k.Key]; dup {
			return nil, fmt.Errorf("%s - duplicate kind key %q", kindsLogPrefix, k.Key)
		}
		gen, ok := generators[k.Capability]
		if !ok || gen == nil {
			return nil, fmt.Errorf("%s - kind %q uses unknown capability %q", kindsLogPrefix, k.Key, k.Capability)
		}
		seen[k.Key] = struct{}{}
		plan.Kinds = append(plan.Kinds, BoundKind{Kind: k, Generate: gen})
	}
	return plan, nil
}

const kindsLogPrefix = "documents:kinds"
