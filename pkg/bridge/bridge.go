// Package bridge runs one ITFlow account: ticket views, document publishing,
// ticket actions and host alerts.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/morezero/itflow-bridge/pkg/account"
	"github.com/morezero/itflow-bridge/pkg/attributes"
	"github.com/morezero/itflow-bridge/pkg/db"
	"github.com/morezero/itflow-bridge/pkg/documents"
	"github.com/morezero/itflow-bridge/pkg/events"
	"github.com/morezero/itflow-bridge/pkg/itflow"
	"github.com/morezero/itflow-bridge/pkg/reports"
	"github.com/morezero/itflow-bridge/pkg/tickets"
)

const logPrefix = "bridge:bridge"

// ErrUnknownView is returned for a view name outside the fixed set.
var ErrUnknownView = errors.New("unknown view")

// Store persists publish history and account state. *db.Repository satisfies it.
type Store interface {
	InsertPublishRun(ctx context.Context, run db.PublishRun) error
	SaveAccountState(ctx context.Context, state db.AccountState) error
	LoadAccountState(ctx context.Context, account string) (*db.AccountState, error)
}

// Bridge is the per-account service.
type Bridge struct {
	account      *account.Context
	aggregator   *tickets.Aggregator
	encoder      attributes.Options
	orchestrator *documents.Orchestrator
	plan         *documents.Plan
	documentIDs  map[string]string
	publisher    events.EventPublisher
	store        Store
	host         reports.HostProbe
	installed    string
	latest       string
	thresholds   Thresholds
	now          func() time.Time

	publishMu sync.Mutex

	mu       sync.RWMutex
	polls    map[string]*PollResult
	breached map[string]bool
}

// NewBridgeParams holds parameters for New.
type NewBridgeParams struct {
	Account *account.Context
	// Kinds defaults to documents.DefaultKinds().
	Kinds []documents.Kind
	// DocumentIDs maps kind keys to configured ITFlow document ids.
	DocumentIDs map[string]string
	Encoder     attributes.Options
	// Publisher may be nil.
	Publisher events.EventPublisher
	// Store may be nil.
	Store Store
	// Host defaults to reports.SystemProbe{}.
	Host             reports.HostProbe
	InstalledVersion string
	LatestVersion    string
	BackupDir        string
	Thresholds       Thresholds
	Now              func() time.Time
}

// New creates a Bridge. It fails when a document kind names an unknown capability.
func New(params NewBridgeParams) (*Bridge, error) {
	if params.Account == nil || params.Account.Client() == nil {
		return nil, fmt.Errorf("%s - account with a client is required", logPrefix)
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	host := params.Host
	if host == nil {
		host = reports.SystemProbe{}
	}
	publisher := params.Publisher
	if publisher == nil {
		publisher = &events.NoOpPublisher{}
	}
	kinds := params.Kinds
	if kinds == nil {
		kinds = documents.DefaultKinds()
	}

	client := params.Account.Client()
	aggregator := tickets.NewAggregator(client)
	generator := reports.NewGenerator(reports.NewGeneratorParams{
		AccountName:      params.Account.Name(),
		Host:             host,
		Tickets:          aggregator,
		Directory:        client,
		InstalledVersion: params.InstalledVersion,
		LatestVersion:    params.LatestVersion,
		BackupDir:        params.BackupDir,
		Now:              now,
	})
	plan, err := documents.Bind(kinds, generator.Capabilities())
	if err != nil {
		return nil, fmt.Errorf("%s - invalid document table: %w", logPrefix, err)
	}

	ids := make(map[string]string, len(params.DocumentIDs))
	for k, v := range params.DocumentIDs {
		ids[k] = v
	}

	return &Bridge{
		account:    params.Account,
		aggregator: aggregator,
		encoder:    params.Encoder,
		orchestrator: documents.NewOrchestrator(documents.NewOrchestratorParams{
			Updater:     client,
			Recorder:    params.Account,
			AccountName: params.Account.Name(),
			Now:         now,
		}),
		plan:        plan,
		documentIDs: ids,
		publisher:   publisher,
		store:       params.Store,
		host:        host,
		installed:   params.InstalledVersion,
		latest:      params.LatestVersion,
		thresholds:  params.Thresholds,
		now:         now,
		polls:       make(map[string]*PollResult),
		breached:    make(map[string]bool),
	}, nil
}

// Account returns the bridge's account context.
func (b *Bridge) Account() *account.Context { return b.account }

// Plan returns the bound document table.
func (b *Bridge) Plan() *documents.Plan { return b.plan }

// RestoreState loads persisted account state into the account context.
// It is a no-op without a store.
func (b *Bridge) RestoreState(ctx context.Context) error {
	if b.store == nil {
		return nil
	}
	state, err := b.store.LoadAccountState(ctx, b.account.Name())
	if err != nil {
		return fmt.Errorf("%s - failed to restore state: %w", logPrefix, err)
	}
	if state == nil {
		return nil
	}
	if state.LastPublished != nil {
		b.account.MarkPublished(*state.LastPublished)
	}
	for _, v := range state.AlertedVersions {
		b.account.MarkVersionAlerted(v)
	}
	slog.Info(fmt.Sprintf("%s - Restored state for %s (%d alerted versions)", logPrefix, b.account.Name(), len(state.AlertedVersions)))
	return nil
}

// saveState persists the account context. Failures are logged, never returned.
func (b *Bridge) saveState(ctx context.Context) {
	if b.store == nil {
		return
	}
	state := db.AccountState{Account: b.account.Name(), AlertedVersions: b.account.AlertedVersions()}
	if at, ok := b.account.LastPublished(); ok {
		state.LastPublished = &at
	}
	if err := b.store.SaveAccountState(ctx, state); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to save account state: %v", logPrefix, err))
	}
}

// CreateTicket opens a ticket on the account.
func (b *Bridge) CreateTicket(ctx context.Context, in itflow.CreateTicketInput) *itflow.Envelope {
	return b.account.Client().CreateTicket(ctx, in)
}

// UpdateTicket changes a ticket's status or priority.
func (b *Bridge) UpdateTicket(ctx context.Context, in itflow.UpdateTicketInput) *itflow.Envelope {
	return b.account.Client().UpdateTicket(ctx, in)
}

// CloseTicket closes a ticket.
func (b *Bridge) CloseTicket(ctx context.Context, ticketID int64) *itflow.Envelope {
	return b.account.Client().CloseTicket(ctx, ticketID)
}

// Health is the bridge's self-description.
type Health struct {
	Status        string            `json:"status"`
	Account       string            `json:"account"`
	ClientID      string            `json:"clientId"`
	Server        string            `json:"server"`
	LastPublished *time.Time        `json:"lastPublished,omitempty"`
	LastPolls     map[string]string `json:"lastPolls"`
	Documents     []string          `json:"documents"`
}

// Health reports the account identity, last publish and last poll times.
func (b *Bridge) Health() Health {
	h := Health{
		Status:    "ok",
		Account:   b.account.Name(),
		ClientID:  b.account.ClientID(),
		Server:    b.account.Client().BaseURL(),
		LastPolls: map[string]string{},
		Documents: b.plan.Keys(),
	}
	if at, ok := b.account.LastPublished(); ok {
		h.LastPublished = &at
	}
	b.mu.RLock()
	for name, p := range b.polls {
		h.LastPolls[name] = p.PolledAt.Format(time.RFC3339)
	}
	b.mu.RUnlock()
	return h
}

// LastPublished returns the last publish time and whether one happened.
func (b *Bridge) LastPublished() (time.Time, bool) {
	return b.account.LastPublished()
}

// Close releases the account's transport.
func (b *Bridge) Close() {
	b.account.Close()
}
