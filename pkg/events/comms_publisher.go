package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/itflow-bridge/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// GlobalSubject overrides the subject receiving every event (e.g. from EVENTS_SUBJECT).
	GlobalSubject string
}

// CommsPublisher publishes bridge events to COMMS subjects.
type CommsPublisher struct {
	nc            *comms.Conn
	globalSubject string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	globalSubject := commsutil.SubjectEvents
	if opts != nil && opts.GlobalSubject != "" {
		globalSubject = opts.GlobalSubject
	}
	return &CommsPublisher{nc: nc, globalSubject: globalSubject}
}

// PublishPoll publishes a view snapshot to the view subject and the global subject.
func (p *CommsPublisher) PublishPoll(_ context.Context, event *PollCompletedEvent) error {
	event.Type = TypePollCompleted
	return p.publish(commsutil.BuildViewSubject(event.Account, event.View), event)
}

// PublishDocuments publishes a run summary to the account's documents subject
// and the global subject.
func (p *CommsPublisher) PublishDocuments(_ context.Context, event *DocumentsPublishedEvent) error {
	event.Type = TypeDocumentsPublished
	return p.publish(commsutil.BuildDocumentsSubject(event.Account), event)
}

func (p *CommsPublisher) publish(granularSubject string, event any) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	if err := p.nc.Publish(granularSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, granularSubject, err))
		return err
	}
	if err := p.nc.Publish(p.globalSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, p.globalSubject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published event on %s", commsPublisherLogPrefix, granularSubject))
	return nil
}
