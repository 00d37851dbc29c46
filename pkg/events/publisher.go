package events

import "context"

// EventPublisher is the interface for publishing bridge events.
type EventPublisher interface {
	PublishPoll(ctx context.Context, event *PollCompletedEvent) error
	PublishDocuments(ctx context.Context, event *DocumentsPublishedEvent) error
}

// NoOpPublisher is an EventPublisher that does nothing (for runs without COMMS).
type NoOpPublisher struct{}

// PublishPoll is a no-op.
func (p *NoOpPublisher) PublishPoll(_ context.Context, _ *PollCompletedEvent) error {
	return nil
}

// PublishDocuments is a no-op.
func (p *NoOpPublisher) PublishDocuments(_ context.Context, _ *DocumentsPublishedEvent) error {
	return nil
}

// CallbackPublisher is an EventPublisher that calls callback functions (for testing).
// A nil callback drops that event type.
type CallbackPublisher struct {
	onPoll      func(ctx context.Context, event *PollCompletedEvent) error
	onDocuments func(ctx context.Context, event *DocumentsPublishedEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(
	onPoll func(ctx context.Context, event *PollCompletedEvent) error,
	onDocuments func(ctx context.Context, event *DocumentsPublishedEvent) error,
) *CallbackPublisher {
	return &CallbackPublisher{onPoll: onPoll, onDocuments: onDocuments}
}

// PublishPoll calls the poll callback.
func (p *CallbackPublisher) PublishPoll(ctx context.Context, event *PollCompletedEvent) error {
	if p.onPoll == nil {
		return nil
	}
	return p.onPoll(ctx, event)
}

// PublishDocuments calls the documents callback.
func (p *CallbackPublisher) PublishDocuments(ctx context.Context, event *DocumentsPublishedEvent) error {
	if p.onDocuments == nil {
		return nil
	}
	return p.onDocuments(ctx, event)
}
