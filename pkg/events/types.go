// Package events defines the events the bridge emits and the publishers that deliver them.
package events

// Event types carried in the Type field.
const (
	TypePollCompleted      = "poll.completed"
	TypeDocumentsPublished = "documents.published"
)

// PollCompletedEvent carries one view's attribute snapshot.
type PollCompletedEvent struct {
	Type        string         `json:"type"`
	Account     string         `json:"account"`
	View        string         `json:"view"`
	Total       int            `json:"total"`
	Displayed   int            `json:"displayed"`
	FailedCodes []string       `json:"failedCodes,omitempty"`
	Attributes  map[string]any `json:"attributes"`
	Timestamp   string         `json:"timestamp"`
}

// DocumentsPublishedEvent summarizes one publish run.
type DocumentsPublishedEvent struct {
	Type        string            `json:"type"`
	RunID       string            `json:"runId"`
	Account     string            `json:"account"`
	Trigger     string            `json:"trigger"`
	Succeeded   int               `json:"succeeded"`
	Failed      int               `json:"failed"`
	Skipped     int               `json:"skipped"`
	PerKind     map[string]string `json:"perKind"`
	PublishedAt string            `json:"publishedAt"`
}
