package db

import "time"

// PublishRun represents a row in the publish_runs table.
type PublishRun struct {
	ID         string            `json:"id"`
	Account    string            `json:"account"`
	Trigger    string            `json:"trigger"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	PerKind    map[string]string `json:"per_kind"`
	Results    []byte            `json:"results,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// AccountState represents a row in the account_state table.
type AccountState struct {
	Account         string     `json:"account"`
	LastPublished   *time.Time `json:"last_published,omitempty"`
	AlertedVersions []string   `json:"alerted_versions"`
	Modified        time.Time  `json:"modified"`
}
