package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	// SubjectBridge receives bridge requests (poll, publish, ticket actions).
	SubjectBridge = "itflow.bridge.v1"
	// SubjectEvents receives every event the bridge emits.
	SubjectEvents = "itflow.events"
)

// Token makes a value safe to use as a single subject token.
func Token(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '*', '>', '\t':
			return '_'
		}
		return r
	}, v)
}

// BuildViewSubject builds the subject a view's poll snapshot is published on.
func BuildViewSubject(account, view string) string {
	return fmt.Sprintf("itflow.%s.tickets.%s", Token(account), Token(view))
}

// BuildDocumentsSubject builds the subject publish summaries are sent on.
func BuildDocumentsSubject(account string) string {
	return fmt.Sprintf("itflow.%s.documents.published", Token(account))
}
