package commsutil

import "testing"

func TestToken(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "acme", "acme"},
		{"case and spaces", "Acme Corp", "acme_corp"},
		{"dots and wildcards", "a.b*c>d", "a_b_c_d"},
		{"empty", "  ", "_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Token(tt.in); got != tt.want {
				t.Errorf("commsutil:subjects_test - Token(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildViewSubject(t *testing.T) {
	tests := []struct {
		account, view, want string
	}{
		{"acme", "open", "itflow.acme.tickets.open"},
		{"Acme Corp", "closed", "itflow.acme_corp.tickets.closed"},
	}
	for _, tt := range tests {
		if got := BuildViewSubject(tt.account, tt.view); got != tt.want {
			t.Errorf("commsutil:subjects_test - BuildViewSubject(%q, %q) = %q, want %q", tt.account, tt.view, got, tt.want)
		}
	}
}

func TestBuildDocumentsSubject(t *testing.T) {
	if got := BuildDocumentsSubject("Acme"); got != "itflow.acme.documents.published" {
		t.Errorf("commsutil:subjects_test - BuildDocumentsSubject = %q", got)
	}
}
