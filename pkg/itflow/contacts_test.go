package itflow

import (
	"context"
	"net/http"
	"testing"
)

const contactsTestPrefix = "itflow:contacts_test"

func TestCreateContact_FullForm(t *testing.T) {
	fake := newFakeITFlow(t, okResponse)
	fake.client().CreateContact(context.Background(), CreateContactInput{Name: "Ada", Technical: true})

	call := fake.Calls()[0]
	if call.Method != http.MethodPost || call.Path != EndpointContactCreate {
		t.Fatalf("%s - unexpected call %s %s", contactsTestPrefix, call.Method, call.Path)
	}
	want := map[string]any{
		"contact_name":        "Ada",
		"contact_email":       DefaultContactEmail,
		"contact_title":       "",
		"contact_department":  "",
		"contact_phone":       "",
		"contact_extension":   "",
		"contact_mobile":      "",
		"contact_notes":       "",
		"contact_auth_method": "local",
		"contact_primary":     "0",
		"contact_important":   "0",
		"contact_billing":     "0",
		"contact_technical":   "1",
		"contact_location_id": "0",
		"client_id":           "9",
	}
	for k, v := range want {
		if call.Body[k] != v {
			t.Errorf("%s - %s = %v, want %v", contactsTestPrefix, k, call.Body[k], v)
		}
	}
}

func TestCreateContact_EmailOverrides(t *testing.T) {
	tests := []struct {
		name         string
		clientEmail  string
		contactEmail string
		want         string
	}{
		{"default", "", "", DefaultContactEmail},
		{"configured default", "noc@example.test", "", "noc@example.test"},
		{"contact email wins", "noc@example.test", "ada@example.test", "ada@example.test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeITFlow(t, okResponse)
			c := NewClient(NewClientParams{BaseURL: fake.server.URL, APIKey: "secret", ClientID: "9", ContactEmail: tt.clientEmail})
			c.CreateContact(context.Background(), CreateContactInput{Name: "Ada", Email: tt.contactEmail})
			if got := fake.Calls()[0].Body["contact_email"]; got != tt.want {
				t.Errorf("%s - contact_email = %v, want %q", contactsTestPrefix, got, tt.want)
			}
		})
	}
}

func TestGetContacts_Params(t *testing.T) {
	fake := newFakeITFlow(t, okResponse)
	fake.client().GetContacts(context.Background())

	call := fake.Calls()[0]
	if call.Method != http.MethodGet || call.Path != EndpointContactRead {
		t.Fatalf("%s - unexpected call %s %s", contactsTestPrefix, call.Method, call.Path)
	}
	if call.Query["client_id"] != "9" || call.Query["api_key"] != "secret" {
		t.Errorf("%s - unexpected query %v", contactsTestPrefix, call.Query)
	}
}

func TestUpdateContact_OnlySetFields(t *testing.T) {
	fake := newFakeITFlow(t, okResponse)
	fake.client().UpdateContact(context.Background(), UpdateContactInput{ContactID: 31, Phone: "555-0100", Billing: "1"})

	call := fake.Calls()[0]
	if call.Method != http.MethodPost || call.Path != EndpointContactUpdate {
		t.Fatalf("%s - unexpected call %s %s", contactsTestPrefix, call.Method, call.Path)
	}
	if call.Body["contact_id"] != float64(31) || call.Body["client_id"] != "9" {
		t.Errorf("%s - unexpected ids %v", contactsTestPrefix, call.Body)
	}
	if call.Body["contact_phone"] != "555-0100" || call.Body["contact_billing"] != "1" {
		t.Errorf("%s - set fields missing: %v", contactsTestPrefix, call.Body)
	}
	for _, k := range []string{"contact_name", "contact_email", "contact_mobile", "contact_title", "contact_department", "contact_notes", "contact_important", "contact_technical"} {
		if _, ok := call.Body[k]; ok {
			t.Errorf("%s - unset field %s was sent", contactsTestPrefix, k)
		}
	}
}

func TestDeleteContact_Params(t *testing.T) {
	fake := newFakeITFlow(t, okResponse)
	fake.client().DeleteContact(context.Background(), 31)

	call := fake.Calls()[0]
	if call.Method != http.MethodPost || call.Path != EndpointContactDelete {
		t.Fatalf("%s - unexpected call %s %s", contactsTestPrefix, call.Method, call.Path)
	}
	if call.Body["contact_id"] != float64(31) || call.Body["client_id"] != "9" {
		t.Errorf("%s - unexpected body %v", contactsTestPrefix, call.Body)
	}
}
