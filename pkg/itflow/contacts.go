package itflow

import (
	"context"
	"strconv"
)

// Contact endpoints.
const (
	EndpointContactCreate = "/contacts/create.php"
	EndpointContactRead   = "/contacts/read.php"
	EndpointContactUpdate = "/contacts/update.php"
	EndpointContactDelete = "/contacts/delete.php"
)

// CreateContactInput holds parameters for CreateContact.
type CreateContactInput struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Extension  string `json:"extension,omitempty"`
	Mobile     string `json:"mobile,omitempty"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
	Notes      string `json:"notes,omitempty"`
	AuthMethod string `json:"authMethod,omitempty"`
	Primary    bool   `json:"primary,omitempty"`
	Important  bool   `json:"important,omitempty"`
	Billing    bool   `json:"billing,omitempty"`
	Technical  bool   `json:"technical,omitempty"`
	LocationID int64  `json:"locationId,omitempty"`
}

// UpdateContactInput holds parameters for UpdateContact. Empty fields are left unchanged.
type UpdateContactInput struct {
	ContactID  int64  `json:"contactId"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Mobile     string `json:"mobile,omitempty"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Important  string `json:"important,omitempty"`
	Billing    string `json:"billing,omitempty"`
	Technical  string `json:"technical,omitempty"`
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// CreateContact adds a contact. The create form rejects partial payloads,
// so every field is sent. An empty email falls back to the client's default.
func (c *Client) CreateContact(ctx context.Context, in CreateContactInput) *Envelope {
	auth := in.AuthMethod
	if auth == "" {
		auth = "local"
	}
	email := in.Email
	if email == "" {
		email = c.email
	}
	return c.post(ctx, EndpointContactCreate, map[string]any{
		"contact_name":        in.Name,
		"contact_title":       in.Title,
		"contact_department":  in.Department,
		"contact_email":       email,
		"contact_phone":       in.Phone,
		"contact_extension":   in.Extension,
		"contact_mobile":      in.Mobile,
		"contact_notes":       in.Notes,
		"contact_auth_method": auth,
		"contact_primary":     flag(in.Primary),
		"contact_important":   flag(in.Important),
		"contact_billing":     flag(in.Billing),
		"contact_technical":   flag(in.Technical),
		"contact_location_id": strconv.FormatInt(in.LocationID, 10),
		"client_id":           c.clientID,
	})
}

// GetContacts lists the account's contacts.
func (c *Client) GetContacts(ctx context.Context) *Envelope {
	return c.get(ctx, EndpointContactRead, c.withClient(nil))
}

// UpdateContact changes the non-empty fields of a contact.
func (c *Client) UpdateContact(ctx context.Context, in UpdateContactInput) *Envelope {
	params := c.withClient(map[string]any{"contact_id": in.ContactID})
	setIf(params, "contact_name", in.Name)
	setIf(params, "contact_email", in.Email)
	setIf(params, "contact_phone", in.Phone)
	setIf(params, "contact_mobile", in.Mobile)
	setIf(params, "contact_title", in.Title)
	setIf(params, "contact_department", in.Department)
	setIf(params, "contact_notes", in.Notes)
	setIf(params, "contact_important", in.Important)
	setIf(params, "contact_billing", in.Billing)
	setIf(params, "contact_technical", in.Technical)
	return c.post(ctx, EndpointContactUpdate, params)
}

// DeleteContact removes a contact.
func (c *Client) DeleteContact(ctx context.Context, contactID int64) *Envelope {
	return c.post(ctx, EndpointContactDelete, c.withClient(map[string]any{"contact_id": contactID}))
}
