package itflow

import (
	"context"
	"strings"
)

// Ticket endpoints.
const (
	EndpointTicketCreate = "/tickets/create.php"
	EndpointTicketRead   = "/tickets/read.php"
	EndpointTicketUpdate = "/tickets/update.php"
	EndpointTicketClose  = "/tickets/close.php"
)

// DefaultPriority is used when a new ticket names none.
const DefaultPriority = "Low"

// CreateTicketInput holds parameters for CreateTicket.
type CreateTicketInput struct {
	Subject    string `json:"subject"`
	Details    string `json:"details"`
	Priority   string `json:"priority,omitempty"`
	ContactID  int64  `json:"contactId,omitempty"`
	AssetID    int64  `json:"assetId,omitempty"`
	Category   string `json:"category,omitempty"`
	CategoryID int64  `json:"categoryId,omitempty"`
	Status     string `json:"status,omitempty"`
	AssignedTo int64  `json:"assignedTo,omitempty"`
}

// UpdateTicketInput holds parameters for UpdateTicket.
type UpdateTicketInput struct {
	TicketID int64  `json:"ticketId"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// CreateTicket opens a ticket. A category id takes precedence over a category name.
func (c *Client) CreateTicket(ctx context.Context, in CreateTicketInput) *Envelope {
	priority := in.Priority
	if priority == "" {
		priority = DefaultPriority
	}
	params := c.withClient(map[string]any{
		"ticket_subject":  in.Subject,
		"ticket_details":  in.Details,
		"ticket_priority": priority,
	})
	setIfPositive(params, "ticket_contact_id", in.ContactID)
	setIfPositive(params, "asset_id", in.AssetID)
	if in.CategoryID > 0 {
		params["ticket_category_id"] = in.CategoryID
	} else {
		setIf(params, "ticket_category", in.Category)
	}
	setIf(params, "ticket_status", in.Status)
	setIfPositive(params, "ticket_assigned_to", in.AssignedTo)
	return c.post(ctx, EndpointTicketCreate, params)
}

// GetTickets reads the account's tickets filtered by one status code or name.
func (c *Client) GetTickets(ctx context.Context, statusCode string) *Envelope {
	return c.get(ctx, EndpointTicketRead, c.withClient(map[string]any{
		"ticket_status": statusCode,
	}))
}

// UpdateTicket changes a ticket's status and/or priority.
//
// Closing goes through the dedicated close endpoint. Only when that endpoint
// reports the target as not found is the generic update endpoint tried.
func (c *Client) UpdateTicket(ctx context.Context, in UpdateTicketInput) *Envelope {
	if strings.EqualFold(in.Status, "closed") {
		env := c.CloseTicket(ctx, in.TicketID)
		if env.Success || !env.NotFound() {
			return env
		}
	}

	params := c.withClient(map[string]any{"ticket_id": in.TicketID})
	setIf(params, "ticket_status", in.Status)
	setIf(params, "ticket_priority", in.Priority)
	return c.post(ctx, EndpointTicketUpdate, params)
}

// CloseTicket closes a ticket.
func (c *Client) CloseTicket(ctx context.Context, ticketID int64) *Envelope {
	return c.post(ctx, EndpointTicketClose, c.withClient(map[string]any{"ticket_id": ticketID}))
}

// ResolveTicket marks a ticket Resolved.
func (c *Client) ResolveTicket(ctx context.Context, ticketID int64) *Envelope {
	return c.post(ctx, EndpointTicketUpdate, c.withClient(map[string]any{
		"ticket_id":     ticketID,
		"ticket_status": "Resolved",
	}))
}

// ReopenTicket moves a ticket back to New.
func (c *Client) ReopenTicket(ctx context.Context, ticketID int64) *Envelope {
	return c.post(ctx, EndpointTicketUpdate, c.withClient(map[string]any{
		"ticket_id":     ticketID,
		"ticket_status": "New",
	}))
}

// AddTicketReply is not offered by the ITFlow API; it always fails locally.
func (c *Client) AddTicketReply(_ context.Context, _ int64, _ string) *Envelope {
	return Failure("ITFlow API doesn't support adding replies. Please add notes directly in the ITFlow web interface.")
}
