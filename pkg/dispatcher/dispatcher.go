package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/morezero/itflow-bridge/pkg/bridge"
	"github.com/morezero/itflow-bridge/pkg/itflow"
)

const logPrefix = "dispatcher:dispatch"

// Dispatcher routes COMMS requests to bridge operations.
type Dispatcher struct {
	bridge *bridge.Bridge
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(b *bridge.Bridge) *Dispatcher {
	return &Dispatcher{bridge: b}
}

type pollParams struct {
	View string `json:"view"`
}

type publishParams struct {
	Trigger string `json:"trigger"`
}

type closeTicketParams struct {
	TicketID int64 `json:"ticketId"`
}

type lastPublishedResult struct {
	Published bool   `json:"published"`
	At        string `json:"at,omitempty"`
}

type checkUpdateResult struct {
	Created bool `json:"created"`
}

// Dispatch routes a request to the appropriate bridge operation and returns a response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *BridgeRequest) *BridgeResponse {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s", logPrefix, req.Method, req.ID))

	switch req.Method {
	case "poll":
		return d.handlePoll(ctx, req)
	case "pollAll":
		return d.handlePollAll(ctx, req)
	case "snapshot":
		return d.handleSnapshot(req)
	case "publish":
		return d.handlePublish(ctx, req)
	case "createTicket":
		return d.handleCreateTicket(ctx, req)
	case "updateTicket":
		return d.handleUpdateTicket(ctx, req)
	case "closeTicket":
		return d.handleCloseTicket(ctx, req)
	case "checkUpdate":
		return d.handleCheckUpdate(ctx, req)
	case "checkThresholds":
		return d.handleCheckThresholds(ctx, req)
	case "lastPublished":
		return d.handleLastPublished(req)
	case "health":
		return d.handleHealth(req)
	default:
		return &BridgeResponse{
			ID: req.ID,
			Ok: false,
			Error: &ErrorDetail{
				Code:      CodeMethodNotFound,
				Message:   fmt.Sprintf("Unknown method: %s", req.Method),
				Retryable: false,
			},
		}
	}
}

func (d *Dispatcher) handlePoll(ctx context.Context, req *BridgeRequest) *BridgeResponse {
	var input pollParams
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse poll params", false)
	}
	if strings.TrimSpace(input.View) == "" {
		return errorResponse(req.ID, CodeInvalidArgument, "view is required", false)
	}

	result, err := d.bridge.Poll(ctx, input.View)
	if err != nil {
		return bridgeErrorToResponse(req.ID, err)
	}
	return &BridgeResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handlePollAll(ctx context.Context, req *BridgeRequest) *BridgeResponse {
	result := d.bridge.PollAll(ctx)
	return &BridgeResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleSnapshot(req *BridgeRequest) *BridgeResponse {
	var input pollParams
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse snapshot params", false)
	}
	result, ok := d.bridge.Snapshot(input.View)
	if !ok {
		return errorResponse(req.ID, CodeUnknownView, fmt.Sprintf("No poll recorded for view %q", input.View), false)
	}
	return &BridgeResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handlePublish(ctx context.Context, req *BridgeRequest) *BridgeResponse {
	var input publishParams
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse publish params", false)
	}
	switch input.Trigger {
	case "", bridge.TriggerManual, bridge.TriggerSchedule:
	default:
		return errorResponse(req.ID, CodeInvalidArgument, fmt.Sprintf("Unknown trigger: %s", input.Trigger), false)
	}

	result := d.bridge.PublishDocuments(ctx, input.Trigger)
	return &BridgeResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleCreateTicket(ctx context.Context, req *BridgeRequest) *BridgeResponse {
	var input itflow.CreateTicketInput
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse createTicket params", false)
	}
	if strings.TrimSpace(input.Subject) == "" {
		return errorResponse(req.ID, CodeInvalidArgument, "subject is required", false)
	}
	return envelopeResponse(req.ID, d.bridge.CreateTicket(ctx, input))
}

func (d *Dispatcher) handleUpdateTicket(ctx context.Context, req *BridgeRequest) *BridgeResponse {
	var input itflow.UpdateTicketInput
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse updateTicket params", false)
	}
	if input.TicketID <= 0 {
		return errorResponse(req.ID, CodeInvalidArgument, "ticketId must be positive", false)
	}
	return envelopeResponse(req.ID, d.bridge.UpdateTicket(ctx, input))
}

func (d *Dispatcher) handleCloseTicket(ctx context.Context, req *BridgeRequest) *BridgeResponse {
	var input closeTicketParams
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse closeTicket params", false)
	}
	if input.TicketID <= 0 {
		return errorResponse(req.ID, CodeInvalidArgument, "ticketId must be positive", false)
	}
	return envelopeResponse(req.ID, d.bridge.CloseTicket(ctx, input.TicketID))
}

func (d *Dispatcher) handleCheckUpdate(ctx context.Context, req *BridgeRequest) *BridgeResponse {
	created, err := d.bridge.CheckForUpdate(ctx)
	if err != nil {
		return bridgeErrorToResponse(req.ID, err)
	}
	return &BridgeResponse{ID: req.ID, Ok: true, Result: checkUpdateResult{Created: created}}
}

func (d *Dispatcher) handleCheckThresholds(ctx context.Context, req *BridgeRequest) *BridgeResponse {
	breaches, err := d.bridge.CheckThresholds(ctx)
	if err != nil {
		resp := errorResponse(req.ID, CodeUpstream, err.Error(), true)
		resp.Error.Details = breaches
		return resp
	}
	if breaches == nil {
		breaches = []bridge.Breach{}
	}
	return &BridgeResponse{ID: req.ID, Ok: true, Result: breaches}
}

func (d *Dispatcher) handleLastPublished(req *BridgeRequest) *BridgeResponse {
	var result lastPublishedResult
	if at, ok := d.bridge.LastPublished(); ok {
		result = lastPublishedResult{Published: true, At: at.UTC().Format("2006-01-02T15:04:05Z07:00")}
	}
	return &BridgeResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleHealth(req *BridgeRequest) *BridgeResponse {
	return &BridgeResponse{ID: req.ID, Ok: true, Result: d.bridge.Health()}
}

// --- helpers ---

// decodeParams treats absent params as an empty object.
func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func errorResponse(id, code, message string, retryable bool) *BridgeResponse {
	return &BridgeResponse{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}

// envelopeResponse maps an ITFlow envelope onto a response. A failed envelope
// becomes an UPSTREAM_ERROR carrying the envelope as details.
func envelopeResponse(id string, env *itflow.Envelope) *BridgeResponse {
	if env.Success {
		return &BridgeResponse{ID: id, Ok: true, Result: env}
	}
	resp := errorResponse(id, CodeUpstream, env.Message, true)
	resp.Error.Details = env
	return resp
}

func bridgeErrorToResponse(id string, err error) *BridgeResponse {
	if errors.Is(err, bridge.ErrUnknownView) {
		return errorResponse(id, CodeUnknownView, err.Error(), false)
	}
	return errorResponse(id, CodeInternal, err.Error(), true)
}
