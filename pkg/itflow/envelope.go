package itflow

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Envelope is the uniform result of every gateway call.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	// Raw is the unmodified response body, when one was received.
	Raw []byte `json:"-"`
}

// Failure builds a failed envelope carrying message.
func Failure(message string) *Envelope {
	return &Envelope{Success: false, Message: message}
}

// DecodeEnvelope turns a response body into an Envelope. A body that is not a
// JSON object yields a failure whose message is the raw text.
func DecodeEnvelope(body []byte) *Envelope {
	if !gjson.ValidBytes(body) {
		return &Envelope{Success: false, Message: string(body), Raw: body}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return &Envelope{Success: false, Message: string(body), Raw: body}
	}

	env := &Envelope{
		Success: truthy(root.Get("success")),
		Message: root.Get("message").String(),
		Raw:     body,
	}
	if data := root.Get("data"); data.Exists() {
		env.Data = json.RawMessage(data.Raw)
	}
	return env
}

// truthy reads the loosely typed success flag ITFlow returns.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		switch strings.ToLower(strings.TrimSpace(r.Str)) {
		case "true", "1", "yes":
			return true
		}
	}
	return false
}

// Items returns the elements of Data when it is a JSON array, or nil otherwise.
func (e *Envelope) Items() []gjson.Result {
	if e == nil || len(e.Data) == 0 {
		return nil
	}
	data := gjson.ParseBytes(e.Data)
	if !data.IsArray() {
		return nil
	}
	return data.Array()
}

// IsArray reports whether Data holds a JSON array.
func (e *Envelope) IsArray() bool {
	if e == nil || len(e.Data) == 0 {
		return false
	}
	return gjson.ParseBytes(e.Data).IsArray()
}

// NotFound reports whether a failed envelope indicates the target did not exist.
func (e *Envelope) NotFound() bool {
	if e == nil || e.Success {
		return false
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "404") || strings.Contains(msg, "not found")
}
