package itflow

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const clientTestPrefix = "itflow:client_test"

func TestRequest_GETSendsQueryWithToken(t *testing.T) {
	fake := newFakeITFlow(t, okResponse)
	c := fake.client()

	env := c.Request(context.Background(), "/tickets/read.php", "GET", map[string]any{"ticket_status": "1", "client_id": 9})
	if !env.Success {
		t.Fatalf("%s - expected success, got message %q", clientTestPrefix, env.Message)
	}

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("%s - expected 1 call, got %d", clientTestPrefix, len(calls))
	}
	if calls[0].Method != http.MethodGet || calls[0].Path != "/tickets/read.php" {
		t.Errorf("%s - unexpected call %s %s", clientTestPrefix, calls[0].Method, calls[0].Path)
	}
	if calls[0].Query["api_key"] != "secret" {
		t.Errorf("%s - api_key = %q, want secret", clientTestPrefix, calls[0].Query["api_key"])
	}
	if calls[0].Query["ticket_status"] != "1" || calls[0].Query["client_id"] != "9" {
		t.Errorf("%s - unexpected query %v", clientTestPrefix, calls[0].Query)
	}
}

func TestRequest_POSTSendsJSONBody(t *testing.T) {
	fake := newFakeITFlow(t, okResponse)
	c := fake.client()

	c.Request(context.Background(), "/tickets/create.php", "POST", map[string]any{"ticket_subject": "hi"})

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("%s - expected 1 call, got %d", clientTestPrefix, len(calls))
	}
	if calls[0].ContentType != "application/json" {
		t.Errorf("%s - Content-Type = %q", clientTestPrefix, calls[0].ContentType)
	}
	if calls[0].Body["api_key"] != "secret" || calls[0].Body["ticket_subject"] != "hi" {
		t.Errorf("%s - unexpected body %v", clientTestPrefix, calls[0].Body)
	}
	if len(calls[0].Query) != 0 {
		t.Errorf("%s - POST should not carry a query string, got %v", clientTestPrefix, calls[0].Query)
	}
}

func TestRequest_ExplicitTokenIsKept(t *testing.T) {
	fake := newFakeITFlow(t, okResponse)
	c := fake.client()

	c.Request(context.Background(), "/clients/read.php", "GET", map[string]any{"api_key": "other"})
	if got := fake.Calls()[0].Query["api_key"]; got != "other" {
		t.Errorf("%s - api_key = %q, want other", clientTestPrefix, got)
	}
}

func TestRequest_DoesNotMutateCallerParams(t *testing.T) {
	fake := newFakeITFlow(t, okResponse)
	c := fake.client()

	params := map[string]any{"x": "1"}
	c.Request(context.Background(), "/clients/read.php", "GET", params)
	if _, ok := params["api_key"]; ok {
		t.Errorf("%s - caller params were modified", clientTestPrefix)
	}
}

func TestRequest_FailureShapes(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		body    string
		wantMsg string
	}{
		{"http error", http.StatusNotFound, "nope", "HTTP 404: nope"},
		{"server error", http.StatusInternalServerError, `{"success":true}`, `HTTP 500: {"success":true}`},
		{"non json body", http.StatusOK, "<html>maintenance</html>", "<html>maintenance</html>"},
		{"json array body", http.StatusOK, `[1,2]`, `[1,2]`},
		{"explicit failure", http.StatusOK, `{"success":false,"message":"bad client"}`, "bad client"},
		{"missing success", http.StatusOK, `{"message":"hm"}`, "hm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeITFlow(t, func(recordedCall) (int, string) { return tt.code, tt.body })
			env := fake.client().Request(context.Background(), "/tickets/read.php", "GET", nil)
			if env.Success {
				t.Fatalf("%s - expected failure", clientTestPrefix)
			}
			if env.Message != tt.wantMsg {
				t.Errorf("%s - Message = %q, want %q", clientTestPrefix, env.Message, tt.wantMsg)
			}
		})
	}
}

func TestRequest_TransportFailure(t *testing.T) {
	c := NewClient(NewClientParams{BaseURL: "http://127.0.0.1:1", APIKey: "k", Timeout: time.Second})
	env := c.Request(context.Background(), "/tickets/read.php", "GET", nil)
	if env.Success {
		t.Fatalf("%s - expected failure", clientTestPrefix)
	}
	if env.Message == "" {
		t.Errorf("%s - expected transport error message", clientTestPrefix)
	}
}

func TestRequest_CanceledContext(t *testing.T) {
	fake := newFakeITFlow(t, okResponse)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env := fake.client().Request(ctx, "/tickets/read.php", "GET", nil)
	if env.Success {
		t.Fatalf("%s - expected failure for canceled context", clientTestPrefix)
	}
	if !strings.Contains(env.Message, "context canceled") {
		t.Errorf("%s - Message = %q, want context canceled", clientTestPrefix, env.Message)
	}
}

func TestRequest_UnsupportedMethod(t *testing.T) {
	fake := newFakeITFlow(t, okResponse)
	env := fake.client().Request(context.Background(), "/tickets/read.php", "DELETE", nil)
	if env.Success {
		t.Fatalf("%s - expected failure", clientTestPrefix)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("%s - unsupported method must not reach the remote", clientTestPrefix)
	}
}

func TestClose_RecreatesTransport(t *testing.T) {
	fake := newFakeITFlow(t, okResponse)
	c := fake.client()

	if env := c.Request(context.Background(), "/clients/read.php", "GET", nil); !env.Success {
		t.Fatalf("%s - first request failed: %s", clientTestPrefix, env.Message)
	}
	c.Close()
	if c.httpClient != nil {
		t.Fatalf("%s - expected transport to be released", clientTestPrefix)
	}
	if env := c.Request(context.Background(), "/clients/read.php", "GET", nil); !env.Success {
		t.Fatalf("%s - request after Close failed: %s", clientTestPrefix, env.Message)
	}
	if len(fake.Calls()) != 2 {
		t.Errorf("%s - expected 2 calls, got %d", clientTestPrefix, len(fake.Calls()))
	}
}

func TestRequest_ObserverNotified(t *testing.T) {
	fake := newFakeITFlow(t, okResponse)
	var seen int32
	c := NewClient(NewClientParams{
		BaseURL: fake.server.URL,
		Observer: func(endpoint, method string, success bool, _ time.Duration) {
			if endpoint == "/clients/read.php" && method == "GET" && success {
				atomic.AddInt32(&seen, 1)
			}
		},
	})
	c.Request(context.Background(), "/clients/read.php", "get", nil)
	if atomic.LoadInt32(&seen) != 1 {
		t.Errorf("%s - observer not notified", clientTestPrefix)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(NewClientParams{BaseURL: "https://example.test/api/v1/"})
	if c.BaseURL() != "https://example.test/api/v1" {
		t.Errorf("%s - BaseURL = %q", clientTestPrefix, c.BaseURL())
	}
	if c.timeout != defaultTimeout {
		t.Errorf("%s - timeout = %v", clientTestPrefix, c.timeout)
	}
	if c.limiter != nil {
		t.Errorf("%s - limiter should be nil without a rate", clientTestPrefix)
	}

	d := NewClient(NewClientParams{RatePerSecond: 2})
	if d.BaseURL() != DefaultBaseURL {
		t.Errorf("%s - BaseURL = %q, want default", clientTestPrefix, d.BaseURL())
	}
	if d.limiter == nil || d.limiter.Burst() != 1 {
		t.Errorf("%s - expected limiter with burst 1", clientTestPrefix)
	}
}
