package itflow

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// recordedCall captures one request received by the fake ITFlow server.
type recordedCall struct {
	Method      string
	Path        string
	Query       map[string]string
	Body        map[string]any
	ContentType string
}

// fakeITFlow is an httptest server that records calls and answers through respond.
type fakeITFlow struct {
	server  *httptest.Server
	mu      sync.Mutex
	calls   []recordedCall
	respond func(call recordedCall) (int, string)
}

func newFakeITFlow(t *testing.T, respond func(call recordedCall) (int, string)) *fakeITFlow {
	t.Helper()
	f := &fakeITFlow{respond: respond}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := recordedCall{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       map[string]string{},
			ContentType: r.Header.Get("Content-Type"),
		}
		for k := range r.URL.Query() {
			call.Query[k] = r.URL.Query().Get(k)
		}
		if r.Method == http.MethodPost {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &call.Body)
		}
		f.mu.Lock()
		f.calls = append(f.calls, call)
		f.mu.Unlock()

		code, body := f.respond(call)
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeITFlow) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeITFlow) client() *Client {
	return NewClient(NewClientParams{
		BaseURL:  f.server.URL,
		APIKey:   "secret",
		ClientID: "9",
	})
}

func okResponse(_ recordedCall) (int, string) {
	return http.StatusOK, `{"success":true,"message":"ok","data":[]}`
}
