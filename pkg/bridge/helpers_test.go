package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/morezero/itflow-bridge/pkg/account"
	"github.com/morezero/itflow-bridge/pkg/db"
	"github.com/morezero/itflow-bridge/pkg/itflow"
	"github.com/morezero/itflow-bridge/pkg/reports"
)

const helpersTestPrefix = "bridge:helpers_test"

var fixedNow = func() time.Time { return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC) }

// call is one request received by the fake ITFlow server.
type call struct {
	Method string
	Path   string
	Params map[string]any
}

// fakeITFlow answers per path and records every call.
type fakeITFlow struct {
	server *httptest.Server
	mu     sync.Mutex
	calls  []call
	routes map[string]func(c call) (int, string)
}

func newFakeITFlow(t *testing.T) *fakeITFlow {
	t.Helper()
	f := &fakeITFlow{routes: map[string]func(call) (int, string){}}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := call{Method: r.Method, Path: r.URL.Path, Params: map[string]any{}}
		for k := range r.URL.Query() {
			c.Params[k] = r.URL.Query().Get(k)
		}
		if r.Method == http.MethodPost {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &c.Params)
		}
		f.mu.Lock()
		f.calls = append(f.calls, c)
		route := f.routes[c.Path]
		f.mu.Unlock()

		if route == nil {
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, `{"success":true,"message":"ok","data":[]}`)
			return
		}
		code, body := route(c)
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeITFlow) handle(path string, fn func(c call) (int, string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = fn
}

func (f *fakeITFlow) callsTo(path string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeITFlow) account(name string) *account.Context {
	return account.New(name, itflow.NewClient(itflow.NewClientParams{
		BaseURL:  f.server.URL,
		APIKey:   "secret",
		ClientID: "9",
	}))
}

// fakeProbe returns a mutable snapshot.
type fakeProbe struct {
	mu   sync.Mutex
	snap reports.HostSnapshot
}

func (p *fakeProbe) Snapshot(context.Context) (reports.HostSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap, nil
}

func (p *fakeProbe) set(fn func(s *reports.HostSnapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.snap)
}

// fakeStore keeps runs and state in memory.
type fakeStore struct {
	mu     sync.Mutex
	runs   []db.PublishRun
	states map[string]db.AccountState
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: map[string]db.AccountState{}}
}

func (s *fakeStore) InsertPublishRun(_ context.Context, run db.PublishRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *fakeStore) SaveAccountState(_ context.Context, state db.AccountState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.Account] = state
	return nil
}

func (s *fakeStore) LoadAccountState(_ context.Context, account string) (*db.AccountState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[account]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func mustNew(t *testing.T, params NewBridgeParams) *Bridge {
	t.Helper()
	if params.Now == nil {
		params.Now = fixedNow
	}
	if params.Host == nil {
		params.Host = &fakeProbe{}
	}
	b, err := New(params)
	if err != nil {
		t.Fatalf("%s - New failed: %v", helpersTestPrefix, err)
	}
	t.Cleanup(b.Close)
	return b
}
