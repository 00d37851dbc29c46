package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/morezero/itflow-bridge/pkg/bridge"
	"github.com/morezero/itflow-bridge/pkg/db"
	"github.com/morezero/itflow-bridge/pkg/documents"
	"github.com/morezero/itflow-bridge/pkg/metrics"
	"github.com/morezero/itflow-bridge/pkg/tickets"
)

const handlersLogPrefix = "server:handlers"

// bridgeForServer is the part of the bridge the HTTP handlers read.
type bridgeForServer interface {
	Health() bridge.Health
	Snapshot(view string) (*bridge.PollResult, bool)
	Plan() *documents.Plan
}

// runLister lists stored publish runs. *db.Repository satisfies it.
type runLister interface {
	Ping(ctx context.Context) error
	ListPublishRuns(ctx context.Context, account string, limit int) ([]db.PublishRun, error)
}

const defaultRunLimit = 20

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome())
	mux.HandleFunc("/documents/", s.handleDocumentPreview())
	mux.HandleFunc("/attributes/", s.handleAttributes)
	mux.HandleFunc("/runs", s.handleRuns)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - json encode: %v", handlersLogPrefix, err))
	}
}

// healthOutput is the /health body.
type healthOutput struct {
	bridge.Health
	Database string `json:"database"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	out := healthOutput{Health: s.web.Health(), Database: "disabled"}
	status := http.StatusOK
	if s.runs != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()
		if err := s.runs.Ping(ctx); err != nil {
			out.Database = "unreachable"
			out.Status = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			out.Database = "ok"
		}
	}
	writeJSON(w, status, out)
}

// handleAttributes serves the last poll of /attributes/<view>.
func (s *Server) handleAttributes(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/attributes/"), "/")
	if _, ok := tickets.LookupView(name); !ok {
		http.Error(w, fmt.Sprintf("unknown view %q", name), http.StatusNotFound)
		return
	}
	res, ok := s.web.Snapshot(name)
	if !ok {
		http.Error(w, fmt.Sprintf("view %q has not been polled yet", name), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRuns lists recent publish runs; ?limit=N caps the count.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		http.Error(w, "publish history requires DATABASE_URL", http.StatusNotFound)
		return
	}
	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
	defer cancel()
	runs, err := s.runs.ListPublishRuns(ctx, s.web.Health().Account, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []db.PublishRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// homePageTemplate is the HTML for the bridge home page.
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>ITFlow Bridge - {{.Health.Account}}</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2 { color: #0066cc; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .stat { font-weight: bold; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; }
    section { margin-bottom: 2rem; }
  </style>
</head>
<body>
  <h1>ITFlow Bridge</h1>
  <p class="meta">Account {{.Health.Account}} (client {{.Health.ClientID}} on {{.Health.Server}})</p>

  <section>
    <h2>Status</h2>
    <p>Status: <span class="stat">{{.Health.Status}}</span></p>
    <p>Last published: {{if .Health.LastPublished}}{{.Health.LastPublished}}{{else}}never{{end}}</p>
  </section>

  <section>
    <h2>Ticket views</h2>
    {{if not .Polls}}
    <p>No views polled yet.</p>
    {{else}}
    <table>
      <thead><tr><th>View</th><th>Total</th><th>Displayed</th><th>Polled</th></tr></thead>
      <tbody>
        {{range .Polls}}
        <tr><td><a href="/attributes/{{.View}}">{{.View}}</a></td><td>{{.Total}}</td><td>{{.Displayed}}</td><td>{{.PolledAt.Format "2006-01-02 15:04:05"}}</td></tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>

  <section>
    <h2>Documents</h2>
    <table>
      <thead><tr><th>Key</th><th>Capability</th><th>Name</th></tr></thead>
      <tbody>
        {{range .Kinds}}
        <tr><td><a href="/documents/{{.Key}}">{{.Key}}</a></td><td>{{.Capability}}</td><td>{{.NameTemplate}}</td></tr>
        {{end}}
      </tbody>
    </table>
  </section>
</body>
</html>
`

// homeData is the data passed to the home page template.
type homeData struct {
	Health bridge.Health
	Polls  []*bridge.PollResult
	Kinds  []documents.BoundKind
}

// handleHome returns an HTTP handler for the bridge home page.
func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		data := homeData{Health: s.web.Health(), Kinds: s.web.Plan().Kinds}
		for _, v := range tickets.Views() {
			if res, ok := s.web.Snapshot(v.Name); ok {
				data.Polls = append(data.Polls, res)
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", handlersLogPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// handleDocumentPreview renders /documents/<key> without publishing it.
func (s *Server) handleDocumentPreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.Trim(strings.TrimPrefix(r.URL.Path, "/documents/"), "/")
		if key == "" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		var kind *documents.BoundKind
		for i := range s.web.Plan().Kinds {
			if s.web.Plan().Kinds[i].Key == key {
				kind = &s.web.Plan().Kinds[i]
				break
			}
		}
		if kind == nil {
			http.NotFound(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
		defer cancel()
		body, err := kind.Generate(ctx)
		if errors.Is(err, documents.ErrNotApplicable) {
			http.Error(w, fmt.Sprintf("document %q is not applicable on this host", key), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}
}
