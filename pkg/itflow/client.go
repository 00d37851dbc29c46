// Package itflow is the HTTP gateway to the ITFlow ticketing API.
//
// Every call resolves to exactly one Envelope. Transport errors, HTTP error
// statuses and non-JSON bodies are folded into failed envelopes so callers
// never handle raw errors.
package itflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const logPrefix = "itflow:client"

const (
	// DefaultBaseURL is the ITFlow API root used when none is configured.
	DefaultBaseURL = "https://ticket.onoffapi.com/api/v1"
	defaultTimeout = 30 * time.Second
	tokenParam     = "api_key"

	// DefaultContactEmail is sent by CreateContact when a contact has no email.
	DefaultContactEmail = "api@homeassistant.local"
)

// Observer is notified after every request with its outcome and latency.
type Observer func(endpoint, method string, success bool, elapsed time.Duration)

// Client talks to one ITFlow account. It owns its HTTP transport, which is
// created on first use and recreated if the client has been closed.
type Client struct {
	baseURL   string
	apiKey    string
	clientID  string
	email     string
	timeout   time.Duration
	limiter   *rate.Limiter
	observer  Observer
	transport http.RoundTripper

	mu         sync.Mutex
	httpClient *http.Client
}

// NewClientParams holds parameters for NewClient.
type NewClientParams struct {
	BaseURL  string
	APIKey   string
	ClientID string
	Timeout  time.Duration
	// RatePerSecond paces outgoing requests; zero disables pacing.
	RatePerSecond float64
	RateBurst     int
	Observer      Observer
	// ContactEmail defaults to DefaultContactEmail.
	ContactEmail string
	// Transport overrides the HTTP round tripper (tests).
	Transport http.RoundTripper
}

// NewClient creates a new Client.
func NewClient(params NewClientParams) *Client {
	baseURL := strings.TrimRight(params.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	email := params.ContactEmail
	if email == "" {
		email = DefaultContactEmail
	}

	var limiter *rate.Limiter
	if params.RatePerSecond > 0 {
		burst := params.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(params.RatePerSecond), burst)
	}

	return &Client{
		baseURL:   baseURL,
		apiKey:    params.APIKey,
		clientID:  params.ClientID,
		email:     email,
		timeout:   timeout,
		limiter:   limiter,
		observer:  params.Observer,
		transport: params.Transport,
	}
}

// ClientID returns the ITFlow client (account) id this gateway operates on.
func (c *Client) ClientID() string {
	return c.clientID
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases the HTTP transport. A later request creates a fresh one.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
		c.httpClient = nil
	}
}

func (c *Client) http() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient == nil {
		transport := c.transport
		if transport == nil {
			transport = http.DefaultTransport.(*http.Transport).Clone()
		}
		c.httpClient = &http.Client{Timeout: c.timeout, Transport: transport}
	}
	return c.httpClient
}

// Request performs one call against endpoint (e.g. "/tickets/read.php").
// GET sends params as the query string; POST sends them as a JSON body.
// The API token is added to params when absent.
func (c *Client) Request(ctx context.Context, endpoint, method string, params map[string]any) *Envelope {
	start := time.Now()
	env := c.do(ctx, endpoint, strings.ToUpper(method), params)
	if c.observer != nil {
		c.observer(endpoint, strings.ToUpper(method), env.Success, time.Since(start))
	}
	if !env.Success {
		slog.Debug(fmt.Sprintf("%s - %s %s failed: %s", logPrefix, method, endpoint, env.Message))
	}
	return env
}

func (c *Client) do(ctx context.Context, endpoint, method string, params map[string]any) *Envelope {
	payload := make(map[string]any, len(params)+1)
	for k, v := range params {
		payload[k] = v
	}
	if _, ok := payload[tokenParam]; !ok {
		payload[tokenParam] = c.apiKey
	}

	target := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")

	var req *http.Request
	var err error
	switch method {
	case http.MethodGet:
		q := url.Values{}
		for k, v := range payload {
			q.Set(k, formatParam(v))
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target+"?"+q.Encode(), nil)
	case http.MethodPost:
		body, mErr := json.Marshal(payload)
		if mErr != nil {
			return Failure(mErr.Error())
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	default:
		return Failure(fmt.Sprintf("unsupported method: %s", method))
	}
	if err != nil {
		return Failure(err.Error())
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Failure(err.Error())
		}
	}

	resp, err := c.http().Do(req)
	if err != nil {
		return Failure(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure(err.Error())
	}

	if resp.StatusCode >= 400 {
		return &Envelope{
			Success: false,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
			Raw:     body,
		}
	}
	return DecodeEnvelope(body)
}

func formatParam(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params map[string]any) *Envelope {
	return c.Request(ctx, endpoint, http.MethodGet, params)
}

func (c *Client) post(ctx context.Context, endpoint string, params map[string]any) *Envelope {
	return c.Request(ctx, endpoint, http.MethodPost, params)
}

// withClient returns params with the account's client_id set.
func (c *Client) withClient(params map[string]any) map[string]any {
	if params == nil {
		params = map[string]any{}
	}
	params["client_id"] = c.clientID
	return params
}

// setIf adds key to params when value is non-empty.
func setIf(params map[string]any, key, value string) {
	if value != "" {
		params[key] = value
	}
}

// setIfPositive adds key to params when value is above zero.
func setIfPositive(params map[string]any, key string, value int64) {
	if value > 0 {
		params[key] = value
	}
}
