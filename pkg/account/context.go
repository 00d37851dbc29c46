// Package account holds the runtime state of one configured ITFlow account.
package account

import (
	"sort"
	"sync"
	"time"

	"github.com/morezero/itflow-bridge/pkg/itflow"
)

// Context is created when an account is set up and passed explicitly to
// everything that needs it. It is safe for concurrent use.
type Context struct {
	name   string
	client *itflow.Client

	mu              sync.RWMutex
	lastPublished   time.Time
	alertedVersions map[string]struct{}
}

// New creates a Context for the named account.
func New(name string, client *itflow.Client) *Context {
	return &Context{
		name:            name,
		client:          client,
		alertedVersions: make(map[string]struct{}),
	}
}

// Name is the account's display name.
func (c *Context) Name() string { return c.name }

// Client is the account's gateway.
func (c *Context) Client() *itflow.Client { return c.client }

// ClientID is the remote account id.
func (c *Context) ClientID() string {
	if c.client == nil {
		return ""
	}
	return c.client.ClientID()
}

// MarkPublished records the completion time of a publish run.
func (c *Context) MarkPublished(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPublished = at
}

// LastPublished returns the last publish time and whether one happened.
func (c *Context) LastPublished() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastPublished, !c.lastPublished.IsZero()
}

// MarkVersionAlerted remembers that an update ticket was opened for version.
// It reports false when version had already been recorded.
func (c *Context) MarkVersionAlerted(version string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.alertedVersions[version]; ok {
		return false
	}
	c.alertedVersions[version] = struct{}{}
	return true
}

// VersionAlerted reports whether version has been recorded.
func (c *Context) VersionAlerted(version string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.alertedVersions[version]
	return ok
}

// AlertedVersions returns the recorded versions in sorted order.
func (c *Context) AlertedVersions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.alertedVersions))
	for v := range c.alertedVersions {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Close releases the account's gateway transport.
func (c *Context) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
