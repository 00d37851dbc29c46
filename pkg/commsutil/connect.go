// Package commsutil provides COMMS connection helpers, subject builders and
// the payload codec shared by the bridge's request handler and event publisher.
package commsutil

import (
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"
)

const logPrefix = "commsutil:connect"

// ConnectParams configures Connect. Zero durations and counts use defaults.
type ConnectParams struct {
	URL           string
	Name          string
	Timeout       time.Duration
	ReconnectWait time.Duration
	MaxReconnects int
}

func (p ConnectParams) withDefaults() ConnectParams {
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
	if p.ReconnectWait <= 0 {
		p.ReconnectWait = 2 * time.Second
	}
	if p.MaxReconnects == 0 {
		p.MaxReconnects = 60
	}
	return p
}

// Connect creates a COMMS connection.
func Connect(params ConnectParams) (*comms.Conn, error) {
	p := params.withDefaults()
	slog.Info(fmt.Sprintf("%s - Connecting to COMMS at %s as %s", logPrefix, p.URL, p.Name))

	nc, err := comms.Connect(p.URL,
		comms.Name(p.Name),
		comms.Timeout(p.Timeout),
		comms.ReconnectWait(p.ReconnectWait),
		comms.MaxReconnects(p.MaxReconnects),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			slog.Warn(fmt.Sprintf("%s - COMMS disconnected: %v", logPrefix, err))
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS reconnected to %s", logPrefix, nc.ConnectedUrl()))
		}),
		comms.ClosedHandler(func(_ *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS connection closed", logPrefix))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Connected to COMMS at %s", logPrefix, nc.ConnectedUrl()))
	return nc, nil
}
