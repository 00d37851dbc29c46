// Package server orchestrates all components: ITFlow gateway, NATS client, DB, bridge, dispatcher, schedules, HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"

	"github.com/morezero/itflow-bridge/internal/config"
	"github.com/morezero/itflow-bridge/pkg/account"
	"github.com/morezero/itflow-bridge/pkg/attributes"
	"github.com/morezero/itflow-bridge/pkg/bridge"
	"github.com/morezero/itflow-bridge/pkg/commsutil"
	"github.com/morezero/itflow-bridge/pkg/db"
	"github.com/morezero/itflow-bridge/pkg/dispatcher"
	"github.com/morezero/itflow-bridge/pkg/documents"
	"github.com/morezero/itflow-bridge/pkg/events"
	"github.com/morezero/itflow-bridge/pkg/itflow"
	"github.com/morezero/itflow-bridge/pkg/metrics"
	"github.com/morezero/itflow-bridge/pkg/reports"
)

const logPrefix = "server:server"

// Server is the itflow-bridge orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	pool       *pgxpool.Pool
	repo       *db.Repository
	sub        *comms.Subscription
	cron       *cron.Cron
	listener   net.Listener
	httpServer *http.Server
	bridge     *bridge.Bridge
	web        bridgeForServer
	runs       runLister
	cancel     context.CancelFunc
}

// ParseLogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: ParseLogLevel(cfg.LogLevel)})))

	if err := cfg.ValidateForServe(); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("%s - Starting itflow-bridge for %s", logPrefix, cfg.AccountName))

	s, err := Start(context.Background(), cfg)
	if err != nil {
		return err
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.Shutdown(shutdownCtx)
	return nil
}

// NewGateway builds the ITFlow client described by cfg, reporting calls to the metrics package.
func NewGateway(cfg *config.Config) *itflow.Client {
	return itflow.NewClient(itflow.NewClientParams{
		BaseURL:       cfg.ITFlowServer,
		APIKey:        cfg.ITFlowAPIKey,
		ClientID:      cfg.ITFlowClientID,
		Timeout:       cfg.ITFlowTimeout,
		RatePerSecond: cfg.RatePerSecond,
		RateBurst:     cfg.RateBurst,
		Observer:      metrics.ObserveGatewayCall,
		ContactEmail:  cfg.ContactEmail,
	})
}

// NewBridgeFromConfig builds the account bridge. store and publisher may be nil.
func NewBridgeFromConfig(cfg *config.Config, store bridge.Store, publisher events.EventPublisher) (*bridge.Bridge, error) {
	kinds, err := documents.LoadKinds(cfg.DocumentsFile)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load document kinds: %w", logPrefix, err)
	}

	var thresholds bridge.Thresholds
	if cfg.AlertOnThresholds {
		thresholds = bridge.Thresholds{Disk: cfg.DiskThreshold, Memory: cfg.MemoryThreshold, CPU: cfg.CPUThreshold}
	}

	params := bridge.NewBridgeParams{
		Account:     account.New(cfg.AccountName, NewGateway(cfg)),
		Kinds:       kinds,
		DocumentIDs: cfg.DocumentIDs,
		Encoder: attributes.Options{
			IncludeArray:    cfg.AttributeIncludeArray,
			SizeBudgetBytes: cfg.AttributeBudgetBytes,
			SafetyMargin:    cfg.AttributeSafetyMargin,
			MaxCandidates:   cfg.AttributeMaxTickets,
		},
		Publisher:        publisher,
		Host:             reports.SystemProbe{},
		InstalledVersion: cfg.InstalledVersion,
		LatestVersion:    cfg.LatestVersion,
		BackupDir:        cfg.BackupDir,
		Thresholds:       thresholds,
		Store:            store,
	}
	return bridge.New(params)
}

// Start wires every component and returns once the server is accepting requests.
func Start(parent context.Context, cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithCancel(parent)
	s := &Server{cfg: cfg, cancel: cancel}

	// Step 1: Connect to the database when configured
	var store bridge.Store
	if cfg.HasDatabase() {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			s.Shutdown(ctx)
			return nil, fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
		}
		s.pool = pool

		if cfg.RunMigrations {
			migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
			if err != nil {
				s.Shutdown(ctx)
				return nil, fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
			}
			if err := db.RunMigrations(ctx, pool, migrations); err != nil {
				s.Shutdown(ctx)
				return nil, fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
			}
		}
		s.repo = db.NewRepository(pool)
		s.runs = s.repo
		store = s.repo
	} else {
		slog.Info(fmt.Sprintf("%s - No DATABASE_URL; publish history and state are kept in memory", logPrefix))
	}

	// Step 2: Connect to NATS
	nc, err := commsutil.Connect(commsutil.ConnectParams{URL: cfg.COMMSURL, Name: cfg.COMMSName})
	if err != nil {
		s.Shutdown(ctx)
		return nil, fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}
	s.nc = nc
	slog.Info(fmt.Sprintf("%s - Connected to NATS at %s", logPrefix, cfg.COMMSURL))

	// Step 3: Create the bridge
	publisher := events.NewCommsPublisher(nc, &events.CommsPublisherOpts{GlobalSubject: cfg.EventsSubject})
	b, err := NewBridgeFromConfig(cfg, store, publisher)
	if err != nil {
		s.Shutdown(ctx)
		return nil, err
	}
	s.bridge = b
	s.web = b
	if err := b.RestoreState(ctx); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to restore account state: %v", logPrefix, err))
	}
	if cfg.CreateStartupTicket {
		b.CreateStartupTicket(ctx)
	}

	// Step 4: Create dispatcher and subscribe
	bridgeSubject := cfg.BridgeSubject
	if bridgeSubject == "" {
		bridgeSubject = commsutil.SubjectBridge
	}
	disp := dispatcher.NewDispatcher(b)
	sub, err := nc.Subscribe(bridgeSubject, requestHandler(ctx, disp, cfg.RequestTimeout))
	if err != nil {
		s.Shutdown(ctx)
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, bridgeSubject, err)
	}
	s.sub = sub
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, bridgeSubject))

	// Step 5: Schedules
	scheduler, err := newScheduler(ctx, cfg, b)
	if err != nil {
		s.Shutdown(ctx)
		return nil, err
	}
	s.cron = scheduler
	s.cron.Start()
	go b.PollAll(ctx)

	// Step 6: Start HTTP server
	httpAddr := cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = fmt.Sprintf(":%d", cfg.HTTPPort)
	}
	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		s.Shutdown(ctx)
		return nil, fmt.Errorf("%s - failed to listen on %s: %w", logPrefix, httpAddr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.routes(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, ln.Addr()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - itflow-bridge is ready", logPrefix))
	return s, nil
}

// HTTPAddr returns the address the HTTP server listens on.
func (s *Server) HTTPAddr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Bridge returns the running bridge.
func (s *Server) Bridge() *bridge.Bridge { return s.bridge }

// Shutdown stops every started component in reverse order. It is safe on a partially started server.
func (s *Server) Shutdown(ctx context.Context) {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Shutdown(ctx)
	}
	if s.bridge != nil {
		s.bridge.Close()
	}
	if s.nc != nil {
		_ = s.nc.Drain()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
}

// requestHandler decodes a bridge request, dispatches it under a per-request
// timeout and replies. A caller timeout shorter than the default wins.
func requestHandler(ctx context.Context, disp *dispatcher.Dispatcher, requestTimeout time.Duration) comms.MsgHandler {
	return func(msg *comms.Msg) {
		var req dispatcher.BridgeRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
			respond(msg, &dispatcher.BridgeResponse{
				Ok: false,
				Error: &dispatcher.ErrorDetail{
					Code:    "INVALID_REQUEST",
					Message: "Failed to decode request",
				},
			})
			return
		}

		timeout := requestTimeout
		if req.Ctx != nil && req.Ctx.TimeoutMs > 0 {
			if d := time.Duration(req.Ctx.TimeoutMs) * time.Millisecond; d < timeout {
				timeout = d
			}
		}
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		respond(msg, disp.Dispatch(reqCtx, &req))
	}
}

func respond(msg *comms.Msg, resp *dispatcher.BridgeResponse) {
	data, err := commsutil.EncodePayload(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to respond: %v", logPrefix, err))
	}
}
