// Package config provides bridge configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

const logPrefix = "config:LoadConfig"

// DefaultEnvFile is loaded when present and no other env files are named.
const DefaultEnvFile = ".env"

// Config holds itflow-bridge configuration.
type Config struct {
	// ITFlow gateway
	ITFlowServer   string        `envconfig:"ITFLOW_SERVER" default:"https://ticket.onoffapi.com/api/v1"`
	ITFlowAPIKey   string        `envconfig:"ITFLOW_API_KEY"`
	ITFlowClientID string        `envconfig:"ITFLOW_CLIENT_ID"`
	AccountName    string        `envconfig:"ACCOUNT_NAME" default:"ITFlow"`
	ITFlowTimeout  time.Duration `envconfig:"ITFLOW_REQUEST_TIMEOUT" default:"30s"`
	RatePerSecond  float64       `envconfig:"ITFLOW_RATE_PER_SECOND" default:"0"`
	RateBurst      int           `envconfig:"ITFLOW_RATE_BURST" default:"1"`
	ContactEmail   string        `envconfig:"ITFLOW_CONTACT_EMAIL" default:"api@homeassistant.local"`

	// Documents: optional YAML/JSON table and kind key -> ITFlow document id (e.g. "general:12,tickets:13").
	DocumentsFile string            `envconfig:"DOCUMENTS_FILE"`
	DocumentIDs   map[string]string `envconfig:"DOCUMENT_IDS"`
	BackupDir     string            `envconfig:"BACKUP_DIR"`

	// Attribute encoder
	AttributeBudgetBytes  int  `envconfig:"ATTRIBUTE_BUDGET_BYTES" default:"16384"`
	AttributeSafetyMargin int  `envconfig:"ATTRIBUTE_SAFETY_MARGIN" default:"2384"`
	AttributeMaxTickets   int  `envconfig:"ATTRIBUTE_MAX_TICKETS" default:"25"`
	AttributeIncludeArray bool `envconfig:"ATTRIBUTE_INCLUDE_ARRAY" default:"false"`

	// Schedules (cron expressions or @every descriptors; empty disables)
	PollSchedule        string `envconfig:"POLL_SCHEDULE" default:"@every 5m"`
	PublishSchedule     string `envconfig:"PUBLISH_SCHEDULE" default:"@every 1h"`
	UpdateCheckSchedule string `envconfig:"UPDATE_CHECK_SCHEDULE" default:"@every 24h"`
	ThresholdSchedule   string `envconfig:"THRESHOLD_SCHEDULE" default:"@every 5m"`

	// Alerts
	CreateStartupTicket bool    `envconfig:"CREATE_STARTUP_TICKET" default:"false"`
	AlertOnNewUpdate    bool    `envconfig:"ALERT_ON_NEW_UPDATE" default:"false"`
	InstalledVersion    string  `envconfig:"INSTALLED_VERSION"`
	LatestVersion       string  `envconfig:"LATEST_VERSION"`
	AlertOnThresholds   bool    `envconfig:"ALERT_ON_THRESHOLDS" default:"false"`
	DiskThreshold       float64 `envconfig:"DISK_THRESHOLD" default:"90"`
	MemoryThreshold     float64 `envconfig:"MEMORY_THRESHOLD" default:"90"`
	CPUThreshold        float64 `envconfig:"CPU_THRESHOLD" default:"90"`

	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"itflow-bridge"`

	// Subject overrides (empty = commsutil defaults)
	BridgeSubject string `envconfig:"BRIDGE_SUBJECT"`
	EventsSubject string `envconfig:"EVENTS_SUBJECT"`

	// Timeouts
	RequestTimeout time.Duration `envconfig:"BRIDGE_REQUEST_TIMEOUT" default:"25s"`

	// Database (optional; enables publish run history and state persistence)
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`

	// HTTP health endpoint (HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr           string        `envconfig:"HTTP_ADDR"`
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads .env files, then configuration from environment variables.
// Variables already set in the environment win over file values. With no
// files named, DefaultEnvFile is loaded when it exists.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}
		files = []string{DefaultEnvFile}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("%s - load env files %v: %w", logPrefix, files, err)
	}
	return nil
}

// HasDatabase reports whether a database is configured.
func (c *Config) HasDatabase() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}

// ValidateForITFlow checks config needed to talk to the ITFlow API.
func (c *Config) ValidateForITFlow() error {
	var errs []error
	if strings.TrimSpace(c.ITFlowAPIKey) == "" {
		errs = append(errs, fmt.Errorf("ITFLOW_API_KEY is required"))
	}
	if strings.TrimSpace(c.ITFlowClientID) == "" {
		errs = append(errs, fmt.Errorf("ITFLOW_CLIENT_ID is required"))
	}
	if strings.TrimSpace(c.AccountName) == "" {
		errs = append(errs, fmt.Errorf("ACCOUNT_NAME must not be empty"))
	}
	if c.ITFlowTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ITFLOW_REQUEST_TIMEOUT must be positive"))
	}
	if c.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("ITFLOW_RATE_PER_SECOND must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s - %w", logPrefix, errors.Join(errs...))
	}
	return nil
}

// ValidateForServe checks required config when running the bridge server.
func (c *Config) ValidateForServe() error {
	if err := c.ValidateForITFlow(); err != nil {
		return err
	}
	if c.COMMSURL == "" {
		return fmt.Errorf("%s - COMMS_URL is required for serve", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - BRIDGE_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	schedules := map[string]string{
		"POLL_SCHEDULE":         c.PollSchedule,
		"PUBLISH_SCHEDULE":      c.PublishSchedule,
		"UPDATE_CHECK_SCHEDULE": c.UpdateCheckSchedule,
		"THRESHOLD_SCHEDULE":    c.ThresholdSchedule,
	}
	for key, expr := range schedules {
		if expr == "" {
			continue
		}
		if _, err := cron.ParseStandard(expr); err != nil {
			return fmt.Errorf("%s - %s %q: %w", logPrefix, key, expr, err)
		}
	}
	if c.AlertOnThresholds {
		limits := map[string]float64{
			"DISK_THRESHOLD":   c.DiskThreshold,
			"MEMORY_THRESHOLD": c.MemoryThreshold,
			"CPU_THRESHOLD":    c.CPUThreshold,
		}
		for key, v := range limits {
			if v != 0 && (v < 50 || v > 99) {
				return fmt.Errorf("%s - %s must be 0 or between 50 and 99, got %v", logPrefix, key, v)
			}
		}
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, clear).
func (c *Config) ValidateForDB() error {
	if !c.HasDatabase() {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
