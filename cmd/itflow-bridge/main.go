// Package main is the entrypoint for the itflow-bridge.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/morezero/itflow-bridge/internal/config"
	"github.com/morezero/itflow-bridge/internal/server"
	"github.com/morezero/itflow-bridge/pkg/bridge"
	"github.com/morezero/itflow-bridge/pkg/db"
)

const usage = `Usage: itflow-bridge [command]
       itflow-bridge serve              Start the bridge (ITFlow polling, NATS, schedules, HTTP).
       itflow-bridge poll [view]        Poll one ticket view (default: all) and print its attributes.
       itflow-bridge publish            Publish every configured document once and print the summary.
       itflow-bridge migrate up         Run database migrations.
       itflow-bridge migrate status     Show migration status.
       itflow-bridge ensure-db [name]   Create database if missing (default name: itflow_bridge). Uses DATABASE_URL host/user.
       itflow-bridge clear              Truncate publish history and account state; schema is preserved.

Commands:
  serve           (default) Start the bridge.
  poll [view]     Views: new, open, closed, resolved, maintenance.
  publish         One manual publish run; stored when DATABASE_URL is set.
  migrate up      Run database migrations only.
  migrate status  Show current migration status.
  ensure-db       Create the database on the same host as DATABASE_URL.
  clear           Truncate bridge data.

Environment: ITFLOW_SERVER, ITFLOW_API_KEY, ITFLOW_CLIENT_ID, ACCOUNT_NAME, COMMS_URL,
DATABASE_URL (optional), MIGRATION_PATH, DOCUMENTS_FILE, DOCUMENT_IDS. A .env file is loaded when present.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("itflow-bridge migrate: require subcommand (up, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("itflow-bridge migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("itflow-bridge migrate status: %v", err)
			}
		default:
			log.Fatalf("itflow-bridge migrate: unknown subcommand %q (use up, status)", sub)
		}
		return
	case "poll":
		view := ""
		if len(args) > 1 {
			view = args[1]
		}
		if err := runPoll(view); err != nil {
			log.Fatalf("itflow-bridge poll: %v", err)
		}
		return
	case "publish":
		if err := runPublish(); err != nil {
			log.Fatalf("itflow-bridge publish: %v", err)
		}
		return
	case "clear":
		if err := runClear(); err != nil {
			log.Fatalf("itflow-bridge clear: %v", err)
		}
		return
	case "ensure-db":
		dbName := defaultDBName
		if len(args) > 1 && args[1] != "" {
			dbName = args[1]
		}
		if err := runEnsureDB(dbName); err != nil {
			log.Fatalf("itflow-bridge ensure-db: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("itflow-bridge: %v", err)
	}
}

const defaultDBName = "itflow_bridge"

// loadDBConfig loads config and checks DATABASE_URL.
func loadDBConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runMigrateUp() error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrations); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus() error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return db.MigrationStatus(ctx, pool, cfg.MigrationPath)
}

func runClear() error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.ClearBridge(ctx, pool); err != nil {
		return fmt.Errorf("clear bridge data: %w", err)
	}
	return nil
}

func runEnsureDB(dbName string) error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	if err := db.EnsureDatabase(context.Background(), cfg.DatabaseURL, dbName); err != nil {
		return err
	}
	fmt.Printf("Database %q is ready.\n", dbName)
	return nil
}

// oneShot runs fn against a bridge built from config, with the database store when configured.
func oneShot(fn func(ctx context.Context, b *bridge.Bridge) (interface{}, error)) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForITFlow(); err != nil {
		return err
	}
	ctx := context.Background()

	var store bridge.Store
	if cfg.HasDatabase() {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		store = db.NewRepository(pool)
	}

	b, err := server.NewBridgeFromConfig(cfg, store, nil)
	if err != nil {
		return err
	}
	defer b.Close()
	if err := b.RestoreState(ctx); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}

	out, err := fn(ctx, b)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runPoll(view string) error {
	return oneShot(func(ctx context.Context, b *bridge.Bridge) (interface{}, error) {
		if view == "" {
			return b.PollAll(ctx), nil
		}
		return b.Poll(ctx, view)
	})
}

func runPublish() error {
	return oneShot(func(ctx context.Context, b *bridge.Bridge) (interface{}, error) {
		return b.PublishDocuments(ctx, bridge.TriggerManual), nil
	})
}
