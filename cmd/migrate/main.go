package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/nhatro/backend/internal/infrastructure/config"
	"github.com/nhatro/backend/internal/infrastructure/logger"
	"github.com/nhatro/backend/internal/infrastructure/migration"
)

const usage = `Database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up               Apply all pending migrations
  down             Roll back all migrations
  step <n>         Apply n migrations (positive=up, negative=down)
  version          Show current schema version
  force <version>  Force set schema version (recover a dirty state)
  create <name>    Create a new up/down migration pair
  list             List available migrations

Flags:
  -path string       Path to migrations directory (default: ./migrations)
  -log-level string  Log level: debug, info, warn, error (default: info)

Database connection comes from config.toml or NHATRO_DATABASE_* environment
variables.

Examples:
  migrate up
  migrate step -1
  migrate create add_room_tariff
  migrate version`

func main() {
	var (
		migrationsDir string
		logLevel      string
	)
	flag.StringVar(&migrationsDir, "path", "migrations", "Path to migrations directory")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Println(usage)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(log, migrationsDir, args[0], args[1:]); err != nil {
		log.Fatal("migrate failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func run(log *zap.Logger, migrationsDir, command string, args []string) error {
	dir, err := filepath.Abs(migrationsDir)
	if err != nil {
		return fmt.Errorf("resolve migrations path: %w", err)
	}

	// create and list operate on the filesystem only
	switch command {
	case "create":
		if len(args) < 1 {
			return fmt.Errorf("migration name required, usage: migrate create <name>")
		}
		pair, err := migration.CreateMigration(dir, args[0])
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.String("version", pair.Version),
			zap.String("up", pair.UpPath),
			zap.String("down", pair.DownPath),
		)
		return nil

	case "list":
		names, err := migration.ListMigrations(dir)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			log.Info("No migrations found", zap.String("path", dir))
			return nil
		}
		for _, name := range names {
			fmt.Println(" ", name)
		}
		return nil
	}

	m, cleanup, err := openMigrator(log, dir)
	if err != nil {
		return err
	}
	defer cleanup()

	switch command {
	case "up":
		return m.Up()

	case "down":
		return m.Down()

	case "step":
		n, err := intArg(args, "step count", "migrate step <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied")
		} else {
			log.Info("Current schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
		return nil

	case "force":
		version, err := intArg(args, "version", "migrate force <version>")
		if err != nil {
			return err
		}
		return m.Force(version)

	default:
		fmt.Println(usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func openMigrator(log *zap.Logger, dir string) (*migration.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, dir, log)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	cleanup := func() {
		m.Close()
		db.Close()
	}
	return m, cleanup, nil
}

func intArg(args []string, what, hint string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%s required, usage: %s", what, hint)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, args[0])
	}
	return n, nil
}
