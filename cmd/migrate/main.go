package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/superdoll/tracker-api/internal/config"
)

const defaultMigrationsDir = "./migrations"

// command runs one migrate subcommand against an open database
type command struct {
	help string
	run  func(ctx context.Context, db *sql.DB, dir string, args []string) error
}

var commands = map[string]command{
	"up": {"apply all pending migrations", func(ctx context.Context, db *sql.DB, dir string, _ []string) error {
		if err := goose.UpContext(ctx, db, dir); err != nil {
			return fmt.Errorf("failed to run up migrations: %w", err)
		}
		fmt.Println("Migrations applied")
		return nil
	}},
	"up-to": {"apply migrations up to <version>", func(ctx context.Context, db *sql.DB, dir string, args []string) error {
		version, err := versionArg(args)
		if err != nil {
			return err
		}
		if err := goose.UpToContext(ctx, db, dir, version); err != nil {
			return fmt.Errorf("failed to migrate to %d: %w", version, err)
		}
		fmt.Printf("Migrated to version %d\n", version)
		return nil
	}},
	"down": {"roll back the latest migration", func(ctx context.Context, db *sql.DB, dir string, _ []string) error {
		if err := goose.DownContext(ctx, db, dir); err != nil {
			return fmt.Errorf("failed to run down migration: %w", err)
		}
		fmt.Println("Latest migration rolled back")
		return nil
	}},
	"redo": {"roll back and reapply the latest migration", func(ctx context.Context, db *sql.DB, dir string, _ []string) error {
		if err := goose.RedoContext(ctx, db, dir); err != nil {
			return fmt.Errorf("failed to redo migration: %w", err)
		}
		return nil
	}},
	"status": {"print applied and pending migrations", func(ctx context.Context, db *sql.DB, dir string, _ []string) error {
		return goose.StatusContext(ctx, db, dir)
	}},
	"version": {"print the current schema version", func(ctx context.Context, db *sql.DB, dir string, _ []string) error {
		return goose.VersionContext(ctx, db, dir)
	}},
	"create": {"create an empty SQL migration <name>", func(_ context.Context, db *sql.DB, dir string, args []string) error {
		if len(args) == 0 {
			return errors.New("create requires a migration name")
		}
		return goose.Create(db, dir, args[0], "sql")
	}},
	"seed": {"create the admin user and sample inventory", func(ctx context.Context, db *sql.DB, _ string, _ []string) error {
		res, err := seed(ctx, db, seedOptionsFromEnv())
		if err != nil {
			return err
		}
		fmt.Printf("Seed complete: admin created=%t, inventory rows added=%d\n", res.AdminCreated, res.InventoryAdded)
		return nil
	}},
}

func usage() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("usage: migrate <command> [args]\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-8s %s\n", name, commands[name].help)
	}
	return b.String()
}

func versionArg(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, errors.New("a target version is required")
	}
	version, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || version < 0 {
		return 0, fmt.Errorf("invalid version %q", args[0])
	}
	return version, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage())
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q\n%s", args[0], usage())
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	dir := defaultMigrationsDir
	if env := os.Getenv("MIGRATIONS_DIR"); env != "" {
		dir = env
	}
	return cmd.run(ctx, db, dir, args[1:])
}
