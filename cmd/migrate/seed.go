package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/superdoll/tracker-api/internal/auth"
	"github.com/superdoll/tracker-api/internal/domain"
)

type seedItem struct {
	Name     string
	Brand    string
	Quantity int
	Price    decimal.Decimal
}

// sampleInventory is the starter stock loaded by "migrate seed"
var sampleInventory = []seedItem{
	{Name: "Tire 195/65R15", Brand: "Michelin", Quantity: 20, Price: decimal.NewFromInt(185000)},
	{Name: "Tire 195/65R15", Brand: "Bridgestone", Quantity: 16, Price: decimal.NewFromInt(170000)},
	{Name: "Tire 265/70R16", Brand: "Yokohama", Quantity: 12, Price: decimal.NewFromInt(310000)},
	{Name: "Engine Oil 5W-30 4L", Brand: "Castrol", Quantity: 40, Price: decimal.NewFromInt(68000)},
	{Name: "Battery N70", Brand: "Exide", Quantity: 8, Price: decimal.NewFromInt(245000)},
	{Name: "Brake Pads Front", Brand: "Bosch", Quantity: 15, Price: decimal.NewFromInt(55000)},
}

type seedOptions struct {
	AdminUsername string
	AdminPassword string
	SkipInventory bool
}

type seedResult struct {
	AdminCreated   bool
	InventoryAdded int64
}

func seedOptionsFromEnv() seedOptions {
	opts := seedOptions{
		AdminUsername: os.Getenv("SEED_ADMIN_USERNAME"),
		AdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
		SkipInventory: os.Getenv("SEED_SKIP_INVENTORY") == "true",
	}
	if opts.AdminUsername == "" {
		opts.AdminUsername = "admin"
	}
	return opts
}

// seed creates the admin account and the sample inventory. Existing rows are
// left alone, so running it twice is harmless.
func seed(ctx context.Context, db *sql.DB, opts seedOptions) (seedResult, error) {
	var res seedResult
	if len(opts.AdminPassword) < 8 {
		return res, errors.New("SEED_ADMIN_PASSWORD must be set to at least 8 characters")
	}
	hash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return res, fmt.Errorf("failed to hash admin password: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, created_at, updated_at, username, display_name, password_hash, role, is_active)
		 VALUES ($1, $2, $2, $3, $4, $5, $6, TRUE)
		 ON CONFLICT (username) DO NOTHING`,
		uuid.New(), now, opts.AdminUsername, "Administrator", hash, string(domain.RoleAdmin))
	if err != nil {
		return res, fmt.Errorf("failed to seed admin user: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		res.AdminCreated = true
	}

	if !opts.SkipInventory {
		for _, item := range sampleInventory {
			result, err := tx.ExecContext(ctx,
				`INSERT INTO inventory_items (id, created_at, updated_at, name, brand, quantity, price)
				 VALUES ($1, $2, $2, $3, $4, $5, $6)
				 ON CONFLICT (name, brand) DO NOTHING`,
				uuid.New(), now, item.Name, item.Brand, item.Quantity, item.Price)
			if err != nil {
				return res, fmt.Errorf("failed to seed inventory %s/%s: %w", item.Name, item.Brand, err)
			}
			n, _ := result.RowsAffected()
			res.InventoryAdded += n
		}
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("failed to commit seed: %w", err)
	}
	return res, nil
}
