package main

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "admin", "Administrator", sqlmock.AnyArg(), "admin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	for i := range sampleInventory {
		// the first row already exists
		affected := int64(1)
		if i == 0 {
			affected = 0
		}
		mock.ExpectExec("INSERT INTO inventory_items").
			WillReturnResult(sqlmock.NewResult(0, affected))
	}
	mock.ExpectCommit()

	res, err := seed(context.Background(), db, seedOptions{AdminUsername: "admin", AdminPassword: "changeme123"})
	require.NoError(t, err)
	assert.True(t, res.AdminCreated)
	assert.Equal(t, int64(len(sampleInventory)-1), res.InventoryAdded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeed_SkipInventoryAndExistingAdmin(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res, err := seed(context.Background(), db, seedOptions{AdminUsername: "admin", AdminPassword: "changeme123", SkipInventory: true})
	require.NoError(t, err)
	assert.False(t, res.AdminCreated)
	assert.Zero(t, res.InventoryAdded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeed_RequiresPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = seed(context.Background(), db, seedOptions{AdminUsername: "admin", AdminPassword: "short"})
	assert.ErrorContains(t, err, "SEED_ADMIN_PASSWORD")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedOptionsFromEnv(t *testing.T) {
	t.Setenv("SEED_ADMIN_USERNAME", "")
	t.Setenv("SEED_ADMIN_PASSWORD", "secret-pass")
	t.Setenv("SEED_SKIP_INVENTORY", "true")

	opts := seedOptionsFromEnv()
	assert.Equal(t, "admin", opts.AdminUsername)
	assert.Equal(t, "secret-pass", opts.AdminPassword)
	assert.True(t, opts.SkipInventory)
}
