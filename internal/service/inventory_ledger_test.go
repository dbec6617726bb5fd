package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superdoll/tracker-api/internal/cache"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/repository"
	"github.com/superdoll/tracker-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLedgerAdjust(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateTestInventoryItem(t, env.db, "Tire", "Michelin", 10)

	cases := []struct {
		name      string
		delta     int
		remaining int
	}{
		{"restock", 5, 15},
		{"deduct", -3, 12},
		{"over-deduction clamps at zero", -50, 0},
		{"restock from zero", 2, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := env.ledger.Adjust(ctx, "Tire", "Michelin", tc.delta)
			require.NoError(t, err)
			assert.Equal(t, AdjustResult{OK: true, Status: AdjustStatusOK, Remaining: tc.remaining}, res)
			assert.Equal(t, tc.remaining, env.quantity(t, "Tire", "Michelin"))
		})
	}
}

func TestLedgerAdjust_TrimsInput(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestInventoryItem(t, env.db, "Tire", "Michelin", 4)

	res, err := env.ledger.Adjust(context.Background(), "  Tire ", " Michelin ", -1)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 3, res.Remaining)
}

func TestLedgerAdjust_Invalid(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.ledger.Adjust(context.Background(), "   ", "Michelin", 1)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, AdjustStatusInvalid, res.Status)
}

func TestLedgerAdjust_NotFoundLeavesStoreUnchanged(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestInventoryItem(t, env.db, "Tire", "Michelin", 10)

	res, err := env.ledger.Adjust(context.Background(), "Tire", "michelin", -1)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, AdjustStatusNotFound, res.Status)
	assert.Equal(t, 10, env.quantity(t, "Tire", "Michelin"))
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &domain.InventoryItem{}))
}

func TestLedgerAdjust_InvalidatesReadModels(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateTestInventoryItem(t, env.db, "Tire", "Michelin", 10)

	stock, err := env.inventory.Stock(ctx, "Tire", "Michelin")
	require.NoError(t, err)
	assert.Equal(t, 10, stock.Available)
	require.NoError(t, env.store.Set(ctx, cache.KeyDashboard, "stale", time.Minute))

	_, err = env.ledger.Adjust(ctx, "Tire", "Michelin", -4)
	require.NoError(t, err)

	var dest string
	found, err := env.store.Get(ctx, cache.KeyDashboard, &dest)
	require.NoError(t, err)
	assert.False(t, found)

	stock, err = env.inventory.Stock(ctx, "Tire", "Michelin")
	require.NoError(t, err)
	assert.Equal(t, 6, stock.Available)
}

func TestLedgerAvailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateTestInventoryItem(t, env.db, "Tire", "Michelin", 10)
	testutil.CreateTestInventoryItem(t, env.db, "Tire", "Bridgestone", 4)

	n, err := env.ledger.Available(ctx, "Tire", "Michelin")
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = env.ledger.Available(ctx, "Tire", "")
	require.NoError(t, err)
	assert.Equal(t, 14, n)

	n, err = env.ledger.Available(ctx, "Battery", "")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// Two concurrent manual deductions on the last unit are both accepted; the
// second clamps to zero instead of failing.
func TestLedgerAdjust_ConcurrentOversellClamps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateTestInventoryItem(t, env.db, "Tire", "Michelin", 1)

	var wg sync.WaitGroup
	results := make([]AdjustResult, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.ledger.Adjust(ctx, "Tire", "Michelin", -1)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 2; i++ {
		require.NoError(t, errs[i])
		assert.True(t, results[i].OK)
		assert.Equal(t, 0, results[i].Remaining)
	}
	assert.Equal(t, 0, env.quantity(t, "Tire", "Michelin"))
}

// Two concurrent sales of the last unit are serialized by the row lock: one
// succeeds, the other is rejected and writes nothing.
func TestLedgerDeduct_ConcurrentSalesRejectOversell(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateTestInventoryItem(t, env.db, "Tire", "Michelin", 1)
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.orders.Place(ctx, NewOrder{CustomerID: customer.ID, Payload: salesPayload("Tire", "Michelin", 1)})
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			rejected++
			var stock *domain.InsufficientStockError
			require.ErrorAs(t, err, &stock)
			assert.Equal(t, 0, stock.Available)
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)

	available, err := env.ledger.Available(ctx, "Tire", "Michelin")
	require.NoError(t, err)
	assert.Equal(t, 0, available)
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &domain.Order{}))
}

func TestLedgerDeduct_LocksRowOnPostgres(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectPing()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, DriverName: "postgres"}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	ledger := NewInventoryLedger(db, repository.NewInventoryRepository(db), cache.NewMemoryStore(), zap.NewNop())

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "brand", "quantity", "price", "created_at", "updated_at"}).
		AddRow("0b9a5f4e-8a4e-4c43-9a53-6c1c8c0f1a11", "Tire", "Michelin", 10, "150000.00", now, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "inventory_items" WHERE .* FOR UPDATE`).WillReturnRows(rows)
	mock.ExpectExec(`UPDATE "inventory_items" SET "quantity"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := ledger.Adjust(context.Background(), "Tire", "Michelin", -3)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}
