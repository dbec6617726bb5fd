// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/superdoll/tracker-api/internal/auth"
	"github.com/superdoll/tracker-api/internal/database"
	"github.com/superdoll/tracker-api/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// SetupTestDB opens an isolated in-memory SQLite database with the full schema.
// A single connection is used so every transaction is serialized.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func next() int64 {
	return seq.Add(1)
}

// CreateTestCustomer inserts a personal customer with a unique code and phone
func CreateTestCustomer(t *testing.T, db *gorm.DB, name string) *domain.Customer {
	t.Helper()
	n := next()
	customer := &domain.Customer{
		Code:             fmt.Sprintf("CUST%08X", n),
		FullName:         name,
		Phone:            fmt.Sprintf("+2567%08d", n),
		CustomerType:     domain.CustomerTypePersonal,
		PersonalSubtype:  domain.PersonalSubtypeOwner,
		RegistrationDate: time.Now().UTC(),
		CurrentStatus:    domain.CustomerStatusArrived,
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

// CreateTestVehicle inserts a vehicle owned by customerID
func CreateTestVehicle(t *testing.T, db *gorm.DB, customerID uuid.UUID, plate string) *domain.Vehicle {
	t.Helper()
	vehicle := &domain.Vehicle{
		CustomerID:  customerID,
		PlateNumber: plate,
		Make:        "Toyota",
		Model:       "Hilux",
		VehicleType: domain.VehicleTypeTruck,
	}
	require.NoError(t, db.Create(vehicle).Error)
	return vehicle
}

// CreateTestInventoryItem inserts a stock row for (name, brand)
func CreateTestInventoryItem(t *testing.T, db *gorm.DB, name, brand string, quantity int) *domain.InventoryItem {
	t.Helper()
	item := &domain.InventoryItem{
		Name:     name,
		Brand:    brand,
		Quantity: quantity,
		Price:    decimal.NewFromInt(150000),
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

// CreateTestOrder inserts an order directly, bypassing the lifecycle engine
func CreateTestOrder(t *testing.T, db *gorm.DB, customerID uuid.UUID, payload domain.OrderPayload, status domain.OrderStatus) *domain.Order {
	t.Helper()
	order := &domain.Order{
		OrderNumber: fmt.Sprintf("ORD%08X", next()),
		CustomerID:  customerID,
		Status:      status,
		Priority:    domain.OrderPriorityMedium,
	}
	order.ApplyPayload(payload)
	require.NoError(t, db.Create(order).Error)
	return order
}

// CreateTestUser inserts an active staff user with the given role
func CreateTestUser(t *testing.T, db *gorm.DB, username string, role domain.UserRole) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:     username,
		Email:        username + "@superdoll.test",
		DisplayName:  username,
		PasswordHash: "not-a-real-hash",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// AuthContext returns a context carrying an authenticated user with role
func AuthContext(role domain.UserRole) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:   uuid.New(),
		Username: "test-" + string(role),
		Role:     role,
	})
}

// Count returns the number of rows of model
func Count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
