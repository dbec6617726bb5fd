package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/repository"
	"github.com/superdoll/tracker-api/internal/testutil"
)

func TestExportService_EachOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exports := NewExportService(env.orderRepo, env.customerRepo)

	customer := testutil.CreateTestCustomer(t, env.db, "Rehema")
	testutil.CreateTestOrder(t, env.db, customer.ID, servicePayload(), domain.OrderStatusCreated)
	testutil.CreateTestOrder(t, env.db, customer.ID, servicePayload(), domain.OrderStatusCompleted)
	testutil.CreateTestOrder(t, env.db, customer.ID, consultationPayload(), domain.OrderStatusCreated)

	var names []string
	err := exports.EachOrder(ctx, repository.OrderFilter{}, func(o *domain.Order) error {
		require.NotNil(t, o.Customer)
		names = append(names, o.Customer.FullName)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Rehema", "Rehema", "Rehema"}, names)

	count := 0
	err = exports.EachOrder(ctx, repository.OrderFilter{Type: domain.OrderTypeService}, func(*domain.Order) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stop := errors.New("client went away")
	count = 0
	err = exports.EachOrder(ctx, repository.OrderFilter{}, func(*domain.Order) error {
		count++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, count)
}

func TestExportService_EachCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exports := NewExportService(env.orderRepo, env.customerRepo)

	testutil.CreateTestCustomer(t, env.db, "Rehema Said")
	testutil.CreateTestCustomer(t, env.db, "Omari Juma")

	count := 0
	require.NoError(t, exports.EachCustomer(ctx, repository.CustomerFilter{}, func(*domain.Customer) error {
		count++
		return nil
	}))
	assert.Equal(t, 2, count)

	var found []string
	require.NoError(t, exports.EachCustomer(ctx, repository.CustomerFilter{Search: "omari"}, func(c *domain.Customer) error {
		found = append(found, c.FullName)
		return nil
	}))
	assert.Equal(t, []string{"Omari Juma"}, found)
}
