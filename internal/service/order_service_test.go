package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/repository"
	"github.com/superdoll/tracker-api/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func TestOrderService_SalesLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateTestInventoryItem(t, env.db, "Tire", "Michelin", 10)
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")

	order, err := env.orders.Create(ctx, customer.ID, &domain.CreateOrderRequest{
		Type:                domain.OrderTypeSales,
		OrderPayloadRequest: domain.OrderPayloadRequest{ItemName: "Tire", Brand: "Michelin", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCreated, order.Status)
	assert.Equal(t, domain.OrderPriorityMedium, order.Priority)
	assert.Equal(t, domain.TireTypeNew, order.TireType)
	assert.Equal(t, 7, env.quantity(t, "Tire", "Michelin"))

	cancelled, err := env.orders.Transition(ctx, order.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.NotEmpty(t, cancelled.CancelledAt)
	assert.Equal(t, 10, env.quantity(t, "Tire", "Michelin"))
}

func TestOrderService_SalesRejectedBeforeWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateTestInventoryItem(t, env.db, "Tire", "Michelin", 2)
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")

	_, err := env.orders.Place(ctx, NewOrder{CustomerID: customer.ID, Payload: salesPayload("Tire", "Michelin", 3)})
	var stock *domain.InsufficientStockError
	require.ErrorAs(t, err, &stock)
	assert.Equal(t, 2, stock.Available)
	assert.Equal(t, "Only 2 in stock for Tire (Michelin)", stock.Error())

	assert.Equal(t, int64(0), testutil.Count(t, env.db, &domain.Order{}))
	assert.Equal(t, 2, env.quantity(t, "Tire", "Michelin"))

	reloaded, err := env.customerRepo.GetByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.TotalVisits)
}

func TestOrderService_SalesUnknownItem(t *testing.T) {
	env := newTestEnv(t)
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")

	_, err := env.orders.Place(context.Background(), NewOrder{CustomerID: customer.ID, Payload: salesPayload("Battery", "Exide", 1)})
	assert.ErrorIs(t, err, domain.ErrInventoryItemNotFound)
	assert.Equal(t, int64(0), testutil.Count(t, env.db, &domain.Order{}))
}

func TestOrderService_PayloadValidation(t *testing.T) {
	env := newTestEnv(t)
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")

	_, err := env.orders.Place(context.Background(), NewOrder{CustomerID: customer.ID, Payload: domain.ServicePayload{}})
	var v *domain.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "description")
	assert.Contains(t, v.Fields, "estimated_duration")
	assert.Equal(t, int64(0), testutil.Count(t, env.db, &domain.Order{}))
}

func TestOrderService_CreateRecordsVisit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")

	for i := 0; i < 2; i++ {
		_, err := env.orders.Place(ctx, NewOrder{CustomerID: customer.ID, Payload: consultationPayload()})
		require.NoError(t, err)
	}

	reloaded, err := env.customerRepo.GetByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.TotalVisits)
	assert.NotNil(t, reloaded.LastVisit)
}

func TestOrderService_CreateChecksOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateTestCustomer(t, env.db, "Amina")
	other := testutil.CreateTestCustomer(t, env.db, "Brian")
	vehicle := testutil.CreateTestVehicle(t, env.db, owner.ID, "UBA 123A")

	req := &domain.CreateOrderRequest{
		Type:                domain.OrderTypeService,
		VehicleID:           &vehicle.ID,
		OrderPayloadRequest: domain.OrderPayloadRequest{Description: "Oil change", EstimatedDuration: 30},
	}
	_, err := env.orders.Create(ctx, other.ID, req)
	var v *domain.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "vehicle_id")

	_, err = env.orders.Create(ctx, uuid.New(), req)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	order, err := env.orders.Create(ctx, owner.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "UBA 123A", order.PlateNumber)
}

func TestOrderService_ActualDurationFloored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")

	order, err := env.orders.Place(ctx, NewOrder{CustomerID: customer.ID, Payload: servicePayload()})
	require.NoError(t, err)

	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	env.orders.now = func() time.Time { return start }
	_, err = env.orders.Transition(ctx, order.ID, domain.OrderStatusInProgress)
	require.NoError(t, err)

	env.orders.now = func() time.Time { return start.Add(42*time.Minute + 59*time.Second) }
	done, err := env.orders.Transition(ctx, order.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, done.ActualDuration)
	assert.Equal(t, 42, *done.ActualDuration)
	assert.NotEmpty(t, done.StartedAt)
	assert.NotEmpty(t, done.CompletedAt)

	reloaded, err := env.customerRepo.GetByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerStatusCompleted, reloaded.CurrentStatus)
}

func TestOrderService_TransitionLogsPreviousStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	core, logs := observer.New(zapcore.InfoLevel)
	env.orders.logger = zap.New(core)

	customer := testutil.CreateTestCustomer(t, env.db, "Amina")
	order, err := env.orders.Place(ctx, NewOrder{CustomerID: customer.ID, Payload: servicePayload()})
	require.NoError(t, err)

	_, err = env.orders.Transition(ctx, order.ID, domain.OrderStatusInProgress)
	require.NoError(t, err)

	entries := logs.FilterMessage("order status changed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, string(domain.OrderStatusCreated), fields["from"])
	assert.Equal(t, string(domain.OrderStatusInProgress), fields["to"])
}

func TestOrderService_CompleteWithoutStartHasNoDuration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")
	order, err := env.orders.Place(ctx, NewOrder{CustomerID: customer.ID, Payload: servicePayload()})
	require.NoError(t, err)

	done, err := env.orders.Transition(ctx, order.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Nil(t, done.ActualDuration)
}

func TestOrderService_CancelNonSalesLeavesInventory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateTestInventoryItem(t, env.db, "Tire", "Michelin", 10)
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")

	for _, payload := range []domain.OrderPayload{servicePayload(), consultationPayload()} {
		order, err := env.orders.Place(ctx, NewOrder{CustomerID: customer.ID, Payload: payload})
		require.NoError(t, err)
		_, err = env.orders.Transition(ctx, order.ID, domain.OrderStatusCancelled)
		require.NoError(t, err)
	}
	assert.Equal(t, 10, env.quantity(t, "Tire", "Michelin"))
}

func TestOrderService_CancelRestocksExactQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateTestInventoryItem(t, env.db, "Tire", "Michelin", 5)
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")

	order, err := env.orders.Place(ctx, NewOrder{CustomerID: customer.ID, Payload: salesPayload("Tire", "Michelin", 5)})
	require.NoError(t, err)
	assert.Equal(t, 0, env.quantity(t, "Tire", "Michelin"))

	// stock received meanwhile must not be lost
	_, err = env.ledger.Adjust(ctx, "Tire", "Michelin", 2)
	require.NoError(t, err)

	_, err = env.orders.Transition(ctx, order.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 7, env.quantity(t, "Tire", "Michelin"))
}

func TestOrderService_CancelWithDeletedItemStillCancels(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := testutil.CreateTestInventoryItem(t, env.db, "Tire", "Michelin", 5)
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")

	order, err := env.orders.Place(ctx, NewOrder{CustomerID: customer.ID, Payload: salesPayload("Tire", "Michelin", 2)})
	require.NoError(t, err)
	require.NoError(t, env.inventoryRepo.Delete(ctx, item.ID))

	cancelled, err := env.orders.Transition(ctx, order.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
}

func TestOrderService_InvalidTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")

	completed := testutil.CreateTestOrder(t, env.db, customer.ID, servicePayload(), domain.OrderStatusCompleted)
	inProgress := testutil.CreateTestOrder(t, env.db, customer.ID, servicePayload(), domain.OrderStatusInProgress)

	cases := []struct {
		name   string
		id     uuid.UUID
		target domain.OrderStatus
	}{
		{"unknown status", inProgress.ID, domain.OrderStatus("archived")},
		{"backwards", inProgress.ID, domain.OrderStatusAssigned},
		{"same state", inProgress.ID, domain.OrderStatusInProgress},
		{"out of terminal", completed.ID, domain.OrderStatusCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.orders.Transition(ctx, tc.id, tc.target)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		})
	}

	reloaded, err := env.orderRepo.GetByID(ctx, inProgress.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInProgress, reloaded.Status)

	_, err = env.orders.Transition(ctx, uuid.New(), domain.OrderStatusCompleted)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderService_TimestampsAreNeverCleared(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")
	user := testutil.CreateTestUser(t, env.db, "mechanic", domain.RoleFrontDesk)

	order, err := env.orders.Place(ctx, NewOrder{CustomerID: customer.ID, Payload: servicePayload()})
	require.NoError(t, err)

	assigned, err := env.orders.Assign(ctx, order.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusAssigned, assigned.Status)
	assert.Equal(t, "mechanic", assigned.AssignedToName)

	_, err = env.orders.Transition(ctx, order.ID, domain.OrderStatusInProgress)
	require.NoError(t, err)
	cancelled, err := env.orders.Transition(ctx, order.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)

	assert.NotEmpty(t, cancelled.AssignedAt)
	assert.NotEmpty(t, cancelled.StartedAt)
	assert.NotEmpty(t, cancelled.CancelledAt)
	assert.Empty(t, cancelled.CompletedAt)
}

func TestOrderService_AssignReassigns(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")
	first := testutil.CreateTestUser(t, env.db, "first", domain.RoleFrontDesk)
	second := testutil.CreateTestUser(t, env.db, "second", domain.RoleFrontDesk)
	order := testutil.CreateTestOrder(t, env.db, customer.ID, servicePayload(), domain.OrderStatusInProgress)

	_, err := env.orders.Assign(ctx, order.ID, first.ID)
	require.NoError(t, err)
	dto, err := env.orders.Assign(ctx, order.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInProgress, dto.Status)
	require.NotNil(t, dto.AssignedToID)
	assert.Equal(t, second.ID, *dto.AssignedToID)

	_, err = env.orders.Assign(ctx, order.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, env.userRepo.Update(ctx, first, map[string]interface{}{"is_active": false}))
	_, err = env.orders.Assign(ctx, order.ID, first.ID)
	var v *domain.ValidationError
	assert.ErrorAs(t, err, &v)
}

type failingHandler struct{}

func (failingHandler) Handle(context.Context, *gorm.DB, domain.OrderEvent) error {
	return errors.New("audit sink unavailable")
}

func TestOrderService_HandlerFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateTestInventoryItem(t, env.db, "Tire", "Michelin", 10)
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")
	env.orders.Subscribe(failingHandler{})

	_, err := env.orders.Place(ctx, NewOrder{CustomerID: customer.ID, Payload: salesPayload("Tire", "Michelin", 4)})
	require.Error(t, err)
	assert.Equal(t, int64(0), testutil.Count(t, env.db, &domain.Order{}))
	assert.Equal(t, 10, env.quantity(t, "Tire", "Michelin"))
}

func TestOrderService_ListAndRecent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := testutil.CreateTestCustomer(t, env.db, "Amina")
	testutil.CreateTestOrder(t, env.db, customer.ID, servicePayload(), domain.OrderStatusCreated)
	testutil.CreateTestOrder(t, env.db, customer.ID, consultationPayload(), domain.OrderStatusCompleted)

	page, err := env.orders.List(ctx, 0, 0, repository.OrderFilter{Type: domain.OrderTypeService}, repository.DefaultSortConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, repository.DefaultPageSize, page.PageSize)

	recent, err := env.orders.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, domain.OrderTypeService, recent[0].Type)
}
