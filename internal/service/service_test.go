package service

import (
	"context"
	"testing"
	"time"

	"github.com/superdoll/tracker-api/internal/cache"
	"github.com/superdoll/tracker-api/internal/config"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/notification"
	"github.com/superdoll/tracker-api/internal/repository"
	"github.com/superdoll/tracker-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testTTL = &config.CacheConfig{
	DashboardTTL:      60,
	InventoryItemsTTL: 60,
	InventoryStockTTL: 30,
	InquiryStatsTTL:   60,
	RegistrationTTL:   600,
}

type testEnv struct {
	db            *gorm.DB
	store         *cache.MemoryStore
	customerRepo  *repository.CustomerRepository
	vehicleRepo   *repository.VehicleRepository
	orderRepo     *repository.OrderRepository
	inventoryRepo *repository.InventoryRepository
	userRepo      *repository.UserRepository
	ledger        *InventoryLedger
	orders        *OrderService
	customers     *CustomerService
	registration  *RegistrationService
	inventory     *InventoryService
	sender        *fakeSender
	inquiries     *InquiryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	store := cache.NewMemoryStore()

	env := &testEnv{
		db:            db,
		store:         store,
		customerRepo:  repository.NewCustomerRepository(db),
		vehicleRepo:   repository.NewVehicleRepository(db),
		orderRepo:     repository.NewOrderRepository(db),
		inventoryRepo: repository.NewInventoryRepository(db),
		userRepo:      repository.NewUserRepository(db),
		sender:        &fakeSender{},
	}
	env.ledger = NewInventoryLedger(db, env.inventoryRepo, store, logger)
	env.orders = NewOrderService(db, env.orderRepo, env.customerRepo, env.vehicleRepo, env.userRepo, env.ledger, store, logger)
	env.customers = NewCustomerService(db, env.customerRepo, env.vehicleRepo, env.orderRepo, store, logger)
	env.registration = NewRegistrationService(db, env.customers, env.orders, env.inventoryRepo, env.vehicleRepo, logger)
	env.inventory = NewInventoryService(env.inventoryRepo, env.ledger, store, testTTL, logger)
	env.inquiries = NewInquiryService(env.orderRepo, env.orders, env.sender, store, testTTL, "Superdoll Support", time.UTC, logger)
	return env
}

// sequence returns a generator yielding codes in order, repeating the last one
func sequence(codes ...string) CodeGenerator {
	i := 0
	return func() string {
		code := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return code
	}
}

func salesPayload(name, brand string, qty int) domain.SalesPayload {
	return domain.SalesPayload{ItemName: name, Brand: brand, Quantity: qty}
}

func servicePayload() domain.ServicePayload {
	return domain.ServicePayload{Description: "Brake pads", EstimatedDuration: 45}
}

func consultationPayload() domain.ConsultationPayload {
	return domain.ConsultationPayload{InquiryType: domain.InquiryTypePricing, Questions: "How much for four tyres?"}
}

func (e *testEnv) quantity(t *testing.T, name, brand string) int {
	t.Helper()
	item, err := e.inventoryRepo.GetByKey(context.Background(), name, brand)
	if err != nil {
		t.Fatalf("inventory %s/%s: %v", name, brand, err)
	}
	return item.Quantity
}

type fakeSender struct {
	phone   string
	message string
	err     error
}

func (f *fakeSender) Send(_ context.Context, phone, message string) (notification.SendResult, error) {
	f.phone = phone
	f.message = message
	if f.err != nil {
		return notification.SendResult{Info: f.err.Error()}, f.err
	}
	return notification.SendResult{OK: true, Info: "SM1"}, nil
}
