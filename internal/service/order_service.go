package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/superdoll/tracker-api/internal/cache"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/mapper"
	"github.com/superdoll/tracker-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewOrder is an order waiting to be written. Payload carries the kind.
type NewOrder struct {
	CustomerID uuid.UUID
	VehicleID  *uuid.UUID
	Payload    domain.OrderPayload
	Priority   domain.OrderPriority
	Notes      string
}

// OrderService is the order lifecycle engine: creation with stock deduction,
// status transitions with their side effects, and order reads.
type OrderService struct {
	db           *gorm.DB
	orderRepo    *repository.OrderRepository
	customerRepo *repository.CustomerRepository
	vehicleRepo  *repository.VehicleRepository
	userRepo     *repository.UserRepository
	ledger       *InventoryLedger
	store        cache.Store
	handlers     []OrderEventHandler
	newNumber    CodeGenerator
	now          func() time.Time
	logger       *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	customerRepo *repository.CustomerRepository,
	vehicleRepo *repository.VehicleRepository,
	userRepo *repository.UserRepository,
	ledger *InventoryLedger,
	store cache.Store,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		db:           db,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		vehicleRepo:  vehicleRepo,
		userRepo:     userRepo,
		ledger:       ledger,
		store:        store,
		handlers:     []OrderEventHandler{NewCustomerVisitHandler(customerRepo)},
		newNumber:    RandomHexCode,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
}

// Subscribe registers an additional handler for order events
func (s *OrderService) Subscribe(h OrderEventHandler) {
	s.handlers = append(s.handlers, h)
}

func (s *OrderService) dispatch(ctx context.Context, tx *gorm.DB, event domain.OrderEvent) error {
	for _, h := range s.handlers {
		if err := h.Handle(ctx, tx, event); err != nil {
			return fmt.Errorf("failed to handle %s: %w", event.EventName(), err)
		}
	}
	return nil
}

// Create opens an order for an existing customer. Sales orders deduct stock in
// the same transaction; nothing is written when any step fails.
func (s *OrderService) Create(ctx context.Context, customerID uuid.UUID, req *domain.CreateOrderRequest) (*domain.OrderDTO, error) {
	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	if req.VehicleID != nil {
		vehicle, err := s.vehicleRepo.GetByID(ctx, *req.VehicleID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, domain.ErrVehicleNotFound
			}
			return nil, fmt.Errorf("failed to get vehicle: %w", err)
		}
		if vehicle.CustomerID != customerID {
			v := domain.NewValidationError()
			v.Add("vehicle_id", "Vehicle does not belong to this customer")
			return nil, v
		}
	}

	payload, err := req.ToPayload(req.Type, nil)
	if err != nil {
		return nil, err
	}

	order, err := s.Place(ctx, NewOrder{
		CustomerID: customerID,
		VehicleID:  req.VehicleID,
		Payload:    payload,
		Priority:   req.Priority,
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, order.ID)
}

// Place validates and writes in as one unit of work
func (s *OrderService) Place(ctx context.Context, in NewOrder) (*domain.Order, error) {
	if err := in.Payload.Validate(); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.createInTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCreate(ctx, order)
	return order, nil
}

// createInTx deducts stock for sales, writes the order and raises OrderCreated.
// The payload must already be valid.
func (s *OrderService) createInTx(ctx context.Context, tx *gorm.DB, in NewOrder) (*domain.Order, error) {
	if sales, ok := in.Payload.(domain.SalesPayload); ok {
		if err := s.ledger.Deduct(ctx, tx, strings.TrimSpace(sales.ItemName), strings.TrimSpace(sales.Brand), sales.Quantity); err != nil {
			return nil, err
		}
	}

	orderRepo := s.orderRepo.WithTx(tx)
	number, err := uniqueCode(ctx, OrderNumberPrefix, s.newNumber, orderRepo.NumberExists)
	if err != nil {
		return nil, err
	}

	priority := in.Priority
	if priority == "" {
		priority = domain.OrderPriorityMedium
	}
	order := &domain.Order{
		OrderNumber: number,
		CustomerID:  in.CustomerID,
		VehicleID:   in.VehicleID,
		Status:      domain.OrderStatusCreated,
		Priority:    priority,
		Notes:       in.Notes,
	}
	order.ApplyPayload(in.Payload)

	if err := orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	event := domain.OrderCreated{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Type:       order.Type,
		At:         s.now(),
	}
	if err := s.dispatch(ctx, tx, event); err != nil {
		return nil, err
	}
	return order, nil
}

// afterCreate runs once the creating transaction has committed
func (s *OrderService) afterCreate(ctx context.Context, order *domain.Order) {
	if order.Type == domain.OrderTypeSales {
		s.ledger.InvalidateItem(ctx, order.ItemName, order.Brand)
	}
	s.invalidateOrderReadModels(ctx, order.Type)

	s.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("type", string(order.Type)),
		zap.String("customer_id", order.CustomerID.String()))
}

func (s *OrderService) invalidateOrderReadModels(ctx context.Context, kind domain.OrderType) {
	keys := []string{cache.KeyDashboard}
	if kind == domain.OrderTypeConsultation {
		keys = append(keys, cache.KeyInquiryStats)
	}
	if err := s.store.Invalidate(ctx, keys...); err != nil {
		s.logger.Warn("failed to invalidate order read-models", zap.Error(err))
	}
}

// Transition moves an order to target and applies the side effects of
// entering that state. Timestamps are only ever set, never cleared.
func (s *OrderService) Transition(ctx context.Context, id uuid.UUID, target domain.OrderStatus) (*domain.OrderDTO, error) {
	if err := s.transition(ctx, id, target, nil); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Assign sets the assignee. An order still in created moves to assigned;
// orders already assigned or in progress only change hands.
func (s *OrderService) Assign(ctx context.Context, id, userID uuid.UUID) (*domain.OrderDTO, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		v := domain.NewValidationError()
		v.Add("user_id", "User is inactive")
		return nil, v
	}

	if err := s.transition(ctx, id, domain.OrderStatusAssigned, &userID); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *OrderService) transition(ctx context.Context, id uuid.UUID, target domain.OrderStatus, assignee *uuid.UUID) error {
	var (
		order     *domain.Order
		from      domain.OrderStatus
		restocked bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		var err error
		order, err = orderRepo.GetForUpdate(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return domain.ErrOrderNotFound
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}
		from = order.Status

		now := s.now()
		fields := map[string]interface{}{"updated_at": now}

		reassignOnly := assignee != nil &&
			(order.Status == domain.OrderStatusAssigned || order.Status == domain.OrderStatusInProgress)
		if assignee != nil {
			fields["assigned_to"] = *assignee
		}

		if !reassignOnly {
			if err := order.Status.ValidateTransition(target); err != nil {
				return err
			}
			fields["status"] = target

			switch target {
			case domain.OrderStatusAssigned:
				fields["assigned_at"] = now
			case domain.OrderStatusInProgress:
				fields["started_at"] = now
			case domain.OrderStatusCompleted:
				fields["completed_at"] = now
				if order.StartedAt != nil {
					fields["actual_duration"] = elapsedMinutes(*order.StartedAt, now)
				}
			case domain.OrderStatusCancelled:
				fields["cancelled_at"] = now
				restocked, err = s.restock(ctx, tx, order)
				if err != nil {
					return err
				}
			}
		}

		if err := orderRepo.UpdateFields(ctx, order, fields); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		if !reassignOnly && target == domain.OrderStatusCompleted {
			return s.dispatch(ctx, tx, domain.OrderCompleted{
				OrderID:    order.ID,
				CustomerID: order.CustomerID,
				At:         now,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	if restocked {
		s.ledger.InvalidateItem(ctx, order.ItemName, order.Brand)
	}
	s.invalidateOrderReadModels(ctx, order.Type)

	s.logger.Info("order status changed",
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(target)))
	return nil
}

// restock returns the quantity of a cancelled sales order. A missing stock row
// does not block the cancellation.
func (s *OrderService) restock(ctx context.Context, tx *gorm.DB, order *domain.Order) (bool, error) {
	qty := order.SalesQuantity()
	if qty <= 0 || order.ItemName == "" || order.Brand == "" {
		return false, nil
	}

	err := s.ledger.Restock(ctx, tx, order.ItemName, order.Brand, qty)
	if errors.Is(err, domain.ErrInventoryItemNotFound) {
		s.logger.Warn("restock skipped, inventory item no longer exists",
			zap.String("order_number", order.OrderNumber),
			zap.String("item", order.ItemName),
			zap.String("brand", order.Brand))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// elapsedMinutes is floor((to - from) / 1 minute)
func elapsedMinutes(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Minutes()))
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	dto := mapper.ToOrderDTO(order)
	return &dto, nil
}

func (s *OrderService) List(ctx context.Context, page, pageSize int, filter repository.OrderFilter, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.ClampPagination(page, pageSize)

	orders, total, err := s.orderRepo.List(ctx, page, pageSize, filter, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return domain.NewPaginatedResponse(mapper.ToOrderDTOs(orders), total, page, pageSize), nil
}

// Recent returns the newest orders that are not completed
func (s *OrderService) Recent(ctx context.Context, limit int) ([]domain.OrderDTO, error) {
	if limit <= 0 || limit > repository.MaxPageSize {
		limit = 10
	}
	orders, err := s.orderRepo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent orders: %w", err)
	}
	return mapper.ToOrderDTOs(orders), nil
}
