package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegistrationOutcome is the result of one wizard step. State is always the
// state the caller should keep: advanced on success, unchanged on failure.
type RegistrationOutcome struct {
	State    domain.RegistrationState
	Done     bool
	Customer *domain.Customer
	Vehicle  *domain.Vehicle
	Order    *domain.Order
}

// RegistrationService drives the four-step customer registration wizard.
// Nothing is persisted before the final step except the explicit save-now shortcut.
type RegistrationService struct {
	db        *gorm.DB
	customers *CustomerService
	orders    *OrderService
	inventory *repository.InventoryRepository
	vehicles  *repository.VehicleRepository
	logger    *zap.Logger
}

func NewRegistrationService(
	db *gorm.DB,
	customers *CustomerService,
	orders *OrderService,
	inventory *repository.InventoryRepository,
	vehicles *repository.VehicleRepository,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		db:        db,
		customers: customers,
		orders:    orders,
		inventory: inventory,
		vehicles:  vehicles,
		logger:    logger,
	}
}

func fieldError(field, message string) error {
	v := domain.NewValidationError()
	v.Add(field, message)
	return v
}

// SubmitCustomer stages the customer's contact details, or with saveNow
// creates a bare customer and ends the wizard.
func (s *RegistrationService) SubmitCustomer(ctx context.Context, state domain.RegistrationState, req *domain.RegistrationCustomerRequest) (RegistrationOutcome, error) {
	unchanged := RegistrationOutcome{State: state}

	data := domain.CustomerStepData{
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
		Email:    strings.TrimSpace(req.Email),
		Address:  strings.TrimSpace(req.Address),
		Notes:    strings.TrimSpace(req.Notes),
	}
	v := domain.NewValidationError()
	if data.FullName == "" {
		v.Add("full_name", "This field is required")
	}
	if data.Phone == "" {
		v.Add("phone", "This field is required")
	}
	if err := v.OrNil(); err != nil {
		return unchanged, err
	}

	if req.SaveNow {
		customer := &domain.Customer{
			FullName: data.FullName,
			Phone:    data.Phone,
			Email:    data.Email,
			Address:  data.Address,
			Notes:    data.Notes,
		}
		if err := s.customers.create(ctx, customer); err != nil {
			return unchanged, err
		}
		return RegistrationOutcome{
			State:    domain.NewRegistrationState(),
			Done:     true,
			Customer: customer,
		}, nil
	}

	next := state
	next.Customer = &data
	next.Step = domain.StepIntent
	return RegistrationOutcome{State: next}, nil
}

// SubmitIntent records what the customer came for. Inquiries skip the selection step.
func (s *RegistrationService) SubmitIntent(_ context.Context, state domain.RegistrationState, intent domain.RegistrationIntent) (RegistrationOutcome, error) {
	unchanged := RegistrationOutcome{State: state}
	if state.Customer == nil {
		return unchanged, fieldError("step", "Customer details must be submitted first")
	}
	if !intent.IsValid() {
		return unchanged, fieldError("intent", "Must be one of service, sales, inquiry")
	}

	next := state
	next.Intent = &intent
	next.Selection = nil
	if intent == domain.IntentInquiry {
		next.Step = domain.StepDetails
	} else {
		next.Step = domain.StepSelection
	}
	return RegistrationOutcome{State: next}, nil
}

// SubmitSelection records the service sub-types or the sales sub-type
func (s *RegistrationService) SubmitSelection(_ context.Context, state domain.RegistrationState, req *domain.RegistrationSelectionRequest) (RegistrationOutcome, error) {
	unchanged := RegistrationOutcome{State: state}
	if state.Customer == nil || state.Intent == nil {
		return unchanged, fieldError("step", "Intent must be submitted first")
	}

	selection := domain.SelectionStepData{}
	switch *state.Intent {
	case domain.IntentService:
		if len(req.Services) == 0 {
			return unchanged, fieldError("services", "Select at least one service")
		}
		for _, svc := range req.Services {
			if !slices.Contains(domain.ServiceOptions, svc) {
				return unchanged, fieldError("services", fmt.Sprintf("Unknown service %q", svc))
			}
		}
		selection.Services = slices.Clone(req.Services)
	case domain.IntentSales:
		if !slices.Contains(domain.SalesOptions, req.SalesType) {
			return unchanged, fieldError("sales_type", "Select what is being sold")
		}
		selection.SalesType = req.SalesType
	default:
		return unchanged, fieldError("step", "Inquiries have no selection step")
	}

	next := state
	next.Selection = &selection
	next.Step = domain.StepDetails
	return RegistrationOutcome{State: next}, nil
}

// Complete validates classification and order details, checks stock for sales,
// then writes the customer, optional vehicle and order in one transaction.
func (s *RegistrationService) Complete(ctx context.Context, state domain.RegistrationState, req *domain.RegistrationCompleteRequest) (RegistrationOutcome, error) {
	unchanged := RegistrationOutcome{State: state}
	if state.Step != domain.StepDetails || state.Customer == nil || state.Intent == nil {
		return unchanged, fieldError("step", "Previous steps are incomplete")
	}

	v := domain.NewValidationError()
	v.Merge(ValidateClassification(req.CustomerType, req.OrganizationName, req.TaxNumber, req.PersonalSubtype))

	var services []string
	if state.Selection != nil {
		services = state.Selection.Services
	}
	kind := state.Intent.OrderType()
	payload, err := req.OrderPayloadRequest.ToPayload(kind, services)
	if err != nil {
		v.Merge(err)
	} else {
		v.Merge(payload.Validate())
	}
	if err := v.OrNil(); err != nil {
		return unchanged, err
	}

	if sales, ok := payload.(domain.SalesPayload); ok {
		if err := s.checkStock(ctx, sales); err != nil {
			return unchanged, err
		}
	}

	staged := state.Customer
	customer := &domain.Customer{
		FullName:         staged.FullName,
		Phone:            staged.Phone,
		Email:            staged.Email,
		Address:          staged.Address,
		Notes:            staged.Notes,
		CustomerType:     req.CustomerType,
		OrganizationName: strings.TrimSpace(req.OrganizationName),
		TaxNumber:        strings.TrimSpace(req.TaxNumber),
		PersonalSubtype:  req.PersonalSubtype,
	}
	if !req.CustomerType.IsOrganization() {
		customer.OrganizationName = ""
		customer.TaxNumber = ""
	}
	if req.CustomerType != domain.CustomerTypePersonal {
		customer.PersonalSubtype = ""
	}

	var (
		vehicle *domain.Vehicle
		order   *domain.Order
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.customers.insertInTx(ctx, tx, customer); err != nil {
			return err
		}

		in := NewOrder{
			CustomerID: customer.ID,
			Payload:    payload,
			Priority:   req.Priority,
			Notes:      req.Notes,
		}
		if !req.Vehicle.IsEmpty() {
			vehicle = vehicleFromRequest(customer.ID, &req.Vehicle)
			if err := s.vehicles.WithTx(tx).Create(ctx, vehicle); err != nil {
				return fmt.Errorf("failed to create vehicle: %w", err)
			}
			in.VehicleID = &vehicle.ID
		}

		var err error
		order, err = s.orders.createInTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return unchanged, err
	}

	s.customers.invalidate(ctx)
	s.orders.afterCreate(ctx, order)
	s.logger.Info("registration completed",
		zap.String("customer_code", customer.Code),
		zap.String("order_number", order.OrderNumber))

	return RegistrationOutcome{
		State:    domain.NewRegistrationState(),
		Done:     true,
		Customer: customer,
		Vehicle:  vehicle,
		Order:    order,
	}, nil
}

// checkStock is the pre-write availability check with user-facing messages.
// The transaction repeats the check under a row lock.
func (s *RegistrationService) checkStock(ctx context.Context, sales domain.SalesPayload) error {
	name := strings.TrimSpace(sales.ItemName)
	brand := strings.TrimSpace(sales.Brand)

	item, err := s.inventory.GetByKey(ctx, name, brand)
	if err != nil {
		if repository.IsNotFound(err) {
			return fieldError("item_name", "Item not found in inventory")
		}
		return fmt.Errorf("failed to check stock: %w", err)
	}
	if item.Quantity < sales.Quantity {
		stock := &domain.InsufficientStockError{Name: name, Brand: brand, Requested: sales.Quantity, Available: item.Quantity}
		return fieldError("quantity", stock.Error())
	}
	return nil
}
