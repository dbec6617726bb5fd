package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/superdoll/tracker-api/internal/cache"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/mapper"
	"github.com/superdoll/tracker-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	customerDetailOrderLimit = 20
	customerSearchOrderLimit = 5
	customerSearchLimit      = 10
)

type CustomerService struct {
	db           *gorm.DB
	customerRepo *repository.CustomerRepository
	vehicleRepo  *repository.VehicleRepository
	orderRepo    *repository.OrderRepository
	store        cache.Store
	newCode      CodeGenerator
	now          func() time.Time
	logger       *zap.Logger
}

func NewCustomerService(
	db *gorm.DB,
	customerRepo *repository.CustomerRepository,
	vehicleRepo *repository.VehicleRepository,
	orderRepo *repository.OrderRepository,
	store cache.Store,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		db:           db,
		customerRepo: customerRepo,
		vehicleRepo:  vehicleRepo,
		orderRepo:    orderRepo,
		store:        store,
		newCode:      RandomHexCode,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
}

// ValidateClassification checks the organization and personal fields required by ct
func ValidateClassification(ct domain.CustomerType, organizationName, taxNumber string, subtype domain.PersonalSubtype) error {
	v := domain.NewValidationError()
	if !ct.IsValid() {
		v.Add("customer_type", "Must be one of personal, company, government, ngo, bodaboda")
		return v
	}
	if ct.IsOrganization() {
		if strings.TrimSpace(organizationName) == "" {
			v.Add("organization_name", "Organization name is required for this customer type")
		}
		if strings.TrimSpace(taxNumber) == "" {
			v.Add("tax_number", "Tax number is required for this customer type")
		}
	}
	if ct == domain.CustomerTypePersonal {
		if subtype == "" {
			v.Add("personal_subtype", "Please specify if you are the owner or driver")
		} else if !subtype.IsValid() {
			v.Add("personal_subtype", "Must be one of owner, driver")
		}
	}
	return v.OrNil()
}

// insertInTx assigns a unique code and writes customer within tx
func (s *CustomerService) insertInTx(ctx context.Context, tx *gorm.DB, customer *domain.Customer) error {
	repo := s.customerRepo.WithTx(tx)
	code, err := uniqueCode(ctx, CustomerCodePrefix, s.newCode, repo.CodeExists)
	if err != nil {
		return err
	}

	now := s.now()
	customer.Code = code
	if customer.CustomerType == "" {
		customer.CustomerType = domain.CustomerTypePersonal
	}
	if customer.CurrentStatus == "" {
		customer.CurrentStatus = domain.CustomerStatusArrived
	}
	if customer.RegistrationDate.IsZero() {
		customer.RegistrationDate = now
	}
	if customer.ArrivalTime == nil {
		customer.ArrivalTime = &now
	}
	if customer.TotalSpent.IsZero() {
		customer.TotalSpent = decimal.Zero
	}

	if err := repo.Create(ctx, customer); err != nil {
		if repository.IsUniqueViolation(err) {
			return fmt.Errorf("failed to create customer, code %s already in use: %w", code, err)
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (s *CustomerService) create(ctx context.Context, customer *domain.Customer) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.insertInTx(ctx, tx, customer)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.Info("customer created", zap.String("code", customer.Code))
	return nil
}

func (s *CustomerService) invalidate(ctx context.Context) {
	if err := s.store.Invalidate(ctx, cache.KeyDashboard); err != nil {
		s.logger.Warn("failed to invalidate dashboard", zap.Error(err))
	}
}

func profileFromRequest(req *domain.CustomerProfileRequest) *domain.Customer {
	return &domain.Customer{
		FullName:         strings.TrimSpace(req.FullName),
		Phone:            strings.TrimSpace(req.Phone),
		Email:            strings.TrimSpace(req.Email),
		Address:          req.Address,
		Notes:            req.Notes,
		CustomerType:     req.CustomerType,
		OrganizationName: strings.TrimSpace(req.OrganizationName),
		TaxNumber:        strings.TrimSpace(req.TaxNumber),
		PersonalSubtype:  req.PersonalSubtype,
	}
}

// Create is the quick-create path. Phone numbers must be unused. The
// classification is only checked when a customer type is supplied.
func (s *CustomerService) Create(ctx context.Context, req *domain.CustomerProfileRequest) (*domain.CustomerDTO, error) {
	customer := profileFromRequest(req)
	if req.CustomerType != "" {
		if err := ValidateClassification(req.CustomerType, req.OrganizationName, req.TaxNumber, req.PersonalSubtype); err != nil {
			return nil, err
		}
	}

	taken, err := s.customerRepo.PhoneExists(ctx, customer.Phone, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}
	if taken {
		return nil, domain.ErrDuplicatePhone
	}

	if err := s.create(ctx, customer); err != nil {
		return nil, err
	}
	dto := mapper.ToCustomerDTO(customer)
	return &dto, nil
}

// GetByID returns the customer with vehicles and latest orders
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*domain.CustomerWithDetailsDTO, error) {
	customer, err := s.getCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	dto, err := s.details(ctx, customer, customerDetailOrderLimit)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *CustomerService) getCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func (s *CustomerService) details(ctx context.Context, customer *domain.Customer, orderLimit int) (domain.CustomerWithDetailsDTO, error) {
	vehicles, err := s.vehicleRepo.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return domain.CustomerWithDetailsDTO{}, fmt.Errorf("failed to list vehicles: %w", err)
	}
	orders, err := s.orderRepo.ListByCustomer(ctx, customer.ID, orderLimit)
	if err != nil {
		return domain.CustomerWithDetailsDTO{}, fmt.Errorf("failed to list orders: %w", err)
	}
	return mapper.ToCustomerWithDetailsDTO(customer, vehicles, orders), nil
}

// Update edits the profile and classification. Code and visit counters are untouched.
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req *domain.CustomerProfileRequest) (*domain.CustomerDTO, error) {
	customer, err := s.getCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	ct := req.CustomerType
	if ct == "" {
		ct = customer.CustomerType
	}
	if err := ValidateClassification(ct, req.OrganizationName, req.TaxNumber, req.PersonalSubtype); err != nil {
		return nil, err
	}

	profile := profileFromRequest(req)
	taken, err := s.customerRepo.PhoneExists(ctx, profile.Phone, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}
	if taken {
		return nil, domain.ErrDuplicatePhone
	}

	customer.FullName = profile.FullName
	customer.Phone = profile.Phone
	customer.Email = profile.Email
	customer.Address = profile.Address
	customer.Notes = profile.Notes
	customer.CustomerType = ct
	customer.OrganizationName = profile.OrganizationName
	customer.TaxNumber = profile.TaxNumber
	customer.PersonalSubtype = profile.PersonalSubtype
	if !ct.IsOrganization() {
		customer.OrganizationName = ""
		customer.TaxNumber = ""
	}
	if ct != domain.CustomerTypePersonal {
		customer.PersonalSubtype = ""
	}
	customer.UpdatedAt = s.now()

	if err := s.customerRepo.UpdateProfile(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	dto := mapper.ToCustomerDTO(customer)
	return &dto, nil
}

// Delete removes the customer together with its vehicles and orders
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.getCustomer(ctx, id); err != nil {
		return err
	}
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *CustomerService) List(ctx context.Context, page, pageSize int, filter repository.CustomerFilter, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.ClampPagination(page, pageSize)
	customers, total, err := s.customerRepo.List(ctx, page, pageSize, filter, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return domain.NewPaginatedResponse(mapper.ToCustomerDTOs(customers), total, page, pageSize), nil
}

// Search finds customers by name, phone, email or code and returns each with
// its vehicles and latest orders
func (s *CustomerService) Search(ctx context.Context, q string) ([]domain.CustomerWithDetailsDTO, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.CustomerWithDetailsDTO{}, nil
	}

	customers, err := s.customerRepo.Search(ctx, q, customerSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}

	results := make([]domain.CustomerWithDetailsDTO, 0, len(customers))
	for i := range customers {
		dto, err := s.details(ctx, &customers[i], customerSearchOrderLimit)
		if err != nil {
			return nil, err
		}
		results = append(results, dto)
	}
	return results, nil
}

func (s *CustomerService) AddVehicle(ctx context.Context, customerID uuid.UUID, req *domain.CreateVehicleRequest) (*domain.VehicleDTO, error) {
	if _, err := s.getCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		v := domain.NewValidationError()
		v.Add("plate_number", "Provide at least one vehicle detail")
		return nil, v
	}

	vehicle := vehicleFromRequest(customerID, req)
	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}
	dto := mapper.ToVehicleDTO(vehicle)
	return &dto, nil
}

func vehicleFromRequest(customerID uuid.UUID, req *domain.CreateVehicleRequest) *domain.Vehicle {
	return &domain.Vehicle{
		CustomerID:  customerID,
		PlateNumber: strings.ToUpper(strings.TrimSpace(req.PlateNumber)),
		Make:        strings.TrimSpace(req.Make),
		Model:       strings.TrimSpace(req.Model),
		VehicleType: req.VehicleType,
	}
}

func (s *CustomerService) ListVehicles(ctx context.Context, customerID uuid.UUID) ([]domain.VehicleDTO, error) {
	if _, err := s.getCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	vehicles, err := s.vehicleRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	dtos := make([]domain.VehicleDTO, len(vehicles))
	for i := range vehicles {
		dtos[i] = mapper.ToVehicleDTO(&vehicles[i])
	}
	return dtos, nil
}

// Organizations lists company, government and NGO customers with per-type counts
func (s *CustomerService) Organizations(ctx context.Context, page, pageSize int, search string) (*domain.OrganizationsDTO, error) {
	page, pageSize = repository.ClampPagination(page, pageSize)
	filter := repository.CustomerFilter{Search: search, Types: domain.OrganizationTypes}

	customers, total, err := s.customerRepo.List(ctx, page, pageSize, filter, repository.SortConfig{Field: "fullName", Order: repository.SortOrderAsc})
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	counts, err := s.customerRepo.CountByType(ctx, domain.OrganizationTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to count organizations: %w", err)
	}
	for _, t := range domain.OrganizationTypes {
		if _, ok := counts[t]; !ok {
			counts[t] = 0
		}
	}

	return &domain.OrganizationsDTO{
		Customers:  mapper.ToCustomerDTOs(customers),
		TypeCounts: counts,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}
