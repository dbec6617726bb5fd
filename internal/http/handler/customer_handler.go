package handler

import (
	"net/http"
	"strings"

	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/repository"
	"github.com/superdoll/tracker-api/internal/service"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	customerService *service.CustomerService
	orderService    *service.OrderService
	logger          *zap.Logger
}

func NewCustomerHandler(customerService *service.CustomerService, orderService *service.OrderService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		orderService:    orderService,
		logger:          logger,
	}
}

// customerTypes parses a comma-separated type list, dropping unknown values
func customerTypes(raw string) []domain.CustomerType {
	var types []domain.CustomerType
	for _, part := range strings.Split(raw, ",") {
		t := domain.CustomerType(strings.TrimSpace(part))
		if t.IsValid() {
			types = append(types, t)
		}
	}
	return types
}

// List godoc
// @Summary List customers
// @Description Paginated customers, optionally searched by name, phone, email or code
// @Tags Customers
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param q query string false "Search term"
// @Param type query string false "Comma-separated customer types"
// @Param sortBy query string false "Sort field" Enums(createdAt, fullName, registrationDate, lastVisit, totalVisits)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.CustomerDTO}
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers [get]
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	filter := repository.CustomerFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
		Types:  customerTypes(r.URL.Query().Get("type")),
	}

	result, err := h.customerService.List(r.Context(), page, pageSize, filter, sortParams(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list customers")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Search godoc
// @Summary Search customers
// @Description Matching customers with their vehicles and latest orders
// @Tags Customers
// @Produce json
// @Param q query string true "Name, phone, email or code"
// @Success 200 {array} domain.CustomerWithDetailsDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/search [get]
func (h *CustomerHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}
	results, err := h.customerService.Search(r.Context(), q)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to search customers")
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// GetByID godoc
// @Summary Get customer
// @Description Customer with vehicles and the latest orders
// @Tags Customers
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Success 200 {object} domain.CustomerWithDetailsDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id} [get]
func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "customer")
	if !ok {
		return
	}
	customer, err := h.customerService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get customer")
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// Create godoc
// @Summary Quick-create customer
// @Description Registers a customer outside the wizard. Phone numbers must be unused.
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body domain.CustomerProfileRequest true "Customer data"
// @Success 201 {object} domain.CustomerDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers [post]
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CustomerProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	customer, err := h.customerService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create customer")
		return
	}
	respondJSON(w, http.StatusCreated, customer)
}

// Update godoc
// @Summary Update customer profile
// @Description Profile and classification fields; code and visit statistics never change here
// @Tags Customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Param request body domain.CustomerProfileRequest true "Customer data"
// @Success 200 {object} domain.CustomerDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id} [put]
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "customer")
	if !ok {
		return
	}
	var req domain.CustomerProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	customer, err := h.customerService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update customer")
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// Delete godoc
// @Summary Delete customer
// @Description Deletes the customer with its vehicles and orders
// @Tags Customers
// @Param id path string true "Customer ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id} [delete]
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "customer")
	if !ok {
		return
	}
	if err := h.customerService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete customer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Organizations godoc
// @Summary List organization customers
// @Description Company, government and NGO customers with per-type counts
// @Tags Customers
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Param q query string false "Search term"
// @Success 200 {object} domain.OrganizationsDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/organizations [get]
func (h *CustomerHandler) Organizations(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	result, err := h.customerService.Organizations(r.Context(), page, pageSize, strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list organizations")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ListVehicles godoc
// @Summary List customer vehicles
// @Tags Customers
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Success 200 {array} domain.VehicleDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id}/vehicles [get]
func (h *CustomerHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "customer")
	if !ok {
		return
	}
	vehicles, err := h.customerService.ListVehicles(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list vehicles")
		return
	}
	respondJSON(w, http.StatusOK, vehicles)
}

// AddVehicle godoc
// @Summary Add vehicle
// @Tags Customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Param request body domain.CreateVehicleRequest true "Vehicle data"
// @Success 201 {object} domain.VehicleDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id}/vehicles [post]
func (h *CustomerHandler) AddVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "customer")
	if !ok {
		return
	}
	var req domain.CreateVehicleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	vehicle, err := h.customerService.AddVehicle(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to add vehicle")
		return
	}
	respondJSON(w, http.StatusCreated, vehicle)
}

// CreateOrder godoc
// @Summary Open an order for a customer
// @Description Sales orders deduct stock atomically and fail with 409 when stock is short
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Param request body domain.CreateOrderRequest true "Order data"
// @Success 201 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /customers/{id}/orders [post]
func (h *CustomerHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "customer")
	if !ok {
		return
	}
	var req domain.CreateOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	order, err := h.orderService.Create(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create order")
		return
	}
	respondJSON(w, http.StatusCreated, order)
}
