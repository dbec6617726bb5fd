package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/repository"
	"github.com/superdoll/tracker-api/internal/service"
	"go.uber.org/zap"
)

const defaultRecentLimit = 10

type OrderHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

func NewOrderHandler(orderService *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// orderFilterFromQuery reads status, type, priority and q. Unknown enum
// values are ignored.
func orderFilterFromQuery(r *http.Request) repository.OrderFilter {
	q := r.URL.Query()
	var filter repository.OrderFilter
	for _, part := range strings.Split(q.Get("status"), ",") {
		if s := domain.OrderStatus(strings.TrimSpace(part)); s.IsValid() {
			filter.Statuses = append(filter.Statuses, s)
		}
	}
	if t := domain.OrderType(q.Get("type")); t.IsValid() {
		filter.Type = t
	}
	if p := domain.OrderPriority(q.Get("priority")); p.IsValid() {
		filter.Priority = p
	}
	filter.Search = strings.TrimSpace(q.Get("q"))
	return filter
}

// List godoc
// @Summary List orders
// @Tags Orders
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Comma-separated statuses"
// @Param type query string false "Order kind" Enums(service, sales, consultation)
// @Param priority query string false "Priority" Enums(low, medium, high, urgent)
// @Param q query string false "Order number, customer name, phone or item"
// @Param sortBy query string false "Sort field" Enums(createdAt, updatedAt, status, priority, type, orderNumber, completedAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.OrderDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders [get]
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	result, err := h.orderService.List(r.Context(), page, pageSize, orderFilterFromQuery(r), sortParams(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list orders")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Recent godoc
// @Summary Recent open orders
// @Tags Orders
// @Produce json
// @Param limit query int false "Maximum orders" default(10)
// @Success 200 {array} domain.OrderDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/recent [get]
func (h *OrderHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = defaultRecentLimit
	}
	orders, err := h.orderService.Recent(r.Context(), limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list recent orders")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GetByID godoc
// @Summary Get order
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Success 200 {object} domain.OrderDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id} [get]
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "order")
	if !ok {
		return
	}
	order, err := h.orderService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get order")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// UpdateStatus godoc
// @Summary Move an order through its lifecycle
// @Description Only forward moves and cancellation of open orders are allowed. Cancelling a sales order restocks it.
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Param request body domain.UpdateOrderStatusRequest true "Target status"
// @Success 200 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "order")
	if !ok {
		return
	}
	var req domain.UpdateOrderStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if !req.Status.IsValid() {
		respondFieldErrors(w, map[string]string{"status": "Invalid status"})
		return
	}
	order, err := h.orderService.Transition(r.Context(), id, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update order status")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Assign godoc
// @Summary Assign an order to a staff member
// @Description Created orders move to assigned; already assigned or running orders are reassigned
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Param request body domain.AssignOrderRequest true "Assignee"
// @Success 200 {object} domain.OrderDTO
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/assign [put]
func (h *OrderHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "order")
	if !ok {
		return
	}
	var req domain.AssignOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	order, err := h.orderService.Assign(r.Context(), id, req.UserID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to assign order")
		return
	}
	respondJSON(w, http.StatusOK, order)
}
