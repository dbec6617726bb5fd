package handler

import (
	"net/http"
	"strings"

	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/service"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	inventoryService *service.InventoryService
	logger           *zap.Logger
}

func NewInventoryHandler(inventoryService *service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// List godoc
// @Summary List inventory rows
// @Tags Inventory
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param q query string false "Name or brand"
// @Param sortBy query string false "Sort field" Enums(createdAt, name, brand, quantity, price)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.InventoryItemDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inventory [get]
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	result, err := h.inventoryService.List(r.Context(), page, pageSize, strings.TrimSpace(r.URL.Query().Get("q")), sortParams(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list inventory")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create inventory row
// @Tags Inventory
// @Accept json
// @Produce json
// @Param request body domain.CreateInventoryItemRequest true "Inventory data"
// @Success 201 {object} domain.InventoryItemDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inventory [post]
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInventoryItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	item, err := h.inventoryService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create inventory item")
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// GetByID godoc
// @Summary Get inventory row
// @Tags Inventory
// @Produce json
// @Param id path string true "Item ID" format(uuid)
// @Success 200 {object} domain.InventoryItemDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inventory/{id} [get]
func (h *InventoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "inventory item")
	if !ok {
		return
	}
	item, err := h.inventoryService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get inventory item")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Update godoc
// @Summary Update inventory row
// @Tags Inventory
// @Accept json
// @Produce json
// @Param id path string true "Item ID" format(uuid)
// @Param request body domain.UpdateInventoryItemRequest true "Inventory data"
// @Success 200 {object} domain.InventoryItemDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inventory/{id} [put]
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "inventory item")
	if !ok {
		return
	}
	var req domain.UpdateInventoryItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	item, err := h.inventoryService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update inventory item")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Delete godoc
// @Summary Delete inventory row
// @Tags Inventory
// @Param id path string true "Item ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inventory/{id} [delete]
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "inventory item")
	if !ok {
		return
	}
	if err := h.inventoryService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete inventory item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Items godoc
// @Summary Stock per item name
// @Tags Inventory
// @Produce json
// @Success 200 {array} domain.InventoryNameSummaryDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inventory/items [get]
func (h *InventoryHandler) Items(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventoryService.Items(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list inventory items")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// Brands godoc
// @Summary Brands stocked for an item
// @Tags Inventory
// @Produce json
// @Param name query string true "Item name"
// @Success 200 {array} domain.InventoryBrandSummaryDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inventory/brands [get]
func (h *InventoryHandler) Brands(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'name' is required")
		return
	}
	brands, err := h.inventoryService.Brands(r.Context(), name)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list brands")
		return
	}
	respondJSON(w, http.StatusOK, brands)
}

// Stock godoc
// @Summary Available quantity
// @Description Summed over all brands when brand is empty
// @Tags Inventory
// @Produce json
// @Param name query string true "Item name"
// @Param brand query string false "Brand"
// @Success 200 {object} domain.InventoryStockDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inventory/stock [get]
func (h *InventoryHandler) Stock(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'name' is required")
		return
	}
	stock, err := h.inventoryService.Stock(r.Context(), name, strings.TrimSpace(r.URL.Query().Get("brand")))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get stock")
		return
	}
	respondJSON(w, http.StatusOK, stock)
}

// Adjust godoc
// @Summary Adjust stock
// @Description Adds delta to the (name, brand) row. Negative deltas clamp at zero.
// @Tags Inventory
// @Accept json
// @Produce json
// @Param request body domain.AdjustInventoryRequest true "Adjustment"
// @Success 200 {object} domain.AdjustResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inventory/adjust [post]
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req domain.AdjustInventoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.inventoryService.Adjust(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to adjust stock")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
