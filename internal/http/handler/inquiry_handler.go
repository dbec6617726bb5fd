package handler

import (
	"net/http"

	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/repository"
	"github.com/superdoll/tracker-api/internal/service"
	"go.uber.org/zap"
)

type InquiryHandler struct {
	inquiryService *service.InquiryService
	logger         *zap.Logger
}

func NewInquiryHandler(inquiryService *service.InquiryService, logger *zap.Logger) *InquiryHandler {
	return &InquiryHandler{
		inquiryService: inquiryService,
		logger:         logger,
	}
}

// List godoc
// @Summary List inquiries
// @Description Consultation orders, newest first, 12 per page by default
// @Tags Inquiries
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(12)
// @Param inquiryType query string false "Inquiry type"
// @Param status query string false "Status" Enums(created, in_progress, completed)
// @Param followUp query string false "Follow-up filter" Enums(required, overdue)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.OrderDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inquiries [get]
func (h *InquiryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	q := r.URL.Query()

	var filter service.InquiryFilter
	if t := domain.InquiryType(q.Get("inquiryType")); t.IsValid() {
		filter.InquiryType = t
	}
	if s := domain.OrderStatus(q.Get("status")); s.IsValid() {
		filter.Status = s
	}
	switch f := repository.FollowUpFilter(q.Get("followUp")); f {
	case repository.FollowUpRequired, repository.FollowUpOverdue:
		filter.FollowUp = f
	}

	result, err := h.inquiryService.List(r.Context(), page, pageSize, filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list inquiries")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Stats godoc
// @Summary Inquiry counters
// @Tags Inquiries
// @Produce json
// @Success 200 {object} domain.InquiryStatsDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inquiries/stats [get]
func (h *InquiryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.inquiryService.Stats(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get inquiry stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetByID godoc
// @Summary Get inquiry
// @Tags Inquiries
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Success 200 {object} domain.OrderDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inquiries/{id} [get]
func (h *InquiryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "inquiry")
	if !ok {
		return
	}
	inquiry, err := h.inquiryService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get inquiry")
		return
	}
	respondJSON(w, http.StatusOK, inquiry)
}

// Respond godoc
// @Summary Answer an inquiry
// @Description Appends the response to the notes, moves new inquiries to in progress and texts the customer unless sendSms is false. An SMS failure does not fail the request.
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Param request body domain.RespondInquiryRequest true "Response"
// @Success 200 {object} domain.InquiryResponseDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inquiries/{id}/respond [post]
func (h *InquiryHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "inquiry")
	if !ok {
		return
	}
	var req domain.RespondInquiryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	result, err := h.inquiryService.Respond(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to respond to inquiry")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// UpdateStatus godoc
// @Summary Change inquiry status
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param id path string true "Order ID" format(uuid)
// @Param request body domain.UpdateInquiryStatusRequest true "Status"
// @Success 200 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /inquiries/{id}/status [put]
func (h *InquiryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "inquiry")
	if !ok {
		return
	}
	var req domain.UpdateInquiryStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	inquiry, err := h.inquiryService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update inquiry status")
		return
	}
	respondJSON(w, http.StatusOK, inquiry)
}
