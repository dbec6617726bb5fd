package handler

import (
	"context"
	"net/http"

	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/mapper"
	"github.com/superdoll/tracker-api/internal/service"
	"go.uber.org/zap"
)

// RegistrationTokenHeader carries the wizard draft token between steps
const RegistrationTokenHeader = "X-Registration-Token"

type RegistrationHandler struct {
	registrationService *service.RegistrationService
	drafts              *service.RegistrationDraftStore
	logger              *zap.Logger
}

func NewRegistrationHandler(registrationService *service.RegistrationService, drafts *service.RegistrationDraftStore, logger *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: registrationService,
		drafts:              drafts,
		logger:              logger,
	}
}

type registrationStep func(ctx context.Context, state domain.RegistrationState) (service.RegistrationOutcome, error)

// run loads the draft, applies step and stores the resulting state. Finished
// wizards have their draft discarded. Failed steps leave the draft untouched.
func (h *RegistrationHandler) run(w http.ResponseWriter, r *http.Request, step registrationStep) {
	ctx := r.Context()
	token, state, err := h.drafts.Load(ctx, r.Header.Get(RegistrationTokenHeader))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to load registration")
		return
	}

	outcome, err := step(ctx, state)
	if err != nil {
		w.Header().Set(RegistrationTokenHeader, token)
		respondServiceError(w, h.logger, err, "Failed to submit registration step")
		return
	}

	if outcome.Done {
		if err := h.drafts.Discard(ctx, token); err != nil {
			h.logger.Warn("failed to discard registration draft", zap.Error(err))
		}
	} else if err := h.drafts.Save(ctx, token, outcome.State); err != nil {
		respondServiceError(w, h.logger, err, "Failed to save registration")
		return
	}

	status := http.StatusOK
	if outcome.Done {
		status = http.StatusCreated
	}
	w.Header().Set(RegistrationTokenHeader, token)
	respondJSON(w, status, toRegistrationResponse(token, outcome))
}

func toRegistrationResponse(token string, outcome service.RegistrationOutcome) domain.RegistrationResponse {
	resp := domain.RegistrationResponse{
		Token: token,
		State: outcome.State,
		Done:  outcome.Done,
	}
	if outcome.Customer != nil {
		dto := mapper.ToCustomerDTO(outcome.Customer)
		resp.Customer = &dto
	}
	if outcome.Vehicle != nil {
		dto := mapper.ToVehicleDTO(outcome.Vehicle)
		resp.Vehicle = &dto
	}
	if outcome.Order != nil {
		dto := mapper.ToOrderDTO(outcome.Order)
		resp.Order = &dto
	}
	return resp
}

// GetState godoc
// @Summary Current wizard state
// @Description Returns the draft for the token header, or a fresh draft with a new token
// @Tags Registration
// @Produce json
// @Param X-Registration-Token header string false "Draft token"
// @Success 200 {object} domain.RegistrationResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /registration [get]
func (h *RegistrationHandler) GetState(w http.ResponseWriter, r *http.Request) {
	token, state, err := h.drafts.Load(r.Context(), r.Header.Get(RegistrationTokenHeader))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to load registration")
		return
	}
	w.Header().Set(RegistrationTokenHeader, token)
	respondJSON(w, http.StatusOK, domain.RegistrationResponse{Token: token, State: state})
}

// SubmitCustomer godoc
// @Summary Step 1: customer details
// @Description With saveNow the customer is created immediately and the wizard ends
// @Tags Registration
// @Accept json
// @Produce json
// @Param X-Registration-Token header string false "Draft token"
// @Param request body domain.RegistrationCustomerRequest true "Customer details"
// @Success 200 {object} domain.RegistrationResponse
// @Success 201 {object} domain.RegistrationResponse
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /registration/customer [post]
func (h *RegistrationHandler) SubmitCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.run(w, r, func(ctx context.Context, state domain.RegistrationState) (service.RegistrationOutcome, error) {
		return h.registrationService.SubmitCustomer(ctx, state, &req)
	})
}

// SubmitIntent godoc
// @Summary Step 2: visit intent
// @Tags Registration
// @Accept json
// @Produce json
// @Param X-Registration-Token header string true "Draft token"
// @Param request body domain.RegistrationIntentRequest true "Intent"
// @Success 200 {object} domain.RegistrationResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /registration/intent [post]
func (h *RegistrationHandler) SubmitIntent(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationIntentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.run(w, r, func(ctx context.Context, state domain.RegistrationState) (service.RegistrationOutcome, error) {
		return h.registrationService.SubmitIntent(ctx, state, req.Intent)
	})
}

// SubmitSelection godoc
// @Summary Step 3: service or sales sub-types
// @Tags Registration
// @Accept json
// @Produce json
// @Param X-Registration-Token header string true "Draft token"
// @Param request body domain.RegistrationSelectionRequest true "Selection"
// @Success 200 {object} domain.RegistrationResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /registration/selection [post]
func (h *RegistrationHandler) SubmitSelection(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationSelectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.run(w, r, func(ctx context.Context, state domain.RegistrationState) (service.RegistrationOutcome, error) {
		return h.registrationService.SubmitSelection(ctx, state, &req)
	})
}

// Complete godoc
// @Summary Step 4: classification and order details
// @Description Creates the customer, optional vehicle and order in one transaction
// @Tags Registration
// @Accept json
// @Produce json
// @Param X-Registration-Token header string true "Draft token"
// @Param request body domain.RegistrationCompleteRequest true "Details"
// @Success 201 {object} domain.RegistrationResponse
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /registration/complete [post]
func (h *RegistrationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationCompleteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.run(w, r, func(ctx context.Context, state domain.RegistrationState) (service.RegistrationOutcome, error) {
		return h.registrationService.Complete(ctx, state, &req)
	})
}

// Discard godoc
// @Summary Abandon the wizard
// @Tags Registration
// @Param X-Registration-Token header string true "Draft token"
// @Success 204
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /registration [delete]
func (h *RegistrationHandler) Discard(w http.ResponseWriter, r *http.Request) {
	if token := r.Header.Get(RegistrationTokenHeader); token != "" {
		if err := h.drafts.Discard(r.Context(), token); err != nil {
			respondServiceError(w, h.logger, err, "Failed to discard registration")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
