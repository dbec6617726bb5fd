package service

import (
	"context"
	"fmt"

	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/repository"
	"gorm.io/gorm"
)

// OrderEventHandler consumes order events inside the transaction that raised them.
// Returning an error rolls the whole write back.
type OrderEventHandler interface {
	Handle(ctx context.Context, tx *gorm.DB, event domain.OrderEvent) error
}

// CustomerVisitHandler keeps the customer's visit counters and status in step with its orders
type CustomerVisitHandler struct {
	customerRepo *repository.CustomerRepository
}

func NewCustomerVisitHandler(customerRepo *repository.CustomerRepository) *CustomerVisitHandler {
	return &CustomerVisitHandler{customerRepo: customerRepo}
}

func (h *CustomerVisitHandler) Handle(ctx context.Context, tx *gorm.DB, event domain.OrderEvent) error {
	repo := h.customerRepo.WithTx(tx)
	switch e := event.(type) {
	case domain.OrderCreated:
		if err := repo.RecordVisit(ctx, e.CustomerID, e.At); err != nil {
			return fmt.Errorf("failed to record customer visit: %w", err)
		}
	case domain.OrderCompleted:
		if err := repo.MarkCompleted(ctx, e.CustomerID, e.At); err != nil {
			return fmt.Errorf("failed to mark customer completed: %w", err)
		}
	}
	return nil
}
