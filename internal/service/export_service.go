package service

import (
	"context"

	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/repository"
)

const exportBatchSize = 500

// ExportService streams rows for tabular exports. It does no formatting.
type ExportService struct {
	orderRepo    *repository.OrderRepository
	customerRepo *repository.CustomerRepository
}

func NewExportService(orderRepo *repository.OrderRepository, customerRepo *repository.CustomerRepository) *ExportService {
	return &ExportService{orderRepo: orderRepo, customerRepo: customerRepo}
}

// EachOrder calls fn for every order matching filter, customer preloaded.
// Iteration stops at the first error fn returns.
func (s *ExportService) EachOrder(ctx context.Context, filter repository.OrderFilter, fn func(*domain.Order) error) error {
	return s.orderRepo.EachBatch(ctx, filter, exportBatchSize, func(batch []domain.Order) error {
		for i := range batch {
			if err := fn(&batch[i]); err != nil {
				return err
			}
		}
		return ctx.Err()
	})
}

// EachCustomer calls fn for every customer matching filter
func (s *ExportService) EachCustomer(ctx context.Context, filter repository.CustomerFilter, fn func(*domain.Customer) error) error {
	return s.customerRepo.EachBatch(ctx, filter, exportBatchSize, func(batch []domain.Customer) error {
		for i := range batch {
			if err := fn(&batch[i]); err != nil {
				return err
			}
		}
		return ctx.Err()
	})
}
