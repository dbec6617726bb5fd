package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/superdoll/tracker-api/internal/cache"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdjustStatus is the machine-readable outcome of a stock adjustment
type AdjustStatus string

const (
	AdjustStatusOK       AdjustStatus = "ok"
	AdjustStatusInvalid  AdjustStatus = "invalid"
	AdjustStatusNotFound AdjustStatus = "not_found"
)

// AdjustResult reports what Adjust did
type AdjustResult struct {
	OK        bool
	Status    AdjustStatus
	Remaining int
}

// InventoryLedger owns every stock mutation. Rows are keyed by (name, brand)
// and locked for the duration of each read-modify-write.
type InventoryLedger struct {
	db     *gorm.DB
	repo   *repository.InventoryRepository
	store  cache.Store
	logger *zap.Logger
}

func NewInventoryLedger(db *gorm.DB, repo *repository.InventoryRepository, store cache.Store, logger *zap.Logger) *InventoryLedger {
	return &InventoryLedger{
		db:     db,
		repo:   repo,
		store:  store,
		logger: logger,
	}
}

// Adjust applies delta to the (name, brand) row. The result is clamped at zero:
// over-deduction empties the row and still reports OK.
func (l *InventoryLedger) Adjust(ctx context.Context, name, brand string, delta int) (AdjustResult, error) {
	name = strings.TrimSpace(name)
	brand = strings.TrimSpace(brand)
	if name == "" {
		return AdjustResult{Status: AdjustStatusInvalid}, nil
	}

	result := AdjustResult{Status: AdjustStatusNotFound}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := l.repo.WithTx(tx)
		item, err := repo.GetByKeyForUpdate(ctx, name, brand)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil
			}
			return err
		}

		quantity := item.Quantity + delta
		if quantity < 0 {
			quantity = 0
		}
		if err := repo.SetQuantity(ctx, item, quantity); err != nil {
			return err
		}
		result = AdjustResult{OK: true, Status: AdjustStatusOK, Remaining: quantity}
		return nil
	})
	if err != nil {
		return AdjustResult{}, fmt.Errorf("failed to adjust stock for %s (%s): %w", name, brand, err)
	}

	if result.OK {
		l.InvalidateItem(ctx, name, brand)
	}
	return result, nil
}

// Available sums quantity for name, restricted to brand when brand is non-empty
func (l *InventoryLedger) Available(ctx context.Context, name, brand string) (int, error) {
	name = strings.TrimSpace(name)
	brand = strings.TrimSpace(brand)

	var brandFilter *string
	if brand != "" {
		brandFilter = &brand
	}
	total, err := l.repo.SumQuantity(ctx, name, brandFilter)
	if err != nil {
		return 0, fmt.Errorf("failed to sum stock for %s: %w", name, err)
	}
	return total, nil
}

// Deduct removes qty from the (name, brand) row within tx. Unlike Adjust it
// refuses to oversell. Callers must call InvalidateItem after commit.
func (l *InventoryLedger) Deduct(ctx context.Context, tx *gorm.DB, name, brand string, qty int) error {
	repo := l.repo.WithTx(tx)
	item, err := repo.GetByKeyForUpdate(ctx, name, brand)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.ErrInventoryItemNotFound
		}
		return fmt.Errorf("failed to lock inventory item: %w", err)
	}

	if item.Quantity < qty {
		return &domain.InsufficientStockError{
			Name:      name,
			Brand:     brand,
			Requested: qty,
			Available: item.Quantity,
		}
	}
	if err := repo.SetQuantity(ctx, item, item.Quantity-qty); err != nil {
		return fmt.Errorf("failed to deduct stock: %w", err)
	}
	return nil
}

// Restock returns qty to the (name, brand) row within tx.
// Callers must call InvalidateItem after commit.
func (l *InventoryLedger) Restock(ctx context.Context, tx *gorm.DB, name, brand string, qty int) error {
	repo := l.repo.WithTx(tx)
	item, err := repo.GetByKeyForUpdate(ctx, name, brand)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.ErrInventoryItemNotFound
		}
		return fmt.Errorf("failed to lock inventory item: %w", err)
	}
	if err := repo.SetQuantity(ctx, item, item.Quantity+qty); err != nil {
		return fmt.Errorf("failed to restock: %w", err)
	}
	return nil
}

// InvalidateItem drops every read-model derived from the (name, brand) row
func (l *InventoryLedger) InvalidateItem(ctx context.Context, name, brand string) {
	if err := l.store.Invalidate(ctx, cache.InventoryKeys(name, brand)...); err != nil {
		l.logger.Warn("failed to invalidate inventory read-models",
			zap.String("name", name),
			zap.String("brand", brand),
			zap.Error(err))
	}
}
