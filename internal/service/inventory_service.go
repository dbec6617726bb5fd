package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/superdoll/tracker-api/internal/cache"
	"github.com/superdoll/tracker-api/internal/config"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/mapper"
	"github.com/superdoll/tracker-api/internal/repository"
	"go.uber.org/zap"
)

// InventoryService manages stock rows and serves the cached stock read-models
type InventoryService struct {
	repo   *repository.InventoryRepository
	ledger *InventoryLedger
	store  cache.Store
	ttl    *config.CacheConfig
	logger *zap.Logger
}

func NewInventoryService(
	repo *repository.InventoryRepository,
	ledger *InventoryLedger,
	store cache.Store,
	ttl *config.CacheConfig,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		repo:   repo,
		ledger: ledger,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *InventoryService) Create(ctx context.Context, req *domain.CreateInventoryItemRequest) (*domain.InventoryItemDTO, error) {
	item := &domain.InventoryItem{
		Name:     strings.TrimSpace(req.Name),
		Brand:    strings.TrimSpace(req.Brand),
		Quantity: req.Quantity,
		Price:    req.Price.Round(2),
	}
	if err := validateInventoryItem(item); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, item); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.ErrDuplicateInventoryItem
		}
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}
	s.ledger.InvalidateItem(ctx, item.Name, item.Brand)

	dto := mapper.ToInventoryItemDTO(item)
	return &dto, nil
}

func validateInventoryItem(item *domain.InventoryItem) error {
	v := domain.NewValidationError()
	if item.Name == "" {
		v.Add("name", "This field is required")
	}
	if item.Quantity < 0 {
		v.Add("quantity", "Quantity cannot be negative")
	}
	if item.Price.IsNegative() {
		v.Add("price", "Price cannot be negative")
	}
	return v.OrNil()
}

func (s *InventoryService) GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItemDTO, error) {
	item, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToInventoryItemDTO(item)
	return &dto, nil
}

func (s *InventoryService) get(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrInventoryItemNotFound
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return item, nil
}

// Update rewrites an item. Read-models of both the old and new key are dropped.
func (s *InventoryService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateInventoryItemRequest) (*domain.InventoryItemDTO, error) {
	item, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldName, oldBrand := item.Name, item.Brand

	item.Name = strings.TrimSpace(req.Name)
	item.Brand = strings.TrimSpace(req.Brand)
	item.Quantity = req.Quantity
	item.Price = req.Price.Round(2)
	if err := validateInventoryItem(item); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, item); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.ErrDuplicateInventoryItem
		}
		return nil, fmt.Errorf("failed to update inventory item: %w", err)
	}
	s.ledger.InvalidateItem(ctx, oldName, oldBrand)
	s.ledger.InvalidateItem(ctx, item.Name, item.Brand)

	dto := mapper.ToInventoryItemDTO(item)
	return &dto, nil
}

func (s *InventoryService) Delete(ctx context.Context, id uuid.UUID) error {
	item, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	s.ledger.InvalidateItem(ctx, item.Name, item.Brand)
	return nil
}

func (s *InventoryService) List(ctx context.Context, page, pageSize int, search string, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.ClampPagination(page, pageSize)
	items, total, err := s.repo.List(ctx, page, pageSize, search, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return domain.NewPaginatedResponse(mapper.ToInventoryItemDTOs(items), total, page, pageSize), nil
}

// Items returns the stock total per item name
func (s *InventoryService) Items(ctx context.Context) ([]domain.InventoryNameSummaryDTO, error) {
	return cache.Remember(ctx, s.store, s.logger, cache.KeyInventoryItems, s.ttl.InventoryItemsTTLDuration(),
		func() ([]domain.InventoryNameSummaryDTO, error) {
			rows, err := s.repo.TotalsByName(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to summarize inventory: %w", err)
			}
			items := make([]domain.InventoryNameSummaryDTO, len(rows))
			for i, row := range rows {
				items[i] = domain.InventoryNameSummaryDTO{Name: row.Name, Quantity: row.Quantity}
			}
			return items, nil
		})
}

// Brands returns the stock total and cheapest price of each brand of name
func (s *InventoryService) Brands(ctx context.Context, name string) ([]domain.InventoryBrandSummaryDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []domain.InventoryBrandSummaryDTO{}, nil
	}
	return cache.Remember(ctx, s.store, s.logger, cache.InventoryBrandsKey(name), s.ttl.InventoryItemsTTLDuration(),
		func() ([]domain.InventoryBrandSummaryDTO, error) {
			rows, err := s.repo.TotalsByBrand(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("failed to summarize brands: %w", err)
			}
			brands := make([]domain.InventoryBrandSummaryDTO, len(rows))
			for i, row := range rows {
				brands[i] = domain.InventoryBrandSummaryDTO{Brand: row.Brand, Quantity: row.Quantity}
				if row.MinPrice.Valid {
					brands[i].Price = row.MinPrice.Decimal.StringFixed(2)
				}
			}
			return brands, nil
		})
}

// Stock returns the available quantity of name, for one brand or all brands
func (s *InventoryService) Stock(ctx context.Context, name, brand string) (*domain.InventoryStockDTO, error) {
	name = strings.TrimSpace(name)
	brand = strings.TrimSpace(brand)
	if name == "" {
		return &domain.InventoryStockDTO{}, nil
	}
	stock, err := cache.Remember(ctx, s.store, s.logger, cache.InventoryStockKey(name, brand), s.ttl.InventoryStockTTLDuration(),
		func() (domain.InventoryStockDTO, error) {
			available, err := s.ledger.Available(ctx, name, brand)
			return domain.InventoryStockDTO{Available: available}, err
		})
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// Adjust is the manual stock correction entry point
func (s *InventoryService) Adjust(ctx context.Context, req *domain.AdjustInventoryRequest) (*domain.AdjustResultDTO, error) {
	result, err := s.ledger.Adjust(ctx, req.Name, req.Brand, req.Delta)
	if err != nil {
		return nil, err
	}
	return &domain.AdjustResultDTO{
		OK:        result.OK,
		Status:    string(result.Status),
		Remaining: result.Remaining,
	}, nil
}
