package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/superdoll/tracker-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository persists stock rows. (name, brand) is unique.
type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) WithTx(tx *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: tx}
}

var inventorySortFields = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"brand":     "brand",
	"quantity":  "quantity",
	"price":     "price",
}

func (r *InventoryRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *InventoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByKey finds the row for an exact (name, brand) match
func (r *InventoryRepository) GetByKey(ctx context.Context, name, brand string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := r.db.WithContext(ctx).
		Where("name = ? AND brand = ?", name, brand).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByKeyForUpdate is GetByKey holding a row lock until the transaction ends
func (r *InventoryRepository) GetByKeyForUpdate(ctx context.Context, name, brand string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ? AND brand = ?", name, brand).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SetQuantity writes the quantity of item
func (r *InventoryRepository) SetQuantity(ctx context.Context, item *domain.InventoryItem, quantity int) error {
	if err := r.db.WithContext(ctx).Model(item).Update("quantity", quantity).Error; err != nil {
		return err
	}
	item.Quantity = quantity
	return nil
}

func (r *InventoryRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	return r.db.WithContext(ctx).Model(item).
		Select("name", "brand", "quantity", "price", "updated_at").
		Updates(item).Error
}

func (r *InventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.InventoryItem{}, "id = ?", id).Error
}

func (r *InventoryRepository) List(ctx context.Context, page, pageSize int, search string, sort SortConfig) ([]domain.InventoryItem, int64, error) {
	var items []domain.InventoryItem
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.InventoryItem{})
	if search != "" {
		p := likePattern(search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ?", p, p)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(query, page, pageSize).
		Order(BuildOrderClause(sort, inventorySortFields, "created_at")).
		Find(&items).Error
	return items, total, err
}

// Latest returns the limit most recently created items
func (r *InventoryRepository) Latest(ctx context.Context, limit int) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&items).Error
	return items, err
}

// SumQuantity sums quantity for name, restricted to brand when brand is non-nil
func (r *InventoryRepository) SumQuantity(ctx context.Context, name string, brand *string) (int, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&domain.InventoryItem{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("name = ?", name)
	if brand != nil {
		query = query.Where("brand = ?", *brand)
	}
	if err := query.Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

// TotalStock sums quantity over every row
func (r *InventoryRepository) TotalStock(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.InventoryItem{}).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

// NameTotal is the stock of one item name across brands
type NameTotal struct {
	Name     string
	Quantity int
}

// TotalsByName sums stock per item name, alphabetically
func (r *InventoryRepository) TotalsByName(ctx context.Context) ([]NameTotal, error) {
	var rows []NameTotal
	err := r.db.WithContext(ctx).Model(&domain.InventoryItem{}).
		Select("name, SUM(quantity) AS quantity").
		Group("name").
		Order("name ASC").
		Scan(&rows).Error
	return rows, err
}

// BrandTotal is the stock and cheapest price of one brand of an item
type BrandTotal struct {
	Brand    string
	Quantity int
	MinPrice decimal.NullDecimal
}

// TotalsByBrand sums stock and finds the minimum price per brand of name
func (r *InventoryRepository) TotalsByBrand(ctx context.Context, name string) ([]BrandTotal, error) {
	var rows []BrandTotal
	err := r.db.WithContext(ctx).Model(&domain.InventoryItem{}).
		Select("brand, SUM(quantity) AS quantity, MIN(price) AS min_price").
		Where("name = ?", name).
		Group("brand").
		Order("brand ASC").
		Scan(&rows).Error
	return rows, err
}
