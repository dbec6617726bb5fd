package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/superdoll/tracker-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *CustomerRepository) WithTx(tx *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: tx}
}

// CustomerFilter narrows customer listings
type CustomerFilter struct {
	Search string
	Types  []domain.CustomerType
}

var customerSortFields = map[string]string{
	"createdAt":        "created_at",
	"fullName":         "full_name",
	"registrationDate": "registration_date",
	"lastVisit":        "last_visit",
	"totalVisits":      "total_visits",
	"code":             "code",
}

func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(customer).Error
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var customer domain.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Customer{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// PhoneExists reports whether another customer uses phone. exclude may be uuid.Nil.
func (r *CustomerRepository) PhoneExists(ctx context.Context, phone string, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Customer{}).Where("phone = ?", phone)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// UpdateProfile writes only the editable profile and classification columns.
// Code and visit counters are never touched here.
func (r *CustomerRepository) UpdateProfile(ctx context.Context, customer *domain.Customer) error {
	return r.db.WithContext(ctx).Model(customer).
		Select("full_name", "phone", "email", "address", "notes",
			"customer_type", "organization_name", "tax_number", "personal_subtype", "updated_at").
		Updates(customer).Error
}

// RecordVisit bumps total_visits and sets last_visit
func (r *CustomerRepository) RecordVisit(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Customer{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_visits": gorm.Expr("total_visits + ?", 1),
			"last_visit":   at,
			"updated_at":   at,
		}).Error
}

// MarkCompleted sets the customer's status to completed and last_visit to at
func (r *CustomerRepository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Customer{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_status": domain.CustomerStatusCompleted,
			"last_visit":     at,
			"updated_at":     at,
		}).Error
}

func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Customer{}, "id = ?", id).Error
}

func (r *CustomerRepository) applyFilter(query *gorm.DB, filter CustomerFilter) *gorm.DB {
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(email) LIKE ? OR LOWER(code) LIKE ? OR LOWER(organization_name) LIKE ?",
			p, p, p, p, p)
	}
	if len(filter.Types) > 0 {
		query = query.Where("customer_type IN ?", filter.Types)
	}
	return query
}

func (r *CustomerRepository) List(ctx context.Context, page, pageSize int, filter CustomerFilter, sort SortConfig) ([]domain.Customer, int64, error) {
	var customers []domain.Customer
	var total int64

	query := r.applyFilter(r.db.WithContext(ctx).Model(&domain.Customer{}), filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(query, page, pageSize).
		Order(BuildOrderClause(sort, customerSortFields, "created_at")).
		Find(&customers).Error
	return customers, total, err
}

// Search returns up to limit customers matching q, most recently visited first
func (r *CustomerRepository) Search(ctx context.Context, q string, limit int) ([]domain.Customer, error) {
	var customers []domain.Customer
	err := r.applyFilter(r.db.WithContext(ctx), CustomerFilter{Search: q}).
		Order("last_visit DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&customers).Error
	return customers, err
}

func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Customer{}).Count(&count).Error
	return count, err
}

// CountRegisteredBetween counts customers registered in [from, to)
func (r *CustomerRepository) CountRegisteredBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Customer{}).
		Where("registration_date >= ? AND registration_date < ?", from, to).
		Count(&count).Error
	return count, err
}

// CountByType returns the number of customers per classification
func (r *CustomerRepository) CountByType(ctx context.Context, types []domain.CustomerType) (map[domain.CustomerType]int64, error) {
	var rows []struct {
		CustomerType domain.CustomerType
		Count        int64
	}
	query := r.db.WithContext(ctx).Model(&domain.Customer{}).
		Select("customer_type, COUNT(*) AS count").
		Group("customer_type")
	if len(types) > 0 {
		query = query.Where("customer_type IN ?", types)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make(map[domain.CustomerType]int64, len(rows))
	for _, row := range rows {
		result[row.CustomerType] = row.Count
	}
	return result, nil
}

// EachBatch streams customers matching filter in batches of size
func (r *CustomerRepository) EachBatch(ctx context.Context, filter CustomerFilter, size int, fn func([]domain.Customer) error) error {
	var batch []domain.Customer
	return r.applyFilter(r.db.WithContext(ctx), filter).
		FindInBatches(&batch, size, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}

// FindByIDs loads customers by id, keyed by id
func (r *CustomerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Customer, error) {
	result := make(map[uuid.UUID]domain.Customer, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var customers []domain.Customer
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&customers).Error; err != nil {
		return nil, err
	}
	for _, c := range customers {
		result[c.ID] = c
	}
	return result, nil
}
