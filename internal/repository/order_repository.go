package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/superdoll/tracker-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

// FollowUpFilter selects consultations by follow-up state
type FollowUpFilter string

const (
	FollowUpRequired FollowUpFilter = "required"
	FollowUpOverdue  FollowUpFilter = "overdue"
)

// OrderFilter narrows order listings and aggregates. Zero fields are ignored.
type OrderFilter struct {
	Statuses    []domain.OrderStatus
	Type        domain.OrderType
	Priority    domain.OrderPriority
	CustomerID  *uuid.UUID
	Search      string
	From        *time.Time // created_at >= From
	To          *time.Time // created_at < To
	InquiryType domain.InquiryType
	FollowUp    FollowUpFilter
	// Today is the date compared against follow_up_date for FollowUpOverdue
	Today time.Time
}

var orderSortFields = map[string]string{
	"createdAt":   "orders.created_at",
	"updatedAt":   "orders.updated_at",
	"status":      "orders.status",
	"priority":    "orders.priority",
	"type":        "orders.type",
	"orderNumber": "orders.order_number",
	"completedAt": "orders.completed_at",
}

func (r *OrderRepository) applyFilter(query *gorm.DB, f OrderFilter) *gorm.DB {
	if len(f.Statuses) > 0 {
		query = query.Where("orders.status IN ?", f.Statuses)
	}
	if f.Type != "" {
		query = query.Where("orders.type = ?", f.Type)
	}
	if f.Priority != "" {
		query = query.Where("orders.priority = ?", f.Priority)
	}
	if f.CustomerID != nil {
		query = query.Where("orders.customer_id = ?", *f.CustomerID)
	}
	if f.From != nil {
		query = query.Where("orders.created_at >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("orders.created_at < ?", *f.To)
	}
	if f.InquiryType != "" {
		query = query.Where("orders.inquiry_type = ?", f.InquiryType)
	}
	switch f.FollowUp {
	case FollowUpRequired:
		query = query.Where("orders.follow_up_date IS NOT NULL")
	case FollowUpOverdue:
		query = query.Where("orders.follow_up_date IS NOT NULL AND orders.follow_up_date <= ?", f.Today).
			Where("orders.status NOT IN ?", []domain.OrderStatus{domain.OrderStatusCompleted, domain.OrderStatusCancelled})
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		query = query.Joins("JOIN customers ON customers.id = orders.customer_id").
			Where("LOWER(orders.order_number) LIKE ? OR LOWER(customers.full_name) LIKE ? OR LOWER(customers.phone) LIKE ? OR LOWER(orders.item_name) LIKE ?",
				p, p, p, p)
	}
	return query
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

// GetByID loads the order with customer, vehicle and assignee
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Vehicle").
		Preload("AssignedTo").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetForUpdate loads the bare order row holding a row lock until the transaction ends
func (r *OrderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Order{}).Where("order_number = ?", number).Count(&count).Error
	return count > 0, err
}

// UpdateFields writes the given columns of order
func (r *OrderRepository) UpdateFields(ctx context.Context, order *domain.Order, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(order).Omit(clause.Associations).Updates(fields).Error
}

func (r *OrderRepository) List(ctx context.Context, page, pageSize int, filter OrderFilter, sort SortConfig) ([]domain.Order, int64, error) {
	var orders []domain.Order
	var total int64

	query := r.applyFilter(r.db.WithContext(ctx).Model(&domain.Order{}), filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(query, page, pageSize).
		Preload("Customer").
		Preload("Vehicle").
		Order(BuildOrderClause(sort, orderSortFields, "orders.created_at")).
		Find(&orders).Error
	return orders, total, err
}

// ListByCustomer returns the latest limit orders of a customer
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Vehicle").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// Recent returns the newest orders that are not completed
func (r *OrderRepository) Recent(ctx context.Context, limit int) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Vehicle").
		Where("status <> ?", domain.OrderStatusCompleted).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// ListAll returns up to limit orders matching filter, newest first
func (r *OrderRepository) ListAll(ctx context.Context, filter OrderFilter, limit int) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.applyFilter(r.db.WithContext(ctx).Model(&domain.Order{}), filter).
		Preload("Customer").
		Preload("Vehicle").
		Order("orders.created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) Count(ctx context.Context, filter OrderFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&domain.Order{}), filter).Count(&count).Error
	return count, err
}

func (r *OrderRepository) countGrouped(ctx context.Context, column string, filter OrderFilter) (map[string]int64, error) {
	var rows []struct {
		Grp   string
		Count int64
	}
	err := r.applyFilter(r.db.WithContext(ctx).Model(&domain.Order{}), filter).
		Select("orders." + column + " AS grp, COUNT(*) AS count").
		Group("orders." + column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Grp] = row.Count
	}
	return result, nil
}

// CountByStatus returns order counts per status
func (r *OrderRepository) CountByStatus(ctx context.Context, filter OrderFilter) (map[domain.OrderStatus]int64, error) {
	raw, err := r.countGrouped(ctx, "status", filter)
	if err != nil {
		return nil, err
	}
	result := make(map[domain.OrderStatus]int64, len(raw))
	for k, v := range raw {
		result[domain.OrderStatus(k)] = v
	}
	return result, nil
}

// CountByType returns order counts per kind
func (r *OrderRepository) CountByType(ctx context.Context, filter OrderFilter) (map[domain.OrderType]int64, error) {
	raw, err := r.countGrouped(ctx, "type", filter)
	if err != nil {
		return nil, err
	}
	result := make(map[domain.OrderType]int64, len(raw))
	for k, v := range raw {
		result[domain.OrderType(k)] = v
	}
	return result, nil
}

// CountByPriority returns order counts per priority
func (r *OrderRepository) CountByPriority(ctx context.Context, filter OrderFilter) (map[domain.OrderPriority]int64, error) {
	raw, err := r.countGrouped(ctx, "priority", filter)
	if err != nil {
		return nil, err
	}
	result := make(map[domain.OrderPriority]int64, len(raw))
	for k, v := range raw {
		result[domain.OrderPriority(k)] = v
	}
	return result, nil
}

// CountCompletedBetween counts orders completed in [from, to)
func (r *OrderRepository) CountCompletedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("status = ? AND completed_at >= ? AND completed_at < ?", domain.OrderStatusCompleted, from, to).
		Count(&count).Error
	return count, err
}

// OrderStamp is the minimal projection used to bucket orders over time
type OrderStamp struct {
	CreatedAt time.Time
	Type      domain.OrderType
	Status    domain.OrderStatus
}

// Stamps returns creation time, kind and status of matching orders
func (r *OrderRepository) Stamps(ctx context.Context, filter OrderFilter) ([]OrderStamp, error) {
	var stamps []OrderStamp
	err := r.applyFilter(r.db.WithContext(ctx).Model(&domain.Order{}), filter).
		Select("orders.created_at, orders.type, orders.status").
		Scan(&stamps).Error
	return stamps, err
}

// AverageDurationByType averages actual_duration of finished orders per kind
func (r *OrderRepository) AverageDurationByType(ctx context.Context, filter OrderFilter) (map[domain.OrderType]float64, error) {
	var rows []struct {
		Type    domain.OrderType
		Average float64
	}
	err := r.applyFilter(r.db.WithContext(ctx).Model(&domain.Order{}), filter).
		Select("orders.type AS type, AVG(orders.actual_duration) AS average").
		Where("orders.actual_duration IS NOT NULL").
		Group("orders.type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[domain.OrderType]float64, len(rows))
	for _, row := range rows {
		result[row.Type] = row.Average
	}
	return result, nil
}

// AverageDuration averages actual_duration over matching finished orders
func (r *OrderRepository) AverageDuration(ctx context.Context, filter OrderFilter) (float64, error) {
	var avg *float64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&domain.Order{}), filter).
		Select("AVG(orders.actual_duration)").
		Where("orders.actual_duration IS NOT NULL").
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

// EachBatch streams matching orders with their customer in batches of size
func (r *OrderRepository) EachBatch(ctx context.Context, filter OrderFilter, size int, fn func([]domain.Order) error) error {
	var batch []domain.Order
	return r.applyFilter(r.db.WithContext(ctx).Model(&domain.Order{}), filter).
		Preload("Customer").
		FindInBatches(&batch, size, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}

// DueFollowUps returns open consultations whose follow-up date is on or before
// day and that have not been reminded for that date yet
func (r *OrderRepository) DueFollowUps(ctx context.Context, day time.Time) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("type = ?", domain.OrderTypeConsultation).
		Where("follow_up_date IS NOT NULL AND follow_up_date <= ?", day).
		Where("follow_up_reminded_at IS NULL").
		Where("status NOT IN ?", []domain.OrderStatus{domain.OrderStatusCompleted, domain.OrderStatusCancelled}).
		Order("follow_up_date ASC").
		Find(&orders).Error
	return orders, err
}

// MarkFollowUpReminded records that the follow-up reminder for order went out
func (r *OrderRepository) MarkFollowUpReminded(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", id).
		Update("follow_up_reminded_at", at).Error
}
