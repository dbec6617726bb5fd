package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns a UUID when the caller did not
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// CustomerType is the classification of a customer
type CustomerType string

const (
	CustomerTypePersonal   CustomerType = "personal"
	CustomerTypeCompany    CustomerType = "company"
	CustomerTypeGovernment CustomerType = "government"
	CustomerTypeNGO        CustomerType = "ngo"
	CustomerTypeBodaboda   CustomerType = "bodaboda"
)

func (t CustomerType) IsValid() bool {
	switch t {
	case CustomerTypePersonal, CustomerTypeCompany, CustomerTypeGovernment, CustomerTypeNGO, CustomerTypeBodaboda:
		return true
	}
	return false
}

// IsOrganization reports whether organization name and tax number are required
func (t CustomerType) IsOrganization() bool {
	return t == CustomerTypeCompany || t == CustomerTypeGovernment || t == CustomerTypeNGO
}

// OrganizationTypes lists the classifications shown in the organizations view
var OrganizationTypes = []CustomerType{CustomerTypeCompany, CustomerTypeGovernment, CustomerTypeNGO}

// PersonalSubtype distinguishes vehicle owners from drivers
type PersonalSubtype string

const (
	PersonalSubtypeOwner  PersonalSubtype = "owner"
	PersonalSubtypeDriver PersonalSubtype = "driver"
)

func (s PersonalSubtype) IsValid() bool {
	return s == PersonalSubtypeOwner || s == PersonalSubtypeDriver
}

// CustomerStatus tracks where the customer is in the current visit
type CustomerStatus string

const (
	CustomerStatusArrived   CustomerStatus = "arrived"
	CustomerStatusInService CustomerStatus = "in_service"
	CustomerStatusCompleted CustomerStatus = "completed"
	CustomerStatusDeparted  CustomerStatus = "departed"
)

func (s CustomerStatus) IsValid() bool {
	switch s {
	case CustomerStatusArrived, CustomerStatusInService, CustomerStatusCompleted, CustomerStatusDeparted:
		return true
	}
	return false
}

// Customer is the identity and engagement record of a walk-in or account customer.
// Code is assigned once at creation and never updated.
type Customer struct {
	BaseModel
	Code             string          `gorm:"type:varchar(20);not null;uniqueIndex"`
	FullName         string          `gorm:"type:varchar(200);not null;index;column:full_name"`
	Phone            string          `gorm:"type:varchar(20);not null;index"`
	Email            string          `gorm:"type:varchar(255);index"`
	Address          string          `gorm:"type:text"`
	Notes            string          `gorm:"type:text"`
	CustomerType     CustomerType    `gorm:"type:varchar(20);not null;default:'personal';index;column:customer_type"`
	OrganizationName string          `gorm:"type:varchar(255);column:organization_name"`
	TaxNumber        string          `gorm:"type:varchar(64);column:tax_number"`
	PersonalSubtype  PersonalSubtype `gorm:"type:varchar(16);column:personal_subtype"`
	RegistrationDate time.Time       `gorm:"not null;index;column:registration_date"`
	ArrivalTime      *time.Time      `gorm:"column:arrival_time"`
	CurrentStatus    CustomerStatus  `gorm:"type:varchar(20);not null;default:'arrived';column:current_status"`
	TotalVisits      int             `gorm:"not null;default:0;column:total_visits"`
	TotalSpent       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;column:total_spent"`
	LastVisit        *time.Time      `gorm:"index;column:last_visit"`
	Vehicles         []Vehicle       `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	Orders           []Order         `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

// VehicleType is an optional body classification
type VehicleType string

const (
	VehicleTypeSedan      VehicleType = "sedan"
	VehicleTypeSUV        VehicleType = "suv"
	VehicleTypeTruck      VehicleType = "truck"
	VehicleTypeVan        VehicleType = "van"
	VehicleTypeMotorcycle VehicleType = "motorcycle"
	VehicleTypeBus        VehicleType = "bus"
	VehicleTypeOther      VehicleType = "other"
)

func (t VehicleType) IsValid() bool {
	switch t {
	case VehicleTypeSedan, VehicleTypeSUV, VehicleTypeTruck, VehicleTypeVan, VehicleTypeMotorcycle, VehicleTypeBus, VehicleTypeOther:
		return true
	}
	return false
}

type Vehicle struct {
	BaseModel
	CustomerID  uuid.UUID   `gorm:"type:uuid;not null;index;column:customer_id"`
	Customer    *Customer   `gorm:"foreignKey:CustomerID"`
	PlateNumber string      `gorm:"type:varchar(32);index;column:plate_number"`
	Make        string      `gorm:"type:varchar(64)"`
	Model       string      `gorm:"type:varchar(64)"`
	VehicleType VehicleType `gorm:"type:varchar(32);column:vehicle_type"`
}

// OrderType is the kind of an order and selects its payload
type OrderType string

const (
	OrderTypeService      OrderType = "service"
	OrderTypeSales        OrderType = "sales"
	OrderTypeConsultation OrderType = "consultation"
)

func (t OrderType) IsValid() bool {
	return t == OrderTypeService || t == OrderTypeSales || t == OrderTypeConsultation
}

type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "created"
	OrderStatusAssigned   OrderStatus = "assigned"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusAssigned, OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// AllOrderStatuses in lifecycle order
var AllOrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusAssigned,
	OrderStatusInProgress,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

type OrderPriority string

const (
	OrderPriorityLow    OrderPriority = "low"
	OrderPriorityMedium OrderPriority = "medium"
	OrderPriorityHigh   OrderPriority = "high"
	OrderPriorityUrgent OrderPriority = "urgent"
)

func (p OrderPriority) IsValid() bool {
	switch p {
	case OrderPriorityLow, OrderPriorityMedium, OrderPriorityHigh, OrderPriorityUrgent:
		return true
	}
	return false
}

// Order is the transactional unit. Kind-specific columns are only populated
// for the matching Type; use Payload() to read them as a typed value.
type Order struct {
	BaseModel
	OrderNumber string        `gorm:"type:varchar(20);not null;uniqueIndex;column:order_number"`
	CustomerID  uuid.UUID     `gorm:"type:uuid;not null;index;column:customer_id"`
	Customer    *Customer     `gorm:"foreignKey:CustomerID"`
	VehicleID   *uuid.UUID    `gorm:"type:uuid;index;column:vehicle_id"`
	Vehicle     *Vehicle      `gorm:"foreignKey:VehicleID;constraint:OnDelete:SET NULL"`
	Type        OrderType     `gorm:"type:varchar(20);not null;index"`
	Status      OrderStatus   `gorm:"type:varchar(20);not null;default:'created';index"`
	Priority    OrderPriority `gorm:"type:varchar(10);not null;default:'medium';index"`
	Notes       string        `gorm:"type:text"`

	// service
	Description       string `gorm:"type:text"`
	EstimatedDuration *int   `gorm:"column:estimated_duration"`
	ActualDuration    *int   `gorm:"column:actual_duration"`

	// sales
	ItemName string   `gorm:"type:varchar(100);column:item_name"`
	Brand    string   `gorm:"type:varchar(50)"`
	Quantity *int     `gorm:"column:quantity"`
	TireType TireType `gorm:"type:varchar(20);column:tire_type"`

	// consultation
	InquiryType        InquiryType       `gorm:"type:varchar(50);column:inquiry_type"`
	Questions          string            `gorm:"type:text"`
	ContactPreference  ContactPreference `gorm:"type:varchar(20);column:contact_preference"`
	FollowUpDate       *time.Time        `gorm:"type:date;column:follow_up_date"`
	// FollowUpRemindedAt is set once a reminder for the current follow-up date went out
	FollowUpRemindedAt *time.Time        `gorm:"column:follow_up_reminded_at"`

	AssignedAt  *time.Time `gorm:"column:assigned_at"`
	StartedAt   *time.Time `gorm:"column:started_at"`
	CompletedAt *time.Time `gorm:"index;column:completed_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`

	AssignedToID *uuid.UUID `gorm:"type:uuid;column:assigned_to"`
	AssignedTo   *User      `gorm:"foreignKey:AssignedToID;constraint:OnDelete:SET NULL"`
}

// InventoryItem is a stock-keeping unit keyed by (name, brand).
// Brand is stored as an empty string when the item has none.
type InventoryItem struct {
	BaseModel
	Name     string          `gorm:"type:varchar(100);not null;index;uniqueIndex:idx_inventory_name_brand"`
	Brand    string          `gorm:"type:varchar(50);not null;default:'';index;uniqueIndex:idx_inventory_name_brand"`
	Quantity int             `gorm:"not null;default:0;check:quantity >= 0"`
	Price    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

// UserRole is the staff permission level
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleManager   UserRole = "manager"
	RoleFrontDesk UserRole = "front_desk"
)

func (r UserRole) IsValid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleFrontDesk
}

// User is a staff account
type User struct {
	BaseModel
	Username     string     `gorm:"type:varchar(150);not null;uniqueIndex"`
	Email        string     `gorm:"type:varchar(255)"`
	DisplayName  string     `gorm:"type:varchar(200);column:display_name"`
	PasswordHash string     `gorm:"type:varchar(255);not null;column:password_hash"`
	Role         UserRole   `gorm:"type:varchar(20);not null;default:'front_desk'"`
	IsActive     bool       `gorm:"not null;default:true;column:is_active"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
}
