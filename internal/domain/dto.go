package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs for API responses

type CustomerDTO struct {
	ID               uuid.UUID       `json:"id"`
	Code             string          `json:"code"`
	FullName         string          `json:"fullName"`
	Phone            string          `json:"phone"`
	Email            string          `json:"email,omitempty"`
	Address          string          `json:"address,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CustomerType     CustomerType    `json:"customerType"`
	OrganizationName string          `json:"organizationName,omitempty"`
	TaxNumber        string          `json:"taxNumber,omitempty"`
	PersonalSubtype  PersonalSubtype `json:"personalSubtype,omitempty"`
	CurrentStatus    CustomerStatus  `json:"currentStatus"`
	TotalVisits      int             `json:"totalVisits"`
	TotalSpent       decimal.Decimal `json:"totalSpent"`
	RegistrationDate string          `json:"registrationDate"` // ISO 8601
	ArrivalTime      string          `json:"arrivalTime,omitempty"`
	LastVisit        string          `json:"lastVisit,omitempty"`
	CreatedAt        string          `json:"createdAt"`
	UpdatedAt        string          `json:"updatedAt"`
}

// CustomerWithDetailsDTO includes the customer's vehicles and latest orders
type CustomerWithDetailsDTO struct {
	CustomerDTO
	Vehicles []VehicleDTO `json:"vehicles"`
	Orders   []OrderDTO   `json:"orders"`
}

type VehicleDTO struct {
	ID          uuid.UUID   `json:"id"`
	CustomerID  uuid.UUID   `json:"customerId"`
	PlateNumber string      `json:"plateNumber,omitempty"`
	Make        string      `json:"make,omitempty"`
	Model       string      `json:"model,omitempty"`
	VehicleType VehicleType `json:"vehicleType,omitempty"`
	CreatedAt   string      `json:"createdAt"`
}

type OrderDTO struct {
	ID                uuid.UUID         `json:"id"`
	OrderNumber       string            `json:"orderNumber"`
	CustomerID        uuid.UUID         `json:"customerId"`
	CustomerName      string            `json:"customerName,omitempty"`
	CustomerPhone     string            `json:"customerPhone,omitempty"`
	VehicleID         *uuid.UUID        `json:"vehicleId,omitempty"`
	PlateNumber       string            `json:"plateNumber,omitempty"`
	Type              OrderType         `json:"type"`
	Status            OrderStatus       `json:"status"`
	Priority          OrderPriority     `json:"priority"`
	Notes             string            `json:"notes,omitempty"`
	Description       string            `json:"description,omitempty"`
	EstimatedDuration *int              `json:"estimatedDuration,omitempty"`
	ActualDuration    *int              `json:"actualDuration,omitempty"`
	ItemName          string            `json:"itemName,omitempty"`
	Brand             string            `json:"brand,omitempty"`
	Quantity          *int              `json:"quantity,omitempty"`
	TireType          TireType          `json:"tireType,omitempty"`
	InquiryType       InquiryType       `json:"inquiryType,omitempty"`
	Questions         string            `json:"questions,omitempty"`
	ContactPreference ContactPreference `json:"contactPreference,omitempty"`
	FollowUpDate      string            `json:"followUpDate,omitempty"` // YYYY-MM-DD
	AssignedToID      *uuid.UUID        `json:"assignedToId,omitempty"`
	AssignedToName    string            `json:"assignedToName,omitempty"`
	AssignedAt        string            `json:"assignedAt,omitempty"`
	StartedAt         string            `json:"startedAt,omitempty"`
	CompletedAt       string            `json:"completedAt,omitempty"`
	CancelledAt       string            `json:"cancelledAt,omitempty"`
	CreatedAt         string            `json:"createdAt"`
	UpdatedAt         string            `json:"updatedAt"`
}

type InventoryItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

// InventoryNameSummaryDTO is the stock total for one item name across brands
type InventoryNameSummaryDTO struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// InventoryBrandSummaryDTO is the stock total and cheapest price of one brand
type InventoryBrandSummaryDTO struct {
	Brand    string `json:"brand"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price,omitempty"`
}

type InventoryStockDTO struct {
	Available int `json:"available"`
}

// AdjustResultDTO mirrors the ledger's adjust outcome
type AdjustResultDTO struct {
	OK        bool   `json:"ok"`
	Status    string `json:"status"`
	Remaining int    `json:"remaining"`
}

type UserDTO struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	Role        UserRole  `json:"role"`
	IsActive    bool      `json:"isActive"`
	LastLoginAt string    `json:"lastLoginAt,omitempty"`
	CreatedAt   string    `json:"createdAt"`
}

type LoginResponse struct {
	AccessToken string  `json:"accessToken"`
	TokenType   string  `json:"tokenType"`
	ExpiresAt   string  `json:"expiresAt"`
	User        UserDTO `json:"user"`
}

// CountDTO is a labeled count used by breakdowns
type CountDTO struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// TrendPointDTO is one bucket of a time series
type TrendPointDTO struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// DashboardDTO is the cached dashboard read-model
type DashboardDTO struct {
	TotalOrders      int64                   `json:"totalOrders"`
	TotalCustomers   int64                   `json:"totalCustomers"`
	CompletedToday   int64                   `json:"completedToday"`
	PendingOrders    int64                   `json:"pendingOrders"`
	InProgressOrders int64                   `json:"inProgressOrders"`
	ActiveOrders     int64                   `json:"activeOrders"`
	CompletedPercent int                     `json:"completedPercent"`
	TotalStock       int64                   `json:"totalStock"`
	StatusCounts     map[OrderStatus]int64   `json:"statusCounts"`
	TypeCounts       map[OrderType]int64     `json:"typeCounts"`
	PriorityCounts   map[OrderPriority]int64 `json:"priorityCounts"`
	Trend            []TrendPointDTO         `json:"trend"`
	RecentOrders     []OrderDTO              `json:"recentOrders"`
	InventoryPreview []InventoryItemDTO      `json:"inventoryPreview"`
	GeneratedAt      string                  `json:"generatedAt"`
}

type AnalyticsDTO struct {
	StatusCounts       map[OrderStatus]int64 `json:"statusCounts"`
	TypeCounts         map[OrderType]int64   `json:"typeCounts"`
	Trend              []TrendPointDTO       `json:"trend"`
	AverageDurationMin map[OrderType]float64 `json:"averageDurationMinutes"`
}

type ReportStatsDTO struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	InProgress int64 `json:"inProgress"`
	Cancelled  int64 `json:"cancelled"`
}

type ReportDTO struct {
	From   string         `json:"from"`
	To     string         `json:"to"`
	Type   OrderType      `json:"type,omitempty"`
	Stats  ReportStatsDTO `json:"stats"`
	Orders []OrderDTO     `json:"orders"`
}

// AdvancedReportDTO summarizes one reporting period with per-bucket trends
type AdvancedReportDTO struct {
	Period          string                `json:"period"`
	From            string                `json:"from"`
	To              string                `json:"to"`
	TotalOrders     int64                 `json:"totalOrders"`
	CompletedOrders int64                 `json:"completedOrders"`
	PendingOrders   int64                 `json:"pendingOrders"`
	CancelledOrders int64                 `json:"cancelledOrders"`
	TotalCustomers  int64                 `json:"totalCustomers"`
	NewCustomers    int64                 `json:"newCustomers"`
	CompletionRate  float64               `json:"completionRate"`
	AvgDurationMin  float64               `json:"avgDurationMinutes"`
	TypeCounts      map[OrderType]int64   `json:"typeCounts"`
	TypePercentages map[OrderType]float64 `json:"typePercentages"`
	Labels          []string              `json:"labels"`
	Trend           map[OrderType][]int64 `json:"trend"`
}

type InquiryStatsDTO struct {
	New        int64 `json:"new"`
	InProgress int64 `json:"inProgress"`
	Resolved   int64 `json:"resolved"`
}

// InquiryResponseDTO is the answered inquiry plus the outcome of the SMS.
// The response is saved whether or not the message went out.
type InquiryResponseDTO struct {
	Order   OrderDTO `json:"order"`
	SMSSent bool     `json:"smsSent"`
	SMSInfo string   `json:"smsInfo,omitempty"`
}

// OrganizationsDTO lists organization customers with per-type counts
type OrganizationsDTO struct {
	Customers  []CustomerDTO          `json:"customers"`
	TypeCounts map[CustomerType]int64 `json:"typeCounts"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"pageSize"`
}

// RegistrationResponse is returned by every wizard step
type RegistrationResponse struct {
	Token    string            `json:"token"`
	State    RegistrationState `json:"state"`
	Done     bool              `json:"done"`
	Customer *CustomerDTO      `json:"customer,omitempty"`
	Vehicle  *VehicleDTO       `json:"vehicle,omitempty"`
	Order    *OrderDTO         `json:"order,omitempty"`
}

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// NewPaginatedResponse computes TotalPages from total and pageSize
func NewPaginatedResponse(data interface{}, total int64, page, pageSize int) *PaginatedResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// Request DTOs

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Username    string   `json:"username" validate:"required,max=150"`
	Email       string   `json:"email" validate:"omitempty,email"`
	DisplayName string   `json:"displayName" validate:"max=200"`
	Password    string   `json:"password" validate:"required,min=8"`
	Role        UserRole `json:"role" validate:"required,oneof=admin manager front_desk"`
}

type UpdateUserRequest struct {
	Email       string   `json:"email" validate:"omitempty,email"`
	DisplayName string   `json:"displayName" validate:"max=200"`
	Role        UserRole `json:"role" validate:"omitempty,oneof=admin manager front_desk"`
	IsActive    *bool    `json:"isActive"`
	Password    string   `json:"password" validate:"omitempty,min=8"`
}

// CustomerProfileRequest carries the editable profile and classification fields
type CustomerProfileRequest struct {
	FullName         string          `json:"fullName" validate:"required,max=200"`
	Phone            string          `json:"phone" validate:"required,max=20"`
	Email            string          `json:"email" validate:"omitempty,email"`
	Address          string          `json:"address"`
	Notes            string          `json:"notes"`
	CustomerType     CustomerType    `json:"customerType" validate:"omitempty,oneof=personal company government ngo bodaboda"`
	OrganizationName string          `json:"organizationName" validate:"max=255"`
	TaxNumber        string          `json:"taxNumber" validate:"max=64"`
	PersonalSubtype  PersonalSubtype `json:"personalSubtype" validate:"omitempty,oneof=owner driver"`
}

type CreateVehicleRequest struct {
	PlateNumber string      `json:"plateNumber" validate:"max=32"`
	Make        string      `json:"make" validate:"max=64"`
	Model       string      `json:"model" validate:"max=64"`
	VehicleType VehicleType `json:"vehicleType" validate:"omitempty,oneof=sedan suv truck van motorcycle bus other"`
}

// IsEmpty reports whether no vehicle field was supplied
func (r CreateVehicleRequest) IsEmpty() bool {
	return r.PlateNumber == "" && r.Make == "" && r.Model == "" && r.VehicleType == ""
}

// OrderPayloadRequest is the flat wire form of the kind-specific order fields
type OrderPayloadRequest struct {
	Description       string            `json:"description"`
	EstimatedDuration int               `json:"estimatedDuration" validate:"gte=0"`
	ItemName          string            `json:"itemName" validate:"max=100"`
	Brand             string            `json:"brand" validate:"max=50"`
	Quantity          int               `json:"quantity" validate:"gte=0"`
	TireType          TireType          `json:"tireType"`
	InquiryType       InquiryType       `json:"inquiryType"`
	Questions         string            `json:"questions"`
	ContactPreference ContactPreference `json:"contactPreference"`
	FollowUpDate      string            `json:"followUpDate"` // YYYY-MM-DD
}

type CreateOrderRequest struct {
	VehicleID *uuid.UUID    `json:"vehicleId"`
	Type      OrderType     `json:"type" validate:"required,oneof=service sales consultation"`
	Priority  OrderPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Notes     string        `json:"notes"`
	OrderPayloadRequest
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}

type AssignOrderRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
}

type CreateInventoryItemRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Brand    string          `json:"brand" validate:"max=50"`
	Quantity int             `json:"quantity" validate:"gte=0"`
	Price    decimal.Decimal `json:"price"`
}

type UpdateInventoryItemRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Brand    string          `json:"brand" validate:"max=50"`
	Quantity int             `json:"quantity" validate:"gte=0"`
	Price    decimal.Decimal `json:"price"`
}

type AdjustInventoryRequest struct {
	Name  string `json:"name" validate:"required"`
	Brand string `json:"brand"`
	Delta int    `json:"delta" validate:"ne=0"`
}

type RespondInquiryRequest struct {
	Response     string `json:"response" validate:"required"`
	FollowUpDate string `json:"followUpDate"` // YYYY-MM-DD
	SendSMS      *bool  `json:"sendSms"`
}

type UpdateInquiryStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=in_progress completed"`
}

// Registration wizard requests

type RegistrationCustomerRequest struct {
	FullName string `json:"fullName" validate:"max=200"`
	Phone    string `json:"phone" validate:"max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
	Address  string `json:"address"`
	Notes    string `json:"notes"`
	SaveNow  bool   `json:"saveNow"`
}

type RegistrationIntentRequest struct {
	Intent RegistrationIntent `json:"intent" validate:"required"`
}

type RegistrationSelectionRequest struct {
	Services  []string `json:"services"`
	SalesType string   `json:"salesType"`
}

type RegistrationCompleteRequest struct {
	CustomerType     CustomerType         `json:"customerType" validate:"required"`
	OrganizationName string               `json:"organizationName"`
	TaxNumber        string               `json:"taxNumber"`
	PersonalSubtype  PersonalSubtype      `json:"personalSubtype"`
	Vehicle          CreateVehicleRequest `json:"vehicle"`
	Priority         OrderPriority        `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Notes            string               `json:"notes"`
	OrderPayloadRequest
}
