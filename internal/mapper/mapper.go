package mapper

import (
	"time"

	"github.com/superdoll/tracker-api/internal/domain"
)

const timestampLayout = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// ToCustomerDTO converts Customer to CustomerDTO
func ToCustomerDTO(customer *domain.Customer) domain.CustomerDTO {
	return domain.CustomerDTO{
		ID:               customer.ID,
		Code:             customer.Code,
		FullName:         customer.FullName,
		Phone:            customer.Phone,
		Email:            customer.Email,
		Address:          customer.Address,
		Notes:            customer.Notes,
		CustomerType:     customer.CustomerType,
		OrganizationName: customer.OrganizationName,
		TaxNumber:        customer.TaxNumber,
		PersonalSubtype:  customer.PersonalSubtype,
		CurrentStatus:    customer.CurrentStatus,
		TotalVisits:      customer.TotalVisits,
		TotalSpent:       customer.TotalSpent,
		RegistrationDate: formatTime(customer.RegistrationDate),
		ArrivalTime:      formatOptionalTime(customer.ArrivalTime),
		LastVisit:        formatOptionalTime(customer.LastVisit),
		CreatedAt:        formatTime(customer.CreatedAt),
		UpdatedAt:        formatTime(customer.UpdatedAt),
	}
}

// ToCustomerDTOs converts a slice of customers
func ToCustomerDTOs(customers []domain.Customer) []domain.CustomerDTO {
	dtos := make([]domain.CustomerDTO, len(customers))
	for i := range customers {
		dtos[i] = ToCustomerDTO(&customers[i])
	}
	return dtos
}

// ToCustomerWithDetailsDTO converts a customer with its vehicles and orders
func ToCustomerWithDetailsDTO(customer *domain.Customer, vehicles []domain.Vehicle, orders []domain.Order) domain.CustomerWithDetailsDTO {
	dto := domain.CustomerWithDetailsDTO{
		CustomerDTO: ToCustomerDTO(customer),
		Vehicles:    make([]domain.VehicleDTO, len(vehicles)),
		Orders:      make([]domain.OrderDTO, len(orders)),
	}
	for i := range vehicles {
		dto.Vehicles[i] = ToVehicleDTO(&vehicles[i])
	}
	for i := range orders {
		dto.Orders[i] = ToOrderDTO(&orders[i])
	}
	return dto
}

// ToVehicleDTO converts Vehicle to VehicleDTO
func ToVehicleDTO(vehicle *domain.Vehicle) domain.VehicleDTO {
	return domain.VehicleDTO{
		ID:          vehicle.ID,
		CustomerID:  vehicle.CustomerID,
		PlateNumber: vehicle.PlateNumber,
		Make:        vehicle.Make,
		Model:       vehicle.Model,
		VehicleType: vehicle.VehicleType,
		CreatedAt:   formatTime(vehicle.CreatedAt),
	}
}

// ToOrderDTO converts Order to OrderDTO. Customer, vehicle and assignee
// names are filled when the associations are loaded.
func ToOrderDTO(order *domain.Order) domain.OrderDTO {
	dto := domain.OrderDTO{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		CustomerID:        order.CustomerID,
		VehicleID:         order.VehicleID,
		Type:              order.Type,
		Status:            order.Status,
		Priority:          order.Priority,
		Notes:             order.Notes,
		Description:       order.Description,
		EstimatedDuration: order.EstimatedDuration,
		ActualDuration:    order.ActualDuration,
		ItemName:          order.ItemName,
		Brand:             order.Brand,
		Quantity:          order.Quantity,
		TireType:          order.TireType,
		InquiryType:       order.InquiryType,
		Questions:         order.Questions,
		ContactPreference: order.ContactPreference,
		AssignedToID:      order.AssignedToID,
		AssignedAt:        formatOptionalTime(order.AssignedAt),
		StartedAt:         formatOptionalTime(order.StartedAt),
		CompletedAt:       formatOptionalTime(order.CompletedAt),
		CancelledAt:       formatOptionalTime(order.CancelledAt),
		CreatedAt:         formatTime(order.CreatedAt),
		UpdatedAt:         formatTime(order.UpdatedAt),
	}
	if order.FollowUpDate != nil {
		dto.FollowUpDate = order.FollowUpDate.Format(domain.DateLayout)
	}
	if order.Customer != nil {
		dto.CustomerName = order.Customer.FullName
		dto.CustomerPhone = order.Customer.Phone
	}
	if order.Vehicle != nil {
		dto.PlateNumber = order.Vehicle.PlateNumber
	}
	if order.AssignedTo != nil {
		dto.AssignedToName = order.AssignedTo.DisplayName
		if dto.AssignedToName == "" {
			dto.AssignedToName = order.AssignedTo.Username
		}
	}
	return dto
}

// ToOrderDTOs converts a slice of orders
func ToOrderDTOs(orders []domain.Order) []domain.OrderDTO {
	dtos := make([]domain.OrderDTO, len(orders))
	for i := range orders {
		dtos[i] = ToOrderDTO(&orders[i])
	}
	return dtos
}

// ToInventoryItemDTO converts InventoryItem to InventoryItemDTO
func ToInventoryItemDTO(item *domain.InventoryItem) domain.InventoryItemDTO {
	return domain.InventoryItemDTO{
		ID:        item.ID,
		Name:      item.Name,
		Brand:     item.Brand,
		Quantity:  item.Quantity,
		Price:     item.Price,
		CreatedAt: formatTime(item.CreatedAt),
		UpdatedAt: formatTime(item.UpdatedAt),
	}
}

// ToInventoryItemDTOs converts a slice of inventory items
func ToInventoryItemDTOs(items []domain.InventoryItem) []domain.InventoryItemDTO {
	dtos := make([]domain.InventoryItemDTO, len(items))
	for i := range items {
		dtos[i] = ToInventoryItemDTO(&items[i])
	}
	return dtos
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		IsActive:    user.IsActive,
		LastLoginAt: formatOptionalTime(user.LastLoginAt),
		CreatedAt:   formatTime(user.CreatedAt),
	}
}
