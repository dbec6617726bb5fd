package domain

import (
	"fmt"
	"strings"
	"time"
)

type TireType string

const (
	TireTypeNew         TireType = "New"
	TireTypeUsed        TireType = "Used"
	TireTypeRefurbished TireType = "Refurbished"
)

func (t TireType) IsValid() bool {
	return t == TireTypeNew || t == TireTypeUsed || t == TireTypeRefurbished
}

type InquiryType string

const (
	InquiryTypePricing     InquiryType = "Pricing"
	InquiryTypeServices    InquiryType = "Services"
	InquiryTypeAppointment InquiryType = "Appointment Booking"
	InquiryTypeGeneral     InquiryType = "General"
)

func (t InquiryType) IsValid() bool {
	switch t {
	case InquiryTypePricing, InquiryTypeServices, InquiryTypeAppointment, InquiryTypeGeneral:
		return true
	}
	return false
}

type ContactPreference string

const (
	ContactPreferencePhone    ContactPreference = "phone"
	ContactPreferenceEmail    ContactPreference = "email"
	ContactPreferenceWhatsApp ContactPreference = "whatsapp"
)

func (c ContactPreference) IsValid() bool {
	return c == ContactPreferencePhone || c == ContactPreferenceEmail || c == ContactPreferenceWhatsApp
}

// OrderPayload is the kind-specific part of an order. Exactly one
// implementation exists per OrderType.
type OrderPayload interface {
	Kind() OrderType
	// Validate checks the payload's own required fields
	Validate() error
	// apply copies the payload onto the order's columns
	apply(o *Order)
}

// ServicePayload describes workshop work
type ServicePayload struct {
	Description       string
	EstimatedDuration int // minutes
	// Services are sub-types picked in the registration wizard
	Services []string
}

func (p ServicePayload) Kind() OrderType { return OrderTypeService }

func (p ServicePayload) Validate() error {
	v := NewValidationError()
	if strings.TrimSpace(p.Description) == "" {
		v.Add("description", "Description is required for Service orders")
	}
	if p.EstimatedDuration <= 0 {
		v.Add("estimated_duration", "Estimated duration is required for Service orders")
	}
	return v.OrNil()
}

func (p ServicePayload) apply(o *Order) {
	desc := strings.TrimSpace(p.Description)
	if len(p.Services) > 0 {
		desc += "\nSelected services: " + strings.Join(p.Services, ", ")
	}
	est := p.EstimatedDuration
	o.Description = desc
	o.EstimatedDuration = &est
}

// SalesPayload describes an over-the-counter sale that draws down stock
type SalesPayload struct {
	ItemName string
	Brand    string
	Quantity int
	TireType TireType
}

func (p SalesPayload) Kind() OrderType { return OrderTypeSales }

func (p SalesPayload) Validate() error {
	v := NewValidationError()
	if strings.TrimSpace(p.ItemName) == "" {
		v.Add("item_name", "Required for Sales orders")
	}
	if strings.TrimSpace(p.Brand) == "" {
		v.Add("brand", "Required for Sales orders")
	}
	if p.Quantity < 1 {
		v.Add("quantity", "Quantity must be at least 1")
	}
	if p.TireType != "" && !p.TireType.IsValid() {
		v.Add("tire_type", "Must be one of New, Used, Refurbished")
	}
	return v.OrNil()
}

func (p SalesPayload) apply(o *Order) {
	qty := p.Quantity
	o.ItemName = strings.TrimSpace(p.ItemName)
	o.Brand = strings.TrimSpace(p.Brand)
	o.Quantity = &qty
	o.TireType = p.TireType
	if o.TireType == "" {
		o.TireType = TireTypeNew
	}
}

// ConsultationPayload describes a customer inquiry
type ConsultationPayload struct {
	InquiryType       InquiryType
	Questions         string
	ContactPreference ContactPreference
	FollowUpDate      *time.Time
}

func (p ConsultationPayload) Kind() OrderType { return OrderTypeConsultation }

func (p ConsultationPayload) Validate() error {
	v := NewValidationError()
	if p.InquiryType == "" {
		v.Add("inquiry_type", "Inquiry type is required for Consultation orders")
	} else if !p.InquiryType.IsValid() {
		v.Add("inquiry_type", fmt.Sprintf("Unknown inquiry type %q", p.InquiryType))
	}
	if strings.TrimSpace(p.Questions) == "" {
		v.Add("questions", "Questions are required for Consultation orders")
	}
	if p.ContactPreference != "" && !p.ContactPreference.IsValid() {
		v.Add("contact_preference", "Must be one of phone, email, whatsapp")
	}
	return v.OrNil()
}

func (p ConsultationPayload) apply(o *Order) {
	o.InquiryType = p.InquiryType
	o.Questions = strings.TrimSpace(p.Questions)
	o.ContactPreference = p.ContactPreference
	if o.ContactPreference == "" {
		o.ContactPreference = ContactPreferencePhone
	}
	o.FollowUpDate = p.FollowUpDate
}

// ApplyPayload sets the order type and kind-specific columns from p
func (o *Order) ApplyPayload(p OrderPayload) {
	o.Type = p.Kind()
	p.apply(o)
}

// Payload reads the kind-specific columns back as a typed value
func (o *Order) Payload() OrderPayload {
	switch o.Type {
	case OrderTypeService:
		p := ServicePayload{Description: o.Description}
		if o.EstimatedDuration != nil {
			p.EstimatedDuration = *o.EstimatedDuration
		}
		return p
	case OrderTypeSales:
		p := SalesPayload{ItemName: o.ItemName, Brand: o.Brand, TireType: o.TireType}
		if o.Quantity != nil {
			p.Quantity = *o.Quantity
		}
		return p
	case OrderTypeConsultation:
		return ConsultationPayload{
			InquiryType:       o.InquiryType,
			Questions:         o.Questions,
			ContactPreference: o.ContactPreference,
			FollowUpDate:      o.FollowUpDate,
		}
	}
	return nil
}

// SalesQuantity returns the ordered quantity of a sales order, or zero
func (o *Order) SalesQuantity() int {
	if o.Type != OrderTypeSales || o.Quantity == nil {
		return 0
	}
	return *o.Quantity
}

// DateLayout is the wire format of calendar dates such as follow-up dates
const DateLayout = "2006-01-02"

// ParseDate parses an optional YYYY-MM-DD value; empty input yields nil
func ParseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		v := NewValidationError()
		v.Add(field, "Must be a date in YYYY-MM-DD format")
		return nil, v
	}
	return &t, nil
}

// ToPayload builds the typed payload for kind from the flat request fields.
// services is only used for service orders.
func (r OrderPayloadRequest) ToPayload(kind OrderType, services []string) (OrderPayload, error) {
	switch kind {
	case OrderTypeService:
		return ServicePayload{
			Description:       r.Description,
			EstimatedDuration: r.EstimatedDuration,
			Services:          services,
		}, nil
	case OrderTypeSales:
		return SalesPayload{
			ItemName: r.ItemName,
			Brand:    r.Brand,
			Quantity: r.Quantity,
			TireType: r.TireType,
		}, nil
	case OrderTypeConsultation:
		followUp, err := ParseDate("follow_up_date", r.FollowUpDate)
		if err != nil {
			return nil, err
		}
		return ConsultationPayload{
			InquiryType:       r.InquiryType,
			Questions:         r.Questions,
			ContactPreference: r.ContactPreference,
			FollowUpDate:      followUp,
		}, nil
	}
	v := NewValidationError()
	v.Add("type", "Must be one of service, sales, consultation")
	return nil, v
}
