package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderEvent is raised by the order lifecycle inside the writing transaction
type OrderEvent interface {
	EventName() string
}

// OrderCreated is raised once per persisted order
type OrderCreated struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	Type       OrderType
	At         time.Time
}

func (OrderCreated) EventName() string { return "order.created" }

// OrderCompleted is raised when an order enters the completed state
type OrderCompleted struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	At         time.Time
}

func (OrderCompleted) EventName() string { return "order.completed" }
