package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DomainEvent is a closed set: OrderCreated and OrderCancelled are the only
// implementations. Dispatch sites type-switch over the concrete types and
// must fail on anything else, so adding a new event kind forces every
// dispatch site to be revisited.
type DomainEvent interface {
	isDomainEvent()
}

// OrderItemSnapshot captures an item as it was at order-creation time.
type OrderItemSnapshot struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

type OrderCreated struct {
	OrderID       uuid.UUID
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	TotalAmount   decimal.Decimal
	Items         []OrderItemSnapshot
	OccurredOn    time.Time
}

func (OrderCreated) isDomainEvent() {}

type OrderCancelled struct {
	OrderID       uuid.UUID
	OrderNumber   string
	CustomerEmail string
	OccurredOn    time.Time
}

func (OrderCancelled) isDomainEvent() {}
