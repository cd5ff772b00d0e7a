package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// ParseOrderStatus accepts the status names case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch strings.ToLower(s) {
	case "pending":
		return OrderStatusPending, true
	case "completed":
		return OrderStatusCompleted, true
	case "cancelled":
		return OrderStatusCancelled, true
	}
	return "", false
}

type OrderItem struct {
	Entity
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// NewOrderItem snapshots the unit price at creation time. A later price
// change on the product must not affect existing orders.
func NewOrderItem(productID uuid.UUID, quantity int, unitPrice decimal.Decimal) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, NewInvalidOperation("product id cannot be empty")
	}
	if quantity <= 0 {
		return nil, NewInvalidOperation("quantity must be greater than zero")
	}
	if !unitPrice.IsPositive() {
		return nil, NewInvalidOperation("unit price must be greater than zero")
	}

	return &OrderItem{
		Entity:    NewEntity(),
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}, nil
}

func (i *OrderItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is the aggregate root. Items are fixed once created; the total is
// always recomputed from the items and never mutated independently. Status
// transitions are monotonic: Pending -> Cancelled or Pending -> Completed.
type Order struct {
	Entity
	OrderNumber   string          `json:"order_number"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	Status        OrderStatus     `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Items         []OrderItem     `json:"items"`

	events []DomainEvent
}

func NewOrder(customerName, customerEmail string, items []*OrderItem) (*Order, error) {
	if strings.TrimSpace(customerName) == "" {
		return nil, NewInvalidOperation("customer name cannot be empty")
	}
	if strings.TrimSpace(customerEmail) == "" {
		return nil, NewInvalidOperation("customer email cannot be empty")
	}
	if len(items) == 0 {
		return nil, NewInvalidOperation("order must have at least one item")
	}

	order := &Order{
		Entity:        NewEntity(),
		OrderNumber:   generateOrderNumber(),
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		Status:        OrderStatusPending,
	}

	total := decimal.Zero
	for _, item := range items {
		item.OrderID = order.ID
		order.Items = append(order.Items, *item)
		total = total.Add(item.TotalPrice())
	}
	order.TotalAmount = total

	snapshots := make([]OrderItemSnapshot, 0, len(order.Items))
	for _, item := range order.Items {
		snapshots = append(snapshots, OrderItemSnapshot{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order.record(OrderCreated{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		TotalAmount:   order.TotalAmount,
		Items:         snapshots,
		OccurredOn:    time.Now().UTC(),
	})

	return order, nil
}

// Cancel moves a pending order to Cancelled and returns the newly raised
// events. Cancelling a terminal order fails, never silently succeeds.
func (o *Order) Cancel() ([]DomainEvent, error) {
	if o.Status == OrderStatusCancelled {
		return nil, NewInvalidOperation("order is already cancelled")
	}
	if o.Status == OrderStatusCompleted {
		return nil, NewInvalidOperation("cannot cancel a completed order")
	}

	o.Status = OrderStatusCancelled
	o.Touch()

	event := OrderCancelled{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerEmail: o.CustomerEmail,
		OccurredOn:    time.Now().UTC(),
	}
	o.record(event)

	return []DomainEvent{event}, nil
}

// Complete moves a pending order to Completed. No downstream consumer acts
// on completion, so no event is raised.
func (o *Order) Complete() error {
	if o.Status == OrderStatusCompleted {
		return NewInvalidOperation("order is already completed")
	}
	if o.Status == OrderStatusCancelled {
		return NewInvalidOperation("cannot complete a cancelled order")
	}

	o.Status = OrderStatusCompleted
	o.Touch()
	return nil
}

func (o *Order) record(event DomainEvent) {
	o.events = append(o.events, event)
}

// DomainEvents returns the pending events without draining them.
func (o *Order) DomainEvents() []DomainEvent {
	out := make([]DomainEvent, len(o.events))
	copy(out, o.events)
	return out
}

// PopEvents drains the pending events. An aggregate handed back with events
// still attached signals an incomplete publish cycle, so orchestration code
// must call this exactly once per successful operation.
func (o *Order) PopEvents() []DomainEvent {
	events := o.events
	o.events = nil
	return events
}

func generateOrderNumber() string {
	timestamp := time.Now().UTC().Format("20060102150405")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORD-%s-%s", timestamp, suffix)
}
