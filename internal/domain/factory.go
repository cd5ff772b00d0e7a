package domain

import (
	"context"

	"github.com/google/uuid"
)

type OrderItemRequest struct {
	ProductID uuid.UUID
	Quantity  int
}

// OrderFactory builds a fully-formed order against live stock. It must run
// against a transaction-bound ProductRepository: every decrement is written
// through before the next item is resolved, so a duplicate product id later
// in the same request is checked against the post-decrement stock. Any
// failure aborts the whole call and the caller's rollback discards the
// decrements already written.
type OrderFactory struct {
	products ProductRepository
}

func NewOrderFactory(products ProductRepository) *OrderFactory {
	return &OrderFactory{products: products}
}

func (f *OrderFactory) Create(ctx context.Context, customerName, customerEmail string, requests []OrderItemRequest) (*Order, error) {
	if len(requests) == 0 {
		return nil, NewInvalidOperation("order must have at least one item")
	}

	items := make([]*OrderItem, 0, len(requests))

	for _, request := range requests {
		product, err := f.products.GetByID(ctx, request.ProductID)
		if err != nil {
			return nil, err
		}

		if !product.HasSufficientStock(request.Quantity) {
			return nil, NewInvalidOperation("insufficient stock for product %s: available %d, requested %d",
				product.Name, product.Stock, request.Quantity)
		}

		item, err := NewOrderItem(product.ID, request.Quantity, product.Price)
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		if err := product.ReduceStock(request.Quantity); err != nil {
			return nil, err
		}
		if err := f.products.Update(ctx, product); err != nil {
			return nil, err
		}
	}

	return NewOrder(customerName, customerEmail, items)
}
