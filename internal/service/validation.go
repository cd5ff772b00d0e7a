package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/safar/order-management/internal/domain"
)

const (
	maxCustomerNameLength  = 100
	maxCustomerEmailLength = 200
)

// validateCreateOrder collects every violated rule before reporting, so the
// caller sees the full list in one ValidationError rather than the first
// failure. The stock check reads current product state and is advisory: the
// factory re-checks inside the transaction.
func (s *OrderService) validateCreateOrder(ctx context.Context, products domain.ProductRepository, input CreateOrderInput) error {
	var violations []string

	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		violations = append(violations, "customer name is required")
	} else if len(name) > maxCustomerNameLength {
		violations = append(violations, fmt.Sprintf("customer name cannot exceed %d characters", maxCustomerNameLength))
	}

	email := strings.TrimSpace(input.CustomerEmail)
	if email == "" {
		violations = append(violations, "customer email is required")
	} else {
		if _, err := mail.ParseAddress(email); err != nil {
			violations = append(violations, "valid email address is required")
		}
		if len(email) > maxCustomerEmailLength {
			violations = append(violations, fmt.Sprintf("customer email cannot exceed %d characters", maxCustomerEmailLength))
		}
	}

	if len(input.Items) == 0 {
		violations = append(violations, "at least one item is required")
	}

	validItems := true
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			violations = append(violations, fmt.Sprintf("item %d: product id is required", i+1))
			validItems = false
		}
		if item.Quantity <= 0 {
			violations = append(violations, fmt.Sprintf("item %d: quantity must be greater than zero", i+1))
			validItems = false
		}
	}

	if len(input.Items) > 0 && validItems {
		stockViolations, err := s.checkStock(ctx, products, input.Items)
		if err != nil {
			return err
		}
		violations = append(violations, stockViolations...)
	}

	if len(violations) > 0 {
		return &domain.ValidationError{Violations: violations}
	}

	return nil
}

func (s *OrderService) checkStock(ctx context.Context, products domain.ProductRepository, items []CreateOrderItemInput) ([]string, error) {
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	found, err := products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check stock: %w", err)
	}

	byID := make(map[uuid.UUID]*domain.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	// Requested quantities are summed per product so duplicate item lines
	// cannot slip past the sufficiency check.
	requested := make(map[uuid.UUID]int)
	for _, item := range items {
		requested[item.ProductID] += item.Quantity
	}

	var violations []string
	for _, id := range ids {
		product, ok := byID[id]
		if !ok {
			violations = append(violations, fmt.Sprintf("product %s was not found", id))
			continue
		}
		if !product.HasSufficientStock(requested[id]) {
			violations = append(violations, fmt.Sprintf("Insufficient stock for product %s: available %d, requested %d",
				product.Name, product.Stock, requested[id]))
		}
	}

	return violations, nil
}
