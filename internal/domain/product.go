package domain

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	Entity
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

func NewProduct(name string, price decimal.Decimal, stock int) (*Product, error) {
	if name == "" {
		return nil, NewInvalidOperation("product name cannot be empty")
	}
	if !price.IsPositive() {
		return nil, NewInvalidOperation("product price must be greater than zero")
	}
	if stock < 0 {
		return nil, NewInvalidOperation("product stock cannot be negative")
	}

	return &Product{
		Entity: NewEntity(),
		Name:   name,
		Price:  price,
		Stock:  stock,
	}, nil
}

func (p *Product) HasSufficientStock(quantity int) bool {
	return p.Stock >= quantity
}

// ReduceStock decrements stock, failing if the product cannot cover the
// requested quantity. Stock never goes negative.
func (p *Product) ReduceStock(quantity int) error {
	if quantity <= 0 {
		return NewInvalidOperation("quantity must be greater than zero")
	}
	if p.Stock < quantity {
		return NewInvalidOperation("insufficient stock for product %s: available %d, requested %d", p.Name, p.Stock, quantity)
	}

	p.Stock -= quantity
	p.Touch()
	return nil
}

func (p *Product) UpdateStock(newStock int) error {
	if newStock < 0 {
		return NewInvalidOperation("product stock cannot be negative")
	}

	p.Stock = newStock
	p.Touch()
	return nil
}
