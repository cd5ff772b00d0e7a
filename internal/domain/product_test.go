package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewProductValidation(t *testing.T) {
	if _, err := NewProduct("", decimal.NewFromInt(10), 5); !IsInvalidOperation(err) {
		t.Errorf("Expected invalid operation for empty name, got %v", err)
	}
	if _, err := NewProduct("Widget", decimal.Zero, 5); !IsInvalidOperation(err) {
		t.Errorf("Expected invalid operation for zero price, got %v", err)
	}
	if _, err := NewProduct("Widget", decimal.NewFromInt(10), -1); !IsInvalidOperation(err) {
		t.Errorf("Expected invalid operation for negative stock, got %v", err)
	}
}

func TestReduceStock(t *testing.T) {
	product, err := NewProduct("Widget", decimal.NewFromInt(10), 5)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	if err := product.ReduceStock(3); err != nil {
		t.Fatalf("Reduce stock: %v", err)
	}
	if product.Stock != 2 {
		t.Errorf("Expected stock 2, got %d", product.Stock)
	}

	if err := product.ReduceStock(3); !IsInvalidOperation(err) {
		t.Errorf("Expected invalid operation for insufficient stock, got %v", err)
	}
	if product.Stock != 2 {
		t.Errorf("Stock must be unchanged after failed reduce, got %d", product.Stock)
	}

	if err := product.ReduceStock(0); !IsInvalidOperation(err) {
		t.Errorf("Expected invalid operation for zero quantity, got %v", err)
	}
}

func TestHasSufficientStock(t *testing.T) {
	product, err := NewProduct("Widget", decimal.NewFromInt(10), 5)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	if !product.HasSufficientStock(5) {
		t.Error("Expected sufficient stock for 5")
	}
	if product.HasSufficientStock(6) {
		t.Error("Expected insufficient stock for 6")
	}
}
