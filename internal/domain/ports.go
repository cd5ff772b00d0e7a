package domain

import (
	"context"

	"github.com/google/uuid"
)

type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetAll(ctx context.Context) ([]Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	Add(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
}

type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetAll(ctx context.Context) ([]Order, error)
	GetPaged(ctx context.Context, page, pageSize int, status *OrderStatus) ([]Order, error)
	GetCount(ctx context.Context, status *OrderStatus) (int64, error)
	Add(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
}

// UnitOfWork scopes repository work to one transaction. Repositories
// obtained from it write through the open transaction once BeginTransaction
// has been called, and read directly from the store otherwise.
type UnitOfWork interface {
	BeginTransaction(ctx context.Context) error
	SaveChanges(ctx context.Context) error
	CommitTransaction() error
	RollbackTransaction() error
	Products() ProductRepository
	Orders() OrderRepository
}

// UnitOfWorkFactory hands out a fresh request-scoped unit of work.
// Concurrent requests touching the same order rely on the store's
// transaction isolation, not on in-process locking.
type UnitOfWorkFactory interface {
	NewUnitOfWork() UnitOfWork
}
