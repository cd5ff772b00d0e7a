package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/order-management/internal/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// NewUnitOfWork returns a request-scoped unit of work. It must not be shared
// across requests.
func (s *Store) NewUnitOfWork() domain.UnitOfWork {
	return &UnitOfWork{db: s.db}
}

type UnitOfWork struct {
	db *sql.DB
	tx *sql.Tx
}

func (u *UnitOfWork) BeginTransaction(ctx context.Context) error {
	if u.tx != nil {
		return errors.New("transaction already open")
	}

	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	u.tx = tx
	return nil
}

// SaveChanges asserts an open transaction. Statements are written through to
// the database as repositories issue them, so there is nothing to flush;
// the call marks the point where all pending writes must have succeeded.
func (u *UnitOfWork) SaveChanges(ctx context.Context) error {
	if u.tx == nil {
		return errors.New("no open transaction")
	}
	return nil
}

func (u *UnitOfWork) CommitTransaction() error {
	if u.tx == nil {
		return errors.New("no open transaction")
	}

	err := u.tx.Commit()
	u.tx = nil
	if err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction is safe to call after a failed or absent commit.
func (u *UnitOfWork) RollbackTransaction() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback()
	u.tx = nil
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

func (u *UnitOfWork) Products() domain.ProductRepository {
	return &ProductRepository{uow: u}
}

func (u *UnitOfWork) Orders() domain.OrderRepository {
	return &OrderRepository{uow: u}
}

func (u *UnitOfWork) runner() querier {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}
