package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safar/order-management/internal/domain"
)

type ProductRepository struct {
	uow *UnitOfWork
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT id, name, price, stock, created_at, updated_at, deleted
		FROM products
		WHERE id = $1 AND deleted = FALSE`

	product, err := scanProduct(r.uow.runner().QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFound("product", id.String())
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (r *ProductRepository) GetAll(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, price, stock, created_at, updated_at, deleted
		FROM products
		WHERE deleted = FALSE
		ORDER BY name`

	rows, err := r.uow.runner().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *ProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	idStrings := make([]string, 0, len(ids))
	for _, id := range ids {
		idStrings = append(idStrings, id.String())
	}

	query := `
		SELECT id, name, price, stock, created_at, updated_at, deleted
		FROM products
		WHERE id = ANY($1) AND deleted = FALSE`

	rows, err := r.uow.runner().QueryContext(ctx, query, pq.Array(idStrings))
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *ProductRepository) Add(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, price, stock, created_at, updated_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.uow.runner().ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Price,
		product.Stock,
		product.CreatedAt,
		product.UpdatedAt,
		product.Deleted,
	)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $1, price = $2, stock = $3, updated_at = $4, deleted = $5
		WHERE id = $6`

	result, err := r.uow.runner().ExecContext(ctx, query,
		product.Name,
		product.Price,
		product.Stock,
		product.UpdatedAt,
		product.Deleted,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewNotFound("product", product.ID.String())
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var updatedAt sql.NullTime

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.Stock,
		&product.CreatedAt,
		&updatedAt,
		&product.Deleted,
	)
	if err != nil {
		return nil, err
	}

	if updatedAt.Valid {
		product.UpdatedAt = &updatedAt.Time
	}

	return product, nil
}

func collectProducts(rows *sql.Rows) ([]domain.Product, error) {
	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}
