package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safar/order-management/internal/domain"
)

type OrderRepository struct {
	uow *UnitOfWork
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `
		SELECT id, order_number, customer_name, customer_email, status, total_amount, created_at, updated_at, deleted
		FROM orders
		WHERE id = $1 AND deleted = FALSE`

	order, err := scanOrder(r.uow.runner().QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFound("order", id.String())
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := r.loadItems(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return order, nil
}

func (r *OrderRepository) GetAll(ctx context.Context) ([]domain.Order, error) {
	query := `
		SELECT id, order_number, customer_name, customer_email, status, total_amount, created_at, updated_at, deleted
		FROM orders
		WHERE deleted = FALSE
		ORDER BY created_at DESC`

	rows, err := r.uow.runner().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}

	return r.attachItems(ctx, orders)
}

func (r *OrderRepository) GetPaged(ctx context.Context, page, pageSize int, status *domain.OrderStatus) ([]domain.Order, error) {
	offset := (page - 1) * pageSize

	query := `
		SELECT id, order_number, customer_name, customer_email, status, total_amount, created_at, updated_at, deleted
		FROM orders
		WHERE deleted = FALSE
		  AND ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.uow.runner().QueryContext(ctx, query, statusArg(status), pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders page: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}

	return r.attachItems(ctx, orders)
}

func (r *OrderRepository) GetCount(ctx context.Context, status *domain.OrderStatus) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE deleted = FALSE
		  AND ($1::text IS NULL OR status = $1)`

	var total int64
	if err := r.uow.runner().QueryRowContext(ctx, query, statusArg(status)).Scan(&total); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}

	return total, nil
}

func (r *OrderRepository) Add(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, order_number, customer_name, customer_email, status, total_amount, created_at, updated_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.uow.runner().ExecContext(ctx, query,
		order.ID,
		order.OrderNumber,
		order.CustomerName,
		order.CustomerEmail,
		string(order.Status),
		order.TotalAmount,
		order.CreatedAt,
		order.UpdatedAt,
		order.Deleted,
	)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	for _, item := range order.Items {
		_, err := r.uow.runner().ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.CreatedAt)
		if err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}

	return nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $1, total_amount = $2, updated_at = $3, deleted = $4
		WHERE id = $5`

	result, err := r.uow.runner().ExecContext(ctx, query,
		string(order.Status),
		order.TotalAmount,
		order.UpdatedAt,
		order.Deleted,
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewNotFound("order", order.ID.String())
	}

	return nil
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []domain.Order) ([]domain.Order, error) {
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]domain.OrderItem, error) {
	idStrings := make([]string, 0, len(orderIDs))
	for _, id := range orderIDs {
		idStrings = append(idStrings, id.String())
	}

	query := `
		SELECT id, order_id, product_id, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at, id`

	rows, err := r.uow.runner().QueryContext(ctx, query, pq.Array(idStrings))
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]domain.OrderItem)
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var status string
	var updatedAt sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CustomerName,
		&order.CustomerEmail,
		&status,
		&order.TotalAmount,
		&order.CreatedAt,
		&updatedAt,
		&order.Deleted,
	)
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatus(status)
	if updatedAt.Valid {
		order.UpdatedAt = &updatedAt.Time
	}

	return order, nil
}

func collectOrders(rows *sql.Rows) ([]domain.Order, error) {
	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

func statusArg(status *domain.OrderStatus) any {
	if status == nil {
		return nil
	}
	return string(*status)
}
