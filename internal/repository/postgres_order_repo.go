package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/allstar/sportshub/internal/model"
)

// PostgresOrderRepo はPostgreSQLを使用した注文リポジトリ。
type PostgresOrderRepo struct {
	db *sql.DB
}

// NewPostgresOrderRepo はPostgresOrderRepoを生成する。
func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db}
}

const orderColumns = `id, customer_id, status, created_at, total, shipping_method,
	shipping_address, shipping_city, shipping_state, shipping_postal_code,
	shipping_country, payment_method, notes`

func scanOrder(row interface{ Scan(dest ...any) error }) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.Status, &o.CreatedAt, &o.Total,
		&o.ShippingMethod, &o.ShippingAddress, &o.ShippingCity,
		&o.ShippingState, &o.ShippingPostalCode, &o.ShippingCountry,
		&o.PaymentMethod, &o.Notes,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// FindByID は指定IDの注文を明細付きで取得する。見つからない場合はnilを返す。
func (r *PostgresOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, []*model.OrderItem, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, price
		 FROM order_items WHERE order_id = $1 ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	var items []*model.OrderItem
	for rows.Next() {
		item := &model.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate order items: %w", err)
	}

	return order, items, nil
}

// List は全注文を作成日時の降順で返す。
func (r *PostgresOrderRepo) List(ctx context.Context) ([]*model.Order, error) {
	return r.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`,
	)
}

// ListByCustomerID は指定顧客の注文を作成日時の降順で返す。
func (r *PostgresOrderRepo) ListByCustomerID(ctx context.Context, customerID string) ([]*model.Order, error) {
	return r.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`,
		customerID,
	)
}

func (r *PostgresOrderRepo) listOrders(ctx context.Context, query string, args ...any) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

// CreateWithItems は注文・明細の作成、在庫減算、顧客集計の更新を
// 単一トランザクションで行う。いずれかの商品の在庫が不足している場合は
// ErrInsufficientStockを返し、全体をロールバックする。
func (r *PostgresOrderRepo) CreateWithItems(ctx context.Context, order *model.Order, items []*model.OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, customer_id, status, created_at, total,
		 shipping_method, shipping_address, shipping_city, shipping_state,
		 shipping_postal_code, shipping_country, payment_method, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		order.ID, order.CustomerID, order.Status, order.CreatedAt, order.Total,
		order.ShippingMethod, order.ShippingAddress, order.ShippingCity,
		order.ShippingState, order.ShippingPostalCode, order.ShippingCountry,
		order.PaymentMethod, order.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, price)
			 VALUES ($1, $2, $3, $4, $5)`,
			item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}

		// 在庫チェックと減算を1文で行い、並行する注文との競合を排除する。
		result, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`,
			item.Quantity, item.ProductID,
		)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("product %s: %w", item.ProductID, ErrInsufficientStock)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE customers
		 SET total_purchases = total_purchases + $1, last_purchase_date = $2
		 WHERE id = $3`,
		order.Total, order.CreatedAt, order.CustomerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer aggregates: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateStatus は注文の処理状態を更新する。
func (r *PostgresOrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return requireRowAffected(result, "order", id)
}

// DeleteByID は指定IDの注文を削除する。明細はCASCADE削除される。
func (r *PostgresOrderRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM orders WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return requireRowAffected(result, "order", id)
}

// compile-time interface check
var _ OrderRepository = (*PostgresOrderRepo)(nil)
