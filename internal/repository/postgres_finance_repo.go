package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/allstar/sportshub/internal/model"
)

// PostgresFinanceRepo はPostgreSQLを使用した売上集計リポジトリ。
// すべてのクエリはキャンセル済み注文を除外する。
type PostgresFinanceRepo struct {
	db *sql.DB
}

// NewPostgresFinanceRepo はPostgresFinanceRepoを生成する。
func NewPostgresFinanceRepo(db *sql.DB) *PostgresFinanceRepo {
	return &PostgresFinanceRepo{db: db}
}

// Summary は全体の売上集計を返す。
func (r *PostgresFinanceRepo) Summary(ctx context.Context) (*model.FinanceSummary, error) {
	summary := &model.FinanceSummary{}
	err := r.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(total), 0),
		   COUNT(*),
		   COALESCE(AVG(total), 0),
		   COUNT(*) FILTER (WHERE status = 'pending')
		 FROM orders WHERE status <> 'cancelled'`,
	).Scan(
		&summary.TotalRevenue, &summary.OrderCount,
		&summary.AverageOrderValue, &summary.PendingOrders,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query finance summary: %w", err)
	}
	return summary, nil
}

// RevenueByMonth は直近months分の月次売上を古い月から順に返す。
func (r *PostgresFinanceRepo) RevenueByMonth(ctx context.Context, months int) ([]*model.MonthlyRevenue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month,
		        COALESCE(SUM(total), 0), COUNT(*)
		 FROM orders
		 WHERE status <> 'cancelled'
		   AND created_at >= date_trunc('month', NOW()) - ($1 - 1) * INTERVAL '1 month'
		 GROUP BY month
		 ORDER BY month`,
		months,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly revenue: %w", err)
	}
	defer rows.Close()

	var result []*model.MonthlyRevenue
	for rows.Next() {
		m := &model.MonthlyRevenue{}
		if err := rows.Scan(&m.Month, &m.Revenue, &m.OrderCount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly revenue: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monthly revenue: %w", err)
	}
	return result, nil
}

// TopProducts は売上上位limit件の商品を返す。
func (r *PostgresFinanceRepo) TopProducts(ctx context.Context, limit int) ([]*model.ProductSales, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name,
		        COALESCE(SUM(oi.quantity), 0),
		        COALESCE(SUM(oi.quantity * oi.price), 0) AS revenue
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id AND o.status <> 'cancelled'
		 JOIN products p ON p.id = oi.product_id
		 GROUP BY p.id, p.name
		 ORDER BY revenue DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	var result []*model.ProductSales
	for rows.Next() {
		p := &model.ProductSales{}
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Quantity, &p.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan product sales: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product sales: %w", err)
	}
	return result, nil
}

// TopCustomers は購入額上位limit件の顧客を返す。
func (r *PostgresFinanceRepo) TopCustomers(ctx context.Context, limit int) ([]*model.CustomerSpend, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, COUNT(o.id), COALESCE(SUM(o.total), 0) AS spend
		 FROM orders o
		 JOIN customers c ON c.id = o.customer_id
		 WHERE o.status <> 'cancelled'
		 GROUP BY c.id, c.name
		 ORDER BY spend DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query top customers: %w", err)
	}
	defer rows.Close()

	var result []*model.CustomerSpend
	for rows.Next() {
		c := &model.CustomerSpend{}
		if err := rows.Scan(&c.CustomerID, &c.CustomerName, &c.OrderCount, &c.TotalSpend); err != nil {
			return nil, fmt.Errorf("failed to scan customer spend: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customer spend: %w", err)
	}
	return result, nil
}

// compile-time interface check
var _ FinanceRepository = (*PostgresFinanceRepo)(nil)
