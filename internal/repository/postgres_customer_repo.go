package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/allstar/sportshub/internal/model"
)

// PostgresCustomerRepo はPostgreSQLを使用した顧客リポジトリ。
type PostgresCustomerRepo struct {
	db *sql.DB
}

// NewPostgresCustomerRepo はPostgresCustomerRepoを生成する。
func NewPostgresCustomerRepo(db *sql.DB) *PostgresCustomerRepo {
	return &PostgresCustomerRepo{db: db}
}

const customerColumns = `id, name, email, phone, city, state, address, postal_code,
	country, notes, created_at, last_purchase_date, total_purchases`

func scanCustomer(row interface{ Scan(dest ...any) error }) (*model.Customer, error) {
	c := &model.Customer{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.City, &c.State, &c.Address,
		&c.PostalCode, &c.Country, &c.Notes, &c.CreatedAt,
		&c.LastPurchaseDate, &c.TotalPurchases,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByID は指定IDの顧客を取得する。見つからない場合はnilを返す。
func (r *PostgresCustomerRepo) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	customer, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer by ID: %w", err)
	}
	return customer, nil
}

// List は全顧客を作成日時の降順で返す。
func (r *PostgresCustomerRepo) List(ctx context.Context) ([]*model.Customer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []*model.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return customers, nil
}

// Create は顧客を作成する。
func (r *PostgresCustomerRepo) Create(ctx context.Context, customer *model.Customer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (id, name, email, phone, city, state, address,
		 postal_code, country, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		customer.ID, customer.Name, customer.Email, customer.Phone,
		customer.City, customer.State, customer.Address, customer.PostalCode,
		customer.Country, customer.Notes, customer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}

// Update は顧客情報を更新する。集計値は注文作成トランザクションが所有する。
func (r *PostgresCustomerRepo) Update(ctx context.Context, customer *model.Customer) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE customers SET name = $1, email = $2, phone = $3, city = $4,
		 state = $5, address = $6, postal_code = $7, country = $8, notes = $9
		 WHERE id = $10`,
		customer.Name, customer.Email, customer.Phone, customer.City,
		customer.State, customer.Address, customer.PostalCode, customer.Country,
		customer.Notes, customer.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return requireRowAffected(result, "customer", customer.ID)
}

// DeleteByID は指定IDの顧客を削除する。
func (r *PostgresCustomerRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM customers WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return requireRowAffected(result, "customer", id)
}

// compile-time interface check
var _ CustomerRepository = (*PostgresCustomerRepo)(nil)
