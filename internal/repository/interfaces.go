// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/allstar/sportshub/internal/model"
)

// ErrInsufficientStock は注文作成時に商品在庫が不足している場合に返される。
var ErrInsufficientStock = errors.New("insufficient stock")

// UserRepository はアプリケーションユーザーの永続化インターフェース。
// ユーザーは物理削除しない。無効化はSetActiveで行う。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// List は全ユーザーを作成日時の降順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// Update は名前・ロール・アバターURLを更新する。
	Update(ctx context.Context, user *model.User) error

	// SetActive はユーザーの有効フラグを更新する。
	SetActive(ctx context.Context, id string, active bool) error

	// RecordSignIn は最終サインイン日時を記録する。
	RecordSignIn(ctx context.Context, id string, at time.Time) error

	// CountAdmins は有効な管理者ユーザー数を返す。
	CountAdmins(ctx context.Context) (int, error)
}

// CustomerRepository は顧客データの永続化インターフェース。
type CustomerRepository interface {
	// FindByID は指定IDの顧客を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Customer, error)

	// List は全顧客を作成日時の降順で返す。
	List(ctx context.Context) ([]*model.Customer, error)

	// Create は顧客を作成する。
	Create(ctx context.Context, customer *model.Customer) error

	// Update は顧客情報を更新する。集計値は注文作成トランザクションが所有する。
	Update(ctx context.Context, customer *model.Customer) error

	// DeleteByID は指定IDの顧客を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// ProductRepository は商品データの永続化インターフェース。
type ProductRepository interface {
	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// List は全商品を作成日時の降順で返す。categoryが空でない場合は絞り込む。
	List(ctx context.Context, category string) ([]*model.Product, error)

	// Create は商品を作成する。
	Create(ctx context.Context, product *model.Product) error

	// Update は商品情報を更新する。在庫の減算は注文作成トランザクションが所有する。
	Update(ctx context.Context, product *model.Product) error

	// SetActive は商品の有効フラグを更新する。
	SetActive(ctx context.Context, id string, active bool) error
}

// OrderRepository は注文データの永続化インターフェース。
type OrderRepository interface {
	// FindByID は指定IDの注文を明細付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Order, []*model.OrderItem, error)

	// List は全注文を作成日時の降順で返す。
	List(ctx context.Context) ([]*model.Order, error)

	// ListByCustomerID は指定顧客の注文を作成日時の降順で返す。
	ListByCustomerID(ctx context.Context, customerID string) ([]*model.Order, error)

	// CreateWithItems は注文・明細の作成、在庫減算、顧客集計の更新を
	// 単一トランザクションで行う。いずれかの商品の在庫が不足している場合は
	// ErrInsufficientStockを返し、全体をロールバックする。
	CreateWithItems(ctx context.Context, order *model.Order, items []*model.OrderItem) error

	// UpdateStatus は注文の処理状態を更新する。
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error

	// DeleteByID は指定IDの注文を削除する。明細はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// FinanceRepository は売上集計の読み取り専用インターフェース。
// キャンセル済み注文はすべての集計から除外する。
type FinanceRepository interface {
	// Summary は全体の売上集計を返す。
	Summary(ctx context.Context) (*model.FinanceSummary, error)

	// RevenueByMonth は直近months分の月次売上を古い月から順に返す。
	RevenueByMonth(ctx context.Context, months int) ([]*model.MonthlyRevenue, error)

	// TopProducts は売上上位limit件の商品を返す。
	TopProducts(ctx context.Context, limit int) ([]*model.ProductSales, error)

	// TopCustomers は購入額上位limit件の顧客を返す。
	TopCustomers(ctx context.Context, limit int) ([]*model.CustomerSpend, error)
}
