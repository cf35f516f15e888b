// Package order は注文管理のドメインロジックを提供する。
package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/allstar/sportshub/internal/model"
	"github.com/allstar/sportshub/internal/repository"
	"github.com/allstar/sportshub/internal/security"
)

// ItemInput は注文明細の入力値。単価は入力せず、注文時点の商品価格を
// スナップショットとして記録する。
type ItemInput struct {
	ProductID string
	Quantity  int
}

// CreateInput は注文作成の入力値。
type CreateInput struct {
	CustomerID         string
	Items              []ItemInput
	ShippingMethod     string
	ShippingAddress    string
	ShippingCity       string
	ShippingState      string
	ShippingPostalCode string
	ShippingCountry    string
	PaymentMethod      string
	Notes              string
}

// Detail は注文・明細・顧客を結合したドメインオブジェクト。
type Detail struct {
	Order    *model.Order
	Items    []*model.OrderItem
	Customer *model.Customer
}

// Service は注文管理のサービス層。
// 注文作成は明細の挿入・在庫減算・顧客集計の更新を
// リポジトリ層の単一トランザクションに委ねる。
type Service struct {
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	products  repository.ProductRepository
	sanitizer security.TextSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	orders repository.OrderRepository,
	customers repository.CustomerRepository,
	products repository.ProductRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{orders: orders, customers: customers, products: products, sanitizer: sanitizer}
}

// List は全注文を返す。
func (s *Service) List(ctx context.Context) ([]*model.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("注文一覧の取得に失敗しました: %w", err)
	}
	return orders, nil
}

// Get は指定IDの注文を明細・顧客付きで返す。
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	order, items, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError(id)
	}

	customer, err := s.customers.FindByID(ctx, order.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("顧客の取得に失敗しました: %w", err)
	}

	return &Detail{Order: order, Items: items, Customer: customer}, nil
}

// Create は注文を作成する。
// 各明細の単価は注文時点の商品価格のスナップショット。合計は明細から計算する。
// 在庫が不足している商品がある場合は作成全体が失敗し、何も記録されない。
func (s *Service) Create(ctx context.Context, input CreateInput) (*Detail, error) {
	if input.CustomerID == "" {
		return nil, model.NewValidationError("customer_id is required")
	}
	if len(input.Items) == 0 {
		return nil, model.NewValidationError("order must contain at least one item")
	}

	customer, err := s.customers.FindByID(ctx, input.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("顧客の取得に失敗しました: %w", err)
	}
	if customer == nil {
		return nil, model.NewCustomerNotFoundError(input.CustomerID)
	}

	orderID := uuid.NewString()
	var items []*model.OrderItem
	var total float64
	for _, in := range input.Items {
		if in.Quantity <= 0 {
			return nil, model.NewValidationError("item quantity must be positive")
		}

		product, err := s.products.FindByID(ctx, in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
		}
		if product == nil || !product.IsActive {
			return nil, model.NewProductNotFoundError(in.ProductID)
		}
		if product.Stock < in.Quantity {
			return nil, model.NewInsufficientStockError(in.ProductID)
		}

		items = append(items, &model.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			Price:     product.Price,
		})
		total += product.Price * float64(in.Quantity)
	}

	order := &model.Order{
		ID:                 orderID,
		CustomerID:         input.CustomerID,
		Status:             model.OrderStatusPending,
		CreatedAt:          time.Now().UTC(),
		Total:              math.Round(total*100) / 100,
		ShippingMethod:     input.ShippingMethod,
		ShippingAddress:    input.ShippingAddress,
		ShippingCity:       input.ShippingCity,
		ShippingState:      input.ShippingState,
		ShippingPostalCode: input.ShippingPostalCode,
		ShippingCountry:    input.ShippingCountry,
		PaymentMethod:      input.PaymentMethod,
		Notes:              s.sanitizer.Sanitize(input.Notes),
	}

	if err := s.orders.CreateWithItems(ctx, order, items); err != nil {
		// 事前チェック後に並行する注文が在庫を消費した場合。
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, model.NewInsufficientStockError("")
		}
		return nil, fmt.Errorf("注文の作成に失敗しました: %w", err)
	}

	return &Detail{Order: order, Items: items, Customer: customer}, nil
}

// UpdateStatus は注文の処理状態を更新する。
// cancelledとdeliveredは終端状態であり、そこからの遷移は許可しない。
func (s *Service) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	if !model.ValidOrderStatus(status) {
		return nil, model.NewInvalidStatusError(string(status))
	}

	order, _, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError(id)
	}

	if order.Status == model.OrderStatusCancelled || order.Status == model.OrderStatusDelivered {
		return nil, model.NewInvalidStatusError(string(status))
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("注文状態の更新に失敗しました: %w", err)
	}
	order.Status = status
	return order, nil
}

// Delete は指定IDの注文を削除する。明細も同時に削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	order, _, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil {
		return model.NewOrderNotFoundError(id)
	}
	if err := s.orders.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("注文の削除に失敗しました: %w", err)
	}
	return nil
}
