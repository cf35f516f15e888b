// Package customer は顧客管理のドメインロジックを提供する。
package customer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/allstar/sportshub/internal/model"
	"github.com/allstar/sportshub/internal/repository"
	"github.com/allstar/sportshub/internal/security"
)

// Input は顧客の作成・更新に使用する入力値。
type Input struct {
	Name       string
	Email      string
	Phone      string
	City       string
	State      string
	Address    string
	PostalCode string
	Country    string
	Notes      string
}

// Detail は顧客情報と注文履歴を結合したドメインオブジェクト。
type Detail struct {
	Customer *model.Customer
	Orders   []*model.Order
}

// Service は顧客管理のサービス層。
// 自由記述のNotesは保存前にサニタイズされる。
// TotalPurchasesとLastPurchaseDateは注文作成トランザクションが所有するため、
// このサービスからは更新しない。
type Service struct {
	customers repository.CustomerRepository
	orders    repository.OrderRepository
	sanitizer security.TextSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	customers repository.CustomerRepository,
	orders repository.OrderRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{customers: customers, orders: orders, sanitizer: sanitizer}
}

// List は全顧客を返す。
func (s *Service) List(ctx context.Context) ([]*model.Customer, error) {
	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("顧客一覧の取得に失敗しました: %w", err)
	}
	return customers, nil
}

// Get は指定IDの顧客を注文履歴付きで返す。
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("顧客の取得に失敗しました: %w", err)
	}
	if customer == nil {
		return nil, model.NewCustomerNotFoundError(id)
	}

	orders, err := s.orders.ListByCustomerID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("注文履歴の取得に失敗しました: %w", err)
	}

	return &Detail{Customer: customer, Orders: orders}, nil
}

// Create は顧客を作成する。
func (s *Service) Create(ctx context.Context, input Input) (*model.Customer, error) {
	if input.Name == "" || input.Email == "" {
		return nil, model.NewValidationError("name and email are required")
	}

	customer := &model.Customer{
		ID:         uuid.NewString(),
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		City:       input.City,
		State:      input.State,
		Address:    input.Address,
		PostalCode: input.PostalCode,
		Country:    input.Country,
		Notes:      s.sanitizer.Sanitize(input.Notes),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("顧客の作成に失敗しました: %w", err)
	}
	return customer, nil
}

// Update は顧客情報を更新する。
func (s *Service) Update(ctx context.Context, id string, input Input) (*model.Customer, error) {
	if input.Name == "" || input.Email == "" {
		return nil, model.NewValidationError("name and email are required")
	}

	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("顧客の取得に失敗しました: %w", err)
	}
	if customer == nil {
		return nil, model.NewCustomerNotFoundError(id)
	}

	customer.Name = input.Name
	customer.Email = input.Email
	customer.Phone = input.Phone
	customer.City = input.City
	customer.State = input.State
	customer.Address = input.Address
	customer.PostalCode = input.PostalCode
	customer.Country = input.Country
	customer.Notes = s.sanitizer.Sanitize(input.Notes)

	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("顧客の更新に失敗しました: %w", err)
	}
	return customer, nil
}

// Delete は注文履歴のない顧客を削除する。
// 注文が存在する顧客は参照整合性を保つため削除できない。
func (s *Service) Delete(ctx context.Context, id string) error {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("顧客の取得に失敗しました: %w", err)
	}
	if customer == nil {
		return model.NewCustomerNotFoundError(id)
	}

	orders, err := s.orders.ListByCustomerID(ctx, id)
	if err != nil {
		return fmt.Errorf("注文履歴の取得に失敗しました: %w", err)
	}
	if len(orders) > 0 {
		return model.NewValidationError("customer with orders cannot be deleted")
	}

	if err := s.customers.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("顧客の削除に失敗しました: %w", err)
	}
	return nil
}
