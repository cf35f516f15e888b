// Package product は商品カタログ管理のドメインロジックを提供する。
package product

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/allstar/sportshub/internal/model"
	"github.com/allstar/sportshub/internal/repository"
	"github.com/allstar/sportshub/internal/security"
)

// Input は商品の作成・更新に使用する入力値。
type Input struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Stock       int
	ImageURL    string
}

// Service は商品カタログ管理のサービス層。
// 商品説明は保存前にサニタイズされ、画像URLはSSRF防止の検証を通過する
// 必要がある。在庫の減算は注文作成トランザクションが所有する。
type Service struct {
	products  repository.ProductRepository
	guard     security.ImageURLGuardService
	sanitizer security.TextSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	products repository.ProductRepository,
	guard security.ImageURLGuardService,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{products: products, guard: guard, sanitizer: sanitizer}
}

// List は商品一覧を返す。categoryが空でない場合は絞り込む。
func (s *Service) List(ctx context.Context, category string) ([]*model.Product, error) {
	products, err := s.products.List(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("商品一覧の取得に失敗しました: %w", err)
	}
	return products, nil
}

// Get は指定IDの商品を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(id)
	}
	return product, nil
}

// Create は商品を作成する。
func (s *Service) Create(ctx context.Context, input Input) (*model.Product, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: s.sanitizer.Sanitize(input.Description),
		Price:       input.Price,
		Category:    input.Category,
		Stock:       input.Stock,
		ImageURL:    input.ImageURL,
		CreatedAt:   time.Now().UTC(),
		IsActive:    true,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("商品の作成に失敗しました: %w", err)
	}
	return product, nil
}

// Update は商品情報を更新する。
func (s *Service) Update(ctx context.Context, id string, input Input) (*model.Product, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(id)
	}

	product.Name = input.Name
	product.Description = s.sanitizer.Sanitize(input.Description)
	product.Price = input.Price
	product.Category = input.Category
	product.Stock = input.Stock
	product.ImageURL = input.ImageURL

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("商品の更新に失敗しました: %w", err)
	}
	return product, nil
}

// Deactivate は商品を論理無効化する。注文明細からの参照を保つため削除しない。
func (s *Service) Deactivate(ctx context.Context, id string) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return model.NewProductNotFoundError(id)
	}
	if err := s.products.SetActive(ctx, id, false); err != nil {
		return fmt.Errorf("商品の無効化に失敗しました: %w", err)
	}
	return nil
}

// validate は入力値の共通検証を行う。
func (s *Service) validate(input Input) error {
	if input.Name == "" {
		return model.NewValidationError("name is required")
	}
	if input.Price <= 0 {
		return model.NewValidationError("price must be positive")
	}
	if input.Stock < 0 {
		return model.NewValidationError("stock must not be negative")
	}
	if input.ImageURL != "" {
		if err := s.guard.ValidateURL(input.ImageURL); err != nil {
			return model.NewInvalidImageURLError(err.Error())
		}
	}
	return nil
}
