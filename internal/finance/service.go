// Package finance は売上集計のドメインロジックを提供する。
// すべて読み取り専用で、キャンセル済み注文は集計から除外される。
package finance

import (
	"context"
	"fmt"

	"github.com/allstar/sportshub/internal/model"
	"github.com/allstar/sportshub/internal/repository"
)

// 集計のデフォルト範囲。
const (
	defaultMonths  = 12
	defaultTopSize = 5
)

// Overview はファイナンス画面とダッシュボードに表示する集計のまとまり。
type Overview struct {
	Summary      *model.FinanceSummary
	MonthlyTrend []*model.MonthlyRevenue
	TopProducts  []*model.ProductSales
	TopCustomers []*model.CustomerSpend
}

// Service は売上集計のサービス層。
type Service struct {
	finance repository.FinanceRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(finance repository.FinanceRepository) *Service {
	return &Service{finance: finance}
}

// Overview は直近12ヶ月の売上推移と上位5件の商品・顧客を含む集計を返す。
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	summary, err := s.finance.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("売上集計の取得に失敗しました: %w", err)
	}

	trend, err := s.finance.RevenueByMonth(ctx, defaultMonths)
	if err != nil {
		return nil, fmt.Errorf("月次売上の取得に失敗しました: %w", err)
	}

	topProducts, err := s.finance.TopProducts(ctx, defaultTopSize)
	if err != nil {
		return nil, fmt.Errorf("商品別集計の取得に失敗しました: %w", err)
	}

	topCustomers, err := s.finance.TopCustomers(ctx, defaultTopSize)
	if err != nil {
		return nil, fmt.Errorf("顧客別集計の取得に失敗しました: %w", err)
	}

	return &Overview{
		Summary:      summary,
		MonthlyTrend: trend,
		TopProducts:  topProducts,
		TopCustomers: topCustomers,
	}, nil
}

// Summary は全体の売上集計のみを返す。ダッシュボードのカード表示用。
func (s *Service) Summary(ctx context.Context) (*model.FinanceSummary, error) {
	summary, err := s.finance.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("売上集計の取得に失敗しました: %w", err)
	}
	return summary, nil
}
