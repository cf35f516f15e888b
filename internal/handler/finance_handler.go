package handler

import (
	"context"
	"net/http"

	"github.com/allstar/sportshub/internal/finance"
	"github.com/allstar/sportshub/internal/middleware"
	"github.com/allstar/sportshub/internal/model"
)

// FinanceServiceInterface はファイナンスハンドラーが必要とするサービスインターフェース。
type FinanceServiceInterface interface {
	Overview(ctx context.Context) (*finance.Overview, error)
	Summary(ctx context.Context) (*model.FinanceSummary, error)
}

// FinanceHandler は売上集計のHTTPハンドラー。すべて読み取り専用。
type FinanceHandler struct {
	service FinanceServiceInterface
}

// NewFinanceHandler はFinanceHandlerを生成する。
func NewFinanceHandler(service FinanceServiceInterface) *FinanceHandler {
	return &FinanceHandler{service: service}
}

// financeSummaryResponse は全体の売上集計レスポンス。
type financeSummaryResponse struct {
	TotalRevenue      float64 `json:"total_revenue"`
	OrderCount        int     `json:"order_count"`
	AverageOrderValue float64 `json:"average_order_value"`
	PendingOrders     int     `json:"pending_orders"`
}

// monthlyRevenueResponse は月次売上のレスポンス。
type monthlyRevenueResponse struct {
	Month      string  `json:"month"`
	Revenue    float64 `json:"revenue"`
	OrderCount int     `json:"order_count"`
}

// productSalesResponse は商品別売上のレスポンス。
type productSalesResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

// customerSpendResponse は顧客別購入額のレスポンス。
type customerSpendResponse struct {
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	OrderCount   int     `json:"order_count"`
	TotalSpend   float64 `json:"total_spend"`
}

// financeOverviewResponse はファイナンス画面の集計レスポンス。
type financeOverviewResponse struct {
	Summary      financeSummaryResponse   `json:"summary"`
	MonthlyTrend []monthlyRevenueResponse `json:"monthly_trend"`
	TopProducts  []productSalesResponse   `json:"top_products"`
	TopCustomers []customerSpendResponse  `json:"top_customers"`
}

// toFinanceSummaryResponse はmodel.FinanceSummaryからレスポンスに変換する。
func toFinanceSummaryResponse(s *model.FinanceSummary) financeSummaryResponse {
	return financeSummaryResponse{
		TotalRevenue:      s.TotalRevenue,
		OrderCount:        s.OrderCount,
		AverageOrderValue: s.AverageOrderValue,
		PendingOrders:     s.PendingOrders,
	}
}

// GetOverview はファイナンス画面用の売上集計を返す。
// GET /finance
func (h *FinanceHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := financeOverviewResponse{
		Summary:      toFinanceSummaryResponse(overview.Summary),
		MonthlyTrend: make([]monthlyRevenueResponse, 0, len(overview.MonthlyTrend)),
		TopProducts:  make([]productSalesResponse, 0, len(overview.TopProducts)),
		TopCustomers: make([]customerSpendResponse, 0, len(overview.TopCustomers)),
	}
	for _, m := range overview.MonthlyTrend {
		resp.MonthlyTrend = append(resp.MonthlyTrend, monthlyRevenueResponse{
			Month:      m.Month,
			Revenue:    m.Revenue,
			OrderCount: m.OrderCount,
		})
	}
	for _, p := range overview.TopProducts {
		resp.TopProducts = append(resp.TopProducts, productSalesResponse{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Quantity:    p.Quantity,
			Revenue:     p.Revenue,
		})
	}
	for _, c := range overview.TopCustomers {
		resp.TopCustomers = append(resp.TopCustomers, customerSpendResponse{
			CustomerID:   c.CustomerID,
			CustomerName: c.CustomerName,
			OrderCount:   c.OrderCount,
			TotalSpend:   c.TotalSpend,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// dashboardResponse はダッシュボード画面のレスポンス。
// 現在のユーザーと売上カードの集計を含む。
type dashboardResponse struct {
	User    userResponse           `json:"user"`
	Summary financeSummaryResponse `json:"summary"`
}

// GetDashboard はダッシュボード画面用のデータを返す。
// GET /dashboard
func (h *FinanceHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	summary, err := h.service.Summary(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		User:    toUserResponse(user),
		Summary: toFinanceSummaryResponse(summary),
	})
}
