package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/allstar/sportshub/internal/customer"
	"github.com/allstar/sportshub/internal/model"
)

// CustomerServiceInterface は顧客ハンドラーが必要とするサービスインターフェース。
type CustomerServiceInterface interface {
	List(ctx context.Context) ([]*model.Customer, error)
	Get(ctx context.Context, id string) (*customer.Detail, error)
	Create(ctx context.Context, input customer.Input) (*model.Customer, error)
	Update(ctx context.Context, id string, input customer.Input) (*model.Customer, error)
	Delete(ctx context.Context, id string) error
}

// CustomerHandler は顧客管理のHTTPハンドラー。
type CustomerHandler struct {
	service CustomerServiceInterface
}

// NewCustomerHandler はCustomerHandlerを生成する。
func NewCustomerHandler(service CustomerServiceInterface) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// customerRequest は顧客作成・更新リクエストのボディ。
type customerRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	State      string `json:"state"`
	Address    string `json:"address"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Notes      string `json:"notes"`
}

// toInput はリクエストボディをサービス層の入力値に変換する。
func (req customerRequest) toInput() customer.Input {
	return customer.Input{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		City:       req.City,
		State:      req.State,
		Address:    req.Address,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Notes:      req.Notes,
	}
}

// customerResponse は顧客情報のAPIレスポンス。
type customerResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone,omitempty"`
	City             string     `json:"city,omitempty"`
	State            string     `json:"state,omitempty"`
	Address          string     `json:"address,omitempty"`
	PostalCode       string     `json:"postal_code,omitempty"`
	Country          string     `json:"country,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	LastPurchaseDate *time.Time `json:"last_purchase_date,omitempty"`
	TotalPurchases   float64    `json:"total_purchases"`
}

// customerDetailResponse は顧客情報と注文履歴の詳細レスポンス。
type customerDetailResponse struct {
	customerResponse
	Orders []orderResponse `json:"orders"`
}

// toCustomerResponse はmodel.CustomerからAPIレスポンスに変換する。
func toCustomerResponse(c *model.Customer) customerResponse {
	return customerResponse{
		ID:               c.ID,
		Name:             c.Name,
		Email:            c.Email,
		Phone:            c.Phone,
		City:             c.City,
		State:            c.State,
		Address:          c.Address,
		PostalCode:       c.PostalCode,
		Country:          c.Country,
		Notes:            c.Notes,
		CreatedAt:        c.CreatedAt,
		LastPurchaseDate: c.LastPurchaseDate,
		TotalPurchases:   c.TotalPurchases,
	}
}

// ListCustomers は顧客一覧を取得する。
// GET /customers
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, toCustomerResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCustomer は顧客詳細を注文履歴付きで取得する。
// GET /customers/:id
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := customerDetailResponse{
		customerResponse: toCustomerResponse(detail.Customer),
		Orders:           make([]orderResponse, 0, len(detail.Orders)),
	}
	for _, o := range detail.Orders {
		resp.Orders = append(resp.Orders, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateCustomer は顧客を登録する。
// POST /customers
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerResponse(created))
}

// UpdateCustomer は顧客情報を更新する。
// PUT /customers/:id
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), id, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(updated))
}

// DeleteCustomer は顧客を削除する。注文履歴のある顧客は削除できない。
// DELETE /customers/:id
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
