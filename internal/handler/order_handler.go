package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/allstar/sportshub/internal/model"
	"github.com/allstar/sportshub/internal/order"
)

// OrderServiceInterface は注文ハンドラーが必要とするサービスインターフェース。
type OrderServiceInterface interface {
	List(ctx context.Context) ([]*model.Order, error)
	Get(ctx context.Context, id string) (*order.Detail, error)
	Create(ctx context.Context, input order.CreateInput) (*order.Detail, error)
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)
	Delete(ctx context.Context, id string) error
}

// OrderHandler は注文管理のHTTPハンドラー。
type OrderHandler struct {
	service OrderServiceInterface
}

// NewOrderHandler はOrderHandlerを生成する。
func NewOrderHandler(service OrderServiceInterface) *OrderHandler {
	return &OrderHandler{service: service}
}

// orderItemRequest は注文明細の入力ボディ。単価は受け付けない。
type orderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// createOrderRequest は注文作成リクエストのボディ。
type createOrderRequest struct {
	CustomerID         string             `json:"customer_id"`
	Items              []orderItemRequest `json:"items"`
	ShippingMethod     string             `json:"shipping_method"`
	ShippingAddress    string             `json:"shipping_address"`
	ShippingCity       string             `json:"shipping_city"`
	ShippingState      string             `json:"shipping_state"`
	ShippingPostalCode string             `json:"shipping_postal_code"`
	ShippingCountry    string             `json:"shipping_country"`
	PaymentMethod      string             `json:"payment_method"`
	Notes              string             `json:"notes"`
}

// updateOrderStatusRequest は注文ステータス更新リクエストのボディ。
type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// orderItemResponse は注文明細のAPIレスポンス。
type orderItemResponse struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// orderResponse は注文情報のAPIレスポンス。
type orderResponse struct {
	ID                 string    `json:"id"`
	CustomerID         string    `json:"customer_id"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	Total              float64   `json:"total"`
	ShippingMethod     string    `json:"shipping_method,omitempty"`
	ShippingAddress    string    `json:"shipping_address,omitempty"`
	ShippingCity       string    `json:"shipping_city,omitempty"`
	ShippingState      string    `json:"shipping_state,omitempty"`
	ShippingPostalCode string    `json:"shipping_postal_code,omitempty"`
	ShippingCountry    string    `json:"shipping_country,omitempty"`
	PaymentMethod      string    `json:"payment_method,omitempty"`
	Notes              string    `json:"notes,omitempty"`
}

// orderDetailResponse は注文・明細・顧客を結合した詳細レスポンス。
type orderDetailResponse struct {
	orderResponse
	Items    []orderItemResponse `json:"items"`
	Customer *customerResponse   `json:"customer,omitempty"`
}

// toOrderResponse はmodel.OrderからAPIレスポンスに変換する。
func toOrderResponse(o *model.Order) orderResponse {
	return orderResponse{
		ID:                 o.ID,
		CustomerID:         o.CustomerID,
		Status:             string(o.Status),
		CreatedAt:          o.CreatedAt,
		Total:              o.Total,
		ShippingMethod:     o.ShippingMethod,
		ShippingAddress:    o.ShippingAddress,
		ShippingCity:       o.ShippingCity,
		ShippingState:      o.ShippingState,
		ShippingPostalCode: o.ShippingPostalCode,
		ShippingCountry:    o.ShippingCountry,
		PaymentMethod:      o.PaymentMethod,
		Notes:              o.Notes,
	}
}

// toOrderDetailResponse はorder.Detailから詳細レスポンスに変換する。
func toOrderDetailResponse(detail *order.Detail) orderDetailResponse {
	resp := orderDetailResponse{
		orderResponse: toOrderResponse(detail.Order),
		Items:         make([]orderItemResponse, 0, len(detail.Items)),
	}
	for _, item := range detail.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	if detail.Customer != nil {
		c := toCustomerResponse(detail.Customer)
		resp.Customer = &c
	}
	return resp
}

// ListOrders は注文一覧を取得する。
// GET /orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOrder は注文詳細を明細・顧客付きで取得する。
// GET /orders/:id
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// CreateOrder は注文を作成する。在庫の減算と顧客集計の更新は
// サービス層の単一トランザクションで行われる。
// POST /orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	input := order.CreateInput{
		CustomerID:         req.CustomerID,
		Items:              make([]order.ItemInput, 0, len(req.Items)),
		ShippingMethod:     req.ShippingMethod,
		ShippingAddress:    req.ShippingAddress,
		ShippingCity:       req.ShippingCity,
		ShippingState:      req.ShippingState,
		ShippingPostalCode: req.ShippingPostalCode,
		ShippingCountry:    req.ShippingCountry,
		PaymentMethod:      req.PaymentMethod,
		Notes:              req.Notes,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, order.ItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	detail, err := h.service.Create(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDetailResponse(detail))
}

// UpdateOrderStatus は注文のステータスを更新する。
// PUT /orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), id, model.OrderStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

// DeleteOrder は注文を削除する。
// DELETE /orders/:id
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
