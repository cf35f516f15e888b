package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/allstar/sportshub/internal/model"
	"github.com/allstar/sportshub/internal/product"
)

// maxProxiedImageBytes はプロキシ配信する画像の最大サイズ。
const maxProxiedImageBytes = 10 << 20 // 10MiB

// ProductServiceInterface は商品ハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	List(ctx context.Context, category string) ([]*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, input product.Input) (*model.Product, error)
	Update(ctx context.Context, id string, input product.Input) (*model.Product, error)
	Deactivate(ctx context.Context, id string) error
}

// ProductHandler は商品カタログのHTTPハンドラー。
// imageClientはSSRF防止の検証付きHTTPクライアント。商品画像を
// オリジンから取得してプロキシ配信する際に使用する。
type ProductHandler struct {
	service     ProductServiceInterface
	imageClient *http.Client
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service ProductServiceInterface, imageClient *http.Client) *ProductHandler {
	return &ProductHandler{
		service:     service,
		imageClient: imageClient,
	}
}

// productRequest は商品作成・更新リクエストのボディ。
type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"image_url"`
}

// toInput はリクエストボディをサービス層の入力値に変換する。
func (req productRequest) toInput() product.Input {
	return product.Input{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	}
}

// productResponse は商品情報のAPIレスポンス。
type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Category    string    `json:"category,omitempty"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `json:"is_active"`
}

// toProductResponse はmodel.ProductからAPIレスポンスに変換する。
func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		IsActive:    p.IsActive,
	}
}

// ListProducts は商品一覧を取得する。categoryクエリで絞り込みできる。
// GET /products?category=...
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	products, err := h.service.List(r.Context(), category)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProduct は商品詳細を取得する。
// GET /products/:id
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

// CreateProduct は商品を登録する。
// POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(created))
}

// UpdateProduct は商品情報を更新する。
// PUT /products/:id
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), id, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(updated))
}

// DeactivateProduct は商品を論理無効化する。
// 注文明細からの参照を保持するため、物理削除は行わない。
// DELETE /products/:id
func (h *ProductHandler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProxyProductImage は商品画像をSSRF防止の検証付きクライアントで取得し、
// プロキシ配信する。混在コンテンツを避けるため、外部画像は直接参照せず
// このエンドポイントを経由して配信する。
// GET /products/:id/image
func (h *ProductHandler) ProxyProductImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if p.ImageURL == "" {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "IMAGE_NOT_FOUND",
			Message:  "This product has no image.",
			Category: "product",
			Action:   "Set an image URL for the product first.",
		})
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, p.ImageURL, nil)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp, err := h.imageClient.Do(req)
	if err != nil {
		slog.Warn("product image fetch failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusBadGateway, &model.APIError{
			Code:     "IMAGE_FETCH_FAILED",
			Message:  "Could not fetch the product image.",
			Category: "product",
			Action:   "Check the image URL and try again.",
		})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		writeAPIErrorResponse(w, http.StatusBadGateway, &model.APIError{
			Code:     "IMAGE_FETCH_FAILED",
			Message:  "The image origin returned an error.",
			Category: "product",
			Action:   "Check the image URL and try again.",
		})
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	io.Copy(w, io.LimitReader(resp.Body, maxProxiedImageBytes))
}
