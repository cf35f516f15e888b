package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/allstar/sportshub/internal/model"
)

// UserServiceInterface はユーザー管理ハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	List(ctx context.Context) ([]*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Provision(ctx context.Context, email, password, name string, role model.Role) (*model.User, error)
	UpdateProfile(ctx context.Context, id, name string, role model.Role, avatarURL string) (*model.User, error)
	Deactivate(ctx context.Context, id string) error
	Reactivate(ctx context.Context, id string) error
	AdminExists(ctx context.Context) (bool, error)
	EnsureInitialAdmin(ctx context.Context, email, password, name string) (*model.User, error)
}

// UserHandler はスタッフアカウント管理のHTTPハンドラー。
// 管理者専用ルートに配置される。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// provisionUserRequest はスタッフアカウント作成リクエストのボディ。
type provisionUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// updateUserRequest はプロフィール更新リクエストのボディ。
type updateUserRequest struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url"`
}

// setupRequest は初期管理者セットアップリクエストのボディ。
type setupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// ListUsers はスタッフアカウント一覧を取得する。
// GET /admin/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetUser はスタッフアカウント詳細を取得する。
// GET /admin/users/:id
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// ProvisionUser はIDプロバイダーへのアカウント登録とプロフィール行の
// 作成をまとめて行う。
// POST /admin/users
func (h *UserHandler) ProvisionUser(w http.ResponseWriter, r *http.Request) {
	var req provisionUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Provision(r.Context(), req.Email, req.Password, req.Name, model.Role(req.Role))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(created))
}

// UpdateUser はスタッフアカウントのプロフィールを更新する。
// PATCH /admin/users/:id
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), id, req.Name, model.Role(req.Role), req.AvatarURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// DeactivateUser はスタッフアカウントを論理無効化する。
// POST /admin/users/:id/deactivate
func (h *UserHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReactivateUser は論理無効化されたスタッフアカウントを再有効化する。
// POST /admin/users/:id/reactivate
func (h *UserHandler) ReactivateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Reactivate(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// setupStatusResponse は初期セットアップ状況のAPIレスポンス。
type setupStatusResponse struct {
	AdminExists bool `json:"admin_exists"`
}

// SetupStatus は初期セットアップの完了状況を返す。
// 管理者専用ルートに配置され、セットアップ画面の表示判定に使用される。
// GET /admin/setup
func (h *UserHandler) SetupStatus(w http.ResponseWriter, r *http.Request) {
	exists, err := h.service.AdminExists(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setupStatusResponse{AdminExists: exists})
}

// Setup は初期管理者アカウントを作成する。
// 管理者が既に存在する場合は拒否されるため、未認証ルートに配置できる。
// POST /admin/setup
func (h *UserHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	admin, err := h.service.EnsureInitialAdmin(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(admin))
}
