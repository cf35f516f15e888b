package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/allstar/sportshub/internal/authstate"
	"github.com/allstar/sportshub/internal/middleware"
	"github.com/allstar/sportshub/internal/model"
)

// AuthManagerInterface は認証ハンドラーが必要とする状態管理インターフェース。
// authstate.Managerの操作の部分集合。
type AuthManagerInterface interface {
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	State() authstate.State
}

// SignInRecorder はサインイン成功時のプロフィール更新インターフェース。
type SignInRecorder interface {
	RecordSignIn(ctx context.Context, id string) error
}

// AuthHandler は認証ライフサイクルのHTTPハンドラー。
type AuthHandler struct {
	manager  AuthManagerInterface
	recorder SignInRecorder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(manager AuthManagerInterface, recorder SignInRecorder) *AuthHandler {
	return &AuthHandler{
		manager:  manager,
		recorder: recorder,
	}
}

// signInRequest はサインインリクエストのボディ。
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	IsActive   bool       `json:"is_active"`
	AvatarURL  string     `json:"avatar_url,omitempty"`
	LastSignIn *time.Time `json:"last_sign_in,omitempty"`
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       string(user.Role),
		IsActive:   user.IsActive,
		AvatarURL:  user.AvatarURL,
		LastSignIn: user.LastSignIn,
	}
}

// SignIn は資格情報によるサインインを処理する。
// POST /login
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("email and password are required"))
		return
	}

	if err := h.manager.SignIn(r.Context(), req.Email, req.Password); err != nil {
		handleServiceError(w, err)
		return
	}

	state := h.manager.State()
	if state.Phase != authstate.PhaseAuthenticated {
		// サインイン成功直後に認証状態でないのは想定外
		writeAPIErrorResponse(w, http.StatusServiceUnavailable, model.NewAuthUnavailableError())
		return
	}

	// 最終サインイン時刻の記録はベストエフォート
	if err := h.recorder.RecordSignIn(r.Context(), state.User.ID); err != nil {
		slog.Warn("failed to record sign-in time",
			slog.String("user_id", state.User.ID),
			slog.String("error", err.Error()),
		)
	}

	writeJSON(w, http.StatusOK, toUserResponse(state.User))
}

// SignOut はサインアウトを処理する。
// POST /logout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.SignOut(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loginStateResponse はサインイン画面向けの認証状態レスポンス。
type loginStateResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *userResponse `json:"user,omitempty"`
}

// LoginState は現在の認証状態を返す。
// ガードにリダイレクトされた未認証クライアントの着地点となる。
// GET /login
func (h *AuthHandler) LoginState(w http.ResponseWriter, r *http.Request) {
	state := h.manager.State()
	switch state.Phase {
	case authstate.PhaseAuthenticated:
		resp := toUserResponse(state.User)
		writeJSON(w, http.StatusOK, loginStateResponse{Authenticated: true, User: &resp})
	case authstate.PhaseBootstrapping:
		w.Header().Set("Retry-After", "1")
		writeAPIErrorResponse(w, http.StatusServiceUnavailable, &model.APIError{
			Code:     "SESSION_RESTORING",
			Message:  "Restoring your session...",
			Category: "auth",
			Action:   "Please retry in a moment.",
		})
	default:
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
	}
}

// Me はガードを通過した現在のユーザー情報を返す。
// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
