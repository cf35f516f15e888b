// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/allstar/sportshub/internal/authstate"
	"github.com/allstar/sportshub/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("auth_user")

// StateSource は現在の認証状態を提供するインターフェース。
// authstate.Managerの読み取り専用の部分集合。
type StateSource interface {
	State() authstate.State
}

// GuardMetrics はガード判定の計測フック。
type GuardMetrics interface {
	RecordGuardDecision(outcome string)
}

// nopGuardMetrics は計測を無効化するGuardMetrics実装。
type nopGuardMetrics struct{}

func (nopGuardMetrics) RecordGuardDecision(outcome string) {}

// RolePredicate は認証済みユーザーのロールを検査する述語。
type RolePredicate func(role model.Role) bool

// AnyRole は全ロールを許可する述語。
func AnyRole(role model.Role) bool { return true }

// AdminOnly はadminロールのみを許可する述語。
func AdminOnly(role model.Role) bool { return role == model.RoleAdmin }

// NewGuardMiddleware は認証状態に基づく保護ルーティングのミドルウェアを返す。
//
// 判定は状態機械の局面のみに基づく:
//   - Bootstrapping: セッション復元が完了するまで503を返す。保護コンテンツの
//     描画も/loginへのリダイレクトも行わない（復元完了前の誤リダイレクト防止）。
//   - Unauthenticated: 303で/loginへリダイレクトする。
//   - Authenticated: ロール述語を評価し、不許可の場合は303で/dashboardへ
//     リダイレクトする。許可された場合はユーザーをコンテキストに注入する。
func NewGuardMiddleware(source StateSource, allow RolePredicate, metrics GuardMetrics) func(next http.Handler) http.Handler {
	if metrics == nil {
		metrics = nopGuardMetrics{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := source.State()

			switch state.Phase {
			case authstate.PhaseBootstrapping:
				metrics.RecordGuardDecision("bootstrapping")
				w.Header().Set("Retry-After", "1")
				WriteErrorResponse(w, http.StatusServiceUnavailable, &model.APIError{
					Code:     "SESSION_RESTORING",
					Message:  "Restoring your session...",
					Category: "auth",
					Action:   "Please retry in a moment.",
				})
				return

			case authstate.PhaseUnauthenticated:
				metrics.RecordGuardDecision("redirect_login")
				http.Redirect(w, r, authstate.RouteLogin, http.StatusSeeOther)
				return
			}

			if !allow(state.User.Role) {
				metrics.RecordGuardDecision("role_denied")
				http.Redirect(w, r, authstate.RouteDashboard, http.StatusSeeOther)
				return
			}

			metrics.RecordGuardDecision("allowed")
			ctx := context.WithValue(r.Context(), userContextKey, state.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// ガードミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("authenticated user not found in context")
	}
	return user, nil
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
