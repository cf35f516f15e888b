// Package authstate は認証セッションのライフサイクルを管理する状態機械を提供する。
// 状態は Bootstrapping → Authenticated | Unauthenticated の3値で、
// loadingフラグとユーザーの独立した組み合わせによる不正状態を許さない。
package authstate

import "github.com/allstar/sportshub/internal/model"

// Phase は認証状態機械の局面を表す。
type Phase int

const (
	// PhaseBootstrapping は起動時のセッション復元中。
	// この間は保護コンテンツの描画もリダイレクトも行われない。
	PhaseBootstrapping Phase = iota
	// PhaseUnauthenticated は有効なセッションが存在しない状態。
	PhaseUnauthenticated
	// PhaseAuthenticated は有効なセッションとプロフィールの両方が揃った状態。
	PhaseAuthenticated
)

// String はPhaseの文字列表現を返す。
func (p Phase) String() string {
	switch p {
	case PhaseBootstrapping:
		return "bootstrapping"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State は認証状態のスナップショット。
// UserはPhaseAuthenticatedの場合のみ非nil。
type State struct {
	Phase Phase
	User  *model.User
}

// Bootstrapping はセッション復元中の状態を返す。
func Bootstrapping() State {
	return State{Phase: PhaseBootstrapping}
}

// Unauthenticated は未認証状態を返す。
func Unauthenticated() State {
	return State{Phase: PhaseUnauthenticated}
}

// Authenticated は認証済み状態を返す。
// プロフィールなしの認証済み状態は表現できないため、userがnilの場合は
// フェイルクローズで未認証状態を返す。
func Authenticated(user *model.User) State {
	if user == nil {
		return Unauthenticated()
	}
	return State{Phase: PhaseAuthenticated, User: user}
}
