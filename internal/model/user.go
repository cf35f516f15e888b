// Package model はドメインモデルを定義する。
package model

import "time"

// Role はダッシュボード利用者の権限を表す。
type Role string

const (
	// RoleAdmin は全画面と管理者セットアップにアクセスできる権限。
	RoleAdmin Role = "admin"
	// RoleManager は業務画面にアクセスできる権限。
	RoleManager Role = "manager"
	// RoleStaff は標準の権限。
	RoleStaff Role = "staff"
)

// ValidRole はroleが定義済みの値かどうかを返す。
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	default:
		return false
	}
}

// User はアプリケーションレベルのユーザーレコードを表す。
// IDはセッションのsubject IDと1:1で対応する。
// 物理削除は行わず、IsActiveによる論理無効化のみを行う。
type User struct {
	ID         string
	Email      string
	Name       string
	Role       Role
	IsActive   bool
	CreatedAt  time.Time
	LastSignIn *time.Time
	AvatarURL  string
}

// Session はIDプロバイダーが発行したセッションの読み取り専用プロジェクション。
// 資格情報と有効期限の管理はプロバイダー側が所有する。
type Session struct {
	UserID      string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}
