// Package user はダッシュボード利用者管理のドメインロジックを提供する。
//
// 利用者のアカウントはIDプロバイダー側の資格情報とアプリケーション側の
// プロフィール行の2つで構成される。プロビジョニングは両方を1つのフローで
// 作成し、プロフィール行のIDにはプロバイダーのsubject IDを使用する。
package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/allstar/sportshub/internal/model"
	"github.com/allstar/sportshub/internal/repository"
	"github.com/allstar/sportshub/internal/sessionstore"
)

// Service は利用者管理のサービス層。
type Service struct {
	users repository.UserRepository
	store sessionstore.Store
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(users repository.UserRepository, store sessionstore.Store) *Service {
	return &Service{users: users, store: store}
}

// List は全利用者を返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("利用者一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// Get は指定IDの利用者を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("利用者の取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}

// Provision は新しい利用者をプロビジョニングする。
// IDプロバイダーへのアカウント登録とプロフィール行の作成を1つのフローで行う。
// プロバイダー登録後のプロフィール作成が失敗した場合、資格情報だけが
// 存在する不完全な状態になるが、その利用者のサインインは
// プロフィール参照の段階で拒否される。
func (s *Service) Provision(ctx context.Context, email, password, name string, role model.Role) (*model.User, error) {
	if email == "" || password == "" {
		return nil, model.NewValidationError("email and password are required")
	}
	if !model.ValidRole(role) {
		return nil, model.NewInvalidRoleError(string(role))
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("利用者の重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError(email)
	}

	session, err := s.store.SignUp(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("アカウント登録に失敗しました: %w", err)
	}

	id := session.UserID
	if id == "" {
		id = uuid.NewString()
	}
	user := &model.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("プロフィールの作成に失敗しました: %w", err)
	}
	return user, nil
}

// UpdateProfile は利用者の名前・ロール・アバターURLを更新する。
func (s *Service) UpdateProfile(ctx context.Context, id, name string, role model.Role, avatarURL string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, model.NewInvalidRoleError(string(role))
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("利用者の取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}

	// 最後の有効な管理者からadminロールを剥奪できない。
	if user.Role == model.RoleAdmin && role != model.RoleAdmin && user.IsActive {
		count, err := s.users.CountAdmins(ctx)
		if err != nil {
			return nil, fmt.Errorf("管理者数の取得に失敗しました: %w", err)
		}
		if count <= 1 {
			return nil, model.NewValidationError("cannot remove the last active admin")
		}
	}

	user.Name = name
	user.Role = role
	user.AvatarURL = avatarURL
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("利用者の更新に失敗しました: %w", err)
	}
	return user, nil
}

// Deactivate は利用者を論理無効化する。物理削除は行わない。
// 最後の有効な管理者は無効化できない。
func (s *Service) Deactivate(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("利用者の取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError(id)
	}

	if user.Role == model.RoleAdmin && user.IsActive {
		count, err := s.users.CountAdmins(ctx)
		if err != nil {
			return fmt.Errorf("管理者数の取得に失敗しました: %w", err)
		}
		if count <= 1 {
			return model.NewValidationError("cannot deactivate the last active admin")
		}
	}

	if err := s.users.SetActive(ctx, id, false); err != nil {
		return fmt.Errorf("利用者の無効化に失敗しました: %w", err)
	}
	return nil
}

// Reactivate は無効化された利用者を再度有効化する。
func (s *Service) Reactivate(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("利用者の取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError(id)
	}
	if err := s.users.SetActive(ctx, id, true); err != nil {
		return fmt.Errorf("利用者の有効化に失敗しました: %w", err)
	}
	return nil
}

// RecordSignIn は最終サインイン日時を現在時刻で記録する。
// サインインの成否には影響しないため、失敗はエラーとして返すのみ。
func (s *Service) RecordSignIn(ctx context.Context, id string) error {
	if err := s.users.RecordSignIn(ctx, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("サインイン日時の記録に失敗しました: %w", err)
	}
	return nil
}

// AdminExists は有効な管理者が1人以上存在するかを返す。
// 初期セットアップの要否判定に使用する。
func (s *Service) AdminExists(ctx context.Context) (bool, error) {
	count, err := s.users.CountAdmins(ctx)
	if err != nil {
		return false, fmt.Errorf("管理者数の取得に失敗しました: %w", err)
	}
	return count > 0, nil
}

// EnsureInitialAdmin は管理者が1人も存在しない場合に初期管理者を
// プロビジョニングする。既に有効な管理者が存在する場合はエラーを返す。
func (s *Service) EnsureInitialAdmin(ctx context.Context, email, password, name string) (*model.User, error) {
	count, err := s.users.CountAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("管理者数の取得に失敗しました: %w", err)
	}
	if count > 0 {
		return nil, model.NewValidationError("an admin account already exists")
	}
	return s.Provision(ctx, email, password, name, model.RoleAdmin)
}
