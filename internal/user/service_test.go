package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/allstar/sportshub/internal/model"
	"github.com/allstar/sportshub/internal/repository"
	"github.com/allstar/sportshub/internal/sessionstore"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	listFn        func(ctx context.Context) ([]*model.User, error)
	createFn      func(ctx context.Context, user *model.User) error
	updateFn      func(ctx context.Context, user *model.User) error
	setActiveFn   func(ctx context.Context, id string, active bool) error
	countAdminsFn func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}
func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}
func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}
func (m *mockUserRepo) SetActive(ctx context.Context, id string, active bool) error {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, id, active)
	}
	return nil
}
func (m *mockUserRepo) RecordSignIn(ctx context.Context, id string, at time.Time) error {
	return nil
}
func (m *mockUserRepo) CountAdmins(ctx context.Context) (int, error) {
	if m.countAdminsFn != nil {
		return m.countAdminsFn(ctx)
	}
	return 0, nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

type mockSessionStore struct {
	signUpFn func(ctx context.Context, email, password string) (*model.Session, error)
}

func (m *mockSessionStore) GetSession(ctx context.Context) (*model.Session, error) {
	return nil, nil
}
func (m *mockSessionStore) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	return nil, nil
}
func (m *mockSessionStore) SignOut(ctx context.Context) error { return nil }
func (m *mockSessionStore) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, email, password)
	}
	return &model.Session{UserID: "provider-id-1", Email: email}, nil
}
func (m *mockSessionStore) Subscribe() *sessionstore.Subscription {
	return sessionstore.NewHub().Subscribe()
}

var _ sessionstore.Store = (*mockSessionStore)(nil)

// --- テスト ---

func TestProvision_Success_UsesProviderSubjectID(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	svc := NewService(repo, &mockSessionStore{})

	user, err := svc.Provision(context.Background(), "new@example.com", "secret123", "New Staff", model.RoleStaff)
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	if user.ID != "provider-id-1" {
		t.Errorf("ID = %q, want provider-id-1", user.ID)
	}
	if !user.IsActive {
		t.Error("provisioned user should be active")
	}
	if created == nil {
		t.Fatal("profile row should be created")
	}
}

func TestProvision_DuplicateEmail_ReturnsError(t *testing.T) {
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "existing", Email: email}, nil
		},
	}
	svc := NewService(repo, &mockSessionStore{})

	_, err := svc.Provision(context.Background(), "taken@example.com", "secret123", "Dup", model.RoleStaff)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateEmail {
		t.Fatalf("Provision() error = %v, want DUPLICATE_EMAIL", err)
	}
}

func TestProvision_InvalidRole_ReturnsError(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionStore{})

	_, err := svc.Provision(context.Background(), "new@example.com", "secret123", "X", model.Role("owner"))

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRole {
		t.Fatalf("Provision() error = %v, want INVALID_ROLE", err)
	}
}

func TestProvision_SignUpFailure_DoesNotCreateProfile(t *testing.T) {
	created := false
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			created = true
			return nil
		},
	}
	store := &mockSessionStore{
		signUpFn: func(ctx context.Context, email, password string) (*model.Session, error) {
			return nil, errors.New("provider down")
		},
	}
	svc := NewService(repo, store)

	if _, err := svc.Provision(context.Background(), "new@example.com", "secret123", "X", model.RoleStaff); err == nil {
		t.Fatal("Provision() should fail when provider sign-up fails")
	}
	if created {
		t.Error("profile row must not be created when provider sign-up fails")
	}
}

func TestDeactivate_LastAdmin_Rejected(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleAdmin, IsActive: true}, nil
		},
		countAdminsFn: func(ctx context.Context) (int, error) { return 1, nil },
	}
	svc := NewService(repo, &mockSessionStore{})

	err := svc.Deactivate(context.Background(), "admin-1")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("Deactivate() error = %v, want VALIDATION_FAILED", err)
	}
}

func TestDeactivate_StaffUser_Succeeds(t *testing.T) {
	var deactivatedID string
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleStaff, IsActive: true}, nil
		},
		setActiveFn: func(ctx context.Context, id string, active bool) error {
			if active {
				t.Error("SetActive should be called with false")
			}
			deactivatedID = id
			return nil
		},
	}
	svc := NewService(repo, &mockSessionStore{})

	if err := svc.Deactivate(context.Background(), "staff-1"); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if deactivatedID != "staff-1" {
		t.Errorf("deactivated ID = %q, want staff-1", deactivatedID)
	}
}

func TestUpdateProfile_DemoteLastAdmin_Rejected(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleAdmin, IsActive: true}, nil
		},
		countAdminsFn: func(ctx context.Context) (int, error) { return 1, nil },
	}
	svc := NewService(repo, &mockSessionStore{})

	_, err := svc.UpdateProfile(context.Background(), "admin-1", "Solo Admin", model.RoleStaff, "")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("UpdateProfile() error = %v, want VALIDATION_FAILED", err)
	}
}

func TestUpdateProfile_UnknownUser_ReturnsNotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionStore{})

	_, err := svc.UpdateProfile(context.Background(), "ghost", "X", model.RoleStaff, "")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("UpdateProfile() error = %v, want USER_NOT_FOUND", err)
	}
}

func TestEnsureInitialAdmin_AdminExists_Rejected(t *testing.T) {
	repo := &mockUserRepo{
		countAdminsFn: func(ctx context.Context) (int, error) { return 1, nil },
	}
	svc := NewService(repo, &mockSessionStore{})

	_, err := svc.EnsureInitialAdmin(context.Background(), "boss@example.com", "secret123", "Boss")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("EnsureInitialAdmin() error = %v, want VALIDATION_FAILED", err)
	}
}

func TestEnsureInitialAdmin_NoAdmin_ProvisionsAdmin(t *testing.T) {
	repo := &mockUserRepo{
		countAdminsFn: func(ctx context.Context) (int, error) { return 0, nil },
	}
	svc := NewService(repo, &mockSessionStore{})

	user, err := svc.EnsureInitialAdmin(context.Background(), "boss@example.com", "secret123", "Boss")
	if err != nil {
		t.Fatalf("EnsureInitialAdmin() error = %v", err)
	}
	if user.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want admin", user.Role)
	}
}

func TestAdminExists_WithActiveAdmin_ReturnsTrue(t *testing.T) {
	repo := &mockUserRepo{
		countAdminsFn: func(ctx context.Context) (int, error) { return 2, nil },
	}
	svc := NewService(repo, &mockSessionStore{})

	exists, err := svc.AdminExists(context.Background())
	if err != nil {
		t.Fatalf("AdminExists() error = %v", err)
	}
	if !exists {
		t.Error("AdminExists() = false, want true")
	}
}

func TestAdminExists_NoAdmin_ReturnsFalse(t *testing.T) {
	repo := &mockUserRepo{
		countAdminsFn: func(ctx context.Context) (int, error) { return 0, nil },
	}
	svc := NewService(repo, &mockSessionStore{})

	exists, err := svc.AdminExists(context.Background())
	if err != nil {
		t.Fatalf("AdminExists() error = %v", err)
	}
	if exists {
		t.Error("AdminExists() = true, want false")
	}
}

func TestAdminExists_RepoFailure_ReturnsError(t *testing.T) {
	repo := &mockUserRepo{
		countAdminsFn: func(ctx context.Context) (int, error) { return 0, errors.New("connection refused") },
	}
	svc := NewService(repo, &mockSessionStore{})

	if _, err := svc.AdminExists(context.Background()); err == nil {
		t.Error("AdminExists() should fail when the repository fails")
	}
}
