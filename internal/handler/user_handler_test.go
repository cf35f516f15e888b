package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/allstar/sportshub/internal/model"
)

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	listFunc        func(ctx context.Context) ([]*model.User, error)
	getFunc         func(ctx context.Context, id string) (*model.User, error)
	provisionFunc   func(ctx context.Context, email, password, name string, role model.Role) (*model.User, error)
	updateFunc      func(ctx context.Context, id, name string, role model.Role, avatarURL string) (*model.User, error)
	deactivateFunc  func(ctx context.Context, id string) error
	reactivateFunc  func(ctx context.Context, id string) error
	adminExistsFunc func(ctx context.Context) (bool, error)
	setupFunc       func(ctx context.Context, email, password, name string) (*model.User, error)
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	return m.listFunc(ctx)
}

func (m *mockUserService) Get(ctx context.Context, id string) (*model.User, error) {
	return m.getFunc(ctx, id)
}

func (m *mockUserService) Provision(ctx context.Context, email, password, name string, role model.Role) (*model.User, error) {
	return m.provisionFunc(ctx, email, password, name, role)
}

func (m *mockUserService) UpdateProfile(ctx context.Context, id, name string, role model.Role, avatarURL string) (*model.User, error) {
	return m.updateFunc(ctx, id, name, role, avatarURL)
}

func (m *mockUserService) Deactivate(ctx context.Context, id string) error {
	return m.deactivateFunc(ctx, id)
}

func (m *mockUserService) Reactivate(ctx context.Context, id string) error {
	return m.reactivateFunc(ctx, id)
}

func (m *mockUserService) AdminExists(ctx context.Context) (bool, error) {
	return m.adminExistsFunc(ctx)
}

func (m *mockUserService) EnsureInitialAdmin(ctx context.Context, email, password, name string) (*model.User, error) {
	return m.setupFunc(ctx, email, password, name)
}

func TestUserHandler_ProvisionUser_Returns201(t *testing.T) {
	var gotRole model.Role
	svc := &mockUserService{
		provisionFunc: func(ctx context.Context, email, password, name string, role model.Role) (*model.User, error) {
			gotRole = role
			return &model.User{ID: "user-2", Email: email, Name: name, Role: role, IsActive: true}, nil
		},
	}
	h := NewUserHandler(svc)

	body := `{"email":"new@allstar.example","password":"secret","name":"New Staff","role":"staff"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/users", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ProvisionUser(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if gotRole != model.RoleStaff {
		t.Errorf("role = %q, want staff", gotRole)
	}
}

func TestUserHandler_ProvisionUser_DuplicateEmail_Returns409(t *testing.T) {
	svc := &mockUserService{
		provisionFunc: func(ctx context.Context, email, password, name string, role model.Role) (*model.User, error) {
			return nil, model.NewDuplicateEmailError(email)
		},
	}
	h := NewUserHandler(svc)

	body := `{"email":"taken@allstar.example","password":"secret","name":"Dup","role":"staff"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/users", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ProvisionUser(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestUserHandler_UpdateUser_LastAdminDemotion_Returns400(t *testing.T) {
	svc := &mockUserService{
		updateFunc: func(ctx context.Context, id, name string, role model.Role, avatarURL string) (*model.User, error) {
			return nil, model.NewValidationError("cannot demote the last active admin")
		},
	}
	h := NewUserHandler(svc)

	req := withURLParam(httptest.NewRequest(http.MethodPatch, "/admin/users/admin-1",
		strings.NewReader(`{"name":"Admin","role":"staff"}`)), "id", "admin-1")
	rec := httptest.NewRecorder()
	h.UpdateUser(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUserHandler_DeactivateUser_Returns204(t *testing.T) {
	var gotID string
	svc := &mockUserService{
		deactivateFunc: func(ctx context.Context, id string) error {
			gotID = id
			return nil
		},
	}
	h := NewUserHandler(svc)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/admin/users/user-2/deactivate", nil), "id", "user-2")
	rec := httptest.NewRecorder()
	h.DeactivateUser(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if gotID != "user-2" {
		t.Errorf("id = %q, want user-2", gotID)
	}
}

func TestUserHandler_ReactivateUser_NotFound_Returns404(t *testing.T) {
	svc := &mockUserService{
		reactivateFunc: func(ctx context.Context, id string) error {
			return model.NewUserNotFoundError(id)
		},
	}
	h := NewUserHandler(svc)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/admin/users/missing/reactivate", nil), "id", "missing")
	rec := httptest.NewRecorder()
	h.ReactivateUser(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUserHandler_Setup_CreatesInitialAdmin(t *testing.T) {
	svc := &mockUserService{
		setupFunc: func(ctx context.Context, email, password, name string) (*model.User, error) {
			return &model.User{ID: "admin-1", Email: email, Name: name, Role: model.RoleAdmin, IsActive: true}, nil
		},
	}
	h := NewUserHandler(svc)

	body := `{"email":"admin@allstar.example","password":"secret","name":"Root Admin"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/setup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Setup(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}

	var resp userResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Role != "admin" {
		t.Errorf("role = %q, want admin", resp.Role)
	}
}

func TestUserHandler_Setup_AdminAlreadyExists_Returns400(t *testing.T) {
	svc := &mockUserService{
		setupFunc: func(ctx context.Context, email, password, name string) (*model.User, error) {
			return nil, model.NewValidationError("an admin account already exists")
		},
	}
	h := NewUserHandler(svc)

	body := `{"email":"admin@allstar.example","password":"secret","name":"Root Admin"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/setup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Setup(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUserHandler_SetupStatus_AdminExists_Returns200(t *testing.T) {
	svc := &mockUserService{
		adminExistsFunc: func(ctx context.Context) (bool, error) { return true, nil },
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/admin/setup", nil)
	rec := httptest.NewRecorder()
	h.SetupStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		AdminExists bool `json:"admin_exists"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !resp.AdminExists {
		t.Error("admin_exists = false, want true")
	}
}

func TestUserHandler_SetupStatus_ServiceFailure_Returns500(t *testing.T) {
	svc := &mockUserService{
		adminExistsFunc: func(ctx context.Context) (bool, error) {
			return false, errors.New("connection refused")
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/admin/setup", nil)
	rec := httptest.NewRecorder()
	h.SetupStatus(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

var _ UserServiceInterface = (*mockUserService)(nil)
