package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/allstar/sportshub/internal/authstate"
	"github.com/allstar/sportshub/internal/middleware"
	"github.com/allstar/sportshub/internal/model"
)

// stubStateSource は固定の認証状態を返すStateSource実装。
type stubStateSource struct {
	state authstate.State
}

func (s *stubStateSource) State() authstate.State { return s.state }

// stubPinger は常に成功するPinger実装。
type stubPinger struct{ err error }

func (s *stubPinger) PingContext(ctx context.Context) error { return s.err }

// newTestRouter は指定された認証状態でルーターを構成する。
func newTestRouter(state authstate.State) http.Handler {
	deps := &RouterDeps{
		StateSource:       &stubStateSource{state: state},
		RateLimiter:       middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig()),
		CORSAllowedOrigin: "https://hub.allstar.example",
		CSRFConfig:        middleware.CSRFConfig{},
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		AuthManager: &mockAuthManager{
			signInFunc:  func(ctx context.Context, email, password string) error { return nil },
			signOutFunc: func(ctx context.Context) error { return nil },
			stateFunc:   func() authstate.State { return state },
		},
		SignInRecorder: &mockSignInRecorder{},
		CustomerService: &mockCustomerService{
			listFunc: func(ctx context.Context) ([]*model.Customer, error) {
				return []*model.Customer{testCustomer()}, nil
			},
		},
		ProductService: &mockProductService{
			listFunc: func(ctx context.Context, category string) ([]*model.Product, error) {
				return []*model.Product{testProduct()}, nil
			},
		},
		OrderService: &mockOrderService{
			listFunc: func(ctx context.Context) ([]*model.Order, error) {
				return nil, nil
			},
		},
		FinanceService: &mockFinanceService{
			summaryFunc: func(ctx context.Context) (*model.FinanceSummary, error) {
				return testSummary(), nil
			},
		},
		UserService: &mockUserService{
			listFunc: func(ctx context.Context) ([]*model.User, error) {
				return []*model.User{activeUser()}, nil
			},
			adminExistsFunc: func(ctx context.Context) (bool, error) {
				return true, nil
			},
		},
		ImageClient: &http.Client{},
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		DB: &stubPinger{},
	}
	return NewRouter(deps)
}

func TestRouter_Bootstrapping_ProtectedRouteReturns503WithoutRedirect(t *testing.T) {
	router := newTestRouter(authstate.Bootstrapping())

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header should be set")
	}
	if rec.Header().Get("Location") != "" {
		t.Error("must not redirect while session restore is in flight")
	}

	var resp apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Code != "SESSION_RESTORING" {
		t.Errorf("code = %q, want SESSION_RESTORING", resp.Code)
	}
}

func TestRouter_Unauthenticated_ProtectedRouteRedirectsToLogin(t *testing.T) {
	router := newTestRouter(authstate.Unauthenticated())

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/login" {
		t.Errorf("Location = %q, want /login", got)
	}
}

func TestRouter_AuthenticatedStaff_ProtectedRouteSucceeds(t *testing.T) {
	router := newTestRouter(authstate.Authenticated(activeUser()))

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRouter_AuthenticatedStaff_AdminRouteRedirectsToDashboard(t *testing.T) {
	router := newTestRouter(authstate.Authenticated(activeUser()))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", got)
	}
}

func TestRouter_AuthenticatedAdmin_AdminRouteSucceeds(t *testing.T) {
	admin := activeUser()
	admin.Role = model.RoleAdmin
	router := newTestRouter(authstate.Authenticated(admin))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRouter_AuthenticatedStaff_SetupPageRedirectsToDashboard(t *testing.T) {
	router := newTestRouter(authstate.Authenticated(activeUser()))

	req := httptest.NewRequest(http.MethodGet, "/admin/setup", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", got)
	}
}

func TestRouter_AuthenticatedAdmin_SetupPageReturnsStatus(t *testing.T) {
	admin := activeUser()
	admin.Role = model.RoleAdmin
	router := newTestRouter(authstate.Authenticated(admin))

	req := httptest.NewRequest(http.MethodGet, "/admin/setup", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

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

func TestRouter_Unauthenticated_LoginStateTerminatesRedirectChain(t *testing.T) {
	router := newTestRouter(authstate.Unauthenticated())

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("Location") != "" {
		t.Error("login state endpoint must not redirect again")
	}

	var resp apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Code != "UNAUTHORIZED" {
		t.Errorf("code = %q, want UNAUTHORIZED", resp.Code)
	}
}

func TestRouter_Authenticated_LoginStateReturnsUser(t *testing.T) {
	router := newTestRouter(authstate.Authenticated(activeUser()))

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !resp.Authenticated {
		t.Error("authenticated = false, want true")
	}
}

func TestRouter_Healthz_AccessibleWithoutAuthentication(t *testing.T) {
	router := newTestRouter(authstate.Unauthenticated())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRouter_CSRFTokenEndpoint_AccessibleWithoutAuthentication(t *testing.T) {
	router := newTestRouter(authstate.Unauthenticated())

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRouter_MutatingRequest_WithoutCSRFToken_Returns403(t *testing.T) {
	router := newTestRouter(authstate.Authenticated(activeUser()))

	req := httptest.NewRequest(http.MethodPost, "/customers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRouter_UnknownPath_ReturnsJSON404(t *testing.T) {
	router := newTestRouter(authstate.Unauthenticated())

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var resp apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", resp.Code)
	}
}

func TestRouter_SecurityHeaders_AppliedToAllRoutes(t *testing.T) {
	router := newTestRouter(authstate.Unauthenticated())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}
