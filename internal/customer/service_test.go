package customer

import (
	"context"
	"errors"
	"testing"

	"github.com/allstar/sportshub/internal/model"
	"github.com/allstar/sportshub/internal/repository"
	"github.com/allstar/sportshub/internal/security"
)

// --- モック ---

type mockCustomerRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Customer, error)
	listFn     func(ctx context.Context) ([]*model.Customer, error)
	createFn   func(ctx context.Context, customer *model.Customer) error
	updateFn   func(ctx context.Context, customer *model.Customer) error
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockCustomerRepo) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockCustomerRepo) List(ctx context.Context) ([]*model.Customer, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockCustomerRepo) Create(ctx context.Context, customer *model.Customer) error {
	if m.createFn != nil {
		return m.createFn(ctx, customer)
	}
	return nil
}
func (m *mockCustomerRepo) Update(ctx context.Context, customer *model.Customer) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, customer)
	}
	return nil
}
func (m *mockCustomerRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

var _ repository.CustomerRepository = (*mockCustomerRepo)(nil)

type mockOrderRepo struct {
	listByCustomerFn func(ctx context.Context, customerID string) ([]*model.Order, error)
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, []*model.OrderItem, error) {
	return nil, nil, nil
}
func (m *mockOrderRepo) List(ctx context.Context) ([]*model.Order, error) { return nil, nil }
func (m *mockOrderRepo) ListByCustomerID(ctx context.Context, customerID string) ([]*model.Order, error) {
	if m.listByCustomerFn != nil {
		return m.listByCustomerFn(ctx, customerID)
	}
	return nil, nil
}
func (m *mockOrderRepo) CreateWithItems(ctx context.Context, order *model.Order, items []*model.OrderItem) error {
	return nil
}
func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	return nil
}
func (m *mockOrderRepo) DeleteByID(ctx context.Context, id string) error { return nil }

var _ repository.OrderRepository = (*mockOrderRepo)(nil)

func newTestService(customers *mockCustomerRepo, orders *mockOrderRepo) *Service {
	return NewService(customers, orders, security.NewTextSanitizer())
}

// --- テスト ---

func TestCreate_SanitizesNotes(t *testing.T) {
	var created *model.Customer
	repo := &mockCustomerRepo{
		createFn: func(ctx context.Context, customer *model.Customer) error {
			created = customer
			return nil
		},
	}
	svc := newTestService(repo, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), Input{
		Name:  "Jordan Blake",
		Email: "jordan@example.com",
		Notes: `VIP<script>alert('xss')</script> season ticket holder`,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.Notes != "VIP season ticket holder" {
		t.Errorf("Notes = %q, want sanitized text", created.Notes)
	}
	if created.ID == "" {
		t.Error("ID should be generated")
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestCreate_MissingName_ReturnsValidationError(t *testing.T) {
	svc := newTestService(&mockCustomerRepo{}, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), Input{Email: "jordan@example.com"})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("Create() error = %v, want VALIDATION_FAILED", err)
	}
}

func TestGet_UnknownID_ReturnsNotFound(t *testing.T) {
	svc := newTestService(&mockCustomerRepo{}, &mockOrderRepo{})

	_, err := svc.Get(context.Background(), "ghost")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCustomerNotFound {
		t.Fatalf("Get() error = %v, want CUSTOMER_NOT_FOUND", err)
	}
}

func TestGet_IncludesOrderHistory(t *testing.T) {
	customers := &mockCustomerRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Customer, error) {
			return &model.Customer{ID: id, Name: "Jordan Blake"}, nil
		},
	}
	orders := &mockOrderRepo{
		listByCustomerFn: func(ctx context.Context, customerID string) ([]*model.Order, error) {
			return []*model.Order{{ID: "order-1", CustomerID: customerID}}, nil
		},
	}
	svc := newTestService(customers, orders)

	detail, err := svc.Get(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(detail.Orders) != 1 {
		t.Errorf("len(Orders) = %d, want 1", len(detail.Orders))
	}
}

func TestUpdate_PreservesAggregates(t *testing.T) {
	var updated *model.Customer
	customers := &mockCustomerRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Customer, error) {
			return &model.Customer{ID: id, Name: "Old", Email: "old@example.com", TotalPurchases: 500}, nil
		},
		updateFn: func(ctx context.Context, customer *model.Customer) error {
			updated = customer
			return nil
		},
	}
	svc := newTestService(customers, &mockOrderRepo{})

	_, err := svc.Update(context.Background(), "cust-1", Input{Name: "New", Email: "new@example.com"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	// 集計値は注文作成トランザクションの所有なので触らない。
	if updated.TotalPurchases != 500 {
		t.Errorf("TotalPurchases = %v, want 500", updated.TotalPurchases)
	}
}

func TestDelete_CustomerWithOrders_Rejected(t *testing.T) {
	deleted := false
	customers := &mockCustomerRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Customer, error) {
			return &model.Customer{ID: id}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	orders := &mockOrderRepo{
		listByCustomerFn: func(ctx context.Context, customerID string) ([]*model.Order, error) {
			return []*model.Order{{ID: "order-1"}}, nil
		},
	}
	svc := newTestService(customers, orders)

	err := svc.Delete(context.Background(), "cust-1")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("Delete() error = %v, want VALIDATION_FAILED", err)
	}
	if deleted {
		t.Error("customer must not be deleted while orders exist")
	}
}

func TestDelete_CustomerWithoutOrders_Succeeds(t *testing.T) {
	deleted := false
	customers := &mockCustomerRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Customer, error) {
			return &model.Customer{ID: id}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(customers, &mockOrderRepo{})

	if err := svc.Delete(context.Background(), "cust-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Error("customer should be deleted")
	}
}
