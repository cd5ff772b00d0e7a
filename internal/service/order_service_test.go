package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/safar/order-management/internal/domain"
	"github.com/safar/order-management/internal/events"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// memData holds the fake store state. Units of work stage a copy of it and
// swap it in on commit, so a rollback leaves the shared state untouched.
type memData struct {
	products map[uuid.UUID]domain.Product
	orders   map[uuid.UUID]domain.Order
}

func newMemData() *memData {
	return &memData{
		products: make(map[uuid.UUID]domain.Product),
		orders:   make(map[uuid.UUID]domain.Order),
	}
}

func (d *memData) clone() *memData {
	copied := newMemData()
	for id, p := range d.products {
		copied.products[id] = p
	}
	for id, o := range d.orders {
		copied.orders[id] = o
	}
	return copied
}

type memStore struct {
	data *memData
}

func (s *memStore) NewUnitOfWork() domain.UnitOfWork {
	return &memUnitOfWork{store: s}
}

type memUnitOfWork struct {
	store      *memStore
	staged     *memData
	committed  bool
	rolledBack bool
}

func (u *memUnitOfWork) BeginTransaction(ctx context.Context) error {
	if u.staged != nil {
		return errors.New("transaction already open")
	}
	u.staged = u.store.data.clone()
	return nil
}

func (u *memUnitOfWork) SaveChanges(ctx context.Context) error {
	if u.staged == nil {
		return errors.New("no open transaction")
	}
	return nil
}

func (u *memUnitOfWork) CommitTransaction() error {
	if u.staged == nil {
		return errors.New("no open transaction")
	}
	u.store.data = u.staged
	u.staged = nil
	u.committed = true
	return nil
}

func (u *memUnitOfWork) RollbackTransaction() error {
	u.staged = nil
	u.rolledBack = true
	return nil
}

func (u *memUnitOfWork) Products() domain.ProductRepository {
	return &memProducts{uow: u}
}

func (u *memUnitOfWork) Orders() domain.OrderRepository {
	return &memOrders{uow: u}
}

func (u *memUnitOfWork) target() *memData {
	if u.staged != nil {
		return u.staged
	}
	return u.store.data
}

type memProducts struct {
	uow *memUnitOfWork
}

func (r *memProducts) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := r.uow.target().products[id]
	if !ok {
		return nil, domain.NewNotFound("product", id.String())
	}
	copied := p
	return &copied, nil
}

func (r *memProducts) GetAll(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range r.uow.target().products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memProducts) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	var out []domain.Product
	for _, id := range ids {
		if p, ok := r.uow.target().products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProducts) Add(ctx context.Context, product *domain.Product) error {
	r.uow.target().products[product.ID] = *product
	return nil
}

func (r *memProducts) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := r.uow.target().products[product.ID]; !ok {
		return domain.NewNotFound("product", product.ID.String())
	}
	r.uow.target().products[product.ID] = *product
	return nil
}

type memOrders struct {
	uow *memUnitOfWork
}

func (r *memOrders) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := r.uow.target().orders[id]
	if !ok {
		return nil, domain.NewNotFound("order", id.String())
	}
	copied := o
	return &copied, nil
}

func (r *memOrders) GetAll(ctx context.Context) ([]domain.Order, error) {
	return r.sorted(nil), nil
}

func (r *memOrders) GetPaged(ctx context.Context, page, pageSize int, status *domain.OrderStatus) ([]domain.Order, error) {
	orders := r.sorted(status)
	offset := (page - 1) * pageSize
	if offset >= len(orders) {
		return nil, nil
	}
	end := offset + pageSize
	if end > len(orders) {
		end = len(orders)
	}
	return orders[offset:end], nil
}

func (r *memOrders) GetCount(ctx context.Context, status *domain.OrderStatus) (int64, error) {
	return int64(len(r.sorted(status))), nil
}

func (r *memOrders) Add(ctx context.Context, order *domain.Order) error {
	r.uow.target().orders[order.ID] = *order
	return nil
}

func (r *memOrders) Update(ctx context.Context, order *domain.Order) error {
	if _, ok := r.uow.target().orders[order.ID]; !ok {
		return domain.NewNotFound("order", order.ID.String())
	}
	r.uow.target().orders[order.ID] = *order
	return nil
}

func (r *memOrders) sorted(status *domain.OrderStatus) []domain.Order {
	var out []domain.Order
	for _, o := range r.uow.target().orders {
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OrderNumber < out[j].OrderNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

type published struct {
	queue string
	event any
}

type fakePublisher struct {
	published []published
	failAll   bool
}

func (p *fakePublisher) Publish(ctx context.Context, queue string, event any) error {
	if p.failAll {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, published{queue: queue, event: event})
	return nil
}

func newTestService(t *testing.T) (*OrderService, *memStore, *fakePublisher) {
	t.Helper()
	store := &memStore{data: newMemData()}
	publisher := &fakePublisher{}
	svc := NewOrderService(store, publisher, zap.NewNop())
	return svc, store, publisher
}

func seedProduct(t *testing.T, store *memStore, name string, price int64, stock int) *domain.Product {
	t.Helper()
	product, err := domain.NewProduct(name, decimal.NewFromInt(price), stock)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	store.data.products[product.ID] = *product
	return product
}

func TestCreateOrder(t *testing.T) {
	svc, store, publisher := newTestService(t)
	product := seedProduct(t, store, "Laptop", 100, 10)

	view, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if view.Status != string(domain.OrderStatusPending) {
		t.Errorf("Expected status Pending, got %s", view.Status)
	}
	if !view.TotalAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected total 200, got %s", view.TotalAmount)
	}
	if len(view.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(view.Items))
	}

	if got := store.data.products[product.ID].Stock; got != 8 {
		t.Errorf("Expected stock 8, got %d", got)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("Expected 1 published event, got %d", len(publisher.published))
	}
	if publisher.published[0].queue != events.OrderCreatedQueue {
		t.Errorf("Expected queue %s, got %s", events.OrderCreatedQueue, publisher.published[0].queue)
	}
	event, ok := publisher.published[0].event.(events.OrderCreatedEvent)
	if !ok {
		t.Fatalf("Expected OrderCreatedEvent, got %T", publisher.published[0].event)
	}
	if event.OrderNumber != view.OrderNumber {
		t.Errorf("Event order number %s, want %s", event.OrderNumber, view.OrderNumber)
	}
	if !event.TotalAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Event total %s, want 200", event.TotalAmount)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	svc, store, publisher := newTestService(t)
	product := seedProduct(t, store, "Laptop", 100, 1)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 5}},
	})
	if !domain.IsValidation(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Insufficient stock") {
		t.Errorf("Expected insufficient stock violation, got %q", err.Error())
	}

	if len(store.data.orders) != 0 {
		t.Error("No order may be persisted on validation failure")
	}
	if len(publisher.published) != 0 {
		t.Error("No event may be published on validation failure")
	}
	if got := store.data.products[product.ID].Stock; got != 1 {
		t.Errorf("Stock must be unchanged, got %d", got)
	}
}

func TestCreateOrderAggregatesViolations(t *testing.T) {
	svc, store, _ := newTestService(t)
	product := seedProduct(t, store, "Laptop", 100, 10)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName:  "",
		CustomerEmail: "not-an-email",
		Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 0}},
	})

	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if len(validationErr.Violations) != 3 {
		t.Errorf("Expected 3 violations, got %d: %v", len(validationErr.Violations), validationErr.Violations)
	}
	for _, want := range []string{"customer name is required", "valid email address is required", "quantity must be greater than zero"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected violation %q in %q", want, err.Error())
		}
	}
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		Items:         []CreateOrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	if !domain.IsValidation(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "was not found") {
		t.Errorf("Expected not-found violation, got %q", err.Error())
	}
}

func TestCreateOrderPublishFailureRollsBack(t *testing.T) {
	svc, store, publisher := newTestService(t)
	product := seedProduct(t, store, "Laptop", 100, 10)
	publisher.failAll = true

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err == nil {
		t.Fatal("Expected publish failure to surface")
	}

	if len(store.data.orders) != 0 {
		t.Error("Order must not be persisted when publish fails")
	}
	if got := store.data.products[product.ID].Stock; got != 10 {
		t.Errorf("Stock must be rolled back to 10, got %d", got)
	}
}

func TestCancelOrder(t *testing.T) {
	svc, store, publisher := newTestService(t)
	product := seedProduct(t, store, "Laptop", 100, 10)

	created, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	view, err := svc.CancelOrder(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Cancel order: %v", err)
	}
	if view.Status != string(domain.OrderStatusCancelled) {
		t.Errorf("Expected status Cancelled, got %s", view.Status)
	}

	if len(publisher.published) != 2 {
		t.Fatalf("Expected 2 published events, got %d", len(publisher.published))
	}
	if publisher.published[1].queue != events.OrderCancelledQueue {
		t.Errorf("Expected queue %s, got %s", events.OrderCancelledQueue, publisher.published[1].queue)
	}
	event, ok := publisher.published[1].event.(events.OrderCancelledEvent)
	if !ok {
		t.Fatalf("Expected OrderCancelledEvent, got %T", publisher.published[1].event)
	}
	if event.CustomerEmail != "jane@example.com" {
		t.Errorf("Event email %s, want jane@example.com", event.CustomerEmail)
	}

	_, err = svc.CancelOrder(context.Background(), created.ID)
	if !domain.IsInvalidOperation(err) {
		t.Fatalf("Expected invalid operation on double cancel, got %v", err)
	}
	if !strings.Contains(err.Error(), "already cancelled") {
		t.Errorf("Expected already-cancelled message, got %q", err.Error())
	}
}

func TestCancelCompletedOrder(t *testing.T) {
	svc, store, _ := newTestService(t)

	item, err := domain.NewOrderItem(uuid.New(), 1, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("Create item: %v", err)
	}
	order, err := domain.NewOrder("Jane Doe", "jane@example.com", []*domain.OrderItem{item})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}
	order.PopEvents()
	if err := order.Complete(); err != nil {
		t.Fatalf("Complete order: %v", err)
	}
	store.data.orders[order.ID] = *order

	_, err = svc.CancelOrder(context.Background(), order.ID)
	if !domain.IsInvalidOperation(err) {
		t.Fatalf("Expected invalid operation, got %v", err)
	}
	if !strings.Contains(err.Error(), "cannot cancel a completed order") {
		t.Errorf("Expected completed-order message, got %q", err.Error())
	}
}

func TestCancelOrderNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CancelOrder(context.Background(), uuid.New())
	if !domain.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestGetOrdersPaged(t *testing.T) {
	svc, store, _ := newTestService(t)
	product := seedProduct(t, store, "Laptop", 100, 100)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
			CustomerName:  fmt.Sprintf("Customer %d", i),
			CustomerEmail: fmt.Sprintf("customer%d@example.com", i),
			Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		})
		if err != nil {
			t.Fatalf("Create order %d: %v", i, err)
		}
	}

	result, err := svc.GetOrders(context.Background(), 1, 2, nil)
	if err != nil {
		t.Fatalf("Get orders: %v", err)
	}
	if len(result.Items) != 2 {
		t.Errorf("Expected 2 items, got %d", len(result.Items))
	}
	if result.TotalCount != 3 {
		t.Errorf("Expected total count 3, got %d", result.TotalCount)
	}
	if result.TotalPages != 2 {
		t.Errorf("Expected 2 total pages, got %d", result.TotalPages)
	}
	if !result.HasNext {
		t.Error("Expected a next page")
	}

	cancelled := domain.OrderStatusCancelled
	filtered, err := svc.GetOrders(context.Background(), 1, 10, &cancelled)
	if err != nil {
		t.Fatalf("Get cancelled orders: %v", err)
	}
	if len(filtered.Items) != 0 {
		t.Errorf("Expected no cancelled orders, got %d", len(filtered.Items))
	}
}
