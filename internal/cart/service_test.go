package cart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/partfinderz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
	"github.com/angelmondragon/partfinderz-backend/pkg/types"
)

type memoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]Snapshot
	saveErr  error
	delErr   error
	// onLoad runs before every Load when set.
	onLoad   func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[uuid.UUID]Snapshot{}}
}

func (m *memoryStore) Load(_ context.Context, userID uuid.UUID) (Snapshot, error) {
	if m.onLoad != nil {
		m.onLoad()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID], nil
}

func (m *memoryStore) Save(_ context.Context, userID uuid.UUID, snapshot Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[userID] = snapshot
	return nil
}

func (m *memoryStore) Delete(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.sessions, userID)
	return nil
}

func (m *memoryStore) snapshot(userID uuid.UUID) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.sessions[userID]
	return snap, ok
}

type stubProducts struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
}

func (s *stubProducts) FindActiveByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubProducts) update(id uuid.UUID, fn func(p *models.Product)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		fn(p)
	}
}

func (s *stubProducts) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

type stubAddresses struct {
	addr *types.DeliveryAddress
	err  error
}

func (s stubAddresses) Lookup(context.Context, string) (*types.DeliveryAddress, error) {
	if s.err != nil {
		return nil, s.err
	}
	copied := *s.addr
	return &copied, nil
}

type stubOrders struct {
	created []*models.Order
	err     error
}

func (s *stubOrders) Create(_ context.Context, order *models.Order) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, order)
	return nil
}

type stubObserver struct {
	calls int
	total decimal.Decimal
}

func (s *stubObserver) ObserveOrder(_ string, total decimal.Decimal) {
	s.calls++
	s.total = total
}

type serviceFixture struct {
	svc      Service
	store    *memoryStore
	products *stubProducts
	orders   *stubOrders
	observer *stubObserver
	product  *models.Product
	userID   uuid.UUID
}

func newServiceFixture(t *testing.T, stock int) serviceFixture {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		Name:       "Pastilha de freio dianteira",
		PartNumber: "N-1234",
		Brand:      "Cobreq",
		Price:      decimal.RequireFromString("145.90"),
		Stock:      stock,
		IsActive:   true,
	}
	store := newMemoryStore()
	products := &stubProducts{products: map[uuid.UUID]*models.Product{product.ID: product}}
	orders := &stubOrders{}
	observer := &stubObserver{}
	svc, err := NewService(ServiceDeps{
		Store:    store,
		Products: products,
		Addresses: stubAddresses{addr: &types.DeliveryAddress{
			Street: "Avenida Paulista", Neighborhood: "Bela Vista", City: "São Paulo", State: "SP", PostalCode: "01310100", Country: "BR",
		}},
		Orders:  orders,
		Metrics: observer,
		Options: []ManagerOption{WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) })},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return serviceFixture{svc: svc, store: store, products: products, orders: orders, observer: observer, product: product, userID: uuid.New()}
}

func TestNewServiceRequiresDeps(t *testing.T) {
	if _, err := NewService(ServiceDeps{}); err == nil {
		t.Fatal("expected error for missing deps")
	}
}

func TestServiceAddItemUsesInventoryAsCeiling(t *testing.T) {
	f := newServiceFixture(t, 2)
	ctx := context.Background()

	view, err := f.svc.AddItem(ctx, f.userID, f.product.ID, 5)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 2 {
		t.Fatalf("expected quantity clamped to stock 2, got %+v", view.Lines)
	}
	if !view.Total.Equal(decimal.RequireFromString("291.80")) {
		t.Fatalf("unexpected total %s", view.Total)
	}
	if snap, _ := f.store.snapshot(f.userID); len(snap.Lines) != 1 {
		t.Fatalf("expected session to be saved")
	}
}

func TestServiceAddItemOutOfStockIsSilent(t *testing.T) {
	f := newServiceFixture(t, 0)
	view, err := f.svc.AddItem(context.Background(), f.userID, f.product.ID, 1)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("out of stock product must not be added")
	}
}

func TestServiceAddItemUnknownProduct(t *testing.T) {
	f := newServiceFixture(t, 3)
	_, err := f.svc.AddItem(context.Background(), f.userID, uuid.New(), 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.svc.AddItem(context.Background(), uuid.Nil, f.product.ID, 1); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for missing user, got %v", err)
	}
}

func TestServiceSetQuantityAndRemove(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()
	if _, err := f.svc.AddItem(ctx, f.userID, f.product.ID, 1); err != nil {
		t.Fatalf("add item: %v", err)
	}

	view, err := f.svc.SetQuantity(ctx, f.userID, f.product.ID.String(), 4)
	if err != nil || view.ItemCount != 4 {
		t.Fatalf("expected 4 items, got %+v %v", view, err)
	}

	view, err = f.svc.SetQuantity(ctx, f.userID, f.product.ID.String(), 0)
	if err != nil || len(view.Lines) != 0 {
		t.Fatalf("quantity 0 should remove the line, got %+v %v", view, err)
	}

	if _, err := f.svc.AddItem(ctx, f.userID, f.product.ID, 1); err != nil {
		t.Fatalf("add item: %v", err)
	}
	view, err = f.svc.RemoveItem(ctx, f.userID, f.product.ID.String())
	if err != nil || len(view.Lines) != 0 {
		t.Fatalf("expected empty cart after remove, got %+v %v", view, err)
	}
}

func TestServiceSaveFailureIsDependencyError(t *testing.T) {
	f := newServiceFixture(t, 10)
	f.store.saveErr = errors.New("redis down")
	_, err := f.svc.AddItem(context.Background(), f.userID, f.product.ID, 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestServiceCheckout(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()
	if _, err := f.svc.AddItem(ctx, f.userID, f.product.ID, 1); err != nil {
		t.Fatalf("add item: %v", err)
	}

	order, err := f.svc.Checkout(ctx, f.userID, CheckoutInput{PaymentMethod: "pix", PostalCode: "01310-100", Number: "1000", Complement: "apto 12"})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !order.Total.Equal(decimal.RequireFromString("145.90")) || order.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected order %+v", order)
	}
	if order.PaymentMethod != "PIX" || order.UserID != f.userID {
		t.Fatalf("unexpected payment/user %+v", order)
	}
	if order.DeliveryAddress.Number != "1000" || order.DeliveryAddress.Complement != "apto 12" {
		t.Fatalf("unexpected address %+v", order.DeliveryAddress)
	}
	if len(order.Lines) != 1 || order.Lines[0].OrderID != order.ID || order.Lines[0].ProductID != f.product.ID.String() {
		t.Fatalf("unexpected order lines %+v", order.Lines)
	}
	if len(f.orders.created) != 1 {
		t.Fatalf("expected order to be persisted")
	}
	if f.observer.calls != 1 || !f.observer.total.Equal(order.Total) {
		t.Fatalf("expected checkout metrics to be recorded")
	}

	view, err := f.svc.Get(ctx, f.userID)
	if err != nil || len(view.Lines) != 0 || !view.Total.IsZero() {
		t.Fatalf("cart must be empty after checkout, got %+v %v", view, err)
	}
}

func TestServiceCheckoutValidation(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()

	if _, err := f.svc.Checkout(ctx, f.userID, CheckoutInput{PaymentMethod: "PIX", PostalCode: "01310100", Number: "1"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("empty cart should be rejected, got %v", err)
	}
	if _, err := f.svc.Checkout(ctx, f.userID, CheckoutInput{PaymentMethod: "cheque", Number: "1"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unknown payment method should be rejected, got %v", err)
	}
	if _, err := f.svc.Checkout(ctx, f.userID, CheckoutInput{PaymentMethod: "PIX"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("missing number should be rejected, got %v", err)
	}
	if len(f.orders.created) != 0 {
		t.Fatalf("no order should be persisted")
	}
}

func TestServiceCheckoutKeepsCartWhenOrderFails(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()
	if _, err := f.svc.AddItem(ctx, f.userID, f.product.ID, 2); err != nil {
		t.Fatalf("add item: %v", err)
	}
	f.orders.err = pkgerrors.New(pkgerrors.CodeInternal, "insert failed")

	if _, err := f.svc.Checkout(ctx, f.userID, CheckoutInput{PaymentMethod: "PIX", PostalCode: "01310100", Number: "1"}); err == nil {
		t.Fatal("expected checkout error")
	}
	view, _ := f.svc.Get(ctx, f.userID)
	if view.ItemCount != 2 {
		t.Fatalf("cart must survive a failed checkout, got %+v", view)
	}
}

func TestServiceClear(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()
	if _, err := f.svc.AddItem(ctx, f.userID, f.product.ID, 2); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := f.svc.Clear(ctx, f.userID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := f.store.snapshot(f.userID); ok {
		t.Fatalf("session should be deleted")
	}
}

func TestServiceConcurrentAddsKeepEveryUpdate(t *testing.T) {
	f := newServiceFixture(t, 1000)
	ctx := context.Background()
	const perWorker = 20

	var wg sync.WaitGroup
	errs := make(chan error, 2*perWorker)
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := f.svc.AddItem(ctx, f.userID, f.product.ID, 1); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("add item: %v", err)
	}

	view, err := f.svc.Get(ctx, f.userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.ItemCount != 2*perWorker {
		t.Fatalf("expected %d items, got %d", 2*perWorker, view.ItemCount)
	}
}

func TestServiceAddDuringCheckoutSurvives(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()
	if _, err := f.svc.AddItem(ctx, f.userID, f.product.ID, 1); err != nil {
		t.Fatalf("add item: %v", err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	var loads int32
	f.store.onLoad = func() {
		if atomic.AddInt32(&loads, 1) == 1 {
			close(entered)
			<-release
		}
	}

	var (
		wg       sync.WaitGroup
		order    *models.Order
		checkErr error
		addErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		order, checkErr = f.svc.Checkout(ctx, f.userID, CheckoutInput{PaymentMethod: "PIX", PostalCode: "01310100", Number: "1"})
	}()
	<-entered
	go func() {
		defer wg.Done()
		_, addErr = f.svc.AddItem(ctx, f.userID, f.product.ID, 2)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if checkErr != nil || addErr != nil {
		t.Fatalf("checkout=%v add=%v", checkErr, addErr)
	}
	if len(order.Lines) != 1 || order.Lines[0].Quantity != 1 {
		t.Fatalf("order must hold only the line present at checkout, got %+v", order.Lines)
	}
	f.store.onLoad = nil
	view, err := f.svc.Get(ctx, f.userID)
	if err != nil || view.ItemCount != 2 {
		t.Fatalf("add made during checkout must remain in the cart, got %+v %v", view, err)
	}
}

func TestServiceCheckoutBillsCurrentPrice(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()
	if _, err := f.svc.AddItem(ctx, f.userID, f.product.ID, 2); err != nil {
		t.Fatalf("add item: %v", err)
	}
	f.products.update(f.product.ID, func(p *models.Product) { p.Price = decimal.RequireFromString("150.00") })

	order, err := f.svc.Checkout(ctx, f.userID, CheckoutInput{PaymentMethod: "PIX", PostalCode: "01310100", Number: "1"})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !order.Total.Equal(decimal.RequireFromString("300.00")) {
		t.Fatalf("expected total at current price, got %s", order.Total)
	}
}

func TestServiceCheckoutStockDropIsConflict(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()
	input := CheckoutInput{PaymentMethod: "PIX", PostalCode: "01310100", Number: "1"}
	if _, err := f.svc.AddItem(ctx, f.userID, f.product.ID, 5); err != nil {
		t.Fatalf("add item: %v", err)
	}
	f.products.update(f.product.ID, func(p *models.Product) { p.Stock = 2 })

	if _, err := f.svc.Checkout(ctx, f.userID, input); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(f.orders.created) != 0 {
		t.Fatalf("no order should be persisted")
	}
	view, _ := f.svc.Get(ctx, f.userID)
	if view.ItemCount != 2 {
		t.Fatalf("cart should be trimmed to current stock, got %+v", view)
	}

	order, err := f.svc.Checkout(ctx, f.userID, input)
	if err != nil {
		t.Fatalf("second checkout: %v", err)
	}
	if order.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected order lines %+v", order.Lines)
	}
}

func TestServiceCheckoutDropsDelistedProduct(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()
	if _, err := f.svc.AddItem(ctx, f.userID, f.product.ID, 1); err != nil {
		t.Fatalf("add item: %v", err)
	}
	f.products.remove(f.product.ID)

	_, err := f.svc.Checkout(ctx, f.userID, CheckoutInput{PaymentMethod: "PIX", PostalCode: "01310100", Number: "1"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	view, _ := f.svc.Get(ctx, f.userID)
	if len(view.Lines) != 0 {
		t.Fatalf("delisted product should leave the cart, got %+v", view.Lines)
	}
}

func TestServiceSetQuantityUsesCurrentStock(t *testing.T) {
	f := newServiceFixture(t, 10)
	ctx := context.Background()
	if _, err := f.svc.AddItem(ctx, f.userID, f.product.ID, 1); err != nil {
		t.Fatalf("add item: %v", err)
	}
	f.products.update(f.product.ID, func(p *models.Product) {
		p.Stock = 3
		p.Price = decimal.RequireFromString("99.90")
	})

	view, err := f.svc.SetQuantity(ctx, f.userID, f.product.ID.String(), 8)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if view.ItemCount != 3 || !view.Total.Equal(decimal.RequireFromString("299.70")) {
		t.Fatalf("expected 3 items at the current price, got %+v", view)
	}
}

type busyLocker struct{}

func (busyLocker) Lock(context.Context, uuid.UUID) (func(), error) {
	return nil, errCartBusy
}

func TestServiceBusyCartIsConflict(t *testing.T) {
	f := newServiceFixture(t, 10)
	svc, err := NewService(ServiceDeps{
		Store:     f.store,
		Products:  f.products,
		Addresses: stubAddresses{addr: &types.DeliveryAddress{}},
		Orders:    f.orders,
		Locker:    busyLocker{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), f.userID, f.product.ID, 1); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := svc.Clear(context.Background(), f.userID); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict on clear, got %v", err)
	}
}
