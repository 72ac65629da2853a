package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/partfinderz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
	"github.com/angelmondragon/partfinderz-backend/pkg/logger"
	"github.com/angelmondragon/partfinderz-backend/pkg/types"
)

type productLoader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type addressResolver interface {
	Lookup(ctx context.Context, postalCode string) (*types.DeliveryAddress, error)
}

type orderWriter interface {
	Create(ctx context.Context, order *models.Order) error
}

type checkoutObserver interface {
	ObserveOrder(paymentMethod string, total decimal.Decimal)
}

// Service exposes the per-user cart session operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, productID string) (*View, error)
	SetQuantity(ctx context.Context, userID uuid.UUID, productID string, qty int) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*models.Order, error)
}

// View is the cart as returned to clients.
type View struct {
	Lines     []Line          `json:"lines"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// CheckoutInput carries the buyer's payment choice and delivery details.
type CheckoutInput struct {
	PaymentMethod string
	PostalCode    string
	Number        string
	Complement    string
}

// ServiceDeps groups the collaborators of the cart service.
type ServiceDeps struct {
	Store     SessionStore
	Products  productLoader
	Addresses addressResolver
	Orders    orderWriter
	Metrics   checkoutObserver
	Logger    *logger.Logger
	Options   []ManagerOption
	// Locker defaults to an in-process lock; multi-instance deployments pass
	// the Redis locker.
	Locker    SessionLocker
}

type service struct {
	store     SessionStore
	products  productLoader
	addresses addressResolver
	orders    orderWriter
	metrics   checkoutObserver
	logg      *logger.Logger
	opts      []ManagerOption
	locker    SessionLocker
}

// NewService builds a cart service backed by the provided stack.
func NewService(deps ServiceDeps) (Service, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("cart session store required")
	}
	if deps.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if deps.Addresses == nil {
		return nil, fmt.Errorf("address resolver required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("order writer required")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	locker := deps.Locker
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &service{
		store:     deps.Store,
		products:  deps.Products,
		addresses: deps.Addresses,
		orders:    deps.Orders,
		metrics:   deps.Metrics,
		logg:      logg,
		opts:      deps.Options,
		locker:    locker,
	}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	m, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return viewOf(m), nil
}

// AddItem adds a product using its current price and inventory as the stock ceiling.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.products.FindActiveByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(m *Manager) {
		stock := product.Stock
		item := Line{
			ProductID:  product.ID.String(),
			Name:       product.Name,
			UnitPrice:  product.Price,
			Quantity:   qty,
			Stock:      &stock,
			Brand:      product.Brand,
			PartNumber: product.PartNumber,
		}
		if product.ImageURL != nil {
			item.ImageURL = *product.ImageURL
		}
		m.AddLine(item)
	})
}

func (s *service) RemoveItem(ctx context.Context, userID uuid.UUID, productID string) (*View, error) {
	return s.mutate(ctx, userID, func(m *Manager) {
		m.RemoveLine(productID)
	})
}

// SetQuantity clamps against the product's current inventory, not the one
// captured when the line was added.
func (s *service) SetQuantity(ctx context.Context, userID uuid.UUID, productID string, qty int) (*View, error) {
	var (
		current *models.Product
		checked bool
	)
	if id, err := uuid.Parse(productID); qty > 0 && err == nil {
		current, err = s.products.FindActiveByID(ctx, id)
		if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
		checked = true
	}
	return s.mutate(ctx, userID, func(m *Manager) {
		if checked {
			if current == nil {
				m.RemoveLine(productID)
				return
			}
			stock := current.Stock
			m.Refresh(productID, current.Price, &stock)
		}
		m.SetQuantity(productID, qty)
	})
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()
	if err := s.store.Delete(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart session")
	}
	return nil
}

// Checkout converts the session cart into a persisted pending order. Lines are
// re-priced from the catalog first; when a line lost stock the trimmed cart is
// saved and a conflict is returned so the buyer can review it.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*models.Order, error) {
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported payment method")
	}
	if strings.TrimSpace(input.Number) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address number is required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}

	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	m, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m.Len() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	address, err := s.addresses.Lookup(ctx, input.PostalCode)
	if err != nil {
		return nil, err
	}
	delivery := *address
	delivery.Number = strings.TrimSpace(input.Number)
	if complement := strings.TrimSpace(input.Complement); complement != "" {
		delivery.Complement = complement
	}
	if err := delivery.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "incomplete delivery address")
	}

	changed, err := s.refreshLines(ctx, m)
	if err != nil {
		return nil, err
	}
	if len(changed) > 0 {
		if err := s.store.Save(ctx, userID, m.Snapshot()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart session")
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart changed since it was filled").
			WithDetails(map[string]any{"product_ids": changed})
	}
	if m.Len() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	order := m.Checkout(method.String(), delivery)
	record := toOrderRecord(userID, order)
	if err := s.orders.Create(ctx, record); err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":     record.ID.String(),
		"order_number": record.Number,
		"total":        record.Total.StringFixed(2),
	})
	if err := s.store.Delete(ctx, userID); err != nil {
		// order is already persisted; a failed clear is logged, not returned
		s.logg.Error(ctx, "checkout.cart_clear_failed", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveOrder(record.PaymentMethod, record.Total)
	}
	s.logg.Info(ctx, "checkout.order_created")
	return record, nil
}

// refreshLines applies current prices and stock to every line and returns the
// ids whose quantity shrank or that left the catalog.
func (s *service) refreshLines(ctx context.Context, m *Manager) ([]string, error) {
	var changed []string
	for _, line := range m.Lines() {
		id, err := uuid.Parse(line.ProductID)
		if err != nil {
			m.RemoveLine(line.ProductID)
			changed = append(changed, line.ProductID)
			continue
		}
		product, err := s.products.FindActiveByID(ctx, id)
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			m.RemoveLine(line.ProductID)
			changed = append(changed, line.ProductID)
			continue
		}
		if err != nil {
			return nil, err
		}
		stock := product.Stock
		if m.Refresh(line.ProductID, product.Price, &stock) {
			changed = append(changed, line.ProductID)
		}
	}
	return changed, nil
}

func (s *service) mutate(ctx context.Context, userID uuid.UUID, fn func(m *Manager)) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	m, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	fn(m)
	if err := s.store.Save(ctx, userID, m.Snapshot()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart session")
	}
	return viewOf(m), nil
}

func (s *service) lock(ctx context.Context, userID uuid.UUID) (func(), error) {
	unlock, err := s.locker.Lock(ctx, userID)
	switch {
	case err == nil:
		return unlock, nil
	case errors.Is(err, errCartBusy):
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart is being updated by another request")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "waiting for cart lock")
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart session")
	}
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*Manager, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	snapshot, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart session")
	}
	m := NewManager(s.opts...)
	m.Restore(snapshot)
	return m, nil
}

func viewOf(m *Manager) *View {
	return &View{
		Lines:     m.Lines(),
		ItemCount: m.ItemCount(),
		Total:     m.Total(),
	}
}

func toOrderRecord(userID uuid.UUID, order Order) *models.Order {
	lines := make([]models.OrderLine, 0, len(order.Lines))
	for i, line := range order.Lines {
		record := models.OrderLine{
			ID:         uuid.New(),
			OrderID:    order.ID,
			Position:   i,
			ProductID:  line.ProductID,
			Name:       line.Name,
			Brand:      line.Brand,
			PartNumber: line.PartNumber,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
		}
		if line.ImageURL != "" {
			image := line.ImageURL
			record.ImageURL = &image
		}
		lines = append(lines, record)
	}
	return &models.Order{
		ID:              order.ID,
		Number:          order.Number,
		UserID:          userID,
		Status:          order.Status,
		PaymentMethod:   order.PaymentMethod,
		Total:           order.Total,
		DeliveryAddress: order.DeliveryAddress,
		Lines:           lines,
		CreatedAt:       order.CreatedAt,
	}
}
