package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partfinderz-backend/pkg/enums"
	"github.com/angelmondragon/partfinderz-backend/pkg/types"
)

const orderNumberPrefix = "PF-"

// Order is the immutable snapshot produced by Checkout.
type Order struct {
	ID              uuid.UUID             `json:"id"`
	Number          string                `json:"number"`
	CreatedAt       time.Time             `json:"created_at"`
	Status          enums.OrderStatus     `json:"status"`
	Lines           []Line                `json:"lines"`
	Total           decimal.Decimal       `json:"total"`
	PaymentMethod   string                `json:"payment_method"`
	DeliveryAddress types.DeliveryAddress `json:"delivery_address"`
}

func (o Order) clone() Order {
	out := o
	out.Lines = cloneLines(o.Lines)
	return out
}

// Snapshot is the persisted form of a cart session.
type Snapshot struct {
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Manager owns one session's cart and order history. It performs no I/O and
// is not safe for concurrent use; callers own one Manager per session.
type Manager struct {
	lines     []Line
	orders    []Order
	now       func() time.Time
	newID     func() uuid.UUID
	newNumber func() string
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithClock overrides the time source used for order timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator overrides order id generation.
func WithIDGenerator(newID func() uuid.UUID) ManagerOption {
	return func(m *Manager) {
		if newID != nil {
			m.newID = newID
		}
	}
}

// WithOrderNumberGenerator overrides the public order number generation.
func WithOrderNumberGenerator(newNumber func() string) ManagerOption {
	return func(m *Manager) {
		if newNumber != nil {
			m.newNumber = newNumber
		}
	}
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.New,
		newNumber: func() string { return orderNumberPrefix + ulid.Make().String() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// AddLine merges item into the cart. An existing line sums quantities and is
// clamped to the incoming stock ceiling, or its own when the item has none.
// A zero ceiling means out of stock and leaves the cart untouched.
func (m *Manager) AddLine(item Line) {
	if item.Stock != nil && *item.Stock <= 0 {
		return
	}
	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}

	if idx := m.indexOf(item.ProductID); idx >= 0 {
		existing := &m.lines[idx]
		ceiling := existing.Stock
		if item.Stock != nil {
			stock := *item.Stock
			ceiling = &stock
			existing.Stock = ceiling
		}
		existing.Quantity = clampQuantity(existing.Quantity+qty, ceiling)
		return
	}

	line := item.clone()
	line.Quantity = clampQuantity(qty, line.Stock)
	m.lines = append(m.lines, line)
}

// RemoveLine drops the line; absent ids are ignored.
func (m *Manager) RemoveLine(productID string) {
	idx := m.indexOf(productID)
	if idx < 0 {
		return
	}
	m.lines = append(m.lines[:idx], m.lines[idx+1:]...)
}

// SetQuantity replaces a line's quantity. Non-positive quantities remove the line.
func (m *Manager) SetQuantity(productID string, qty int) {
	if qty <= 0 {
		m.RemoveLine(productID)
		return
	}
	idx := m.indexOf(productID)
	if idx < 0 {
		return
	}
	m.lines[idx].Quantity = clampQuantity(qty, m.lines[idx].Stock)
}

// Refresh applies the current catalog price and stock ceiling to a line and
// reports whether its quantity had to shrink. A ceiling of zero removes the
// line. Absent ids are ignored.
func (m *Manager) Refresh(productID string, price decimal.Decimal, stock *int) bool {
	idx := m.indexOf(productID)
	if idx < 0 {
		return false
	}
	if stock != nil && *stock <= 0 {
		m.RemoveLine(productID)
		return true
	}
	line := &m.lines[idx]
	line.UnitPrice = price
	if stock != nil {
		ceiling := *stock
		line.Stock = &ceiling
	}
	before := line.Quantity
	line.Quantity = clampQuantity(line.Quantity, line.Stock)
	return line.Quantity < before
}

func (m *Manager) Clear() {
	m.lines = nil
}

// Total sums price times quantity over every line.
func (m *Manager) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range m.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Checkout snapshots the cart into a pending order, prepends it to the order
// history and empties the cart.
func (m *Manager) Checkout(paymentMethod string, address types.DeliveryAddress) Order {
	order := Order{
		ID:              m.newID(),
		Number:          m.newNumber(),
		CreatedAt:       m.now(),
		Status:          enums.OrderStatusPending,
		Lines:           cloneLines(m.lines),
		Total:           m.Total(),
		PaymentMethod:   paymentMethod,
		DeliveryAddress: address,
	}
	m.orders = append([]Order{order}, m.orders...)
	m.lines = nil
	return order.clone()
}

// Lines returns a copy of the cart lines in insertion order.
func (m *Manager) Lines() []Line {
	return cloneLines(m.lines)
}

// Len is the number of distinct lines.
func (m *Manager) Len() int {
	return len(m.lines)
}

// ItemCount is the sum of quantities.
func (m *Manager) ItemCount() int {
	count := 0
	for _, line := range m.lines {
		count += line.Quantity
	}
	return count
}

// Orders returns the order history, most recent first.
func (m *Manager) Orders() []Order {
	out := make([]Order, len(m.orders))
	for i, order := range m.orders {
		out[i] = order.clone()
	}
	return out
}

func (m *Manager) Snapshot() Snapshot {
	return Snapshot{Lines: m.Lines(), UpdatedAt: m.now()}
}

// Restore replaces the cart lines with the snapshot's. Lines violating the
// quantity invariants are repaired on the way in.
func (m *Manager) Restore(s Snapshot) {
	m.lines = nil
	for _, line := range s.Lines {
		if line.ProductID == "" || m.indexOf(line.ProductID) >= 0 {
			continue
		}
		line = line.clone()
		line.Quantity = clampQuantity(line.Quantity, line.Stock)
		if line.Quantity <= 0 {
			continue
		}
		m.lines = append(m.lines, line)
	}
}

func (m *Manager) indexOf(productID string) int {
	for i := range m.lines {
		if m.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}
