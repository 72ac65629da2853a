package cart

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partfinderz-backend/pkg/enums"
	"github.com/angelmondragon/partfinderz-backend/pkg/types"
)

func intPtr(v int) *int { return &v }

func line(id, price string, qty int, stock *int) Line {
	return Line{
		ProductID:  id,
		Name:       "Part " + id,
		UnitPrice:  decimal.RequireFromString(price),
		Quantity:   qty,
		Stock:      stock,
		Brand:      "Bosch",
		PartNumber: "PN-" + id,
	}
}

func fixedManager() *Manager {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return NewManager(
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() uuid.UUID { return uuid.MustParse("7b1b8a3e-4c70-4a1f-9d43-2a0f0e0b7c11") }),
		WithOrderNumberGenerator(func() string { return "PF-TEST" }),
	)
}

func TestAddLineAppendsInInsertionOrder(t *testing.T) {
	m := fixedManager()
	m.AddLine(line("A", "10", 1, nil))
	m.AddLine(line("B", "20", 2, nil))
	m.AddLine(line("A", "10", 1, nil))

	lines := m.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].ProductID != "A" || lines[0].Quantity != 2 {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
	if lines[1].ProductID != "B" || lines[1].Quantity != 2 {
		t.Fatalf("unexpected second line %+v", lines[1])
	}
}

func TestAddLineClampsRunningSum(t *testing.T) {
	m := fixedManager()
	m.AddLine(line("A", "10", 3, intPtr(5)))
	m.AddLine(line("A", "10", 4, nil))
	if got := m.Lines()[0].Quantity; got != 5 {
		t.Fatalf("expected clamp to existing ceiling 5, got %d", got)
	}

	// incoming ceiling takes precedence and is adopted by the line
	m.AddLine(line("A", "10", 1, intPtr(3)))
	got := m.Lines()[0]
	if got.Quantity != 3 {
		t.Fatalf("expected clamp to incoming ceiling 3, got %d", got.Quantity)
	}
	if got.Stock == nil || *got.Stock != 3 {
		t.Fatalf("expected line to adopt ceiling 3, got %v", got.Stock)
	}

	m.AddLine(line("A", "10", 2, intPtr(10)))
	if got := m.Lines()[0].Quantity; got != 5 {
		t.Fatalf("expected 3+2 under raised ceiling, got %d", got)
	}
}

func TestAddLineNewItemClampedToOwnCeiling(t *testing.T) {
	m := fixedManager()
	m.AddLine(line("A", "10", 9, intPtr(4)))
	if got := m.Lines()[0].Quantity; got != 4 {
		t.Fatalf("expected quantity 4, got %d", got)
	}
}

func TestAddLineZeroStockIsNoop(t *testing.T) {
	m := fixedManager()
	m.AddLine(line("A", "10", 1, intPtr(0)))
	if m.Len() != 0 {
		t.Fatalf("out of stock item must not be added")
	}

	m.AddLine(line("B", "10", 2, intPtr(5)))
	before := m.Lines()
	m.AddLine(line("B", "10", 1, intPtr(0)))
	after := m.Lines()
	if len(after) != 1 || after[0].Quantity != before[0].Quantity || *after[0].Stock != 5 {
		t.Fatalf("zero stock add changed the cart: %+v", after)
	}
}

func TestAddLineNonPositiveQuantityCountsAsOne(t *testing.T) {
	m := fixedManager()
	m.AddLine(line("A", "10", 0, nil))
	m.AddLine(line("A", "10", -4, nil))
	if got := m.Lines()[0].Quantity; got != 2 {
		t.Fatalf("expected quantity 2, got %d", got)
	}
}

func TestSetQuantity(t *testing.T) {
	m := fixedManager()
	m.AddLine(line("A", "10", 1, intPtr(3)))
	m.AddLine(line("B", "5", 1, nil))

	m.SetQuantity("A", 8)
	if got := m.Lines()[0].Quantity; got != 3 {
		t.Fatalf("expected clamp to 3, got %d", got)
	}

	m.SetQuantity("missing", 2)
	if m.Len() != 2 {
		t.Fatalf("absent id must be a no-op")
	}

	m.SetQuantity("A", 0)
	if m.Len() != 1 {
		t.Fatalf("expected size to drop by exactly one, got %d", m.Len())
	}
	if m.Lines()[0].ProductID != "B" {
		t.Fatalf("wrong line removed")
	}
}

func TestRemoveLineAndClear(t *testing.T) {
	m := fixedManager()
	m.AddLine(line("A", "10", 1, nil))
	m.AddLine(line("B", "10", 1, nil))
	m.RemoveLine("missing")
	m.RemoveLine("A")
	if m.Len() != 1 || m.Lines()[0].ProductID != "B" {
		t.Fatalf("unexpected lines after remove: %+v", m.Lines())
	}
	m.Clear()
	if m.Len() != 0 || !m.Total().IsZero() {
		t.Fatalf("expected empty cart after clear")
	}
}

func TestTotal(t *testing.T) {
	m := fixedManager()
	if !m.Total().IsZero() {
		t.Fatalf("empty cart total must be zero")
	}
	m.AddLine(line("A", "145.90", 2, nil))
	m.AddLine(line("B", "0.10", 3, nil))
	want := decimal.RequireFromString("292.10")
	if !m.Total().Equal(want) {
		t.Fatalf("expected %s, got %s", want, m.Total())
	}
	if m.ItemCount() != 5 {
		t.Fatalf("expected item count 5, got %d", m.ItemCount())
	}
}

func TestCheckoutPIXExample(t *testing.T) {
	m := fixedManager()
	m.AddLine(line("A", "145.90", 1, nil))
	addr := types.DeliveryAddress{Street: "Rua A", Number: "10", City: "Recife", State: "PE", PostalCode: "50000000"}

	order := m.Checkout("PIX", addr)
	if !order.Total.Equal(decimal.RequireFromString("145.90")) {
		t.Fatalf("unexpected order total %s", order.Total)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if order.PaymentMethod != "PIX" || order.DeliveryAddress != addr {
		t.Fatalf("unexpected payment/address %+v", order)
	}
	if order.Number != "PF-TEST" || order.CreatedAt.IsZero() {
		t.Fatalf("expected generated number and timestamp, got %+v", order)
	}
	if !m.Total().IsZero() || m.Len() != 0 {
		t.Fatalf("cart must be empty after checkout")
	}
}

func TestCheckoutDeepCopiesLines(t *testing.T) {
	m := fixedManager()
	m.AddLine(line("A", "10", 2, intPtr(5)))
	order := m.Checkout("PIX", types.DeliveryAddress{})

	m.AddLine(line("A", "10", 1, intPtr(9)))
	m.SetQuantity("A", 7)

	if len(order.Lines) != 1 || order.Lines[0].Quantity != 2 || *order.Lines[0].Stock != 5 {
		t.Fatalf("order snapshot changed: %+v", order.Lines)
	}

	order.Lines[0].Quantity = 99
	history := m.Orders()
	if history[0].Lines[0].Quantity != 2 {
		t.Fatalf("mutating a returned order must not alter history")
	}
}

func TestCheckoutPrependsHistory(t *testing.T) {
	seq := 0
	m := NewManager(WithOrderNumberGenerator(func() string {
		seq++
		return "PF-" + string(rune('0'+seq))
	}))
	m.AddLine(line("A", "1", 1, nil))
	m.Checkout("PIX", types.DeliveryAddress{})
	m.AddLine(line("B", "1", 1, nil))
	m.Checkout("BOLETO", types.DeliveryAddress{})

	history := m.Orders()
	if len(history) != 2 || history[0].Number != "PF-2" || history[1].Number != "PF-1" {
		t.Fatalf("expected most recent first, got %+v", history)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	m := fixedManager()
	order := m.Checkout("PIX", types.DeliveryAddress{})
	if len(order.Lines) != 0 || !order.Total.IsZero() {
		t.Fatalf("expected empty order, got %+v", order)
	}
}

func TestSnapshotRestore(t *testing.T) {
	m := fixedManager()
	m.AddLine(line("A", "10", 2, intPtr(5)))
	m.AddLine(line("B", "3.50", 1, nil))
	snap := m.Snapshot()

	restored := NewManager()
	restored.Restore(snap)
	if restored.Len() != 2 || !restored.Total().Equal(m.Total()) {
		t.Fatalf("restore mismatch: %+v", restored.Lines())
	}

	snap.Lines[0].Quantity = 1
	if restored.Lines()[0].Quantity != 2 {
		t.Fatalf("restored lines must not share memory with the snapshot")
	}

	broken := Snapshot{Lines: []Line{
		line("A", "1", 9, intPtr(2)),
		line("A", "1", 1, nil),
		line("C", "1", 0, nil),
		line("", "1", 1, nil),
	}}
	restored.Restore(broken)
	lines := restored.Lines()
	if len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("expected repaired single line, got %+v", lines)
	}
}

func TestRefreshAppliesCurrentPriceAndStock(t *testing.T) {
	m := fixedManager()
	m.AddLine(line("a", "10.00", 5, intPtr(10)))
	m.AddLine(line("b", "20.00", 1, intPtr(3)))

	if reduced := m.Refresh("a", decimal.RequireFromString("12.50"), intPtr(3)); !reduced {
		t.Fatalf("expected quantity to shrink to the new ceiling")
	}
	lines := m.Lines()
	if lines[0].Quantity != 3 || !lines[0].UnitPrice.Equal(decimal.RequireFromString("12.50")) || *lines[0].Stock != 3 {
		t.Fatalf("unexpected refreshed line %+v", lines[0])
	}

	if reduced := m.Refresh("b", decimal.RequireFromString("18.00"), intPtr(3)); reduced {
		t.Fatalf("a price drop alone must not report a reduction")
	}
	if reduced := m.Refresh("b", decimal.RequireFromString("18.00"), intPtr(0)); !reduced || m.Len() != 1 {
		t.Fatalf("out of stock line should be removed, got %d lines", m.Len())
	}
	if m.Refresh("missing", decimal.Zero, nil) {
		t.Fatalf("absent ids are ignored")
	}
}
