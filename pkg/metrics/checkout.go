package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// CheckoutMetrics counts placed orders and their value by payment method.
type CheckoutMetrics struct {
	orders  *prometheus.CounterVec
	revenue *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Orders placed through checkout.",
	}, []string{"payment_method"})
	revenue := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_order_value_total",
		Help: "Sum of order totals placed through checkout.",
	}, []string{"payment_method"})
	reg.MustRegister(orders, revenue)
	return &CheckoutMetrics{orders: orders, revenue: revenue}
}

// ObserveOrder records one placed order.
func (m *CheckoutMetrics) ObserveOrder(paymentMethod string, total decimal.Decimal) {
	if m == nil || m.orders == nil {
		return
	}
	label := normalizeLabel(paymentMethod)
	m.orders.WithLabelValues(label).Inc()
	m.revenue.WithLabelValues(label).Add(total.InexactFloat64())
}
