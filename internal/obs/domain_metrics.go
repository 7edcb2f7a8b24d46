package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartMutationsTotal counts cart mutations by operation and outcome.
	CartMutationsTotal *prometheus.CounterVec
	// PromotionApplyTotal counts promotion application outcomes.
	PromotionApplyTotal *prometheus.CounterVec
	// CheckoutTotal counts checkout submissions by delivery mode and outcome.
	CheckoutTotal *prometheus.CounterVec
	// OrderValue records order totals in francs.
	OrderValue prometheus.Histogram
	// LoyaltyPointsAccrued counts loyalty points granted to customers.
	LoyaltyPointsAccrued prometheus.Counter
	// OrderStatusTotal counts order status transitions by target status.
	OrderStatusTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart mutations by operation and result.",
		}, []string{"op", "result"})
		PromotionApplyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_apply_total",
			Help:      "Count of promotion code applications by result.",
		}, []string{"result"})
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout submissions by delivery mode and result.",
		}, []string{"mode", "result"})
		OrderValue = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value_francs",
			Help:      "Order totals in francs.",
			Buckets:   []float64{1000, 2500, 5000, 10000, 20000, 50000, 100000},
		})
		LoyaltyPointsAccrued = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loyalty_points_accrued_total",
			Help:      "Total loyalty points granted.",
		})
		OrderStatusTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_total",
			Help:      "Count of order status transitions by target status.",
		}, []string{"status"})

		mustRegisterCollector(reg, CartMutationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartMutationsTotal = v
			}
		})
		mustRegisterCollector(reg, PromotionApplyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PromotionApplyTotal = v
			}
		})
		mustRegisterCollector(reg, CheckoutTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutTotal = v
			}
		})
		mustRegisterCollector(reg, OrderValue, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				OrderValue = v
			}
		})
		mustRegisterCollector(reg, LoyaltyPointsAccrued, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				LoyaltyPointsAccrued = v
			}
		})
		mustRegisterCollector(reg, OrderStatusTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderStatusTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
