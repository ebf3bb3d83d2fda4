package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/logisim-sim/logisim/internal/domain/ledger"
)

// FinancialCollector mirrors the ledger into Prometheus: transaction
// counts and amounts by type/category, plus net totals per category.
type FinancialCollector struct {
	transactionsTotal *prometheus.CounterVec
	transactionAmount *prometheus.HistogramVec
	netByCategory     *prometheus.GaugeVec

	seen int
}

// NewFinancialCollector builds and registers the collector.
func NewFinancialCollector(registry *prometheus.Registry) *FinancialCollector {
	c := &FinancialCollector{
		transactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "transactions_total",
			Help: "Ledger transactions by type and category",
		}, []string{"type", "category"}),
		transactionAmount: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name:    "transaction_amount_ducats",
			Help:    "Absolute transaction amount distribution",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
		}, []string{"type", "category"}),
		netByCategory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "net_by_category_ducats",
			Help: "Net ducat flow per ledger category",
		}, []string{"category"}),
	}
	if registry != nil {
		registry.MustRegister(c.transactionsTotal, c.transactionAmount, c.netByCategory)
	}
	return c
}

// Sync ingests every ledger entry recorded since the previous call and
// refreshes the per-category net gauges.
func (c *FinancialCollector) Sync(led *ledger.Ledger) {
	entries := led.Entries()
	for ; c.seen < len(entries); c.seen++ {
		tx := entries[c.seen]
		labels := []string{tx.TransactionType().String(), tx.Category().String()}
		c.transactionsTotal.WithLabelValues(labels...).Inc()
		amount := tx.Amount()
		if amount < 0 {
			amount = -amount
		}
		c.transactionAmount.WithLabelValues(labels...).Observe(amount)
	}
	for _, category := range ledger.AllCategories() {
		c.netByCategory.WithLabelValues(category.String()).Set(led.NetByCategory(category))
	}
}

// Reset forgets the ingest watermark, used after the world is swapped.
func (c *FinancialCollector) Reset() { c.seen = 0 }
