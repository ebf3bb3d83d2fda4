package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/logisim-sim/logisim/internal/domain/world"
)

// SimulationCollector records per-tick engine metrics: tick duration, the
// simulated clock, fuel price, fleet/negotiation gauges, and package
// lifecycle counters.
type SimulationCollector struct {
	tickDuration prometheus.Histogram
	currentTick  prometheus.Gauge
	simDay       prometheus.Gauge
	fuelPrice    prometheus.Gauge

	activeTrucks       prometheus.Gauge
	activeNegotiations prometheus.Gauge
	brokerBalance      prometheus.Gauge

	packagesTotal *prometheus.CounterVec
	eventsTotal   *prometheus.CounterVec
	tickPanics    prometheus.Counter
}

// NewSimulationCollector builds and registers the collector; a nil
// registry (metrics disabled) returns a collector whose recorders are
// no-ops against unregistered metrics.
func NewSimulationCollector(registry *prometheus.Registry) *SimulationCollector {
	c := &SimulationCollector{
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock time spent advancing one tick",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		currentTick: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "current_tick", Help: "Current simulation tick",
		}),
		simDay: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "simulated_day", Help: "Current simulated calendar day",
		}),
		fuelPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "global_fuel_price", Help: "Current global per-liter fuel price",
		}),
		activeTrucks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "active_trucks", Help: "Registered truck agents",
		}),
		activeNegotiations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "active_negotiations", Help: "In-flight broker negotiations (0 or 1)",
		}),
		brokerBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "broker_balance_ducats", Help: "Broker account balance",
		}),
		packagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "packages_total", Help: "Package lifecycle transitions by stage",
		}, []string{"stage"}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "events_total", Help: "World events by name",
		}, []string{"name"}),
		tickPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "tick_panics_total", Help: "Aborted ticks recovered from panics",
		}),
	}
	if registry != nil {
		registry.MustRegister(
			c.tickDuration, c.currentTick, c.simDay, c.fuelPrice,
			c.activeTrucks, c.activeNegotiations, c.brokerBalance,
			c.packagesTotal, c.eventsTotal, c.tickPanics,
		)
	}
	return c
}

// RecordTick ingests one tick's result and duration.
func (c *SimulationCollector) RecordTick(w *world.World, result world.TickResult, elapsed time.Duration) {
	c.tickDuration.Observe(elapsed.Seconds())
	c.currentTick.Set(float64(result.TickData.Tick))
	c.simDay.Set(float64(result.TickData.Day))
	c.fuelPrice.Set(result.FuelPrice)
	c.activeTrucks.Set(float64(len(w.Trucks())))
	if b := w.Broker(); b != nil {
		c.brokerBalance.Set(b.BalanceDucats())
		if b.ActiveNegotiation() != nil {
			c.activeNegotiations.Set(1)
		} else {
			c.activeNegotiations.Set(0)
		}
	}
	for _, event := range result.Events {
		c.eventsTotal.WithLabelValues(event.Name).Inc()
		switch event.Name {
		case "package_spawned":
			c.packagesTotal.WithLabelValues("created").Inc()
		case "pickup_confirmed":
			c.packagesTotal.WithLabelValues("picked_up").Inc()
		case "delivery_settled":
			c.packagesTotal.WithLabelValues("delivered").Inc()
		case "package_expired":
			c.packagesTotal.WithLabelValues("expired").Inc()
		}
	}
}

// RecordPanic counts one aborted tick.
func (c *SimulationCollector) RecordPanic() {
	c.tickPanics.Inc()
}
