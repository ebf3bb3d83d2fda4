package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logisim-sim/logisim/internal/domain/freight"
	"github.com/logisim-sim/logisim/internal/domain/graph"
	"github.com/logisim-sim/logisim/internal/domain/shared"
	"github.com/logisim-sim/logisim/internal/domain/site"
	"github.com/logisim-sim/logisim/internal/domain/world"
)

// twoNodeWorld builds the minimal delivery stage: nodes a and b joined by a
// 1000m 50km/h edge in both directions, a zero-activity site on each node,
// and the broker.
func twoNodeWorld(t *testing.T) *world.World {
	t.Helper()
	g := graph.New()
	require.NoError(t, g.AddNode(graph.NewNode("a", 0, 0)))
	require.NoError(t, g.AddNode(graph.NewNode("b", 1000, 0)))
	for _, pair := range [][2]shared.NodeID{{"a", "b"}, {"b", "a"}} {
		require.NoError(t, g.AddEdge(&graph.Edge{
			ID: graph.EdgeIDBetween(pair[0], pair[1]), From: pair[0], To: pair[1],
			LengthM: 1000, MaxSpeedKPH: 50,
		}))
	}

	cfg := world.DefaultConfig()
	cfg.FuelPriceVolatility = 0 // keep finance assertions exact
	w := world.New(g, cfg)

	_, err := w.AddSite("site-a", "Site A", "a", 0, nil, site.DefaultPackageConfig())
	require.NoError(t, err)
	_, err = w.AddSite("site-b", "Site B", "b", 0, nil, site.DefaultPackageConfig())
	require.NoError(t, err)
	w.AddBroker("broker")
	return w
}

func injectPackage(t *testing.T, w *world.World, id shared.PackageID, pickupDeadline, deliveryDeadline int64) *freight.Package {
	t.Helper()
	pkg, err := freight.New(id, "a", "b", 10, 100, freight.PriorityMedium, freight.UrgencyStandard, w.Tick(), pickupDeadline, deliveryDeadline)
	require.NoError(t, err)
	w.AttachPackage(pkg)
	return pkg
}

func TestStep_TickAndClockLaw(t *testing.T) {
	w := twoNodeWorld(t)
	const n = 25
	for i := 0; i < n; i++ {
		result := w.Step()
		assert.Equal(t, int64(i+1), result.TickData.Tick)
	}
	assert.Equal(t, int64(n), w.Tick())
	assert.InDelta(t, n*60.0, w.NowSeconds(), 1e-9)
}

func TestClock_StartsAtNoonDayOne(t *testing.T) {
	w := twoNodeWorld(t)
	assert.Equal(t, 1, w.Day())
	assert.InDelta(t, 12.0, w.TimeOfDayHours(), 1e-9)

	// Twelve simulated hours later the day rolls over at midnight.
	for i := 0; i < 720; i++ {
		w.Step()
	}
	assert.Equal(t, 2, w.Day())
	assert.InDelta(t, 0.0, w.TimeOfDayHours(), 1e-9)
}

func TestZeroActivityNeverSpawns(t *testing.T) {
	w := twoNodeWorld(t)
	for i := 0; i < 500; i++ {
		w.Step()
	}
	assert.Empty(t, w.Packages())
}

func TestFuelPrice_UpdatesAtMostOncePerDay(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode(graph.NewNode("a", 0, 0)))
	cfg := world.DefaultConfig()
	w := world.New(g, cfg)

	updates := 0
	for i := 0; i < 2200; i++ { // two day rollovers at dt=60 (ticks 720 and 2160)
		result := w.Step()
		for _, e := range result.Events {
			if e.Name == "fuel_price_updated" {
				updates++
			}
		}
		assert.GreaterOrEqual(t, w.FuelPrice(), cfg.FuelPriceMin)
		assert.LessOrEqual(t, w.FuelPrice(), cfg.FuelPriceMax)
	}
	assert.Equal(t, 2, updates)
}

func TestEndToEnd_PickupAndDeliver(t *testing.T) {
	w := twoNodeWorld(t)
	_, err := w.AddTruck("t1", "a", 80, 24, 300)
	require.NoError(t, err)
	pkg := injectPackage(t, w, "pkg-1", 1000, 2000)

	delivered := false
	var deliveredEvents []world.Event
	for i := 0; i < 30 && !delivered; i++ {
		result := w.Step()
		for _, e := range result.Events {
			if e.Name == "delivery_settled" {
				delivered = true
				deliveredEvents = append(deliveredEvents, e)
			}
		}
	}

	require.True(t, delivered, "package should be delivered within 30 ticks")
	assert.Equal(t, freight.StatusDelivered, pkg.Status())
	assert.InDelta(t, 10100, w.Broker().BalanceDucats(), 1e-9, "on-time delivery pays full value")

	tr, ok := w.Truck("t1")
	require.True(t, ok)
	assert.Empty(t, tr.LoadedPackages())
	assert.Less(t, tr.CurrentFuelL(), 300.0, "the drive consumed fuel")

	siteB, ok := w.Site("b")
	require.True(t, ok)
	assert.Equal(t, 1, siteB.Statistics().PackagesDelivered)
	require.Len(t, deliveredEvents, 1)
}

func TestEndToEnd_InvariantsHoldEveryTick(t *testing.T) {
	w := twoNodeWorld(t)
	_, err := w.AddTruck("t1", "a", 80, 24, 300)
	require.NoError(t, err)
	injectPackage(t, w, "pkg-1", 1000, 2000)

	for i := 0; i < 40; i++ {
		w.Step()

		tr, _ := w.Truck("t1")
		pos := tr.Position()
		onEdge := pos.OnEdge != ""
		atNode := pos.AtNode != ""
		assert.True(t, onEdge != atNode, "exactly one of node/edge is set")

		total := 0
		for _, id := range tr.LoadedPackages() {
			total += w.Package(id).Size()
		}
		assert.LessOrEqual(t, total, tr.Capacity())

		for _, p := range w.Parkings() {
			assert.LessOrEqual(t, len(p.Occupants()), p.Capacity())
		}
		for _, gs := range w.GasStations() {
			assert.LessOrEqual(t, len(gs.Occupants()), gs.Capacity())
		}
	}
}

func TestPickupExpiry_SiteExpiresAndBrokerFines(t *testing.T) {
	w := twoNodeWorld(t)
	// No trucks at all: nobody can serve the package.
	pkg := injectPackage(t, w, "pkg-1", 5, 2000)

	sawExpired, sawFine := false, false
	for i := 0; i < 10; i++ {
		result := w.Step()
		for _, e := range result.Events {
			switch e.Name {
			case "package_expired":
				sawExpired = true
			case "pickup_expiry_fine":
				sawFine = true
			}
		}
	}

	assert.True(t, sawExpired)
	assert.True(t, sawFine)
	assert.Equal(t, freight.StatusExpired, pkg.Status())
	assert.InDelta(t, 10000-50, w.Broker().BalanceDucats(), 1e-9)

	siteA, _ := w.Site("a")
	assert.Empty(t, siteA.ActivePackages())
	assert.Equal(t, 1, siteA.Statistics().PackagesExpired)
}

func TestAgentDiffs_OnlyOnChange(t *testing.T) {
	w := twoNodeWorld(t)
	_, err := w.AddTruck("t1", "a", 80, 24, 300)
	require.NoError(t, err)

	first := w.Step()
	assert.Contains(t, first.AgentDiffs, "t1", "first tick reports initial state")

	// With no work and no parking to seek, the truck goes quiet.
	quiet := 0
	for i := 0; i < 5; i++ {
		result := w.Step()
		if _, ok := result.AgentDiffs["t1"]; !ok {
			quiet++
		}
	}
	assert.Greater(t, quiet, 0, "unchanged ticks emit no diff")
}

func TestRemoveTruck(t *testing.T) {
	w := twoNodeWorld(t)
	_, err := w.AddTruck("t1", "a", 80, 24, 300)
	require.NoError(t, err)

	require.NoError(t, w.RemoveTruck("t1"))
	assert.Error(t, w.RemoveTruck("t1"))
	assert.NotContains(t, w.AgentIDs(), shared.AgentID("t1"))
	w.Step()
}

func TestAddSite_OnePerNode(t *testing.T) {
	w := twoNodeWorld(t)
	_, err := w.AddSite("site-a2", "Another", "a", 0, nil, site.DefaultPackageConfig())
	assert.Error(t, err)
}
