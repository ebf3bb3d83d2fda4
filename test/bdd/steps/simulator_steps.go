// Package steps holds the godog step definitions for the simulator's
// end-to-end scenarios.
package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/logisim-sim/logisim/internal/domain/freight"
	"github.com/logisim-sim/logisim/internal/domain/graph"
	"github.com/logisim-sim/logisim/internal/domain/routing"
	"github.com/logisim-sim/logisim/internal/domain/shared"
	"github.com/logisim-sim/logisim/internal/domain/site"
	"github.com/logisim-sim/logisim/internal/domain/truck"
	"github.com/logisim-sim/logisim/internal/domain/world"
)

type simulatorContext struct {
	w        *world.World
	packages []*freight.Package
	events   map[string]int

	negotiationOverlap bool

	waypoint routing.WaypointResult
}

func bidirectionalEdge(g *graph.Graph, from, to shared.NodeID, lengthM float64) error {
	for _, pair := range [][2]shared.NodeID{{from, to}, {to, from}} {
		err := g.AddEdge(&graph.Edge{
			ID: graph.EdgeIDBetween(pair[0], pair[1]), From: pair[0], To: pair[1],
			LengthM: lengthM, MaxSpeedKPH: 50,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *simulatorContext) twoNodeWorld() error {
	g := graph.New()
	if err := g.AddNode(graph.NewNode("a", 0, 0)); err != nil {
		return err
	}
	if err := g.AddNode(graph.NewNode("b", 1000, 0)); err != nil {
		return err
	}
	if err := bidirectionalEdge(g, "a", "b", 1000); err != nil {
		return err
	}

	cfg := world.DefaultConfig()
	cfg.FuelPriceVolatility = 0
	c.w = world.New(g, cfg)

	if _, err := c.w.AddSite("site-a", "Site A", "a", 0, nil, site.DefaultPackageConfig()); err != nil {
		return err
	}
	if _, err := c.w.AddSite("site-b", "Site B", "b", 0, nil, site.DefaultPackageConfig()); err != nil {
		return err
	}
	c.w.AddBroker("broker")
	return nil
}

func (c *simulatorContext) parkingAt(node string) error {
	_, err := c.w.AddParking(shared.BuildingID("park-"+node), shared.NodeID(node), 2)
	return err
}

func (c *simulatorContext) truckAt(id, node string, capacity int) error {
	_, err := c.w.AddTruck(shared.AgentID(id), shared.NodeID(node), 80, capacity, 300)
	return err
}

func (c *simulatorContext) injectPackage(size, value int, origin, dest string, pickupOffset, deliveryOffset int64) error {
	id := shared.PackageID(fmt.Sprintf("pkg-%d", len(c.packages)+1))
	pkg, err := freight.New(id, shared.SiteID(origin), shared.SiteID(dest), size, float64(value),
		freight.PriorityMedium, freight.UrgencyStandard,
		c.w.Tick(), c.w.Tick()+pickupOffset, c.w.Tick()+deliveryOffset)
	if err != nil {
		return err
	}
	c.w.AttachPackage(pkg)
	c.packages = append(c.packages, pkg)
	return nil
}

func (c *simulatorContext) packageWithGenerousDeadlines(size, value int, origin, dest string) error {
	return c.injectPackage(size, value, origin, dest, 1000, 2000)
}

func (c *simulatorContext) packageExpiringIn(size, value int, origin, dest string, ticks int64) error {
	return c.injectPackage(size, value, origin, dest, ticks, ticks+1000)
}

func (c *simulatorContext) truckHasBeenDriving(hours float64, risk float64) error {
	tr, ok := c.w.Truck("t1")
	if !ok {
		return fmt.Errorf("truck t1 not created")
	}
	tr.Restore(truck.Snapshot{
		AtNode:       "a",
		CurrentFuelL: tr.FuelTankCapacityL(),
		DrivingTimeS: hours * 3600,
		RiskFactor:   risk,
	})
	return nil
}

func (c *simulatorContext) truckCrossingWithFuel(dest string, liters float64) error {
	tr, ok := c.w.Truck("t1")
	if !ok {
		return fmt.Errorf("truck t1 not created")
	}
	tr.Restore(truck.Snapshot{
		OnEdge:       graph.EdgeIDBetween("a", shared.NodeID(dest)),
		Route:        []shared.NodeID{shared.NodeID(dest)},
		Destination:  shared.NodeID(dest),
		CurrentFuelL: liters,
		RiskFactor:   0.5,
	})
	return nil
}

func (c *simulatorContext) runTicks(n int) error {
	for i := 0; i < n; i++ {
		result := c.w.Step()
		for _, e := range result.Events {
			c.events[e.Name]++
		}
		// The broker exposes at most a single negotiation; the flag trips
		// if that ever stops holding.
		if b := c.w.Broker(); b != nil {
			active := 0
			if b.ActiveNegotiation() != nil {
				active = 1
			}
			if active > 1 {
				c.negotiationOverlap = true
			}
		}
	}
	return nil
}

func (c *simulatorContext) packageIsDelivered() error {
	if len(c.packages) == 0 {
		return fmt.Errorf("no package injected")
	}
	if status := c.packages[0].Status(); status != freight.StatusDelivered {
		return fmt.Errorf("package status is %s, want DELIVERED", status)
	}
	return nil
}

func (c *simulatorContext) allPackagesDelivered() error {
	for _, pkg := range c.packages {
		if pkg.Status() != freight.StatusDelivered {
			return fmt.Errorf("package %s status is %s, want DELIVERED", pkg.ID(), pkg.Status())
		}
	}
	return nil
}

func (c *simulatorContext) packageIsExpired() error {
	if len(c.packages) == 0 {
		return fmt.Errorf("no package injected")
	}
	if status := c.packages[0].Status(); status != freight.StatusExpired {
		return fmt.Errorf("package status is %s, want EXPIRED", status)
	}
	return nil
}

func (c *simulatorContext) brokerBalanceIs(expected float64) error {
	got := c.w.Broker().BalanceDucats()
	if got != expected {
		return fmt.Errorf("broker balance is %.2f, want %.2f", got, expected)
	}
	return nil
}

func (c *simulatorContext) truckCarriesNoCargo() error {
	tr, ok := c.w.Truck("t1")
	if !ok {
		return fmt.Errorf("truck t1 not created")
	}
	if len(tr.LoadedPackages()) != 0 {
		return fmt.Errorf("truck still carries %d packages", len(tr.LoadedPackages()))
	}
	return nil
}

func (c *simulatorContext) truckHasRested() error {
	tr, ok := c.w.Truck("t1")
	if !ok {
		return fmt.Errorf("truck t1 not created")
	}
	if c.events["rest_completed"] == 0 {
		return fmt.Errorf("no rest_completed event observed")
	}
	if tr.IsResting() {
		return fmt.Errorf("truck is still resting")
	}
	if tr.DrivingTimeS() > 600 {
		return fmt.Errorf("driving timer was not reset: %.0fs", tr.DrivingTimeS())
	}
	return nil
}

func (c *simulatorContext) eventWasEmitted(name string) error {
	if c.events[name] == 0 {
		return fmt.Errorf("event %s never emitted", name)
	}
	return nil
}

func (c *simulatorContext) truckIsStranded() error {
	tr, ok := c.w.Truck("t1")
	if !ok {
		return fmt.Errorf("truck t1 not created")
	}
	pos := tr.Position()
	if pos.IsAtNode() {
		return fmt.Errorf("truck reached a node; expected it stranded on an edge")
	}
	if tr.CurrentFuelL() > 0 {
		return fmt.Errorf("truck still has fuel")
	}
	return nil
}

func (c *simulatorContext) noNegotiationOverlap() error {
	if c.negotiationOverlap {
		return fmt.Errorf("broker held more than one active negotiation")
	}
	return nil
}

func (c *simulatorContext) corridorGraph() error {
	g := graph.New()
	for i, id := range []shared.NodeID{"a", "b", "c", "d"} {
		if err := g.AddNode(graph.NewNode(id, float64(i)*1000, 0)); err != nil {
			return err
		}
	}
	for _, hop := range [][2]shared.NodeID{{"a", "b"}, {"b", "c"}, {"c", "d"}} {
		if err := bidirectionalEdge(g, hop[0], hop[1], 1000); err != nil {
			return err
		}
	}
	if err := g.AddNode(graph.NewNode("far", 1000, 8000)); err != nil {
		return err
	}
	if err := bidirectionalEdge(g, "b", "far", 8000); err != nil {
		return err
	}
	g.Node("c").AttachBuilding("parking", "p-near")
	g.Node("far").AttachBuilding("parking", "p-far")

	cfg := world.DefaultConfig()
	c.w = world.New(g, cfg)
	return nil
}

func (c *simulatorContext) searchParkingWaypoint(from, to string) error {
	c.waypoint = c.w.Navigator().FindClosestNodeOnRoute(
		shared.NodeID(from), shared.NodeID(to),
		&routing.BuildingOfType{Type: "parking"}, 80)
	if !c.waypoint.Found {
		return fmt.Errorf("no waypoint found")
	}
	return nil
}

func (c *simulatorContext) waypointIsOnRouteParking() error {
	if c.waypoint.Waypoint != "c" || c.waypoint.MatchedItem != "p-near" {
		return fmt.Errorf("chose %s (%s), want c (p-near)", c.waypoint.Waypoint, c.waypoint.MatchedItem)
	}
	return nil
}

func (c *simulatorContext) pathFollowsCorridorPrefix() error {
	want := []shared.NodeID{"a", "b", "c"}
	if len(c.waypoint.Path) != len(want) {
		return fmt.Errorf("path is %v, want %v", c.waypoint.Path, want)
	}
	for i, n := range want {
		if c.waypoint.Path[i] != n {
			return fmt.Errorf("path is %v, want %v", c.waypoint.Path, want)
		}
	}
	return nil
}

// InitializeSimulatorScenario registers the simulator step definitions.
func InitializeSimulatorScenario(sc *godog.ScenarioContext) {
	c := &simulatorContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		*c = simulatorContext{events: map[string]int{}}
		return ctx, nil
	})

	sc.Step(`^a two-node world with sites at both ends$`, c.twoNodeWorld)
	sc.Step(`^a parking lot at node "([^"]+)"$`, c.parkingAt)
	sc.Step(`^a truck "([^"]+)" at node "([^"]+)" with capacity (\d+) and a full tank$`, c.truckAt)
	sc.Step(`^a package of size (\d+) and value (\d+) from "([^"]+)" to "([^"]+)" with generous deadlines$`, c.packageWithGenerousDeadlines)
	sc.Step(`^a package of size (\d+) and value (\d+) from "([^"]+)" to "([^"]+)" expiring in (\d+) ticks$`, c.packageExpiringIn)
	sc.Step(`^the truck has been driving for ([\d.]+) hours with risk factor ([\d.]+)$`, c.truckHasBeenDriving)
	sc.Step(`^the truck is crossing toward "([^"]+)" with only ([\d.]+) liters of fuel$`, c.truckCrossingWithFuel)
	sc.Step(`^the simulation runs for (\d+) ticks$`, c.runTicks)
	sc.Step(`^the package is delivered$`, c.packageIsDelivered)
	sc.Step(`^both packages are delivered$`, c.allPackagesDelivered)
	sc.Step(`^the package is expired$`, c.packageIsExpired)
	sc.Step(`^the broker balance is (\d+) ducats$`, c.brokerBalanceIs)
	sc.Step(`^the truck carries no cargo$`, c.truckCarriesNoCargo)
	sc.Step(`^the truck has rested and its driving timer is reset$`, c.truckHasRested)
	sc.Step(`^an "([^"]+)" event was emitted$`, c.eventWasEmitted)
	sc.Step(`^a "([^"]+)" event was emitted$`, c.eventWasEmitted)
	sc.Step(`^the truck is stranded mid-edge$`, c.truckIsStranded)
	sc.Step(`^the broker never held more than one active negotiation$`, c.noNegotiationOverlap)
	sc.Step(`^a corridor graph with an on-route parking and a far off-route parking$`, c.corridorGraph)
	sc.Step(`^a parking waypoint is searched from "([^"]+)" to "([^"]+)"$`, c.searchParkingWaypoint)
	sc.Step(`^the chosen waypoint is the on-route parking$`, c.waypointIsOnRouteParking)
	sc.Step(`^the returned path follows the corridor prefix$`, c.pathFollowsCorridorPrefix)
}
