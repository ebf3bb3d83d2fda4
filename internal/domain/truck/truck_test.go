package truck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logisim-sim/logisim/internal/domain/building"
	"github.com/logisim-sim/logisim/internal/domain/graph"
	"github.com/logisim-sim/logisim/internal/domain/messaging"
	"github.com/logisim-sim/logisim/internal/domain/routing"
	"github.com/logisim-sim/logisim/internal/domain/shared"
	"github.com/logisim-sim/logisim/internal/domain/truck"
)

type pkgInfo struct {
	origin shared.SiteID
	dest   shared.SiteID
	size   int
}

// fakeEnv is a minimal truck.Env over a real graph and navigator.
type fakeEnv struct {
	tick int64
	dt   float64

	g   *graph.Graph
	nav *routing.Navigator
	bus *messaging.Bus

	brokerID shared.AgentID
	packages map[shared.PackageID]pkgInfo
	gas      map[shared.BuildingID]*building.GasStation
	parks    map[shared.BuildingID]*building.Parking

	randValue float64
	fuelPrice float64

	events    []string
	pickups   [][]shared.PackageID
	delivered [][]shared.PackageID
	fines     []float64
	purchases []float64
}

func newFakeEnv(t *testing.T, ids ...shared.NodeID) *fakeEnv {
	t.Helper()
	g := graph.New()
	for i, id := range ids {
		require.NoError(t, g.AddNode(graph.NewNode(id, float64(i)*1000, 0)))
	}
	for i := 0; i+1 < len(ids); i++ {
		for _, pair := range [][2]shared.NodeID{{ids[i], ids[i+1]}, {ids[i+1], ids[i]}} {
			require.NoError(t, g.AddEdge(&graph.Edge{
				ID: graph.EdgeIDBetween(pair[0], pair[1]), From: pair[0], To: pair[1],
				LengthM: 1000, MaxSpeedKPH: 50,
			}))
		}
	}
	env := &fakeEnv{
		tick:      1,
		dt:        60,
		g:         g,
		nav:       routing.New(g),
		bus:       messaging.New(),
		brokerID:  "broker",
		packages:  map[shared.PackageID]pkgInfo{},
		gas:       map[shared.BuildingID]*building.GasStation{},
		parks:     map[shared.BuildingID]*building.Parking{},
		randValue: 0.999,
		fuelPrice: 2.0,
	}
	env.bus.Register("broker")
	return env
}

func (e *fakeEnv) addParking(t *testing.T, node shared.NodeID, capacity int) *building.Parking {
	t.Helper()
	id := shared.BuildingID("park-" + string(node))
	p, err := building.NewParking(id, capacity)
	require.NoError(t, err)
	e.parks[id] = p
	require.NoError(t, e.g.AttachBuilding(node, string(building.TypeParking), id))
	return p
}

func (e *fakeEnv) addGas(t *testing.T, node shared.NodeID) *building.GasStation {
	t.Helper()
	id := shared.BuildingID("gas-" + string(node))
	gs, err := building.NewGasStation(id, 2, 1.0)
	require.NoError(t, err)
	e.gas[id] = gs
	require.NoError(t, e.g.AttachBuilding(node, string(building.TypeGasStation), id))
	return gs
}

func (e *fakeEnv) Tick() int64                                  { return e.tick }
func (e *fakeEnv) DtSeconds() float64                           { return e.dt }
func (e *fakeEnv) EffectiveFuelPrice(shared.BuildingID) float64 { return e.fuelPrice }
func (e *fakeEnv) RandFloat64() float64                         { return e.randValue }
func (e *fakeEnv) EmitEvent(name string, body map[string]any)   { e.events = append(e.events, name) }
func (e *fakeEnv) Navigator() *routing.Navigator                { return e.nav }

func (e *fakeEnv) EdgeEndpoints(edge shared.EdgeID) (shared.NodeID, shared.NodeID, float64, bool) {
	ed := e.g.Edge(edge)
	if ed == nil {
		return "", "", 0, false
	}
	return ed.From, ed.To, ed.LengthM, true
}

func (e *fakeEnv) EdgeMaxSpeedKPH(edge shared.EdgeID) float64 {
	if ed := e.g.Edge(edge); ed != nil {
		return ed.MaxSpeedKPH
	}
	return 0
}

func (e *fakeEnv) NodeBuildingsOfType(node shared.NodeID, typeTag string) []shared.BuildingID {
	if n := e.g.Node(node); n != nil {
		return n.BuildingsOfType(typeTag)
	}
	return nil
}

func (e *fakeEnv) LoadedWeightTonnes(ids []shared.PackageID) float64 {
	total := 0.0
	for _, id := range ids {
		total += float64(e.packages[id].size) * 0.1
	}
	return total
}

func (e *fakeEnv) PackageSites(pkg shared.PackageID) (shared.SiteID, shared.SiteID, bool) {
	info, ok := e.packages[pkg]
	return info.origin, info.dest, ok
}

func (e *fakeEnv) PackageSize(pkg shared.PackageID) int { return e.packages[pkg].size }

func (e *fakeEnv) RecordFuelPurchase(_ shared.AgentID, _ shared.BuildingID, _, ducats float64) {
	e.purchases = append(e.purchases, ducats)
}

func (e *fakeEnv) RecordTachographFine(_ shared.AgentID, fine float64) {
	e.fines = append(e.fines, fine)
}

func (e *fakeEnv) GasStation(id shared.BuildingID) *building.GasStation { return e.gas[id] }
func (e *fakeEnv) Parking(id shared.BuildingID) *building.Parking       { return e.parks[id] }

func (e *fakeEnv) FindGasStationOnRoute(from, dest shared.NodeID, speed float64) routing.WaypointResult {
	return e.nav.FindClosestNodeOnRoute(from, dest, &routing.BuildingOfType{Type: string(building.TypeGasStation)}, speed)
}

func (e *fakeEnv) FindParkingOnRoute(from, dest shared.NodeID, speed float64) routing.WaypointResult {
	return e.nav.FindClosestNodeOnRoute(from, dest, &routing.BuildingOfType{Type: string(building.TypeParking)}, speed)
}

func (e *fakeEnv) FindNearestGasStation(from shared.NodeID, speed float64) routing.WaypointResult {
	res := e.nav.FindClosestNode(from, &routing.BuildingOfType{Type: string(building.TypeGasStation)}, speed)
	if !res.Found {
		return routing.WaypointResult{}
	}
	route := e.nav.FindRoute(from, res.Node, speed)
	return routing.WaypointResult{Found: true, Waypoint: res.Node, MatchedItem: res.MatchedItem, Path: route.Nodes}
}

func (e *fakeEnv) FindNearestParking(from shared.NodeID, speed float64) routing.ClosestNodeResult {
	return e.nav.FindClosestNode(from, &routing.BuildingOfType{Type: string(building.TypeParking)}, speed)
}

func (e *fakeEnv) FindNearestIdleParking(from shared.NodeID, speed float64) routing.ClosestNodeResult {
	return e.FindNearestParking(from, speed)
}

func (e *fakeEnv) Mailbox(id shared.AgentID) *messaging.Mailbox { return e.bus.Mailbox(id) }
func (e *fakeEnv) BrokerID() shared.AgentID                     { return e.brokerID }

func (e *fakeEnv) CommitPickup(_ shared.SiteID, pkgIDs []shared.PackageID) {
	e.pickups = append(e.pickups, pkgIDs)
}

func (e *fakeEnv) CommitDelivery(_ shared.SiteID, pkgIDs []shared.PackageID, _ int64) map[shared.PackageID]bool {
	e.delivered = append(e.delivered, pkgIDs)
	out := map[shared.PackageID]bool{}
	for _, id := range pkgIDs {
		out[id] = true
	}
	return out
}

func newTruck(t *testing.T, env *fakeEnv, at shared.NodeID) *truck.Truck {
	t.Helper()
	tr, err := truck.New("t1", at, 80, 24, 300)
	require.NoError(t, err)
	env.bus.Register("t1")
	return tr
}

func hasEvent(events []string, name string) bool {
	for _, e := range events {
		if e == name {
			return true
		}
	}
	return false
}

func TestRequiredRestSeconds_Schedule(t *testing.T) {
	hour := 3600.0
	assert.InDelta(t, 3*hour, truck.RequiredRestSeconds(3*hour), 1e-9, "1:1 below six hours")
	assert.InDelta(t, 6*hour, truck.RequiredRestSeconds(6*hour), 1e-9)
	assert.InDelta(t, 8*hour, truck.RequiredRestSeconds(7*hour), 1e-9, "midpoint of the linear ramp")
	assert.InDelta(t, 10*hour, truck.RequiredRestSeconds(8*hour), 1e-9)
	assert.InDelta(t, 10*hour, truck.RequiredRestSeconds(9*hour), 1e-9, "ramp saturates")
}

func TestTachographFine_Tiers(t *testing.T) {
	assert.Equal(t, 100.0, truck.TachographFine(1800))
	assert.Equal(t, 100.0, truck.TachographFine(3600))
	assert.Equal(t, 200.0, truck.TachographFine(7200))
	assert.Equal(t, 500.0, truck.TachographFine(7201))
}

func TestNew_Validation(t *testing.T) {
	_, err := truck.New("t", "a", 80, 3, 300)
	assert.Error(t, err, "capacity below 4")
	_, err = truck.New("t", "a", 80, 46, 300)
	assert.Error(t, err, "capacity above 45")
	_, err = truck.New("t", "a", 0, 24, 300)
	assert.Error(t, err)
	_, err = truck.New("t", "a", 80, 24, 0)
	assert.Error(t, err)
}

func proposalMsg(pkg string, size int, origin, dest shared.NodeID, pickupDeadline, deliveryDeadline int64) messaging.Msg {
	return messaging.Msg{
		Src:  "broker",
		Dst:  "t1",
		Type: "proposal",
		Body: map[string]any{
			"package_id":             pkg,
			"origin_node":            string(origin),
			"destination_node":       string(dest),
			"size":                   size,
			"pickup_deadline_tick":   pickupDeadline,
			"delivery_deadline_tick": deliveryDeadline,
		},
	}
}

func deliverProposal(env *fakeEnv, tr *truck.Truck, msg messaging.Msg) string {
	env.bus.Mailbox("t1").Inbox = append(env.bus.Mailbox("t1").Inbox, msg)
	tr.Decide(env)
	out := env.bus.Mailbox("t1").Outbox
	if len(out) == 0 {
		return ""
	}
	reply := out[len(out)-1]
	env.bus.Mailbox("t1").Outbox = nil
	return reply.Type
}

func TestProposal_AcceptWhenFeasible(t *testing.T) {
	env := newFakeEnv(t, "a", "b")
	tr := newTruck(t, env, "a")

	reply := deliverProposal(env, tr, proposalMsg("p1", 10, "a", "b", 10000, 20000))
	assert.Equal(t, "accept", reply)
}

func TestProposal_RejectInsufficientCapacity(t *testing.T) {
	env := newFakeEnv(t, "a", "b")
	tr := newTruck(t, env, "a")
	env.packages["cargo"] = pkgInfo{origin: "a", dest: "b", size: 20}
	tr.Restore(truck.Snapshot{AtNode: "a", Loaded: []shared.PackageID{"cargo"}, CurrentFuelL: 300, RiskFactor: 0.5})

	reply := deliverProposal(env, tr, proposalMsg("p1", 10, "a", "b", 10000, 20000))
	assert.Equal(t, "reject", reply)
}

func TestProposal_CapacityRejectionIsMonotonic(t *testing.T) {
	// A truck that rejects for capacity at load L still rejects at any
	// heavier load with the same package.
	for _, loadedSize := range []int{20, 24} {
		env := newFakeEnv(t, "a", "b")
		tr := newTruck(t, env, "a")
		env.packages["cargo"] = pkgInfo{origin: "a", dest: "b", size: loadedSize}
		tr.Restore(truck.Snapshot{AtNode: "a", Loaded: []shared.PackageID{"cargo"}, CurrentFuelL: 300, RiskFactor: 0.5})

		reply := deliverProposal(env, tr, proposalMsg("p1", 10, "a", "b", 10000, 20000))
		assert.Equal(t, "reject", reply, "loaded size %d", loadedSize)
	}
}

func TestProposal_RejectMissedPickupDeadline(t *testing.T) {
	env := newFakeEnv(t, "a", "b", "c", "d", "e")
	tr := newTruck(t, env, "a")

	// Pickup at the far end of the chain, deadline two ticks away.
	reply := deliverProposal(env, tr, proposalMsg("p1", 10, "e", "a", env.tick+2, env.tick+100000))
	assert.Equal(t, "reject", reply)
}

func TestProposal_RejectUnreachableOrigin(t *testing.T) {
	env := newFakeEnv(t, "a", "b")
	require.NoError(t, env.g.AddNode(graph.NewNode("island", 9000, 9000)))
	tr := newTruck(t, env, "a")

	reply := deliverProposal(env, tr, proposalMsg("p1", 10, "island", "a", 10000, 20000))
	assert.Equal(t, "reject", reply)
}

func TestProposal_TachographMargin(t *testing.T) {
	// Driving time near the cap: the job itself pushes past 8h, so the
	// delivery deadline must leave room for the mandated rest (about 9.9h
	// at 7.95h of driving). A tight deadline rejects, a loose one accepts.
	cases := []struct {
		name          string
		deadlineTicks int64
		want          string
	}{
		{"tight deadline", 100, "reject"},
		{"loose deadline", 1000, "accept"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newFakeEnv(t, "a", "b")
			tr := newTruck(t, env, "a")
			tr.Restore(truck.Snapshot{
				AtNode:       "a",
				CurrentFuelL: 300,
				RiskFactor:   1, // rest-seek threshold sits at the cap, so no divert fires
				DrivingTimeS: 7.95 * 3600,
			})

			reply := deliverProposal(env, tr, proposalMsg("p1", 10, "a", "b", env.tick+10000, env.tick+tc.deadlineTicks))
			assert.Equal(t, tc.want, reply)
		})
	}
}

func TestAssignment_EnqueuesPickupBeforeDelivery(t *testing.T) {
	env := newFakeEnv(t, "a", "b")
	tr := newTruck(t, env, "a")
	env.packages["p1"] = pkgInfo{origin: "a", dest: "b", size: 5}

	env.bus.Mailbox("t1").Inbox = append(env.bus.Mailbox("t1").Inbox, messaging.Msg{
		Src: "broker", Dst: "t1", Type: "assignment_confirmed",
		Body: map[string]any{"package_id": "p1"},
	})
	tr.Decide(env)

	queue := tr.DeliveryQueue()
	require.Len(t, queue, 2)
	assert.Equal(t, truck.TaskPickup, queue[0].Type)
	assert.Equal(t, shared.SiteID("a"), queue[0].SiteID)
	assert.Equal(t, truck.TaskDelivery, queue[1].Type)
	assert.Equal(t, shared.SiteID("b"), queue[1].SiteID)
}

func TestAssignment_ConsolidatesSameSiteTasks(t *testing.T) {
	env := newFakeEnv(t, "a", "b")
	tr := newTruck(t, env, "a")
	env.packages["p1"] = pkgInfo{origin: "a", dest: "b", size: 5}
	env.packages["p2"] = pkgInfo{origin: "a", dest: "b", size: 5}

	mb := env.bus.Mailbox("t1")
	for _, pkg := range []string{"p1", "p2"} {
		mb.Inbox = append(mb.Inbox, messaging.Msg{
			Src: "broker", Dst: "t1", Type: "assignment_confirmed",
			Body: map[string]any{"package_id": pkg},
		})
	}
	tr.Decide(env)

	queue := tr.DeliveryQueue()
	require.Len(t, queue, 2, "both packages share one pickup and one delivery task")
	assert.ElementsMatch(t, []shared.PackageID{"p1", "p2"}, queue[0].PackageIDs)
	assert.ElementsMatch(t, []shared.PackageID{"p1", "p2"}, queue[1].PackageIDs)
}

func TestMovement_SpeedCappedByEdge(t *testing.T) {
	env := newFakeEnv(t, "a", "b")
	tr := newTruck(t, env, "a") // truck cap 80, edge cap 50
	tr.Restore(truck.Snapshot{
		OnEdge: graph.EdgeIDBetween("a", "b"), EdgeProgressM: 0,
		Route: []shared.NodeID{"b"}, Destination: "b",
		CurrentFuelL: 300, RiskFactor: 0.5,
	})

	tr.Decide(env)

	pos := tr.Position()
	require.False(t, pos.IsAtNode())
	assert.InDelta(t, 50*1000.0/3600.0*60, pos.EdgeProgressM, 1e-6)
	assert.InDelta(t, 60, tr.DrivingTimeS(), 1e-9)
	assert.Less(t, tr.CurrentFuelL(), 300.0, "fuel was consumed")
	assert.Greater(t, tr.CO2EmittedKg(), 0.0)
}

func TestMovement_ArrivalClearsDestination(t *testing.T) {
	env := newFakeEnv(t, "a", "b")
	tr := newTruck(t, env, "a")
	tr.Restore(truck.Snapshot{
		OnEdge: graph.EdgeIDBetween("a", "b"), EdgeProgressM: 990,
		Route: []shared.NodeID{"b"}, Destination: "b",
		CurrentFuelL: 300, RiskFactor: 0.5,
	})

	tr.Decide(env)

	pos := tr.Position()
	assert.True(t, pos.IsAtNode())
	assert.Equal(t, shared.NodeID("b"), pos.AtNode)
	assert.Empty(t, tr.Destination())
	assert.Empty(t, tr.Route())
}

func TestMovement_FuelOutStrandsTruck(t *testing.T) {
	env := newFakeEnv(t, "a", "b")
	tr := newTruck(t, env, "a")
	// Fuel for roughly half the edge: 500m at 25 L/100km is 0.125 L.
	tr.Restore(truck.Snapshot{
		OnEdge: graph.EdgeIDBetween("a", "b"), EdgeProgressM: 0,
		Route: []shared.NodeID{"b"}, Destination: "b",
		CurrentFuelL: 0.125, RiskFactor: 0.5,
	})

	tr.Decide(env)
	pos := tr.Position()
	require.False(t, pos.IsAtNode())
	assert.InDelta(t, 500, pos.EdgeProgressM, 1.0)
	assert.InDelta(t, 0, tr.CurrentFuelL(), 1e-9)

	tr.Decide(env)
	assert.True(t, hasEvent(env.events, "out_of_fuel"))
	assert.InDelta(t, 500, tr.Position().EdgeProgressM, 1.0, "stranded truck stops advancing")

	before := len(env.events)
	tr.Decide(env)
	assert.Len(t, env.events, before, "the event fires once")
}

func TestLoadUnload_CommitsAfterHandlingTime(t *testing.T) {
	env := newFakeEnv(t, "a", "b")
	tr := newTruck(t, env, "a")
	env.packages["p1"] = pkgInfo{origin: "a", dest: "b", size: 10}

	env.bus.Mailbox("t1").Inbox = append(env.bus.Mailbox("t1").Inbox, messaging.Msg{
		Src: "broker", Dst: "t1", Type: "assignment_confirmed",
		Body: map[string]any{"package_id": "p1"},
	})
	tr.Decide(env) // enqueue tasks and, already at the site, begin loading
	require.True(t, tr.IsLoading())

	// Size 10 is one tonne; at 0.5 t/min that is 120s of handling = 2 ticks.
	tr.Decide(env)
	assert.True(t, tr.IsLoading(), "first 60s tick is not enough")
	tr.Decide(env)
	assert.False(t, tr.IsLoading())

	require.Len(t, env.pickups, 1)
	assert.Equal(t, []shared.PackageID{"p1"}, env.pickups[0])
	assert.Equal(t, []shared.PackageID{"p1"}, tr.LoadedPackages())

	// The broker got exactly one pickup_confirmed.
	env.bus.DeliverAll([]shared.AgentID{"t1", "broker"})
	inbox := env.bus.Mailbox("broker").DrainInbox()
	require.Len(t, inbox, 1)
	assert.Equal(t, "pickup_confirmed", inbox[0].Type)
}

func TestRestCycle_ParksUntilRestComplete(t *testing.T) {
	env := newFakeEnv(t, "a", "b")
	env.addParking(t, "a", 2)
	tr := newTruck(t, env, "a")
	env.randValue = 0.0 // every probabilistic draw fires

	tr.Restore(truck.Snapshot{AtNode: "a", CurrentFuelL: 300, RiskFactor: 0, DrivingTimeS: 7.5 * 3600})

	tr.Decide(env) // seeks parking; lot is on this node
	if !tr.IsResting() {
		tr.Decide(env)
	}
	require.True(t, tr.IsResting())
	require.InDelta(t, truck.RequiredRestSeconds(7.5*3600), tr.RequiredRestS(), 1e-6)

	ticks := int(tr.RequiredRestS()/60) + 1
	for i := 0; i < ticks; i++ {
		tr.Decide(env)
	}
	assert.False(t, tr.IsResting())
	assert.InDelta(t, 0, tr.DrivingTimeS(), 1e-9, "driving timer resets after rest")
	assert.True(t, hasEvent(env.events, "rest_completed"))
}

func TestTachographFine_AppliedOncePerEpisode(t *testing.T) {
	env := newFakeEnv(t, "a", "b")
	tr := newTruck(t, env, "a")
	env.randValue = 0.999 // full tank, so no gas seek; the rest divert is certain at 8.2h with risk 1 but no parking lot exists
	tr.Restore(truck.Snapshot{AtNode: "a", CurrentFuelL: 300, RiskFactor: 1, DrivingTimeS: 8.2 * 3600})

	tr.Decide(env)
	require.Len(t, env.fines, 1)
	assert.Equal(t, 100.0, env.fines[0], "under an hour over pays the lowest tier")
	assert.Negative(t, tr.BalanceDucats())

	tr.Decide(env)
	assert.Len(t, env.fines, 1, "no second fine in the same episode")
}

func TestFueling_PumpsThenPaysAndResumes(t *testing.T) {
	env := newFakeEnv(t, "a", "b")
	gs := env.addGas(t, "a")
	tr := newTruck(t, env, "a")
	env.randValue = 0.0

	// Nearly empty tank at a node with a free station: the fuel-seek draw
	// fires, and the same-node station is entered on arrival handling.
	tr.Restore(truck.Snapshot{AtNode: "a", CurrentFuelL: 10, RiskFactor: 0.5})
	tr.Decide(env)
	if !tr.IsFueling() {
		tr.Decide(env)
	}
	require.True(t, tr.IsFueling())
	assert.Contains(t, gs.Occupants(), shared.AgentID("t1"))

	// 290 liters at 2 L/s on 60s ticks is about 2.4 ticks of pumping.
	for i := 0; i < 3 && tr.IsFueling(); i++ {
		tr.Decide(env)
	}
	assert.False(t, tr.IsFueling())
	assert.InDelta(t, 300, tr.CurrentFuelL(), 1e-6, "tank is full")
	require.Len(t, env.purchases, 1)
	assert.InDelta(t, 290*2.0, env.purchases[0], 1e-6, "bill settles once, at the effective price")
	assert.NotContains(t, gs.Occupants(), shared.AgentID("t1"))
	assert.True(t, hasEvent(env.events, "fueling_completed"))
}

func TestIdle_SeeksParkingWhenQueueEmpty(t *testing.T) {
	env := newFakeEnv(t, "a", "b", "c")
	park := env.addParking(t, "c", 2)
	tr := newTruck(t, env, "a")

	// No work: the truck routes toward the nearest lot and parks without
	// resting.
	for i := 0; i < 20 && tr.CurrentBuildingID() == ""; i++ {
		tr.Decide(env)
	}
	assert.Equal(t, park.ID(), tr.CurrentBuildingID())
	assert.False(t, tr.IsResting())
	assert.Contains(t, park.Occupants(), shared.AgentID("t1"))

	// New work breaks it out of the lot.
	env.packages["p1"] = pkgInfo{origin: "a", dest: "b", size: 5}
	env.bus.Mailbox("t1").Inbox = append(env.bus.Mailbox("t1").Inbox, messaging.Msg{
		Src: "broker", Dst: "t1", Type: "assignment_confirmed",
		Body: map[string]any{"package_id": "p1"},
	})
	tr.Decide(env)
	assert.Empty(t, tr.CurrentBuildingID())
	assert.NotContains(t, park.Occupants(), shared.AgentID("t1"))
}
