package world

import (
	"fmt"

	"github.com/logisim-sim/logisim/internal/domain/building"
	"github.com/logisim-sim/logisim/internal/domain/freight"
	"github.com/logisim-sim/logisim/internal/domain/ledger"
	"github.com/logisim-sim/logisim/internal/domain/messaging"
	"github.com/logisim-sim/logisim/internal/domain/routing"
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// EffectiveFuelPrice implements truck.Env: the per-liter price at the given
// gas station, cost-factor scaling included; the raw global price if the
// station is unknown.
func (w *World) EffectiveFuelPrice(station shared.BuildingID) float64 {
	if gs, ok := w.gasStations[station]; ok {
		return gs.EffectivePrice(w.fuelPrice)
	}
	return w.fuelPrice
}

// Navigator implements truck.Env and broker.Env.
func (w *World) Navigator() *routing.Navigator { return w.nav }

// EdgeEndpoints implements truck.Env.
func (w *World) EdgeEndpoints(edge shared.EdgeID) (shared.NodeID, shared.NodeID, float64, bool) {
	e := w.g.Edge(edge)
	if e == nil {
		return "", "", 0, false
	}
	return e.From, e.To, e.LengthM, true
}

// EdgeMaxSpeedKPH implements truck.Env; zero for an unknown edge.
func (w *World) EdgeMaxSpeedKPH(edge shared.EdgeID) float64 {
	e := w.g.Edge(edge)
	if e == nil {
		return 0
	}
	return e.MaxSpeedKPH
}

// NodeBuildingsOfType implements truck.Env.
func (w *World) NodeBuildingsOfType(node shared.NodeID, typeTag string) []shared.BuildingID {
	n := w.g.Node(node)
	if n == nil {
		return nil
	}
	return n.BuildingsOfType(typeTag)
}

// LoadedWeightTonnes implements truck.Env.
func (w *World) LoadedWeightTonnes(ids []shared.PackageID) float64 {
	total := 0.0
	for _, id := range ids {
		if pkg, ok := w.packages[id]; ok {
			total += pkg.WeightTonnes()
		}
	}
	return total
}

// PackageSites implements truck.Env.
func (w *World) PackageSites(pkg shared.PackageID) (shared.SiteID, shared.SiteID, bool) {
	p, ok := w.packages[pkg]
	if !ok {
		return "", "", false
	}
	return p.Origin(), p.Destination(), true
}

// PackageSize implements truck.Env.
func (w *World) PackageSize(pkg shared.PackageID) int {
	p, ok := w.packages[pkg]
	if !ok {
		return 0
	}
	return p.Size()
}

// GasStation implements truck.Env.
func (w *World) GasStation(id shared.BuildingID) *building.GasStation { return w.gasStations[id] }

// Parking implements truck.Env.
func (w *World) Parking(id shared.BuildingID) *building.Parking { return w.parkings[id] }

// FindGasStationOnRoute implements truck.Env: the waypoint minimizing total
// from -> station -> destination time.
func (w *World) FindGasStationOnRoute(from, destination shared.NodeID, maxSpeedKPH float64) routing.WaypointResult {
	crit := &routing.BuildingOfType{Type: string(building.TypeGasStation)}
	return w.nav.FindClosestNodeOnRoute(from, destination, crit, maxSpeedKPH)
}

// FindParkingOnRoute implements truck.Env: the waypoint minimizing total
// from -> parking -> destination time.
func (w *World) FindParkingOnRoute(from, destination shared.NodeID, maxSpeedKPH float64) routing.WaypointResult {
	crit := &routing.BuildingOfType{Type: string(building.TypeParking)}
	return w.nav.FindClosestNodeOnRoute(from, destination, crit, maxSpeedKPH)
}

// FindNearestGasStation implements truck.Env: the closest matching node
// reachable from "from", plus the A* path to it at the truck's own speed
// cap (the Dijkstra search that located it used the same cap, so the path
// cost and the search cost agree).
func (w *World) FindNearestGasStation(from shared.NodeID, maxSpeedKPH float64) routing.WaypointResult {
	crit := &routing.BuildingOfType{Type: string(building.TypeGasStation)}
	res := w.nav.FindClosestNode(from, crit, maxSpeedKPH)
	if !res.Found {
		return routing.WaypointResult{}
	}
	route := w.nav.FindRoute(from, res.Node, maxSpeedKPH)
	return routing.WaypointResult{Found: true, Waypoint: res.Node, MatchedItem: res.MatchedItem, Path: route.Nodes}
}

// FindNearestParking implements truck.Env.
func (w *World) FindNearestParking(from shared.NodeID, maxSpeedKPH float64) routing.ClosestNodeResult {
	crit := &routing.BuildingOfType{Type: string(building.TypeParking)}
	return w.nav.FindClosestNode(from, crit, maxSpeedKPH)
}

// FindNearestIdleParking implements truck.Env, excluding any parking lot
// currently at capacity so an idling truck never routes toward a dead end.
func (w *World) FindNearestIdleParking(from shared.NodeID, maxSpeedKPH float64) routing.ClosestNodeResult {
	full := make(map[shared.BuildingID]bool)
	for id, p := range w.parkings {
		if len(p.Occupants()) >= p.Capacity() {
			full[id] = true
		}
	}
	crit := &routing.BuildingOfType{Type: string(building.TypeParking), Exclude: full}
	return w.nav.FindClosestNode(from, crit, maxSpeedKPH)
}

// Mailbox implements truck.Env and broker.Env.
func (w *World) Mailbox(id shared.AgentID) *messaging.Mailbox { return w.bus.Mailbox(id) }

// BrokerID implements truck.Env.
func (w *World) BrokerID() shared.AgentID { return w.brokerID }

// CommitPickup implements truck.Env: each package moves WAITING_PICKUP ->
// IN_TRANSIT and leaves the origin site's active list.
func (w *World) CommitPickup(siteID shared.SiteID, pkgIDs []shared.PackageID) {
	s, ok := w.sites[siteID]
	for _, id := range pkgIDs {
		pkg, exists := w.packages[id]
		if !exists {
			continue
		}
		_ = pkg.MarkInTransit()
		if ok {
			s.RemovePackage(id)
			s.RecordPickedUp()
		}
	}
}

// CommitDelivery implements truck.Env: each package moves IN_TRANSIT ->
// DELIVERED, the destination site's delivered statistic is credited, and
// the per-package on-time verdict (used by the truck to settle with the
// broker) is reported back.
func (w *World) CommitDelivery(siteID shared.SiteID, pkgIDs []shared.PackageID, deliveryTick int64) map[shared.PackageID]bool {
	result := make(map[shared.PackageID]bool, len(pkgIDs))
	s, ok := w.sites[siteID]
	for _, id := range pkgIDs {
		pkg, exists := w.packages[id]
		if !exists {
			continue
		}
		result[id] = pkg.IsOnTime(deliveryTick)
		if pkg.Status() == freight.StatusInTransit {
			_ = pkg.MarkDelivered()
		}
		if ok {
			s.RecordDelivered(pkg.Value())
		}
	}
	return result
}

// RecordFuelPurchase implements truck.Env: credits the servicing station's
// revenue counter and appends a ledger entry. The truck has already
// deducted ducatsSpent from its own balance by the time this runs, so the
// entry's before/after balances are reconstructed from the post-deduction
// figure.
func (w *World) RecordFuelPurchase(truckID shared.AgentID, station shared.BuildingID, liters, ducatsSpent float64) {
	if ducatsSpent <= 0 {
		return
	}
	if gs, ok := w.gasStations[station]; ok {
		gs.RecordSale(ducatsSpent)
	}
	tr, ok := w.trucks[truckID]
	if !ok {
		return
	}
	after := tr.BalanceDucats()
	_, _ = w.ledger.Record(
		truckID, w.simTime(), ledger.TransactionTypeRefuel,
		-ducatsSpent, after+ducatsSpent, after,
		fmt.Sprintf("refueled %.1fL at %s", liters, station), "gas_station", string(station),
	)
}

// RecordTachographFine implements truck.Env.
func (w *World) RecordTachographFine(truckID shared.AgentID, fine float64) {
	if fine <= 0 {
		return
	}
	tr, ok := w.trucks[truckID]
	if !ok {
		return
	}
	after := tr.BalanceDucats()
	_, _ = w.ledger.Record(
		truckID, w.simTime(), ledger.TransactionTypeTachographFine,
		-fine, after+fine, after,
		"driving-time cap fine", "", "",
	)
}
