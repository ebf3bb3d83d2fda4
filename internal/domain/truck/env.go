package truck

import (
	"github.com/logisim-sim/logisim/internal/domain/agent"
	"github.com/logisim-sim/logisim/internal/domain/building"
	"github.com/logisim-sim/logisim/internal/domain/messaging"
	"github.com/logisim-sim/logisim/internal/domain/routing"
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// Env is the narrow world surface a Truck needs during Decide; it embeds
// agent.WorldView so a Truck's Decide(world agent.WorldView) can type-assert
// up to the richer interface world.World actually provides.
type Env interface {
	agent.WorldView

	// EffectiveFuelPrice returns the per-liter price at the gas station a
	// truck is fueling at, cost-factor scaling included.
	EffectiveFuelPrice(station shared.BuildingID) float64

	// RandFloat64 draws from the world-owned RNG in [0,1); trucks use it for
	// the probabilistic gas-station and rest-parking decisions.
	RandFloat64() float64

	// EmitEvent appends an event to the world's per-tick event buffer.
	EmitEvent(name string, body map[string]any)

	Navigator() *routing.Navigator
	EdgeEndpoints(edge shared.EdgeID) (from, to shared.NodeID, lengthM float64, ok bool)
	EdgeMaxSpeedKPH(edge shared.EdgeID) float64
	NodeBuildingsOfType(node shared.NodeID, typeTag string) []shared.BuildingID
	LoadedWeightTonnes(ids []shared.PackageID) float64
	// PackageSites returns a package's origin and destination sites, used to
	// build the pickup/delivery legs once an assignment is confirmed.
	PackageSites(pkg shared.PackageID) (origin, destination shared.SiteID, ok bool)
	// PackageSize returns a package's size in capacity units.
	PackageSize(pkg shared.PackageID) int

	// RecordFuelPurchase credits the servicing gas station's revenue and
	// appends a ledger entry for a completed refueling transaction.
	RecordFuelPurchase(truckID shared.AgentID, station shared.BuildingID, liters, ducatsSpent float64)
	// RecordTachographFine appends a ledger entry for a driving-time-cap penalty.
	RecordTachographFine(truckID shared.AgentID, fine float64)

	GasStation(buildingID shared.BuildingID) *building.GasStation
	Parking(buildingID shared.BuildingID) *building.Parking

	// FindGasStationOnRoute and FindParkingOnRoute run the waypoint-aware
	// search minimizing total from -> waypoint -> destination time, used when
	// a truck diverts for fuel or rest while still bound for a destination.
	FindGasStationOnRoute(from, destination shared.NodeID, maxSpeedKPH float64) routing.WaypointResult
	FindParkingOnRoute(from, destination shared.NodeID, maxSpeedKPH float64) routing.WaypointResult
	// FindNearestGasStation and FindNearestParking run the plain
	// closest-node search, used when the truck has no destination to honor.
	FindNearestGasStation(from shared.NodeID, maxSpeedKPH float64) routing.WaypointResult
	FindNearestParking(from shared.NodeID, maxSpeedKPH float64) routing.ClosestNodeResult
	// FindNearestIdleParking excludes lots already at capacity.
	FindNearestIdleParking(from shared.NodeID, maxSpeedKPH float64) routing.ClosestNodeResult

	Mailbox(id shared.AgentID) *messaging.Mailbox
	BrokerID() shared.AgentID

	// CommitPickup moves pkgIDs from siteID's active list onto the truck,
	// marking each WAITING_PICKUP -> IN_TRANSIT and recording the site's
	// pickup statistic.
	CommitPickup(siteID shared.SiteID, pkgIDs []shared.PackageID)
	// CommitDelivery marks each of pkgIDs IN_TRANSIT -> DELIVERED at the
	// given tick, credits siteID's delivered statistic, and reports
	// per-package on-time status.
	CommitDelivery(siteID shared.SiteID, pkgIDs []shared.PackageID, deliveryTick int64) map[shared.PackageID]bool
}
