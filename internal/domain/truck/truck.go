// Package truck implements the Truck agent: a state machine covering
// idle-parking, driving, loading/unloading, fueling, and tachograph-
// mandated rest, the largest single subsystem in the simulator.
package truck

import (
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// DeliveryTaskType distinguishes a pickup leg from a delivery leg.
type DeliveryTaskType string

const (
	TaskPickup   DeliveryTaskType = "PICKUP"
	TaskDelivery DeliveryTaskType = "DELIVERY"
)

// DeliveryTaskStatus tracks a single delivery task's progress.
type DeliveryTaskStatus string

const (
	TaskPending    DeliveryTaskStatus = "PENDING"
	TaskInProgress DeliveryTaskStatus = "IN_PROGRESS"
	TaskCompleted  DeliveryTaskStatus = "COMPLETED"
)

// DeliveryTask is one leg (pickup or delivery) of the truck's work queue.
type DeliveryTask struct {
	SiteID     shared.SiteID
	Type       DeliveryTaskType
	PackageIDs []shared.PackageID
	Status     DeliveryTaskStatus
}

// Position is exactly one of "at a node" or "on an edge progressing toward
// its destination node". Current node and current edge are never both set;
// see Truck.setAtNode/setOnEdge.
type Position struct {
	AtNode        shared.NodeID
	OnEdge        shared.EdgeID
	EdgeProgressM float64
}

// IsAtNode reports whether the truck currently occupies a node (vs. an edge).
func (p Position) IsAtNode() bool { return p.OnEdge == "" }

// Truck is the transport agent.
type Truck struct {
	id shared.AgentID

	position Position

	route               []shared.NodeID
	destination         shared.NodeID
	routeStartNode      shared.NodeID
	routeEndNode        shared.NodeID
	originalDestination shared.NodeID

	maxSpeedKPH float64
	capacity    int
	loaded      []shared.PackageID

	drivingTimeS  float64
	restingTimeS  float64
	isResting     bool
	requiredRestS float64
	riskFactor    float64
	tachoFined    bool

	// Route to the original destination precomputed while resting, so the
	// tick the rest ends the truck departs immediately.
	plannedRestRoute []shared.NodeID

	fuelTankCapacityL   float64
	currentFuelL        float64
	co2EmittedKg        float64
	isFueling           bool
	fuelingLitersNeeded float64
	fuelingLitersTotal  float64
	outOfFuelReported   bool

	deliveryQueue []*DeliveryTask

	currentBuildingID shared.BuildingID

	isSeekingParking     bool
	isSeekingIdleParking bool
	isSeekingGasStation  bool
	isLoading            bool
	isUnloading          bool
	loadingProgressS     float64
	loadingTargetS       float64

	balanceDucats float64

	lastWatch map[string]any
}

// New creates a Truck parked at startNode with a full tank.
func New(id shared.AgentID, startNode shared.NodeID, maxSpeedKPH float64, capacity int, fuelTankCapacityL float64) (*Truck, error) {
	if capacity < 4 || capacity > 45 {
		return nil, shared.NewValidationError("capacity", "must be in [4,45]")
	}
	if maxSpeedKPH <= 0 {
		return nil, shared.NewValidationError("max_speed_kph", "must be > 0")
	}
	if fuelTankCapacityL <= 0 {
		return nil, shared.NewValidationError("fuel_tank_capacity_l", "must be > 0")
	}
	return &Truck{
		id:                id,
		position:          Position{AtNode: startNode},
		maxSpeedKPH:       maxSpeedKPH,
		capacity:          capacity,
		fuelTankCapacityL: fuelTankCapacityL,
		currentFuelL:      fuelTankCapacityL,
		riskFactor:        0.5,
	}, nil
}

// SetRiskFactor overrides the driver's risk appetite, clamped to [0,1].
// Used by the agent-update action and by save-file restore.
func (t *Truck) SetRiskFactor(risk float64) {
	if risk < 0 {
		risk = 0
	}
	if risk > 1 {
		risk = 1
	}
	t.riskFactor = risk
}

func (t *Truck) ID() shared.AgentID                   { return t.id }
func (t *Truck) Kind() string                         { return "truck" }
func (t *Truck) Position() Position                   { return t.position }
func (t *Truck) Route() []shared.NodeID               { return t.route }
func (t *Truck) Destination() shared.NodeID           { return t.destination }
func (t *Truck) OriginalDestination() shared.NodeID   { return t.originalDestination }
func (t *Truck) MaxSpeedKPH() float64                 { return t.maxSpeedKPH }
func (t *Truck) Capacity() int                        { return t.capacity }
func (t *Truck) LoadedPackages() []shared.PackageID   { return t.loaded }
func (t *Truck) DrivingTimeS() float64                { return t.drivingTimeS }
func (t *Truck) RestingTimeS() float64                { return t.restingTimeS }
func (t *Truck) IsResting() bool                      { return t.isResting }
func (t *Truck) RequiredRestS() float64               { return t.requiredRestS }
func (t *Truck) RiskFactor() float64                  { return t.riskFactor }
func (t *Truck) CurrentFuelL() float64                { return t.currentFuelL }
func (t *Truck) FuelTankCapacityL() float64           { return t.fuelTankCapacityL }
func (t *Truck) CO2EmittedKg() float64                { return t.co2EmittedKg }
func (t *Truck) IsFueling() bool                      { return t.isFueling }
func (t *Truck) DeliveryQueue() []*DeliveryTask       { return t.deliveryQueue }
func (t *Truck) CurrentBuildingID() shared.BuildingID { return t.currentBuildingID }
func (t *Truck) IsSeekingParking() bool               { return t.isSeekingParking }
func (t *Truck) IsSeekingIdleParking() bool           { return t.isSeekingIdleParking }
func (t *Truck) IsSeekingGasStation() bool            { return t.isSeekingGasStation }
func (t *Truck) IsLoading() bool                      { return t.isLoading }
func (t *Truck) IsUnloading() bool                    { return t.isUnloading }
func (t *Truck) BalanceDucats() float64               { return t.balanceDucats }

// FuelFraction returns the tank's fill level in [0,1].
func (t *Truck) FuelFraction() float64 {
	if t.fuelTankCapacityL <= 0 {
		return 0
	}
	return t.currentFuelL / t.fuelTankCapacityL
}

// LoadedSize returns the capacity units currently occupied on the truck,
// given a size lookup for each loaded package.
func (t *Truck) LoadedSize(sizeOf func(shared.PackageID) int) int {
	total := 0
	for _, id := range t.loaded {
		total += sizeOf(id)
	}
	return total
}

// clearSeekingFlags clears every "seeking X" flag; at most one is active
// at a time, so callers set one after clearing all.
func (t *Truck) clearSeekingFlags() {
	t.isSeekingParking = false
	t.isSeekingIdleParking = false
	t.isSeekingGasStation = false
}

func (t *Truck) setAtNode(node shared.NodeID) {
	t.position = Position{AtNode: node}
}

func (t *Truck) setOnEdge(edge shared.EdgeID, progressM float64) {
	t.position = Position{OnEdge: edge, EdgeProgressM: progressM}
}

// RequiredRestSeconds returns the mandated rest duration for the given
// accumulated driving time: 1:1 up to 6h of driving, then linear to
// (8h driving -> 10h rest). Applies at the moment resting begins.
func RequiredRestSeconds(drivingTimeS float64) float64 {
	const hour = 3600.0
	if drivingTimeS <= 6*hour {
		return drivingTimeS
	}
	fraction := (drivingTimeS - 6*hour) / (2 * hour)
	if fraction > 1 {
		fraction = 1
	}
	return 6*hour + fraction*(4*hour)
}

// TachographFine returns the tiered fine for exceeding the 8h hard cap by
// the given number of seconds over.
func TachographFine(overSeconds float64) float64 {
	switch {
	case overSeconds <= 3600:
		return 100
	case overSeconds <= 7200:
		return 200
	default:
		return 500
	}
}
