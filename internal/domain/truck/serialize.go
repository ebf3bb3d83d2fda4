package truck

import (
	"reflect"

	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// watchFields is the subset of truck state whose changes trigger a diff
// emission: position, route, loaded packages, and building occupancy, plus
// the flags a client needs to render the truck correctly.
func (t *Truck) watchFields() map[string]any {
	pos := map[string]any{}
	if t.position.IsAtNode() {
		pos["node"] = string(t.position.AtNode)
	} else {
		pos["edge"] = string(t.position.OnEdge)
		pos["edge_progress_m"] = t.position.EdgeProgressM
	}
	route := make([]string, 0, len(t.route))
	for _, n := range t.route {
		route = append(route, string(n))
	}
	loaded := make([]string, 0, len(t.loaded))
	for _, p := range t.loaded {
		loaded = append(loaded, string(p))
	}
	return map[string]any{
		"id":                      string(t.id),
		"position":                pos,
		"route":                   route,
		"destination":             string(t.destination),
		"loaded_packages":         loaded,
		"current_building_id":     string(t.currentBuildingID),
		"current_fuel_l":          t.currentFuelL,
		"is_fueling":              t.isFueling,
		"is_resting":              t.isResting,
		"is_loading":              t.isLoading,
		"is_unloading":            t.isUnloading,
		"is_seeking_parking":      t.isSeekingParking,
		"is_seeking_idle_parking": t.isSeekingIdleParking,
		"is_seeking_gas_station":  t.isSeekingGasStation,
		"balance_ducats":          t.balanceDucats,
	}
}

// SerializeDiff returns the watch fields if any of them changed since the
// previous call, or nil when the truck's observable state is unchanged.
func (t *Truck) SerializeDiff() map[string]any {
	current := t.watchFields()
	if t.lastWatch != nil && reflect.DeepEqual(current, t.lastWatch) {
		return nil
	}
	t.lastWatch = current
	return current
}

// SerializeFull returns the complete persisted state for snapshots and
// save-file export.
func (t *Truck) SerializeFull() map[string]any {
	full := t.watchFields()
	full["kind"] = t.Kind()
	full["max_speed_kph"] = t.maxSpeedKPH
	full["capacity"] = t.capacity
	full["driving_time_s"] = t.drivingTimeS
	full["resting_time_s"] = t.restingTimeS
	full["required_rest_s"] = t.requiredRestS
	full["risk_factor"] = t.riskFactor
	full["fuel_tank_capacity_l"] = t.fuelTankCapacityL
	full["co2_emitted_kg"] = t.co2EmittedKg
	full["original_destination"] = string(t.originalDestination)

	tasks := make([]map[string]any, 0, len(t.deliveryQueue))
	for _, task := range t.deliveryQueue {
		ids := make([]string, 0, len(task.PackageIDs))
		for _, p := range task.PackageIDs {
			ids = append(ids, string(p))
		}
		tasks = append(tasks, map[string]any{
			"site_id":     string(task.SiteID),
			"task_type":   string(task.Type),
			"package_ids": ids,
			"status":      string(task.Status),
		})
	}
	full["delivery_queue"] = tasks
	return full
}

// Snapshot carries the mutable truck state a save-file restore needs to
// reinstate; construction-time fields (speed, capacity, tank size) travel
// through New.
type Snapshot struct {
	AtNode              shared.NodeID
	OnEdge              shared.EdgeID
	EdgeProgressM       float64
	Route               []shared.NodeID
	Destination         shared.NodeID
	OriginalDestination shared.NodeID
	Loaded              []shared.PackageID
	DrivingTimeS        float64
	RestingTimeS        float64
	IsResting           bool
	RequiredRestS       float64
	RiskFactor          float64
	CurrentFuelL        float64
	CO2EmittedKg        float64
	IsFueling           bool
	DeliveryQueue       []*DeliveryTask
	CurrentBuildingID   shared.BuildingID
	BalanceDucats       float64
}

// Restore reinstates a previously serialized mutable state.
func (t *Truck) Restore(s Snapshot) {
	if s.OnEdge != "" {
		t.position = Position{OnEdge: s.OnEdge, EdgeProgressM: s.EdgeProgressM}
	} else {
		t.position = Position{AtNode: s.AtNode}
	}
	t.route = s.Route
	t.destination = s.Destination
	t.originalDestination = s.OriginalDestination
	t.loaded = s.Loaded
	t.drivingTimeS = s.DrivingTimeS
	t.restingTimeS = s.RestingTimeS
	t.isResting = s.IsResting
	t.requiredRestS = s.RequiredRestS
	t.SetRiskFactor(s.RiskFactor)
	t.currentFuelL = s.CurrentFuelL
	t.co2EmittedKg = s.CO2EmittedKg
	t.isFueling = s.IsFueling
	if t.isFueling {
		t.fuelingLitersNeeded = t.fuelTankCapacityL - t.currentFuelL
		t.fuelingLitersTotal = t.fuelingLitersNeeded
	}
	t.deliveryQueue = s.DeliveryQueue
	t.currentBuildingID = s.CurrentBuildingID
	t.balanceDucats = s.BalanceDucats
	t.lastWatch = nil
}
