package truck

import (
	"math"

	"github.com/logisim-sim/logisim/internal/domain/agent"
	"github.com/logisim-sim/logisim/internal/domain/building"
	"github.com/logisim-sim/logisim/internal/domain/graph"
	"github.com/logisim-sim/logisim/internal/domain/messaging"
	"github.com/logisim-sim/logisim/internal/domain/routing"
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

const (
	// Consumption is 25 L/100km empty plus 1.5 L/100km per tonne of cargo.
	baseFuelLPer100Km     = 25.0
	fuelLPer100KmPerTonne = 1.5
	kgCO2PerLiter         = 2.68

	fuelingRateLPerS        = 2.0
	loadingRateTonnesPerMin = 0.5
	tonnesPerSizeUnit       = 0.1

	hardDrivingCapS = 8 * 3600.0

	// Fuel-seek window: above the risk-adjusted ceiling a truck never
	// diverts, below the floor it always does.
	gasSeekCeiling   = 0.30
	gasSeekRiskSlope = 0.15
	gasSeekFloor     = 0.10
)

// Perceive is a no-op for Truck: all decisions are made reactively from
// Env queries and inbox messages during Decide, so there is no separate
// state to cache from observation.
func (t *Truck) Perceive(world agent.WorldView) {}

// Decide runs the priority-ordered state machine for one tick: fueling,
// resting, and loading/unloading each claim the whole tick; otherwise the
// truck processes broker messages, settles any tachograph fine, weighs
// diverting for fuel or rest, and then either handles node arrival or
// advances along its current edge.
func (t *Truck) Decide(world agent.WorldView) {
	env, ok := world.(Env)
	if !ok {
		return
	}
	dtS := env.DtSeconds()

	if t.isFueling {
		t.stepFueling(env, dtS)
		return
	}
	if t.isResting {
		t.stepResting(env, dtS)
		return
	}
	if t.isLoading || t.isUnloading {
		t.stepLoadUnload(env, dtS)
		return
	}

	t.processInbox(env)
	t.applyTachographFine(env)
	t.maybeSeekGasStation(env)
	t.maybeSeekRestParking(env)

	if t.position.IsAtNode() {
		t.decideAtNode(env)
		return
	}
	t.advanceAlongEdge(env, dtS)
}

func (t *Truck) processInbox(env Env) {
	mb := env.Mailbox(t.id)
	if mb == nil {
		return
	}
	for _, msg := range mb.DrainInbox() {
		switch msg.Type {
		case "assignment_confirmed":
			t.handleAssignmentConfirmed(env, msg)
		case "proposal":
			t.handleProposal(env, msg)
		}
	}
}

// handleAssignmentConfirmed enqueues the pickup and delivery legs for a
// newly won package, consolidating into any existing PENDING task at the
// same site and task type rather than always appending; the pickup leg is
// always enqueued before its delivery leg, so delivery never precedes its
// pickup. New work also breaks an idle-parked truck out of the lot.
func (t *Truck) handleAssignmentConfirmed(env Env, msg messaging.Msg) {
	pkgID := shared.PackageID(stringBody(msg, "package_id"))
	origin, destination, ok := env.PackageSites(pkgID)
	if !ok {
		return
	}
	pickupIdx := t.enqueueTask(origin, TaskPickup, pkgID, 0)
	t.enqueueTask(destination, TaskDelivery, pkgID, pickupIdx+1)

	if t.isSeekingIdleParking || (t.currentBuildingID != "" && !t.isResting && !t.isFueling) {
		t.leaveIdleParking(env)
	}
}

// leaveIdleParking exits the lot an idle truck is sitting in (or abandons
// the drive toward one) so it can take up new work.
func (t *Truck) leaveIdleParking(env Env) {
	if p := env.Parking(t.currentBuildingID); p != nil {
		p.Leave(t.id)
		t.currentBuildingID = ""
	}
	if t.isSeekingIdleParking {
		t.isSeekingIdleParking = false
		if t.position.IsAtNode() {
			t.route = nil
			t.destination = ""
		}
	}
}

// enqueueTask merges pkgID into the first PENDING task matching siteID and
// taskType at or after queue index from, or appends a new task at the back
// of the queue. It returns the index of the task that now holds pkgID.
func (t *Truck) enqueueTask(siteID shared.SiteID, taskType DeliveryTaskType, pkgID shared.PackageID, from int) int {
	for i := from; i < len(t.deliveryQueue); i++ {
		task := t.deliveryQueue[i]
		if task.Status == TaskPending && task.Type == taskType && task.SiteID == siteID {
			task.PackageIDs = append(task.PackageIDs, pkgID)
			return i
		}
	}
	t.deliveryQueue = append(t.deliveryQueue, &DeliveryTask{
		SiteID:     siteID,
		Type:       taskType,
		PackageIDs: []shared.PackageID{pkgID},
		Status:     TaskPending,
	})
	return len(t.deliveryQueue) - 1
}

// handleProposal evaluates a broker's proposal against the four reject
// conditions: insufficient capacity, pickup deadline miss, delivery
// deadline miss, or a completion that would exhaust the tachograph budget
// with no margin to insert the mandated rest.
func (t *Truck) handleProposal(env Env, msg messaging.Msg) {
	originNode := shared.NodeID(stringBody(msg, "origin_node"))
	destNode := shared.NodeID(stringBody(msg, "destination_node"))
	sizeUnits := intBody(msg, "size")
	pickupDeadline := int64(intBody(msg, "pickup_deadline_tick"))
	deliveryDeadline := int64(intBody(msg, "delivery_deadline_tick"))

	available := t.capacity - t.LoadedSize(env.PackageSize) - t.queuedPickupSize(env)
	if available < sizeUnits {
		t.respondProposal(env, msg, false)
		return
	}

	queueHrs, lastNode := t.estimateQueueCompletion(env)
	toOriginHrs := env.Navigator().EstimateTravelTimeHours(lastNode, originNode, t.maxSpeedKPH)
	if math.IsInf(toOriginHrs, 1) {
		t.respondProposal(env, msg, false)
		return
	}
	loadHrs := loadUnloadSeconds(float64(sizeUnits)*tonnesPerSizeUnit) / 3600
	pickupEtaHrs := queueHrs + toOriginHrs + loadHrs
	if t.tickAfter(env, pickupEtaHrs) > pickupDeadline {
		t.respondProposal(env, msg, false)
		return
	}

	toDestHrs := env.Navigator().EstimateTravelTimeHours(originNode, destNode, t.maxSpeedKPH)
	if math.IsInf(toDestHrs, 1) {
		t.respondProposal(env, msg, false)
		return
	}
	deliveryEtaHrs := pickupEtaHrs + toDestHrs + loadHrs
	deliveryEtaTick := t.tickAfter(env, deliveryEtaHrs)
	if deliveryEtaTick > deliveryDeadline {
		t.respondProposal(env, msg, false)
		return
	}

	// Completing the job must leave enough slack before the delivery
	// deadline to insert the rest the current driving time already
	// mandates.
	projectedDrivingS := t.drivingTimeS + deliveryEtaHrs*3600
	if projectedDrivingS > hardDrivingCapS {
		timeMarginS := float64(deliveryDeadline-deliveryEtaTick) * env.DtSeconds()
		if timeMarginS < RequiredRestSeconds(t.drivingTimeS) {
			t.respondProposal(env, msg, false)
			return
		}
	}

	t.respondProposal(env, msg, true)
}

// estimateQueueCompletion returns the total estimated hours to finish every
// task already in the delivery queue, and the node the truck would be at
// once it has.
func (t *Truck) estimateQueueCompletion(env Env) (hours float64, atNode shared.NodeID) {
	atNode = t.currentOrDestinationNode()
	for _, task := range t.deliveryQueue {
		siteNode := shared.NodeID(task.SiteID)
		leg := env.Navigator().EstimateTravelTimeHours(atNode, siteNode, t.maxSpeedKPH)
		if math.IsInf(leg, 1) {
			continue
		}
		hours += leg + loadUnloadSeconds(t.taskWeightTonnes(env, task))/3600
		atNode = siteNode
	}
	return hours, atNode
}

// tickAfter converts a duration in hours from the current tick into an
// absolute tick number, using the world's tick duration.
func (t *Truck) tickAfter(env Env, hours float64) int64 {
	return env.Tick() + int64(hours*3600/env.DtSeconds())
}

func (t *Truck) respondProposal(env Env, msg messaging.Msg, accepted bool) {
	mb := env.Mailbox(t.id)
	if mb == nil {
		return
	}
	msgType := "reject"
	if accepted {
		msgType = "accept"
	}
	mb.Send(messaging.Msg{
		Src:  t.id,
		Dst:  msg.Src,
		Type: msgType,
		Body: map[string]any{
			"package_id": msg.Body["package_id"],
		},
	})
}

func (t *Truck) queuedPickupSize(env Env) int {
	total := 0
	for _, task := range t.deliveryQueue {
		if task.Type != TaskPickup {
			continue
		}
		for _, id := range task.PackageIDs {
			total += env.PackageSize(id)
		}
	}
	return total
}

func (t *Truck) taskWeightTonnes(env Env, task *DeliveryTask) float64 {
	units := 0
	for _, id := range task.PackageIDs {
		units += env.PackageSize(id)
	}
	return float64(units) * tonnesPerSizeUnit
}

// loadUnloadSeconds converts a task's cargo weight into loading time at the
// fixed handling rate.
func loadUnloadSeconds(weightTonnes float64) float64 {
	return weightTonnes / loadingRateTonnesPerMin * 60
}

func (t *Truck) currentOrDestinationNode() shared.NodeID {
	if t.position.IsAtNode() {
		return t.position.AtNode
	}
	return t.routeEndNode
}

// applyTachographFine issues a fine once per violation episode when driving
// time exceeds the hard cap, and nudges the risk factor down so the driver
// fuels earlier and rests sooner afterwards.
func (t *Truck) applyTachographFine(env Env) {
	if t.drivingTimeS <= hardDrivingCapS || t.tachoFined {
		return
	}
	over := t.drivingTimeS - hardDrivingCapS
	fine := TachographFine(over)
	t.balanceDucats -= fine
	t.riskFactor *= 0.99 + env.RandFloat64()*0.005
	t.tachoFined = true
	env.RecordTachographFine(t.id, fine)
	env.EmitEvent("tachograph_fine", map[string]any{
		"agent_id": string(t.id),
		"fine":     fine,
		"over_s":   over,
	})
}

// maybeSeekGasStation decides whether to divert for fuel this tick. Above
// the risk-adjusted ceiling the truck never diverts; below the floor it
// always does; in between the per-tick probability rises linearly as the
// tank drains.
func (t *Truck) maybeSeekGasStation(env Env) {
	if t.isSeekingGasStation || t.currentFuelL <= 0 {
		return
	}
	frac := t.FuelFraction()
	threshold := gasSeekCeiling - gasSeekRiskSlope*t.riskFactor
	if frac > threshold {
		return
	}
	if frac >= gasSeekFloor {
		p := (threshold - frac) / (threshold - gasSeekFloor)
		if env.RandFloat64() >= p {
			return
		}
	}
	t.divertForGas(env)
}

func (t *Truck) divertForGas(env Env) {
	start := t.nextRoutingNode(env)
	var wp routing.WaypointResult
	if t.destination != "" && t.destination != start {
		wp = env.FindGasStationOnRoute(start, t.destination, t.maxSpeedKPH)
	}
	if !wp.Found {
		wp = env.FindNearestGasStation(start, t.maxSpeedKPH)
	}
	if !wp.Found {
		return
	}
	if t.originalDestination == "" {
		t.originalDestination = t.destination
	}
	t.clearSeekingFlags()
	t.isSeekingGasStation = true
	t.applyRoute(env, wp.Path, wp.Waypoint)
}

// maybeSeekRestParking decides whether to divert toward a parking lot for
// the mandated rest. The probability rises linearly from zero at the
// risk-adjusted start threshold to one at the 8h hard cap.
func (t *Truck) maybeSeekRestParking(env Env) {
	if t.isSeekingParking || t.isSeekingGasStation {
		return
	}
	h := t.drivingTimeS / 3600
	start := 7 + t.riskFactor
	if h < start {
		return
	}
	p := 1.0
	if span := 8 - start; span > 0 {
		p = (h - start) / span
		if p > 1 {
			p = 1
		}
	}
	if env.RandFloat64() >= p {
		return
	}
	t.divertForParking(env)
}

func (t *Truck) divertForParking(env Env) {
	start := t.nextRoutingNode(env)
	var wp routing.WaypointResult
	if t.destination != "" && t.destination != start {
		wp = env.FindParkingOnRoute(start, t.destination, t.maxSpeedKPH)
	}
	if !wp.Found {
		res := env.FindNearestParking(start, t.maxSpeedKPH)
		if res.Found {
			route := env.Navigator().FindRoute(start, res.Node, t.maxSpeedKPH)
			wp = routing.WaypointResult{Found: true, Waypoint: res.Node, MatchedItem: res.MatchedItem, Path: route.Nodes}
		}
	}
	if !wp.Found {
		return
	}
	if t.originalDestination == "" {
		t.originalDestination = t.destination
	}
	t.clearSeekingFlags()
	t.isSeekingParking = true
	t.applyRoute(env, wp.Path, wp.Waypoint)
}

// nextRoutingNode is where a fresh route can start: the current node, or
// the far end of the edge being traversed.
func (t *Truck) nextRoutingNode(env Env) shared.NodeID {
	if t.position.IsAtNode() {
		return t.position.AtNode
	}
	if _, to, _, ok := env.EdgeEndpoints(t.position.OnEdge); ok {
		return to
	}
	return t.routeEndNode
}

// decideAtNode handles all behavior possible while standing at a node:
// entering a sought gas station or parking lot, starting a load/unload at
// the current task's site, continuing along the route, or planning the
// next objective.
func (t *Truck) decideAtNode(env Env) {
	node := t.position.AtNode

	if t.isSeekingGasStation {
		if gs := t.gasStationAt(env, node); gs != nil {
			t.enterGasStation(env, gs)
			return
		}
	}
	if t.isSeekingParking {
		if p := t.parkingAt(env, node); p != nil {
			t.beginRest(env, p)
			return
		}
	}
	if t.isSeekingIdleParking && t.currentBuildingID == "" {
		if p := t.parkingAt(env, node); p != nil {
			t.enterParking(p)
			t.isSeekingIdleParking = false
			t.route = nil
			t.destination = ""
			return
		}
	}

	if task := t.currentTask(); task != nil && shared.NodeID(task.SiteID) == node {
		t.beginLoadUnload(env, task)
		return
	}

	if len(t.route) >= 1 {
		t.advanceToNextEdge(env)
		return
	}

	t.routeToNextObjective(env)
}

// gasStationAt returns a gas station at node with a free fueling bay, or nil.
func (t *Truck) gasStationAt(env Env, node shared.NodeID) *building.GasStation {
	for _, id := range env.NodeBuildingsOfType(node, string(building.TypeGasStation)) {
		if gs := env.GasStation(id); gs != nil && len(gs.Occupants()) < gs.Capacity() {
			return gs
		}
	}
	return nil
}

// parkingAt returns a parking lot at node with a free slot (or the lot
// the truck already occupies), or nil.
func (t *Truck) parkingAt(env Env, node shared.NodeID) *building.Parking {
	for _, id := range env.NodeBuildingsOfType(node, string(building.TypeParking)) {
		if p := env.Parking(id); p != nil {
			if id == t.currentBuildingID || len(p.Occupants()) < p.Capacity() {
				return p
			}
		}
	}
	return nil
}

func (t *Truck) currentTask() *DeliveryTask {
	for _, task := range t.deliveryQueue {
		if task.Status != TaskCompleted {
			return task
		}
	}
	return nil
}

func (t *Truck) enterGasStation(env Env, gs *building.GasStation) {
	if err := gs.Enter(t.id); err != nil {
		return
	}
	t.currentBuildingID = gs.ID()
	t.isFueling = true
	t.clearSeekingFlags()
	t.fuelingLitersNeeded = t.fuelTankCapacityL - t.currentFuelL
	t.fuelingLitersTotal = t.fuelingLitersNeeded
	t.route = nil
	t.destination = ""
}

func (t *Truck) enterParking(p *building.Parking) {
	if err := p.Enter(t.id); err != nil {
		return
	}
	t.currentBuildingID = p.ID()
}

// beginRest parks the truck and starts the mandated rest clock; the rest
// duration is fixed by the driving time accumulated at this moment. A
// truck already sitting idle in the lot rests in place.
func (t *Truck) beginRest(env Env, p *building.Parking) {
	if t.currentBuildingID != p.ID() {
		if err := p.Enter(t.id); err != nil {
			return
		}
	}
	t.currentBuildingID = p.ID()
	t.isResting = true
	t.clearSeekingFlags()
	t.restingTimeS = 0
	t.requiredRestS = RequiredRestSeconds(t.drivingTimeS)
	t.route = nil
	t.destination = ""
	env.EmitEvent("rest_started", map[string]any{
		"agent_id":        string(t.id),
		"required_rest_s": t.requiredRestS,
	})
}

func (t *Truck) beginLoadUnload(env Env, task *DeliveryTask) {
	task.Status = TaskInProgress
	if task.Type == TaskPickup {
		t.isLoading = true
	} else {
		t.isUnloading = true
	}
	t.loadingProgressS = 0
	t.loadingTargetS = loadUnloadSeconds(t.taskWeightTonnes(env, task))
	t.route = nil
	t.destination = ""
}

// routeToNextObjective decides where to drive next: toward the next
// delivery task's site, or toward idle parking when the queue is empty.
func (t *Truck) routeToNextObjective(env Env) {
	if task := t.currentTask(); task != nil {
		route := env.Navigator().FindRoute(t.position.AtNode, shared.NodeID(task.SiteID), t.maxSpeedKPH)
		if len(route.Nodes) >= 1 {
			t.applyRoute(env, route.Nodes, shared.NodeID(task.SiteID))
		}
		return
	}

	if t.currentBuildingID == "" && !t.isSeekingIdleParking {
		idle := env.FindNearestIdleParking(t.position.AtNode, t.maxSpeedKPH)
		if idle.Found {
			t.isSeekingIdleParking = true
			if idle.Node == t.position.AtNode {
				if p := t.parkingAt(env, t.position.AtNode); p != nil {
					t.enterParking(p)
					t.isSeekingIdleParking = false
				}
				return
			}
			route := env.Navigator().FindRoute(t.position.AtNode, idle.Node, t.maxSpeedKPH)
			t.applyRoute(env, route.Nodes, idle.Node)
		}
	}
}

// applyRoute installs a new route. The route field holds the remaining
// stops after the current position, so a leading current-node entry is
// stripped. When the truck is at a node the first hop is taken
// immediately; when it is mid-edge the route takes effect on arrival at
// the edge's far node.
func (t *Truck) applyRoute(env Env, nodes []shared.NodeID, destination shared.NodeID) {
	if len(nodes) == 0 {
		return
	}
	t.routeStartNode = nodes[0]
	if t.position.IsAtNode() && nodes[0] == t.position.AtNode {
		nodes = nodes[1:]
	}
	if len(nodes) == 0 {
		t.route = nil
		t.destination = ""
		return
	}
	t.route = nodes
	t.destination = destination
	t.routeEndNode = destination

	if t.position.IsAtNode() {
		if t.currentBuildingID != "" && !t.isResting && !t.isFueling {
			if p := env.Parking(t.currentBuildingID); p != nil {
				p.Leave(t.id)
			}
			t.currentBuildingID = ""
		}
		t.advanceToNextEdge(env)
	}
}

// advanceToNextEdge puts the truck on the edge toward the route's next
// stop at progress zero; the stop itself is popped on arrival.
func (t *Truck) advanceToNextEdge(env Env) {
	if !t.position.IsAtNode() || len(t.route) == 0 {
		return
	}
	next := t.route[0]
	t.setOnEdge(graph.EdgeIDBetween(t.position.AtNode, next), 0)
}

// stepFueling pumps fuel into the tank; once the tank is full the truck
// settles the bill for the whole fill at the station's effective price,
// leaves the station, restores its saved destination, and plans a route
// back to it.
func (t *Truck) stepFueling(env Env, dtS float64) {
	amount := fuelingRateLPerS * dtS
	if amount > t.fuelingLitersNeeded {
		amount = t.fuelingLitersNeeded
	}
	t.currentFuelL += amount
	t.fuelingLitersNeeded -= amount
	if t.currentFuelL > t.fuelTankCapacityL {
		t.currentFuelL = t.fuelTankCapacityL
	}
	if t.fuelingLitersNeeded > 0 {
		return
	}

	price := env.EffectiveFuelPrice(t.currentBuildingID)
	cost := t.fuelingLitersTotal * price
	t.balanceDucats -= cost
	env.RecordFuelPurchase(t.id, t.currentBuildingID, t.fuelingLitersTotal, cost)
	env.EmitEvent("fueling_completed", map[string]any{
		"agent_id": string(t.id),
		"liters":   t.fuelingLitersTotal,
		"cost":     cost,
	})

	if gs := env.GasStation(t.currentBuildingID); gs != nil {
		gs.Leave(t.id)
	}
	t.currentBuildingID = ""
	t.isFueling = false
	t.fuelingLitersTotal = 0
	t.outOfFuelReported = false
	t.clearSeekingFlags()

	dest := t.originalDestination
	t.originalDestination = ""
	if dest != "" {
		route := env.Navigator().FindRoute(t.position.AtNode, dest, t.maxSpeedKPH)
		t.applyRoute(env, route.Nodes, dest)
	}
}

// stepResting advances mandated rest by dtS seconds. While resting, the
// route back to the saved destination is precomputed so the truck departs
// the same tick the rest ends.
func (t *Truck) stepResting(env Env, dtS float64) {
	t.restingTimeS += dtS

	if t.plannedRestRoute == nil && t.originalDestination != "" && t.position.IsAtNode() {
		route := env.Navigator().FindRoute(t.position.AtNode, t.originalDestination, t.maxSpeedKPH)
		t.plannedRestRoute = route.Nodes
	}

	if t.restingTimeS < t.requiredRestS {
		return
	}

	t.isResting = false
	t.drivingTimeS = 0
	t.restingTimeS = 0
	t.requiredRestS = 0
	t.tachoFined = false
	if p := env.Parking(t.currentBuildingID); p != nil {
		p.Leave(t.id)
	}
	t.currentBuildingID = ""
	t.clearSeekingFlags()
	env.EmitEvent("rest_completed", map[string]any{"agent_id": string(t.id)})

	dest := t.originalDestination
	t.originalDestination = ""
	planned := t.plannedRestRoute
	t.plannedRestRoute = nil
	if dest != "" {
		if len(planned) >= 2 {
			t.applyRoute(env, planned, dest)
		} else {
			route := env.Navigator().FindRoute(t.position.AtNode, dest, t.maxSpeedKPH)
			t.applyRoute(env, route.Nodes, dest)
		}
	}
}

// stepLoadUnload advances loading/unloading by dtS seconds; once the
// handling time for the task's weight has elapsed, the pickup or delivery
// is committed and the broker notified.
func (t *Truck) stepLoadUnload(env Env, dtS float64) {
	task := t.currentTask()
	if task == nil {
		t.isLoading, t.isUnloading = false, false
		return
	}
	t.loadingProgressS += dtS
	if t.loadingProgressS < t.loadingTargetS {
		return
	}

	if task.Type == TaskPickup {
		t.loaded = append(t.loaded, task.PackageIDs...)
		env.CommitPickup(task.SiteID, task.PackageIDs)
		t.notifyBroker(env, "pickup_confirmed", task.PackageIDs, nil)
	} else {
		t.loaded = removePackages(t.loaded, task.PackageIDs)
		onTime := env.CommitDelivery(task.SiteID, task.PackageIDs, env.Tick())
		t.notifyBroker(env, "delivery_confirmed", task.PackageIDs, onTime)
	}
	task.Status = TaskCompleted
	t.deliveryQueue = removeCompletedFront(t.deliveryQueue)
	t.isLoading, t.isUnloading = false, false
	t.loadingProgressS = 0
	t.loadingTargetS = 0
}

// notifyBroker sends one confirmation message per package to the broker,
// carrying the delivery tick (needed to compute the lateness penalty) and
// the on-time verdict when available.
func (t *Truck) notifyBroker(env Env, msgType string, pkgIDs []shared.PackageID, onTime map[shared.PackageID]bool) {
	mb := env.Mailbox(t.id)
	if mb == nil {
		return
	}
	for _, pkgID := range pkgIDs {
		body := map[string]any{
			"package_id":    string(pkgID),
			"truck_id":      string(t.id),
			"delivery_tick": env.Tick(),
		}
		if onTime != nil {
			body["on_time"] = onTime[pkgID]
		}
		mb.Send(messaging.Msg{Src: t.id, Dst: env.BrokerID(), Type: msgType, Body: body})
	}
}

func removePackages(loaded, toRemove []shared.PackageID) []shared.PackageID {
	remove := make(map[shared.PackageID]bool, len(toRemove))
	for _, id := range toRemove {
		remove[id] = true
	}
	out := loaded[:0:0]
	for _, id := range loaded {
		if !remove[id] {
			out = append(out, id)
		}
	}
	return out
}

func stringBody(msg messaging.Msg, key string) string {
	v, _ := msg.Body[key].(string)
	return v
}

func intBody(msg messaging.Msg, key string) int {
	switch v := msg.Body[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func removeCompletedFront(queue []*DeliveryTask) []*DeliveryTask {
	out := queue[:0:0]
	for _, task := range queue {
		if task.Status != TaskCompleted {
			out = append(out, task)
		}
	}
	return out
}

// advanceAlongEdge moves the truck dtS seconds along its current edge at
// the slower of its own and the edge's speed limit, consuming fuel and
// emitting CO2 proportional to distance and load. A dry tank strands the
// truck in place.
func (t *Truck) advanceAlongEdge(env Env, dtS float64) {
	_, to, lengthM, ok := env.EdgeEndpoints(t.position.OnEdge)
	if !ok {
		t.setAtNode(t.routeStartNode)
		return
	}

	if t.currentFuelL <= 0 {
		if !t.outOfFuelReported {
			t.outOfFuelReported = true
			env.EmitEvent("out_of_fuel", map[string]any{
				"agent_id":        string(t.id),
				"edge":            string(t.position.OnEdge),
				"edge_progress_m": t.position.EdgeProgressM,
			})
		}
		return
	}

	speedKPH := t.maxSpeedKPH
	if edgeCap := env.EdgeMaxSpeedKPH(t.position.OnEdge); edgeCap > 0 && edgeCap < speedKPH {
		speedKPH = edgeCap
	}
	distanceM := speedKPH * (1000.0 / 3600.0) * dtS

	weightTonnes := env.LoadedWeightTonnes(t.loaded)
	litersPerKm := (baseFuelLPer100Km + fuelLPer100KmPerTonne*weightTonnes) / 100
	litersConsumed := (distanceM / 1000) * litersPerKm
	if litersConsumed > t.currentFuelL {
		litersConsumed = t.currentFuelL
		distanceM = (litersConsumed / litersPerKm) * 1000
	}
	t.currentFuelL -= litersConsumed
	t.co2EmittedKg += litersConsumed * kgCO2PerLiter
	t.drivingTimeS += dtS

	t.position.EdgeProgressM += distanceM
	if t.position.EdgeProgressM >= lengthM {
		t.arriveAt(env, to)
	}
}

// arriveAt teleports the truck onto the reached node, pops the route head
// if it matches, clears the destination when reached, and passes straight
// through onto the next edge when no stop is required here.
func (t *Truck) arriveAt(env Env, node shared.NodeID) {
	t.setAtNode(node)
	if len(t.route) > 0 && t.route[0] == node {
		t.route = t.route[1:]
	}
	if node == t.destination {
		t.destination = ""
		t.route = nil
		return
	}
	if task := t.currentTask(); task != nil && shared.NodeID(task.SiteID) == node {
		return
	}
	if len(t.route) > 0 {
		// Transit node: continue onto the next edge immediately.
		t.setOnEdge(graph.EdgeIDBetween(node, t.route[0]), 0)
	}
}
