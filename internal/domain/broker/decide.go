package broker

import (
	"math"
	"sort"

	"github.com/logisim-sim/logisim/internal/domain/agent"
	"github.com/logisim-sim/logisim/internal/domain/freight"
	"github.com/logisim-sim/logisim/internal/domain/messaging"
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// Perceive scans the world for packages still waiting for pickup that the
// broker has never observed, enqueuing each exactly once.
func (b *Broker) Perceive(world agent.WorldView) {
	env, ok := world.(Env)
	if !ok {
		return
	}
	for _, pkgID := range env.WaitingPackageIDs() {
		b.Enqueue(pkgID)
	}
}

// Decide runs the single-negotiation-at-a-time protocol for one tick:
// drain inbox, settle expiries, finalize an accepted negotiation, requeue
// an exhausted one, probe the next candidate, or (if idle) start a new
// negotiation from the queue.
func (b *Broker) Decide(world agent.WorldView) {
	env, ok := world.(Env)
	if !ok {
		return
	}

	b.drainInbox(env)
	b.checkExpiries(env)

	if b.activeNegotiation != nil && b.activeNegotiation.Status == NegotiationAccepted {
		b.finalizeNegotiation(env)
		return
	}

	if b.activeNegotiation != nil && b.activeNegotiation.CurrentTruckIdx >= len(b.activeNegotiation.CandidateTrucks) {
		b.requeueExhausted(env)
		return
	}

	if b.activeNegotiation != nil && !b.activeNegotiation.Probed {
		b.sendProposal(env)
		return
	}

	if b.activeNegotiation == nil && len(b.queue) > 0 {
		b.startNextNegotiation(env)
	}
}

func (b *Broker) drainInbox(env Env) {
	mb := env.Mailbox(b.id)
	if mb == nil {
		return
	}
	for _, msg := range mb.DrainInbox() {
		switch msg.Type {
		case "accept":
			b.handleAccept(msg)
		case "reject":
			b.handleReject(msg)
		case "delivery_confirmed":
			b.handleDeliveryConfirmed(env, msg)
		case "pickup_confirmed":
			b.handlePickupConfirmed(env, msg)
		}
	}
}

func (b *Broker) handleAccept(msg messaging.Msg) {
	if b.activeNegotiation == nil {
		return
	}
	if b.activeNegotiation.CurrentTruckIdx >= len(b.activeNegotiation.CandidateTrucks) {
		return
	}
	if b.activeNegotiation.CandidateTrucks[b.activeNegotiation.CurrentTruckIdx] != msg.Src {
		return
	}
	b.activeNegotiation.Status = NegotiationAccepted
	b.activeNegotiation.ResponsesReceived++
}

func (b *Broker) handleReject(msg messaging.Msg) {
	if b.activeNegotiation == nil {
		return
	}
	if b.activeNegotiation.CurrentTruckIdx >= len(b.activeNegotiation.CandidateTrucks) {
		return
	}
	if b.activeNegotiation.CandidateTrucks[b.activeNegotiation.CurrentTruckIdx] != msg.Src {
		return
	}
	b.activeNegotiation.ResponsesReceived++
	b.activeNegotiation.CurrentTruckIdx++
	b.activeNegotiation.Probed = false
}

// handleDeliveryConfirmed credits the broker's balance for a completed
// delivery, lateness penalty applied, and clears the assignment.
func (b *Broker) handleDeliveryConfirmed(env Env, msg messaging.Msg) {
	pkgID := shared.PackageID(stringBody(msg, "package_id"))
	deliveryTick := int64(intBody(msg, "delivery_tick"))

	pkg := env.Package(pkgID)
	if pkg == nil {
		return
	}
	payment := pkg.DeliveryPayment(deliveryTick)
	if pkg.Status() == freight.StatusInTransit {
		_ = pkg.MarkDelivered()
	}
	b.balanceDucats += payment
	delete(b.assignments, pkgID)
	delete(b.known, pkgID)
	env.RecordDeliveryPayment(pkgID, payment)
	b.emit("delivery_settled", map[string]any{
		"package_id": string(pkgID),
		"payment":    payment,
	})
}

// handlePickupConfirmed just emits a tracking event; money only moves on
// delivery or expiry.
func (b *Broker) handlePickupConfirmed(env Env, msg messaging.Msg) {
	b.emit("pickup_confirmed", map[string]any{
		"package_id": stringBody(msg, "package_id"),
		"truck_id":   stringBody(msg, "truck_id"),
	})
}

func (b *Broker) finalizeNegotiation(env Env) {
	neg := b.activeNegotiation
	truckID := neg.CandidateTrucks[neg.CurrentTruckIdx]
	b.assignments[neg.PackageID] = truckID

	mb := env.Mailbox(b.id)
	if mb != nil {
		mb.Send(messaging.Msg{
			Src:  b.id,
			Dst:  truckID,
			Type: "assignment_confirmed",
			Body: map[string]any{"package_id": string(neg.PackageID)},
		})
	}
	b.emit("assignment_confirmed", map[string]any{
		"package_id": string(neg.PackageID),
		"truck_id":   string(truckID),
	})
	b.activeNegotiation = nil
}

func (b *Broker) requeueExhausted(env Env) {
	b.queue = append(b.queue, b.activeNegotiation.PackageID)
	b.emit("negotiation_requeued", map[string]any{"package_id": string(b.activeNegotiation.PackageID)})
	b.activeNegotiation = nil
}

func (b *Broker) sendProposal(env Env) {
	neg := b.activeNegotiation
	truckID := neg.CandidateTrucks[neg.CurrentTruckIdx]
	if env.Mailbox(truckID) == nil {
		neg.CurrentTruckIdx++
		neg.Probed = false
		return
	}
	mb := env.Mailbox(b.id)
	if mb == nil {
		return
	}
	pkg := env.Package(neg.PackageID)
	if pkg == nil {
		b.activeNegotiation = nil
		return
	}
	originNode, _ := env.SiteNode(pkg.Origin())
	destNode, _ := env.SiteNode(pkg.Destination())
	mb.Send(messaging.Msg{
		Src:  b.id,
		Dst:  truckID,
		Type: "proposal",
		Body: map[string]any{
			"package_id":           string(neg.PackageID),
			"origin_site":          string(pkg.Origin()),
			"destination_site":     string(pkg.Destination()),
			"origin_node":          string(originNode),
			"destination_node":     string(destNode),
			"size":                 pkg.Size(),
			"pickup_deadline_tick": pkg.PickupDeadlineTick(),
			"delivery_deadline_tick": pkg.DeliveryDeadlineTick(),
		},
	})
	neg.Probed = true
}

// startNextNegotiation pops packages off the queue, skipping stale ones
// (already resolved elsewhere), until it finds one with at least one
// eligible candidate truck or the queue has been fully rotated once.
func (b *Broker) startNextNegotiation(env Env) {
	rotations := len(b.queue)
	for i := 0; i < rotations; i++ {
		pkgID := b.queue[0]
		b.queue = b.queue[1:]

		pkg := env.Package(pkgID)
		if pkg == nil || pkg.Status() != freight.StatusWaitingPickup {
			continue
		}

		candidates := b.rankCandidates(env, pkg)
		if len(candidates) == 0 {
			b.queue = append(b.queue, pkgID)
			continue
		}

		b.activeNegotiation = &Negotiation{
			PackageID:       pkgID,
			Status:          NegotiationProposed,
			CandidateTrucks: candidates,
		}
		b.sendProposal(env)
		return
	}
}

// rankCandidates excludes trucks currently fueling, resting, or without a
// known position, then sorts the rest by estimated travel time from the
// truck's node to the package's origin node, ascending. Trucks mid-load
// are deliberately still considered: loading finishes on a bounded clock,
// so they remain viable bidders.
func (b *Broker) rankCandidates(env Env, pkg *freight.Package) []shared.AgentID {
	originNode, ok := env.SiteNode(pkg.Origin())
	if !ok {
		return nil
	}

	type ranked struct {
		id  shared.AgentID
		eta float64
	}
	var candidates []ranked
	for _, snap := range env.AllTruckSnapshots() {
		if snap.IsFueling || snap.IsResting || !snap.HasPosition {
			continue
		}
		eta := env.Navigator().EstimateTravelTimeHours(snap.Node, originNode, snap.MaxSpeedKPH)
		if math.IsInf(eta, 1) {
			continue
		}
		candidates = append(candidates, ranked{id: snap.ID, eta: eta})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].eta < candidates[j].eta })

	ids := make([]shared.AgentID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.id)
	}
	return ids
}

// checkExpiries debits the pickup-expiry fine for any queued or assigned
// package whose pickup deadline has lapsed, dropping it from the queue,
// known set, and assignments alike.
func (b *Broker) checkExpiries(env Env) {
	tick := env.Tick()
	remaining := b.queue[:0:0]
	for _, pkgID := range b.queue {
		if b.fineIfExpired(env, pkgID, tick) {
			continue
		}
		remaining = append(remaining, pkgID)
	}
	b.queue = remaining

	for pkgID := range b.assignments {
		if b.fineIfExpired(env, pkgID, tick) {
			delete(b.assignments, pkgID)
		}
	}
}

// fineIfExpired debits and emits a pickup-expiry fine for pkgID if its
// pickup deadline has lapsed unfulfilled, returning whether it did. The
// package may already carry EXPIRED status (the owning site marks it
// during the spawn/expiry phase, which runs earlier in the same tick) or
// may still be WAITING when it was assigned but never collected.
func (b *Broker) fineIfExpired(env Env, pkgID shared.PackageID, tick int64) bool {
	pkg := env.Package(pkgID)
	if pkg == nil {
		return true
	}
	expired := pkg.Status() == freight.StatusExpired || pkg.IsPastPickupDeadline(tick)
	if !expired {
		return false
	}
	fine := pkg.ExpiryFine()
	b.balanceDucats -= fine
	if pkg.Status() == freight.StatusWaitingPickup {
		_ = pkg.MarkExpired()
	}
	delete(b.known, pkgID)
	env.RecordPickupExpiryFine(pkgID, fine)
	b.emit("pickup_expiry_fine", map[string]any{
		"package_id": string(pkgID),
		"fine":       fine,
	})
	return true
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
