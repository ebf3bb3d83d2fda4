package world

import (
	"github.com/logisim-sim/logisim/internal/domain/broker"
	"github.com/logisim-sim/logisim/internal/domain/freight"
	"github.com/logisim-sim/logisim/internal/domain/ledger"
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// AllTruckSnapshots implements broker.Env, building the read-only view the
// broker's candidate ranking needs without handing it the trucks themselves.
// A driving truck resolves to its current edge's to-node, so it stays a
// candidate mid-edge; only a truck with neither a node nor a known edge is
// reported as unplaced.
func (w *World) AllTruckSnapshots() []broker.TruckSnapshot {
	snaps := make([]broker.TruckSnapshot, 0, len(w.trucks))
	for _, id := range w.agentOrder {
		tr, ok := w.trucks[id]
		if !ok {
			continue
		}
		pos := tr.Position()
		node := pos.AtNode
		hasPosition := pos.IsAtNode()
		if !hasPosition {
			if edge := w.g.Edge(pos.OnEdge); edge != nil {
				node = edge.To
				hasPosition = true
			}
		}
		snaps = append(snaps, broker.TruckSnapshot{
			ID:          id,
			Node:        node,
			HasPosition: hasPosition,
			MaxSpeedKPH: tr.MaxSpeedKPH(),
			IsFueling:   tr.IsFueling(),
			IsResting:   tr.IsResting(),
		})
	}
	return snaps
}

// Package implements broker.Env.
func (w *World) Package(id shared.PackageID) *freight.Package { return w.packages[id] }

// WaitingPackageIDs implements broker.Env: every package still waiting for
// pickup, in spawn order.
func (w *World) WaitingPackageIDs() []shared.PackageID {
	var out []shared.PackageID
	for _, id := range w.packageOrder {
		if pkg, ok := w.packages[id]; ok && pkg.Status() == freight.StatusWaitingPickup {
			out = append(out, id)
		}
	}
	return out
}

// SiteNode implements broker.Env.
func (w *World) SiteNode(siteID shared.SiteID) (shared.NodeID, bool) {
	node, ok := w.siteNode[siteID]
	return node, ok
}

// RecordDeliveryPayment implements broker.Env. The broker has already
// credited payment to its own balance by the time this runs.
func (w *World) RecordDeliveryPayment(pkgID shared.PackageID, payment float64) {
	if payment == 0 {
		return
	}
	after := w.broker.BalanceDucats()
	_, _ = w.ledger.Record(
		w.brokerID, w.simTime(), ledger.TransactionTypeDeliveryPayment,
		payment, after-payment, after,
		"delivery payment", "package", string(pkgID),
	)
}

// RecordPickupExpiryFine implements broker.Env. The broker has already
// debited fine from its own balance by the time this runs.
func (w *World) RecordPickupExpiryFine(pkgID shared.PackageID, fine float64) {
	if fine == 0 {
		return
	}
	after := w.broker.BalanceDucats()
	_, _ = w.ledger.Record(
		w.brokerID, w.simTime(), ledger.TransactionTypePickupExpiryFine,
		-fine, after+fine, after,
		"pickup expiry fine", "package", string(pkgID),
	)
}
