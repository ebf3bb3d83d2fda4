package broker

import (
	"github.com/logisim-sim/logisim/internal/domain/agent"
	"github.com/logisim-sim/logisim/internal/domain/freight"
	"github.com/logisim-sim/logisim/internal/domain/messaging"
	"github.com/logisim-sim/logisim/internal/domain/routing"
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// TruckSnapshot is the minimal truck state the broker's candidate ranking
// and exclusion rules need; it never mutates a truck directly.
type TruckSnapshot struct {
	ID          shared.AgentID
	Node        shared.NodeID
	HasPosition bool
	MaxSpeedKPH float64
	IsFueling   bool
	IsResting   bool
}

// Env is the narrow world surface the Broker needs during Decide.
type Env interface {
	agent.WorldView

	Navigator() *routing.Navigator
	AllTruckSnapshots() []TruckSnapshot
	Package(id shared.PackageID) *freight.Package
	// WaitingPackageIDs returns every WAITING_PICKUP package id in a stable
	// order, the broker's perception surface.
	WaitingPackageIDs() []shared.PackageID
	SiteNode(site shared.SiteID) (shared.NodeID, bool)
	Mailbox(id shared.AgentID) *messaging.Mailbox

	// RecordDeliveryPayment appends a ledger entry for a completed delivery's payout.
	RecordDeliveryPayment(pkgID shared.PackageID, payment float64)
	// RecordPickupExpiryFine appends a ledger entry for a lapsed pickup deadline.
	RecordPickupExpiryFine(pkgID shared.PackageID, fine float64)
}
