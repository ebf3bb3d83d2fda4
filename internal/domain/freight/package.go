// Package freight implements the Package entity: a value/deadline record
// tracking one shipment from spawn through pickup to delivery or expiry.
//
// Named "freight" rather than "package" because the latter reads terribly
// as a Go package name.
package freight

import (
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// Priority is a package's handling priority tier.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Urgency is a package's delivery-speed tier.
type Urgency string

const (
	UrgencyStandard Urgency = "STANDARD"
	UrgencyExpress  Urgency = "EXPRESS"
	UrgencySameDay  Urgency = "SAME_DAY"
)

// Status is a package's lifecycle status; transitions are monotonic:
// WAITING_PICKUP -> IN_TRANSIT -> DELIVERED, or WAITING_PICKUP -> EXPIRED.
type Status string

const (
	StatusWaitingPickup Status = "WAITING_PICKUP"
	StatusInTransit     Status = "IN_TRANSIT"
	StatusDelivered     Status = "DELIVERED"
	StatusExpired       Status = "EXPIRED"
)

// PriorityMultiplier returns the value multiplier for a priority tier.
func PriorityMultiplier(p Priority) float64 {
	switch p {
	case PriorityHigh:
		return 1.5
	case PriorityUrgent:
		return 2.0
	default:
		return 1.0
	}
}

// UrgencyMultiplier returns the value multiplier for an urgency tier.
func UrgencyMultiplier(u Urgency) float64 {
	switch u {
	case UrgencyExpress:
		return 1.3
	case UrgencySameDay:
		return 1.8
	default:
		return 1.0
	}
}

// Package is a single shipment between two sites.
type Package struct {
	id     shared.PackageID
	origin shared.SiteID
	dest   shared.SiteID

	size  int
	value float64

	priority Priority
	urgency  Urgency

	spawnTick            int64
	pickupDeadlineTick   int64
	deliveryDeadlineTick int64

	status Status
}

// New creates a Package, enforcing size in [1,30], positive value, and a
// delivery deadline strictly after the pickup deadline.
func New(
	id shared.PackageID,
	origin, dest shared.SiteID,
	size int,
	value float64,
	priority Priority,
	urgency Urgency,
	spawnTick, pickupDeadlineTick, deliveryDeadlineTick int64,
) (*Package, error) {
	if size < 1 || size > 30 {
		return nil, shared.NewValidationError("size", "must be in [1,30]")
	}
	if value <= 0 {
		return nil, shared.NewValidationError("value", "must be > 0")
	}
	if deliveryDeadlineTick <= pickupDeadlineTick {
		return nil, shared.NewValidationError("delivery_deadline_tick", "must be after pickup_deadline_tick")
	}

	return &Package{
		id:                   id,
		origin:               origin,
		dest:                 dest,
		size:                 size,
		value:                value,
		priority:             priority,
		urgency:              urgency,
		spawnTick:            spawnTick,
		pickupDeadlineTick:   pickupDeadlineTick,
		deliveryDeadlineTick: deliveryDeadlineTick,
		status:               StatusWaitingPickup,
	}, nil
}

// Reconstruct rebuilds a package from persistence, bypassing the
// constructor's invariants and the monotonic status transitions; used only
// by the save-file restore path on a document it already trusts.
func Reconstruct(
	id shared.PackageID,
	origin, dest shared.SiteID,
	size int,
	value float64,
	priority Priority,
	urgency Urgency,
	spawnTick, pickupDeadlineTick, deliveryDeadlineTick int64,
	status Status,
) *Package {
	return &Package{
		id:                   id,
		origin:               origin,
		dest:                 dest,
		size:                 size,
		value:                value,
		priority:             priority,
		urgency:              urgency,
		spawnTick:            spawnTick,
		pickupDeadlineTick:   pickupDeadlineTick,
		deliveryDeadlineTick: deliveryDeadlineTick,
		status:               status,
	}
}

func (p *Package) ID() shared.PackageID        { return p.id }
func (p *Package) Origin() shared.SiteID       { return p.origin }
func (p *Package) Destination() shared.SiteID  { return p.dest }
func (p *Package) Size() int                   { return p.size }
func (p *Package) Value() float64              { return p.value }
func (p *Package) Priority() Priority          { return p.priority }
func (p *Package) Urgency() Urgency            { return p.urgency }
func (p *Package) SpawnTick() int64            { return p.spawnTick }
func (p *Package) PickupDeadlineTick() int64   { return p.pickupDeadlineTick }
func (p *Package) DeliveryDeadlineTick() int64 { return p.deliveryDeadlineTick }
func (p *Package) Status() Status              { return p.status }

// MarkInTransit transitions WAITING_PICKUP -> IN_TRANSIT.
func (p *Package) MarkInTransit() error {
	if p.status != StatusWaitingPickup {
		return shared.NewDomainError("package must be WAITING_PICKUP to transition to IN_TRANSIT")
	}
	p.status = StatusInTransit
	return nil
}

// MarkDelivered transitions IN_TRANSIT -> DELIVERED.
func (p *Package) MarkDelivered() error {
	if p.status != StatusInTransit {
		return shared.NewDomainError("package must be IN_TRANSIT to transition to DELIVERED")
	}
	p.status = StatusDelivered
	return nil
}

// MarkExpired transitions WAITING_PICKUP -> EXPIRED.
func (p *Package) MarkExpired() error {
	if p.status != StatusWaitingPickup {
		return shared.NewDomainError("package must be WAITING_PICKUP to transition to EXPIRED")
	}
	p.status = StatusExpired
	return nil
}

// IsPastPickupDeadline reports whether the given tick has passed the
// pickup deadline while the package is still waiting.
func (p *Package) IsPastPickupDeadline(tick int64) bool {
	return p.status == StatusWaitingPickup && tick > p.pickupDeadlineTick
}

// DeliveryPayment computes the broker's payment for delivering at
// deliveryTick: full value if on time, else value reduced 0.1% per tick late.
func (p *Package) DeliveryPayment(deliveryTick int64) float64 {
	lateTicks := deliveryTick - p.deliveryDeadlineTick
	if lateTicks < 0 {
		lateTicks = 0
	}
	factor := 1 - 0.001*float64(lateTicks)
	if factor < 0 {
		factor = 0
	}
	return p.value * factor
}

// IsOnTime reports whether a delivery at deliveryTick meets the deadline.
func (p *Package) IsOnTime(deliveryTick int64) bool {
	return deliveryTick <= p.deliveryDeadlineTick
}

// ExpiryFine is the broker's fine for letting a package's pickup deadline lapse.
func (p *Package) ExpiryFine() float64 {
	return 0.5 * p.value
}

// WeightTonnes is the rough cargo weight contributed by this package at
// 0.1 t per size unit. The world's LoadedWeightTonnes sums it for the fuel
// consumption formula; the truck's proposal and handling-time math use the
// truck package's own constant of the same value.
func (p *Package) WeightTonnes() float64 {
	return float64(p.size) * 0.1
}
