// Package broker implements the singleton Broker agent: a serial
// negotiation protocol that matches one package to one truck at a time,
// candidate ranking by estimated travel time, and the assignment/finance
// bookkeeping around pickup and delivery.
package broker

import (
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// NegotiationStatus tracks the single active negotiation's lifecycle.
type NegotiationStatus string

const (
	NegotiationProposed NegotiationStatus = "PROPOSED"
	NegotiationAccepted NegotiationStatus = "ACCEPTED"
	NegotiationRejected NegotiationStatus = "REJECTED"
)

// Negotiation is the broker's single in-flight package/truck matching
// attempt. The broker never holds more than one at a time, which is what
// keeps truck acceptance race-free across ticks.
type Negotiation struct {
	PackageID         shared.PackageID
	Status            NegotiationStatus
	CandidateTrucks   []shared.AgentID
	CurrentTruckIdx   int
	ResponsesReceived int
	Probed            bool
}

// Broker is the singleton logistics coordinator.
type Broker struct {
	id shared.AgentID

	balanceDucats float64

	queue             []shared.PackageID
	known             map[shared.PackageID]bool
	activeNegotiation *Negotiation
	assignments       map[shared.PackageID]shared.AgentID

	events []Event

	lastWatch map[string]any
}

// Event is a domain event the broker emits for observers (metrics,
// transport snapshots) to consume; collected once per tick and drained by
// the world.
type Event struct {
	Name string
	Body map[string]any
}

const startingBalanceDucats = 10000.0

// New creates a Broker with the standard starting balance.
func New(id shared.AgentID) *Broker {
	return &Broker{
		id:            id,
		balanceDucats: startingBalanceDucats,
		known:         make(map[shared.PackageID]bool),
		assignments:   make(map[shared.PackageID]shared.AgentID),
	}
}

func (b *Broker) ID() shared.AgentID          { return b.id }
func (b *Broker) Kind() string                { return "broker" }
func (b *Broker) BalanceDucats() float64      { return b.balanceDucats }
func (b *Broker) QueueLength() int            { return len(b.queue) }
func (b *Broker) ActiveNegotiation() *Negotiation { return b.activeNegotiation }
func (b *Broker) AssignedTruck(pkg shared.PackageID) (shared.AgentID, bool) {
	truckID, ok := b.assignments[pkg]
	return truckID, ok
}

// Enqueue adds a package to the back of the negotiation queue and marks it
// known, so a later Perceive sweep does not enqueue it a second time.
func (b *Broker) Enqueue(pkg shared.PackageID) {
	if b.known[pkg] {
		return
	}
	b.known[pkg] = true
	b.queue = append(b.queue, pkg)
}

// Knows reports whether the broker has ever observed the given package.
func (b *Broker) Knows(pkg shared.PackageID) bool { return b.known[pkg] }

// QueueIDs returns the queued package ids in FIFO order.
func (b *Broker) QueueIDs() []shared.PackageID {
	return append([]shared.PackageID{}, b.queue...)
}

// Assignments returns a copy of the package -> truck assignment map.
func (b *Broker) Assignments() map[shared.PackageID]shared.AgentID {
	out := make(map[shared.PackageID]shared.AgentID, len(b.assignments))
	for pkg, truck := range b.assignments {
		out[pkg] = truck
	}
	return out
}

// KnownIDs returns every observed package id, unordered.
func (b *Broker) KnownIDs() []shared.PackageID {
	out := make([]shared.PackageID, 0, len(b.known))
	for pkg := range b.known {
		out = append(out, pkg)
	}
	return out
}

// DrainEvents returns and clears this tick's emitted events.
func (b *Broker) DrainEvents() []Event {
	events := b.events
	b.events = nil
	return events
}

func (b *Broker) emit(name string, body map[string]any) {
	b.events = append(b.events, Event{Name: name, Body: body})
}
