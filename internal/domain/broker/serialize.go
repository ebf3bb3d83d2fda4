package broker

import (
	"reflect"
	"sort"

	"github.com/logisim-sim/logisim/internal/domain/shared"
)

func (b *Broker) watchFields() map[string]any {
	fields := map[string]any{
		"id":             string(b.id),
		"balance_ducats": b.balanceDucats,
		"queue_length":   len(b.queue),
	}
	if b.activeNegotiation != nil {
		fields["active_negotiation"] = map[string]any{
			"package_id":        string(b.activeNegotiation.PackageID),
			"status":            string(b.activeNegotiation.Status),
			"current_truck_idx": b.activeNegotiation.CurrentTruckIdx,
		}
	}
	return fields
}

// SerializeDiff reports the broker's watch fields (balance, queue depth,
// active negotiation) when any of them changed since the previous call.
func (b *Broker) SerializeDiff() map[string]any {
	current := b.watchFields()
	if b.lastWatch != nil && reflect.DeepEqual(current, b.lastWatch) {
		return nil
	}
	b.lastWatch = current
	return current
}

// SerializeFull returns the broker's complete persisted state.
func (b *Broker) SerializeFull() map[string]any {
	full := b.watchFields()
	full["kind"] = b.Kind()

	queue := make([]string, 0, len(b.queue))
	for _, id := range b.queue {
		queue = append(queue, string(id))
	}
	full["queue"] = queue

	known := make([]string, 0, len(b.known))
	for id := range b.known {
		known = append(known, string(id))
	}
	sort.Strings(known)
	full["known_packages"] = known

	assignments := make(map[string]string, len(b.assignments))
	for pkg, truck := range b.assignments {
		assignments[string(pkg)] = string(truck)
	}
	full["assignments"] = assignments
	return full
}

// Snapshot carries the broker state a save-file restore reinstates.
type Snapshot struct {
	BalanceDucats float64
	Queue         []string
	Known         []string
	Assignments   map[string]string
}

// Restore reinstates a previously serialized broker state. Any in-flight
// negotiation is dropped: the affected package is still queued or assigned,
// so the protocol simply restarts it.
func (b *Broker) Restore(s Snapshot) {
	b.balanceDucats = s.BalanceDucats
	b.queue = b.queue[:0]
	b.known = make(map[shared.PackageID]bool, len(s.Known))
	for _, id := range s.Known {
		b.known[shared.PackageID(id)] = true
	}
	for _, id := range s.Queue {
		b.queue = append(b.queue, shared.PackageID(id))
		b.known[shared.PackageID(id)] = true
	}
	b.assignments = make(map[shared.PackageID]shared.AgentID, len(s.Assignments))
	for pkg, truck := range s.Assignments {
		b.assignments[shared.PackageID(pkg)] = shared.AgentID(truck)
		b.known[shared.PackageID(pkg)] = true
	}
	b.activeNegotiation = nil
	b.lastWatch = nil
}
