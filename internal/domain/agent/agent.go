// Package agent declares the shared contract every world actor (Truck,
// Broker) implements, per the design notes' tagged-variant Agent shape:
// a common {perceive, decide, serialize_diff, serialize_full} interface
// implemented per variant instead of a class hierarchy.
package agent

import "github.com/logisim-sim/logisim/internal/domain/shared"

// WorldView is the narrow read surface agents need from the world during
// perceive/decide, kept separate from world.World itself to avoid an
// import cycle (world owns agents, agents must not own world).
type WorldView interface {
	Tick() int64
	DtSeconds() float64
}

// Agent is implemented by every world actor.
type Agent interface {
	ID() shared.AgentID
	Kind() string

	// Perceive lets the agent observe world state before any decide() runs
	// this tick.
	Perceive(world WorldView)

	// Decide runs the agent's per-tick behavior: processing inbound
	// messages, mutating its own state, and queuing outbound messages.
	Decide(world WorldView)

	// SerializeDiff returns a partial state map containing only the
	// "watch fields" that changed since the last tick, or nil if nothing
	// changed worth reporting.
	SerializeDiff() map[string]any

	// SerializeFull returns this agent's complete state, used for
	// state.full_agent_data snapshots and save-file export.
	SerializeFull() map[string]any
}
