// Package building implements the tagged-variant Building hierarchy:
// Parking, GasStation, and (in the site package) Site. Each variant is its
// own struct identified by a TypeTag discriminator; the world passes that
// tag when it attaches a building to a node, and it keys the graph's
// per-node typed building index.
package building

import (
	"fmt"

	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// TypeTag names a building variant's discriminator, used as the graph
// node's typed-index key and as the wire/save-file "type" field.
type TypeTag string

const (
	TypeParking    TypeTag = "parking"
	TypeGasStation TypeTag = "gas_station"
	TypeSite       TypeTag = "site"
)

// Occupiable is implemented by any building variant that holds agents.
type Occupiable interface {
	ID() shared.BuildingID
	Capacity() int
	Occupants() []shared.AgentID
	Enter(agent shared.AgentID) error
	Leave(agent shared.AgentID)
}

// Parking is a building where trucks park to rest or sit idle.
type Parking struct {
	id        shared.BuildingID
	capacity  int
	occupants []shared.AgentID
	dirty     bool
}

// NewParking creates a Parking lot with validation.
func NewParking(id shared.BuildingID, capacity int) (*Parking, error) {
	if capacity < 1 {
		return nil, shared.NewValidationError("capacity", "parking capacity must be >= 1")
	}
	return &Parking{id: id, capacity: capacity}, nil
}

func (p *Parking) ID() shared.BuildingID       { return p.id }
func (p *Parking) Capacity() int               { return p.capacity }
func (p *Parking) Occupants() []shared.AgentID { return p.occupants }
func (p *Parking) TypeTag() TypeTag            { return TypeParking }

// Enter adds an agent to the lot, failing if it is already at capacity.
func (p *Parking) Enter(agent shared.AgentID) error {
	if len(p.occupants) >= p.capacity {
		return shared.NewTruckError(fmt.Sprintf("parking %s is full", p.id))
	}
	p.occupants = append(p.occupants, agent)
	p.dirty = true
	return nil
}

// Leave removes an agent from the lot if present.
func (p *Parking) Leave(agent shared.AgentID) {
	for i, a := range p.occupants {
		if a == agent {
			p.occupants = append(p.occupants[:i], p.occupants[i+1:]...)
			p.dirty = true
			return
		}
	}
}

// ConsumeDirty reports whether this lot's observable state changed since
// the last collection pass, clearing the flag.
func (p *Parking) ConsumeDirty() bool {
	d := p.dirty
	p.dirty = false
	return d
}

// GasStation is a building where trucks refuel, priced off the world's
// global fuel price scaled by a per-station cost factor.
type GasStation struct {
	id         shared.BuildingID
	capacity   int
	occupants  []shared.AgentID
	costFactor float64
	revenue    float64
	dirty      bool
}

// NewGasStation creates a GasStation with validation.
func NewGasStation(id shared.BuildingID, capacity int, costFactor float64) (*GasStation, error) {
	if capacity < 1 {
		return nil, shared.NewValidationError("capacity", "gas station capacity must be >= 1")
	}
	if costFactor <= 0 {
		return nil, shared.NewValidationError("cost_factor", "cost factor must be > 0")
	}
	return &GasStation{id: id, capacity: capacity, costFactor: costFactor}, nil
}

func (g *GasStation) ID() shared.BuildingID       { return g.id }
func (g *GasStation) Capacity() int               { return g.capacity }
func (g *GasStation) Occupants() []shared.AgentID { return g.occupants }
func (g *GasStation) CostFactor() float64         { return g.costFactor }
func (g *GasStation) Revenue() float64            { return g.revenue }
func (g *GasStation) TypeTag() TypeTag             { return TypeGasStation }

// Enter adds an agent to the station's fueling bays.
func (g *GasStation) Enter(agent shared.AgentID) error {
	if len(g.occupants) >= g.capacity {
		return shared.NewTruckError(fmt.Sprintf("gas station %s is full", g.id))
	}
	g.occupants = append(g.occupants, agent)
	g.dirty = true
	return nil
}

// Leave removes an agent from the station.
func (g *GasStation) Leave(agent shared.AgentID) {
	for i, a := range g.occupants {
		if a == agent {
			g.occupants = append(g.occupants[:i], g.occupants[i+1:]...)
			g.dirty = true
			return
		}
	}
}

// ConsumeDirty reports whether this station's observable state changed
// since the last collection pass, clearing the flag.
func (g *GasStation) ConsumeDirty() bool {
	d := g.dirty
	g.dirty = false
	return d
}

// EffectivePrice returns the per-liter price at this station given the
// world's current global fuel price.
func (g *GasStation) EffectivePrice(globalFuelPrice float64) float64 {
	return globalFuelPrice * g.costFactor
}

// RestoreRevenue reinstates accumulated revenue from a save document.
func (g *GasStation) RestoreRevenue(revenue float64) {
	if revenue >= 0 {
		g.revenue = revenue
	}
}

// RecordSale adds a completed fueling transaction's proceeds to accumulated revenue.
func (g *GasStation) RecordSale(amount float64) {
	g.revenue += amount
	g.dirty = true
}
