// Package world implements World, the tick-driven aggregate root that owns
// the graph, every agent, every building, and the package/ledger state
// shared between them, and drives one tick at a time through a strict
// phase order (fuel price, perceive, deliver, spawn/expire, decide,
// collect diffs, collect building updates, drain events).
package world

import (
	"math"
	"time"

	"github.com/logisim-sim/logisim/internal/domain/agent"
	"github.com/logisim-sim/logisim/internal/domain/broker"
	"github.com/logisim-sim/logisim/internal/domain/building"
	"github.com/logisim-sim/logisim/internal/domain/freight"
	"github.com/logisim-sim/logisim/internal/domain/graph"
	"github.com/logisim-sim/logisim/internal/domain/ledger"
	"github.com/logisim-sim/logisim/internal/domain/messaging"
	"github.com/logisim-sim/logisim/internal/domain/routing"
	"github.com/logisim-sim/logisim/internal/domain/shared"
	"github.com/logisim-sim/logisim/internal/domain/site"
	"github.com/logisim-sim/logisim/internal/domain/truck"
)

// The simulated wall clock starts at noon on day one.
const clockOffsetS = 43200.0

// Config controls the tick cadence and the fuel price's bounded random walk.
type Config struct {
	DtSeconds           float64
	Seed                int64
	InitialFuelPrice    float64
	FuelPriceMin        float64
	FuelPriceMax        float64
	FuelPriceVolatility float64 // max fractional change per daily step
	Clock               shared.Clock
}

// DefaultConfig returns the stock world parameters.
func DefaultConfig() Config {
	return Config{
		DtSeconds:           60,
		Seed:                1,
		InitialFuelPrice:    1.5,
		FuelPriceMin:        0.8,
		FuelPriceMax:        3.0,
		FuelPriceVolatility: 0.10,
	}
}

// World is the simulation's aggregate root. It implements agent.WorldView,
// truck.Env, and broker.Env, and is the only type that may mutate the graph,
// the ledger, or any agent's or building's state outside of Step.
type World struct {
	g   *graph.Graph
	nav *routing.Navigator
	bus *messaging.Bus

	broker   *broker.Broker
	brokerID shared.AgentID
	trucks   map[shared.AgentID]*truck.Truck

	agentOrder []shared.AgentID

	gasStations  map[shared.BuildingID]*building.GasStation
	parkings     map[shared.BuildingID]*building.Parking
	sites        map[shared.SiteID]*site.Site
	siteNode     map[shared.SiteID]shared.NodeID
	buildingNode map[shared.BuildingID]shared.NodeID

	packages       map[shared.PackageID]*freight.Package
	packageOrder   []shared.PackageID
	nextPackageSeq int64

	ledger *ledger.Ledger

	rng                 *shared.SeededRand
	tick                int64
	dtSeconds           float64
	fuelPrice           float64
	fuelPriceMin        float64
	fuelPriceMax        float64
	fuelPriceVolatility float64
	lastFuelPriceDay    int

	pendingEvents []Event

	runState     *shared.RunStateMachine
	clock        shared.Clock
	simStartTime time.Time
}

// New creates a World over an already-built graph (from a map generator or
// an import action). The graph is never mutated once trucks start moving
// over it except to attach buildings created by later AddSite/AddGasStation/
// AddParking calls.
func New(g *graph.Graph, cfg Config) *World {
	if cfg.Clock == nil {
		cfg.Clock = shared.NewRealClock()
	}
	if cfg.DtSeconds <= 0 {
		cfg.DtSeconds = DefaultConfig().DtSeconds
	}
	return &World{
		g:   g,
		nav: routing.New(g),
		bus: messaging.New(),

		trucks: make(map[shared.AgentID]*truck.Truck),

		gasStations:  make(map[shared.BuildingID]*building.GasStation),
		parkings:     make(map[shared.BuildingID]*building.Parking),
		sites:        make(map[shared.SiteID]*site.Site),
		siteNode:     make(map[shared.SiteID]shared.NodeID),
		buildingNode: make(map[shared.BuildingID]shared.NodeID),

		packages: make(map[shared.PackageID]*freight.Package),
		ledger:   ledger.New(),

		rng:                 shared.NewSeededRand(cfg.Seed),
		dtSeconds:           cfg.DtSeconds,
		fuelPrice:           cfg.InitialFuelPrice,
		fuelPriceMin:        cfg.FuelPriceMin,
		fuelPriceMax:        cfg.FuelPriceMax,
		fuelPriceVolatility: cfg.FuelPriceVolatility,
		lastFuelPriceDay:    1,

		runState:     shared.NewRunStateMachine(cfg.Clock),
		clock:        cfg.Clock,
		simStartTime: cfg.Clock.Now(),
	}
}

// Tick implements agent.WorldView.
func (w *World) Tick() int64 { return w.tick }

// DtSeconds implements agent.WorldView.
func (w *World) DtSeconds() float64 { return w.dtSeconds }

// NowSeconds returns the simulated seconds elapsed since tick zero.
func (w *World) NowSeconds() float64 { return float64(w.tick) * w.dtSeconds }

// Day returns the simulated calendar day, starting at 1. Tick zero falls
// at noon on day one, so the first rollover comes after twelve simulated
// hours.
func (w *World) Day() int {
	return 1 + int(math.Floor((clockOffsetS+w.NowSeconds())/86400.0))
}

// TimeOfDayHours returns the simulated time of day in [0,24).
func (w *World) TimeOfDayHours() float64 {
	return math.Mod(clockOffsetS+w.NowSeconds(), 86400.0) / 3600.0
}

// RandFloat64 implements truck.Env, exposing the world-owned RNG.
func (w *World) RandFloat64() float64 { return w.rng.Float64() }

// EmitEvent implements truck.Env: appends to the per-tick event buffer.
func (w *World) EmitEvent(name string, body map[string]any) {
	w.pendingEvents = append(w.pendingEvents, Event{Name: name, Body: body})
}

// simTime returns the in-simulation wall-clock timestamp for the current
// tick, used as every ledger entry's timestamp so replaying a save file at a
// different real time never changes recorded history.
func (w *World) simTime() time.Time {
	return w.simStartTime.Add(time.Duration(float64(w.tick) * w.dtSeconds * float64(time.Second)))
}

func (w *World) agentByID(id shared.AgentID) agent.Agent {
	if w.broker != nil && id == w.brokerID {
		return w.broker
	}
	if tr, ok := w.trucks[id]; ok {
		return tr
	}
	return nil
}
