package world

import (
	"fmt"
	"sort"

	"github.com/logisim-sim/logisim/internal/domain/freight"
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// Event is a single notable occurrence this tick, surfaced to transport
// clients as an event.created signal.
type Event struct {
	Name string
	Body map[string]any
}

// TickData is the simulated-clock triple attached to every tick's signal
// bundle: the tick number, the time of day in hours, and the calendar day.
type TickData struct {
	Tick int64
	Time float64
	Day  int
}

// TickResult is everything a transport adapter needs to build one tick's
// signal bundle: the clock triple, every agent's state diff, every building
// whose occupancy/revenue changed, and the tick's events.
type TickResult struct {
	TickData        TickData
	FuelPrice       float64
	AgentDiffs      map[string]map[string]any
	BuildingUpdates map[string]map[string]any
	Events          []Event
}

// Step advances the simulation by exactly one tick: tick increment, fuel
// price update on day rollover, perceive, message delivery (the one-tick
// visibility delay), site spawn/expiry, decide, then the collection passes
// that build this tick's signal bundle.
func (w *World) Step() TickResult {
	w.tick++
	w.updateFuelPrice()

	for _, id := range w.agentOrder {
		if ag := w.agentByID(id); ag != nil {
			ag.Perceive(w)
		}
	}

	w.bus.DeliverAll(w.agentOrder)

	w.spawnPackages()
	w.expirePackages()

	for _, id := range w.agentOrder {
		if ag := w.agentByID(id); ag != nil {
			ag.Decide(w)
		}
	}

	if w.broker != nil {
		for _, e := range w.broker.DrainEvents() {
			w.pendingEvents = append(w.pendingEvents, Event{Name: e.Name, Body: e.Body})
		}
	}

	events := w.pendingEvents
	w.pendingEvents = nil

	return TickResult{
		TickData:        TickData{Tick: w.tick, Time: w.TimeOfDayHours(), Day: w.Day()},
		FuelPrice:       w.fuelPrice,
		AgentDiffs:      w.collectDiffs(),
		BuildingUpdates: w.collectBuildingUpdates(),
		Events:          events,
	}
}

// updateFuelPrice applies one step of a bounded multiplicative random walk,
// at most once per simulated day.
func (w *World) updateFuelPrice() {
	day := w.Day()
	if day == w.lastFuelPriceDay || w.fuelPriceVolatility <= 0 {
		return
	}
	w.lastFuelPriceDay = day
	delta := (w.rng.Float64()*2 - 1) * w.fuelPriceVolatility
	w.fuelPrice *= 1 + delta
	if w.fuelPrice < w.fuelPriceMin {
		w.fuelPrice = w.fuelPriceMin
	}
	if w.fuelPrice > w.fuelPriceMax {
		w.fuelPrice = w.fuelPriceMax
	}
	w.EmitEvent("fuel_price_updated", map[string]any{"price": w.fuelPrice, "day": day})
}

// orderedSiteIDs returns every site id in a stable (lexical) order so spawn
// attempts and RNG draws never depend on Go's randomized map iteration.
func (w *World) orderedSiteIDs() []shared.SiteID {
	ids := make([]shared.SiteID, 0, len(w.sites))
	for id := range w.sites {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// spawnPackages runs each site's Poisson-thinning spawn check in turn,
// attaching any new package to its origin site's active list. The broker
// observes it on its next Perceive sweep.
func (w *World) spawnPackages() {
	siteIDs := w.orderedSiteIDs()

	for _, originID := range siteIDs {
		s := w.sites[originID]
		if !s.ShouldSpawnPackage(w.dtSeconds, w.rng) {
			continue
		}

		available := make([]shared.SiteID, 0, len(siteIDs)-1)
		for _, id := range siteIDs {
			if id != originID {
				available = append(available, id)
			}
		}
		destID, ok := s.SelectDestination(available, w.rng)
		if !ok {
			continue
		}

		params := s.GenerateParameters(w.rng)
		w.nextPackageSeq++
		pkgID := shared.PackageID(fmt.Sprintf("pkg-%d", w.nextPackageSeq))
		pickupDeadline := w.tick + params.PickupDeadlineTick
		deliveryDeadline := w.tick + params.DeliveryDeadlineTick

		pkg, err := freight.New(pkgID, originID, destID, params.Size, params.Value, params.Priority, params.Urgency, w.tick, pickupDeadline, deliveryDeadline)
		if err != nil {
			continue
		}

		w.AttachPackage(pkg)
		s.RecordGenerated()

		w.EmitEvent("package_spawned", map[string]any{
			"package_id":  string(pkgID),
			"origin":      string(originID),
			"destination": string(destID),
			"size":        params.Size,
			"value":       params.Value,
			"priority":    string(params.Priority),
			"urgency":     string(params.Urgency),
		})
	}
}

// AttachPackage registers an externally constructed package with the world
// and, while it still awaits pickup, with its origin site; also the
// injection point for scripted scenarios and save-file restore.
func (w *World) AttachPackage(pkg *freight.Package) {
	w.packages[pkg.ID()] = pkg
	w.packageOrder = append(w.packageOrder, pkg.ID())
	if pkg.Status() != freight.StatusWaitingPickup {
		return
	}
	if s, ok := w.sites[pkg.Origin()]; ok {
		s.AddPackage(pkg.ID())
	}
}

// expirePackages lets each site expire the waiting packages it still owns
// whose pickup deadline has lapsed. The broker settles the fine for its
// side of the books during its own decide phase.
func (w *World) expirePackages() {
	for _, siteID := range w.orderedSiteIDs() {
		s := w.sites[siteID]
		for _, pkgID := range append([]shared.PackageID{}, s.ActivePackages()...) {
			pkg, ok := w.packages[pkgID]
			if !ok || !pkg.IsPastPickupDeadline(w.tick) {
				continue
			}
			_ = pkg.MarkExpired()
			s.RemovePackage(pkgID)
			s.RecordExpired(pkg.Value())
			w.EmitEvent("package_expired", map[string]any{
				"package_id": string(pkgID),
				"origin":     string(siteID),
				"value":      pkg.Value(),
			})
		}
	}
}

func (w *World) collectDiffs() map[string]map[string]any {
	out := make(map[string]map[string]any, len(w.agentOrder))
	for _, id := range w.agentOrder {
		ag := w.agentByID(id)
		if ag == nil {
			continue
		}
		if diff := ag.SerializeDiff(); diff != nil {
			out[string(id)] = diff
		}
	}
	return out
}

// collectBuildingUpdates reports occupancy for every parking lot and gas
// station whose dirty flag was set since the last call, plus accumulated
// revenue for such gas stations, so transport clients can render building
// state without polling SerializeFull.
func (w *World) collectBuildingUpdates() map[string]map[string]any {
	out := make(map[string]map[string]any, len(w.gasStations)+len(w.parkings))
	for id, gs := range w.gasStations {
		if !gs.ConsumeDirty() {
			continue
		}
		out[string(id)] = map[string]any{
			"type":      "gas_station",
			"occupancy": len(gs.Occupants()),
			"capacity":  gs.Capacity(),
			"revenue":   gs.Revenue(),
		}
	}
	for id, p := range w.parkings {
		if !p.ConsumeDirty() {
			continue
		}
		out[string(id)] = map[string]any{
			"type":      "parking",
			"occupancy": len(p.Occupants()),
			"capacity":  p.Capacity(),
		}
	}
	return out
}
