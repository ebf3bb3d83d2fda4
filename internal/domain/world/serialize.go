package world

// BuildingRecords returns one discriminated record per building (parking,
// gas station, site), keyed by building id: the graph portion of the
// save-file format and the map export payload.
func (w *World) BuildingRecords() map[string]map[string]any {
	out := make(map[string]map[string]any, len(w.gasStations)+len(w.parkings)+len(w.sites))
	for id, gs := range w.gasStations {
		out[string(id)] = map[string]any{
			"type":        "gas_station",
			"node":        string(w.buildingNode[id]),
			"capacity":    gs.Capacity(),
			"cost_factor": gs.CostFactor(),
			"revenue":     gs.Revenue(),
		}
	}
	for id, p := range w.parkings {
		out[string(id)] = map[string]any{
			"type":     "parking",
			"node":     string(w.buildingNode[id]),
			"capacity": p.Capacity(),
		}
	}
	for siteID, s := range w.sites {
		weights := make(map[string]float64, len(s.DestinationWeights()))
		for dst, wgt := range s.DestinationWeights() {
			weights[string(dst)] = wgt
		}
		out[string(s.ID())] = map[string]any{
			"type":                "site",
			"node":                string(w.siteNode[siteID]),
			"name":                s.Name(),
			"activity_rate":       s.ActivityRate(),
			"destination_weights": weights,
		}
	}
	return out
}

// SerializeFull returns the simulation's complete state, the shape used for
// both the state.full_agent_data response and the save-file format: every
// agent's full state, every package's record regardless of lifecycle stage,
// and every site's lifetime statistics.
func (w *World) SerializeFull() map[string]any {
	agents := make(map[string]any, len(w.agentOrder))
	for _, id := range w.agentOrder {
		if ag := w.agentByID(id); ag != nil {
			agents[string(id)] = ag.SerializeFull()
		}
	}

	packages := make(map[string]any, len(w.packages))
	for _, id := range w.packageOrder {
		p, ok := w.packages[id]
		if !ok {
			continue
		}
		packages[string(id)] = map[string]any{
			"origin":                 string(p.Origin()),
			"destination":            string(p.Destination()),
			"size":                   p.Size(),
			"value":                  p.Value(),
			"priority":               string(p.Priority()),
			"urgency":                string(p.Urgency()),
			"spawn_tick":             p.SpawnTick(),
			"pickup_deadline_tick":   p.PickupDeadlineTick(),
			"delivery_deadline_tick": p.DeliveryDeadlineTick(),
			"status":                 string(p.Status()),
		}
	}

	sites := make(map[string]any, len(w.sites))
	for id, s := range w.sites {
		stats := s.Statistics()
		active := make([]string, 0, len(s.ActivePackages()))
		for _, p := range s.ActivePackages() {
			active = append(active, string(p))
		}
		sites[string(id)] = map[string]any{
			"name":                  s.Name(),
			"activity_rate":         s.ActivityRate(),
			"active_packages":       active,
			"packages_generated":    stats.PackagesGenerated,
			"packages_picked_up":    stats.PackagesPickedUp,
			"packages_delivered":    stats.PackagesDelivered,
			"packages_expired":      stats.PackagesExpired,
			"total_value_delivered": stats.TotalValueDelivered,
			"total_value_expired":   stats.TotalValueExpired,
		}
	}

	return map[string]any{
		"metadata": map[string]any{
			"tick":              w.tick,
			"dt_s":              w.dtSeconds,
			"now_s":             w.NowSeconds(),
			"global_fuel_price": w.fuelPrice,
			"current_day":       w.Day(),
		},
		"run_status": string(w.runState.Status()),
		"agents":     agents,
		"packages":   packages,
		"sites":      sites,
		"buildings":  w.BuildingRecords(),
	}
}

// RestoreMetadata reinstates the simulated clock and fuel market from a
// decoded save document.
func (w *World) RestoreMetadata(tick int64, fuelPrice float64) {
	w.tick = tick
	if fuelPrice > 0 {
		w.fuelPrice = fuelPrice
	}
	w.lastFuelPriceDay = w.Day()
}

// RestorePackageSeq fast-forwards the package id sequence so restored and
// newly spawned packages never collide.
func (w *World) RestorePackageSeq(seq int64) {
	if seq > w.nextPackageSeq {
		w.nextPackageSeq = seq
	}
}
