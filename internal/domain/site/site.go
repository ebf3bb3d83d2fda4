// Package site implements Site, the Building variant that spawns and
// receives packages: an inhomogeneous Poisson source with weighted
// destination selection. Every random draw goes through the world-owned
// shared.SeededRand, never a process-global source.
package site

import (
	"math"

	"github.com/logisim-sim/logisim/internal/domain/freight"
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// PackageConfig controls the size/value/deadline ranges and the priority/
// urgency weight distributions this site draws new packages from.
type PackageConfig struct {
	SizeMin, SizeMax                       int
	ValueMin, ValueMax                     float64
	PickupDeadlineMinTicks, PickupDeadlineMaxTicks     int64
	DeliveryDeadlineMinTicks, DeliveryDeadlineMaxTicks int64
	PriorityWeights map[freight.Priority]float64
	UrgencyWeights  map[freight.Urgency]float64
}

// DefaultPackageConfig mirrors the source's built-in defaults.
func DefaultPackageConfig() PackageConfig {
	return PackageConfig{
		SizeMin: 1, SizeMax: 30,
		ValueMin: 10, ValueMax: 1000,
		PickupDeadlineMinTicks: 1800, PickupDeadlineMaxTicks: 7200,
		DeliveryDeadlineMinTicks: 3600, DeliveryDeadlineMaxTicks: 14400,
		PriorityWeights: map[freight.Priority]float64{
			freight.PriorityLow: 0.4, freight.PriorityMedium: 0.3,
			freight.PriorityHigh: 0.2, freight.PriorityUrgent: 0.1,
		},
		UrgencyWeights: map[freight.Urgency]float64{
			freight.UrgencyStandard: 0.6, freight.UrgencyExpress: 0.3, freight.UrgencySameDay: 0.1,
		},
	}
}

// Statistics tracks a site's lifetime package activity.
type Statistics struct {
	PackagesGenerated  int
	PackagesPickedUp   int
	PackagesDelivered  int
	PackagesExpired    int
	TotalValueDelivered float64
	TotalValueExpired   float64
}

// Site is the pickup/delivery building variant.
type Site struct {
	id                 shared.BuildingID
	name               string
	activityRate       float64 // packages/hour, Poisson lambda
	destinationWeights map[shared.SiteID]float64
	packageConfig      PackageConfig
	activePackages     []shared.PackageID
	statistics         Statistics
}

// New creates a Site with the given spawn rate and destination weights.
func New(id shared.BuildingID, name string, activityRate float64, destinationWeights map[shared.SiteID]float64, cfg PackageConfig) (*Site, error) {
	if activityRate < 0 {
		return nil, shared.NewValidationError("activity_rate", "must be >= 0")
	}
	if destinationWeights == nil {
		destinationWeights = make(map[shared.SiteID]float64)
	}
	return &Site{
		id:                 id,
		name:               name,
		activityRate:       activityRate,
		destinationWeights: destinationWeights,
		packageConfig:      cfg,
	}, nil
}

func (s *Site) ID() shared.BuildingID               { return s.id }
func (s *Site) Name() string                        { return s.name }
func (s *Site) ActivityRate() float64               { return s.activityRate }
func (s *Site) DestinationWeights() map[shared.SiteID]float64 { return s.destinationWeights }
func (s *Site) ActivePackages() []shared.PackageID  { return s.activePackages }
func (s *Site) Statistics() Statistics               { return s.statistics }

// ShouldSpawnPackage decides, via inhomogeneous Poisson thinning, whether a
// package should spawn this tick given elapsed seconds dt_s. lambda=0 never
// spawns.
func (s *Site) ShouldSpawnPackage(dtS float64, rng *shared.SeededRand) bool {
	if s.activityRate == 0 {
		return false
	}
	lambdaPerSecond := s.activityRate / 3600.0
	spawnProbability := 1.0 - math.Exp(-lambdaPerSecond*dtS)
	return rng.Float64() < spawnProbability
}

// SelectDestination picks a destination from available restricted by this
// site's weights; falls back to uniform choice if no weights apply; returns
// ("", false) if available is empty.
func (s *Site) SelectDestination(available []shared.SiteID, rng *shared.SeededRand) (shared.SiteID, bool) {
	if len(available) == 0 {
		return "", false
	}

	validWeights := make(map[shared.SiteID]float64)
	totalWeight := 0.0
	for _, siteID := range available {
		if w, ok := s.destinationWeights[siteID]; ok {
			validWeights[siteID] = w
			totalWeight += w
		}
	}

	if len(validWeights) == 0 || totalWeight == 0 {
		return available[rng.Intn(len(available))], true
	}

	target := rng.Float64() * totalWeight
	cumulative := 0.0
	for _, siteID := range available {
		w, ok := validWeights[siteID]
		if !ok {
			continue
		}
		cumulative += w
		if target <= cumulative {
			return siteID, true
		}
	}
	return available[len(available)-1], true
}

// GeneratedPackageParams is the result of GenerateParameters, before a
// freight.Package is constructed by the caller (which also needs origin/
// destination/spawn tick, not this site's concern).
type GeneratedPackageParams struct {
	Size                 int
	Value                float64
	Priority             freight.Priority
	Urgency              freight.Urgency
	PickupDeadlineTick   int64
	DeliveryDeadlineTick int64
}

// GenerateParameters draws a new package's size, value, priority, urgency,
// and deadline offsets from this site's configured distributions.
func (s *Site) GenerateParameters(rng *shared.SeededRand) GeneratedPackageParams {
	cfg := s.packageConfig

	size := cfg.SizeMin + rng.Intn(cfg.SizeMax-cfg.SizeMin+1)
	baseValue := cfg.ValueMin + rng.Float64()*(cfg.ValueMax-cfg.ValueMin)

	priority := weightedChoicePriority(cfg.PriorityWeights, rng)
	urgency := weightedChoiceUrgency(cfg.UrgencyWeights, rng)

	value := baseValue * freight.PriorityMultiplier(priority) * freight.UrgencyMultiplier(urgency)

	pickupDeadline := cfg.PickupDeadlineMinTicks + int64(rng.Intn(int(cfg.PickupDeadlineMaxTicks-cfg.PickupDeadlineMinTicks)+1))
	deliveryDeadline := cfg.DeliveryDeadlineMinTicks + int64(rng.Intn(int(cfg.DeliveryDeadlineMaxTicks-cfg.DeliveryDeadlineMinTicks)+1))

	if deliveryDeadline <= pickupDeadline {
		// Post-hoc adjustment: push delivery at least 30min-1h (in ticks,
		// using the same unit as the deadline ranges) past pickup.
		deliveryDeadline = pickupDeadline + 1800 + int64(rng.Intn(1800))
	}

	return GeneratedPackageParams{
		Size:                 size,
		Value:                value,
		Priority:             priority,
		Urgency:              urgency,
		PickupDeadlineTick:   pickupDeadline,
		DeliveryDeadlineTick: deliveryDeadline,
	}
}

func weightedChoicePriority(weights map[freight.Priority]float64, rng *shared.SeededRand) freight.Priority {
	keys := make([]freight.Priority, 0, len(weights))
	vals := make([]float64, 0, len(weights))
	for k, v := range weights {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	idx := rng.WeightedChoice(vals)
	if idx < 0 {
		return freight.PriorityMedium
	}
	return keys[idx]
}

func weightedChoiceUrgency(weights map[freight.Urgency]float64, rng *shared.SeededRand) freight.Urgency {
	keys := make([]freight.Urgency, 0, len(weights))
	vals := make([]float64, 0, len(weights))
	for k, v := range weights {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	idx := rng.WeightedChoice(vals)
	if idx < 0 {
		return freight.UrgencyStandard
	}
	return keys[idx]
}

// AddPackage records a package as active at this site.
func (s *Site) AddPackage(id shared.PackageID) {
	for _, p := range s.activePackages {
		if p == id {
			return
		}
	}
	s.activePackages = append(s.activePackages, id)
}

// RemovePackage drops a package from this site's active list.
func (s *Site) RemovePackage(id shared.PackageID) {
	for i, p := range s.activePackages {
		if p == id {
			s.activePackages = append(s.activePackages[:i], s.activePackages[i+1:]...)
			return
		}
	}
}

// RestoreStatistics reinstates lifetime statistics from a save document.
func (s *Site) RestoreStatistics(stats Statistics) { s.statistics = stats }

// RecordGenerated increments the generated-package counter.
func (s *Site) RecordGenerated() { s.statistics.PackagesGenerated++ }

// RecordPickedUp increments the picked-up counter.
func (s *Site) RecordPickedUp() { s.statistics.PackagesPickedUp++ }

// RecordDelivered increments the delivered counter and accumulates value.
func (s *Site) RecordDelivered(value float64) {
	s.statistics.PackagesDelivered++
	s.statistics.TotalValueDelivered += value
}

// RecordExpired increments the expired counter and accumulates lost value.
func (s *Site) RecordExpired(value float64) {
	s.statistics.PackagesExpired++
	s.statistics.TotalValueExpired += value
}
