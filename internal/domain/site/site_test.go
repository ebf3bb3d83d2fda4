package site_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logisim-sim/logisim/internal/domain/shared"
	"github.com/logisim-sim/logisim/internal/domain/site"
)

func newSite(t *testing.T, rate float64, weights map[shared.SiteID]float64) *site.Site {
	t.Helper()
	s, err := site.New("b-1", "Depot", rate, weights, site.DefaultPackageConfig())
	require.NoError(t, err)
	return s
}

func TestNew_RejectsNegativeRate(t *testing.T) {
	_, err := site.New("b-1", "Depot", -1, nil, site.DefaultPackageConfig())
	assert.Error(t, err)
}

func TestShouldSpawnPackage_ZeroRateNeverSpawns(t *testing.T) {
	s := newSite(t, 0, nil)
	rng := shared.NewSeededRand(7)
	for i := 0; i < 10000; i++ {
		assert.False(t, s.ShouldSpawnPackage(60, rng))
	}
}

func TestShouldSpawnPackage_HighRateSpawnsOften(t *testing.T) {
	// 3600 pkg/hour over a 60s tick saturates the thinning probability.
	s := newSite(t, 3600, nil)
	rng := shared.NewSeededRand(7)
	spawned := 0
	for i := 0; i < 1000; i++ {
		if s.ShouldSpawnPackage(60, rng) {
			spawned++
		}
	}
	assert.Greater(t, spawned, 900)
}

func TestSelectDestination(t *testing.T) {
	weights := map[shared.SiteID]float64{"x": 1, "y": 0}
	s := newSite(t, 1, weights)
	rng := shared.NewSeededRand(1)

	_, ok := s.SelectDestination(nil, rng)
	assert.False(t, ok, "empty input returns none")

	// Only weighted destinations are drawn when weights apply.
	for i := 0; i < 100; i++ {
		dst, ok := s.SelectDestination([]shared.SiteID{"x", "y"}, rng)
		require.True(t, ok)
		assert.Equal(t, shared.SiteID("x"), dst)
	}

	// No valid weights falls back to uniform over the available set.
	seen := map[shared.SiteID]bool{}
	for i := 0; i < 200; i++ {
		dst, ok := s.SelectDestination([]shared.SiteID{"p", "q"}, rng)
		require.True(t, ok)
		seen[dst] = true
	}
	assert.True(t, seen["p"] && seen["q"])
}

func TestGenerateParameters_Invariants(t *testing.T) {
	s := newSite(t, 1, nil)
	rng := shared.NewSeededRand(99)
	cfg := site.DefaultPackageConfig()

	for i := 0; i < 500; i++ {
		params := s.GenerateParameters(rng)
		assert.GreaterOrEqual(t, params.Size, cfg.SizeMin)
		assert.LessOrEqual(t, params.Size, cfg.SizeMax)
		assert.Greater(t, params.Value, 0.0)
		assert.Greater(t, params.DeliveryDeadlineTick, params.PickupDeadlineTick,
			"delivery deadline must always land after pickup")
	}
}

func TestActivePackagesBookkeeping(t *testing.T) {
	s := newSite(t, 1, nil)
	s.AddPackage("pkg-1")
	s.AddPackage("pkg-1")
	s.AddPackage("pkg-2")
	assert.Len(t, s.ActivePackages(), 2, "duplicate adds collapse")

	s.RemovePackage("pkg-1")
	assert.Equal(t, []shared.PackageID{"pkg-2"}, s.ActivePackages())
}

func TestStatistics(t *testing.T) {
	s := newSite(t, 1, nil)
	s.RecordGenerated()
	s.RecordPickedUp()
	s.RecordDelivered(120)
	s.RecordExpired(30)

	stats := s.Statistics()
	assert.Equal(t, 1, stats.PackagesGenerated)
	assert.Equal(t, 1, stats.PackagesPickedUp)
	assert.Equal(t, 1, stats.PackagesDelivered)
	assert.Equal(t, 1, stats.PackagesExpired)
	assert.InDelta(t, 120, stats.TotalValueDelivered, 1e-9)
	assert.InDelta(t, 30, stats.TotalValueExpired, 1e-9)
}
