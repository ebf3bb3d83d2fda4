package freight_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logisim-sim/logisim/internal/domain/freight"
)

func newPackage(t *testing.T) *freight.Package {
	t.Helper()
	pkg, err := freight.New("pkg-1", "site-a", "site-b", 10, 100, freight.PriorityMedium, freight.UrgencyStandard, 0, 100, 200)
	require.NoError(t, err)
	return pkg
}

func TestNew_Validation(t *testing.T) {
	cases := []struct {
		name     string
		size     int
		value    float64
		pickup   int64
		delivery int64
	}{
		{"size too small", 0, 100, 100, 200},
		{"size too large", 31, 100, 100, 200},
		{"zero value", 10, 0, 100, 200},
		{"delivery before pickup", 10, 100, 200, 100},
		{"delivery equals pickup", 10, 100, 100, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := freight.New("p", "a", "b", tc.size, tc.value, freight.PriorityLow, freight.UrgencyStandard, 0, tc.pickup, tc.delivery)
			assert.Error(t, err)
		})
	}
}

func TestStatusTransitions_Monotonic(t *testing.T) {
	pkg := newPackage(t)
	assert.Equal(t, freight.StatusWaitingPickup, pkg.Status())

	require.NoError(t, pkg.MarkInTransit())
	assert.Error(t, pkg.MarkExpired(), "in-transit package cannot expire")
	require.NoError(t, pkg.MarkDelivered())
	assert.Error(t, pkg.MarkInTransit(), "delivered package is terminal")

	expired := newPackage(t)
	require.NoError(t, expired.MarkExpired())
	assert.Error(t, expired.MarkInTransit())
	assert.Error(t, expired.MarkDelivered())
}

func TestDeliveryPayment_LatenessPenalty(t *testing.T) {
	pkg := newPackage(t)

	assert.InDelta(t, 100, pkg.DeliveryPayment(150), 1e-9, "on time pays full value")
	assert.InDelta(t, 100, pkg.DeliveryPayment(200), 1e-9, "exactly at deadline is on time")
	assert.InDelta(t, 100*(1-0.001*50), pkg.DeliveryPayment(250), 1e-9)
	assert.InDelta(t, 0, pkg.DeliveryPayment(200+1001), 1e-9, "penalty floors at zero")
}

func TestIsPastPickupDeadline(t *testing.T) {
	pkg := newPackage(t)
	assert.False(t, pkg.IsPastPickupDeadline(100))
	assert.True(t, pkg.IsPastPickupDeadline(101))

	require.NoError(t, pkg.MarkInTransit())
	assert.False(t, pkg.IsPastPickupDeadline(500), "picked-up package never expires")
}

func TestMultipliers(t *testing.T) {
	assert.Equal(t, 1.5, freight.PriorityMultiplier(freight.PriorityHigh))
	assert.Equal(t, 2.0, freight.PriorityMultiplier(freight.PriorityUrgent))
	assert.Equal(t, 1.0, freight.PriorityMultiplier(freight.PriorityLow))
	assert.Equal(t, 1.3, freight.UrgencyMultiplier(freight.UrgencyExpress))
	assert.Equal(t, 1.8, freight.UrgencyMultiplier(freight.UrgencySameDay))
	assert.Equal(t, 1.0, freight.UrgencyMultiplier(freight.UrgencyStandard))
}

func TestWeightTonnes(t *testing.T) {
	pkg := newPackage(t)
	assert.InDelta(t, 1.0, pkg.WeightTonnes(), 1e-9)
}

func TestExpiryFine(t *testing.T) {
	pkg := newPackage(t)
	assert.InDelta(t, 50, pkg.ExpiryFine(), 1e-9)
}
