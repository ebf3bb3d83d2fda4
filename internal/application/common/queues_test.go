package common_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logisim-sim/logisim/internal/application/common"
)

func TestActionQueue_FIFOAndOverflow(t *testing.T) {
	q := common.NewActionQueue(2)

	require.NoError(t, q.Put(common.Action{Name: "a.one"}))
	require.NoError(t, q.Put(common.Action{Name: "a.two"}))
	assert.ErrorIs(t, q.Put(common.Action{Name: "a.three"}), common.ErrQueueFull)

	first, ok := q.TryGet()
	require.True(t, ok)
	assert.Equal(t, "a.one", first.Name)
	second, ok := q.TryGet()
	require.True(t, ok)
	assert.Equal(t, "a.two", second.Name)

	_, ok = q.TryGet()
	assert.False(t, ok)
}

func TestSignalQueue_Overflow(t *testing.T) {
	q := common.NewSignalQueue(1)
	require.NoError(t, q.Put(common.Signal{Name: "tick.start"}))
	assert.ErrorIs(t, q.Put(common.Signal{Name: "tick.end"}), common.ErrQueueFull)
	assert.Equal(t, 1, q.Len())
}

func TestDecodeParams_Validation(t *testing.T) {
	type params struct {
		TickRate float64 `json:"tick_rate" validate:"gt=0"`
	}

	var out params
	require.NoError(t, common.DecodeParams(map[string]any{"tick_rate": 5.0}, &out))
	assert.Equal(t, 5.0, out.TickRate)

	assert.Error(t, common.DecodeParams(map[string]any{"tick_rate": -1.0}, &out))
	assert.Error(t, common.DecodeParams(map[string]any{"tick_rate": "fast"}, &out))
}
