package controller_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logisim-sim/logisim/internal/adapters/mapgen"
	"github.com/logisim-sim/logisim/internal/adapters/persistence"
	"github.com/logisim-sim/logisim/internal/application/common"
	"github.com/logisim-sim/logisim/internal/application/controller"
	"github.com/logisim-sim/logisim/internal/application/mediator"
	"github.com/logisim-sim/logisim/internal/domain/graph"
	"github.com/logisim-sim/logisim/internal/domain/shared"
	"github.com/logisim-sim/logisim/internal/domain/site"
	"github.com/logisim-sim/logisim/internal/domain/world"
)

type harness struct {
	ctrl    *controller.Controller
	actions *common.ActionQueue
	signals *common.SignalQueue
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	g := graph.New()
	require.NoError(t, g.AddNode(graph.NewNode("a", 0, 0)))
	require.NoError(t, g.AddNode(graph.NewNode("b", 1000, 0)))
	for _, pair := range [][2]shared.NodeID{{"a", "b"}, {"b", "a"}} {
		require.NoError(t, g.AddEdge(&graph.Edge{
			ID: graph.EdgeIDBetween(pair[0], pair[1]), From: pair[0], To: pair[1],
			LengthM: 1000, MaxSpeedKPH: 50,
		}))
	}
	cfg := world.DefaultConfig()
	w := world.New(g, cfg)
	_, err := w.AddSite("site-a", "Site A", "a", 0, nil, site.DefaultPackageConfig())
	require.NoError(t, err)
	w.AddBroker("broker")

	actions := common.NewActionQueue(100)
	signals := common.NewSignalQueue(1000)
	med := mediator.NewMediator()
	ctrl := controller.New(w, med, actions, signals, shared.NewMockClock(shared.NewRealClock().Now()))

	codec := persistence.NewCodec(cfg)
	require.NoError(t, controller.RegisterDefaults(ctrl, med, controller.Dependencies{
		Generator:      mapgen.New(cfg),
		MapCodec:       codec,
		StateCodec:     codec,
		RebuildFromMap: codec.RebuildWorld,
	}))
	return &harness{ctrl: ctrl, actions: actions, signals: signals}
}

func (h *harness) submit(t *testing.T, name string, params map[string]any) {
	t.Helper()
	require.NoError(t, h.actions.Put(common.Action{Name: name, Params: params}))
	h.ctrl.ProcessPendingActions()
}

func (h *harness) drainSignals() []common.Signal {
	var out []common.Signal
	for {
		sig, ok := h.signals.TryGet()
		if !ok {
			return out
		}
		out = append(out, sig)
	}
}

func signalNames(signals []common.Signal) []string {
	names := make([]string, 0, len(signals))
	for _, s := range signals {
		names = append(names, s.Name)
	}
	return names
}

func TestDispatch_UnknownAction(t *testing.T) {
	h := newHarness(t)
	h.submit(t, "bogus.action", nil)

	signals := h.drainSignals()
	require.Len(t, signals, 1)
	assert.Equal(t, "error", signals[0].Name)
	assert.Equal(t, controller.ErrCodeUnknownAction, signals[0].Data["code"])
}

func TestDispatch_MalformedActionName(t *testing.T) {
	h := newHarness(t)
	h.submit(t, "NotAnAction", nil)

	signals := h.drainSignals()
	require.Len(t, signals, 1)
	assert.Equal(t, "error", signals[0].Name)
	assert.Equal(t, controller.ErrCodeInvalidParams, signals[0].Data["code"])
}

func TestDispatch_InvalidParams(t *testing.T) {
	h := newHarness(t)
	h.submit(t, "tick_rate.update", map[string]any{"tick_rate": -5})

	signals := h.drainSignals()
	require.Len(t, signals, 1)
	assert.Equal(t, "error", signals[0].Name)
	assert.Equal(t, controller.ErrCodeInvalidParams, signals[0].Data["code"])
}

func TestStart_EmitsSnapshotBundle(t *testing.T) {
	h := newHarness(t)
	h.submit(t, "simulation.start", nil)

	names := signalNames(h.drainSignals())
	require.NotEmpty(t, names)
	assert.Equal(t, "simulation.started", names[0])
	assert.Contains(t, names, "state.snapshot_start")
	assert.Contains(t, names, "state.full_map_data")
	assert.Contains(t, names, "state.full_agent_data")
	assert.Equal(t, "state.snapshot_end", names[len(names)-1])
}

func TestStepOnce_SignalOrdering(t *testing.T) {
	h := newHarness(t)
	h.submit(t, "simulation.start", nil)
	h.drainSignals()

	require.True(t, h.ctrl.StepOnce())

	names := signalNames(h.drainSignals())
	require.NotEmpty(t, names)
	assert.Equal(t, "tick.start", names[0], "tick.start precedes every per-tick signal")
	assert.Equal(t, "tick.end", names[len(names)-1], "tick.end follows all of them")
}

func TestStepOnce_NoStepWhilePaused(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.ctrl.StepOnce(), "pending world does not advance")

	h.submit(t, "simulation.start", nil)
	h.submit(t, "simulation.pause", nil)
	h.drainSignals()

	assert.False(t, h.ctrl.StepOnce())
	assert.Equal(t, int64(0), h.ctrl.World().Tick())

	h.submit(t, "simulation.resume", nil)
	h.drainSignals()
	assert.True(t, h.ctrl.StepOnce())
	assert.Equal(t, int64(1), h.ctrl.World().Tick())
}

func TestAgentLifecycleActions(t *testing.T) {
	h := newHarness(t)
	h.submit(t, "agent.create", map[string]any{
		"agent_type":           "truck",
		"id":                   "t1",
		"start_node":           "a",
		"max_speed_kph":        80,
		"capacity":             24,
		"fuel_tank_capacity_l": 300,
	})

	signals := h.drainSignals()
	require.Len(t, signals, 1)
	assert.Equal(t, "agent.created", signals[0].Name)
	_, ok := h.ctrl.World().Truck("t1")
	assert.True(t, ok)

	h.submit(t, "agent.list", nil)
	signals = h.drainSignals()
	require.Len(t, signals, 1)
	assert.Equal(t, "agent.listed", signals[0].Name)

	h.submit(t, "agent.delete", map[string]any{"id": "t1"})
	signals = h.drainSignals()
	require.Len(t, signals, 1)
	assert.Equal(t, "agent.deleted", signals[0].Name)
	_, ok = h.ctrl.World().Truck("t1")
	assert.False(t, ok)
}

func TestTickRateUpdate(t *testing.T) {
	h := newHarness(t)
	h.submit(t, "tick_rate.update", map[string]any{"tick_rate": 25})

	signals := h.drainSignals()
	require.Len(t, signals, 1)
	assert.Equal(t, "tick_rate.updated", signals[0].Name)
	assert.Equal(t, 25.0, h.ctrl.TickRate())
}

func TestMapCreate_SwapsWorld(t *testing.T) {
	h := newHarness(t)
	before := h.ctrl.World()

	h.submit(t, "map.create", map[string]any{
		"seed": 7, "rows": 3, "cols": 3, "spacing_m": 500,
		"site_count": 2, "gas_stations": 1, "parkings": 1,
	})

	signals := h.drainSignals()
	names := signalNames(signals)
	require.NotEmpty(t, names)
	assert.Equal(t, "map.created", names[0])
	created := 0
	for _, name := range names[1:] {
		if name == "building.created" {
			created++
		}
	}
	assert.Equal(t, 4, created, "two sites, one gas station, one parking lot")
	assert.NotSame(t, before, h.ctrl.World())
	assert.Equal(t, 9, h.ctrl.World().Graph().NodeCount())
}

func TestMapCreate_RefusedWhileRunning(t *testing.T) {
	h := newHarness(t)
	h.submit(t, "simulation.start", nil)
	h.drainSignals()

	h.submit(t, "map.create", map[string]any{
		"seed": 7, "rows": 3, "cols": 3, "spacing_m": 500,
		"site_count": 0, "gas_stations": 0, "parkings": 0,
	})

	signals := h.drainSignals()
	require.Len(t, signals, 1)
	assert.Equal(t, "error", signals[0].Name)
	assert.Equal(t, controller.ErrCodeHandlerFailed, signals[0].Data["code"])
}
