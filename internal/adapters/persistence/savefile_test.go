package persistence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logisim-sim/logisim/internal/adapters/persistence"
	"github.com/logisim-sim/logisim/internal/domain/freight"
	"github.com/logisim-sim/logisim/internal/domain/graph"
	"github.com/logisim-sim/logisim/internal/domain/shared"
	"github.com/logisim-sim/logisim/internal/domain/site"
	"github.com/logisim-sim/logisim/internal/domain/world"
)

func stageWorld(t *testing.T) *world.World {
	t.Helper()
	g := graph.New()
	require.NoError(t, g.AddNode(graph.NewNode("a", 0, 0)))
	require.NoError(t, g.AddNode(graph.NewNode("b", 1000, 0)))
	require.NoError(t, g.AddNode(graph.NewNode("c", 2000, 0)))
	for _, pair := range [][2]shared.NodeID{{"a", "b"}, {"b", "a"}, {"b", "c"}, {"c", "b"}} {
		require.NoError(t, g.AddEdge(&graph.Edge{
			ID: graph.EdgeIDBetween(pair[0], pair[1]), From: pair[0], To: pair[1],
			LengthM: 1000, MaxSpeedKPH: 50, RoadClass: "regional", Lanes: 2, Mode: "road",
		}))
	}

	cfg := world.DefaultConfig()
	cfg.FuelPriceVolatility = 0
	w := world.New(g, cfg)

	_, err := w.AddSite("site-a", "Site A", "a", 1.5, map[shared.SiteID]float64{"c": 2}, site.DefaultPackageConfig())
	require.NoError(t, err)
	_, err = w.AddSite("site-c", "Site C", "c", 0, nil, site.DefaultPackageConfig())
	require.NoError(t, err)
	gs, err := w.AddGasStation("gas-b", "b", 2, 1.1)
	require.NoError(t, err)
	gs.RecordSale(42)
	_, err = w.AddParking("park-b", "b", 3)
	require.NoError(t, err)

	w.AddBroker("broker")
	_, err = w.AddTruck("t1", "a", 80, 24, 300)
	require.NoError(t, err)

	pkg, err := freight.New("pkg-1", "a", "c", 10, 100, freight.PriorityHigh, freight.UrgencyExpress, 0, 1000, 2000)
	require.NoError(t, err)
	w.AttachPackage(pkg)
	return w
}

func TestMapExportImport_RoundTrip(t *testing.T) {
	w := stageWorld(t)
	codec := persistence.NewCodec(world.DefaultConfig())

	data, err := codec.EncodeGraph(w.Graph(), w.BuildingRecords())
	require.NoError(t, err)

	restored, err := codec.RebuildWorld(data)
	require.NoError(t, err)

	data2, err := codec.EncodeGraph(restored.Graph(), restored.BuildingRecords())
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(data2), "map export/import round-trips")

	assert.Equal(t, w.Graph().NodeCount(), restored.Graph().NodeCount())
	assert.Equal(t, w.Graph().EdgeCount(), restored.Graph().EdgeCount())
}

func TestStateExportRestoreExport_Identical(t *testing.T) {
	w := stageWorld(t)
	// Advance a few ticks so non-trivial state (routes, negotiation
	// bookkeeping, message flow) is in flight.
	for i := 0; i < 5; i++ {
		w.Step()
	}

	codec := persistence.NewCodec(world.DefaultConfig())
	first, err := codec.EncodeWorld(w)
	require.NoError(t, err)

	restored, err := codec.DecodeWorld(first)
	require.NoError(t, err)

	second, err := codec.EncodeWorld(restored)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second), "export -> restore -> export is identity")
}

func TestDecodeWorld_RestoresScalars(t *testing.T) {
	w := stageWorld(t)
	for i := 0; i < 3; i++ {
		w.Step()
	}
	codec := persistence.NewCodec(world.DefaultConfig())

	data, err := codec.EncodeWorld(w)
	require.NoError(t, err)
	restored, err := codec.DecodeWorld(data)
	require.NoError(t, err)

	assert.Equal(t, w.Tick(), restored.Tick())
	assert.Equal(t, w.DtSeconds(), restored.DtSeconds())
	assert.Equal(t, w.FuelPrice(), restored.FuelPrice())
	assert.Equal(t, w.Day(), restored.Day())

	tr, ok := restored.Truck("t1")
	require.True(t, ok)
	orig, _ := w.Truck("t1")
	assert.Equal(t, orig.Position(), tr.Position())
	assert.Equal(t, orig.CurrentFuelL(), tr.CurrentFuelL())

	require.NotNil(t, restored.Broker())
	assert.Equal(t, w.Broker().BalanceDucats(), restored.Broker().BalanceDucats())

	gs := restored.GasStations()["gas-b"]
	require.NotNil(t, gs)
	assert.InDelta(t, 42, gs.Revenue(), 1e-9)
}

func TestDecodeWorld_RejectsGarbage(t *testing.T) {
	codec := persistence.NewCodec(world.DefaultConfig())
	_, err := codec.DecodeWorld([]byte("{not json"))
	assert.Error(t, err)
	_, err = codec.DecodeGraph([]byte("[1,2,3]"))
	assert.Error(t, err)
}
