package mapgen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logisim-sim/logisim/internal/adapters/mapgen"
	"github.com/logisim-sim/logisim/internal/adapters/persistence"
	"github.com/logisim-sim/logisim/internal/application/common"
	"github.com/logisim-sim/logisim/internal/domain/world"
)

func spec() common.MapSpec {
	return common.MapSpec{
		Seed: 42, Rows: 4, Cols: 5, SpacingM: 800,
		SiteCount: 3, GasStations: 2, Parkings: 2,
	}
}

func TestGenerate_GridShape(t *testing.T) {
	g := mapgen.New(world.DefaultConfig())
	w, err := g.Generate(spec())
	require.NoError(t, err)

	assert.Equal(t, 20, w.Graph().NodeCount())
	// Interior grid connections, one edge per direction.
	expectedEdges := 2 * (4*(5-1) + 5*(4-1))
	assert.Equal(t, expectedEdges, w.Graph().EdgeCount())

	assert.Len(t, w.Sites(), 3)
	assert.Len(t, w.GasStations(), 2)
	assert.Len(t, w.Parkings(), 2)
	assert.NotNil(t, w.Broker())
}

func TestGenerate_SameSeedSameMap(t *testing.T) {
	gen := mapgen.New(world.DefaultConfig())
	codec := persistence.NewCodec(world.DefaultConfig())

	w1, err := gen.Generate(spec())
	require.NoError(t, err)
	w2, err := gen.Generate(spec())
	require.NoError(t, err)

	doc1, err := codec.EncodeGraph(w1.Graph(), w1.BuildingRecords())
	require.NoError(t, err)
	doc2, err := codec.EncodeGraph(w2.Graph(), w2.BuildingRecords())
	require.NoError(t, err)
	assert.JSONEq(t, string(doc1), string(doc2), "same seed must generate the same map")

	other, err := gen.Generate(common.MapSpec{
		Seed: 43, Rows: 4, Cols: 5, SpacingM: 800,
		SiteCount: 3, GasStations: 2, Parkings: 2,
	})
	require.NoError(t, err)
	doc3, err := codec.EncodeGraph(other.Graph(), other.BuildingRecords())
	require.NoError(t, err)
	assert.NotEqual(t, string(doc1), string(doc3), "different seed moves buildings")
}

func TestGenerate_Validation(t *testing.T) {
	gen := mapgen.New(world.DefaultConfig())

	_, err := gen.Generate(common.MapSpec{Seed: 1, Rows: 1, Cols: 5, SpacingM: 800})
	assert.Error(t, err)

	_, err = gen.Generate(common.MapSpec{
		Seed: 1, Rows: 2, Cols: 2, SpacingM: 800,
		SiteCount: 3, GasStations: 1, Parkings: 1,
	})
	assert.Error(t, err, "more buildings than nodes")
}
