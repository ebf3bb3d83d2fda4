// Package mapmgmt implements the map administration actions: procedural
// generation, export, and import. Create and import refuse to run while the
// simulation is running, since the graph is only ever mutated between runs;
// export only reads the graph and runs in any state.
package mapmgmt

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/logisim-sim/logisim/internal/application/common"
	"github.com/logisim-sim/logisim/internal/application/mediator"
	"github.com/logisim-sim/logisim/internal/domain/world"
)

func guardNotRunning(w *world.World) error {
	if w.RunState().IsRunning() {
		return fmt.Errorf("stop the simulation before changing the map")
	}
	return nil
}

// CreateMapRequest generates a fresh world over a procedural graph.
type CreateMapRequest struct {
	common.MapSpec
}

type CreateMapHandler struct {
	worlds    common.WorldHolder
	signals   common.SignalEmitter
	generator common.MapGenerator
}

func NewCreateMapHandler(worlds common.WorldHolder, signals common.SignalEmitter, generator common.MapGenerator) *CreateMapHandler {
	return &CreateMapHandler{worlds: worlds, signals: signals, generator: generator}
}

func (h *CreateMapHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	req := request.(CreateMapRequest)
	if err := guardNotRunning(h.worlds.World()); err != nil {
		return nil, err
	}
	next, err := h.generator.Generate(req.MapSpec)
	if err != nil {
		return nil, fmt.Errorf("generate map: %w", err)
	}
	h.worlds.SwapWorld(next)
	h.signals.Emit("map.created", map[string]any{
		"nodes": next.Graph().NodeCount(),
		"edges": next.Graph().EdgeCount(),
	})
	emitBuildings(h.signals, next)
	return nil, nil
}

// emitBuildings announces every building of a freshly installed world.
func emitBuildings(signals common.SignalEmitter, w *world.World) {
	for id, record := range w.BuildingRecords() {
		signals.Emit("building.created", map[string]any{
			"building_id": id,
			"state":       record,
		})
	}
}

// ExportMapRequest serializes the current graph (buildings included),
// optionally writing it to a file.
type ExportMapRequest struct {
	Path string `json:"path"`
}

type ExportMapHandler struct {
	worlds  common.WorldHolder
	signals common.SignalEmitter
	codec   common.MapCodec
}

func NewExportMapHandler(worlds common.WorldHolder, signals common.SignalEmitter, codec common.MapCodec) *ExportMapHandler {
	return &ExportMapHandler{worlds: worlds, signals: signals, codec: codec}
}

func (h *ExportMapHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	req := request.(ExportMapRequest)
	w := h.worlds.World()
	data, err := h.codec.EncodeGraph(w.Graph(), w.BuildingRecords())
	if err != nil {
		return nil, fmt.Errorf("encode map: %w", err)
	}
	if req.Path != "" {
		if err := os.WriteFile(req.Path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write map file: %w", err)
		}
	}
	h.signals.Emit("map.exported", map[string]any{
		"path": req.Path,
		"map":  base64.StdEncoding.EncodeToString(data),
	})
	return data, nil
}

// ImportMapRequest replaces the world's graph with a previously exported
// one. The inline payload or a file path is required; when both are given,
// the inline payload is used.
type ImportMapRequest struct {
	Path string `json:"path"`
	Data string `json:"data"` // base64 of the map document
}

type ImportMapHandler struct {
	worlds  common.WorldHolder
	signals common.SignalEmitter
	codec   common.MapCodec
	rebuild func(data []byte) (*world.World, error)
}

// NewImportMapHandler wires the import action; rebuild turns a decoded map
// document into a fresh world (graph plus its building roster).
func NewImportMapHandler(worlds common.WorldHolder, signals common.SignalEmitter, codec common.MapCodec, rebuild func(data []byte) (*world.World, error)) *ImportMapHandler {
	return &ImportMapHandler{worlds: worlds, signals: signals, codec: codec, rebuild: rebuild}
}

func (h *ImportMapHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	req := request.(ImportMapRequest)
	if err := guardNotRunning(h.worlds.World()); err != nil {
		return nil, err
	}

	var raw []byte
	switch {
	case req.Data != "":
		decoded, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			return nil, fmt.Errorf("decode map payload: %w", err)
		}
		raw = decoded
	case req.Path != "":
		fileData, err := os.ReadFile(req.Path)
		if err != nil {
			return nil, fmt.Errorf("read map file: %w", err)
		}
		raw = fileData
	default:
		return nil, fmt.Errorf("either path or data is required")
	}

	next, err := h.rebuild(raw)
	if err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}
	h.worlds.SwapWorld(next)
	h.signals.Emit("map.imported", map[string]any{
		"nodes": next.Graph().NodeCount(),
		"edges": next.Graph().EdgeCount(),
	})
	emitBuildings(h.signals, next)
	return nil, nil
}
