// Package state implements the snapshot and save/restore actions: the
// state.request full-snapshot stream, save-file export, and import of a
// previously exported document.
package state

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/logisim-sim/logisim/internal/application/common"
	"github.com/logisim-sim/logisim/internal/application/mediator"
)

// Snapshotter emits the full-state signal stream: snapshot_start, one
// full_map_data, one full_agent_data per agent, snapshot_end. Both
// state.request and simulation.start use it.
type Snapshotter struct {
	worlds  common.WorldHolder
	signals common.SignalEmitter
	maps    common.MapCodec
}

// NewSnapshotter wires the snapshot emitter.
func NewSnapshotter(worlds common.WorldHolder, signals common.SignalEmitter, maps common.MapCodec) *Snapshotter {
	return &Snapshotter{worlds: worlds, signals: signals, maps: maps}
}

// EmitSnapshot streams the current world as the four-part snapshot bundle.
func (s *Snapshotter) EmitSnapshot() error {
	w := s.worlds.World()
	s.signals.Emit("state.snapshot_start", map[string]any{"tick": w.Tick()})

	mapData, err := s.maps.EncodeGraph(w.Graph(), nil)
	if err != nil {
		return fmt.Errorf("encode map: %w", err)
	}
	s.signals.Emit("state.full_map_data", map[string]any{
		"map": base64.StdEncoding.EncodeToString(mapData),
	})

	for _, id := range w.AgentIDs() {
		full := w.AgentFullState(id)
		if full == nil {
			continue
		}
		s.signals.Emit("state.full_agent_data", map[string]any{
			"agent_id": string(id),
			"state":    full,
		})
	}

	s.signals.Emit("state.snapshot_end", map[string]any{"tick": w.Tick()})
	return nil
}

// RequestStateRequest triggers a full snapshot stream.
type RequestStateRequest struct{}

// RequestStateHandler serves state.request.
type RequestStateHandler struct {
	snapshots *Snapshotter
}

func NewRequestStateHandler(snapshots *Snapshotter) *RequestStateHandler {
	return &RequestStateHandler{snapshots: snapshots}
}

func (h *RequestStateHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	return nil, h.snapshots.EmitSnapshot()
}

// SaveStateRequest exports the full world document, optionally to a file.
type SaveStateRequest struct {
	Path string `json:"path"`
}

// SaveStateHandler serves state.save.
type SaveStateHandler struct {
	worlds  common.WorldHolder
	signals common.SignalEmitter
	codec   common.StateCodec
}

func NewSaveStateHandler(worlds common.WorldHolder, signals common.SignalEmitter, codec common.StateCodec) *SaveStateHandler {
	return &SaveStateHandler{worlds: worlds, signals: signals, codec: codec}
}

func (h *SaveStateHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	req := request.(SaveStateRequest)
	data, err := h.codec.EncodeWorld(h.worlds.World())
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	if req.Path != "" {
		if err := os.WriteFile(req.Path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write save file: %w", err)
		}
	}
	h.signals.Emit("state.saved", map[string]any{
		"path":  req.Path,
		"bytes": len(data),
		"state": base64.StdEncoding.EncodeToString(data),
	})
	return nil, nil
}

// LoadStateRequest restores a previously exported document; the inline
// payload or a file path is required, and when both are given the inline
// payload is used.
type LoadStateRequest struct {
	Path string `json:"path"`
	Data string `json:"data"` // base64 of the save document
}

// LoadStateHandler serves state.load. The simulation is stopped before the
// world is replaced; nothing is mutated when decoding fails.
type LoadStateHandler struct {
	worlds  common.WorldHolder
	signals common.SignalEmitter
	codec   common.StateCodec
}

func NewLoadStateHandler(worlds common.WorldHolder, signals common.SignalEmitter, codec common.StateCodec) *LoadStateHandler {
	return &LoadStateHandler{worlds: worlds, signals: signals, codec: codec}
}

func (h *LoadStateHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	req := request.(LoadStateRequest)

	var raw []byte
	switch {
	case req.Data != "":
		decoded, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			return nil, fmt.Errorf("decode state payload: %w", err)
		}
		raw = decoded
	case req.Path != "":
		fileData, err := os.ReadFile(req.Path)
		if err != nil {
			return nil, fmt.Errorf("read save file: %w", err)
		}
		raw = fileData
	default:
		return nil, fmt.Errorf("either path or data is required")
	}

	next, err := h.codec.DecodeWorld(raw)
	if err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	current := h.worlds.World()
	if current.RunState().IsRunning() {
		_ = current.RunState().Stop()
		h.signals.Emit("simulation.stopped", map[string]any{"tick": current.Tick()})
	}
	h.worlds.SwapWorld(next)
	h.signals.Emit("state.loaded", map[string]any{"tick": next.Tick()})
	return nil, nil
}
