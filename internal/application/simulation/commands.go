// Package simulation implements the run-control actions: start, stop,
// pause, resume, and tick-rate updates.
package simulation

import (
	"context"

	"github.com/logisim-sim/logisim/internal/application/common"
	"github.com/logisim-sim/logisim/internal/application/mediator"
	"github.com/logisim-sim/logisim/internal/application/state"
)

// StartRequest starts (or restarts) the tick loop. Starting also streams a
// full snapshot so a freshly connected client begins from complete state.
type StartRequest struct{}

type StartHandler struct {
	worlds    common.WorldHolder
	signals   common.SignalEmitter
	snapshots *state.Snapshotter
}

func NewStartHandler(worlds common.WorldHolder, signals common.SignalEmitter, snapshots *state.Snapshotter) *StartHandler {
	return &StartHandler{worlds: worlds, signals: signals, snapshots: snapshots}
}

func (h *StartHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	w := h.worlds.World()
	if err := w.RunState().Start(); err != nil {
		return nil, err
	}
	h.signals.Emit("simulation.started", map[string]any{"tick": w.Tick()})
	return nil, h.snapshots.EmitSnapshot()
}

// StopRequest stops the tick loop; the in-flight tick completes first.
type StopRequest struct{}

type StopHandler struct {
	worlds  common.WorldHolder
	signals common.SignalEmitter
}

func NewStopHandler(worlds common.WorldHolder, signals common.SignalEmitter) *StopHandler {
	return &StopHandler{worlds: worlds, signals: signals}
}

func (h *StopHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	w := h.worlds.World()
	if err := w.RunState().Stop(); err != nil {
		return nil, err
	}
	h.signals.Emit("simulation.stopped", map[string]any{"tick": w.Tick()})
	return nil, nil
}

// PauseRequest holds the world at the current tick.
type PauseRequest struct{}

type PauseHandler struct {
	worlds  common.WorldHolder
	signals common.SignalEmitter
}

func NewPauseHandler(worlds common.WorldHolder, signals common.SignalEmitter) *PauseHandler {
	return &PauseHandler{worlds: worlds, signals: signals}
}

func (h *PauseHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	w := h.worlds.World()
	if err := w.RunState().Pause(); err != nil {
		return nil, err
	}
	h.signals.Emit("simulation.paused", map[string]any{"tick": w.Tick()})
	return nil, nil
}

// ResumeRequest releases a paused world.
type ResumeRequest struct{}

type ResumeHandler struct {
	worlds  common.WorldHolder
	signals common.SignalEmitter
}

func NewResumeHandler(worlds common.WorldHolder, signals common.SignalEmitter) *ResumeHandler {
	return &ResumeHandler{worlds: worlds, signals: signals}
}

func (h *ResumeHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	w := h.worlds.World()
	if err := w.RunState().Resume(); err != nil {
		return nil, err
	}
	h.signals.Emit("simulation.resumed", map[string]any{"tick": w.Tick()})
	return nil, nil
}

// UpdateTickRateRequest changes the real-time pacing of the tick loop.
type UpdateTickRateRequest struct {
	TickRate float64 `json:"tick_rate" validate:"gt=0,lte=1000"`
}

type UpdateTickRateHandler struct {
	pacer   common.Pacer
	signals common.SignalEmitter
}

func NewUpdateTickRateHandler(pacer common.Pacer, signals common.SignalEmitter) *UpdateTickRateHandler {
	return &UpdateTickRateHandler{pacer: pacer, signals: signals}
}

func (h *UpdateTickRateHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	req := request.(UpdateTickRateRequest)
	if err := h.pacer.SetTickRate(req.TickRate); err != nil {
		return nil, err
	}
	h.signals.Emit("tick_rate.updated", map[string]any{"tick_rate": req.TickRate})
	return nil, nil
}
