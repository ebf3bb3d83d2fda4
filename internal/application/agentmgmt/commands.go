// Package agentmgmt implements the agent administration actions: creating
// and removing trucks, tweaking their parameters, and the describe/list
// queries.
package agentmgmt

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/logisim-sim/logisim/internal/application/common"
	"github.com/logisim-sim/logisim/internal/application/mediator"
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// CreateAgentRequest adds a truck to the world. The broker is a singleton
// created at construction and cannot be added through this action.
type CreateAgentRequest struct {
	AgentType         string  `json:"agent_type" validate:"required,oneof=truck"`
	ID                string  `json:"id"`
	StartNode         string  `json:"start_node" validate:"required"`
	MaxSpeedKPH       float64 `json:"max_speed_kph" validate:"gt=0"`
	Capacity          int     `json:"capacity" validate:"min=4,max=45"`
	FuelTankCapacityL float64 `json:"fuel_tank_capacity_l" validate:"gt=0"`
	RiskFactor        *float64 `json:"risk_factor" validate:"omitempty,min=0,max=1"`
}

type CreateAgentHandler struct {
	worlds  common.WorldHolder
	signals common.SignalEmitter
}

func NewCreateAgentHandler(worlds common.WorldHolder, signals common.SignalEmitter) *CreateAgentHandler {
	return &CreateAgentHandler{worlds: worlds, signals: signals}
}

func (h *CreateAgentHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	req := request.(CreateAgentRequest)
	id := req.ID
	if id == "" {
		id = shared.NewIDFromUUID("truck", uuid.NewString())
	}
	w := h.worlds.World()
	tr, err := w.AddTruck(shared.AgentID(id), shared.NodeID(req.StartNode), req.MaxSpeedKPH, req.Capacity, req.FuelTankCapacityL)
	if err != nil {
		return nil, err
	}
	if req.RiskFactor != nil {
		tr.SetRiskFactor(*req.RiskFactor)
	}
	h.signals.Emit("agent.created", map[string]any{
		"agent_id": id,
		"kind":     "truck",
		"state":    tr.SerializeFull(),
	})
	return id, nil
}

// DeleteAgentRequest decommissions a truck.
type DeleteAgentRequest struct {
	ID string `json:"id" validate:"required"`
}

type DeleteAgentHandler struct {
	worlds  common.WorldHolder
	signals common.SignalEmitter
}

func NewDeleteAgentHandler(worlds common.WorldHolder, signals common.SignalEmitter) *DeleteAgentHandler {
	return &DeleteAgentHandler{worlds: worlds, signals: signals}
}

func (h *DeleteAgentHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	req := request.(DeleteAgentRequest)
	if err := h.worlds.World().RemoveTruck(shared.AgentID(req.ID)); err != nil {
		return nil, err
	}
	h.signals.Emit("agent.deleted", map[string]any{"agent_id": req.ID})
	return nil, nil
}

// UpdateAgentRequest tweaks a truck's mutable knobs.
type UpdateAgentRequest struct {
	ID         string   `json:"id" validate:"required"`
	RiskFactor *float64 `json:"risk_factor" validate:"omitempty,min=0,max=1"`
}

type UpdateAgentHandler struct {
	worlds  common.WorldHolder
	signals common.SignalEmitter
}

func NewUpdateAgentHandler(worlds common.WorldHolder, signals common.SignalEmitter) *UpdateAgentHandler {
	return &UpdateAgentHandler{worlds: worlds, signals: signals}
}

func (h *UpdateAgentHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	req := request.(UpdateAgentRequest)
	w := h.worlds.World()
	tr, ok := w.Truck(shared.AgentID(req.ID))
	if !ok {
		return nil, fmt.Errorf("truck %s does not exist", req.ID)
	}
	if req.RiskFactor != nil {
		tr.SetRiskFactor(*req.RiskFactor)
	}
	h.signals.Emit("agent.updated", map[string]any{
		"agent_id": req.ID,
		"state":    tr.SerializeFull(),
	})
	return nil, nil
}

// DescribeAgentRequest returns one agent's full state.
type DescribeAgentRequest struct {
	ID string `json:"id" validate:"required"`
}

type DescribeAgentHandler struct {
	worlds  common.WorldHolder
	signals common.SignalEmitter
}

func NewDescribeAgentHandler(worlds common.WorldHolder, signals common.SignalEmitter) *DescribeAgentHandler {
	return &DescribeAgentHandler{worlds: worlds, signals: signals}
}

func (h *DescribeAgentHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	req := request.(DescribeAgentRequest)
	full := h.worlds.World().AgentFullState(shared.AgentID(req.ID))
	if full == nil {
		return nil, fmt.Errorf("agent %s does not exist", req.ID)
	}
	h.signals.Emit("agent.described", map[string]any{
		"agent_id": req.ID,
		"state":    full,
	})
	return full, nil
}

// ListAgentsRequest returns every agent's id and kind.
type ListAgentsRequest struct{}

type ListAgentsHandler struct {
	worlds  common.WorldHolder
	signals common.SignalEmitter
}

func NewListAgentsHandler(worlds common.WorldHolder, signals common.SignalEmitter) *ListAgentsHandler {
	return &ListAgentsHandler{worlds: worlds, signals: signals}
}

func (h *ListAgentsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	w := h.worlds.World()
	agents := make([]map[string]any, 0)
	for _, id := range w.AgentIDs() {
		agents = append(agents, map[string]any{
			"agent_id": string(id),
			"kind":     w.AgentKind(id),
		})
	}
	h.signals.Emit("agent.listed", map[string]any{"agents": agents})
	return agents, nil
}
