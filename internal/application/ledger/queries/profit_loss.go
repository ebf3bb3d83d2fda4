// Package queries exposes read-side views over the world's transaction
// ledger: profit/loss per agent and cash flow per category.
package queries

import (
	"context"

	"github.com/logisim-sim/logisim/internal/application/common"
	"github.com/logisim-sim/logisim/internal/application/mediator"
	"github.com/logisim-sim/logisim/internal/domain/ledger"
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// ProfitLossRequest asks for an agent's income/expense totals; an empty
// agent id aggregates over everyone.
type ProfitLossRequest struct {
	AgentID string `json:"agent_id"`
}

// ProfitLossResult is the P&L summary.
type ProfitLossResult struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
	Count    int     `json:"count"`
}

type ProfitLossHandler struct {
	worlds common.WorldHolder
}

func NewProfitLossHandler(worlds common.WorldHolder) *ProfitLossHandler {
	return &ProfitLossHandler{worlds: worlds}
}

func (h *ProfitLossHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	req := request.(ProfitLossRequest)
	led := h.worlds.World().Ledger()

	entries := led.Entries()
	if req.AgentID != "" {
		entries = led.ForAgent(shared.AgentID(req.AgentID))
	}

	var result ProfitLossResult
	for _, tx := range entries {
		if tx.IsIncome() {
			result.Income += tx.Amount()
		} else {
			result.Expenses += -tx.Amount()
		}
		result.Net += tx.Amount()
		result.Count++
	}
	return result, nil
}

// CashFlowRequest asks for net totals per ledger category.
type CashFlowRequest struct{}

type CashFlowHandler struct {
	worlds common.WorldHolder
}

func NewCashFlowHandler(worlds common.WorldHolder) *CashFlowHandler {
	return &CashFlowHandler{worlds: worlds}
}

func (h *CashFlowHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	led := h.worlds.World().Ledger()
	out := make(map[string]float64)
	for _, category := range ledger.AllCategories() {
		out[string(category)] = led.NetByCategory(category)
	}
	return out, nil
}
