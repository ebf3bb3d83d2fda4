package controller

import (
	"github.com/logisim-sim/logisim/internal/application/agentmgmt"
	"github.com/logisim-sim/logisim/internal/application/common"
	ledgerQueries "github.com/logisim-sim/logisim/internal/application/ledger/queries"
	"github.com/logisim-sim/logisim/internal/application/mapmgmt"
	"github.com/logisim-sim/logisim/internal/application/mediator"
	"github.com/logisim-sim/logisim/internal/application/simulation"
	"github.com/logisim-sim/logisim/internal/application/state"
	"github.com/logisim-sim/logisim/internal/domain/world"
)

// Dependencies carries the adapter-side collaborators the default handler
// set needs.
type Dependencies struct {
	Generator      common.MapGenerator
	MapCodec       common.MapCodec
	StateCodec     common.StateCodec
	RebuildFromMap func(data []byte) (*world.World, error)
}

// RegisterDefaults wires every built-in action: its mediator handler and
// the registry entry that builds its request from raw params.
func RegisterDefaults(c *Controller, med mediator.Mediator, deps Dependencies) error {
	snapshots := state.NewSnapshotter(c, c, deps.MapCodec)

	type registration struct {
		name    string
		handler mediator.RequestHandler
		build   RequestBuilder
		reg     func(mediator.Mediator, mediator.RequestHandler) error
	}

	regs := []registration{
		{
			name:    "simulation.start",
			handler: simulation.NewStartHandler(c, c, snapshots),
			build:   noParams(simulation.StartRequest{}),
			reg:     mediator.RegisterHandler[simulation.StartRequest],
		},
		{
			name:    "simulation.stop",
			handler: simulation.NewStopHandler(c, c),
			build:   noParams(simulation.StopRequest{}),
			reg:     mediator.RegisterHandler[simulation.StopRequest],
		},
		{
			name:    "simulation.pause",
			handler: simulation.NewPauseHandler(c, c),
			build:   noParams(simulation.PauseRequest{}),
			reg:     mediator.RegisterHandler[simulation.PauseRequest],
		},
		{
			name:    "simulation.resume",
			handler: simulation.NewResumeHandler(c, c),
			build:   noParams(simulation.ResumeRequest{}),
			reg:     mediator.RegisterHandler[simulation.ResumeRequest],
		},
		{
			name:    "tick_rate.update",
			handler: simulation.NewUpdateTickRateHandler(c, c),
			build:   decoded[simulation.UpdateTickRateRequest](),
			reg:     mediator.RegisterHandler[simulation.UpdateTickRateRequest],
		},
		{
			name:    "agent.create",
			handler: agentmgmt.NewCreateAgentHandler(c, c),
			build:   decoded[agentmgmt.CreateAgentRequest](),
			reg:     mediator.RegisterHandler[agentmgmt.CreateAgentRequest],
		},
		{
			name:    "agent.delete",
			handler: agentmgmt.NewDeleteAgentHandler(c, c),
			build:   decoded[agentmgmt.DeleteAgentRequest](),
			reg:     mediator.RegisterHandler[agentmgmt.DeleteAgentRequest],
		},
		{
			name:    "agent.update",
			handler: agentmgmt.NewUpdateAgentHandler(c, c),
			build:   decoded[agentmgmt.UpdateAgentRequest](),
			reg:     mediator.RegisterHandler[agentmgmt.UpdateAgentRequest],
		},
		{
			name:    "agent.describe",
			handler: agentmgmt.NewDescribeAgentHandler(c, c),
			build:   decoded[agentmgmt.DescribeAgentRequest](),
			reg:     mediator.RegisterHandler[agentmgmt.DescribeAgentRequest],
		},
		{
			name:    "agent.list",
			handler: agentmgmt.NewListAgentsHandler(c, c),
			build:   noParams(agentmgmt.ListAgentsRequest{}),
			reg:     mediator.RegisterHandler[agentmgmt.ListAgentsRequest],
		},
		{
			name:    "map.create",
			handler: mapmgmt.NewCreateMapHandler(c, c, deps.Generator),
			build:   decoded[mapmgmt.CreateMapRequest](),
			reg:     mediator.RegisterHandler[mapmgmt.CreateMapRequest],
		},
		{
			name:    "map.export",
			handler: mapmgmt.NewExportMapHandler(c, c, deps.MapCodec),
			build:   decoded[mapmgmt.ExportMapRequest](),
			reg:     mediator.RegisterHandler[mapmgmt.ExportMapRequest],
		},
		{
			name:    "map.import",
			handler: mapmgmt.NewImportMapHandler(c, c, deps.MapCodec, deps.RebuildFromMap),
			build:   decoded[mapmgmt.ImportMapRequest](),
			reg:     mediator.RegisterHandler[mapmgmt.ImportMapRequest],
		},
		{
			name:    "state.request",
			handler: state.NewRequestStateHandler(snapshots),
			build:   noParams(state.RequestStateRequest{}),
			reg:     mediator.RegisterHandler[state.RequestStateRequest],
		},
		{
			name:    "state.save",
			handler: state.NewSaveStateHandler(c, c, deps.StateCodec),
			build:   decoded[state.SaveStateRequest](),
			reg:     mediator.RegisterHandler[state.SaveStateRequest],
		},
		{
			name:    "state.load",
			handler: state.NewLoadStateHandler(c, c, deps.StateCodec),
			build:   decoded[state.LoadStateRequest](),
			reg:     mediator.RegisterHandler[state.LoadStateRequest],
		},
	}

	for _, r := range regs {
		if err := r.reg(med, r.handler); err != nil {
			return err
		}
		c.RegisterAction(r.name, r.build)
	}

	if err := mediator.RegisterHandler[ledgerQueries.ProfitLossRequest](med, ledgerQueries.NewProfitLossHandler(c)); err != nil {
		return err
	}
	if err := mediator.RegisterHandler[ledgerQueries.CashFlowRequest](med, ledgerQueries.NewCashFlowHandler(c)); err != nil {
		return err
	}
	return nil
}

// noParams builds a fixed zero-value request, ignoring params.
func noParams(request mediator.Request) RequestBuilder {
	return func(map[string]any) (mediator.Request, error) {
		return request, nil
	}
}

// decoded builds a typed request by binding and validating the raw params.
func decoded[T any]() RequestBuilder {
	return func(params map[string]any) (mediator.Request, error) {
		var req T
		if err := common.DecodeParams(params, &req); err != nil {
			return nil, err
		}
		return req, nil
	}
}
