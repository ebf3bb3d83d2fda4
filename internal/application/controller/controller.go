// Package controller implements the simulation's driving loop: it drains
// the pending-action queue, dispatches each action through the mediator,
// advances the world when running, and converts tick results into the
// outbound signal stream. It is the only goroutine that ever touches the
// world; the transport reaches it exclusively through the two bounded
// queues.
package controller

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/logisim-sim/logisim/internal/application/common"
	"github.com/logisim-sim/logisim/internal/application/mediator"
	"github.com/logisim-sim/logisim/internal/domain/shared"
	"github.com/logisim-sim/logisim/internal/domain/world"
)

// actionNamePattern is the only accepted action name shape.
var actionNamePattern = regexp.MustCompile(`^[a-z_]+\.[a-z_]+$`)

// Stable error codes for the error signal.
const (
	ErrCodeUnknownAction = "unknown_action"
	ErrCodeInvalidParams = "invalid_params"
	ErrCodeHandlerFailed = "handler_failed"
	ErrCodeQueueOverflow = "queue_overflow"
)

// RequestBuilder turns a raw params object into a typed mediator request.
type RequestBuilder func(params map[string]any) (mediator.Request, error)

// TickRecorder is an optional observability hook fed every completed tick
// and every recovered panic.
type TickRecorder interface {
	RecordTick(w *world.World, result world.TickResult, elapsed time.Duration)
	RecordPanic()
}

// Controller owns the world and the tick loop.
type Controller struct {
	mu    sync.RWMutex
	world *world.World

	med      mediator.Mediator
	registry map[string]RequestBuilder

	actions *common.ActionQueue
	signals *common.SignalQueue

	tickRate float64 // ticks per real-time second

	clock    shared.Clock
	health   *HealthMonitor
	recorder TickRecorder

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a Controller over an initial world.
func New(w *world.World, med mediator.Mediator, actions *common.ActionQueue, signals *common.SignalQueue, clock shared.Clock) *Controller {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Controller{
		world:    w,
		med:      med,
		registry: make(map[string]RequestBuilder),
		actions:  actions,
		signals:  signals,
		tickRate: 10,
		clock:    clock,
		health:   NewHealthMonitor(clock),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// World implements common.WorldHolder.
func (c *Controller) World() *world.World {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.world
}

// SwapWorld implements common.WorldHolder, replacing the world between runs
// (map import, state restore).
func (c *Controller) SwapWorld(w *world.World) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.world = w
}

// TickRate implements common.Pacer.
func (c *Controller) TickRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tickRate
}

// SetTickRate implements common.Pacer.
func (c *Controller) SetTickRate(ticksPerSecond float64) error {
	if ticksPerSecond <= 0 {
		return fmt.Errorf("tick rate must be > 0")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickRate = ticksPerSecond
	return nil
}

// Emit implements common.SignalEmitter. A full signal queue drops the
// signal; the transport is the slow side and a stalled client must never
// stall the tick loop.
func (c *Controller) Emit(name string, data map[string]any) {
	if err := c.signals.Put(common.Signal{Name: name, Data: data}); err != nil {
		log.Printf("controller: dropping signal %s: %v", name, err)
	}
}

// RegisterAction binds an action name to its request builder.
func (c *Controller) RegisterAction(name string, build RequestBuilder) {
	c.registry[name] = build
}

// Health exposes the crash-loop monitor.
func (c *Controller) Health() *HealthMonitor { return c.health }

// SetTickRecorder installs the observability hook.
func (c *Controller) SetTickRecorder(r TickRecorder) { c.recorder = r }

// Shutdown asks the loop to exit; the current tick completes first.
func (c *Controller) Shutdown() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Done is closed once the loop has exited.
func (c *Controller) Done() <-chan struct{} { return c.doneCh }

// Run drives the loop until Shutdown: drain actions, step when running,
// then pace against the configured tick rate (or idle at 100ms when the
// world is not advancing).
func (c *Controller) Run() {
	defer close(c.doneCh)
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		c.ProcessPendingActions()

		if c.StepOnce() {
			c.clock.Sleep(time.Duration(float64(time.Second) / c.TickRate()))
		} else {
			c.clock.Sleep(100 * time.Millisecond)
		}
	}
}

// StepOnce advances one tick if the world is running, reporting whether it
// did.
func (c *Controller) StepOnce() bool {
	w := c.World()
	if !w.RunState().IsRunning() {
		return false
	}
	c.safeStep(w)
	return true
}

// ProcessPendingActions empties the pending-action queue, dispatching each
// action in FIFO order.
func (c *Controller) ProcessPendingActions() {
	for {
		action, ok := c.actions.TryGet()
		if !ok {
			return
		}
		c.dispatch(action)
	}
}

// dispatch validates, builds, and executes one action; failures surface as
// error signals and never stop the loop.
func (c *Controller) dispatch(action common.Action) {
	if !actionNamePattern.MatchString(action.Name) {
		c.emitError(ErrCodeInvalidParams, fmt.Sprintf("malformed action name %q", action.Name))
		return
	}
	build, ok := c.registry[action.Name]
	if !ok {
		c.emitError(ErrCodeUnknownAction, fmt.Sprintf("unknown action %q", action.Name))
		return
	}
	request, err := build(action.Params)
	if err != nil {
		c.emitError(ErrCodeInvalidParams, err.Error())
		return
	}
	if _, err := c.med.Send(context.Background(), request); err != nil {
		c.emitError(ErrCodeHandlerFailed, err.Error())
	}
}

func (c *Controller) emitError(code, message string) {
	c.Emit("error", map[string]any{"code": code, "message": message})
}

// safeStep advances one tick behind a panic barrier: a programming bug
// aborts the current tick, is logged with its stack context, and the loop
// cools down for a second instead of crash-looping.
func (c *Controller) safeStep(w *world.World) {
	defer func() {
		if r := recover(); r != nil {
			c.health.RecordPanic()
			if c.recorder != nil {
				c.recorder.RecordPanic()
			}
			log.Printf("controller: tick panic: %v", r)
			c.clock.Sleep(time.Second)
		}
	}()

	c.Emit("tick.start", map[string]any{"tick": w.Tick() + 1})
	started := time.Now()
	result := w.Step()
	c.health.RecordSuccess()
	if c.recorder != nil {
		c.recorder.RecordTick(w, result, time.Since(started))
	}
	c.emitTickSignals(w, result)
	c.Emit("tick.end", map[string]any{
		"tick": result.TickData.Tick,
		"time": result.TickData.Time,
		"day":  result.TickData.Day,
	})
}

// emitTickSignals converts one tick's result into the outbound stream:
// agent.updated per changed agent, building.updated per dirty building,
// event.created for every event, and the package lifecycle signals.
func (c *Controller) emitTickSignals(w *world.World, result world.TickResult) {
	for agentID, diff := range result.AgentDiffs {
		c.Emit("agent.updated", map[string]any{"agent_id": agentID, "state": diff})
	}
	for buildingID, update := range result.BuildingUpdates {
		c.Emit("building.updated", map[string]any{"building_id": buildingID, "state": update})
	}
	for _, event := range result.Events {
		c.Emit("event.created", map[string]any{"name": event.Name, "data": event.Body})
		if name, ok := packageSignalFor(event.Name); ok {
			c.Emit(name, event.Body)
			c.emitSiteStats(w, event)
		}
	}
}

// packageSignalFor maps internal event names onto the package lifecycle
// signal vocabulary.
func packageSignalFor(eventName string) (string, bool) {
	switch eventName {
	case "package_spawned":
		return "package.created", true
	case "package_expired":
		return "package.expired", true
	case "pickup_confirmed":
		return "package.picked_up", true
	case "delivery_settled":
		return "package.delivered", true
	}
	return "", false
}

// emitSiteStats publishes the affected site's lifetime statistics after a
// package lifecycle change.
func (c *Controller) emitSiteStats(w *world.World, event world.Event) {
	pkgID, _ := event.Body["package_id"].(string)
	if pkgID == "" {
		return
	}
	pkg := w.Package(shared.PackageID(pkgID))
	if pkg == nil {
		return
	}
	for _, siteID := range []shared.SiteID{pkg.Origin(), pkg.Destination()} {
		s, ok := w.Site(siteID)
		if !ok {
			continue
		}
		stats := s.Statistics()
		c.Emit("site.stats_update", map[string]any{
			"site_id":               string(siteID),
			"packages_generated":    stats.PackagesGenerated,
			"packages_picked_up":    stats.PackagesPickedUp,
			"packages_delivered":    stats.PackagesDelivered,
			"packages_expired":      stats.PackagesExpired,
			"total_value_delivered": stats.TotalValueDelivered,
			"total_value_expired":   stats.TotalValueExpired,
		})
	}
}
