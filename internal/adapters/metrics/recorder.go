package metrics

import (
	"time"

	"github.com/logisim-sim/logisim/internal/domain/world"
)

// Recorder bundles the simulation and financial collectors behind the
// controller's observability hook.
type Recorder struct {
	sim *SimulationCollector
	fin *FinancialCollector
}

// NewRecorder builds both collectors against the package-level Registry.
func NewRecorder() *Recorder {
	return &Recorder{
		sim: NewSimulationCollector(Registry),
		fin: NewFinancialCollector(Registry),
	}
}

// RecordTick ingests one tick's result.
func (r *Recorder) RecordTick(w *world.World, result world.TickResult, elapsed time.Duration) {
	r.sim.RecordTick(w, result, elapsed)
	r.fin.Sync(w.Ledger())
}

// RecordPanic counts one aborted tick.
func (r *Recorder) RecordPanic() {
	r.sim.RecordPanic()
}

// Reset forgets ledger watermarks after a world swap.
func (r *Recorder) Reset() {
	r.fin.Reset()
}
