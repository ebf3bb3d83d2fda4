package controller

import (
	"sync"
	"time"

	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// cooldownAfterPanics is how many consecutive tick panics open the cooldown
// window.
const cooldownAfterPanics = 3

// cooldownDuration is how long the monitor reports degraded health after
// repeated failures.
const cooldownDuration = 30 * time.Second

// HealthMonitor tracks tick-loop failures so a single programming bug
// cannot turn into a silent crash loop: consecutive panics open a cooldown
// that operators (and the metrics endpoint) can observe.
type HealthMonitor struct {
	mu                sync.Mutex
	clock             shared.Clock
	consecutivePanics int
	totalPanics       int
	totalTicks        int64
	cooldownUntil     time.Time
}

// NewHealthMonitor creates a monitor on the given clock.
func NewHealthMonitor(clock shared.Clock) *HealthMonitor {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &HealthMonitor{clock: clock}
}

// RecordSuccess notes a completed tick, closing any failure streak.
func (hm *HealthMonitor) RecordSuccess() {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.consecutivePanics = 0
	hm.totalTicks++
}

// RecordPanic notes an aborted tick; enough in a row open the cooldown.
func (hm *HealthMonitor) RecordPanic() {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.consecutivePanics++
	hm.totalPanics++
	if hm.consecutivePanics >= cooldownAfterPanics {
		hm.cooldownUntil = hm.clock.Now().Add(cooldownDuration)
	}
}

// Healthy reports whether the loop is outside any failure cooldown.
func (hm *HealthMonitor) Healthy() bool {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	return hm.clock.Now().After(hm.cooldownUntil)
}

// Status returns a serializable health summary.
func (hm *HealthMonitor) Status() map[string]any {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	return map[string]any{
		"healthy":            hm.clock.Now().After(hm.cooldownUntil),
		"consecutive_panics": hm.consecutivePanics,
		"total_panics":       hm.totalPanics,
		"total_ticks":        hm.totalTicks,
	}
}
