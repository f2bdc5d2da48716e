// Package engine provides the tick-based simulation loop.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// Engine drives the simulation forward. Each tick advances simulated time by
// Step; Interval is the real time a tick takes at speed 1.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Base tick interval
	Step     time.Duration // Simulated time per tick

	running atomic.Bool
	speed   atomic.Uint64 // float64 bits; 1.0 = real-time, 0 = paused

	// Callbacks for each tick layer, populated during setup.
	OnTick func(tick uint64) // Every tick
	OnHour func(tick uint64) // Each simulated hour boundary
	OnDay  func(tick uint64) // Each simulated day boundary
}

// NewEngine creates a simulation engine.
func NewEngine(interval, step time.Duration) *Engine {
	if interval <= 0 {
		interval = time.Second
	}
	if step <= 0 {
		step = time.Second
	}
	e := &Engine{
		Interval: interval,
		Step:     step,
	}
	e.SetSpeed(1.0)
	return e
}

// Speed returns the tick rate multiplier. Safe to call while Run loops.
func (e *Engine) Speed() float64 {
	return math.Float64frombits(e.speed.Load())
}

// SetSpeed changes the tick rate multiplier; 0 pauses. Safe to call while
// Run loops.
func (e *Engine) SetSpeed(v float64) {
	e.speed.Store(math.Float64bits(v))
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run starts the simulation loop. Blocks until ctx is cancelled or Stop is
// called.
func (e *Engine) Run(ctx context.Context) {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed(), "step", e.Step)

	for e.running.Load() {
		speed := e.Speed()
		if speed <= 0 {
			// Paused; check again shortly.
			if !sleep(ctx, 100*time.Millisecond) {
				break
			}
			continue
		}

		start := time.Now()
		e.Advance()

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if !sleep(ctx, target-elapsed) {
			break
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the simulation loop after the current tick.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// sleep waits for d or until ctx is done. It reports false once ctx is done.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Advance moves the simulation by one tick and fires the callbacks whose
// boundary the tick crossed.
func (e *Engine) Advance() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	if e.crossed(time.Hour) && e.OnHour != nil {
		e.OnHour(e.Tick)
	}
	if e.crossed(24*time.Hour) && e.OnDay != nil {
		e.OnDay(e.Tick)
	}
}

// crossed reports whether the latest tick moved simulated time past a
// multiple of period.
func (e *Engine) crossed(period time.Duration) bool {
	before := time.Duration(e.Tick-1) * e.Step / period
	after := time.Duration(e.Tick) * e.Step / period
	return after > before
}

// SimTime renders elapsed simulated time as a calendar string. Seasons last
// 90 days and years four seasons.
func SimTime(elapsed time.Duration) string {
	totalMinutes := uint64(elapsed / time.Minute)
	minutes := totalMinutes % 60
	totalHours := totalMinutes / 60
	hours := totalHours % 24
	totalDays := totalHours / 24
	days := totalDays%90 + 1
	seasons := totalDays / 90
	season := seasons % 4
	years := seasons/4 + 1

	seasonNames := [4]string{"Spring", "Summer", "Autumn", "Winter"}

	return fmt.Sprintf("%s Day %d, %d:%02d Year %d",
		seasonNames[season], days, hours, minutes, years)
}
