// Package engine composes ThreadRegistry, Executor, ComponentStore,
// SystemManager and Pathfinder into the single construction point spec.md
// §6 describes, and drives the per-tick update loop.
package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/floweryclover/settlement-engine/engine/component"
	"github.com/floweryclover/settlement-engine/engine/executor"
	"github.com/floweryclover/settlement-engine/engine/pathfind"
	"github.com/floweryclover/settlement-engine/engine/system"
	"github.com/floweryclover/settlement-engine/engine/threadreg"
	"github.com/floweryclover/settlement-engine/enginelog"
	"github.com/floweryclover/settlement-engine/enginemetrics"
)

// Engine is the top-level, constructed-once object graph: one ThreadRegistry,
// one Executor, one ComponentStore, one SystemManager, one Pathfinder.
type Engine struct {
	config  Config
	clock   Clock
	logger  *zap.Logger
	metrics *enginemetrics.Recorder

	registry   *threadreg.Registry
	executor   *executor.Executor
	components *component.Store
	systems    *system.Manager
	pathfinder *pathfind.Pathfinder

	tick     uint64
	lastTime time.Time
}

// EngineOption configures optional cross-cutting collaborators (logging,
// metrics) separately from Config's domain knobs.
type EngineOption func(*engineOptions)

type engineOptions struct {
	logger  *zap.Logger
	metrics *enginemetrics.Recorder
}

// WithLogger attaches a structured logger; defaults to a no-op logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(o *engineOptions) { o.logger = logger }
}

// WithMetrics attaches a metrics recorder; defaults to no metrics.
func WithMetrics(recorder *enginemetrics.Recorder) EngineOption {
	return func(o *engineOptions) { o.metrics = recorder }
}

// New validates cfg, then constructs the object graph: ThreadRegistry,
// Executor (spawning cfg.WorkerThreadCount workers), an empty ComponentStore,
// an empty SystemManager, and a Pathfinder sized for cfg.WorkerThreadCount+1
// per-thread contexts (workers plus the main thread). clk drives Tick's dt
// computation; each Tick passes a dticks of 1.
func New(cfg Config, clk Clock, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := engineOptions{logger: enginelog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	registry := threadreg.New()
	ex := executor.New(registry, cfg.WorkerThreadCount,
		executor.WithLogger(o.logger), executor.WithMetrics(o.metrics))
	pf := pathfind.New(cfg.WorkerThreadCount+1, cfg.PathEntryRefreshIntervalTicks, cfg.StepCosts,
		pathfind.WithMetrics(o.metrics))

	return &Engine{
		config:     cfg,
		clock:      clk,
		logger:     o.logger,
		metrics:    o.metrics,
		registry:   registry,
		executor:   ex,
		components: component.NewStore(component.WithMetrics(o.metrics)),
		systems:    system.NewManager(),
		pathfinder: pf,
		lastTime:   clk.Now(),
	}, nil
}

// Components, Systems, Pathfinder and Executor expose the constructed
// collaborators so callers can register component types and systems before
// the first Tick, and drive pathfinding from within system callbacks.
func (e *Engine) Components() *component.Store    { return e.components }
func (e *Engine) Systems() *system.Manager        { return e.systems }
func (e *Engine) Pathfinder() *pathfind.Pathfinder { return e.pathfinder }
func (e *Engine) Executor() *executor.Executor    { return e.executor }

// Freeze forbids further component type registration, matching
// ComponentStore's "registration is frozen once simulation starts" contract.
// Callers should register every component type and system before calling
// this, then call it once before the first Tick.
func (e *Engine) Freeze() {
	e.components.Freeze()
}

// Tick advances the simulation by one step: computes dt from the wall-clock
// delta since the previous Tick (or since construction, for the first call),
// increments the tick counter, drives SystemManager.Update for this tick,
// then runs the Pathfinder's per-tick expiry sweep.
func (e *Engine) Tick() {
	started := time.Now()
	now := e.clock.Now()
	dt := now.Sub(e.lastTime).Seconds()
	e.lastTime = now
	e.tick++

	e.systems.Update(e.executor, e.components, e.pathfinder, dt, 1, e.tick)
	e.pathfinder.Process(e.executor, e.tick)

	e.metrics.ObserveTick(time.Since(started).Seconds())
}

// CurrentTick returns the tick counter as of the most recent Tick call.
func (e *Engine) CurrentTick() uint64 {
	return e.tick
}

// Close tears down the worker pool, joining every worker goroutine.
func (e *Engine) Close() {
	e.executor.Close()
}
