package engine

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/floweryclover/settlement-engine/engine/pathfind"
)

// Config is the construction-time configuration recognized by New, per
// spec.md §6: worker thread count, path entry refresh interval, and the
// A* step costs.
type Config struct {
	WorkerThreadCount             uint32
	PathEntryRefreshIntervalTicks uint64
	StepCosts                     pathfind.StepCosts
}

// DefaultConfig returns the domain-constant defaults: no worker threads,
// a refresh interval of zero (caller must set one), and the standard
// cardinal/diagonal A* step costs.
func DefaultConfig() Config {
	return Config{
		WorkerThreadCount:             0,
		PathEntryRefreshIntervalTicks: 0,
		StepCosts:                     pathfind.DefaultStepCosts,
	}
}

// Option mutates a Config at construction time.
type Option func(*Config)

// WithWorkerThreadCount sets the Executor's worker count. Zero disables
// parallelism (spec.md §8 scenario 6).
func WithWorkerThreadCount(n uint32) Option {
	return func(c *Config) { c.WorkerThreadCount = n }
}

// WithPathEntryRefreshIntervalTicks sets the pathfinder's expiry refresh
// interval, in ticks.
func WithPathEntryRefreshIntervalTicks(ticks uint64) Option {
	return func(c *Config) { c.PathEntryRefreshIntervalTicks = ticks }
}

// WithStepCosts overrides the A* cardinal/diagonal step costs.
func WithStepCosts(costs pathfind.StepCosts) Option {
	return func(c *Config) { c.StepCosts = costs }
}

// Validate checks every field's domain constraint, collecting every
// violation found rather than stopping at the first — unlike the
// ProgrammerError panics raised inside the engine's hot path, a malformed
// Config is an ordinary, recoverable construction-time error the caller is
// expected to handle (e.g. a bad config file), so violations accumulate via
// multierr instead of aborting the process.
func (c Config) Validate() error {
	var err error
	if c.PathEntryRefreshIntervalTicks == 0 {
		err = multierr.Append(err, fmt.Errorf("engine: PathEntryRefreshIntervalTicks must be >= 1"))
	}
	if c.StepCosts.Cardinal == 0 {
		err = multierr.Append(err, fmt.Errorf("engine: StepCosts.Cardinal must be >= 1"))
	}
	if c.StepCosts.Diagonal < c.StepCosts.Cardinal {
		err = multierr.Append(err, fmt.Errorf("engine: StepCosts.Diagonal (%d) must be >= StepCosts.Cardinal (%d)", c.StepCosts.Diagonal, c.StepCosts.Cardinal))
	}
	return err
}
