// Command ecsdemo wires a small simulation on top of the engine package:
// a handful of entities with position/health components, a multi-threaded
// movement system, and a single-threaded logging system, ticked a fixed
// number of times against the real-time clock.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/floweryclover/settlement-engine/engine"
	"github.com/floweryclover/settlement-engine/engine/component"
	"github.com/floweryclover/settlement-engine/engine/entity"
	"github.com/floweryclover/settlement-engine/engine/pathfind"
	"github.com/floweryclover/settlement-engine/engine/system"
	"github.com/floweryclover/settlement-engine/enginelog"
)

type position struct {
	X, Y int32
}

type health struct {
	HP int
}

type movementSystem struct{}
type reportingSystem struct{}

type flatGrid struct{ w, h int }

func (g flatGrid) Size() (int, int) { return g.w, g.h }
func (g flatGrid) At(pathfind.Pos) uint32 { return 0 }

func run(entityCount int, ticks int) error {
	logger := enginelog.NewDevelopment()
	defer logger.Sync()

	cfg := engine.DefaultConfig()
	cfg.WorkerThreadCount = 4
	cfg.PathEntryRefreshIntervalTicks = 120

	e, err := engine.New(cfg, engine.NewClock(), engine.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("constructing engine: %w", err)
	}
	defer e.Close()

	positions := component.Register[position](e.Components())
	component.Register[health](e.Components())
	for i := 0; i < entityCount; i++ {
		ent := entity.New(0, uint32(i))
		*positions.CreateFor(ent) = position{X: int32(i), Y: 0}
		*component.Create[health](e.Components(), ent) = health{HP: 100}
	}
	e.Freeze()

	grid := flatGrid{w: 256, h: 256}

	system.RegisterMultiThreaded[movementSystem, position, entity.Entity](e.Systems(), system.MultiThreadedBlueprint[position, entity.Entity]{
		Process: func(ent entity.Entity, axis *position, ctx system.ImmutableContext, workerId uint32) (entity.Entity, bool) {
			axis.X++
			ctx.Pathfinder.Pathfind(workerId, grid, pathfind.Pos{X: axis.X, Y: axis.Y}, pathfind.Pos{X: axis.X + 10, Y: axis.Y})
			return ent, true
		},
		Apply: func(revisions []entity.Entity, ctx system.ImmutableContext) {
			logger.Sugar().Infof("movement: %d entities advanced this tick", len(revisions))
		},
	})

	system.RegisterSingleThreaded[reportingSystem](e.Systems(), system.SingleThreadedBlueprint{
		ProcessAndApply: func(ctx system.ImmutableContext) {
			logger.Sugar().Infof("tick %d complete (dt=%.4f)", ctx.Tick, ctx.DeltaTime)
		},
	})

	for i := 0; i < ticks; i++ {
		e.Tick()
	}
	return nil
}

func main() {
	entityCount := flag.Int("entities", 1000, "number of entities to simulate")
	ticks := flag.Int("ticks", 10, "number of ticks to run")
	flag.Parse()

	if err := run(*entityCount, *ticks); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
