package system

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floweryclover/settlement-engine/engine/component"
	"github.com/floweryclover/settlement-engine/engine/entity"
	"github.com/floweryclover/settlement-engine/engine/executor"
	"github.com/floweryclover/settlement-engine/engine/pathfind"
	"github.com/floweryclover/settlement-engine/engine/threadreg"
)

type health struct{ HP int }

type healSystem struct{}
type loggingSystem struct{}

func newHarness(t *testing.T, workerCount uint32) (*executor.Executor, *component.Store) {
	t.Helper()
	registry := threadreg.New()
	ex := executor.New(registry, workerCount)
	t.Cleanup(ex.Close)

	store := component.NewStore()
	set := component.Register[health](store)
	for i := uint32(0); i < 100; i++ {
		*set.CreateFor(entity.New(0, i)) = health{HP: int(i) + 1}
	}
	store.Freeze()
	return ex, store
}

func TestMultiThreadedProcessThenApply(t *testing.T) {
	ex, store := newHarness(t, 4)
	pf := pathfind.New(1, 100, pathfind.DefaultStepCosts)

	var mu sync.Mutex
	var order []string
	total := 0

	mgr := NewManager()
	RegisterMultiThreaded[healSystem, health, int](mgr, MultiThreadedBlueprint[health, int]{
		Process: func(e entity.Entity, axis *health, ctx ImmutableContext, workerId uint32) (int, bool) {
			return axis.HP, true
		},
		Apply: func(revisions []int, ctx ImmutableContext) {
			mu.Lock()
			defer mu.Unlock()
			for _, r := range revisions {
				total += r
			}
			order = append(order, "apply")
		},
	})
	RegisterSingleThreaded[loggingSystem](mgr, SingleThreadedBlueprint{
		ProcessAndApply: func(ctx ImmutableContext) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, "single")
		},
	})

	mgr.Update(ex, store, pf, 0.016, 1, 1)

	want := 0
	for i := 1; i <= 100; i++ {
		want += i
	}
	assert.Equal(t, want, total)
	require.Len(t, order, 2)
	assert.Equal(t, []string{"apply", "single"}, order)
}

func TestZeroWorkersStillRunsSingleThreaded(t *testing.T) {
	ex, store := newHarness(t, 0)
	pf := pathfind.New(1, 100, pathfind.DefaultStepCosts)

	ran := false
	mgr := NewManager()
	RegisterSingleThreaded[loggingSystem](mgr, SingleThreadedBlueprint{
		ProcessAndApply: func(ctx ImmutableContext) { ran = true },
	})

	mgr.Update(ex, store, pf, 0.016, 1, 1)
	assert.True(t, ran, "single-threaded system should run even with a zero-worker Executor")
}

func TestUpdateNoopWithNoRegistrations(t *testing.T) {
	ex, store := newHarness(t, 2)
	pf := pathfind.New(1, 100, pathfind.DefaultStepCosts)

	mgr := NewManager()
	mgr.Update(ex, store, pf, 0.016, 1, 1)
}

func TestDuplicateMultiThreadedRegistrationPanics(t *testing.T) {
	mgr := NewManager()
	RegisterMultiThreaded[healSystem, health, int](mgr, MultiThreadedBlueprint[health, int]{
		Process: func(e entity.Entity, axis *health, ctx ImmutableContext, workerId uint32) (int, bool) { return 0, false },
		Apply:   func(revisions []int, ctx ImmutableContext) {},
	})

	assert.Panics(t, func() {
		RegisterMultiThreaded[healSystem, health, int](mgr, MultiThreadedBlueprint[health, int]{
			Process: func(e entity.Entity, axis *health, ctx ImmutableContext, workerId uint32) (int, bool) { return 0, false },
			Apply:   func(revisions []int, ctx ImmutableContext) {},
		})
	})
}

func TestSystemIdCrossListCollisionPanics(t *testing.T) {
	mgr := NewManager()
	RegisterSingleThreaded[healSystem](mgr, SingleThreadedBlueprint{ProcessAndApply: func(ctx ImmutableContext) {}})

	assert.Panics(t, func() {
		RegisterMultiThreaded[healSystem, health, int](mgr, MultiThreadedBlueprint[health, int]{
			Process: func(e entity.Entity, axis *health, ctx ImmutableContext, workerId uint32) (int, bool) { return 0, false },
			Apply:   func(revisions []int, ctx ImmutableContext) {},
		})
	})
}
