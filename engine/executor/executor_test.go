package executor

import (
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floweryclover/settlement-engine/engine/entity"
	"github.com/floweryclover/settlement-engine/engine/event"
	"github.com/floweryclover/settlement-engine/engine/sparseset"
	"github.com/floweryclover/settlement-engine/engine/threadreg"
)

func TestThreadIdBijection(t *testing.T) {
	registry := threadreg.New()
	e := New(registry, 4)
	defer e.Close()

	ids := ParallelForWorkerThreads[uint32](e, func(workerId uint32) (uint32, bool) {
		return workerId, true
	})

	var got []int
	for it := ids.Iterate(); it.Next(); {
		got = append(got, int(it.Value()))
	}
	sort.Ints(got)
	require.Len(t, got, 4)
	for i, v := range got {
		assert.Equalf(t, i+1, v, "worker ids = %v, want {1,2,3,4}", got)
	}
}

func TestParallelForComponentsDenseCoverage(t *testing.T) {
	registry := threadreg.New()
	e := New(registry, 4)
	defer e.Close()

	set := sparseset.New[int]()
	const n = 10000
	for i := uint32(0); i < n; i++ {
		*set.CreateFor(entity.New(0, i)) = int(i)
	}

	results := ParallelForComponents[int, uint32](e, set.GetByDenseIndex, 32, func(workerId uint32, ent entity.Entity, v *int) (uint32, bool) {
		return ent.Id(), true
	})

	seen := make(map[uint32]bool, n)
	count := 0
	for it := results.Iterate(); it.Next(); {
		seen[it.Value()] = true
		count++
	}
	assert.Equal(t, n, count)
	assert.Len(t, seen, n, "duplicate or missing dispatch")
}

func TestZeroWorkersDisablesParallelism(t *testing.T) {
	registry := threadreg.New()
	e := New(registry, 0)
	defer e.Close()

	require.Equal(t, 0, e.WorkerCount())

	set := sparseset.New[int]()
	*set.CreateFor(entity.New(0, 0)) = 1

	results := ParallelForComponents[int, int](e, set.GetByDenseIndex, 32, func(workerId uint32, ent entity.Entity, v *int) (int, bool) {
		return *v, true
	})
	assert.Equal(t, 0, results.Len(), "expected 0 with zero workers")
}

func TestParallelForEventsSumsAmounts(t *testing.T) {
	registry := threadreg.New()
	e := New(registry, 4)
	defer e.Close()

	type damage struct{ Amount int32 }
	q := event.NewQueue[damage]()
	const n = 500
	for i := 0; i < n; i++ {
		q.Push(damage{Amount: 1})
	}

	var total atomic.Int32
	results := ParallelForEvents[damage, int32](e, q.At, 16, func(workerId uint32, v *damage) (int32, bool) {
		total.Add(v.Amount)
		return v.Amount, true
	})

	assert.EqualValues(t, n, total.Load())
	assert.Equal(t, n, results.Len())
}

func TestWorkerFlagsClearAfterDispatch(t *testing.T) {
	registry := threadreg.New()
	e := New(registry, 3)
	defer e.Close()

	ParallelForWorkerThreads[struct{}](e, func(uint32) (struct{}, bool) {
		return struct{}{}, false
	})

	for _, w := range e.workers {
		assert.Falsef(t, w.working.Load(), "worker %d still marked working after dispatch returned", w.id)
	}
}
