// Package executor implements the fixed-size worker pool that fans
// per-tick work out over dense component/event ranges or once per worker
// thread, collecting per-worker result streams. It is grounded on
// original_source/ParallelExecutor.h/.cpp (F_Executor) — the canonical,
// chunked-fetch-add design spec.md §9 calls for, not the forbidden
// pipelined-cursor variant in CAS_Bad_Cpu.h (see DESIGN.md).
package executor

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/floweryclover/settlement-engine/engine/entity"
	"github.com/floweryclover/settlement-engine/engine/threadreg"
	"github.com/floweryclover/settlement-engine/engineerr"
	"github.com/floweryclover/settlement-engine/enginemetrics"
)

// baseResultCapacity is the initial element capacity of a worker's result
// arena, doubled on overflow — styled on the teacher's slab/buddy allocator
// growth texture (kernel/threads/arena/slab.go) and the original's
// BaseThreadMemorySize.
const baseResultCapacity = 64

// DefaultChunkSize is used by callers that don't need to tune dispatch
// granularity.
const DefaultChunkSize = 32

type worker struct {
	id      uint32
	working atomic.Bool
	wake    chan struct{}
	done    chan struct{}
}

// Executor owns a fixed pool of worker goroutines parked on per-worker wake
// flags, and the single shared work closure the main goroutine installs
// before each dispatch.
type Executor struct {
	registry *threadreg.Registry
	logger   *zap.Logger
	metrics  *enginemetrics.Recorder

	workers    []*worker
	shouldStop atomic.Bool
	cursor     atomic.Uint32
	joinGroup  sync.WaitGroup

	work func(workerIndex int)
}

// Option configures an Executor at construction.
type Option func(*Executor)

// WithLogger attaches a structured logger; defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithMetrics attaches a metrics recorder; defaults to nil (no-op).
func WithMetrics(recorder *enginemetrics.Recorder) Option {
	return func(e *Executor) { e.metrics = recorder }
}

// New spawns workerCount worker goroutines, each of which registers thread
// ids 1..workerCount with registry, then parks waiting for the first wake.
// Once every worker has reported its initial registration, registry is
// locked. workerCount == 0 is legal: no workers are spawned, and the three
// ParallelFor APIs return immediately with zero results (spec.md §8 scenario
// 6).
func New(registry *threadreg.Registry, workerCount uint32, opts ...Option) *Executor {
	e := &Executor{
		registry: registry,
		logger:   zap.NewNop(),
		work:     func(int) {},
	}
	for _, opt := range opts {
		opt(e)
	}

	e.workers = make([]*worker, workerCount)
	initDone := make(chan struct{}, workerCount)
	for i := uint32(0); i < workerCount; i++ {
		w := &worker{id: i + 1, wake: make(chan struct{}, 1), done: make(chan struct{}, 1)}
		w.working.Store(true)
		e.workers[i] = w
		e.joinGroup.Add(1)
		go e.workerBody(w, initDone)
	}
	for i := uint32(0); i < workerCount; i++ {
		<-initDone
	}
	registry.LockRegistration()
	return e
}

func (e *Executor) workerBody(w *worker, initDone chan<- struct{}) {
	defer e.joinGroup.Done()
	e.registry.Register(w.id)
	w.working.Store(false)
	initDone <- struct{}{}
	e.setMetrics()

	for !e.shouldStop.Load() {
		<-w.wake
		if e.shouldStop.Load() {
			break
		}

		e.work(int(w.id) - 1)

		w.working.Store(false)
		e.setMetrics()
		w.done <- struct{}{}
	}

	w.working.Store(false)
	e.registry.Unregister(w.id)
}

func (e *Executor) setMetrics() {
	if e.metrics == nil {
		return
	}
	parked := 0
	for _, w := range e.workers {
		if !w.working.Load() {
			parked++
		}
	}
	e.metrics.SetWorkersParked(float64(parked))
}

// dispatch installs work as the shared closure, wakes every worker exactly
// once, and blocks until every worker has reported completion — one
// dispatch, one wake, one completion notification per worker, matching
// spec.md §4.4's parking protocol.
func (e *Executor) dispatch(work func(workerIndex int)) {
	if len(e.workers) == 0 {
		return
	}
	e.work = work
	e.cursor.Store(0)

	for _, w := range e.workers {
		w.working.Store(true)
		w.wake <- struct{}{}
	}
	for _, w := range e.workers {
		<-w.done
	}
}

// Close stops every worker: sets should_stop, installs a no-op closure,
// wakes every worker so it observes should_stop and exits, joins every
// worker goroutine, then unlocks thread registration.
func (e *Executor) Close() {
	if e.shouldStop.Swap(true) {
		return
	}
	e.work = func(int) {}
	for _, w := range e.workers {
		w.wake <- struct{}{}
	}
	e.joinGroup.Wait()
	e.registry.UnlockRegistration()
}

// WorkerCount returns the number of worker goroutines this Executor owns.
func (e *Executor) WorkerCount() int {
	return len(e.workers)
}

// resultArena is a worker's growable, doubling result buffer. Unlike the
// original's raw byte block + memcpy, Go generics give us a typed growable
// slice directly; the doubling-growth policy is kept from
// original_source/ParallelExecutor.h's ExtendPageAtLeast and the teacher's
// slab allocator texture (see DESIGN.md).
type resultArena[R any] struct {
	values []R
}

func newResultArena[R any]() *resultArena[R] {
	return &resultArena[R]{values: make([]R, 0, baseResultCapacity)}
}

func (a *resultArena[R]) append(v R) {
	a.values = append(a.values, v)
}

// ExecutionResults is the concatenated, single-pass view over every
// worker's result arena for one dispatch. It must not outlive the next
// dispatch (spec.md §7, ProgrammerError: "ExecutionResults outliving the
// next dispatch" — this implementation does not detect that misuse at
// runtime, matching the original which relies on range-for-only usage by
// convention).
type ExecutionResults[R any] struct {
	arenas []*resultArena[R]
}

// ResultIterator walks every non-empty worker arena in order.
type ResultIterator[R any] struct {
	results *ExecutionResults[R]
	arena   int
	index   int
	began   bool
}

// Iterate returns a fresh, skip-empty-arenas iterator, per
// original_source/ParallelExecutor.h's ExecutionResults::begin() (see
// SPEC_FULL.md §4 Supplement).
func (r *ExecutionResults[R]) Iterate() *ResultIterator[R] {
	return &ResultIterator[R]{results: r}
}

// Next advances the iterator, skipping any worker arena with zero elements.
func (it *ResultIterator[R]) Next() bool {
	if !it.began {
		it.began = true
	} else {
		it.index++
	}
	for it.arena < len(it.results.arenas) && it.index >= len(it.results.arenas[it.arena].values) {
		it.arena++
		it.index = 0
	}
	return it.arena < len(it.results.arenas)
}

// Value returns the element at the iterator's current position.
func (it *ResultIterator[R]) Value() R {
	return it.results.arenas[it.arena].values[it.index]
}

// Len returns the total element count across every worker arena.
func (r *ExecutionResults[R]) Len() int {
	n := 0
	for _, a := range r.arenas {
		n += len(a.values)
	}
	return n
}

// axisResolver resolves the i'th element of a parallel-for axis, reporting
// (entity-or-zero-value, ok). ok is false when i is at or past the live
// count, the per-element signal that terminates a worker's chunk loop
// early, matching the original's "if (!axis.second) return;".
type axisResolver[T any] func(i uint32) (entity.Entity, *T, bool)

// parallelFor is the shared chunked-fetch-add dispatch loop underlying
// ParallelForComponents and ParallelForEvents: each worker repeatedly
// fetch-adds chunkSize onto a shared cursor, processes its slice of the
// axis, and returns (exits its own loop) the first time it resolves an
// index at or past the live count.
func parallelFor[T, R any](e *Executor, resolve axisResolver[T], chunkSize uint32, task func(workerId uint32, axisEntity entity.Entity, value *T) (R, bool)) *ExecutionResults[R] {
	if chunkSize == 0 {
		engineerr.Raise("executor: parallel-for chunkSize must be >= 1")
	}
	results := &ExecutionResults[R]{arenas: make([]*resultArena[R], len(e.workers))}
	for i := range results.arenas {
		results.arenas[i] = newResultArena[R]()
	}
	if len(e.workers) == 0 {
		return results
	}

	e.dispatch(func(workerIndex int) {
		arena := results.arenas[workerIndex]
		workerId := e.workers[workerIndex].id
		for {
			end := e.cursor.Add(chunkSize)
			begin := end - chunkSize
			for i := begin; i < end; i++ {
				axisEntity, value, ok := resolve(i)
				if !ok {
					return
				}
				if result, emit := task(workerId, axisEntity, value); emit {
					arena.append(result)
				}
			}
		}
	})
	return results
}

// ParallelForComponents partitions the dense index space of set into chunks
// of chunkSize, handed out to workers via the shared fetch-add cursor. Each
// worker resolves (entity, component) via GetByDenseIndex and invokes task;
// a returned (result, true) is appended to that worker's arena. Workers
// exit their loop the first time they resolve an index at or past the live
// count. See spec.md §4.4 shape 1.
//
// The axis is supplied as a getByDenseIndex lookup function rather than a
// *sparseset.Set[T]; SystemManager passes a set's GetByDenseIndex method (see
// system.go for the typed wrapper it uses).
func ParallelForComponents[T, R any](e *Executor, getByDenseIndex func(uint32) (entity.Entity, *T, bool), chunkSize uint32, task func(workerId uint32, e entity.Entity, v *T) (R, bool)) *ExecutionResults[R] {
	return parallelFor[T, R](e, axisResolver[T](getByDenseIndex), chunkSize, task)
}

// ParallelForEvents mirrors ParallelForComponents with the EventQueue's dense
// index as the axis. See spec.md §4.4 shape 2.
func ParallelForEvents[E, R any](e *Executor, at func(uint32) (*E, bool), chunkSize uint32, task func(workerId uint32, v *E) (R, bool)) *ExecutionResults[R] {
	resolve := func(i uint32) (entity.Entity, *E, bool) {
		v, ok := at(i)
		return entity.Null, v, ok
	}
	return parallelFor[E, R](e, resolve, chunkSize, func(workerId uint32, _ entity.Entity, v *E) (R, bool) {
		return task(workerId, v)
	})
}

// ParallelForWorkerThreads runs task exactly once per worker; at most one
// result per worker. Used for per-worker housekeeping such as the
// pathfinder's expiry sweep. See spec.md §4.4 shape 3.
func ParallelForWorkerThreads[R any](e *Executor, task func(workerId uint32) (R, bool)) *ExecutionResults[R] {
	results := &ExecutionResults[R]{arenas: make([]*resultArena[R], len(e.workers))}
	for i := range results.arenas {
		results.arenas[i] = newResultArena[R]()
	}
	if len(e.workers) == 0 {
		return results
	}

	e.dispatch(func(workerIndex int) {
		w := e.workers[workerIndex]
		if result, emit := task(w.id); emit {
			results.arenas[workerIndex].append(result)
		}
	})
	return results
}
