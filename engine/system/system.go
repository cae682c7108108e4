// Package system implements SystemManager: ordered registration lists for
// multi-threaded and single-threaded system blueprints, driven once per tick
// across the Executor's worker pool. Grounded on original_source's
// F_SystemManager update loop and ParallelExecutor.h's barrier contract — not
// the forbidden pipelined-cursor variant in CAS_Bad_Cpu.h/FetchAdd_Good_Cpu.cpp
// (see DESIGN.md).
package system

import (
	"reflect"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/floweryclover/settlement-engine/engine/component"
	"github.com/floweryclover/settlement-engine/engine/entity"
	"github.com/floweryclover/settlement-engine/engine/executor"
	"github.com/floweryclover/settlement-engine/engine/pathfind"
	"github.com/floweryclover/settlement-engine/engineerr"
)

// Id identifies a registered system blueprint, derived once from a caller-
// supplied marker type — distinct from the blueprint's axis component type,
// since two systems may iterate the same axis.
type Id uint64

// IdOf derives a system Id from marker type S without requiring a value of S.
func IdOf[S any]() Id {
	var zero S
	t := reflect.TypeOf(zero)
	var name string
	if t == nil {
		name = reflect.TypeOf((*S)(nil)).Elem().String()
	} else {
		name = t.PkgPath() + "." + t.Name()
	}
	return Id(xxhash.Sum64String(name))
}

// ImmutableContext carries the per-tick, read-only state every Process and
// Apply callback receives: the component store, the pathfinder, and the
// tick's timing triple. Workers must not mutate Store concurrently with the
// Executor's dense iteration; see spec.md §4.2's concurrency contract.
//
// ImmutableContext carries no EventQueue: a system that needs one captures
// its own typed queue instance directly in its Process/Apply closures rather
// than going through this untyped context.
type ImmutableContext struct {
	Store      *component.Store
	Pathfinder *pathfind.Pathfinder
	DeltaTime  float64
	DeltaTicks uint64
	Tick       uint64
}

// MultiThreadedBlueprint is a system whose Process phase runs fanned out
// across the Executor's workers, one call per axis element of component type
// T, and whose Apply phase runs once, serially, on the main thread after the
// barrier. Process may emit a revision record of type W by returning
// (value, true); every emitted value for this tick is collected (in
// arbitrary order — see the revisionStack doc comment) and handed to Apply as
// a slice.
//
// Process always receives a mutable axis *T; Go has no way to express the
// TotallyImmutable/MutableAxis access-mode distinction at the type level.
// Treat axis as read-only unless this blueprint is specifically documented
// as a MutableAxis system — mutating it from a TotallyImmutable system is a
// convention violation the compiler cannot catch.
type MultiThreadedBlueprint[T, W any] struct {
	// ChunkSize overrides the Executor's default dispatch granularity; zero
	// means DefaultChunkSize.
	ChunkSize uint32
	Process   func(e entity.Entity, axis *T, ctx ImmutableContext, workerId uint32) (W, bool)
	Apply     func(revisions []W, ctx ImmutableContext)
}

// SingleThreadedBlueprint is a system that never fans out: its combined
// ProcessAndApply runs once per tick on the main thread, after every
// multi-threaded system's Apply has completed.
type SingleThreadedBlueprint struct {
	ProcessAndApply func(ctx ImmutableContext)
}

// revisionNode is one CAS-linked write record produced by a worker's Process
// call. This is the "side-channel" spec.md §4.5 and §5 describe: a lock-free
// Treiber stack, kept distinct from the Executor's own per-worker result
// arenas because revision data must survive across the dispatch/barrier/apply
// boundary of a single system, not just one ParallelForComponents call.
type revisionNode[W any] struct {
	value W
	next  *revisionNode[W]
}

// revisionStack is a lock-free Treiber stack: workers push nodes via CAS on
// the head pointer during Process; Apply drains the whole list at once. Pop
// order is unspecified, matching spec.md §5's "the resulting order is not
// deterministic, so Apply logic must be order-independent."
type revisionStack[W any] struct {
	head atomic.Pointer[revisionNode[W]]
}

func (s *revisionStack[W]) push(v W) {
	n := &revisionNode[W]{value: v}
	for {
		old := s.head.Load()
		n.next = old
		if s.head.CompareAndSwap(old, n) {
			return
		}
	}
}

// drain swaps the head to nil and walks the list that was there, returning
// its values as a slice. This doubles as "release": once swapped out, the
// nodes are unreferenced and collected by the garbage collector, replacing
// the original's explicit free-list-based node release.
func (s *revisionStack[W]) drain() []W {
	head := s.head.Swap(nil)
	var out []W
	for n := head; n != nil; n = n.next {
		out = append(out, n.value)
	}
	return out
}

// multiThreadedSystem type-erases a MultiThreadedBlueprint[T, W] so Manager
// can hold a single ordered list across systems with differing axis and
// revision types.
type multiThreadedSystem interface {
	id() Id
	dispatch(ex *executor.Executor, ctx ImmutableContext)
	apply(ctx ImmutableContext)
}

type registeredMultiThreaded[T, W any] struct {
	systemId  Id
	blueprint MultiThreadedBlueprint[T, W]
	stack     revisionStack[W]
}

func (r *registeredMultiThreaded[T, W]) id() Id { return r.systemId }

func (r *registeredMultiThreaded[T, W]) dispatch(ex *executor.Executor, ctx ImmutableContext) {
	set := component.SetOf[T](ctx.Store)
	chunkSize := r.blueprint.ChunkSize
	if chunkSize == 0 {
		chunkSize = executor.DefaultChunkSize
	}
	executor.ParallelForComponents[T, struct{}](ex, set.GetByDenseIndex, chunkSize,
		func(workerId uint32, e entity.Entity, axis *T) (struct{}, bool) {
			if revision, emit := r.blueprint.Process(e, axis, ctx, workerId); emit {
				r.stack.push(revision)
			}
			return struct{}{}, false
		})
}

func (r *registeredMultiThreaded[T, W]) apply(ctx ImmutableContext) {
	r.blueprint.Apply(r.stack.drain(), ctx)
}

type registeredSingleThreaded struct {
	systemId  Id
	blueprint SingleThreadedBlueprint
}

// Manager holds the ordered multi-threaded and single-threaded system lists
// and drives one tick's worth of Process/Apply phases across them.
//
// Manager itself is not safe for concurrent registration and Update calls;
// registration is expected to complete before the simulation's tick loop
// starts, matching ComponentStore's Freeze-before-simulation pattern.
type Manager struct {
	multi     []multiThreadedSystem
	multiIds  map[Id]bool
	single    []*registeredSingleThreaded
	singleIds map[Id]bool
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{
		multiIds:  make(map[Id]bool),
		singleIds: make(map[Id]bool),
	}
}

func (m *Manager) checkUnique(id Id) {
	if m.multiIds[id] || m.singleIds[id] {
		engineerr.Raise("system: duplicate registration for system id %v", id)
	}
}

// RegisterMultiThreaded registers a multi-threaded system under marker type
// S. It is a programmer error to register the same S twice, in either list.
func RegisterMultiThreaded[S, T, W any](m *Manager, blueprint MultiThreadedBlueprint[T, W]) {
	id := IdOf[S]()
	m.checkUnique(id)
	m.multiIds[id] = true
	m.multi = append(m.multi, &registeredMultiThreaded[T, W]{systemId: id, blueprint: blueprint})
}

// RegisterSingleThreaded registers a single-threaded system under marker
// type S. It is a programmer error to register the same S twice, in either
// list.
func RegisterSingleThreaded[S any](m *Manager, blueprint SingleThreadedBlueprint) {
	id := IdOf[S]()
	m.checkUnique(id)
	m.singleIds[id] = true
	m.single = append(m.single, &registeredSingleThreaded{systemId: id, blueprint: blueprint})
}

// MultiThreadedCount and SingleThreadedCount expose the registration list
// lengths for diagnostics and tests.
func (m *Manager) MultiThreadedCount() int { return len(m.multi) }
func (m *Manager) SingleThreadedCount() int { return len(m.single) }

// Update drives one tick: if both lists are empty, it returns immediately
// (spec.md §4.5 step 1). Otherwise every multi-threaded system dispatches
// and barriers in registration order, then every multi-threaded system's
// Apply runs serially in the same order, then every single-threaded system's
// ProcessAndApply runs serially in registration order.
func (m *Manager) Update(ex *executor.Executor, store *component.Store, pf *pathfind.Pathfinder, dt float64, dticks uint64, tick uint64) {
	if len(m.multi) == 0 && len(m.single) == 0 {
		return
	}

	ctx := ImmutableContext{Store: store, Pathfinder: pf, DeltaTime: dt, DeltaTicks: dticks, Tick: tick}

	for _, sys := range m.multi {
		sys.dispatch(ex, ctx)
	}
	for _, sys := range m.multi {
		sys.apply(ctx)
	}
	for _, sys := range m.single {
		sys.blueprint.ProcessAndApply(ctx)
	}
}
