// Package pathfind implements the per-thread A* pathfinder: a
// version-tagged grid (so grid reuse costs O(1) per search), a binary heap
// ordered by g+h, a free-list pool of path nodes, and a sparse pool of path
// entries keyed by an opaque PathHandle.
//
// Grounded on original_source/G_Pathfinder.h/.cpp. The search runs in
// reverse — seeded at the goal, expanding until the start is visited — per
// SPEC_FULL.md §4 Supplement; this is load-bearing for the reconstruction
// walk below and must not be "corrected" to a forward-seeded search.
package pathfind

import (
	"container/heap"
	"time"

	"github.com/floweryclover/settlement-engine/engine/executor"
	"github.com/floweryclover/settlement-engine/engine/threadreg"
	"github.com/floweryclover/settlement-engine/engineerr"
	"github.com/floweryclover/settlement-engine/enginemetrics"
)

// Pos is a tile coordinate on the cost/flood-fill grid.
type Pos struct {
	X, Y int32
}

//go:generate mockgen -destination=mocks/mock_pathfind.go -package=mocks -source=pathfind.go CostGrid FloodFill

// CostGrid is the map/terrain collaborator: a tiled 2D array of per-step
// costs, interpreted as additional traversal cost for entering a cell
// (spec.md §6: "interpreted as per-step cost by the pathfinder"). Ingestion
// only; its concrete source is out of scope for this module.
type CostGrid interface {
	Size() (width, height int)
	At(p Pos) uint32
}

// InfiniteCost marks a cell as impassable: the search never expands into a
// cell whose CostGrid value is InfiniteCost.
const InfiniteCost = ^uint32(0)

// UninitializedFloodFillCell is the sentinel flood-fill value CanReach
// treats as "not part of any connected component."
const UninitializedFloodFillCell = ^uint32(0)

// FloodFill is the precomputed connected-components layer CanReach queries.
type FloodFill interface {
	Size() (width, height int)
	TryAt(p Pos) (uint32, bool)
}

// PathHandle is a weak, opaque reference to a PathEntry: (producer thread,
// slot). A handle issued by thread T may only be advanced/read by thread T;
// cross-thread use is a programmer error.
type PathHandle struct {
	ThreadId uint32
	EntryId  uint32
}

// PathContext is the caller-facing snapshot returned by GetPathContext.
type PathContext struct {
	From, To Pos
	Current  *Pos
}

// StepCosts configures the cardinal/diagonal step costs used by the search
// (spec.md §6 construction-time configuration; defaults 10/14).
type StepCosts struct {
	Cardinal uint32
	Diagonal uint32
}

// DefaultStepCosts matches spec.md's specified constants.
var DefaultStepCosts = StepCosts{Cardinal: 10, Diagonal: 14}

type pathNode struct {
	x, y int32
	next *pathNode
}

type pathEntry struct {
	expiryTick uint64
	head       *pathNode
	current    *pathNode
	from, to   Pos
}

type astarNode struct {
	pos        Pos
	next       Pos
	g, h       uint32
	version    uint32
	heapIndex  int
}

type astarHeap []*astarNode

func (h astarHeap) Len() int { return len(h) }
func (h astarHeap) Less(i, j int) bool {
	return h[i].g+h[i].h < h[j].g+h[j].h
}
func (h astarHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}
func (h *astarHeap) Push(x any) {
	n := x.(*astarNode)
	n.heapIndex = len(*h)
	*h = append(*h, n)
}
func (h *astarHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return node
}

// freeListPool hands out *pathNode values from a free list, falling back to
// a fresh allocation when the list is empty.
type freeListPool struct {
	free *pathNode
}

func (p *freeListPool) acquire() *pathNode {
	if p.free == nil {
		return &pathNode{}
	}
	n := p.free
	p.free = n.next
	n.next = nil
	return n
}

func (p *freeListPool) release(n *pathNode) {
	n.next = p.free
	p.free = n
}

// entrySlot is a sparse-array slot: either live (entry populated) or free
// (next points at the next free slot, forming a free list over the backing
// array itself).
type entrySlot struct {
	live  bool
	entry pathEntry
	next  uint32
}

type entryPool struct {
	slots    []entrySlot
	freeHead uint32
	hasFree  bool
}

func (p *entryPool) emplace(e pathEntry) uint32 {
	if p.hasFree {
		id := p.freeHead
		slot := &p.slots[id]
		p.freeHead = slot.next
		p.hasFree = p.freeHead != noFree
		slot.live = true
		slot.entry = e
		return id
	}
	id := uint32(len(p.slots))
	p.slots = append(p.slots, entrySlot{live: true, entry: e})
	return id
}

const noFree = ^uint32(0)

func (p *entryPool) get(id uint32) (*pathEntry, bool) {
	if id >= uint32(len(p.slots)) || !p.slots[id].live {
		return nil, false
	}
	return &p.slots[id].entry, true
}

func (p *entryPool) erase(id uint32) {
	if id >= uint32(len(p.slots)) || !p.slots[id].live {
		return
	}
	p.slots[id] = entrySlot{live: false, next: p.freeHead}
	if !p.hasFree {
		p.slots[id].next = noFree
	}
	p.freeHead = id
	p.hasFree = true
}

// perThreadContext is one thread's entire A* working set: grid, heap, node
// pool, and entry pool. Per-thread contexts are created once, at
// construction, and never migrated between threads (spec.md §9).
type perThreadContext struct {
	searchVersion uint32
	gridW, gridH  int
	grid          []astarNode

	queue          astarHeap
	pathMakerStack []*astarNode
	nodePool       freeListPool
	entries        entryPool
}

func (c *perThreadContext) resize(w, h int) {
	c.gridW, c.gridH = w, h
	c.grid = make([]astarNode, w*h)
}

func (c *perThreadContext) nodeAt(p Pos) *astarNode {
	return &c.grid[int(p.Y)*c.gridW+int(p.X)]
}

func isValid(w, h int, p Pos) bool {
	return p.X >= 0 && p.Y >= 0 && int(p.X) < w && int(p.Y) < h
}

var directionOffsets = [8]Pos{
	{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: -1, Y: 0}, {X: 1, Y: 0},
	{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
}

// heuristic is the admissible, monotone cost function the host supplies
// (spec.md §6, "treat GetH as a monotone admissible cost function"). This
// package's default is octile distance consistent with the 10/14 step
// costs; callers needing domain-specific terrain heuristics should supply
// their own via WithHeuristic.
func defaultHeuristic(costs StepCosts) func(from, to Pos) uint32 {
	return func(from, to Pos) uint32 {
		dx := abs32(to.X - from.X)
		dy := abs32(to.Y - from.Y)
		var minD, maxD int32
		if dx < dy {
			minD, maxD = dx, dy
		} else {
			minD, maxD = dy, dx
		}
		return uint32(maxD)*costs.Cardinal + uint32(minD)*(costs.Diagonal-costs.Cardinal)
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Pathfinder owns one perThreadContext per registered thread (main + every
// Executor worker) and the expiry bookkeeping shared across ticks.
type Pathfinder struct {
	perThread       []perThreadContext
	costs           StepCosts
	refreshInterval uint64
	heuristic       func(from, to Pos) uint32
	metrics         *enginemetrics.Recorder
}

// Option configures a Pathfinder at construction.
type Option func(*Pathfinder)

// WithHeuristic overrides the default octile-distance heuristic.
func WithHeuristic(h func(from, to Pos) uint32) Option {
	return func(p *Pathfinder) { p.heuristic = h }
}

// WithMetrics attaches a metrics recorder; defaults to nil (no-op).
func WithMetrics(recorder *enginemetrics.Recorder) Option {
	return func(p *Pathfinder) { p.metrics = recorder }
}

// New builds a Pathfinder with one context per thread id in
// [0, threadCount), matching original_source/G_Pathfinder.cpp's
// PerThreadContexts sizing to F_Threads::GetThreadCount(). Call this after
// the Executor has locked thread registration so threadCount is final.
func New(threadCount uint32, refreshIntervalTicks uint64, costs StepCosts, opts ...Option) *Pathfinder {
	p := &Pathfinder{
		perThread:       make([]perThreadContext, threadCount),
		costs:           costs,
		refreshInterval: refreshIntervalTicks,
	}
	p.heuristic = defaultHeuristic(costs)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pathfind runs a reverse-seeded A* search on behalf of threadId (the
// caller's own registered thread id — see PathHandle) and returns a handle
// to the resulting path entry, empty if unreachable. An endpoint outside the
// grid is an OutOfBounds domain miss (spec.md §7), not a programmer error: it
// yields the same empty-path entry as an unreachable goal rather than
// indexing the grid out of range.
func (p *Pathfinder) Pathfind(threadId uint32, grid CostGrid, from, to Pos) PathHandle {
	if p.metrics != nil {
		started := time.Now()
		defer func() { p.metrics.ObservePathfind(time.Since(started).Seconds()) }()
	}
	if int(threadId) >= len(p.perThread) {
		engineerr.Raise("pathfind: Pathfind called with unregistered threadId %d", threadId)
	}
	ctx := &p.perThread[threadId]

	w, h := grid.Size()
	if !isValid(w, h, from) || !isValid(w, h, to) {
		id := ctx.entries.emplace(pathEntry{from: from, to: to})
		return PathHandle{ThreadId: threadId, EntryId: id}
	}

	ctx.searchVersion++
	if ctx.gridW != w || ctx.gridH != h {
		ctx.resize(w, h)
	}

	ctx.queue = ctx.queue[:0]
	goalNode := ctx.nodeAt(to)
	*goalNode = astarNode{
		pos:     to,
		next:    to,
		g:       0,
		h:       p.heuristic(from, to),
		version: ctx.searchVersion,
	}
	heap.Push(&ctx.queue, goalNode)

	fromNode := ctx.nodeAt(from)
	for ctx.queue.Len() > 0 && fromNode.version != ctx.searchVersion {
		current := heap.Pop(&ctx.queue).(*astarNode)

		for _, offset := range directionOffsets {
			near := Pos{X: current.pos.X + offset.X, Y: current.pos.Y + offset.Y}
			if !isValid(w, h, near) {
				continue
			}
			nearNode := ctx.nodeAt(near)
			if nearNode.version == ctx.searchVersion {
				continue
			}
			cellCost := grid.At(near)
			if cellCost == InfiniteCost {
				continue
			}

			stepCost := p.costs.Cardinal
			if offset.X != 0 && offset.Y != 0 {
				stepCost = p.costs.Diagonal
			}
			stepCost += cellCost

			nearNode.version = ctx.searchVersion
			nearNode.pos = near
			nearNode.next = current.pos
			nearNode.g = current.g + stepCost
			nearNode.h = p.heuristic(from, near)
			heap.Push(&ctx.queue, nearNode)
		}
	}

	if fromNode.version != ctx.searchVersion {
		id := ctx.entries.emplace(pathEntry{from: from, to: to})
		return PathHandle{ThreadId: threadId, EntryId: id}
	}

	ctx.pathMakerStack = ctx.pathMakerStack[:0]
	for current := fromNode; ; current = ctx.nodeAt(current.next) {
		ctx.pathMakerStack = append(ctx.pathMakerStack, current)
		if current.pos == to {
			break
		}
	}

	var head *pathNode
	for i := len(ctx.pathMakerStack) - 1; i >= 0; i-- {
		n := ctx.pathMakerStack[i]
		node := ctx.nodePool.acquire()
		node.x, node.y = n.pos.X, n.pos.Y
		node.next = head
		head = node
	}

	id := ctx.entries.emplace(pathEntry{head: head, current: head, from: from, to: to})
	return PathHandle{ThreadId: threadId, EntryId: id}
}

// CanReach reports whether from and to lie in the same connected component
// of floodFill, via O(1) lookup on the precomputed layer.
func (p *Pathfinder) CanReach(floodFill FloodFill, from, to Pos) bool {
	fromCell, ok := floodFill.TryAt(from)
	if !ok {
		return false
	}
	toCell, ok := floodFill.TryAt(to)
	if !ok {
		return false
	}
	return fromCell != UninitializedFloodFillCell && fromCell == toCell
}

func (p *Pathfinder) getEntry(handle PathHandle, currentTick uint64) (*pathEntry, bool) {
	if int(handle.ThreadId) >= len(p.perThread) {
		engineerr.Raise("pathfind: handle references unregistered threadId %d", handle.ThreadId)
	}
	e, ok := p.perThread[handle.ThreadId].entries.get(handle.EntryId)
	if !ok {
		return nil, false
	}
	e.expiryTick = currentTick + 2*p.refreshInterval
	return e, true
}

// AdvancePath steps handle's current path node forward, refreshing its
// expiry.
func (p *Pathfinder) AdvancePath(handle PathHandle, currentTick uint64) {
	entry, ok := p.getEntry(handle, currentTick)
	if !ok || entry.current == nil {
		return
	}
	entry.current = entry.current.next
}

// GetPathContext resolves handle, refreshing its expiry, and returns the
// caller-facing snapshot. ok is false if the handle has expired.
func (p *Pathfinder) GetPathContext(handle PathHandle, currentTick uint64) (PathContext, bool) {
	entry, ok := p.getEntry(handle, currentTick)
	if !ok {
		return PathContext{}, false
	}
	ctx := PathContext{From: entry.from, To: entry.to}
	if entry.current != nil {
		ctx.Current = &Pos{X: entry.current.x, Y: entry.current.y}
	}
	return ctx, true
}

// Process runs the per-tick expiry sweep: first on behalf of the main
// thread, then once per Executor worker via ParallelForWorkerThreads.
func (p *Pathfinder) Process(ex *executor.Executor, currentTick uint64) {
	p.processImpl(threadreg.MainId, currentTick)

	type noResult struct{}
	executor.ParallelForWorkerThreads[noResult](ex, func(workerId uint32) (noResult, bool) {
		p.processImpl(workerId, currentTick)
		return noResult{}, false
	})
}

func (p *Pathfinder) processImpl(threadId uint32, currentTick uint64) {
	if int(threadId) >= len(p.perThread) {
		return
	}
	ctx := &p.perThread[threadId]
	for id := uint32(0); id < uint32(len(ctx.entries.slots)); id++ {
		slot := &ctx.entries.slots[id]
		if !slot.live {
			continue
		}
		entry := &slot.entry
		switch {
		case entry.expiryTick == 0:
			entry.expiryTick = currentTick + 2*p.refreshInterval
		case entry.expiryTick < currentTick:
			for n := entry.head; n != nil; {
				next := n.next
				ctx.nodePool.release(n)
				n = next
			}
			ctx.entries.erase(id)
		}
	}
}
