package pathfind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floweryclover/settlement-engine/engine/executor"
	"github.com/floweryclover/settlement-engine/engine/threadreg"
)

type emptyGrid struct{ w, h int }

func (g emptyGrid) Size() (int, int) { return g.w, g.h }
func (g emptyGrid) At(Pos) uint32    { return 0 }

type columnWallGrid struct {
	w, h  int
	wallX int32
}

func (g columnWallGrid) Size() (int, int) { return g.w, g.h }
func (g columnWallGrid) At(p Pos) uint32 {
	if p.X == g.wallX {
		return InfiniteCost
	}
	return 0
}

type fakeFloodFill struct {
	w, h   int
	labels map[Pos]uint32
}

func (f fakeFloodFill) Size() (int, int) { return f.w, f.h }
func (f fakeFloodFill) TryAt(p Pos) (uint32, bool) {
	if p.X < 0 || p.Y < 0 || int(p.X) >= f.w || int(p.Y) >= f.h {
		return 0, false
	}
	v, ok := f.labels[p]
	if !ok {
		return UninitializedFloodFillCell, true
	}
	return v, true
}

func pathLength(p *Pathfinder, handle PathHandle, tick uint64) (length int, cost uint32) {
	ctx, ok := p.GetPathContext(handle, tick)
	if !ok || ctx.Current == nil {
		return 0, 0
	}
	length = 1
	prev := *ctx.Current
	for {
		p.AdvancePath(handle, tick)
		next, ok := p.GetPathContext(handle, tick)
		if !ok || next.Current == nil {
			break
		}
		dx, dy := abs32(next.Current.X-prev.X), abs32(next.Current.Y-prev.Y)
		if dx != 0 && dy != 0 {
			cost += DefaultStepCosts.Diagonal
		} else {
			cost += DefaultStepCosts.Cardinal
		}
		length++
		prev = *next.Current
	}
	return length, cost
}

func TestPathfindOptimalCostOnEmptyGrid(t *testing.T) {
	p := New(1, 100, DefaultStepCosts)
	handle := p.Pathfind(threadreg.MainId, emptyGrid{w: 64, h: 64}, Pos{0, 0}, Pos{10, 5})

	length, cost := pathLength(p, handle, 0)
	assert.Equal(t, 11, length)
	assert.Equal(t, uint32(10*5+14*5), cost)
}

func TestPathfindUnreachableReturnsEmptyPath(t *testing.T) {
	grid := columnWallGrid{w: 64, h: 1, wallX: 5}
	p := New(1, 100, DefaultStepCosts)
	handle := p.Pathfind(threadreg.MainId, grid, Pos{0, 0}, Pos{10, 0})

	ctx, ok := p.GetPathContext(handle, 0)
	require.True(t, ok, "GetPathContext should succeed for a freshly-created (even empty) entry")
	assert.Nil(t, ctx.Current, "expected an empty path (unreachable)")
}

func TestPathfindOutOfBoundsEndpointReturnsEmptyPath(t *testing.T) {
	grid := emptyGrid{w: 64, h: 64}
	p := New(1, 100, DefaultStepCosts)

	cases := []struct {
		name     string
		from, to Pos
	}{
		{"to beyond width and height", Pos{0, 0}, Pos{1000, 1000}},
		{"from negative", Pos{-1, 0}, Pos{10, 10}},
		{"to negative", Pos{0, 0}, Pos{-5, -5}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			handle := p.Pathfind(threadreg.MainId, grid, c.from, c.to)
			ctx, ok := p.GetPathContext(handle, 0)
			require.True(t, ok, "GetPathContext should succeed for an out-of-bounds endpoint entry")
			assert.Nil(t, ctx.Current, "expected an empty path for an out-of-bounds endpoint, got a resolved path")
		})
	}
}

func TestPathEntryExpiry(t *testing.T) {
	// Every resolve (GetPathContext/AdvancePath) refreshes expiry_tick to
	// currentTick + 2*refresh, matching original_source/G_Pathfinder.h's
	// GetPathEntry (unconditional refresh on every access, not just the
	// first). So each GetPathContext call below pushes the erasure boundary
	// forward by another 2*refresh; Process is only expected to erase once a
	// full 2*refresh ticks have passed with no intervening access.
	const refresh = uint64(10)
	p := New(1, refresh, DefaultStepCosts)
	handle := p.Pathfind(threadreg.MainId, emptyGrid{w: 8, h: 8}, Pos{0, 0}, Pos{1, 0})

	const createdAtTick = uint64(0)
	_, ok := p.GetPathContext(handle, createdAtTick)
	require.True(t, ok, "expected path context immediately after creation")
	expiryTick := createdAtTick + 2*refresh // refreshed by the call above

	registry := threadreg.New()
	ex := executor.New(registry, 0)
	defer ex.Close()

	p.Process(ex, expiryTick)
	_, ok = p.GetPathContext(handle, expiryTick)
	require.Truef(t, ok, "GetPathContext(%d) should still succeed at the refreshed expiry boundary", expiryTick)
	expiryTick += 2 * refresh // refreshed again by the call above

	p.Process(ex, expiryTick+1)
	_, ok = p.GetPathContext(handle, expiryTick+1)
	assert.False(t, ok, "GetPathContext should fail after Process erases an expired entry")
}

func TestCanReach(t *testing.T) {
	ff := fakeFloodFill{w: 4, h: 4, labels: map[Pos]uint32{
		{0, 0}: 1,
		{1, 0}: 1,
		{3, 3}: 2,
	}}
	p := New(1, 100, DefaultStepCosts)

	assert.True(t, p.CanReach(ff, Pos{0, 0}, Pos{1, 0}), "expected CanReach true for cells in the same component")
	assert.False(t, p.CanReach(ff, Pos{0, 0}, Pos{3, 3}), "expected CanReach false for cells in different components")
}
