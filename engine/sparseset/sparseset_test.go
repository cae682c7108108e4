package sparseset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floweryclover/settlement-engine/engine/entity"
)

func liveSet(t *testing.T, ids ...uint32) (*Set[int], map[uint32]entity.Entity) {
	t.Helper()
	s := New[int]()
	live := make(map[uint32]entity.Entity, len(ids))
	for _, id := range ids {
		e := entity.New(0, id)
		*s.CreateFor(e) = int(id)
		live[id] = e
	}
	return s, live
}

func TestCreateGetRoundTrip(t *testing.T) {
	s, live := liveSet(t, 0, 1, 2, 3, 4)
	for id, e := range live {
		v, ok := s.Get(e)
		require.True(t, ok, "Get(%v) missing", e)
		assert.Equal(t, int(id), *v)
	}
	assert.EqualValues(t, 5, s.Count())
}

func TestDestroySwapAndPop(t *testing.T) {
	s, live := liveSet(t, 0, 1, 2, 3, 4)
	e2 := live[2]

	require.True(t, s.DestroyOf(e2))
	assert.EqualValues(t, 4, s.Count())
	_, ok := s.Get(e2)
	assert.False(t, ok, "Get(e2) still present after DestroyOf")

	seen := map[int]bool{}
	for it := s.Iterate(); it.Next(); {
		seen[*it.Value()] = true
	}
	for _, id := range []int{0, 1, 3, 4} {
		assert.Truef(t, seen[id], "dense iteration missing live id %d after removal", id)
	}
	assert.False(t, seen[2], "dense iteration still visits removed id 2")
}

func TestVersionReuseSafety(t *testing.T) {
	s := New[int]()
	e := entity.New(0, 7)
	*s.CreateFor(e) = 100
	s.DestroyOf(e)

	e2 := entity.New(1, 7)
	*s.CreateFor(e2) = 200

	_, ok := s.Get(e)
	assert.False(t, ok, "Get with stale version succeeded after version reuse")

	v, ok := s.Get(e2)
	require.True(t, ok)
	assert.Equal(t, 200, *v)
}

func TestGetByDenseIndexCoverage(t *testing.T) {
	s, live := liveSet(t, 10, 20, 30)
	seen := map[entity.Entity]bool{}
	for i := uint32(0); i < s.Count(); i++ {
		e, _, ok := s.GetByDenseIndex(i)
		require.True(t, ok, "GetByDenseIndex(%d) ok=false within count", i)
		seen[e] = true
	}
	assert.Equal(t, len(live), len(seen))

	_, _, ok := s.GetByDenseIndex(s.Count())
	assert.False(t, ok, "GetByDenseIndex(count) should report ok=false")
}

func TestIteratorRevisitOnRemovalDuringIteration(t *testing.T) {
	s, _ := liveSet(t, 0, 1, 2, 3, 4)

	var visited []int
	it := s.Iterate()
	for it.Next() {
		v := *it.Value()
		visited = append(visited, v)
		if v == 1 {
			// Remove the element the iterator is currently on: the last
			// element (4) is swapped into index 1's slot and must still be
			// visited, and 1 must not be visited again.
			s.DestroyOf(entity.New(0, 1))
		}
	}

	want := map[int]bool{0: true, 2: true, 3: true, 4: true}
	got := map[int]bool{}
	for _, v := range visited {
		got[v] = true
	}
	for v := range want {
		assert.Truef(t, got[v], "iteration missed value %d after in-loop removal", v)
	}
	ones := 0
	for _, v := range visited {
		if v == 1 {
			ones++
		}
	}
	assert.Equal(t, 1, ones, "iteration revisited removed value 1")
}

func TestDuplicateCreateForPanics(t *testing.T) {
	s := New[int]()
	e := entity.New(0, 3)
	s.CreateFor(e)
	assert.Panics(t, func() { s.CreateFor(e) })
}
