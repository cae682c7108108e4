// Package sparseset implements a paged, two-level sparse-to-dense mapping
// from entity identity to component storage, with version checks and O(1)
// create/get/destroy.
package sparseset

import (
	"github.com/floweryclover/settlement-engine/engine/entity"
	"github.com/floweryclover/settlement-engine/engineerr"
)

const (
	// SparsePageSize is the number of slots per sparse page. Each slot is a
	// 32-bit word, so a page is 64KiB.
	SparsePageSize = 16384

	// DensePageSize is the number of (Entity, T) blocks per dense page.
	// Dense pages are allocated lazily and never freed until the set itself
	// is discarded, which keeps pointers returned by Get/CreateFor stable
	// across further insertions (unlike a single reallocating slice).
	DensePageSize = 4096

	emptySlot = ^uint32(0)
)

func pageAndSlot(id uint32) (page, slot uint32) {
	return id / SparsePageSize, id % SparsePageSize
}

func pageAndOffset(denseIndex uint32) (page, offset uint32) {
	return denseIndex / DensePageSize, denseIndex % DensePageSize
}

func encodeSlot(version, denseIndex uint32) uint32 {
	return (version << entity.IdBits) | (denseIndex & (uint32(1)<<entity.IdBits - 1))
}

func decodeSlot(slot uint32) (version, denseIndex uint32) {
	return slot >> entity.IdBits, slot & (uint32(1)<<entity.IdBits - 1)
}

type denseBlock[T any] struct {
	entity entity.Entity
	value  T
}

// Set is a paged sparse set mapping entity.Entity to a value of type T.
//
// Invariants (see SPEC_FULL.md §3/§4.2):
//   - I1: for every live entity E, sparse[E.Id()] yields a dense index < Count()
//     and dense[denseIndex].entity == E.
//   - I2: for every i < Count(), sparse[dense[i].entity.Id()] points back to i
//     and carries dense[i].entity.Version().
//   - I3: removal performs swap-with-last and decrements Count(), patching the
//     swapped-in element's sparse back-pointer.
//   - I4: an iterator alive across a removal must neither revisit nor skip an
//     element; see Iterator.
//
// A Set is not safe for concurrent mutation; concurrent reads are safe while
// no goroutine mutates (see SPEC_FULL.md §4.2 concurrency contract).
type Set[T any] struct {
	sparsePages [][]uint32
	densePages  [][]denseBlock[T]
	count       uint32

	// invalidated is the one-shot "iterator revisit" bit: DestroyOf sets it
	// on every removal that moves the last element into the removed slot,
	// and the next Iterator.Next call clears it by re-reading the current
	// index rather than advancing.
	invalidated bool
}

// New constructs an empty Set. Pages are allocated lazily on first touch.
func New[T any]() *Set[T] {
	return &Set[T]{}
}

// Count returns the number of live entities in the set.
func (s *Set[T]) Count() uint32 {
	return s.count
}

func (s *Set[T]) sparseSlot(id uint32) (uint32, bool) {
	page, slot := pageAndSlot(id)
	if int(page) >= len(s.sparsePages) || s.sparsePages[page] == nil {
		return emptySlot, false
	}
	return s.sparsePages[page][slot], true
}

func (s *Set[T]) ensureSparsePage(page uint32) []uint32 {
	for uint32(len(s.sparsePages)) <= page {
		s.sparsePages = append(s.sparsePages, nil)
	}
	if s.sparsePages[page] == nil {
		p := make([]uint32, SparsePageSize)
		for i := range p {
			p[i] = emptySlot
		}
		s.sparsePages[page] = p
	}
	return s.sparsePages[page]
}

func (s *Set[T]) denseBlockAt(denseIndex uint32) *denseBlock[T] {
	page, offset := pageAndOffset(denseIndex)
	return &s.densePages[page][offset]
}

func (s *Set[T]) appendDense(e entity.Entity, value T) uint32 {
	denseIndex := s.count
	page, offset := pageAndOffset(denseIndex)
	for uint32(len(s.densePages)) <= page {
		s.densePages = append(s.densePages, make([]denseBlock[T], DensePageSize))
	}
	s.densePages[page][offset] = denseBlock[T]{entity: e, value: value}
	s.count++
	return denseIndex
}

// CreateFor creates storage for e and returns a pointer to it, initialized to
// the zero value of T. It is a programmer error to call CreateFor for an
// entity id that already has a live slot in this set; it panics in that
// case, matching spec's "fails fatally on duplicate id".
func (s *Set[T]) CreateFor(e entity.Entity) *T {
	id := e.Id()
	page, slot := pageAndSlot(id)
	sp := s.ensureSparsePage(page)
	if sp[slot] != emptySlot {
		if existingVersion, denseIndex := decodeSlot(sp[slot]); true {
			if s.denseBlockAt(denseIndex).entity.Version() == existingVersion {
				engineerr.Raise("sparseset: CreateFor called for entity id %d with an already-live slot", id)
			}
		}
	}

	denseIndex := s.appendDense(e, *new(T))
	sp[slot] = encodeSlot(e.Version(), denseIndex)
	return &s.denseBlockAt(denseIndex).value
}

// Get returns a pointer to e's component and true, or (nil, false) if e has
// no live slot in this set (DomainMiss per spec §7) or its version is stale.
func (s *Set[T]) Get(e entity.Entity) (*T, bool) {
	slot, ok := s.sparseSlot(e.Id())
	if !ok || slot == emptySlot {
		return nil, false
	}
	version, denseIndex := decodeSlot(slot)
	if version != e.Version() {
		return nil, false
	}
	return &s.denseBlockAt(denseIndex).value, true
}

// DestroyOf removes e's component, if present, via swap-and-pop. It reports
// whether an entry was removed.
func (s *Set[T]) DestroyOf(e entity.Entity) bool {
	id := e.Id()
	page, slotIdx := pageAndSlot(id)
	if int(page) >= len(s.sparsePages) || s.sparsePages[page] == nil {
		return false
	}
	sp := s.sparsePages[page]
	slot := sp[slotIdx]
	if slot == emptySlot {
		return false
	}
	version, denseIndex := decodeSlot(slot)
	if version != e.Version() {
		return false
	}

	lastIndex := s.count - 1
	if denseIndex != lastIndex {
		lastBlock := *s.denseBlockAt(lastIndex)
		*s.denseBlockAt(denseIndex) = lastBlock

		lastPage, lastSlot := pageAndSlot(lastBlock.entity.Id())
		s.sparsePages[lastPage][lastSlot] = encodeSlot(lastBlock.entity.Version(), denseIndex)

		// The element that used to live at lastIndex now occupies
		// denseIndex; if an iterator had already passed denseIndex, it must
		// revisit it so the relocated element is not skipped (I4).
		s.invalidated = true
	}

	sp[slotIdx] = emptySlot
	s.count--
	return true
}

// GetByDenseIndex returns the entity and a pointer to its component at dense
// position i, for random access in parallel-for. ok is false if i >= Count().
func (s *Set[T]) GetByDenseIndex(i uint32) (e entity.Entity, value *T, ok bool) {
	if i >= s.count {
		return entity.Null, nil, false
	}
	b := s.denseBlockAt(i)
	return b.entity, &b.value, true
}

// Iterator walks the dense array in order, honoring the I4 revisit-on-removal
// invariant for removal of the element the iterator is on: after a DestroyOf
// that moves the last element into a freed slot, the next call to Next
// re-reads the current index instead of advancing past it. The removal is not
// tracked by index: a swapping removal anywhere in the set makes the next
// Next re-read the current index.
//
// Only one Iterator may be active while the set is being mutated, matching
// the set's single-threaded-mutation concurrency contract.
type Iterator[T any] struct {
	set   *Set[T]
	index uint32
	began bool
}

// Iterate returns a fresh Iterator positioned before the first element.
func (s *Set[T]) Iterate() *Iterator[T] {
	return &Iterator[T]{set: s}
}

// Next advances the iterator and reports whether a value is available.
func (it *Iterator[T]) Next() bool {
	if !it.began {
		it.began = true
	} else if it.set.invalidated {
		it.set.invalidated = false
		// Revisit the current index: the element there changed under us.
	} else {
		it.index++
	}
	return it.index < it.set.count
}

// Entity returns the entity at the iterator's current position.
func (it *Iterator[T]) Entity() entity.Entity {
	return it.set.denseBlockAt(it.index).entity
}

// Value returns a pointer to the component at the iterator's current
// position.
func (it *Iterator[T]) Value() *T {
	return &it.set.denseBlockAt(it.index).value
}
