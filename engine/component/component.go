// Package component implements ComponentStore: a type-indexed collection of
// sparseset.Set instances exposed to systems, with registration frozen once
// the simulation starts. Per SPEC_FULL.md §9 ("Polymorphic dense/raw
// SparseSet"), component types are dispatched through a table of function
// values keyed by an opaque ComponentTypeId rather than runtime type
// identity or inheritance.
package component

import (
	"reflect"

	"github.com/cespare/xxhash/v2"

	"github.com/floweryclover/settlement-engine/engine/entity"
	"github.com/floweryclover/settlement-engine/engine/sparseset"
	"github.com/floweryclover/settlement-engine/engineerr"
	"github.com/floweryclover/settlement-engine/enginemetrics"
)

// TypeId is an opaque, stable identifier for a component type, derived once
// at registration time from the type's package path and name via xxhash
// (adapted from the teacher's crc32-based module-id hashing in
// kernel/threads/registry/loader.go; see DESIGN.md).
type TypeId uint64

// typeNameOf returns T's package-path-qualified name, used both to derive
// idOf's hash input and as the human-readable metrics label for T.
func typeNameOf[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		// T is an interface type instantiated with a nil value; fall back
		// to the static type parameter's string form.
		return reflect.TypeOf((*T)(nil)).Elem().String()
	}
	return t.PkgPath() + "." + t.Name()
}

// idOf derives a TypeId for T without requiring a value of T.
func idOf[T any]() TypeId {
	return TypeId(xxhash.Sum64String(typeNameOf[T]()))
}

// capability is the set of type-erased operations the ComponentStore needs
// to perform without generics: remove-by-entity, presence-check and count,
// used by callers that only know a TypeId (e.g. a generic entity-destroy
// sweep), plus the type's display name for metrics labels.
type capability struct {
	destroyByEntity func(entity.Entity) bool
	hasEntity       func(entity.Entity) bool
	count           func() uint32
	name            string
}

// Store is the type-indexed collection of component SparseSets.
type Store struct {
	sets         map[TypeId]any
	capabilities map[TypeId]capability
	frozen       bool
	metrics      *enginemetrics.Recorder
}

// Option configures a Store at construction.
type Option func(*Store)

// WithMetrics attaches a metrics recorder; defaults to nil (no-op).
func WithMetrics(recorder *enginemetrics.Recorder) Option {
	return func(s *Store) { s.metrics = recorder }
}

// NewStore constructs an empty ComponentStore.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sets:         make(map[TypeId]any),
		capabilities: make(map[TypeId]capability),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Freeze forbids further type registration. Engine.Freeze calls this once at
// simulation start, matching spec's "registration is frozen once simulation
// starts."
func (s *Store) Freeze() {
	s.frozen = true
}

// Register allocates a SparseSet for component type T and returns it. It is
// a programmer error to register the same type twice, or to register after
// Freeze.
func Register[T any](s *Store) *sparseset.Set[T] {
	id := idOf[T]()
	if s.frozen {
		engineerr.Raise("component: Register called for type %v after the store was frozen", id)
	}
	if _, exists := s.sets[id]; exists {
		engineerr.Raise("component: duplicate registration for type %v", id)
	}

	set := sparseset.New[T]()
	s.sets[id] = set
	s.capabilities[id] = capability{
		destroyByEntity: set.DestroyOf,
		hasEntity: func(e entity.Entity) bool {
			_, ok := set.Get(e)
			return ok
		},
		count: set.Count,
		name:  typeNameOf[T](),
	}
	return set
}

// TypeIdOf exposes idOf to callers (e.g. Executor/SystemManager axis
// declarations) needing a TypeId without access to the Store.
func TypeIdOf[T any]() TypeId {
	return idOf[T]()
}

// SetOf returns the previously-registered SparseSet for T. It is a
// programmer error to call SetOf for an unregistered type.
func SetOf[T any](s *Store) *sparseset.Set[T] {
	id := idOf[T]()
	v, ok := s.sets[id]
	if !ok {
		engineerr.Raise("component: SetOf called for unregistered type %v", id)
	}
	return v.(*sparseset.Set[T])
}

// Create creates T's component for e, via the registered SparseSet.
func Create[T any](s *Store, e entity.Entity) *T {
	set := SetOf[T](s)
	ptr := set.CreateFor(e)
	name := s.capabilities[idOf[T]()].name
	s.metrics.ObserveComponentOp(name, "create")
	s.metrics.SetComponentCount(name, float64(set.Count()))
	return ptr
}

// Get returns T's component for e, if present.
func Get[T any](s *Store, e entity.Entity) (*T, bool) {
	return SetOf[T](s).Get(e)
}

// Destroy removes e's T component, if present, by type id (no generic type
// parameter needed) — used when destroying an entity across every
// registered component type.
func (s *Store) Destroy(id TypeId, e entity.Entity) bool {
	capEntry, ok := s.capabilities[id]
	if !ok {
		engineerr.Raise("component: Destroy called for unregistered type %v", id)
	}
	removed := capEntry.destroyByEntity(e)
	if removed {
		s.metrics.ObserveComponentOp(capEntry.name, "destroy")
		s.metrics.SetComponentCount(capEntry.name, float64(capEntry.count()))
	}
	return removed
}

// DestroyEntity removes e from every registered component type's set.
func (s *Store) DestroyEntity(e entity.Entity) {
	for _, capEntry := range s.capabilities {
		if capEntry.destroyByEntity(e) {
			s.metrics.ObserveComponentOp(capEntry.name, "destroy")
			s.metrics.SetComponentCount(capEntry.name, float64(capEntry.count()))
		}
	}
}

// RegisteredTypes returns every TypeId currently registered, for
// diagnostics and metrics export.
func (s *Store) RegisteredTypes() []TypeId {
	ids := make([]TypeId, 0, len(s.sets))
	for id := range s.sets {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the live element count of the set registered for id.
func (s *Store) Count(id TypeId) uint32 {
	capEntry, ok := s.capabilities[id]
	if !ok {
		engineerr.Raise("component: Count called for unregistered type %v", id)
	}
	return capEntry.count()
}
