// Package entity defines the packed entity identity used throughout the
// engine: a 32-bit value split into a version and an id, with a reserved
// null sentinel.
package entity

// IdBits is the width of the id field; the remaining high bits hold the
// version. 20 bits of id supports over a million distinct ids; the 12
// version bits allow 4096 versions of one id before wraparound.
const IdBits = 20

const (
	idMask      = uint32(1)<<IdBits - 1
	versionMask = ^idMask
)

// Null is the reserved sentinel entity: both its id and version fields are
// all-ones, matching the SparseSet's empty-slot pattern so a single compare
// detects either "no entity" or "empty slot".
const Null = Entity(0xFFFFFFFF)

// Entity is a (version, id) pair serving as a weak reference into any number
// of SparseSets. Two entities with the same id but different versions are
// distinct: the version increments on reuse so stale references fail lookup.
type Entity uint32

// New packs a version and id into an Entity. Callers must not pass the
// all-ones id or version pattern; doing so would alias Null.
func New(version, id uint32) Entity {
	return Entity((version << IdBits) | (id & idMask))
}

// Id returns the low IdBits bits of the entity.
func (e Entity) Id() uint32 {
	return uint32(e) & idMask
}

// Version returns the high bits of the entity.
func (e Entity) Version() uint32 {
	return (uint32(e) & versionMask) >> IdBits
}

// IsNull reports whether e is the reserved null sentinel.
func (e Entity) IsNull() bool {
	return e == Null
}
