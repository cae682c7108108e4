// Package threadreg implements a process-wide registry mapping worker
// goroutines to small, dense thread identifiers: main = 0, workers = 1..W.
// It is grounded on original_source/ThreadRegistration.h's F_Threads
// singleton, translated from a C++ thread_local to an explicit handle the
// Executor threads through each worker's closure (Go has no true
// thread-locals; see DESIGN.md).
package threadreg

import (
	"sync"

	"github.com/floweryclover/settlement-engine/engineerr"
)

// UnregisteredId is the sentinel reported for a goroutine that has never
// called Register. MainId is the fixed id of the tick-driving goroutine.
const (
	MainId         = 0
	UnregisteredId = ^uint32(0)
)

// Registry is a small, rarely-contended id allocator. Its mutex is held only
// for the duration of each method call, never on a hot path.
// All invariant violations are fatal (engineerr.Raise), matching the
// original's SCRASH_COND assertions.
type Registry struct {
	mu     sync.Mutex
	live   []bool
	locked bool
}

// New returns a Registry with the main thread (id 0) already registered.
func New() *Registry {
	r := &Registry{live: []bool{true}}
	return r
}

// Register assigns id to the caller. id must not already be live; the
// registry grows its liveness vector as needed. Calling after
// LockRegistration is a programmer error.
func (r *Registry) Register(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked {
		engineerr.Raise("threadreg: Register(%d) called after registration was locked", id)
	}
	for uint32(len(r.live)) <= id {
		r.live = append(r.live, false)
	}
	if r.live[id] {
		engineerr.Raise("threadreg: Register(%d) called for an already-live id", id)
	}
	r.live[id] = true
}

// Unregister clears id's slot and trims trailing empty slots.
func (r *Registry) Unregister(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id >= uint32(len(r.live)) || !r.live[id] {
		engineerr.Raise("threadreg: Unregister(%d) called for a non-live id", id)
	}
	r.live[id] = false
	for len(r.live) > 0 && !r.live[len(r.live)-1] {
		r.live = r.live[:len(r.live)-1]
	}
}

// ThreadCount returns the number of registered ids, asserting that ids
// 0..count-1 are all contiguously live (no gaps), matching the original's
// std::ranges::all_of check.
func (r *Registry) ThreadCount() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, live := range r.live {
		if !live {
			engineerr.Raise("threadreg: ThreadCount() observed a gap at id %d; registration is not contiguous", i)
		}
	}
	return uint32(len(r.live))
}

// LockRegistration freezes the registry: further Register calls are
// programmer errors. Unregister is still allowed, so workers can unregister
// during Executor teardown before UnlockRegistration. The Executor calls this
// once all workers have reported their initial registration.
func (r *Registry) LockRegistration() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = true
}

// UnlockRegistration reverses LockRegistration. The Executor calls this
// during teardown, after all workers have unregistered and joined.
func (r *Registry) UnlockRegistration() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = false
}

// IsLocked reports whether registration is currently frozen.
func (r *Registry) IsLocked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locked
}
