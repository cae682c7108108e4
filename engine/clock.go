package engine

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Clock is the time source the engine's tick loop reads from, narrowed from
// github.com/benbjohnson/clock.Clock to the one method the tick loop needs.
// Production code gets a realtime clock via NewClock; tests get a
// clock.Mock via NewMockClock for deterministic dt arithmetic without
// sleeping.
type Clock interface {
	Now() time.Time
}

// NewClock returns the realtime production Clock.
func NewClock() Clock {
	return clock.New()
}

// NewMockClock returns a benbjohnson/clock.Mock set to the Unix epoch,
// letting tests advance time deterministically via its Add/Set methods
// (clock.Mock satisfies Clock through its embedded Now method).
func NewMockClock() *clock.Mock {
	return clock.NewMock()
}
