package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type damageEvent struct {
	Target uint32
	Amount int
}

func TestPushAndAt(t *testing.T) {
	q := NewQueue[damageEvent]()
	q.Push(damageEvent{Target: 1, Amount: 5})
	q.Push(damageEvent{Target: 2, Amount: 10})

	require.Equal(t, uint32(2), q.Len())
	e, ok := q.At(1)
	require.True(t, ok)
	assert.Equal(t, 10, e.Amount)

	_, ok = q.At(2)
	assert.False(t, ok, "At(2) should be out of range")
}

func TestClearResetsLength(t *testing.T) {
	q := NewQueue[damageEvent]()
	q.Push(damageEvent{Target: 1, Amount: 1})
	q.Clear()
	require.Equal(t, uint32(0), q.Len())

	q.Push(damageEvent{Target: 9, Amount: 9})
	assert.Equal(t, uint32(1), q.Len())
}
