package threadreg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMainThreadPreregistered(t *testing.T) {
	r := New()
	assert.Equal(t, uint32(1), r.ThreadCount())
}

func TestRegisterContiguous(t *testing.T) {
	r := New()
	r.Register(1)
	r.Register(2)
	r.Register(3)
	assert.Equal(t, uint32(4), r.ThreadCount())
}

func TestRegisterGapPanics(t *testing.T) {
	r := New()
	r.Register(2) // leaves id 1 unregistered -> gap

	assert.Panics(t, func() { r.ThreadCount() })
}

func TestDuplicateRegisterPanics(t *testing.T) {
	r := New()
	assert.Panics(t, func() { r.Register(MainId) })
}

func TestRegisterAfterLockPanics(t *testing.T) {
	r := New()
	r.LockRegistration()

	assert.Panics(t, func() { r.Register(1) })
}

func TestUnregisterTrimsTrailingEmpties(t *testing.T) {
	r := New()
	r.Register(1)
	r.Register(2)
	r.Unregister(2)
	r.Unregister(1)
	assert.Equal(t, uint32(1), r.ThreadCount(), "want 1 after trimming")
}
