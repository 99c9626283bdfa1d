package ship

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestHooksRunInRegistrationOrder(t *testing.T) {
	t.Parallel()
	h := NewHooks()
	var order []int
	h.Register(HookBeforePrompt, func(any) { order = append(order, 1) })
	h.Register(HookBeforePrompt, func(any) { order = append(order, 2) })

	h.RunBeforePrompt()
	qt.Assert(t, order, qt.DeepEquals, []int{1, 2})
}

func TestHooksDeregisterIsKindScoped(t *testing.T) {
	t.Parallel()
	h := NewHooks()
	fired := 0
	id := h.Register(HookBeforeExecute, func(any) { fired++ })
	// An id of the same numeric value registered under a different kind
	// must not be affected by deregistering this one.
	h.Register(HookAfterExecute, func(any) { fired += 10 })

	h.Deregister(HookBeforeExecute, id)
	h.RunBeforeExecute(Runnable{})
	h.RunAfterExecute(0)

	qt.Assert(t, fired, qt.Equals, 10)
}

func TestHooksMonotonicIDsPerKind(t *testing.T) {
	t.Parallel()
	h := NewHooks()
	id1 := h.Register(HookBeforePrompt, func(any) {})
	id2 := h.Register(HookBeforePrompt, func(any) {})
	qt.Assert(t, id2, qt.Equals, id1+1)

	// A different kind starts its own counter from 1.
	id3 := h.Register(HookAfterExecute, func(any) {})
	qt.Assert(t, id3, qt.Equals, uint64(1))
}
