package ship

import "sync"

// HookKind names one of the four points in the REPL's read-eval loop a
// host script may attach behavior to.
type HookKind uint8

const (
	// HookBeforePrompt fires just before the primary prompt (PS1) is shown.
	HookBeforePrompt HookKind = iota
	// HookBeforeContinuation fires before a continuation prompt (PS2) is
	// shown, i.e. when the interpreter judged the buffered input incomplete.
	HookBeforeContinuation
	// HookBeforeExecute fires after a line evaluates to a Runnable and
	// before AutoRun invokes it.
	HookBeforeExecute
	// HookAfterExecute fires after a Runnable finishes running, with its
	// exit code.
	HookAfterExecute
)

// hookID is returned by Hooks.Register so callers can later deregister
// the same hook; ids increase monotonically per kind and are never reused,
// so a stale id from an already-removed hook can never collide with a
// newly registered one.
type hookID uint64

type hookEntry struct {
	id hookID
	fn func(any)
}

// Hooks is the registry cmd/ship consults at each of the four REPL points.
// It is safe for concurrent registration from host scripts.
type Hooks struct {
	mu      sync.Mutex
	next    map[HookKind]hookID
	entries map[HookKind][]hookEntry
}

// NewHooks builds an empty hook registry.
func NewHooks() *Hooks {
	return &Hooks{
		next:    make(map[HookKind]hookID),
		entries: make(map[HookKind][]hookEntry),
	}
}

// Register adds fn under kind and returns an id usable with Deregister.
// fn receives a kind-specific payload: nil for HookBeforePrompt and
// HookBeforeContinuation, a Runnable for HookBeforeExecute, and an int
// exit code for HookAfterExecute.
func (h *Hooks) Register(kind HookKind, fn func(any)) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next[kind] + 1
	h.next[kind] = id
	h.entries[kind] = append(h.entries[kind], hookEntry{id: id, fn: fn})
	return uint64(id)
}

// Deregister removes the hook registered under kind with id, if present.
func (h *Hooks) Deregister(kind HookKind, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := h.entries[kind]
	for i, e := range entries {
		if e.id == hookID(id) {
			h.entries[kind] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// run invokes every hook registered under kind, in registration order.
func (h *Hooks) run(kind HookKind, payload any) {
	h.mu.Lock()
	entries := append([]hookEntry(nil), h.entries[kind]...)
	h.mu.Unlock()
	for _, e := range entries {
		e.fn(payload)
	}
}

// RunBeforePrompt invokes every HookBeforePrompt hook.
func (h *Hooks) RunBeforePrompt() { h.run(HookBeforePrompt, nil) }

// RunBeforeContinuation invokes every HookBeforeContinuation hook.
func (h *Hooks) RunBeforeContinuation() { h.run(HookBeforeContinuation, nil) }

// RunBeforeExecute invokes every HookBeforeExecute hook with rn.
func (h *Hooks) RunBeforeExecute(rn Runnable) { h.run(HookBeforeExecute, rn) }

// RunAfterExecute invokes every HookAfterExecute hook with the exit code.
func (h *Hooks) RunAfterExecute(code int) { h.run(HookAfterExecute, code) }
