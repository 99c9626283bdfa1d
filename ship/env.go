package ship

import "shipshell.dev/ship/internal/shellenv"

// Env is the mapping-protocol singleton of spec.md §4.6, giving host code
// dict-like access ("env.Get/Set/Delete/Keys") to the same process-wide
// ShellEnvironment the executor reads and writes. CurrentEnv returns one
// wrapping Runtime.Env, the store cmd/ship's main installs.
type Env struct {
	store *shellenv.Store
}

// NewEnv wraps store as the facade's singleton mapping object.
func NewEnv(store *shellenv.Store) Env { return Env{store: store} }

// Get returns the plain Go value for key, and whether it was present.
func (e Env) Get(key string) (any, bool) {
	v, ok := e.store.Get(key)
	if !ok {
		return nil, false
	}
	return FromEnvValue(v), true
}

// Set assigns key, applying the strict inbound conversion of §4.6.
func (e Env) Set(key string, value any) error {
	v, err := ToEnvValue(value)
	if err != nil {
		return err
	}
	e.store.Set(key, v)
	return nil
}

// Delete removes key from the open table.
func (e Env) Delete(key string) { e.store.Unset(key) }

// Contains reports whether key is present in the open table.
func (e Env) Contains(key string) bool { return e.store.Contains(key) }

// Len reports the number of entries in the open table.
func (e Env) Len() int { return e.store.Len() }

// Keys lists every key in the open table (reserved slots excluded).
func (e Env) Keys() []string { return e.store.Keys() }

// Items snapshots the open table as plain Go values.
func (e Env) Items() map[string]any {
	items := e.store.Items()
	out := make(map[string]any, len(items))
	for k, v := range items {
		out[k] = FromEnvValue(v)
	}
	return out
}

// ExitCode returns the "?" slot: the exit code of the most recently
// completed execution, per spec.md §3/§5.
func (e Env) ExitCode() int {
	v, _ := e.store.Get(shellenv.KeyExit)
	return int(v.IntVal())
}

// Dirs returns a snapshot of the directory stack, top (most recently
// pushed) last, without going through the "dirs" built-in.
func (e Env) Dirs() []string { return e.store.DirStack() }
