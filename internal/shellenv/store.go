package shellenv

import (
	"fmt"
	"os"
	"os/user"
	"runtime"
	"strconv"
	"sync"
)

// distinguished keys are routed to reserved slots instead of the open
// table, per spec.md §3/§4.1, so that enumeration never leaks them to
// child processes.
const (
	KeyExit   = "?"
	KeyPID    = "$"
	KeyPPID   = "PPID"
	KeyOldPWD = "OLDPWD"
	KeyPS1    = "PS1"
	KeyPS2    = "PS2"
	KeyPS4    = "PS4"
)

func isReserved(key string) bool {
	switch key {
	case KeyExit, KeyPID, KeyPPID, KeyOldPWD, KeyPS1, KeyPS2, KeyPS4:
		return true
	default:
		return false
	}
}

type reserved struct {
	exit   Value
	oldPWD Value
	ps1    Value
	ps2    Value
	ps4    Value
}

// Store is the process-global, read/write-locked table described by
// spec.md §3 (ShellEnvironment) and §4.1. Callers must not hold the lock
// across a fork; all public methods take and release the lock internally
// and never block on anything but the lock itself.
type Store struct {
	mu       sync.RWMutex
	vars     map[string]Value
	dirStack []string
	res      reserved
}

// New builds a Store from the inherited OS environment, applying Parse to
// every KEY=VALUE pair and filling in the defaults of spec.md §4.1: HOME
// from the user database if absent, PWD from the cwd (or HOME) if absent,
// PATH from the platform default if absent, and SHLVL incremented (0 if
// absent). This is meant to be called exactly once at process startup; the
// single returned *Store is the process-wide singleton the rest of the
// program shares.
func New(environ []string) *Store {
	s := &Store{vars: make(map[string]Value)}
	for _, kv := range environ {
		key, val, ok := splitKV(kv)
		if !ok {
			continue
		}
		s.setLocked(key, Parse(val))
	}

	if _, ok := s.vars["HOME"]; !ok {
		if u, err := user.Current(); err == nil && u.HomeDir != "" {
			s.setLocked("HOME", FilePath(u.HomeDir))
		}
	}
	if _, ok := s.vars["PWD"]; !ok {
		if cwd, err := os.Getwd(); err == nil {
			s.setLocked("PWD", FilePath(cwd))
		} else if home, ok := s.vars["HOME"]; ok {
			s.setLocked("PWD", home)
		}
	}
	if _, ok := s.vars["PATH"]; !ok {
		s.setLocked("PATH", List(defaultPathDirs()))
	}
	lvl := int64(0)
	if v, ok := s.vars["SHLVL"]; ok && v.Kind == KindInteger {
		lvl = v.i
	}
	s.setLocked("SHLVL", Integer(lvl+1))

	s.res.exit = Integer(0)
	if pwd, ok := s.vars["PWD"]; ok {
		s.res.oldPWD = pwd
	}
	s.res.ps1 = String("ship> ")
	s.res.ps2 = String("..... ")
	s.res.ps4 = String("+ ")

	if cwd, ok := s.vars["PWD"]; ok {
		s.dirStack = []string{cwd.Project()}
	}
	return s
}

func defaultPathDirs() []Value {
	dirs := []string{"/usr/bin", "/bin"}
	if runtime.GOOS == "darwin" {
		dirs = append(dirs, "/usr/sbin", "/sbin")
	}
	vals := make([]Value, len(dirs))
	for i, d := range dirs {
		vals[i] = FilePath(d)
	}
	return vals
}

func splitKV(kv string) (key, val string, ok bool) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}
	return "", "", false
}

// Get returns a snapshot copy of key's value, never a live reference.
// Distinguished keys are served from the reserved slots.
func (s *Store) Get(key string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(key)
}

func (s *Store) getLocked(key string) (Value, bool) {
	switch key {
	case KeyExit:
		return s.res.exit, true
	case KeyPID:
		return Integer(int64(os.Getpid())), true
	case KeyPPID:
		return Integer(int64(os.Getppid())), true
	case KeyOldPWD:
		if s.res.oldPWD.IsNone() {
			return Value{}, false
		}
		return s.res.oldPWD, true
	case KeyPS1:
		return s.res.ps1, true
	case KeyPS2:
		return s.res.ps2, true
	case KeyPS4:
		return s.res.ps4, true
	}
	v, ok := s.vars[key]
	return v, ok
}

// Set inserts or overwrites key. Distinguished keys route to their
// reserved slot.
func (s *Store) Set(key string, v Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(key, v)
}

func (s *Store) setLocked(key string, v Value) {
	switch key {
	case KeyExit:
		s.res.exit = v
	case KeyPID, KeyPPID:
		// not writable: process identity is derived, never stored
	case KeyOldPWD:
		s.res.oldPWD = v
	case KeyPS1:
		s.res.ps1 = v
	case KeyPS2:
		s.res.ps2 = v
	case KeyPS4:
		s.res.ps4 = v
	default:
		s.vars[key] = v
	}
}

// Unset removes key from the open table. Reserved slots cannot be removed.
func (s *Store) Unset(key string) {
	if isReserved(key) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vars, key)
}

// Contains reports whether key is present in the open table.
func (s *Store) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.vars[key]
	return ok
}

// Len returns the number of entries in the open table.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vars)
}

// Keys returns the open table's keys; reserved slots are never included.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.vars))
	for k := range s.vars {
		keys = append(keys, k)
	}
	return keys
}

// Items returns a snapshot copy of the open table; reserved slots are
// never included.
func (s *Store) Items() map[string]Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Value, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// ToEnvp materializes the open table as "KEY=VALUE" strings suitable for
// exec's envp. Reserved slots are excluded. Entries whose projection is
// empty are still emitted, per spec.md §6.
func (s *Store) ToEnvp() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	envp := make([]string, 0, len(s.vars))
	for k, v := range s.vars {
		envp = append(envp, fmt.Sprintf("%s=%s", k, v.Project()))
	}
	return envp
}

// PushDir pushes p onto the directory stack.
func (s *Store) PushDir(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirStack = append(s.dirStack, p)
}

// PopDir pops and returns the top of the directory stack, or ("", false)
// if the stack has at most one entry (the current directory is never
// popped off entirely).
func (s *Store) PopDir() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.dirStack) < 2 {
		return "", false
	}
	top := s.dirStack[len(s.dirStack)-1]
	s.dirStack = s.dirStack[:len(s.dirStack)-1]
	return top, true
}

// DirStack returns a snapshot of the directory stack, top (most recently
// pushed) last.
func (s *Store) DirStack() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.dirStack))
	copy(out, s.dirStack)
	return out
}

// SwapTop swaps the two topmost entries of the directory stack, returning
// the new top, or ("", false) if the stack has fewer than two entries.
func (s *Store) SwapTop() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.dirStack) < 2 {
		return "", false
	}
	n := len(s.dirStack)
	s.dirStack[n-1], s.dirStack[n-2] = s.dirStack[n-2], s.dirStack[n-1]
	return s.dirStack[n-1], true
}

// ReplaceTop overwrites the top of the directory stack without popping.
func (s *Store) ReplaceTop(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.dirStack) == 0 {
		s.dirStack = []string{p}
		return
	}
	s.dirStack[len(s.dirStack)-1] = p
}

// SetExitCode records the exit code of the most recently completed
// execution into the "?" slot, per spec.md §4.5/§5.
func (s *Store) SetExitCode(code int) {
	s.Set(KeyExit, Integer(int64(code)))
}

// WithOverlay applies overlay to the store, returning a restore function
// that puts every overlaid key back to its exact prior state (absent keys
// removed, present keys restored with their saved value), per spec.md
// §4.5's WithEnv semantics and §8's "With-env scoping" law. The snapshot
// captures both presence and value before any key is written.
func (s *Store) WithOverlay(overlay map[string]Value) (restore func()) {
	type saved struct {
		v  Value
		ok bool
	}
	prior := make(map[string]saved, len(overlay))

	s.mu.Lock()
	for k := range overlay {
		v, ok := s.getLocked(k)
		prior[k] = saved{v, ok}
	}
	for k, v := range overlay {
		s.setLocked(k, v)
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for k, sv := range prior {
			if sv.ok {
				s.setLocked(k, sv.v)
			} else if !isReserved(k) {
				delete(s.vars, k)
			}
		}
	}
}

// FormatInt renders i the same way the store's Integer projection does.
func FormatInt(i int64) string { return strconv.FormatInt(i, 10) }
