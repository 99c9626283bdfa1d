package shellenv

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func newTestStore() *Store {
	return New([]string{"HOME=/home/tester", "PWD=/home/tester", "PATH=/usr/bin:/bin", "SHLVL=1"})
}

func TestReservedKeysRouteAroundOpenTable(t *testing.T) {
	t.Parallel()
	s := newTestStore()

	s.SetExitCode(7)
	v, ok := s.Get(KeyExit)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, v.IntVal(), qt.Equals, int64(7))

	for _, k := range s.Keys() {
		qt.Assert(t, k, qt.Not(qt.Equals), KeyExit)
		qt.Assert(t, k, qt.Not(qt.Equals), KeyOldPWD)
		qt.Assert(t, k, qt.Not(qt.Equals), KeyPS1)
	}
}

func TestPIDPPIDAreDerivedNotStored(t *testing.T) {
	t.Parallel()
	s := newTestStore()
	s.Set(KeyPID, Integer(999))
	v, ok := s.Get(KeyPID)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, v.IntVal(), qt.Not(qt.Equals), int64(999))
}

func TestWithOverlayExactRestore(t *testing.T) {
	t.Parallel()
	s := newTestStore()
	s.Set("FOO", String("bar"))

	restore := s.WithOverlay(map[string]Value{
		"FOO": String("overlaid"),
		"NEW": Integer(1),
	})

	v, _ := s.Get("FOO")
	qt.Assert(t, v.Project(), qt.Equals, "overlaid")
	qt.Assert(t, s.Contains("NEW"), qt.IsTrue)

	restore()

	v, _ = s.Get("FOO")
	qt.Assert(t, v.Project(), qt.Equals, "bar")
	qt.Assert(t, s.Contains("NEW"), qt.IsFalse)
}

func TestDirStackPushPopOrder(t *testing.T) {
	t.Parallel()
	s := newTestStore()
	initial := s.DirStack()
	qt.Assert(t, len(initial), qt.Equals, 1)

	s.PushDir("/tmp")
	s.PushDir("/var")
	stack := s.DirStack()
	qt.Assert(t, stack[len(stack)-1], qt.Equals, "/var")

	top, ok := s.PopDir()
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, top, qt.Equals, "/var")

	_, ok = s.PopDir()
	qt.Assert(t, ok, qt.IsTrue)

	_, ok = s.PopDir()
	qt.Assert(t, ok, qt.IsFalse, qt.Commentf("popping the last entry must fail"))
}

func TestToEnvpExcludesReservedSlots(t *testing.T) {
	t.Parallel()
	s := newTestStore()
	s.SetExitCode(3)
	for _, kv := range s.ToEnvp() {
		qt.Assert(t, kv[:2], qt.Not(qt.Equals), "?=")
	}
}
