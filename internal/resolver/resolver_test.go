package resolver

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"shipshell.dev/ship/internal/shellenv"
)

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	qt.Assert(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755), qt.IsNil)
	return path
}

func TestResolveSlashLiteral(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	bin := writeExecutable(t, dir, "tool")

	got, err := Resolve(bin, shellenv.Value{}, false)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.Equals, bin)
}

func TestResolveSlashLiteralNoSuchFile(t *testing.T) {
	t.Parallel()
	_, err := Resolve("/no/such/binary-xyz", shellenv.Value{}, false)
	qt.Assert(t, err, qt.Not(qt.IsNil))
	rerr, ok := err.(*Error)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, rerr.Kind, qt.Equals, NoSuchFile)
	qt.Assert(t, rerr.ExitCode(), qt.Equals, 127)
}

func TestResolveSlashLiteralPermissionDenied(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "notexec")
	qt.Assert(t, os.WriteFile(path, []byte("x"), 0o644), qt.IsNil)

	_, err := Resolve(path, shellenv.Value{}, false)
	rerr, ok := err.(*Error)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, rerr.Kind, qt.Equals, PermissionDenied)
	qt.Assert(t, rerr.ExitCode(), qt.Equals, 126)
}

func TestResolvePathSearchListShape(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeExecutable(t, dir, "mytool")

	path := shellenv.List([]shellenv.Value{shellenv.FilePath(dir)})
	got, err := Resolve("mytool", path, true)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.Equals, filepath.Join(dir, "mytool"))
}

func TestResolvePathSearchStringShape(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeExecutable(t, dir, "mytool")

	got, err := Resolve("mytool", shellenv.String(dir), true)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.Equals, filepath.Join(dir, "mytool"))
}

func TestResolvePathSearchNotFound(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := shellenv.List([]shellenv.Value{shellenv.FilePath(dir)})

	_, err := Resolve("does-not-exist-xyz", path, true)
	rerr, ok := err.(*Error)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, rerr.Kind, qt.Equals, NotFound)
	qt.Assert(t, rerr.ExitCode(), qt.Equals, 127)
}

func TestResolveInvalidPathShape(t *testing.T) {
	t.Parallel()
	_, err := Resolve("anything", shellenv.Integer(1), true)
	rerr, ok := err.(*Error)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, rerr.Kind, qt.Equals, InvalidPath)
}

func TestResolveNoPathFallsBackToDefault(t *testing.T) {
	t.Parallel()
	_, err := Resolve("ls", shellenv.Value{}, false)
	// /bin or /usr/bin should have ls on any POSIX test runner; if this
	// ever flakes in a minimal container, NotFound is still acceptable
	// but PermissionDenied/InvalidPath would indicate a real bug.
	if err != nil {
		rerr, ok := err.(*Error)
		qt.Assert(t, ok, qt.IsTrue)
		qt.Assert(t, rerr.Kind, qt.Equals, NotFound)
	}
}
