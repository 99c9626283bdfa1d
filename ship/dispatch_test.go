package ship

import (
	"bytes"
	"os"
	"reflect"
	"testing"

	qt "github.com/frankban/quicktest"

	"shipshell.dev/ship/internal/executor"
)

func TestAutoRunInvalidValueIsNoop(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	err := AutoRun(reflect.Value{}, &out, nil)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, out.String(), qt.Equals, "")
}

func TestAutoRunPrintsNonRunnableValues(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	err := AutoRun(reflect.ValueOf(42), &out, nil)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, out.String(), qt.Equals, "42\n")
}

func TestAutoRunExecutesRunnableQuietlyOnSuccess(t *testing.T) {
	// Runtime is a process-wide global (set once by cmd/ship's main in the
	// real binary), so these three tests share it and cannot run in
	// parallel with each other.
	Runtime = executor.NewRuntime(os.Environ())
	var out bytes.Buffer
	rn := Cmd(Prog("true"))

	err := AutoRun(reflect.ValueOf(rn), &out, nil)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, out.String(), qt.Equals, "")
}

func TestAutoRunReportsNonzeroExitCode(t *testing.T) {
	Runtime = executor.NewRuntime(os.Environ())
	var out bytes.Buffer
	rn := Cmd(Prog("false"))

	err := AutoRun(reflect.ValueOf(rn), &out, nil)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, out.String(), qt.Equals, "Exit code: 1\n")
}

func TestAutoRunFiresExecuteHooks(t *testing.T) {
	Runtime = executor.NewRuntime(os.Environ())
	var out bytes.Buffer
	hooks := NewHooks()
	var before, after bool
	hooks.Register(HookBeforeExecute, func(any) { before = true })
	hooks.Register(HookAfterExecute, func(any) { after = true })

	rn := Cmd(Prog("true"))
	err := AutoRun(reflect.ValueOf(rn), &out, hooks)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, before, qt.IsTrue)
	qt.Assert(t, after, qt.IsTrue)
}
