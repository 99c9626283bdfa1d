package command

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	qt "github.com/frankban/quicktest"

	"shipshell.dev/ship/internal/shellenv"
)

var cmpOpt = cmp.Options{
	cmp.AllowUnexported(Runnable{}),
	cmp.AllowUnexported(shellenv.Value{}),
}

func TestPipelinesAreAlwaysFlat(t *testing.T) {
	t.Parallel()
	a, b, c := Cmd("a"), Cmd("b"), Cmd("c")

	abc, err := PipeAll(a, b, c)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, abc.Kind, qt.Equals, KindPipeline)

	for _, pred := range abc.Preds {
		qt.Assert(t, pred.Kind, qt.Not(qt.Equals), KindPipeline,
			qt.Commentf("no predecessor may itself be a Pipeline"))
	}
	qt.Assert(t, abc.Final.Kind, qt.Not(qt.Equals), KindPipeline)
	qt.Assert(t, len(abc.Preds), qt.Equals, 2)
}

func TestPipeComposeIsAssociative(t *testing.T) {
	t.Parallel()
	a, b, c := Cmd("a"), Cmd("b"), Cmd("c")

	left, err := Pipe(mustPipe(t, a, b), c)
	qt.Assert(t, err, qt.IsNil)

	right, err := Pipe(a, mustPipe(t, b, c))
	qt.Assert(t, err, qt.IsNil)

	if diff := cmp.Diff(left, right, cmpOpt); diff != "" {
		t.Fatalf("pipe composition is not associative (-left +right):\n%s", diff)
	}
}

func mustPipe(t *testing.T, a, b Runnable) Runnable {
	t.Helper()
	r, err := Pipe(a, b)
	qt.Assert(t, err, qt.IsNil)
	return r
}

func TestPipeRejectsRedirectOperands(t *testing.T) {
	t.Parallel()
	redirected := RedirectTo(Cmd("a"), "/tmp/out")

	_, err := Pipe(redirected, Cmd("b"))
	qt.Assert(t, err, qt.Not(qt.IsNil))

	_, err = Pipe(Cmd("a"), redirected)
	qt.Assert(t, err, qt.Not(qt.IsNil))
}

func TestComposingDoesNotMutateOperands(t *testing.T) {
	t.Parallel()
	a := Cmd("a", "x")
	aBefore := a

	_, err := Pipe(a, Cmd("b"))
	qt.Assert(t, err, qt.IsNil)

	if diff := cmp.Diff(aBefore, a, cmpOpt); diff != "" {
		t.Fatalf("Pipe mutated its operand (-before +after):\n%s", diff)
	}
}

func TestIdenticalConstructionIsDeeplyEqual(t *testing.T) {
	t.Parallel()
	r := Cmd("echo", "hi")
	r2 := Cmd("echo", "hi")

	if diff := cmp.Diff(r, r2, cmpOpt); diff != "" {
		t.Fatalf("identical construction should be deeply equal (-r +r2):\n%s", diff)
	}
}

func TestWithEnvMergesRatherThanNests(t *testing.T) {
	t.Parallel()
	r := Cmd("a")
	once := WithEnv(r, map[string]shellenv.Value{"A": shellenv.String("1")})
	twice := WithEnv(once, map[string]shellenv.Value{"B": shellenv.String("2")})

	qt.Assert(t, twice.Kind, qt.Equals, KindWithEnv)
	qt.Assert(t, twice.Inner.Kind, qt.Not(qt.Equals), KindWithEnv,
		qt.Commentf("with_env().with_env() must merge into one wrapper, not nest"))
	qt.Assert(t, len(twice.Overlay), qt.Equals, 2)
}
