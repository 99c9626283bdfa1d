package ship

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"shipshell.dev/ship/internal/shellenv"
)

func TestToEnvValueAcceptedTypes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   any
		kind shellenv.Kind
	}{
		{nil, shellenv.KindNone},
		{"hi", shellenv.KindString},
		{true, shellenv.KindBool},
		{42, shellenv.KindInteger},
		{int64(42), shellenv.KindInteger},
		{3.5, shellenv.KindDecimal},
		{[]string{"a", "b"}, shellenv.KindList},
	}
	for _, test := range tests {
		v, err := ToEnvValue(test.in)
		qt.Assert(t, err, qt.IsNil, qt.Commentf("ToEnvValue(%v)", test.in))
		qt.Assert(t, v.Kind, qt.Equals, test.kind)
	}
}

func TestToEnvValueRejectsUnsupportedTypes(t *testing.T) {
	t.Parallel()
	_, err := ToEnvValue(struct{ X int }{1})
	qt.Assert(t, err, qt.Not(qt.IsNil))
}

func TestFromEnvValueRoundTrip(t *testing.T) {
	t.Parallel()
	v := shellenv.List([]shellenv.Value{shellenv.String("a"), shellenv.Integer(1)})
	got := FromEnvValue(v)
	list, ok := got.([]any)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, list[0], qt.Equals, "a")
	qt.Assert(t, list[1], qt.Equals, int64(1))
}
