package shellenv

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestParsePriority(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		kind Kind
	}{
		{"", KindNone},
		{"True", KindBool},
		{"False", KindBool},
		{"42", KindInteger},
		{"3.14", KindDecimal},
		{"/usr/bin:/bin", KindList},
		{"/usr/local/go", KindFilePath},
		{"./rel", KindFilePath},
		{"hello", KindString},
	}
	for _, test := range tests {
		got := Parse(test.in)
		qt.Assert(t, got.Kind, qt.Equals, test.kind, qt.Commentf("Parse(%q)", test.in))
	}
}

func TestParseListBeforeFilePath(t *testing.T) {
	t.Parallel()
	v := Parse("/usr/bin:/bin")
	qt.Assert(t, v.Kind, qt.Equals, KindList)
	elems := v.ListVal()
	qt.Assert(t, len(elems), qt.Equals, 2)
	qt.Assert(t, elems[0].Kind, qt.Equals, KindFilePath)
	qt.Assert(t, elems[1].Kind, qt.Equals, KindFilePath)
}

func TestProjectRoundtrip(t *testing.T) {
	t.Parallel()
	tests := []string{"hello", "42", "/usr/bin", "True", "False"}
	for _, s := range tests {
		v := Parse(s)
		qt.Assert(t, v.Project(), qt.Equals, s, qt.Commentf("roundtrip %q", s))
	}
}

func TestProjectList(t *testing.T) {
	t.Parallel()
	v := List([]Value{FilePath("/usr/bin"), FilePath("/bin")})
	qt.Assert(t, v.Project(), qt.Equals, "/usr/bin:/bin")
}

func TestProjectDecimalNormalizes(t *testing.T) {
	t.Parallel()
	v := Parse("3.140")
	qt.Assert(t, v.Kind, qt.Equals, KindDecimal)
	qt.Assert(t, v.Project(), qt.Equals, "3.14")
}
