// Package shellenv implements the typed environment store described by
// spec.md §3 and §4.1: a process-wide table of named EnvValues with a
// canonical string projection used when rendering KEY=VALUE pairs for
// exec'd children.
package shellenv

import (
	"strconv"
	"strings"
)

// Kind identifies which field of an EnvValue is meaningful.
type Kind uint8

const (
	KindNone Kind = iota
	KindString
	KindInteger
	KindDecimal
	KindBool
	KindFilePath
	KindList
)

// Value is a tagged union over the value domain spec.md §3 assigns to
// environment entries. The zero Value is KindNone.
type Value struct {
	Kind Kind

	str  string
	i    int64
	f    float64
	b    bool
	list []Value
}

func None() Value                { return Value{Kind: KindNone} }
func String(s string) Value      { return Value{Kind: KindString, str: s} }
func Integer(i int64) Value      { return Value{Kind: KindInteger, i: i} }
func Decimal(f float64) Value    { return Value{Kind: KindDecimal, f: f} }
func Bool(b bool) Value          { return Value{Kind: KindBool, b: b} }
func FilePath(path string) Value { return Value{Kind: KindFilePath, str: path} }
func List(elems []Value) Value   { return Value{Kind: KindList, list: elems} }

func (v Value) StringVal() string    { return v.str }
func (v Value) IntVal() int64        { return v.i }
func (v Value) FloatVal() float64    { return v.f }
func (v Value) BoolVal() bool        { return v.b }
func (v Value) ListVal() []Value     { return v.list }
func (v Value) IsNone() bool         { return v.Kind == KindNone }

// Project renders v as the canonical string used to build a child process's
// envp and when flattening a List into a PATH-style value. This is the
// inverse operation to Parse, up to Decimal normalization and List-element
// recursion (spec.md §8, the "Env roundtrip" law).
func (v Value) Project() string {
	switch v.Kind {
	case KindString, KindFilePath:
		return v.str
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindDecimal:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.Project()
		}
		return strings.Join(parts, ":")
	default: // KindNone
		return ""
	}
}

// Parse applies the priority-ordered classification of spec.md §3 to an
// inherited OS string, producing the EnvValue it represents. The ordering
// is load-bearing: a colon-joined value is classified as a List before any
// single element of it is considered a FilePath, so "/usr/bin:/bin" becomes
// a List of FilePaths rather than one long FilePath.
func Parse(s string) Value {
	switch {
	case s == "":
		return None()
	case s == "True":
		return Bool(true)
	case s == "False":
		return Bool(false)
	}
	if !strings.Contains(s, ".") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Integer(i)
		}
	} else if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Decimal(f)
	}
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		elems := make([]Value, len(parts))
		for i, p := range parts {
			elems[i] = Parse(p)
		}
		return List(elems)
	}
	if isPathLike(s) {
		return FilePath(s)
	}
	return String(s)
}

func isPathLike(s string) bool {
	switch {
	case strings.HasPrefix(s, "/"):
		return true
	case strings.HasPrefix(s, "./"):
		return true
	case strings.HasPrefix(s, "../"):
		return true
	case strings.HasPrefix(s, "~/"):
		return true
	default:
		return false
	}
}
