// Package command implements the immutable command algebra of spec.md §3
// and §4.4: the Runnable sum type and its composition operators
// (pipe-compose, redirect-to, redirect-append, with-env). Every operator
// here is a pure function: it never mutates an operand, only builds a new
// tree around copies of the operands' fields.
package command

import "shipshell.dev/ship/internal/shellenv"

// Kind discriminates the Runnable sum type's variants.
type Kind uint8

const (
	KindCommand Kind = iota
	KindPipeline
	KindSubshell
	KindRedirect
	KindWithEnv
)

// RedirectTargetKind discriminates Redirect's target variants.
type RedirectTargetKind uint8

const (
	TargetFilePath RedirectTargetKind = iota
	TargetFD
)

// RedirectTarget is either a file path (with an append flag) or a raw
// numeric file descriptor, per spec.md §3.
type RedirectTarget struct {
	Kind   RedirectTargetKind
	Path   string
	Append bool
	FD     int
}

// Runnable is the recursively immutable sum type of spec.md §3. Only one
// field group is meaningful at a time, selected by Kind; constructors
// below are the only supported way to build one, so callers never see a
// half-populated value from outside this package.
type Runnable struct {
	Kind Kind

	// KindCommand
	Prog string
	Args []string

	// KindPipeline: Preds feeds Final through pipes. Pipelines are always
	// flat: neither Preds nor Final ever holds a Runnable of KindPipeline
	// (see Pipe below, this package's only constructor of this variant).
	Preds []Runnable
	Final *Runnable

	// KindSubshell, KindRedirect, KindWithEnv
	Inner *Runnable

	// KindRedirect
	Target RedirectTarget

	// KindWithEnv
	Overlay map[string]shellenv.Value
}

// Cmd builds an atomic Command{prog, args} stage.
func Cmd(prog string, args ...string) Runnable {
	argsCopy := append([]string(nil), args...)
	return Runnable{Kind: KindCommand, Prog: prog, Args: argsCopy}
}

// Sub wraps r so its side effects are isolated to a forked child.
func Sub(r Runnable) Runnable {
	inner := r
	return Runnable{Kind: KindSubshell, Inner: &inner}
}

// errComposition is the synchronous type-error spec.md §7 requires for
// composition errors (piping into or out of a redirection).
type errComposition struct{ msg string }

func (e *errComposition) Error() string { return e.msg }

// Pipe implements the pipe-compose operator of spec.md §4.4 by case
// analysis over the two operands. It is this package's only constructor of
// KindPipeline, which is why pipelines built through this package are
// always flat: the four cases below splice any existing Preds/Final
// slices together rather than ever nesting a Pipeline inside another.
func Pipe(a, b Runnable) (Runnable, error) {
	if a.Kind == KindRedirect {
		return Runnable{}, &errComposition{"redirection must be the final operation in a chain: cannot pipe out of a Redirect"}
	}
	if b.Kind == KindRedirect {
		return Runnable{}, &errComposition{"redirection must be the final operation in a chain: cannot pipe into a Redirect"}
	}

	switch {
	case a.Kind != KindPipeline && b.Kind != KindPipeline:
		return Runnable{Kind: KindPipeline, Preds: []Runnable{a}, Final: cloneOf(b)}, nil
	case a.Kind == KindPipeline && b.Kind != KindPipeline:
		preds := append(append([]Runnable(nil), a.Preds...), *a.Final)
		return Runnable{Kind: KindPipeline, Preds: preds, Final: cloneOf(b)}, nil
	case a.Kind != KindPipeline && b.Kind == KindPipeline:
		preds := append([]Runnable{a}, b.Preds...)
		return Runnable{Kind: KindPipeline, Preds: preds, Final: cloneOf(*b.Final)}, nil
	default: // both Pipeline
		preds := append(append([]Runnable(nil), a.Preds...), *a.Final)
		preds = append(preds, b.Preds...)
		return Runnable{Kind: KindPipeline, Preds: preds, Final: cloneOf(*b.Final)}, nil
	}
}

// PipeAll folds Pipe across a and rest, left-associating them in argument
// order: PipeAll(a, b, c) == Pipe(Pipe(a, b), c). Composition is
// associative (spec.md §8), so this is equivalent to any other grouping
// of the same sequence for non-Redirect operands.
func PipeAll(a, b Runnable, rest ...Runnable) (Runnable, error) {
	acc, err := Pipe(a, b)
	if err != nil {
		return Runnable{}, err
	}
	for _, r := range rest {
		acc, err = Pipe(acc, r)
		if err != nil {
			return Runnable{}, err
		}
	}
	return acc, nil
}

// RedirectTo wraps r to truncate-redirect its stdout to path.
func RedirectTo(r Runnable, path string) Runnable {
	inner := r
	return Runnable{Kind: KindRedirect, Inner: &inner, Target: RedirectTarget{Kind: TargetFilePath, Path: path, Append: false}}
}

// RedirectAppend wraps r to append-redirect its stdout to path.
func RedirectAppend(r Runnable, path string) Runnable {
	inner := r
	return Runnable{Kind: KindRedirect, Inner: &inner, Target: RedirectTarget{Kind: TargetFilePath, Path: path, Append: true}}
}

// RedirectFD wraps r to dup2 fd onto its stdout.
func RedirectFD(r Runnable, fd int) Runnable {
	inner := r
	return Runnable{Kind: KindRedirect, Inner: &inner, Target: RedirectTarget{Kind: TargetFD, FD: fd}}
}

// WithEnv implements spec.md §4.4's with-env operator: if r is already a
// WithEnv wrapper, overlay is merged into its existing map (new keys
// override old) rather than nesting a second wrapper, avoiding the
// cascade of identical wrappers a naive implementation would build from
// `r.with_env(a).with_env(b).with_env(c)`.
func WithEnv(r Runnable, overlay map[string]shellenv.Value) Runnable {
	if r.Kind == KindWithEnv {
		merged := make(map[string]shellenv.Value, len(r.Overlay)+len(overlay))
		for k, v := range r.Overlay {
			merged[k] = v
		}
		for k, v := range overlay {
			merged[k] = v
		}
		inner := *r.Inner
		return Runnable{Kind: KindWithEnv, Inner: &inner, Overlay: merged}
	}
	overlayCopy := make(map[string]shellenv.Value, len(overlay))
	for k, v := range overlay {
		overlayCopy[k] = v
	}
	inner := r
	return Runnable{Kind: KindWithEnv, Inner: &inner, Overlay: overlayCopy}
}

// cloneOf returns a pointer to an independent copy of r, so that the
// Runnable stored inside a new Pipeline never aliases the caller's
// operand (spec.md §8's immutability law: composing must leave operands
// independently re-executable).
func cloneOf(r Runnable) *Runnable {
	clone := r
	return &clone
}
