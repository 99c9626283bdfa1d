package executor

import (
	"shipshell.dev/ship/internal/builtins"
	"shipshell.dev/ship/internal/command"
	"shipshell.dev/ship/internal/shellenv"
)

// specKind mirrors command.Kind but adds Builtin, the one way a CommandSpec
// differs from the Runnable it was lowered from (spec.md §3, §4.5).
type specKind uint8

const (
	specCommand specKind = iota
	specBuiltin
	specPipeline
	specSubshell
	specRedirect
	specWithEnv
)

// spec is the executor's lowered view of a Runnable. Lowering (Lower,
// below) is a structural, one-pass mapping: every node is copied as-is
// except Command{name,args}, which becomes a Builtin node when name is
// registered in the built-in table.
type spec struct {
	kind specKind

	prog string
	args []string

	builtinName string
	builtinFn   builtins.Func

	preds []spec
	final *spec

	inner *spec

	target command.RedirectTarget

	overlay map[string]shellenv.Value
}

// Lower builds a spec from r, consulting the built-in registry once per
// Command node encountered (spec.md §4.5 "Lowering").
func Lower(r command.Runnable) spec {
	switch r.Kind {
	case command.KindCommand:
		if fn, ok := builtins.Lookup(r.Prog); ok {
			return spec{kind: specBuiltin, builtinName: r.Prog, builtinFn: fn, args: append([]string(nil), r.Args...)}
		}
		return spec{kind: specCommand, prog: r.Prog, args: append([]string(nil), r.Args...)}
	case command.KindPipeline:
		preds := make([]spec, len(r.Preds))
		for i, p := range r.Preds {
			preds[i] = Lower(p)
		}
		final := Lower(*r.Final)
		return spec{kind: specPipeline, preds: preds, final: &final}
	case command.KindSubshell:
		inner := Lower(*r.Inner)
		return spec{kind: specSubshell, inner: &inner}
	case command.KindRedirect:
		inner := Lower(*r.Inner)
		return spec{kind: specRedirect, inner: &inner, target: r.Target}
	case command.KindWithEnv:
		inner := Lower(*r.Inner)
		overlay := make(map[string]shellenv.Value, len(r.Overlay))
		for k, v := range r.Overlay {
			overlay[k] = v
		}
		return spec{kind: specWithEnv, inner: &inner, overlay: overlay}
	default:
		panic("executor: unknown Runnable kind during lowering")
	}
}
