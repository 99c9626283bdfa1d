package executor

import "shipshell.dev/ship/internal/command"

// toRunnable reconstructs the command.Runnable a spec was lowered from.
// Re-lowering the result reproduces the same spec, since Lower's only
// built-in-sensitive decision (Command -> Builtin) is a pure function of
// the program name. This lets the self-reexec path (reexec.go) ship a
// JSON-encodable Runnable across a process boundary instead of a spec
// carrying unserializable function values.
func (s spec) toRunnable() command.Runnable {
	switch s.kind {
	case specCommand:
		return command.Cmd(s.prog, s.args...)
	case specBuiltin:
		return command.Cmd(s.builtinName, s.args...)
	case specPipeline:
		preds := make([]command.Runnable, len(s.preds))
		for i, p := range s.preds {
			preds[i] = p.toRunnable()
		}
		final := s.final.toRunnable()
		return command.Runnable{Kind: command.KindPipeline, Preds: preds, Final: &final}
	case specSubshell:
		inner := s.inner.toRunnable()
		return command.Runnable{Kind: command.KindSubshell, Inner: &inner}
	case specRedirect:
		inner := s.inner.toRunnable()
		return command.Runnable{Kind: command.KindRedirect, Inner: &inner, Target: s.target}
	case specWithEnv:
		inner := s.inner.toRunnable()
		return command.Runnable{Kind: command.KindWithEnv, Inner: &inner, Overlay: s.overlay}
	default:
		panic("executor: unknown spec kind")
	}
}
