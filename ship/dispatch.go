package ship

import (
	"fmt"
	"io"
	"reflect"
)

// AutoRun implements spec.md §9's REPL auto-run policy: a line that
// evaluates to a Runnable is executed immediately (exit code reported to
// out only when nonzero, to keep a quiet REPL quiet on the golden path);
// anything else is simply printed in its canonical form. Whether a line
// reached this function as an expression or a statement is cmd/ship's
// concern (it only calls AutoRun when the yaegi evaluation produced a
// usable value); this function's own decision is type-only, exactly as
// spec.md requires ("decidable purely from the evaluated value's type,
// without inspecting the originating source line").
func AutoRun(v reflect.Value, out io.Writer, hooks *Hooks) error {
	if !v.IsValid() {
		return nil
	}
	iv := v.Interface()
	if rn, ok := IsRunnable(iv); ok {
		if hooks != nil {
			hooks.RunBeforeExecute(rn)
		}
		res, err := rn.Run()
		if err != nil {
			return err
		}
		code := res.ExitCode()
		if hooks != nil {
			hooks.RunAfterExecute(code)
		}
		if code != 0 {
			fmt.Fprintf(out, "Exit code: %d\n", code)
		}
		return nil
	}
	fmt.Fprintf(out, "%v\n", iv)
	return nil
}
