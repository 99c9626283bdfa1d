// Package ship is the Host-language Binding Facade of spec.md §4.6: it
// exposes the command algebra and the typed environment to whatever host
// language drives the REPL, as a set of opaque handle types plus a
// mapping-protocol singleton (Env). spec.md treats the embedded scripting
// interpreter itself as an external collaborator; cmd/ship supplies one
// (traefik/yaegi, a pure-Go interpreter) and imports this package's
// exported symbols into it via Symbols.
package ship

import (
	"fmt"

	"shipshell.dev/ship/internal/command"
	"shipshell.dev/ship/internal/executor"
	"shipshell.dev/ship/internal/shellenv"
)

// Runtime is the process-wide executor runtime the facade's package-level
// functions operate against. It is set once by cmd/ship's main before the
// REPL starts, mirroring spec.md §4.1's "process-wide singleton"
// requirement for the environment store that backs it.
var Runtime *executor.Runtime

// ActiveHooks is the process-wide hook registry cmd/ship consults at each
// REPL turn. Set once by cmd/ship's main alongside Runtime.
var ActiveHooks *Hooks

// Program is the opaque handle returned by Prog. Calling it with
// arguments yields a Runnable, matching spec.md §4.6's "Calling a Program
// with arguments yields a Runnable".
type Program struct {
	name string
}

// Prog names an external program or built-in by name, without resolving
// it yet; resolution happens at execution time (spec.md §4.3).
func Prog(name string) Program { return Program{name: name} }

// Call builds a Runnable{Command{name, args}}.
func (p Program) Call(args ...string) Runnable {
	return Runnable{r: command.Cmd(p.name, args...)}
}

// Runnable is the facade's opaque handle over the internal command
// algebra. It is immutable and restartable: invoking Run twice forks two
// independent process trees (spec.md §8's Restartability law), since the
// underlying command.Runnable it wraps is itself never mutated.
type Runnable struct {
	r command.Runnable
}

// Cmd is the most common construction primitive of spec.md §4.6:
// cmd(prog(name), *args) -> Runnable.
func Cmd(prog Program, args ...string) Runnable {
	return prog.Call(args...)
}

// Pipe implements spec.md §4.6's pipe(a, b, *rest) construction primitive,
// the function-call form of the pipe operator for hosts (like Go) that
// have no operator overloading (spec.md §9's re-architecture guidance).
func Pipe(a, b Runnable, rest ...Runnable) (Runnable, error) {
	restR := make([]command.Runnable, len(rest))
	for i, r := range rest {
		restR[i] = r.r
	}
	composed, err := command.PipeAll(a.r, b.r, restR...)
	if err != nil {
		return Runnable{}, err
	}
	return Runnable{r: composed}, nil
}

// Sub implements spec.md §4.6's sub(r) -> Runnable.
func Sub(r Runnable) Runnable { return Runnable{r: command.Sub(r.r)} }

// RedirectTo implements the truncating stdout-redirect operator.
func RedirectTo(r Runnable, path string) Runnable {
	return Runnable{r: command.RedirectTo(r.r, path)}
}

// RedirectAppend implements the appending stdout-redirect operator.
func RedirectAppend(r Runnable, path string) Runnable {
	return Runnable{r: command.RedirectAppend(r.r, path)}
}

// RedirectFD implements the numeric-fd stdout-redirect operator.
func RedirectFD(r Runnable, fd int) Runnable {
	return Runnable{r: command.RedirectFD(r.r, fd)}
}

// WithEnv implements the with-env operator over a host-side mapping of
// plain Go values, applying the strict conversion rules of §4.6.
func WithEnv(r Runnable, overlay map[string]any) (Runnable, error) {
	converted := make(map[string]shellenv.Value, len(overlay))
	for k, v := range overlay {
		cv, err := ToEnvValue(v)
		if err != nil {
			return Runnable{}, fmt.Errorf("with_env(%q): %w", k, err)
		}
		converted[k] = cv
	}
	return Runnable{r: command.WithEnv(r.r, converted)}, nil
}

// Run executes the Runnable to completion (spec.md §4.5's top-level
// dispatch) and returns its exit code wrapped as a Result handle.
func (rn Runnable) Run() (Result, error) {
	res, err := Runtime.Execute(rn.r)
	if err != nil {
		return Result{}, err
	}
	code, waitErr := res.Wait()
	return Result{exitCode: code}, waitErr
}

// Capture executes the Runnable in capture mode (spec.md §4.5), returning
// a Result whose Stdout/Stderr readers the caller owns and must drain.
func (rn Runnable) Capture() (Result, error) {
	res, err := Runtime.ExecuteCapture(rn.r)
	if err != nil {
		return Result{}, err
	}
	return Result{capture: res}, nil
}

// Result is the facade's opaque handle over executor.Result, carrying at
// minimum an exit code and, in capture mode, two readable descriptors
// (spec.md §3's ShellResult).
type Result struct {
	exitCode int
	capture  *executor.Result
}

// ExitCode returns the command's exit code. In capture mode this blocks
// until the process tree has finished, which should happen after the
// caller has drained Stdout/Stderr to avoid a pipe-buffer deadlock.
func (res Result) ExitCode() int {
	if res.capture != nil {
		code, _ := res.capture.Wait()
		return code
	}
	return res.exitCode
}

// Stdout returns the captured stdout reader, or nil outside capture mode.
func (res Result) Stdout() interface{ Read([]byte) (int, error) } {
	if res.capture == nil {
		return nil
	}
	return res.capture.Stdout
}

// Stderr returns the captured stderr reader, or nil outside capture mode.
func (res Result) Stderr() interface{ Read([]byte) (int, error) } {
	if res.capture == nil {
		return nil
	}
	return res.capture.Stderr
}

// CurrentEnv returns the mapping-protocol view of the process-wide
// ShellEnvironment backing Runtime. It is how host scripts reach "env"
// without needing to see the internal *shellenv.Store type at all.
func CurrentEnv() Env { return NewEnv(Runtime.Env) }

// IsRunnable reports whether v is a Runnable, decidable purely from its
// type as spec.md §9 requires for the REPL's auto-run policy, without
// inspecting the originating source line.
func IsRunnable(v any) (Runnable, bool) {
	r, ok := v.(Runnable)
	return r, ok
}
