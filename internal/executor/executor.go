// Package executor implements the Executor of spec.md §4.5: lowering a
// Runnable to a CommandSpec, then walking it to fork child processes and
// wire pipes/redirections/fd duplications, recording the terminal exit
// code into the shared environment store.
package executor

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"shipshell.dev/ship/internal/builtins"
	"shipshell.dev/ship/internal/command"
	"shipshell.dev/ship/internal/resolver"
	"shipshell.dev/ship/internal/shellenv"
)

// waiter blocks until a spawned stage has finished and reports its exit
// code. Returning it instead of blocking immediately lets capture mode
// hand the caller readable descriptors before the underlying process tree
// has necessarily finished writing to them (spec.md §4.5 capture mode,
// §9 "Capture mode FD ownership").
type waiter func() (int, error)

// Tracer receives one line per fork or exec event when enabled, in the
// spirit of the teacher's interp/trace.go xtrace support (spec.md §A of
// SPEC_FULL.md).
type Tracer func(format string, args ...any)

// Runtime bundles everything a running shell process needs to execute
// Runnables: the shared environment store (spec.md §4.1's process-wide
// singleton, one instance per OS process including reexec'd children) and
// the default stdio to use when a top-level Execute call doesn't override
// it.
type Runtime struct {
	Env    *shellenv.Store
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
	Trace  Tracer
}

// NewRuntime builds a Runtime whose Store is initialized from environ
// (spec.md §4.1), defaulting stdio to the process' own standard streams.
func NewRuntime(environ []string) *Runtime {
	return &Runtime{
		Env:    shellenv.New(environ),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (rt *Runtime) trace(format string, args ...any) {
	if rt.Trace != nil {
		rt.Trace(format, args...)
	}
}

// Result is returned by Execute and ExecuteCapture. In capture mode,
// Stdout/Stderr are owned by the caller once returned: they must be
// drained and closed, and ExitCode is only meaningful after Wait returns.
type Result struct {
	Stdout io.ReadCloser
	Stderr io.ReadCloser

	wait     waiter
	exitCode int
	waitErr  error
	waited   bool
}

// Wait blocks until the underlying process tree has finished and returns
// its exit code. Safe to call more than once; later calls return the
// cached result.
func (res *Result) Wait() (int, error) {
	if !res.waited {
		res.exitCode, res.waitErr = res.wait()
		res.waited = true
	}
	return res.exitCode, res.waitErr
}

// ExitCode returns the exit code recorded by the last Wait call, or 0 if
// Wait has not been called yet.
func (res *Result) ExitCode() int { return res.exitCode }

// Execute is the top-level entry point of spec.md §4.5: lower r, dispatch
// by variant, record the exit code into the "?" slot, and return.
// Execute blocks until the whole tree has finished.
func (rt *Runtime) Execute(r command.Runnable) (*Result, error) {
	s := Lower(r)
	w, err := run(rt, s, rt.Stdin, rt.Stdout, rt.Stderr)
	if err != nil {
		return nil, err
	}
	code, waitErr := w()
	rt.Env.SetExitCode(code)
	return &Result{exitCode: code, waitErr: waitErr, waited: true, wait: w}, waitErr
}

// ExecuteCapture runs r the same way Execute does, but arranges for its
// final stage's stdout and stderr to be captured into readable pipes
// handed back to the caller instead of inherited from rt.Stdout/Stderr.
// The caller must drain and close both, then call Result.Wait to learn
// the exit code and have it recorded into "?".
func (rt *Runtime) ExecuteCapture(r command.Runnable) (*Result, error) {
	s := Lower(r)

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, err
	}

	// A top-level Builtin (optionally wrapped in WithEnv) runs in this
	// process via a goroutine (run's specBuiltin branch), never forking, so
	// closing outW/errW the moment run returns would race that goroutine's
	// writes. Run it to completion synchronously right here instead, with
	// outW/errW as its Context's Stdout/Stderr, so the pipes only close once
	// nothing is writing to them anymore. The shell's own fds 1 and 2 are
	// not dup'd onto the pipes.
	if code, ok := captureBuiltinSync(rt, s, rt.Stdin, outW, errW); ok {
		outW.Close()
		errW.Close()
		wrapped := func() (int, error) {
			rt.Env.SetExitCode(code)
			return code, nil
		}
		return &Result{Stdout: outR, Stderr: errR, wait: wrapped}, nil
	}

	w, err := run(rt, s, rt.Stdin, outW, errW)
	outW.Close()
	errW.Close()
	if err != nil {
		outR.Close()
		errR.Close()
		return nil, err
	}

	wrapped := func() (int, error) {
		code, err := w()
		rt.Env.SetExitCode(code)
		return code, err
	}
	return &Result{Stdout: outR, Stderr: errR, wait: wrapped}, nil
}

// captureBuiltinSync peels any WithEnv wrappers around s and, if it
// bottoms out at a Builtin with no fork in between, runs it synchronously
// to completion and reports ok=true. Anything else (a Command, Subshell,
// Redirect, or Pipeline) forks a real OS process that holds its own copy
// of stdout/stderr, so ExecuteCapture's immediate pipe close is already
// safe for those and this returns ok=false to let the generic run path
// handle them.
func captureBuiltinSync(rt *Runtime, s spec, stdin, stdout, stderr *os.File) (code int, ok bool) {
	var restores []func()
	defer func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}()
	cur := s
	for cur.kind == specWithEnv {
		restores = append(restores, rt.Env.WithOverlay(cur.overlay))
		cur = *cur.inner
	}
	if cur.kind != specBuiltin {
		return 0, false
	}
	return runBuiltinSync(rt, cur, stdin, stdout, stderr), true
}

// run dispatches one spec node, forking exactly where spec.md §4.5
// mandates a fork for that variant, and returns a waiter for its
// completion without blocking.
func run(rt *Runtime, s spec, stdin, stdout, stderr *os.File) (waiter, error) {
	switch s.kind {
	case specBuiltin:
		return runBuiltinAsync(rt, s, stdin, stdout, stderr)
	case specCommand:
		return execExternalCommand(rt, s, stdin, stdout, stderr)
	case specSubshell:
		rt.trace("fork subshell")
		return reexecChild(rt, s, stdin, stdout, stderr)
	case specRedirect:
		return runRedirect(rt, s, stdin, stdout, stderr)
	case specWithEnv:
		return runWithEnv(rt, s, stdin, stdout, stderr)
	case specPipeline:
		return runPipeline(rt, s, stdin, stdout, stderr)
	default:
		return nil, fmt.Errorf("executor: unknown spec kind")
	}
}

// entryRun is the body of a reexec'd child (RunReexecNode): s is the node
// whose fork already happened by virtue of this process existing, so
// entryRun performs the "now that we're the child" half of that variant's
// semantics without forking s itself again. It blocks, since the child's
// only job left is to compute an exit code and call os.Exit with it.
func entryRun(rt *Runtime, s spec, stdin, stdout, stderr *os.File) (int, error) {
	switch s.kind {
	case specSubshell:
		w, err := run(rt, *s.inner, stdin, stdout, stderr)
		if err != nil {
			return 0, err
		}
		return w()

	case specRedirect:
		sink, err := openRedirect(s.target)
		if err != nil {
			fmt.Fprintln(stderr, "ship:", err)
			return 1, nil
		}
		w, err := run(rt, *s.inner, stdin, sink.file, stderr)
		if err != nil {
			sink.finish(false)
			return 0, err
		}
		code, waitErr := w()
		sink.finish(waitErr == nil)
		return code, waitErr

	case specWithEnv:
		restore := rt.Env.WithOverlay(s.overlay)
		defer restore()
		w, err := run(rt, *s.inner, stdin, stdout, stderr)
		if err != nil {
			return 0, err
		}
		return w()

	case specBuiltin:
		return runBuiltinSync(rt, s, stdin, stdout, stderr), nil

	case specCommand:
		execInPlace(rt, s) // exits the process itself on failure to exec
		return 127, nil

	case specPipeline:
		w, err := runPipeline(rt, s, stdin, stdout, stderr)
		if err != nil {
			return 0, err
		}
		return w()

	default:
		return 0, fmt.Errorf("executor: unknown spec kind")
	}
}

func runBuiltinSync(rt *Runtime, s spec, stdin, stdout, stderr *os.File) int {
	ctx := &builtins.Context{Env: rt.Env, Stdin: stdin, Stdout: stdout, Stderr: stderr, Exit: os.Exit}
	return clampExit(s.builtinFn(ctx, s.args))
}

func runBuiltinAsync(rt *Runtime, s spec, stdin, stdout, stderr *os.File) (waiter, error) {
	done := make(chan int, 1)
	go func() { done <- runBuiltinSync(rt, s, stdin, stdout, stderr) }()
	return func() (int, error) { return <-done, nil }, nil
}

func clampExit(code int) int {
	if code < 0 {
		return 0
	}
	if code > 255 {
		return 255
	}
	return code
}

// execExternalCommand forks and execs s.prog via os/exec, per spec.md
// §4.5: argv[0] is the program name as given (not the resolved path), and
// envp is the current store's canonical projection.
func execExternalCommand(rt *Runtime, s spec, stdin, stdout, stderr *os.File) (waiter, error) {
	pathVal, hasPath := rt.Env.Get("PATH")
	resolved, err := resolver.Resolve(s.prog, pathVal, hasPath)
	if err != nil {
		rerr := err.(*resolver.Error)
		code := rerr.ExitCode()
		return func() (int, error) {
			fmt.Fprintf(stderr, "%s: command not found\n", s.prog)
			return code, nil
		}, nil
	}

	cmd := exec.Command(resolved, s.args...)
	cmd.Args[0] = s.prog
	cmd.Env = rt.Env.ToEnvp()
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	rt.trace("exec %s %v", s.prog, s.args)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return func() (int, error) {
		err := cmd.Wait()
		return waitCmdErr(cmd.ProcessState, err)
	}, nil
}

// execInPlace is entryRun's specCommand case: rather than spawning yet
// another process from inside an already-forked reexec child, it replaces
// the child's own image in place via execve, which is the literal "exec"
// half of the fork-then-exec pair the rest of this package approximates
// with os/exec.Cmd.Start. It does not return: a resolution failure exits
// with the resolver's exit code, and a failed execve exits with 126.
func execInPlace(rt *Runtime, s spec) {
	pathVal, hasPath := rt.Env.Get("PATH")
	resolved, err := resolver.Resolve(s.prog, pathVal, hasPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: command not found\n", s.prog)
		os.Exit(err.(*resolver.Error).ExitCode())
	}
	argv := append([]string{s.prog}, s.args...)
	err = unix.Exec(resolved, argv, rt.Env.ToEnvp())
	fmt.Fprintf(os.Stderr, "%s: %v\n", s.prog, err)
	os.Exit(126)
}

func runRedirect(rt *Runtime, s spec, stdin, stdout, stderr *os.File) (waiter, error) {
	if s.inner.kind == specCommand {
		// A Command is already its own single fork+exec; redirecting its
		// stdout needs no extra process on top of that one.
		sink, err := openRedirect(s.target)
		if err != nil {
			return nil, err
		}
		w, err := execExternalCommand(rt, *s.inner, stdin, sink.file, stderr)
		if err != nil {
			sink.finish(false)
			return nil, err
		}
		return func() (int, error) {
			code, waitErr := w()
			sink.finish(waitErr == nil)
			return code, waitErr
		}, nil
	}
	rt.trace("fork redirect")
	return reexecChild(rt, s, stdin, stdout, stderr)
}

func runWithEnv(rt *Runtime, s spec, stdin, stdout, stderr *os.File) (waiter, error) {
	restore := rt.Env.WithOverlay(s.overlay)
	w, err := run(rt, *s.inner, stdin, stdout, stderr)
	if err != nil {
		restore()
		return nil, err
	}
	return func() (int, error) {
		code, waitErr := w()
		restore()
		return code, waitErr
	}, nil
}

// runPipeline implements spec.md §4.5's pipeline construction: n pipes for
// n predecessors, one fork per predecessor, and a final stage that either
// runs in-parent (if it's a Builtin, via an fd-0 dup/restore) or forks one
// more child. All forks complete before any wait; predecessors are reaped
// concurrently via an errgroup, and the pipeline's exit code is strictly
// the final stage's.
func runPipeline(rt *Runtime, s spec, stdin, stdout, stderr *os.File) (waiter, error) {
	n := len(s.preds)
	type pipe struct{ r, w *os.File }
	pipes := make([]pipe, n)
	for i := range pipes {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		pipes[i] = pipe{r, w}
	}

	closeAll := func() {
		for _, p := range pipes {
			p.r.Close()
			p.w.Close()
		}
	}
	closeAllExcept := func(keep *os.File) {
		for _, p := range pipes {
			if p.r != keep {
				p.r.Close()
			}
			p.w.Close()
		}
	}

	predWaiters := make([]waiter, n)
	for i, predSpec := range s.preds {
		in := stdin
		if i > 0 {
			in = pipes[i-1].r
		}
		out := pipes[i].w
		var w waiter
		var err error
		if predSpec.kind == specCommand {
			w, err = execExternalCommand(rt, predSpec, in, out, stderr)
		} else {
			rt.trace("fork pipeline stage %d", i)
			w, err = reexecChild(rt, predSpec, in, out, stderr)
		}
		if err != nil {
			closeAll()
			return nil, err
		}
		predWaiters[i] = w
	}

	final := s.final
	var finalWaiter waiter
	if final.kind == specBuiltin {
		// Run in-parent: dup2 the last pipe's read end onto fd 0, saving
		// and restoring the original, per spec.md §4.5.
		savedStdin, err := dupFD(int(os.Stdin.Fd()))
		if err != nil {
			closeAll()
			return nil, err
		}
		var builtinStdin *os.File = stdin
		if n > 0 {
			builtinStdin = pipes[n-1].r
			if err := dup2FD(int(builtinStdin.Fd()), int(os.Stdin.Fd())); err != nil {
				unix.Close(savedStdin)
				closeAll()
				return nil, err
			}
		}
		closeAllExcept(builtinStdin)
		code := runBuiltinSync(rt, *final, builtinStdin, stdout, stderr)
		if n > 0 {
			builtinStdin.Close()
		}
		dup2FD(savedStdin, int(os.Stdin.Fd()))
		unix.Close(savedStdin)
		finalWaiter = func() (int, error) { return code, nil }
	} else {
		in := stdin
		if n > 0 {
			in = pipes[n-1].r
		}
		var err error
		if final.kind == specCommand {
			finalWaiter, err = execExternalCommand(rt, *final, in, stdout, stderr)
		} else {
			rt.trace("fork pipeline final stage")
			finalWaiter, err = reexecChild(rt, *final, in, stdout, stderr)
		}
		closeAll()
		if err != nil {
			return nil, err
		}
	}

	return func() (int, error) {
		var g errgroup.Group
		for _, w := range predWaiters {
			w := w
			g.Go(func() error {
				_, err := w()
				return err
			})
		}
		code, err := finalWaiter()
		if gerr := g.Wait(); gerr != nil && err == nil {
			err = gerr
		}
		return code, err
	}, nil
}

func dupFD(fd int) (int, error) { return unix.Dup(fd) }

func dup2FD(oldfd, newfd int) error { return unix.Dup2(oldfd, newfd) }
