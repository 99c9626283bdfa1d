package executor

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"shipshell.dev/ship/internal/command"
)

// reexecEnvVar, when set in a child's environment, tells a freshly started
// copy of the ship binary to skip the REPL entirely and instead act as the
// forked process for one spec node, read from reexecSpecFD.
//
// Go's runtime gives user code no safe way to fork() and keep running
// arbitrary Go code (goroutines, the GC) in the child before exec'ing —
// only async-signal-safe work is permitted between fork and exec. Subshell,
// a composite Redirect, and a non-final pipeline stage all need to run a
// recursive tree of Go logic (builtins, further forks, env scoping) in what
// spec.md describes as "the child", which rules out raw fork(2). The
// idiomatic Go answer (used by e.g. container runtimes needing namespace
// setup before their real work starts) is to re-exec the same binary: a
// plain os/exec.Cmd.Start() does the real fork+exec in one step, and the
// child, recognizing reexecEnvVar, becomes "the forked child" spec.md
// describes by running RunReexecNode below instead of main's REPL.
const reexecEnvVar = "SHIP_INTERNAL_NODE"

// reexecSpecFD is the file descriptor, inherited via ExtraFiles[0], that
// carries the JSON-encoded command.Runnable the child must execute.
const reexecSpecFD = 3

// IsReexecNode reports whether the current process was started to act as
// a forked spec node rather than the interactive shell. cmd/ship's main
// must check this before doing anything else.
func IsReexecNode() bool {
	return os.Getenv(reexecEnvVar) == "1"
}

// RunReexecNode is the entry point for a re-exec'd child: it reads the
// spec handed down by its parent, builds a fresh Runtime from its own
// inherited environment (spec.md §4.1's "initialized exactly once at
// startup", now true of this process too), executes the node as "already
// forked" (entryRun, not run — the fork already happened by virtue of this
// process existing), and exits with the resulting code. It never returns.
func RunReexecNode() {
	specFile := os.NewFile(reexecSpecFD, "ship-spec")
	var r command.Runnable
	if err := json.NewDecoder(specFile).Decode(&r); err != nil {
		fmt.Fprintln(os.Stderr, "ship: internal: decoding spec:", err)
		os.Exit(70)
	}
	specFile.Close()

	rt := NewRuntime(os.Environ())
	code, err := entryRun(rt, Lower(r), os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ship: internal:", err)
		os.Exit(70)
	}
	os.Exit(code)
}

// reexecChild starts a new copy of the running binary to act as the forked
// process for s, wiring stdin/stdout/stderr and handing s across as JSON
// on reexecSpecFD. It returns a waiter that reaps the child.
func reexecChild(rt *Runtime, s spec, stdin, stdout, stderr *os.File) (waiter, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, err
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(self)
	cmd.Env = append(rt.Env.ToEnvp(), reexecEnvVar+"=1")
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.ExtraFiles = []*os.File{pr}

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, err
	}
	pr.Close()

	enc := json.NewEncoder(pw)
	encErr := enc.Encode(s.toRunnable())
	pw.Close()
	if encErr != nil {
		cmd.Wait()
		return nil, encErr
	}

	return func() (int, error) {
		err := cmd.Wait()
		return waitCmdErr(cmd.ProcessState, err)
	}, nil
}
