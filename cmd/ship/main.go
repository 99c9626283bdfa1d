// ship is a REPL built on top of the [shipshell.dev/ship] command algebra,
// driven by an embedded traefik/yaegi interpreter instead of a bespoke
// shell grammar.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"go/scanner"
	"os"
	"os/signal"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"golang.org/x/term"

	"shipshell.dev/ship/internal/executor"
	"shipshell.dev/ship/internal/shellenv"
	"shipshell.dev/ship/ship"
)

var command = flag.String("c", "", "command to be evaluated")

const banner = "ship - a Go-flavored shell\ntype Go expressions; a line that evaluates to a Runnable runs it\n"

func main() {
	os.Exit(main1())
}

// main1 is the whole of this binary's behavior, factored out of main so
// the testscript harness (this package's end-to-end tests) can
// register it by name and drive it as a subprocess command the way the
// teacher's cmd/shfmt tests register shfmt's own main1.
func main1() int {
	// A re-exec'd node never reaches the REPL: it is the forked half of a
	// Subshell, composite Redirect, or non-final pipeline stage (see
	// internal/executor/reexec.go), so it must detect that role before
	// touching flag.Parse or any of the REPL's own state.
	if executor.IsReexecNode() {
		executor.RunReexecNode()
		return 0
	}

	flag.Parse()
	code, err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ship:", err)
		return 1
	}
	return code
}

func run() (int, error) {
	rt := executor.NewRuntime(os.Environ())
	ship.Runtime = rt
	ship.ActiveHooks = ship.NewHooks()

	i := interp.New(interp.Options{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Env:    rt.Env.ToEnvp(),
	})
	if err := i.Use(stdlib.Symbols); err != nil {
		return 1, err
	}
	if err := i.Use(ship.Symbols); err != nil {
		return 1, err
	}
	if _, err := i.Eval(`import . "shipshell.dev/ship/ship"`); err != nil {
		return 1, err
	}

	if *command != "" {
		v, err := i.Eval(*command)
		if err != nil {
			return 1, err
		}
		return autoRunExitCode(v, os.Stdout, ship.ActiveHooks), nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return 0, runBatch(i, os.Stdin)
	}
	return 0, runInteractive(i, rt, os.Stdin, os.Stdout, os.Stderr)
}

// autoRunExitCode applies the same auto-run policy as the REPL, but also
// reports the executed Runnable's exit code for -c mode, matching a
// traditional shell's "sh -c" process-exit-status contract.
func autoRunExitCode(v reflect.Value, out *os.File, hooks *ship.Hooks) int {
	if !v.IsValid() {
		return 0
	}
	rn, ok := ship.IsRunnable(v.Interface())
	if !ok {
		fmt.Fprintf(out, "%v\n", v.Interface())
		return 0
	}
	hooks.RunBeforeExecute(rn)
	res, err := rn.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	code := res.ExitCode()
	hooks.RunAfterExecute(code)
	return code
}

// runBatch evaluates piped-in, non-interactive input one line at a time,
// without prompts, mirroring the teacher's non-tty branch.
func runBatch(i *interp.Interpreter, in *os.File) error {
	sc := bufio.NewScanner(in)
	var src strings.Builder
	for sc.Scan() {
		src.WriteString(sc.Text())
		src.WriteByte('\n')
		v, err := i.Eval(src.String())
		if err != nil {
			if incomplete(err, sc.Text()) {
				continue
			}
			fmt.Fprintln(os.Stderr, err)
			src.Reset()
			continue
		}
		ship.AutoRun(v, os.Stdout, ship.ActiveHooks)
		src.Reset()
	}
	return sc.Err()
}

// runInteractive drives the read-eval-print loop against a terminal: two
// tunable prompts (PS1 for a fresh line, PS2 for a continuation), the four
// REPL hooks firing at their documented points, Ctrl-C clearing whatever
// has been typed on the current logical line without killing the process,
// and Ctrl-D (EOF on stdin) printing a farewell and exiting cleanly.
func runInteractive(i *interp.Interpreter, rt *executor.Runtime, in *os.File, out, errOut *os.File) error {
	fmt.Fprint(out, banner)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)

	lines := make(chan string)
	eof := make(chan struct{})
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(eof)
	}()

	var src strings.Builder
	prompt := func() {
		if src.Len() == 0 {
			ship.ActiveHooks.RunBeforePrompt()
			fmt.Fprint(out, promptString(rt, shellenv.KeyPS1))
		} else {
			ship.ActiveHooks.RunBeforeContinuation()
			fmt.Fprint(out, promptString(rt, shellenv.KeyPS2))
		}
	}

	prompt()
	for {
		select {
		case <-sig:
			src.Reset()
			fmt.Fprintln(out)
			prompt()
		case <-eof:
			fmt.Fprintln(out, "\nbye")
			return nil
		case line := <-lines:
			src.WriteString(line)
			src.WriteByte('\n')
			v, err := i.Eval(src.String())
			if err != nil {
				if incomplete(err, line) {
					prompt()
					continue
				}
				fmt.Fprintln(errOut, formatEvalErr(err))
				src.Reset()
				prompt()
				continue
			}
			src.Reset()
			if err := ship.AutoRun(v, out, ship.ActiveHooks); err != nil {
				fmt.Fprintln(errOut, err)
			}
			prompt()
		}
	}
}

func promptString(rt *executor.Runtime, key string) string {
	v, ok := rt.Env.Get(key)
	if !ok {
		return "$ "
	}
	return v.Project()
}

// incomplete reports whether err is the kind of parse error that means
// "give me one more line before judging this invalid", the same
// classification yaegi's own REPL applies to its scanner errors.
func incomplete(err error, lastLine string) bool {
	e, ok := err.(scanner.ErrorList)
	if !ok || len(e) == 0 {
		return false
	}
	msg := e[0].Msg
	switch {
	case strings.HasSuffix(msg, "found 'EOF'"):
		return true
	case msg == "raw string literal not terminated":
		return true
	case strings.HasPrefix(msg, "expected operand, found '}'") && !strings.HasSuffix(lastLine, "}"):
		return true
	default:
		return false
	}
}

func formatEvalErr(err error) string {
	if p, ok := err.(interp.Panic); ok {
		return fmt.Sprintf("%v\n%s", p.Value, p.Stack)
	}
	return err.Error()
}
