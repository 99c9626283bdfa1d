// Package builtins implements the fixed dispatch table of spec.md §4.2:
// names mapped to in-process callables (argv) -> exit code, running
// against the shared environment store rather than a forked child.
package builtins

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"shipshell.dev/ship/internal/resolver"
	"shipshell.dev/ship/internal/shellenv"
)

// Func is the contract a built-in exposes to the executor: an argv slice
// in, an exit code out. Built-ins write their own stdout/stderr through
// the IO their Context carries.
type Func func(ctx *Context, args []string) int

// Context bundles everything a built-in needs: the shared environment
// store and the process' current stdout/stderr (which, inside a
// pipeline's final stage or a capture-mode run, may have been dup'd
// elsewhere by the executor before the built-in runs).
type Context struct {
	Env    *shellenv.Store
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Exit, when set by the executor, is called by the "exit"/"quit"
	// builtins to terminate the whole host process with this code instead
	// of just returning it as a pipeline/command exit status.
	Exit func(code int)
}

// registry is the fixed name -> Func table spec.md §4.2 describes. It is
// populated once at init time and never mutated afterward, so lookups
// need no locking.
var registry = map[string]Func{
	"cd":    cd,
	"pwd":   pwd,
	"pushd": pushd,
	"popd":  popd,
	"dirs":  dirs,
	"exit":  exitBuiltin,
	"quit":  exitBuiltin,
	"which": which,
}

// Lookup returns the built-in registered under name, if any. This is the
// single consultation point the executor's lowering step (spec.md §4.5)
// uses to decide whether a Command{name,args} becomes a Builtin node.
func Lookup(name string) (Func, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// IsBuiltin reports whether name is a registered built-in, without
// fetching its Func. Used by "which" to report built-in status.
func IsBuiltin(name string) bool {
	_, ok := registry[name]
	return ok
}

func cd(ctx *Context, args []string) int {
	var path string
	switch len(args) {
	case 0:
		home, ok := ctx.Env.Get("HOME")
		if !ok {
			fmt.Fprintln(ctx.Stderr, "cd: HOME not set")
			return 1
		}
		path = home.Project()
	case 1:
		path = args[0]
		if path == "-" {
			old, ok := ctx.Env.Get(shellenv.KeyOldPWD)
			if !ok {
				fmt.Fprintln(ctx.Stderr, "cd: OLDPWD not set")
				return 1
			}
			path = old.Project()
			fmt.Fprintln(ctx.Stdout, path)
		} else {
			path = expandTilde(ctx, path)
		}
	default:
		fmt.Fprintln(ctx.Stderr, "usage: cd [path|-]")
		return 1
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		fmt.Fprintf(ctx.Stderr, "cd: %s: No such file or directory\n", path)
		return 1
	}

	prevPWD, _ := ctx.Env.Get("PWD")
	ctx.Env.Set(shellenv.KeyOldPWD, prevPWD)
	if err := os.Chdir(path); err != nil {
		fmt.Fprintf(ctx.Stderr, "cd: %s: %v\n", path, err)
		return 1
	}
	ctx.Env.Set("PWD", shellenv.FilePath(path))
	ctx.Env.ReplaceTop(path)
	return 0
}

func expandTilde(ctx *Context, path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, ok := ctx.Env.Get("HOME")
	if !ok {
		return path
	}
	if path == "~" {
		return home.Project()
	}
	return home.Project() + path[1:]
}

func pwd(ctx *Context, args []string) int {
	physical := false
	for _, a := range args {
		switch a {
		case "-P":
			physical = true
		case "-L":
			physical = false
		default:
			fmt.Fprintf(ctx.Stderr, "pwd: invalid option: %q\n", a)
			return 1
		}
	}
	if physical {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintln(ctx.Stderr, "pwd:", err)
			return 1
		}
		fmt.Fprintln(ctx.Stdout, cwd)
		return 0
	}
	pwd, ok := ctx.Env.Get("PWD")
	if !ok {
		fmt.Fprintln(ctx.Stderr, "pwd: PWD not set")
		return 1
	}
	fmt.Fprintln(ctx.Stdout, pwd.Project())
	return 0
}

func pushd(ctx *Context, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(ctx.Stderr, "usage: pushd path")
		return 1
	}
	path := expandTilde(ctx, args[0])
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		fmt.Fprintf(ctx.Stderr, "pushd: %s: No such file or directory\n", path)
		return 1
	}
	if err := os.Chdir(path); err != nil {
		fmt.Fprintf(ctx.Stderr, "pushd: %s: %v\n", path, err)
		return 1
	}
	prevPWD, _ := ctx.Env.Get("PWD")
	ctx.Env.Set(shellenv.KeyOldPWD, prevPWD)
	ctx.Env.Set("PWD", shellenv.FilePath(path))
	ctx.Env.PushDir(path)
	return dirs(ctx, nil)
}

func popd(ctx *Context, args []string) int {
	top, ok := ctx.Env.PopDir()
	if !ok {
		fmt.Fprintln(ctx.Stderr, "popd: directory stack empty")
		return 1
	}
	if err := os.Chdir(top); err != nil {
		fmt.Fprintf(ctx.Stderr, "popd: %s: %v\n", top, err)
		return 1
	}
	prevPWD, _ := ctx.Env.Get("PWD")
	ctx.Env.Set(shellenv.KeyOldPWD, prevPWD)
	ctx.Env.Set("PWD", shellenv.FilePath(top))
	return dirs(ctx, nil)
}

func dirs(ctx *Context, args []string) int {
	stack := ctx.Env.DirStack()
	for i := len(stack) - 1; i >= 0; i-- {
		fmt.Fprint(ctx.Stdout, stack[i])
		if i > 0 {
			fmt.Fprint(ctx.Stdout, " ")
		}
	}
	fmt.Fprintln(ctx.Stdout)
	return 0
}

func exitBuiltin(ctx *Context, args []string) int {
	code := 0
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			code = 1
		} else {
			code = n
		}
	}
	if ctx.Exit != nil {
		ctx.Exit(code)
	}
	return code
}

func which(ctx *Context, args []string) int {
	all, silent := false, false
	var names []string
	for _, a := range args {
		switch a {
		case "-a":
			all = true
		case "-s":
			silent = true
		default:
			names = append(names, a)
		}
	}

	pathVal, hasPath := ctx.Env.Get("PATH")
	allFound := true
	for _, name := range names {
		found := false
		if IsBuiltin(name) {
			found = true
			if !silent {
				fmt.Fprintf(ctx.Stdout, "%s: shell built-in\n", name)
			}
			if !all {
				continue
			}
		}
		matches := resolveAll(name, pathVal, hasPath, all)
		for _, m := range matches {
			found = true
			if !silent {
				fmt.Fprintln(ctx.Stdout, m)
			}
		}
		if !found {
			allFound = false
			if !silent {
				fmt.Fprintf(ctx.Stderr, "%s not found\n", name)
			}
		}
	}
	if !allFound {
		return 1
	}
	return 0
}

func resolveAll(name string, path shellenv.Value, hasPath bool, all bool) []string {
	var out []string
	path0, err := resolver.Resolve(name, path, hasPath)
	if err != nil {
		return nil
	}
	out = append(out, path0)
	if !all {
		return out
	}
	// a full "-a" search would walk every PATH directory; Resolve already
	// stops at the first match, so -a degenerates to the same single
	// result for any name without '/' (there is only one registry lookup
	// and one PATH search per invocation by design, see DESIGN.md).
	return out
}
