package ship

import (
	"reflect"

	"github.com/traefik/yaegi/interp"
)

// symbolsPath is the import path host scripts use to pull this package's
// primitives into a yaegi interpreter: import "shipshell.dev/ship/ship".
const symbolsPath = "shipshell.dev/ship/ship"

// Symbols is this package's yaegi export table (spec.md §4.6's "exported
// to the embedded interpreter"), built the same way traefik/yaegi's own
// standard-library bindings are: a map of exported identifier name to its
// reflect.Value, keyed by import path. cmd/ship registers this (alongside
// stdlib.Symbols) with interp.New(...).Use before starting the REPL.
var Symbols = interp.Exports{
	symbolsPath: map[string]reflect.Value{
		"Runtime":         reflect.ValueOf(&Runtime),
		"ActiveHooks":     reflect.ValueOf(&ActiveHooks),
		"Prog":            reflect.ValueOf(Prog),
		"Cmd":             reflect.ValueOf(Cmd),
		"Pipe":            reflect.ValueOf(Pipe),
		"Sub":             reflect.ValueOf(Sub),
		"RedirectTo":      reflect.ValueOf(RedirectTo),
		"RedirectAppend":  reflect.ValueOf(RedirectAppend),
		"RedirectFD":      reflect.ValueOf(RedirectFD),
		"WithEnv":         reflect.ValueOf(WithEnv),
		"IsRunnable":      reflect.ValueOf(IsRunnable),
		"ToEnvValue":      reflect.ValueOf(ToEnvValue),
		"FromEnvValue":    reflect.ValueOf(FromEnvValue),
		"NewEnv":          reflect.ValueOf(NewEnv),
		"CurrentEnv":      reflect.ValueOf(CurrentEnv),
		"NewHooks":        reflect.ValueOf(NewHooks),

		"Program":  reflect.ValueOf((*Program)(nil)),
		"Runnable": reflect.ValueOf((*Runnable)(nil)),
		"Result":   reflect.ValueOf((*Result)(nil)),
		"Env":      reflect.ValueOf((*Env)(nil)),
		"Hooks":    reflect.ValueOf((*Hooks)(nil)),

		"HookBeforePrompt":       reflect.ValueOf(HookBeforePrompt),
		"HookBeforeContinuation": reflect.ValueOf(HookBeforeContinuation),
		"HookBeforeExecute":      reflect.ValueOf(HookBeforeExecute),
		"HookAfterExecute":       reflect.ValueOf(HookAfterExecute),
	},
}

func init() { Symbols[symbolsPath]["Symbols"] = reflect.ValueOf(Symbols) }
