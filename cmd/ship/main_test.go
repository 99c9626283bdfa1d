package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain registers this binary's own main1 under the name "ship" so
// testscript's "exec ship ..." lines run the real built-from-source
// executable instead of a stub, mirroring cmd/shfmt's own TestMain.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"ship": main1,
	}))
}

// TestScripts drives spec.md §8's literal end-to-end scenarios against a
// real ship binary: pipelines, redirects + restartability, exit codes
// surfacing through "?", command-not-found, and with_env scoping.
func TestScripts(t *testing.T) {
	t.Parallel()
	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "scripts"),
		Setup: func(env *testscript.Env) error {
			bindir := filepath.Join(env.WorkDir, ".bin")
			if err := os.Mkdir(bindir, 0o777); err != nil {
				return err
			}
			binfile := filepath.Join(bindir, "ship")
			if runtime.GOOS == "windows" {
				binfile += ".exe"
			}
			if err := os.Symlink(os.Args[0], binfile); err != nil {
				return err
			}
			env.Vars = append(env.Vars,
				fmt.Sprintf("PATH=%s%c%s", bindir, filepath.ListSeparator, os.Getenv("PATH")),
				"TESTSCRIPT_COMMAND=ship",
			)
			return nil
		},
	})
}
