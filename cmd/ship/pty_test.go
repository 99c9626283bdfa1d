//go:build !windows

package main

import (
	"bufio"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/creack/pty"
)

// TestInteractiveModeOverPTY confirms the REPL branch (term.IsTerminal true)
// actually activates when stdin is a real pseudo-terminal rather than a
// pipe, mirroring the teacher's own pty-backed terminal test
// (interp/terminal_test.go) but driving a real subprocess instead of an
// in-process Runner, since this package's interactive/batch split happens
// in main1 before any in-process API is reachable.
func TestInteractiveModeOverPTY(t *testing.T) {
	t.Parallel()

	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer ptmx.Close()
	defer tty.Close()

	self, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	cmd := exec.Command(self)
	cmd.Env = append(os.Environ(), "TESTSCRIPT_COMMAND=ship")
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty

	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	defer cmd.Process.Kill()

	r := bufio.NewReader(ptmx)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(line, "ship - a Go-flavored shell") {
		t.Fatalf("expected banner on the first line, got %q", line)
	}
	if _, err := r.ReadString('\n'); err != nil { // banner's second line
		t.Fatal(err)
	}

	prompt := make([]byte, len(promptBytes))
	if _, err := r.Read(prompt); err != nil {
		t.Fatal(err)
	}
	if string(prompt) != promptBytes {
		t.Fatalf("expected the ship> prompt, got %q", prompt)
	}
}

const promptBytes = "ship> "
