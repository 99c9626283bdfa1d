package executor

import (
	"os"
	"syscall"
)

// exitCodeFromState implements spec.md §4.5's wait interpretation:
// Exited(code) -> code as u8; Signaled(sig) -> 128+sig. Any other status
// shape is a protocol error the teacher's own waitpid-handling code never
// expects to hit on POSIX, so we panic rather than silently misreport an
// exit code (spec.md §7.4 treats this class of failure as fatal).
func exitCodeFromState(state *os.ProcessState) int {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok {
		// Non-POSIX GOOS; fall back to the portable accessor.
		return state.ExitCode()
	}
	switch {
	case ws.Exited():
		return ws.ExitStatus() & 0xff
	case ws.Signaled():
		return 128 + int(ws.Signal())
	default:
		panic("executor: waitpid returned a status that is neither Exited nor Signaled")
	}
}

// waitCmdErr converts the error returned by (*exec.Cmd).Wait into an exit
// code, per exitCodeFromState, while still surfacing genuine start/wait
// failures (fork/exec/waitpid failing, spec.md §7.4) as an error rather
// than a fabricated exit code.
func waitCmdErr(state *os.ProcessState, err error) (int, error) {
	if state == nil {
		return 0, err
	}
	return exitCodeFromState(state), nil
}
