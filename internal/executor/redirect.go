package executor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"shipshell.dev/ship/internal/command"
)

// redirectSink is the open stdout destination for a Redirect node, plus
// the bookkeeping needed to finish the write once the redirected process
// has exited.
type redirectSink struct {
	file   *os.File
	finish func(success bool) error
}

// openRedirect opens target per spec.md §4.5/§6: truncate-redirect opens
// create+write+truncate; append-redirect opens create+write+append; a
// numeric-fd target dup2s the existing descriptor. The truncating
// variant is written to a renameio temp file that replaces the
// destination once the redirected process has been reaped, whatever its
// exit status or terminating signal; the temp file is discarded instead
// only when starting or waiting on that process fails — matching the
// teacher's own use of renameio for file replacement. Appends can't use a
// replace-on-close temp file (the
// existing content has to be preserved and appended to in place), so
// they open directly.
func openRedirect(target command.RedirectTarget) (*redirectSink, error) {
	switch target.Kind {
	case command.TargetFD:
		f := os.NewFile(uintptr(target.FD), fmt.Sprintf("fd%d", target.FD))
		if f == nil {
			return nil, fmt.Errorf("redirect: invalid file descriptor %d", target.FD)
		}
		return &redirectSink{file: f, finish: func(bool) error { return nil }}, nil

	case command.TargetFilePath:
		if target.Append {
			f, err := os.OpenFile(target.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if err != nil {
				return nil, err
			}
			return &redirectSink{file: f, finish: func(bool) error { return f.Close() }}, nil
		}
		dir := filepath.Dir(target.Path)
		pf, err := renameio.TempFile(dir, target.Path)
		if err != nil {
			return nil, err
		}
		return &redirectSink{
			file: pf.File,
			finish: func(success bool) error {
				if !success {
					return pf.Cleanup()
				}
				return pf.CloseAtomicallyReplace()
			},
		}, nil

	default:
		return nil, fmt.Errorf("redirect: unknown target kind")
	}
}
