// Package resolver implements the POSIX PATH search described by
// spec.md §4.3: turning a program name into an absolute executable path,
// or a tagged failure carrying the exit code convention the executor uses
// when a child can't be exec'd.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"shipshell.dev/ship/internal/shellenv"
)

// FailureKind tags the four ways program resolution can fail.
type FailureKind uint8

const (
	NotFound FailureKind = iota
	NoSuchFile
	PermissionDenied
	InvalidPath
)

// Error is the tagged failure spec.md §4.3 returns instead of a path. Each
// kind carries the POSIX-conventional exit code the executor records when
// a child fails to resolve or exec.
type Error struct {
	Kind FailureKind
	Name string
}

func (e *Error) Error() string {
	switch e.Kind {
	case NoSuchFile:
		return fmt.Sprintf("%s: No such file or directory", e.Name)
	case PermissionDenied:
		return fmt.Sprintf("%s: Permission denied", e.Name)
	case InvalidPath:
		return fmt.Sprintf("%s: invalid PATH entry", e.Name)
	default:
		return fmt.Sprintf("%s: command not found", e.Name)
	}
}

// ExitCode returns the POSIX-conventional exit code for e's kind:
// 127 for NotFound, NoSuchFile and InvalidPath; 126 for PermissionDenied.
func (e *Error) ExitCode() int {
	if e.Kind == PermissionDenied {
		return 126
	}
	return 127
}

// Resolve implements spec.md §4.3's two rules: a name containing a slash
// is treated as a literal path; otherwise PATH (in any of its accepted
// shapes: List, String, single FilePath) is searched left to right,
// skipping empty segments, for the first candidate that exists and has
// any execute bit set.
func Resolve(name string, path shellenv.Value, hasPath bool) (string, error) {
	if strings.Contains(name, "/") {
		info, err := os.Stat(name)
		if err != nil {
			return "", &Error{Kind: NoSuchFile, Name: name}
		}
		if !hasExecBit(info.Mode()) {
			return "", &Error{Kind: PermissionDenied, Name: name}
		}
		return name, nil
	}

	dirs, err := pathDirs(path, hasPath)
	if err != nil {
		return "", err
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if hasExecBit(info.Mode()) {
			return candidate, nil
		}
	}
	return "", &Error{Kind: NotFound, Name: name}
}

// pathDirs flattens a PATH EnvValue into an ordered list of directory
// strings, accepting the three shapes spec.md §4.3 names: a List (each
// element String or FilePath), a single String (split on ':'), or a
// single FilePath. Any other shape is InvalidPath. Absent PATH falls back
// to /usr/bin and /bin.
func pathDirs(path shellenv.Value, hasPath bool) ([]string, error) {
	if !hasPath {
		return []string{"/usr/bin", "/bin"}, nil
	}
	switch path.Kind {
	case shellenv.KindList:
		dirs := make([]string, 0, len(path.ListVal()))
		for _, elem := range path.ListVal() {
			switch elem.Kind {
			case shellenv.KindString, shellenv.KindFilePath:
				dirs = append(dirs, elem.StringVal())
			default:
				return nil, &Error{Kind: InvalidPath, Name: "PATH"}
			}
		}
		return dirs, nil
	case shellenv.KindString:
		return strings.Split(path.StringVal(), ":"), nil
	case shellenv.KindFilePath:
		return []string{path.StringVal()}, nil
	default:
		return nil, &Error{Kind: InvalidPath, Name: "PATH"}
	}
}

// hasExecBit checks whether any of the owner/group/other execute bits is
// set, mirroring the teacher's access(2)-based check but done against the
// already-stat'd FileMode so callers don't need a second syscall.
func hasExecBit(mode os.FileMode) bool {
	return mode&0o111 != 0
}

// CheckAccess performs the execute-bit check via the real access(2)
// syscall rather than FileMode inspection, so that ACLs and the invoking
// user's identity are taken into account the way a shell's `command -v`
// would. Resolve does not call it; its own check is hasExecBit.
func CheckAccess(path string) error {
	return unix.Access(path, unix.X_OK)
}
