package exitcode

import (
	"errors"
	"fmt"

	"golang.org/x/xerrors"
)

// Wrapf attaches an error message, and possibly an error, to the exit code.
//
//    err := ErrIllegalArgument.Wrapf("my description: %w", err)
//    exitcode.Unwrap(err, exitcode.ErrIllegalState) == exitcode.ErrIllegalArgument
func (x ExitCode) Wrapf(msg string, args ...interface{}) error {
	return &wrapped{code: x, cause: xerrors.Errorf(msg, args...)}
}

type wrapped struct {
	code  ExitCode
	cause error
}

func (w *wrapped) Error() string {
	return fmt.Sprintf("%s (%s)", w.cause.Error(), w.code)
}

// Unwrap yields the exit code rather than the cause, so that the outermost code shadows any
// codes attached deeper in the cause chain.
func (w *wrapped) Unwrap() error {
	return w.code
}

// Unwrap extracts an exit code from an error, defaulting to the passed default exit code.
//
//    err := ErrIllegalState.Wrapf("wrapped: %w", ErrNotFound)
//    exitcode.Unwrap(err, exitcode.Ok) == exitcode.ErrIllegalState
func Unwrap(err error, defaultExitCode ExitCode) (code ExitCode) {
	if errors.As(err, &code) {
		return code
	}
	return defaultExitCode
}
