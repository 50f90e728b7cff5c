// Package errkit wraps errors against a sentinel so that callers can use
// errors.Is against the sentinel while the original cause's stack trace
// (via github.com/pkg/errors) is preserved for logging.
package errkit

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Wrap attaches sentinel to err. errors.Is(result, sentinel) and
// errors.Is(result, err) both hold.
func Wrap(sentinel, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", sentinel, pkgerrors.WithStack(err))
}

// Wrapf is Wrap with an additional formatted message inserted between the
// sentinel and the cause.
func Wrapf(sentinel, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s: %w", sentinel, msg, pkgerrors.WithStack(err))
}
