package tools

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks arguments that are missing or have the wrong shape.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentf returns an error wrapping ErrInvalidArgument.
func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Kind classifies a failed call for logs and metrics.
type Kind string

const (
	KindOK              Kind = "ok"
	KindNotFound        Kind = "not_found"
	KindInvalidArgument Kind = "invalid_argument"
	KindHandlerFault    Kind = "handler_fault"
)

// KindOf classifies err. A nil error is KindOK.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	default:
		return KindHandlerFault
	}
}
