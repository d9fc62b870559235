package common

import "github.com/go-faster/errors"

// Sentinel errors shared by the numeric packages. Callers match them with
// errors.Is; call sites wrap them with context.
var (
	// ErrInvalidArgument reports malformed input: mismatched or empty
	// series, out-of-range parameters, NaN or negative physical constants.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownBody reports a body name missing from the planet table.
	ErrUnknownBody = errors.New("unknown body")

	// ErrNoSynodicPeriod reports two bodies with identical orbital periods.
	ErrNoSynodicPeriod = errors.New("no synodic period")
)

// InvalidArgument returns an error wrapping ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
