// Package errs defines the failure taxonomy shared by every generator package.
// Errors are returned wrapped with context; match them with errors.Is.
package errs

import "errors"

var (
	// ErrInvalidArgument reports bad input detected at the boundary of the call
	// that received it: blank identifiers, non-positive physical parameters,
	// mismatched terminal or source counts, out-of-range node indices.
	ErrInvalidArgument = errors.New("lblmc: invalid argument")

	// ErrInconsistentModel reports a netlist that cannot be stamped as a whole:
	// duplicate component names, an empty model, or emission requested before
	// any component was stamped.
	ErrInconsistentModel = errors.New("lblmc: inconsistent model")

	// ErrSingularMatrix reports an admittance matrix that cannot be inverted.
	// It usually means a floating or disconnected node.
	ErrSingularMatrix = errors.New("lblmc: singular admittance matrix")

	// ErrIO reports a failure creating or writing an exported file.
	ErrIO = errors.New("lblmc: i/o failure")
)
