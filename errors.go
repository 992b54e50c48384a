package pairwise

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds surfaced to the driver. Recoverable errors are returned as
// values and may be wrapped with additional context. Invariant violations
// inside traversals panic instead: they indicate engine bugs, not driver
// mistakes, and nothing above the engine can recover from them.
var (
	// ErrUnknownOption reports an unrecognized option tag.
	ErrUnknownOption = errors.New("pairwise: unknown option")

	// ErrNotApplicable reports a (container, traversal, layout, newton3)
	// combination which fails its static applicability predicate.
	ErrNotApplicable = errors.New("pairwise: traversal not applicable")

	// ErrPostProcessingOrder reports functor accessors called before
	// post-processing, or a double EndTraversal without reset.
	ErrPostProcessingOrder = errors.New("pairwise: post-processing order")
)

// UnknownOptionError wraps ErrUnknownOption with the offending tag.
func UnknownOptionError(kind, tag string) error {
	return errors.Wrapf(ErrUnknownOption, "%s %q", kind, tag)
}

// InvariantViolation panics with a formatted message. It is called when an
// internal consistency check fails, e.g. a neighbor list validity check
// after a rebuild.
func InvariantViolation(format string, args ...interface{}) {
	panic(fmt.Sprintf("pairwise: invariant violation: "+format, args...))
}
