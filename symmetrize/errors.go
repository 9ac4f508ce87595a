package symmetrize

import (
	"errors"
	"fmt"
)

// ErrInconsistentGroundTruth is returned when the two directions of a pair
// carry opposing ground-truth labels.
var ErrInconsistentGroundTruth = errors.New("symmetrize: inconsistent ground truth")

// GroundTruthConflictError reports the pair whose labels disagree.
type GroundTruthConflictError struct {
	Metric string
	A, B   string
	// Lines are the source lines of the (A, B) and (B, A) entries.
	Lines [2]int
}

func (e *GroundTruthConflictError) Error() string {
	return fmt.Sprintf("symmetrize: %s: pair (%s, %s) is labeled match on one side and nonmatch on the other (lines %d and %d)",
		e.Metric, e.A, e.B, e.Lines[0], e.Lines[1])
}

func (e *GroundTruthConflictError) Unwrap() error { return ErrInconsistentGroundTruth }
