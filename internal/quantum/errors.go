package quantum

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch matches any DimensionMismatchError.
// Use errors.Is(err, ErrDimensionMismatch) to check for this error.
var ErrDimensionMismatch = &DimensionMismatchError{}

// DimensionMismatchError reports a wrong amplitude count, parameter count,
// index or matrix size.
type DimensionMismatchError struct {
	What     string
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	if e.What == "" {
		return "dimension mismatch"
	}
	return fmt.Sprintf("dimension mismatch: %s (expected %d, got %d)", e.What, e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Is(target error) bool {
	_, ok := target.(*DimensionMismatchError)
	return ok
}

// ErrZeroNorm is returned when a state with zero total probability is
// normalized or measured.
var ErrZeroNorm = &ZeroNormError{}

// ZeroNormError represents an operation on a state with no probability mass.
type ZeroNormError struct {
	Op string
}

func (e *ZeroNormError) Error() string {
	if e.Op != "" {
		return "zero norm state: " + e.Op
	}
	return "zero norm state"
}

func (e *ZeroNormError) Is(target error) bool {
	_, ok := target.(*ZeroNormError)
	return ok
}

// ErrInvalidPermutation is returned by FromPermutation for inputs that are
// not a bijection on the basis indices.
var ErrInvalidPermutation = errors.New("invalid permutation")
