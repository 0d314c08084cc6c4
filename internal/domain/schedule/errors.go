package schedule

import "errors"

var (
	ErrShiftNotFound       = errors.New("shift assignment not found")
	ErrSplitBoundsMissing  = errors.New("split shift must define both split break bounds")
	ErrSplitBoundsInverted = errors.New("split break end must be after split break start")
)
