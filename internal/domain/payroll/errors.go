package payroll

import "errors"

var (
	ErrLineItemNotFound = errors.New("payroll line item not found")
	ErrEmptyPeriod      = errors.New("payroll period contains no finalized attendance records")
	ErrInvalidPeriod    = errors.New("period end must not be before period start")
)
