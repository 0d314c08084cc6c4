package employee

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrNoPayRate        = errors.New("employee has no hourly rate or monthly salary configured")
)
