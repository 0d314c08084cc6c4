package schedule

import (
	"context"
	"time"
)

// ShiftRepository resolves shift assignments for the attendance engine.
// The engine only reads shifts; writing them belongs to the scheduling
// collaborator.
type ShiftRepository interface {
	// FindForDay returns the shift assigned to the employee on the given
	// work day, or ErrShiftNotFound.
	FindForDay(ctx context.Context, employeeID string, day time.Time) (*ShiftAssignment, error)

	// FindForPeriod returns all shift assignments for the employee inside
	// [from, to], keyed by work day, for payroll classification.
	FindForPeriod(ctx context.Context, employeeID string, from, to time.Time) (map[string]*ShiftAssignment, error)
}
