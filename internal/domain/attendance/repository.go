package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access for attendance records and their
// breaks. All methods carry storeID to prevent cross-store data access.
type AttendanceRepository interface {
	// FindForDay returns the attendance record for the employee on the given
	// work day with its breaks loaded, or nil when no record exists yet.
	FindForDay(ctx context.Context, employeeID string, day time.Time, storeID string) (*Attendance, error)

	// Create inserts a new attendance record. The (employee_id, work_date)
	// uniqueness constraint makes the loser of a clock-in race fail with a
	// conflict.
	Create(ctx context.Context, att Attendance) (Attendance, error)

	// Update persists mutated clock/status/numeric fields. The write only
	// lands when the stored status still equals expected; a concurrent
	// writer that got there first makes it fail with
	// ErrConcurrentClockAction.
	Update(ctx context.Context, att Attendance, expected Status) error

	// GetByID retrieves attendance by ID with store isolation.
	GetByID(ctx context.Context, id string, storeID string) (Attendance, error)

	// CreateBreak inserts a break row for an attendance record.
	CreateBreak(ctx context.Context, br BreakRecord) (BreakRecord, error)

	// UpdateBreak persists the end time and duration of a closed break.
	UpdateBreak(ctx context.Context, br BreakRecord) error

	// ListForPeriod returns an employee's finalized records inside [from, to]
	// with breaks loaded, ordered by work date. Used by payroll.
	ListForPeriod(ctx context.Context, employeeID string, from, to time.Time, storeID string) ([]Attendance, error)

	// List returns a store's attendance records with filters and pagination.
	List(ctx context.Context, filter ListFilter, storeID string) ([]Attendance, int64, error)

	// FindStaleOpen returns records still CLOCKED_IN or ON_BREAK whose work
	// day is before cutoff, with breaks loaded. Used by the auto-close job.
	FindStaleOpen(ctx context.Context, cutoff time.Time) ([]Attendance, error)

	// CreateAbsencesForDay inserts ABSENT records for every employee who had
	// a shift assigned on the given day but no attendance record. Returns
	// the number of records created.
	CreateAbsencesForDay(ctx context.Context, day time.Time) (int64, error)
}
