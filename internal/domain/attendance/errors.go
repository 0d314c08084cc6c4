package attendance

import "errors"

// Attendance domain errors
var (
	// Missing prerequisite state; checked before the state machine runs
	ErrNotClockedIn    = errors.New("you have not clocked in today")
	ErrNoOpenBreak     = errors.New("no open break found")
	ErrNoShiftAssigned = errors.New("no shift assigned for today")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrAlreadyProcessed   = errors.New("attendance has already been approved or rejected")
	ErrNotPendingReview   = errors.New("attendance is not pending review")

	// Concurrent write race on the same (employee, day); callers should retry
	ErrConcurrentClockAction = errors.New("another clock action is in progress, please retry")
)
