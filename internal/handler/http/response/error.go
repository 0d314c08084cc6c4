package response

import (
	"errors"
	"net/http"

	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/attendance"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/employee"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/payroll"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/schedule"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrNotClockedIn):
		BadRequest(w, "You have not clocked in today", nil)
	case errors.Is(err, attendance.ErrNoOpenBreak):
		BadRequest(w, "No open break found", nil)
	case errors.Is(err, attendance.ErrNoShiftAssigned):
		BadRequest(w, "No shift assigned for today", nil)
	case errors.Is(err, attendance.ErrAlreadyProcessed):
		Conflict(w, "Attendance has already been approved or rejected")
	case errors.Is(err, attendance.ErrNotPendingReview):
		Conflict(w, "Attendance is not pending review")
	case errors.Is(err, attendance.ErrConcurrentClockAction):
		Conflict(w, "Another clock action is in progress, please retry")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrNoPayRate):
		BadRequest(w, "Employee has no pay rate configured", nil)

	// Schedule domain errors
	case errors.Is(err, schedule.ErrShiftNotFound):
		NotFound(w, "Shift assignment not found")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrLineItemNotFound):
		NotFound(w, "Payroll line item not found")
	case errors.Is(err, payroll.ErrEmptyPeriod):
		BadRequest(w, "Payroll period contains no finalized attendance records", nil)
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, "Period end must not be before period start", nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
