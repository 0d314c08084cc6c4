package attendance

import (
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type StartBreakRequest struct {
	BreakType string `json:"break_type"`
}

func (r *StartBreakRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.BreakType) {
		errs = append(errs, validator.ValidationError{
			Field:   "break_type",
			Message: "break_type is required",
		})
	} else if !validator.IsInSlice(r.BreakType, BreakTypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "break_type",
			Message: "break_type must be one of REST, MEAL, PERSONAL, EMERGENCY",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ApproveAttendanceRequest struct {
	ID string `json:"id"`
}

func (r *ApproveAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RejectAttendanceRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

func (r *RejectAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListFilter struct {
	EmployeeID string
	Status     string
	DateFrom   string // "YYYY-MM-DD"
	DateTo     string // "YYYY-MM-DD"
	Page       int
	Limit      int
}

func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != "" && !validator.IsInSlice(f.Status, StatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "invalid status filter",
		})
	}

	if f.DateFrom != "" {
		if _, ok := validator.IsValidDate(f.DateFrom); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "date_from",
				Message: "date_from must be in YYYY-MM-DD format",
			})
		}
	}

	if f.DateTo != "" {
		if _, ok := validator.IsValidDate(f.DateTo); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "date_to",
				Message: "date_to must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// RESPONSES
// ========================================

type BreakResponse struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
}

type AttendanceResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	EmployeeName    string          `json:"employee_name,omitempty"`
	WorkDate        string          `json:"work_date"`
	ClockIn         *string         `json:"clock_in,omitempty"`
	ClockOut        *string         `json:"clock_out,omitempty"`
	ClockIn2        *string         `json:"clock_in_2,omitempty"`
	ClockOut2       *string         `json:"clock_out_2,omitempty"`
	Status          string          `json:"status"`
	TotalMinutes    *int            `json:"total_minutes,omitempty"`
	BreakMinutes    *int            `json:"break_minutes,omitempty"`
	NetWorkMinutes  *int            `json:"net_work_minutes,omitempty"`
	OvertimeMinutes *int            `json:"overtime_minutes,omitempty"`
	ReviewNote      *string         `json:"review_note,omitempty"`
	Breaks          []BreakResponse `json:"breaks"`
}

// ActionAvailability is one row of the enumerated action set for the current
// state: the action, whether it is currently allowed, and the guard's reason
// when it is not.
type ActionAvailability struct {
	Action  string  `json:"action"`
	Allowed bool    `json:"allowed"`
	Reason  *string `json:"reason,omitempty"`
}

type ShiftResponse struct {
	ID                   string  `json:"id"`
	StartTime            string  `json:"start_time"`
	EndTime              string  `json:"end_time"`
	BreakDurationMinutes int     `json:"break_duration_minutes"`
	MaxBreakCount        int     `json:"max_break_count"`
	IsSplit              bool    `json:"is_split"`
	SplitBreakStart      *string `json:"split_break_start,omitempty"`
	SplitBreakEnd        *string `json:"split_break_end,omitempty"`
}

type CurrentStateResponse struct {
	State            string               `json:"state"`
	AvailableActions []ActionAvailability `json:"available_actions"`
	Attendance       *AttendanceResponse  `json:"attendance,omitempty"`
	Shift            *ShiftResponse       `json:"shift,omitempty"`
}

// ClockActionResponse is the result of a state-changing clock operation.
// Guard denials come back as Success=false with the guard's reason; they are
// business outcomes, not errors.
type ClockActionResponse struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	NewState   *string             `json:"new_state,omitempty"`
	Attendance *AttendanceResponse `json:"attendance,omitempty"`
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Attendances []AttendanceResponse `json:"attendances"`
}
