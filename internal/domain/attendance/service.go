package attendance

import (
	"context"
)

// AttendanceService defines the attendance lifecycle operations exposed to
// the API layer. Employee and store identity come from JWT claims in ctx.
type AttendanceService interface {
	// GetCurrentState derives the employee's clock state for today and
	// enumerates which actions are currently legal.
	GetCurrentState(ctx context.Context) (CurrentStateResponse, error)

	// ClockIn starts the day, or starts segment 2 of a split shift.
	ClockIn(ctx context.Context) (ClockActionResponse, error)

	// ClockOut ends the current working segment; records that trip an
	// anomaly flag land in PENDING_REVIEW instead of CLOCKED_OUT.
	ClockOut(ctx context.Context) (ClockActionResponse, error)

	// StartBreak opens a break of the given type.
	StartBreak(ctx context.Context, req StartBreakRequest) (ClockActionResponse, error)

	// EndBreak closes the open break; the message includes its duration.
	EndBreak(ctx context.Context) (ClockActionResponse, error)

	// GetMyAttendance lists the authenticated employee's records.
	GetMyAttendance(ctx context.Context, filter ListFilter) (ListAttendanceResponse, error)

	// ListAttendance lists a store's records (manager scope).
	ListAttendance(ctx context.Context, filter ListFilter) (ListAttendanceResponse, error)

	// ApproveAttendance resolves a PENDING_REVIEW record to APPROVED.
	ApproveAttendance(ctx context.Context, req ApproveAttendanceRequest) (AttendanceResponse, error)

	// RejectAttendance resolves a PENDING_REVIEW record to REJECTED.
	RejectAttendance(ctx context.Context, req RejectAttendanceRequest) (AttendanceResponse, error)
}
