package attendance

import (
	"time"
)

// Status is the persisted lifecycle status of a day's attendance record.
// The clock state offered to callers is re-derived from the raw fields on
// every read; the status column only stores facts the engine has committed.
type Status string

const (
	StatusClockedIn     Status = "CLOCKED_IN"
	StatusOnBreak       Status = "ON_BREAK"
	StatusClockedOut    Status = "CLOCKED_OUT"
	StatusPendingReview Status = "PENDING_REVIEW"
	StatusApproved      Status = "APPROVED"
	StatusAbsent        Status = "ABSENT"
	StatusRejected      Status = "REJECTED"
)

var StatusValues = []string{
	string(StatusClockedIn),
	string(StatusOnBreak),
	string(StatusClockedOut),
	string(StatusPendingReview),
	string(StatusApproved),
	string(StatusAbsent),
	string(StatusRejected),
}

type BreakType string

const (
	BreakTypeRest      BreakType = "REST"
	BreakTypeMeal      BreakType = "MEAL"
	BreakTypePersonal  BreakType = "PERSONAL"
	BreakTypeEmergency BreakType = "EMERGENCY"
)

var BreakTypeValues = []string{
	string(BreakTypeRest),
	string(BreakTypeMeal),
	string(BreakTypePersonal),
	string(BreakTypeEmergency),
}

// BreakRecord belongs to exactly one Attendance. EndTime nil means the break
// is still open; DurationMinutes is set when the break is closed. At most
// one open break may exist per attendance record at any time.
type BreakRecord struct {
	ID              string
	AttendanceID    string
	Type            BreakType
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsOpen reports whether the break has not been ended yet.
func (b *BreakRecord) IsOpen() bool {
	return b.EndTime == nil
}

// Attendance is one employee's attendance record for one calendar day,
// uniquely keyed by (employee, work date). Segment-2 clock fields are used
// only for split shifts. Numeric fields are populated at clock-out and obey
// NetWorkMinutes == TotalMinutes - BreakMinutes whenever both are set.
type Attendance struct {
	ID              string
	EmployeeID      string
	StoreID         string
	WorkDate        time.Time
	ClockIn         *time.Time
	ClockOut        *time.Time
	ClockIn2        *time.Time
	ClockOut2       *time.Time
	Status          Status
	TotalMinutes    *int
	BreakMinutes    *int
	NetWorkMinutes  *int
	OvertimeMinutes *int
	ReviewNote      *string
	Breaks          []BreakRecord
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined fields
	EmployeeName *string
}

// OpenBreak returns the currently open break, if any.
func (a *Attendance) OpenBreak() *BreakRecord {
	for i := range a.Breaks {
		if a.Breaks[i].IsOpen() {
			return &a.Breaks[i]
		}
	}
	return nil
}

// BreakCount returns the number of breaks taken today, open or closed.
func (a *Attendance) BreakCount() int {
	return len(a.Breaks)
}
