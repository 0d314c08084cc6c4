package schedule

import (
	"time"

	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/timeutil"
)

// ShiftAssignment is the resolved shift for one employee on one work day.
// It is read-only input to the attendance engine; shift and schedule CRUD
// live with the scheduling collaborator.
type ShiftAssignment struct {
	ID                   string
	EmployeeID           string
	StoreID              string
	WorkDate             time.Time
	StartTime            string // "HH:MM", store-local
	EndTime              string // "HH:MM", may be earlier than StartTime for overnight shifts
	BreakDurationMinutes int    // expected/allowed break budget
	MaxBreakCount        int
	IsSplit              bool
	SplitBreakStart      *string // "HH:MM", required when IsSplit
	SplitBreakEnd        *string // "HH:MM", required when IsSplit
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Validate checks the structural invariants of a shift assignment.
func (s *ShiftAssignment) Validate() error {
	if _, err := timeutil.ParseClock(s.StartTime); err != nil {
		return err
	}
	if _, err := timeutil.ParseClock(s.EndTime); err != nil {
		return err
	}
	if s.IsSplit {
		if s.SplitBreakStart == nil || s.SplitBreakEnd == nil {
			return ErrSplitBoundsMissing
		}
		start, err := timeutil.ParseClock(*s.SplitBreakStart)
		if err != nil {
			return err
		}
		end, err := timeutil.ParseClock(*s.SplitBreakEnd)
		if err != nil {
			return err
		}
		// Split breaks never cross midnight.
		if end <= start {
			return ErrSplitBoundsInverted
		}
	}
	return nil
}

// ScheduledMinutes is the net scheduled working time for the shift: the
// start-to-end span (normalized when the shift runs overnight) minus the
// split-break window for split shifts and minus the expected break budget.
func (s *ShiftAssignment) ScheduledMinutes() int {
	start, err := timeutil.ParseClock(s.StartTime)
	if err != nil {
		return 0
	}
	end, err := timeutil.ParseClock(s.EndTime)
	if err != nil {
		return 0
	}
	minutes := timeutil.SpanMinutes(start, end)

	if s.IsSplit && s.SplitBreakStart != nil && s.SplitBreakEnd != nil {
		splitStart, err1 := timeutil.ParseClock(*s.SplitBreakStart)
		splitEnd, err2 := timeutil.ParseClock(*s.SplitBreakEnd)
		if err1 == nil && err2 == nil && splitEnd > splitStart {
			minutes -= splitEnd - splitStart
		}
	}

	minutes -= s.BreakDurationMinutes
	if minutes < 0 {
		minutes = 0
	}
	return minutes
}

// StartClock returns the shift start as minutes past midnight, or -1 when
// the stored value is malformed.
func (s *ShiftAssignment) StartClock() int {
	v, err := timeutil.ParseClock(s.StartTime)
	if err != nil {
		return -1
	}
	return v
}

// EndClock returns the shift end as minutes past midnight, or -1 when the
// stored value is malformed.
func (s *ShiftAssignment) EndClock() int {
	v, err := timeutil.ParseClock(s.EndTime)
	if err != nil {
		return -1
	}
	return v
}
