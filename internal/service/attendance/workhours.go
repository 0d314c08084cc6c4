package attendance

import (
	"time"

	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/attendance"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/schedule"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/timeutil"
)

const (
	// defaultExpectedBreakMinutes applies when no shift definition is
	// available to supply a break budget.
	defaultExpectedBreakMinutes = 30

	// breakOverrunFactor marks break time exceeding 1.5x the expected
	// budget as an anomaly.
	breakOverrunFactor = 1.5

	lateClockInReviewThreshold = 15  // minutes
	overtimeReviewThreshold    = 120 // minutes
)

// BreakDetail is the per-break line of a WorkHoursResult.
type BreakDetail struct {
	Type            attendance.BreakType
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes int
	Open            bool
}

// WorkHoursResult is the structured breakdown of one day's clock events.
// Produced fresh from its inputs on every call, never mutated in place.
type WorkHoursResult struct {
	TotalMinutes      int
	BreakMinutes      int
	NetWorkMinutes    int
	RegularMinutes    int
	OvertimeMinutes   int
	Segment1Minutes   int
	Segment2Minutes   int
	SplitBreakMinutes int

	EarlyClockInMinutes  int
	LateClockInMinutes   int
	EarlyClockOutMinutes int
	LateClockOutMinutes  int

	HasUnendedBreak     bool
	ExceedsMaxBreakTime bool
	RequiresReview      bool

	Breaks []BreakDetail
}

// WorkHoursInput carries one day's raw clock facts into the calculator.
// Segment-2 timestamps and Shift may be nil.
type WorkHoursInput struct {
	ClockIn   time.Time
	ClockOut  time.Time
	ClockIn2  *time.Time
	ClockOut2 *time.Time
	Breaks    []attendance.BreakRecord
	Shift     *schedule.ShiftAssignment
}

// WorkHoursCalculator turns clock events into minute breakdowns. The only
// non-determinism is the clock used to value still-open breaks; tests inject
// a fixed one.
type WorkHoursCalculator struct {
	now func() time.Time
}

func NewWorkHoursCalculator() *WorkHoursCalculator {
	return &WorkHoursCalculator{now: time.Now}
}

func NewWorkHoursCalculatorAt(now func() time.Time) *WorkHoursCalculator {
	return &WorkHoursCalculator{now: now}
}

// Compute produces the day's breakdown. It is a total function: every valid
// combination of timestamps and breaks yields a result, never a panic.
func (c *WorkHoursCalculator) Compute(in WorkHoursInput) WorkHoursResult {
	var result WorkHoursResult

	result.Segment1Minutes = positive(timeutil.MinutesBetween(in.ClockIn, in.ClockOut))
	if in.ClockIn2 != nil && in.ClockOut2 != nil {
		result.Segment2Minutes = positive(timeutil.MinutesBetween(*in.ClockIn2, *in.ClockOut2))
	}

	for _, br := range in.Breaks {
		detail := BreakDetail{
			Type:      br.Type,
			StartTime: br.StartTime,
			EndTime:   br.EndTime,
		}
		if br.EndTime != nil {
			detail.DurationMinutes = positive(timeutil.MinutesBetween(br.StartTime, *br.EndTime))
		} else {
			detail.Open = true
			detail.DurationMinutes = positive(timeutil.MinutesBetween(br.StartTime, c.now()))
			result.HasUnendedBreak = true
		}
		result.BreakMinutes += detail.DurationMinutes
		result.Breaks = append(result.Breaks, detail)
	}

	// The gap between segment 1 end and segment 2 start. Informational: it
	// is already outside both segments and must not be subtracted again.
	if in.Shift != nil && in.Shift.IsSplit && in.ClockIn2 != nil {
		result.SplitBreakMinutes = positive(timeutil.MinutesBetween(in.ClockOut, *in.ClockIn2))
	}

	result.TotalMinutes = result.Segment1Minutes + result.Segment2Minutes
	result.NetWorkMinutes = result.TotalMinutes - result.BreakMinutes

	expectedBreak := defaultExpectedBreakMinutes
	if in.Shift != nil {
		expectedBreak = in.Shift.BreakDurationMinutes

		scheduled := in.Shift.ScheduledMinutes()
		result.RegularMinutes = min(result.NetWorkMinutes, scheduled)
		result.OvertimeMinutes = positive(result.NetWorkMinutes - scheduled)

		c.computeTimingAnomalies(&result, in)
	} else {
		// Without a shift definition everything is regular time.
		result.RegularMinutes = result.NetWorkMinutes
	}

	result.ExceedsMaxBreakTime = float64(result.BreakMinutes) > float64(expectedBreak)*breakOverrunFactor

	result.RequiresReview = result.HasUnendedBreak ||
		result.ExceedsMaxBreakTime ||
		result.LateClockInMinutes > lateClockInReviewThreshold ||
		result.EarlyClockOutMinutes > 0 ||
		result.OvertimeMinutes > overtimeReviewThreshold

	return result
}

// computeTimingAnomalies compares actual clock times against the shift's
// nominal start/end clock-of-day, each clamped to zero.
func (c *WorkHoursCalculator) computeTimingAnomalies(result *WorkHoursResult, in WorkHoursInput) {
	schedStart := in.Shift.StartClock()
	schedEnd := in.Shift.EndClock()
	if schedStart < 0 || schedEnd < 0 {
		return
	}

	actualIn := timeutil.ClockMinutes(in.ClockIn)
	result.EarlyClockInMinutes = positive(schedStart - actualIn)
	result.LateClockInMinutes = positive(actualIn - schedStart)

	lastOut := in.ClockOut
	if in.ClockOut2 != nil {
		lastOut = *in.ClockOut2
	}
	actualOut := timeutil.ClockMinutes(lastOut)
	result.EarlyClockOutMinutes = positive(schedEnd - actualOut)
	result.LateClockOutMinutes = positive(actualOut - schedEnd)
}

func positive(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
