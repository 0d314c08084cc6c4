package attendance

import (
	"testing"
	"time"

	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedCalculator(now time.Time) *WorkHoursCalculator {
	return NewWorkHoursCalculatorAt(func() time.Time { return now })
}

func TestComputeWorkHours_RoundTrip(t *testing.T) {
	// Clock in 09:00, MEAL break 12:00-12:30, clock out 18:00.
	// Shift 09:00-18:00 with a 60 minute break budget, not split.
	calc := fixedCalculator(at(18, 0))

	result := calc.Compute(WorkHoursInput{
		ClockIn:  at(9, 0),
		ClockOut: at(18, 0),
		Breaks: []attendance.BreakRecord{
			{
				Type:      attendance.BreakTypeMeal,
				StartTime: at(12, 0),
				EndTime:   timePtr(at(12, 30)),
			},
		},
		Shift: testShift(),
	})

	assert.Equal(t, 540, result.TotalMinutes)
	assert.Equal(t, 30, result.BreakMinutes)
	assert.Equal(t, 510, result.NetWorkMinutes)
	assert.Equal(t, 480, result.RegularMinutes) // scheduled = 540 - 60
	assert.Equal(t, 30, result.OvertimeMinutes)
	assert.False(t, result.HasUnendedBreak)
	assert.False(t, result.ExceedsMaxBreakTime)
	assert.False(t, result.RequiresReview)
	require.Len(t, result.Breaks, 1)
	assert.Equal(t, 30, result.Breaks[0].DurationMinutes)
	assert.False(t, result.Breaks[0].Open)
}

func TestComputeWorkHours_OpenBreakTriggersReview(t *testing.T) {
	// Same day, but the MEAL break is never ended before clocking out.
	calc := fixedCalculator(at(18, 0))

	result := calc.Compute(WorkHoursInput{
		ClockIn:  at(9, 0),
		ClockOut: at(18, 0),
		Breaks: []attendance.BreakRecord{
			{Type: attendance.BreakTypeMeal, StartTime: at(12, 0)},
		},
		Shift: testShift(),
	})

	assert.True(t, result.HasUnendedBreak)
	assert.True(t, result.RequiresReview)
	assert.Equal(t, 360, result.BreakMinutes) // valued at the injected clock
	require.Len(t, result.Breaks, 1)
	assert.True(t, result.Breaks[0].Open)
}

func TestComputeWorkHours_Invariants(t *testing.T) {
	calc := fixedCalculator(at(20, 0))

	inputs := []WorkHoursInput{
		{ClockIn: at(9, 0), ClockOut: at(18, 0), Shift: testShift()},
		{
			ClockIn:  at(9, 0),
			ClockOut: at(19, 30),
			Breaks: []attendance.BreakRecord{
				{Type: attendance.BreakTypeRest, StartTime: at(10, 0), EndTime: timePtr(at(10, 15))},
				{Type: attendance.BreakTypeMeal, StartTime: at(13, 0), EndTime: timePtr(at(14, 0))},
			},
			Shift: testShift(),
		},
		{ClockIn: at(9, 0), ClockOut: at(12, 0)},
		{
			ClockIn:   at(9, 0),
			ClockOut:  at(13, 0),
			ClockIn2:  timePtr(at(17, 0)),
			ClockOut2: timePtr(at(22, 0)),
			Shift:     splitShift(),
		},
	}

	for i, in := range inputs {
		result := calc.Compute(in)
		assert.Equal(t, result.TotalMinutes-result.BreakMinutes, result.NetWorkMinutes,
			"case %d: net == total - break", i)
		if in.Shift != nil {
			assert.Equal(t, result.NetWorkMinutes, result.RegularMinutes+result.OvertimeMinutes,
				"case %d: regular + overtime == net", i)
		}
	}
}

func TestComputeWorkHours_SplitShift(t *testing.T) {
	calc := fixedCalculator(at(22, 0))

	result := calc.Compute(WorkHoursInput{
		ClockIn:   at(9, 0),
		ClockOut:  at(14, 0),
		ClockIn2:  timePtr(at(17, 0)),
		ClockOut2: timePtr(at(22, 0)),
		Shift:     splitShift(),
	})

	assert.Equal(t, 300, result.Segment1Minutes)
	assert.Equal(t, 300, result.Segment2Minutes)
	assert.Equal(t, 600, result.TotalMinutes)
	assert.Equal(t, 180, result.SplitBreakMinutes)
	// Scheduled: 09:00-22:00 span (780) minus split window (180) minus
	// break budget (60) = 540.
	assert.Equal(t, 540, result.RegularMinutes)
	assert.Equal(t, 60, result.OvertimeMinutes)
}

func TestComputeWorkHours_TimingAnomalies(t *testing.T) {
	calc := fixedCalculator(at(18, 0))

	t.Run("late clock-in and early clock-out", func(t *testing.T) {
		result := calc.Compute(WorkHoursInput{
			ClockIn:  at(9, 20),
			ClockOut: at(17, 30),
			Shift:    testShift(),
		})
		assert.Equal(t, 20, result.LateClockInMinutes)
		assert.Equal(t, 0, result.EarlyClockInMinutes)
		assert.Equal(t, 30, result.EarlyClockOutMinutes)
		assert.Equal(t, 0, result.LateClockOutMinutes)
		// Late > 15 and early clock-out both force review.
		assert.True(t, result.RequiresReview)
	})

	t.Run("early clock-in and late clock-out", func(t *testing.T) {
		result := calc.Compute(WorkHoursInput{
			ClockIn:  at(8, 45),
			ClockOut: at(18, 40),
			Shift:    testShift(),
		})
		assert.Equal(t, 15, result.EarlyClockInMinutes)
		assert.Equal(t, 0, result.LateClockInMinutes)
		assert.Equal(t, 40, result.LateClockOutMinutes)
		assert.Equal(t, 0, result.EarlyClockOutMinutes)
	})

	t.Run("late clock-in within tolerance does not force review", func(t *testing.T) {
		result := calc.Compute(WorkHoursInput{
			ClockIn:  at(9, 10),
			ClockOut: at(18, 0),
			Shift:    testShift(),
		})
		assert.Equal(t, 10, result.LateClockInMinutes)
		assert.False(t, result.RequiresReview)
	})
}

func TestComputeWorkHours_BreakOverrun(t *testing.T) {
	calc := fixedCalculator(at(18, 0))

	// 100 minutes of break against a 60 minute budget: beyond 1.5x.
	result := calc.Compute(WorkHoursInput{
		ClockIn:  at(9, 0),
		ClockOut: at(18, 0),
		Breaks: []attendance.BreakRecord{
			{Type: attendance.BreakTypeMeal, StartTime: at(12, 0), EndTime: timePtr(at(13, 40))},
		},
		Shift: testShift(),
	})

	assert.True(t, result.ExceedsMaxBreakTime)
	assert.True(t, result.RequiresReview)
}

func TestComputeWorkHours_ExcessiveOvertimeTriggersReview(t *testing.T) {
	calc := fixedCalculator(at(23, 0))

	// Net 660 against scheduled 480: 180 minutes of overtime.
	result := calc.Compute(WorkHoursInput{
		ClockIn:  at(9, 0),
		ClockOut: at(20, 0),
		Shift:    testShift(),
	})

	assert.Equal(t, 180, result.OvertimeMinutes)
	assert.True(t, result.RequiresReview)
}

func TestComputeWorkHours_NoShiftDefinition(t *testing.T) {
	calc := fixedCalculator(at(18, 0))

	result := calc.Compute(WorkHoursInput{
		ClockIn:  at(9, 0),
		ClockOut: at(17, 0),
		Breaks: []attendance.BreakRecord{
			{Type: attendance.BreakTypeRest, StartTime: at(12, 0), EndTime: timePtr(at(12, 20))},
		},
	})

	// All net minutes are regular without a schedule to compare against.
	assert.Equal(t, 460, result.NetWorkMinutes)
	assert.Equal(t, 460, result.RegularMinutes)
	assert.Equal(t, 0, result.OvertimeMinutes)
	assert.Equal(t, 0, result.LateClockInMinutes)
	assert.False(t, result.RequiresReview)
}

func TestComputeWorkHours_Deterministic(t *testing.T) {
	calc := fixedCalculator(at(18, 0))
	in := WorkHoursInput{
		ClockIn:  at(9, 0),
		ClockOut: at(18, 0),
		Breaks: []attendance.BreakRecord{
			{Type: attendance.BreakTypeMeal, StartTime: at(12, 0), EndTime: timePtr(at(12, 30))},
		},
		Shift: testShift(),
	}

	first := calc.Compute(in)
	second := calc.Compute(in)
	assert.Equal(t, first, second)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
