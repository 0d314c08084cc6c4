package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/attendance"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/schedule"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/database"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/timeutil"
	"github.com/clockwise-hr/timeclock-backend-go/internal/repository/postgresql"
	attendancesvc "github.com/clockwise-hr/timeclock-backend-go/internal/service/attendance"
	"github.com/jackc/pgx/v5"
)

// fallbackCloseAfter caps a stale session that has no shift to measure
// against.
const fallbackCloseAfter = 12 * time.Hour

type AttendanceJobs struct {
	attendanceRepo attendance.AttendanceRepository
	shiftRepo      schedule.ShiftRepository
	calculator     *attendancesvc.WorkHoursCalculator
	db             *database.DB
}

func NewAttendanceJobs(
	attendanceRepo attendance.AttendanceRepository,
	shiftRepo schedule.ShiftRepository,
	calculator *attendancesvc.WorkHoursCalculator,
	db *database.DB,
) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		shiftRepo:      shiftRepo,
		calculator:     calculator,
		db:             db,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_close_stale_attendances", 1*time.Hour, j.AutoCloseStaleAttendances)
	scheduler.AddJob("mark_absent_employees", 1*time.Hour, j.MarkAbsentEmployees)
}

// AutoCloseStaleAttendances closes records still open after their work day
// ended. The synthetic clock-out lands at the scheduled shift end, or at a
// fixed cap when no shift exists, and the record always goes to review.
func (j *AttendanceJobs) AutoCloseStaleAttendances(ctx context.Context) error {
	today := timeutil.DayOf(time.Now().UTC(), time.UTC)

	stale, err := j.attendanceRepo.FindStaleOpen(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to get stale attendances: %w", err)
	}

	if len(stale) == 0 {
		return nil
	}

	closedCount := 0
	for _, session := range stale {
		if session.ClockIn == nil {
			continue
		}

		shift, err := j.shiftRepo.FindForDay(ctx, session.EmployeeID, session.WorkDate)
		if err != nil && !errors.Is(err, schedule.ErrShiftNotFound) {
			slog.Error("Cron: Failed to load shift for stale attendance",
				"attendance_id", session.ID, "error", err)
			continue
		}

		syntheticOut := j.syntheticClockOut(session, shift)
		openStatus := session.Status

		if session.ClockIn2 != nil && session.ClockOut2 == nil {
			session.ClockOut2 = &syntheticOut
		} else {
			session.ClockOut = &syntheticOut
		}

		var closedBreak *attendance.BreakRecord
		if open := session.OpenBreak(); open != nil {
			duration := timeutil.MinutesBetween(open.StartTime, syntheticOut)
			open.EndTime = &syntheticOut
			open.DurationMinutes = &duration
			closedBreak = open
		}

		result := j.calculator.Compute(attendancesvc.WorkHoursInput{
			ClockIn:   *session.ClockIn,
			ClockOut:  clockOutOr(session.ClockOut, syntheticOut),
			ClockIn2:  session.ClockIn2,
			ClockOut2: session.ClockOut2,
			Breaks:    session.Breaks,
			Shift:     shift,
		})

		session.TotalMinutes = &result.TotalMinutes
		session.BreakMinutes = &result.BreakMinutes
		session.NetWorkMinutes = &result.NetWorkMinutes
		session.OvertimeMinutes = &result.OvertimeMinutes
		session.Status = attendance.StatusPendingReview
		note := "auto-closed: no clock-out recorded, please contact your manager if this is incorrect"
		session.ReviewNote = &note

		// Break close and status flip commit together; the status guard on
		// the row update loses cleanly to an employee who clocked out while
		// this job was iterating.
		err = postgresql.WithTransaction(ctx, j.db, func(tx pgx.Tx) error {
			txCtx := context.WithValue(ctx, "tx", tx)
			if closedBreak != nil {
				if err := j.attendanceRepo.UpdateBreak(txCtx, *closedBreak); err != nil {
					return err
				}
			}
			return j.attendanceRepo.Update(txCtx, session, openStatus)
		})
		if err != nil {
			slog.Error("Cron: Failed to auto-close attendance",
				"attendance_id", session.ID,
				"employee_id", session.EmployeeID,
				"error", err)
			continue
		}
		closedCount++
	}

	slog.Info("Cron: Auto-closed stale attendances", "count", closedCount, "stale", len(stale))
	return nil
}

// syntheticClockOut picks the timestamp a stale session is closed at.
func (j *AttendanceJobs) syntheticClockOut(session attendance.Attendance, shift *schedule.ShiftAssignment) time.Time {
	if shift != nil {
		startClock := shift.StartClock()
		endClock := shift.EndClock()
		if startClock >= 0 && endClock >= 0 {
			span := timeutil.SpanMinutes(startClock, endClock)
			return timeutil.AtClock(session.WorkDate, startClock).Add(time.Duration(span) * time.Minute)
		}
	}
	return session.ClockIn.Add(fallbackCloseAfter)
}

// MarkAbsentEmployees backfills ABSENT records for employees who had a shift
// yesterday and never clocked in.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	yesterday := timeutil.DayOf(time.Now().UTC(), time.UTC).AddDate(0, 0, -1)

	count, err := j.attendanceRepo.CreateAbsencesForDay(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("failed to mark absent employees: %w", err)
	}

	if count > 0 {
		slog.Info("Cron: Marked absent employees", "count", count, "day", yesterday.Format("2006-01-02"))
	}
	return nil
}

func clockOutOr(t *time.Time, fallback time.Time) time.Time {
	if t != nil {
		return *t
	}
	return fallback
}
