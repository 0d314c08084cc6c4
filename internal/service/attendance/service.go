package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/attendance"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/audit"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/schedule"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/database"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/timeutil"
	"github.com/clockwise-hr/timeclock-backend-go/internal/repository/postgresql"
	"github.com/go-chi/jwtauth/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const timestampLayout = "2006-01-02 15:04:05"

type AttendanceServiceImpl struct {
	db             *database.DB
	attendanceRepo attendance.AttendanceRepository
	shiftRepo      schedule.ShiftRepository
	auditSink      audit.Sink
	calculator     *WorkHoursCalculator
	now            func() time.Time
	runTx          func(ctx context.Context, db *database.DB, fn func(tx pgx.Tx) error) error
}

func NewAttendanceService(
	db *database.DB,
	attendanceRepo attendance.AttendanceRepository,
	shiftRepo schedule.ShiftRepository,
	auditSink audit.Sink,
	calculator *WorkHoursCalculator,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		db:             db,
		attendanceRepo: attendanceRepo,
		shiftRepo:      shiftRepo,
		auditSink:      auditSink,
		calculator:     calculator,
		now:            time.Now,
		runTx:          postgresql.WithTransaction,
	}
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format(timestampLayout)
	return &format
}

// Helper to get store_id and employee_id from JWT context
func getClaimsFromContext(ctx context.Context) (storeID, employeeID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	storeID, ok := claims["store_id"].(string)
	if !ok || storeID == "" {
		return "", "", fmt.Errorf("store_id claim is missing or invalid")
	}

	employeeID, ok = claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", "", fmt.Errorf("employee_id claim is missing or invalid")
	}

	return storeID, employeeID, nil
}

// loadSnapshot fetches the employee's attendance record and shift for the
// current work day. A still-open record from the previous day wins over
// today's empty slate so overnight shifts clock out against the day they
// started.
func (a *AttendanceServiceImpl) loadSnapshot(ctx context.Context, employeeID, storeID string, now time.Time) (Snapshot, error) {
	today := timeutil.DayOf(now, time.UTC)

	att, err := a.attendanceRepo.FindForDay(ctx, employeeID, today, storeID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load attendance: %w", err)
	}

	if att == nil {
		yesterday := today.AddDate(0, 0, -1)
		prev, err := a.attendanceRepo.FindForDay(ctx, employeeID, yesterday, storeID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to load attendance: %w", err)
		}
		if prev != nil && (prev.Status == attendance.StatusClockedIn || prev.Status == attendance.StatusOnBreak) {
			att = prev
		}
	}

	shiftDay := today
	if att != nil {
		shiftDay = att.WorkDate
	}

	shift, err := a.shiftRepo.FindForDay(ctx, employeeID, shiftDay)
	if err != nil {
		if !errors.Is(err, schedule.ErrShiftNotFound) {
			return Snapshot{}, fmt.Errorf("failed to load shift: %w", err)
		}
		shift = nil
	}

	return Snapshot{Attendance: att, Shift: shift}, nil
}

// GetCurrentState implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetCurrentState(ctx context.Context) (attendance.CurrentStateResponse, error) {
	storeID, employeeID, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.CurrentStateResponse{}, err
	}

	snap, err := a.loadSnapshot(ctx, employeeID, storeID, a.now().UTC())
	if err != nil {
		return attendance.CurrentStateResponse{}, err
	}

	machine := NewMachine(snap.Attendance, snap.Shift)

	actions := make([]attendance.ActionAvailability, 0)
	for _, ad := range machine.AvailableActions() {
		row := attendance.ActionAvailability{
			Action:  string(ad.Action),
			Allowed: ad.Decision.Allowed,
		}
		if !ad.Decision.Allowed {
			reason := ad.Decision.Reason
			row.Reason = &reason
		}
		actions = append(actions, row)
	}

	resp := attendance.CurrentStateResponse{
		State:            string(machine.State()),
		AvailableActions: actions,
	}
	if snap.Attendance != nil {
		attResp := toAttendanceResponse(*snap.Attendance)
		resp.Attendance = &attResp
	}
	if snap.Shift != nil {
		shiftResp := toShiftResponse(*snap.Shift)
		resp.Shift = &shiftResp
	}

	return resp, nil
}

// ClockIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockIn(ctx context.Context) (attendance.ClockActionResponse, error) {
	storeID, employeeID, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.ClockActionResponse{}, err
	}
	now := a.now().UTC()

	snap, err := a.loadSnapshot(ctx, employeeID, storeID, now)
	if err != nil {
		return attendance.ClockActionResponse{}, err
	}
	machine := NewMachine(snap.Attendance, snap.Shift)

	action := ActionClockIn
	if machine.State() == StateSplitBreak {
		action = ActionClockInSegment2
	}

	if decision := machine.CanTransition(action); !decision.Allowed {
		return deniedResponse(decision), nil
	}

	var att attendance.Attendance
	if action == ActionClockIn {
		att, err = a.attendanceRepo.Create(ctx, attendance.Attendance{
			EmployeeID: employeeID,
			StoreID:    storeID,
			WorkDate:   timeutil.DayOf(now, time.UTC),
			ClockIn:    &now,
			Status:     attendance.StatusClockedIn,
		})
		if err != nil {
			if isUniqueViolation(err) {
				return attendance.ClockActionResponse{}, attendance.ErrConcurrentClockAction
			}
			return attendance.ClockActionResponse{}, fmt.Errorf("failed to create attendance: %w", err)
		}
	} else {
		att = *snap.Attendance
		att.ClockIn2 = &now
		att.Status = attendance.StatusClockedIn
		if err := a.attendanceRepo.Update(ctx, att, snap.Attendance.Status); err != nil {
			if errors.Is(err, attendance.ErrConcurrentClockAction) {
				return attendance.ClockActionResponse{}, err
			}
			return attendance.ClockActionResponse{}, fmt.Errorf("failed to update attendance: %w", err)
		}
	}

	a.recordAudit(ctx, employeeID, storeID, string(action), "attendance", att.ID, now)

	return successResponse("clock-in recorded", StateWorking, att), nil
}

// ClockOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockOut(ctx context.Context) (attendance.ClockActionResponse, error) {
	storeID, employeeID, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.ClockActionResponse{}, err
	}
	now := a.now().UTC()

	snap, err := a.loadSnapshot(ctx, employeeID, storeID, now)
	if err != nil {
		return attendance.ClockActionResponse{}, err
	}
	machine := NewMachine(snap.Attendance, snap.Shift)

	action := ActionClockOut
	if snap.Attendance != nil && snap.Attendance.ClockIn2 != nil {
		action = ActionClockOutSegment2
	}

	if decision := machine.CanTransition(action); !decision.Allowed {
		return deniedResponse(decision), nil
	}

	att := *snap.Attendance
	if action == ActionClockOutSegment2 {
		att.ClockOut2 = &now
	} else {
		att.ClockOut = &now
	}

	result := a.calculator.Compute(WorkHoursInput{
		ClockIn:   *att.ClockIn,
		ClockOut:  valueOr(att.ClockOut, now),
		ClockIn2:  att.ClockIn2,
		ClockOut2: att.ClockOut2,
		Breaks:    att.Breaks,
		Shift:     snap.Shift,
	})

	att.TotalMinutes = &result.TotalMinutes
	att.BreakMinutes = &result.BreakMinutes
	att.NetWorkMinutes = &result.NetWorkMinutes
	att.OvertimeMinutes = &result.OvertimeMinutes
	att.Status = attendance.StatusClockedOut

	// A split shift's segment-1 clock-out is always an intermediate close;
	// the review decision waits for the final segment so a pending flag
	// cannot strand the record before segment 2.
	finalSegment := snap.Shift == nil || !snap.Shift.IsSplit || action == ActionClockOutSegment2
	message := "clock-out recorded"
	if finalSegment && result.RequiresReview {
		att.Status = attendance.StatusPendingReview
		message = "clock-out recorded, pending manager review"
	}

	if err := a.attendanceRepo.Update(ctx, att, snap.Attendance.Status); err != nil {
		if errors.Is(err, attendance.ErrConcurrentClockAction) {
			return attendance.ClockActionResponse{}, err
		}
		return attendance.ClockActionResponse{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	a.recordAudit(ctx, employeeID, storeID, string(action), "attendance", att.ID, now)

	return successResponse(message, DeriveState(&att, snap.Shift), att), nil
}

// StartBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) StartBreak(ctx context.Context, req attendance.StartBreakRequest) (attendance.ClockActionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.ClockActionResponse{}, err
	}

	storeID, employeeID, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.ClockActionResponse{}, err
	}
	now := a.now().UTC()

	snap, err := a.loadSnapshot(ctx, employeeID, storeID, now)
	if err != nil {
		return attendance.ClockActionResponse{}, err
	}
	machine := NewMachine(snap.Attendance, snap.Shift)

	if decision := machine.CanTransition(ActionStartBreak); !decision.Allowed {
		return deniedResponse(decision), nil
	}

	att := *snap.Attendance
	var created attendance.BreakRecord

	// The break row and the status flip have to land together or the
	// record could say ON_BREAK with no open break behind it.
	err = a.runTx(ctx, a.db, func(tx pgx.Tx) error {
		txCtx := context.WithValue(ctx, "tx", tx)

		created, err = a.attendanceRepo.CreateBreak(txCtx, attendance.BreakRecord{
			AttendanceID: att.ID,
			Type:         attendance.BreakType(req.BreakType),
			StartTime:    now,
		})
		if err != nil {
			return fmt.Errorf("failed to create break: %w", err)
		}

		att.Status = attendance.StatusOnBreak
		if err := a.attendanceRepo.Update(txCtx, att, snap.Attendance.Status); err != nil {
			if errors.Is(err, attendance.ErrConcurrentClockAction) {
				return err
			}
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.ClockActionResponse{}, err
	}

	att.Breaks = append(att.Breaks, created)
	a.recordAudit(ctx, employeeID, storeID, string(ActionStartBreak), "break", created.ID, now)

	return successResponse("break started", StateOnBreak, att), nil
}

// EndBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) EndBreak(ctx context.Context) (attendance.ClockActionResponse, error) {
	storeID, employeeID, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.ClockActionResponse{}, err
	}
	now := a.now().UTC()

	snap, err := a.loadSnapshot(ctx, employeeID, storeID, now)
	if err != nil {
		return attendance.ClockActionResponse{}, err
	}
	machine := NewMachine(snap.Attendance, snap.Shift)

	if decision := machine.CanTransition(ActionEndBreak); !decision.Allowed {
		return deniedResponse(decision), nil
	}

	att := *snap.Attendance
	open := att.OpenBreak()
	if open == nil {
		return attendance.ClockActionResponse{}, attendance.ErrNoOpenBreak
	}

	duration := timeutil.MinutesBetween(open.StartTime, now)
	open.EndTime = &now
	open.DurationMinutes = &duration

	err = a.runTx(ctx, a.db, func(tx pgx.Tx) error {
		txCtx := context.WithValue(ctx, "tx", tx)

		if err := a.attendanceRepo.UpdateBreak(txCtx, *open); err != nil {
			return fmt.Errorf("failed to update break: %w", err)
		}

		att.Status = attendance.StatusClockedIn
		if err := a.attendanceRepo.Update(txCtx, att, snap.Attendance.Status); err != nil {
			if errors.Is(err, attendance.ErrConcurrentClockAction) {
				return err
			}
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.ClockActionResponse{}, err
	}

	a.recordAudit(ctx, employeeID, storeID, string(ActionEndBreak), "break", open.ID, now)

	return successResponse(fmt.Sprintf("break ended after %d minutes", duration), StateWorking, att), nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.ListFilter) (attendance.ListAttendanceResponse, error) {
	storeID, employeeID, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	filter.EmployeeID = employeeID
	return a.list(ctx, filter, storeID)
}

// ListAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.ListFilter) (attendance.ListAttendanceResponse, error) {
	storeID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	return a.list(ctx, filter, storeID)
}

func (a *AttendanceServiceImpl) list(ctx context.Context, filter attendance.ListFilter, storeID string) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	filter.Normalize()

	records, total, err := a.attendanceRepo.List(ctx, filter, storeID)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	attendances := make([]attendance.AttendanceResponse, 0, len(records))
	for _, rec := range records {
		attendances = append(attendances, toAttendanceResponse(rec))
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
		Attendances: attendances,
	}, nil
}

// ApproveAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ApproveAttendance(ctx context.Context, req attendance.ApproveAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	storeID, actorID, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	att, err := a.resolvePendingReview(ctx, req.ID, storeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	att.Status = attendance.StatusApproved
	if err := a.attendanceRepo.Update(ctx, att, attendance.StatusPendingReview); err != nil {
		if errors.Is(err, attendance.ErrConcurrentClockAction) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	a.recordAudit(ctx, actorID, storeID, "APPROVE_ATTENDANCE", "attendance", att.ID, a.now().UTC())

	return toAttendanceResponse(att), nil
}

// RejectAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RejectAttendance(ctx context.Context, req attendance.RejectAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	storeID, actorID, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	att, err := a.resolvePendingReview(ctx, req.ID, storeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	att.Status = attendance.StatusRejected
	att.ReviewNote = &req.Reason
	if err := a.attendanceRepo.Update(ctx, att, attendance.StatusPendingReview); err != nil {
		if errors.Is(err, attendance.ErrConcurrentClockAction) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	a.recordAudit(ctx, actorID, storeID, "REJECT_ATTENDANCE", "attendance", att.ID, a.now().UTC())

	return toAttendanceResponse(att), nil
}

func (a *AttendanceServiceImpl) resolvePendingReview(ctx context.Context, id, storeID string) (attendance.Attendance, error) {
	att, err := a.attendanceRepo.GetByID(ctx, id, storeID)
	if err != nil {
		return attendance.Attendance{}, err
	}

	switch att.Status {
	case attendance.StatusPendingReview:
		return att, nil
	case attendance.StatusApproved, attendance.StatusRejected:
		return attendance.Attendance{}, attendance.ErrAlreadyProcessed
	}
	return attendance.Attendance{}, attendance.ErrNotPendingReview
}

// recordAudit appends an audit entry; a sink failure never fails the
// operation it describes.
func (a *AttendanceServiceImpl) recordAudit(ctx context.Context, employeeID, storeID, action, entityType, entityID string, at time.Time) {
	_ = a.auditSink.Record(ctx, audit.Entry{
		EmployeeID: employeeID,
		StoreID:    storeID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		At:         at,
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func valueOr(t *time.Time, fallback time.Time) time.Time {
	if t != nil {
		return *t
	}
	return fallback
}

func deniedResponse(decision Decision) attendance.ClockActionResponse {
	return attendance.ClockActionResponse{
		Success: false,
		Message: decision.Reason,
	}
}

func successResponse(message string, state ClockState, att attendance.Attendance) attendance.ClockActionResponse {
	newState := string(state)
	resp := toAttendanceResponse(att)
	return attendance.ClockActionResponse{
		Success:    true,
		Message:    message,
		NewState:   &newState,
		Attendance: &resp,
	}
}

func toAttendanceResponse(att attendance.Attendance) attendance.AttendanceResponse {
	breaks := make([]attendance.BreakResponse, 0, len(att.Breaks))
	for _, br := range att.Breaks {
		breaks = append(breaks, attendance.BreakResponse{
			ID:              br.ID,
			Type:            string(br.Type),
			StartTime:       br.StartTime.Format(timestampLayout),
			EndTime:         timePtrToString(br.EndTime),
			DurationMinutes: br.DurationMinutes,
		})
	}

	resp := attendance.AttendanceResponse{
		ID:              att.ID,
		EmployeeID:      att.EmployeeID,
		WorkDate:        att.WorkDate.Format("2006-01-02"),
		ClockIn:         timePtrToString(att.ClockIn),
		ClockOut:        timePtrToString(att.ClockOut),
		ClockIn2:        timePtrToString(att.ClockIn2),
		ClockOut2:       timePtrToString(att.ClockOut2),
		Status:          string(att.Status),
		TotalMinutes:    att.TotalMinutes,
		BreakMinutes:    att.BreakMinutes,
		NetWorkMinutes:  att.NetWorkMinutes,
		OvertimeMinutes: att.OvertimeMinutes,
		ReviewNote:      att.ReviewNote,
		Breaks:          breaks,
	}
	if att.EmployeeName != nil {
		resp.EmployeeName = *att.EmployeeName
	}
	return resp
}

func toShiftResponse(shift schedule.ShiftAssignment) attendance.ShiftResponse {
	return attendance.ShiftResponse{
		ID:                   shift.ID,
		StartTime:            shift.StartTime,
		EndTime:              shift.EndTime,
		BreakDurationMinutes: shift.BreakDurationMinutes,
		MaxBreakCount:        shift.MaxBreakCount,
		IsSplit:              shift.IsSplit,
		SplitBreakStart:      shift.SplitBreakStart,
		SplitBreakEnd:        shift.SplitBreakEnd,
	}
}
