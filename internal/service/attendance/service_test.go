package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/attendance"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/audit"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/schedule"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/database"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testStoreID    = "store-1"
	testEmployeeID = "emp-1"
)

// ===== FAKES =====

type fakeAttendanceRepo struct {
	mu       sync.Mutex
	records  map[string]*attendance.Attendance // by ID
	raceNext bool                              // next Create fails with a unique violation

	// staleReadOnce makes the next FindForDay return this record instead of
	// the stored one, simulating a second request that read before a
	// concurrent writer committed.
	staleReadOnce *attendance.Attendance
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]*attendance.Attendance)}
}

func (f *fakeAttendanceRepo) FindForDay(_ context.Context, employeeID string, day time.Time, storeID string) (*attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.staleReadOnce != nil {
		cp := *f.staleReadOnce
		cp.Breaks = append([]attendance.BreakRecord(nil), f.staleReadOnce.Breaks...)
		f.staleReadOnce = nil
		return &cp, nil
	}
	for _, rec := range f.records {
		if rec.EmployeeID == employeeID && rec.StoreID == storeID && rec.WorkDate.Equal(day) {
			cp := *rec
			cp.Breaks = append([]attendance.BreakRecord(nil), rec.Breaks...)
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAttendanceRepo) Create(_ context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceNext {
		f.raceNext = false
		return attendance.Attendance{}, &pgconn.PgError{Code: "23505", ConstraintName: "attendances_employee_id_work_date_key"}
	}
	for _, rec := range f.records {
		if rec.EmployeeID == att.EmployeeID && rec.WorkDate.Equal(att.WorkDate) {
			return attendance.Attendance{}, &pgconn.PgError{Code: "23505", ConstraintName: "attendances_employee_id_work_date_key"}
		}
	}
	att.ID = uuid.NewString()
	cp := att
	f.records[att.ID] = &cp
	return att, nil
}

func (f *fakeAttendanceRepo) Update(_ context.Context, att attendance.Attendance, expected attendance.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.records[att.ID]
	if !ok || stored.Status != expected {
		return attendance.ErrConcurrentClockAction
	}
	breaks := stored.Breaks
	cp := att
	cp.Breaks = breaks
	f.records[att.ID] = &cp
	return nil
}

// snapshot and restore emulate transaction rollback for the harness runTx.
func (f *fakeAttendanceRepo) snapshot() map[string]*attendance.Attendance {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := make(map[string]*attendance.Attendance, len(f.records))
	for id, rec := range f.records {
		cp := *rec
		cp.Breaks = append([]attendance.BreakRecord(nil), rec.Breaks...)
		snap[id] = &cp
	}
	return snap
}

func (f *fakeAttendanceRepo) restore(snap map[string]*attendance.Attendance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = snap
}

func (f *fakeAttendanceRepo) GetByID(_ context.Context, id string, storeID string) (attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.StoreID != storeID {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return *rec, nil
}

func (f *fakeAttendanceRepo) CreateBreak(_ context.Context, br attendance.BreakRecord) (attendance.BreakRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[br.AttendanceID]
	if !ok {
		return attendance.BreakRecord{}, attendance.ErrAttendanceNotFound
	}
	br.ID = uuid.NewString()
	rec.Breaks = append(rec.Breaks, br)
	return br, nil
}

func (f *fakeAttendanceRepo) UpdateBreak(_ context.Context, br attendance.BreakRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[br.AttendanceID]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	for i := range rec.Breaks {
		if rec.Breaks[i].ID == br.ID {
			if rec.Breaks[i].EndTime != nil {
				return attendance.ErrNoOpenBreak
			}
			rec.Breaks[i] = br
			return nil
		}
	}
	return attendance.ErrNoOpenBreak
}

func (f *fakeAttendanceRepo) ListForPeriod(_ context.Context, employeeID string, from, to time.Time, storeID string) ([]attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Attendance
	for _, rec := range f.records {
		if rec.EmployeeID == employeeID && rec.StoreID == storeID &&
			!rec.WorkDate.Before(from) && !rec.WorkDate.After(to) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) List(_ context.Context, filter attendance.ListFilter, storeID string) ([]attendance.Attendance, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Attendance
	for _, rec := range f.records {
		if rec.StoreID != storeID {
			continue
		}
		if filter.EmployeeID != "" && rec.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && string(rec.Status) != filter.Status {
			continue
		}
		out = append(out, *rec)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAttendanceRepo) FindStaleOpen(_ context.Context, cutoff time.Time) ([]attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Attendance
	for _, rec := range f.records {
		if (rec.Status == attendance.StatusClockedIn || rec.Status == attendance.StatusOnBreak) &&
			rec.WorkDate.Before(cutoff) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) CreateAbsencesForDay(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type fakeShiftRepo struct {
	shift *schedule.ShiftAssignment // nil means no shift assigned
}

func (f *fakeShiftRepo) FindForDay(_ context.Context, _ string, _ time.Time) (*schedule.ShiftAssignment, error) {
	if f.shift == nil {
		return nil, schedule.ErrShiftNotFound
	}
	return f.shift, nil
}

func (f *fakeShiftRepo) FindForPeriod(_ context.Context, _ string, _, _ time.Time) (map[string]*schedule.ShiftAssignment, error) {
	return map[string]*schedule.ShiftAssignment{}, nil
}

type fakeAuditSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (f *fakeAuditSink) Record(_ context.Context, entry audit.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditSink) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

// ===== HARNESS =====

type testHarness struct {
	svc   *AttendanceServiceImpl
	repo  *fakeAttendanceRepo
	shift *fakeShiftRepo
	audit *fakeAuditSink
	clock *time.Time
}

func newTestHarness(shift *schedule.ShiftAssignment) *testHarness {
	repo := newFakeAttendanceRepo()
	shiftRepo := &fakeShiftRepo{shift: shift}
	sink := &fakeAuditSink{}

	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	h := &testHarness{repo: repo, shift: shiftRepo, audit: sink, clock: &now}

	h.svc = &AttendanceServiceImpl{
		attendanceRepo: repo,
		shiftRepo:      shiftRepo,
		auditSink:      sink,
		calculator:     NewWorkHoursCalculatorAt(func() time.Time { return *h.clock }),
		now:            func() time.Time { return *h.clock },
		runTx: func(_ context.Context, _ *database.DB, fn func(tx pgx.Tx) error) error {
			snap := repo.snapshot()
			if err := fn(nil); err != nil {
				repo.restore(snap)
				return err
			}
			return nil
		},
	}
	return h
}

func (h *testHarness) advanceTo(hour, minute int) {
	*h.clock = time.Date(2026, time.March, 2, hour, minute, 0, 0, time.UTC)
}

func authedContext(t *testing.T) context.Context {
	t.Helper()
	auth := jwtauth.New("HS256", []byte("test-secret-key-for-jwt"), nil)
	token, _, err := auth.Encode(map[string]interface{}{
		"store_id":    testStoreID,
		"employee_id": testEmployeeID,
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

// ===== TESTS =====

func TestAttendanceService_ClockIn(t *testing.T) {
	h := newTestHarness(testShift())
	ctx := authedContext(t)

	resp, err := h.svc.ClockIn(ctx)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "WORKING", *resp.NewState)
	require.NotNil(t, resp.Attendance)
	assert.Equal(t, "CLOCKED_IN", resp.Attendance.Status)
	assert.Equal(t, []string{"CLOCK_IN"}, h.audit.actions())
}

func TestAttendanceService_DoubleClockInDenied(t *testing.T) {
	h := newTestHarness(testShift())
	ctx := authedContext(t)

	_, err := h.svc.ClockIn(ctx)
	require.NoError(t, err)

	resp, err := h.svc.ClockIn(ctx)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "not allowed")
	// The denial is an outcome, not an audited action.
	assert.Len(t, h.audit.actions(), 1)
}

func TestAttendanceService_ClockInRace(t *testing.T) {
	h := newTestHarness(testShift())
	h.repo.raceNext = true

	_, err := h.svc.ClockIn(authedContext(t))
	assert.ErrorIs(t, err, attendance.ErrConcurrentClockAction)
}

func TestAttendanceService_StartBreakRaceLosesCleanly(t *testing.T) {
	h := newTestHarness(testShift())
	ctx := authedContext(t)
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	_, err := h.svc.ClockIn(ctx)
	require.NoError(t, err)

	h.advanceTo(12, 0)
	working, err := h.repo.FindForDay(ctx, testEmployeeID, day, testStoreID)
	require.NoError(t, err)
	require.NotNil(t, working)

	resp, err := h.svc.StartBreak(ctx, attendance.StartBreakRequest{BreakType: "MEAL"})
	require.NoError(t, err)
	require.True(t, resp.Success)

	// A second request that read the record before the first one committed
	// must lose at the write, and its break row must not survive.
	h.repo.staleReadOnce = working
	_, err = h.svc.StartBreak(ctx, attendance.StartBreakRequest{BreakType: "REST"})
	assert.ErrorIs(t, err, attendance.ErrConcurrentClockAction)

	rec, err := h.repo.FindForDay(ctx, testEmployeeID, day, testStoreID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, attendance.StatusOnBreak, rec.Status)
	require.Len(t, rec.Breaks, 1)
	assert.Nil(t, rec.Breaks[0].EndTime)
}

func TestAttendanceService_ClockOutRaceWithBreakLosesCleanly(t *testing.T) {
	h := newTestHarness(testShift())
	ctx := authedContext(t)
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	_, err := h.svc.ClockIn(ctx)
	require.NoError(t, err)

	h.advanceTo(12, 0)
	working, err := h.repo.FindForDay(ctx, testEmployeeID, day, testStoreID)
	require.NoError(t, err)
	require.NotNil(t, working)

	resp, err := h.svc.StartBreak(ctx, attendance.StartBreakRequest{BreakType: "MEAL"})
	require.NoError(t, err)
	require.True(t, resp.Success)

	h.repo.staleReadOnce = working
	_, err = h.svc.ClockOut(ctx)
	assert.ErrorIs(t, err, attendance.ErrConcurrentClockAction)

	rec, err := h.repo.FindForDay(ctx, testEmployeeID, day, testStoreID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, attendance.StatusOnBreak, rec.Status)
	assert.Nil(t, rec.ClockOut)
}

func TestAttendanceService_FullDay(t *testing.T) {
	h := newTestHarness(testShift())
	ctx := authedContext(t)

	_, err := h.svc.ClockIn(ctx)
	require.NoError(t, err)

	h.advanceTo(12, 0)
	resp, err := h.svc.StartBreak(ctx, attendance.StartBreakRequest{BreakType: "MEAL"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "ON_BREAK", *resp.NewState)

	h.advanceTo(12, 30)
	resp, err = h.svc.EndBreak(ctx)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "break ended after 30 minutes", resp.Message)

	h.advanceTo(18, 0)
	resp, err = h.svc.ClockOut(ctx)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "clock-out recorded", resp.Message)
	assert.Equal(t, "CLOCKED_OUT", *resp.NewState)
	require.NotNil(t, resp.Attendance)
	assert.Equal(t, 540, *resp.Attendance.TotalMinutes)
	assert.Equal(t, 30, *resp.Attendance.BreakMinutes)
	assert.Equal(t, 510, *resp.Attendance.NetWorkMinutes)
	assert.Equal(t, 30, *resp.Attendance.OvertimeMinutes)

	assert.Equal(t, []string{"CLOCK_IN", "START_BREAK", "END_BREAK", "CLOCK_OUT"}, h.audit.actions())
}

func TestAttendanceService_LateClockInLandsInReview(t *testing.T) {
	h := newTestHarness(testShift())
	ctx := authedContext(t)

	h.advanceTo(9, 20) // 20 minutes past shift start
	_, err := h.svc.ClockIn(ctx)
	require.NoError(t, err)

	h.advanceTo(17, 0)
	resp, err := h.svc.ClockOut(ctx)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "clock-out recorded, pending manager review", resp.Message)
	assert.Equal(t, "PENDING_REVIEW", resp.Attendance.Status)
}

func TestAttendanceService_StartBreakDeniedBeforeClockIn(t *testing.T) {
	h := newTestHarness(testShift())

	resp, err := h.svc.StartBreak(authedContext(t), attendance.StartBreakRequest{BreakType: "REST"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
}

func TestAttendanceService_StartBreakValidatesType(t *testing.T) {
	h := newTestHarness(testShift())

	_, err := h.svc.StartBreak(authedContext(t), attendance.StartBreakRequest{BreakType: "SIESTA"})
	assert.Error(t, err)
}

func TestAttendanceService_SplitShiftDay(t *testing.T) {
	h := newTestHarness(splitShift()) // 09:00-22:00, split break 14:00-17:00
	ctx := authedContext(t)

	_, err := h.svc.ClockIn(ctx)
	require.NoError(t, err)

	// Segment-1 close lands in SPLIT_BREAK, never in review.
	h.advanceTo(14, 0)
	resp, err := h.svc.ClockOut(ctx)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "SPLIT_BREAK", *resp.NewState)
	assert.Equal(t, "CLOCKED_OUT", resp.Attendance.Status)

	h.advanceTo(17, 0)
	resp, err = h.svc.ClockIn(ctx)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "WORKING", *resp.NewState)
	assert.NotNil(t, resp.Attendance.ClockIn2)

	h.advanceTo(22, 0)
	resp, err = h.svc.ClockOut(ctx)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "CLOCKED_OUT", *resp.NewState)
	// 09:00-14:00 and 17:00-22:00 both count, the split gap does not.
	assert.Equal(t, 600, *resp.Attendance.TotalMinutes)
	assert.Equal(t, 600, *resp.Attendance.NetWorkMinutes)
}

func TestAttendanceService_GetCurrentState(t *testing.T) {
	h := newTestHarness(testShift())
	ctx := authedContext(t)

	state, err := h.svc.GetCurrentState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "NOT_CLOCKED_IN", state.State)
	assert.Nil(t, state.Attendance)
	require.NotNil(t, state.Shift)

	var clockIn *attendance.ActionAvailability
	for i := range state.AvailableActions {
		if state.AvailableActions[i].Action == "CLOCK_IN" {
			clockIn = &state.AvailableActions[i]
		}
	}
	require.NotNil(t, clockIn)
	assert.True(t, clockIn.Allowed)

	_, err = h.svc.ClockIn(ctx)
	require.NoError(t, err)

	state, err = h.svc.GetCurrentState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "WORKING", state.State)
	require.NotNil(t, state.Attendance)
}

func TestAttendanceService_ApproveAndReject(t *testing.T) {
	h := newTestHarness(testShift())
	ctx := authedContext(t)

	h.advanceTo(9, 30)
	_, err := h.svc.ClockIn(ctx)
	require.NoError(t, err)
	h.advanceTo(17, 0)
	resp, err := h.svc.ClockOut(ctx)
	require.NoError(t, err)
	require.Equal(t, "PENDING_REVIEW", resp.Attendance.Status)
	id := resp.Attendance.ID

	t.Run("approve", func(t *testing.T) {
		approved, err := h.svc.ApproveAttendance(ctx, attendance.ApproveAttendanceRequest{ID: id})
		require.NoError(t, err)
		assert.Equal(t, "APPROVED", approved.Status)
	})

	t.Run("approve twice fails", func(t *testing.T) {
		_, err := h.svc.ApproveAttendance(ctx, attendance.ApproveAttendanceRequest{ID: id})
		assert.ErrorIs(t, err, attendance.ErrAlreadyProcessed)
	})

	t.Run("reject non-pending fails", func(t *testing.T) {
		_, err := h.svc.RejectAttendance(ctx, attendance.RejectAttendanceRequest{ID: id, Reason: "timestamps look wrong"})
		assert.ErrorIs(t, err, attendance.ErrAlreadyProcessed)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := h.svc.ApproveAttendance(ctx, attendance.ApproveAttendanceRequest{ID: uuid.NewString()})
		assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
	})
}

func TestAttendanceService_RejectStoresReason(t *testing.T) {
	h := newTestHarness(testShift())
	ctx := authedContext(t)

	h.advanceTo(9, 30)
	_, err := h.svc.ClockIn(ctx)
	require.NoError(t, err)
	h.advanceTo(17, 0)
	resp, err := h.svc.ClockOut(ctx)
	require.NoError(t, err)
	require.Equal(t, "PENDING_REVIEW", resp.Attendance.Status)

	rejected, err := h.svc.RejectAttendance(ctx, attendance.RejectAttendanceRequest{
		ID:     resp.Attendance.ID,
		Reason: "clocked in from the wrong store",
	})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", rejected.Status)
	require.NotNil(t, rejected.ReviewNote)
	assert.Equal(t, "clocked in from the wrong store", *rejected.ReviewNote)
}

func TestAttendanceService_ListAndMyAttendance(t *testing.T) {
	h := newTestHarness(testShift())
	ctx := authedContext(t)

	_, err := h.svc.ClockIn(ctx)
	require.NoError(t, err)
	h.advanceTo(18, 0)
	_, err = h.svc.ClockOut(ctx)
	require.NoError(t, err)

	mine, err := h.svc.GetMyAttendance(ctx, attendance.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.TotalCount)
	assert.Len(t, mine.Attendances, 1)
	assert.Equal(t, 1, mine.TotalPages)

	all, err := h.svc.ListAttendance(ctx, attendance.ListFilter{Status: "CLOCKED_OUT"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.TotalCount)

	none, err := h.svc.ListAttendance(ctx, attendance.ListFilter{Status: "PENDING_REVIEW"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), none.TotalCount)

	_, err = h.svc.ListAttendance(ctx, attendance.ListFilter{Status: "NOT_A_STATUS"})
	assert.Error(t, err)
}
