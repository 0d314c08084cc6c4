package attendance

import (
	"fmt"

	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/attendance"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/schedule"
)

// ClockState is the derived position of an employee in the day's attendance
// lifecycle. It is never persisted: the state is recomputed from the raw
// attendance fields on every read, so it can never drift from the facts.
type ClockState string

const (
	StateNotClockedIn ClockState = "NOT_CLOCKED_IN"
	StateWorking      ClockState = "WORKING"
	StateOnBreak      ClockState = "ON_BREAK"
	StateClockedOut   ClockState = "CLOCKED_OUT"
	StateSplitBreak   ClockState = "SPLIT_BREAK"
)

type ClockAction string

const (
	ActionClockIn          ClockAction = "CLOCK_IN"
	ActionStartBreak       ClockAction = "START_BREAK"
	ActionEndBreak         ClockAction = "END_BREAK"
	ActionClockOut         ClockAction = "CLOCK_OUT"
	ActionClockInSegment2  ClockAction = "CLOCK_IN_SEGMENT_2"
	ActionClockOutSegment2 ClockAction = "CLOCK_OUT_SEGMENT_2"
)

// Decision is the outcome of evaluating an action against the current state.
// Guard failures carry a human-readable reason; they are never errors.
type Decision struct {
	Allowed bool
	Reason  string
}

// ActionDecision pairs an action with its current availability.
type ActionDecision struct {
	Action   ClockAction
	Decision Decision
}

// Snapshot is the immutable input the machine decides over: the day's
// attendance record (nil before the first clock-in) and the day's shift
// assignment (nil when none is scheduled).
type Snapshot struct {
	Attendance *attendance.Attendance
	Shift      *schedule.ShiftAssignment
}

// DeriveState maps the raw attendance facts to a clock state.
func DeriveState(att *attendance.Attendance, shift *schedule.ShiftAssignment) ClockState {
	if att == nil {
		return StateNotClockedIn
	}
	switch att.Status {
	case attendance.StatusOnBreak:
		return StateOnBreak
	case attendance.StatusClockedIn:
		return StateWorking
	}
	// Segment 1 of a split shift has ended but segment 2 has not started.
	// Reviewed/approved/absent records stay terminal regardless of the shift.
	if att.Status == attendance.StatusClockedOut && shift != nil && shift.IsSplit && att.ClockIn2 == nil {
		return StateSplitBreak
	}
	return StateClockedOut
}

type guardFunc func(s Snapshot) Decision

var allowed = Decision{Allowed: true}

func denied(format string, args ...interface{}) Decision {
	return Decision{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// transition is one row of the machine: an action, the states it is legal
// from, the state it leads to, and an optional business guard. Keeping the
// table as data lets a single dispatcher answer both "can I?" and "what can
// I do?", so no legality check ever lives in a caller's if/else chain.
type transition struct {
	Action ClockAction
	From   []ClockState
	To     ClockState
	Guard  guardFunc
}

var transitions = []transition{
	{
		Action: ActionClockIn,
		From:   []ClockState{StateNotClockedIn},
		To:     StateWorking,
	},
	{
		Action: ActionStartBreak,
		From:   []ClockState{StateWorking},
		To:     StateOnBreak,
		Guard:  guardBreakBudget,
	},
	{
		Action: ActionEndBreak,
		From:   []ClockState{StateOnBreak},
		To:     StateWorking,
	},
	{
		Action: ActionClockOut,
		From:   []ClockState{StateWorking},
		To:     StateClockedOut,
		Guard:  guardNoOpenBreak,
	},
	{
		// Re-evaluation after segment 1 ends: a clocked-out split shift sits
		// in the split break until segment 2 starts.
		Action: ActionClockOut,
		From:   []ClockState{StateClockedOut},
		To:     StateSplitBreak,
		Guard:  guardSplitShift,
	},
	{
		Action: ActionClockInSegment2,
		From:   []ClockState{StateSplitBreak},
		To:     StateWorking,
	},
	{
		Action: ActionClockOutSegment2,
		From:   []ClockState{StateWorking},
		To:     StateClockedOut,
		Guard:  guardSegment2Started,
	},
}

func guardBreakBudget(s Snapshot) Decision {
	if s.Shift == nil {
		return allowed
	}
	count := 0
	if s.Attendance != nil {
		count = s.Attendance.BreakCount()
	}
	if count >= s.Shift.MaxBreakCount {
		return denied("max break count reached (%d)", s.Shift.MaxBreakCount)
	}
	return allowed
}

func guardNoOpenBreak(s Snapshot) Decision {
	if s.Attendance != nil && s.Attendance.OpenBreak() != nil {
		return denied("end break before clocking out")
	}
	return allowed
}

func guardSplitShift(s Snapshot) Decision {
	if s.Shift == nil || !s.Shift.IsSplit {
		return denied("not a split shift")
	}
	return allowed
}

func guardSegment2Started(s Snapshot) Decision {
	if s.Attendance == nil || s.Attendance.ClockIn2 == nil {
		return denied("segment 2 not started")
	}
	return allowed
}

// Machine evaluates clock actions against one immutable snapshot. It never
// touches storage; the orchestrator persists whatever the machine allows.
type Machine struct {
	snapshot Snapshot
	state    ClockState
}

func NewMachine(att *attendance.Attendance, shift *schedule.ShiftAssignment) *Machine {
	return &Machine{
		snapshot: Snapshot{Attendance: att, Shift: shift},
		state:    DeriveState(att, shift),
	}
}

func (m *Machine) State() ClockState {
	return m.state
}

// CanTransition reports whether the action is legal from the current state.
// Total over every (state, action) pair: unknown pairs deny, never panic.
func (m *Machine) CanTransition(action ClockAction) Decision {
	for _, tr := range transitions {
		if tr.Action != action || !containsState(tr.From, m.state) {
			continue
		}
		if tr.Guard != nil {
			return tr.Guard(m.snapshot)
		}
		return allowed
	}
	return denied("%s is not allowed from state %s", action, m.state)
}

// NextState returns the state the action leads to, when it is allowed.
func (m *Machine) NextState(action ClockAction) (ClockState, bool) {
	for _, tr := range transitions {
		if tr.Action != action || !containsState(tr.From, m.state) {
			continue
		}
		if tr.Guard != nil {
			if d := tr.Guard(m.snapshot); !d.Allowed {
				return "", false
			}
		}
		return tr.To, true
	}
	return "", false
}

// AvailableActions enumerates every action whose from-set contains the
// current state, each with its guard verdict. The API layer uses this to
// tell clients which operations are currently offered.
func (m *Machine) AvailableActions() []ActionDecision {
	var result []ActionDecision
	for _, tr := range transitions {
		if !containsState(tr.From, m.state) {
			continue
		}
		d := allowed
		if tr.Guard != nil {
			d = tr.Guard(m.snapshot)
		}
		result = append(result, ActionDecision{Action: tr.Action, Decision: d})
	}
	return result
}

func containsState(states []ClockState, state ClockState) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}
