package audit

import "time"

// Entry is one append-only audit record for a successful state-changing
// attendance operation.
type Entry struct {
	ID         string
	EmployeeID string
	StoreID    string
	Action     string // CLOCK_IN, CLOCK_OUT, START_BREAK, ...
	EntityType string // "attendance" or "break"
	EntityID   string
	At         time.Time
}
