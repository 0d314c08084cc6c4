package employee

import "context"

type EmployeeRepository interface {
	// GetByID retrieves an employee with store isolation.
	GetByID(ctx context.Context, id string, storeID string) (Employee, error)

	// GetActiveByStoreID returns all active employees of a store.
	GetActiveByStoreID(ctx context.Context, storeID string) ([]Employee, error)
}
