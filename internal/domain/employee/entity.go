package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type EmploymentType string

const (
	EmploymentTypeHourly   EmploymentType = "HOURLY"
	EmploymentTypeSalaried EmploymentType = "SALARIED"
)

var EmploymentTypeValues = []string{
	string(EmploymentTypeHourly),
	string(EmploymentTypeSalaried),
}

type Employee struct {
	ID             string
	StoreID        string
	FullName       string
	EmployeeCode   string
	EmploymentType EmploymentType
	HourlyRate     *decimal.Decimal // set for HOURLY employees
	MonthlySalary  *decimal.Decimal // set for SALARIED employees
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
