package models

import "time"

// SalaryStructure defines the pay composition for an employee.
// Exactly one structure per employee is active at a time.
type SalaryStructure struct {
	ID             string    `db:"id" json:"id"`
	EmployeeID     string    `db:"employee_id" json:"employee_id"`
	BasicSalary    float64   `db:"basic_salary" json:"basic_salary"`
	HouseRentAllow float64   `db:"house_rent_allowance" json:"house_rent_allowance"`
	MedicalAllow   float64   `db:"medical_allowance" json:"medical_allowance"`
	TransportAllow float64   `db:"transport_allowance" json:"transport_allowance"`
	OtherAllow     float64   `db:"other_allowance" json:"other_allowance"`
	ProvidentFund  float64   `db:"provident_fund" json:"provident_fund"`
	OtherDeduction float64   `db:"other_deduction" json:"other_deduction"`
	MonthlyTax     float64   `db:"monthly_tax" json:"monthly_tax"`
	GrossSalary    float64   `db:"gross_salary" json:"gross_salary"`
	NetSalary      float64   `db:"net_salary" json:"net_salary"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	EffectiveFrom  time.Time `db:"effective_from" json:"effective_from"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ProcessingStatus is the lifecycle state of a salary run.
type ProcessingStatus string

const (
	ProcessingStatusPending   ProcessingStatus = "pending"
	ProcessingStatusProcessed ProcessingStatus = "processed"
	ProcessingStatusApproved  ProcessingStatus = "approved"
	ProcessingStatusPaid      ProcessingStatus = "paid"
)

// SalaryProcessing is one salary run for an (employee, payroll period) pair.
// The (employee_id, period) pair is unique; status only advances forward and
// each transition stamps the acting user and a timestamp.
type SalaryProcessing struct {
	ID               string           `db:"id" json:"id"`
	EmployeeID       string           `db:"employee_id" json:"employee_id"`
	Period           string           `db:"period" json:"period"`
	DaysWorked       int              `db:"days_worked" json:"days_worked"`
	Bonus            float64          `db:"bonus" json:"bonus"`
	OvertimeAmount   float64          `db:"overtime_amount" json:"overtime_amount"`
	AdvanceDeduction float64          `db:"advance_deduction" json:"advance_deduction"`
	GrossSalary      float64          `db:"gross_salary" json:"gross_salary"`
	NetSalary        float64          `db:"net_salary" json:"net_salary"`
	Status           ProcessingStatus `db:"status" json:"status"`
	ProcessedBy      string           `db:"processed_by" json:"processed_by"`
	ProcessedAt      time.Time        `db:"processed_at" json:"processed_at"`
	ApprovedBy       *string          `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt       *time.Time       `db:"approved_at" json:"approved_at,omitempty"`
	PaidBy           *string          `db:"paid_by" json:"paid_by,omitempty"`
	PaidAt           *time.Time       `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// ProcessingFilter scopes salary processing listings.
type ProcessingFilter struct {
	EmployeeID string
	Period     string
	Status     string
	Page       int
	PageSize   int
}
