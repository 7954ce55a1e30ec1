package models

import "time"

// ContractType categorises an instructor's employment contract. The
// category governs the maximum weekly teaching load.
type ContractType string

const (
	ContractPermanent ContractType = "permanent"
	ContractHourly27  ContractType = "contract_27"
	ContractHourly24  ContractType = "contract_24"
)

// Instructor represents a teaching-eligible staff member. SchemeStart and
// SchemeEnd bound the daily window the instructor may be scheduled in;
// when absent the instructor is unconstrained within the institutional day.
type Instructor struct {
	ID           string       `db:"id" json:"id"`
	FullName     string       `db:"full_name" json:"full_name"`
	Email        string       `db:"email" json:"email"`
	DepartmentID string       `db:"department_id" json:"department_id"`
	Role         string       `db:"role" json:"role"`
	ContractType ContractType `db:"contract_type" json:"contract_type"`
	SchemeStart  *string      `db:"scheme_start" json:"scheme_start,omitempty"`
	SchemeEnd    *string      `db:"scheme_end" json:"scheme_end,omitempty"`
	Active       bool         `db:"active" json:"active"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}
