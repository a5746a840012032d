package leave

import (
	"errors"
	"time"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	ErrEmptyReason  = errors.New("leave reason required")
	ErrNotFound     = errors.New("leave request not found")
	ErrInvalidState = errors.New("leave request already decided")
)

// LeaveRequest is an early-leave flag raised by an employee while a session
// is active. Approving one never touches the employee's timer or the global
// mode; the two are explicitly decoupled.
type LeaveRequest struct {
	ID              string     `json:"id"`
	CompanyID       string     `json:"companyId"`
	EmployeeID      string     `json:"employeeId"`
	EmployeeName    string     `json:"employeeName"`
	Reason          string     `json:"reason"`
	Status          string     `json:"status"`
	WorkHoursLogged float64    `json:"workHoursLogged"`
	RequestedAt     time.Time  `json:"requestedAt"`
	DecidedBy       string     `json:"decidedBy,omitempty"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty"`
}
