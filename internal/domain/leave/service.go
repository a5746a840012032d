package leave

import (
	"context"
	"strings"

	"worktime/internal/domain/auth"
)

type Service struct {
	Requests RequestStore
}

func NewService(store RequestStore) *Service {
	return &Service{Requests: store}
}

// Submit validates the reason before anything touches the store.
func (s *Service) Submit(ctx context.Context, actor auth.UserContext, employeeID, employeeName, reason string, workHoursLogged float64) (LeaveRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return LeaveRequest{}, ErrEmptyReason
	}
	if workHoursLogged < 0 {
		workHoursLogged = 0
	}

	return s.Requests.Create(ctx, LeaveRequest{
		CompanyID:       actor.CompanyID,
		EmployeeID:      employeeID,
		EmployeeName:    employeeName,
		Reason:          reason,
		WorkHoursLogged: workHoursLogged,
	})
}

func (s *Service) List(ctx context.Context, companyID, employeeID string) ([]LeaveRequest, error) {
	return s.Requests.List(ctx, companyID, employeeID)
}

func (s *Service) Get(ctx context.Context, companyID, id string) (LeaveRequest, error) {
	return s.Requests.Get(ctx, companyID, id)
}

// Approve flips a pending request to approved. It deliberately has no side
// effect on the employee's session timer or the company mode.
func (s *Service) Approve(ctx context.Context, actor auth.UserContext, id string) (LeaveRequest, error) {
	return s.Requests.Decide(ctx, actor.CompanyID, id, StatusApproved, actor.UserID)
}

func (s *Service) Reject(ctx context.Context, actor auth.UserContext, id string) (LeaveRequest, error) {
	return s.Requests.Decide(ctx, actor.CompanyID, id, StatusRejected, actor.UserID)
}
