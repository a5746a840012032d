package leave

import "context"

// RequestStore is pluggable: the in-memory store gives the observed ephemeral
// behavior, the Postgres store makes requests durable. The service logic is
// identical either way.
type RequestStore interface {
	Create(ctx context.Context, req LeaveRequest) (LeaveRequest, error)
	Get(ctx context.Context, companyID, id string) (LeaveRequest, error)
	List(ctx context.Context, companyID, employeeID string) ([]LeaveRequest, error)
	Decide(ctx context.Context, companyID, id, status, deciderUserID string) (LeaveRequest, error)
}
