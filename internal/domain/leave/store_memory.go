package leave

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps leave requests in process memory only; they are lost on
// restart.
type MemoryStore struct {
	mu       sync.Mutex
	requests map[string]LeaveRequest
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[string]LeaveRequest)}
}

func (s *MemoryStore) Create(_ context.Context, req LeaveRequest) (LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req.ID = uuid.NewString()
	req.Status = StatusPending
	req.RequestedAt = time.Now().UTC()
	s.requests[req.ID] = req
	return req, nil
}

func (s *MemoryStore) Get(_ context.Context, companyID, id string) (LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok || req.CompanyID != companyID {
		return LeaveRequest{}, ErrNotFound
	}
	return req, nil
}

func (s *MemoryStore) List(_ context.Context, companyID, employeeID string) ([]LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LeaveRequest
	for _, req := range s.requests {
		if req.CompanyID != companyID {
			continue
		}
		if employeeID != "" && req.EmployeeID != employeeID {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

func (s *MemoryStore) Decide(_ context.Context, companyID, id, status, deciderUserID string) (LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok || req.CompanyID != companyID {
		return LeaveRequest{}, ErrNotFound
	}
	if req.Status != StatusPending {
		return LeaveRequest{}, ErrInvalidState
	}
	now := time.Now().UTC()
	req.Status = status
	req.DecidedBy = deciderUserID
	req.DecidedAt = &now
	s.requests[id] = req
	return req, nil
}
