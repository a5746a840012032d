package leave

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the durable RequestStore implementation.
type PGStore struct {
	DB *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) Create(ctx context.Context, req LeaveRequest) (LeaveRequest, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (company_id, employee_id, employee_name, reason, work_hours_logged)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id, status, requested_at
  `, req.CompanyID, req.EmployeeID, req.EmployeeName, req.Reason, req.WorkHoursLogged).
		Scan(&req.ID, &req.Status, &req.RequestedAt)
	if err != nil {
		return LeaveRequest{}, err
	}
	return req, nil
}

func (s *PGStore) Get(ctx context.Context, companyID, id string) (LeaveRequest, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, `
    SELECT id, company_id, employee_id, employee_name, reason, status, work_hours_logged,
           requested_at, COALESCE(decided_by::text, ''), decided_at
    FROM leave_requests
    WHERE company_id = $1 AND id = $2
  `, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LeaveRequest{}, ErrNotFound
		}
		return LeaveRequest{}, err
	}
	return req, nil
}

func (s *PGStore) List(ctx context.Context, companyID, employeeID string) ([]LeaveRequest, error) {
	query := `
    SELECT id, company_id, employee_id, employee_name, reason, status, work_hours_logged,
           requested_at, COALESCE(decided_by::text, ''), decided_at
    FROM leave_requests
    WHERE company_id = $1
  `
	args := []any{companyID}
	if employeeID != "" {
		query += " AND employee_id = $2"
		args = append(args, employeeID)
	}
	query += " ORDER BY requested_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *PGStore) Decide(ctx context.Context, companyID, id, status, deciderUserID string) (LeaveRequest, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, `
    UPDATE leave_requests
    SET status = $3, decided_by = $4, decided_at = now()
    WHERE company_id = $1 AND id = $2 AND status = 'pending'
    RETURNING id, company_id, employee_id, employee_name, reason, status, work_hours_logged,
              requested_at, COALESCE(decided_by::text, ''), decided_at
  `, companyID, id, status, deciderUserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either missing or already decided; disambiguate for the caller.
			if _, getErr := s.Get(ctx, companyID, id); getErr == nil {
				return LeaveRequest{}, ErrInvalidState
			}
			return LeaveRequest{}, ErrNotFound
		}
		return LeaveRequest{}, err
	}
	return req, nil
}

func scanRequest(row pgx.Row) (LeaveRequest, error) {
	var req LeaveRequest
	err := row.Scan(
		&req.ID, &req.CompanyID, &req.EmployeeID, &req.EmployeeName, &req.Reason, &req.Status,
		&req.WorkHoursLogged, &req.RequestedAt, &req.DecidedBy, &req.DecidedAt,
	)
	return req, err
}
