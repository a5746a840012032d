package company

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type Employee struct {
	ID        string
	UserID    string
	FirstName string
	LastName  string
	ManagerID string
}

func (s *Store) EmployeeByUserID(ctx context.Context, companyID, userID string) (Employee, error) {
	var e Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, first_name, last_name, COALESCE(manager_id::text, '')
    FROM employees
    WHERE company_id = $1 AND user_id = $2
  `, companyID, userID).Scan(&e.ID, &e.UserID, &e.FirstName, &e.LastName, &e.ManagerID)
	return e, err
}

func (s *Store) UserIDByEmployee(ctx context.Context, companyID, employeeID string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT user_id FROM employees WHERE company_id = $1 AND id = $2
  `, companyID, employeeID).Scan(&userID)
	return userID, err
}

func (s *Store) Name(ctx context.Context, companyID string) (string, error) {
	var name string
	err := s.DB.QueryRow(ctx, "SELECT name FROM companies WHERE id = $1", companyID).Scan(&name)
	return name, err
}

func (s *Store) CompanyIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM companies")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
