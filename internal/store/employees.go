package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Jewsh1r/kanban-api/internal/model"
)

const upsertEmployeeSQL = `
INSERT INTO employees (email, first_name, last_name, department)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO UPDATE SET
    first_name = COALESCE(EXCLUDED.first_name, employees.first_name),
    last_name  = COALESCE(EXCLUDED.last_name, employees.last_name),
    department = COALESCE(EXCLUDED.department, employees.department),
    updated_at = now()`

// UpsertEmployee inserts the employee or merges its non-null fields into
// the existing row keyed by email.
func (s *Store) UpsertEmployee(ctx context.Context, e model.Employee) error {
	if e.Email == "" {
		return fmt.Errorf("employee email is required")
	}
	_, err := s.pool.Exec(ctx, upsertEmployeeSQL, e.Email, e.FirstName, e.LastName, e.Department)
	if err != nil {
		return fmt.Errorf("failed to upsert employee %s: %w", e.Email, err)
	}
	return nil
}

// ListEmployees returns all employees ordered by email.
func (s *Store) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT email, first_name, last_name, department FROM employees ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.Email, &e.FirstName, &e.LastName, &e.Department); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read employees: %w", err)
	}
	return employees, nil
}

// GetEmployeeByEmail returns the employee with the given email, or
// ErrNotFound.
func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (*model.Employee, error) {
	var e model.Employee
	err := s.pool.QueryRow(ctx,
		`SELECT email, first_name, last_name, department FROM employees WHERE email = $1`,
		email,
	).Scan(&e.Email, &e.FirstName, &e.LastName, &e.Department)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get employee %s: %w", email, err)
	}
	return &e, nil
}
