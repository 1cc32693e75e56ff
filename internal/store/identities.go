package store

import (
	"context"
	"fmt"

	"github.com/Jewsh1r/kanban-api/internal/model"
)

const upsertIdentitySQL = `
INSERT INTO service_identities (service_user_id, employee_email, service_name)
VALUES ($1, $2, $3)
ON CONFLICT (service_user_id) DO UPDATE SET
    employee_email = COALESCE(EXCLUDED.employee_email, service_identities.employee_email),
    service_name   = COALESCE(EXCLUDED.service_name, service_identities.service_name)`

// UpsertServiceIdentity inserts the identity or merges its non-null
// fields into the existing row keyed by the external user id.
func (s *Store) UpsertServiceIdentity(ctx context.Context, si model.ServiceIdentity) error {
	if si.ServiceUserID == "" {
		return fmt.Errorf("service user id is required")
	}
	_, err := s.pool.Exec(ctx, upsertIdentitySQL, si.ServiceUserID, si.EmployeeEmail, si.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to upsert service identity %s: %w", si.ServiceUserID, err)
	}
	return nil
}

// GetOrCreateServiceIdentity returns the identity for id, creating a bare
// row (all fields null except the id) when missing. The insert is
// idempotent, so concurrent callers converge on the same row.
func (s *Store) GetOrCreateServiceIdentity(ctx context.Context, id string) (model.ServiceIdentity, error) {
	if id == "" {
		return model.ServiceIdentity{}, fmt.Errorf("service user id is required")
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO service_identities (service_user_id) VALUES ($1) ON CONFLICT (service_user_id) DO NOTHING`,
		id)
	if err != nil {
		return model.ServiceIdentity{}, fmt.Errorf("failed to create service identity %s: %w", id, err)
	}

	var si model.ServiceIdentity
	err = s.pool.QueryRow(ctx,
		`SELECT service_user_id, employee_email, service_name FROM service_identities WHERE service_user_id = $1`,
		id,
	).Scan(&si.ServiceUserID, &si.EmployeeEmail, &si.ServiceName)
	if err != nil {
		return model.ServiceIdentity{}, fmt.Errorf("failed to get service identity %s: %w", id, err)
	}
	return si, nil
}

// ListIdentitiesByEmail returns the service identities linked to the
// given employee email.
func (s *Store) ListIdentitiesByEmail(ctx context.Context, email string) ([]model.ServiceIdentity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT service_user_id, employee_email, service_name
		 FROM service_identities
		 WHERE employee_email = $1
		 ORDER BY service_user_id`,
		email)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities for %s: %w", email, err)
	}
	defer rows.Close()

	var identities []model.ServiceIdentity
	for rows.Next() {
		var si model.ServiceIdentity
		if err := rows.Scan(&si.ServiceUserID, &si.EmployeeEmail, &si.ServiceName); err != nil {
			return nil, fmt.Errorf("failed to scan service identity: %w", err)
		}
		identities = append(identities, si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read service identities: %w", err)
	}
	return identities, nil
}

// ListServiceLinks returns every employee-to-service-identity association
// where both sides are known.
func (s *Store) ListServiceLinks(ctx context.Context) ([]model.ServiceLink, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT e.email, si.service_user_id, COALESCE(si.service_name, '')
		 FROM employees e
		 JOIN service_identities si ON si.employee_email = e.email
		 ORDER BY e.email, si.service_user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list service links: %w", err)
	}
	defer rows.Close()

	var links []model.ServiceLink
	for rows.Next() {
		var l model.ServiceLink
		if err := rows.Scan(&l.Email, &l.ServiceUserID, &l.ServiceName); err != nil {
			return nil, fmt.Errorf("failed to scan service link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read service links: %w", err)
	}
	return links, nil
}
