package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Jewsh1r/kanban-api/internal/model"
)

// UpsertProject upserts the project row and its membership links inside a
// single transaction, so a project upsert is one atomic unit of work.
// Member identities must already exist; links are inserted with
// ON CONFLICT DO NOTHING so re-running a pass never duplicates them.
func (s *Store) UpsertProject(ctx context.Context, p model.Project, memberIDs []string) error {
	if p.ID == "" {
		return fmt.Errorf("project id is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			_ = rollbackErr
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO projects (id, name) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		p.ID, p.Name)
	if err != nil {
		return fmt.Errorf("failed to upsert project %s: %w", p.ID, err)
	}

	for _, memberID := range memberIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO project_members (project_id, service_user_id) VALUES ($1, $2)
			 ON CONFLICT (project_id, service_user_id) DO NOTHING`,
			p.ID, memberID)
		if err != nil {
			return fmt.Errorf("failed to link member %s to project %s: %w", memberID, p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit project upsert: %w", err)
	}
	return nil
}

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, COALESCE(name, '') FROM projects ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read projects: %w", err)
	}
	return projects, nil
}

// GetProjectByID returns the project with the given id, or ErrNotFound.
func (s *Store) GetProjectByID(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := s.pool.QueryRow(ctx,
		`SELECT id, COALESCE(name, '') FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	return &p, nil
}
