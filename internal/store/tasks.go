package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Jewsh1r/kanban-api/internal/model"
)

const upsertTaskSQL = `
INSERT INTO tasks (id, assigned_service_user_id, name, status, start_date, end_date, deadline)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    assigned_service_user_id = COALESCE(EXCLUDED.assigned_service_user_id, tasks.assigned_service_user_id),
    name       = EXCLUDED.name,
    status     = EXCLUDED.status,
    start_date = COALESCE(EXCLUDED.start_date, tasks.start_date),
    end_date   = COALESCE(EXCLUDED.end_date, tasks.end_date),
    deadline   = COALESCE(EXCLUDED.deadline, tasks.deadline)`

const taskColumns = `id, assigned_service_user_id, parent_task_id,
COALESCE(name, ''), COALESCE(status, ''), start_date, end_date, deadline`

// UpsertTask inserts the task or merges its non-null fields into the
// existing row keyed by the external task id. The parent pointer is left
// untouched: main-task records never carry one, and an existing link set
// by a subtask upsert must survive.
func (s *Store) UpsertTask(ctx context.Context, t model.Task) error {
	if t.ID == "" {
		return fmt.Errorf("task id is required")
	}
	_, err := s.pool.Exec(ctx, upsertTaskSQL,
		t.ID, t.AssignedToID, t.Name, t.Status, t.StartDate, t.EndDate, t.Deadline)
	if err != nil {
		return fmt.Errorf("failed to upsert task %s: %w", t.ID, err)
	}
	return nil
}

// UpsertTaskParent records a parent link for a task. When the task has
// not been seen yet a partial row with only id and parent is created, to
// be enriched by a later upsert of the full record.
func (s *Store) UpsertTaskParent(ctx context.Context, id, parentID string) error {
	if id == "" || parentID == "" {
		return fmt.Errorf("task id and parent id are required")
	}
	if id == parentID {
		return fmt.Errorf("task %s cannot be its own parent", id)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tasks (id, parent_task_id) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET parent_task_id = EXCLUDED.parent_task_id`,
		id, parentID)
	if err != nil {
		return fmt.Errorf("failed to upsert parent link for task %s: %w", id, err)
	}
	return nil
}

// ListTasks returns all tasks ordered by id.
func (s *Store) ListTasks(ctx context.Context) ([]model.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
}

// GetTaskByID returns the task with the given id, or ErrNotFound.
func (s *Store) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	err := s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id,
	).Scan(&t.ID, &t.AssignedToID, &t.ParentTaskID, &t.Name, &t.Status,
		&t.StartDate, &t.EndDate, &t.Deadline)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return &t, nil
}

// ListTasksByAssignee returns the tasks assigned to the given service
// identity.
func (s *Store) ListTasksByAssignee(ctx context.Context, serviceUserID string) ([]model.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE assigned_service_user_id = $1 ORDER BY id`,
		serviceUserID)
}

// ListTasksByEmployeeEmail returns the tasks assigned to any service
// identity linked to the given employee email.
func (s *Store) ListTasksByEmployeeEmail(ctx context.Context, email string) ([]model.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks t
		 JOIN service_identities si ON si.service_user_id = t.assigned_service_user_id
		 WHERE si.employee_email = $1
		 ORDER BY t.id`,
		email)
}

func (s *Store) queryTasks(ctx context.Context, sql string, args ...any) ([]model.Task, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.AssignedToID, &t.ParentTaskID, &t.Name, &t.Status,
			&t.StartDate, &t.EndDate, &t.Deadline); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	return tasks, nil
}
