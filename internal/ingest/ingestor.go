// Package ingest implements the YouGile ingestion pipeline: fetching the
// three external collections, normalizing them into the relational model
// and upserting them idempotently into storage.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Jewsh1r/kanban-api/internal/model"
	"github.com/Jewsh1r/kanban-api/internal/yougile"
)

// Source fetches raw collections from the external service.
type Source interface {
	GetEmployees(ctx context.Context, offset int) ([]yougile.RawUser, error)
	GetProjects(ctx context.Context, offset int) ([]yougile.RawProject, error)
	GetTasks(ctx context.Context, offset int) ([]yougile.RawTask, error)
}

// Store is the storage collaborator consumed by the ingestor. Every
// operation is an independent unit of work; upserts are create-or-merge
// by primary key.
type Store interface {
	UpsertEmployee(ctx context.Context, e model.Employee) error
	UpsertServiceIdentity(ctx context.Context, si model.ServiceIdentity) error

	// GetOrCreateServiceIdentity returns the identity for id, creating a
	// bare row (all fields null except the id) when missing. Used to
	// satisfy referential integrity before membership and assignee links.
	GetOrCreateServiceIdentity(ctx context.Context, id string) (model.ServiceIdentity, error)

	// UpsertProject upserts the project row and links the given member
	// identities, which must already exist. Links are idempotent.
	UpsertProject(ctx context.Context, p model.Project, memberIDs []string) error

	// UpsertTask upserts a fully-populated task. The parent pointer of an
	// existing row is preserved.
	UpsertTask(ctx context.Context, t model.Task) error

	// UpsertTaskParent records a parent link for a task, creating a
	// partial row when the task has not been seen yet.
	UpsertTaskParent(ctx context.Context, id, parentID string) error
}

// Result aggregates the outcome of one ingestion pass. Errors counts
// records or collections that failed; failures never abort the pass.
type Result struct {
	Employees int
	Projects  int
	Tasks     int
	Subtasks  int
	Errors    int
}

// Ingestor runs one full fetch, normalize and upsert pass.
type Ingestor struct {
	source Source
	store  Store
}

// NewIngestor creates an Ingestor with the given collaborators.
func NewIngestor(source Source, store Store) *Ingestor {
	return &Ingestor{source: source, store: store}
}

// Run executes one ingestion pass. The three collections are fetched
// concurrently, then upserted in the hard order employees, projects,
// tasks so that every referenced service identity exists (or is created
// inline) before a link to it is persisted. Failures are isolated per
// record and per collection and reported through the Result.
func (i *Ingestor) Run(ctx context.Context) (*Result, error) {
	var (
		users    []yougile.RawUser
		projects []yougile.RawProject
		tasks    []yougile.RawTask

		usersErr    error
		projectsErr error
		tasksErr    error
	)

	// TODO: walk pages past the first one; collections larger than the
	// page size are currently truncated.
	g, fetchCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, usersErr = i.source.GetEmployees(fetchCtx, 0)
		return nil
	})
	g.Go(func() error {
		projects, projectsErr = i.source.GetProjects(fetchCtx, 0)
		return nil
	})
	g.Go(func() error {
		tasks, tasksErr = i.source.GetTasks(fetchCtx, 0)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ingestion pass cancelled: %w", err)
	}

	result := &Result{}

	if usersErr != nil {
		slog.Error("Failed to fetch employees, skipping employee stage", "error", usersErr)
		result.Errors++
	} else {
		i.ingestEmployees(ctx, users, result)
	}

	if projectsErr != nil {
		slog.Error("Failed to fetch projects, skipping project stage", "error", projectsErr)
		result.Errors++
	} else {
		i.ingestProjects(ctx, projects, result)
	}

	if tasksErr != nil {
		slog.Error("Failed to fetch tasks, skipping task stage", "error", tasksErr)
		result.Errors++
	} else {
		i.ingestTasks(ctx, tasks, result)
	}

	return result, nil
}

// ingestEmployees upserts each employee and its paired service identity.
func (i *Ingestor) ingestEmployees(ctx context.Context, users []yougile.RawUser, result *Result) {
	records := NormalizeEmployees(users)
	if len(records) == 0 {
		slog.Info("Employee list is empty, nothing to ingest")
		return
	}

	for _, rec := range records {
		if err := i.store.UpsertEmployee(ctx, rec.Employee); err != nil {
			slog.Error("Failed to upsert employee", "email", rec.Employee.Email, "error", err)
			result.Errors++
			continue
		}
		if err := i.store.UpsertServiceIdentity(ctx, rec.Identity); err != nil {
			slog.Error("Failed to upsert service identity",
				"service_user_id", rec.Identity.ServiceUserID, "error", err)
			result.Errors++
			continue
		}
		result.Employees++
	}
}

// ingestProjects upserts each project after making sure a service
// identity row exists for every referenced member.
func (i *Ingestor) ingestProjects(ctx context.Context, projects []yougile.RawProject, result *Result) {
	records := NormalizeProjects(projects)
	if len(records) == 0 {
		slog.Info("Project list is empty, nothing to ingest")
		return
	}

	for _, rec := range records {
		members := make([]string, 0, len(rec.MemberIDs))
		ok := true
		for _, memberID := range rec.MemberIDs {
			if _, err := i.store.GetOrCreateServiceIdentity(ctx, memberID); err != nil {
				slog.Error("Failed to resolve project member identity",
					"project_id", rec.Project.ID, "service_user_id", memberID, "error", err)
				result.Errors++
				ok = false
				break
			}
			members = append(members, memberID)
		}
		if !ok {
			continue
		}

		if err := i.store.UpsertProject(ctx, rec.Project, members); err != nil {
			slog.Error("Failed to upsert project", "project_id", rec.Project.ID, "error", err)
			result.Errors++
			continue
		}
		result.Projects++
	}
}

// ingestTasks upserts each main task and then its subtask links. An
// assignee identity is created inline when it has not been seen before.
func (i *Ingestor) ingestTasks(ctx context.Context, tasks []yougile.RawTask, result *Result) {
	records := NormalizeTasks(tasks)
	if len(records) == 0 {
		slog.Info("Task list is empty, nothing to ingest")
		return
	}

	for _, rec := range records {
		if rec.Task.AssignedToID != nil {
			if _, err := i.store.GetOrCreateServiceIdentity(ctx, *rec.Task.AssignedToID); err != nil {
				slog.Error("Failed to resolve task assignee identity",
					"task_id", rec.Task.ID, "service_user_id", *rec.Task.AssignedToID, "error", err)
				result.Errors++
				continue
			}
		}

		if err := i.store.UpsertTask(ctx, rec.Task); err != nil {
			slog.Error("Failed to upsert task", "task_id", rec.Task.ID, "error", err)
			result.Errors++
			continue
		}
		result.Tasks++

		for _, sub := range rec.Subtasks {
			if err := i.store.UpsertTaskParent(ctx, sub.ID, sub.ParentID); err != nil {
				slog.Error("Failed to upsert subtask link",
					"task_id", sub.ID, "parent_task_id", sub.ParentID, "error", err)
				result.Errors++
				continue
			}
			result.Subtasks++
		}
	}
}
