package ingest

import (
	"log/slog"
	"sort"
	"time"

	"github.com/Jewsh1r/kanban-api/internal/model"
	"github.com/Jewsh1r/kanban-api/internal/yougile"
)

// EmployeeRecord pairs an employee with the service identity derived from
// the same source record.
type EmployeeRecord struct {
	Employee model.Employee
	Identity model.ServiceIdentity
}

// ProjectRecord pairs a project with the ids of its member service
// identities. Members are resolved or created by the ingestor, not here.
type ProjectRecord struct {
	Project   model.Project
	MemberIDs []string
}

// SubtaskLink is a partial task carrying only its id and parent id. It is
// merged into storage as a partial update of an existing or future row.
type SubtaskLink struct {
	ID       string
	ParentID string
}

// TaskRecord pairs a fully-populated task with its subtask links.
type TaskRecord struct {
	Task     model.Task
	Subtasks []SubtaskLink
}

// NormalizeEmployees maps raw YouGile users to employee records. Each user
// yields an Employee keyed by email plus a ServiceIdentity linking the
// YouGile user id to that email.
func NormalizeEmployees(users []yougile.RawUser) []EmployeeRecord {
	records := make([]EmployeeRecord, 0, len(users))
	for _, u := range users {
		email := u.Email
		serviceName := model.ServiceNameYouGile
		records = append(records, EmployeeRecord{
			Employee: model.Employee{
				Email:     u.Email,
				FirstName: nilIfEmpty(u.RealName),
			},
			Identity: model.ServiceIdentity{
				ServiceUserID: u.ID,
				EmployeeEmail: &email,
				ServiceName:   &serviceName,
			},
		})
	}
	return records
}

// NormalizeProjects maps raw YouGile projects to project records. Member
// ids come from the keys of the users mapping; duplicates collapse and
// the result is sorted for determinism.
func NormalizeProjects(projects []yougile.RawProject) []ProjectRecord {
	records := make([]ProjectRecord, 0, len(projects))
	for _, p := range projects {
		memberIDs := make([]string, 0, len(p.Users))
		for id := range p.Users {
			memberIDs = append(memberIDs, id)
		}
		sort.Strings(memberIDs)

		records = append(records, ProjectRecord{
			Project: model.Project{
				ID:   p.ID,
				Name: p.Title,
			},
			MemberIDs: memberIDs,
		})
	}
	return records
}

// NormalizeTasks maps raw YouGile tasks to task records. Status derivation,
// date truncation and subtask decomposition follow the source semantics:
// archived wins over completed; start_date always computes from the record
// timestamp; end_date and deadline stay absent when the raw field is absent.
func NormalizeTasks(tasks []yougile.RawTask) []TaskRecord {
	records := make([]TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		startDate := dateFromMillis(t.Timestamp)

		task := model.Task{
			ID:           t.ID,
			Name:         t.Title,
			Status:       taskStatus(t.Archived, t.Completed),
			StartDate:    &startDate,
			AssignedToID: t.Assigned,
		}
		if t.CompletedTimestamp != nil {
			endDate := dateFromMillis(*t.CompletedTimestamp)
			task.EndDate = &endDate
		}
		if t.Deadline != nil {
			deadline := dateFromMillis(t.Deadline.Deadline)
			task.Deadline = &deadline
		}

		subtasks := make([]SubtaskLink, 0, len(t.Subtasks))
		for _, subID := range t.Subtasks {
			// A task cannot be its own parent; a self-reference would
			// introduce a cycle into the task tree.
			if subID == t.ID {
				slog.Warn("Skipping self-referencing subtask", "task_id", t.ID)
				continue
			}
			subtasks = append(subtasks, SubtaskLink{ID: subID, ParentID: t.ID})
		}

		records = append(records, TaskRecord{Task: task, Subtasks: subtasks})
	}
	return records
}

// taskStatus derives the task status from the archived and completed
// flags. Archived takes precedence over completed when both are set.
func taskStatus(archived, completed bool) model.TaskStatus {
	switch {
	case archived:
		return model.TaskStatusArchived
	case completed:
		return model.TaskStatusCompleted
	default:
		return model.TaskStatusActive
	}
}

// dateFromMillis converts milliseconds since epoch to the corresponding
// UTC calendar date (midnight UTC). Time of day is dropped.
func dateFromMillis(ms int64) time.Time {
	t := time.UnixMilli(ms).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// nilIfEmpty returns nil if the string is empty, otherwise a pointer to it.
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
