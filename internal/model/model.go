// Package model defines the organizational entities shared by the store,
// the ingestion pipeline, and the REST API.
package model

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	// TaskStatusActive is a task that is neither completed nor archived.
	TaskStatusActive TaskStatus = "Active"

	// TaskStatusCompleted is a task marked completed but not archived.
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusArchived is an archived task. Archival takes precedence
	// over completion.
	TaskStatusArchived TaskStatus = "Archived"
)

// ServiceNameYouGile tags service identities originating from YouGile.
const ServiceNameYouGile = "yougile"

// Employee is a person record keyed by email. The email is the join key
// between human identity and per-service identities.
type Employee struct {
	Email      string
	FirstName  *string
	LastName   *string
	Department *string
}

// ServiceIdentity links an external service account to an employee.
// EmployeeEmail is nullable: identities referenced by project membership
// may be created before the matching employee record is known.
type ServiceIdentity struct {
	ServiceUserID string
	EmployeeEmail *string
	ServiceName   *string
}

// ServiceLink is a flattened employee-to-service-identity association
// as exposed by the read API.
type ServiceLink struct {
	Email         string
	ServiceUserID string
	ServiceName   string
}

// Project is an external project keyed by its external id. Membership is
// stored as a many-to-many relation to ServiceIdentity.
type Project struct {
	ID   string
	Name string
}

// Task is an external task keyed by its external id. ParentTaskID forms a
// self-referential tree of arbitrary depth. Date fields carry date-only
// precision (UTC midnight); nil means the source record had no value.
type Task struct {
	ID           string
	AssignedToID *string
	ParentTaskID *string
	Name         string
	Status       TaskStatus
	StartDate    *time.Time
	EndDate      *time.Time
	Deadline     *time.Time
}
