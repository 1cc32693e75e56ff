// Package v1 provides the REST API handlers for the organizational directory.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Jewsh1r/kanban-api/internal/model"
	"github.com/Jewsh1r/kanban-api/internal/store"
	"github.com/Jewsh1r/kanban-api/internal/versions"
)

// dateFormat is the wire format for date-only fields.
const dateFormat = "2006-01-02"

// DirectoryService defines the directory operations the API depends on
type DirectoryService interface {
	// CheckReadiness verifies the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// ListEmployees returns all employees
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	// GetEmployeeByEmail returns a single employee by email
	GetEmployeeByEmail(ctx context.Context, email string) (*model.Employee, error)
	// ListIdentitiesByEmail returns the service identities linked to an employee
	ListIdentitiesByEmail(ctx context.Context, email string) ([]model.ServiceIdentity, error)
	// ListServiceLinks returns the flattened employee-to-identity mapping
	ListServiceLinks(ctx context.Context) ([]model.ServiceLink, error)

	// ListProjects returns all projects
	ListProjects(ctx context.Context) ([]model.Project, error)
	// GetProjectByID returns a single project by id
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)

	// ListTasks returns all tasks
	ListTasks(ctx context.Context) ([]model.Task, error)
	// GetTaskByID returns a single task by id
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	// ListTasksByAssignee returns tasks assigned to a service identity
	ListTasksByAssignee(ctx context.Context, serviceUserID string) ([]model.Task, error)
	// ListTasksByEmployeeEmail returns tasks assigned to any identity of an employee
	ListTasksByEmployeeEmail(ctx context.Context, email string) ([]model.Task, error)
}

// Response models for API consistency

// EmployeeResponse represents an employee in API responses
type EmployeeResponse struct {
	Email      string  `json:"email"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Department *string `json:"department"`
}

// ServiceIdentityResponse represents a service identity in API responses
type ServiceIdentityResponse struct {
	ServiceUserID string  `json:"service_user_id"`
	EmployeeEmail *string `json:"employee_email"`
	ServiceName   *string `json:"service_name"`
}

// ServiceLinkResponse represents one employee-to-identity link
type ServiceLinkResponse struct {
	Email         string `json:"email"`
	ServiceUserID string `json:"service_user_id"`
	ServiceName   string `json:"service_name"`
}

// ProjectResponse represents a project in API responses
type ProjectResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskResponse represents a task in API responses
type TaskResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	AssignedToID *string `json:"assigned_to_id"`
	ParentTaskID *string `json:"parent_task_id"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	Deadline     *string `json:"deadline"`
}

// ListEmployeesResponse represents the employees list response
type ListEmployeesResponse struct {
	Employees []EmployeeResponse `json:"employees"`
	Total     int                `json:"total"`
}

// ListIdentitiesResponse represents the identities list response
type ListIdentitiesResponse struct {
	Identities []ServiceIdentityResponse `json:"identities"`
	Total      int                       `json:"total"`
}

// ListServiceLinksResponse represents the service links list response
type ListServiceLinksResponse struct {
	Links []ServiceLinkResponse `json:"links"`
	Total int                   `json:"total"`
}

// ListProjectsResponse represents the projects list response
type ListProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
	Total    int               `json:"total"`
}

// ListTasksResponse represents the tasks list response
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Routes defines the routes for the directory API with dependency injection
type Routes struct {
	service DirectoryService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc DirectoryService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates a new router for the directory API
func Router(svc DirectoryService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Route("/employees", func(r chi.Router) {
		r.Get("/", routes.listEmployees)

		// Must come before {email} to avoid conflicts
		r.Get("/service-links", routes.listServiceLinks)

		r.Get("/{email}", routes.getEmployee)
		r.Get("/{email}/identities", routes.listEmployeeIdentities)
	})

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", routes.listProjects)
		r.Get("/{id}", routes.getProject)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", routes.listTasks)

		r.Route("/assigned", func(r chi.Router) {
			r.Get("/{id}", routes.listTasksByAssignee)
		})
		r.Route("/employee", func(r chi.Router) {
			r.Get("/{email}", routes.listTasksByEmployee)
		})

		r.Get("/{id}", routes.getTask)
	})

	return r
}

// listEmployees handles GET /api/v1/employees
//
//	@Summary		List all employees
//	@Description	Get a list of all employees in the directory
//	@Tags			employees
//	@Produce		json
//	@Success		200	{object}	ListEmployeesResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/employees [get]
func (rr *Routes) listEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := rr.service.ListEmployees(r.Context())
	if err != nil {
		slog.Error("failed to list employees", "error", err)
		rr.writeErrorResponse(w, "Failed to list employees", http.StatusInternalServerError)
		return
	}

	responses := make([]EmployeeResponse, len(employees))
	for i := range employees {
		responses[i] = newEmployeeResponse(employees[i])
	}

	rr.writeJSONResponse(w, ListEmployeesResponse{
		Employees: responses,
		Total:     len(responses),
	})
}

// getEmployee handles GET /api/v1/employees/{email}
//
//	@Summary		Get employee by email
//	@Description	Get a single employee by their email address
//	@Tags			employees
//	@Produce		json
//	@Param			email	path		string	true	"Employee email"
//	@Success		200		{object}	EmployeeResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/v1/employees/{email} [get]
func (rr *Routes) getEmployee(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		rr.writeErrorResponse(w, "Employee email is required", http.StatusBadRequest)
		return
	}

	employee, err := rr.service.GetEmployeeByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rr.writeErrorResponse(w, "Employee not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to get employee", "email", email, "error", err)
		rr.writeErrorResponse(w, "Failed to get employee", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, newEmployeeResponse(*employee))
}

// listEmployeeIdentities handles GET /api/v1/employees/{email}/identities
//
//	@Summary		List employee identities
//	@Description	Get the external service identities linked to an employee
//	@Tags			employees
//	@Produce		json
//	@Param			email	path		string	true	"Employee email"
//	@Success		200		{object}	ListIdentitiesResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/v1/employees/{email}/identities [get]
func (rr *Routes) listEmployeeIdentities(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		rr.writeErrorResponse(w, "Employee email is required", http.StatusBadRequest)
		return
	}

	identities, err := rr.service.ListIdentitiesByEmail(r.Context(), email)
	if err != nil {
		slog.Error("failed to list identities", "email", email, "error", err)
		rr.writeErrorResponse(w, "Failed to list identities", http.StatusInternalServerError)
		return
	}

	responses := make([]ServiceIdentityResponse, len(identities))
	for i := range identities {
		responses[i] = ServiceIdentityResponse{
			ServiceUserID: identities[i].ServiceUserID,
			EmployeeEmail: identities[i].EmployeeEmail,
			ServiceName:   identities[i].ServiceName,
		}
	}

	rr.writeJSONResponse(w, ListIdentitiesResponse{
		Identities: responses,
		Total:      len(responses),
	})
}

// listServiceLinks handles GET /api/v1/employees/service-links
//
//	@Summary		List service links
//	@Description	Get the flattened mapping of employees to their external service identities
//	@Tags			employees
//	@Produce		json
//	@Success		200	{object}	ListServiceLinksResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/employees/service-links [get]
func (rr *Routes) listServiceLinks(w http.ResponseWriter, r *http.Request) {
	links, err := rr.service.ListServiceLinks(r.Context())
	if err != nil {
		slog.Error("failed to list service links", "error", err)
		rr.writeErrorResponse(w, "Failed to list service links", http.StatusInternalServerError)
		return
	}

	responses := make([]ServiceLinkResponse, len(links))
	for i := range links {
		responses[i] = ServiceLinkResponse{
			Email:         links[i].Email,
			ServiceUserID: links[i].ServiceUserID,
			ServiceName:   links[i].ServiceName,
		}
	}

	rr.writeJSONResponse(w, ListServiceLinksResponse{
		Links: responses,
		Total: len(responses),
	})
}

// listProjects handles GET /api/v1/projects
//
//	@Summary		List all projects
//	@Description	Get a list of all projects
//	@Tags			projects
//	@Produce		json
//	@Success		200	{object}	ListProjectsResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/projects [get]
func (rr *Routes) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := rr.service.ListProjects(r.Context())
	if err != nil {
		slog.Error("failed to list projects", "error", err)
		rr.writeErrorResponse(w, "Failed to list projects", http.StatusInternalServerError)
		return
	}

	responses := make([]ProjectResponse, len(projects))
	for i := range projects {
		responses[i] = ProjectResponse{ID: projects[i].ID, Name: projects[i].Name}
	}

	rr.writeJSONResponse(w, ListProjectsResponse{
		Projects: responses,
		Total:    len(responses),
	})
}

// getProject handles GET /api/v1/projects/{id}
//
//	@Summary		Get project by id
//	@Description	Get a single project by its id
//	@Tags			projects
//	@Produce		json
//	@Param			id	path		string	true	"Project id"
//	@Success		200	{object}	ProjectResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/projects/{id} [get]
func (rr *Routes) getProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		rr.writeErrorResponse(w, "Project id is required", http.StatusBadRequest)
		return
	}

	project, err := rr.service.GetProjectByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rr.writeErrorResponse(w, "Project not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to get project", "id", id, "error", err)
		rr.writeErrorResponse(w, "Failed to get project", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, ProjectResponse{ID: project.ID, Name: project.Name})
}

// listTasks handles GET /api/v1/tasks
//
//	@Summary		List all tasks
//	@Description	Get a list of all tasks
//	@Tags			tasks
//	@Produce		json
//	@Success		200	{object}	ListTasksResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/tasks [get]
func (rr *Routes) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := rr.service.ListTasks(r.Context())
	if err != nil {
		slog.Error("failed to list tasks", "error", err)
		rr.writeErrorResponse(w, "Failed to list tasks", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, newListTasksResponse(tasks))
}

// getTask handles GET /api/v1/tasks/{id}
//
//	@Summary		Get task by id
//	@Description	Get a single task by its id
//	@Tags			tasks
//	@Produce		json
//	@Param			id	path		string	true	"Task id"
//	@Success		200	{object}	TaskResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/tasks/{id} [get]
func (rr *Routes) getTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		rr.writeErrorResponse(w, "Task id is required", http.StatusBadRequest)
		return
	}

	task, err := rr.service.GetTaskByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rr.writeErrorResponse(w, "Task not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to get task", "id", id, "error", err)
		rr.writeErrorResponse(w, "Failed to get task", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, newTaskResponse(*task))
}

// listTasksByAssignee handles GET /api/v1/tasks/assigned/{id}
//
//	@Summary		List tasks by assignee
//	@Description	Get the tasks assigned to a specific service identity
//	@Tags			tasks
//	@Produce		json
//	@Param			id	path		string	true	"Service user id"
//	@Success		200	{object}	ListTasksResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/tasks/assigned/{id} [get]
func (rr *Routes) listTasksByAssignee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		rr.writeErrorResponse(w, "Service user id is required", http.StatusBadRequest)
		return
	}

	tasks, err := rr.service.ListTasksByAssignee(r.Context(), id)
	if err != nil {
		slog.Error("failed to list tasks by assignee", "service_user_id", id, "error", err)
		rr.writeErrorResponse(w, "Failed to list tasks", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, newListTasksResponse(tasks))
}

// listTasksByEmployee handles GET /api/v1/tasks/employee/{email}
//
//	@Summary		List tasks by employee
//	@Description	Get the tasks assigned to any service identity of an employee
//	@Tags			tasks
//	@Produce		json
//	@Param			email	path		string	true	"Employee email"
//	@Success		200		{object}	ListTasksResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/v1/tasks/employee/{email} [get]
func (rr *Routes) listTasksByEmployee(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		rr.writeErrorResponse(w, "Employee email is required", http.StatusBadRequest)
		return
	}

	tasks, err := rr.service.ListTasksByEmployeeEmail(r.Context(), email)
	if err != nil {
		slog.Error("failed to list tasks by employee", "email", email, "error", err)
		rr.writeErrorResponse(w, "Failed to list tasks", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, newListTasksResponse(tasks))
}

// newEmployeeResponse creates an EmployeeResponse from an employee record
func newEmployeeResponse(e model.Employee) EmployeeResponse {
	return EmployeeResponse{
		Email:      e.Email,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Department: e.Department,
	}
}

// newTaskResponse creates a TaskResponse from a task record
func newTaskResponse(t model.Task) TaskResponse {
	return TaskResponse{
		ID:           t.ID,
		Name:         t.Name,
		Status:       string(t.Status),
		AssignedToID: t.AssignedToID,
		ParentTaskID: t.ParentTaskID,
		StartDate:    formatDate(t.StartDate),
		EndDate:      formatDate(t.EndDate),
		Deadline:     formatDate(t.Deadline),
	}
}

func newListTasksResponse(tasks []model.Task) ListTasksResponse {
	responses := make([]TaskResponse, len(tasks))
	for i := range tasks {
		responses[i] = newTaskResponse(tasks[i])
	}
	return ListTasksResponse{
		Tasks: responses,
		Total: len(responses),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateFormat)
	return &s
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc DirectoryService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles health check requests
//
//	@Summary		Health check
//	@Description	Check if the directory API is healthy
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessHandler handles readiness check requests
//
//	@Summary		Readiness check
//	@Description	Check if the directory API is ready to serve requests
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Failure		503	{object}	ErrorResponse
//	@Router			/readiness [get]
func readinessHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			errorResp := ErrorResponse{
				Error: "Service not ready: " + err.Error(),
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if encodeErr := json.NewEncoder(w).Encode(errorResp); encodeErr != nil {
				slog.Error("failed to encode readiness error response", "error", encodeErr)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}

// versionHandler handles version information requests
//
//	@Summary		Version information
//	@Description	Get version information about the directory API
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/version [get]
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()

	response := map[string]string{
		"version":    info.Version,
		"commit":     info.Commit,
		"build_date": info.BuildDate,
		"go_version": info.GoVersion,
		"platform":   info.Platform,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode version info", "error", err)
	}
}

// writeJSONResponse writes a JSON response with the given data
func (*Routes) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes a standardized error response
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	errorResp := ErrorResponse{
		Error: message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
