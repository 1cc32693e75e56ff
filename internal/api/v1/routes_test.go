package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/Jewsh1r/kanban-api/internal/api/v1"
	"github.com/Jewsh1r/kanban-api/internal/model"
	"github.com/Jewsh1r/kanban-api/internal/store"
)

func strPtr(s string) *string { return &s }

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

// fakeDirectory serves canned directory data for handler tests.
type fakeDirectory struct {
	employees  []model.Employee
	identities []model.ServiceIdentity
	links      []model.ServiceLink
	projects   []model.Project
	tasks      []model.Task

	readinessErr error
	listErr      error
}

func (f *fakeDirectory) CheckReadiness(_ context.Context) error {
	return f.readinessErr
}

func (f *fakeDirectory) ListEmployees(_ context.Context) ([]model.Employee, error) {
	return f.employees, f.listErr
}

func (f *fakeDirectory) GetEmployeeByEmail(_ context.Context, email string) (*model.Employee, error) {
	for i := range f.employees {
		if f.employees[i].Email == email {
			return &f.employees[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeDirectory) ListIdentitiesByEmail(_ context.Context, email string) ([]model.ServiceIdentity, error) {
	var out []model.ServiceIdentity
	for _, si := range f.identities {
		if si.EmployeeEmail != nil && *si.EmployeeEmail == email {
			out = append(out, si)
		}
	}
	return out, f.listErr
}

func (f *fakeDirectory) ListServiceLinks(_ context.Context) ([]model.ServiceLink, error) {
	return f.links, f.listErr
}

func (f *fakeDirectory) ListProjects(_ context.Context) ([]model.Project, error) {
	return f.projects, f.listErr
}

func (f *fakeDirectory) GetProjectByID(_ context.Context, id string) (*model.Project, error) {
	for i := range f.projects {
		if f.projects[i].ID == id {
			return &f.projects[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeDirectory) ListTasks(_ context.Context) ([]model.Task, error) {
	return f.tasks, f.listErr
}

func (f *fakeDirectory) GetTaskByID(_ context.Context, id string) (*model.Task, error) {
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			return &f.tasks[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeDirectory) ListTasksByAssignee(_ context.Context, serviceUserID string) ([]model.Task, error) {
	var out []model.Task
	for _, task := range f.tasks {
		if task.AssignedToID != nil && *task.AssignedToID == serviceUserID {
			out = append(out, task)
		}
	}
	return out, f.listErr
}

func (f *fakeDirectory) ListTasksByEmployeeEmail(_ context.Context, email string) ([]model.Task, error) {
	ids := map[string]bool{}
	for _, si := range f.identities {
		if si.EmployeeEmail != nil && *si.EmployeeEmail == email {
			ids[si.ServiceUserID] = true
		}
	}
	var out []model.Task
	for _, task := range f.tasks {
		if task.AssignedToID != nil && ids[*task.AssignedToID] {
			out = append(out, task)
		}
	}
	return out, f.listErr
}

func newTestDirectory() *fakeDirectory {
	return &fakeDirectory{
		employees: []model.Employee{
			{
				Email:      "alice@example.com",
				FirstName:  strPtr("Alice"),
				LastName:   strPtr("Smith"),
				Department: strPtr("Engineering"),
			},
			{Email: "bob@example.com"},
		},
		identities: []model.ServiceIdentity{
			{
				ServiceUserID: "u1",
				EmployeeEmail: strPtr("alice@example.com"),
				ServiceName:   strPtr("yougile"),
			},
		},
		links: []model.ServiceLink{
			{Email: "alice@example.com", ServiceUserID: "u1", ServiceName: "yougile"},
		},
		projects: []model.Project{
			{ID: "p1", Name: "Platform"},
		},
		tasks: []model.Task{
			{
				ID:           "t1",
				Name:         "Ship it",
				Status:       model.TaskStatusActive,
				AssignedToID: strPtr("u1"),
				StartDate:    datePtr(2023, time.November, 14),
				Deadline:     datePtr(2023, time.December, 1),
			},
			{
				ID:           "t2",
				Name:         "Subtask",
				Status:       model.TaskStatusCompleted,
				ParentTaskID: strPtr("t1"),
				StartDate:    datePtr(2023, time.November, 14),
				EndDate:      datePtr(2023, time.November, 20),
			},
		},
	}
}

func doRequest(t *testing.T, svc v1.DirectoryService, path string) *httptest.ResponseRecorder {
	t.Helper()

	router := v1.Router(svc)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListEmployees(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestDirectory(), "/employees")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp v1.ListEmployeesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Employees, 2)
	assert.Equal(t, "alice@example.com", resp.Employees[0].Email)
	require.NotNil(t, resp.Employees[0].Department)
	assert.Equal(t, "Engineering", *resp.Employees[0].Department)
	assert.Nil(t, resp.Employees[1].FirstName)
}

func TestGetEmployee(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestDirectory(), "/employees/alice@example.com")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp v1.EmployeeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice@example.com", resp.Email)
}

func TestGetEmployeeNotFound(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestDirectory(), "/employees/nobody@example.com")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp v1.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Employee not found", resp.Error)
}

func TestListEmployeeIdentities(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestDirectory(), "/employees/alice@example.com/identities")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp v1.ListIdentitiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "u1", resp.Identities[0].ServiceUserID)
	require.NotNil(t, resp.Identities[0].ServiceName)
	assert.Equal(t, "yougile", *resp.Identities[0].ServiceName)
}

func TestListServiceLinks(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestDirectory(), "/employees/service-links")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp v1.ListServiceLinksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, v1.ServiceLinkResponse{
		Email:         "alice@example.com",
		ServiceUserID: "u1",
		ServiceName:   "yougile",
	}, resp.Links[0])
}

func TestListProjects(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestDirectory(), "/projects")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp v1.ListProjectsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, v1.ProjectResponse{ID: "p1", Name: "Platform"}, resp.Projects[0])
}

func TestGetProjectNotFound(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestDirectory(), "/projects/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestDirectory(), "/tasks")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp v1.ListTasksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)

	first := resp.Tasks[0]
	assert.Equal(t, "t1", first.ID)
	assert.Equal(t, "Active", first.Status)
	require.NotNil(t, first.StartDate)
	assert.Equal(t, "2023-11-14", *first.StartDate)
	assert.Nil(t, first.EndDate)
	require.NotNil(t, first.Deadline)
	assert.Equal(t, "2023-12-01", *first.Deadline)

	second := resp.Tasks[1]
	require.NotNil(t, second.ParentTaskID)
	assert.Equal(t, "t1", *second.ParentTaskID)
	require.NotNil(t, second.EndDate)
	assert.Equal(t, "2023-11-20", *second.EndDate)
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestDirectory(), "/tasks/t2")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp v1.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "t2", resp.ID)
	assert.Equal(t, "Completed", resp.Status)
}

func TestGetTaskNotFound(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestDirectory(), "/tasks/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTasksByAssignee(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestDirectory(), "/tasks/assigned/u1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp v1.ListTasksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "t1", resp.Tasks[0].ID)
}

func TestListTasksByEmployee(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestDirectory(), "/tasks/employee/alice@example.com")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp v1.ListTasksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "t1", resp.Tasks[0].ID)
}

func TestListTasksByEmployeeNoMatches(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestDirectory(), "/tasks/employee/bob@example.com")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp v1.ListTasksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Total)
}

func TestListEmployeesServiceError(t *testing.T) {
	t.Parallel()

	svc := newTestDirectory()
	svc.listErr = assert.AnError

	rec := doRequest(t, svc, "/employees")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	router := v1.NewServer(newTestDirectory())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readiness", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var versionResp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &versionResp))
	assert.Contains(t, versionResp, "version")
	assert.Contains(t, versionResp, "go_version")
}

func TestReadinessFailure(t *testing.T) {
	t.Parallel()

	svc := newTestDirectory()
	svc.readinessErr = assert.AnError

	router := v1.NewServer(svc)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readiness", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
