package yougile

// RawUser is a YouGile user record as returned by GET /users.
type RawUser struct {
	ID       string `json:"id"`
	RealName string `json:"realName"`
	Email    string `json:"email"`
}

// RawProject is a YouGile project record as returned by GET /projects.
// Users maps member user ids to their role; only the keys matter here.
type RawProject struct {
	ID    string            `json:"id"`
	Title string            `json:"title"`
	Users map[string]string `json:"users,omitempty"`
}

// RawDeadline is the nested deadline structure on a task record.
type RawDeadline struct {
	// Deadline is milliseconds since epoch
	Deadline int64 `json:"deadline"`
}

// RawTask is a YouGile task record as returned by GET /tasks. Optional
// fields are pointers so absence can be told apart from zero values.
type RawTask struct {
	ID                 string       `json:"id"`
	Title              string       `json:"title"`
	Archived           bool         `json:"archived"`
	Completed          bool         `json:"completed"`
	Timestamp          int64        `json:"timestamp"`
	CompletedTimestamp *int64       `json:"completedTimestamp,omitempty"`
	Deadline           *RawDeadline `json:"deadline,omitempty"`
	Assigned           *string      `json:"assigned,omitempty"`
	Subtasks           []string     `json:"subtasks,omitempty"`
}

// collection is the paginated envelope every YouGile list endpoint returns.
type collection[T any] struct {
	Content []T `json:"content"`
}
