package api

// AddTaskItem is one element of the add_task request body.
// A missing or null task_description stores a task without a description.
// The length bound keeps a description within a MySQL TEXT column even when
// every rune takes four bytes.
type AddTaskItem struct {
	Description *string `json:"task_description" validate:"omitempty,max=16000"`
}

// CountersResponse is the body of the counter endpoint.
type CountersResponse struct {
	Created int64 `json:"tasks_created"`
	Closed  int64 `json:"tasks_closed"`
}

// InProgressResponse is the body of the in_progress endpoint.
type InProgressResponse struct {
	InProgress int64 `json:"tasks_in_progress"`
}
