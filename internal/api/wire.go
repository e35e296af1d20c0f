package api

// Request bodies use pointer fields so a missing field can be told apart
// from its zero value.

// CreateRequest is the body of POST /todos.
type CreateRequest struct {
	Text *string `json:"text"`
}

// UpdateRequest is the body of PUT /todos/{id}.
type UpdateRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

// SetCompletedRequest is the body of PATCH /todos/{id}/completed.
type SetCompletedRequest struct {
	Completed *bool `json:"completed"`
}

// SetTextRequest is the body of PATCH /todos/{id}/text.
type SetTextRequest struct {
	Text *string `json:"text"`
}

// Error codes carried in ErrorBody.Code.
const (
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeUnauthorized    = "unauthorized"
	CodeInternal        = "internal"
)

// ErrorBody describes a failed call.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope of every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Route paths, shared with the client.
const (
	PathTodos        = "/todos"
	PathSubscribe    = "/todos/subscribe"
	PathHealth       = "/healthz"
	pathTodo         = "/todos/{id}"
	pathTodoComplete = "/todos/{id}/completed"
	pathTodoText     = "/todos/{id}/text"
)
