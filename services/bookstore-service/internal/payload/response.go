package payload

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the envelope of a failed request. Errors lists validation messages.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// List wraps items with their count.
func List[T any](items []T) Response {
	if items == nil {
		items = []T{}
	}
	count := len(items)
	return Response{Success: true, Count: &count, Data: items}
}
