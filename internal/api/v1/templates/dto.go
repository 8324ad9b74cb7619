package templates

// TemplateSummary is one search result entry.
type TemplateSummary struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	CreatedDate string   `json:"created_date"`
}

// RenderResponse is the payload of a successful render call.
type RenderResponse struct {
	Rendered      string   `json:"rendered"`
	TemplateName  string   `json:"template_name"`
	VariablesUsed []string `json:"variables_used"`
}

// ErrorResponse carries a single error message, matching what API clients
// expect from the render and search endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
