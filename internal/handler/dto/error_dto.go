package dto

// APIErrorResponse is the body of every non-2xx response. Code is one of the
// stable ierr codes; Details carries field errors for invalid input.
type APIErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
