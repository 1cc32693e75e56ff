package httpclient

import "fmt"

// HTTPError represents a non-success HTTP response. Body holds a bounded
// copy of the response body for diagnostics.
type HTTPError struct {
	StatusCode int
	Body       string
	URL        string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Body)
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, url, body string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Body:       body,
	}
}
