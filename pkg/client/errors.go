package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var ErrVariableNotFound = errors.New("variable not found")

// Longest response body excerpt kept in a RemoteError
const maxErrorBody = 512

// The API answered with a non-success status
type RemoteError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func newRemoteError(req *http.Request, resp *http.Response) *RemoteError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &RemoteError{
		Method:     req.Method,
		URL:        req.URL.Redacted(),
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("unexpected status code: %d: %s %s", e.StatusCode, e.Method, e.URL)
	if e.Body != "" {
		msg += "\n" + e.Body
	}
	return msg
}

type VariableNotFoundError struct {
	Name      string
	Available []string
}

func (e *VariableNotFoundError) Error() string {
	return fmt.Sprintf("variable %q not found, available: %s", e.Name, strings.Join(e.Available, ", "))
}

func (e *VariableNotFoundError) Unwrap() error {
	return ErrVariableNotFound
}
