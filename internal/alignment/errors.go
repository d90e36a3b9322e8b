package alignment

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrTimeout         = errors.New("alignment timed out")
	ErrExternalService = errors.New("external service error")
	ErrConfiguration   = errors.New("alignment service is not configured")
	ErrInvalidInput    = errors.New("invalid input")

	ErrProfileNotFound = fmt.Errorf("user profile %w", ErrNotFound)
	ErrProjectNotFound = fmt.Errorf("project %w", ErrNotFound)
)

// Codes sent next to the message so callers can tell failures that share an
// HTTP status apart.
const (
	CodeUnauthorized    = "unauthorized"
	CodeInvalidInput    = "invalid_input"
	CodeProfileNotFound = "profile_not_found"
	CodeProjectNotFound = "project_not_found"
	CodeNotFound        = "not_found"
	CodeTimeout         = "timeout"
	CodeConfiguration   = "configuration"
	CodeExternalService = "external_service"
	CodeInternal        = "internal"
)

type failure struct {
	err     error
	status  int
	code    string
	message string
}

// Ordered: the specific not-found errors come before the generic one.
var failures = []failure{
	{ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, "Session expired. Please refresh the page."},
	{ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput, "Invalid project ID"},
	{ErrProfileNotFound, http.StatusNotFound, CodeProfileNotFound, "User profile not found"},
	{ErrProjectNotFound, http.StatusNotFound, CodeProjectNotFound, "Project not found"},
	{ErrNotFound, http.StatusNotFound, CodeNotFound, "Not found"},
	{ErrTimeout, http.StatusRequestTimeout, CodeTimeout, "Analysis timed out. Please try again."},
	{ErrConfiguration, http.StatusInternalServerError, CodeConfiguration, "Alignment service is not configured"},
	{ErrExternalService, http.StatusInternalServerError, CodeExternalService, "Could not generate analysis. Please try again later."},
}

const genericMessage = "Could not generate analysis. Please try again later."

func lookup(err error) (failure, bool) {
	for _, f := range failures {
		if errors.Is(err, f.err) {
			return f, true
		}
	}
	return failure{}, false
}

// Message returns the user-facing text for err. Internal details never leak.
func Message(err error) string {
	if f, ok := lookup(err); ok {
		return f.message
	}
	return genericMessage
}

// HTTPStatus maps err onto the alignment endpoint's status codes.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if f, ok := lookup(err); ok {
		return f.status
	}
	return http.StatusInternalServerError
}

// Code returns the machine-readable name of err's failure class.
func Code(err error) string {
	if f, ok := lookup(err); ok {
		return f.code
	}
	return CodeInternal
}

// FromCode maps a code back onto its sentinel. Unknown codes give nil.
func FromCode(code string) error {
	for _, f := range failures {
		if f.code == code {
			return f.err
		}
	}
	return nil
}

// Retryable reports whether the caller should offer a "try again" action.
func Retryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrExternalService)
}
