package dictionary

import (
	"encoding/json"
	"fmt"
)

// ErrorFallbackText is rendered when a failure carries no message.
const ErrorFallbackText = "An error occurred"

// FailureKind distinguishes where a lookup failed.
type FailureKind int

const (
	// ServiceFailure means the service answered with a non-success status.
	ServiceFailure FailureKind = iota + 1
	// TransportFailure means the request could not complete or its body could not be parsed.
	TransportFailure
)

func (k FailureKind) String() string {
	switch k {
	case ServiceFailure:
		return "service_error"
	case TransportFailure:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Failure is the error payload of a lookup. Both kinds share the same slot in the lookup state
// and are displayed through DisplayMessage.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Title      string
	Message    string
	Resolution string
	Cause      error
}

type serviceErrorBody struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	Resolution string `json:"resolution"`
}

func newServiceFailure(status int, body []byte) *Failure {
	failure := &Failure{Kind: ServiceFailure, StatusCode: status}

	var parsed serviceErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		failure.Title = parsed.Title
		failure.Message = parsed.Message
		failure.Resolution = parsed.Resolution
	}

	return failure
}

func newTransportFailure(cause error) *Failure {
	failure := &Failure{Kind: TransportFailure, Cause: cause}
	if cause != nil {
		failure.Message = cause.Error()
	}
	return failure
}

// DisplayMessage returns the text shown for the failure in the result region.
func (f *Failure) DisplayMessage() string {
	if f == nil || f.Message == "" {
		return ErrorFallbackText
	}
	return f.Message
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	switch f.Kind {
	case ServiceFailure:
		return fmt.Sprintf("definition service returned status %d: %s", f.StatusCode, f.DisplayMessage())
	default:
		return fmt.Sprintf("definition lookup failed: %s", f.DisplayMessage())
	}
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Cause
}
