package feed

import (
	"fmt"
)

type FetchErrorKind string

const (
	FetchHTTPStatus FetchErrorKind = "http_status"
	FetchTimeout    FetchErrorKind = "timeout"
	FetchTransport  FetchErrorKind = "transport"
	FetchTooLarge   FetchErrorKind = "too_large"
)

// FetchError is returned by Fetcher.Run for every failed upstream request.
// StatusCode and Status are only set for FetchHTTPStatus.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchHTTPStatus:
		return fmt.Sprintf("HTTP error: %s", e.Status)
	case FetchTimeout:
		return "request timeout"
	case FetchTooLarge:
		if e.Err != nil {
			return fmt.Sprintf("response body too large: %v", e.Err)
		}
		return "response body too large"
	default:
		if e.Err != nil {
			return fmt.Sprintf("transport error: %v", e.Err)
		}
		return "transport error"
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type TransformErrorKind string

const (
	TransformMalformed TransformErrorKind = "malformed"
	TransformInternal  TransformErrorKind = "internal"
)

// TransformError is returned by Transformer.Run. Malformed means the input
// was rejected by the event reader; Internal means the state machine was
// driven into a state a well-formed document cannot produce.
type TransformError struct {
	Kind    TransformErrorKind
	Message string
	Err     error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s XML: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s XML: %s", e.Kind, e.Message)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

func malformed(err error, format string, args ...any) *TransformError {
	return &TransformError{Kind: TransformMalformed, Message: fmt.Sprintf(format, args...), Err: err}
}

func internal(format string, args ...any) *TransformError {
	return &TransformError{Kind: TransformInternal, Message: fmt.Sprintf(format, args...)}
}
