package gpt

import (
	"errors"
	"fmt"
)

// Kind tags the reason a completion call failed.
type Kind string

const (
	// KindTransport means the HTTP exchange did not complete.
	KindTransport Kind = "transport"
	// KindProvider means the provider answered with an error object.
	KindProvider Kind = "provider"
	// KindMalformed means the body was not JSON or matched no known shape.
	KindMalformed Kind = "malformed"
)

// Failure is the error returned by Client implementations.
type Failure struct {
	Kind       Kind
	Message    string
	StatusCode int
	Payload    []byte
	Err        error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failure: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func transportFailure(err error) *Failure {
	return &Failure{
		Kind:    KindTransport,
		Message: err.Error(),
		Err:     err,
	}
}

func providerFailure(message string, status int, payload []byte) *Failure {
	return &Failure{
		Kind:       KindProvider,
		Message:    message,
		StatusCode: status,
		Payload:    payload,
	}
}

func malformedFailure(message string, status int, payload []byte) *Failure {
	return &Failure{
		Kind:       KindMalformed,
		Message:    message,
		StatusCode: status,
		Payload:    payload,
	}
}
