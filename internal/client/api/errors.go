package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call.
type Kind string

const (
	// KindNetwork means no response was received.
	KindNetwork Kind = "network"
	// KindServer means the backend responded with a structured error.
	KindServer Kind = "server"
	// KindRequest means the request could not be constructed.
	KindRequest Kind = "request"
	// KindAuth means authorization failed and was not locally recoverable.
	KindAuth Kind = "auth"
)

// APIError is the uniform error shape for all calls made through the
// session client.
type APIError struct {
	Kind    Kind
	Message string
	Code    string
	Status  int
	Details map[string]any
	cause   error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.cause }

func networkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Message: "no response from server", cause: err}
}

func requestError(err error) *APIError {
	return &APIError{Kind: KindRequest, Message: "could not build request", cause: err}
}

func authError(cause error) *APIError {
	return &APIError{Kind: KindAuth, Message: "authentication required", Status: 401, cause: cause}
}

// IsNetwork reports whether err is a transport failure with no response.
func IsNetwork(err error) bool { return hasKind(err, KindNetwork) }

// IsAuth reports whether err is a terminal authorization failure.
func IsAuth(err error) bool { return hasKind(err, KindAuth) }

func hasKind(err error, k Kind) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Kind == k
}
