package gateway

import (
	"fmt"
	"net/http"
)

// Kind classifies compression failures
type Kind string

const (
	KindAccount    Kind = "AccountError"
	KindClient     Kind = "ClientError"
	KindServer     Kind = "ServerError"
	KindConnection Kind = "ConnectionError"
)

// CompressionError is returned for every failed compression attempt
type CompressionError struct {
	Kind Kind
	// Status is the HTTP status code, zero when no response was received
	Status int
	// Code is the error identifier returned by the service (e.g. "Unauthorized")
	Code    string
	Message string
	// CompressionCount is the usage total reported alongside the failure, if any
	CompressionCount *int
	Err              error
}

func (e *CompressionError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d/%s)", e.Message, e.Status, e.Code)
}

func (e *CompressionError) Unwrap() error {
	return e.Err
}

// kindForStatus maps a response status to a failure kind
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusTooManyRequests:
		return KindAccount
	case status >= 400 && status < 500:
		return KindClient
	default:
		return KindServer
	}
}
