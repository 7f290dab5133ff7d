package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// ConfigurationError reports a malformed remote endpoint.
type ConfigurationError struct {
	Endpoint string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid remote endpoint %q: %s", e.Endpoint, e.Reason)
}

// ServerError is a non-success response. It matches ErrUnavailable.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

func (e *ServerError) Is(target error) bool {
	return target == ErrUnavailable
}
