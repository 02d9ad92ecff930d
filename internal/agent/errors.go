package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrAgentUnreachable is matched by errors.Is when the agent could not be contacted.
	ErrAgentUnreachable = errors.New("clustta agent is not running")
	// ErrAgentTimeout is matched by errors.Is when the agent accepted the connection but did not answer in time.
	ErrAgentTimeout = errors.New("clustta agent did not respond")
	// ErrInvalidArgument is returned before any request when a required identifier is empty.
	ErrInvalidArgument = errors.New("invalid argument")
)

// UnreachableError wraps a transport failure with a hint for the user.
type UnreachableError struct {
	BaseURL string
	Err     error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("clustta agent is not running at %s, start the agent and try again (%v)", e.BaseURL, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

func (e *UnreachableError) Is(target error) bool { return target == ErrAgentUnreachable }

// TimeoutError is returned when a request exceeds the client timeout.
type TimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("clustta agent did not respond within %s", e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) Is(target error) bool { return target == ErrAgentTimeout }

// StatusError represents a non-2xx response from the agent.
type StatusError struct {
	Status  int
	Reason  string
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d: %s", e.Status, e.Reason)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// DecodeError is returned when a non-empty response body is not the expected JSON.
type DecodeError struct {
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsStatus reports whether err is a StatusError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

func newStatusError(status int, body []byte) *StatusError {
	se := &StatusError{Status: status, Reason: http.StatusText(status)}
	if se.Reason == "" {
		se.Reason = "unknown status"
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && (errResp.Error != "" || errResp.Message != "") {
		se.Code = errResp.Error
		se.Message = errResp.Message
		if se.Message == "" {
			se.Message = errResp.Error
		}
		return se
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		se.Message = text
	}
	return se
}

func requireArg(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidArgument, name)
	}
	return nil
}
