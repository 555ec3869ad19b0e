package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded is returned when the daily request quota is used up.
	ErrQuotaExceeded = errors.New("llm: daily quota exceeded")
	// ErrMalformedResponse is returned when the model output is not the expected JSON.
	ErrMalformedResponse = errors.New("llm: malformed response")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Reason tags why a connector call failed.
type Reason string

const (
	ReasonQuota     Reason = "quota"
	ReasonTransport Reason = "transport"
	ReasonMalformed Reason = "malformed"
	ReasonEmpty     Reason = "empty"
	ReasonCanceled  Reason = "canceled"
)

// CallError is the failure side of a connector call.
type CallError struct {
	Stage  string
	Reason Reason
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("llm %s call failed (%s): %v", e.Stage, e.Reason, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

func callError(stage string, reason Reason, err error) *CallError {
	return &CallError{Stage: stage, Reason: reason, Err: err}
}

// ReasonOf returns the tagged reason of err, or "" when err is not a CallError.
func ReasonOf(err error) Reason {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ""
}
