package api

import (
	"errors"
	"fmt"
)

// ErrNetwork matches every failure where the request did not complete.
var ErrNetwork = errors.New("network failure")

// NetworkError is returned when a request could not complete: dial errors,
// timeouts, cancelled contexts and unreadable responses.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// RejectionError is returned when the server answered but refused the
// request, either with a non-2xx status or with success=false.
type RejectionError struct {
	Op      string
	Status  int
	Message string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed with status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.Status, e.Message)
}

// Failure kinds reported by Classify.
const (
	KindNetwork   = "network"
	KindRejection = "rejection"
	KindOther     = "other"
)

func Classify(err error) string {
	var rejection *RejectionError
	switch {
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.As(err, &rejection):
		return KindRejection
	default:
		return KindOther
	}
}

// UserMessage renders err as the single line shown next to a control.
func UserMessage(err error) string {
	var rejection *RejectionError
	if errors.As(err, &rejection) && rejection.Message != "" {
		return rejection.Message
	}
	if errors.Is(err, ErrNetwork) {
		return "Could not reach the server, try again"
	}
	return err.Error()
}
