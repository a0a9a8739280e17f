package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested catalog record does not exist
	ErrNotFound = errors.New("catalog item not found")

	// ErrUnauthorized indicates the API key was rejected
	ErrUnauthorized = errors.New("api key is invalid")

	// ErrEmptyBody indicates a success status with no response body
	ErrEmptyBody = errors.New("empty response body")

	// ErrClosed indicates an operation on a closed component
	ErrClosed = errors.New("closed")
)

// RemoteErrorKind classifies remote catalog failures
type RemoteErrorKind int

const (
	RemoteNetwork RemoteErrorKind = iota
	RemoteStatus
	RemoteEmptyBody
	RemoteDecode
)

// String returns a human-readable name for the kind
func (k RemoteErrorKind) String() string {
	switch k {
	case RemoteNetwork:
		return "network"
	case RemoteStatus:
		return "status"
	case RemoteEmptyBody:
		return "empty body"
	case RemoteDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// RemoteError is a failure talking to the remote catalog.
type RemoteError struct {
	Kind       RemoteErrorKind
	StatusCode int // Set for RemoteStatus
	Err        error
}

func (e *RemoteError) Error() string {
	switch e.Kind {
	case RemoteStatus:
		return fmt.Sprintf("server error: %d", e.StatusCode)
	case RemoteEmptyBody:
		return "server returned an empty response"
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
		}
		return e.Kind.String() + " error"
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the request may succeed
func (e *RemoteError) Retryable() bool {
	switch e.Kind {
	case RemoteNetwork, RemoteEmptyBody:
		return true
	case RemoteStatus:
		return e.StatusCode == 429 || e.StatusCode >= 500
	default:
		return false
	}
}

// FetchError wraps a remote failure with the page it was loading.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("loading page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StoreError is a local persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
