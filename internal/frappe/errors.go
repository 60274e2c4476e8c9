package frappe

import (
	"errors"
	"fmt"
)

var (
	ErrTransport = errors.New("frappe transport failure")
	ErrBackend   = errors.New("frappe backend exception")
)

// TransportError covers everything that prevented a usable envelope from
// arriving: network failures, cancelled contexts and undecodable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("frappe %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// BackendError is returned when the envelope carries an exc field or the
// backend answered with a non-2xx status.
type BackendError struct {
	Op         string
	StatusCode int
	Exc        string
	ExcType    string
}

func (e *BackendError) Error() string {
	switch {
	case e.ExcType != "":
		return fmt.Sprintf("frappe %s: %s (status %d)", e.Op, e.ExcType, e.StatusCode)
	case e.Exc != "":
		return fmt.Sprintf("frappe %s: %s (status %d)", e.Op, e.Exc, e.StatusCode)
	default:
		return fmt.Sprintf("frappe %s: unexpected status %d", e.Op, e.StatusCode)
	}
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}
