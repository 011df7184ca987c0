package errors

import (
	"fmt"
	"time"
)

// InvalidDomainError indicates that a cookie targets a domain the requesting origin may not set.
type InvalidDomainError struct {
	Domain string
	Host   string
}

// Error is an implementation of the error interface.
func (n *InvalidDomainError) Error() string {
	return fmt.Sprintf("cookie domain %q is not permitted for host %q", n.Domain, n.Host)
}

// SessionLimitError indicates that the tier policy does not allow another session.
type SessionLimitError struct {
	Limit int
}

// Error is an implementation of the error interface.
func (n *SessionLimitError) Error() string {
	return fmt.Sprintf("session limit of %d reached", n.Limit)
}

// RequestTimeoutError indicates that a correlated request received no response in time.
type RequestTimeoutError struct {
	ID      uint64
	Timeout time.Duration
}

// Error is an implementation of the error interface.
func (n *RequestTimeoutError) Error() string {
	return fmt.Sprintf("request %d timed out after %s", n.ID, n.Timeout)
}

// IndexInconsistencyError indicates that the in-memory index violated one of its invariants.
type IndexInconsistencyError struct {
	Reason string
}

// Error is an implementation of the error interface.
func (n *IndexInconsistencyError) Error() string {
	return fmt.Sprintf("session index inconsistent: %s", n.Reason)
}
