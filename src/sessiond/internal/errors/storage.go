package errors

import (
	"fmt"
	"time"
)

// TransientIOError wraps a single-layer read or write failure that may succeed when retried.
type TransientIOError struct {
	Layer string
	Op    string
	Err   error
}

// Error is an implementation of the error interface.
func (n *TransientIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", n.Layer, n.Op, n.Err)
}

// Unwrap returns the underlying error.
func (n *TransientIOError) Unwrap() error {
	return n.Err
}

// BlockedOperationError indicates that a whole-store operation could not proceed because a
// handle on the store was still open when the bounded wait expired.
type BlockedOperationError struct {
	Layer  string
	Op     string
	Waited time.Duration
}

// Error is an implementation of the error interface.
func (n *BlockedOperationError) Error() string {
	return fmt.Sprintf("%s %s blocked by an open handle after %s", n.Layer, n.Op, n.Waited)
}

// CorruptPreferenceError indicates that a stored preference is not a well-formed boolean.
type CorruptPreferenceError struct {
	Key string
	Raw []byte
}

// Error is an implementation of the error interface.
func (n *CorruptPreferenceError) Error() string {
	return fmt.Sprintf("preference %q holds malformed value %q", n.Key, n.Raw)
}

// VerificationMismatchError indicates that a deleted session is still present in a layer.
type VerificationMismatchError struct {
	Layer     string
	SessionID string
}

// Error is an implementation of the error interface.
func (n *VerificationMismatchError) Error() string {
	return fmt.Sprintf("session %q still present in %s after delete", n.SessionID, n.Layer)
}
