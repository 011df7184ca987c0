package errors

import stderr "errors"

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

var (
	// ErrRecordNotFound reports that a storage layer holds no record for the requested key.
	ErrRecordNotFound = New("record not found")
	// ErrReentrantInit reports that initialization was triggered from within its own execution.
	ErrReentrantInit = New("initialization triggered from within initialization")
	// ErrChannelClosed reports that a cookie channel was closed while a request was pending.
	ErrChannelClosed = New("cookie channel closed")
)
