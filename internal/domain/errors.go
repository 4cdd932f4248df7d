package domain

import "errors"

var (
	ErrEmptyInput         = errors.New("raw text is required")
	ErrMalformedContent   = errors.New("malformed content response")
	ErrNoImage            = errors.New("no image produced")
	ErrNoVideo            = errors.New("no video returned")
	ErrVideoJobFailed     = errors.New("video job failed")
	ErrVideoTimeout       = errors.New("video generation did not complete")
	ErrDownloadQuota      = errors.New("video download quota exceeded")
	ErrDownloadFailed     = errors.New("video download failed")
	ErrInvalidDataURL     = errors.New("invalid data url")
	ErrDocumentIncomplete = errors.New("document is missing title or description")
	ErrInvalidCredential  = errors.New("invalid credential")
)

// UserError is a failure whose message is safe to show to the end user. It is
// permanent: replaying the operation that produced it cannot succeed.
type UserError struct {
	Message string
	Err     error
}

// NewUserError wraps sentinel with a user-facing message.
func NewUserError(sentinel error, message string) *UserError {
	return &UserError{Message: message, Err: sentinel}
}

func (e *UserError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "generation failed"
}

func (e *UserError) Unwrap() error { return e.Err }

// Permanent marks the error as non-retryable for the failure classifier.
func (e *UserError) Permanent() bool { return true }
