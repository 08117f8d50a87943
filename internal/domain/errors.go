package domain

import "errors"

// Domain errors.
var (
	// ErrSessionNotFound is returned when a session cannot be found.
	ErrSessionNotFound = errors.New("session not found")

	// ErrEntryNotFound is returned when a file entry cannot be found.
	ErrEntryNotFound = errors.New("file entry not found")

	// ErrSessionFull is returned when a session has reached its entry limit.
	ErrSessionFull = errors.New("session entry limit reached")

	// ErrNoFiles is returned when an upload request carries no files.
	ErrNoFiles = errors.New("no files provided")

	// ErrFileTooLarge is returned when an uploaded file exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")

	// ErrEmptyFilename is returned when an uploaded file has no name.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrEmptyBaseName is returned when an edit would leave an entry with an
	// empty base name.
	ErrEmptyBaseName = errors.New("base name cannot be empty")

	// ErrInvalidPrefixConfig is returned when a prefix configuration is out
	// of range.
	ErrInvalidPrefixConfig = errors.New("invalid prefix configuration")

	// ErrBlobNotFound is returned when a staged payload cannot be found.
	ErrBlobNotFound = errors.New("staged payload not found")
)

// SessionError wraps an error with session context.
type SessionError struct {
	SessionID SessionID
	Op        string
	Err       error
}

func (e *SessionError) Error() string {
	if e.SessionID != "" {
		return e.Op + " [" + e.SessionID.String() + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new SessionError.
func NewSessionError(sessionID SessionID, op string, err error) *SessionError {
	return &SessionError{
		SessionID: sessionID,
		Op:        op,
		Err:       err,
	}
}
