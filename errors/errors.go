package errors

import "fmt"

// Admission errors are fatal to the connection attempt: no session is
// created and no room join occurs.
var (
	ErrNoCredential     = fmt.Errorf("missing credential")
	ErrInvalidProjectID = fmt.Errorf("invalid project id")
	ErrProjectNotFound  = fmt.Errorf("project not found")
	ErrAuthFailed       = fmt.Errorf("authentication failed")
)

var (
	ErrProjectExists = fmt.Errorf("project already exists")
	ErrEmptyWords    = fmt.Errorf("no words have been found")
	ErrWorkerPanic   = fmt.Errorf("worker panic")
)
