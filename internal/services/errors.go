package services

import "errors"

// Failure taxonomy surfaced to handlers. Handlers translate these to
// HTTP status codes; anything else is treated as an infrastructure
// error.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("access denied")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrUsernameExists     = errors.New("username already exists")
	ErrDuplicateMember    = errors.New("user is already a member of this project")
)
