package errors

import "fmt"

var (
	// ErrUnauthenticated means no valid identity is bound to the connection.
	ErrUnauthenticated = fmt.Errorf("no authenticated identity bound to the connection")
	// ErrUnauthorized means the identity is valid but lacks the privilege:
	// not a room member, not the original sender, or not the room creator.
	ErrUnauthorized = fmt.Errorf("insufficient privilege")
	ErrNotFound     = fmt.Errorf("not found")
	ErrValidation   = fmt.Errorf("malformed request body")

	ErrAlreadyMember      = fmt.Errorf("user is already a member")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)
