package domain

import "github.com/google/uuid"

// SessionIdentity is the authenticated subject bound to one connection.
// It is built once at handshake time, never persisted, and dies with the
// connection. A zero SubjectID means the connection is anonymous.
type SessionIdentity struct {
	SubjectID    string
	SubjectName  string
	Capabilities []string
	ConnectionID uuid.UUID
}

func (s SessionIdentity) Anonymous() bool {
	return s.SubjectID == ""
}
