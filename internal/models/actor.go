package models

type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
)

// Actor is the already-authenticated caller forwarded by the gateway.
type Actor struct {
	ID   int64
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// SystemActor is used for transitions triggered by the completion sweeper.
var SystemActor = Actor{ID: 0, Role: RoleAdmin}
