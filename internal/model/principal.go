package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is a resolved identity. Points is meaningful for users only;
// admins carry no balance. The password hash is never populated here —
// credential checks go through PrincipalStore.Credentials.
type Principal struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

type Stats struct {
	TotalUsers    int `json:"total_users"`
	TotalTasks    int `json:"total_tasks"`
	TotalContacts int `json:"total_contacts"`
}
