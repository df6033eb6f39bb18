package models

import (
	"time"

	"github.com/google/uuid"
)

// Staff roles.
const (
	RoleAdmin = "admin"
	RoleGate  = "gate"
)

// StaffUser is a door/admin staff account for the gate dashboard.
type StaffUser struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StaffPublic is the safe projection returned by auth endpoints.
type StaffPublic struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     string    `json:"role"`
}

// Public returns the projection without credentials.
func (u *StaffUser) Public() StaffPublic {
	return StaffPublic{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
}
