package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleManager  Role = "Manager"
	RoleEmployee Role = "Employee"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID           primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Username     string               `json:"username" bson:"username"`
	WorkEmail    string               `json:"workEmail" bson:"workEmail"`
	PasswordHash string               `json:"-" bson:"passwordHash"`
	Company      primitive.ObjectID   `json:"company" bson:"company"`
	Role         Role                 `json:"role" bson:"role"`
	FirstName    string               `json:"firstName,omitempty" bson:"firstName,omitempty"`
	LastName     string               `json:"lastName,omitempty" bson:"lastName,omitempty"`
	Departments  []primitive.ObjectID `json:"departments" bson:"departments"`
	CreatedAt    time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID    primitive.ObjectID
	CompanyID primitive.ObjectID
	Role      Role
	Username  string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsManager reports whether the actor has manager rights. Admins do.
func (a Actor) IsManager() bool { return a.Role == RoleManager || a.Role == RoleAdmin }

type RegisterInput struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	WorkEmail       string `json:"workEmail" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	CompanyCode     string `json:"companyCode" validate:"required,len=6,numeric"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type ProfileInput struct {
	FirstName string `json:"firstName" validate:"max=50"`
	LastName  string `json:"lastName" validate:"max=50"`
	WorkEmail string `json:"workEmail" validate:"omitempty,email"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type RoleInput struct {
	Role Role `json:"role" validate:"required,oneof=Admin Manager Employee"`
}
