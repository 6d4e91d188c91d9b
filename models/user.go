package models

import (
	"time"
)

// Role represents user role types
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an account; admins may exist without a breeder
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null"`
	HashedPassword string    `json:"-" gorm:"not null"` // Password is not exposed in JSON
	FullName       *string   `json:"full_name" gorm:"default:null"`
	Role           Role      `json:"role" gorm:"type:varchar(10);not null;default:'user'"`
	BreederID      *uint     `json:"breeder_id" gorm:"index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Breeder *Breeder `json:"-" gorm:"foreignKey:BreederID"`
}

// IsAdmin reports whether the user holds the admin role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
