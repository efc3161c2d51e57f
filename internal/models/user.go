package models

import "time"

// User represents a staff account with access to the admin surface.
type User struct {
	BaseModel
	FirstName    string `json:"first_name"`
	MiddleName   string `json:"middle_name"`
	LastName     string `json:"last_name"`
	Username     string `gorm:"uniqueIndex" json:"username"`
	Role         string `json:"role"`
	Department   string `json:"department"`
	PasswordHash string `json:"-"`
	IsBlocked    bool   `json:"is_blocked"`
}

// PasswordResetToken stores one-time reset tokens issued to staff users.
type PasswordResetToken struct {
	BaseModel
	Username  string     `gorm:"index" json:"username"`
	Token     string     `gorm:"uniqueIndex" json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
}
