package models

import (
	"time"
)

type Role string

const (
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleUser       Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

type LoginType string

const (
	LoginTypeEmailPassword LoginType = "EMAIL_PASSWORD"
	LoginTypeGoogle        LoginType = "GOOGLE"
	LoginTypeGitHub        LoginType = "GITHUB"
)

type User struct {
	ID              uint64    `gorm:"primarykey" json:"id"`
	Name            string    `gorm:"type:varchar(255);not null;default:''" json:"name"`
	Email           string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	PhoneNumber     string    `gorm:"type:varchar(32)" json:"phone_number,omitempty"`
	PasswordHash    string    `gorm:"type:varchar(255);not null" json:"-"`
	CompanyID       *uint64   `gorm:"index" json:"company_id"`
	Role            Role      `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	LoginType       LoginType `gorm:"type:varchar(20);not null;default:'EMAIL_PASSWORD'" json:"login_type"`
	IsEmailVerified bool      `gorm:"not null;default:false" json:"is_email_verified"`

	RefreshTokenHash        string     `gorm:"type:varchar(64)" json:"-"`
	EmailVerificationToken  string     `gorm:"type:varchar(64);index" json:"-"`
	EmailVerificationExpiry *time.Time `json:"-"`
	ForgotPasswordToken     string     `gorm:"type:varchar(64);index" json:"-"`
	ForgotPasswordExpiry    *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
