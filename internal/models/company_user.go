package models

import "time"

type CompanyUser struct {
	CompanyID uint64    `gorm:"primarykey" json:"company_id"`
	UserID    uint64    `gorm:"primarykey" json:"user_id"`
	JoinedAt  time.Time `json:"joined_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
