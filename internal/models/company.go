package models

import "time"

type CompanyStatus string

const (
	CompanyStatusActive    CompanyStatus = "active"
	CompanyStatusInactive  CompanyStatus = "inactive"
	CompanyStatusSuspended CompanyStatus = "suspended"
)

type Company struct {
	ID        uint64        `gorm:"primarykey" json:"id"`
	Name      string        `gorm:"type:varchar(255);not null" json:"name"`
	Email     string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	OwnerID   uint64        `gorm:"not null;index" json:"owner_id"`
	Status    CompanyStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Domain    *string       `gorm:"type:varchar(255)" json:"domain"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// Relations
	Owner User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Users []CompanyUser `gorm:"foreignKey:CompanyID" json:"users,omitempty"`
}

// HasUser reports whether userID is the owner or listed among the company users.
// Users must be preloaded.
func (c *Company) HasUser(userID uint64) bool {
	if c.OwnerID == userID {
		return true
	}
	for _, u := range c.Users {
		if u.UserID == userID {
			return true
		}
	}
	return false
}

// UserIDs returns the ids of the preloaded company users.
func (c *Company) UserIDs() []uint64 {
	ids := make([]uint64, len(c.Users))
	for i, u := range c.Users {
		ids[i] = u.UserID
	}
	return ids
}
