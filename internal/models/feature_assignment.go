package models

import "time"

type FeatureAssignment struct {
	FeatureID uint64    `gorm:"primarykey" json:"feature_id"`
	UserID    uint64    `gorm:"primarykey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

type FeatureComment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	FeatureID uint64    `gorm:"not null;index" json:"feature_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedBy uint64    `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Author User `gorm:"foreignKey:CreatedBy" json:"author,omitempty"`
}
