package models

import "time"

type ProjectMember struct {
	ProjectID uint64    `gorm:"primarykey" json:"project_id"`
	UserID    uint64    `gorm:"primarykey" json:"user_id"`
	AddedBy   uint64    `json:"added_by"`
	JoinedAt  time.Time `json:"joined_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// ProjectFeature is one entry of a project's ordered feature list.
type ProjectFeature struct {
	ProjectID uint64    `gorm:"primarykey" json:"project_id"`
	FeatureID uint64    `gorm:"primarykey" json:"feature_id"`
	LinkedAt  time.Time `gorm:"index" json:"linked_at"`

	// Relations
	Feature Feature `gorm:"foreignKey:FeatureID" json:"feature,omitempty"`
}
