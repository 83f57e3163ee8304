package models

import "time"

type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "draft"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusArchived  ProjectStatus = "archived"
	ProjectStatusCompleted ProjectStatus = "completed"
)

type Project struct {
	ID          uint64        `gorm:"primarykey" json:"id"`
	Name        string        `gorm:"type:varchar(255);not null;uniqueIndex:idx_projects_name_company" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	CompanyID   *uint64       `gorm:"uniqueIndex:idx_projects_name_company" json:"company_id"`
	CreatedBy   uint64        `gorm:"not null;index" json:"created_by"`
	Status      ProjectStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Deadline    *time.Time    `json:"deadline"`
	IsShown     bool          `gorm:"not null;default:false" json:"is_shown"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Relations
	Creator      User             `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Members      []ProjectMember  `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	FeatureLinks []ProjectFeature `gorm:"foreignKey:ProjectID" json:"features,omitempty"`
}

// HasMember reports whether userID is listed among the preloaded members.
func (p *Project) HasMember(userID uint64) bool {
	for _, m := range p.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// HasFeature reports whether featureID is in the preloaded feature list.
func (p *Project) HasFeature(featureID uint64) bool {
	for _, l := range p.FeatureLinks {
		if l.FeatureID == featureID {
			return true
		}
	}
	return false
}
