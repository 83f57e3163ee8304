package models

import (
	"time"

	"gorm.io/datatypes"
)

type FeatureStatus string

const (
	FeatureStatusPending   FeatureStatus = "pending"
	FeatureStatusWorking   FeatureStatus = "working"
	FeatureStatusCompleted FeatureStatus = "completed"
	FeatureStatusBlocked   FeatureStatus = "blocked"
)

type FeaturePriority string

const (
	FeaturePriorityLow    FeaturePriority = "low"
	FeaturePriorityMedium FeaturePriority = "medium"
	FeaturePriorityHigh   FeaturePriority = "high"
	FeaturePriorityUrgent FeaturePriority = "urgent"
)

type Feature struct {
	ID          uint64                      `gorm:"primarykey" json:"id"`
	Title       string                      `gorm:"type:varchar(255);not null" json:"title"`
	Description string                      `gorm:"type:text" json:"description"`
	Status      FeatureStatus               `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Priority    FeaturePriority             `gorm:"type:varchar(20);not null;default:'low';index" json:"priority"`
	ProjectID   uint64                      `gorm:"not null;index" json:"project_id"`
	CreatedBy   uint64                      `gorm:"not null;index" json:"created_by"`
	Deadline    *time.Time                  `json:"deadline"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	IsCompleted bool                        `gorm:"not null;default:false" json:"is_completed"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`

	// Relations
	Project     Project             `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Creator     User                `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Assignments []FeatureAssignment `gorm:"foreignKey:FeatureID" json:"assignments,omitempty"`
	Comments    []FeatureComment    `gorm:"foreignKey:FeatureID" json:"comments,omitempty"`
}

// SetStatus updates the status and keeps IsCompleted in sync with it.
func (f *Feature) SetStatus(status FeatureStatus) {
	f.Status = status
	f.IsCompleted = status == FeatureStatusCompleted
}

// ToggleCompletion flips completion; the status moves between completed and pending.
func (f *Feature) ToggleCompletion() {
	if f.IsCompleted {
		f.SetStatus(FeatureStatusPending)
		return
	}
	f.SetStatus(FeatureStatusCompleted)
}

// AssigneeIDs returns the ids of the preloaded assignments.
func (f *Feature) AssigneeIDs() []uint64 {
	ids := make([]uint64, len(f.Assignments))
	for i, a := range f.Assignments {
		ids[i] = a.UserID
	}
	return ids
}

// FindComment returns the preloaded comment with the given id.
func (f *Feature) FindComment(commentID uint64) (*FeatureComment, bool) {
	for i := range f.Comments {
		if f.Comments[i].ID == commentID {
			return &f.Comments[i], true
		}
	}
	return nil, false
}
