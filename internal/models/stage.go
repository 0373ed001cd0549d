package models

import "time"

// Well-known stage keys. Stages are reference data administered elsewhere;
// the engine only reads them.
const (
	StageIntake            = "intake"
	StageProjectManagement = "project_management"
	StageLeadership        = "leadership"
)

// ApprovalStage is a named, ordered checkpoint in the approval sequence.
type ApprovalStage struct {
	ID              string    `gorm:"column:stage_id;primaryKey;type:uuid" json:"id"`
	Key             string    `gorm:"column:key;unique;not null" json:"key"`
	Name            string    `gorm:"column:name;not null" json:"name"`
	SortOrder       int       `gorm:"column:sort_order;not null" json:"sortOrder"`
	RequiresComment bool      `gorm:"column:requires_comment;default:false" json:"requiresComment"`
	IsActive        bool      `gorm:"column:is_active;default:true" json:"isActive"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName specifies the table name
func (ApprovalStage) TableName() string {
	return "approval_stages"
}
