package models

import (
	"time"

	"gorm.io/gorm"
)

// Approval statuses
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
	ApprovalStatusSkipped  = "skipped"
)

// Decision actions accepted by the state machine
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionSkip    = "skip"
)

// Approval is the per-(document, stage) decision record. One row per stage is
// created at submission; each row transitions exactly once out of pending.
// The whole set is deleted and recreated only when the document is recalled.
type Approval struct {
	ID         string     `gorm:"column:approval_id;primaryKey;type:uuid" json:"id"`
	SOWID      string     `gorm:"column:sow_id;type:uuid;not null;index" json:"sowId"`
	StageID    string     `gorm:"column:stage_id;type:uuid;not null;index" json:"stageId"`
	Status     string     `gorm:"column:status;default:'pending';index" json:"status"`
	ApproverID *string    `gorm:"column:approver_id" json:"approverId,omitempty"`
	Comments   *string    `gorm:"column:comments;type:text" json:"comments,omitempty"`
	DecidedAt  *time.Time `gorm:"column:decided_at" json:"decidedAt,omitempty"`

	Stage *ApprovalStage `gorm:"foreignKey:StageID" json:"stage,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name
func (Approval) TableName() string {
	return "approvals"
}

// Resolved reports whether this approval no longer blocks completion.
func (a *Approval) Resolved() bool {
	return a.Status == ApprovalStatusApproved || a.Status == ApprovalStatusSkipped
}
