package models

import (
	"time"

	"gorm.io/datatypes"
)

// Changelog change types, in diff ordering precedence.
const (
	ChangeFieldUpdate    = "field_update"
	ChangeContentEdit    = "content_edit"
	ChangeStatusChange   = "status_change"
	ChangeVersionCreated = "version_created"
	ChangeCommentAdded   = "comment_added"
)

// ChangelogEntry is an append-only, field-level audit record. Entries are
// never updated or deleted.
type ChangelogEntry struct {
	ID            string         `gorm:"column:entry_id;primaryKey;type:uuid" json:"id"`
	SOWID         string         `gorm:"column:sow_id;type:uuid;not null;index" json:"sowId"`
	FieldName     string         `gorm:"column:field_name;not null" json:"fieldName"`
	ChangeType    string         `gorm:"column:change_type;not null;index" json:"changeType"`
	PreviousValue datatypes.JSON `gorm:"column:previous_value;type:jsonb" json:"previousValue"`
	NewValue      datatypes.JSON `gorm:"column:new_value;type:jsonb" json:"newValue"`
	UserID        string         `gorm:"column:user_id;not null" json:"userId"`
	CreatedAt     time.Time      `gorm:"column:created_at;index" json:"createdAt"`
}

// TableName specifies the table name
func (ChangelogEntry) TableName() string {
	return "changelog_entries"
}
