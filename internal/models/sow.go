package models

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SOW statuses
const (
	SOWStatusDraft    = "draft"
	SOWStatusInReview = "in_review"
	SOWStatusApproved = "approved"
	SOWStatusRejected = "rejected"
	SOWStatusRecalled = "recalled"
)

// SOW represents one revision of a Statement of Work. Revisions sharing a
// RootID form a lineage; exactly one revision per lineage is the latest.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type SOW struct {
	ID       string  `gorm:"column:sow_id;primaryKey;type:uuid" json:"id"`
	ParentID *string `gorm:"column:parent_id;type:uuid;index" json:"parentId"`
	RootID   string  `gorm:"column:root_id;type:uuid;index:idx_sow_root_version,unique" json:"rootId"`
	Version  int     `gorm:"column:version;not null;index:idx_sow_root_version,unique" json:"version"`
	IsLatest bool    `gorm:"column:is_latest;default:true;index" json:"isLatest"`

	Title          string         `gorm:"column:title;not null" json:"title"`
	ClientName     string         `gorm:"column:client_name" json:"clientName"`
	Description    string         `gorm:"column:description;type:text" json:"description"`
	Products       pq.StringArray `gorm:"column:products;type:text[]" json:"products"`
	PricingRoles   datatypes.JSON `gorm:"column:pricing_roles;type:jsonb" json:"pricingRoles"`
	TotalValue     float64        `gorm:"column:total_value;default:0" json:"totalValue"`
	EffectiveDate  *time.Time     `gorm:"column:effective_date" json:"effectiveDate,omitempty"`
	ExpirationDate *time.Time     `gorm:"column:expiration_date" json:"expirationDate,omitempty"`

	Status   string `gorm:"column:status;default:'draft';index" json:"status"`
	AuthorID string `gorm:"column:author_id;not null;index" json:"authorId"`

	// Workflow bookkeeping. Cleared when a new revision is minted and
	// excluded from content diffs.
	SubmittedBy      *string    `gorm:"column:submitted_by" json:"submittedBy,omitempty"`
	SubmittedAt      *time.Time `gorm:"column:submitted_at" json:"submittedAt,omitempty"`
	ApprovedBy       *string    `gorm:"column:approved_by" json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time `gorm:"column:approved_at" json:"approvedAt,omitempty"`
	RejectedBy       *string    `gorm:"column:rejected_by" json:"rejectedBy,omitempty"`
	RejectedAt       *time.Time `gorm:"column:rejected_at" json:"rejectedAt,omitempty"`
	ApprovalComments *string    `gorm:"column:approval_comments;type:text" json:"approvalComments,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name
func (SOW) TableName() string {
	return "sows"
}

// LineageRoot resolves the lineage root id (parent id, or own id for the
// first revision).
func (s *SOW) LineageRoot() string {
	if s.ParentID != nil && *s.ParentID != "" {
		return *s.ParentID
	}
	return s.ID
}

// PricingRole is one line of the pricing table. Units comes from client
// payloads and may be a number, a numeric string, or missing entirely.
type PricingRole struct {
	RoleID string      `json:"roleId"`
	Units  interface{} `json:"units"`
}

// UnitCount normalizes Units to a float, treating anything non-numeric as 0.
func (p PricingRole) UnitCount() float64 {
	switch v := p.Units.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// DecodedPricingRoles unmarshals the jsonb pricing table. A missing or
// malformed column decodes to an empty list rather than failing the caller.
func (s *SOW) DecodedPricingRoles() []PricingRole {
	if len(s.PricingRoles) == 0 {
		return nil
	}
	var roles []PricingRole
	if err := json.Unmarshal(s.PricingRoles, &roles); err != nil {
		return nil
	}
	return roles
}

// TotalUnits sums the pricing table's units.
func (s *SOW) TotalUnits() float64 {
	var total float64
	for _, r := range s.DecodedPricingRoles() {
		total += r.UnitCount()
	}
	return total
}
