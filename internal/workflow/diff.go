package workflow

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/xelth-com/sowflow/internal/models"
)

// ChangeRecord is one line of a field-level diff between two revisions.
type ChangeRecord struct {
	FieldName     string      `json:"fieldName"`
	ChangeType    string      `json:"changeType"`
	PreviousValue interface{} `json:"previousValue"`
	NewValue      interface{} `json:"newValue"`
}

// Fixed precedence for diff ordering.
var changeTypeRank = map[string]int{
	models.ChangeFieldUpdate:  0,
	models.ChangeContentEdit:  1,
	models.ChangeStatusChange: 2,
}

// DiffDocuments computes a field-level diff of two document snapshots. Only
// content fields are compared: status and approval/signature bookkeeping are
// workflow metadata, surfaced through the approval history instead. Pure and
// side-effect free.
func DiffDocuments(a, b *models.SOW) []ChangeRecord {
	var records []ChangeRecord

	add := func(field, changeType string, prev, next interface{}) {
		records = append(records, ChangeRecord{
			FieldName:     field,
			ChangeType:    changeType,
			PreviousValue: prev,
			NewValue:      next,
		})
	}

	if a.Title != b.Title {
		add("title", models.ChangeFieldUpdate, a.Title, b.Title)
	}
	if a.ClientName != b.ClientName {
		add("clientName", models.ChangeFieldUpdate, a.ClientName, b.ClientName)
	}
	if a.TotalValue != b.TotalValue {
		add("totalValue", models.ChangeFieldUpdate, a.TotalValue, b.TotalValue)
	}
	if !timeEqual(a.EffectiveDate, b.EffectiveDate) {
		add("effectiveDate", models.ChangeFieldUpdate, a.EffectiveDate, b.EffectiveDate)
	}
	if !timeEqual(a.ExpirationDate, b.ExpirationDate) {
		add("expirationDate", models.ChangeFieldUpdate, a.ExpirationDate, b.ExpirationDate)
	}

	if a.Description != b.Description {
		add("description", models.ChangeContentEdit, a.Description, b.Description)
	}
	if !productSetsEqual(a.Products, b.Products) {
		add("products", models.ChangeContentEdit, []string(a.Products), []string(b.Products))
	}
	if !pricingRolesEqual(a, b) {
		add("pricingRoles", models.ChangeContentEdit, a.DecodedPricingRoles(), b.DecodedPricingRoles())
	}

	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := changeTypeRank[records[i].ChangeType], changeTypeRank[records[j].ChangeType]
		if ri != rj {
			return ri < rj
		}
		return records[i].FieldName < records[j].FieldName
	})
	return records
}

// Diff compares any two documents sharing a lineage root.
func (e *Engine) Diff(aID, bID string) ([]ChangeRecord, error) {
	a, err := e.store.GetSOW(aID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &NotFoundError{Entity: "sow", ID: aID}
	}
	b, err := e.store.GetSOW(bID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, &NotFoundError{Entity: "sow", ID: bID}
	}
	if a.LineageRoot() != b.LineageRoot() {
		return nil, &UnrelatedRevisionsError{AID: aID, BID: bID}
	}
	return DiffDocuments(a, b), nil
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// productSetsEqual compares the product lists as sets.
func productSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, p := range a {
		seen[p]++
	}
	for _, p := range b {
		seen[p]--
		if seen[p] < 0 {
			return false
		}
	}
	return true
}

// pricingRolesEqual compares the decoded pricing tables by canonical JSON.
func pricingRolesEqual(a, b *models.SOW) bool {
	ra, _ := json.Marshal(a.DecodedPricingRoles())
	rb, _ := json.Marshal(b.DecodedPricingRoles())
	return string(ra) == string(rb)
}
