package workflow

import (
	"fmt"

	"github.com/xelth-com/sowflow/internal/models"
)

// UpdateDraft replaces a draft's content fields and writes a field-level
// changelog entry for every change, using the same differ that powers
// revision comparison. Only drafts are editable; review and later statuses
// are frozen snapshots.
func (e *Engine) UpdateDraft(sowID string, actor Identity, patch *models.SOW) (*models.SOW, []ChangeRecord, error) {
	var updated *models.SOW
	var records []ChangeRecord

	err := e.store.Transaction(func(tx Store) error {
		sow, err := tx.GetSOW(sowID)
		if err != nil {
			return err
		}
		if sow == nil {
			return &NotFoundError{Entity: "sow", ID: sowID}
		}
		if sow.Status != models.SOWStatusDraft {
			return &InvalidStateError{Entity: "sow", ID: sow.ID, Status: sow.Status, Operation: "edit"}
		}
		if actor.ActorID != sow.AuthorID && actor.Role != models.RoleManager && actor.Role != models.RoleAdmin {
			return &PermissionError{ActorID: actor.ActorID, Role: actor.Role, Action: "edit sow " + sow.ID}
		}

		before := *sow
		sow.Title = patch.Title
		sow.ClientName = patch.ClientName
		sow.Description = patch.Description
		sow.Products = patch.Products
		sow.PricingRoles = patch.PricingRoles
		sow.TotalValue = patch.TotalValue
		sow.EffectiveDate = patch.EffectiveDate
		sow.ExpirationDate = patch.ExpirationDate

		records = DiffDocuments(&before, sow)
		if len(records) == 0 {
			updated = sow
			return nil
		}

		if err := tx.SaveSOW(sow); err != nil {
			return fmt.Errorf("save sow: %w", err)
		}
		for _, rec := range records {
			if err := e.appendEntry(tx, sow.ID, rec.FieldName, rec.ChangeType,
				rec.PreviousValue, rec.NewValue, actor.ActorID); err != nil {
				return err
			}
		}
		updated = sow
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if len(records) > 0 {
		payload := map[string]interface{}{
			"sowId":   updated.ID,
			"version": updated.Version,
			"actorId": actor.ActorID,
			"changes": records,
		}
		if summary := e.summarize(records); summary != "" {
			payload["summary"] = summary
		}
		e.notify(EventSOWUpdated, payload)
	}
	return updated, records, nil
}
