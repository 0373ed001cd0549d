package workflow

import (
	"fmt"

	"github.com/xelth-com/sowflow/internal/models"
)

// Recall pulls an in-review document back to a fresh editable draft without
// losing history. Preconditions, in order: the document exists, is in
// review, the actor is its author or a manager/admin, and no stage has
// signed off yet. Once any stage approved, rejection is the only way out.
func (e *Engine) Recall(sowID string, actor Identity) (*models.SOW, error) {
	var fresh *models.SOW

	err := e.store.Transaction(func(tx Store) error {
		sow, err := tx.GetSOW(sowID)
		if err != nil {
			return err
		}
		if sow == nil {
			return &NotFoundError{Entity: "sow", ID: sowID}
		}
		if sow.Status != models.SOWStatusInReview {
			return &InvalidStateError{Entity: "sow", ID: sow.ID, Status: sow.Status, Operation: "recall"}
		}
		if actor.ActorID != sow.AuthorID && actor.Role != models.RoleManager && actor.Role != models.RoleAdmin {
			return &PermissionError{ActorID: actor.ActorID, Role: actor.Role, Action: "recall sow " + sow.ID}
		}

		approvals, err := tx.ApprovalsForSOW(sow.ID)
		if err != nil {
			return err
		}
		for i := range approvals {
			if approvals[i].Status == models.ApprovalStatusApproved {
				return &AlreadyApprovedError{SOWID: sow.ID, StageID: approvals[i].StageID}
			}
		}

		if err := tx.DeleteApprovalsForSOW(sow.ID); err != nil {
			return fmt.Errorf("delete approvals: %w", err)
		}

		prev := sow.Status
		sow.Status = models.SOWStatusRecalled
		sow.IsLatest = false
		if err := tx.SaveSOW(sow); err != nil {
			return fmt.Errorf("save sow: %w", err)
		}
		if err := e.appendStatusChange(tx, sow.ID, prev, sow.Status, actor.ActorID); err != nil {
			return err
		}

		fresh, err = e.mintRevision(tx, sow, actor.ActorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.WithFields(map[string]interface{}{
		"sowId":      sowID,
		"newSowId":   fresh.ID,
		"newVersion": fresh.Version,
	}).Info("SOW recalled to draft")
	e.notify(EventSOWRecalled, map[string]interface{}{
		"sowId":      sowID,
		"newSowId":   fresh.ID,
		"newVersion": fresh.Version,
		"actorId":    actor.ActorID,
	})
	e.clearReminders(sowID)
	return fresh, nil
}

// ReviseFromRejected mints a new draft revision from a rejected document.
// Same transaction shape as Recall minus the already-approved guard; the
// rejected revision keeps its approval rows so the rejection stays on
// record.
func (e *Engine) ReviseFromRejected(sowID string, actor Identity) (*models.SOW, error) {
	var fresh *models.SOW

	err := e.store.Transaction(func(tx Store) error {
		sow, err := tx.GetSOW(sowID)
		if err != nil {
			return err
		}
		if sow == nil {
			return &NotFoundError{Entity: "sow", ID: sowID}
		}
		if sow.Status != models.SOWStatusRejected {
			return &InvalidStateError{Entity: "sow", ID: sow.ID, Status: sow.Status, Operation: "revise"}
		}
		if actor.ActorID != sow.AuthorID && actor.Role != models.RoleManager && actor.Role != models.RoleAdmin {
			return &PermissionError{ActorID: actor.ActorID, Role: actor.Role, Action: "revise sow " + sow.ID}
		}

		fresh, err = e.mintRevision(tx, sow, actor.ActorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.WithFields(map[string]interface{}{
		"sowId":      sowID,
		"newSowId":   fresh.ID,
		"newVersion": fresh.Version,
	}).Info("new revision minted from rejected SOW")
	return fresh, nil
}
