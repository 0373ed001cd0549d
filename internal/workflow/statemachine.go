package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xelth-com/sowflow/internal/models"
)

// stageDeciders is the fixed role-to-stage authorization table. Admins may
// decide any stage.
var stageDeciders = map[string][]string{
	models.StageIntake:            {models.RoleManager},
	models.StageProjectManagement: {models.RolePMO},
	models.StageLeadership:        {models.RoleManager},
}

func roleCanDecide(role, stageKey string) bool {
	if role == models.RoleAdmin {
		return true
	}
	for _, allowed := range stageDeciders[stageKey] {
		if role == allowed {
			return true
		}
	}
	return false
}

// Submit moves a draft into review. The stage set is evaluated from the
// document's current content; required stages get pending approval rows and
// non-required stages get explicit skipped rows so the audit trail shows
// they were considered, not forgotten.
func (e *Engine) Submit(sowID string, actor Identity) ([]models.Approval, error) {
	var created []models.Approval
	var submitted *models.SOW

	err := e.store.Transaction(func(tx Store) error {
		sow, err := tx.GetSOW(sowID)
		if err != nil {
			return err
		}
		if sow == nil {
			return &NotFoundError{Entity: "sow", ID: sowID}
		}
		if sow.Status != models.SOWStatusDraft {
			return &AlreadySubmittedError{SOWID: sow.ID, Status: sow.Status}
		}

		stages, err := tx.ActiveStages()
		if err != nil {
			return err
		}
		reqs := EvaluateStageRequirements(sow, stages, e.cfg)

		now := time.Now().UTC()
		created = created[:0]
		for _, req := range reqs {
			approval := models.Approval{
				ID:      uuid.NewString(),
				SOWID:   sow.ID,
				StageID: req.Stage.ID,
				Status:  models.ApprovalStatusPending,
			}
			if !req.Required {
				approval.Status = models.ApprovalStatusSkipped
				decidedAt := now
				approval.DecidedAt = &decidedAt
			}
			created = append(created, approval)
		}
		if err := tx.CreateApprovals(created); err != nil {
			return fmt.Errorf("create approvals: %w", err)
		}

		prev := sow.Status
		sow.Status = models.SOWStatusInReview
		sow.SubmittedBy = &actor.ActorID
		sow.SubmittedAt = &now
		if err := tx.SaveSOW(sow); err != nil {
			return fmt.Errorf("save sow: %w", err)
		}
		submitted = sow
		return e.appendStatusChange(tx, sow.ID, prev, sow.Status, actor.ActorID)
	})
	if err != nil {
		return nil, err
	}

	e.log.WithFields(map[string]interface{}{
		"sowId":  sowID,
		"stages": len(created),
	}).Info("SOW submitted for review")
	e.notify(EventSOWSubmitted, map[string]interface{}{
		"sowId":   submitted.ID,
		"version": submitted.Version,
		"actorId": actor.ActorID,
	})
	e.scheduleReminders(submitted, created)
	return created, nil
}

// Decide records a stage decision. Rejection short-circuits the document to
// rejected regardless of other approvals; approve/skip recompute completion
// inside the same transaction that locks the document row.
func (e *Engine) Decide(approvalID, action string, actor Identity, comments string) error {
	var terminalEvent string
	var decided *models.SOW

	err := e.store.Transaction(func(tx Store) error {
		approval, err := tx.GetApproval(approvalID)
		if err != nil {
			return err
		}
		if approval == nil {
			return &NotFoundError{Entity: "approval", ID: approvalID}
		}
		sow, err := tx.GetSOW(approval.SOWID)
		if err != nil {
			return err
		}
		if sow == nil {
			return &NotFoundError{Entity: "sow", ID: approval.SOWID}
		}
		// Document status gates every decision: once rejected or approved,
		// remaining approvals are frozen.
		if sow.Status != models.SOWStatusInReview {
			return &InvalidStateError{Entity: "sow", ID: sow.ID, Status: sow.Status, Operation: "decide on"}
		}
		if approval.Status != models.ApprovalStatusPending {
			return &InvalidStateError{Entity: "approval", ID: approval.ID, Status: approval.Status, Operation: "decide on"}
		}

		stage, err := tx.GetStage(approval.StageID)
		if err != nil {
			return err
		}
		if stage == nil {
			return &NotFoundError{Entity: "stage", ID: approval.StageID}
		}
		if stage.RequiresComment && strings.TrimSpace(comments) == "" {
			return &CommentRequiredError{StageKey: stage.Key}
		}
		if !roleCanDecide(actor.Role, stage.Key) {
			return &PermissionError{ActorID: actor.ActorID, Role: actor.Role, Action: "decide stage " + stage.Key}
		}

		now := time.Now().UTC()
		switch action {
		case models.ActionApprove:
			approval.Status = models.ApprovalStatusApproved
		case models.ActionReject:
			approval.Status = models.ApprovalStatusRejected
		case models.ActionSkip:
			approval.Status = models.ApprovalStatusSkipped
		default:
			return fmt.Errorf("unsupported decision action %q", action)
		}
		approval.ApproverID = &actor.ActorID
		approval.DecidedAt = &now
		if comments != "" {
			approval.Comments = &comments
		}
		if err := tx.SaveApproval(approval); err != nil {
			return fmt.Errorf("save approval: %w", err)
		}

		if err := e.appendEntry(tx, sow.ID, "approval:"+stage.Key, models.ChangeStatusChange,
			models.ApprovalStatusPending, approval.Status, actor.ActorID); err != nil {
			return err
		}
		if comments != "" {
			if err := e.appendEntry(tx, sow.ID, "approval:"+stage.Key, models.ChangeCommentAdded,
				nil, comments, actor.ActorID); err != nil {
				return err
			}
		}

		if action == models.ActionReject {
			prev := sow.Status
			sow.Status = models.SOWStatusRejected
			sow.RejectedBy = &actor.ActorID
			sow.RejectedAt = &now
			if comments != "" {
				sow.ApprovalComments = &comments
			}
			if err := tx.SaveSOW(sow); err != nil {
				return fmt.Errorf("save sow: %w", err)
			}
			decided = sow
			terminalEvent = EventSOWRejected
			return e.appendStatusChange(tx, sow.ID, prev, sow.Status, actor.ActorID)
		}

		// Completion check: every approval resolved means the document is
		// approved. Runs under the document row lock taken by GetSOW above.
		all, err := tx.ApprovalsForSOW(sow.ID)
		if err != nil {
			return err
		}
		complete := true
		for i := range all {
			if !all[i].Resolved() {
				complete = false
				break
			}
		}
		if complete {
			prev := sow.Status
			sow.Status = models.SOWStatusApproved
			sow.ApprovedBy = &actor.ActorID
			sow.ApprovedAt = &now
			if err := tx.SaveSOW(sow); err != nil {
				return fmt.Errorf("save sow: %w", err)
			}
			decided = sow
			terminalEvent = EventSOWApproved
			return e.appendStatusChange(tx, sow.ID, prev, sow.Status, actor.ActorID)
		}
		decided = sow
		return nil
	})
	if err != nil {
		return err
	}

	if terminalEvent != "" {
		e.log.WithFields(map[string]interface{}{
			"sowId":  decided.ID,
			"status": decided.Status,
		}).Info("SOW reached terminal workflow status")
		e.notify(terminalEvent, map[string]interface{}{
			"sowId":   decided.ID,
			"version": decided.Version,
			"status":  decided.Status,
			"actorId": actor.ActorID,
		})
		e.clearReminders(decided.ID)
	}
	return nil
}
