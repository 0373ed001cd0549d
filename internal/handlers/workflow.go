package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/sowflow/internal/export"
	"github.com/xelth-com/sowflow/internal/middleware"
	"github.com/xelth-com/sowflow/internal/models"
)

// DecideRequest is the body of a stage decision
type DecideRequest struct {
	Action   string `json:"action"`
	Comments string `json:"comments"`
}

// submitSOW moves a draft into review
func (r *Router) submitSOW(w http.ResponseWriter, req *http.Request) {
	identity, ok := middleware.IdentityFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	approvals, err := r.engine.Submit(mux.Vars(req)["id"], identity)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    models.SOWStatusInReview,
		"approvals": approvals,
	})
}

// decideApproval records a stage decision
func (r *Router) decideApproval(w http.ResponseWriter, req *http.Request) {
	identity, ok := middleware.IdentityFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	var body DecideRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	switch body.Action {
	case models.ActionApprove, models.ActionReject, models.ActionSkip:
	default:
		respondError(w, http.StatusBadRequest, "Action must be approve, reject, or skip")
		return
	}

	if err := r.engine.Decide(mux.Vars(req)["id"], body.Action, identity, body.Comments); err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"result": body.Action})
}

// recallSOW pulls an in-review document back to a fresh draft
func (r *Router) recallSOW(w http.ResponseWriter, req *http.Request) {
	identity, ok := middleware.IdentityFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	fresh, err := r.engine.Recall(mux.Vars(req)["id"], identity)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, fresh)
}

// reviseSOW mints a new draft from a rejected document
func (r *Router) reviseSOW(w http.ResponseWriter, req *http.Request) {
	identity, ok := middleware.IdentityFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	fresh, err := r.engine.ReviseFromRejected(mux.Vars(req)["id"], identity)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, fresh)
}

// stageRequirements previews which stages a submission would require
func (r *Router) stageRequirements(w http.ResponseWriter, req *http.Request) {
	reqs, err := r.engine.StageRequirements(mux.Vars(req)["id"])
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reqs)
}

// listApprovals returns the approval rows for a document
func (r *Router) listApprovals(w http.ResponseWriter, req *http.Request) {
	approvals, err := r.engine.Approvals(mux.Vars(req)["id"])
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, approvals)
}

// listChangelog returns the audit history for a document
func (r *Router) listChangelog(w http.ResponseWriter, req *http.Request) {
	entries, err := r.engine.Changelog(mux.Vars(req)["id"])
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// exportHistory renders the approval-history sheet as PDF
func (r *Router) exportHistory(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	var sow models.SOW
	if err := r.db.First(&sow, "sow_id = ?", id).Error; err != nil {
		respondError(w, http.StatusNotFound, "SOW not found")
		return
	}
	approvals, err := r.engine.Approvals(id)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	entries, err := r.engine.Changelog(id)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}

	reviewURL := fmt.Sprintf("%s/sows/%s", r.cfg.BaseURL, sow.ID)
	pdf, err := export.ApprovalHistoryPDF(&sow, approvals, entries, reviewURL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render history sheet")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=sow-%d-history.pdf", sow.Version))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
