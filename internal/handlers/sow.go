package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/xelth-com/sowflow/internal/middleware"
	"github.com/xelth-com/sowflow/internal/models"
	"github.com/xelth-com/sowflow/internal/workflow"
)

// SOWRequest carries the editable content fields of a SOW.
type SOWRequest struct {
	Title          string               `json:"title"`
	ClientName     string               `json:"clientName"`
	Description    string               `json:"description"`
	Products       []string             `json:"products"`
	PricingRoles   []models.PricingRole `json:"pricingRoles"`
	TotalValue     float64              `json:"totalValue"`
	EffectiveDate  *time.Time           `json:"effectiveDate"`
	ExpirationDate *time.Time           `json:"expirationDate"`
}

func (sr *SOWRequest) toModel() (*models.SOW, error) {
	sow := &models.SOW{
		Title:          sr.Title,
		ClientName:     sr.ClientName,
		Description:    sr.Description,
		Products:       pq.StringArray(sr.Products),
		TotalValue:     sr.TotalValue,
		EffectiveDate:  sr.EffectiveDate,
		ExpirationDate: sr.ExpirationDate,
	}
	if sr.PricingRoles != nil {
		raw, err := json.Marshal(sr.PricingRoles)
		if err != nil {
			return nil, err
		}
		sow.PricingRoles = datatypes.JSON(raw)
	}
	return sow, nil
}

// createSOW mints the root draft of a new lineage
func (r *Router) createSOW(w http.ResponseWriter, req *http.Request) {
	identity, ok := middleware.IdentityFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	var body SOWRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if body.Title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}

	sow, err := body.toModel()
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid pricing roles")
		return
	}

	created, err := r.engine.CreateDraft(sow, identity)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// listSOWs returns the latest revision of every lineage
func (r *Router) listSOWs(w http.ResponseWriter, req *http.Request) {
	var sows []models.SOW
	q := r.db.Where("is_latest = ?", true).Order("updated_at DESC").Limit(100)
	if status := req.URL.Query().Get("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&sows).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch SOWs")
		return
	}
	respondJSON(w, http.StatusOK, sows)
}

// getSOW returns one revision
func (r *Router) getSOW(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	var sow models.SOW
	if err := r.db.First(&sow, "sow_id = ?", id).Error; err != nil {
		respondError(w, http.StatusNotFound, "SOW not found")
		return
	}
	respondJSON(w, http.StatusOK, sow)
}

// updateSOW replaces a draft's content
func (r *Router) updateSOW(w http.ResponseWriter, req *http.Request) {
	identity, ok := middleware.IdentityFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	var body SOWRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	patch, err := body.toModel()
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid pricing roles")
		return
	}

	updated, changes, err := r.engine.UpdateDraft(mux.Vars(req)["id"], identity, patch)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sow":     updated,
		"changes": changes,
	})
}

// listRevisions returns the document's full lineage, oldest first
func (r *Router) listRevisions(w http.ResponseWriter, req *http.Request) {
	revisions, err := r.engine.Revisions(mux.Vars(req)["id"])
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, revisions)
}

// listStages returns the active approval stages (read-only reference data)
func (r *Router) listStages(w http.ResponseWriter, req *http.Request) {
	var stages []models.ApprovalStage
	if err := r.db.Where("is_active = ?", true).Order("sort_order ASC").Find(&stages).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch stages")
		return
	}
	respondJSON(w, http.StatusOK, stages)
}

// diffSOWs compares two revisions of the same lineage
func (r *Router) diffSOWs(w http.ResponseWriter, req *http.Request) {
	aID := req.URL.Query().Get("a")
	bID := req.URL.Query().Get("b")
	if aID == "" || bID == "" {
		respondError(w, http.StatusBadRequest, "Query parameters a and b are required")
		return
	}

	records, err := r.engine.Diff(aID, bID)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	if records == nil {
		records = []workflow.ChangeRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}
