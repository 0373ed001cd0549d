package workflow

import (
	"fmt"
	"sort"

	"github.com/xelth-com/sowflow/internal/config"
	"github.com/xelth-com/sowflow/internal/models"
)

// StageRequirement says whether a stage applies to a given submission. It is
// derived from document content, computed fresh on every submission, and
// never cached on the document.
type StageRequirement struct {
	Stage    models.ApprovalStage `json:"stage"`
	Required bool                 `json:"required"`
	Reason   string               `json:"reason"`
}

// RequiresPMApproval decides whether the project-management stage applies.
// Pure function over the in-memory document: the excluded no-cost add-on is
// dropped from the product count, and pricing-role units that are missing or
// non-numeric count as zero.
func RequiresPMApproval(sow *models.SOW, cfg config.WorkflowConfig) (bool, string) {
	productCount := 0
	for _, p := range sow.Products {
		if p != cfg.ExcludedProductID {
			productCount++
		}
	}
	totalUnits := sow.TotalUnits()

	if productCount >= cfg.PMProductThreshold {
		return true, fmt.Sprintf("%d+ products on the SOW (%d counted after exclusions)", cfg.PMProductThreshold, productCount)
	}
	if totalUnits >= cfg.PMUnitThreshold {
		return true, fmt.Sprintf("%.0f+ units across pricing roles (%.0f total)", cfg.PMUnitThreshold, totalUnits)
	}
	return false, fmt.Sprintf("fewer than %d products and under %.0f units", cfg.PMProductThreshold, cfg.PMUnitThreshold)
}

// EvaluateStageRequirements maps document content to the stage set for a
// submission: one entry per active stage, in sort order. Pure and
// deterministic, so the same evaluation can be replayed for audit display.
func EvaluateStageRequirements(sow *models.SOW, stages []models.ApprovalStage, cfg config.WorkflowConfig) []StageRequirement {
	ordered := make([]models.ApprovalStage, 0, len(stages))
	for _, st := range stages {
		if st.IsActive {
			ordered = append(ordered, st)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SortOrder < ordered[j].SortOrder
	})

	reqs := make([]StageRequirement, 0, len(ordered))
	for _, st := range ordered {
		req := StageRequirement{Stage: st}
		switch st.Key {
		case models.StageIntake:
			req.Required = true
			req.Reason = "intake review is always required"
		case models.StageLeadership:
			req.Required = true
			req.Reason = "leadership sign-off is always required"
		case models.StageProjectManagement:
			req.Required, req.Reason = RequiresPMApproval(sow, cfg)
		default:
			req.Required = false
			req.Reason = fmt.Sprintf("no rule applies to stage %q", st.Key)
		}
		reqs = append(reqs, req)
	}
	return reqs
}

// StageRequirements is the read-only preview operation for the UI: it loads
// the document and active stages, then delegates to the pure evaluator.
func (e *Engine) StageRequirements(sowID string) ([]StageRequirement, error) {
	sow, err := e.store.GetSOW(sowID)
	if err != nil {
		return nil, err
	}
	if sow == nil {
		return nil, &NotFoundError{Entity: "sow", ID: sowID}
	}
	stages, err := e.store.ActiveStages()
	if err != nil {
		return nil, err
	}
	return EvaluateStageRequirements(sow, stages, e.cfg), nil
}
