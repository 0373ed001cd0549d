package workflow

import (
	"strings"
	"testing"

	"github.com/xelth-com/sowflow/internal/models"
)

func requirementByKey(t *testing.T, reqs []StageRequirement, key string) StageRequirement {
	t.Helper()
	for _, req := range reqs {
		if req.Stage.Key == key {
			return req
		}
	}
	t.Fatalf("no requirement for stage %q", key)
	return StageRequirement{}
}

func TestEvaluateStageRequirements_SmallSOW(t *testing.T) {
	store := newMemStore(testStages())
	sow := seedDraft(t, store, []string{"prod-a", "prod-b"}, []models.PricingRole{
		{RoleID: "dev", Units: 25.0},
		{RoleID: "qa", Units: 15.0},
	})

	reqs := EvaluateStageRequirements(sow, testStages(), testWorkflowConfig())
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requirements, got %d", len(reqs))
	}

	if req := requirementByKey(t, reqs, models.StageIntake); !req.Required {
		t.Error("intake must always be required")
	}
	if req := requirementByKey(t, reqs, models.StageLeadership); !req.Required {
		t.Error("leadership must always be required")
	}
	if req := requirementByKey(t, reqs, models.StageProjectManagement); req.Required {
		t.Errorf("PM stage should not be required for 2 products / 40 units, reason: %s", req.Reason)
	}
}

func TestEvaluateStageRequirements_ThreeProducts(t *testing.T) {
	store := newMemStore(testStages())
	sow := seedDraft(t, store, []string{"prod-a", "prod-b", "prod-c"}, nil)

	req := requirementByKey(t, EvaluateStageRequirements(sow, testStages(), testWorkflowConfig()), models.StageProjectManagement)
	if !req.Required {
		t.Fatal("PM stage should be required with 3 distinct products")
	}
	if !strings.Contains(req.Reason, "3+ products") {
		t.Errorf("reason should reference the product threshold, got %q", req.Reason)
	}
}

func TestEvaluateStageRequirements_HundredUnits(t *testing.T) {
	store := newMemStore(testStages())
	sow := seedDraft(t, store, []string{"prod-a", "prod-b"}, []models.PricingRole{
		{RoleID: "dev", Units: 60.0},
		{RoleID: "qa", Units: 40.0},
	})

	req := requirementByKey(t, EvaluateStageRequirements(sow, testStages(), testWorkflowConfig()), models.StageProjectManagement)
	if !req.Required {
		t.Fatal("PM stage should be required at 100 total units")
	}
	if !strings.Contains(req.Reason, "100+ units") {
		t.Errorf("reason should reference the unit threshold, got %q", req.Reason)
	}
}

func TestEvaluateStageRequirements_ExcludedProductNotCounted(t *testing.T) {
	store := newMemStore(testStages())
	// Three products, but one is the excluded no-cost add-on.
	sow := seedDraft(t, store, []string{"prod-a", "prod-b", "prod-free-addon"}, nil)

	req := requirementByKey(t, EvaluateStageRequirements(sow, testStages(), testWorkflowConfig()), models.StageProjectManagement)
	if req.Required {
		t.Errorf("excluded product must not count toward the threshold, reason: %s", req.Reason)
	}
}

func TestEvaluateStageRequirements_UnitParsing(t *testing.T) {
	store := newMemStore(testStages())
	// Numeric strings parse; garbage and missing units count as zero.
	sow := seedDraft(t, store, []string{"prod-a"}, []models.PricingRole{
		{RoleID: "dev", Units: "80"},
		{RoleID: "qa", Units: "twenty"},
		{RoleID: "pm", Units: nil},
		{RoleID: "ops", Units: 20.0},
	})

	if got := sow.TotalUnits(); got != 100 {
		t.Fatalf("expected 100 units, got %v", got)
	}
	req := requirementByKey(t, EvaluateStageRequirements(sow, testStages(), testWorkflowConfig()), models.StageProjectManagement)
	if !req.Required {
		t.Error("string units must contribute to the threshold")
	}
}

func TestEvaluateStageRequirements_Deterministic(t *testing.T) {
	store := newMemStore(testStages())
	sow := seedDraft(t, store, []string{"prod-a", "prod-b"}, []models.PricingRole{{RoleID: "dev", Units: 40.0}})

	first := EvaluateStageRequirements(sow, testStages(), testWorkflowConfig())
	second := EvaluateStageRequirements(sow, testStages(), testWorkflowConfig())
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Required != second[i].Required || first[i].Reason != second[i].Reason {
			t.Errorf("evaluation not deterministic at index %d", i)
		}
	}

	// Changing content may only move the PM stage, never the other two.
	sow.Products = append(sow.Products, "prod-c", "prod-d")
	third := EvaluateStageRequirements(sow, testStages(), testWorkflowConfig())
	if !requirementByKey(t, third, models.StageIntake).Required {
		t.Error("intake flipped after content change")
	}
	if !requirementByKey(t, third, models.StageLeadership).Required {
		t.Error("leadership flipped after content change")
	}
	if !requirementByKey(t, third, models.StageProjectManagement).Required {
		t.Error("PM stage should become required after adding products")
	}
}

func TestEvaluateStageRequirements_OrderAndInactive(t *testing.T) {
	stages := testStages()
	// Shuffle input order and deactivate leadership.
	stages[0], stages[2] = stages[2], stages[0]
	stages[stageIndex(stages, models.StageLeadership)].IsActive = false

	store := newMemStore(stages)
	sow := seedDraft(t, store, []string{"prod-a"}, nil)

	reqs := EvaluateStageRequirements(sow, stages, testWorkflowConfig())
	if len(reqs) != 2 {
		t.Fatalf("inactive stages must be excluded, got %d entries", len(reqs))
	}
	if reqs[0].Stage.Key != models.StageIntake || reqs[1].Stage.Key != models.StageProjectManagement {
		t.Errorf("requirements not in sort order: %s, %s", reqs[0].Stage.Key, reqs[1].Stage.Key)
	}
}

func stageIndex(stages []models.ApprovalStage, key string) int {
	for i := range stages {
		if stages[i].Key == key {
			return i
		}
	}
	return -1
}
