package workflow

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/xelth-com/sowflow/internal/config"
	"github.com/xelth-com/sowflow/internal/models"
)

// memStore is an in-memory Store for engine tests. Tests are
// single-goroutine, so Transaction just runs the closure; precondition
// failures happen before any write, which is all the rollback coverage the
// engine tests need.
type memStore struct {
	sows      map[string]*models.SOW
	stages    []models.ApprovalStage
	approvals map[string]*models.Approval
	changelog []models.ChangelogEntry
}

func newMemStore(stages []models.ApprovalStage) *memStore {
	return &memStore{
		sows:      make(map[string]*models.SOW),
		stages:    stages,
		approvals: make(map[string]*models.Approval),
	}
}

func (m *memStore) GetSOW(id string) (*models.SOW, error) {
	sow, ok := m.sows[id]
	if !ok {
		return nil, nil
	}
	copied := *sow
	return &copied, nil
}

func (m *memStore) Lineage(rootID string) ([]models.SOW, error) {
	var out []models.SOW
	for _, sow := range m.sows {
		if sow.RootID == rootID {
			out = append(out, *sow)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (m *memStore) MaxVersion(rootID string) (int, error) {
	max := 0
	for _, sow := range m.sows {
		if sow.RootID == rootID && sow.Version > max {
			max = sow.Version
		}
	}
	return max, nil
}

func (m *memStore) CreateSOW(sow *models.SOW) error {
	copied := *sow
	m.sows[sow.ID] = &copied
	return nil
}

func (m *memStore) SaveSOW(sow *models.SOW) error {
	copied := *sow
	m.sows[sow.ID] = &copied
	return nil
}

func (m *memStore) ClearLatest(rootID string) error {
	for _, sow := range m.sows {
		if sow.RootID == rootID {
			sow.IsLatest = false
		}
	}
	return nil
}

func (m *memStore) ActiveStages() ([]models.ApprovalStage, error) {
	return append([]models.ApprovalStage{}, m.stages...), nil
}

func (m *memStore) GetStage(id string) (*models.ApprovalStage, error) {
	for i := range m.stages {
		if m.stages[i].ID == id {
			copied := m.stages[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetApproval(id string) (*models.Approval, error) {
	approval, ok := m.approvals[id]
	if !ok {
		return nil, nil
	}
	copied := *approval
	return &copied, nil
}

func (m *memStore) ApprovalsForSOW(sowID string) ([]models.Approval, error) {
	var out []models.Approval
	for _, approval := range m.approvals {
		if approval.SOWID == sowID {
			out = append(out, *approval)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateApprovals(approvals []models.Approval) error {
	for i := range approvals {
		copied := approvals[i]
		m.approvals[copied.ID] = &copied
	}
	return nil
}

func (m *memStore) SaveApproval(approval *models.Approval) error {
	copied := *approval
	m.approvals[approval.ID] = &copied
	return nil
}

func (m *memStore) DeleteApprovalsForSOW(sowID string) error {
	for id, approval := range m.approvals {
		if approval.SOWID == sowID {
			delete(m.approvals, id)
		}
	}
	return nil
}

func (m *memStore) AppendChangelog(entry *models.ChangelogEntry) error {
	m.changelog = append(m.changelog, *entry)
	return nil
}

func (m *memStore) ChangelogForSOW(sowID string) ([]models.ChangelogEntry, error) {
	var out []models.ChangelogEntry
	for _, entry := range m.changelog {
		if entry.SOWID == sowID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *memStore) Transaction(fn func(Store) error) error {
	return fn(m)
}

var _ Store = (*memStore)(nil)

// --- shared test fixtures ---

const (
	stageIntakeID = "stage-intake"
	stagePMID     = "stage-pm"
	stageLeadID   = "stage-lead"
)

func testStages() []models.ApprovalStage {
	return []models.ApprovalStage{
		{ID: stageIntakeID, Key: models.StageIntake, Name: "Intake Review", SortOrder: 1, IsActive: true},
		{ID: stagePMID, Key: models.StageProjectManagement, Name: "Project Management", SortOrder: 2, RequiresComment: true, IsActive: true},
		{ID: stageLeadID, Key: models.StageLeadership, Name: "Leadership Sign-off", SortOrder: 3, IsActive: true},
	}
}

func testWorkflowConfig() config.WorkflowConfig {
	return config.WorkflowConfig{
		ExcludedProductID:  "prod-free-addon",
		PMProductThreshold: 3,
		PMUnitThreshold:    100,
	}
}

func newTestEngine(t *testing.T) (*Engine, *memStore) {
	t.Helper()
	store := newMemStore(testStages())
	return NewEngine(store, testWorkflowConfig()), store
}

func pricingJSON(t *testing.T, roles []models.PricingRole) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(roles)
	if err != nil {
		t.Fatalf("marshal pricing roles: %v", err)
	}
	return datatypes.JSON(raw)
}

// seedDraft inserts a root draft directly into the store.
func seedDraft(t *testing.T, store *memStore, products []string, roles []models.PricingRole) *models.SOW {
	t.Helper()
	id := uuid.NewString()
	sow := &models.SOW{
		ID:       id,
		RootID:   id,
		Version:  1,
		IsLatest: true,
		Title:    "Implementation SOW",
		Status:   models.SOWStatusDraft,
		AuthorID: "author-1",
		Products: pq.StringArray(products),
	}
	if roles != nil {
		sow.PricingRoles = pricingJSON(t, roles)
	}
	if err := store.CreateSOW(sow); err != nil {
		t.Fatalf("seed draft: %v", err)
	}
	return sow
}

func approvalByStage(t *testing.T, store *memStore, sowID, stageID string) *models.Approval {
	t.Helper()
	approvals, err := store.ApprovalsForSOW(sowID)
	if err != nil {
		t.Fatalf("fetch approvals: %v", err)
	}
	for i := range approvals {
		if approvals[i].StageID == stageID {
			return &approvals[i]
		}
	}
	t.Fatalf("no approval for stage %s on sow %s", stageID, sowID)
	return nil
}
