package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/xelth-com/sowflow/internal/models"
)

func TestDiffDocuments_ExcludesWorkflowMetadata(t *testing.T) {
	now := time.Now()
	actor := "approver-1"
	a := &models.SOW{ID: "a", Title: "SOW", Status: models.SOWStatusDraft}
	b := &models.SOW{
		ID:          "b",
		Title:       "SOW",
		Status:      models.SOWStatusApproved,
		ApprovedBy:  &actor,
		ApprovedAt:  &now,
		SubmittedBy: &actor,
		SubmittedAt: &now,
	}

	if records := DiffDocuments(a, b); len(records) != 0 {
		t.Errorf("status and approval metadata must not appear in the diff, got %+v", records)
	}
}

func TestDiffDocuments_Symmetry(t *testing.T) {
	a := &models.SOW{
		Title:       "SOW v1",
		Description: "original scope",
		Products:    pq.StringArray{"prod-a"},
		TotalValue:  10000,
	}
	b := &models.SOW{
		Title:       "SOW v2",
		Description: "expanded scope",
		Products:    pq.StringArray{"prod-a", "prod-b"},
		TotalValue:  15000,
	}

	forward := DiffDocuments(a, b)
	backward := DiffDocuments(b, a)
	if len(forward) != len(backward) {
		t.Fatalf("asymmetric diff: %d vs %d records", len(forward), len(backward))
	}
	for i := range forward {
		if forward[i].FieldName != backward[i].FieldName {
			t.Errorf("field order differs: %s vs %s", forward[i].FieldName, backward[i].FieldName)
		}
	}
}

func TestDiffDocuments_Ordering(t *testing.T) {
	a := &models.SOW{Title: "one", ClientName: "Acme", Description: "x", Products: pq.StringArray{"prod-a"}}
	b := &models.SOW{Title: "two", ClientName: "Apex", Description: "y", Products: pq.StringArray{"prod-b"}}

	records := DiffDocuments(a, b)
	want := []string{"clientName", "title", "description", "products"}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, field := range want {
		if records[i].FieldName != field {
			t.Errorf("record %d: expected %s, got %s", i, field, records[i].FieldName)
		}
	}
	// field_update entries sort before content_edit.
	if records[0].ChangeType != models.ChangeFieldUpdate || records[3].ChangeType != models.ChangeContentEdit {
		t.Errorf("change-type precedence violated: %s ... %s", records[0].ChangeType, records[3].ChangeType)
	}
}

func TestDiffDocuments_ProductsComparedAsSet(t *testing.T) {
	a := &models.SOW{Products: pq.StringArray{"prod-a", "prod-b"}}
	b := &models.SOW{Products: pq.StringArray{"prod-b", "prod-a"}}

	if records := DiffDocuments(a, b); len(records) != 0 {
		t.Errorf("product order must not produce a diff, got %+v", records)
	}
}

func TestDiff_UnrelatedLineages(t *testing.T) {
	engine, store := newTestEngine(t)
	a := seedDraft(t, store, []string{"prod-a"}, nil)
	b := seedDraft(t, store, []string{"prod-a"}, nil)

	_, err := engine.Diff(a.ID, b.ID)
	var unrelated *UnrelatedRevisionsError
	if !errors.As(err, &unrelated) {
		t.Fatalf("expected UnrelatedRevisionsError, got %v", err)
	}
}

func TestDiff_AcrossRevisions(t *testing.T) {
	engine, store := newTestEngine(t)
	original := seedDraft(t, store, []string{"prod-a", "prod-b"}, nil)
	actor := Identity{ActorID: "author-1", Role: models.RoleUser}

	if _, err := engine.Submit(original.ID, actor); err != nil {
		t.Fatalf("submit: %v", err)
	}
	fresh, err := engine.Recall(original.ID, actor)
	if err != nil {
		t.Fatalf("recall: %v", err)
	}

	// Same content right after recall: diff must be empty.
	records, err := engine.Diff(original.ID, fresh.ID)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("fresh revision should have no content diff, got %+v", records)
	}

	// Edit the new draft and diff again.
	patch := *fresh
	patch.Title = "Implementation SOW (rev 2)"
	if _, _, err := engine.UpdateDraft(fresh.ID, actor, &patch); err != nil {
		t.Fatalf("update draft: %v", err)
	}
	records, err = engine.Diff(original.ID, fresh.ID)
	if err != nil {
		t.Fatalf("diff after edit: %v", err)
	}
	if len(records) != 1 || records[0].FieldName != "title" {
		t.Fatalf("expected a single title change, got %+v", records)
	}
}
