package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/xelth-com/sowflow/internal/models"
)

// CreateDraft mints the root revision of a new lineage.
func (e *Engine) CreateDraft(sow *models.SOW, actor Identity) (*models.SOW, error) {
	sow.ID = uuid.NewString()
	sow.ParentID = nil
	sow.RootID = sow.ID
	sow.Version = 1
	sow.IsLatest = true
	sow.Status = models.SOWStatusDraft
	sow.AuthorID = actor.ActorID
	clearWorkflowMetadata(sow)

	err := e.store.Transaction(func(tx Store) error {
		if err := tx.CreateSOW(sow); err != nil {
			return fmt.Errorf("create sow: %w", err)
		}
		return e.appendEntry(tx, sow.ID, "version", models.ChangeVersionCreated, nil, sow.Version, actor.ActorID)
	})
	if err != nil {
		return nil, err
	}
	return sow, nil
}

// mintRevision creates the next revision of source's lineage inside an
// already-open transaction. It guarantees the single-latest and
// monotonic-version invariants: the version is re-checked after the insert,
// and the unique (root_id, version) index backstops the race either way.
func (e *Engine) mintRevision(tx Store, source *models.SOW, actorID string) (*models.SOW, error) {
	rootID := source.LineageRoot()

	maxVersion, err := tx.MaxVersion(rootID)
	if err != nil {
		return nil, fmt.Errorf("lineage version lookup: %w", err)
	}

	next := copyContent(source)
	next.ID = uuid.NewString()
	next.ParentID = &rootID
	next.RootID = rootID
	next.Version = maxVersion + 1
	next.IsLatest = true
	next.Status = models.SOWStatusDraft
	next.AuthorID = actorID
	clearWorkflowMetadata(next)

	if err := tx.ClearLatest(rootID); err != nil {
		return nil, fmt.Errorf("clear latest flag: %w", err)
	}
	if err := tx.CreateSOW(next); err != nil {
		return nil, err
	}

	// Compare-and-swap re-check: if another transaction slipped a revision
	// in, the max is no longer ours and the whole unit rolls back.
	latestVersion, err := tx.MaxVersion(rootID)
	if err != nil {
		return nil, fmt.Errorf("lineage version re-check: %w", err)
	}
	if latestVersion != next.Version {
		return nil, &ConcurrentRevisionError{RootID: rootID}
	}

	if err := e.appendEntry(tx, next.ID, "version", models.ChangeVersionCreated, source.Version, next.Version, actorID); err != nil {
		return nil, err
	}
	return next, nil
}

// Revisions returns every revision in the document's lineage, oldest first.
func (e *Engine) Revisions(sowID string) ([]models.SOW, error) {
	sow, err := e.store.GetSOW(sowID)
	if err != nil {
		return nil, err
	}
	if sow == nil {
		return nil, &NotFoundError{Entity: "sow", ID: sowID}
	}
	return e.store.Lineage(sow.LineageRoot())
}

// copyContent duplicates the document's content fields into a fresh record,
// leaving identity and workflow fields for the caller to fill.
func copyContent(src *models.SOW) *models.SOW {
	dst := &models.SOW{
		Title:          src.Title,
		ClientName:     src.ClientName,
		Description:    src.Description,
		TotalValue:     src.TotalValue,
		EffectiveDate:  cloneTime(src.EffectiveDate),
		ExpirationDate: cloneTime(src.ExpirationDate),
	}
	if src.Products != nil {
		dst.Products = append(pq.StringArray{}, src.Products...)
	}
	if len(src.PricingRoles) > 0 {
		dst.PricingRoles = append(dst.PricingRoles[:0:0], src.PricingRoles...)
	}
	return dst
}

// clearWorkflowMetadata drops approval/rejection/signature bookkeeping
// inherited from a source revision.
func clearWorkflowMetadata(sow *models.SOW) {
	sow.SubmittedBy = nil
	sow.SubmittedAt = nil
	sow.ApprovedBy = nil
	sow.ApprovedAt = nil
	sow.RejectedBy = nil
	sow.RejectedAt = nil
	sow.ApprovalComments = nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
