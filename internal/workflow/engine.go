package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/xelth-com/sowflow/internal/config"
	"github.com/xelth-com/sowflow/internal/models"
)

// Workflow events published to the notification collaborator.
const (
	EventSOWSubmitted = "sow.submitted"
	EventSOWApproved  = "sow.approved"
	EventSOWRejected  = "sow.rejected"
	EventSOWRecalled  = "sow.recalled"
	EventSOWUpdated   = "sow.updated"
)

// DiffSummarizer produces a short human-readable summary of a set of
// changes. Optional; used to enrich notifications.
type DiffSummarizer interface {
	SummarizeDiff(ctx context.Context, records []ChangeRecord) (string, error)
}

// Engine drives the SOW revision and approval workflow. It is
// request-scoped: every public operation runs inside one store transaction
// and holds no state between calls.
type Engine struct {
	store      Store
	cfg        config.WorkflowConfig
	notifier   Notifier
	reminders  ReminderScheduler
	summarizer DiffSummarizer
	log        *log.Entry
}

// NewEngine creates a workflow engine on top of the given store.
func NewEngine(store Store, cfg config.WorkflowConfig) *Engine {
	return &Engine{
		store: store,
		cfg:   cfg,
		log:   log.WithField("component", "workflow"),
	}
}

// SetNotifier registers the notification collaborator.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// SetReminders registers the reminder scheduler.
func (e *Engine) SetReminders(r ReminderScheduler) {
	e.reminders = r
}

// SetSummarizer registers the optional diff summarizer.
func (e *Engine) SetSummarizer(s DiffSummarizer) {
	e.summarizer = s
}

// notify fires an event at the notification collaborator. Best-effort: a nil
// or failing notifier never affects the caller.
func (e *Engine) notify(event string, payload map[string]interface{}) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(event, payload)
}

func (e *Engine) scheduleReminders(sow *models.SOW, approvals []models.Approval) {
	if e.reminders == nil {
		return
	}
	e.reminders.ScheduleForSOW(sow, approvals)
}

func (e *Engine) clearReminders(sowID string) {
	if e.reminders == nil {
		return
	}
	e.reminders.ClearForSOW(sowID)
}

// summarize asks the optional summarizer for a blurb describing records.
// Returns "" when unavailable.
func (e *Engine) summarize(records []ChangeRecord) string {
	if e.summarizer == nil || len(records) == 0 {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	summary, err := e.summarizer.SummarizeDiff(ctx, records)
	if err != nil {
		e.log.WithError(err).Warn("diff summarizer failed, continuing without summary")
		return ""
	}
	return summary
}

// appendEntry writes one changelog row. Values are stored as JSON so the
// audit trail keeps types (arrays, numbers) intact.
func (e *Engine) appendEntry(tx Store, sowID, fieldName, changeType string, prev, next interface{}, userID string) error {
	entry := &models.ChangelogEntry{
		ID:         uuid.NewString(),
		SOWID:      sowID,
		FieldName:  fieldName,
		ChangeType: changeType,
		UserID:     userID,
	}
	if prev != nil {
		raw, err := json.Marshal(prev)
		if err != nil {
			return err
		}
		entry.PreviousValue = datatypes.JSON(raw)
	}
	if next != nil {
		raw, err := json.Marshal(next)
		if err != nil {
			return err
		}
		entry.NewValue = datatypes.JSON(raw)
	}
	return tx.AppendChangelog(entry)
}

// appendStatusChange records a document-level status transition.
func (e *Engine) appendStatusChange(tx Store, sowID, prev, next, userID string) error {
	return e.appendEntry(tx, sowID, "status", models.ChangeStatusChange, prev, next, userID)
}

// Changelog returns the append-only audit history of a document.
func (e *Engine) Changelog(sowID string) ([]models.ChangelogEntry, error) {
	sow, err := e.store.GetSOW(sowID)
	if err != nil {
		return nil, err
	}
	if sow == nil {
		return nil, &NotFoundError{Entity: "sow", ID: sowID}
	}
	return e.store.ChangelogForSOW(sowID)
}

// Approvals returns the approval rows for a document.
func (e *Engine) Approvals(sowID string) ([]models.Approval, error) {
	sow, err := e.store.GetSOW(sowID)
	if err != nil {
		return nil, err
	}
	if sow == nil {
		return nil, &NotFoundError{Entity: "sow", ID: sowID}
	}
	return e.store.ApprovalsForSOW(sowID)
}
