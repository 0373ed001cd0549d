package workflow

import "fmt"

// Caller-facing error taxonomy. These are deterministic outcomes of the
// workflow rules, never retried internally, and carry enough context to name
// the entity that caused them.

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidStateError reports an operation attempted from a status that
// forbids it.
type InvalidStateError struct {
	Entity    string
	ID        string
	Status    string
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s in status %q", e.Operation, e.Entity, e.ID, e.Status)
}

// PermissionError reports an actor whose role is not authorized for the
// attempted action.
type PermissionError struct {
	ActorID string
	Role    string
	Action  string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("actor %s (role %q) is not authorized to %s", e.ActorID, e.Role, e.Action)
}

// CommentRequiredError reports a stage that mandates a comment which was not
// supplied.
type CommentRequiredError struct {
	StageKey string
}

func (e *CommentRequiredError) Error() string {
	return fmt.Sprintf("stage %q requires a comment for this decision", e.StageKey)
}

// AlreadyApprovedError reports a recall attempted after a stage already
// signed off.
type AlreadyApprovedError struct {
	SOWID   string
	StageID string
}

func (e *AlreadyApprovedError) Error() string {
	return fmt.Sprintf("sow %s cannot be recalled: stage %s already approved", e.SOWID, e.StageID)
}

// AlreadySubmittedError reports a submission of a document that is no longer
// a draft.
type AlreadySubmittedError struct {
	SOWID  string
	Status string
}

func (e *AlreadySubmittedError) Error() string {
	return fmt.Sprintf("sow %s already submitted (status %q)", e.SOWID, e.Status)
}

// ConcurrentRevisionError reports a lineage race: another revision was
// created between the version lookup and the write. The caller may retry the
// whole operation.
type ConcurrentRevisionError struct {
	RootID string
}

func (e *ConcurrentRevisionError) Error() string {
	return fmt.Sprintf("concurrent revision detected for lineage %s", e.RootID)
}

// UnrelatedRevisionsError reports a diff across documents that do not share
// a lineage root.
type UnrelatedRevisionsError struct {
	AID string
	BID string
}

func (e *UnrelatedRevisionsError) Error() string {
	return fmt.Sprintf("sows %s and %s belong to different lineages", e.AID, e.BID)
}
