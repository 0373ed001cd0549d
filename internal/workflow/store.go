package workflow

import "github.com/xelth-com/sowflow/internal/models"

// Store is the persistence collaborator. Lookup methods return (nil, nil)
// when the entity does not exist; the engine maps that to NotFoundError.
//
// Transaction runs fn against a store scoped to one atomic unit of work and
// rolls back if fn returns an error. Inside a transaction GetSOW locks the
// document row, so completion checks and revision minting cannot race.
type Store interface {
	GetSOW(id string) (*models.SOW, error)
	Lineage(rootID string) ([]models.SOW, error)
	MaxVersion(rootID string) (int, error)
	CreateSOW(sow *models.SOW) error
	SaveSOW(sow *models.SOW) error
	ClearLatest(rootID string) error

	ActiveStages() ([]models.ApprovalStage, error)
	GetStage(id string) (*models.ApprovalStage, error)

	GetApproval(id string) (*models.Approval, error)
	ApprovalsForSOW(sowID string) ([]models.Approval, error)
	CreateApprovals(approvals []models.Approval) error
	SaveApproval(approval *models.Approval) error
	DeleteApprovalsForSOW(sowID string) error

	AppendChangelog(entry *models.ChangelogEntry) error
	ChangelogForSOW(sowID string) ([]models.ChangelogEntry, error)

	Transaction(fn func(Store) error) error
}

// Identity is the authenticated actor supplied by the request layer. The
// engine trusts it and only performs role checks against it.
type Identity struct {
	ActorID string `json:"actorId"`
	Role    string `json:"role"`
	Email   string `json:"email"`
}

// Notifier is the fire-and-forget notification collaborator. Implementations
// must swallow and log their own failures; the engine never blocks on them.
type Notifier interface {
	Notify(event string, payload map[string]interface{})
}

// ReminderScheduler tracks approvals that sit pending too long.
type ReminderScheduler interface {
	ScheduleForSOW(sow *models.SOW, approvals []models.Approval)
	ClearForSOW(sowID string)
}
