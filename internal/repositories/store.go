package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/sowflow/internal/models"
	"github.com/xelth-com/sowflow/internal/workflow"
)

// GormStore implements workflow.Store on top of gorm/Postgres. Inside a
// transaction, document reads take a row lock so completion checks and
// revision minting serialize per lineage.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

var _ workflow.Store = (*GormStore)(nil)

// NewGormStore wraps a gorm connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetSOW(id string) (*models.SOW, error) {
	q := s.db
	if s.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var sow models.SOW
	err := q.First(&sow, "sow_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch sow %s: %w", id, err)
	}
	return &sow, nil
}

func (s *GormStore) Lineage(rootID string) ([]models.SOW, error) {
	var sows []models.SOW
	err := s.db.Where("root_id = ?", rootID).Order("version ASC").Find(&sows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch lineage %s: %w", rootID, err)
	}
	return sows, nil
}

func (s *GormStore) MaxVersion(rootID string) (int, error) {
	var max int
	err := s.db.Model(&models.SOW{}).
		Where("root_id = ?", rootID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("max version for lineage %s: %w", rootID, err)
	}
	return max, nil
}

func (s *GormStore) CreateSOW(sow *models.SOW) error {
	err := s.db.Create(sow).Error
	// The unique (root_id, version) index is the backstop for revision
	// races; surface violations as the retryable workflow error.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &workflow.ConcurrentRevisionError{RootID: sow.RootID}
	}
	return err
}

func (s *GormStore) SaveSOW(sow *models.SOW) error {
	return s.db.Save(sow).Error
}

func (s *GormStore) ClearLatest(rootID string) error {
	return s.db.Model(&models.SOW{}).
		Where("root_id = ?", rootID).
		Update("is_latest", false).Error
}

func (s *GormStore) ActiveStages() ([]models.ApprovalStage, error) {
	var stages []models.ApprovalStage
	err := s.db.Where("is_active = ?", true).Order("sort_order ASC").Find(&stages).Error
	if err != nil {
		return nil, fmt.Errorf("fetch active stages: %w", err)
	}
	return stages, nil
}

func (s *GormStore) GetStage(id string) (*models.ApprovalStage, error) {
	var stage models.ApprovalStage
	err := s.db.First(&stage, "stage_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch stage %s: %w", id, err)
	}
	return &stage, nil
}

func (s *GormStore) GetApproval(id string) (*models.Approval, error) {
	var approval models.Approval
	err := s.db.First(&approval, "approval_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch approval %s: %w", id, err)
	}
	return &approval, nil
}

func (s *GormStore) ApprovalsForSOW(sowID string) ([]models.Approval, error) {
	var approvals []models.Approval
	err := s.db.Preload("Stage").
		Where("sow_id = ?", sowID).
		Order("created_at ASC").
		Find(&approvals).Error
	if err != nil {
		return nil, fmt.Errorf("fetch approvals for sow %s: %w", sowID, err)
	}
	return approvals, nil
}

func (s *GormStore) CreateApprovals(approvals []models.Approval) error {
	if len(approvals) == 0 {
		return nil
	}
	return s.db.Create(&approvals).Error
}

func (s *GormStore) SaveApproval(approval *models.Approval) error {
	// Stage is a read-only join; never write it back through Save.
	return s.db.Omit("Stage").Save(approval).Error
}

func (s *GormStore) DeleteApprovalsForSOW(sowID string) error {
	return s.db.Where("sow_id = ?", sowID).Delete(&models.Approval{}).Error
}

func (s *GormStore) AppendChangelog(entry *models.ChangelogEntry) error {
	return s.db.Create(entry).Error
}

func (s *GormStore) ChangelogForSOW(sowID string) ([]models.ChangelogEntry, error) {
	var entries []models.ChangelogEntry
	err := s.db.Where("sow_id = ?", sowID).Order("created_at ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("fetch changelog for sow %s: %w", sowID, err)
	}
	return entries, nil
}

func (s *GormStore) Transaction(fn func(workflow.Store) error) error {
	if s.inTx {
		// Nested call reuses the open transaction.
		return fn(s)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}
