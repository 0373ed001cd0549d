package database

import (
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/xelth-com/sowflow/internal/models"
)

// SeedStages inserts the standard approval stages when the table is empty.
// Stage administration happens elsewhere; this only bootstraps a fresh
// database.
func (db *DB) SeedStages() error {
	var count int64
	if err := db.Model(&models.ApprovalStage{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	stages := []models.ApprovalStage{
		{ID: uuid.NewString(), Key: models.StageIntake, Name: "Intake Review", SortOrder: 1, RequiresComment: false, IsActive: true},
		{ID: uuid.NewString(), Key: models.StageProjectManagement, Name: "Project Management", SortOrder: 2, RequiresComment: true, IsActive: true},
		{ID: uuid.NewString(), Key: models.StageLeadership, Name: "Leadership Sign-off", SortOrder: 3, RequiresComment: false, IsActive: true},
	}
	if err := db.Create(&stages).Error; err != nil {
		return err
	}
	log.Infof("seeded %d approval stages", len(stages))
	return nil
}
