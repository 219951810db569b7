package db

import (
	types "github.com/yungbote/leancanvas-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// =========================
		// Identity + auth
		// =========================
		&types.User{},
		&types.UserToken{},

		// =========================
		// Projects + version history
		// =========================
		&types.Project{},
		&types.ProjectMembership{},
		&types.EditRecord{},
		&types.CanvasVersion{},

		// =========================
		// Research artifacts
		// =========================
		&types.ResearchResult{},
		&types.InterviewNote{},
		&types.Document{},
	)
}
