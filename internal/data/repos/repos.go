package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/leancanvas-backend/internal/data/repos/auth"
	"github.com/yungbote/leancanvas-backend/internal/data/repos/canvas"
	"github.com/yungbote/leancanvas-backend/internal/data/repos/research"
	"github.com/yungbote/leancanvas-backend/internal/data/repos/user"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type ProjectRepo = canvas.ProjectRepo
type MembershipRepo = canvas.MembershipRepo
type EditHistoryRepo = canvas.EditHistoryRepo
type DetailsRepo = canvas.DetailsRepo

type ResearchResultRepo = research.ResearchResultRepo
type InterviewNoteRepo = research.InterviewNoteRepo
type DocumentRepo = research.DocumentRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return canvas.NewProjectRepo(db, baseLog)
}

func NewMembershipRepo(db *gorm.DB, baseLog *logger.Logger) MembershipRepo {
	return canvas.NewMembershipRepo(db, baseLog)
}

func NewEditHistoryRepo(db *gorm.DB, baseLog *logger.Logger) EditHistoryRepo {
	return canvas.NewEditHistoryRepo(db, baseLog)
}

func NewDetailsRepo(db *gorm.DB, baseLog *logger.Logger) DetailsRepo {
	return canvas.NewDetailsRepo(db, baseLog)
}

func NewResearchResultRepo(db *gorm.DB, baseLog *logger.Logger) ResearchResultRepo {
	return research.NewResearchResultRepo(db, baseLog)
}

func NewInterviewNoteRepo(db *gorm.DB, baseLog *logger.Logger) InterviewNoteRepo {
	return research.NewInterviewNoteRepo(db, baseLog)
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return research.NewDocumentRepo(db, baseLog)
}
