package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/leancanvas-backend/internal/data/repos"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo

	Project     repos.ProjectRepo
	Membership  repos.MembershipRepo
	EditHistory repos.EditHistoryRepo
	Details     repos.DetailsRepo

	ResearchResult repos.ResearchResultRepo
	InterviewNote  repos.InterviewNoteRepo
	Document       repos.DocumentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:           repos.NewUserRepo(db, log),
		UserToken:      repos.NewUserTokenRepo(db, log),
		Project:        repos.NewProjectRepo(db, log),
		Membership:     repos.NewMembershipRepo(db, log),
		EditHistory:    repos.NewEditHistoryRepo(db, log),
		Details:        repos.NewDetailsRepo(db, log),
		ResearchResult: repos.NewResearchResultRepo(db, log),
		InterviewNote:  repos.NewInterviewNoteRepo(db, log),
		Document:       repos.NewDocumentRepo(db, log),
	}
}
