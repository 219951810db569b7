package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/leancanvas-backend/internal/data/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/data/repos"
	types "github.com/yungbote/leancanvas-backend/internal/domain"
	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/domain/research"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
	"github.com/yungbote/leancanvas-backend/internal/platform/validate"
)

type CreateInterviewNoteInput struct {
	ProjectID       int64                  `json:"project_id"`
	UserID          int64                  `json:"user_id"`
	IntervieweeName string                 `json:"interviewee_name" validate:"required,max=255"`
	InterviewDate   time.Time              `json:"interview_date" validate:"required"`
	InterviewType   research.InterviewType `json:"interview_type" validate:"required,oneof=hypothesis_testing deep_dive"`
	InterviewNote   string                 `json:"interview_note" validate:"required"`
}

type CreateDocumentInput struct {
	ProjectID   int64               `json:"project_id"`
	UserID      int64               `json:"user_id"`
	FileName    string              `json:"file_name" validate:"required,max=255"`
	SourceType  research.SourceType `json:"source_type" validate:"required,oneof=Customer Company Competitor Macrotrend"`
	ContentText string              `json:"content_text"`
}

// ResearchService manages the auxiliary artifacts attached to a project.
type ResearchService interface {
	CreateInterviewNote(ctx context.Context, in CreateInterviewNoteInput) (*types.InterviewNote, error)
	ListInterviewNotes(ctx context.Context, projectID, userID int64) ([]*types.InterviewNote, error)
	GetInterviewNote(ctx context.Context, projectID, noteID, userID int64) (*types.InterviewNote, error)
	DeleteInterviewNote(ctx context.Context, projectID, noteID, userID int64) error

	CreateDocument(ctx context.Context, in CreateDocumentInput) (*types.Document, error)
	ListDocuments(ctx context.Context, projectID, userID int64) ([]*types.Document, error)
	DeleteDocument(ctx context.Context, projectID, documentID, userID int64) error

	ListResearchResults(ctx context.Context, projectID, userID int64) ([]*types.ResearchResult, error)
	DeleteResearchResult(ctx context.Context, projectID, researchID, userID int64) error
}

type researchService struct {
	db       *gorm.DB
	log      *logger.Logger
	projects repos.ProjectRepo
	members  repos.MembershipRepo
	edits    repos.EditHistoryRepo
	results  repos.ResearchResultRepo
	notes    repos.InterviewNoteRepo
	docs     repos.DocumentRepo
	now      func() time.Time
}

func NewResearchService(
	db *gorm.DB,
	log *logger.Logger,
	projects repos.ProjectRepo,
	members repos.MembershipRepo,
	edits repos.EditHistoryRepo,
	results repos.ResearchResultRepo,
	notes repos.InterviewNoteRepo,
	docs repos.DocumentRepo,
) ResearchService {
	return &researchService{
		db:       db,
		log:      log.With("service", "ResearchService"),
		projects: projects,
		members:  members,
		edits:    edits,
		results:  results,
		notes:    notes,
		docs:     docs,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *researchService) CreateInterviewNote(ctx context.Context, in CreateInterviewNoteInput) (*types.InterviewNote, error) {
	const op = "Research.CreateInterviewNote"
	in.IntervieweeName = strings.TrimSpace(in.IntervieweeName)
	if err := validate.Struct(in); err != nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	var out *types.InterviewNote
	err := s.inTx(ctx, op, func(dbc dbctx.Context) error {
		if err := requireProjectMember(dbc, op, s.projects, s.members, in.ProjectID, in.UserID); err != nil {
			return err
		}
		note := &types.InterviewNote{
			ProjectID:       in.ProjectID,
			EditID:          s.latestEditID(dbc, in.ProjectID),
			UserID:          in.UserID,
			IntervieweeName: in.IntervieweeName,
			InterviewDate:   in.InterviewDate.UTC(),
			InterviewType:   in.InterviewType,
			InterviewNote:   in.InterviewNote,
			CreatedAt:       s.now(),
		}
		if _, err := s.notes.Create(dbc, []*types.InterviewNote{note}); err != nil {
			return err
		}
		out = note
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("interview note created", "project_id", in.ProjectID, "note_id", out.ID)
	return out, nil
}

func (s *researchService) ListInterviewNotes(ctx context.Context, projectID, userID int64) ([]*types.InterviewNote, error) {
	const op = "Research.ListInterviewNotes"
	var out []*types.InterviewNote
	err := readSnapshot(ctx, s.db, op, func(dbc dbctx.Context) error {
		if err := requireProjectMember(dbc, op, s.projects, s.members, projectID, userID); err != nil {
			return err
		}
		var err error
		out, err = s.notes.ListByProject(dbc, projectID)
		return err
	})
	return out, err
}

func (s *researchService) GetInterviewNote(ctx context.Context, projectID, noteID, userID int64) (*types.InterviewNote, error) {
	const op = "Research.GetInterviewNote"
	var out *types.InterviewNote
	err := readSnapshot(ctx, s.db, op, func(dbc dbctx.Context) error {
		if err := requireProjectMember(dbc, op, s.projects, s.members, projectID, userID); err != nil {
			return err
		}
		n, err := s.notes.GetByID(dbc, projectID, noteID)
		if err != nil {
			return err
		}
		if n == nil {
			return domainagg.Errorf(domainagg.CodeNotFound, op, "interview note %d not found", noteID)
		}
		out = n
		return nil
	})
	return out, err
}

func (s *researchService) DeleteInterviewNote(ctx context.Context, projectID, noteID, userID int64) error {
	const op = "Research.DeleteInterviewNote"
	return s.inTx(ctx, op, func(dbc dbctx.Context) error {
		if err := requireProjectMember(dbc, op, s.projects, s.members, projectID, userID); err != nil {
			return err
		}
		ok, err := s.notes.Delete(dbc, projectID, noteID)
		if err != nil {
			return err
		}
		if !ok {
			return domainagg.Errorf(domainagg.CodeNotFound, op, "interview note %d not found", noteID)
		}
		return nil
	})
}

func (s *researchService) CreateDocument(ctx context.Context, in CreateDocumentInput) (*types.Document, error) {
	const op = "Research.CreateDocument"
	in.FileName = strings.TrimSpace(in.FileName)
	if err := validate.Struct(in); err != nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	var out *types.Document
	err := s.inTx(ctx, op, func(dbc dbctx.Context) error {
		if err := requireProjectMember(dbc, op, s.projects, s.members, in.ProjectID, in.UserID); err != nil {
			return err
		}
		doc := &types.Document{
			ProjectID:   in.ProjectID,
			UserID:      in.UserID,
			FileName:    in.FileName,
			SourceType:  in.SourceType,
			ContentText: in.ContentText,
			CreatedAt:   s.now(),
		}
		if _, err := s.docs.Create(dbc, []*types.Document{doc}); err != nil {
			return err
		}
		out = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("document stored", "project_id", in.ProjectID, "document_id", out.ID, "bytes", len(in.ContentText))
	return out, nil
}

func (s *researchService) ListDocuments(ctx context.Context, projectID, userID int64) ([]*types.Document, error) {
	const op = "Research.ListDocuments"
	var out []*types.Document
	err := readSnapshot(ctx, s.db, op, func(dbc dbctx.Context) error {
		if err := requireProjectMember(dbc, op, s.projects, s.members, projectID, userID); err != nil {
			return err
		}
		var err error
		out, err = s.docs.ListByProject(dbc, projectID)
		return err
	})
	return out, err
}

func (s *researchService) DeleteDocument(ctx context.Context, projectID, documentID, userID int64) error {
	const op = "Research.DeleteDocument"
	return s.inTx(ctx, op, func(dbc dbctx.Context) error {
		if err := requireProjectMember(dbc, op, s.projects, s.members, projectID, userID); err != nil {
			return err
		}
		ok, err := s.docs.Delete(dbc, projectID, documentID)
		if err != nil {
			return err
		}
		if !ok {
			return domainagg.Errorf(domainagg.CodeNotFound, op, "document %d not found", documentID)
		}
		return nil
	})
}

func (s *researchService) ListResearchResults(ctx context.Context, projectID, userID int64) ([]*types.ResearchResult, error) {
	const op = "Research.ListResults"
	var out []*types.ResearchResult
	err := readSnapshot(ctx, s.db, op, func(dbc dbctx.Context) error {
		if err := requireProjectMember(dbc, op, s.projects, s.members, projectID, userID); err != nil {
			return err
		}
		var err error
		out, err = s.results.ListByProject(dbc, projectID)
		return err
	})
	return out, err
}

func (s *researchService) DeleteResearchResult(ctx context.Context, projectID, researchID, userID int64) error {
	const op = "Research.DeleteResult"
	return s.inTx(ctx, op, func(dbc dbctx.Context) error {
		if err := requireProjectMember(dbc, op, s.projects, s.members, projectID, userID); err != nil {
			return err
		}
		ok, err := s.results.Delete(dbc, projectID, researchID)
		if err != nil {
			return err
		}
		if !ok {
			return domainagg.Errorf(domainagg.CodeNotFound, op, "research result %d not found", researchID)
		}
		return nil
	})
}

// latestEditID links a new artifact to the version it was recorded against.
func (s *researchService) latestEditID(dbc dbctx.Context, projectID int64) *int64 {
	e, err := s.edits.Latest(dbc, projectID)
	if err != nil || e == nil {
		return nil
	}
	id := e.ID
	return &id
}

func (s *researchService) inTx(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
	return aggregates.MapError(op, err)
}
