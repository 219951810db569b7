package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/leancanvas-backend/internal/data/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/data/repos"
	types "github.com/yungbote/leancanvas-backend/internal/domain"
	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

// HistoryService answers read-only questions about a project's versions.
// Every read is membership gated and runs in one snapshot.
type HistoryService interface {
	GetLatest(ctx context.Context, projectID, requesterID int64) (*canvas.VersionDetail, error)
	GetVersion(ctx context.Context, projectID int64, version int, requesterID int64) (*canvas.VersionDetail, error)
	ListHistory(ctx context.Context, projectID, requesterID int64) ([]canvas.HistoryEntry, error)
	// Compare diffs two versions by edit id. The requester must belong to both projects.
	Compare(ctx context.Context, editA, editB, requesterID int64) (canvas.Diff, error)
	ListProjects(ctx context.Context, userID int64) ([]canvas.ProjectSummary, error)
}

type historyService struct {
	db       *gorm.DB
	log      *logger.Logger
	projects repos.ProjectRepo
	members  repos.MembershipRepo
	edits    repos.EditHistoryRepo
	details  repos.DetailsRepo
}

func NewHistoryService(
	db *gorm.DB,
	log *logger.Logger,
	projects repos.ProjectRepo,
	members repos.MembershipRepo,
	edits repos.EditHistoryRepo,
	details repos.DetailsRepo,
) HistoryService {
	return &historyService{
		db:       db,
		log:      log.With("service", "HistoryService"),
		projects: projects,
		members:  members,
		edits:    edits,
		details:  details,
	}
}

func (s *historyService) GetLatest(ctx context.Context, projectID, requesterID int64) (*canvas.VersionDetail, error) {
	const op = "History.GetLatest"
	var out *canvas.VersionDetail
	err := readSnapshot(ctx, s.db, op, func(dbc dbctx.Context) error {
		if err := requireProjectMember(dbc, op, s.projects, s.members, projectID, requesterID); err != nil {
			return err
		}
		e, err := s.edits.Latest(dbc, projectID)
		if err != nil {
			return err
		}
		if e == nil {
			return domainagg.Errorf(domainagg.CodeNotFound, op, "project %d has no versions", projectID)
		}
		out, err = s.detail(dbc, op, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *historyService) GetVersion(ctx context.Context, projectID int64, version int, requesterID int64) (*canvas.VersionDetail, error) {
	const op = "History.GetVersion"
	if version <= 0 {
		return nil, domainagg.Errorf(domainagg.CodeValidation, op, "version must be positive, got %d", version)
	}
	var out *canvas.VersionDetail
	err := readSnapshot(ctx, s.db, op, func(dbc dbctx.Context) error {
		if err := requireProjectMember(dbc, op, s.projects, s.members, projectID, requesterID); err != nil {
			return err
		}
		e, err := s.edits.GetByVersion(dbc, projectID, version)
		if err != nil {
			return err
		}
		if e == nil {
			return domainagg.Errorf(domainagg.CodeNotFound, op, "version %d not found in project %d", version, projectID)
		}
		out, err = s.detail(dbc, op, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *historyService) ListHistory(ctx context.Context, projectID, requesterID int64) ([]canvas.HistoryEntry, error) {
	const op = "History.ListHistory"
	var out []canvas.HistoryEntry
	err := readSnapshot(ctx, s.db, op, func(dbc dbctx.Context) error {
		if err := requireProjectMember(dbc, op, s.projects, s.members, projectID, requesterID); err != nil {
			return err
		}
		var err error
		out, err = s.edits.ListHistory(dbc, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *historyService) Compare(ctx context.Context, editA, editB, requesterID int64) (canvas.Diff, error) {
	const op = "History.Compare"
	if editA <= 0 || editB <= 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "edit_id_1 and edit_id_2 are required", nil)
	}
	var a, b canvas.Fields
	err := readSnapshot(ctx, s.db, op, func(dbc dbctx.Context) error {
		var err error
		if a, err = s.payloadFor(dbc, op, editA, requesterID); err != nil {
			return err
		}
		b, err = s.payloadFor(dbc, op, editB, requesterID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return canvas.Compare(a, b), nil
}

func (s *historyService) ListProjects(ctx context.Context, userID int64) ([]canvas.ProjectSummary, error) {
	const op = "History.ListProjects"
	var out []canvas.ProjectSummary
	err := readSnapshot(ctx, s.db, op, func(dbc dbctx.Context) error {
		var err error
		out, err = s.projects.ListForUser(dbc, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *historyService) payloadFor(dbc dbctx.Context, op string, editID, requesterID int64) (canvas.Fields, error) {
	e, err := s.edits.GetByID(dbc, editID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, domainagg.Errorf(domainagg.CodeNotFound, op, "edit %d not found", editID)
	}
	if err := requireProjectMember(dbc, op, s.projects, s.members, e.ProjectID, requesterID); err != nil {
		return nil, err
	}
	return s.payload(dbc, e.ID)
}

func (s *historyService) payload(dbc dbctx.Context, editID int64) (canvas.Fields, error) {
	cv, err := s.details.GetByEditID(dbc, editID)
	if err != nil {
		return nil, err
	}
	if cv == nil {
		return nil, aggregates.InvariantError("edit has no payload")
	}
	fields, err := canvas.FieldsFromJSON(cv.Fields)
	if err != nil {
		return nil, aggregates.InvariantError(err.Error())
	}
	return fields, nil
}

func (s *historyService) detail(dbc dbctx.Context, op string, e *types.EditRecord) (*canvas.VersionDetail, error) {
	p, err := s.projects.GetByID(dbc, e.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := aggregates.RequireProject(op, p, e.ProjectID); err != nil {
		return nil, err
	}
	fields, err := s.payload(dbc, e.ID)
	if err != nil {
		return nil, err
	}
	return &canvas.VersionDetail{
		EditID:         e.ID,
		ProjectID:      e.ProjectID,
		ProjectName:    p.ProjectName,
		Version:        e.Version,
		UserID:         e.UserID,
		LastUpdated:    e.LastUpdated,
		UpdateCategory: e.UpdateCategory,
		UpdateComment:  e.UpdateComment,
		Fields:         fields,
	}, nil
}
