package research

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/leancanvas-backend/internal/domain"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

type ResearchResultRepo interface {
	Create(dbc dbctx.Context, rows []*types.ResearchResult) ([]*types.ResearchResult, error)
	ListByProject(dbc dbctx.Context, projectID int64) ([]*types.ResearchResult, error)
	GetByID(dbc dbctx.Context, projectID, id int64) (*types.ResearchResult, error)
	Delete(dbc dbctx.Context, projectID, id int64) (bool, error)
}

type researchResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResearchResultRepo(db *gorm.DB, baseLog *logger.Logger) ResearchResultRepo {
	return &researchResultRepo{db: db, log: baseLog.With("repo", "ResearchResultRepo")}
}

func (r *researchResultRepo) Create(dbc dbctx.Context, rows []*types.ResearchResult) ([]*types.ResearchResult, error) {
	return createRows(r.db, dbc, rows)
}

func (r *researchResultRepo) ListByProject(dbc dbctx.Context, projectID int64) ([]*types.ResearchResult, error) {
	return listByProject[types.ResearchResult](r.db, dbc, projectID)
}

func (r *researchResultRepo) GetByID(dbc dbctx.Context, projectID, id int64) (*types.ResearchResult, error) {
	return getInProject[types.ResearchResult](r.db, dbc, projectID, id)
}

func (r *researchResultRepo) Delete(dbc dbctx.Context, projectID, id int64) (bool, error) {
	return deleteInProject[types.ResearchResult](r.db, dbc, projectID, id)
}

type InterviewNoteRepo interface {
	Create(dbc dbctx.Context, rows []*types.InterviewNote) ([]*types.InterviewNote, error)
	ListByProject(dbc dbctx.Context, projectID int64) ([]*types.InterviewNote, error)
	GetByID(dbc dbctx.Context, projectID, id int64) (*types.InterviewNote, error)
	GetByIDs(dbc dbctx.Context, projectID int64, ids []int64) ([]*types.InterviewNote, error)
	Delete(dbc dbctx.Context, projectID, id int64) (bool, error)
}

type interviewNoteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInterviewNoteRepo(db *gorm.DB, baseLog *logger.Logger) InterviewNoteRepo {
	return &interviewNoteRepo{db: db, log: baseLog.With("repo", "InterviewNoteRepo")}
}

func (r *interviewNoteRepo) Create(dbc dbctx.Context, rows []*types.InterviewNote) ([]*types.InterviewNote, error) {
	return createRows(r.db, dbc, rows)
}

func (r *interviewNoteRepo) ListByProject(dbc dbctx.Context, projectID int64) ([]*types.InterviewNote, error) {
	return listByProject[types.InterviewNote](r.db, dbc, projectID)
}

func (r *interviewNoteRepo) GetByID(dbc dbctx.Context, projectID, id int64) (*types.InterviewNote, error) {
	return getInProject[types.InterviewNote](r.db, dbc, projectID, id)
}

// GetByIDs only returns notes that belong to projectID.
func (r *interviewNoteRepo) GetByIDs(dbc dbctx.Context, projectID int64, ids []int64) ([]*types.InterviewNote, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.InterviewNote
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND id IN ?", projectID, ids).
		Order("interview_date ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *interviewNoteRepo) Delete(dbc dbctx.Context, projectID, id int64) (bool, error) {
	return deleteInProject[types.InterviewNote](r.db, dbc, projectID, id)
}

type DocumentRepo interface {
	Create(dbc dbctx.Context, rows []*types.Document) ([]*types.Document, error)
	ListByProject(dbc dbctx.Context, projectID int64) ([]*types.Document, error)
	Delete(dbc dbctx.Context, projectID, id int64) (bool, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(dbc dbctx.Context, rows []*types.Document) ([]*types.Document, error) {
	return createRows(r.db, dbc, rows)
}

func (r *documentRepo) ListByProject(dbc dbctx.Context, projectID int64) ([]*types.Document, error) {
	return listByProject[types.Document](r.db, dbc, projectID)
}

func (r *documentRepo) Delete(dbc dbctx.Context, projectID, id int64) (bool, error) {
	return deleteInProject[types.Document](r.db, dbc, projectID, id)
}

func createRows[T any](db *gorm.DB, dbc dbctx.Context, rows []*T) ([]*T, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = db
	}
	if len(rows) == 0 {
		return []*T{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func listByProject[T any](db *gorm.DB, dbc dbctx.Context, projectID int64) ([]*T, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = db
	}
	results := make([]*T, 0)
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func getInProject[T any](db *gorm.DB, dbc dbctx.Context, projectID, id int64) (*T, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = db
	}
	var row T
	err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND id = ?", projectID, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func deleteInProject[T any](db *gorm.DB, dbc dbctx.Context, projectID, id int64) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = db
	}
	var row T
	res := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND id = ?", projectID, id).
		Delete(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
