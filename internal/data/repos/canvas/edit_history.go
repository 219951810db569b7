package canvas

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/leancanvas-backend/internal/domain"
	domcanvas "github.com/yungbote/leancanvas-backend/internal/domain/canvas"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

// EditHistoryRepo is append-only: there is no update, and rows only disappear
// with their project.
type EditHistoryRepo interface {
	Create(dbc dbctx.Context, edits []*types.EditRecord) ([]*types.EditRecord, error)
	MaxVersion(dbc dbctx.Context, projectID int64) (int, error)
	GetByIDs(dbc dbctx.Context, editIDs []int64) ([]*types.EditRecord, error)
	GetByID(dbc dbctx.Context, editID int64) (*types.EditRecord, error)
	GetByVersion(dbc dbctx.Context, projectID int64, version int) (*types.EditRecord, error)
	Latest(dbc dbctx.Context, projectID int64) (*types.EditRecord, error)
	ListHistory(dbc dbctx.Context, projectID int64) ([]domcanvas.HistoryEntry, error)
	CountByProject(dbc dbctx.Context, projectID int64) (int64, error)
}

type editHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEditHistoryRepo(db *gorm.DB, baseLog *logger.Logger) EditHistoryRepo {
	repoLog := baseLog.With("repo", "EditHistoryRepo")
	return &editHistoryRepo{db: db, log: repoLog}
}

func (er *editHistoryRepo) Create(dbc dbctx.Context, edits []*types.EditRecord) ([]*types.EditRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = er.db
	}

	if len(edits) == 0 {
		return []*types.EditRecord{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&edits).Error; err != nil {
		return nil, err
	}

	return edits, nil
}

// MaxVersion returns 0 for a project with no history.
func (er *editHistoryRepo) MaxVersion(dbc dbctx.Context, projectID int64) (int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = er.db
	}

	var maxVersion int
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.EditRecord{}).
		Select("COALESCE(MAX(version), 0)").
		Where("project_id = ?", projectID).
		Scan(&maxVersion).Error; err != nil {
		return 0, err
	}
	return maxVersion, nil
}

func (er *editHistoryRepo) GetByIDs(dbc dbctx.Context, editIDs []int64) ([]*types.EditRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = er.db
	}

	var results []*types.EditRecord

	if len(editIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", editIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (er *editHistoryRepo) GetByID(dbc dbctx.Context, editID int64) (*types.EditRecord, error) {
	return er.first(dbc, "id = ?", editID)
}

func (er *editHistoryRepo) GetByVersion(dbc dbctx.Context, projectID int64, version int) (*types.EditRecord, error) {
	return er.first(dbc, "project_id = ? AND version = ?", projectID, version)
}

func (er *editHistoryRepo) Latest(dbc dbctx.Context, projectID int64) (*types.EditRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = er.db
	}

	var e types.EditRecord
	err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("version DESC").
		Limit(1).
		Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListHistory returns every version of projectID, newest first, with the
// author's email.
func (er *editHistoryRepo) ListHistory(dbc dbctx.Context, projectID int64) ([]domcanvas.HistoryEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = er.db
	}

	results := make([]domcanvas.HistoryEntry, 0)
	if err := transaction.WithContext(dbc.Ctx).
		Table("edit_history AS e").
		Select("e.id AS edit_id, e.version, e.last_updated, e.update_category, e.update_comment, u.email AS user_email").
		Joins("LEFT JOIN users u ON u.id = e.user_id").
		Where("e.project_id = ?", projectID).
		Order("e.version DESC").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *editHistoryRepo) CountByProject(dbc dbctx.Context, projectID int64) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = er.db
	}

	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.EditRecord{}).
		Where("project_id = ?", projectID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (er *editHistoryRepo) first(dbc dbctx.Context, query string, args ...interface{}) (*types.EditRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = er.db
	}

	var e types.EditRecord
	err := transaction.WithContext(dbc.Ctx).Where(query, args...).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
