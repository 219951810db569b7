package canvas

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/leancanvas-backend/internal/domain"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

// DetailsRepo stores version payloads. Write-once.
type DetailsRepo interface {
	Create(dbc dbctx.Context, versions []*types.CanvasVersion) ([]*types.CanvasVersion, error)
	GetByEditIDs(dbc dbctx.Context, editIDs []int64) ([]*types.CanvasVersion, error)
	GetByEditID(dbc dbctx.Context, editID int64) (*types.CanvasVersion, error)
	CountByEditIDs(dbc dbctx.Context, editIDs []int64) (int64, error)
}

type detailsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDetailsRepo(db *gorm.DB, baseLog *logger.Logger) DetailsRepo {
	repoLog := baseLog.With("repo", "DetailsRepo")
	return &detailsRepo{db: db, log: repoLog}
}

func (dr *detailsRepo) Create(dbc dbctx.Context, versions []*types.CanvasVersion) ([]*types.CanvasVersion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = dr.db
	}

	if len(versions) == 0 {
		return []*types.CanvasVersion{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&versions).Error; err != nil {
		return nil, err
	}

	return versions, nil
}

func (dr *detailsRepo) GetByEditIDs(dbc dbctx.Context, editIDs []int64) ([]*types.CanvasVersion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = dr.db
	}

	var results []*types.CanvasVersion

	if len(editIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("edit_id IN ?", editIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

// GetByEditID returns nil, nil when the payload row is missing.
func (dr *detailsRepo) GetByEditID(dbc dbctx.Context, editID int64) (*types.CanvasVersion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = dr.db
	}

	var v types.CanvasVersion
	err := transaction.WithContext(dbc.Ctx).Where("edit_id = ?", editID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (dr *detailsRepo) CountByEditIDs(dbc dbctx.Context, editIDs []int64) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = dr.db
	}

	if len(editIDs) == 0 {
		return 0, nil
	}

	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.CanvasVersion{}).
		Where("edit_id IN ?", editIDs).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
