package canvas

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/leancanvas-backend/internal/domain"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

type MembershipRepo interface {
	Create(dbc dbctx.Context, memberships []*types.ProjectMembership) ([]*types.ProjectMembership, error)
	Get(dbc dbctx.Context, projectID, userID int64) (*types.ProjectMembership, error)
	ListByProject(dbc dbctx.Context, projectID int64) ([]*types.ProjectMembership, error)
}

type membershipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMembershipRepo(db *gorm.DB, baseLog *logger.Logger) MembershipRepo {
	repoLog := baseLog.With("repo", "MembershipRepo")
	return &membershipRepo{db: db, log: repoLog}
}

func (mr *membershipRepo) Create(dbc dbctx.Context, memberships []*types.ProjectMembership) ([]*types.ProjectMembership, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = mr.db
	}

	if len(memberships) == 0 {
		return []*types.ProjectMembership{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&memberships).Error; err != nil {
		return nil, err
	}

	return memberships, nil
}

// Get returns nil, nil when userID is not a member of projectID.
func (mr *membershipRepo) Get(dbc dbctx.Context, projectID, userID int64) (*types.ProjectMembership, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = mr.db
	}

	var m types.ProjectMembership
	err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (mr *membershipRepo) ListByProject(dbc dbctx.Context, projectID int64) ([]*types.ProjectMembership, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.ProjectMembership
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
