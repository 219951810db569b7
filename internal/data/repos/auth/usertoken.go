package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/leancanvas-backend/internal/domain"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

type UserTokenRepo interface {
	Create(dbc dbctx.Context, userTokens []*types.UserToken) ([]*types.UserToken, error)
	GetByIDs(dbc dbctx.Context, tokenIDs []uuid.UUID) ([]*types.UserToken, error)
	GetByUserIDs(dbc dbctx.Context, userIDs []int64) ([]*types.UserToken, error)
	GetByAccessTokens(dbc dbctx.Context, accessTokens []string) ([]*types.UserToken, error)
	GetByRefreshTokens(dbc dbctx.Context, refreshTokens []string) ([]*types.UserToken, error)
	DeleteByIDs(dbc dbctx.Context, tokenIDs []uuid.UUID) error
	DeleteByUserIDs(dbc dbctx.Context, userIDs []int64) error
	DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error)
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	repoLog := baseLog.With("repo", "UserTokenRepo")
	return &userTokenRepo{db: db, log: repoLog}
}

func (utr *userTokenRepo) Create(dbc dbctx.Context, userTokens []*types.UserToken) ([]*types.UserToken, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = utr.db
	}

	if len(userTokens) == 0 {
		return []*types.UserToken{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&userTokens).Error; err != nil {
		return nil, err
	}

	return userTokens, nil
}

func (utr *userTokenRepo) GetByIDs(dbc dbctx.Context, tokenIDs []uuid.UUID) ([]*types.UserToken, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = utr.db
	}

	var results []*types.UserToken

	if len(tokenIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", tokenIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (utr *userTokenRepo) GetByUserIDs(dbc dbctx.Context, userIDs []int64) ([]*types.UserToken, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = utr.db
	}

	var results []*types.UserToken

	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (utr *userTokenRepo) GetByAccessTokens(dbc dbctx.Context, accessTokens []string) ([]*types.UserToken, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = utr.db
	}

	var results []*types.UserToken

	if len(accessTokens) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("access_token IN ?", accessTokens).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (utr *userTokenRepo) GetByRefreshTokens(dbc dbctx.Context, refreshTokens []string) ([]*types.UserToken, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = utr.db
	}

	var results []*types.UserToken

	if len(refreshTokens) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("refresh_token IN ?", refreshTokens).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (utr *userTokenRepo) DeleteByIDs(dbc dbctx.Context, tokenIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = utr.db
	}

	if len(tokenIDs) == 0 {
		return nil
	}

	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", tokenIDs).
		Delete(&types.UserToken{}).Error
}

func (utr *userTokenRepo) DeleteByUserIDs(dbc dbctx.Context, userIDs []int64) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = utr.db
	}

	if len(userIDs) == 0 {
		return nil
	}

	return transaction.WithContext(dbc.Ctx).
		Where("user_id IN ?", userIDs).
		Delete(&types.UserToken{}).Error
}

// DeleteExpired removes every token whose expiry is at or before now.
func (utr *userTokenRepo) DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = utr.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Where("expires_at <= ?", now).
		Delete(&types.UserToken{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		utr.log.Debug("expired tokens removed", "count", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
