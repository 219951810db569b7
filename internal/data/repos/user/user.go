package user

import (
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/leancanvas-backend/internal/domain"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []int64) ([]*types.User, error)
	GetByEmails(dbc dbctx.Context, userEmails []string) ([]*types.User, error)
	EmailExists(dbc dbctx.Context, userEmail string) (bool, error)
	RecordLoginFailure(dbc dbctx.Context, userID int64, maxAttempts int, lockFor time.Duration, now time.Time) (*types.User, error)
	RecordLoginSuccess(dbc dbctx.Context, userID int64, now time.Time) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	if len(users) == 0 {
		return []*types.User{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (ur *userRepo) GetByIDs(dbc dbctx.Context, userIDs []int64) ([]*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User

	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (ur *userRepo) GetByEmails(dbc dbctx.Context, userEmails []string) ([]*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User

	if len(userEmails) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("email IN ?", userEmails).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, userEmail string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("email = ?", userEmail).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// RecordLoginFailure bumps the failed-attempt counter and locks the account once
// it reaches maxAttempts. The counter resets when the lock is applied.
func (ur *userRepo) RecordLoginFailure(dbc dbctx.Context, userID int64, maxAttempts int, lockFor time.Duration, now time.Time) (*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	var u types.User
	if err := transaction.WithContext(dbc.Ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	failed := u.FailedLoginCounts + 1
	if maxAttempts > 0 && failed >= maxAttempts {
		lockUntil := now.Add(lockFor)
		updates["failed_login_counts"] = 0
		updates["lock_until"] = lockUntil
		u.FailedLoginCounts = 0
		u.LockUntil = &lockUntil
	} else {
		updates["failed_login_counts"] = failed
		u.FailedLoginCounts = failed
	}

	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	return &u, nil
}

func (ur *userRepo) RecordLoginSuccess(dbc dbctx.Context, userID int64, now time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}

	return transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"failed_login_counts": 0,
			"lock_until":          nil,
			"last_login":          now,
		}).Error
}
