package user

import "time"

// User is an account. Login bookkeeping (failed attempts, lock) lives on the row.
type User struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"user_id"`
	Email             string     `gorm:"type:varchar(255);uniqueIndex;not null;column:email" json:"email"`
	PasswordHash      string     `gorm:"type:varchar(255);not null;column:hashed_pw" json:"-"`
	CreatedAt         time.Time  `gorm:"not null;column:created_at" json:"created_at"`
	LastLogin         *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`
	FailedLoginCounts int        `gorm:"not null;default:0;column:failed_login_counts" json:"-"`
	LockUntil         *time.Time `gorm:"column:lock_until" json:"-"`
}

func (User) TableName() string { return "users" }

// LockedAt reports whether the account is locked at t.
func (u *User) LockedAt(t time.Time) bool {
	return u != nil && u.LockUntil != nil && u.LockUntil.After(t)
}
