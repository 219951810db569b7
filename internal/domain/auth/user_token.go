package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/leancanvas-backend/internal/domain/user"
	"gorm.io/gorm"
)

// UserToken is one issued session: a JWT access token plus its refresh token.
type UserToken struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       int64      `gorm:"index;not null" json:"user_id"`
	User         *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	AccessToken  string     `gorm:"type:varchar(1024);uniqueIndex;not null;column:access_token" json:"-"`
	RefreshToken string     `gorm:"type:varchar(64);uniqueIndex;not null;column:refresh_token" json:"-"`
	ExpiresAt    time.Time  `gorm:"not null;index;column:expires_at" json:"expires_at"`
	CreatedAt    time.Time  `gorm:"not null;column:created_at" json:"created_at"`
}

func (UserToken) TableName() string { return "user_token" }

func (t *UserToken) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
