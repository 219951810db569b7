package canvas

import (
	"time"

	"github.com/yungbote/leancanvas-backend/internal/domain/user"
)

// Role is a member's permission level on a project.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleEditor }

// Project is a named canvas workspace. Its content lives in EditRecord/CanvasVersion rows.
type Project struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"project_id"`
	UserID      int64      `gorm:"not null;index;column:user_id" json:"user_id"`
	Owner       *user.User `gorm:"foreignKey:UserID;references:ID" json:"-"`
	ProjectName string     `gorm:"type:varchar(255);not null;column:project_name" json:"project_name"`
	CreatedAt   time.Time  `gorm:"not null;column:created_at" json:"created_at"`
}

func (Project) TableName() string { return "projects" }

// ProjectMembership grants a user a role on a project. It is the sole authorization
// check for project-scoped operations.
type ProjectMembership struct {
	ProjectID int64      `gorm:"primaryKey;autoIncrement:false;column:project_id" json:"project_id"`
	Project   *Project   `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    int64      `gorm:"primaryKey;autoIncrement:false;index;column:user_id" json:"user_id"`
	User      *user.User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Role      Role       `gorm:"type:varchar(16);not null;column:role" json:"role"`
	CreatedAt time.Time  `gorm:"not null;column:created_at" json:"created_at"`
}

func (ProjectMembership) TableName() string { return "project_members" }
