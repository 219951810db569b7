package canvas

import (
	"time"

	"github.com/yungbote/leancanvas-backend/internal/domain/user"
	"gorm.io/datatypes"
)

// Provenance tags where a version came from.
type Provenance string

const (
	ProvenanceManual           Provenance = "manual"
	ProvenanceConsistencyCheck Provenance = "consistency_check"
	ProvenanceResearch         Provenance = "research"
	ProvenanceInterview        Provenance = "interview"
	ProvenanceRollback         Provenance = "rollback"
)

func (p Provenance) Valid() bool {
	switch p {
	case ProvenanceManual, ProvenanceConsistencyCheck, ProvenanceResearch, ProvenanceInterview, ProvenanceRollback:
		return true
	default:
		return false
	}
}

// EditRecord anchors one version of a project's canvas. Rows are append-only and
// (project_id, version) is unique.
type EditRecord struct {
	ID             int64      `gorm:"primaryKey;autoIncrement;column:id" json:"edit_id"`
	ProjectID      int64      `gorm:"not null;column:project_id;uniqueIndex:idx_edit_history_project_version,priority:1" json:"project_id"`
	Project        *Project   `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Version        int        `gorm:"not null;column:version;uniqueIndex:idx_edit_history_project_version,priority:2" json:"version"`
	UserID         int64      `gorm:"not null;index;column:user_id" json:"user_id"`
	User           *user.User `gorm:"foreignKey:UserID;references:ID" json:"-"`
	LastUpdated    time.Time  `gorm:"not null;column:last_updated" json:"last_updated"`
	UpdateCategory Provenance `gorm:"type:varchar(32);not null;column:update_category" json:"update_category"`
	UpdateComment  *string    `gorm:"type:text;column:update_comment" json:"update_comment,omitempty"`
}

func (EditRecord) TableName() string { return "edit_history" }

// CanvasVersion is the field payload of exactly one EditRecord. Write-once.
type CanvasVersion struct {
	EditID int64          `gorm:"primaryKey;autoIncrement:false;column:edit_id" json:"edit_id"`
	Edit   *EditRecord    `gorm:"foreignKey:EditID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Fields datatypes.JSON `gorm:"not null;column:fields" json:"fields"`
}

func (CanvasVersion) TableName() string { return "details" }
