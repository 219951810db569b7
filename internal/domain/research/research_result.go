package research

import (
	"time"

	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
	"gorm.io/datatypes"
)

// ResearchResult stores the output of a research-driven proposal, linked to the
// version it was computed against.
type ResearchResult struct {
	ID            int64              `gorm:"primaryKey;autoIncrement" json:"research_id"`
	ProjectID     int64              `gorm:"not null;index;column:project_id" json:"project_id"`
	Project       *canvas.Project    `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	EditID        *int64             `gorm:"index;column:edit_id" json:"edit_id,omitempty"`
	Edit          *canvas.EditRecord `gorm:"foreignKey:EditID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	UserID        int64              `gorm:"not null;column:user_id" json:"user_id"`
	ResearchFocus string             `gorm:"type:text;column:research_focus" json:"research_focus"`
	ResultText    datatypes.JSON     `gorm:"column:result_text" json:"result_text"`
	SourceSummary string             `gorm:"type:text;column:source_summary" json:"source_summary"`
	CreatedAt     time.Time          `gorm:"not null;column:created_at" json:"created_at"`
}

func (ResearchResult) TableName() string { return "research_results" }
