package research

import (
	"time"

	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
)

// SourceType classifies where an uploaded document came from.
type SourceType string

const (
	SourceCustomer   SourceType = "Customer"
	SourceCompany    SourceType = "Company"
	SourceCompetitor SourceType = "Competitor"
	SourceMacrotrend SourceType = "Macrotrend"
)

// Document holds already-extracted text attached to a project.
type Document struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"document_id"`
	ProjectID   int64           `gorm:"not null;index;column:project_id" json:"project_id"`
	Project     *canvas.Project `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	UserID      int64           `gorm:"not null;column:user_id" json:"user_id"`
	FileName    string          `gorm:"type:varchar(255);not null;column:file_name" json:"file_name"`
	SourceType  SourceType      `gorm:"type:varchar(32);not null;column:source_type" json:"source_type"`
	ContentText string          `gorm:"type:text;column:content_text" json:"content_text"`
	CreatedAt   time.Time       `gorm:"not null;column:created_at" json:"created_at"`
}

func (Document) TableName() string { return "documents" }
