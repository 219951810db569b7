package research

import (
	"time"

	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
)

type InterviewType string

const (
	InterviewHypothesisTesting InterviewType = "hypothesis_testing"
	InterviewDeepDive          InterviewType = "deep_dive"
)

type InterviewNote struct {
	ID              int64              `gorm:"primaryKey;autoIncrement" json:"note_id"`
	ProjectID       int64              `gorm:"not null;index;column:project_id" json:"project_id"`
	Project         *canvas.Project    `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	EditID          *int64             `gorm:"index;column:edit_id" json:"edit_id,omitempty"`
	Edit            *canvas.EditRecord `gorm:"foreignKey:EditID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	UserID          int64              `gorm:"not null;column:user_id" json:"user_id"`
	IntervieweeName string             `gorm:"type:varchar(255);not null;column:interviewee_name" json:"interviewee_name"`
	InterviewDate   time.Time          `gorm:"not null;column:interview_date" json:"interview_date"`
	InterviewType   InterviewType      `gorm:"type:varchar(32);not null;column:interview_type" json:"interview_type"`
	InterviewNote   string             `gorm:"type:text;not null;column:interview_note" json:"interview_note"`
	CreatedAt       time.Time          `gorm:"not null;column:created_at" json:"created_at"`
}

func (InterviewNote) TableName() string { return "interview_notes" }
