package domain

import (
	"github.com/yungbote/leancanvas-backend/internal/domain/auth"
	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
	"github.com/yungbote/leancanvas-backend/internal/domain/research"
	"github.com/yungbote/leancanvas-backend/internal/domain/user"
)

type User = user.User
type UserToken = auth.UserToken

type Project = canvas.Project
type ProjectMembership = canvas.ProjectMembership
type EditRecord = canvas.EditRecord
type CanvasVersion = canvas.CanvasVersion

type ResearchResult = research.ResearchResult
type InterviewNote = research.InterviewNote
type Document = research.Document
