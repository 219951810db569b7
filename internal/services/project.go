package services

import (
	"context"
	"strings"
	"time"

	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
	"github.com/yungbote/leancanvas-backend/internal/observability"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
	"github.com/yungbote/leancanvas-backend/internal/realtime"
	"github.com/yungbote/leancanvas-backend/internal/realtime/bus"
)

// ProjectService is the write side for projects and their versions. Writes go
// through the canvas aggregate; committed versions are announced on the bus.
type ProjectService interface {
	CreateProject(ctx context.Context, in domainagg.CreateProjectInput) (domainagg.CreateProjectResult, error)
	CreateVersion(ctx context.Context, in domainagg.CreateVersionInput) (canvas.VersionHandle, error)
	Rollback(ctx context.Context, in domainagg.RollbackInput) (domainagg.RollbackResult, error)
	DeleteProject(ctx context.Context, projectID, userID int64) error
	AddMemberByEmail(ctx context.Context, projectID, actorUserID int64, email string, role canvas.Role) (canvas.ProjectMembership, error)
}

type projectService struct {
	log     *logger.Logger
	canvas  domainagg.CanvasAggregate
	events  bus.Bus
	metrics *observability.Metrics
}

func NewProjectService(
	log *logger.Logger,
	canvasAgg domainagg.CanvasAggregate,
	events bus.Bus,
	metrics *observability.Metrics,
) ProjectService {
	if events == nil {
		events = bus.NewNoopBus()
	}
	return &projectService{
		log:     log.With("service", "ProjectService"),
		canvas:  canvasAgg,
		events:  events,
		metrics: metrics,
	}
}

func (s *projectService) CreateProject(ctx context.Context, in domainagg.CreateProjectInput) (domainagg.CreateProjectResult, error) {
	res, err := s.canvas.CreateProject(ctx, in)
	if err != nil {
		return res, err
	}
	s.log.Info("project created", "project_id", res.Project.ID, "user_id", in.UserID)
	s.announce(ctx, res.Version, in.UserID)
	return res, nil
}

func (s *projectService) CreateVersion(ctx context.Context, in domainagg.CreateVersionInput) (canvas.VersionHandle, error) {
	h, err := s.canvas.CreateVersion(ctx, in)
	if err != nil {
		return h, err
	}
	s.announce(ctx, h, in.UserID)
	return h, nil
}

func (s *projectService) Rollback(ctx context.Context, in domainagg.RollbackInput) (domainagg.RollbackResult, error) {
	res, err := s.canvas.Rollback(ctx, in)
	if err != nil {
		return res, err
	}
	s.log.Info("project rolled back",
		"project_id", in.ProjectID,
		"target_version", res.TargetVersion,
		"new_version", res.Version.Version,
	)
	s.announce(ctx, res.Version, in.UserID)
	return res, nil
}

func (s *projectService) DeleteProject(ctx context.Context, projectID, userID int64) error {
	if err := s.canvas.DeleteProject(ctx, domainagg.DeleteProjectInput{ProjectID: projectID, UserID: userID}); err != nil {
		return err
	}
	s.log.Info("project deleted", "project_id", projectID, "user_id", userID)
	return nil
}

func (s *projectService) AddMemberByEmail(ctx context.Context, projectID, actorUserID int64, email string, role canvas.Role) (canvas.ProjectMembership, error) {
	const op = "Project.AddMember"
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return canvas.ProjectMembership{}, domainagg.NewError(domainagg.CodeValidation, op, "email is required", nil)
	}
	return s.canvas.AddMember(ctx, domainagg.AddMemberInput{
		ProjectID:   projectID,
		ActorUserID: actorUserID,
		MemberEmail: email,
		Role:        role,
	})
}

// announce publishes a committed version. Failures are logged only; the write
// has already succeeded.
func (s *projectService) announce(ctx context.Context, h canvas.VersionHandle, userID int64) {
	s.metrics.IncVersionWritten(string(h.Provenance))
	evt := realtime.Event{
		Type:       realtime.EventVersionCreated,
		ProjectID:  h.ProjectID,
		EditID:     h.EditID,
		Version:    h.Version,
		Provenance: string(h.Provenance),
		UserID:     userID,
		At:         h.CreatedAt,
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.events.Publish(pubCtx, evt); err != nil {
		s.log.Warn("publish version event failed", "project_id", h.ProjectID, "version", h.Version, "error", err)
	}
}
