package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"

	"github.com/yungbote/leancanvas-backend/internal/data/repos"
	types "github.com/yungbote/leancanvas-backend/internal/domain"
	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
)

const (
	maxProjectNameLen     = 255
	initialVersionComment = "initial creation"
)

type CanvasAggregateDeps struct {
	Base BaseDeps

	Projects repos.ProjectRepo
	Members  repos.MembershipRepo
	Edits    repos.EditHistoryRepo
	Details  repos.DetailsRepo

	// Users resolves AddMemberInput.MemberEmail.
	Users repos.UserRepo
}

type canvasAggregate struct {
	deps CanvasAggregateDeps
}

func NewCanvasAggregate(deps CanvasAggregateDeps) domainagg.CanvasAggregate {
	deps.Base = deps.Base.withDefaults()
	return &canvasAggregate{deps: deps}
}

func (a *canvasAggregate) Contract() domainagg.Contract {
	return domainagg.CanvasAggregateContract
}

func (a *canvasAggregate) configured(op string) error {
	if a.deps.Projects == nil || a.deps.Members == nil || a.deps.Edits == nil || a.deps.Details == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "canvas aggregate repos not configured", nil)
	}
	return nil
}

func (a *canvasAggregate) CreateProject(ctx context.Context, in domainagg.CreateProjectInput) (domainagg.CreateProjectResult, error) {
	const op = "Canvas.CreateProject"
	var out domainagg.CreateProjectResult
	if err := a.configured(op); err != nil {
		return out, err
	}
	if in.UserID <= 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	name := strings.TrimSpace(in.ProjectName)
	if name == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "project_name is required", nil)
	}
	if utf8.RuneCountInString(name) > maxProjectNameLen {
		return out, domainagg.Errorf(domainagg.CodeValidation, op, "project_name must be at most %d characters", maxProjectNameLen)
	}
	payload, err := encodeFields(op, in.Fields)
	if err != nil {
		return out, err
	}
	comment := normalizeComment(in.Comment)
	if comment == nil {
		c := initialVersionComment
		comment = &c
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		now := a.deps.Base.Now()
		p := &types.Project{UserID: in.UserID, ProjectName: name, CreatedAt: now}
		if _, err := a.deps.Projects.Create(dbc, []*types.Project{p}); err != nil {
			return err
		}
		if _, err := a.deps.Members.Create(dbc, []*types.ProjectMembership{{
			ProjectID: p.ID,
			UserID:    in.UserID,
			Role:      canvas.RoleAdmin,
			CreatedAt: now,
		}}); err != nil {
			return err
		}
		h, err := a.insertVersion(dbc, p.ID, 1, in.UserID, payload, canvas.ProvenanceManual, comment, now)
		if err != nil {
			return err
		}
		out = domainagg.CreateProjectResult{Project: *p, Version: h}
		return nil
	})
	if err != nil {
		return domainagg.CreateProjectResult{}, err
	}
	return out, nil
}

func (a *canvasAggregate) CreateVersion(ctx context.Context, in domainagg.CreateVersionInput) (canvas.VersionHandle, error) {
	const op = "Canvas.CreateVersion"
	var out canvas.VersionHandle
	if err := a.configured(op); err != nil {
		return out, err
	}
	if in.ProjectID <= 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id", nil)
	}
	if in.UserID <= 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	provenance := in.Provenance
	if provenance == "" {
		provenance = canvas.ProvenanceManual
	}
	if !provenance.Valid() {
		return out, domainagg.Errorf(domainagg.CodeValidation, op, "unknown update_category %q", string(provenance))
	}
	payload, err := encodeFields(op, in.Fields)
	if err != nil {
		return out, err
	}
	comment := normalizeComment(in.Comment)

	err = executeWriteWithRetry(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.lockForWrite(dbc, op, in.ProjectID, in.UserID, false); err != nil {
			return err
		}
		h, err := a.appendVersion(dbc, in.ProjectID, in.UserID, payload, provenance, comment)
		if err != nil {
			return err
		}
		out = h
		return nil
	})
	if err != nil {
		return canvas.VersionHandle{}, err
	}
	return out, nil
}

func (a *canvasAggregate) Rollback(ctx context.Context, in domainagg.RollbackInput) (domainagg.RollbackResult, error) {
	const op = "Canvas.Rollback"
	var out domainagg.RollbackResult
	if err := a.configured(op); err != nil {
		return out, err
	}
	if in.ProjectID <= 0 || in.TargetEditID <= 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or edit_id", nil)
	}
	if in.UserID <= 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	comment := normalizeComment(in.Comment)

	err := executeWriteWithRetry(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.lockForWrite(dbc, op, in.ProjectID, in.UserID, false); err != nil {
			return err
		}
		target, err := a.deps.Edits.GetByID(dbc, in.TargetEditID)
		if err != nil {
			return err
		}
		if target == nil || target.ProjectID != in.ProjectID {
			return domainagg.Errorf(domainagg.CodeNotFound, op, "edit %d not found in project %d", in.TargetEditID, in.ProjectID)
		}
		cv, err := a.deps.Details.GetByEditID(dbc, target.ID)
		if err != nil {
			return err
		}
		if cv == nil {
			return InvariantError(fmt.Sprintf("edit %d has no payload", target.ID))
		}

		c := comment
		if c == nil {
			s := fmt.Sprintf("rolled back to version %d", target.Version)
			c = &s
		}
		payload := append(datatypes.JSON(nil), cv.Fields...)
		h, err := a.appendVersion(dbc, in.ProjectID, in.UserID, payload, canvas.ProvenanceRollback, c)
		if err != nil {
			return err
		}
		out = domainagg.RollbackResult{Version: h, TargetVersion: target.Version, RolledBackAt: h.CreatedAt}
		return nil
	})
	if err != nil {
		return domainagg.RollbackResult{}, err
	}
	return out, nil
}

func (a *canvasAggregate) DeleteProject(ctx context.Context, in domainagg.DeleteProjectInput) error {
	const op = "Canvas.DeleteProject"
	if err := a.configured(op); err != nil {
		return err
	}
	if in.ProjectID <= 0 || in.UserID <= 0 {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or user_id", nil)
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.lockForWrite(dbc, op, in.ProjectID, in.UserID, true); err != nil {
			return err
		}
		return a.deps.Projects.Delete(dbc, in.ProjectID)
	})
}

func (a *canvasAggregate) AddMember(ctx context.Context, in domainagg.AddMemberInput) (canvas.ProjectMembership, error) {
	const op = "Canvas.AddMember"
	var out canvas.ProjectMembership
	if err := a.configured(op); err != nil {
		return out, err
	}
	email := strings.ToLower(strings.TrimSpace(in.MemberEmail))
	if in.ProjectID <= 0 || in.ActorUserID <= 0 || (in.MemberUserID <= 0 && email == "") {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id, actor or member", nil)
	}
	if in.MemberUserID <= 0 && a.deps.Users == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "user repo not configured", nil)
	}
	role := in.Role
	if role == "" {
		role = canvas.RoleEditor
	}
	if !role.Valid() {
		return out, domainagg.Errorf(domainagg.CodeValidation, op, "role must be one of [admin editor], got %q", string(role))
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.lockForWrite(dbc, op, in.ProjectID, in.ActorUserID, true); err != nil {
			return err
		}
		memberID := in.MemberUserID
		if memberID <= 0 {
			found, err := a.deps.Users.GetByEmails(dbc, []string{email})
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return domainagg.Errorf(domainagg.CodeNotFound, op, "no user registered with email %s", email)
			}
			memberID = found[0].ID
		}
		existing, err := a.deps.Members.Get(dbc, in.ProjectID, memberID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domainagg.Errorf(domainagg.CodeConflict, op, "user %d is already a member of project %d", memberID, in.ProjectID)
		}
		m := &types.ProjectMembership{
			ProjectID: in.ProjectID,
			UserID:    memberID,
			Role:      role,
			CreatedAt: a.deps.Base.Now(),
		}
		if _, err := a.deps.Members.Create(dbc, []*types.ProjectMembership{m}); err != nil {
			return err
		}
		out = *m
		return nil
	})
	if err != nil {
		return canvas.ProjectMembership{}, err
	}
	return out, nil
}

// lockForWrite locks the project row, then checks the caller's membership.
// Missing project is reported before missing membership.
func (a *canvasAggregate) lockForWrite(dbc dbctx.Context, op string, projectID, userID int64, adminOnly bool) error {
	p, err := a.deps.Projects.LockByID(dbc, projectID)
	if err != nil {
		return err
	}
	if err := RequireProject(op, p, projectID); err != nil {
		return err
	}
	m, err := a.deps.Members.Get(dbc, projectID, userID)
	if err != nil {
		return err
	}
	if adminOnly {
		return RequireAdmin(op, m, projectID, userID)
	}
	return RequireMember(op, m, projectID, userID)
}

// appendVersion writes version max+1. A concurrent writer that slipped past the
// row lock trips the (project_id, version) unique index and the attempt is retried.
func (a *canvasAggregate) appendVersion(dbc dbctx.Context, projectID, userID int64, payload datatypes.JSON, provenance canvas.Provenance, comment *string) (canvas.VersionHandle, error) {
	current, err := a.deps.Edits.MaxVersion(dbc, projectID)
	if err != nil {
		return canvas.VersionHandle{}, err
	}
	next := current + 1
	if err := RequireNextVersion(current, next); err != nil {
		return canvas.VersionHandle{}, err
	}
	return a.insertVersion(dbc, projectID, next, userID, payload, provenance, comment, a.deps.Base.Now())
}

func (a *canvasAggregate) insertVersion(dbc dbctx.Context, projectID int64, version int, userID int64, payload datatypes.JSON, provenance canvas.Provenance, comment *string, at time.Time) (canvas.VersionHandle, error) {
	e := &types.EditRecord{
		ProjectID:      projectID,
		Version:        version,
		UserID:         userID,
		LastUpdated:    at,
		UpdateCategory: provenance,
		UpdateComment:  comment,
	}
	if _, err := a.deps.Edits.Create(dbc, []*types.EditRecord{e}); err != nil {
		return canvas.VersionHandle{}, err
	}
	if _, err := a.deps.Details.Create(dbc, []*types.CanvasVersion{{EditID: e.ID, Fields: payload}}); err != nil {
		return canvas.VersionHandle{}, err
	}
	return canvas.VersionHandle{
		EditID:     e.ID,
		ProjectID:  projectID,
		Version:    version,
		Provenance: provenance,
		CreatedAt:  at,
	}, nil
}

func encodeFields(op string, f canvas.Fields) (datatypes.JSON, error) {
	raw, err := f.JSON()
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	return raw, nil
}

func normalizeComment(c *string) *string {
	if c == nil {
		return nil
	}
	s := strings.TrimSpace(*c)
	if s == "" {
		return nil
	}
	return &s
}
