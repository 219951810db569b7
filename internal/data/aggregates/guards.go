package aggregates

import (
	"fmt"

	types "github.com/yungbote/leancanvas-backend/internal/domain"
	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
)

// RequireProject turns a missing project row into a not_found error.
func RequireProject(op string, p *types.Project, projectID int64) error {
	if p == nil || p.ID == 0 {
		return domainagg.Errorf(domainagg.CodeNotFound, op, "project %d not found", projectID)
	}
	return nil
}

// RequireMember turns a missing membership into a forbidden error.
func RequireMember(op string, m *types.ProjectMembership, projectID, userID int64) error {
	if m == nil {
		return domainagg.Errorf(domainagg.CodeForbidden, op, "user %d is not a member of project %d", userID, projectID)
	}
	return nil
}

// RequireAdmin requires an admin membership.
func RequireAdmin(op string, m *types.ProjectMembership, projectID, userID int64) error {
	if err := RequireMember(op, m, projectID, userID); err != nil {
		return err
	}
	if m.Role != canvas.RoleAdmin {
		return domainagg.Errorf(domainagg.CodeForbidden, op, "user %d is not an admin of project %d", userID, projectID)
	}
	return nil
}

// RequireNextVersion checks that next directly follows the current maximum.
func RequireNextVersion(current, next int) error {
	if current < 0 {
		return InvariantError(fmt.Sprintf("negative max version %d", current))
	}
	if next != current+1 {
		return InvariantError(fmt.Sprintf("version %d does not follow %d", next, current))
	}
	return nil
}
