package aggregates

import (
	"context"
	"time"

	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
)

var CanvasAggregateContract = Contract{
	Name:             "Canvas.CanvasAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	GuardedRepos:     []string{"ProjectRepo", "MembershipRepo", "EditHistoryRepo", "DetailsRepo"},
	GuardedWrites:    []string{"Create", "Delete", "DeleteByIDs", "LockByID", "MaxVersion"},
	WriteOps:         []string{"CreateProject", "CreateVersion", "Rollback", "DeleteProject", "AddMember"},
	Notes:            "Owns project membership and gap-free per-project version numbering for canvas writes.",
}

// CanvasAggregate owns project and version-history invariants.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeForbidden, CodeConflict, CodeRetryable, CodeStorage.
type CanvasAggregate interface {
	Aggregate

	// CreateProject atomically inserts the project, the creator's admin membership and version 1.
	CreateProject(ctx context.Context, in CreateProjectInput) (CreateProjectResult, error)

	// CreateVersion appends a new version (max+1) with its full field payload.
	CreateVersion(ctx context.Context, in CreateVersionInput) (canvas.VersionHandle, error)

	// Rollback appends a new version whose payload copies an earlier version of the same project.
	Rollback(ctx context.Context, in RollbackInput) (RollbackResult, error)

	// DeleteProject removes a project and everything that hangs off it. Admin only.
	DeleteProject(ctx context.Context, in DeleteProjectInput) error

	// AddMember grants a user access to a project. Admin only.
	AddMember(ctx context.Context, in AddMemberInput) (canvas.ProjectMembership, error)
}

type CreateProjectInput struct {
	UserID      int64
	ProjectName string
	Fields      canvas.Fields
	Comment     *string
}

type CreateProjectResult struct {
	Project canvas.Project
	Version canvas.VersionHandle
}

type CreateVersionInput struct {
	ProjectID  int64
	UserID     int64
	Fields     canvas.Fields
	Provenance canvas.Provenance
	Comment    *string
}

type RollbackInput struct {
	ProjectID    int64
	TargetEditID int64
	UserID       int64
	Comment      *string
}

type RollbackResult struct {
	Version       canvas.VersionHandle
	TargetVersion int
	RolledBackAt  time.Time
}

type DeleteProjectInput struct {
	ProjectID int64
	UserID    int64
}

type AddMemberInput struct {
	ProjectID    int64
	ActorUserID  int64
	MemberUserID int64
	// MemberEmail is looked up only after the actor is confirmed as admin.
	// Used when MemberUserID is zero.
	MemberEmail  string
	Role         canvas.Role
}
