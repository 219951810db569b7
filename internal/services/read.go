package services

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/yungbote/leancanvas-backend/internal/data/aggregates"
	dbpkg "github.com/yungbote/leancanvas-backend/internal/data/db"
	"github.com/yungbote/leancanvas-backend/internal/data/repos"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
)

// readSnapshot runs fn inside one read-only transaction so multi-row reads see a
// single committed state. Errors come back mapped to aggregate codes.
func readSnapshot(ctx context.Context, db *gorm.DB, op string, fn func(dbc dbctx.Context) error) error {
	var opts *sql.TxOptions
	if !dbpkg.IsSQLite(db) {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	}, opts)
	return aggregates.MapError(op, err)
}

// requireProjectMember checks the project exists and userID belongs to it.
func requireProjectMember(dbc dbctx.Context, op string, projects repos.ProjectRepo, members repos.MembershipRepo, projectID, userID int64) error {
	p, err := projects.GetByID(dbc, projectID)
	if err != nil {
		return err
	}
	if err := aggregates.RequireProject(op, p, projectID); err != nil {
		return err
	}
	m, err := members.Get(dbc, projectID, userID)
	if err != nil {
		return err
	}
	return aggregates.RequireMember(op, m, projectID, userID)
}
