package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/leancanvas-backend/internal/domain"
	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
)

var emailSeq atomic.Int64

// UniqueEmail keeps fixtures from colliding on the shared Postgres database.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d-%d@example.com", prefix, time.Now().UnixNano(), emailSeq.Add(1))
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		Email:        email,
		PasswordHash: "pw",
		CreatedAt:    time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedProject inserts a project with its owner as admin and no versions.
func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID int64, name string) *types.Project {
	tb.Helper()
	p := &types.Project{
		UserID:      ownerID,
		ProjectName: name,
		CreatedAt:   time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	SeedMember(tb, ctx, tx, p.ID, ownerID, canvas.RoleAdmin)
	return p
}

func SeedMember(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, userID int64, role canvas.Role) {
	tb.Helper()
	m := &types.ProjectMembership{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed member: %v", err)
	}
}

// SeedVersion writes an edit_history row and its details payload.
func SeedVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, userID int64, version int, fields canvas.Fields) *types.EditRecord {
	tb.Helper()
	e := &types.EditRecord{
		ProjectID:      projectID,
		Version:        version,
		UserID:         userID,
		LastUpdated:    time.Now().UTC(),
		UpdateCategory: canvas.ProvenanceManual,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed edit: %v", err)
	}
	raw, err := fields.JSON()
	if err != nil {
		tb.Fatalf("encode fields: %v", err)
	}
	if err := tx.WithContext(ctx).Create(&types.CanvasVersion{EditID: e.ID, Fields: raw}).Error; err != nil {
		tb.Fatalf("seed details: %v", err)
	}
	return e
}

func PtrString(v string) *string { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
