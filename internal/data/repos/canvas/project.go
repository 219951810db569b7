package canvas

import (
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/leancanvas-backend/internal/domain"
	domcanvas "github.com/yungbote/leancanvas-backend/internal/domain/canvas"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

type ProjectRepo interface {
	Create(dbc dbctx.Context, projects []*types.Project) ([]*types.Project, error)
	GetByIDs(dbc dbctx.Context, projectIDs []int64) ([]*types.Project, error)
	GetByID(dbc dbctx.Context, projectID int64) (*types.Project, error)
	// LockByID reads the project row FOR UPDATE. Writers on the same project
	// queue here; dialects without row locks fall back to the unique index.
	LockByID(dbc dbctx.Context, projectID int64) (*types.Project, error)
	Delete(dbc dbctx.Context, projectID int64) error
	ListForUser(dbc dbctx.Context, userID int64) ([]domcanvas.ProjectSummary, error)
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	repoLog := baseLog.With("repo", "ProjectRepo")
	return &projectRepo{db: db, log: repoLog}
}

func (pr *projectRepo) Create(dbc dbctx.Context, projects []*types.Project) ([]*types.Project, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(projects) == 0 {
		return []*types.Project{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&projects).Error; err != nil {
		return nil, err
	}

	return projects, nil
}

func (pr *projectRepo) GetByIDs(dbc dbctx.Context, projectIDs []int64) ([]*types.Project, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Project

	if len(projectIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", projectIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

// GetByID returns nil, nil when the project does not exist.
func (pr *projectRepo) GetByID(dbc dbctx.Context, projectID int64) (*types.Project, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = pr.db
	}

	var p types.Project
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", projectID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LockByID returns nil, nil when the project does not exist.
func (pr *projectRepo) LockByID(dbc dbctx.Context, projectID int64) (*types.Project, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = pr.db
	}

	var p types.Project
	err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", projectID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the project. Memberships, history, payloads and research rows
// go with it through ON DELETE CASCADE.
func (pr *projectRepo) Delete(dbc dbctx.Context, projectID int64) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(dbc.Ctx).
		Where("id = ?", projectID).
		Delete(&types.Project{}).Error
}

type projectRoleRow struct {
	types.Project
	Role domcanvas.Role
}

// ListForUser returns the projects userID belongs to, most recently edited first.
func (pr *projectRepo) ListForUser(dbc dbctx.Context, userID int64) ([]domcanvas.ProjectSummary, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = pr.db
	}

	var rows []projectRoleRow
	if err := transaction.WithContext(dbc.Ctx).
		Table("projects AS p").
		Select("p.id, p.user_id, p.project_name, p.created_at, pm.role").
		Joins("JOIN project_members pm ON pm.project_id = p.id").
		Where("pm.user_id = ?", userID).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domcanvas.ProjectSummary, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	var latest []*types.EditRecord
	if err := transaction.WithContext(dbc.Ctx).
		Table("edit_history AS e").
		Where("e.project_id IN ?", ids).
		Where("e.version = (SELECT MAX(e2.version) FROM edit_history e2 WHERE e2.project_id = e.project_id)").
		Find(&latest).Error; err != nil {
		return nil, err
	}
	byProject := make(map[int64]*types.EditRecord, len(latest))
	for _, e := range latest {
		byProject[e.ProjectID] = e
	}

	for _, r := range rows {
		s := domcanvas.ProjectSummary{
			ProjectID:   r.ID,
			ProjectName: r.ProjectName,
			Role:        r.Role,
			CreatedAt:   r.CreatedAt,
			LastUpdated: r.CreatedAt,
		}
		if e, ok := byProject[r.ID]; ok {
			s.CurrentVersion = e.Version
			s.LastUpdated = e.LastUpdated
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastUpdated.Equal(out[j].LastUpdated) {
			return out[i].ProjectID > out[j].ProjectID
		}
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out, nil
}
