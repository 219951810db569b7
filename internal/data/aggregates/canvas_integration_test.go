package aggregates_test

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/leancanvas-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/leancanvas-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/leancanvas-backend/internal/data/repos"
	repotest "github.com/yungbote/leancanvas-backend/internal/data/repos/testutil"
	types "github.com/yungbote/leancanvas-backend/internal/domain"
	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
)

type canvasFixture struct {
	db       *gorm.DB
	agg      domainagg.CanvasAggregate
	hooks    *aggtest.HooksRecorder
	projects repos.ProjectRepo
	members  repos.MembershipRepo
	edits    repos.EditHistoryRepo
	details  repos.DetailsRepo
}

type fixtureOption func(*aggregates.CanvasAggregateDeps)

func newCanvasFixture(t *testing.T, opts ...fixtureOption) *canvasFixture {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	f := &canvasFixture{
		db:       db,
		hooks:    &aggtest.HooksRecorder{},
		projects: repos.NewProjectRepo(db, log),
		members:  repos.NewMembershipRepo(db, log),
		edits:    repos.NewEditHistoryRepo(db, log),
		details:  repos.NewDetailsRepo(db, log),
	}
	deps := aggregates.CanvasAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:      db,
			Log:     log,
			Runner:  aggregates.NewGormTxRunner(db),
			Hooks:   f.hooks,
			Backoff: func(int) time.Duration { return 0 },
		},
		Projects: f.projects,
		Members:  f.members,
		Edits:    f.edits,
		Details:  f.details,
		Users:    repos.NewUserRepo(db, log),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.agg = aggregates.NewCanvasAggregate(deps)
	return f
}

func (f *canvasFixture) user(t *testing.T, prefix string) *types.User {
	t.Helper()
	return repotest.SeedUser(t, context.Background(), f.db, repotest.UniqueEmail(prefix))
}

func (f *canvasFixture) createProject(t *testing.T, ownerID int64, fields canvas.Fields) domainagg.CreateProjectResult {
	t.Helper()
	res, err := f.agg.CreateProject(context.Background(), domainagg.CreateProjectInput{
		UserID:      ownerID,
		ProjectName: "Canvas",
		Fields:      fields,
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return res
}

func (f *canvasFixture) versions(t *testing.T, projectID int64) []int {
	t.Helper()
	hist, err := f.edits.ListHistory(dbctx.Background(context.Background()), projectID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	out := make([]int, 0, len(hist))
	for _, h := range hist {
		out = append(out, h.Version)
	}
	sort.Ints(out)
	return out
}

func (f *canvasFixture) payload(t *testing.T, editID int64) canvas.Fields {
	t.Helper()
	cv, err := f.details.GetByEditID(dbctx.Background(context.Background()), editID)
	if err != nil || cv == nil {
		t.Fatalf("GetByEditID(%d): err=%v cv=%v", editID, err, cv)
	}
	fields, err := canvas.FieldsFromJSON(cv.Fields)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return fields
}

func assertSequential(t *testing.T, got []int, n int) {
	t.Helper()
	if len(got) != n {
		t.Fatalf("version count: want=%d got=%d (%v)", n, len(got), got)
	}
	for i, v := range got {
		if v != i+1 {
			t.Fatalf("versions must be exactly 1..%d, got=%v", n, got)
		}
	}
}

func TestCanvasAggregateCreateProjectSeedsVersionOne(t *testing.T) {
	f := newCanvasFixture(t)
	u := f.user(t, "create")
	res := f.createProject(t, u.ID, canvas.Fields{canvas.FieldProblem: "X"})

	if res.Version.Version != 1 || res.Version.Provenance != canvas.ProvenanceManual {
		t.Fatalf("seed version: %+v", res.Version)
	}
	dbc := dbctx.Background(context.Background())
	m, err := f.members.Get(dbc, res.Project.ID, u.ID)
	if err != nil || m == nil || m.Role != canvas.RoleAdmin {
		t.Fatalf("creator should be admin: m=%+v err=%v", m, err)
	}
	e, err := f.edits.GetByID(dbc, res.Version.EditID)
	if err != nil || e == nil || e.UpdateComment == nil || *e.UpdateComment != "initial creation" {
		t.Fatalf("seed comment: e=%+v err=%v", e, err)
	}
	if got := f.payload(t, res.Version.EditID).Get(canvas.FieldProblem); got != "X" {
		t.Fatalf("payload: want=X got=%q", got)
	}
}

func TestCanvasAggregateCreateProjectValidation(t *testing.T) {
	f := newCanvasFixture(t)
	u := f.user(t, "invalid")
	_, err := f.agg.CreateProject(context.Background(), domainagg.CreateProjectInput{UserID: u.ID, ProjectName: "   "})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("blank name: want validation got=%v", err)
	}
	_, err = f.agg.CreateProject(context.Background(), domainagg.CreateProjectInput{
		UserID:      u.ID,
		ProjectName: "ok",
		Fields:      canvas.Fields{canvas.Field("mission"): "x"},
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("unknown field: want validation got=%v", err)
	}
}

func TestCanvasAggregateProjectNameLimitCountsCharacters(t *testing.T) {
	f := newCanvasFixture(t)
	u := f.user(t, "kanji")

	name := strings.Repeat("事", 100)
	res, err := f.agg.CreateProject(context.Background(), domainagg.CreateProjectInput{UserID: u.ID, ProjectName: name})
	if err != nil {
		t.Fatalf("100-character multibyte name: %v", err)
	}
	if res.Project.ProjectName != name {
		t.Fatalf("project_name: want=%q got=%q", name, res.Project.ProjectName)
	}

	_, err = f.agg.CreateProject(context.Background(), domainagg.CreateProjectInput{
		UserID:      u.ID,
		ProjectName: strings.Repeat("事", 256),
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("256 characters: want validation got=%v", err)
	}
}

func TestCanvasAggregateSequentialVersionsAreGapFree(t *testing.T) {
	f := newCanvasFixture(t)
	u := f.user(t, "seq")
	p := f.createProject(t, u.ID, canvas.Fields{})

	for i := 2; i <= 5; i++ {
		h, err := f.agg.CreateVersion(context.Background(), domainagg.CreateVersionInput{
			ProjectID: p.Project.ID,
			UserID:    u.ID,
			Fields:    canvas.Fields{canvas.FieldProblem: "v"},
		})
		if err != nil {
			t.Fatalf("CreateVersion #%d: %v", i, err)
		}
		if h.Version != i {
			t.Fatalf("version: want=%d got=%d", i, h.Version)
		}
	}
	assertSequential(t, f.versions(t, p.Project.ID), 5)
}

func TestCanvasAggregateConcurrentVersionsAreGapFree(t *testing.T) {
	f := newCanvasFixture(t)
	u := f.user(t, "concurrent")
	p := f.createProject(t, u.ID, canvas.Fields{})

	const writers = 8
	start := make(chan struct{})
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err := f.agg.CreateVersion(context.Background(), domainagg.CreateVersionInput{
				ProjectID: p.Project.ID,
				UserID:    u.ID,
				Fields:    canvas.Fields{canvas.FieldSolution: "s"},
			})
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent CreateVersion: %v", err)
		}
	}
	assertSequential(t, f.versions(t, p.Project.ID), writers+1)
}

// staleEdits reports an outdated max version for the first staleFor calls, as a
// writer that read the max before a concurrent commit would.
type staleEdits struct {
	repos.EditHistoryRepo
	mu       sync.Mutex
	staleFor int
	calls    int
}

func (s *staleEdits) MaxVersion(dbc dbctx.Context, projectID int64) (int, error) {
	v, err := s.EditHistoryRepo.MaxVersion(dbc, projectID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err == nil && s.calls <= s.staleFor && v > 0 {
		v--
	}
	return v, err
}

func TestCanvasAggregateRetriesAfterUniqueConflict(t *testing.T) {
	var stale *staleEdits
	f := newCanvasFixture(t, func(d *aggregates.CanvasAggregateDeps) {
		stale = &staleEdits{EditHistoryRepo: d.Edits, staleFor: 1}
		d.Edits = stale
	})
	u := f.user(t, "retry")
	p := f.createProject(t, u.ID, canvas.Fields{})

	h, err := f.agg.CreateVersion(context.Background(), domainagg.CreateVersionInput{
		ProjectID: p.Project.ID,
		UserID:    u.ID,
		Fields:    canvas.Fields{canvas.FieldProblem: "after retry"},
	})
	if err != nil {
		t.Fatalf("CreateVersion should succeed after retry: %v", err)
	}
	if h.Version != 2 {
		t.Fatalf("version: want=2 got=%d", h.Version)
	}
	statuses := f.hooks.Statuses("Canvas.CreateVersion")
	if len(statuses) != 2 || statuses[0] != string(domainagg.CodeConflict) || statuses[1] != "success" {
		t.Fatalf("attempt statuses: want=[conflict success] got=%v", statuses)
	}
	assertSequential(t, f.versions(t, p.Project.ID), 2)
}

func TestCanvasAggregateConflictSurfacesAfterMaxAttempts(t *testing.T) {
	f := newCanvasFixture(t, func(d *aggregates.CanvasAggregateDeps) {
		d.Edits = &staleEdits{EditHistoryRepo: d.Edits, staleFor: 100}
		d.Base.MaxAttempts = 3
	})
	u := f.user(t, "exhaust")
	p := f.createProject(t, u.ID, canvas.Fields{})

	_, err := f.agg.CreateVersion(context.Background(), domainagg.CreateVersionInput{
		ProjectID: p.Project.ID,
		UserID:    u.ID,
		Fields:    canvas.Fields{},
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("want conflict after exhausted retries, got=%v", err)
	}
	if got := len(f.hooks.Statuses("Canvas.CreateVersion")); got != 3 {
		t.Fatalf("attempts: want=3 got=%d", got)
	}
	assertSequential(t, f.versions(t, p.Project.ID), 1)
}

type failingDetails struct {
	repos.DetailsRepo
}

func (failingDetails) Create(dbctx.Context, []*types.CanvasVersion) ([]*types.CanvasVersion, error) {
	return nil, errors.New("injected details failure")
}

func TestCanvasAggregateFailedPayloadInsertLeavesNoOrphan(t *testing.T) {
	f := newCanvasFixture(t)
	u := f.user(t, "atomic")
	p := f.createProject(t, u.ID, canvas.Fields{})

	log := repotest.Logger(t)
	agg := aggregates.NewCanvasAggregate(aggregates.CanvasAggregateDeps{
		Base:     aggregates.BaseDeps{DB: f.db, Log: log, Backoff: func(int) time.Duration { return 0 }},
		Projects: f.projects,
		Members:  f.members,
		Edits:    f.edits,
		Details:  failingDetails{DetailsRepo: f.details},
	})
	_, err := agg.CreateVersion(context.Background(), domainagg.CreateVersionInput{
		ProjectID: p.Project.ID,
		UserID:    u.ID,
		Fields:    canvas.Fields{canvas.FieldProblem: "never"},
	})
	if !domainagg.IsCode(err, domainagg.CodeStorage) {
		t.Fatalf("want storage error, got=%v", err)
	}
	assertSequential(t, f.versions(t, p.Project.ID), 1)

	var orphans int64
	if err := f.db.Table("edit_history AS e").
		Joins("LEFT JOIN details d ON d.edit_id = e.id").
		Where("e.project_id = ? AND d.edit_id IS NULL", p.Project.ID).
		Count(&orphans).Error; err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("orphan edit_history rows: %d", orphans)
	}
}

func TestCanvasAggregateInjectedCommitFailureRollsBack(t *testing.T) {
	var runner *aggtest.InjectedTxRunner
	f := newCanvasFixture(t, func(d *aggregates.CanvasAggregateDeps) {
		runner = &aggtest.InjectedTxRunner{Inner: d.Base.Runner}
		d.Base.Runner = runner
	})
	u := f.user(t, "commit")
	p := f.createProject(t, u.ID, canvas.Fields{})

	runner.FailCommit = errors.New("commit lost")
	_, err := f.agg.CreateVersion(context.Background(), domainagg.CreateVersionInput{
		ProjectID: p.Project.ID,
		UserID:    u.ID,
		Fields:    canvas.Fields{canvas.FieldProblem: "lost"},
	})
	if err == nil {
		t.Fatalf("expected injected commit failure")
	}
	if runner.RollbackCalls == 0 {
		t.Fatalf("runner should record a rollback")
	}
	assertSequential(t, f.versions(t, p.Project.ID), 1)
}

func TestCanvasAggregateRejectsNonMember(t *testing.T) {
	f := newCanvasFixture(t)
	owner := f.user(t, "owner")
	outsider := f.user(t, "outsider")
	p := f.createProject(t, owner.ID, canvas.Fields{canvas.FieldProblem: "X"})

	_, err := f.agg.CreateVersion(context.Background(), domainagg.CreateVersionInput{
		ProjectID: p.Project.ID,
		UserID:    outsider.ID,
		Fields:    canvas.Fields{canvas.FieldProblem: "hijack"},
	})
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("CreateVersion by outsider: want forbidden got=%v", err)
	}
	_, err = f.agg.Rollback(context.Background(), domainagg.RollbackInput{
		ProjectID:    p.Project.ID,
		TargetEditID: p.Version.EditID,
		UserID:       outsider.ID,
	})
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("Rollback by outsider: want forbidden got=%v", err)
	}
	assertSequential(t, f.versions(t, p.Project.ID), 1)

	_, err = f.agg.CreateVersion(context.Background(), domainagg.CreateVersionInput{
		ProjectID: p.Project.ID + 10_000,
		UserID:    owner.ID,
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("missing project: want not_found got=%v", err)
	}
}

func TestCanvasAggregateRollbackScenario(t *testing.T) {
	f := newCanvasFixture(t)
	ctx := context.Background()
	u := f.user(t, "rollback")
	p := f.createProject(t, u.ID, canvas.Fields{canvas.FieldProblem: "X"})
	v1 := p.Version

	v1Before := f.payload(t, v1.EditID)

	v2, err := f.agg.CreateVersion(ctx, domainagg.CreateVersionInput{
		ProjectID: p.Project.ID,
		UserID:    u.ID,
		Fields:    canvas.Fields{canvas.FieldProblem: "Y"},
	})
	if err != nil || v2.Version != 2 {
		t.Fatalf("CreateVersion v2: h=%+v err=%v", v2, err)
	}

	rb, err := f.agg.Rollback(ctx, domainagg.RollbackInput{
		ProjectID:    p.Project.ID,
		TargetEditID: v1.EditID,
		UserID:       u.ID,
	})
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if rb.Version.Version != 3 || rb.TargetVersion != 1 || rb.Version.Provenance != canvas.ProvenanceRollback {
		t.Fatalf("rollback result: %+v", rb)
	}

	v3 := f.payload(t, rb.Version.EditID)
	if d := canvas.Compare(v1Before, v3); !d.Unchanged() {
		t.Fatalf("rolled back payload differs in %v", d.ChangedFields())
	}
	if got := f.payload(t, v1.EditID); !canvas.Compare(v1Before, got).Unchanged() {
		t.Fatalf("version 1 payload changed after rollback")
	}

	hist, err := f.edits.ListHistory(dbctx.Background(ctx), p.Project.ID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	wantVersions := []int{3, 2, 1}
	wantProv := []canvas.Provenance{canvas.ProvenanceRollback, canvas.ProvenanceManual, canvas.ProvenanceManual}
	if len(hist) != 3 {
		t.Fatalf("history length: want=3 got=%d", len(hist))
	}
	for i := range hist {
		if hist[i].Version != wantVersions[i] || hist[i].UpdateCategory != wantProv[i] {
			t.Fatalf("history[%d]: want=(%d,%s) got=(%d,%s)", i, wantVersions[i], wantProv[i], hist[i].Version, hist[i].UpdateCategory)
		}
	}
	if hist[0].UpdateComment == nil || *hist[0].UpdateComment != "rolled back to version 1" {
		t.Fatalf("default rollback comment: %v", hist[0].UpdateComment)
	}
}

func TestCanvasAggregateRollbackRejectsForeignEdit(t *testing.T) {
	f := newCanvasFixture(t)
	u := f.user(t, "foreign")
	a := f.createProject(t, u.ID, canvas.Fields{canvas.FieldProblem: "A"})
	b := f.createProject(t, u.ID, canvas.Fields{canvas.FieldProblem: "B"})

	_, err := f.agg.Rollback(context.Background(), domainagg.RollbackInput{
		ProjectID:    a.Project.ID,
		TargetEditID: b.Version.EditID,
		UserID:       u.ID,
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("edit from another project: want not_found got=%v", err)
	}
	assertSequential(t, f.versions(t, a.Project.ID), 1)
}

func TestCanvasAggregateEditsNeverRewriteHistory(t *testing.T) {
	f := newCanvasFixture(t)
	ctx := context.Background()
	u := f.user(t, "immutable")
	p := f.createProject(t, u.ID, canvas.Fields{canvas.FieldChannels: "web"})

	dbc := dbctx.Background(ctx)
	before, err := f.edits.GetByID(dbc, p.Version.EditID)
	if err != nil || before == nil {
		t.Fatalf("GetByID: %v", err)
	}
	payloadBefore := f.payload(t, p.Version.EditID)

	for i := 0; i < 3; i++ {
		if _, err := f.agg.CreateVersion(ctx, domainagg.CreateVersionInput{
			ProjectID: p.Project.ID,
			UserID:    u.ID,
			Fields:    canvas.Fields{canvas.FieldChannels: "retail"},
		}); err != nil {
			t.Fatalf("CreateVersion: %v", err)
		}
	}
	if _, err := f.agg.Rollback(ctx, domainagg.RollbackInput{ProjectID: p.Project.ID, TargetEditID: p.Version.EditID, UserID: u.ID}); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	after, err := f.edits.GetByID(dbc, p.Version.EditID)
	if err != nil || after == nil {
		t.Fatalf("GetByID after: %v", err)
	}
	if after.Version != before.Version || after.UpdateCategory != before.UpdateCategory || !after.LastUpdated.Equal(before.LastUpdated) {
		t.Fatalf("edit row changed: before=%+v after=%+v", before, after)
	}
	if !canvas.Compare(payloadBefore, f.payload(t, p.Version.EditID)).Unchanged() {
		t.Fatalf("payload row changed")
	}
}

func TestCanvasAggregateMembershipAndDeletion(t *testing.T) {
	f := newCanvasFixture(t)
	ctx := context.Background()
	owner := f.user(t, "admin")
	editor := f.user(t, "editor")
	p := f.createProject(t, owner.ID, canvas.Fields{})

	if _, err := f.agg.AddMember(ctx, domainagg.AddMemberInput{ProjectID: p.Project.ID, ActorUserID: owner.ID, MemberUserID: editor.ID, Role: "owner"}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("invalid role: want validation got=%v", err)
	}
	m, err := f.agg.AddMember(ctx, domainagg.AddMemberInput{ProjectID: p.Project.ID, ActorUserID: owner.ID, MemberUserID: editor.ID, Role: canvas.RoleEditor})
	if err != nil || m.Role != canvas.RoleEditor {
		t.Fatalf("AddMember: m=%+v err=%v", m, err)
	}
	if _, err := f.agg.AddMember(ctx, domainagg.AddMemberInput{ProjectID: p.Project.ID, ActorUserID: owner.ID, MemberUserID: editor.ID, Role: canvas.RoleEditor}); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("duplicate member: want conflict got=%v", err)
	}
	third := f.user(t, "third")
	if _, err := f.agg.AddMember(ctx, domainagg.AddMemberInput{ProjectID: p.Project.ID, ActorUserID: editor.ID, MemberUserID: third.ID, Role: canvas.RoleEditor}); !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("editor adding member: want forbidden got=%v", err)
	}

	if _, err := f.agg.CreateVersion(ctx, domainagg.CreateVersionInput{ProjectID: p.Project.ID, UserID: editor.ID, Fields: canvas.Fields{canvas.FieldProblem: "e"}}); err != nil {
		t.Fatalf("editor CreateVersion: %v", err)
	}

	if err := f.agg.DeleteProject(ctx, domainagg.DeleteProjectInput{ProjectID: p.Project.ID, UserID: editor.ID}); !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("editor delete: want forbidden got=%v", err)
	}
	if err := f.agg.DeleteProject(ctx, domainagg.DeleteProjectInput{ProjectID: p.Project.ID, UserID: owner.ID}); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	dbc := dbctx.Background(ctx)
	if got, err := f.projects.GetByID(dbc, p.Project.ID); err != nil || got != nil {
		t.Fatalf("project should be gone: got=%+v err=%v", got, err)
	}
	if n, err := f.edits.CountByProject(dbc, p.Project.ID); err != nil || n != 0 {
		t.Fatalf("history should cascade: n=%d err=%v", n, err)
	}
	if err := f.agg.DeleteProject(ctx, domainagg.DeleteProjectInput{ProjectID: p.Project.ID, UserID: owner.ID}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("second delete: want not_found got=%v", err)
	}
}

func TestCanvasAggregateRejectsUnknownProvenance(t *testing.T) {
	f := newCanvasFixture(t)
	u := f.user(t, "prov")
	p := f.createProject(t, u.ID, canvas.Fields{})
	_, err := f.agg.CreateVersion(context.Background(), domainagg.CreateVersionInput{
		ProjectID:  p.Project.ID,
		UserID:     u.ID,
		Provenance: canvas.Provenance("magic"),
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("want validation got=%v", err)
	}
}

func TestCanvasContractMatchesRepoAndAggregateMethods(t *testing.T) {
	c := newCanvasFixture(t).agg.Contract()
	if c.Name != domainagg.CanvasAggregateContract.Name || c.WriteTxOwnership != domainagg.WriteTxOwnedByAggregate {
		t.Fatalf("unexpected contract: %+v", c)
	}
	aggType := reflect.TypeOf((*domainagg.CanvasAggregate)(nil)).Elem()
	for _, op := range c.WriteOps {
		if _, ok := aggType.MethodByName(op); !ok {
			t.Fatalf("write op %s is not a CanvasAggregate method", op)
		}
	}
	guarded := map[string]reflect.Type{
		"ProjectRepo":     reflect.TypeOf((*repos.ProjectRepo)(nil)).Elem(),
		"MembershipRepo":  reflect.TypeOf((*repos.MembershipRepo)(nil)).Elem(),
		"EditHistoryRepo": reflect.TypeOf((*repos.EditHistoryRepo)(nil)).Elem(),
		"DetailsRepo":     reflect.TypeOf((*repos.DetailsRepo)(nil)).Elem(),
	}
	if len(c.GuardedRepos) != len(guarded) {
		t.Fatalf("guarded repos: want=%d got=%v", len(guarded), c.GuardedRepos)
	}
	for _, name := range c.GuardedRepos {
		if _, ok := guarded[name]; !ok || !c.Guards(name) {
			t.Fatalf("unexpected guarded repo %s", name)
		}
	}
	for _, method := range c.GuardedWrites {
		found := false
		for _, rt := range guarded {
			if _, ok := rt.MethodByName(method); ok {
				found = true
			}
		}
		if !found {
			t.Fatalf("guarded write %s is not on any guarded repo", method)
		}
	}
	if c.Guards("UserRepo") || c.IsGuardedWrite("GetByID") || !c.IsWriteOp("Rollback") {
		t.Fatalf("contract lookups disagree with declared lists: %+v", c)
	}
}
