package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/leancanvas-backend/internal/data/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/data/repos"
	repotest "github.com/yungbote/leancanvas-backend/internal/data/repos/testutil"
	types "github.com/yungbote/leancanvas-backend/internal/domain"
	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
	"github.com/yungbote/leancanvas-backend/internal/realtime"
	"github.com/yungbote/leancanvas-backend/internal/realtime/bus"
)

type fixture struct {
	db       *gorm.DB
	users    repos.UserRepo
	tokens   repos.UserTokenRepo
	results  repos.ResearchResultRepo
	notes    repos.InterviewNoteRepo
	docs     repos.DocumentRepo
	events   *bus.MemoryBus
	projects ProjectService
	history  HistoryService
	research ResearchService

	mu        sync.Mutex
	published []realtime.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)

	projectRepo := repos.NewProjectRepo(db, log)
	memberRepo := repos.NewMembershipRepo(db, log)
	editRepo := repos.NewEditHistoryRepo(db, log)
	detailRepo := repos.NewDetailsRepo(db, log)

	f := &fixture{
		db:      db,
		users:   repos.NewUserRepo(db, log),
		tokens:  repos.NewUserTokenRepo(db, log),
		results: repos.NewResearchResultRepo(db, log),
		notes:   repos.NewInterviewNoteRepo(db, log),
		docs:    repos.NewDocumentRepo(db, log),
		events:  bus.NewMemoryBus(),
	}
	require.NoError(t, f.events.StartForwarder(context.Background(), func(evt realtime.Event) {
		f.mu.Lock()
		f.published = append(f.published, evt)
		f.mu.Unlock()
	}))

	agg := aggregates.NewCanvasAggregate(aggregates.CanvasAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:      db,
			Log:     log,
			Runner:  aggregates.NewGormTxRunner(db),
			Backoff: func(int) time.Duration { return 0 },
		},
		Projects: projectRepo,
		Members:  memberRepo,
		Edits:    editRepo,
		Details:  detailRepo,
		Users:    f.users,
	})
	f.projects = NewProjectService(log, agg, f.events, nil)
	f.history = NewHistoryService(db, log, projectRepo, memberRepo, editRepo, detailRepo)
	f.research = NewResearchService(db, log, projectRepo, memberRepo, editRepo, f.results, f.notes, f.docs)
	return f
}

func (f *fixture) user(t *testing.T, prefix string) *types.User {
	t.Helper()
	return repotest.SeedUser(t, context.Background(), f.db, repotest.UniqueEmail(prefix))
}

func (f *fixture) project(t *testing.T, ownerID int64, fields canvas.Fields) domainagg.CreateProjectResult {
	t.Helper()
	res, err := f.projects.CreateProject(context.Background(), domainagg.CreateProjectInput{
		UserID:      ownerID,
		ProjectName: "Bakery",
		Fields:      fields,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) publishedEvents() []realtime.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]realtime.Event(nil), f.published...)
}

func requireCode(t *testing.T, err error, code domainagg.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, domainagg.CodeOf(err), "error: %v", err)
}

// fakeLLM replays canned replies in order and records the prompts it saw.
type fakeLLM struct {
	mu      sync.Mutex
	replies []map[string]any
	err     error
	prompts []string
}

func (f *fakeLLM) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, system, user string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, user)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.replies) == 0 {
		return map[string]any{}, nil
	}
	out := f.replies[0]
	f.replies = f.replies[1:]
	return out, nil
}

func (f *fakeLLM) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}
