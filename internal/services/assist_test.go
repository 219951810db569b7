package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	repotest "github.com/yungbote/leancanvas-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
	"github.com/yungbote/leancanvas-backend/internal/domain/research"
	"github.com/yungbote/leancanvas-backend/internal/platform/openai"
)

func newAssist(t *testing.T, f *fixture, llm openai.Client) AssistService {
	t.Helper()
	svc, err := NewAssistService(repotest.Logger(t), llm, f.history, f.projects, f.research, f.results)
	require.NoError(t, err)
	return svc
}

func TestAutoGenerateRestrictsKeys(t *testing.T) {
	f := newFixture(t)
	llm := &fakeLLM{replies: []map[string]any{{
		"problem":       "Fresh bread is hard to find",
		"solution":      "Neighbourhood bakery",
		"marketing_fun": "ignored",
		"key_metrics":   42,
	}}}
	svc := newAssist(t, f, llm)

	p, err := svc.AutoGenerate(context.Background(), AutoGenerateInput{Idea: "A small bakery for commuters", Industry: "Food"})
	require.NoError(t, err)
	require.Len(t, p.ProposedCanvas, len(canvas.AllFields))
	require.Equal(t, "Fresh bread is hard to find", p.ProposedCanvas["problem"])
	require.Equal(t, "", p.ProposedCanvas["key_metrics"])
	require.NotContains(t, p.ProposedCanvas, "marketing_fun")
	require.Equal(t, "", p.CurrentCanvas["problem"])
	require.Equal(t, canvas.ChangeAdded, p.Differences[canvas.FieldProblem].Kind)
	require.Contains(t, llm.lastPrompt(), "Industry: Food")

	_, err = svc.AutoGenerate(context.Background(), AutoGenerateInput{Idea: "short"})
	requireCode(t, err, domainagg.CodeValidation)
}

func TestAssistWithoutModelIsUnavailable(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	res := f.project(t, owner.ID, canvas.Fields{})
	svc := newAssist(t, f, nil)

	_, err := svc.AutoGenerate(context.Background(), AutoGenerateInput{Idea: "A small bakery for commuters"})
	require.ErrorIs(t, err, ErrAssistUnavailable)
	_, err = svc.ConsistencyCheck(context.Background(), res.Project.ID, owner.ID)
	require.ErrorIs(t, err, ErrAssistUnavailable)
}

func TestConsistencyCheckParsesQuestions(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	res := f.project(t, owner.ID, canvas.Fields{canvas.FieldProblem: "No bread"})
	llm := &fakeLLM{replies: []map[string]any{{
		"Q2":  map[string]any{"question": "Who buys?", "perspective": "customer_segments"},
		"Q1":  map[string]any{"question": "Why now?", "perspective": "problem"},
		"Q10": map[string]any{"question": "Tenth?", "perspective": "x"},
		"Q3":  map[string]any{"question": "", "perspective": "empty is dropped"},
		"Q4":  "not an object",
	}}}
	svc := newAssist(t, f, llm)

	qs, err := svc.ConsistencyCheck(context.Background(), res.Project.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	require.Equal(t, "Q1", qs[0].ID)
	require.Equal(t, "Q2", qs[1].ID)
	require.Equal(t, "Q10", qs[2].ID)
	require.Contains(t, llm.lastPrompt(), "- problem: No bread")

	stranger := f.user(t, "stranger")
	_, err = svc.ConsistencyCheck(context.Background(), res.Project.ID, stranger.ID)
	requireCode(t, err, domainagg.CodeForbidden)
}

func TestParseQuestionsCapsAtFive(t *testing.T) {
	list := make([]any, 0, 7)
	for i := 0; i < 7; i++ {
		list = append(list, map[string]any{"question": "q", "perspective": "p"})
	}
	qs := parseQuestions(map[string]any{"questions": list})
	require.Len(t, qs, maxConsistencyQuestions)
	require.Equal(t, "Q5", qs[4].ID)
}

func TestAutoAnswerPadsToQuestionCount(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	res := f.project(t, owner.ID, canvas.Fields{})
	llm := &fakeLLM{replies: []map[string]any{{"answers": []any{"first"}}}}
	svc := newAssist(t, f, llm)

	answers, err := svc.AutoAnswer(context.Background(), res.Project.ID, owner.ID, []Question{
		{ID: "Q1", Question: "Why?"},
		{ID: "Q2", Question: "Who?"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"first", ""}, answers)
	require.Contains(t, llm.lastPrompt(), "Question 2: Who?")

	_, err = svc.AutoAnswer(context.Background(), res.Project.ID, owner.ID, nil)
	requireCode(t, err, domainagg.CodeValidation)
}

func TestProposeUpdateOnlyWritesWhenApplied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	res := f.project(t, owner.ID, canvas.Fields{canvas.FieldProblem: "X", canvas.FieldChannels: "Flyers"})
	reply := map[string]any{"problem": "Y"}
	llm := &fakeLLM{replies: []map[string]any{reply, reply}}
	svc := newAssist(t, f, llm)
	in := ProposeUpdateInput{
		ProjectID: res.Project.ID,
		UserID:    owner.ID,
		Answers:   []QA{{Question: "Why?", Answer: "Because"}},
	}

	p, err := svc.ProposeUpdate(ctx, in)
	require.NoError(t, err)
	require.Nil(t, p.Applied)
	require.Equal(t, "Y", p.ProposedCanvas["problem"])
	require.Equal(t, "Flyers", p.ProposedCanvas["channels"])
	require.Equal(t, []canvas.Field{canvas.FieldProblem}, p.Differences.ChangedFields())

	entries, err := f.history.ListHistory(ctx, res.Project.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	in.Apply = true
	p, err = svc.ProposeUpdate(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, p.Applied)
	require.Equal(t, 2, p.Applied.Version)
	require.Equal(t, canvas.ProvenanceConsistencyCheck, p.Applied.Provenance)

	latest, err := f.history.GetLatest(ctx, res.Project.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, "Y", latest.Fields.Get(canvas.FieldProblem))
	require.Equal(t, "Flyers", latest.Fields.Get(canvas.FieldChannels))
}

func TestProposeFromResearchStoresResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	res := f.project(t, owner.ID, canvas.Fields{canvas.FieldProblem: "X"})
	_, err := f.research.CreateDocument(ctx, CreateDocumentInput{
		ProjectID:   res.Project.ID,
		UserID:      owner.ID,
		FileName:    "survey.csv",
		SourceType:  research.SourceCustomer,
		ContentText: "80% buy bread before work",
	})
	require.NoError(t, err)

	llm := &fakeLLM{replies: []map[string]any{{
		"findings":        "Commuters buy early",
		"proposed_canvas": map[string]any{"customer_segments": "Commuters"},
	}}}
	svc := newAssist(t, f, llm)

	p, err := svc.ProposeFromResearch(ctx, ProposeFromResearchInput{
		ProjectID: res.Project.ID,
		UserID:    owner.ID,
		Focus:     "morning demand",
		Apply:     true,
	})
	require.NoError(t, err)
	require.Equal(t, "Commuters buy early", p.Findings)
	require.NotNil(t, p.ResearchID)
	require.NotNil(t, p.Applied)
	require.Equal(t, canvas.ProvenanceResearch, p.Applied.Provenance)
	require.Contains(t, llm.lastPrompt(), "80% buy bread before work")

	results, err := f.research.ListResearchResults(ctx, res.Project.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "morning demand", results[0].ResearchFocus)
	require.Equal(t, res.Version.EditID, *results[0].EditID)

	require.NoError(t, f.research.DeleteResearchResult(ctx, res.Project.ID, *p.ResearchID, owner.ID))
}

func TestProposeFromInterview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	res := f.project(t, owner.ID, canvas.Fields{canvas.FieldProblem: "X"})
	note, err := f.research.CreateInterviewNote(ctx, CreateInterviewNoteInput{
		ProjectID:       res.Project.ID,
		UserID:          owner.ID,
		IntervieweeName: "Hana",
		InterviewDate:   time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		InterviewType:   research.InterviewHypothesisTesting,
		InterviewNote:   "Would pay for delivery",
	})
	require.NoError(t, err)

	llm := &fakeLLM{replies: []map[string]any{{"revenue_streams": "Delivery fee"}}}
	svc := newAssist(t, f, llm)

	p, err := svc.ProposeFromInterview(ctx, ProposeFromInterviewInput{
		ProjectID: res.Project.ID,
		UserID:    owner.ID,
		NoteID:    note.ID,
		Apply:     true,
	})
	require.NoError(t, err)
	require.Equal(t, canvas.ProvenanceInterview, p.Applied.Provenance)
	require.Equal(t, "Delivery fee", p.ProposedCanvas["revenue_streams"])
	require.Contains(t, llm.lastPrompt(), "2024-03-02")

	_, err = svc.ProposeFromInterview(ctx, ProposeFromInterviewInput{ProjectID: res.Project.ID, UserID: owner.ID, NoteID: note.ID + 99})
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestModelFailureIsReported(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	res := f.project(t, owner.ID, canvas.Fields{})
	svc := newAssist(t, f, &fakeLLM{err: errors.New("upstream 500")})

	_, err := svc.ConsistencyCheck(context.Background(), res.Project.ID, owner.ID)
	require.ErrorIs(t, err, ErrAssistFailed)
}

func TestPromptCatalogueRejectsMissingPrompts(t *testing.T) {
	_, err := parsePromptCatalog([]byte("system: hi\nprompts:\n  autogenerate: x\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "consistency_check")

	_, err = parsePromptCatalog([]byte("prompts: {}\n"))
	require.Error(t, err)

	catalog, err := loadPromptCatalog()
	require.NoError(t, err)
	out, err := catalog.render(promptAutoAnswer, map[string]any{
		"ProjectName": "P",
		"Canvas":      []canvasLine{{Name: "problem", Value: "X"}},
		"Questions":   []Question{{Question: "Why?"}},
	})
	require.NoError(t, err)
	require.Contains(t, out, "Question 1: Why?")
}
