package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/leancanvas-backend/internal/data/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/data/repos"
	types "github.com/yungbote/leancanvas-backend/internal/domain"
	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
	"github.com/yungbote/leancanvas-backend/internal/platform/openai"
	"github.com/yungbote/leancanvas-backend/internal/platform/validate"
)

const (
	maxConsistencyQuestions = 5
	maxSourceExcerpt        = 4000
	maxSources              = 5
)

var (
	// ErrAssistUnavailable means no model is configured.
	ErrAssistUnavailable = errors.New("assist unavailable: no language model configured")
	// ErrAssistFailed wraps model call or reply parsing failures.
	ErrAssistFailed = errors.New("assist request failed")
)

type Question struct {
	ID          string `json:"id"`
	Question    string `json:"question" validate:"required"`
	Perspective string `json:"perspective"`
}

type QA struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"`
}

// Proposal is a suggested canvas next to the current one. Applied is set when
// the proposal was written as a new version.
type Proposal struct {
	CurrentCanvas  map[string]string     `json:"current_canvas"`
	ProposedCanvas map[string]string     `json:"proposed_canvas"`
	Differences    canvas.Diff           `json:"differences"`
	Applied        *canvas.VersionHandle `json:"applied,omitempty"`
	ResearchID     *int64                `json:"research_id,omitempty"`
	Findings       string                `json:"findings,omitempty"`
}

type AutoGenerateInput struct {
	Idea           string `json:"idea_description" validate:"required,min=10,max=2000"`
	TargetAudience string `json:"target_audience" validate:"max=500"`
	Industry       string `json:"industry" validate:"max=200"`
}

type ProposeUpdateInput struct {
	ProjectID int64
	UserID    int64
	Answers   []QA `validate:"required,min=1,dive"`
	Apply     bool
}

type ProposeFromResearchInput struct {
	ProjectID int64
	UserID    int64
	Focus     string `json:"research_focus" validate:"required,max=2000"`
	Apply     bool
}

type ProposeFromInterviewInput struct {
	ProjectID int64
	UserID    int64
	NoteID    int64 `json:"note_id" validate:"required,gt=0"`
	Apply     bool
}

// AssistService produces model-backed canvas proposals. It reads through the
// history service and only writes a version when Apply is requested.
type AssistService interface {
	AutoGenerate(ctx context.Context, in AutoGenerateInput) (Proposal, error)
	ConsistencyCheck(ctx context.Context, projectID, userID int64) ([]Question, error)
	AutoAnswer(ctx context.Context, projectID, userID int64, questions []Question) ([]string, error)
	ProposeUpdate(ctx context.Context, in ProposeUpdateInput) (Proposal, error)
	ProposeFromResearch(ctx context.Context, in ProposeFromResearchInput) (Proposal, error)
	ProposeFromInterview(ctx context.Context, in ProposeFromInterviewInput) (Proposal, error)
}

type assistService struct {
	log      *logger.Logger
	llm      openai.Client
	prompts  *promptCatalog
	history  HistoryService
	projects ProjectService
	research ResearchService
	results  repos.ResearchResultRepo
	now      func() time.Time
}

// NewAssistService fails only when the prompt catalogue is invalid. A nil llm
// yields a service that answers ErrAssistUnavailable.
func NewAssistService(
	log *logger.Logger,
	llm openai.Client,
	history HistoryService,
	projects ProjectService,
	research ResearchService,
	results repos.ResearchResultRepo,
) (AssistService, error) {
	catalog, err := loadPromptCatalog()
	if err != nil {
		return nil, err
	}
	return &assistService{
		log:      log.With("service", "AssistService"),
		llm:      llm,
		prompts:  catalog,
		history:  history,
		projects: projects,
		research: research,
		results:  results,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

type canvasLine struct {
	Name  string
	Value string
}

func canvasLines(f canvas.Fields) []canvasLine {
	out := make([]canvasLine, 0, len(canvas.AllFields))
	for _, name := range canvas.AllFields {
		if v := strings.TrimSpace(f.Get(name)); v != "" {
			out = append(out, canvasLine{Name: string(name), Value: v})
		}
	}
	return out
}

func fieldNames() []string {
	out := make([]string, len(canvas.AllFields))
	for i, f := range canvas.AllFields {
		out[i] = string(f)
	}
	return out
}

func (s *assistService) AutoGenerate(ctx context.Context, in AutoGenerateInput) (Proposal, error) {
	const op = "Assist.AutoGenerate"
	in.Idea = strings.TrimSpace(in.Idea)
	if err := validate.Struct(in); err != nil {
		return Proposal{}, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	reply, err := s.ask(ctx, op, promptAutoGenerate, map[string]any{
		"Idea":           in.Idea,
		"TargetAudience": strings.TrimSpace(in.TargetAudience),
		"Industry":       strings.TrimSpace(in.Industry),
		"FieldNames":     fieldNames(),
	})
	if err != nil {
		return Proposal{}, err
	}
	proposed := proposedFields(reply, canvas.Fields{})
	return newProposal(canvas.Fields{}, proposed), nil
}

func (s *assistService) ConsistencyCheck(ctx context.Context, projectID, userID int64) ([]Question, error) {
	const op = "Assist.ConsistencyCheck"
	if s.llm == nil {
		return nil, ErrAssistUnavailable
	}
	latest, err := s.history.GetLatest(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	reply, err := s.ask(ctx, op, promptConsistencyCheck, map[string]any{
		"ProjectName": latest.ProjectName,
		"Canvas":      canvasLines(latest.Fields),
	})
	if err != nil {
		return nil, err
	}
	questions := parseQuestions(reply)
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: model returned no questions", ErrAssistFailed)
	}
	return questions, nil
}

func (s *assistService) AutoAnswer(ctx context.Context, projectID, userID int64, questions []Question) ([]string, error) {
	const op = "Assist.AutoAnswer"
	if len(questions) == 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "questions are required", nil)
	}
	for _, q := range questions {
		if err := validate.Struct(q); err != nil {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
		}
	}
	if s.llm == nil {
		return nil, ErrAssistUnavailable
	}
	latest, err := s.history.GetLatest(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	reply, err := s.ask(ctx, op, promptAutoAnswer, map[string]any{
		"ProjectName": latest.ProjectName,
		"Canvas":      canvasLines(latest.Fields),
		"Questions":   questions,
	})
	if err != nil {
		return nil, err
	}
	answers := stringList(reply["answers"])
	out := make([]string, len(questions))
	copy(out, answers)
	return out, nil
}

func (s *assistService) ProposeUpdate(ctx context.Context, in ProposeUpdateInput) (Proposal, error) {
	const op = "Assist.ProposeUpdate"
	if err := validate.Struct(in); err != nil {
		return Proposal{}, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	if s.llm == nil {
		return Proposal{}, ErrAssistUnavailable
	}
	latest, err := s.history.GetLatest(ctx, in.ProjectID, in.UserID)
	if err != nil {
		return Proposal{}, err
	}
	reply, err := s.ask(ctx, op, promptCanvasUpdate, map[string]any{
		"ProjectName": latest.ProjectName,
		"Canvas":      canvasLines(latest.Fields),
		"Answers":     in.Answers,
		"FieldNames":  fieldNames(),
	})
	if err != nil {
		return Proposal{}, err
	}
	p := newProposal(latest.Fields, proposedFields(reply, latest.Fields))
	if in.Apply {
		if err := s.apply(ctx, &p, latest, in.UserID, canvas.ProvenanceConsistencyCheck, "applied consistency check proposal"); err != nil {
			return Proposal{}, err
		}
	}
	return p, nil
}

func (s *assistService) ProposeFromResearch(ctx context.Context, in ProposeFromResearchInput) (Proposal, error) {
	const op = "Assist.ProposeFromResearch"
	in.Focus = strings.TrimSpace(in.Focus)
	if err := validate.Struct(in); err != nil {
		return Proposal{}, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	if s.llm == nil {
		return Proposal{}, ErrAssistUnavailable
	}
	latest, err := s.history.GetLatest(ctx, in.ProjectID, in.UserID)
	if err != nil {
		return Proposal{}, err
	}
	docs, err := s.research.ListDocuments(ctx, in.ProjectID, in.UserID)
	if err != nil {
		return Proposal{}, err
	}
	reply, err := s.ask(ctx, op, promptResearch, map[string]any{
		"ProjectName": latest.ProjectName,
		"Focus":       in.Focus,
		"Canvas":      canvasLines(latest.Fields),
		"Sources":     researchSources(docs),
		"FieldNames":  fieldNames(),
	})
	if err != nil {
		return Proposal{}, err
	}

	proposedRaw, _ := reply["proposed_canvas"].(map[string]any)
	if proposedRaw == nil {
		proposedRaw = reply
	}
	p := newProposal(latest.Fields, proposedFields(proposedRaw, latest.Fields))
	p.Findings, _ = reply["findings"].(string)

	raw, err := json.Marshal(reply)
	if err != nil {
		return Proposal{}, domainagg.NewError(domainagg.CodeInternal, op, "encode research result", err)
	}
	editID := latest.EditID
	row := &types.ResearchResult{
		ProjectID:     in.ProjectID,
		EditID:        &editID,
		UserID:        in.UserID,
		ResearchFocus: in.Focus,
		ResultText:    datatypes.JSON(raw),
		SourceSummary: p.Findings,
		CreatedAt:     s.now(),
	}
	if _, err := s.results.Create(dbctx.Background(ctx), []*types.ResearchResult{row}); err != nil {
		return Proposal{}, aggregates.MapError(op, err)
	}
	p.ResearchID = &row.ID

	if in.Apply {
		comment := fmt.Sprintf("applied research proposal: %s", truncate(in.Focus, 200))
		if err := s.apply(ctx, &p, latest, in.UserID, canvas.ProvenanceResearch, comment); err != nil {
			return Proposal{}, err
		}
	}
	return p, nil
}

func (s *assistService) ProposeFromInterview(ctx context.Context, in ProposeFromInterviewInput) (Proposal, error) {
	const op = "Assist.ProposeFromInterview"
	if err := validate.Struct(in); err != nil {
		return Proposal{}, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	if s.llm == nil {
		return Proposal{}, ErrAssistUnavailable
	}
	note, err := s.research.GetInterviewNote(ctx, in.ProjectID, in.NoteID, in.UserID)
	if err != nil {
		return Proposal{}, err
	}
	latest, err := s.history.GetLatest(ctx, in.ProjectID, in.UserID)
	if err != nil {
		return Proposal{}, err
	}
	reply, err := s.ask(ctx, op, promptInterview, map[string]any{
		"ProjectName":   latest.ProjectName,
		"Canvas":        canvasLines(latest.Fields),
		"Interviewee":   note.IntervieweeName,
		"InterviewType": string(note.InterviewType),
		"InterviewDate": note.InterviewDate.Format("2006-01-02"),
		"Note":          note.InterviewNote,
		"FieldNames":    fieldNames(),
	})
	if err != nil {
		return Proposal{}, err
	}
	p := newProposal(latest.Fields, proposedFields(reply, latest.Fields))
	if in.Apply {
		comment := fmt.Sprintf("applied interview with %s", note.IntervieweeName)
		if err := s.apply(ctx, &p, latest, in.UserID, canvas.ProvenanceInterview, comment); err != nil {
			return Proposal{}, err
		}
	}
	return p, nil
}

func (s *assistService) ask(ctx context.Context, op, prompt string, data any) (map[string]any, error) {
	if s.llm == nil {
		return nil, ErrAssistUnavailable
	}
	user, err := s.prompts.render(prompt, data)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "render prompt", err)
	}
	reply, err := s.llm.GenerateJSON(ctx, s.prompts.system, user)
	if err != nil {
		s.log.Warn("assist model call failed", "op", op, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrAssistFailed, op, err)
	}
	return reply, nil
}

func (s *assistService) apply(ctx context.Context, p *Proposal, latest *canvas.VersionDetail, userID int64, prov canvas.Provenance, comment string) error {
	fields := make(canvas.Fields, len(p.ProposedCanvas))
	for k, v := range p.ProposedCanvas {
		if v != "" {
			fields[canvas.Field(k)] = v
		}
	}
	h, err := s.projects.CreateVersion(ctx, domainagg.CreateVersionInput{
		ProjectID:  latest.ProjectID,
		UserID:     userID,
		Fields:     fields,
		Provenance: prov,
		Comment:    &comment,
	})
	if err != nil {
		return err
	}
	p.Applied = &h
	return nil
}

func newProposal(current, proposed canvas.Fields) Proposal {
	return Proposal{
		CurrentCanvas:  current.Complete(),
		ProposedCanvas: proposed.Complete(),
		Differences:    canvas.Compare(current, proposed),
	}
}

// proposedFields keeps recognized canvas keys with string values. Cells the
// model left out keep their current value.
func proposedFields(raw map[string]any, current canvas.Fields) canvas.Fields {
	out := current.Clone()
	for k, v := range raw {
		name := strings.TrimSpace(k)
		if !canvas.IsField(name) {
			continue
		}
		if s, ok := v.(string); ok {
			out[canvas.Field(name)] = strings.TrimSpace(s)
		}
	}
	return out
}

// parseQuestions accepts {"Q1": {...}, "Q2": {...}} or {"questions": [...]}.
func parseQuestions(raw map[string]any) []Question {
	var out []Question
	if list, ok := raw["questions"].([]any); ok {
		for i, item := range list {
			if q, ok := questionFrom(fmt.Sprintf("Q%d", i+1), item); ok {
				out = append(out, q)
			}
		}
	} else {
		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return questionKeyLess(keys[i], keys[j]) })
		for _, k := range keys {
			if q, ok := questionFrom(k, raw[k]); ok {
				out = append(out, q)
			}
		}
	}
	if len(out) > maxConsistencyQuestions {
		out = out[:maxConsistencyQuestions]
	}
	return out
}

func questionFrom(id string, v any) (Question, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return Question{}, false
	}
	text, _ := m["question"].(string)
	if strings.TrimSpace(text) == "" {
		return Question{}, false
	}
	if explicit, ok := m["id"].(string); ok && explicit != "" {
		id = explicit
	}
	perspective, _ := m["perspective"].(string)
	return Question{ID: id, Question: strings.TrimSpace(text), Perspective: strings.TrimSpace(perspective)}, true
}

// questionKeyLess orders Q2 before Q10.
func questionKeyLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, _ := item.(string)
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

type researchSource struct {
	FileName   string
	SourceType string
	Excerpt    string
}

func researchSources(docs []*types.Document) []researchSource {
	out := make([]researchSource, 0, maxSources)
	for _, d := range docs {
		if len(out) == maxSources {
			break
		}
		text := strings.TrimSpace(d.ContentText)
		if text == "" {
			continue
		}
		out = append(out, researchSource{
			FileName:   d.FileName,
			SourceType: string(d.SourceType),
			Excerpt:    truncate(text, maxSourceExcerpt),
		})
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
