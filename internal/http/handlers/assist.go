package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/leancanvas-backend/internal/http/response"
	"github.com/yungbote/leancanvas-backend/internal/services"
)

// AssistHandler exposes the model-backed proposal endpoints.
type AssistHandler struct {
	assist services.AssistService
}

func NewAssistHandler(assist services.AssistService) *AssistHandler {
	return &AssistHandler{assist: assist}
}

type autoAnswerRequest struct {
	Questions []services.Question `json:"questions"`
}

type canvasUpdateRequest struct {
	Answers []services.QA `json:"answers"`
	Apply   bool          `json:"apply"`
}

type researchRequest struct {
	ResearchFocus string `json:"research_focus"`
	Apply         bool   `json:"apply"`
}

type interviewRequest struct {
	NoteID int64 `json:"note_id"`
	Apply  bool  `json:"apply"`
}

func respondAssistError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAssistUnavailable):
		response.RespondError(c, http.StatusServiceUnavailable, "assist_unavailable", err)
	case errors.Is(err, services.ErrAssistFailed):
		response.RespondError(c, http.StatusBadGateway, "assist_failed", services.ErrAssistFailed)
	default:
		response.RespondAggregateError(c, err)
	}
}

// POST /api/canvas-autogenerate
func (h *AssistHandler) AutoGenerate(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	var req services.AutoGenerateInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.assist.AutoGenerate(c.Request.Context(), req)
	if err != nil {
		respondAssistError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// POST /api/projects/:id/consistency-check
func (h *AssistHandler) ConsistencyCheck(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	qs, err := h.assist.ConsistencyCheck(c.Request.Context(), ids[0], userID)
	if err != nil {
		respondAssistError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"questions": qs})
}

// POST /api/projects/:id/auto-answer
func (h *AssistHandler) AutoAnswer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	var req autoAnswerRequest
	if !bindJSON(c, &req) {
		return
	}
	answers, err := h.assist.AutoAnswer(c.Request.Context(), ids[0], userID, req.Questions)
	if err != nil {
		respondAssistError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"answers": answers})
}

// POST /api/projects/:id/canvas-update
func (h *AssistHandler) CanvasUpdate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	var req canvasUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.assist.ProposeUpdate(c.Request.Context(), services.ProposeUpdateInput{
		ProjectID: ids[0],
		UserID:    userID,
		Answers:   req.Answers,
		Apply:     req.Apply,
	})
	if err != nil {
		respondAssistError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// POST /api/projects/:id/research
func (h *AssistHandler) Research(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	var req researchRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.assist.ProposeFromResearch(c.Request.Context(), services.ProposeFromResearchInput{
		ProjectID: ids[0],
		UserID:    userID,
		Focus:     req.ResearchFocus,
		Apply:     req.Apply,
	})
	if err != nil {
		respondAssistError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// POST /api/projects/:id/interview-to-canvas
func (h *AssistHandler) InterviewToCanvas(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	var req interviewRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.assist.ProposeFromInterview(c.Request.Context(), services.ProposeFromInterviewInput{
		ProjectID: ids[0],
		UserID:    userID,
		NoteID:    req.NoteID,
		Apply:     req.Apply,
	})
	if err != nil {
		respondAssistError(c, err)
		return
	}
	response.RespondOK(c, p)
}
