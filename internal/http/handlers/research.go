package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/leancanvas-backend/internal/domain/research"
	"github.com/yungbote/leancanvas-backend/internal/http/response"
	"github.com/yungbote/leancanvas-backend/internal/platform/apierr"
	"github.com/yungbote/leancanvas-backend/internal/services"
)

// ResearchHandler serves interview notes, source documents and stored
// research results.
type ResearchHandler struct {
	research services.ResearchService
}

func NewResearchHandler(research services.ResearchService) *ResearchHandler {
	return &ResearchHandler{research: research}
}

type createNoteRequest struct {
	IntervieweeName string `json:"interviewee_name"`
	InterviewDate   string `json:"interview_date"`
	InterviewType   string `json:"interview_type"`
	InterviewNote   string `json:"interview_note"`
}

type createDocumentRequest struct {
	FileName    string `json:"file_name"`
	SourceType  string `json:"source_type"`
	ContentText string `json:"content_text"`
}

// parseInterviewDate accepts a calendar date or a full RFC 3339 timestamp.
func parseInterviewDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, apierr.BadRequest("invalid_interview_date", "interview_date must be YYYY-MM-DD")
}

// GET /api/projects/:id/interview-notes
func (h *ResearchHandler) ListInterviewNotes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	notes, err := h.research.ListInterviewNotes(c.Request.Context(), ids[0], userID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"interview_notes": notes})
}

// POST /api/projects/:id/interview-notes
func (h *ResearchHandler) CreateInterviewNote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	var req createNoteRequest
	if !bindJSON(c, &req) {
		return
	}
	date, err := parseInterviewDate(req.InterviewDate)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	note, err := h.research.CreateInterviewNote(c.Request.Context(), services.CreateInterviewNoteInput{
		ProjectID:       ids[0],
		UserID:          userID,
		IntervieweeName: req.IntervieweeName,
		InterviewDate:   date,
		InterviewType:   research.InterviewType(strings.TrimSpace(req.InterviewType)),
		InterviewNote:   req.InterviewNote,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, note)
}

// GET /api/projects/:id/interview-notes/:note_id
func (h *ResearchHandler) GetInterviewNote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id", "note_id")
	if !ok {
		return
	}
	note, err := h.research.GetInterviewNote(c.Request.Context(), ids[0], ids[1], userID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, note)
}

// DELETE /api/projects/:id/interview-notes/:note_id
func (h *ResearchHandler) DeleteInterviewNote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id", "note_id")
	if !ok {
		return
	}
	if err := h.research.DeleteInterviewNote(c.Request.Context(), ids[0], ids[1], userID); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/projects/:id/documents
func (h *ResearchHandler) ListDocuments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	docs, err := h.research.ListDocuments(c.Request.Context(), ids[0], userID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"documents": docs})
}

// POST /api/projects/:id/documents
func (h *ResearchHandler) CreateDocument(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	var req createDocumentRequest
	if !bindJSON(c, &req) {
		return
	}
	doc, err := h.research.CreateDocument(c.Request.Context(), services.CreateDocumentInput{
		ProjectID:   ids[0],
		UserID:      userID,
		FileName:    req.FileName,
		SourceType:  research.SourceType(strings.TrimSpace(req.SourceType)),
		ContentText: req.ContentText,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, doc)
}

// DELETE /api/projects/:id/documents/:document_id
func (h *ResearchHandler) DeleteDocument(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id", "document_id")
	if !ok {
		return
	}
	if err := h.research.DeleteDocument(c.Request.Context(), ids[0], ids[1], userID); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/projects/:id/research
func (h *ResearchHandler) ListResearchResults(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	results, err := h.research.ListResearchResults(c.Request.Context(), ids[0], userID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"research": results})
}

// DELETE /api/projects/:id/research/:research_id
func (h *ResearchHandler) DeleteResearchResult(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id", "research_id")
	if !ok {
		return
	}
	if err := h.research.DeleteResearchResult(c.Request.Context(), ids[0], ids[1], userID); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
