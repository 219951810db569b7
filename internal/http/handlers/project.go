package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/domain/canvas"
	"github.com/yungbote/leancanvas-backend/internal/http/response"
	"github.com/yungbote/leancanvas-backend/internal/platform/apierr"
	"github.com/yungbote/leancanvas-backend/internal/services"
)

// ProjectHandler serves projects, their versions and history.
type ProjectHandler struct {
	projects services.ProjectService
	history  services.HistoryService
}

func NewProjectHandler(projects services.ProjectService, history services.HistoryService) *ProjectHandler {
	return &ProjectHandler{projects: projects, history: history}
}

type createProjectRequest struct {
	ProjectName   string         `json:"project_name"`
	Fields        map[string]any `json:"fields"`
	UpdateComment *string        `json:"update_comment"`
}

type createVersionRequest struct {
	Fields         map[string]any `json:"fields"`
	UpdateCategory string         `json:"update_category"`
	UpdateComment  *string        `json:"update_comment"`
}

type addMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type rollbackRequest struct {
	UpdateComment *string `json:"update_comment"`
}

func parseFields(raw map[string]any) (canvas.Fields, error) {
	fields, err := canvas.ParseFields(raw)
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, string(domainagg.CodeValidation), err)
	}
	return fields, nil
}

// GET /api/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	list, err := h.history.ListProjects(c.Request.Context(), userID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"projects": list})
}

// POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req createProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	fields, err := parseFields(req.Fields)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.projects.CreateProject(c.Request.Context(), domainagg.CreateProjectInput{
		UserID:      userID,
		ProjectName: req.ProjectName,
		Fields:      fields,
		Comment:     req.UpdateComment,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"project": res.Project, "version": res.Version})
}

// DELETE /api/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	if err := h.projects.DeleteProject(c.Request.Context(), ids[0], userID); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/projects/:id/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	var req addMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	role := canvas.Role(strings.TrimSpace(req.Role))
	if role == "" {
		role = canvas.RoleEditor
	}
	m, err := h.projects.AddMemberByEmail(c.Request.Context(), ids[0], userID, req.Email, role)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"member": m})
}

// GET /api/projects/:id/latest
func (h *ProjectHandler) GetLatest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	d, err := h.history.GetLatest(c.Request.Context(), ids[0], userID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, d)
}

// POST /api/projects/:id/latest
func (h *ProjectHandler) CreateVersion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	var req createVersionRequest
	if !bindJSON(c, &req) {
		return
	}
	fields, err := parseFields(req.Fields)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	prov := canvas.Provenance(strings.TrimSpace(req.UpdateCategory))
	if prov == "" {
		prov = canvas.ProvenanceManual
	}
	v, err := h.projects.CreateVersion(c.Request.Context(), domainagg.CreateVersionInput{
		ProjectID:  ids[0],
		UserID:     userID,
		Fields:     fields,
		Provenance: prov,
		Comment:    req.UpdateComment,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, v)
}

// GET /api/projects/:id/history-list
func (h *ProjectHandler) ListHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id")
	if !ok {
		return
	}
	entries, err := h.history.ListHistory(c.Request.Context(), ids[0], userID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"history": entries})
}

// GET /api/projects/:id/versions/:version
func (h *ProjectHandler) GetVersion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id", "version")
	if !ok {
		return
	}
	d, err := h.history.GetVersion(c.Request.Context(), ids[0], int(ids[1]), userID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, d)
}

// POST /api/projects/:id/edit-histories/:edit_id/rollback
// body (optional): { "update_comment": "..." }
func (h *ProjectHandler) Rollback(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, ok := pathIDs(c, "id", "edit_id")
	if !ok {
		return
	}
	var req rollbackRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	res, err := h.projects.Rollback(c.Request.Context(), domainagg.RollbackInput{
		ProjectID:    ids[0],
		TargetEditID: ids[1],
		UserID:       userID,
		Comment:      req.UpdateComment,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"version":        res.Version,
		"target_version": res.TargetVersion,
		"rolled_back_at": res.RolledBackAt,
	})
}

// GET /api/compare?edit_id_1=&edit_id_2=
func (h *ProjectHandler) Compare(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	a, err := parseID(c.Query("edit_id_1"), "edit_id_1")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	b, err := parseID(c.Query("edit_id_2"), "edit_id_2")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	diff, err := h.history.Compare(c.Request.Context(), a, b, userID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"differences": diff, "changed_fields": diff.ChangedFields()})
}
