package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/leancanvas-backend/internal/http/response"
	"github.com/yungbote/leancanvas-backend/internal/platform/apierr"
	"github.com/yungbote/leancanvas-backend/internal/platform/ctxutil"
)

var errUnauthenticated = errors.New("not authenticated")

// currentUserID writes a 401 and returns false when no caller is attached.
func currentUserID(c *gin.Context) (int64, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == 0 {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return 0, false
	}
	return rd.UserID, true
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.InvalidID(name)
	}
	return id, nil
}

// pathIDs parses the named path params in order, writing a 400 on the first
// bad one.
func pathIDs(c *gin.Context, names ...string) ([]int64, bool) {
	out := make([]int64, len(names))
	for i, name := range names {
		id, err := parseID(c.Param(name), name)
		if err != nil {
			response.RespondErr(c, err)
			return nil, false
		}
		out[i] = id
	}
	return out, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty. Only an
// empty stream counts as absent, so chunked bodies are still decoded.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
	return false
}
