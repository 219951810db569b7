package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/platform/apierr"
)

var codeStatus = map[domainagg.ErrorCode]int{
	domainagg.CodeValidation:         http.StatusBadRequest,
	domainagg.CodeNotFound:           http.StatusNotFound,
	domainagg.CodeForbidden:          http.StatusForbidden,
	domainagg.CodeConflict:           http.StatusConflict,
	domainagg.CodeInvariantViolation: http.StatusConflict,
	domainagg.CodePreconditionFailed: http.StatusUnprocessableEntity,
	domainagg.CodeRetryable:          http.StatusServiceUnavailable,
	domainagg.CodeStorage:            http.StatusInternalServerError,
	domainagg.CodeInternal:           http.StatusInternalServerError,
}

// StatusForCode maps an aggregate error code to its HTTP status.
func StatusForCode(code domainagg.ErrorCode) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RespondAggregateError derives status and code from a typed aggregate error.
// Server-side failures only expose the error message, never the cause.
func RespondAggregateError(c *gin.Context, err error) {
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	status := StatusForCode(code)
	msg := domainagg.MessageOf(err)
	if msg == "" || status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    string(code),
		},
	})
}

// RespondErr handles transport errors (*apierr.Error) and aggregate errors.
func RespondErr(c *gin.Context, err error) {
	if ae, status, ok := apierr.As(err); ok {
		RespondError(c, status, ae.Code, ae)
		return
	}
	RespondAggregateError(c, err)
}
