package http

import (
	"net/http"

	"project_outreach/internal/apperrors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var statusByCode = map[apperrors.ErrorCode]int{
	apperrors.ErrCodeAuth:                 http.StatusNotFound,
	apperrors.ErrCodeValidation:           http.StatusBadRequest,
	apperrors.ErrCodeNoRecipients:         http.StatusBadRequest,
	apperrors.ErrCodeChannelNotConfigured: http.StatusBadRequest,
	apperrors.ErrCodeNotAllowed:           http.StatusPaymentRequired,
	apperrors.ErrCodeLimitExceeded:        http.StatusPaymentRequired,
	apperrors.ErrCodeDispatchInProgress:   http.StatusConflict,
	apperrors.ErrCodeProvisioningFailure:  http.StatusBadGateway,
	apperrors.ErrCodeProviderFailure:      http.StatusBadGateway,
}

func statusFor(code apperrors.ErrorCode) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// errorBody renders err for clients. AUTH never says whether the tenant
// exists and internal causes are never echoed.
func errorBody(err error) (int, gin.H) {
	e, ok := apperrors.As(err)
	if !ok {
		return http.StatusInternalServerError, gin.H{"success": false, "code": apperrors.ErrCodeInternal, "error": "Internal server error"}
	}

	status := statusFor(e.Code)
	body := gin.H{"success": false, "code": e.Code, "error": e.Message}
	switch e.Code {
	case apperrors.ErrCodeAuth:
		body["error"] = "Not found"
	case apperrors.ErrCodeLimitExceeded:
		body["remaining"] = e.Remaining
		body["details"] = e.Details
	default:
		if e.Details != "" {
			body["details"] = e.Details
		}
	}
	return status, body
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	h.fail(c, apperrors.Validation(msg))
}
