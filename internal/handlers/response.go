package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/saehim/attendance-backend/internal/domain/aggregates"
	"github.com/saehim/attendance-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondDomainError maps failures onto HTTP statuses: an explicit apierr
// carries its own status, aggregate codes map by class, everything else is
// internal.
func RespondDomainError(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		RespondError(c, ae.Status, ae.Code, ae)
		return
	}
	code := domainagg.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case domainagg.CodeValidation:
		status = http.StatusBadRequest
	case domainagg.CodeNotFound:
		status = http.StatusNotFound
	case domainagg.CodeConflict:
		status = http.StatusConflict
	case domainagg.CodePreconditionFailed:
		status = http.StatusPreconditionFailed
	case domainagg.CodeRetryable:
		status = http.StatusServiceUnavailable
	case "":
		code = domainagg.CodeInternal
	}
	RespondError(c, status, string(code), err)
}
