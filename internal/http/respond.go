package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arshitcc/rablo-api/internal/domain"
)

// apiResponse is the envelope every endpoint answers with.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, apiResponse{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, apiResponse{Success: false, Message: message})
}

// failErr maps the error taxonomy onto status classes. Internal detail
// never reaches the wire; the sentinel's message does.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateIdentity):
		fail(c, http.StatusConflict, domain.ErrDuplicateIdentity.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error())
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken),
		errors.Is(err, domain.ErrSessionMismatch):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		fail(c, http.StatusForbidden, domain.ErrForbidden.Error())
	case errors.Is(err, domain.ErrNotFound):
		fail(c, http.StatusNotFound, domain.ErrNotFound.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		fail(c, http.StatusServiceUnavailable, domain.ErrStoreUnavailable.Error())
	default:
		fail(c, http.StatusInternalServerError, "internal error")
	}
}
