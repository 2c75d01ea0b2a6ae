// Package httpkit holds the shared response shapes for gin handlers.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bidrelay_backend/platform/apperr"
)

// ErrorResponse is the single error envelope every endpoint returns.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes payload with an explicit status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Error writes the error envelope with the given status.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// OK writes payload with 200.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// HandleError writes a typed *apperr.Error with its mapped status, any
// other error as 400, and reports whether it wrote anything. Handlers
// return immediately when it does.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if domainErr, ok := err.(*apperr.Error); ok {
		c.JSON(domainErr.HTTPStatus(), ErrorResponse{Error: domainErr.Message})
		return true
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	return true
}
