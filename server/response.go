package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/flowkit/errors"
)

// DataResponse is the success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

// RespondWithError writes err using its AppError status, or a 500.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: appErr})
}

// RespondOK writes a 200 wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondNoContent writes a 204.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
