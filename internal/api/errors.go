package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"recogym/internal/apperr"
	"recogym/internal/logger"
)

// RespondError writes err as {"error": "..."} with the status its kind maps to.
// Unclassified errors are logged and answered with a generic 500.
func RespondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	c.JSON(status, ErrorResponse{Error: apperr.Message(err)})
}

// BindJSON binds the request body into dst and answers 400 on failure.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// ParamID reads a positive integer path parameter and answers 400 otherwise.
func ParamID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}
