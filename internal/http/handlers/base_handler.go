// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenxiii/hudmap/internal/roads"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeRoadsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, roads.ErrUnavailable):
		writeError(c, http.StatusBadGateway, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
