// README: Shared-URL destination extraction handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenxiii/hudmap/internal/share"
)

type ShareHandler struct {
	extractor *share.Extractor
}

func NewShareHandler(extractor *share.Extractor) *ShareHandler {
	return &ShareHandler{extractor: extractor}
}

type extractRequest struct {
	URL string `json:"url"`
}

func (h *ShareHandler) Extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		writeError(c, http.StatusBadRequest, "url is required")
		return
	}

	p, err := h.extractor.Extract(c.Request.Context(), req.URL)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	if p == nil {
		writeError(c, http.StatusNotFound, "no destination found in url")
		return
	}
	writeJSON(c, http.StatusOK, p)
}
