// README: Route handlers; build a route and reset resolver state on
// destination change.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenxiii/hudmap/internal/geo"
	"github.com/greenxiii/hudmap/internal/route"
)

type RouteHandler struct {
	resolver *route.Resolver
}

func NewRouteHandler(resolver *route.Resolver) *RouteHandler {
	return &RouteHandler{resolver: resolver}
}

type buildRouteRequest struct {
	From geo.Point `json:"from"`
	To   geo.Point `json:"to"`
}

func (h *RouteHandler) Build(c *gin.Context) {
	var req buildRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.From.Valid() || !req.To.Valid() {
		writeError(c, http.StatusBadRequest, "coordinates out of range")
		return
	}

	r, err := h.resolver.BuildRoute(c.Request.Context(), req.From, req.To)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, r)
}

// Reset clears the availability state and the cache slot. Called by hosts
// when the user supplies a new destination.
func (h *RouteHandler) Reset(c *gin.Context) {
	h.resolver.ResetAvailability()
	h.resolver.ClearCache()
	writeJSON(c, http.StatusOK, map[string]any{"status": "ok"})
}
