// README: Nearby roads handler.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/greenxiii/hudmap/internal/geo"
	"github.com/greenxiii/hudmap/internal/roads"
)

type RoadsHandler struct {
	fetcher *roads.Fetcher
}

func NewRoadsHandler(fetcher *roads.Fetcher) *RoadsHandler {
	return &RoadsHandler{fetcher: fetcher}
}

func (h *RoadsHandler) Nearby(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	center := geo.Point{Lat: lat, Lng: lng}
	if !center.Valid() {
		writeError(c, http.StatusBadRequest, "coordinates out of range")
		return
	}

	radius := 400.0
	if v := c.Query("radius"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			writeError(c, http.StatusBadRequest, "invalid radius")
			return
		}
		radius = r
	}

	segments, err := h.fetcher.FetchNearby(c.Request.Context(), center, radius)
	if err != nil {
		writeRoadsError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"segments": segments})
}
