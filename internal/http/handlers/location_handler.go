// README: Location handlers; ingest raw fixes and compass samples, expose
// the fused state.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/greenxiii/hudmap/internal/geo"
	"github.com/greenxiii/hudmap/internal/heading"
)

type LocationHandler struct {
	tracker *heading.Tracker
}

func NewLocationHandler(tracker *heading.Tracker) *LocationHandler {
	return &LocationHandler{tracker: tracker}
}

type locationFixRequest struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Heading   *float64  `json:"heading"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *LocationHandler) Update(c *gin.Context) {
	var req locationFixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	pos := geo.Point{Lat: req.Lat, Lng: req.Lng}
	if !pos.Valid() {
		writeError(c, http.StatusBadRequest, "coordinates out of range")
		return
	}

	// Absent heading means the fix carries no GPS course.
	hdg := -1.0
	if req.Heading != nil {
		hdg = *req.Heading
	}
	h.tracker.OnFix(heading.Fix{
		Position:  pos,
		Heading:   hdg,
		Accuracy:  req.Accuracy,
		Timestamp: req.Timestamp,
	})

	cur, _ := h.tracker.Current()
	writeJSON(c, http.StatusOK, cur)
}

type compassRequest struct {
	Degrees float64 `json:"degrees"`
}

func (h *LocationHandler) Compass(c *gin.Context) {
	var req compassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	h.tracker.OnCompass(req.Degrees)
	writeJSON(c, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *LocationHandler) Current(c *gin.Context) {
	cur, ok := h.tracker.Current()
	if !ok {
		writeError(c, http.StatusNotFound, "no location fix yet")
		return
	}
	writeJSON(c, http.StatusOK, cur)
}
