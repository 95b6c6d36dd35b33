// README: API gateway; registers HTTP routes and delegates to module
// services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenxiii/hudmap/internal/heading"
	"github.com/greenxiii/hudmap/internal/http/handlers"
	"github.com/greenxiii/hudmap/internal/http/middleware"
	"github.com/greenxiii/hudmap/internal/roads"
	"github.com/greenxiii/hudmap/internal/route"
	"github.com/greenxiii/hudmap/internal/share"
)

type ServerDeps struct {
	Resolver  *route.Resolver
	Roads     *roads.Fetcher
	Tracker   *heading.Tracker
	Extractor *share.Extractor
}

func NewRouter(deps ServerDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	routeHandler := handlers.NewRouteHandler(deps.Resolver)
	r.POST("/api/route", routeHandler.Build)
	r.POST("/api/route/reset", routeHandler.Reset)

	roadsHandler := handlers.NewRoadsHandler(deps.Roads)
	r.GET("/api/roads", roadsHandler.Nearby)

	locationHandler := handlers.NewLocationHandler(deps.Tracker)
	r.PUT("/api/location", locationHandler.Update)
	r.POST("/api/compass", locationHandler.Compass)
	r.GET("/api/location", locationHandler.Current)

	shareHandler := handlers.NewShareHandler(deps.Extractor)
	r.POST("/api/destination/extract", shareHandler.Extract)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
