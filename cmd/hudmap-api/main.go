// README: Entry point; loads config, wires the navigation core and starts
// the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/greenxiii/hudmap/internal/config"
	"github.com/greenxiii/hudmap/internal/heading"
	httptransport "github.com/greenxiii/hudmap/internal/http"
	"github.com/greenxiii/hudmap/internal/infra"
	"github.com/greenxiii/hudmap/internal/maps"
	"github.com/greenxiii/hudmap/internal/roads"
	"github.com/greenxiii/hudmap/internal/route"
	"github.com/greenxiii/hudmap/internal/share"
	"github.com/greenxiii/hudmap/internal/track"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	osrm := route.NewOSRMClient(cfg.OSRM.BaseURL, time.Duration(cfg.OSRM.TimeoutSeconds)*time.Second)
	resolver := route.NewResolver(osrm, time.Duration(cfg.OSRM.TimeoutSeconds)*time.Second)

	fetcher := roads.NewFetcher(cfg.Overpass.URL, time.Duration(cfg.Overpass.TimeoutSeconds)*time.Second)

	tracker := heading.NewTracker(time.Duration(cfg.Heading.DebounceMs) * time.Millisecond)
	defer tracker.Stop()

	var geocoder share.Geocoder
	if cfg.Google.MapsKey != "" {
		svc, err := maps.NewGeocodeService(cfg.Google.MapsKey)
		if err != nil {
			log.Fatalf("google geocoder init: %v", err)
		}
		geocoder = svc
	}
	extractor := share.NewExtractor(cfg.Nominatim.URL, cfg.Nominatim.UserAgent, geocoder)

	// Snapshot persistence is optional; both stores must be configured.
	if cfg.DB.DSN != "" && cfg.Redis.Addr != "" {
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			log.Fatal(err)
		}
		defer dbPool.Close()

		redisClient := infra.NewRedis(cfg.Redis.Addr)
		trackSvc := track.NewService(track.NewStore(dbPool, redisClient))
		sub := trackSvc.Attach("local", tracker)
		defer sub.Unsubscribe()
	}

	handler := httptransport.NewRouter(httptransport.ServerDeps{
		Resolver:  resolver,
		Roads:     fetcher,
		Tracker:   tracker,
		Extractor: extractor,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("hudmap api listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
