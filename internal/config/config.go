// README: Config loader with env defaults for HTTP, upstream geodata
// services, heading fusion, and optional persistence.
package config

import (
	"os"
	"strconv"
)

type HeadingConfig struct {
	DebounceMs int
}

type Config struct {
	HTTP struct {
		Addr string
	}
	OSRM struct {
		BaseURL        string
		TimeoutSeconds int
	}
	Overpass struct {
		URL            string
		TimeoutSeconds int
	}
	Nominatim struct {
		URL       string
		UserAgent string
	}
	Heading HeadingConfig
	// DB and Redis are optional; empty values disable snapshot persistence.
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Google struct {
		MapsKey string
	}
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("HUDMAP_HTTP_ADDR", ":8080")
	cfg.OSRM.BaseURL = envOrDefault("HUDMAP_OSRM_URL", "https://router.project-osrm.org")
	cfg.OSRM.TimeoutSeconds = envOrDefaultInt("HUDMAP_OSRM_TIMEOUT", 8)
	cfg.Overpass.URL = envOrDefault("HUDMAP_OVERPASS_URL", "https://overpass-api.de/api/interpreter")
	cfg.Overpass.TimeoutSeconds = envOrDefaultInt("HUDMAP_OVERPASS_TIMEOUT", 30)
	cfg.Nominatim.URL = envOrDefault("HUDMAP_NOMINATIM_URL", "https://nominatim.openstreetmap.org/search")
	cfg.Nominatim.UserAgent = envOrDefault("HUDMAP_USER_AGENT", "hudmap/1.0")
	cfg.Heading.DebounceMs = envOrDefaultInt("HUDMAP_HEADING_DEBOUNCE_MS", 50)
	cfg.DB.DSN = envOrDefault("HUDMAP_DB_DSN", "")
	cfg.Redis.Addr = envOrDefault("HUDMAP_REDIS_ADDR", "")
	cfg.Google.MapsKey = envOrDefault("GOOGLE_MAPS_API_KEY", "")
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
