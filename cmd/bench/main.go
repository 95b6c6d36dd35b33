// README: Smoke/benchmark runner; executes HTTP, DB, and Redis checks
// against a running hudmap API and prints results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"
)

func main() {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	bench := NewRunner(cfg)
	results := bench.RunAll(ctx)

	fmt.Println("\n== Summary ==")
	pass, fail, skipped := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case "PASS":
			pass++
		case "FAIL":
			fail++
		case "SKIP":
			skipped++
		}
	}
	fmt.Printf("PASS=%d FAIL=%d SKIP=%d\n", pass, fail, skipped)

	if fail > 0 {
		os.Exit(1)
	}
}

type Config struct {
	BaseURL     string
	DSN         string
	RedisAddr   string
	Timeout     time.Duration
	Concurrency int
	Duration    time.Duration
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("HUDMAP_BENCH_BASE_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&cfg.DSN, "dsn", envOrDefault("HUDMAP_DB_DSN", ""), "Postgres DSN for snapshot checks (optional)")
	flag.StringVar(&cfg.RedisAddr, "redis", envOrDefault("HUDMAP_REDIS_ADDR", ""), "Redis address for live-position checks (optional)")
	flag.DurationVar(&cfg.Timeout, "timeout", 60*time.Second, "overall run timeout")
	flag.IntVar(&cfg.Concurrency, "concurrency", 8, "parallel clients for the load case")
	flag.DurationVar(&cfg.Duration, "duration", 3*time.Second, "duration of the load case")
	flag.Parse()
	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
