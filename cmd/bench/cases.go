// README: Benchmark test cases; HTTP endpoint checks, snapshot persistence
// checks, and a small location-update load case.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	r := &Runner{cfg: cfg, httpc: &http.Client{Timeout: 10 * time.Second}}
	if cfg.DSN != "" {
		if db, err := pgxpool.New(context.Background(), cfg.DSN); err == nil {
			r.db = db
		}
	}
	if cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	return r
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	cases := []TestCase{
		{"health", runHealth},
		{"location update + readback", runLocationRoundTrip},
		{"route build", runRouteBuild},
		{"nearby roads", runNearbyRoads},
		{"snapshot persisted", runSnapshotPersisted},
		{"live position in redis", runLivePosition},
		{"location update load", runLocationLoad},
	}

	var results []Result
	for _, tc := range cases {
		start := time.Now()
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		if res.Latency == 0 {
			res.Latency = time.Since(start)
		}
		fmt.Printf("%-28s %-5s %8s  %s\n", res.Name, res.Status, res.Latency.Round(time.Millisecond), res.Note)
		results = append(results, res)
	}
	return results
}

func (r *Runner) postJSON(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	return r.doJSON(ctx, http.MethodPost, path, body)
}

func (r *Runner) doJSON(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return resp, data, err
}

func runHealth(ctx context.Context, r *Runner) Result {
	resp, _, err := r.doJSON(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	return Result{Status: "PASS"}
}

func runLocationRoundTrip(ctx context.Context, r *Runner) Result {
	resp, _, err := r.doJSON(ctx, http.MethodPut, "/api/location", map[string]any{
		"lat": 48.8566, "lng": 2.3522, "heading": 90.0, "accuracy": 5,
	})
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("update status %d", resp.StatusCode)}
	}

	resp, data, err := r.doJSON(ctx, http.MethodGet, "/api/location", nil)
	if err != nil || resp.StatusCode != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("readback: %v status %v", err, resp != nil)}
	}
	var cur struct {
		Heading float64 `json:"heading"`
	}
	if err := json.Unmarshal(data, &cur); err != nil || cur.Heading != 90 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("fused heading %v", cur.Heading)}
	}
	return Result{Status: "PASS"}
}

func runRouteBuild(ctx context.Context, r *Runner) Result {
	resp, data, err := r.postJSON(ctx, "/api/route", map[string]any{
		"from": map[string]float64{"lat": 48.8566, "lng": 2.3522},
		"to":   map[string]float64{"lat": 48.8738, "lng": 2.2950},
	})
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	var route struct {
		Points   []any `json:"points"`
		Fallback bool  `json:"fallback"`
	}
	if err := json.Unmarshal(data, &route); err != nil || len(route.Points) < 2 {
		return Result{Status: "FAIL", Note: "route has no geometry"}
	}
	note := ""
	if route.Fallback {
		note = "fallback route (routing service unreachable)"
	}
	return Result{Status: "PASS", Note: note}
}

func runNearbyRoads(ctx context.Context, r *Runner) Result {
	resp, data, err := r.doJSON(ctx, http.MethodGet, "/api/roads?lat=48.8566&lng=2.3522&radius=500", nil)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if resp.StatusCode == http.StatusBadGateway {
		return Result{Status: "SKIP", Note: "geodata service unreachable"}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	var payload struct {
		Segments []any `json:"segments"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return Result{Status: "FAIL", Note: "bad payload"}
	}
	return Result{Status: "PASS", Note: fmt.Sprintf("%d segments", len(payload.Segments))}
}

func runSnapshotPersisted(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: "SKIP", Note: "no dsn configured"}
	}
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM location_snapshots WHERE recorded_at > now() - interval '5 minutes'`,
	).Scan(&count)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if count == 0 {
		return Result{Status: "FAIL", Note: "no recent snapshots"}
	}
	return Result{Status: "PASS", Note: fmt.Sprintf("%d recent rows", count)}
}

func runLivePosition(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: "SKIP", Note: "no redis configured"}
	}
	pos, err := r.redis.GeoPos(ctx, "hudmap:live", "local").Result()
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if len(pos) == 0 || pos[0] == nil {
		return Result{Status: "FAIL", Note: "no live position for tracker"}
	}
	return Result{Status: "PASS", Note: fmt.Sprintf("%.4f,%.4f", pos[0].Latitude, pos[0].Longitude)}
}

// runLocationLoad hammers the fix-ingestion endpoint to measure sustained
// update throughput.
func runLocationLoad(ctx context.Context, r *Runner) Result {
	loadCtx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	var total, failed atomic.Int64
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			lat := 48.8566 + float64(worker)*0.0001
			for loadCtx.Err() == nil {
				resp, _, err := r.doJSON(loadCtx, http.MethodPut, "/api/location", map[string]any{
					"lat": lat, "lng": 2.3522, "heading": 90.0, "accuracy": 5,
				})
				if loadCtx.Err() != nil {
					return
				}
				total.Add(1)
				if err != nil || resp.StatusCode != http.StatusOK {
					failed.Add(1)
				}
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	if total.Load() == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	if failed.Load() > 0 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("%d/%d failed", failed.Load(), total.Load())}
	}
	rate := float64(total.Load()) / elapsed.Seconds()
	return Result{Status: "PASS", Latency: elapsed, Note: fmt.Sprintf("%.0f updates/s", rate)}
}
