package reporter

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"infercheck/toolkit"
)

// StressResult aggregates one concurrent stress pass. No per-case
// assertions happen here; the pass only reports what came back.
type StressResult struct {
	Workers         int         `json:"workers"`
	Requests        int         `json:"requests"`
	TransportErrors int         `json:"transport_errors"`
	StatusCounts    map[int]int `json:"status_counts"`
	Duration        string      `json:"duration"`
}

// Stress replays every happy-path case concurrently, one full pass per
// worker. The client's shared rate limiter throttles the aggregate request
// rate. Disabled by default; the CLI gates it behind INFERCHECK_STRESS.
func (r *Runner) Stress(ctx context.Context, spec toolkit.SuiteSpec, workers int) StressResult {
	if workers <= 0 {
		workers = 1
	}

	type sample struct {
		status int
		err    bool
	}

	var (
		mu      sync.Mutex
		samples []sample
	)

	client := r.client.ForSuite(spec.BaseURL)

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, ep := range spec.Endpoints {
				for _, tc := range ep.Cases {
					if !isSuccessCase(tc.ID) {
						continue
					}
					path := toolkit.BuildPath(ep.Path, tc.Request.PathParams, tc.Request.Query)
					status, _, _, err := r.execute(ctx, client, ep, tc, path)
					mu.Lock()
					samples = append(samples, sample{status: status, err: err != nil})
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	result := StressResult{
		Workers:      workers,
		StatusCounts: make(map[int]int),
		Duration:     time.Since(start).String(),
	}
	for _, s := range samples {
		result.Requests++
		if s.err {
			result.TransportErrors++
			continue
		}
		result.StatusCounts[s.status]++
	}

	r.logger.Info("stress pass complete",
		zap.Int("workers", result.Workers),
		zap.Int("requests", result.Requests),
		zap.Int("transport_errors", result.TransportErrors),
		zap.String("duration", result.Duration))
	return result
}
