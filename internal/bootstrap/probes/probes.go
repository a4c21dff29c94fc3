package probes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"airwatch/internal/bootstrap/logging"
)

// Result is the outcome of probing a single external dependency.
type Result struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	Required  bool   `json:"required"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// Probe names a dependency check. Required probes make bootstrap fail;
// optional probes only log, leaving the adapter's circuit breaker to shed
// calls while the dependency stays down.
type Probe struct {
	Name     string
	Required bool
	Run      func(ctx context.Context) error
}

// NewBreaker returns a breaker that trips after 3 consecutive failures and
// resets after 30 seconds in the open state.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

// RunAll executes every probe sequentially with a per-probe timeout and
// returns one Result per probe.
func RunAll(ctx context.Context, checks []Probe) []Result {
	results := make([]Result, 0, len(checks))
	for _, check := range checks {
		results = append(results, runOne(ctx, check))
	}
	return results
}

func runOne(ctx context.Context, check Probe) Result {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := check.Run(probeCtx)
	result := Result{
		Name:      check.Name,
		OK:        err == nil,
		Required:  check.Required,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "bootstrap.probes"),
		slog.String("probe", check.Name),
		slog.Int64("latency_ms", result.LatencyMs),
	)
	if result.OK {
		logging.Info(logCtx, "dependency probe ok")
	} else if check.Required {
		logging.Error(logCtx, "required dependency probe failed", slog.String("probe_error", result.Error))
	} else {
		logging.Warn(logCtx, "optional dependency probe failed, continuing degraded", slog.String("probe_error", result.Error))
	}

	return result
}

// FirstRequiredFailure returns an error if any required probe failed.
func FirstRequiredFailure(results []Result) error {
	for _, result := range results {
		if result.Required && !result.OK {
			return fmt.Errorf("required dependency %q unavailable: %s", result.Name, result.Error)
		}
	}
	return nil
}

// Healthy reports whether every probe passed.
func Healthy(results []Result) bool {
	for _, result := range results {
		if !result.OK {
			return false
		}
	}
	return true
}
