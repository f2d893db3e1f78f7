package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Prometheus metrics for batch dispatch.
var (
	batchUnitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_batch_units_total",
		Help: "Total batch units dispatched by operation and outcome",
	}, []string{"operation", "outcome"})

	batchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_batch_duration_seconds",
		Help:    "Wall-clock duration of whole batch runs by operation",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"operation"})
)

// Unit is one dispatchable item of a batch: a stable subject identifier
// (document ID, recipient email) and the operation to run for it.
type Unit struct {
	SubjectID string
	Do        func(ctx context.Context) error
}

// Result is the retained outcome of one unit. Results are never discarded;
// callers aggregate them into the user-facing summary.
type Result struct {
	SubjectID string
	Success   bool
	Error     string
}

// Config holds dispatcher configuration.
type Config struct {
	// Operation names the batch for logging and metrics.
	Operation string

	// Concurrency is the maximum number of units in flight at once.
	// 1 (the default) runs units strictly sequentially: each unit's
	// network call resolves before the next begins.
	Concurrency int
}

// Dispatcher runs batch units with bounded concurrency. One unit's failure
// never aborts the remaining units; every unit yields a Result.
type Dispatcher struct {
	config Config
}

// NewDispatcher creates a dispatcher, defaulting to sequential execution.
func NewDispatcher(config Config) *Dispatcher {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.Operation == "" {
		config.Operation = "batch"
	}
	return &Dispatcher{config: config}
}

// Dispatch runs every unit and returns one Result per unit, in unit order.
// There is no mid-batch cancellation beyond ctx: once started, the batch
// runs each remaining unit to completion or to its own failure.
func (d *Dispatcher) Dispatch(ctx context.Context, units []Unit) []Result {
	start := time.Now()
	results := make([]Result, len(units))

	sem := semaphore.NewWeighted(int64(d.config.Concurrency))
	var wg sync.WaitGroup

	for i, unit := range units {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context gone: record the remaining units as failed so the
			// summary still covers every subject.
			for j := i; j < len(units); j++ {
				results[j] = Result{SubjectID: units[j].SubjectID, Error: err.Error()}
				batchUnitsTotal.WithLabelValues(d.config.Operation, "failure").Inc()
			}
			break
		}

		wg.Add(1)
		go func(i int, unit Unit) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = d.runUnit(ctx, unit)
		}(i, unit)
	}

	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}

	batchDuration.WithLabelValues(d.config.Operation).Observe(time.Since(start).Seconds())
	log.Info().
		Str("operation", d.config.Operation).
		Int("units", len(units)).
		Int("succeeded", succeeded).
		Int("failed", len(units)-succeeded).
		Dur("duration", time.Since(start)).
		Msg("Batch complete")

	return results
}

// runUnit executes one unit, converting panics and errors into a Result.
func (d *Dispatcher) runUnit(ctx context.Context, unit Unit) (result Result) {
	result.SubjectID = unit.SubjectID

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("panic: %v", r)
			batchUnitsTotal.WithLabelValues(d.config.Operation, "failure").Inc()
			log.Error().
				Str("operation", d.config.Operation).
				Str("subject", unit.SubjectID).
				Interface("panic", r).
				Msg("Batch unit panicked")
		}
	}()

	if err := unit.Do(ctx); err != nil {
		result.Error = err.Error()
		batchUnitsTotal.WithLabelValues(d.config.Operation, "failure").Inc()
		log.Warn().
			Err(err).
			Str("operation", d.config.Operation).
			Str("subject", unit.SubjectID).
			Msg("Batch unit failed")
		return result
	}

	result.Success = true
	batchUnitsTotal.WithLabelValues(d.config.Operation, "success").Inc()
	return result
}

// Summarize counts successes and failures and collects the subject IDs of
// the failed units, preserving dispatch order.
func Summarize(results []Result) (successful, failed int, failedSubjects []string) {
	for _, r := range results {
		if r.Success {
			successful++
			continue
		}
		failed++
		failedSubjects = append(failedSubjects, r.SubjectID)
	}
	return successful, failed, failedSubjects
}
