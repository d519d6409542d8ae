package aukro

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const defaultBatchConcurrency = 5

// BatchCall is a single remote call executed by CallAll
type BatchCall struct {
	Method string
	Params Request
}

// BatchResult holds the outcome of the BatchCall at the same index
type BatchResult struct {
	Method   string
	Response Response
	Err      error
}

// BatchMetrics tracks the outcome of a CallAll run
type BatchMetrics struct {
	Succeeded int
	Failed    int
	Duration  time.Duration
	mu        sync.Mutex
}

// AddSuccess increments the succeeded count
func (m *BatchMetrics) AddSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Succeeded++
}

// AddFailure increments the failed count
func (m *BatchMetrics) AddFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failed++
}

// Total returns the number of finished calls
func (m *BatchMetrics) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Succeeded + m.Failed
}

// CallAll runs independent calls concurrently, at most maxConcurrency at a
// time. Results are returned in input order. A failed call does not stop the others.
func (c *Client) CallAll(ctx context.Context, calls []BatchCall, maxConcurrency int) ([]BatchResult, *BatchMetrics) {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultBatchConcurrency
	}
	startTime := time.Now()
	metrics := &BatchMetrics{}
	results := make([]BatchResult, len(calls))

	c.logger.Info("Starting batch call",
		zap.Int("calls", len(calls)),
		zap.Int("max_concurrency", maxConcurrency))

	p := pool.New().WithMaxGoroutines(maxConcurrency).WithErrors()
	for idx, call := range calls {
		i := idx
		call := call
		p.Go(func() error {
			resp, err := c.Call(ctx, call.Method, call.Params)
			results[i] = BatchResult{Method: call.Method, Response: resp, Err: err}
			if err != nil {
				metrics.AddFailure()
				c.logger.Error("Batch call failed",
					zap.String("method", call.Method),
					zap.Int("index", i),
					zap.Error(err))
				return fmt.Errorf("call %s: %w", call.Method, err)
			}
			metrics.AddSuccess()
			return nil
		})
	}
	_ = p.Wait()

	metrics.Duration = time.Since(startTime)
	c.logger.Info("Completed batch call",
		zap.Duration("duration", metrics.Duration),
		zap.Int("succeeded", metrics.Succeeded),
		zap.Int("failed", metrics.Failed))

	return results, metrics
}
