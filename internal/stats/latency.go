// Package stats summarizes request latencies of a lookup batch.
package stats

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Summary holds the count and tail latencies of a batch.
type Summary struct {
	Count         int
	P50, P95, Max time.Duration
}

// Recorder collects latencies from concurrent requests. The zero value is
// ready to use.
type Recorder struct {
	mu      sync.Mutex
	samples []time.Duration
}

// Observe records one request latency.
func (r *Recorder) Observe(d time.Duration) {
	r.mu.Lock()
	r.samples = append(r.samples, d)
	r.mu.Unlock()
}

// Summary returns percentiles over everything observed so far.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	samples := make([]time.Duration, len(r.samples))
	copy(samples, r.samples)
	r.mu.Unlock()

	return Summarize(samples)
}

// Summarize computes nearest-rank percentiles. samples is not modified.
func Summarize(samples []time.Duration) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return Summary{
		Count: len(sorted),
		P50:   Percentile(sorted, 0.50),
		P95:   Percentile(sorted, 0.95),
		Max:   sorted[len(sorted)-1],
	}
}

// Percentile returns the value at p (0..1) of an ascending slice using the
// nearest-rank method, index = ceil(n*p) - 1.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	index := int(math.Ceil(float64(n)*p)) - 1
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}
	return sorted[index]
}
