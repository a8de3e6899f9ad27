// Package report saves the results of a lookup as a timestamped JSON file.
package report

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"github.com/westernwontons/geolocate/internal/stats"
)

// MillisDuration marshals a time.Duration as an integer millisecond count.
type MillisDuration time.Duration

func (d MillisDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

// Report is one lookup batch as written to disk.
type Report struct {
	Timestamp    time.Time         `json:"timestamp"`
	Provider     string            `json:"provider"`
	Addresses    []string          `json:"addresses"`
	P50LatencyMS MillisDuration    `json:"p50_latency_ms"`
	P95LatencyMS MillisDuration    `json:"p95_latency_ms"`
	MaxLatencyMS MillisDuration    `json:"max_latency_ms"`
	Results      []json.RawMessage `json:"results"`
}

// New assembles a report for results fetched from providerName.
func New(now time.Time, providerName string, addrs []netip.Addr, summary stats.Summary, results []json.RawMessage) *Report {
	addresses := make([]string, len(addrs))
	for i, addr := range addrs {
		addresses[i] = addr.String()
	}
	if results == nil {
		results = []json.RawMessage{}
	}

	return &Report{
		Timestamp:    now.UTC(),
		Provider:     providerName,
		Addresses:    addresses,
		P50LatencyMS: MillisDuration(summary.P50),
		P95LatencyMS: MillisDuration(summary.P95),
		MaxLatencyMS: MillisDuration(summary.Max),
		Results:      results,
	}
}

// Filename is {provider}-{YYYYMMDD-HHMMSS}.json.
func (r *Report) Filename() string {
	return fmt.Sprintf("%s-%s.json", r.Provider, r.Timestamp.Format("20060102-150405"))
}

// Write stores the report in dir, creating the directory if needed, and
// returns the file path.
func (r *Report) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	path := filepath.Join(dir, r.Filename())
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
