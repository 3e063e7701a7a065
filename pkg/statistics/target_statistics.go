package statistics

import (
	"sync"
	"time"

	"github.com/caio/go-tdigest"
)

// Per-target execution time digests, in milliseconds.
type targetStatistics struct {
	mu         sync.Mutex
	TargetTime map[string]*tdigest.TDigest
	Quantiles  []float64
}

var execStatistics = targetStatistics{
	TargetTime: make(map[string]*tdigest.TDigest),
}

func SetQuantiles(q []float64) {
	execStatistics.mu.Lock()
	defer execStatistics.mu.Unlock()
	execStatistics.Quantiles = q
}

func GetQuantiles() []float64 {
	execStatistics.mu.Lock()
	defer execStatistics.mu.Unlock()
	return append([]float64{}, execStatistics.Quantiles...)
}

// RecordTargetTime records how long a callback for target took.
func RecordTargetTime(target string, d time.Duration) {
	execStatistics.mu.Lock()
	td := execStatistics.TargetTime[target]
	if td == nil {
		td, _ = tdigest.New()
		execStatistics.TargetTime[target] = td
	}
	_ = td.Add(float64(d.Microseconds()) / 1000)
	execStatistics.mu.Unlock()

	targetDuration.Observe(d.Seconds())
}

// GetTargetTimeQuantile returns the q-quantile of target execution time in
// milliseconds, 0 when nothing was recorded.
func GetTargetTimeQuantile(target string, q float64) float64 {
	execStatistics.mu.Lock()
	defer execStatistics.mu.Unlock()
	td := execStatistics.TargetTime[target]
	if td == nil || td.Count() == 0 {
		return 0
	}
	return td.Quantile(q)
}

// GetTargetCount returns how many executions were recorded for target.
func GetTargetCount(target string) uint64 {
	execStatistics.mu.Lock()
	defer execStatistics.mu.Unlock()
	td := execStatistics.TargetTime[target]
	if td == nil {
		return 0
	}
	return td.Count()
}

// Reset drops every recorded digest.
func Reset() {
	execStatistics.mu.Lock()
	defer execStatistics.mu.Unlock()
	execStatistics.TargetTime = make(map[string]*tdigest.TDigest)
}
