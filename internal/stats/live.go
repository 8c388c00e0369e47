package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"loadprobe/internal/results"
)

// Live holds running counters for progress views. It is approximate
// (HDR buckets); the final report always comes from Compute.
type Live struct {
	Requests uint64
	Success  uint64
	Fail     uint64

	// Response times (microseconds)
	ResponseTime *SafeHistogram

	errMu  sync.Mutex
	errors map[string]int
}

func NewLive() *Live {
	return &Live{
		ResponseTime: NewSafeHistogram(),
		errors:       make(map[string]int),
	}
}

// Observe implements the runner's outcome observer.
func (l *Live) Observe(o results.Outcome) {
	atomic.AddUint64(&l.Requests, 1)
	if o.Success {
		atomic.AddUint64(&l.Success, 1)
	} else {
		atomic.AddUint64(&l.Fail, 1)
		l.errMu.Lock()
		l.errors[o.ErrorKey()]++
		l.errMu.Unlock()
	}

	l.ResponseTime.RecordDuration(time.Duration(o.ResponseTimeMs * float64(time.Millisecond)))
}

func (l *Live) ErrorRate() float64 {
	reqs := atomic.LoadUint64(&l.Requests)
	if reqs == 0 {
		return 0
	}
	fails := atomic.LoadUint64(&l.Fail)
	return (float64(fails) / float64(reqs)) * 100
}

func (l *Live) GetP50() float64 {
	return l.ResponseTime.QuantileMs(50)
}

func (l *Live) GetP95() float64 {
	return l.ResponseTime.QuantileMs(95)
}

func (l *Live) GetP99() float64 {
	return l.ResponseTime.QuantileMs(99)
}

// GetErrorCounts returns a copy of the running error breakdown.
func (l *Live) GetErrorCounts() map[string]int {
	l.errMu.Lock()
	defer l.errMu.Unlock()

	out := make(map[string]int, len(l.errors))
	for k, v := range l.errors {
		out[k] = v
	}
	return out
}
