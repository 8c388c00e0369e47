package runner

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"loadprobe/internal/results"
)

var (
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrRunAborted marks a fault outside the per-request boundary.
	ErrRunAborted = errors.New("run aborted")
)

const DefaultWarmupPause = time.Second

type Config struct {
	URL         string `mapstructure:"url"`
	Concurrency int    `mapstructure:"concurrent"`
	Total       int    `mapstructure:"total"`
	TimeoutSec  int    `mapstructure:"timeout"`

	SkipWarmup  bool          `mapstructure:"no-warmup"`
	WarmupPause time.Duration `mapstructure:"warmup-pause"`

	// Transport
	Insecure bool `mapstructure:"insecure"`
	HTTP2    bool `mapstructure:"http2"`
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Validate checks the startup parameters.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("%w: url: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: url must be http or https, got %q", ErrInvalidConfig, c.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: url has no host: %q", ErrInvalidConfig, c.URL)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrent must be greater than 0", ErrInvalidConfig)
	}
	if c.Total <= 0 {
		return fmt.Errorf("%w: total must be greater than 0", ErrInvalidConfig)
	}
	if c.TimeoutSec <= 0 {
		return fmt.Errorf("%w: timeout must be greater than 0", ErrInvalidConfig)
	}
	if c.Concurrency > c.Total {
		return fmt.Errorf("%w: concurrent cannot be greater than total", ErrInvalidConfig)
	}
	if c.WarmupPause < 0 {
		return fmt.Errorf("%w: warmup-pause cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Phase identifies which part of a run a progress event belongs to.
type Phase string

const (
	PhaseWarmup   Phase = "warmup"
	PhaseMeasured Phase = "measured"
)

// Progress is sent over the updates channel after every batch.
type Progress struct {
	Phase      Phase
	Dispatched int
	Total      int
	Batch      int

	// Live counters (measured phase only)
	Success  uint64
	Fail     uint64
	Inflight int64

	// Running error breakdown; ErrorRate is a percentage of completed requests.
	ErrorRate float64
	Errors    map[string]int

	// Approximate latency for the UI (cheap copy)
	MeanMs float64
	P50Ms  float64
	P95Ms  float64
	P99Ms  float64
	MaxMs  float64
}

// Fraction of the run dispatched so far, in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Dispatched) / float64(p.Total)
}

// ProgressChan is the updates channel type
type ProgressChan chan Progress

// Observer receives every measured-phase outcome. Implementations must be
// safe for concurrent use.
type Observer interface {
	Observe(results.Outcome)
}

// BatchObserver is optionally implemented by observers that track batches.
type BatchObserver interface {
	ObserveBatch(size int, elapsed time.Duration)
}
