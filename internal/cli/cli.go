package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"loadprobe/internal/metrics"
	"loadprobe/internal/report"
	"loadprobe/internal/runner"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options controls the headless frontend.
type Options struct {
	Format      string
	MetricsAddr string

	// Out receives the final report, Log the header, progress and notices.
	// Both default to stdout; Log is discarded in JSON mode.
	Out io.Writer
	Log io.Writer
}

func (o Options) writers() (out, log io.Writer) {
	out, log = o.Out, o.Log
	if out == nil {
		out = os.Stdout
	}
	if log == nil {
		log = os.Stdout
		if o.Format == FormatJSON {
			log = io.Discard
		}
	}
	return out, log
}

// Start runs warmup and the measured phase with a text progress bar, then
// prints the report. The report is written even when the run is aborted
// or interrupted; the returned error is the setup fault, if any.
func Start(parent context.Context, cfg runner.Config, opts Options) error {
	out, log := opts.writers()

	updates := make(runner.ProgressChan, 100)
	r, collector, err := newRunner(cfg, updates, opts.MetricsAddr)
	if err != nil {
		return err
	}

	report.WriteHeader(log, cfg, r.RunID)

	sig := runner.NewSignal(parent)
	stop := sig.NotifyInterrupt(func() {
		fmt.Fprintln(log, "\n\n⚠️  Interrupt received. Finishing current requests and showing results...")
	})
	defer stop()

	if collector != nil {
		go func() {
			if err := collector.Serve(sig.Context(), opts.MetricsAddr); err != nil {
				fmt.Fprintf(log, "metrics: %v\n", err)
			}
		}()
		defer sig.Trigger()
	}

	// Start Monitor Loop
	monitorDone := make(chan struct{})
	var startTime time.Time
	go func() {
		defer close(monitorDone)
		for p := range updates {
			if p.Phase == runner.PhaseWarmup {
				fmt.Fprintf(log, "Warmup complete. Starting test in %s...\n", cfg.WarmupPause)
				continue
			}
			fmt.Fprint(log, report.ProgressLine(p, time.Since(startTime)))
		}
	}()

	runErr := warmup(sig.Context(), r, log)
	if runErr == nil {
		startTime = time.Now()
		_, runErr = r.Run(sig.Context())
	}
	close(updates)
	<-monitorDone
	fmt.Fprintln(log)

	summary := r.Summary()
	switch opts.Format {
	case FormatJSON:
		if err := report.WriteJSON(out, summary, cfg, runErr); err != nil {
			return err
		}
	default:
		report.WriteConsole(out, summary)
	}

	if runErr != nil {
		return fmt.Errorf("error during test execution: %w", runErr)
	}
	return nil
}

func newRunner(cfg runner.Config, updates runner.ProgressChan, metricsAddr string) (*runner.Runner, *metrics.Collector, error) {
	r, err := runner.NewRunner(cfg, updates)
	if err != nil || metricsAddr == "" {
		return r, nil, err
	}

	collector := metrics.NewCollector(r.RunID)
	r.AddObserver(collector)
	return r, collector, nil
}

func warmup(ctx context.Context, r *runner.Runner, log io.Writer) error {
	if r.Cfg.SkipWarmup {
		return nil
	}
	fmt.Fprintf(log, "Warmup... (%d requests)\n", r.Cfg.Concurrency)
	return r.Warmup(ctx)
}
